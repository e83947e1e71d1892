// Copyright 2026 Peter Edge
//
// All rights reserved.

package gainsctlserver

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// limiterExpiration is how long an idle client's limiter is kept.
const limiterExpiration = 10 * time.Minute

// clientLimiter rate limits requests per client IP.
type clientLimiter struct {
	limit    rate.Limit
	burst    int
	limiters *cache.Cache
}

func newClientLimiter(perSecond float64, burst int) *clientLimiter {
	return &clientLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: cache.New(limiterExpiration, 2*limiterExpiration),
	}
}

// allow reports whether a request from client may proceed.
func (c *clientLimiter) allow(client string) bool {
	// Add fails if another request already created the limiter.
	_ = c.limiters.Add(client, rate.NewLimiter(c.limit, c.burst), cache.DefaultExpiration)
	value, ok := c.limiters.Get(client)
	if !ok {
		return true
	}
	limiter, ok := value.(*rate.Limiter)
	if !ok {
		return true
	}
	// Refresh the expiration of active clients.
	c.limiters.SetDefault(client, limiter)
	return limiter.Allow()
}

func (c *clientLimiter) middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !c.allow(clientIP(r)) {
				logger.Warn(
					"rate limit exceeded",
					"method", r.Method,
					"path", sanitize(r.URL.Path),
					"remote_addr", r.RemoteAddr,
				)
				respondError(logger, w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// newRequestLogger returns middleware that logs each request with slog.
func newRequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(wrapped, r)
			status := wrapped.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info(
				"request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", sanitize(r.Method),
				"path", sanitize(r.URL.Path),
				"status", status,
				"bytes", wrapped.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}

// clientIP returns the client address. RealIP has already applied forwarding headers.
func clientIP(r *http.Request) string {
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 && !strings.HasSuffix(host, "]") {
		host = host[:i]
	}
	return strings.Trim(host, "[]")
}

// sanitize strips CR and LF from user-supplied values before logging.
func sanitize(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}
