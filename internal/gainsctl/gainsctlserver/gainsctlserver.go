// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package gainsctlserver serves report generation over HTTP.
//
// Routes:
//
//	POST /upload            Upload a ledger (multipart field "file", optional "days_limit")
//	GET  /download/{name}   Download a saved report artifact
//	GET  /health            Health check
package gainsctlserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlconfig"
	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlstore"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
)

// shutdownTimeout is how long in-flight requests get to finish on shutdown.
const shutdownTimeout = 30 * time.Second

// HandlerOption is a functional option for NewHandler.
type HandlerOption func(*handler)

// HandlerWithClock sets the clock used to timestamp artifacts.
func HandlerWithClock(now func() time.Time) HandlerOption {
	return func(handler *handler) {
		handler.now = now
	}
}

// HandlerWithRunIDGenerator sets the generator of per-upload run IDs.
func HandlerWithRunIDGenerator(newRunID func() string) HandlerOption {
	return func(handler *handler) {
		handler.newRunID = newRunID
	}
}

// NewHandler returns the HTTP handler serving all routes.
func NewHandler(
	logger *slog.Logger,
	config *gainsctlconfig.Config,
	store gainsctlstore.Store,
	options ...HandlerOption,
) http.Handler {
	handler := &handler{
		logger:   logger,
		config:   config,
		store:    store,
		limiter:  newClientLimiter(config.RateLimitPerSecond, config.RateLimitBurst),
		now:      time.Now,
		newRunID: func() string { return uuid.New().String() },
	}
	for _, option := range options {
		option(handler)
	}
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(newRequestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(newCORS(config.AllowedOrigins).Handler)
	router.Get("/health", handler.health)
	router.Get("/download/{name}", handler.download)
	router.With(handler.limiter.middleware(logger)).Post("/upload", handler.upload)
	return router
}

// Run serves handler on address until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, logger *slog.Logger, address string, handler http.Handler) error {
	server := &http.Server{
		Addr:              address,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	serveErrC := make(chan error, 1)
	go func() {
		logger.Info("starting server", "address", address)
		serveErrC <- server.ListenAndServe()
	}()
	select {
	case err := <-serveErrC:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-serveErrC; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// *** PRIVATE ***

func newCORS(allowedOrigins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-Id"},
		MaxAge:         300,
	})
}
