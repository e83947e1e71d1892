// Copyright 2026 Peter Edge
//
// All rights reserved.

package gainsctlserver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlconfig"
	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlledger"
	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlreport"
	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlstore"
	"github.com/bufdev/gainsctl/internal/pkg/spreadsheet"
	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
)

const (
	fileFormField      = "file"
	daysLimitFormField = "days_limit"
	// multipartMemory is the part of an upload kept in memory, the rest spills to disk.
	multipartMemory = 4 << 20
)

// UploadResponse is the response to a successful upload.
type UploadResponse struct {
	Success          bool                `json:"success"`
	RunID            string              `json:"run_id"`
	NolimitPreview   []map[string]string `json:"nolimit_preview"`
	DayslimitPreview []map[string]string `json:"dayslimit_preview"`
	NolimitFile      string              `json:"nolimit_file"`
	DayslimitFile    string              `json:"dayslimit_file"`
	DaysLimit        int                 `json:"days_limit"`
	Errors           []string            `json:"errors"`
	HasErrors        bool                `json:"has_errors"`
}

// ErrorResponse is the response to a failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// *** PRIVATE ***

type handler struct {
	logger   *slog.Logger
	config   *gainsctlconfig.Config
	store    gainsctlstore.Store
	limiter  *clientLimiter
	now      func() time.Time
	newRunID func() string
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(h.logger, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.config.MaxUploadSize {
		h.respondTooLarge(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if maxBytesErr := (&http.MaxBytesError{}); errors.As(err, &maxBytesErr) {
			h.respondTooLarge(w)
			return
		}
		respondError(h.logger, w, http.StatusBadRequest, "No file part")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			h.logger.Warn("removing multipart files", "error", err)
		}
	}()
	file, fileHeader, err := r.FormFile(fileFormField)
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "No file part")
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			h.logger.Warn("closing upload", "error", err)
		}
	}()
	if fileHeader.Filename == "" {
		respondError(h.logger, w, http.StatusBadRequest, "No file selected")
		return
	}
	format, err := spreadsheet.FormatForFileName(fileHeader.Filename)
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "Invalid file type. Please upload Excel (.xlsx) or CSV file")
		return
	}
	table, err := spreadsheet.Parse(file, format)
	if err != nil {
		respondError(h.logger, w, http.StatusUnprocessableEntity, "Error reading file: "+err.Error())
		return
	}
	daysLimit := parseDaysLimit(r.FormValue(daysLimitFormField), h.config.DefaultDaysLimit)
	result, err := gainsctlreport.Generate(
		r.Context(),
		h.logger,
		table,
		gainsctlreport.GenerateWithDaysLimit(daysLimit),
		gainsctlreport.GenerateWithAssetOrder(h.config.AssetOrder),
	)
	if err != nil {
		h.respondGenerateError(w, err)
		return
	}
	unrestricted, windowed, err := h.store.Save(result, h.now())
	if err != nil {
		h.logger.Error("saving artifacts", "error", err)
		respondError(h.logger, w, http.StatusInternalServerError, "Error saving report")
		return
	}
	runID := h.newRunID()
	for _, shortfall := range result.Unrestricted.Shortfalls {
		h.logger.Warn(
			"insufficient buy records",
			"run_id", runID,
			"asset", shortfall.Asset,
			"row", shortfall.Row,
			"requested", shortfall.Requested.String(),
			"available", shortfall.Available.String(),
		)
	}
	errorMessages := lo.Map(result.Errors(), func(err *gainsctlledger.ProcessingError, _ int) string {
		return err.Error()
	})
	respondJSON(h.logger, w, http.StatusOK, &UploadResponse{
		Success:          true,
		RunID:            runID,
		NolimitPreview:   gainsctlreport.RowsToPreview(result.Unrestricted.Rows),
		DayslimitPreview: gainsctlreport.RowsToPreview(result.Windowed.Rows),
		NolimitFile:      unrestricted.Name,
		DayslimitFile:    windowed.Name,
		DaysLimit:        result.Windowed.DaysLimit,
		Errors:           errorMessages,
		HasErrors:        len(errorMessages) > 0,
	})
}

func (h *handler) respondTooLarge(w http.ResponseWriter) {
	respondError(
		h.logger,
		w,
		http.StatusRequestEntityTooLarge,
		"File too large, maximum size is "+humanize.IBytes(uint64(max(h.config.MaxUploadSize, 0))),
	)
}

func (h *handler) respondGenerateError(w http.ResponseWriter, err error) {
	var validationErr *gainsctlledger.ValidationError
	var processingErr *gainsctlledger.ProcessingError
	switch {
	case errors.As(err, &validationErr):
		respondError(h.logger, w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &processingErr):
		respondError(h.logger, w, http.StatusUnprocessableEntity, processingErr.Error())
	default:
		h.logger.Error("generating reports", "error", err)
		respondError(h.logger, w, http.StatusInternalServerError, "Data processing error: "+err.Error())
	}
}

func (h *handler) download(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	file, artifact, err := h.store.Open(name)
	if err != nil {
		switch {
		case errors.Is(err, gainsctlstore.ErrInvalidName):
			respondError(h.logger, w, http.StatusBadRequest, "Invalid file name")
		case errors.Is(err, gainsctlstore.ErrNotFound):
			respondError(h.logger, w, http.StatusNotFound, "File not found")
		default:
			h.logger.Error("opening artifact", "name", sanitize(name), "error", err)
			respondError(h.logger, w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		}
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			h.logger.Warn("closing artifact", "name", artifact.Name, "error", err)
		}
	}()
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+artifact.Name+`"`)
	http.ServeContent(w, r, artifact.Name, artifact.CreatedAt, file)
}

// parseDaysLimit returns the positive integer in value, or defaultDaysLimit.
func parseDaysLimit(value string, defaultDaysLimit int) int {
	daysLimit, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || daysLimit <= 0 {
		return defaultDaysLimit
	}
	return daysLimit
}

func respondJSON(logger *slog.Logger, w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		logger.Error("encoding response", "error", err)
	}
}

func respondError(logger *slog.Logger, w http.ResponseWriter, status int, message string) {
	respondJSON(logger, w, status, &ErrorResponse{Success: false, Error: message})
}
