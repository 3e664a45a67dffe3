// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/studiosite/internal/imagehost"
	"github.com/olegiv/studiosite/internal/service"
)

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit,omitempty"`
	Offset int   `json:"offset,omitempty"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// msgRetry is shown for failures the submitter can only retry.
const msgRetry = "Something went wrong. Please try again."

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteNoContent writes a 204 response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message, Details: details},
	})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteUnauthorized writes a 401 Unauthorized response.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, "unauthorized", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// WriteValidationError writes a 422 Unprocessable Entity response with field errors.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", fieldErrors)
}

// writeServiceError maps a service error onto the error envelope. Unknown
// errors are logged and reported generically.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, entity string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		WriteValidationError(w, verr.Fields)
	case errors.Is(err, service.ErrInvalidInput):
		WriteValidationError(w, nil)
	case errors.Is(err, service.ErrNotFound):
		WriteNotFound(w, entity+" not found")
	case errors.Is(err, service.ErrProductUnavailable):
		WriteValidationError(w, map[string]string{"items": err.Error()})
	case errors.Is(err, imagehost.ErrEmpty):
		WriteBadRequest(w, "The uploaded file is empty", nil)
	case errors.Is(err, imagehost.ErrTooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, "too_large", "The image is too large", nil)
	case errors.Is(err, imagehost.ErrUnsupportedType):
		WriteError(w, http.StatusUnsupportedMediaType, "unsupported_type", "Only JPEG, PNG, GIF and WebP images are accepted", nil)
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"entity", entity,
			"error", err,
		)
		WriteInternalError(w, msgRetry)
	}
}

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return false
	}
	return true
}

// parseListOptions reads ?status, ?limit and ?offset.
func parseListOptions(w http.ResponseWriter, r *http.Request) (service.ListOptions, bool) {
	q := r.URL.Query()
	opts := service.ListOptions{Status: q.Get("status"), Limit: 20}

	details := map[string]string{}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			details["limit"] = "must be a positive integer"
		}
		opts.Limit = min(n, service.MaxPageSize)
	}
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			details["offset"] = "must be a non-negative integer"
		}
		opts.Offset = n
	}
	if len(details) > 0 {
		WriteBadRequest(w, "Invalid pagination parameters", details)
		return opts, false
	}
	return opts, true
}

func listMeta(total int64, opts service.ListOptions) *Meta {
	return &Meta{Total: total, Limit: opts.Limit, Offset: opts.Offset}
}

func idParam(r *http.Request) string {
	return chi.URLParam(r, "id")
}
