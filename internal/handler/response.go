package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// Two error shapes exist because the browser client was written against
// them and reads them as-is:
//
//	{"error": "prompt is required", "type": "validation_error"}   most JSON routes
//	{"success": false, "error": "..."}                            /generate-pdf, /submit_feedback
//
// Both are produced from the same mapping (errorStatus), so a given error
// always gets the same status code whichever shape it is written in.

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/geniuspost/internal/apperror"
)

// maxBodyBytes caps JSON request bodies. PDF exports carry whole documents
// with inline images, so the limit is generous.
const maxBodyBytes = 16 << 20

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error string `json:"error"`          // Human-readable message
	Type  string `json:"type,omitempty"` // Machine-readable kind (e.g. "validation_error")
}

// FailureResponse is the error body of routes that report {success}.
type FailureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set before the body is written; once
// Encode writes, later header changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; we can only log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errorStatus maps a domain error to its HTTP status, kind and message.
//
// ERROR MAPPING:
// This is the only place where apperror kinds become status codes:
//
//	ErrValidation   → 400
//	ErrUnauthorized → 400 (a failed OAuth exchange is a bad request)
//	ErrNotFound     → 404
//	ErrConflict     → 409
//	ErrUpstream     → 500 with the provider's raw error text
//	anything else   → 500 with a generic message
//
// Unknown errors never reach the client verbatim: they may contain SQL or
// file paths.
func errorStatus(err error) (status int, kind, message string) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, "internal_error", "An internal error occurred"
	}

	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error", appErr.Message
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusBadRequest, "auth_error", appErr.Message
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found", appErr.Message
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict", appErr.Message
	case errors.Is(err, apperror.ErrUpstream):
		return http.StatusInternalServerError, "upstream_error", appErr.Message
	default:
		return http.StatusInternalServerError, "internal_error", "An internal error occurred"
	}
}

// writeError sends err as {"error", "type"}.
func writeError(w http.ResponseWriter, err error) {
	status, kind, message := errorStatus(err)
	writeJSON(w, status, ErrorResponse{Error: message, Type: kind})
}

// writeFailure sends err as {"success": false, "error"}.
func writeFailure(w http.ResponseWriter, err error) {
	status, _, message := errorStatus(err)
	writeJSON(w, status, FailureResponse{Success: false, Error: message})
}

// decodeJSON reads a JSON request body into dst. Malformed or oversized
// bodies become validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperror.ValidationFailed("body", fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		}
		return apperror.ValidationFailed("body", "Invalid JSON body")
	}
	return nil
}

// baseURL reconstructs the public root URL of the request, e.g.
// "https://geniuspost.app/". The PDF engine resolves relative image paths
// against it. chi's RealIP does not touch the scheme, so the proxy header
// is read here.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" || proto == "http" {
		scheme = proto
	}
	host := r.Host
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-Host")); fwd != "" {
		host = fwd
	}
	return scheme + "://" + host + "/"
}
