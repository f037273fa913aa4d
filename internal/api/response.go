// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/instadash/internal/logging"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *APIMeta  `json:"meta"`
}

// APIError describes a failed request.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// APIMeta carries tracing and paging information.
type APIMeta struct {
	RequestID  string          `json:"request_id,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	DurationMs int64           `json:"duration_ms,omitempty"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

// PaginationMeta describes one page of a list.
type PaginationMeta struct {
	Total   int  `json:"total"`
	Count   int  `json:"count"`
	Offset  int  `json:"offset"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"has_more"`
}

// Error codes.
const (
	ErrCodeBadRequest           = "BAD_REQUEST"
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeMethodNotAllowed     = "METHOD_NOT_ALLOWED"
	ErrCodeConflict             = "CONFLICT"
	ErrCodePayloadTooLarge      = "PAYLOAD_TOO_LARGE"
	ErrCodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	ErrCodeRateLimited          = "RATE_LIMITED"
	ErrCodeDatabase             = "DATABASE_ERROR"
	ErrCodeExternalService      = "EXTERNAL_SERVICE_ERROR"
	ErrCodeServiceUnavailable   = "SERVICE_UNAVAILABLE"
	ErrCodeInternal             = "INTERNAL_ERROR"
)

// ResponseWriter writes envelopes for one request.
type ResponseWriter struct {
	w     http.ResponseWriter
	r     *http.Request
	start time.Time
}

// NewResponseWriter starts timing the response.
func NewResponseWriter(w http.ResponseWriter, r *http.Request) *ResponseWriter {
	return &ResponseWriter{w: w, r: r, start: time.Now()}
}

func (rw *ResponseWriter) meta() *APIMeta {
	return &APIMeta{
		RequestID:  logging.RequestIDFromContext(rw.r.Context()),
		Timestamp:  time.Now().UTC(),
		DurationMs: time.Since(rw.start).Milliseconds(),
	}
}

// Success writes 200 with data.
func (rw *ResponseWriter) Success(data any) {
	rw.write(http.StatusOK, data, nil)
}

// Created writes 201 with data.
func (rw *ResponseWriter) Created(data any) {
	rw.write(http.StatusCreated, data, nil)
}

// Accepted writes 202 with data.
func (rw *ResponseWriter) Accepted(data any) {
	rw.write(http.StatusAccepted, data, nil)
}

// SuccessWithPagination writes 200 with a page of data.
func (rw *ResponseWriter) SuccessWithPagination(data any, p *PaginationMeta) {
	rw.write(http.StatusOK, data, p)
}

func (rw *ResponseWriter) write(status int, data any, p *PaginationMeta) {
	m := rw.meta()
	m.Pagination = p
	writeJSON(rw.w, status, APIResponse{Success: true, Data: data, Meta: m})
}

// NoContent writes 204.
func (rw *ResponseWriter) NoContent() {
	rw.w.WriteHeader(http.StatusNoContent)
}

// Error writes an error envelope.
func (rw *ResponseWriter) Error(status int, code, message string) {
	rw.ErrorWithDetails(status, code, message, nil)
}

// ErrorWithDetails writes an error envelope with details.
func (rw *ResponseWriter) ErrorWithDetails(status int, code, message string, details any) {
	m := rw.meta()
	writeJSON(rw.w, status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: m.RequestID,
		},
		Meta: m,
	})
}

// BadRequest writes 400.
func (rw *ResponseWriter) BadRequest(message string) {
	rw.Error(http.StatusBadRequest, ErrCodeBadRequest, message)
}

// Unauthorized writes 401.
func (rw *ResponseWriter) Unauthorized(message string) {
	rw.Error(http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// Forbidden writes 403.
func (rw *ResponseWriter) Forbidden(message string) {
	rw.Error(http.StatusForbidden, ErrCodeForbidden, message)
}

// NotFound writes 404.
func (rw *ResponseWriter) NotFound(message string) {
	rw.Error(http.StatusNotFound, ErrCodeNotFound, message)
}

// InternalError writes 500.
func (rw *ResponseWriter) InternalError(message string) {
	rw.Error(http.StatusInternalServerError, ErrCodeInternal, message)
}

// ServiceUnavailable writes 503.
func (rw *ResponseWriter) ServiceUnavailable(message string) {
	rw.Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, message)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// The helpers below exist so middleware hooks can share one signature.

// WriteUnauthorized writes a 401 envelope.
func WriteUnauthorized(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Unauthorized("Authentication required")
}

// WriteForbidden writes a 403 envelope.
func WriteForbidden(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Forbidden("Insufficient permissions")
}

func writeRateLimited(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Error(http.StatusTooManyRequests, ErrCodeRateLimited, "Too many requests, slow down")
}

func writeNotFound(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).NotFound("Route not found")
}

func writeMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
}
