// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tomtom215/instadash/internal/auth"
	"github.com/tomtom215/instadash/internal/authz"
	"github.com/tomtom215/instadash/internal/automation"
	"github.com/tomtom215/instadash/internal/logging"
	"github.com/tomtom215/instadash/internal/store"
	"github.com/tomtom215/instadash/internal/validation"
	"github.com/tomtom215/instadash/internal/workflow"
)

// requestError is a client mistake whose message is safe to echo.
type requestError struct {
	status int
	code   string
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{status: http.StatusBadRequest, code: ErrCodeBadRequest, msg: fmt.Sprintf(format, args...)}
}

func unsupportedMediaType(format string, args ...any) error {
	return &requestError{status: http.StatusUnsupportedMediaType, code: ErrCodeUnsupportedMediaType, msg: fmt.Sprintf(format, args...)}
}

func payloadTooLarge(format string, args ...any) error {
	return &requestError{status: http.StatusRequestEntityTooLarge, code: ErrCodePayloadTooLarge, msg: fmt.Sprintf(format, args...)}
}

// storeError marks a repository failure that is not one of the store
// sentinels. Its text never reaches the client.
type storeError struct {
	op  string
	err error
}

func (e *storeError) Error() string { return e.op + ": " + e.err.Error() }
func (e *storeError) Unwrap() error { return e.err }

// graphErrors are the workflow sentinels a client can trigger.
var graphErrors = []error{
	workflow.ErrInvalidName,
	workflow.ErrInvalidChange,
	workflow.ErrDuplicateNode,
	workflow.ErrUnknownNodeType,
	workflow.ErrNodeNotFound,
	workflow.ErrEdgeNotFound,
	workflow.ErrSelfLoop,
	workflow.ErrDuplicateEdge,
	workflow.ErrDanglingEdge,
	workflow.ErrInvalidHandle,
	workflow.ErrCycle,
	workflow.ErrTooLarge,
	workflow.ErrNoTrigger,
	workflow.ErrMultipleTriggers,
	workflow.ErrTriggerHasInput,
	workflow.ErrUnreachable,
	workflow.ErrMissingSetting,
}

func isGraphError(err error) bool {
	for _, target := range graphErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondError maps err onto the envelope. Everything not recognised is
// logged with the request id and reported as an internal error.
//
//nolint:gocyclo // one flat switch is easier to audit than a lookup chain
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	rw := NewResponseWriter(w, r)
	log := logging.Ctx(r.Context())

	var (
		reqErr  *requestError
		verr    *validation.RequestValidationError
		maxErr  *http.MaxBytesError
		stErr   *storeError
		problem workflow.Problem
	)
	switch {
	case errors.As(err, &reqErr):
		rw.Error(reqErr.status, reqErr.code, reqErr.msg)
	case errors.As(err, &verr):
		rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeValidation, verr.Error(), verr.Details())
	case errors.As(err, &maxErr):
		rw.Error(http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge,
			fmt.Sprintf("Request body exceeds %d bytes", maxErr.Limit))
	case errors.As(err, &problem):
		rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeValidation, problem.Detail, problem)
	case isGraphError(err):
		rw.Error(http.StatusBadRequest, ErrCodeValidation, err.Error())

	case errors.Is(err, store.ErrNotFound):
		rw.NotFound("Resource not found")
	case errors.Is(err, store.ErrConflict):
		rw.Error(http.StatusConflict, ErrCodeConflict, "Resource already exists")
	case errors.Is(err, store.ErrVersionMismatch):
		rw.Error(http.StatusConflict, ErrCodeConflict, "Resource was modified by another request; reload and retry")

	case errors.Is(err, auth.ErrNoCredentials):
		rw.Unauthorized("Authentication required")
	case errors.Is(err, auth.ErrInvalidCredentials):
		rw.Unauthorized("Invalid email or password")
	case errors.Is(err, auth.ErrLockedOut):
		rw.Error(http.StatusTooManyRequests, ErrCodeRateLimited, "Too many failed login attempts, try again later")
	case errors.Is(err, auth.ErrIdentityUnavailable):
		log.Warn().Err(err).Msg("Identity provider unavailable")
		rw.ServiceUnavailable("Sign-in is temporarily unavailable")
	case errors.Is(err, authz.ErrForbidden):
		rw.Forbidden("Insufficient permissions")
	case errors.Is(err, authz.ErrInvalidScope):
		rw.Error(http.StatusBadRequest, ErrCodeValidation, err.Error())

	case errors.Is(err, automation.ErrRejected):
		log.Info().Err(err).Msg("Automation backend rejected command")
		rw.Error(http.StatusBadGateway, ErrCodeExternalService, err.Error())
	case errors.Is(err, automation.ErrUnavailable):
		log.Warn().Err(err).Msg("Automation backend unavailable")
		rw.ServiceUnavailable("Automation backend is unavailable")

	case errors.Is(err, context.Canceled):
		log.Debug().Msg("Client went away")
	case errors.As(err, &stErr):
		log.Error().Err(err).Msg("Store operation failed")
		rw.Error(http.StatusInternalServerError, ErrCodeDatabase, "A database error occurred")
	default:
		log.Error().Err(err).Msg("Unhandled error")
		rw.InternalError("Internal server error")
	}
}
