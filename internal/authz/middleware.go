// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package authz

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/tomtom215/instadash/internal/auth"
	"github.com/tomtom215/instadash/internal/logging"
)

// ErrForbidden is returned by OwnerScope when a non-admin asks for another
// user's rows.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidScope is returned by OwnerScope for a malformed ?user_id=.
var ErrInvalidScope = errors.New("user_id must be a uuid")

// OwnerParam is the query parameter an admin uses to act for another user.
const OwnerParam = "user_id"

// Middleware enforces route policies.
type Middleware struct {
	enforcer *Enforcer

	// Unauthorized, Forbidden and Failed write the error responses. The
	// defaults are plain-text; the API replaces them with its envelope.
	Unauthorized func(w http.ResponseWriter, r *http.Request)
	Forbidden    func(w http.ResponseWriter, r *http.Request)
	Failed       func(w http.ResponseWriter, r *http.Request, err error)
}

// NewMiddleware creates the middleware.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{
		enforcer: enforcer,
		Unauthorized: func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "Unauthorized: authentication required", http.StatusUnauthorized)
		},
		Forbidden: func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
		},
		Failed: func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		},
	}
}

// Authorize checks the caller's roles against a fixed object, with the
// action derived from the HTTP method.
func (m *Middleware) Authorize(object string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.check(w, r, object) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// AuthorizeRequest checks the caller's roles against the request path.
func (m *Middleware) AuthorizeRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.check(w, r, r.URL.Path) {
			next.ServeHTTP(w, r)
		}
	})
}

func (m *Middleware) check(w http.ResponseWriter, r *http.Request, object string) bool {
	subject := auth.GetAuthSubject(r.Context())
	if subject == nil {
		m.Unauthorized(w, r)
		return false
	}

	action := MethodToAction(r.Method)
	allowed, err := m.enforcer.EnforceRoles(subject.Roles, object, action)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Authorization error")
		m.Failed(w, r, err)
		return false
	}
	if !allowed {
		logging.Ctx(r.Context()).Debug().
			Str("object", logging.SanitizeValue(object)).
			Str("action", action).
			Strs("roles", subject.Roles).
			Msg("Authorization denied")
		m.Forbidden(w, r)
		return false
	}
	return true
}

// MethodToAction maps an HTTP method to a policy action.
func MethodToAction(method string) string {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return ActionWrite
	case http.MethodDelete:
		return ActionDelete
	default:
		return ActionRead
	}
}

// OwnerScope returns the user id whose rows the request may touch.
func OwnerScope(r *http.Request) (string, error) {
	subject := auth.GetAuthSubject(r.Context())
	if subject == nil {
		return "", auth.ErrNoCredentials
	}
	requested := r.URL.Query().Get(OwnerParam)
	if requested == "" || requested == subject.ID {
		return subject.ID, nil
	}
	if !subject.IsAdmin() {
		return "", ErrForbidden
	}
	if _, err := uuid.Parse(requested); err != nil {
		return "", ErrInvalidScope
	}
	return requested, nil
}
