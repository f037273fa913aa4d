// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/instadash/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=256"`
}

// sessionResponse is returned by login and whoami.
type sessionResponse struct {
	User      *auth.AuthSubject `json:"user"`
	ExpiresAt *time.Time        `json:"expires_at,omitempty"`
}

// Login authenticates with the identity provider and sets the session cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	session, err := h.auth.Login(r.Context(), w, auth.LoginRequest{
		Email:             strings.TrimSpace(req.Email),
		Password:          req.Password,
		IP:                clientIP(r),
		UserAgent:         r.UserAgent(),
		PreviousSessionID: h.sessions.SessionIDFromRequest(r),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	NewResponseWriter(w, r).Success(sessionResponse{
		User:      session.ToAuthSubject(),
		ExpiresAt: &session.ExpiresAt,
	})
}

// Logout destroys the session and clears the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), w, auth.GetAuthSubject(r.Context())); err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(map[string]bool{"logged_out": true})
}

// Session returns the current subject.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	subject := auth.GetAuthSubject(r.Context())
	if subject == nil {
		respondError(w, r, auth.ErrNoCredentials)
		return
	}
	NewResponseWriter(w, r).Success(sessionResponse{User: subject})
}
