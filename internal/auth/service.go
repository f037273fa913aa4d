// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/instadash/internal/logging"
	"github.com/tomtom215/instadash/internal/metrics"
	"github.com/tomtom215/instadash/internal/models"
)

// ProfileUpserter creates or refreshes the profile row of a user who just
// logged in.
type ProfileUpserter interface {
	Upsert(ctx context.Context, userID, email string) (*models.Profile, error)
}

// LoginRequest is one login attempt.
type LoginRequest struct {
	Email     string
	Password  string
	IP        string
	UserAgent string

	// PreviousSessionID is deleted when the new session is created.
	PreviousSessionID string
}

// Service runs the login and logout flows.
type Service struct {
	identity IdentityProvider
	sessions *SessionMiddleware
	profiles ProfileUpserter
	lockout  *Lockout
	audit    *SecurityAudit
}

// NewService wires the flows. profiles and lockout may be nil.
func NewService(identity IdentityProvider, sessions *SessionMiddleware, profiles ProfileUpserter, lockout *Lockout) *Service {
	return &Service{
		identity: identity,
		sessions: sessions,
		profiles: profiles,
		lockout:  lockout,
		audit:    NewSecurityAudit(),
	}
}

// Login authenticates req, rotates the session and sets the cookie.
func (s *Service) Login(ctx context.Context, w http.ResponseWriter, req LoginRequest) (*Session, error) {
	provider := s.identity.Name()

	if s.lockout != nil {
		if err := s.lockout.Check(req.Email, req.IP); err != nil {
			metrics.RecordLogin(provider, "locked")
			s.audit.LoginFailed(req, provider, err)
			return nil, err
		}
	}

	subject, err := s.identity.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrNoCredentials):
			metrics.RecordLogin(provider, "invalid")
			if s.lockout != nil {
				s.lockout.Fail(req.Email, req.IP)
			}
		default:
			metrics.RecordLogin(provider, "error")
		}
		s.audit.LoginFailed(req, provider, err)
		return nil, err
	}
	if s.lockout != nil {
		s.lockout.Succeed(req.Email)
	}

	session, err := s.sessions.CreateSession(ctx, w, subject, req.PreviousSessionID)
	if err != nil {
		metrics.RecordLogin(provider, "error")
		return nil, err
	}

	if s.profiles != nil {
		if _, err := s.profiles.Upsert(ctx, subject.ID, subject.Email); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("user_id", subject.ID).Msg("Failed to upsert profile after login")
		}
	}

	metrics.RecordLogin(provider, "success")
	s.audit.LoginSucceeded(req, session)
	return session, nil
}

// Logout destroys the caller's session. Bearer-token callers have nothing
// to destroy and succeed trivially.
func (s *Service) Logout(ctx context.Context, w http.ResponseWriter, subject *AuthSubject) error {
	if subject == nil || subject.SessionID == "" {
		s.sessions.ClearSessionCookie(w)
		return nil
	}
	if err := s.sessions.DestroySession(ctx, w, subject.SessionID); err != nil {
		return err
	}
	s.audit.Logout(subject)
	return nil
}

// Provider names the identity provider in use.
func (s *Service) Provider() string {
	return s.identity.Name()
}
