// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/instadash/internal/config"
	"github.com/tomtom215/instadash/internal/logging"
	"github.com/tomtom215/instadash/internal/metrics"
)

// SessionHeader carries the session token for non-browser clients.
const SessionHeader = "X-Session-Token"

// SessionMiddlewareConfig holds cookie and expiry settings.
type SessionMiddlewareConfig struct {
	CookieName     string
	HeaderName     string
	SessionTTL     time.Duration
	SlidingSession bool
	CookiePath     string
	CookieSecure   bool
	CookieSameSite http.SameSite

	// Unauthorized and Forbidden write the rejection. They default to
	// plain-text http.Error responses.
	Unauthorized func(w http.ResponseWriter, r *http.Request)
	Forbidden    func(w http.ResponseWriter, r *http.Request)
}

// SessionMiddlewareConfigFrom maps the session section of the config.
func SessionMiddlewareConfigFrom(cfg *config.SessionConfig) *SessionMiddlewareConfig {
	c := DefaultSessionMiddlewareConfig()
	c.CookieName = cfg.CookieName
	c.SessionTTL = cfg.TTL
	c.SlidingSession = cfg.Sliding
	c.CookieSecure = cfg.CookieSecure
	return c
}

// DefaultSessionMiddlewareConfig returns secure defaults.
func DefaultSessionMiddlewareConfig() *SessionMiddlewareConfig {
	return &SessionMiddlewareConfig{
		CookieName:     "instadash_session",
		HeaderName:     SessionHeader,
		SessionTTL:     24 * time.Hour,
		SlidingSession: true,
		CookiePath:     "/",
		CookieSecure:   true,
		CookieSameSite: http.SameSiteLaxMode,
	}
}

// SessionMiddleware resolves the caller from a session or a bearer token.
type SessionMiddleware struct {
	store    SessionStore
	verifier *TokenVerifier
	config   *SessionMiddlewareConfig
}

// NewSessionMiddleware creates the middleware. verifier may be nil, in
// which case bearer tokens are ignored.
func NewSessionMiddleware(store SessionStore, verifier *TokenVerifier, cfg *SessionMiddlewareConfig) *SessionMiddleware {
	if cfg == nil {
		cfg = DefaultSessionMiddlewareConfig()
	}
	if cfg.Unauthorized == nil {
		cfg.Unauthorized = func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "Unauthorized: authentication required", http.StatusUnauthorized)
		}
	}
	if cfg.Forbidden == nil {
		cfg.Forbidden = func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
		}
	}
	return &SessionMiddleware{store: store, verifier: verifier, config: cfg}
}

// Authenticate attaches the AuthSubject to the request context when a
// valid session or bearer token is present. Requests without credentials
// continue anonymously; use RequireAuth on protected routes.
func (m *SessionMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject := m.subjectFromSession(r)
		if subject == nil {
			subject = m.subjectFromBearer(r)
		}
		if subject == nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := ContextWithSubject(r.Context(), subject)
		ctx = logging.ContextWithUserID(ctx, subject.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *SessionMiddleware) subjectFromSession(r *http.Request) *AuthSubject {
	id := m.extractSessionID(r)
	if id == "" {
		return nil
	}
	session, err := m.store.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) && !errors.Is(err, ErrSessionExpired) {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Session lookup error")
		}
		return nil
	}
	if m.config.SlidingSession {
		if err := m.store.Touch(r.Context(), id, time.Now().Add(m.config.SessionTTL)); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to touch session")
		}
	}
	return session.ToAuthSubject()
}

func (m *SessionMiddleware) subjectFromBearer(r *http.Request) *AuthSubject {
	if m.verifier == nil {
		return nil
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return nil
	}
	subject, err := m.verifier.Verify(strings.TrimSpace(token))
	if err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Bearer token rejected")
		return nil
	}
	return subject
}

// RequireAuth rejects anonymous requests. It must run after Authenticate.
func (m *SessionMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetAuthSubject(r.Context()) == nil {
			m.config.Unauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects callers without role. It must run after Authenticate.
func (m *SessionMiddleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := GetAuthSubject(r.Context())
			if subject == nil {
				m.config.Unauthorized(w, r)
				return
			}
			if !subject.HasRole(role) {
				m.config.Forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractSessionID prefers the header over the cookie.
func (m *SessionMiddleware) extractSessionID(r *http.Request) string {
	if m.config.HeaderName != "" {
		if v := r.Header.Get(m.config.HeaderName); v != "" {
			return v
		}
	}
	if c, err := r.Cookie(m.config.CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}

// SetSessionCookie writes the HttpOnly session cookie.
func (m *SessionMiddleware) SetSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    sessionID,
		Path:     m.config.CookiePath,
		MaxAge:   int(m.config.SessionTTL.Seconds()),
		Secure:   m.config.CookieSecure,
		HttpOnly: true,
		SameSite: m.config.CookieSameSite,
	})
}

// ClearSessionCookie expires the session cookie.
func (m *SessionMiddleware) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    "",
		Path:     m.config.CookiePath,
		MaxAge:   -1,
		Secure:   m.config.CookieSecure,
		HttpOnly: true,
		SameSite: m.config.CookieSameSite,
	})
}

// CreateSession stores a new session for subject, deleting oldSessionID
// first so a pre-login session ID is never promoted.
func (m *SessionMiddleware) CreateSession(ctx context.Context, w http.ResponseWriter, subject *AuthSubject, oldSessionID string) (*Session, error) {
	if oldSessionID != "" {
		if err := m.store.Delete(ctx, oldSessionID); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to delete previous session")
		}
	}
	session, err := NewSession(subject, m.config.SessionTTL)
	if err != nil {
		return nil, err
	}
	if err := m.store.Create(ctx, session); err != nil {
		return nil, err
	}
	metrics.ActiveSessions.Inc()
	m.SetSessionCookie(w, session.ID)
	return session, nil
}

// DestroySession deletes the session and clears the cookie.
func (m *SessionMiddleware) DestroySession(ctx context.Context, w http.ResponseWriter, sessionID string) error {
	if err := m.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	metrics.ActiveSessions.Dec()
	m.ClearSessionCookie(w)
	return nil
}

// SessionIDFromRequest returns the session token the request carries, if any.
func (m *SessionMiddleware) SessionIDFromRequest(r *http.Request) string {
	return m.extractSessionID(r)
}
