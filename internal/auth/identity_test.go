// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/instadash/internal/config"
)

// =====================================================
// Hosted identity
// =====================================================

func newGrantServer(t *testing.T, handler http.HandlerFunc) (*HostedIdentity, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
		}
		if r.Header.Get("apikey") != "anon" {
			t.Errorf("apikey = %q, want anon", r.Header.Get("apikey"))
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	h := NewHostedIdentity(&config.IdentityConfig{
		Provider:    "hosted",
		URL:         srv.URL + "/",
		AnonKey:     "anon",
		AdminEmails: []string{"admin@example.com"},
	})
	return h, &calls
}

func TestHostedIdentity_Success(t *testing.T) {
	h, _ := newGrantServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "admin@example.com" || body["password"] != "pw" {
			t.Errorf("body = %v", body)
		}
		_, _ = w.Write([]byte(`{"access_token":"tok","user":{"id":"u-1","email":"admin@example.com",` +
			`"app_metadata":{"provider":"email"},"user_metadata":{"username":"boss"}}}`))
	})

	got, err := h.Authenticate(context.Background(), "admin@example.com", "pw")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if got.ID != "u-1" || got.Username != "boss" || got.Provider != "hosted" {
		t.Errorf("subject = %+v", got)
	}
	if !got.IsAdmin() || !got.HasRole(RoleUser) {
		t.Errorf("roles = %v, want user and admin", got.Roles)
	}
}

func TestHostedIdentity_RoleFromAppMetadata(t *testing.T) {
	h, _ := newGrantServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"user":{"id":"u-2","email":"ops@example.com","app_metadata":{"role":"admin"}}}`))
	})
	got, err := h.Authenticate(context.Background(), "ops@example.com", "pw")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if !got.IsAdmin() {
		t.Errorf("roles = %v, want admin", got.Roles)
	}
}

func TestHostedIdentity_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"bad credentials", http.StatusBadRequest, `{"error":"invalid_grant","error_description":"Invalid login credentials"}`, ErrInvalidCredentials},
		{"unconfirmed", http.StatusUnauthorized, `{"msg":"Email not confirmed"}`, ErrInvalidCredentials},
		{"rate limited", http.StatusTooManyRequests, `{}`, ErrIdentityUnavailable},
		{"server error", http.StatusInternalServerError, `oops`, ErrIdentityUnavailable},
		{"no user id", http.StatusOK, `{"user":{}}`, ErrIdentityUnavailable},
		{"malformed body", http.StatusOK, `{`, ErrIdentityUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newGrantServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := h.Authenticate(context.Background(), "a@example.com", "pw")
			if !errors.Is(err, tt.want) {
				t.Errorf("Authenticate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestHostedIdentity_MissingCredentials(t *testing.T) {
	h, calls := newGrantServer(t, func(w http.ResponseWriter, r *http.Request) {})
	if _, err := h.Authenticate(context.Background(), "", "pw"); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("error = %v, want ErrNoCredentials", err)
	}
	if calls.Load() != 0 {
		t.Errorf("backend calls = %d, want 0", calls.Load())
	}
}

func TestHostedIdentity_InvalidCredentialsDoNotTrip(t *testing.T) {
	h, calls := newGrantServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	for i := 0; i < 10; i++ {
		_, _ = h.Authenticate(context.Background(), "a@example.com", "wrong")
	}
	if h.BreakerState() != "closed" {
		t.Errorf("BreakerState() = %q, want closed", h.BreakerState())
	}
	if calls.Load() != 10 {
		t.Errorf("backend calls = %d, want 10", calls.Load())
	}
}

func TestHostedIdentity_OutageOpensBreaker(t *testing.T) {
	h, calls := newGrantServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	for i := 0; i < 5; i++ {
		_, _ = h.Authenticate(context.Background(), "a@example.com", "pw")
	}
	if h.BreakerState() != "open" {
		t.Fatalf("BreakerState() = %q, want open", h.BreakerState())
	}

	_, err := h.Authenticate(context.Background(), "a@example.com", "pw")
	if !errors.Is(err, ErrIdentityUnavailable) {
		t.Errorf("error = %v, want ErrIdentityUnavailable", err)
	}
	if calls.Load() != 5 {
		t.Errorf("backend calls = %d, want 5 (open circuit must not call out)", calls.Load())
	}
}

// =====================================================
// Local identity
// =====================================================

func TestLocalIdentity(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	l, err := NewLocalIdentity("Dev@Example.com", string(hash))
	if err != nil {
		t.Fatalf("NewLocalIdentity() error = %v", err)
	}

	got, err := l.Authenticate(context.Background(), "dev@example.com", "s3cret")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if !got.IsAdmin() || got.Provider != "local" || got.Email != "dev@example.com" {
		t.Errorf("subject = %+v", got)
	}

	again, _ := l.Authenticate(context.Background(), "DEV@example.com", "s3cret")
	if again == nil || again.ID != got.ID {
		t.Errorf("user id not stable across logins: %v vs %v", again, got)
	}

	for _, tc := range []struct{ email, password string }{
		{"dev@example.com", "wrong"},
		{"other@example.com", "s3cret"},
	} {
		if _, err := l.Authenticate(context.Background(), tc.email, tc.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Authenticate(%q, %q) error = %v, want ErrInvalidCredentials", tc.email, tc.password, err)
		}
	}
}

func TestNewIdentityProvider(t *testing.T) {
	if _, err := NewLocalIdentity("dev@example.com", "not-a-hash"); err == nil {
		t.Error("NewLocalIdentity(bad hash) error = nil, want error")
	}
	if _, err := NewIdentityProvider(&config.IdentityConfig{Provider: "ldap"}); err == nil {
		t.Error("NewIdentityProvider(ldap) error = nil, want error")
	}
	p, err := NewIdentityProvider(&config.IdentityConfig{Provider: "hosted", URL: "http://127.0.0.1:1"})
	if err != nil || p.Name() != "hosted" {
		t.Errorf("NewIdentityProvider(hosted) = %v, %v", p, err)
	}
}
