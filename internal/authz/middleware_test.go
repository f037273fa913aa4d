// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package authz

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tomtom215/instadash/internal/auth"
)

const (
	aliceID = "11111111-1111-1111-1111-111111111111"
	bobID   = "22222222-2222-2222-2222-222222222222"
)

var (
	alice = &auth.AuthSubject{ID: aliceID, Roles: []string{auth.RoleUser}}
	admin = &auth.AuthSubject{ID: "99999999-9999-9999-9999-999999999999", Roles: []string{auth.RoleUser, auth.RoleAdmin}}
)

func requestAs(method, target string, subject *auth.AuthSubject) *http.Request {
	r := httptest.NewRequest(method, target, nil)
	if subject != nil {
		r = r.WithContext(auth.ContextWithSubject(r.Context(), subject))
	}
	return r
}

// =====================================================
// AuthorizeRequest / Authorize
// =====================================================

func TestMiddleware_AuthorizeRequest(t *testing.T) {
	m := NewMiddleware(newTestEnforcer(t))
	h := m.AuthorizeRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name    string
		method  string
		path    string
		subject *auth.AuthSubject
		want    int
	}{
		{"anonymous", http.MethodGet, "/api/v1/accounts", nil, http.StatusUnauthorized},
		{"user list accounts", http.MethodGet, "/api/v1/accounts", alice, http.StatusOK},
		{"user delete post", http.MethodDelete, "/api/v1/posts/p1", alice, http.StatusOK},
		{"user patch post", http.MethodPatch, "/api/v1/posts/p1", alice, http.StatusForbidden},
		{"user admin route", http.MethodGet, "/api/v1/admin/monitored", alice, http.StatusForbidden},
		{"admin admin route", http.MethodGet, "/api/v1/admin/monitored", admin, http.StatusOK},
		{"no roles", http.MethodGet, "/api/v1/accounts", &auth.AuthSubject{ID: "x"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, requestAs(tt.method, tt.path, tt.subject))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestMiddleware_AuthorizeFixedObject(t *testing.T) {
	m := NewMiddleware(newTestEnforcer(t))
	var forbidden bool
	m.Forbidden = func(w http.ResponseWriter, _ *http.Request) {
		forbidden = true
		w.WriteHeader(http.StatusTeapot)
	}
	h := m.Authorize("/api/v1/admin/*")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, requestAs(http.MethodGet, "/anything", alice))
	if !forbidden || w.Code != http.StatusTeapot {
		t.Errorf("custom Forbidden hook not used: status %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, requestAs(http.MethodGet, "/anything", admin))
	if w.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", w.Code)
	}
}

func TestMethodToAction(t *testing.T) {
	for method, want := range map[string]string{
		http.MethodGet:     ActionRead,
		http.MethodHead:    ActionRead,
		http.MethodOptions: ActionRead,
		http.MethodPost:    ActionWrite,
		http.MethodPut:     ActionWrite,
		http.MethodPatch:   ActionWrite,
		http.MethodDelete:  ActionDelete,
	} {
		if got := MethodToAction(method); got != want {
			t.Errorf("MethodToAction(%s) = %s, want %s", method, got, want)
		}
	}
}

// =====================================================
// OwnerScope
// =====================================================

func TestOwnerScope(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		subject *auth.AuthSubject
		want    string
		wantErr error
	}{
		{"anonymous", "/x", nil, "", auth.ErrNoCredentials},
		{"own rows", "/x", alice, aliceID, nil},
		{"explicit self", "/x?user_id=" + aliceID, alice, aliceID, nil},
		{"user asks for other", "/x?user_id=" + bobID, alice, "", ErrForbidden},
		{"admin default", "/x", admin, admin.ID, nil},
		{"admin acts for other", "/x?user_id=" + bobID, admin, bobID, nil},
		{"admin malformed", "/x?user_id=bob", admin, "", ErrInvalidScope},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OwnerScope(requestAs(http.MethodGet, tt.target, tt.subject))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("OwnerScope() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("OwnerScope() = %q, want %q", got, tt.want)
			}
		})
	}
}
