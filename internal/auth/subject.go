// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package auth

import (
	"context"
	"errors"
	"slices"
	"strings"
)

// Roles understood by the authorization policy.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Authentication errors.
var (
	// ErrNoCredentials indicates no credentials were provided.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrInvalidCredentials indicates credentials were rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrIdentityUnavailable indicates the identity provider could not be reached.
	ErrIdentityUnavailable = errors.New("identity provider unavailable")

	// ErrInvalidToken indicates a bearer token failed verification.
	ErrInvalidToken = errors.New("invalid token")
)

// AuthSubject is the authenticated caller, regardless of how it proved
// its identity.
type AuthSubject struct {
	// ID is the identity provider's user ID; rows are owned by it.
	ID string `json:"id"`

	Email    string   `json:"email"`
	Username string   `json:"username,omitempty"`
	Roles    []string `json:"roles"`

	// Provider is hosted, local or bearer.
	Provider string `json:"provider"`

	// SessionID is empty for bearer-token requests.
	SessionID string `json:"-"`
}

// HasRole reports whether the subject holds role.
func (s *AuthSubject) HasRole(role string) bool {
	return role != "" && slices.Contains(s.Roles, role)
}

// IsAdmin reports whether the subject holds the admin role.
func (s *AuthSubject) IsAdmin() bool {
	return s.HasRole(RoleAdmin)
}

// PrimaryRole is the role used as the casbin subject.
func (s *AuthSubject) PrimaryRole() string {
	if s.IsAdmin() {
		return RoleAdmin
	}
	return RoleUser
}

type contextKey string

const subjectContextKey contextKey = "auth_subject"

// ContextWithSubject stores s in ctx.
func ContextWithSubject(ctx context.Context, s *AuthSubject) context.Context {
	return context.WithValue(ctx, subjectContextKey, s)
}

// GetAuthSubject returns the subject stored by the session middleware, or nil.
func GetAuthSubject(ctx context.Context) *AuthSubject {
	s, _ := ctx.Value(subjectContextKey).(*AuthSubject)
	return s
}

// rolesFor grants admin to configured addresses and to identities whose
// provider already marks them as admin.
func rolesFor(email string, adminEmails []string, providerRole string) []string {
	if providerRole == RoleAdmin {
		return []string{RoleUser, RoleAdmin}
	}
	for _, a := range adminEmails {
		if a != "" && strings.EqualFold(a, email) {
			return []string{RoleUser, RoleAdmin}
		}
	}
	return []string{RoleUser}
}
