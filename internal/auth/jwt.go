// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AppMetadata is the server-controlled part of a hosted access token.
type AppMetadata struct {
	Provider string `json:"provider,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Claims are the access-token claims issued by the hosted auth backend.
type Claims struct {
	Email       string      `json:"email"`
	Role        string      `json:"role"`
	AppMetadata AppMetadata `json:"app_metadata"`
	jwt.RegisteredClaims
}

// TokenVerifier checks hosted access tokens (HS256, shared secret) so API
// clients can call the dashboard with Authorization: Bearer.
type TokenVerifier struct {
	secret      []byte
	audience    string
	adminEmails []string
	leeway      time.Duration
}

// NewTokenVerifier returns a verifier. secret must be at least 32 bytes.
func NewTokenVerifier(secret, audience string, adminEmails []string) (*TokenVerifier, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}
	return &TokenVerifier{
		secret:      []byte(secret),
		audience:    audience,
		adminEmails: adminEmails,
		leeway:      30 * time.Second,
	}, nil
}

// Verify validates signature, expiry and audience and returns the subject.
// Every failure wraps ErrInvalidToken.
func (v *TokenVerifier) Verify(tokenString string) (*AuthSubject, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}

	return &AuthSubject{
		ID:       claims.Subject,
		Email:    claims.Email,
		Roles:    rolesFor(claims.Email, v.adminEmails, claims.AppMetadata.Role),
		Provider: "bearer",
	}, nil
}

// Sign issues a token the verifier accepts, for CLI tooling and tests.
func (v *TokenVerifier) Sign(subject *AuthSubject, ttl time.Duration) (string, error) {
	now := time.Now()
	role := ""
	if subject.IsAdmin() {
		role = RoleAdmin
	}
	claims := &Claims{
		Email:       subject.Email,
		Role:        "authenticated",
		AppMetadata: AppMetadata{Provider: subject.Provider, Role: role},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
