// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewTokenVerifier_ShortSecret(t *testing.T) {
	if _, err := NewTokenVerifier("short", "", nil); err == nil {
		t.Error("NewTokenVerifier(short secret) error = nil, want error")
	}
}

func TestTokenVerifier_Verify(t *testing.T) {
	v, _ := NewTokenVerifier(testSecret, "authenticated", []string{"Boss@Example.com"})
	other, _ := NewTokenVerifier("ffffffffffffffffffffffffffffffff", "authenticated", nil)
	wrongAud, _ := NewTokenVerifier(testSecret, "service_role", nil)

	user := &AuthSubject{ID: "u1", Email: "u1@example.com", Roles: []string{RoleUser}}
	boss := &AuthSubject{ID: "u2", Email: "boss@example.com", Roles: []string{RoleUser}}

	valid, _ := v.Sign(user, time.Hour)
	bossToken, _ := v.Sign(boss, time.Hour)
	expired, _ := v.Sign(user, -time.Hour)
	foreign, _ := other.Sign(user, time.Hour)
	audMismatch, _ := wrongAud.Sign(user, time.Hour)
	noSub, _ := v.Sign(&AuthSubject{Email: "x@example.com"}, time.Hour)
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "u1", "aud": "authenticated", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name      string
		token     string
		wantErr   bool
		wantAdmin bool
	}{
		{"valid", valid, false, false},
		{"admin email", bossToken, false, true},
		{"expired", expired, true, false},
		{"wrong secret", foreign, true, false},
		{"wrong audience", audMismatch, true, false},
		{"missing subject", noSub, true, false},
		{"alg none", none, true, false},
		{"garbage", "not-a-token", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Verify(tt.token)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidToken) {
					t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if got.IsAdmin() != tt.wantAdmin {
				t.Errorf("IsAdmin() = %v, want %v (roles %v)", got.IsAdmin(), tt.wantAdmin, got.Roles)
			}
			if got.Provider != "bearer" {
				t.Errorf("Provider = %q, want bearer", got.Provider)
			}
		})
	}
}

func TestTokenVerifier_AppMetadataAdmin(t *testing.T) {
	v, _ := NewTokenVerifier(testSecret, "", nil)
	token, _ := v.Sign(&AuthSubject{ID: "u3", Roles: []string{RoleUser, RoleAdmin}}, time.Hour)
	got, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !got.IsAdmin() {
		t.Errorf("roles = %v, want admin from app_metadata", got.Roles)
	}
}
