// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/instadash/internal/breaker"
	"github.com/tomtom215/instadash/internal/config"
)

// IdentityProvider checks an email/password pair.
type IdentityProvider interface {
	// Authenticate returns ErrInvalidCredentials for a wrong pair and
	// ErrIdentityUnavailable when the provider cannot answer.
	Authenticate(ctx context.Context, email, password string) (*AuthSubject, error)

	// Name is used in logs and metrics.
	Name() string
}

// NewIdentityProvider builds the provider selected by cfg.Provider.
func NewIdentityProvider(cfg *config.IdentityConfig) (IdentityProvider, error) {
	switch cfg.Provider {
	case "hosted":
		return NewHostedIdentity(cfg), nil
	case "local":
		return NewLocalIdentity(cfg.LocalEmail, cfg.LocalPasswordHash)
	default:
		return nil, fmt.Errorf("unknown identity provider %q", cfg.Provider)
	}
}

// ============================================================
// Hosted identity (managed auth backend password grant)
// ============================================================

// HostedIdentity calls the managed auth backend:
//
//	POST {url}/auth/v1/token?grant_type=password
//	apikey: {anon key}
//	{"email": "...", "password": "..."}
type HostedIdentity struct {
	baseURL     string
	anonKey     string
	adminEmails []string
	client      *http.Client
	cb          *breaker.Breaker[*AuthSubject]
}

// NewHostedIdentity creates the provider. Wrong credentials never trip the
// circuit breaker; transport errors and 5xx responses do.
func NewHostedIdentity(cfg *config.IdentityConfig) *HostedIdentity {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HostedIdentity{
		baseURL:     strings.TrimRight(cfg.URL, "/"),
		anonKey:     cfg.AnonKey,
		adminEmails: cfg.AdminEmails,
		client:      &http.Client{Timeout: timeout},
		cb: breaker.New[*AuthSubject](breaker.Settings{
			Name:      "identity",
			IsFailure: func(err error) bool { return !errors.Is(err, ErrInvalidCredentials) },
		}),
	}
}

func (h *HostedIdentity) Name() string { return "hosted" }

type passwordGrantResponse struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID          string         `json:"id"`
		Email       string         `json:"email"`
		AppMetadata AppMetadata    `json:"app_metadata"`
		UserMeta    map[string]any `json:"user_metadata"`
	} `json:"user"`
}

type grantError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
}

func (h *HostedIdentity) Authenticate(ctx context.Context, email, password string) (*AuthSubject, error) {
	if email == "" || password == "" {
		return nil, ErrNoCredentials
	}
	subject, err := h.cb.Execute(func() (*AuthSubject, error) {
		return h.passwordGrant(ctx, email, password)
	})
	if errors.Is(err, breaker.ErrOpen) {
		return nil, fmt.Errorf("%w: %w", ErrIdentityUnavailable, err)
	}
	return subject, err
}

func (h *HostedIdentity) passwordGrant(ctx context.Context, email, password string) (*AuthSubject, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		h.baseURL+"/auth/v1/token?grant_type=password", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", h.anonKey)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIdentityUnavailable, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrIdentityUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrIdentityUnavailable, resp.StatusCode)
	default:
		var ge grantError
		_ = json.Unmarshal(raw, &ge)
		reason := ge.ErrorDescription
		if reason == "" {
			reason = ge.Msg
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, reason)
	}

	var grant passwordGrantResponse
	if err := json.Unmarshal(raw, &grant); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrIdentityUnavailable, err)
	}
	if grant.User.ID == "" {
		return nil, fmt.Errorf("%w: response without user id", ErrIdentityUnavailable)
	}
	if grant.User.Email == "" {
		grant.User.Email = email
	}
	username, _ := grant.User.UserMeta["username"].(string)

	return &AuthSubject{
		ID:       grant.User.ID,
		Email:    grant.User.Email,
		Username: username,
		Roles:    rolesFor(grant.User.Email, h.adminEmails, grant.User.AppMetadata.Role),
		Provider: h.Name(),
	}, nil
}

// BreakerState reports the identity circuit state for the health endpoint.
func (h *HostedIdentity) BreakerState() string {
	return h.cb.State()
}

// ============================================================
// Local identity (development)
// ============================================================

// LocalIdentity accepts exactly one email with a bcrypt-hashed password.
// The user always holds the admin role.
type LocalIdentity struct {
	email string
	hash  []byte
	id    string
}

// NewLocalIdentity validates the hash and derives a stable user ID from
// the email so rows survive restarts.
func NewLocalIdentity(email, passwordHash string) (*LocalIdentity, error) {
	if email == "" {
		return nil, fmt.Errorf("local identity: email is required")
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, fmt.Errorf("local identity: invalid bcrypt hash: %w", err)
	}
	return &LocalIdentity{
		email: strings.ToLower(email),
		hash:  []byte(passwordHash),
		id:    uuid.NewSHA1(uuid.NameSpaceURL, []byte("instadash:local:"+strings.ToLower(email))).String(),
	}, nil
}

func (l *LocalIdentity) Name() string { return "local" }

func (l *LocalIdentity) Authenticate(_ context.Context, email, password string) (*AuthSubject, error) {
	if email == "" || password == "" {
		return nil, ErrNoCredentials
	}
	// Compare the password even for an unknown email so both failures
	// take the same time.
	pwErr := bcrypt.CompareHashAndPassword(l.hash, []byte(password))
	if !strings.EqualFold(email, l.email) || pwErr != nil {
		return nil, ErrInvalidCredentials
	}
	return &AuthSubject{
		ID:       l.id,
		Email:    l.email,
		Roles:    []string{RoleUser, RoleAdmin},
		Provider: l.Name(),
	}, nil
}
