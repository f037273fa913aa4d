// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package automation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/instadash/internal/breaker"
	"github.com/tomtom215/instadash/internal/config"
	"github.com/tomtom215/instadash/internal/logging"
	"github.com/tomtom215/instadash/internal/metrics"
)

var (
	// ErrRejected means the backend refused the command (4xx).
	ErrRejected = errors.New("automation backend rejected command")

	// ErrUnavailable means the backend could not be reached or failed.
	ErrUnavailable = errors.New("automation backend unavailable")
)

// Command names used in metrics and logs.
const (
	CommandLogin      = "login"
	CommandLogout     = "logout"
	CommandMonitoring = "monitoring"
	CommandHealth     = "health"
)

// Client sends commands to the automation backend.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *http.Client
	limiter *rate.Limiter
	cb      *breaker.Breaker[[]byte]
}

// New creates a client. An empty cfg.URL yields a client whose every call
// fails with ErrUnavailable.
func New(cfg *config.AutomationConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	limit := rate.Limit(cfg.CommandRate)
	if cfg.CommandRate <= 0 {
		limit = rate.Inf
	}
	burst := cfg.CommandBurst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		token:   cfg.Token,
		timeout: timeout,
		http:    &http.Client{},
		limiter: rate.NewLimiter(limit, burst),
		cb: breaker.New[[]byte](breaker.Settings{
			Name:      "automation",
			IsFailure: func(err error) bool { return !errors.Is(err, ErrRejected) },
		}),
	}
}

// Configured reports whether a backend URL was set.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// BaseURL returns the backend URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Token returns the bearer token, for the log stream source.
func (c *Client) Token() string {
	return c.token
}

// BreakerState reports the circuit state for the health endpoint.
func (c *Client) BreakerState() string {
	if !c.Configured() {
		return "disabled"
	}
	return c.cb.State()
}

type loginBody struct {
	Username         string `json:"username"`
	Password         string `json:"password"`
	VerificationCode string `json:"verification_code,omitempty"`
}

// Login asks the backend to sign the account in. code is the optional
// two-factor or challenge code.
func (c *Client) Login(ctx context.Context, accountID, username, password, code string) error {
	body := loginBody{Username: username, Password: password, VerificationCode: code}
	_, err := c.command(ctx, CommandLogin, http.MethodPost, accountPath(accountID, "login"), body)
	return err
}

// Logout asks the backend to end the account's Instagram session.
func (c *Client) Logout(ctx context.Context, accountID string) error {
	_, err := c.command(ctx, CommandLogout, http.MethodPost, accountPath(accountID, "logout"), nil)
	return err
}

// SetMonitoring turns log and stats monitoring for the account on or off.
func (c *Client) SetMonitoring(ctx context.Context, accountID string, enabled bool) error {
	body := map[string]bool{"enabled": enabled}
	_, err := c.command(ctx, CommandMonitoring, http.MethodPut, accountPath(accountID, "monitoring"), body)
	return err
}

// Health checks that the backend answers {"status":"ok"}. It bypasses the
// command rate limit.
func (c *Client) Health(ctx context.Context) error {
	raw, err := c.do(ctx, CommandHealth, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	var h struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &h); err != nil || h.Status != "ok" {
		return fmt.Errorf("%w: unhealthy response %q", ErrUnavailable, truncate(string(raw), 120))
	}
	return nil
}

func accountPath(accountID, action string) string {
	return "/accounts/" + url.PathEscape(accountID) + "/" + action
}

func (c *Client) command(ctx context.Context, name, method, path string, body any) ([]byte, error) {
	if !c.Configured() {
		metrics.RecordAutomationCommand(name, "unavailable", 0)
		return nil, fmt.Errorf("%w: no backend configured", ErrUnavailable)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		metrics.RecordAutomationCommand(name, "throttled", 0)
		return nil, fmt.Errorf("%w: command throttled: %w", ErrUnavailable, err)
	}
	return c.do(ctx, name, method, path, body)
}

func (c *Client) do(ctx context.Context, name, method, path string, body any) ([]byte, error) {
	if !c.Configured() {
		metrics.RecordAutomationCommand(name, "unavailable", 0)
		return nil, fmt.Errorf("%w: no backend configured", ErrUnavailable)
	}

	start := time.Now()
	raw, err := c.cb.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, path, body)
	})
	duration := time.Since(start)

	result := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrRejected):
		result = "rejected"
	case errors.Is(err, breaker.ErrOpen):
		result = "circuit_open"
		err = fmt.Errorf("%w: %w", ErrUnavailable, err)
	default:
		result = "unavailable"
	}
	metrics.RecordAutomationCommand(name, result, duration)

	logging.Ctx(ctx).Debug().
		Str("component", "automation").
		Str("command", name).
		Str("path", path).
		Str("result", result).
		Dur("duration", duration).
		Msg("Automation command")
	return raw, err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if id := logging.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, backendMessage(raw))
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, backendMessage(raw))
	}
	return raw, nil
}

// backendMessage extracts {"error": "..."} or {"message": "..."} from an
// error response, falling back to the raw text.
func backendMessage(raw []byte) string {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &e) == nil {
		if e.Error != "" {
			return truncate(e.Error, 200)
		}
		if e.Message != "" {
			return truncate(e.Message, 200)
		}
	}
	return truncate(strings.TrimSpace(string(raw)), 200)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
