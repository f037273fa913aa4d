// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package automation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/instadash/internal/config"
	"github.com/tomtom215/instadash/internal/testinfra"
)

func newTestClient(t *testing.T) (*Client, *testinfra.AutomationServer) {
	t.Helper()
	srv := testinfra.NewAutomationServer(t)
	c := New(&config.AutomationConfig{URL: srv.URL() + "/", Token: "secret-token", Timeout: 2 * time.Second})
	return c, srv
}

// =====================================================
// Commands
// =====================================================

func TestClient_Login(t *testing.T) {
	c, srv := newTestClient(t)

	if err := c.Login(context.Background(), "acc 1", "insta_user", "hunter2", "123456"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	cmds := srv.Commands()
	if len(cmds) != 1 {
		t.Fatalf("commands = %d, want 1", len(cmds))
	}
	cmd := cmds[0]
	if cmd.Method != http.MethodPost || cmd.Path != "/accounts/acc 1/login" {
		t.Errorf("request = %s %s", cmd.Method, cmd.Path)
	}
	if got := cmd.Headers.Get("Authorization"); got != "Bearer secret-token" {
		t.Errorf("Authorization = %q", got)
	}
	var body loginBody
	if err := json.Unmarshal(cmd.Body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Username != "insta_user" || body.Password != "hunter2" || body.VerificationCode != "123456" {
		t.Errorf("body = %+v", body)
	}
}

func TestClient_LogoutAndMonitoring(t *testing.T) {
	c, srv := newTestClient(t)
	ctx := context.Background()

	if err := c.Logout(ctx, "a1"); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if err := c.SetMonitoring(ctx, "a1", true); err != nil {
		t.Fatalf("SetMonitoring() error = %v", err)
	}

	cmds := srv.Commands()
	if len(cmds) != 2 {
		t.Fatalf("commands = %d, want 2", len(cmds))
	}
	if cmds[0].Method != http.MethodPost || cmds[0].Path != "/accounts/a1/logout" || len(cmds[0].Body) != 0 {
		t.Errorf("logout request = %s %s body=%q", cmds[0].Method, cmds[0].Path, cmds[0].Body)
	}
	if cmds[1].Method != http.MethodPut || cmds[1].Path != "/accounts/a1/monitoring" || string(cmds[1].Body) != `{"enabled":true}` {
		t.Errorf("monitoring request = %s %s body=%q", cmds[1].Method, cmds[1].Path, cmds[1].Body)
	}
}

func TestClient_Health(t *testing.T) {
	c, _ := newTestClient(t)
	if err := c.Health(context.Background()); err != nil {
		t.Errorf("Health() error = %v", err)
	}

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"degraded"}`))
	}))
	defer bad.Close()
	c = New(&config.AutomationConfig{URL: bad.URL})
	if err := c.Health(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Health(degraded) error = %v, want ErrUnavailable", err)
	}
}

// =====================================================
// Failure mapping
// =====================================================

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, ErrRejected},
		{http.StatusNotFound, ErrRejected},
		{http.StatusConflict, ErrRejected},
		{http.StatusInternalServerError, ErrUnavailable},
		{http.StatusBadGateway, ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c, srv := newTestClient(t)
			srv.SetStatus(tt.status)
			err := c.Logout(context.Background(), "a1")
			if !errors.Is(err, tt.want) {
				t.Errorf("Logout() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestClient_Unconfigured(t *testing.T) {
	c := New(&config.AutomationConfig{})
	if c.Configured() {
		t.Error("Configured() = true with empty URL")
	}
	if err := c.Login(context.Background(), "a", "u", "p", ""); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Login() error = %v, want ErrUnavailable", err)
	}
	if err := c.Health(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Health() error = %v, want ErrUnavailable", err)
	}
	if got := c.BreakerState(); got != "disabled" {
		t.Errorf("BreakerState() = %q, want disabled", got)
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(&config.AutomationConfig{URL: url, Timeout: time.Second})
	if err := c.Logout(context.Background(), "a1"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Logout() error = %v, want ErrUnavailable", err)
	}
}

func TestClient_RejectionsDoNotOpenCircuit(t *testing.T) {
	c, srv := newTestClient(t)
	srv.SetStatus(http.StatusUnprocessableEntity)
	for i := 0; i < 10; i++ {
		_ = c.Logout(context.Background(), "a1")
	}
	if got := c.BreakerState(); got != "closed" {
		t.Errorf("BreakerState() = %q, want closed", got)
	}
}

func TestClient_OutageOpensCircuit(t *testing.T) {
	c, srv := newTestClient(t)
	srv.SetStatus(http.StatusServiceUnavailable)
	for i := 0; i < 5; i++ {
		_ = c.Logout(context.Background(), "a1")
	}
	if got := c.BreakerState(); got != "open" {
		t.Fatalf("BreakerState() = %q, want open", got)
	}

	before := len(srv.Commands())
	err := c.Logout(context.Background(), "a1")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Logout() error = %v, want ErrUnavailable", err)
	}
	if after := len(srv.Commands()); after != before {
		t.Errorf("open circuit still sent a command (%d -> %d)", before, after)
	}
}

func TestClient_RateLimit(t *testing.T) {
	srv := testinfra.NewAutomationServer(t)
	c := New(&config.AutomationConfig{URL: srv.URL(), CommandRate: 0.001, CommandBurst: 1})

	if err := c.Logout(context.Background(), "a1"); err != nil {
		t.Fatalf("first Logout() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := c.Logout(ctx, "a1"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("throttled Logout() error = %v, want ErrUnavailable", err)
	}
	if n := len(srv.Commands()); n != 1 {
		t.Errorf("commands = %d, want 1", n)
	}
}

func TestBackendMessage(t *testing.T) {
	tests := map[string]string{
		`{"error":"bad code"}`:   "bad code",
		`{"message":"no such"}`:  "no such",
		"  plain text failure  ": "plain text failure",
	}
	for raw, want := range tests {
		if got := backendMessage([]byte(raw)); got != want {
			t.Errorf("backendMessage(%q) = %q, want %q", raw, got, want)
		}
	}
}
