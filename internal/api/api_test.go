// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/instadash/internal/auth"
	"github.com/tomtom215/instadash/internal/authz"
	"github.com/tomtom215/instadash/internal/automation"
	"github.com/tomtom215/instadash/internal/config"
	"github.com/tomtom215/instadash/internal/middleware"
	"github.com/tomtom215/instadash/internal/store/memory"
	"github.com/tomtom215/instadash/internal/testinfra"
	"github.com/tomtom215/instadash/internal/websocket"
)

// testEnv is a full router over the memory store and a fake automation
// backend.
type testEnv struct {
	t        *testing.T
	store    *memory.Store
	sessions auth.SessionStore
	backend  *testinfra.AutomationServer
	hub      *websocket.Hub
	handler  *Handler
	server   *httptest.Server
}

// newTestEnv builds the environment. opts adjust the handler dependencies
// before the handler is created.
func newTestEnv(t *testing.T, opts ...func(*Deps)) *testEnv {
	t.Helper()

	st := memory.New()
	sessionStore := auth.NewMemorySessionStore()
	smCfg := auth.DefaultSessionMiddlewareConfig()
	smCfg.CookieSecure = false
	smCfg.Unauthorized = WriteUnauthorized
	smCfg.Forbidden = WriteForbidden
	sessions := auth.NewSessionMiddleware(sessionStore, nil, smCfg)

	backend := testinfra.NewAutomationServer(t)
	client := automation.New(&config.AutomationConfig{URL: backend.URL(), Timeout: 5 * time.Second})

	enforcer, err := authz.NewEnforcer(nil)
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}

	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.Serve(ctx) }()
	t.Cleanup(cancel)

	cfg := &config.Config{}
	cfg.Server.CORSOrigins = []string{"http://dashboard.test"}

	deps := Deps{
		Store:       st,
		Sessions:    sessions,
		Automation:  client,
		Hub:         hub,
		Performance: middleware.NewPerformanceMonitor(100, time.Second),
		Config:      cfg,
		Version:     "test",
	}
	for _, opt := range opts {
		opt(&deps)
	}
	h := NewHandler(deps)
	router := NewRouter(h, RouterConfig{
		Sessions: sessions,
		Authz:    authz.NewMiddleware(enforcer),
		Chi:      NewChiMiddleware(&ChiMiddlewareConfig{RateLimitDisabled: true}),
		Static: fstest.MapFS{
			"index.html": {Data: []byte("<!doctype html><title>Instadash</title>")},
			"app.js":     {Data: []byte("console.log('ok')")},
		},
		Metrics: true,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{
		t:        t,
		store:    st,
		sessions: sessionStore,
		backend:  backend,
		hub:      hub,
		handler:  h,
		server:   srv,
	}
}

// user creates a session for a fresh user with a profile and returns the
// session token.
func (e *testEnv) user(email string, roles ...string) (id, token string) {
	e.t.Helper()
	if len(roles) == 0 {
		roles = []string{auth.RoleUser}
	}
	subject := &auth.AuthSubject{ID: uuid.NewString(), Email: email, Roles: roles, Provider: "test"}
	session, err := auth.NewSession(subject, time.Hour)
	if err != nil {
		e.t.Fatalf("NewSession: %v", err)
	}
	if err := e.sessions.Create(context.Background(), session); err != nil {
		e.t.Fatalf("Create session: %v", err)
	}
	if _, err := e.store.Profiles().Upsert(context.Background(), subject.ID, email); err != nil {
		e.t.Fatalf("Upsert profile: %v", err)
	}
	return subject.ID, session.ID
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

type result struct {
	status int
	header http.Header
	body   []byte
	env    envelope
}

func (r *result) decode(t *testing.T, dst any) {
	t.Helper()
	if err := json.Unmarshal(r.env.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", r.env.Data, err)
	}
}

func (r *result) code() string {
	if r.env.Error == nil {
		return ""
	}
	return r.env.Error.Code
}

func (e *testEnv) do(method, path, token string, body any, headers ...string) *result {
	e.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			e.t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		e.t.Fatalf("NewRequest: %v", err)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(auth.SessionHeader, token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return e.send(req)
}

func (e *testEnv) send(req *http.Request) *result {
	e.t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		e.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		e.t.Fatalf("read body: %v", err)
	}
	res := &result{status: resp.StatusCode, header: resp.Header, body: raw}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &res.env); err != nil {
			e.t.Fatalf("decode envelope %q: %v", raw, err)
		}
	}
	return res
}

func (e *testEnv) expect(res *result, status int) {
	e.t.Helper()
	if res.status != status {
		e.t.Fatalf("status = %d, want %d; body %s", res.status, status, res.body)
	}
}
