// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/tomtom215/instadash/internal/auth"
	"github.com/tomtom215/instadash/internal/config"
	"github.com/tomtom215/instadash/internal/testinfra"
	"github.com/tomtom215/instadash/internal/websocket"
)

func TestCheckWebSocketOrigin(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Server.CORSOrigins = []string{"https://dash.example.com"}
	h := &Handler{config: cfg}

	tests := []struct {
		name   string
		host   string
		origin string
		want   bool
	}{
		{"missing origin", "api.example.com", "", false},
		{"same origin", "api.example.com", "https://api.example.com", true},
		{"configured origin", "api.example.com", "https://dash.example.com", true},
		{"foreign origin", "api.example.com", "https://evil.example.net", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
			r.Host = tt.host
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := h.checkWebSocketOrigin(r); got != tt.want {
				t.Errorf("checkWebSocketOrigin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWebSocket_ReceivesOwnAccountUpdates(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	_, token := env.user("a@example.com")

	header := http.Header{}
	header.Set("Origin", "http://dashboard.test")
	header.Set(auth.SessionHeader, token)
	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/api/v1/ws"
	conn, resp, err := gorillaws.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("Dial: %v (response %v)", err, resp)
	}
	defer conn.Close()

	if !testinfra.WaitFor(t, 2*time.Second, func() bool { return env.hub.ClientCount() == 1 }) {
		t.Fatal("client never registered")
	}

	acct := createAccount(t, env, token, "shop")

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if msg.Type != websocket.MessageTypeAccountUpdated {
		t.Errorf("type = %q, want %q", msg.Type, websocket.MessageTypeAccountUpdated)
	}
	if msg.Data["id"] != acct.ID {
		t.Errorf("data.id = %v, want %s", msg.Data["id"], acct.ID)
	}
}
