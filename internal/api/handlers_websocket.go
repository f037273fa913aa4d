// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package api

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/tomtom215/instadash/internal/auth"
	"github.com/tomtom215/instadash/internal/logging"
	"github.com/tomtom215/instadash/internal/websocket"
)

func (h *Handler) upgrader() gorillaws.Upgrader {
	return gorillaws.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin accepts the page's own origin and the configured CORS
// origins. Browsers always send Origin on a websocket handshake, so a
// missing header is rejected.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}
	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}
	if h.config == nil {
		return true
	}
	for _, allowed := range h.config.Server.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", logging.SanitizeValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// WebSocket upgrades the connection and registers it with the hub. The
// client receives change events for its own rows; admins receive all.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		NewResponseWriter(w, r).ServiceUnavailable("Live updates are disabled")
		return
	}
	subject := auth.GetAuthSubject(r.Context())
	if subject == nil {
		WriteUnauthorized(w, r)
		return
	}

	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Ctx(r.Context()).Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn, subject.ID, subject.IsAdmin())
	if err := h.hub.Register(client); err != nil {
		if errors.Is(err, websocket.ErrHubClosed) {
			_ = conn.WriteControl(gorillaws.CloseMessage,
				gorillaws.FormatCloseMessage(gorillaws.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
		}
		_ = conn.Close()
		return
	}
	client.Start()
}
