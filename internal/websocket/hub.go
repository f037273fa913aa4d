// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package websocket

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/instadash/internal/logging"
	"github.com/tomtom215/instadash/internal/metrics"
	"github.com/tomtom215/instadash/internal/models"
	"github.com/tomtom215/instadash/internal/workflow"
)

// Message types pushed to the dashboard.
const (
	MessageTypeAccountUpdated   = "account_updated"
	MessageTypeAccountDeleted   = "account_deleted"
	MessageTypePostStatsUpdated = "post_stats_updated"
	MessageTypeWorkflowUpdated  = "workflow_updated"
	MessageTypePing             = "ping"
	MessageTypePong             = "pong"
)

const broadcastBuffer = 256

// ErrHubClosed is returned by Register after the hub has shut down.
var ErrHubClosed = errors.New("websocket hub closed")

// Message is the JSON frame sent to clients. owner is the user the event
// belongs to and never leaves the server.
type Message struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	owner string
}

// Hub tracks connected clients and routes messages to the owning user.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*Client]struct{}
	closed    bool
	broadcast chan Message
	log       zerolog.Logger
}

// NewHub creates an idle hub. Messages are delivered once Serve runs.
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*Client]struct{}),
		broadcast: make(chan Message, broadcastBuffer),
		log:       logging.WithComponent("websocket-hub"),
	}
}

// Register adds a client.
func (h *Hub) Register(c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	h.clients[c] = struct{}{}
	metrics.WSConnections.Inc()
	h.log.Debug().Str("user_id", c.userID).Int("clients", len(h.clients)).Msg("Websocket client connected")
	return nil
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

// removeLocked must be called with mu held.
func (h *Hub) removeLocked(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	metrics.WSConnections.Dec()
}

// Serve delivers queued messages until ctx ends, then disconnects every
// client. It may be restarted.
func (h *Hub) Serve(ctx context.Context) error {
	h.mu.Lock()
	h.closed = false
	h.mu.Unlock()

	for {
		// Drain shutdown first so a busy broadcast queue cannot delay it.
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case msg := <-h.broadcast:
			h.deliver(&msg)
		}
	}
}

func (h *Hub) String() string { return "websocket-hub" }

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := len(h.clients)
	for _, c := range h.sortedLocked() {
		h.removeLocked(c)
	}
	h.closed = true
	h.log.Info().Int("clients_closed", n).Msg("Websocket hub stopped")
}

// sortedLocked returns clients in connection order.
func (h *Hub) sortedLocked() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })
	return clients
}

func (h *Hub) deliver(msg *Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var slow []*Client
	for _, c := range h.sortedLocked() {
		if !c.wants(msg) {
			continue
		}
		select {
		case c.send <- *msg:
		default:
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		metrics.WSMessagesDropped.Inc()
		h.log.Warn().Str("user_id", c.userID).Msg("Disconnecting slow websocket client")
		h.removeLocked(c)
	}
}

// Publish queues a message for ownerID's clients and every admin.
func (h *Hub) Publish(ownerID, messageType string, data any) {
	select {
	case h.broadcast <- Message{Type: messageType, Data: data, owner: ownerID}:
	default:
		metrics.WSMessagesDropped.Inc()
		h.log.Warn().Str("message_type", messageType).Msg("Broadcast queue full, dropping message")
	}
}

// AccountUpdated announces a changed account row.
func (h *Hub) AccountUpdated(a *models.InstagramAccount) {
	h.Publish(a.UserID, MessageTypeAccountUpdated, a)
}

// AccountDeleted announces a removed account.
func (h *Hub) AccountDeleted(userID, accountID string) {
	h.Publish(userID, MessageTypeAccountDeleted, map[string]string{"id": accountID})
}

// PostStatsUpdated announces new counters for a post.
func (h *Hub) PostStatsUpdated(p *models.InstagramPost) {
	h.Publish(p.UserID, MessageTypePostStatsUpdated, p)
}

// WorkflowUpdated announces a saved workflow.
func (h *Hub) WorkflowUpdated(w *workflow.Workflow) {
	h.Publish(w.UserID, MessageTypeWorkflowUpdated, w)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
