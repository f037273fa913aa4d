// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package testinfra

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

// Command is one request captured by AutomationServer.
type Command struct {
	Method  string
	Path    string
	Headers http.Header
	Body    []byte
}

// StreamEvent is one event served on the fake log stream.
type StreamEvent struct {
	ID    int64
	Event string
	Data  any
}

// AutomationServer imitates the external automation backend: it records
// every command and serves a server-sent-event log stream fed by Emit.
type AutomationServer struct {
	Server *httptest.Server

	// Status is returned for command requests (default 202).
	Status int

	// StreamPath is the SSE endpoint (default /logs/stream).
	StreamPath string

	mu          sync.Mutex
	commands    []Command
	events      []StreamEvent
	notify      chan struct{}
	kick        chan struct{}
	lastEventID []string
	connects    int
	unhealthy   bool
}

// NewAutomationServer starts a fake backend that is closed with the test.
func NewAutomationServer(t *testing.T) *AutomationServer {
	t.Helper()

	s := &AutomationServer{
		Status:     http.StatusAccepted,
		StreamPath: "/logs/stream",
		notify:     make(chan struct{}),
		kick:       make(chan struct{}),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Server.Close)
	return s
}

// URL returns the base URL of the fake backend.
func (s *AutomationServer) URL() string {
	return s.Server.URL
}

func (s *AutomationServer) serve(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && r.URL.Path == s.StreamPath:
		s.serveStream(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/health":
		s.mu.Lock()
		unhealthy := s.unhealthy
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if unhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, `{"status":"down"}`)
			return
		}
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	default:
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.commands = append(s.commands, Command{
			Method:  r.Method,
			Path:    r.URL.Path,
			Headers: r.Header.Clone(),
			Body:    body,
		})
		status := s.Status
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status >= 400 {
			_, _ = fmt.Fprintf(w, `{"error":"command failed with status %d"}`, status)
			return
		}
		_, _ = io.WriteString(w, `{"accepted":true}`)
	}
}

func (s *AutomationServer) serveStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	after, _ := strconv.ParseInt(r.Header.Get("Last-Event-ID"), 10, 64)
	s.mu.Lock()
	s.lastEventID = append(s.lastEventID, r.Header.Get("Last-Event-ID"))
	s.connects++
	kick := s.kick
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, ": connected\n\n")
	flusher.Flush()

	for {
		s.mu.Lock()
		pending := make([]StreamEvent, 0)
		for _, ev := range s.events {
			if ev.ID > after {
				pending = append(pending, ev)
			}
		}
		notify := s.notify
		s.mu.Unlock()

		for _, ev := range pending {
			if err := writeEvent(w, ev); err != nil {
				return
			}
			after = ev.ID
		}
		flusher.Flush()

		select {
		case <-notify:
		case <-kick:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(w io.Writer, ev StreamEvent) error {
	var data string
	switch v := ev.Data.(type) {
	case string:
		data = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		data = string(b)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "id: %d\n", ev.ID)
	if ev.Event != "" {
		fmt.Fprintf(&sb, "event: %s\n", ev.Event)
	}
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(&sb, "data: %s\n", line)
	}
	sb.WriteString("\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// Emit appends an event to the stream and wakes every connected reader.
// A zero ID is replaced with the next sequence number.
func (s *AutomationServer) Emit(ev StreamEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.ID == 0 {
		ev.ID = int64(len(s.events)) + 1
		if n := len(s.events); n > 0 && s.events[n-1].ID >= ev.ID {
			ev.ID = s.events[n-1].ID + 1
		}
	}
	s.events = append(s.events, ev)
	close(s.notify)
	s.notify = make(chan struct{})
}

// DropStreams disconnects every open stream; readers are expected to reconnect.
func (s *AutomationServer) DropStreams() {
	s.mu.Lock()
	defer s.mu.Unlock()
	close(s.kick)
	s.kick = make(chan struct{})
}

// Commands returns a copy of the captured commands.
func (s *AutomationServer) Commands() []Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Command, len(s.commands))
	copy(out, s.commands)
	return out
}

// SetHealthy controls the /health answer (healthy by default).
func (s *AutomationServer) SetHealthy(healthy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unhealthy = !healthy
}

// SetStatus changes the status returned for subsequent commands.
func (s *AutomationServer) SetStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = status
}

// Connects reports how many stream connections have been opened.
func (s *AutomationServer) Connects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connects
}

// LastEventIDs returns the Last-Event-ID header of every stream connection.
func (s *AutomationServer) LastEventIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.lastEventID))
	copy(out, s.lastEventID)
	return out
}

// WaitFor polls cond until it holds or timeout elapses.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}
