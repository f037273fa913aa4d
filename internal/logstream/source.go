// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package logstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/instadash/internal/logging"
	"github.com/tomtom215/instadash/internal/metrics"
	"github.com/tomtom215/instadash/internal/models"
)

// Upstream event types. Anything else on the stream is ignored.
const (
	EventLog    = "log"
	EventStatus = "status"
)

// Publisher is the publishing half of a Bus.
type Publisher interface {
	Publish(entry *models.LogEntry) error
}

// SourceConfig configures the upstream connection.
type SourceConfig struct {
	// URL is the full stream URL, {automation.url}{upstream_path}.
	URL   string
	Token string

	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

// Source reads the automation backend's log stream.
type Source struct {
	cfg       SourceConfig
	client    *http.Client
	publisher Publisher
	status    *StatusApplier
	log       zerolog.Logger

	mu          sync.Mutex
	lastEventID string
}

// NewSource creates a source. status may be nil.
func NewSource(cfg SourceConfig, publisher Publisher, status *StatusApplier) *Source {
	if cfg.ReconnectMin <= 0 {
		cfg.ReconnectMin = time.Second
	}
	if cfg.ReconnectMax < cfg.ReconnectMin {
		cfg.ReconnectMax = 60 * time.Second
	}
	return &Source{
		cfg:       cfg,
		client:    &http.Client{},
		publisher: publisher,
		status:    status,
		log:       logging.WithComponent("logstream-source"),
	}
}

// String names the service in supervisor logs.
func (s *Source) String() string {
	return "logstream-source"
}

// LastEventID returns the id the next connection will resume from.
func (s *Source) LastEventID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastEventID
}

func (s *Source) setLastEventID(id string) {
	s.mu.Lock()
	s.lastEventID = id
	s.mu.Unlock()
}

// Serve keeps the upstream connection open until ctx is done. It
// implements suture.Service and only returns on cancellation.
func (s *Source) Serve(ctx context.Context) error {
	delay := s.cfg.ReconnectMin
	for {
		received, err := s.consume(ctx)
		metrics.LogStreamConnected.Set(0)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if received {
			delay = s.cfg.ReconnectMin
		}

		ev := s.log.Warn()
		if err == nil || errors.Is(err, io.EOF) {
			ev = s.log.Info()
		}
		ev.Err(err).Dur("delay", delay).Str("last_event_id", s.LastEventID()).Msg("Log stream disconnected, reconnecting")
		metrics.LogStreamReconnects.Inc()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > s.cfg.ReconnectMax {
			delay = s.cfg.ReconnectMax
		}
	}
}

// consume runs one connection. received reports whether any frame arrived,
// which resets the backoff.
func (s *Source) consume(ctx context.Context) (received bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, http.NoBody)
	if err != nil {
		return false, fmt.Errorf("create stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	}
	lastID := s.LastEventID()
	if lastID != "" {
		req.Header.Set("Last-Event-ID", lastID)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("connect: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("stream returned status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		return false, fmt.Errorf("unexpected content type %q", ct)
	}

	metrics.LogStreamConnected.Set(1)
	s.log.Info().Str("last_event_id", lastID).Msg("Log stream connected")

	dec := NewDecoder(resp.Body)
	for {
		ev, err := dec.Next()
		if err != nil {
			return received, err
		}
		received = true
		if ev.ID != "" {
			s.setLastEventID(ev.ID)
		}
		s.handle(ctx, ev)
	}
}

// wireEntry is the upstream data payload.
type wireEntry struct {
	AccountID string             `json:"account_id"`
	Level     string             `json:"level"`
	Message   string             `json:"message"`
	Status    models.LoginStatus `json:"status"`
	Timestamp time.Time          `json:"timestamp"`
}

func (s *Source) handle(ctx context.Context, ev Event) {
	entry, err := ParseEntry(ev)
	if err != nil {
		metrics.LogEntriesDropped.WithLabelValues("invalid").Inc()
		s.log.Debug().Err(err).Str("event", ev.Type).Msg("Skipping upstream event")
		return
	}
	if entry == nil {
		return
	}

	if entry.Kind == models.LogKindStatus && s.status != nil {
		if err := s.status.Apply(ctx, entry); err != nil {
			s.log.Warn().Err(err).Str("account_id", entry.AccountID).Msg("Failed to apply status event")
		}
	}

	if err := s.publisher.Publish(entry); err != nil {
		metrics.LogEntriesDropped.WithLabelValues("publish").Inc()
		s.log.Error().Err(err).Str("account_id", entry.AccountID).Msg("Failed to publish log entry")
		return
	}
	metrics.LogEntriesIngested.WithLabelValues(string(entry.Kind)).Inc()
}

// ParseEntry turns an upstream frame into a LogEntry. It returns nil, nil
// for event types the dashboard does not consume.
func ParseEntry(ev Event) (*models.LogEntry, error) {
	var kind models.LogKind
	switch ev.Type {
	case EventLog, "message":
		kind = models.LogKindLog
	case EventStatus:
		kind = models.LogKindStatus
	default:
		return nil, nil
	}

	var w wireEntry
	if err := json.Unmarshal([]byte(ev.Data), &w); err != nil {
		return nil, fmt.Errorf("decode %s event %s: %w", ev.Type, ev.ID, err)
	}
	if w.AccountID == "" {
		return nil, fmt.Errorf("%s event %s has no account_id", ev.Type, ev.ID)
	}
	if kind == models.LogKindStatus && !w.Status.Valid() {
		return nil, fmt.Errorf("status event %s has invalid status %q", ev.ID, w.Status)
	}
	if w.Level == "" {
		w.Level = "info"
	}
	if w.Timestamp.IsZero() {
		w.Timestamp = time.Now().UTC()
	}

	return &models.LogEntry{
		ID:        ev.ID,
		AccountID: w.AccountID,
		Kind:      kind,
		Level:     strings.ToLower(w.Level),
		Message:   logging.SanitizeValue(w.Message),
		Status:    w.Status,
		Timestamp: w.Timestamp,
	}, nil
}
