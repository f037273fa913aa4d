// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package logstream

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/instadash/internal/models"
)

// DefaultHeartbeat is the comment interval that keeps proxies from closing
// an idle stream.
const DefaultHeartbeat = 15 * time.Second

// Stream writes replay and then live entries of sub to w until ctx is done
// or the subscription closes. The caller owns sub and closes it.
func Stream(ctx context.Context, w http.ResponseWriter, sub *Subscription, replay []models.LogEntry, heartbeat time.Duration) error {
	flusher, err := PrepareStream(w)
	if err != nil {
		return err
	}
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}

	if err := WriteEvent(w, Event{Retry: "3000", Data: `{"type":"connected"}`, Type: "connected"}); err != nil {
		return err
	}
	for i := range replay {
		if err := writeEntry(w, &replay[i]); err != nil {
			return err
		}
	}
	flusher.Flush()

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := WriteComment(w, "heartbeat"); err != nil {
				return err
			}
			flusher.Flush()
		case entry, ok := <-sub.C():
			if !ok {
				return nil
			}
			if err := writeEntry(w, &entry); err != nil {
				return err
			}
			flusher.Flush()
		}
	}
}

func writeEntry(w http.ResponseWriter, entry *models.LogEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return WriteEvent(w, Event{ID: entry.ID, Type: string(entry.Kind), Data: string(data)})
}
