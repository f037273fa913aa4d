// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package logstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/instadash/internal/models"
)

func TestStream_ReplayThenLive(t *testing.T) {
	b := NewBroker(nil, 10)
	b.Dispatch(entry("a", 1))
	b.Dispatch(entry("a", 2))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub, replay := b.Subscribe("a", r.Header.Get("Last-Event-ID"))
		defer sub.Close()
		_ = Stream(r.Context(), w, sub, replay, 20*time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, http.NoBody)
	req.Header.Set("Last-Event-ID", "1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	dec := NewDecoder(resp.Body)
	first, err := dec.Next()
	if err != nil || first.Type != "connected" {
		t.Fatalf("first frame = %+v, %v; want connected", first, err)
	}
	replayed, err := dec.Next()
	if err != nil || replayed.ID != "2" {
		t.Fatalf("replayed frame = %+v, %v; want id 2", replayed, err)
	}

	go func() {
		for b.Subscribers("a") == 0 {
			time.Sleep(5 * time.Millisecond)
		}
		b.Dispatch(entry("a", 3))
	}()
	live, err := dec.Next()
	if err != nil {
		t.Fatal(err)
	}
	var got models.LogEntry
	if err := json.Unmarshal([]byte(live.Data), &got); err != nil {
		t.Fatal(err)
	}
	if live.ID != "3" || live.Type != "log" || got.Message != "line 3" {
		t.Errorf("live frame = %+v, entry %+v", live, got)
	}
}

func TestStream_Unflushable(t *testing.T) {
	b := NewBroker(nil, 10)
	sub, _ := b.Subscribe("a", "")
	defer sub.Close()
	if err := Stream(context.Background(), nonFlusher{httptest.NewRecorder()}, sub, nil, 0); err != ErrStreamingUnsupported {
		t.Errorf("Stream() error = %v, want ErrStreamingUnsupported", err)
	}
}

type nonFlusher struct{ w http.ResponseWriter }

func (n nonFlusher) Header() http.Header         { return n.w.Header() }
func (n nonFlusher) Write(b []byte) (int, error) { return n.w.Write(b) }
func (n nonFlusher) WriteHeader(code int)        { n.w.WriteHeader(code) }
