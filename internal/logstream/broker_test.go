// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package logstream

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/instadash/internal/models"
)

func entry(account string, n int) models.LogEntry {
	return models.LogEntry{
		ID:        fmt.Sprint(n),
		AccountID: account,
		Kind:      models.LogKindLog,
		Level:     "info",
		Message:   fmt.Sprintf("line %d", n),
		Timestamp: time.Unix(int64(n), 0).UTC(),
	}
}

func ids(entries []models.LogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func equalIDs(a []string, b ...string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// =====================================================
// Ring buffer and replay
// =====================================================

func TestBroker_RingKeepsNewest(t *testing.T) {
	b := NewBroker(nil, 3)
	for i := 1; i <= 5; i++ {
		b.Dispatch(entry("a", i))
	}
	if got := ids(b.Recent("a", 0)); !equalIDs(got, "3", "4", "5") {
		t.Errorf("Recent(a, 0) = %v, want [3 4 5]", got)
	}
	if got := ids(b.Recent("a", 2)); !equalIDs(got, "4", "5") {
		t.Errorf("Recent(a, 2) = %v, want [4 5]", got)
	}
	if got := b.Recent("unknown", 10); got == nil || len(got) != 0 {
		t.Errorf("Recent(unknown) = %v, want empty slice", got)
	}
}

func TestBroker_SubscribeReplay(t *testing.T) {
	b := NewBroker(nil, 10)
	for i := 1; i <= 4; i++ {
		b.Dispatch(entry("a", i))
	}
	b.Dispatch(entry("b", 99))

	tests := []struct {
		lastID string
		want   []string
	}{
		{"", []string{"1", "2", "3", "4"}},
		{"2", []string{"3", "4"}},
		{"4", []string{}},
		{"gone", []string{"1", "2", "3", "4"}},
	}
	for _, tt := range tests {
		sub, replay := b.Subscribe("a", tt.lastID)
		if got := ids(replay); !equalIDs(got, tt.want...) {
			t.Errorf("Subscribe(a, %q) replay = %v, want %v", tt.lastID, got, tt.want)
		}
		sub.Close()
	}
}

// =====================================================
// Fan-out
// =====================================================

func TestBroker_FanOutPerAccount(t *testing.T) {
	b := NewBroker(nil, 10)
	subA1, _ := b.Subscribe("a", "")
	subA2, _ := b.Subscribe("a", "")
	subB, _ := b.Subscribe("b", "")
	defer subA1.Close()
	defer subA2.Close()
	defer subB.Close()

	b.Dispatch(entry("a", 1))

	for i, sub := range []*Subscription{subA1, subA2} {
		select {
		case e := <-sub.C():
			if e.ID != "1" {
				t.Errorf("sub %d got %s, want 1", i, e.ID)
			}
		case <-time.After(time.Second):
			t.Fatalf("sub %d received nothing", i)
		}
	}
	select {
	case e := <-subB.C():
		t.Errorf("account b received entry %+v for account a", e)
	default:
	}
}

func TestBroker_SlowSubscriberDrops(t *testing.T) {
	b := NewBroker(nil, 10)
	sub, _ := b.Subscribe("a", "")
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer+10; i++ {
			b.Dispatch(entry("a", i))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Dispatch blocked on a slow subscriber")
	}
	if sub.Dropped() != 10 {
		t.Errorf("Dropped() = %d, want 10", sub.Dropped())
	}
}

func TestBroker_CloseUnsubscribes(t *testing.T) {
	b := NewBroker(nil, 10)
	sub, _ := b.Subscribe("a", "")
	if b.Subscribers("a") != 1 {
		t.Fatalf("Subscribers(a) = %d, want 1", b.Subscribers("a"))
	}
	sub.Close()
	sub.Close()
	if b.Subscribers("a") != 0 {
		t.Errorf("Subscribers(a) after Close = %d, want 0", b.Subscribers("a"))
	}
	if _, ok := <-sub.C(); ok {
		t.Error("channel still open after Close")
	}
	b.Dispatch(entry("a", 1))
}

func TestBroker_Forget(t *testing.T) {
	b := NewBroker(nil, 10)
	b.Dispatch(entry("a", 1))
	b.Forget("a")
	if n := len(b.Recent("a", 0)); n != 0 {
		t.Errorf("Recent after Forget = %d entries, want 0", n)
	}
}

func TestBroker_ForgetEndsOpenStreams(t *testing.T) {
	b := NewBroker(nil, 10)
	gone, _ := b.Subscribe("a", "")
	kept, _ := b.Subscribe("b", "")

	b.Forget("a")
	if _, ok := <-gone.C(); ok {
		t.Error("subscription of forgotten account still open")
	}
	if b.Subscribers("a") != 0 {
		t.Errorf("Subscribers(a) = %d, want 0", b.Subscribers("a"))
	}
	gone.Close()

	b.Dispatch(entry("a", 2))
	b.Dispatch(entry("b", 1))
	select {
	case got := <-kept.C():
		if got.AccountID != "b" {
			t.Errorf("other account received %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("other account's stream stopped receiving")
	}
	kept.Close()
}

// =====================================================
// Bus consumption
// =====================================================

func TestBroker_ServeConsumesBus(t *testing.T) {
	bus := NewMemoryBus("test.logs", nil)
	defer bus.Close()
	b := NewBroker(bus, 10)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- b.Serve(ctx) }()

	sub, _ := b.Subscribe("a", "")
	defer sub.Close()

	// gochannel drops messages published before the subscription exists,
	// so keep publishing until the broker is consuming.
	e := entry("a", 1)
	deadline := time.After(2 * time.Second)
	for received := false; !received; {
		if err := bus.Publish(&e); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
		select {
		case got := <-sub.C():
			if got.Message != e.Message {
				t.Errorf("received %+v, want %+v", got, e)
			}
			received = true
		case <-time.After(20 * time.Millisecond):
		case <-deadline:
			t.Fatal("broker never delivered the published entry")
		}
	}

	cancel()
	select {
	case <-errc:
	case <-time.After(2 * time.Second):
		t.Error("Serve did not return after cancel")
	}
}
