// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package logstream

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/instadash/internal/logging"
	"github.com/tomtom215/instadash/internal/metrics"
	"github.com/tomtom215/instadash/internal/models"
)

// DefaultReplaySize is the per-account ring size when none is configured.
const DefaultReplaySize = 200

// subscriberBuffer is the channel depth of one subscription.
const subscriberBuffer = 64

// MessageSource is the subscribing half of a Bus.
type MessageSource interface {
	Subscribe(ctx context.Context) (<-chan *message.Message, error)
}

// ring is a fixed-size FIFO of log entries.
type ring struct {
	buf   []models.LogEntry
	start int
	size  int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]models.LogEntry, capacity)}
}

func (r *ring) push(e models.LogEntry) {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = e
		r.size++
		return
	}
	r.buf[r.start] = e
	r.start = (r.start + 1) % len(r.buf)
}

// entries returns the ring contents oldest first.
func (r *ring) entries() []models.LogEntry {
	out := make([]models.LogEntry, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

// after returns the entries that follow the one with id. An unknown id
// returns everything, since the gap cannot be measured.
func (r *ring) after(id string) []models.LogEntry {
	all := r.entries()
	if id == "" {
		return all
	}
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].ID == id {
			return all[i+1:]
		}
	}
	return all
}

// Subscription receives the live entries of one account.
type Subscription struct {
	AccountID string

	ch      chan models.LogEntry
	dropped atomic.Int64
	broker  *Broker
	once    sync.Once
}

// C is closed when the subscription is closed.
func (s *Subscription) C() <-chan models.LogEntry {
	return s.ch
}

// Dropped reports entries lost because the subscriber fell behind.
func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

// Close unregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() { s.broker.unsubscribe(s) })
}

// Broker buffers recent entries per account and fans them out.
type Broker struct {
	source     MessageSource
	replaySize int

	mu    sync.Mutex
	rings map[string]*ring
	subs  map[string]map[*Subscription]struct{}
}

// NewBroker creates a broker consuming source. source may be nil when
// entries are fed through Dispatch directly.
func NewBroker(source MessageSource, replaySize int) *Broker {
	if replaySize <= 0 {
		replaySize = DefaultReplaySize
	}
	return &Broker{
		source:     source,
		replaySize: replaySize,
		rings:      make(map[string]*ring),
		subs:       make(map[string]map[*Subscription]struct{}),
	}
}

// Serve consumes the bus until ctx is done. It implements suture.Service.
func (b *Broker) Serve(ctx context.Context) error {
	log := logging.WithComponent("logstream-broker")
	messages, err := b.source.Subscribe(ctx)
	if err != nil {
		return err
	}
	log.Info().Msg("Log broker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			entry, err := DecodeEntry(msg)
			if err != nil {
				log.Warn().Err(err).Msg("Dropping undecodable log entry")
				metrics.LogEntriesDropped.WithLabelValues("decode").Inc()
				msg.Ack()
				continue
			}
			b.Dispatch(*entry)
			msg.Ack()
		}
	}
}

// String names the service in supervisor logs.
func (b *Broker) String() string {
	return "logstream-broker"
}

// Dispatch records entry and delivers it to the account's subscribers.
func (b *Broker) Dispatch(entry models.LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.rings[entry.AccountID]
	if !ok {
		r = newRing(b.replaySize)
		b.rings[entry.AccountID] = r
	}
	r.push(entry)

	for sub := range b.subs[entry.AccountID] {
		select {
		case sub.ch <- entry:
		default:
			sub.dropped.Add(1)
			metrics.LogEntriesDropped.WithLabelValues("slow_subscriber").Inc()
		}
	}
}

// Subscribe registers a subscriber for accountID and returns the buffered
// entries after lastEventID. Registration and the replay snapshot happen
// atomically, so no entry is both replayed and delivered, or lost between.
func (b *Broker) Subscribe(accountID, lastEventID string) (*Subscription, []models.LogEntry) {
	sub := &Subscription{
		AccountID: accountID,
		ch:        make(chan models.LogEntry, subscriberBuffer),
		broker:    b,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var replay []models.LogEntry
	if r, ok := b.rings[accountID]; ok {
		replay = r.after(lastEventID)
	}
	set, ok := b.subs[accountID]
	if !ok {
		set = make(map[*Subscription]struct{})
		b.subs[accountID] = set
	}
	set[sub] = struct{}{}
	metrics.SSESubscribers.Inc()
	return sub, replay
}

func (b *Broker) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if set, ok := b.subs[sub.AccountID]; ok {
		if _, present := set[sub]; present {
			delete(set, sub)
			close(sub.ch)
			metrics.SSESubscribers.Dec()
		}
		if len(set) == 0 {
			delete(b.subs, sub.AccountID)
		}
	}
}

// Recent returns up to n of the newest buffered entries, oldest first.
func (b *Broker) Recent(accountID string, n int) []models.LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.rings[accountID]
	if !ok {
		return []models.LogEntry{}
	}
	all := r.entries()
	if n > 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	return all
}

// Forget drops the buffer of a deleted account and ends its open streams.
func (b *Broker) Forget(accountID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.rings, accountID)
	for sub := range b.subs[accountID] {
		close(sub.ch)
		metrics.SSESubscribers.Dec()
	}
	delete(b.subs, accountID)
}

// Subscribers returns the number of open subscriptions for accountID.
func (b *Broker) Subscribers(accountID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[accountID])
}
