// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package logstream

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/instadash/internal/config"
	"github.com/tomtom215/instadash/internal/logging"
	"github.com/tomtom215/instadash/internal/models"
)

// Bus kinds.
const (
	BusMemory = "memory"
	BusNATS   = "nats"
)

// DefaultTopic is used when no subject is configured.
const DefaultTopic = "instadash.logs"

// Bus carries log entries between the Source and the Broker.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	topic      string
	kind       string
	logger     watermill.LoggerAdapter
}

// NewBus builds the pub/sub selected by cfg.Bus.
func NewBus(cfg *config.LogStreamConfig) (*Bus, error) {
	topic := cfg.Subject
	if topic == "" {
		topic = DefaultTopic
	}
	logger := logging.NewWatermillAdapter()

	switch cfg.Bus {
	case "", BusMemory:
		return NewMemoryBus(topic, logger), nil
	case BusNATS:
		return newNATSBus(cfg.NATSURL, topic, logger)
	default:
		return nil, fmt.Errorf("unknown log bus %q", cfg.Bus)
	}
}

// NewMemoryBus returns an in-process bus.
func NewMemoryBus(topic string, logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = logging.NewWatermillAdapter()
	}
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
	}, logger)
	return &Bus{publisher: pubSub, subscriber: pubSub, topic: topic, kind: BusMemory, logger: logger}
}

func newNATSBus(url, topic string, logger watermill.LoggerAdapter) (*Bus, error) {
	if url == "" {
		url = natsgo.DefaultURL
	}
	natsOpts := []natsgo.Option{
		natsgo.Name("instadash-logstream"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}
	noJetStream := wmNats.JetStreamConfig{Disabled: true}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   noJetStream,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		SubscribersCount: 1,
		CloseTimeout:     5 * time.Second,
		AckWaitTimeout:   5 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        noJetStream,
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("create nats subscriber: %w", err)
	}

	return &Bus{publisher: pub, subscriber: sub, topic: topic, kind: BusNATS, logger: logger}, nil
}

// Kind returns memory or nats.
func (b *Bus) Kind() string {
	return b.kind
}

// Publish encodes entry and sends it on the topic.
func (b *Bus) Publish(entry *models.LogEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode log entry: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("account_id", entry.AccountID)
	msg.Metadata.Set("kind", string(entry.Kind))
	if err := b.publisher.Publish(b.topic, msg); err != nil {
		return fmt.Errorf("publish log entry: %w", err)
	}
	return nil
}

// Subscribe returns the message channel for the topic. It closes when ctx
// is done or the bus is closed. Every message must be acked.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.subscriber.Subscribe(ctx, b.topic)
}

// Close shuts down both sides of the bus.
func (b *Bus) Close() error {
	var firstErr error
	if err := b.publisher.Close(); err != nil {
		firstErr = err
	}
	if b.kind != BusMemory {
		if err := b.subscriber.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DecodeEntry decodes a bus message payload.
func DecodeEntry(msg *message.Message) (*models.LogEntry, error) {
	var entry models.LogEntry
	if err := json.Unmarshal(msg.Payload, &entry); err != nil {
		return nil, fmt.Errorf("decode log entry %s: %w", msg.UUID, err)
	}
	return &entry, nil
}
