// Package kafka implements the post-commit domain-event publisher on top of
// franz-go. Events are produced synchronously keyed by aggregate ID so
// per-aggregate ordering is preserved.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/JRosan/fop-system-sub004/pkg/platform/tx"
)

// Publisher produces committed domain events to a single topic.
type Publisher struct {
	client *kgo.Client
	topic  string
}

// NewPublisher connects to the brokers and ensures the topic exists. Returns
// nil when no brokers are configured (event dispatch disabled).
func NewPublisher(ctx context.Context, brokers []string, topic string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	// Best-effort topic bootstrap: an already-exists response is fine, and a
	// real connectivity problem surfaces on the first produce anyway.
	admin := kadm.NewClient(client)
	_, _ = admin.CreateTopic(ctx, 1, 1, nil, topic)

	return &Publisher{client: client, topic: topic}, nil
}

type envelope struct {
	Kind      string         `json:"kind"`
	Key       string         `json:"key"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp string         `json:"timestamp"`
}

// Publish implements tx.Publisher.
func (p *Publisher) Publish(ctx context.Context, event tx.Event) error {
	value, err := json.Marshal(envelope{
		Kind:      event.Kind,
		Key:       event.Key,
		Payload:   event.Payload,
		Timestamp: event.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.Kind, err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.Key),
		Value: value,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce event %s: %w", event.Kind, err)
	}
	return nil
}

// Close flushes and releases the underlying client.
func (p *Publisher) Close() {
	p.client.Close()
}
