package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/iho/pairpoints/internal/infrastructure/metrics"
)

// Broker is the change-stream fan-out: every mutation publishes the new
// record snapshot on a topic keyed by record id, and consumers hold
// cancellable subscriptions delivering an ordered sequence of snapshots.
// Backed by Redis pub/sub; delivery is at-most-once and restartable by
// re-subscribing, with durable state always recomputable from the store.
type Broker struct {
	client  *redis.Client
	prefix  string
	metrics *metrics.Metrics
}

// NewBroker creates a new Broker.
func NewBroker(client *redis.Client, m *metrics.Metrics) *Broker {
	return &Broker{
		client:  client,
		prefix:  "stream:",
		metrics: m,
	}
}

// Publish marshals snapshot to JSON and fans it out to the topic's
// subscribers.
func (b *Broker) Publish(ctx context.Context, topic string, snapshot any) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		b.count("marshal_error")
		return fmt.Errorf("marshal snapshot for %s: %w", topic, err)
	}

	if err := b.client.Publish(ctx, b.prefix+topic, payload).Err(); err != nil {
		b.count("publish_error")
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	b.count("ok")

	return nil
}

func (b *Broker) count(status string) {
	if b.metrics != nil {
		b.metrics.StreamPublished.WithLabelValues(status).Inc()
	}
}

// Subscription is a live sequence of snapshots for one topic. C is closed
// when the subscription ends, via Unsubscribe or context cancellation.
type Subscription struct {
	C <-chan []byte

	topic  string
	pubsub *redis.PubSub
	broker *Broker
}

// Subscribe opens a subscription to topic. The returned channel delivers raw
// JSON snapshots in publish order until Unsubscribe or ctx is done.
func (b *Broker) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	pubsub := b.client.Subscribe(ctx, b.prefix+topic)

	// Wait for the subscription to be confirmed so no snapshot published
	// after Subscribe returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	out := make(chan []byte, 16)

	if b.metrics != nil {
		b.metrics.StreamSubscribers.Inc()
	}

	go func() {
		defer close(out)
		defer func() {
			if b.metrics != nil {
				b.metrics.StreamSubscribers.Dec()
			}
		}()

		in := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = pubsub.Close()
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					_ = pubsub.Close()
					return
				}
			}
		}
	}()

	slog.Debug("change stream subscription opened", "topic", topic)

	return &Subscription{
		C:      out,
		topic:  topic,
		pubsub: pubsub,
		broker: b,
	}, nil
}

// Unsubscribe terminates the subscription; C is closed once the in-flight
// message, if any, has been delivered.
func (s *Subscription) Unsubscribe() error {
	slog.Debug("change stream subscription closed", "topic", s.topic)
	return s.pubsub.Close()
}
