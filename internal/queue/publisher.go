package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/community-hub/internal/logger"
	"github.com/iliyamo/community-hub/internal/metrics"
)

// Publisher sends envelopes to the topic exchange.  The connection is
// opened on first use and reopened after the broker drops it; errors are
// returned so the caller can log and carry on.
type Publisher struct {
	url     string
	log     logger.Logger
	metrics *metrics.Metrics

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url string, log logger.Logger, m *metrics.Metrics) *Publisher {
	return &Publisher{url: url, log: log, metrics: m}
}

// channel returns an open channel with the exchange declared.  Caller
// holds p.mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.Dial(p.url)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq dial: %w", err)
		}
		p.conn = conn
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	// Ensure the exchange exists (idempotent). Durable so bindings survive broker restarts.
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}
	p.ch = ch
	return ch, nil
}

// Publish marshals payload into an envelope and publishes it persistently
// with topic as routing key.
func (p *Publisher) Publish(ctx context.Context, topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	env, err := json.Marshal(Envelope{
		ID:         uuid.NewString(),
		Topic:      topic,
		OccurredAt: time.Now().UTC(),
		Payload:    body,
	})
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channel()
	if err != nil {
		p.metrics.IncPublished("error")
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Type:         topic,
		Body:         env,
	}
	if err := ch.PublishWithContext(ctx, Exchange, topic, false, false, pub); err != nil {
		// drop the channel so the next publish reopens it
		_ = ch.Close()
		p.ch = nil
		p.metrics.IncPublished("error")
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	p.metrics.IncPublished("ok")
	return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}
