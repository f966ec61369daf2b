package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/community-hub/internal/logger"
	"github.com/iliyamo/community-hub/internal/model"
	"github.com/iliyamo/community-hub/internal/service"
)

const auditQueueName = "hub.audit"

// Notifier sends a confirmation email.
type Notifier interface {
	Dispatch(ctx context.Context, msg service.EmailMessage) error
}

// UserLookup resolves the owner of a booking.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (model.User, error)
}

// Consumer reads every domain event from the hub.audit queue, appends one
// line per event to the audit log and, when a notifier is set, emails the
// owner of each new booking.
type Consumer struct {
	url       string
	auditPath string
	log       logger.Logger
	users     UserLookup
	notify    Notifier

	mu sync.Mutex // serializes audit file appends
}

// NewConsumer returns a consumer.  users and notify may be nil, which
// disables booking notifications.
func NewConsumer(url, auditPath string, log logger.Logger, users UserLookup, notify Notifier) *Consumer {
	return &Consumer{url: url, auditPath: auditPath, log: log, users: users, notify: notify}
}

// Run connects to RabbitMQ, binds the audit queue to every topic and
// consumes until ctx ends.  Broker failures trigger a reconnect with
// exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warnf("audit-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warnf("audit-consumer: consume loop ended: %v; reconnecting", err)
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warnf("audit-consumer: set QoS failed: %v", err)
	}
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	if _, err := ch.QueueDeclare(auditQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(auditQueueName, "#", Exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	msgs, err := ch.Consume(auditQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(ctx, d.Body); err != nil {
				c.log.Errorf("audit-consumer: handle message failed: %v", err)
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle processes one envelope.  A failed notification is logged but does
// not fail the message: the audit line is already written.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if env.Topic == "" {
		return errors.New("envelope without topic")
	}
	if err := c.appendAudit(formatAuditLine(env)); err != nil {
		return err
	}
	if env.Topic == service.TopicBookingCreated && c.notify != nil && c.users != nil {
		if err := c.notifyBooking(ctx, env.Payload); err != nil {
			c.log.Warnf("audit-consumer: booking notification failed: %v", err)
		}
	}
	return nil
}

func (c *Consumer) appendAudit(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if dir := filepath.Dir(c.auditPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir audit dir: %w", err)
		}
	}
	f, err := os.OpenFile(c.auditPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

func formatAuditLine(env Envelope) string {
	ts := env.OccurredAt.UTC().Format(time.RFC3339)
	switch {
	case strings.HasPrefix(env.Topic, "booking."):
		var b model.Booking
		if json.Unmarshal(env.Payload, &b) == nil {
			return fmt.Sprintf("[%s] %s | booking_id=%s | user_id=%s | user=%q | title=%q | start=%s | end=%s\n",
				ts, env.Topic, b.ID, b.UserID, b.UserName, b.Title, b.Start.UTC().Format(time.RFC3339), b.End.UTC().Format(time.RFC3339))
		}
	case strings.HasPrefix(env.Topic, "registration."):
		var r model.Registration
		if json.Unmarshal(env.Payload, &r) == nil {
			return fmt.Sprintf("[%s] %s | registration_id=%s | event_id=%s | event=%q | user_id=%s | user=%q\n",
				ts, env.Topic, r.ID, r.EventID, r.EventName, r.UserID, r.UserName)
		}
	}
	return fmt.Sprintf("[%s] %s | payload=%s\n", ts, env.Topic, compact(env.Payload))
}

func compact(raw json.RawMessage) string {
	var sb strings.Builder
	for _, line := range strings.Split(string(raw), "\n") {
		sb.WriteString(strings.TrimSpace(line))
	}
	return sb.String()
}

func (c *Consumer) notifyBooking(ctx context.Context, payload json.RawMessage) error {
	var b model.Booking
	if err := json.Unmarshal(payload, &b); err != nil {
		return fmt.Errorf("decode booking: %w", err)
	}
	u, err := c.users.GetByID(ctx, b.UserID)
	if err != nil {
		return fmt.Errorf("load booking owner: %w", err)
	}
	when := fmt.Sprintf("%s to %s UTC", b.Start.UTC().Format("Mon 2 Jan 2006 15:04"), b.End.UTC().Format("15:04"))
	return c.notify.Dispatch(ctx, service.EmailMessage{
		To:      service.Recipients{u.Email},
		Subject: "Booking confirmed: " + b.Title,
		Text:    fmt.Sprintf("Hi %s,\n\nyour booking %q is confirmed for %s.\n", u.Name, b.Title, when),
	})
}
