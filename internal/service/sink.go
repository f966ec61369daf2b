package service

import (
	"context"

	"github.com/iliyamo/community-hub/internal/logger"
)

// Topics published by the services.
const (
	TopicBookingCreated      = "booking.created"
	TopicBookingDeleted      = "booking.deleted"
	TopicRegistrationCreated = "registration.created"
	TopicRegistrationDeleted = "registration.deleted"
	TopicPresenceBeat        = "presence.beat"
	TopicEventCreated        = "event.created"
)

// EventSink receives domain changes.  Implementations are the in-process
// feed hub and the broker publisher.
type EventSink interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// MultiSink fans a change out to several sinks.  Failures are logged and
// never reach the caller: notification is best effort once the write has
// committed.
type MultiSink struct {
	sinks []EventSink
	log   logger.Logger
}

func NewMultiSink(log logger.Logger, sinks ...EventSink) *MultiSink {
	out := make([]EventSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &MultiSink{sinks: out, log: log}
}

func (m *MultiSink) Publish(ctx context.Context, topic string, payload any) error {
	for _, s := range m.sinks {
		if err := s.Publish(ctx, topic, payload); err != nil && m.log != nil {
			m.log.Warnf("publish %s: %v", topic, err)
		}
	}
	return nil
}

type nopSink struct{}

func (nopSink) Publish(context.Context, string, any) error { return nil }

func sinkOrNop(s EventSink) EventSink {
	if s == nil {
		return nopSink{}
	}
	return s
}
