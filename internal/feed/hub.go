// Package feed is an in-process publish/subscribe hub.  Services publish
// domain changes to topics ("booking.created", "presence.beat", ...) and
// long-lived HTTP streams subscribe to them.  Every Subscribe must be
// paired with Close by whoever owns the stream.
package feed

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Message is one published change.
type Message struct {
	Topic   string    `json:"topic"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

// Hub fans messages out to subscriptions.  The zero value is not usable;
// call NewHub.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
	closed bool
}

// NewHub returns a hub whose subscriptions buffer up to buffer messages.
// Slow subscribers miss messages rather than blocking publishers.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{subs: make(map[*Subscription]struct{}), buffer: buffer}
}

// Subscription receives messages whose topic matches one of its filters.
// A filter matches a topic equal to it or starting with filter + ".".  No
// filters means every topic.
type Subscription struct {
	hub     *Hub
	filters []string
	ch      chan Message
	once    sync.Once
	dropped int
}

// Subscribe registers a new subscription.
func (h *Hub) Subscribe(filters ...string) *Subscription {
	s := &Subscription{hub: h, filters: filters, ch: make(chan Message, h.buffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		s.once.Do(func() { close(s.ch) })
		return s
	}
	h.subs[s] = struct{}{}
	return s
}

// C returns the delivery channel.  It is closed by Close.
func (s *Subscription) C() <-chan Message { return s.ch }

// Dropped reports how many messages were skipped because the buffer was
// full.
func (s *Subscription) Dropped() int {
	s.hub.mu.RLock()
	defer s.hub.mu.RUnlock()
	return s.dropped
}

// Close unsubscribes and closes the channel.  Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		close(s.ch)
		s.hub.mu.Unlock()
	})
}

func (s *Subscription) matches(topic string) bool {
	if len(s.filters) == 0 {
		return true
	}
	for _, f := range s.filters {
		if topic == f || strings.HasPrefix(topic, f+".") {
			return true
		}
	}
	return false
}

// Publish delivers payload to every matching subscription without
// blocking.  It never fails; the error return satisfies the services'
// event sink.
func (h *Hub) Publish(_ context.Context, topic string, payload any) error {
	msg := Message{Topic: topic, Payload: payload, At: time.Now().UTC()}
	// the write lock guards both the map and the dropped counters, and
	// keeps Close from closing a channel mid-send
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		if !s.matches(topic) {
			continue
		}
		select {
		case s.ch <- msg:
		default:
			s.dropped++
		}
	}
	return nil
}

// Len returns the number of open subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every open subscription so that their readers return.
// Subscriptions taken afterwards start closed.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	open := make([]*Subscription, 0, len(h.subs))
	for s := range h.subs {
		open = append(open, s)
	}
	h.mu.Unlock()
	for _, s := range open {
		s.Close()
	}
}
