package feed

import (
	"context"
	"testing"
)

func TestTopicMatching(t *testing.T) {
	h := NewHub(4)
	bookings := h.Subscribe("booking")
	defer bookings.Close()
	all := h.Subscribe()
	defer all.Close()

	ctx := context.Background()
	_ = h.Publish(ctx, "booking.created", "b1")
	_ = h.Publish(ctx, "bookingx", "ignored")
	_ = h.Publish(ctx, "presence.beat", "u1")

	if got := len(bookings.C()); got != 1 {
		t.Fatalf("booking subscriber got %d messages, want 1", got)
	}
	if msg := <-bookings.C(); msg.Topic != "booking.created" || msg.Payload != "b1" {
		t.Errorf("unexpected message %+v", msg)
	}
	if got := len(all.C()); got != 3 {
		t.Errorf("wildcard subscriber got %d messages, want 3", got)
	}
}

func TestCloseUnsubscribes(t *testing.T) {
	h := NewHub(1)
	s := h.Subscribe("x")
	if h.Len() != 1 {
		t.Fatalf("expected one subscription")
	}
	s.Close()
	s.Close()
	if h.Len() != 0 {
		t.Fatalf("subscription not removed")
	}
	if _, ok := <-s.C(); ok {
		t.Error("channel should be closed")
	}
	_ = h.Publish(context.Background(), "x", 1)
}

func TestSlowSubscriberDrops(t *testing.T) {
	h := NewHub(1)
	s := h.Subscribe()
	defer s.Close()
	for i := 0; i < 3; i++ {
		_ = h.Publish(context.Background(), "t", i)
	}
	if s.Dropped() != 2 {
		t.Errorf("dropped = %d, want 2", s.Dropped())
	}
}

func TestHubCloseEndsSubscriptions(t *testing.T) {
	h := NewHub(1)
	s := h.Subscribe("presence")
	h.Close()
	if _, ok := <-s.C(); ok {
		t.Error("open subscription should be closed by hub Close")
	}
	s.Close() // still safe

	late := h.Subscribe()
	if _, ok := <-late.C(); ok {
		t.Error("subscription after Close should start closed")
	}
	if h.Len() != 0 {
		t.Errorf("Len = %d", h.Len())
	}
	_ = h.Publish(context.Background(), "presence.beat", "x")
}
