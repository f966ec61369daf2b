package service

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/community-hub/internal/repository"
)

func TestRSVPTwiceRejected(t *testing.T) {
	store := newStore(t)
	s := NewRegistrations(store.Registrations, store.Events, nil, nil)
	ctx := context.Background()

	if _, err := s.RSVP(ctx, ada, "e1", "Quiz night"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RSVP(ctx, ada, "e1", "Quiz night"); !errors.Is(err, repository.ErrAlreadyRegistered) {
		t.Fatalf("second RSVP: got %v", err)
	}
	if _, err := s.RSVP(ctx, bo, "e1", "Quiz night"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RSVP(ctx, guest, "e1", ""); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("guest RSVP: got %v", err)
	}

	counts, _ := s.Counts(ctx)
	if counts["e1"] != 2 {
		t.Fatalf("count = %d, want 2", counts["e1"])
	}
	if err := s.Cancel(ctx, ada, "e1"); err != nil {
		t.Fatal(err)
	}
	counts, _ = s.Counts(ctx)
	if counts["e1"] != 1 {
		t.Errorf("cancel removed %d registrations, want exactly 1", 2-counts["e1"])
	}
	if ok, _ := s.HasRSVPed(ctx, bo, "e1"); !ok {
		t.Error("other user's registration should remain")
	}
	if err := s.Cancel(ctx, ada, "e1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("cancel without registration: got %v", err)
	}
}

func TestRSVPUsesStoredEventTitle(t *testing.T) {
	store := newStore(t)
	events := NewEvents(store.Events, nil, nil)
	admin := ada
	admin.Role = "admin"
	ev, err := events.Create(context.Background(), admin, EventInput{Title: "Film Club", Start: at("18:00"), End: at("20:00")})
	if err != nil {
		t.Fatal(err)
	}
	s := NewRegistrations(store.Registrations, store.Events, nil, nil)
	reg, err := s.RSVP(context.Background(), bo, ev.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if reg.EventName != "Film Club" {
		t.Errorf("event name = %q", reg.EventName)
	}
	mine, _ := s.Mine(context.Background(), bo)
	if len(mine) != 1 {
		t.Errorf("Mine returned %d registrations", len(mine))
	}
}
