package service

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/community-hub/internal/feed"
	"github.com/iliyamo/community-hub/internal/repository"
)

func TestBookingValidation(t *testing.T) {
	g := NewBookingGuard(newStore(t).Bookings, false, nil, nil)
	ctx := context.Background()

	cases := []struct {
		name string
		in   BookingInput
	}{
		{"empty title", BookingInput{Title: " ", Start: at("10:00"), End: at("11:00")}},
		{"end before start", BookingInput{Title: "x", Start: at("11:00"), End: at("10:00")}},
		{"end equals start", BookingInput{Title: "x", Start: at("10:00"), End: at("10:00")}},
		{"unparseable start", BookingInput{Title: "x", Start: "tomorrow", End: at("10:00")}},
		{"missing end", BookingInput{Title: "x", Start: at("10:00")}},
	}
	for _, tc := range cases {
		if _, err := g.Create(ctx, ada, tc.in); !errors.Is(err, ErrInvalidBooking) {
			t.Errorf("%s: got %v, want ErrInvalidBooking", tc.name, err)
		}
	}
	if _, err := g.Create(ctx, guest, BookingInput{Title: "x", Start: at("10:00"), End: at("11:00")}); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("guest create: got %v", err)
	}
}

func TestBookingConflicts(t *testing.T) {
	for _, strict := range []bool{false, true} {
		g := NewBookingGuard(newStore(t).Bookings, strict, nil, nil)
		ctx := context.Background()

		first, err := g.Create(ctx, ada, BookingInput{Title: "Standup", Start: at("10:00"), End: at("11:00")})
		if err != nil {
			t.Fatalf("strict=%v: first booking: %v", strict, err)
		}
		if first.UserName != "Ada" || first.Start.Format("15:04") != "10:00" {
			t.Errorf("strict=%v: unexpected booking %+v", strict, first)
		}
		if _, err := g.Create(ctx, bo, BookingInput{Title: "Overlap", Start: at("10:30"), End: at("11:30")}); !errors.Is(err, ErrBookingConflict) {
			t.Errorf("strict=%v: overlapping booking: got %v, want conflict", strict, err)
		}
		if _, err := g.Create(ctx, bo, BookingInput{Title: "Next", Start: at("11:00"), End: at("12:00")}); err != nil {
			t.Errorf("strict=%v: touching booking rejected: %v", strict, err)
		}
		// epoch millis are accepted as well as ISO strings
		if _, err := g.Create(ctx, bo, BookingInput{Title: "Millis", Start: first.Start.UnixMilli() - 1800000, End: float64(first.Start.UnixMilli() + 60000)}); !errors.Is(err, ErrBookingConflict) {
			t.Errorf("strict=%v: millis overlap: got %v", strict, err)
		}
	}
}

func TestBookingRemoveOwnership(t *testing.T) {
	store := newStore(t)
	g := NewBookingGuard(store.Bookings, false, nil, nil)
	ctx := context.Background()

	b, err := g.Create(ctx, ada, BookingInput{Title: "Mine", Start: at("10:00"), End: at("11:00")})
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Remove(ctx, bo, b.ID); !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("non-owner delete: got %v, want ErrForbidden", err)
	}
	if _, err := store.Bookings.GetByID(ctx, b.ID); err != nil {
		t.Fatalf("booking vanished after rejected delete: %v", err)
	}
	if err := g.Remove(ctx, guest, b.ID); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("guest delete: got %v", err)
	}
	if err := g.Remove(ctx, ada, b.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := g.Remove(ctx, ada, b.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestBookingPublishesToFeed(t *testing.T) {
	hub := feed.NewHub(4)
	sub := hub.Subscribe("booking")
	defer sub.Close()

	g := NewBookingGuard(newStore(t).Bookings, false, NewMultiSink(nil, hub), nil)
	ctx := context.Background()
	b, err := g.Create(ctx, ada, BookingInput{Title: "Feed", Start: at("08:00"), End: at("09:00")})
	if err != nil {
		t.Fatal(err)
	}
	_ = g.Remove(ctx, ada, b.ID)

	first, second := <-sub.C(), <-sub.C()
	if first.Topic != TopicBookingCreated || second.Topic != TopicBookingDeleted {
		t.Errorf("unexpected topics %q, %q", first.Topic, second.Topic)
	}
}

func TestBookingListRange(t *testing.T) {
	g := NewBookingGuard(newStore(t).Bookings, false, nil, nil)
	ctx := context.Background()
	for _, slot := range [][2]string{{"08:00", "09:00"}, {"09:00", "10:00"}, {"10:00", "11:00"}} {
		if _, err := g.Create(ctx, ada, BookingInput{Title: slot[0], Start: at(slot[0]), End: at(slot[1])}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := g.List(ctx, BookingQuery{Start: at("09:00"), End: at("10:00")})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Title != "09:00" {
		t.Fatalf("expected only the 09:00 booking, got %+v", got)
	}
	clash, _ := g.HasConflict(ctx, at("10:59"), at("12:00"))
	free, _ := g.HasConflict(ctx, at("11:00"), at("12:00"))
	if !clash || free {
		t.Errorf("HasConflict: clash=%v free=%v", clash, free)
	}
}

func TestBookingRejectsUnrepresentableInstants(t *testing.T) {
	g := NewBookingGuard(newStore(t).Bookings, false, nil, nil)
	ctx := context.Background()
	start := int64(1773482400000) // 2026-03-14T10:00:00Z
	year10000 := int64(253402300800000)

	if _, err := g.Create(ctx, ada, BookingInput{Title: "Forever", Start: start, End: year10000}); !errors.Is(err, ErrInvalidBooking) {
		t.Fatalf("end in year 10000: got %v, want ErrInvalidBooking", err)
	}
	if _, err := g.Create(ctx, ada, BookingInput{Title: "Ancient", Start: int64(-62167219200001), End: start}); !errors.Is(err, ErrInvalidBooking) {
		t.Fatalf("start before year 0: got %v, want ErrInvalidBooking", err)
	}

	// nothing was stored, so the range stays bookable and listable
	if _, err := g.Create(ctx, bo, BookingInput{Title: "Normal", Start: start, End: start + 3600000}); err != nil {
		t.Fatalf("booking after rejected one: %v", err)
	}
	got, err := g.List(ctx, BookingQuery{})
	if err != nil || len(got) != 1 {
		t.Fatalf("list: %v, %+v", err, got)
	}
	if _, err := g.List(ctx, BookingQuery{Start: start, End: year10000}); !errors.Is(err, ErrInvalidBooking) {
		t.Errorf("list with end in year 10000: got %v", err)
	}
	if _, err := g.Create(ctx, bo, BookingInput{Title: "Last", Start: int64(253402297200000), End: int64(253402300799999)}); err != nil {
		t.Errorf("last hour of 9999 should be accepted: %v", err)
	}
}
