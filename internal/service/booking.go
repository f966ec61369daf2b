package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/community-hub/internal/calendar"
	"github.com/iliyamo/community-hub/internal/metrics"
	"github.com/iliyamo/community-hub/internal/model"
	"github.com/iliyamo/community-hub/internal/repository"
)

// BookingInput is a proposed booking.  Start and End accept any instant
// form calendar.Millis understands.
type BookingInput struct {
	Title string `json:"title"`
	Start any    `json:"start"`
	End   any    `json:"end"`
}

// BookingQuery filters a listing.  Start is inclusive and End exclusive on
// the booking start.
type BookingQuery struct {
	Start  any
	End    any
	UserID string
	Limit  int
}

// BookingGuard creates and removes calendar bookings while keeping slots
// free of overlaps.
//
// In the default mode Create is check-then-act: the overlap query and the
// insert are separate statements, so two concurrent callers can both pass
// the check.  With strict set, the store performs both in one transaction
// and the race is closed.
type BookingGuard struct {
	store   repository.BookingStore
	strict  bool
	sink    EventSink
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewBookingGuard(store repository.BookingStore, strict bool, sink EventSink, m *metrics.Metrics) *BookingGuard {
	return &BookingGuard{store: store, strict: strict, sink: sinkOrNop(sink), metrics: m, now: time.Now}
}

// Strict reports whether creates run as one atomic conditional write.
func (g *BookingGuard) Strict() bool { return g.strict }

// Create validates in, rejects it when it overlaps an existing booking and
// stores it otherwise.
func (g *BookingGuard) Create(ctx context.Context, user model.Principal, in BookingInput) (model.Booking, error) {
	if !user.Authenticated() {
		return model.Booking{}, ErrUnauthenticated
	}
	title := strings.TrimSpace(in.Title)
	startMs, endMs := calendar.Millis(in.Start), calendar.Millis(in.End)
	if title == "" {
		return model.Booking{}, fmt.Errorf("%w: title is required", ErrInvalidBooking)
	}
	if startMs == 0 || endMs == 0 {
		return model.Booking{}, fmt.Errorf("%w: start and end must be valid instants", ErrInvalidBooking)
	}
	if endMs <= startMs {
		return model.Booking{}, fmt.Errorf("%w: end must be after start", ErrInvalidBooking)
	}
	if !calendar.InRange(startMs) || !calendar.InRange(endMs) {
		return model.Booking{}, fmt.Errorf("%w: start and end must fall within years 0 to 9999", ErrInvalidBooking)
	}

	b := model.Booking{
		ID:        uuid.NewString(),
		Title:     title,
		Start:     calendar.FromMillis(startMs),
		End:       calendar.FromMillis(endMs),
		UserID:    user.ID,
		UserName:  user.DisplayName(),
		CreatedAt: g.now().UTC(),
	}

	mode := "check"
	if g.strict {
		mode = "strict"
		if err := g.store.CreateIfFree(ctx, &b); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				g.metrics.IncBookingConflict()
				return model.Booking{}, ErrBookingConflict
			}
			return model.Booking{}, err
		}
	} else {
		clash, err := g.HasConflict(ctx, startMs, endMs)
		if err != nil {
			return model.Booking{}, err
		}
		if clash {
			g.metrics.IncBookingConflict()
			return model.Booking{}, ErrBookingConflict
		}
		if err := g.store.Insert(ctx, &b); err != nil {
			return model.Booking{}, err
		}
	}
	g.metrics.IncBookingCreated(mode)
	_ = g.sink.Publish(ctx, TopicBookingCreated, b)
	return b, nil
}

// HasConflict reports whether [start, end) overlaps any stored booking.
func (g *BookingGuard) HasConflict(ctx context.Context, start, end any) (bool, error) {
	startMs, endMs := calendar.Millis(start), calendar.Millis(end)
	candidates, err := g.store.Overlapping(ctx, startMs, endMs)
	if err != nil {
		return false, err
	}
	for _, c := range candidates {
		if calendar.Overlap(c.Start, c.End, startMs, endMs) {
			return true, nil
		}
	}
	return false, nil
}

// Remove deletes a booking owned by user.  Another user's booking yields
// repository.ErrForbidden and is left untouched.
func (g *BookingGuard) Remove(ctx context.Context, user model.Principal, id string) error {
	if !user.Authenticated() {
		return ErrUnauthenticated
	}
	b, err := g.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if b.UserID != user.ID {
		return repository.ErrForbidden
	}
	if err := g.store.DeleteOwned(ctx, id, user.ID); err != nil {
		return err
	}
	g.metrics.IncBookingDeleted()
	_ = g.sink.Publish(ctx, TopicBookingDeleted, b)
	return nil
}

// List returns bookings ordered by start.  Range endpoints outside years 0
// to 9999 are rejected with ErrInvalidBooking.
func (g *BookingGuard) List(ctx context.Context, q BookingQuery) ([]model.Booking, error) {
	startMs, endMs, err := rangeMillis(q.Start, q.End)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBooking, err)
	}
	return g.store.List(ctx, repository.BookingFilter{
		StartMs: startMs,
		EndMs:   endMs,
		UserID:  q.UserID,
		Limit:   q.Limit,
	})
}

// rangeMillis normalizes optional range endpoints.  A missing endpoint is
// 0; a present one must be representable.
func rangeMillis(start, end any) (int64, int64, error) {
	startMs, endMs := calendar.Millis(start), calendar.Millis(end)
	if startMs != 0 && !calendar.InRange(startMs) {
		return 0, 0, errors.New("start is out of range")
	}
	if endMs != 0 && !calendar.InRange(endMs) {
		return 0, 0, errors.New("end is out of range")
	}
	return startMs, endMs, nil
}
