package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"github.com/iliyamo/community-hub/internal/calendar"
	"github.com/iliyamo/community-hub/internal/config"
	"github.com/iliyamo/community-hub/internal/model"
	"github.com/iliyamo/community-hub/internal/repository"
)

const (
	DefaultEventLimit = 20
	MaxEventLimit     = 200

	placeholderHourUTC = 18
)

// ClampLimit bounds n to [lo, hi].
func ClampLimit(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// EventInput is the payload for creating an event.
type EventInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Venue       string `json:"venue"`
	Start       any    `json:"start"`
	End         any    `json:"end"`
}

// Events serves the upcoming-events listing.  While no event has been
// created yet it returns placeholder events so the calendar is never
// empty on a fresh install.
type Events struct {
	store     repository.EventStore
	templates []config.PlaceholderTemplate
	sink      EventSink
	now       func() time.Time
}

func NewEvents(store repository.EventStore, templates []config.PlaceholderTemplate, sink EventSink) *Events {
	if len(templates) == 0 {
		templates = config.DefaultPlaceholders()
	}
	return &Events{store: store, templates: templates, sink: sinkOrNop(sink), now: time.Now}
}

// Upcoming returns up to limit events starting in [start, end), ordered by
// start.  A missing start means now and a missing end is unbounded.  limit
// is clamped to [1, MaxEventLimit].
func (s *Events) Upcoming(ctx context.Context, start, end any, limit int) ([]model.Event, error) {
	limit = ClampLimit(limit, 1, MaxEventLimit)
	startMs, endMs, err := rangeMillis(start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if startMs == 0 {
		startMs = s.now().UnixMilli()
	}
	n, err := s.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return s.placeholders(calendar.FromMillis(startMs), limit)
	}
	return s.store.ListRange(ctx, startMs, endMs, limit)
}

// placeholders synthesizes limit weekly events, the first on the day after
// from at 18:00 UTC.  Titles cycle through the templates.
func (s *Events) placeholders(from time.Time, limit int) ([]model.Event, error) {
	day := from.UTC().Truncate(24 * time.Hour)
	first := day.Add(24*time.Hour + placeholderHourUTC*time.Hour)
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.WEEKLY,
		Count:   limit,
		Dtstart: first,
	})
	if err != nil {
		return nil, fmt.Errorf("placeholder recurrence: %w", err)
	}
	out := make([]model.Event, 0, limit)
	for i, at := range rule.All() {
		tpl := s.templates[i%len(s.templates)]
		dur := time.Duration(tpl.DurationMin) * time.Minute
		if dur <= 0 {
			dur = time.Hour
		}
		if !calendar.InRange(at.Add(dur).UnixMilli()) {
			break
		}
		out = append(out, model.Event{
			ID:          fmt.Sprintf("placeholder-%d", i+1),
			Title:       tpl.Title,
			Description: tpl.Description,
			Venue:       tpl.Venue,
			Start:       at.UTC(),
			End:         at.Add(dur).UTC(),
			CreatedAt:   at.UTC(),
			Placeholder: true,
		})
	}
	return out, nil
}

// Get returns one stored event.
func (s *Events) Get(ctx context.Context, id string) (model.Event, error) {
	return s.store.GetByID(ctx, id)
}

// Create stores a new event.  Only admins may create events.
func (s *Events) Create(ctx context.Context, user model.Principal, in EventInput) (model.Event, error) {
	if !user.Authenticated() {
		return model.Event{}, ErrUnauthenticated
	}
	if user.Role != model.RoleAdmin {
		return model.Event{}, repository.ErrForbidden
	}
	title := strings.TrimSpace(in.Title)
	startMs, endMs := calendar.Millis(in.Start), calendar.Millis(in.End)
	if title == "" || startMs == 0 || endMs <= startMs {
		return model.Event{}, fmt.Errorf("%w: title, start and a later end are required", ErrInvalidInput)
	}
	if !calendar.InRange(startMs) || !calendar.InRange(endMs) {
		return model.Event{}, fmt.Errorf("%w: start and end must fall within years 0 to 9999", ErrInvalidInput)
	}
	e := model.Event{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Venue:       strings.TrimSpace(in.Venue),
		Start:       calendar.FromMillis(startMs),
		End:         calendar.FromMillis(endMs),
		CreatedBy:   user.ID,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.Insert(ctx, &e); err != nil {
		return model.Event{}, err
	}
	_ = s.sink.Publish(ctx, TopicEventCreated, e)
	return e, nil
}
