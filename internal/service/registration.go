package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/community-hub/internal/metrics"
	"github.com/iliyamo/community-hub/internal/model"
	"github.com/iliyamo/community-hub/internal/repository"
)

// Registrations manages event RSVPs.  A user holds at most one
// registration per event.
type Registrations struct {
	store   repository.RegistrationStore
	events  repository.EventStore
	sink    EventSink
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewRegistrations(store repository.RegistrationStore, events repository.EventStore, sink EventSink, m *metrics.Metrics) *Registrations {
	return &Registrations{store: store, events: events, sink: sinkOrNop(sink), metrics: m, now: time.Now}
}

// RSVP registers user for eventID.  When eventName is empty and the event
// is stored, its title is used.
func (s *Registrations) RSVP(ctx context.Context, user model.Principal, eventID, eventName string) (model.Registration, error) {
	if !user.Authenticated() {
		return model.Registration{}, ErrUnauthenticated
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return model.Registration{}, fmt.Errorf("%w: event id is required", ErrInvalidInput)
	}
	if _, err := s.store.FindByUserAndEvent(ctx, user.ID, eventID); err == nil {
		return model.Registration{}, repository.ErrAlreadyRegistered
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.Registration{}, err
	}
	if strings.TrimSpace(eventName) == "" && s.events != nil {
		if ev, err := s.events.GetByID(ctx, eventID); err == nil {
			eventName = ev.Title
		}
	}

	reg := model.Registration{
		ID:        uuid.NewString(),
		EventID:   eventID,
		EventName: strings.TrimSpace(eventName),
		UserID:    user.ID,
		UserName:  user.DisplayName(),
		CreatedAt: s.now().UTC(),
	}
	// the unique (user_id, event_id) index rejects a concurrent duplicate
	if err := s.store.Insert(ctx, &reg); err != nil {
		return model.Registration{}, err
	}
	s.metrics.IncRegistration("rsvp")
	_ = s.sink.Publish(ctx, TopicRegistrationCreated, reg)
	return reg, nil
}

// Cancel removes the user's single registration for eventID.
func (s *Registrations) Cancel(ctx context.Context, user model.Principal, eventID string) error {
	if !user.Authenticated() {
		return ErrUnauthenticated
	}
	reg, err := s.store.FindByUserAndEvent(ctx, user.ID, eventID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, reg.ID); err != nil {
		return err
	}
	s.metrics.IncRegistration("cancel")
	_ = s.sink.Publish(ctx, TopicRegistrationDeleted, reg)
	return nil
}

// Mine lists the user's registrations.
func (s *Registrations) Mine(ctx context.Context, user model.Principal) ([]model.Registration, error) {
	if !user.Authenticated() {
		return nil, ErrUnauthenticated
	}
	return s.store.ListByUser(ctx, user.ID)
}

// HasRSVPed reports whether the user is registered for eventID.
func (s *Registrations) HasRSVPed(ctx context.Context, user model.Principal, eventID string) (bool, error) {
	if !user.Authenticated() {
		return false, nil
	}
	_, err := s.store.FindByUserAndEvent(ctx, user.ID, eventID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Counts returns the number of registrations per event id.
func (s *Registrations) Counts(ctx context.Context) (map[string]int, error) {
	return s.store.CountByEvent(ctx)
}
