package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/community-hub/internal/database"
	"github.com/iliyamo/community-hub/internal/model"
)

// BookingFilter narrows a booking listing.  StartMs is inclusive and EndMs
// exclusive on the booking start; zero means unbounded.
type BookingFilter struct {
	StartMs int64
	EndMs   int64
	UserID  string
	Limit   int
}

// BookingStore persists calendar bookings.
type BookingStore interface {
	Insert(ctx context.Context, b *model.Booking) error
	// CreateIfFree inserts b only if no stored booking overlaps it, as one
	// atomic step.  It returns ErrConflict otherwise.
	CreateIfFree(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id string) (model.Booking, error)
	Overlapping(ctx context.Context, startMs, endMs int64) ([]model.Booking, error)
	List(ctx context.Context, f BookingFilter) ([]model.Booking, error)
	DeleteOwned(ctx context.Context, id, userID string) error
}

// RegistrationStore persists event RSVPs.
type RegistrationStore interface {
	Insert(ctx context.Context, r *model.Registration) error
	FindByUserAndEvent(ctx context.Context, userID, eventID string) (model.Registration, error)
	ListByUser(ctx context.Context, userID string) ([]model.Registration, error)
	Delete(ctx context.Context, id string) error
	CountByEvent(ctx context.Context) (map[string]int, error)
}

// EventStore persists venue events.
type EventStore interface {
	Insert(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id string) (model.Event, error)
	ListRange(ctx context.Context, startMs, endMs int64, limit int) ([]model.Event, error)
	Count(ctx context.Context) (int, error)
}

// PresenceStore keeps the last heartbeat per user.  Records are never
// deleted; staleness is derived by readers.
type PresenceStore interface {
	Upsert(ctx context.Context, p model.Presence) error
	List(ctx context.Context) ([]model.Presence, error)
}

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, u *model.User, password string, cost int) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	UpdateName(ctx context.Context, id, name string) error
}

// TokenStore persists refresh-token hashes.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID, tokenHash string, expMs int64) error
	ValidateRefresh(ctx context.Context, tokenHash string) (string, error)
	// RevokeByHash returns ErrNotFound unless it revoked a live token.
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

// Store groups one implementation of every repository.  Callers receive it
// fully assembled and never branch on which backend sits behind it.
type Store struct {
	Bookings      BookingStore
	Registrations RegistrationStore
	Events        EventStore
	Presence      PresenceStore
	Users         UserStore
	Tokens        TokenStore
}

// NewSQLStore wires every repository to one database handle.
func NewSQLStore(db *sql.DB, d database.Dialect) *Store {
	return &Store{
		Bookings:      NewBookingRepo(db, d),
		Registrations: NewRegistrationRepo(db),
		Events:        NewEventRepo(db),
		Presence:      NewPresenceRepo(db, d),
		Users:         NewUserRepo(db),
		Tokens:        NewTokenRepo(db),
	}
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
