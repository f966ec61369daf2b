package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/community-hub/internal/calendar"
	"github.com/iliyamo/community-hub/internal/database"
	"github.com/iliyamo/community-hub/internal/model"
)

const bookingCols = `id, title, start_ms, end_ms, user_id, user_name, created_at_ms`

// BookingRepo provides data access to the bookings table.  Instants are
// stored as epoch millis; conversion to time.Time happens at scan time.
type BookingRepo struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB, d database.Dialect) *BookingRepo {
	return &BookingRepo{db: db, dialect: d}
}

// Insert stores b as is.  The caller assigns the ID and timestamps.
func (r *BookingRepo) Insert(ctx context.Context, b *model.Booking) error {
	return insertBooking(ctx, r.db, b)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertBooking(ctx context.Context, ex execer, b *model.Booking) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO bookings (`+bookingCols+`) VALUES (?,?,?,?,?,?,?)`,
		b.ID, b.Title, b.Start.UnixMilli(), b.End.UnixMilli(), b.UserID, b.UserName, b.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// CreateIfFree runs the overlap query and the insert inside one
// transaction.  MySQL locks the scanned index range with FOR UPDATE;
// SQLite transactions begin IMMEDIATE and are therefore serialized.  A
// writer that loses a deadlock or lock wait is reported as ErrConflict.
func (r *BookingRepo) CreateIfFree(ctx context.Context, b *model.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		if database.IsWriteConflict(err) {
			return ErrConflict
		}
		return fmt.Errorf("begin booking tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE start_ms < ? AND end_ms > ?`+r.dialect.LockSuffix(),
		b.End.UnixMilli(), b.Start.UnixMilli())
	if err != nil {
		return r.txErr("query overlaps", err)
	}
	existing, err := scanBookings(rows)
	if err != nil {
		return r.txErr("scan overlaps", err)
	}
	want := calendar.Interval{Start: b.Start.UnixMilli(), End: b.End.UnixMilli()}
	for _, e := range existing {
		if want.Overlaps(calendar.Interval{Start: e.Start.UnixMilli(), End: e.End.UnixMilli()}) {
			return ErrConflict
		}
	}
	if err := insertBooking(ctx, tx, b); err != nil {
		return r.txErr("insert", err)
	}
	if err := tx.Commit(); err != nil {
		return r.txErr("commit", err)
	}
	committed = true
	return nil
}

func (r *BookingRepo) txErr(step string, err error) error {
	if database.IsWriteConflict(err) {
		return ErrConflict
	}
	return fmt.Errorf("booking tx %s: %w", step, err)
}

// GetByID returns the booking with the given id or ErrNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (model.Booking, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookingCols+` FROM bookings WHERE id = ? LIMIT 1`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrNotFound
	}
	return b, err
}

// Overlapping returns bookings that intersect [startMs, endMs): an existing
// booking overlaps when it starts before the proposed end and ends after
// the proposed start.
func (r *BookingRepo) Overlapping(ctx context.Context, startMs, endMs int64) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE start_ms < ? AND end_ms > ? ORDER BY start_ms`,
		endMs, startMs)
	if err != nil {
		return nil, fmt.Errorf("query overlapping bookings: %w", err)
	}
	return scanBookings(rows)
}

// List returns bookings ordered by start, filtered per f.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter) ([]model.Booking, error) {
	q := `SELECT ` + bookingCols + ` FROM bookings WHERE 1=1`
	var args []any
	if f.StartMs != 0 {
		q += ` AND start_ms >= ?`
		args = append(args, f.StartMs)
	}
	if f.EndMs != 0 {
		q += ` AND start_ms < ?`
		args = append(args, f.EndMs)
	}
	if f.UserID != "" {
		q += ` AND user_id = ?`
		args = append(args, f.UserID)
	}
	q += ` ORDER BY start_ms`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return scanBookings(rows)
}

// DeleteOwned removes the booking only when it belongs to userID.  It
// returns ErrNotFound when no such row exists; callers check ownership
// first to tell "missing" apart from "not yours".
func (r *BookingRepo) DeleteOwned(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanBooking(s scanner) (model.Booking, error) {
	var (
		b                         model.Booking
		startMs, endMs, createdMs int64
	)
	if err := s.Scan(&b.ID, &b.Title, &startMs, &endMs, &b.UserID, &b.UserName, &createdMs); err != nil {
		return model.Booking{}, err
	}
	b.Start = calendar.FromMillis(startMs)
	b.End = calendar.FromMillis(endMs)
	b.CreatedAt = calendar.FromMillis(createdMs)
	return b, nil
}

func scanBookings(rows *sql.Rows) ([]model.Booking, error) {
	defer rows.Close()
	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
