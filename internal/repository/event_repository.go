package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/community-hub/internal/calendar"
	"github.com/iliyamo/community-hub/internal/model"
)

const eventCols = `id, title, description, venue, start_ms, end_ms, created_by, created_at_ms`

// EventRepo provides access to the events table.
type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// Insert stores e.
func (r *EventRepo) Insert(ctx context.Context, e *model.Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (`+eventCols+`) VALUES (?,?,?,?,?,?,?,?)`,
		e.ID, e.Title, e.Description, e.Venue, e.Start.UnixMilli(), e.End.UnixMilli(), e.CreatedBy, e.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetByID returns the event or ErrNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id string) (model.Event, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+eventCols+` FROM events WHERE id = ? LIMIT 1`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrNotFound
	}
	return e, err
}

// ListRange returns events starting in [startMs, endMs) ordered by start.
// A zero bound is open; limit <= 0 means no limit.
func (r *EventRepo) ListRange(ctx context.Context, startMs, endMs int64, limit int) ([]model.Event, error) {
	q := `SELECT ` + eventCols + ` FROM events WHERE start_ms >= ?`
	args := []any{startMs}
	if endMs != 0 {
		q += ` AND start_ms < ?`
		args = append(args, endMs)
	}
	q += ` ORDER BY start_ms`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	out := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns the number of stored events.
func (r *EventRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

func scanEvent(s scanner) (model.Event, error) {
	var (
		e                         model.Event
		startMs, endMs, createdMs int64
	)
	if err := s.Scan(&e.ID, &e.Title, &e.Description, &e.Venue, &startMs, &endMs, &e.CreatedBy, &createdMs); err != nil {
		return model.Event{}, err
	}
	e.Start = calendar.FromMillis(startMs)
	e.End = calendar.FromMillis(endMs)
	e.CreatedAt = calendar.FromMillis(createdMs)
	return e, nil
}
