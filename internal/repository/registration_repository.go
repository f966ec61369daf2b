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

const registrationCols = `id, event_id, event_name, user_id, user_name, created_at_ms`

// RegistrationRepo persists rows of event_registrations.  The unique
// (user_id, event_id) constraint backs the one-RSVP-per-event rule.
type RegistrationRepo struct{ db *sql.DB }

func NewRegistrationRepo(db *sql.DB) *RegistrationRepo { return &RegistrationRepo{db: db} }

// Insert stores r, mapping a unique violation to ErrAlreadyRegistered.
func (r *RegistrationRepo) Insert(ctx context.Context, reg *model.Registration) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_registrations (`+registrationCols+`) VALUES (?,?,?,?,?,?)`,
		reg.ID, reg.EventID, reg.EventName, reg.UserID, reg.UserName, reg.CreatedAt.UnixMilli())
	if err != nil {
		if database.IsDuplicate(err) {
			return ErrAlreadyRegistered
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

// FindByUserAndEvent returns the user's registration for the event or
// ErrNotFound.
func (r *RegistrationRepo) FindByUserAndEvent(ctx context.Context, userID, eventID string) (model.Registration, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+registrationCols+` FROM event_registrations WHERE user_id = ? AND event_id = ? LIMIT 1`,
		userID, eventID)
	reg, err := scanRegistration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Registration{}, ErrNotFound
	}
	return reg, err
}

// ListByUser returns the user's registrations, newest first.
func (r *RegistrationRepo) ListByUser(ctx context.Context, userID string) ([]model.Registration, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+registrationCols+` FROM event_registrations WHERE user_id = ? ORDER BY created_at_ms DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()
	out := []model.Registration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

// Delete removes exactly the registration with the given id.
func (r *RegistrationRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM event_registrations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByEvent returns the number of registrations per event id.
func (r *RegistrationRepo) CountByEvent(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT event_id, COUNT(*) FROM event_registrations GROUP BY event_id`)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	defer rows.Close()
	counts := map[string]int{}
	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func scanRegistration(s scanner) (model.Registration, error) {
	var (
		reg       model.Registration
		createdMs int64
	)
	if err := s.Scan(&reg.ID, &reg.EventID, &reg.EventName, &reg.UserID, &reg.UserName, &createdMs); err != nil {
		return model.Registration{}, err
	}
	reg.CreatedAt = calendar.FromMillis(createdMs)
	return reg, nil
}
