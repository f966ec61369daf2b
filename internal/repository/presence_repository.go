package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/community-hub/internal/calendar"
	"github.com/iliyamo/community-hub/internal/database"
	"github.com/iliyamo/community-hub/internal/model"
)

// PresenceRepo keeps one heartbeat row per user in the presence table.
type PresenceRepo struct {
	db     *sql.DB
	upsert string
}

func NewPresenceRepo(db *sql.DB, d database.Dialect) *PresenceRepo {
	return &PresenceRepo{
		db:     db,
		upsert: d.Upsert("presence", []string{"user_id", "name", "last_active_ms"}, "user_id", []string{"name", "last_active_ms"}),
	}
}

// Upsert creates or refreshes the user's row.
func (r *PresenceRepo) Upsert(ctx context.Context, p model.Presence) error {
	if _, err := r.db.ExecContext(ctx, r.upsert, p.UserID, p.Name, p.LastActive.UnixMilli()); err != nil {
		return fmt.Errorf("upsert presence: %w", err)
	}
	return nil
}

// List returns every presence row, most recently active first.
func (r *PresenceRepo) List(ctx context.Context) ([]model.Presence, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id, name, last_active_ms FROM presence ORDER BY last_active_ms DESC`)
	if err != nil {
		return nil, fmt.Errorf("list presence: %w", err)
	}
	defer rows.Close()
	out := []model.Presence{}
	for rows.Next() {
		var (
			p  model.Presence
			ms int64
		)
		if err := rows.Scan(&p.UserID, &p.Name, &ms); err != nil {
			return nil, err
		}
		p.LastActive = calendar.FromMillis(ms)
		out = append(out, p)
	}
	return out, rows.Err()
}
