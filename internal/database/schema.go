package database

import (
	"context"
	"database/sql"
	"fmt"
)

// All instants are epoch milliseconds (BIGINT/INTEGER) so that both
// backends compare and order them identically.

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(191) NOT NULL,
		email VARCHAR(191) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(16) NOT NULL,
		created_at_ms BIGINT NOT NULL,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(36) NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at_ms BIGINT NOT NULL,
		revoked_at_ms BIGINT NULL,
		created_at_ms BIGINT NOT NULL,
		UNIQUE KEY uq_refresh_hash (token_hash),
		INDEX idx_refresh_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS events (
		id VARCHAR(36) PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		venue VARCHAR(255) NOT NULL,
		start_ms BIGINT NOT NULL,
		end_ms BIGINT NOT NULL,
		created_by VARCHAR(36) NOT NULL,
		created_at_ms BIGINT NOT NULL,
		INDEX idx_events_start (start_ms)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS event_registrations (
		id VARCHAR(36) PRIMARY KEY,
		event_id VARCHAR(64) NOT NULL,
		event_name VARCHAR(255) NOT NULL,
		user_id VARCHAR(36) NOT NULL,
		user_name VARCHAR(191) NOT NULL,
		created_at_ms BIGINT NOT NULL,
		UNIQUE KEY uq_registration (user_id, event_id),
		INDEX idx_registration_event (event_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id VARCHAR(36) PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		start_ms BIGINT NOT NULL,
		end_ms BIGINT NOT NULL,
		user_id VARCHAR(36) NOT NULL,
		user_name VARCHAR(191) NOT NULL,
		created_at_ms BIGINT NOT NULL,
		INDEX idx_bookings_start (start_ms),
		INDEX idx_bookings_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS presence (
		user_id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(191) NOT NULL,
		last_active_ms BIGINT NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at_ms INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		token_hash TEXT NOT NULL UNIQUE,
		expires_at_ms INTEGER NOT NULL,
		revoked_at_ms INTEGER NULL,
		created_at_ms INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_user ON refresh_tokens (user_id)`,
	`CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		venue TEXT NOT NULL,
		start_ms INTEGER NOT NULL,
		end_ms INTEGER NOT NULL,
		created_by TEXT NOT NULL,
		created_at_ms INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_start ON events (start_ms)`,
	`CREATE TABLE IF NOT EXISTS event_registrations (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		event_name TEXT NOT NULL,
		user_id TEXT NOT NULL,
		user_name TEXT NOT NULL,
		created_at_ms INTEGER NOT NULL,
		UNIQUE (user_id, event_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_registration_event ON event_registrations (event_id)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		start_ms INTEGER NOT NULL,
		end_ms INTEGER NOT NULL,
		user_id TEXT NOT NULL,
		user_name TEXT NOT NULL,
		created_at_ms INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_start ON bookings (start_ms)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings (user_id)`,
	`CREATE TABLE IF NOT EXISTS presence (
		user_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		last_active_ms INTEGER NOT NULL
	)`,
}

// Migrate creates any missing tables and indexes.  It is idempotent.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	stmts := sqliteSchema
	if d == MySQL {
		stmts = mysqlSchema
	}
	for i, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	return nil
}
