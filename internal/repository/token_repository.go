package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// TokenRepo persists/validates refresh tokens (single 'token_hash' column).
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID, tokenHash string, expMs int64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at_ms, created_at_ms) VALUES (?,?,?,?,?)",
		uuid.NewString(), userID, tokenHash, expMs, nowMs())
	return err
}

// ValidateRefresh returns userID if a non-revoked, non-expired token exists.
// Every other outcome is ErrNotFound.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (string, error) {
	var (
		userID    string
		expiresMs int64
		revokedMs sql.NullInt64
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at_ms, revoked_at_ms FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &expiresMs, &revokedMs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if revokedMs.Valid || nowMs() > expiresMs {
		return "", ErrNotFound
	}
	return userID, nil
}

// RevokeByHash marks a live token as revoked.  The update is conditional,
// so of two concurrent callers only one sees a row change; the other, and
// any caller holding a revoked or expired token, gets ErrNotFound.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	now := nowMs()
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at_ms=? WHERE token_hash=? AND revoked_at_ms IS NULL AND expires_at_ms >= ?",
		now, tokenHash, now)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RevokeAllForUser revokes all user's active tokens.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at_ms=? WHERE user_id=? AND revoked_at_ms IS NULL",
		nowMs(), userID)
	return err
}

func nowMs() int64 { return time.Now().UnixMilli() }
