package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/community-hub/internal/calendar"
	"github.com/iliyamo/community-hub/internal/database"
	"github.com/iliyamo/community-hub/internal/model"
	"github.com/iliyamo/community-hub/internal/utils"
)

const userCols = `id, name, email, password_hash, role, created_at_ms`

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create hashes password and inserts u.  The email is normalized in place;
// u.ID and u.CreatedAt must already be set.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) error {
	u.Email = normalizeEmail(u.Email)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users ("+userCols+") VALUES (?,?,?,?,?,?)",
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), u.CreatedAt.UnixMilli())
	if err != nil {
		if database.IsDuplicate(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", normalizeEmail(email))
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// UpdateName changes the display name.
func (r *UserRepo) UpdateName(ctx context.Context, id, name string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET name=? WHERE id=?", name, id)
	if err != nil {
		return fmt.Errorf("update user name: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 when the value is unchanged; confirm the row exists.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func scanUser(s scanner) (model.User, error) {
	var (
		u         model.User
		role      string
		createdMs int64
	)
	err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &createdMs)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	u.Role, _ = model.ParseRole(role)
	u.CreatedAt = calendar.FromMillis(createdMs)
	return u, nil
}
