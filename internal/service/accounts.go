package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/community-hub/internal/model"
	"github.com/iliyamo/community-hub/internal/repository"
	"github.com/iliyamo/community-hub/internal/utils"
)

const minPasswordLen = 6

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// AccountsConfig carries the token and hashing settings.
type AccountsConfig struct {
	JWTSecret       string
	AccessTTLMin    int
	RefreshTTLDays  int
	BcryptCost      int
	AdminSignupCode string
}

// RegisterInput is the sign-up payload.  Role "admin" is granted only when
// AdminCode matches the configured signup code.
type RegisterInput struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	AdminCode string `json:"admin_code"`
}

// TokenPair is what the client keeps after signing in.
type TokenPair struct {
	User    model.User         `json:"user"`
	Access  utils.AccessToken  `json:"-"`
	Refresh utils.RefreshToken `json:"-"`
}

// Accounts implements sign-up, sign-in, token rotation and profile edits.
type Accounts struct {
	users  repository.UserStore
	tokens repository.TokenStore
	cfg    AccountsConfig
	now    func() time.Time
}

func NewAccounts(users repository.UserStore, tokens repository.TokenStore, cfg AccountsConfig) *Accounts {
	return &Accounts{users: users, tokens: tokens, cfg: cfg, now: time.Now}
}

// Register creates an account and signs it in.  The role is fixed here and
// carried in every token issued for the account.
func (a *Accounts) Register(ctx context.Context, in RegisterInput) (TokenPair, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	switch {
	case name == "":
		return TokenPair{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	case !emailPattern.MatchString(email):
		return TokenPair{}, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	case len(in.Password) < minPasswordLen:
		return TokenPair{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}

	role := model.RoleUser
	if strings.EqualFold(strings.TrimSpace(in.Role), string(model.RoleAdmin)) {
		if a.cfg.AdminSignupCode == "" || in.AdminCode != a.cfg.AdminSignupCode {
			return TokenPair{}, repository.ErrForbidden
		}
		role = model.RoleAdmin
	}

	u := model.User{ID: uuid.NewString(), Name: name, Email: email, Role: role, CreatedAt: a.now().UTC()}
	if err := a.users.Create(ctx, &u, in.Password, a.cfg.BcryptCost); err != nil {
		return TokenPair{}, err
	}
	return a.issue(ctx, u)
}

// Login verifies credentials and issues a new token pair.
func (a *Accounts) Login(ctx context.Context, email, password string) (TokenPair, error) {
	u, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return TokenPair{}, ErrInvalidCredentials
	}
	return a.issue(ctx, u)
}

// Refresh validates raw, revokes it and issues a rotated pair.  Only the
// caller whose revoke takes effect gets a pair; a concurrent refresh with
// the same token fails with ErrInvalidCredentials.
func (a *Accounts) Refresh(ctx context.Context, raw string) (TokenPair, error) {
	hash := utils.HashRefreshRaw(strings.TrimSpace(raw))
	userID, err := a.tokens.ValidateRefresh(ctx, hash)
	if err == nil {
		err = a.tokens.RevokeByHash(ctx, hash)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}
	u, err := a.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}
	return a.issue(ctx, u)
}

// Logout revokes one refresh token.
func (a *Accounts) Logout(ctx context.Context, raw string) error {
	err := a.tokens.RevokeByHash(ctx, utils.HashRefreshRaw(strings.TrimSpace(raw)))
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidCredentials
	}
	return err
}

// LogoutAll revokes every refresh token of user.
func (a *Accounts) LogoutAll(ctx context.Context, user model.Principal) error {
	if !user.Authenticated() {
		return ErrUnauthenticated
	}
	return a.tokens.RevokeAllForUser(ctx, user.ID)
}

// Me returns the stored account of user.
func (a *Accounts) Me(ctx context.Context, user model.Principal) (model.User, error) {
	if !user.Authenticated() {
		return model.User{}, ErrUnauthenticated
	}
	return a.users.GetByID(ctx, user.ID)
}

// UpdateName changes the display name.  The returned access token carries
// the new name; the caller's refresh token stays valid.
func (a *Accounts) UpdateName(ctx context.Context, user model.Principal, name string) (model.User, utils.AccessToken, error) {
	if !user.Authenticated() {
		return model.User{}, utils.AccessToken{}, ErrUnauthenticated
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return model.User{}, utils.AccessToken{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := a.users.UpdateName(ctx, user.ID, name); err != nil {
		return model.User{}, utils.AccessToken{}, err
	}
	u, err := a.users.GetByID(ctx, user.ID)
	if err != nil {
		return model.User{}, utils.AccessToken{}, err
	}
	access, err := utils.NewAccessToken(a.cfg.JWTSecret, u.Principal(), a.cfg.AccessTTLMin)
	if err != nil {
		return model.User{}, utils.AccessToken{}, fmt.Errorf("issue access: %w", err)
	}
	return u, access, nil
}

func (a *Accounts) issue(ctx context.Context, u model.User) (TokenPair, error) {
	access, err := utils.NewAccessToken(a.cfg.JWTSecret, u.Principal(), a.cfg.AccessTTLMin)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access: %w", err)
	}
	refresh, err := utils.NewRefreshToken(a.cfg.RefreshTTLDays)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh: %w", err)
	}
	if err := a.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp.UnixMilli()); err != nil {
		return TokenPair{}, fmt.Errorf("save refresh: %w", err)
	}
	return TokenPair{User: u, Access: access, Refresh: refresh}, nil
}
