package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/iliyamo/community-hub/internal/model"
	"github.com/iliyamo/community-hub/internal/repository"
	"github.com/iliyamo/community-hub/internal/utils"
)

func newAccounts(t *testing.T) *Accounts {
	store := newStore(t)
	return NewAccounts(store.Users, store.Tokens, AccountsConfig{
		JWTSecret: "test-secret", AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: 4, AdminSignupCode: "letmein",
	})
}

func TestRegisterValidation(t *testing.T) {
	a := newAccounts(t)
	ctx := context.Background()
	bad := []RegisterInput{
		{Email: "a@x.io", Password: "secret1"},
		{Name: "A", Email: "not-an-email", Password: "secret1"},
		{Name: "A", Email: "a@x.io", Password: "short"},
	}
	for i, in := range bad {
		if _, err := a.Register(ctx, in); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("case %d: got %v", i, err)
		}
	}
}

func TestRolesAreStoredNotInferred(t *testing.T) {
	a := newAccounts(t)
	ctx := context.Background()

	pair, err := a.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@admin.local", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}
	if pair.User.Role != model.RoleUser {
		t.Errorf("role inferred from email: %s", pair.User.Role)
	}
	if _, err := a.Register(ctx, RegisterInput{Name: "Eve", Email: "eve@x.io", Password: "secret1", Role: "admin", AdminCode: "guess"}); !errors.Is(err, repository.ErrForbidden) {
		t.Errorf("wrong admin code: got %v", err)
	}
	admin, err := a.Register(ctx, RegisterInput{Name: "Root", Email: "root@x.io", Password: "secret1", Role: "admin", AdminCode: "letmein"})
	if err != nil {
		t.Fatal(err)
	}
	p, err := utils.ParseAccessToken("test-secret", admin.Access.Token)
	if err != nil || p.Role != model.RoleAdmin || p.Name != "Root" {
		t.Errorf("admin claims: %+v %v", p, err)
	}
}

func TestLoginRefreshLogout(t *testing.T) {
	a := newAccounts(t)
	ctx := context.Background()
	if _, err := a.Register(ctx, RegisterInput{Name: "Ada", Email: "Ada@x.io", Password: "secret1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@x.io", Password: "secret1"}); !errors.Is(err, repository.ErrEmailExists) {
		t.Fatalf("duplicate email: got %v", err)
	}
	if _, err := a.Login(ctx, "ada@x.io", "wrong!!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("bad password: got %v", err)
	}
	if _, err := a.Login(ctx, "nobody@x.io", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: got %v", err)
	}
	pair, err := a.Login(ctx, "ADA@x.io", "secret1")
	if err != nil {
		t.Fatal(err)
	}

	rotated, err := a.Refresh(ctx, pair.Refresh.Raw)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Refresh(ctx, pair.Refresh.Raw); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old refresh token reused: %v", err)
	}
	if err := a.Logout(ctx, rotated.Refresh.Raw); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Refresh(ctx, rotated.Refresh.Raw); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("logged-out token accepted: %v", err)
	}

	u, access, err := a.UpdateName(ctx, rotated.User.Principal(), "Ada L")
	if err != nil {
		t.Fatal(err)
	}
	if u.Name != "Ada L" {
		t.Errorf("name = %q", u.Name)
	}
	if p, _ := utils.ParseAccessToken("test-secret", access.Token); p.Name != "Ada L" {
		t.Errorf("token name = %q", p.Name)
	}
}

// racedTokens lets another refresh revoke the token between validation and
// revocation.
type racedTokens struct {
	repository.TokenStore
}

func (r racedTokens) ValidateRefresh(ctx context.Context, hash string) (string, error) {
	id, err := r.TokenStore.ValidateRefresh(ctx, hash)
	if err == nil {
		_ = r.TokenStore.RevokeByHash(ctx, hash)
	}
	return id, err
}

func TestRefreshRotatesOnce(t *testing.T) {
	store := newStore(t)
	cfg := AccountsConfig{JWTSecret: "test-secret", AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: 4}
	a := NewAccounts(store.Users, store.Tokens, cfg)
	ctx := context.Background()
	pair, err := a.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@x.io", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}

	raced := NewAccounts(store.Users, racedTokens{store.Tokens}, cfg)
	if _, err := raced.Refresh(ctx, pair.Refresh.Raw); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("refresh losing the revoke: got %v, want ErrInvalidCredentials", err)
	}

	pair, err = a.Login(ctx, "ada@x.io", "secret1")
	if err != nil {
		t.Fatal(err)
	}
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := a.Refresh(ctx, pair.Refresh.Raw); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Errorf("%d concurrent refreshes rotated the same token, want 1", wins)
	}
}
