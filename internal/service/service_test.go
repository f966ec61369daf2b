package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/iliyamo/community-hub/internal/database"
	"github.com/iliyamo/community-hub/internal/model"
	"github.com/iliyamo/community-hub/internal/repository"
)

func newStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "hub.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(context.Background(), db, database.SQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repository.NewSQLStore(db, database.SQLite)
}

var (
	ada = model.Principal{ID: "u-ada", Name: "Ada", Email: "ada@example.com", Role: model.RoleUser}
	bo  = model.Principal{ID: "u-bo", Name: "Bo", Email: "bo@example.com", Role: model.RoleUser}
	// guest is the zero principal
	guest = model.Principal{}
)

func at(hhmm string) string {
	return "2025-03-10T" + hhmm + ":00Z"
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }
