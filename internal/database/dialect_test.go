package database

import (
	"errors"
	"testing"
)

func TestUpsertRendering(t *testing.T) {
	cols := []string{"user_id", "name", "last_active_ms"}
	upd := []string{"name", "last_active_ms"}

	got := MySQL.Upsert("presence", cols, "user_id", upd)
	want := "INSERT INTO presence (user_id,name,last_active_ms) VALUES (?,?,?) ON DUPLICATE KEY UPDATE name=VALUES(name),last_active_ms=VALUES(last_active_ms)"
	if got != want {
		t.Errorf("mysql upsert:\n got %s\nwant %s", got, want)
	}

	got = SQLite.Upsert("presence", cols, "user_id", upd)
	want = "INSERT INTO presence (user_id,name,last_active_ms) VALUES (?,?,?) ON CONFLICT(user_id) DO UPDATE SET name=excluded.name,last_active_ms=excluded.last_active_ms"
	if got != want {
		t.Errorf("sqlite upsert:\n got %s\nwant %s", got, want)
	}
}

func TestErrorClassification(t *testing.T) {
	if !IsDuplicate(errors.New("Error 1062 (23000): Duplicate entry")) {
		t.Error("mysql duplicate not detected")
	}
	if !IsDuplicate(errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)")) {
		t.Error("sqlite duplicate not detected")
	}
	if IsDuplicate(nil) || IsDuplicate(errors.New("boom")) {
		t.Error("false positive duplicate")
	}
	if !IsWriteConflict(errors.New("Error 1213 (40001): Deadlock found")) {
		t.Error("deadlock not detected")
	}
	if !IsWriteConflict(errors.New("database is locked (5) (SQLITE_BUSY)")) {
		t.Error("sqlite busy not detected")
	}
	if MySQL.LockSuffix() != " FOR UPDATE" || SQLite.LockSuffix() != "" {
		t.Error("unexpected lock suffix")
	}
}
