package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/community-hub/internal/model"
)

func newRedisPresence(t *testing.T) (*RedisPresenceRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisPresenceRepo(rdb, "hub"), mr
}

func TestRedisPresenceNewestFirst(t *testing.T) {
	repo, mr := newRedisPresence(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	if got, err := repo.List(ctx); err != nil || len(got) != 0 {
		t.Fatalf("empty list: %v, %+v", err, got)
	}
	for _, p := range []model.Presence{
		{UserID: "u1", Name: "Ada", LastActive: base},
		{UserID: "u2", Name: "Bo", LastActive: base.Add(time.Minute)},
	} {
		if err := repo.Upsert(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	got, err := repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].UserID != "u2" || got[0].Name != "Bo" || got[1].Name != "Ada" {
		t.Fatalf("unexpected order %+v", got)
	}
	if !got[1].LastActive.Equal(base) {
		t.Errorf("last active = %v, want %v", got[1].LastActive, base)
	}

	// a later beat moves the member to the front and renames it
	if err := repo.Upsert(ctx, model.Presence{UserID: "u1", Name: "Ada L", LastActive: base.Add(2 * time.Minute)}); err != nil {
		t.Fatal(err)
	}
	got, _ = repo.List(ctx)
	if len(got) != 2 || got[0].UserID != "u1" || got[0].Name != "Ada L" {
		t.Errorf("after second beat %+v", got)
	}
	if !mr.Exists("hub:presence") || !mr.Exists("hub:presence:names") {
		t.Error("expected the sorted set and name hash under the hub prefix")
	}
}

func TestRedisPresenceSurfacesErrors(t *testing.T) {
	repo, mr := newRedisPresence(t)
	mr.Close()
	if err := repo.Upsert(context.Background(), model.Presence{UserID: "u1", LastActive: time.Now()}); err == nil {
		t.Error("expected an error with redis down")
	}
	if _, err := repo.List(context.Background()); err == nil {
		t.Error("expected an error with redis down")
	}
}
