package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/community-hub/internal/model"
)

func TestIsOnlineWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		agoMs int64
		want  bool
	}{
		{0, true},
		{119000, true},
		{120000, true},
		{121000, false},
		{179000, false},
	}
	for _, tc := range cases {
		last := now.Add(-time.Duration(tc.agoMs) * time.Millisecond)
		if got := IsOnline(last, now); got != tc.want {
			t.Errorf("IsOnline(now-%dms) = %v, want %v", tc.agoMs, got, tc.want)
		}
	}
	if IsOnline(time.Time{}, now) {
		t.Error("zero lastActive must be offline")
	}
}

func TestSnapshotDerivesOnline(t *testing.T) {
	store := newStore(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	_ = store.Presence.Upsert(ctx, model.Presence{UserID: "a", Name: "A", LastActive: now.Add(-30 * time.Second)})
	_ = store.Presence.Upsert(ctx, model.Presence{UserID: "b", Name: "B", LastActive: now.Add(-5 * time.Minute)})

	tr := NewTracker(store.Presence, nil, nil, nil)
	tr.now = fixedClock(now)
	snap, err := tr.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.OnlineCount != 1 || len(snap.People) != 2 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	for _, p := range snap.People {
		if (p.UserID == "a") != p.Online {
			t.Errorf("%s online=%v", p.UserID, p.Online)
		}
	}
}

// countingStore records upserts for the session tests.
type countingStore struct {
	mu    sync.Mutex
	beats []model.Presence
}

func (s *countingStore) Upsert(_ context.Context, p model.Presence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beats = append(s.beats, p)
	return nil
}

func (s *countingStore) List(context.Context) ([]model.Presence, error) { return nil, nil }

func (s *countingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.beats)
}

func TestSessionHeartbeatAndRelease(t *testing.T) {
	store := &countingStore{}
	tr := NewTracker(store, nil, nil, nil)
	tr.interval = 10 * time.Millisecond

	s, err := tr.Start(context.Background(), ada)
	if err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for store.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if store.count() < 3 {
		t.Fatalf("expected periodic heartbeats, got %d", store.count())
	}
	s.Release()
	after := store.count()
	s.Release()
	time.Sleep(30 * time.Millisecond)
	if store.count() != after {
		t.Errorf("heartbeats continued after release: %d -> %d", after, store.count())
	}
	if store.beats[0].Name != "Ada" {
		t.Errorf("unexpected name %q", store.beats[0].Name)
	}
}

func TestReleaseAfterContextEnd(t *testing.T) {
	store := &countingStore{}
	tr := NewTracker(store, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	s, err := tr.Start(ctx, ada)
	if err != nil {
		t.Fatal(err)
	}
	cancel()
	s.Release()
	// initial beat plus the final one written despite the cancelled context
	if store.count() != 2 {
		t.Errorf("beats = %d, want 2", store.count())
	}
}

func TestStartRequiresUser(t *testing.T) {
	tr := NewTracker(&countingStore{}, nil, nil, nil)
	if _, err := tr.Start(context.Background(), guest); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("got %v", err)
	}
}
