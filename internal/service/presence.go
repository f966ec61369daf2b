package service

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/community-hub/internal/logger"
	"github.com/iliyamo/community-hub/internal/metrics"
	"github.com/iliyamo/community-hub/internal/model"
	"github.com/iliyamo/community-hub/internal/repository"
)

const (
	// OnlineWindow is the maximum heartbeat age still counted as online.
	OnlineWindow = 2 * time.Minute
	// HeartbeatInterval is how often an active session refreshes its record.
	HeartbeatInterval = 30 * time.Second

	finalBeatTimeout = 5 * time.Second
)

// IsOnline reports whether a heartbeat at lastActive is inside the online
// window at now.  The boundary is inclusive.
func IsOnline(lastActive, now time.Time) bool {
	if lastActive.IsZero() {
		return false
	}
	return now.UnixMilli()-lastActive.UnixMilli() <= OnlineWindow.Milliseconds()
}

// PresenceSnapshot is the presence list as seen at one instant.
type PresenceSnapshot struct {
	People      []model.Presence `json:"people"`
	OnlineCount int              `json:"onlineCount"`
	At          time.Time        `json:"at"`
}

// Tracker writes heartbeats and derives online state.  Staleness is never
// stored; every read recomputes it.
type Tracker struct {
	store    repository.PresenceStore
	interval time.Duration
	sink     EventSink
	metrics  *metrics.Metrics
	log      logger.Logger
	now      func() time.Time
}

func NewTracker(store repository.PresenceStore, sink EventSink, m *metrics.Metrics, log logger.Logger) *Tracker {
	return &Tracker{
		store:    store,
		interval: HeartbeatInterval,
		sink:     sinkOrNop(sink),
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// Beat records that user is active now.
func (t *Tracker) Beat(ctx context.Context, user model.Principal) error {
	if !user.Authenticated() {
		return ErrUnauthenticated
	}
	p := model.Presence{UserID: user.ID, Name: user.DisplayName(), LastActive: t.now().UTC()}
	if err := t.store.Upsert(ctx, p); err != nil {
		return err
	}
	p.Online = true
	_ = t.sink.Publish(ctx, TopicPresenceBeat, p)
	return nil
}

// Session is a running heartbeat for one user.  It is returned by Start
// and must be released by the same owner.
type Session struct {
	tracker *Tracker
	user    model.Principal
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// Start writes an initial heartbeat and keeps beating every interval until
// the session is released or ctx ends.
func (t *Tracker) Start(ctx context.Context, user model.Principal) (*Session, error) {
	if err := t.Beat(ctx, user); err != nil {
		return nil, err
	}
	sctx, cancel := context.WithCancel(ctx)
	s := &Session{tracker: t, user: user, ctx: sctx, cancel: cancel, done: make(chan struct{})}
	go s.run()
	return s, nil
}

func (s *Session) run() {
	defer close(s.done)
	tick := time.NewTicker(s.tracker.interval)
	defer tick.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-tick.C:
			if err := s.tracker.Beat(s.ctx, s.user); err != nil && s.ctx.Err() == nil && s.tracker.log != nil {
				s.tracker.log.Warnf("presence heartbeat for %s: %v", s.user.ID, err)
			}
		}
	}
}

// Release stops the heartbeat and writes a final best-effort beat, the
// equivalent of a client going hidden.  Safe to call more than once.
func (s *Session) Release() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
		ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), finalBeatTimeout)
		defer cancel()
		if err := s.tracker.Beat(ctx, s.user); err != nil && s.tracker.log != nil {
			s.tracker.log.Debugf("presence final beat for %s: %v", s.user.ID, err)
		}
	})
}

// Snapshot lists every known participant with its online flag derived at
// the current time.
func (t *Tracker) Snapshot(ctx context.Context) (PresenceSnapshot, error) {
	people, err := t.store.List(ctx)
	if err != nil {
		return PresenceSnapshot{}, err
	}
	now := t.now()
	snap := PresenceSnapshot{People: people, At: now.UTC()}
	for i := range snap.People {
		snap.People[i].Online = IsOnline(snap.People[i].LastActive, now)
		if snap.People[i].Online {
			snap.OnlineCount++
		}
	}
	return snap, nil
}

// RefreshGauge recomputes the online-users gauge.
func (t *Tracker) RefreshGauge(ctx context.Context) error {
	snap, err := t.Snapshot(ctx)
	if err != nil {
		return err
	}
	t.metrics.SetOnlineUsers(snap.OnlineCount)
	return nil
}
