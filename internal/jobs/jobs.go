// Package jobs runs the periodic background work of the server.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/iliyamo/community-hub/internal/logger"
)

// GaugeSchedule is the default refresh schedule of the online-users gauge.
const GaugeSchedule = "@every 30s"

// GaugeRefresher recomputes a metric from current state.
type GaugeRefresher interface {
	RefreshGauge(ctx context.Context) error
}

// Scheduler wraps a cron runner.  Jobs never overlap with themselves.
type Scheduler struct {
	cron *cron.Cron
	log  logger.Logger
}

func NewScheduler(log logger.Logger) *Scheduler {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	return &Scheduler{cron: c, log: log}
}

// AddGaugeRefresh schedules r on schedule, each run bounded by timeout.
func (s *Scheduler) AddGaugeRefresh(schedule, name string, r GaugeRefresher, timeout time.Duration) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := r.RefreshGauge(ctx); err != nil {
			s.log.Warnf("job %s: %v", name, err)
		}
	})
	return err
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop prevents new runs and waits for running jobs up to ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// Len returns the number of scheduled jobs.
func (s *Scheduler) Len() int { return len(s.cron.Entries()) }
