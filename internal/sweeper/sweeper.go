// Package sweeper periodically removes calendars left without a confirmed owner.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job deletes orphaned calendars and reports how many it removed.
type Job interface {
	SweepOrphans(ctx context.Context) (int, error)
}

// Sweeper runs a Job on a cron schedule.
type Sweeper struct {
	cron    *cron.Cron
	job     Job
	timeout time.Duration
	log     zerolog.Logger
}

// New schedules job. schedule accepts standard five-field cron expressions
// and descriptors such as "@every 1h".
func New(schedule string, job Job, timeout time.Duration, log zerolog.Logger) (*Sweeper, error) {
	s := &Sweeper{
		cron:    cron.New(),
		job:     job,
		timeout: timeout,
		log:     log,
	}
	if _, err := s.cron.AddFunc(schedule, s.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins running the schedule in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
	s.log.Info().Msg("Orphan sweeper started")
}

// Stop halts the schedule and waits for a running sweep, or for ctx.
func (s *Sweeper) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn().Msg("Orphan sweep still running at shutdown")
	}
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	deleted, err := s.job.SweepOrphans(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Orphan sweep failed")
		return
	}
	s.log.Debug().Int("deleted", deleted).Msg("Orphan sweep finished")
}
