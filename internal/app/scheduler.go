/**
 * @description
 * Cron scheduler setup for the recurring payment sweep. The Scheduler owns
 * the timer lifecycle so the process can start and stop it explicitly, and
 * tests can drive sweeps directly without waiting on wall-clock ticks.
 */
package app

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
	"github.com/solpay/recurring-service/internal/config"
)

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron    *cron.Cron
	sweeper *Sweeper
	logger  *slog.Logger
	config  config.Config
}

// NewScheduler creates a new scheduler instance. The job chain recovers from
// panics and skips a tick that fires while the previous sweep is still
// running, so overlapping sweeps cannot race within one process.
func NewScheduler(sweeper *Sweeper, logger *slog.Logger, cfg config.Config) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger),
		cron.SkipIfStillRunning(cronLogger),
	))

	return &Scheduler{
		cron:    c,
		sweeper: sweeper,
		logger:  logger,
		config:  cfg,
	}
}

// Start registers the sweep and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.config.SweepSchedule, s.sweeper.RunSweep); err != nil {
		s.logger.Error("failed to schedule payment sweep", "error", err)
	} else {
		s.logger.Info("scheduled payment sweep", "schedule", s.config.SweepSchedule)
	}

	s.cron.Start()
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
