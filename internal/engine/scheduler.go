package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// MaintenanceConfig sets how often each periodic task runs. Zero intervals
// use the defaults.
type MaintenanceConfig struct {
	SweepInterval   time.Duration
	ReloadInterval  time.Duration
	StatsInterval   time.Duration
	RecoverInterval time.Duration
}

func (c *MaintenanceConfig) applyDefaults() {
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
	if c.ReloadInterval <= 0 {
		c.ReloadInterval = 5 * time.Minute
	}
	if c.StatsInterval <= 0 {
		c.StatsInterval = time.Minute
	}
	if c.RecoverInterval <= 0 {
		c.RecoverInterval = 2 * time.Minute
	}
}

// Scheduler runs the engine's periodic maintenance: the alert expiry sweep,
// schedule reloads, stats gauges and outbox recovery.
type Scheduler struct {
	cron   *cron.Cron
	engine *Engine
	log    *slog.Logger
}

// NewScheduler creates a new Scheduler that runs engine tasks on a schedule.
func NewScheduler(eng *Engine, cfg MaintenanceConfig, log *slog.Logger) (*Scheduler, error) {
	cfg.applyDefaults()
	c := cron.New()

	s := &Scheduler{
		cron:   c,
		engine: eng,
		log:    log,
	}

	tasks := []struct {
		every time.Duration
		fn    func()
	}{
		{cfg.SweepInterval, s.runSweep},
		{cfg.ReloadInterval, s.runReload},
		{cfg.StatsInterval, s.runStats},
		{cfg.RecoverInterval, s.runRecover},
	}
	for _, t := range tasks {
		if _, err := c.AddFunc("@every "+t.every.String(), t.fn); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Start begins running scheduled tasks.
func (s *Scheduler) Start() {
	s.log.Info("maintenance scheduler started")
	s.cron.Start()
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("maintenance scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runSweep() {
	ctx := context.Background()
	n, err := s.engine.SweepExpired(ctx)
	if err != nil {
		s.log.Error("expiry sweep failed", "error", err)
	}
	if n > 0 {
		s.log.Info("expired alerts", "count", n)
	}
}

func (s *Scheduler) runReload() {
	ctx := context.Background()
	if err := s.engine.Reload(ctx); err != nil {
		s.log.Error("schedule reload failed", "error", err)
	}
}

func (s *Scheduler) runStats() {
	ctx := context.Background()
	if err := s.engine.SyncStats(ctx); err != nil {
		s.log.Error("stats sync failed", "error", err)
	}
}

func (s *Scheduler) runRecover() {
	ctx := context.Background()
	if _, err := s.engine.RecoverOutbox(ctx); err != nil {
		s.log.Error("outbox recovery failed", "error", err)
	}
}
