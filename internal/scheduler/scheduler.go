package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lorrc/sla-sentinel/internal/core/ports"
)

// Scheduler runs the periodic risk sweep and the retention purge.
// Between events, active tickets drift toward breach silently; the sweep
// re-evaluates them on a schedule so risk state never goes stale.
type Scheduler struct {
	cron       *cron.Cron
	evaluation ports.EvaluationService
	retention  ports.RetentionService
	logger     *slog.Logger
}

// Config holds the cron expressions for the background jobs.
// Standard 5-field cron syntax plus the @every shorthand.
type Config struct {
	SweepSchedule     string
	RetentionSchedule string
}

// New creates the scheduler with both jobs registered.
func New(cfg Config, evaluation ports.EvaluationService, retention ports.RetentionService, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:       cron.New(),
		evaluation: evaluation,
		retention:  retention,
		logger:     logger.With("component", "scheduler"),
	}

	if _, err := s.cron.AddFunc(cfg.SweepSchedule, s.runSweep); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", cfg.SweepSchedule, err)
	}

	if _, err := s.cron.AddFunc(cfg.RetentionSchedule, s.runRetention); err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", cfg.RetentionSchedule, err)
	}

	return s, nil
}

// Start begins running the scheduled jobs in their own goroutines.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	if err := s.evaluation.Sweep(ctx); err != nil {
		s.logger.Error("risk sweep failed", "error", err)
		return
	}
	s.logger.Info("risk sweep complete", "duration_ms", time.Since(start).Milliseconds())
}

func (s *Scheduler) runRetention() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := s.retention.Purge(ctx); err != nil {
		s.logger.Error("retention purge failed", "error", err)
	}
}
