// Package scheduler drives the ticker's periodic jobs with robfig/cron.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Jobs is the subset of the ticker usecase the scheduler drives.
type Jobs interface {
	Tick(ctx context.Context)
	DailyRollover(ctx context.Context) bool
	HourlyNewsCheck(ctx context.Context) bool
}

// Config sets the job periods.
type Config struct {
	TickInterval      time.Duration
	NewsCheckInterval time.Duration
}

// Scheduler manages the price tick and the clock check (rollover + hourly news).
type Scheduler struct {
	cron   *cron.Cron
	jobs   Jobs
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Scheduler. Jobs receive a context that is cancelled by Stop.
func New(ctx context.Context, jobs Jobs, cfg Config) *Scheduler {
	logger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn))
	jobCtx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		// A job still running when its next slot fires is skipped rather than queued.
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		jobs:   jobs,
		cfg:    cfg,
		ctx:    jobCtx,
		cancel: cancel,
	}
}

// RegisterAll registers the tick and clock-check jobs.
func (s *Scheduler) RegisterAll() error {
	if _, err := s.cron.AddFunc(every(s.cfg.TickInterval), s.tick); err != nil {
		return fmt.Errorf("register tick job: %w", err)
	}
	if _, err := s.cron.AddFunc(every(s.cfg.NewsCheckInterval), s.clockCheck); err != nil {
		return fmt.Errorf("register news check job: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started", "tick_interval", s.cfg.TickInterval, "news_check_interval", s.cfg.NewsCheckInterval)
}

// Stop cancels in-flight jobs and waits up to timeout for them to return.
func (s *Scheduler) Stop(timeout time.Duration) {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		slog.Info("scheduler stopped")
	case <-time.After(timeout):
		slog.Warn("scheduler stop timed out, jobs still running", "timeout", timeout)
	}
}

// RunNewsCheckNow runs the clock check immediately (startup).
func (s *Scheduler) RunNewsCheckNow() {
	s.clockCheck()
}

func (s *Scheduler) tick() {
	s.jobs.Tick(s.ctx)
}

func (s *Scheduler) clockCheck() {
	s.jobs.DailyRollover(s.ctx)
	s.jobs.HourlyNewsCheck(s.ctx)
}

func every(d time.Duration) string {
	return "@every " + d.String()
}
