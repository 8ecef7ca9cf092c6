package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler repeats a job on a cron expression. A tick that fires while the
// previous run is still going is skipped.
type Scheduler struct {
	spec   string
	job    func(ctx context.Context) error
	logger *slog.Logger
}

func NewScheduler(spec string, job func(ctx context.Context) error, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{spec: spec, job: job, logger: logger}
}

// Run executes the job once right away, then on every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	logger := cronLogger{logger: s.logger}
	job := cron.NewChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)).Then(cron.FuncJob(func() {
		if err := s.job(ctx); err != nil {
			s.logger.Error("Scheduled run failed", "scope", scopeMain, "error", err)
		}
	}))

	c := cron.New(cron.WithLogger(logger))
	if _, err := c.AddJob(s.spec, job); err != nil {
		return fmt.Errorf("parse schedule %q: %w", s.spec, err)
	}

	c.Start()
	s.logger.Info("Scheduler started", "scope", scopeMain, "schedule", s.spec)
	job.Run()

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("Scheduler stopped", "scope", scopeMain)
	return nil
}

type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, append([]any{"scope", "CRON"}, keysAndValues...)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]any{"scope", "CRON", "error", err}, keysAndValues...)...)
}
