package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bnema/rewards-cli/internal/domain"
)

var ErrPipelinePanic = errors.New("account pipeline panicked")

type accountPipeline interface {
	RunAccount(ctx context.Context, account domain.Account) (AccountResult, error)
}

// ChunkRunner processes a chunk strictly in order. A failing account is
// logged and recorded, then the next account starts.
type ChunkRunner struct {
	pipeline accountPipeline
	logger   *slog.Logger
}

func NewChunkRunner(pipeline accountPipeline, logger *slog.Logger) *ChunkRunner {
	if logger == nil {
		logger = slog.Default()
	}

	return &ChunkRunner{pipeline: pipeline, logger: logger}
}

func (r *ChunkRunner) WithLogger(logger *slog.Logger) *ChunkRunner {
	clone := *r
	clone.logger = logger
	if withLogger, ok := r.pipeline.(*Pipeline); ok {
		clone.pipeline = withLogger.WithLogger(logger)
	}
	return &clone
}

func (r *ChunkRunner) Run(ctx context.Context, accounts []domain.Account) ChunkReport {
	report := ChunkReport{Results: make([]AccountResult, 0, len(accounts))}

	if len(accounts) == 0 {
		r.logger.Info("No accounts assigned, nothing to do", "scope", scopeWorker, "accounts", 0)
		return report
	}

	for _, account := range accounts {
		if err := ctx.Err(); err != nil {
			report.Results = append(report.Results, AccountResult{
				Email:    account.Email,
				State:    domain.StateFailed,
				FailedIn: domain.StatePending,
				Err:      err,
				Error:    err.Error(),
			})
			continue
		}

		r.logger.Info("Started tasks for account", "scope", scopeWorker, "email", account.Email)
		result := r.runIsolated(ctx, account)
		report.Results = append(report.Results, result)

		if result.State == domain.StateFailed {
			r.logger.Error("Account pipeline failed, moving to next account", "scope", scopeWorker,
				"email", account.Email, "phase", string(result.FailedIn), "error", result.Err)
			continue
		}
		r.logger.Info("Completed tasks for account", "scope", scopeWorker, "email", account.Email, "state", string(result.State))
	}

	r.logger.Info("Completed tasks for ALL accounts", "scope", scopePrimary,
		"completed", report.Completed(), "failed", report.Failed())
	return report
}

func (r *ChunkRunner) runIsolated(ctx context.Context, account domain.Account) (result AccountResult) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err := fmt.Errorf("%w: %v", ErrPipelinePanic, recovered)
			result = AccountResult{
				Email: account.Email,
				State: domain.StateFailed,
				Err:   err,
				Error: err.Error(),
			}
		}
	}()

	result, _ = r.pipeline.RunAccount(ctx, account)
	return result
}
