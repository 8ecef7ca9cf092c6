package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bnema/rewards-cli/internal/domain"
	"github.com/google/uuid"
)

var ErrNoAccounts = errors.New("no runnable accounts")

type DispatchMode string

const (
	DispatchSingle  DispatchMode = "single"
	DispatchCluster DispatchMode = "cluster"
)

type accountResolver interface {
	ResolveAccounts(ctx context.Context) ([]domain.Account, error)
}

type DispatchReport struct {
	RunID    string
	Mode     DispatchMode
	Accounts int
	// Chunk is set in single mode, Workers in cluster mode.
	Chunk   *ChunkReport
	Workers *SupervisorReport
}

type Dispatcher struct {
	accounts   accountResolver
	runner     *ChunkRunner
	supervisor *Supervisor
	clusters   int
	newRunID   func() string
	logger     *slog.Logger
}

func NewDispatcher(accounts accountResolver, runner *ChunkRunner, supervisor *Supervisor, clusters int, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		accounts:   accounts,
		runner:     runner,
		supervisor: supervisor,
		clusters:   clusters,
		newRunID:   uuid.NewString,
		logger:     logger,
	}
}

func (d *Dispatcher) Run(ctx context.Context) (DispatchReport, error) {
	runID := d.newRunID()
	logger := d.logger.With("run_id", runID)
	report := DispatchReport{RunID: runID}

	accounts, err := d.accounts.ResolveAccounts(ctx)
	if err != nil {
		if len(accounts) == 0 {
			return report, fmt.Errorf("resolve accounts: %w", err)
		}
		logger.Warn("Some accounts were skipped", "scope", scopeMain, "error", err)
	}
	if len(accounts) == 0 {
		return report, ErrNoAccounts
	}
	report.Accounts = len(accounts)

	if d.clusters <= 1 {
		report.Mode = DispatchSingle
		logger.Info("Running in single process mode", "scope", scopeMain, "accounts", len(accounts))
		chunk := d.runner.WithLogger(logger).Run(ctx, accounts)
		report.Chunk = &chunk
		return report, nil
	}

	report.Mode = DispatchCluster
	workers := d.supervisor.WithLogger(logger).Run(ctx, runID, accounts, d.clusters)
	report.Workers = &workers
	return report, nil
}
