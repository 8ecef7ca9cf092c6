package application

import (
	"context"
	"log/slog"
	"sort"

	"github.com/bnema/rewards-cli/internal/domain"
	"github.com/bnema/rewards-cli/internal/ports"
	"golang.org/x/sync/errgroup"
)

// LiveWorkers counts worker processes that have not reported their exit.
// Only the supervisor loop touches it.
type LiveWorkers struct {
	count int
}

func (l *LiveWorkers) Exited() int {
	if l.count > 0 {
		l.count--
	}
	return l.count
}

func (l LiveWorkers) Remaining() int {
	return l.count
}

type SupervisorReport struct {
	Workers int
	Exits   []ports.WorkerExit
	// Chunks holds the reports workers wrote back, ordered by worker index.
	Chunks []ChunkReport
}

// Results flattens the account results of every reporting worker.
func (r SupervisorReport) Results() []AccountResult {
	var results []AccountResult
	for _, chunk := range r.Chunks {
		results = append(results, chunk.Results...)
	}
	return results
}

func (r SupervisorReport) Failed() int {
	failed := 0
	for _, exit := range r.Exits {
		if exit.Code != 0 {
			failed++
		}
	}

	return failed
}

// Supervisor is the primary side of cluster mode: it shards accounts,
// launches one worker per chunk and waits for every exit.
type Supervisor struct {
	launcher ports.WorkerLauncher
	logger   *slog.Logger
}

func NewSupervisor(launcher ports.WorkerLauncher, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Supervisor{launcher: launcher, logger: logger}
}

func (s *Supervisor) WithLogger(logger *slog.Logger) *Supervisor {
	clone := *s
	clone.logger = logger
	return &clone
}

func (s *Supervisor) Run(ctx context.Context, runID string, accounts []domain.Account, workers int) SupervisorReport {
	chunks := domain.ChunkAccounts(accounts, workers)
	s.logger.Info("Primary process started", "scope", scopePrimary, "workers", len(chunks), "accounts", len(accounts))

	exits := make(chan ports.WorkerExit, len(chunks))
	var group errgroup.Group

	for index, chunk := range chunks {
		handle, err := s.launcher.Launch(ctx, ports.WorkerSpec{Index: index, RunID: runID, Chunk: chunk})
		if err != nil {
			s.logger.Error("Could not spawn worker", "scope", scopeWorker, "worker", index, "error", err)
			exits <- ports.WorkerExit{Index: index, Code: -1, Err: err}
			continue
		}

		s.logger.Info("Worker spawned", "scope", scopeWorker, "worker", index, "pid", handle.PID(), "accounts", len(chunk))
		group.Go(func() error {
			exits <- handle.Wait()
			return nil
		})
	}

	live := LiveWorkers{count: len(chunks)}
	report := SupervisorReport{Workers: len(chunks), Exits: make([]ports.WorkerExit, 0, len(chunks))}
	for live.Remaining() > 0 {
		exit := <-exits
		remaining := live.Exited()
		report.Exits = append(report.Exits, exit)

		attrs := []any{"scope", scopeWorker, "worker", exit.Index, "pid", exit.PID, "code", exit.Code, "active_workers", remaining}
		if exit.Err != nil {
			attrs = append(attrs, "error", exit.Err)
		}
		s.logger.Warn("Worker destroyed", attrs...)

		if chunk, ok := s.chunkReport(exit); ok {
			report.Chunks = append(report.Chunks, chunk)
		}
	}
	sort.Slice(report.Chunks, func(i, j int) bool {
		return report.Chunks[i].WorkerIndex < report.Chunks[j].WorkerIndex
	})

	_ = group.Wait()
	s.logger.Warn("All workers destroyed, exiting main process", "scope", scopeWorker, "failed_workers", report.Failed())
	return report
}

func (s *Supervisor) chunkReport(exit ports.WorkerExit) (ChunkReport, bool) {
	if len(exit.Output) == 0 {
		return ChunkReport{}, false
	}

	chunk, err := DecodeChunkReport(exit.Output)
	if err != nil {
		s.logger.Warn("Worker report unreadable", "scope", scopeWorker, "worker", exit.Index, "error", err)
		return ChunkReport{}, false
	}
	chunk.WorkerIndex = exit.Index
	return chunk, true
}
