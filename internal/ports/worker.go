package ports

import (
	"context"

	"github.com/bnema/rewards-cli/internal/domain"
)

type WorkerSpec struct {
	Index int
	RunID string
	Chunk []domain.Account
}

type WorkerExit struct {
	Index int
	PID   int
	Code  int
	Err   error `json:"-"`

	// Output is whatever the worker wrote to stdout.
	Output []byte `json:"-"`
}

type WorkerHandle interface {
	PID() int
	// Wait blocks until the worker process is gone.
	Wait() WorkerExit
}

type WorkerLauncher interface {
	Launch(ctx context.Context, spec WorkerSpec) (WorkerHandle, error)
}
