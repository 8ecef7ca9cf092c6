package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/bnema/rewards-cli/internal/ports"
)

const (
	EnvRunID       = "RW_RUN_ID"
	EnvWorkerIndex = "RW_WORKER_INDEX"

	defaultStopGrace = 10 * time.Second
)

// Launcher starts workers by re-executing a binary with the worker
// subcommand. A worker's stdout is captured into its WorkerExit; stderr is
// shared with the primary. Cancelling the launch context sends SIGTERM to
// the worker's process group, then SIGKILL after StopGrace.
type Launcher struct {
	Executable string
	Args       []string
	Env        []string
	Stderr     io.Writer
	StopGrace  time.Duration
}

var _ ports.WorkerLauncher = (*Launcher)(nil)

// NewLauncher re-executes the running binary as `<exe> worker [args...]`.
func NewLauncher(args ...string) (*Launcher, error) {
	executable, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}

	return &Launcher{
		Executable: executable,
		Args:       append([]string{"worker"}, args...),
		Stderr:     os.Stderr,
		StopGrace:  defaultStopGrace,
	}, nil
}

func (l *Launcher) Launch(ctx context.Context, spec ports.WorkerSpec) (ports.WorkerHandle, error) {
	if l.Executable == "" {
		return nil, errors.New("worker executable is required")
	}

	var stdin bytes.Buffer
	if err := EncodeMessage(&stdin, spec); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, l.Executable, l.Args...)
	cmd.Env = append(l.environ(),
		EnvRunID+"="+spec.RunID,
		EnvWorkerIndex+"="+strconv.Itoa(spec.Index),
	)
	h := &handle{index: spec.Index, cmd: cmd}
	cmd.Stdin = &stdin
	cmd.Stdout = &h.stdout
	cmd.Stderr = l.Stderr
	configureWorkerProcess(cmd)
	cmd.Cancel = func() error {
		return interruptWorkerProcess(cmd)
	}
	cmd.WaitDelay = l.stopGrace()

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start worker %d: %w", spec.Index, err)
	}

	return h, nil
}

func (l *Launcher) environ() []string {
	base := l.Env
	if base == nil {
		base = os.Environ()
	}

	return append([]string(nil), base...)
}

func (l *Launcher) stopGrace() time.Duration {
	if l.StopGrace > 0 {
		return l.StopGrace
	}
	return defaultStopGrace
}

type handle struct {
	index  int
	cmd    *exec.Cmd
	stdout bytes.Buffer
}

func (h *handle) PID() int {
	return h.cmd.Process.Pid
}

func (h *handle) Wait() ports.WorkerExit {
	exit := ports.WorkerExit{Index: h.index, PID: h.PID()}

	err := h.cmd.Wait()
	exit.Output = h.stdout.Bytes()
	if err == nil {
		return exit
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exit.Code = exitErr.ExitCode()
		if exit.Code == 0 {
			exit.Code = -1
		}
	} else {
		exit.Code = -1
	}
	exit.Err = err

	return exit
}
