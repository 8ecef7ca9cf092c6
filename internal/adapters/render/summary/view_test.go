package summary

import (
	"errors"
	"testing"
	"time"

	"github.com/bnema/rewards-cli/internal/application"
	"github.com/bnema/rewards-cli/internal/domain"
	"github.com/bnema/rewards-cli/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSingleModeResults(t *testing.T) {
	started := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	output, err := Render(FromChunk("run-1", application.ChunkReport{
		Results: []application.AccountResult{
			{
				Email:           "jane@example.com",
				State:           domain.StateDone,
				DesktopEarnable: 60,
				MobileEarnable:  25,
				Budget:          35,
				MobileAttempts:  2,
				StartedAt:       started,
				FinishedAt:      started.Add(90 * time.Second),
				ActivityFailures: []application.ActivityFailure{
					{Kind: domain.ActivityPunchCards, Mode: domain.DeviceDesktop, Error: "card expired"},
				},
			},
			{
				Email:           "john@example.com",
				State:           domain.StateEarlyStop,
				DesktopEarnable: 0,
			},
		},
	}), RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "Rewards run run-1")
	assert.Contains(t, output, "accounts: 2")
	assert.Contains(t, output, "2 completed")
	assert.Contains(t, output, "Account: jane@example.com")
	assert.Contains(t, output, "done")
	assert.Contains(t, output, "desktop earnable: 60 pts")
	assert.Contains(t, output, "mobile earnable: 25 pts")
	assert.Contains(t, output, "budget: 35 pts")
	assert.Contains(t, output, "mobile search attempts: 2")
	assert.Contains(t, output, "took 1m30s")
	assert.Contains(t, output, "! desktop punch_cards: card expired")
	assert.Contains(t, output, "nothing to earn")
}

func TestRenderFailedAccountShowsPhaseAndError(t *testing.T) {
	output, err := Render(FromChunk("run-1", application.ChunkReport{
		WorkerIndex: 3,
		Results: []application.AccountResult{
			{
				Email:    "jane@example.com",
				State:    domain.StateFailed,
				FailedIn: domain.StateMobileRetry,
				Err:      errors.New("boom"),
				Error:    "mobile phase: boom",
			},
		},
	}), RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "(worker 3)")
	assert.Contains(t, output, "Account: j***@example.com")
	assert.NotContains(t, output, "jane@example.com")
	assert.Contains(t, output, "failed in mobile retry")
	assert.Contains(t, output, "error: mobile phase: boom")
	assert.Contains(t, output, "0 completed")
}

func TestRenderEmptyChunk(t *testing.T) {
	output, err := Render(FromChunk("run-1", application.ChunkReport{}), RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "accounts: 0")
	assert.Contains(t, output, "No accounts were processed.")
}

func TestRenderClusterDispatch(t *testing.T) {
	output, err := Render(FromDispatch(application.DispatchReport{
		RunID:    "run-9",
		Mode:     application.DispatchCluster,
		Accounts: 5,
		Workers: &application.SupervisorReport{
			Workers: 2,
			Exits: []ports.WorkerExit{
				{Index: 1, PID: 4242, Code: 0},
				{Index: 0, PID: 4241, Code: 2},
			},
		},
	}), RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "Rewards run run-9 (cluster)")
	assert.Contains(t, output, "workers: 2")
	assert.Contains(t, output, "1 failed")
	assert.Contains(t, output, "worker 1 (pid 4242): exit 0")
	assert.Contains(t, output, "worker 0 (pid 4241): exit 2")
}

func TestRenderClusterDispatchIncludesWorkerResults(t *testing.T) {
	output, err := Render(FromDispatch(application.DispatchReport{
		RunID: "run-9",
		Mode:  application.DispatchCluster,
		Workers: &application.SupervisorReport{
			Workers: 2,
			Exits:   []ports.WorkerExit{{Index: 0, PID: 11}, {Index: 1, PID: 12}},
			Chunks: []application.ChunkReport{
				{WorkerIndex: 0, Results: []application.AccountResult{{Email: "a@example.com", State: domain.StateDone}}},
				{WorkerIndex: 1, Results: []application.AccountResult{{Email: "b@example.com", State: domain.StateFailed, Error: "login refused"}}},
			},
		},
	}), RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "workers: 2")
	assert.Contains(t, output, "Account: a@example.com")
	assert.Contains(t, output, "Account: b@example.com")
	assert.Contains(t, output, "error: login refused")
}

func TestFromDispatchSingleMode(t *testing.T) {
	t.Parallel()

	chunk := application.ChunkReport{Results: []application.AccountResult{{Email: "a@example.com", State: domain.StateDone}}}
	run := FromDispatch(application.DispatchReport{RunID: "run-2", Mode: application.DispatchSingle, Chunk: &chunk})

	assert.Equal(t, "run-2", run.RunID)
	assert.Equal(t, application.DispatchSingle, run.Mode)
	assert.Len(t, run.Results, 1)
	assert.Zero(t, run.Workers)
}

func TestRenderProgressBarBounds(t *testing.T) {
	t.Parallel()

	s := newStyles()
	assert.Empty(t, renderProgressBar(1, 2, 0, s))
	assert.Contains(t, renderProgressBar(0, 0, 4, s), "----")
	assert.Contains(t, renderProgressBar(5, 2, 4, s), "====")
	assert.Contains(t, renderProgressBar(1, 2, 4, s), "==")
}
