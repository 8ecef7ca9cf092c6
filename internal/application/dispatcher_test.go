package application

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/rewards-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	accounts []domain.Account
	err      error
}

func (s stubResolver) ResolveAccounts(context.Context) ([]domain.Account, error) {
	return s.accounts, s.err
}

func newTestDispatcher(resolver accountResolver, stub *stubPipeline, launcher *fakeLauncher, clusters int) *Dispatcher {
	dispatcher := NewDispatcher(
		resolver,
		NewChunkRunner(stub, discardLogger()),
		NewSupervisor(launcher, discardLogger()),
		clusters,
		discardLogger(),
	)
	dispatcher.newRunID = func() string { return "run-fixed" }
	return dispatcher
}

func TestDispatcherRunsInProcessWithOneCluster(t *testing.T) {
	stub := &stubPipeline{}
	launcher := &fakeLauncher{}
	dispatcher := newTestDispatcher(stubResolver{accounts: accounts("a@example.com", "b@example.com")}, stub, launcher, 1)

	report, err := dispatcher.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "run-fixed", report.RunID)
	assert.Equal(t, DispatchSingle, report.Mode)
	require.NotNil(t, report.Chunk)
	assert.Nil(t, report.Workers)
	assert.Equal(t, 2, report.Chunk.Completed())
	assert.Empty(t, launcher.specs)
}

func TestDispatcherShardsAcrossWorkers(t *testing.T) {
	stub := &stubPipeline{}
	launcher := &fakeLauncher{}
	dispatcher := newTestDispatcher(stubResolver{accounts: accounts("a@example.com", "b@example.com", "c@example.com")}, stub, launcher, 2)

	report, err := dispatcher.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, DispatchCluster, report.Mode)
	require.NotNil(t, report.Workers)
	assert.Equal(t, 2, report.Workers.Workers)
	assert.Empty(t, stub.seen)
	require.Len(t, launcher.specs, 2)
	assert.Equal(t, "run-fixed", launcher.specs[1].RunID)
}

func TestDispatcherSkipsUnresolvedAccounts(t *testing.T) {
	stub := &stubPipeline{}
	dispatcher := newTestDispatcher(stubResolver{
		accounts: accounts("a@example.com"),
		err:      errors.New(`account "b@example.com": load password: not found`),
	}, stub, &fakeLauncher{}, 1)

	report, err := dispatcher.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Accounts)
	assert.Equal(t, []string{"a@example.com"}, stub.seen)
}

func TestDispatcherFailsWithoutAccounts(t *testing.T) {
	t.Run("empty source", func(t *testing.T) {
		dispatcher := newTestDispatcher(stubResolver{}, &stubPipeline{}, &fakeLauncher{}, 1)
		_, err := dispatcher.Run(context.Background())
		require.ErrorIs(t, err, ErrNoAccounts)
	})

	t.Run("source error", func(t *testing.T) {
		listErr := errors.New("read accounts file: permission denied")
		dispatcher := newTestDispatcher(stubResolver{err: listErr}, &stubPipeline{}, &fakeLauncher{}, 1)
		_, err := dispatcher.Run(context.Background())
		require.ErrorIs(t, err, listErr)
	})
}
