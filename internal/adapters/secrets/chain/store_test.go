package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/rewards-cli/internal/domain"
	portmocks "github.com/bnema/rewards-cli/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const passwordKey = "rewards/john@example.com/password"

func TestStoreGetUsesPrimaryWhenItSucceeds(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, passwordKey).Return("from-pass", nil).Once()

	value, err := store.Get(context.Background(), passwordKey)
	require.NoError(t, err)
	assert.Equal(t, "from-pass", value)
}

func TestStoreGetFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, passwordKey).Return("", errors.New("pass unavailable")).Once()
	fallback.EXPECT().Get(mock.Anything, passwordKey).Return("from-file", nil).Once()

	value, err := store.Get(context.Background(), passwordKey)
	require.NoError(t, err)
	assert.Equal(t, "from-file", value)
}

func TestStoreGetReturnsCombinedErrorWhenBothBackendsFail(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, passwordKey).Return("", errors.New("pass failed")).Once()
	fallback.EXPECT().Get(mock.Anything, passwordKey).Return("", errors.New("file failed")).Once()

	_, err := store.Get(context.Background(), passwordKey)
	require.Error(t, err)
	assert.ErrorContains(t, err, "primary backend")
	assert.ErrorContains(t, err, "fallback backend")
	assert.ErrorContains(t, err, "pass failed")
	assert.ErrorContains(t, err, "file failed")
}

func TestStoreGetReportsNotFoundWhenNeitherBackendHasTheKey(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, passwordKey).Return("", domain.ErrSecretNotFound).Once()
	fallback.EXPECT().Get(mock.Anything, passwordKey).Return("", domain.ErrSecretNotFound).Once()

	_, err := store.Get(context.Background(), passwordKey)
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
	assert.NotContains(t, err.Error(), "primary backend")
}

func TestStoreRoutesSchemedRefs(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)
	store.Route(domain.SecretBackendFile, fallback)

	fallback.EXPECT().Get(mock.Anything, "file://"+passwordKey).Return("from-file", nil).Once()
	fallback.EXPECT().Put(mock.Anything, "file://"+passwordKey, "secret").Return(nil).Once()
	fallback.EXPECT().Delete(mock.Anything, "file://"+passwordKey).Return(nil).Once()

	value, err := store.Get(context.Background(), "file://"+passwordKey)
	require.NoError(t, err)
	assert.Equal(t, "from-file", value)
	require.NoError(t, store.Put(context.Background(), "file://"+passwordKey, "secret"))
	require.NoError(t, store.Delete(context.Background(), "file://"+passwordKey))
}

func TestStorePutFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Put(mock.Anything, passwordKey, "secret").Return(errors.New("pass failed")).Once()
	fallback.EXPECT().Put(mock.Anything, passwordKey, "secret").Return(nil).Once()

	require.NoError(t, store.Put(context.Background(), passwordKey, "secret"))
}

func TestStorePutDoesNotCallFallbackWhenPrimarySucceeds(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Put(mock.Anything, passwordKey, "secret").Return(nil).Once()

	require.NoError(t, store.Put(context.Background(), passwordKey, "secret"))
}

func TestStoreDeleteFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Delete(mock.Anything, passwordKey).Return(errors.New("pass failed")).Once()
	fallback.EXPECT().Delete(mock.Anything, passwordKey).Return(nil).Once()

	require.NoError(t, store.Delete(context.Background(), passwordKey))
}

func TestStoreGetDoesNotFallbackOnCanceledContextError(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, passwordKey).Return("", context.Canceled).Once()

	_, err := store.Get(context.Background(), passwordKey)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewStoreCheckedRejectsNilBackends(t *testing.T) {
	t.Parallel()

	_, err := NewStoreChecked(nil, portmocks.NewMockSecretStore(t))
	require.ErrorIs(t, err, errNilPrimaryStore)

	_, err = NewStoreChecked(portmocks.NewMockSecretStore(t), nil)
	require.ErrorIs(t, err, errNilFallbackStore)
}
