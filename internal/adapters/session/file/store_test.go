package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/bnema/rewards-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLoadMissingReturnsNotFound(t *testing.T) {
	t.Parallel()

	_, err := NewStore(t.TempDir()).Load(context.Background(), "john@example.com", domain.DeviceDesktop)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStoreSaveLoadKeepsModesApart(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewStore(root)
	desktop := domain.SessionState{Cookies: json.RawMessage(`[{"name":"d"}]`), UserAgent: "desktop-ua"}
	mobile := domain.SessionState{Cookies: json.RawMessage(`[{"name":"m"}]`), UserAgent: "mobile-ua"}

	require.NoError(t, store.Save(context.Background(), "John@example.com", domain.DeviceDesktop, desktop))
	require.NoError(t, store.Save(context.Background(), "john@example.com", domain.DeviceMobile, mobile))

	got, err := store.Load(context.Background(), "john@example.com", domain.DeviceDesktop)
	require.NoError(t, err)
	assert.Equal(t, desktop, got)

	got, err = store.Load(context.Background(), "john@example.com", domain.DeviceMobile)
	require.NoError(t, err)
	assert.Equal(t, mobile, got)

	info, err := os.Stat(filepath.Join(root, "john@example.com", "mobile.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(stateFileMode), info.Mode().Perm())
}

func TestStoreSaveOverwrites(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	require.NoError(t, store.Save(context.Background(), "john@example.com", domain.DeviceDesktop, domain.SessionState{UserAgent: "old"}))
	require.NoError(t, store.Save(context.Background(), "john@example.com", domain.DeviceDesktop, domain.SessionState{UserAgent: "new"}))

	got, err := store.Load(context.Background(), "john@example.com", domain.DeviceDesktop)
	require.NoError(t, err)
	assert.Equal(t, "new", got.UserAgent)
}

func TestStoreLoadCorruptFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "john@example.com"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(root, "john@example.com", "desktop.json"), []byte("{"), 0o600))

	_, err := NewStore(root).Load(context.Background(), "john@example.com", domain.DeviceDesktop)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStoreRejectsTraversal(t *testing.T) {
	t.Parallel()

	err := NewStore(t.TempDir()).Save(context.Background(), "../../etc", domain.DeviceDesktop, domain.SessionState{})
	require.Error(t, err)
}
