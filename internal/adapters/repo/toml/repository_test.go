package toml

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/bnema/rewards-cli/internal/domain"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T, accountsPath string) *Repository {
	t.Helper()

	config := viper.New()
	config.Set("accounts.path", accountsPath)

	repo, err := NewRepository(config)
	require.NoError(t, err)
	return repo
}

func TestRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "accounts.toml"))

	first := domain.Account{
		Email:       "john@example.com",
		PasswordRef: "rewards/john@example.com/password",
		Proxy:       &domain.Proxy{URL: "http://proxy.local", Port: 8080, Username: "u", Password: "p"},
	}
	second := domain.Account{Email: "jane@example.com", Password: "inline-secret"}

	require.NoError(t, repo.Save(context.Background(), first))
	require.NoError(t, repo.Save(context.Background(), second))

	got, err := repo.GetByEmail(context.Background(), "JOHN@example.com")
	require.NoError(t, err)
	assert.Equal(t, first, got)

	accounts, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Account{first, second}, accounts)
}

func TestRepositorySaveReplacesExistingEmail(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "accounts.toml"))

	require.NoError(t, repo.Save(context.Background(), domain.Account{Email: "a@example.com", Password: "one"}))
	require.NoError(t, repo.Save(context.Background(), domain.Account{Email: "b@example.com", Password: "two"}))
	require.NoError(t, repo.Save(context.Background(), domain.Account{Email: "a@example.com", PasswordRef: "ref"}))

	accounts, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, domain.Account{Email: "a@example.com", PasswordRef: "ref"}, accounts[0])
	assert.Equal(t, "b@example.com", accounts[1].Email)
}

func TestRepositoryDelete(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "accounts.toml"))
	require.NoError(t, repo.Save(context.Background(), domain.Account{Email: "a@example.com", Password: "one"}))
	require.NoError(t, repo.Save(context.Background(), domain.Account{Email: "b@example.com", Password: "two"}))

	require.NoError(t, repo.Delete(context.Background(), "a@example.com"))
	require.ErrorIs(t, repo.Delete(context.Background(), "a@example.com"), domain.ErrAccountNotFound)

	accounts, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "b@example.com", accounts[0].Email)
}

func TestRepositoryReadsHandWrittenFile(t *testing.T) {
	t.Parallel()

	accountsPath := filepath.Join(t.TempDir(), "accounts.toml")
	require.NoError(t, os.WriteFile(accountsPath, []byte(strings.Join([]string{
		"[[accounts]]",
		"email = \"first@example.com\"",
		"password = \"pw-1\"",
		"",
		"[[accounts]]",
		"email = \"second@example.com\"",
		"password_ref = \"pass://rewards/second\"",
		"",
		"[accounts.proxy]",
		"url = \"socks5://127.0.0.1\"",
		"port = 1080",
		"",
		"[[accounts]]",
		"email = \"third@example.com\"",
		"password = \"pw-3\"",
		"",
	}, "\n")), 0o600))

	repo := newTestRepository(t, accountsPath)

	accounts, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	assert.Equal(t, []string{"first@example.com", "second@example.com", "third@example.com"},
		[]string{accounts[0].Email, accounts[1].Email, accounts[2].Email})
	assert.Nil(t, accounts[0].Proxy)
	require.NotNil(t, accounts[1].Proxy)
	assert.Equal(t, "socks5://127.0.0.1:1080", accounts[1].Proxy.Address())
}

func TestRepositorySaveCreatesDefaultPathAndEnforcesPermissions(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	repo, err := NewRepository(viper.New())
	require.NoError(t, err)

	err = repo.Save(context.Background(), domain.Account{Email: "john@example.com", Password: "pw"})
	require.NoError(t, err)

	accountsPath := filepath.Join(homeDir, ".rewards", "accounts.toml")
	assert.Equal(t, accountsPath, repo.Path())
	info, err := os.Stat(accountsPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRepositoryMissingFileBehaviors(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "missing", "accounts.toml"))

	accounts, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)

	_, err = repo.GetByEmail(context.Background(), "john@example.com")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestRepositoryListMalformedTOMLReturnsError(t *testing.T) {
	t.Parallel()

	accountsPath := filepath.Join(t.TempDir(), "accounts.toml")
	require.NoError(t, os.WriteFile(accountsPath, []byte("accounts = ["), 0o600))

	repo := newTestRepository(t, accountsPath)

	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "decode accounts file")
}

func TestRepositorySaveCanceledContextReturnsContextError(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "accounts.toml"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Save(ctx, domain.Account{Email: "john@example.com"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRepositoryConcurrentSavesAcrossInstancesPreserveBothAccounts(t *testing.T) {
	t.Parallel()

	accountsPath := filepath.Join(t.TempDir(), "accounts.toml")
	repoA := newTestRepository(t, accountsPath)
	repoB := newTestRepository(t, accountsPath)

	const perRepoWrites = 50
	start := make(chan struct{})
	errCh := make(chan error, perRepoWrites*2)
	var wg sync.WaitGroup
	wg.Add(2)

	save := func(repo *Repository, prefix string) {
		defer wg.Done()
		<-start
		for i := 0; i < perRepoWrites; i++ {
			errCh <- repo.Save(context.Background(), domain.Account{Email: prefix + strconv.Itoa(i) + "@example.com", Password: "pw"})
		}
	}
	go save(repoA, "a-")
	go save(repoB, "b-")

	close(start)
	wg.Wait()
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	accounts, err := repoA.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, accounts, perRepoWrites*2)
}

func TestRepositorySaveSerializedTOMLIncludesVersion(t *testing.T) {
	t.Parallel()

	accountsPath := filepath.Join(t.TempDir(), "accounts.toml")
	repo := newTestRepository(t, accountsPath)

	require.NoError(t, repo.Save(context.Background(), domain.Account{Email: "john@example.com", PasswordRef: "ref"}))

	data, err := os.ReadFile(accountsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")
	assert.Contains(t, string(data), "password_ref")
	assert.NotContains(t, string(data), "proxy")
}

func TestRepositoryFutureSchemaVersionReturnsError(t *testing.T) {
	t.Parallel()

	accountsPath := filepath.Join(t.TempDir(), "accounts.toml")
	require.NoError(t, os.WriteFile(accountsPath, []byte(strings.Join([]string{
		"version = 999",
		"",
		"accounts = []",
		"",
	}, "\n")), 0o600))

	repo := newTestRepository(t, accountsPath)

	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "unsupported accounts schema version")
}
