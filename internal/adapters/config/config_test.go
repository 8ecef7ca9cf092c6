package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bnema/rewards-cli/internal/domain"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutConfigFile(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	_, settings, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 1, settings.Clusters)
	assert.Equal(t, domain.DefaultFeatureFlags(), settings.Flags)
	assert.Equal(t, 3, settings.MaxMobileRetries)
	assert.Equal(t, 5*time.Second, settings.MobileRetryBackoff)
	assert.Equal(t, filepath.Join(homeDir, ".rewards", "accounts.toml"), settings.AccountsPath)
	assert.Equal(t, domain.SessionBackendFile, settings.Session.Backend)
	assert.Equal(t, filepath.Join(homeDir, ".rewards", "sessions"), settings.Session.Path)
	assert.Equal(t, "http://127.0.0.1:9515", settings.Browser.BaseURL)
	assert.Equal(t, 2*time.Minute, settings.Browser.Timeout)
	assert.True(t, settings.Browser.Headless)
	assert.Equal(t, domain.LogSettings{Level: "info", Format: "text"}, settings.Log)
}

func TestLoadReadsConfigFileAndEnvironment(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)
	t.Setenv("RW_CLUSTERS", "4")
	t.Setenv("RW_WORKERS_DO_PUNCH_CARDS", "false")

	configPath := filepath.Join(homeDir, ".rewards", "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0o700))
	require.NoError(t, os.WriteFile(configPath, []byte(strings.Join([]string{
		"clusters = 2",
		"run_on_zero_points = true",
		"",
		"[accounts]",
		"path = \"~/bots/accounts.yaml\"",
		"",
		"[search]",
		"retry_mobile_search = true",
		"max_mobile_retries = 1",
		"retry_backoff = \"250ms\"",
		"",
		"[log]",
		"level = \"DEBUG\"",
		"format = \"json\"",
		"",
	}, "\n")), 0o600))

	v, settings, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 4, settings.Clusters)
	assert.True(t, settings.Flags.RunOnZeroPoints)
	assert.True(t, settings.Flags.RetryMobileSearch)
	assert.False(t, settings.Flags.DoPunchCards)
	assert.True(t, settings.Flags.DoDailySet)
	assert.Equal(t, 1, settings.MaxMobileRetries)
	assert.Equal(t, 250*time.Millisecond, settings.MobileRetryBackoff)
	assert.Equal(t, filepath.Join(homeDir, "bots", "accounts.yaml"), settings.AccountsPath)
	assert.Equal(t, settings.AccountsPath, v.GetString("accounts.path"))
	assert.Equal(t, domain.LogSettings{Level: "debug", Format: "json"}, settings.Log)
}

func TestLoadExplicitConfigFileMustExist(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, _, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestSettingsValidation(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   any
		wantErr string
	}{
		{name: "zero clusters", key: "clusters", value: 0, wantErr: "Clusters"},
		{name: "negative retries", key: "search.max_mobile_retries", value: -1, wantErr: "MaxMobileRetries"},
		{name: "unknown backend", key: "session.backend", value: "etcd", wantErr: "Backend"},
		{name: "bad base url", key: "browser.base_url", value: "not a url", wantErr: "BaseURL"},
		{name: "bad log level", key: "log.level", value: "trace", wantErr: "Level"},
		{name: "s3 without bucket", key: "session.backend", value: "s3", wantErr: "s3.bucket is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			setDefaults(v, t.TempDir())
			v.Set(tt.key, tt.value)

			_, err := Settings(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExpandHome(t *testing.T) {
	assert.Equal(t, "/home/u", expandHome("~", "/home/u"))
	assert.Equal(t, "/home/u/a/b", expandHome("~/a/b", "/home/u"))
	assert.Equal(t, "/etc/rw", expandHome("/etc/rw", "/home/u"))
	assert.Equal(t, "~user/x", expandHome("~user/x", "/home/u"))
}
