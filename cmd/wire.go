package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/rewards-cli/internal/adapters/browser/remote"
	"github.com/bnema/rewards-cli/internal/adapters/config"
	"github.com/bnema/rewards-cli/internal/adapters/process"
	"github.com/bnema/rewards-cli/internal/adapters/render/summary"
	tomlrepo "github.com/bnema/rewards-cli/internal/adapters/repo/toml"
	yamlrepo "github.com/bnema/rewards-cli/internal/adapters/repo/yaml"
	chainstore "github.com/bnema/rewards-cli/internal/adapters/secrets/chain"
	filesession "github.com/bnema/rewards-cli/internal/adapters/session/file"
	redissession "github.com/bnema/rewards-cli/internal/adapters/session/redis"
	s3session "github.com/bnema/rewards-cli/internal/adapters/session/s3"
	"github.com/bnema/rewards-cli/internal/application"
	"github.com/bnema/rewards-cli/internal/domain"
	"github.com/bnema/rewards-cli/internal/ports"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app is wired on first use so the persistent --config flag is parsed
// before anything reads configuration.
type app struct {
	configFile string
	loaded     bool

	settings      domain.Settings
	logger        *slog.Logger
	accounts      *application.AccountService
	runner        *application.ChunkRunner
	launcher      ports.WorkerLauncher
	renderSummary func(summary.Run, summary.RenderOptions) (string, error)
	closers       []func() error
}

func (a *app) load(cmd *cobra.Command) error {
	if a.loaded {
		return nil
	}

	if err := a.wire(cmd.Context(), cmd.ErrOrStderr()); err != nil {
		_ = a.close()
		return err
	}
	a.loaded = true
	return nil
}

func (a *app) wire(ctx context.Context, logOutput io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	v, settings, err := config.Load(a.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.settings = settings
	a.logger = newLogger(settings.Log, logOutput)

	repo, err := newAccountRepository(v, settings.AccountsPath)
	if err != nil {
		return fmt.Errorf("wire account repository: %w", err)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}

	secretStore, err := chainstore.NewPassFirstWithFileFallback(filepath.Join(homeDir, ".rewards", "secrets"))
	if err != nil {
		return fmt.Errorf("wire secret store chain: %w", err)
	}

	sessions, err := a.newSessionStore(ctx, settings.Session)
	if err != nil {
		return fmt.Errorf("wire session store: %w", err)
	}

	browser := remote.NewClient(settings.Browser)
	pipeline := application.NewPipeline(
		browser,
		sessions,
		browser,
		application.PipelineConfigFromSettings(settings),
		ports.SystemClock{},
		a.logger,
	)

	args, err := workerArgs(a.configFile)
	if err != nil {
		return fmt.Errorf("wire worker launcher: %w", err)
	}
	launcher, err := process.NewLauncher(args...)
	if err != nil {
		return fmt.Errorf("wire worker launcher: %w", err)
	}

	a.accounts = application.NewAccountService(repo, secretStore)
	a.runner = application.NewChunkRunner(pipeline, a.logger)
	a.launcher = launcher
	a.renderSummary = summary.Render
	return nil
}

// workerArgs forwards the primary's --config so workers load the same file.
func workerArgs(configFile string) ([]string, error) {
	if configFile == "" {
		return nil, nil
	}

	abs, err := filepath.Abs(configFile)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	return []string{"--config", abs}, nil
}

func (a *app) dispatcher(clusters int) *application.Dispatcher {
	supervisor := application.NewSupervisor(a.launcher, a.logger)
	return application.NewDispatcher(a.accounts, a.runner, supervisor, clusters, a.logger)
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	a.loaded = false

	return errors.Join(errs...)
}

// newAccountRepository picks the accounts source by file extension: .yaml
// and .yml files are read-only, anything else is the managed TOML file.
func newAccountRepository(v *viper.Viper, accountsPath string) (ports.AccountRepository, error) {
	switch strings.ToLower(filepath.Ext(accountsPath)) {
	case ".yaml", ".yml":
		return yamlrepo.NewRepository(accountsPath), nil
	default:
		return tomlrepo.NewRepository(v)
	}
}

func (a *app) newSessionStore(ctx context.Context, settings domain.SessionSettings) (ports.SessionStore, error) {
	switch settings.Backend {
	case domain.SessionBackendRedis:
		store := redissession.NewStore(settings.Redis, settings.TTL)
		a.closers = append(a.closers, store.Close)
		return store, nil
	case domain.SessionBackendS3:
		return s3session.NewStore(ctx, settings.S3)
	case domain.SessionBackendFile, "":
		return filesession.NewStore(settings.Path), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", settings.Backend)
	}
}
