package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/rewards-cli/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".rewards"
	envPrefix  = "RW"
)

var validate = validator.New()

// Load reads ~/.rewards/config.toml (or configFile when set), overlays RW_*
// environment variables and returns the viper instance with the validated
// settings built from it.
func Load(configFile string) (*viper.Viper, domain.Settings, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, domain.Settings{}, fmt.Errorf("resolve home directory: %w", err)
	}

	v := viper.New()
	setDefaults(v, homeDir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(filepath.Join(homeDir, configDir))
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &configNotFound) {
			return nil, domain.Settings{}, fmt.Errorf("read config file: %w", err)
		}
	}

	v.Set("accounts.path", expandHome(v.GetString("accounts.path"), homeDir))
	v.Set("session.path", expandHome(v.GetString("session.path"), homeDir))

	settings, err := Settings(v)
	if err != nil {
		return nil, domain.Settings{}, err
	}

	return v, settings, nil
}

func setDefaults(v *viper.Viper, homeDir string) {
	root := filepath.Join(homeDir, configDir)
	flags := domain.DefaultFeatureFlags()

	v.SetDefault("clusters", 1)
	v.SetDefault("run_on_zero_points", flags.RunOnZeroPoints)
	v.SetDefault("schedule", "")
	v.SetDefault("accounts.path", filepath.Join(root, "accounts.toml"))

	v.SetDefault("session.backend", string(domain.SessionBackendFile))
	v.SetDefault("session.path", filepath.Join(root, "sessions"))
	v.SetDefault("session.ttl", time.Duration(0))
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.prefix", "sessions")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")

	v.SetDefault("browser.base_url", "http://127.0.0.1:9515")
	v.SetDefault("browser.timeout", 2*time.Minute)
	v.SetDefault("browser.headless", true)

	v.SetDefault("workers.do_daily_set", flags.DoDailySet)
	v.SetDefault("workers.do_more_promotions", flags.DoMorePromotions)
	v.SetDefault("workers.do_punch_cards", flags.DoPunchCards)
	v.SetDefault("workers.do_desktop_search", flags.DoDesktopSearch)
	v.SetDefault("workers.do_daily_check_in", flags.DoDailyCheckIn)
	v.SetDefault("workers.do_read_to_earn", flags.DoReadToEarn)
	v.SetDefault("workers.do_mobile_search", flags.DoMobileSearch)

	v.SetDefault("search.retry_mobile_search", flags.RetryMobileSearch)
	v.SetDefault("search.max_mobile_retries", 3)
	v.SetDefault("search.retry_backoff", 5*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Settings builds and validates domain settings from an already populated
// viper instance.
func Settings(v *viper.Viper) (domain.Settings, error) {
	settings := domain.Settings{
		Clusters: v.GetInt("clusters"),
		Flags: domain.FeatureFlags{
			RunOnZeroPoints:   v.GetBool("run_on_zero_points"),
			RetryMobileSearch: v.GetBool("search.retry_mobile_search"),
			DoDailySet:        v.GetBool("workers.do_daily_set"),
			DoMorePromotions:  v.GetBool("workers.do_more_promotions"),
			DoPunchCards:      v.GetBool("workers.do_punch_cards"),
			DoDesktopSearch:   v.GetBool("workers.do_desktop_search"),
			DoDailyCheckIn:    v.GetBool("workers.do_daily_check_in"),
			DoReadToEarn:      v.GetBool("workers.do_read_to_earn"),
			DoMobileSearch:    v.GetBool("workers.do_mobile_search"),
		},
		MaxMobileRetries:   v.GetInt("search.max_mobile_retries"),
		MobileRetryBackoff: v.GetDuration("search.retry_backoff"),
		AccountsPath:       v.GetString("accounts.path"),
		Schedule:           strings.TrimSpace(v.GetString("schedule")),
		Session: domain.SessionSettings{
			Backend: domain.SessionBackend(strings.ToLower(v.GetString("session.backend"))),
			Path:    v.GetString("session.path"),
			TTL:     v.GetDuration("session.ttl"),
			Redis: domain.RedisSettings{
				Addr:     v.GetString("redis.addr"),
				Password: v.GetString("redis.password"),
				DB:       v.GetInt("redis.db"),
			},
			S3: domain.S3Settings{
				Bucket:          v.GetString("s3.bucket"),
				Prefix:          v.GetString("s3.prefix"),
				Region:          v.GetString("s3.region"),
				Endpoint:        v.GetString("s3.endpoint"),
				AccessKeyID:     v.GetString("s3.access_key_id"),
				SecretAccessKey: v.GetString("s3.secret_access_key"),
			},
		},
		Browser: domain.BrowserSettings{
			BaseURL:  v.GetString("browser.base_url"),
			Timeout:  v.GetDuration("browser.timeout"),
			Headless: v.GetBool("browser.headless"),
		},
		Log: domain.LogSettings{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
	}

	if err := validate.Struct(settings); err != nil {
		return domain.Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	if err := validateBackend(settings.Session); err != nil {
		return domain.Settings{}, fmt.Errorf("invalid settings: %w", err)
	}

	return settings, nil
}

func validateBackend(session domain.SessionSettings) error {
	switch session.Backend {
	case domain.SessionBackendFile:
		if session.Path == "" {
			return errors.New("session.path is required for the file backend")
		}
	case domain.SessionBackendRedis:
		if session.Redis.Addr == "" {
			return errors.New("redis.addr is required for the redis backend")
		}
	case domain.SessionBackendS3:
		if session.S3.Bucket == "" {
			return errors.New("s3.bucket is required for the s3 backend")
		}
	}

	return nil
}

func expandHome(path, homeDir string) string {
	if path == "~" {
		return homeDir
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}

	return path
}
