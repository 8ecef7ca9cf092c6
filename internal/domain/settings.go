package domain

import "time"

type FeatureFlags struct {
	RunOnZeroPoints   bool
	RetryMobileSearch bool
	DoDailySet        bool
	DoMorePromotions  bool
	DoPunchCards      bool
	DoDesktopSearch   bool
	DoDailyCheckIn    bool
	DoReadToEarn      bool
	DoMobileSearch    bool
}

// DefaultFeatureFlags enables every activity and leaves both gates strict.
func DefaultFeatureFlags() FeatureFlags {
	return FeatureFlags{
		DoDailySet:       true,
		DoMorePromotions: true,
		DoPunchCards:     true,
		DoDesktopSearch:  true,
		DoDailyCheckIn:   true,
		DoReadToEarn:     true,
		DoMobileSearch:   true,
	}
}

type SessionBackend string

const (
	SessionBackendFile  SessionBackend = "file"
	SessionBackendRedis SessionBackend = "redis"
	SessionBackendS3    SessionBackend = "s3"
)

type Settings struct {
	Clusters           int `validate:"gte=1"`
	Flags              FeatureFlags
	MaxMobileRetries   int           `validate:"gte=0"`
	MobileRetryBackoff time.Duration `validate:"gte=0"`
	AccountsPath       string        `validate:"required"`
	Schedule           string
	Session            SessionSettings
	Browser            BrowserSettings
	Log                LogSettings
}

type SessionSettings struct {
	Backend SessionBackend `validate:"oneof=file redis s3"`
	Path    string
	TTL     time.Duration `validate:"gte=0"`
	Redis   RedisSettings
	S3      S3Settings
}

type RedisSettings struct {
	Addr     string
	Password string
	DB       int `validate:"gte=0"`
}

type S3Settings struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

type BrowserSettings struct {
	BaseURL  string        `validate:"required,url"`
	Timeout  time.Duration `validate:"gt=0"`
	Headless bool
}

type LogSettings struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=text json"`
}
