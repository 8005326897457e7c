// Package envconfig loads authgate settings for the binaries from the
// environment, an optional .env file, and built-in defaults, in that order
// of precedence.
package envconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/MrEthical07/authgate"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Environment keys.
const (
	KeyBackendURL        = "AUTHGATE_BACKEND_URL"
	KeyLoginTimeout      = "AUTHGATE_LOGIN_TIMEOUT"
	KeyCheckTimeout      = "AUTHGATE_CHECK_TIMEOUT"
	KeyMaxFailedAttempts = "AUTHGATE_MAX_FAILED_ATTEMPTS"
	KeyLockoutDuration   = "AUTHGATE_LOCKOUT_DURATION"
	KeyDebounceDelay     = "AUTHGATE_DEBOUNCE_DELAY"
	KeyCacheEnabled      = "AUTHGATE_CACHE_ENABLED"
	KeyCacheTTL          = "AUTHGATE_CACHE_TTL"
	KeyAuditEnabled      = "AUTHGATE_AUDIT_ENABLED"
	KeyMetricsEnabled    = "AUTHGATE_METRICS_ENABLED"
	KeyLogLevel          = "AUTHGATE_LOG_LEVEL"
	KeyTokenSecret       = "AUTHGATE_TOKEN_SECRET"
	KeyDevDelay          = "AUTHGATE_DEV_DELAY"
	KeyRedisAddr         = "REDIS_ADDR"
	KeyPort              = "PORT"
)

// Settings is the flat environment view. Durations accept Go syntax
// ("1500ms", "60s").
type Settings struct {
	BackendURL        string        `mapstructure:"AUTHGATE_BACKEND_URL"`
	LoginTimeout      time.Duration `mapstructure:"AUTHGATE_LOGIN_TIMEOUT"`
	CheckTimeout      time.Duration `mapstructure:"AUTHGATE_CHECK_TIMEOUT"`
	MaxFailedAttempts int           `mapstructure:"AUTHGATE_MAX_FAILED_ATTEMPTS"`
	LockoutDuration   time.Duration `mapstructure:"AUTHGATE_LOCKOUT_DURATION"`
	DebounceDelay     time.Duration `mapstructure:"AUTHGATE_DEBOUNCE_DELAY"`
	CacheEnabled      bool          `mapstructure:"AUTHGATE_CACHE_ENABLED"`
	CacheTTL          time.Duration `mapstructure:"AUTHGATE_CACHE_TTL"`
	AuditEnabled      bool          `mapstructure:"AUTHGATE_AUDIT_ENABLED"`
	MetricsEnabled    bool          `mapstructure:"AUTHGATE_METRICS_ENABLED"`
	LogLevel          string        `mapstructure:"AUTHGATE_LOG_LEVEL"`
	TokenSecret       string        `mapstructure:"AUTHGATE_TOKEN_SECRET"`
	DevDelay          time.Duration `mapstructure:"AUTHGATE_DEV_DELAY"`
	RedisAddr         string        `mapstructure:"REDIS_ADDR"`
	Port              string        `mapstructure:"PORT"`
}

// Load reads settings. envFiles are parsed with godotenv and sit between the
// process environment and the defaults; a missing file is skipped.
func Load(envFiles ...string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	for _, path := range envFiles {
		values, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read env file %s: %w", path, err)
		}
		for key, value := range values {
			v.SetDefault(key, value)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range allKeys {
		_ = v.BindEnv(key)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	s.BackendURL = strings.TrimSpace(s.BackendURL)
	return &s, nil
}

var allKeys = []string{
	KeyBackendURL,
	KeyLoginTimeout,
	KeyCheckTimeout,
	KeyMaxFailedAttempts,
	KeyLockoutDuration,
	KeyDebounceDelay,
	KeyCacheEnabled,
	KeyCacheTTL,
	KeyAuditEnabled,
	KeyMetricsEnabled,
	KeyLogLevel,
	KeyTokenSecret,
	KeyDevDelay,
	KeyRedisAddr,
	KeyPort,
}

func setDefaults(v *viper.Viper) {
	cfg := authgate.DefaultConfig()
	v.SetDefault(KeyBackendURL, cfg.Backend.BaseURL)
	v.SetDefault(KeyLoginTimeout, cfg.Backend.LoginTimeout)
	v.SetDefault(KeyCheckTimeout, cfg.Backend.CheckTimeout)
	v.SetDefault(KeyMaxFailedAttempts, cfg.Login.MaxFailedAttempts)
	v.SetDefault(KeyLockoutDuration, cfg.Login.LockoutDuration)
	v.SetDefault(KeyDebounceDelay, cfg.Registration.DebounceDelay)
	v.SetDefault(KeyCacheEnabled, cfg.Cache.Enabled)
	v.SetDefault(KeyCacheTTL, cfg.Cache.TTL)
	v.SetDefault(KeyAuditEnabled, cfg.Audit.Enabled)
	v.SetDefault(KeyMetricsEnabled, cfg.Metrics.Enabled)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyTokenSecret, "")
	v.SetDefault(KeyDevDelay, time.Duration(0))
	v.SetDefault(KeyRedisAddr, "")
	v.SetDefault(KeyPort, "8080")
}

// Config overlays the settings on authgate.DefaultConfig. Cache stays
// disabled without a Redis address.
func (s *Settings) Config() authgate.Config {
	cfg := authgate.DefaultConfig()
	cfg.Backend.BaseURL = s.BackendURL
	cfg.Backend.LoginTimeout = s.LoginTimeout
	cfg.Backend.CheckTimeout = s.CheckTimeout
	cfg.Login.MaxFailedAttempts = s.MaxFailedAttempts
	cfg.Login.LockoutDuration = s.LockoutDuration
	cfg.Registration.DebounceDelay = s.DebounceDelay
	cfg.Cache.Enabled = s.CacheEnabled && s.RedisAddr != ""
	cfg.Cache.TTL = s.CacheTTL
	cfg.Audit.Enabled = s.AuditEnabled
	cfg.Metrics.Enabled = s.MetricsEnabled
	cfg.Metrics.EnableLatencyHistograms = s.MetricsEnabled
	return cfg
}

// Logger builds a production zap logger at the configured level.
func (s *Settings) Logger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(s.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyLogLevel, err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = level
	return zc.Build()
}

// Addr is the listen address for PORT.
func (s *Settings) Addr() string {
	if strings.HasPrefix(s.Port, ":") {
		return s.Port
	}
	return ":" + s.Port
}
