package authgate

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/authgate/password"
	"github.com/MrEthical07/authgate/rules"
)

// Config defines a public type used by authgate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Backend      BackendConfig
	Login        LoginConfig
	Registration RegistrationConfig
	Password     PasswordConfig
	Cache        CacheConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

/*
====================================
BACKEND CONFIG
====================================
*/

// BackendConfig defines a public type used by authgate APIs.
//
// BaseURL is only required when the Builder constructs the HTTP client
// itself (no WithBackend). Zero CheckTimeout and RegisterTimeout mean the
// request is bounded only by the caller's context.
type BackendConfig struct {
	BaseURL         string
	LoginTimeout    time.Duration
	CheckTimeout    time.Duration
	RegisterTimeout time.Duration
	UserAgent       string
}

/*
====================================
LOGIN CONFIG
====================================
*/

// LoginConfig defines a public type used by authgate APIs.
//
// LoginConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LoginConfig struct {
	MaxFailedAttempts int
	LockoutDuration   time.Duration
	CountdownInterval time.Duration
	MinUsernameLength int
	MinPasswordLength int
}

/*
====================================
REGISTRATION CONFIG
====================================
*/

// RegistrationConfig defines a public type used by authgate APIs.
//
// RegistrationConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RegistrationConfig struct {
	DebounceDelay     time.Duration
	MinUsernameLength int
	MinPostalDigits   int
	MaxPostalDigits   int
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by authgate APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	MinLength         int
	SpecialCharacters string
}

/*
====================================
CACHE CONFIG
====================================
*/

// CacheConfig controls the Redis cache of identifiers the backend reported
// as taken. It requires Builder.WithRedis when Enabled.
type CacheConfig struct {
	Enabled     bool
	RedisPrefix string
	TTL         time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig defines a public type used by authgate APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by authgate APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the storefront's production settings: three strikes,
// a sixty second lockout with a one second countdown, a seven second login
// timeout, and a 500 ms debounce on uniqueness checks.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			BaseURL:         "http://localhost:8080",
			LoginTimeout:    7 * time.Second,
			CheckTimeout:    0,
			RegisterTimeout: 0,
			UserAgent:       "authgate/1",
		},
		Login: LoginConfig{
			MaxFailedAttempts: 3,
			LockoutDuration:   60 * time.Second,
			CountdownInterval: time.Second,
			MinUsernameLength: rules.MinUsernameLength,
			MinPasswordLength: rules.MinLoginPasswordLength,
		},
		Registration: RegistrationConfig{
			DebounceDelay:     500 * time.Millisecond,
			MinUsernameLength: rules.MinUsernameLength,
			MinPostalDigits:   rules.MinPostalDigits,
			MaxPostalDigits:   rules.MaxPostalDigits,
		},
		Password: PasswordConfig{
			MinLength:         password.DefaultMinLength,
			SpecialCharacters: password.DefaultSpecialCharacters,
		},
		Cache: CacheConfig{
			Enabled:     false,
			RedisPrefix: "agu",
			TTL:         10 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks internal consistency. It does not require BaseURL; the
// Builder checks that when it has to construct the HTTP client.
func (c *Config) Validate() error {
	// Backend
	if c.Backend.LoginTimeout <= 0 {
		return errors.New("Backend LoginTimeout must be > 0")
	}
	if c.Backend.CheckTimeout < 0 {
		return errors.New("Backend CheckTimeout must be >= 0")
	}
	if c.Backend.RegisterTimeout < 0 {
		return errors.New("Backend RegisterTimeout must be >= 0")
	}
	if c.Backend.BaseURL != "" {
		u, err := url.Parse(strings.TrimSpace(c.Backend.BaseURL))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("Backend BaseURL %q must be an absolute http(s) URL", c.Backend.BaseURL)
		}
	}

	// Login
	if c.Login.MaxFailedAttempts < 1 {
		return errors.New("Login MaxFailedAttempts must be >= 1")
	}
	if c.Login.LockoutDuration <= 0 {
		return errors.New("Login LockoutDuration must be > 0")
	}
	if c.Login.CountdownInterval <= 0 {
		return errors.New("Login CountdownInterval must be > 0")
	}
	if c.Login.MinUsernameLength < 1 {
		return errors.New("Login MinUsernameLength must be >= 1")
	}
	if c.Login.MinPasswordLength < 1 {
		return errors.New("Login MinPasswordLength must be >= 1")
	}

	// Registration
	if c.Registration.DebounceDelay <= 0 {
		return errors.New("Registration DebounceDelay must be > 0")
	}
	if c.Registration.MinUsernameLength < 1 {
		return errors.New("Registration MinUsernameLength must be >= 1")
	}
	if c.Registration.MinPostalDigits < 1 || c.Registration.MaxPostalDigits < c.Registration.MinPostalDigits {
		return errors.New("Registration postal digit bounds must satisfy 1 <= min <= max")
	}

	// Password
	if _, err := password.NewPolicy(password.Config{
		MinLength:         c.Password.MinLength,
		SpecialCharacters: c.Password.SpecialCharacters,
	}); err != nil {
		return err
	}

	// Cache
	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			return errors.New("Cache TTL must be > 0 when enabled")
		}
		if strings.TrimSpace(c.Cache.RedisPrefix) == "" {
			return errors.New("Cache RedisPrefix must not be empty when enabled")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}
