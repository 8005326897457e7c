package authgate

import "time"

// Report summarises the throttle, validation, and backend settings an
// Engine runs with. It is meant for startup logs and health pages.
type Report struct {
	BackendURL        string
	BackendPlaintext  bool
	LoginTimeout      time.Duration
	MaxFailedAttempts int
	LockoutDuration   time.Duration
	CountdownInterval time.Duration
	DebounceDelay     time.Duration
	Password          PasswordReport
	CacheActive       bool
	CacheTTL          time.Duration
	AuditActive       bool
	MetricsActive     bool
	LatencyHistograms bool
	LintFindings      []string
}

type PasswordReport struct {
	MinLength         int
	SpecialCharacters string
}

func (e *Engine) Report() Report {
	if e == nil {
		return Report{}
	}

	cfg := e.config
	plaintext := false
	if cfg.Backend.BaseURL != "" {
		plaintext = isPlaintextURL(cfg.Backend.BaseURL)
	}

	return Report{
		BackendURL:        cfg.Backend.BaseURL,
		BackendPlaintext:  plaintext,
		LoginTimeout:      cfg.Backend.LoginTimeout,
		MaxFailedAttempts: cfg.Login.MaxFailedAttempts,
		LockoutDuration:   cfg.Login.LockoutDuration,
		CountdownInterval: cfg.Login.CountdownInterval,
		DebounceDelay:     cfg.Registration.DebounceDelay,
		Password: PasswordReport{
			MinLength:         cfg.Password.MinLength,
			SpecialCharacters: cfg.Password.SpecialCharacters,
		},
		CacheActive:       e.cache != nil,
		CacheTTL:          cfg.Cache.TTL,
		AuditActive:       e.audit != nil && e.audit.Enabled(),
		MetricsActive:     cfg.Metrics.Enabled,
		LatencyHistograms: cfg.Metrics.Enabled && cfg.Metrics.EnableLatencyHistograms,
		LintFindings:      cfg.Lint().Codes(),
	}
}
