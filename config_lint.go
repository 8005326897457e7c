package authgate

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// LintSeverity ranks a configuration warning.
type LintSeverity uint8

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// LintWarning is a valid-but-questionable setting.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintWarnings is the result of [Config.Lint].
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

// BySeverity returns the warnings at or above min.
func (ws LintWarnings) BySeverity(min LintSeverity) LintWarnings {
	var out LintWarnings
	for _, w := range ws {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError joins every warning at or above min into one error, or nil.
func (ws LintWarnings) AsError(min LintSeverity) error {
	selected := ws.BySeverity(min)
	if len(selected) == 0 {
		return nil
	}
	parts := make([]string, 0, len(selected))
	for _, w := range selected {
		parts = append(parts, fmt.Sprintf("[%s] %s: %s", w.Severity, w.Code, w.Message))
	}
	return errors.New("config lint: " + strings.Join(parts, "; "))
}

// Lint reports settings that pass Validate but weaken the gate or confuse
// users. It never mutates c.
func (c *Config) Lint() LintWarnings {
	var ws LintWarnings
	add := func(code string, sev LintSeverity, format string, args ...any) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	if c.Login.LockoutDuration < c.Login.CountdownInterval {
		add("lockout_shorter_than_tick", LintHigh,
			"LockoutDuration %s is shorter than CountdownInterval %s; the countdown never renders", c.Login.LockoutDuration, c.Login.CountdownInterval)
	}
	if c.Login.CountdownInterval > time.Second {
		add("countdown_coarse", LintWarn,
			"CountdownInterval %s renders the remaining seconds in jumps", c.Login.CountdownInterval)
	}
	if c.Login.MaxFailedAttempts > 10 {
		add("lockout_threshold_high", LintWarn,
			"MaxFailedAttempts %d allows many guesses per lockout window", c.Login.MaxFailedAttempts)
	}
	if c.Login.LockoutDuration < 10*time.Second {
		add("lockout_short", LintWarn,
			"LockoutDuration %s barely slows repeated guessing", c.Login.LockoutDuration)
	}
	if c.Backend.LoginTimeout > 30*time.Second {
		add("login_timeout_long", LintWarn,
			"LoginTimeout %s leaves the submit button disabled for a long time", c.Backend.LoginTimeout)
	}
	if c.Registration.DebounceDelay < 100*time.Millisecond {
		add("debounce_short", LintWarn,
			"DebounceDelay %s issues a uniqueness check for nearly every keystroke", c.Registration.DebounceDelay)
	}
	if c.Registration.DebounceDelay > 2*time.Second {
		add("debounce_long", LintInfo,
			"DebounceDelay %s delays availability feedback noticeably", c.Registration.DebounceDelay)
	}
	if c.Password.MinLength < 8 {
		add("password_min_short", LintHigh,
			"Password MinLength %d is below 8", c.Password.MinLength)
	}
	if c.Cache.Enabled && c.Cache.TTL > time.Hour {
		add("cache_ttl_long", LintWarn,
			"Cache TTL %s keeps a taken answer after the account could have been removed", c.Cache.TTL)
	}
	if isPlaintextURL(c.Backend.BaseURL) {
		add("backend_plaintext", LintHigh,
			"Backend BaseURL %q sends credentials without TLS", c.Backend.BaseURL)
	}
	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "audit events are disabled")
	}

	return ws
}

// isPlaintextURL reports an http:// URL that leaves the machine.
func isPlaintextURL(raw string) bool {
	return strings.HasPrefix(strings.TrimSpace(raw), "http://") && !isLoopbackURL(raw)
}

func isLoopbackURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}
