package limiters

import (
	"errors"
	"time"
)

// LockoutConfig holds configuration for the login lockout.
type LockoutConfig struct {
	Threshold int
	Duration  time.Duration
}

// ErrInvalidLockoutConfig indicates a non-positive threshold or duration.
var ErrInvalidLockoutConfig = errors.New("invalid lockout configuration")

// Lockout tracks consecutive failed logins and the lockout deadline.
//
// States: Normal (lockedUntil zero) and Locked (lockedUntil set). The
// transition to Locked happens on the failure that brings the counter to
// Threshold. The transition back happens in Expire, which also resets the
// counter, so no observer sees an expired lockout with a non-zero counter.
type Lockout struct {
	config         LockoutConfig
	failedAttempts int
	lockedUntil    time.Time
}

// NewLockout creates a Lockout in the Normal state.
func NewLockout(cfg LockoutConfig) (*Lockout, error) {
	if cfg.Threshold < 1 || cfg.Duration <= 0 {
		return nil, ErrInvalidLockoutConfig
	}
	return &Lockout{config: cfg}, nil
}

// RecordFailure increments the failure counter.
// Returns true if this failure started a lockout.
func (l *Lockout) RecordFailure(now time.Time) bool {
	if l.Locked(now) {
		return false
	}

	l.failedAttempts++
	if l.failedAttempts >= l.config.Threshold {
		l.lockedUntil = now.Add(l.config.Duration)
		return true
	}
	return false
}

// Reset clears the counter and any lockout (successful login).
func (l *Lockout) Reset() {
	l.failedAttempts = 0
	l.lockedUntil = time.Time{}
}

// Expire moves a Locked lockout whose deadline has passed back to Normal.
// Returns true if a transition happened.
func (l *Lockout) Expire(now time.Time) bool {
	if l.lockedUntil.IsZero() || now.Before(l.lockedUntil) {
		return false
	}
	l.Reset()
	return true
}

// Locked reports whether now falls inside the lockout window.
func (l *Lockout) Locked(now time.Time) bool {
	return !l.lockedUntil.IsZero() && now.Before(l.lockedUntil)
}

// LockedUntil returns the lockout deadline, zero when Normal.
func (l *Lockout) LockedUntil() time.Time {
	return l.lockedUntil
}

// FailedAttempts returns the consecutive failure count.
func (l *Lockout) FailedAttempts() int {
	return l.failedAttempts
}

// AttemptsRemaining returns how many more failures are allowed before lockout.
func (l *Lockout) AttemptsRemaining() int {
	left := l.config.Threshold - l.failedAttempts
	if left < 0 {
		return 0
	}
	return left
}

// RemainingSeconds returns ceil(lockedUntil-now) in whole seconds, 0 when
// not locked.
func (l *Lockout) RemainingSeconds(now time.Time) int {
	if !l.Locked(now) {
		return 0
	}
	remaining := l.lockedUntil.Sub(now)
	secs := int(remaining / time.Second)
	if remaining%time.Second != 0 {
		secs++
	}
	return secs
}
