package authgate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrEthical07/authgate/clock"
	"github.com/MrEthical07/authgate/internal/flows"
	"github.com/MrEthical07/authgate/internal/limiters"
	"github.com/MrEthical07/authgate/rules"
	"github.com/MrEthical07/authgate/token"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgLoginSuccess       = "Login successful"
	msgInvalidCredentials = "Invalid username or password"
	msgLoginTimeout       = "Login request timed out. Please check your connection and try again."
	msgLoginUnavailable   = "Unable to reach the server. Please try again later."
)

// LoginOption customises a LoginController.
type LoginOption func(*loginOptions)

type loginOptions struct {
	listener func(LoginState)
}

// WithLoginListener registers fn to receive a snapshot after every state
// change, including countdown ticks. fn runs outside the controller lock and
// may call back into the controller.
func WithLoginListener(fn func(LoginState)) LoginOption {
	return func(o *loginOptions) {
		o.listener = fn
	}
}

// LoginController throttles one login screen. It allows
// Login.MaxFailedAttempts consecutive failures, then refuses submissions
// client-side for Login.LockoutDuration while a countdown ticks every
// Login.CountdownInterval.
type LoginController struct {
	engine   *Engine
	screenID string
	listener func(LoginState)

	mu          sync.Mutex
	lockout     *limiters.Lockout
	countdown   clock.Timer
	submitting  bool
	fieldErrors LoginFieldErrors
	message     string
	closed      bool
}

// NewLoginController creates a controller in the Normal state with zero
// failed attempts.
func (e *Engine) NewLoginController(opts ...LoginOption) (*LoginController, error) {
	if e == nil || e.backend == nil {
		return nil, ErrEngineNotReady
	}

	var o loginOptions
	for _, opt := range opts {
		opt(&o)
	}

	lockout, err := limiters.NewLockout(limiters.LockoutConfig{
		Threshold: e.config.Login.MaxFailedAttempts,
		Duration:  e.config.Login.LockoutDuration,
	})
	if err != nil {
		return nil, err
	}

	return &LoginController{
		engine:   e,
		screenID: uuid.NewString(),
		listener: o.listener,
		lockout:  lockout,
	}, nil
}

// ScreenID identifies this controller in audit events.
func (c *LoginController) ScreenID() string {
	return c.screenID
}

// AttemptLogin validates the form, then issues exactly one login request.
//
// It returns ErrLoginInProgress while another attempt is in flight,
// ErrLoginLockedOut while locked (without touching the network),
// ErrLoginInvalidInput for form errors (not counted), and for counted
// failures ErrInvalidCredentials, ErrLoginTimeout, or ErrBackendUnavailable.
// The failure that starts a lockout wraps both ErrLoginLockedOut and its
// cause. A cancelled ctx returns the context error and is not counted.
func (c *LoginController) AttemptLogin(ctx context.Context, username, password string) (*LoginResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	e := c.engine

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrControllerClosed
	}
	if c.submitting {
		c.mu.Unlock()
		e.metricInc(MetricLoginInProgress)
		return nil, ErrLoginInProgress
	}

	now := e.clock.Now()
	expired := c.expireLocked(now)

	if c.lockout.Locked(now) {
		secs := c.lockout.RemainingSeconds(now)
		snap := c.snapshotLocked(now)
		c.mu.Unlock()

		if expired {
			c.auditExpired(ctx)
		}
		e.metricInc(MetricLoginRejectedLocked)
		e.emitAudit(ctx, auditEventLoginRejectedLocked, false, c.screenID, username, ErrLoginLockedOut, func() map[string]string {
			return map[string]string{"remaining_seconds": fmt.Sprint(secs)}
		})
		c.notify(snap)
		return nil, fmt.Errorf("%w: try again in %d seconds", ErrLoginLockedOut, secs)
	}

	cfg := e.config.Login
	fieldErrors := LoginFieldErrors{
		Username: rules.LoginUsername(username, cfg.MinUsernameLength),
		Password: rules.LoginPassword(password, cfg.MinPasswordLength),
	}
	c.fieldErrors = fieldErrors
	c.message = ""
	if fieldErrors.Username != "" || fieldErrors.Password != "" {
		snap := c.snapshotLocked(now)
		c.mu.Unlock()

		if expired {
			c.auditExpired(ctx)
		}
		e.metricInc(MetricLoginInvalidInput)
		c.notify(snap)
		return nil, ErrLoginInvalidInput
	}

	c.submitting = true
	snap := c.snapshotLocked(now)
	c.mu.Unlock()

	if expired {
		c.auditExpired(ctx)
	}
	c.notify(snap)

	attempt := flows.RunLogin(ctx, username, password, e.loginDeps())

	c.mu.Lock()
	c.submitting = false
	if c.closed {
		c.mu.Unlock()
		return nil, ErrControllerClosed
	}

	now = e.clock.Now()
	var (
		result  *LoginResult
		err     error
		started bool
	)

	switch {
	case attempt.Outcome == flows.LoginSucceeded:
		c.lockout.Reset()
		c.stopCountdownLocked()
		msg := attempt.Message
		if msg == "" {
			msg = msgLoginSuccess
		}
		c.message = msg
		result = &LoginResult{Message: msg, Token: attempt.Token}
		if attempt.Token != "" {
			claims, decodeErr := token.Decode(attempt.Token, now)
			if decodeErr != nil {
				e.logger.Debug("login token not decodable", zap.String("screen_id", c.screenID), zap.Error(decodeErr))
			} else {
				result.Claims = claims
			}
		}

	case attempt.Outcome.Counts():
		base, cause := loginFailure(attempt)
		started = c.lockout.RecordFailure(now)
		if started {
			c.armCountdownLocked(now)
			err = fmt.Errorf("%w: %w", ErrLoginLockedOut, cause)
		} else {
			c.message = base + " " + attemptsRemainingMessage(c.lockout.AttemptsRemaining())
			err = cause
		}

	default:
		err = ctx.Err()
		if err == nil {
			err = context.Canceled
		}
	}

	snap = c.snapshotLocked(now)
	failed := c.lockout.FailedAttempts()
	c.mu.Unlock()

	switch {
	case result != nil:
		e.emitAudit(ctx, auditEventLoginSuccess, true, c.screenID, username, nil, nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
	default:
		e.emitAudit(ctx, auditEventLoginFailure, false, c.screenID, username, err, func() map[string]string {
			return map[string]string{
				"outcome":         attempt.Outcome.String(),
				"failed_attempts": fmt.Sprint(failed),
			}
		})
		if started {
			e.metricInc(MetricLockoutStarted)
			e.emitAudit(ctx, auditEventLockoutStarted, false, c.screenID, username, ErrLoginLockedOut, func() map[string]string {
				return map[string]string{"locked_until": snap.LockoutUntil.UTC().Format(time.RFC3339)}
			})
			e.logger.Debug("login lockout started", zap.String("screen_id", c.screenID), zap.Time("locked_until", snap.LockoutUntil))
		}
	}

	c.notify(snap)
	return result, err
}

// State returns the current snapshot. An expired lockout is cleared before
// the snapshot is taken.
func (c *LoginController) State() LoginState {
	c.mu.Lock()
	now := c.engine.clock.Now()
	expired := !c.closed && c.expireLocked(now)
	snap := c.snapshotLocked(now)
	c.mu.Unlock()

	if expired {
		c.auditExpired(context.Background())
		c.notify(snap)
	}
	return snap
}

// Reset clears field errors and the screen message. The failure counter
// and any lockout are kept; leaving and re-entering the screen must not be
// a way around the throttle.
func (c *LoginController) Reset() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.fieldErrors = LoginFieldErrors{}
	c.message = ""
	snap := c.snapshotLocked(c.engine.clock.Now())
	c.mu.Unlock()

	c.notify(snap)
}

// Close stops the countdown. Responses arriving afterwards are discarded.
// Close is idempotent.
func (c *LoginController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopCountdownLocked()
}

func (c *LoginController) tick() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.countdown = nil

	now := c.engine.clock.Now()
	expired := c.expireLocked(now)
	if !expired && c.lockout.Locked(now) {
		c.armCountdownLocked(now)
	}
	snap := c.snapshotLocked(now)
	c.mu.Unlock()

	if expired {
		c.auditExpired(context.Background())
	}
	c.notify(snap)
}

// armCountdownLocked schedules the next tick no later than the lockout
// deadline, so expiry is observed on time even when the duration is not a
// multiple of the interval.
func (c *LoginController) armCountdownLocked(now time.Time) {
	c.stopCountdownLocked()
	next := c.engine.config.Login.CountdownInterval
	if remaining := c.lockout.LockedUntil().Sub(now); remaining < next {
		next = remaining
	}
	c.countdown = c.engine.clock.AfterFunc(next, c.tick)
}

func (c *LoginController) stopCountdownLocked() {
	if c.countdown != nil {
		c.countdown.Stop()
		c.countdown = nil
	}
}

// expireLocked performs the Locked to Normal transition when due. The
// counter reset and the deadline clear happen together inside Lockout.
func (c *LoginController) expireLocked(now time.Time) bool {
	if !c.lockout.Expire(now) {
		return false
	}
	c.stopCountdownLocked()
	c.message = ""
	c.engine.metricInc(MetricLockoutExpired)
	return true
}

func (c *LoginController) auditExpired(ctx context.Context) {
	c.engine.emitAudit(ctx, auditEventLockoutExpired, true, c.screenID, "", nil, nil)
	c.engine.logger.Debug("login lockout expired", zap.String("screen_id", c.screenID))
}

func (c *LoginController) snapshotLocked(now time.Time) LoginState {
	s := LoginState{
		FailedAttempts:    c.lockout.FailedAttempts(),
		LockoutUntil:      c.lockout.LockedUntil(),
		IsLockedOut:       c.lockout.Locked(now),
		CountdownSeconds:  c.lockout.RemainingSeconds(now),
		AttemptsRemaining: c.lockout.AttemptsRemaining(),
		IsSubmitting:      c.submitting,
		FieldErrors:       c.fieldErrors,
		Message:           c.message,
	}
	if s.IsLockedOut {
		s.Message = lockoutMessage(s.CountdownSeconds)
	}
	return s
}

func (c *LoginController) notify(s LoginState) {
	if c.listener != nil {
		c.listener(s)
	}
}

func loginFailure(attempt flows.LoginAttempt) (string, error) {
	switch attempt.Outcome {
	case flows.LoginRejected:
		msg := attempt.Message
		if msg == "" {
			msg = msgInvalidCredentials
		}
		return msg, ErrInvalidCredentials
	case flows.LoginTimedOut:
		return msgLoginTimeout, fmt.Errorf("%w: %v", ErrLoginTimeout, attempt.Err)
	default:
		return msgLoginUnavailable, fmt.Errorf("%w: %v", ErrBackendUnavailable, attempt.Err)
	}
}

func attemptsRemainingMessage(n int) string {
	if n == 1 {
		return "1 attempt remaining before lockout."
	}
	return fmt.Sprintf("%d attempts remaining before lockout.", n)
}

func lockoutMessage(secs int) string {
	if secs == 1 {
		return "Too many failed attempts. Please try again in 1 second."
	}
	return fmt.Sprintf("Too many failed attempts. Please try again in %d seconds.", secs)
}
