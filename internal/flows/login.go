package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/authgate/authapi"
)

// LoginOutcome classifies one login round trip.
type LoginOutcome uint8

const (
	LoginSucceeded LoginOutcome = iota
	LoginRejected
	LoginTimedOut
	LoginUnavailable
	LoginCanceled
)

func (o LoginOutcome) String() string {
	switch o {
	case LoginSucceeded:
		return "succeeded"
	case LoginRejected:
		return "rejected"
	case LoginTimedOut:
		return "timed_out"
	case LoginUnavailable:
		return "unavailable"
	case LoginCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Counts reports whether the outcome counts toward the lockout threshold.
// Every failure the server or network produced counts; a caller walking
// away does not.
func (o LoginOutcome) Counts() bool {
	switch o {
	case LoginRejected, LoginTimedOut, LoginUnavailable:
		return true
	default:
		return false
	}
}

// LoginAttempt is the flow-local login result.
type LoginAttempt struct {
	Outcome LoginOutcome
	Message string
	Token   string
	Elapsed time.Duration
	Err     error
}

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	LoginSuccess     int
	LoginFailure     int
	LoginTimeout     int
	LoginUnavailable int
	LoginLatency     int
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	Timeout time.Duration
	Now     func() time.Time

	Login func(context.Context, authapi.LoginRequest) (authapi.LoginResponse, error)

	MetricInc func(int)
	Observe   func(int, time.Duration)
	Warn      func(string, ...any)

	Metrics LoginMetrics
}

// ErrLoginNotReady is returned when LoginDeps lacks a backend.
var ErrLoginNotReady = errors.New("login flow not ready")

// RunLogin issues exactly one login request bounded by deps.Timeout and
// classifies the result.
func RunLogin(ctx context.Context, username, password string, deps LoginDeps) LoginAttempt {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.Observe == nil {
		deps.Observe = func(int, time.Duration) {}
	}
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	if deps.Login == nil {
		return LoginAttempt{Outcome: LoginUnavailable, Err: ErrLoginNotReady}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	callCtx := ctx
	if deps.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, deps.Timeout)
		defer cancel()
	}

	start := deps.Now()
	resp, err := deps.Login(callCtx, authapi.LoginRequest{Username: username, Password: password})
	elapsed := deps.Now().Sub(start)
	deps.Observe(deps.Metrics.LoginLatency, elapsed)

	if err != nil {
		outcome := classifyCallError(ctx, err)
		switch outcome {
		case LoginTimedOut:
			deps.MetricInc(deps.Metrics.LoginTimeout)
		case LoginUnavailable:
			deps.MetricInc(deps.Metrics.LoginUnavailable)
		}
		if outcome != LoginCanceled {
			deps.Warn("login request failed", "outcome", outcome.String(), "error", err)
		}
		return LoginAttempt{Outcome: outcome, Elapsed: elapsed, Err: err}
	}

	if !resp.Success {
		deps.MetricInc(deps.Metrics.LoginFailure)
		return LoginAttempt{Outcome: LoginRejected, Message: resp.Message, Elapsed: elapsed}
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	return LoginAttempt{
		Outcome: LoginSucceeded,
		Message: resp.Message,
		Token:   resp.Token,
		Elapsed: elapsed,
	}
}

// classifyCallError separates a caller cancellation from the flow's own
// deadline, and the deadline from every other transport failure.
func classifyCallError(parent context.Context, err error) LoginOutcome {
	if parent.Err() != nil && errors.Is(err, context.Canceled) {
		return LoginCanceled
	}
	if errors.Is(err, authapi.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return LoginTimedOut
	}
	return LoginUnavailable
}
