package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/authgate/authapi"
)

const (
	// MessageEmailRegistered and MessageUsernameTaken are the server's
	// conflict messages; the availability checks reuse the same wording.
	MessageEmailRegistered = "Email already registered"
	MessageUsernameTaken   = "Username already taken"
)

// RegisterStatus classifies one registration round trip.
type RegisterStatus uint8

const (
	RegisterSucceeded RegisterStatus = iota
	RegisterFieldConflict
	RegisterRejected
	RegisterFailed
	RegisterCanceled
)

func (s RegisterStatus) String() string {
	switch s {
	case RegisterSucceeded:
		return "succeeded"
	case RegisterFieldConflict:
		return "field_conflict"
	case RegisterRejected:
		return "rejected"
	case RegisterFailed:
		return "failed"
	case RegisterCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// RegisterResult is the flow-local registration response shape.
type RegisterResult struct {
	Status RegisterStatus
	// ConflictField is "username" or "email" when Status is RegisterFieldConflict.
	ConflictField AvailabilityKind
	Message       string
	Elapsed       time.Duration
	Err           error
}

// RegisterMetrics carries metric IDs needed by the registration flow.
type RegisterMetrics struct {
	Success       int
	Failure       int
	FieldConflict int
}

// RegisterDeps captures registration dependencies.
type RegisterDeps struct {
	Timeout time.Duration
	Now     func() time.Time

	Register func(context.Context, authapi.RegisterRequest) (authapi.RegisterResponse, error)

	// CacheMarkTaken is optional; a conflict reported at submit time is
	// remembered the same way a conflict from a live check is.
	CacheMarkTaken func(context.Context, AvailabilityKind, string) error

	MetricInc func(int)
	Warn      func(string, ...any)

	Metrics RegisterMetrics
}

// ErrRegisterNotReady is returned when RegisterDeps lacks a backend.
var ErrRegisterNotReady = errors.New("register flow not ready")

// RunRegister submits req once and maps known server messages onto fields.
func RunRegister(ctx context.Context, req authapi.RegisterRequest, deps RegisterDeps) RegisterResult {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	if deps.Register == nil {
		return RegisterResult{Status: RegisterFailed, Err: ErrRegisterNotReady}
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
	resp, err := deps.Register(callCtx, req)
	elapsed := deps.Now().Sub(start)

	if err != nil {
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			return RegisterResult{Status: RegisterCanceled, Elapsed: elapsed, Err: err}
		}
		deps.MetricInc(deps.Metrics.Failure)
		deps.Warn("register request failed", "error", err)
		return RegisterResult{Status: RegisterFailed, Elapsed: elapsed, Err: err}
	}

	if resp.Success {
		deps.MetricInc(deps.Metrics.Success)
		return RegisterResult{Status: RegisterSucceeded, Message: resp.Message, Elapsed: elapsed}
	}

	deps.MetricInc(deps.Metrics.Failure)
	kind, ok := ConflictFieldForMessage(resp.Message)
	if !ok {
		return RegisterResult{Status: RegisterRejected, Message: resp.Message, Elapsed: elapsed}
	}

	deps.MetricInc(deps.Metrics.FieldConflict)
	if deps.CacheMarkTaken != nil {
		value := req.Username
		if kind == KindEmail {
			value = req.Email
		}
		if err := deps.CacheMarkTaken(ctx, kind, value); err != nil {
			deps.Warn("availability cache write failed", "kind", string(kind), "error", err)
		}
	}
	return RegisterResult{
		Status:        RegisterFieldConflict,
		ConflictField: kind,
		Message:       resp.Message,
		Elapsed:       elapsed,
	}
}

// ConflictFieldForMessage maps a server failure message onto the field it
// concerns. Only the two uniqueness conflicts are recognised.
func ConflictFieldForMessage(msg string) (AvailabilityKind, bool) {
	m := strings.ToLower(strings.TrimSpace(msg))
	switch {
	case m == strings.ToLower(MessageEmailRegistered):
		return KindEmail, true
	case m == strings.ToLower(MessageUsernameTaken):
		return KindUsername, true
	case strings.Contains(m, "email") && strings.Contains(m, "already"):
		return KindEmail, true
	case strings.Contains(m, "username") && strings.Contains(m, "already"):
		return KindUsername, true
	default:
		return "", false
	}
}
