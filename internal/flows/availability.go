package flows

import (
	"context"
	"errors"
	"time"
)

// AvailabilityKind names the identifier being checked.
type AvailabilityKind string

const (
	KindUsername AvailabilityKind = "username"
	KindEmail    AvailabilityKind = "email"
)

// AvailabilityStatus classifies one uniqueness check.
type AvailabilityStatus uint8

const (
	StatusAvailable AvailabilityStatus = iota
	StatusTaken
	StatusCheckFailed
)

func (s AvailabilityStatus) String() string {
	switch s {
	case StatusAvailable:
		return "available"
	case StatusTaken:
		return "taken"
	case StatusCheckFailed:
		return "check_failed"
	default:
		return "unknown"
	}
}

// AvailabilityResult is the flow-local uniqueness check response shape.
type AvailabilityResult struct {
	Status    AvailabilityStatus
	FromCache bool
	Elapsed   time.Duration
	Err       error
}

// AvailabilityMetrics carries metric IDs needed by the availability flow.
type AvailabilityMetrics struct {
	Check       int
	Taken       int
	Available   int
	Unavailable int
	CacheHit    int
	Latency     int
}

// AvailabilityDeps captures uniqueness check dependencies. The cache funcs
// are optional.
type AvailabilityDeps struct {
	Timeout time.Duration
	Now     func() time.Time

	Check func(context.Context, AvailabilityKind, string) (bool, error)

	CacheTaken     func(context.Context, AvailabilityKind, string) (bool, error)
	CacheMarkTaken func(context.Context, AvailabilityKind, string) error

	MetricInc func(int)
	Observe   func(int, time.Duration)
	Warn      func(string, ...any)

	Metrics AvailabilityMetrics
}

// ErrAvailabilityNotReady is returned when AvailabilityDeps lacks a backend.
var ErrAvailabilityNotReady = errors.New("availability flow not ready")

// RunAvailabilityCheck answers whether value is already registered. A cached
// "taken" answer short-circuits the backend; cache errors fall through.
func RunAvailabilityCheck(ctx context.Context, kind AvailabilityKind, value string, deps AvailabilityDeps) AvailabilityResult {
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
	if deps.Check == nil {
		return AvailabilityResult{Status: StatusCheckFailed, Err: ErrAvailabilityNotReady}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	deps.MetricInc(deps.Metrics.Check)

	if deps.CacheTaken != nil {
		taken, err := deps.CacheTaken(ctx, kind, value)
		switch {
		case err != nil:
			deps.Warn("availability cache lookup failed", "kind", string(kind), "error", err)
		case taken:
			deps.MetricInc(deps.Metrics.CacheHit)
			deps.MetricInc(deps.Metrics.Taken)
			return AvailabilityResult{Status: StatusTaken, FromCache: true}
		}
	}

	callCtx := ctx
	if deps.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, deps.Timeout)
		defer cancel()
	}

	start := deps.Now()
	exists, err := deps.Check(callCtx, kind, value)
	elapsed := deps.Now().Sub(start)
	deps.Observe(deps.Metrics.Latency, elapsed)

	if err != nil {
		deps.MetricInc(deps.Metrics.Unavailable)
		deps.Warn("availability check failed", "kind", string(kind), "error", err)
		return AvailabilityResult{Status: StatusCheckFailed, Elapsed: elapsed, Err: err}
	}

	if !exists {
		deps.MetricInc(deps.Metrics.Available)
		return AvailabilityResult{Status: StatusAvailable, Elapsed: elapsed}
	}

	deps.MetricInc(deps.Metrics.Taken)
	if deps.CacheMarkTaken != nil {
		if err := deps.CacheMarkTaken(ctx, kind, value); err != nil {
			deps.Warn("availability cache write failed", "kind", string(kind), "error", err)
		}
	}
	return AvailabilityResult{Status: StatusTaken, Elapsed: elapsed}
}
