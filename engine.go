package authgate

import (
	"context"
	"time"

	"github.com/MrEthical07/authgate/authapi"
	"github.com/MrEthical07/authgate/clock"
	"github.com/MrEthical07/authgate/internal/flows"
	"github.com/MrEthical07/authgate/internal/stores"
	"github.com/MrEthical07/authgate/password"
	"go.uber.org/zap"
)

// Backend is the storefront auth API as the controllers see it.
// [*authapi.Client] implements it; tests substitute fakes.
type Backend interface {
	Login(ctx context.Context, req authapi.LoginRequest) (authapi.LoginResponse, error)
	CheckUsername(ctx context.Context, username string) (authapi.AvailabilityResponse, error)
	CheckEmail(ctx context.Context, email string) (authapi.AvailabilityResponse, error)
	Register(ctx context.Context, req authapi.RegisterRequest) (authapi.RegisterResponse, error)
}

// Engine defines a public type used by authgate APIs.
//
// An Engine shares configuration, the backend, metrics, audit, logging, and
// the optional availability cache between the controllers it creates. It
// holds no per-screen state.
type Engine struct {
	config         Config
	backend        Backend
	cache          *stores.AvailabilityCache
	audit          *auditDispatcher
	metrics        *Metrics
	logger         *zap.Logger
	clock          clock.Clock
	passwordPolicy *password.Policy
}

// Close stops the audit dispatcher after draining it. Controllers created
// by the Engine must be closed separately.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
	_ = e.logger.Sync()
}

// AuditDropped returns the number of audit events lost to backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the current counters and histograms.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Config returns a copy of the active configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) warn(msg string, keysAndValues ...any) {
	e.logger.Sugar().Warnw(msg, keysAndValues...)
}

func (e *Engine) metricIncInt(id int) {
	e.metricInc(MetricID(id))
}

func (e *Engine) observeInt(id int, d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(MetricID(id), d)
}

func (e *Engine) loginDeps() flows.LoginDeps {
	return flows.LoginDeps{
		Timeout:   e.config.Backend.LoginTimeout,
		Now:       e.clock.Now,
		Login:     e.backend.Login,
		MetricInc: e.metricIncInt,
		Observe:   e.observeInt,
		Warn:      e.warn,
		Metrics: flows.LoginMetrics{
			LoginSuccess:     int(MetricLoginSuccess),
			LoginFailure:     int(MetricLoginFailure),
			LoginTimeout:     int(MetricLoginTimeout),
			LoginUnavailable: int(MetricLoginUnavailable),
			LoginLatency:     int(MetricLoginLatency),
		},
	}
}

func (e *Engine) availabilityDeps() flows.AvailabilityDeps {
	deps := flows.AvailabilityDeps{
		Timeout:   e.config.Backend.CheckTimeout,
		Now:       e.clock.Now,
		Check:     e.checkAvailability,
		MetricInc: e.metricIncInt,
		Observe:   e.observeInt,
		Warn:      e.warn,
		Metrics: flows.AvailabilityMetrics{
			Check:       int(MetricAvailabilityCheck),
			Taken:       int(MetricAvailabilityConflict),
			Available:   int(MetricAvailabilityAvailable),
			Unavailable: int(MetricAvailabilityUnavailable),
			CacheHit:    int(MetricAvailabilityCacheHit),
			Latency:     int(MetricAvailabilityLatency),
		},
	}
	if e.cache != nil {
		deps.CacheTaken = e.cacheTaken
		deps.CacheMarkTaken = e.cacheMarkTaken
	}
	return deps
}

func (e *Engine) registerDeps() flows.RegisterDeps {
	deps := flows.RegisterDeps{
		Timeout:   e.config.Backend.RegisterTimeout,
		Now:       e.clock.Now,
		Register:  e.backend.Register,
		MetricInc: e.metricIncInt,
		Warn:      e.warn,
		Metrics: flows.RegisterMetrics{
			Success:       int(MetricRegistrationSuccess),
			Failure:       int(MetricRegistrationFailure),
			FieldConflict: int(MetricRegistrationFieldConflict),
		},
	}
	if e.cache != nil {
		deps.CacheMarkTaken = e.cacheMarkTaken
	}
	return deps
}

func (e *Engine) checkAvailability(ctx context.Context, kind flows.AvailabilityKind, value string) (bool, error) {
	var (
		resp authapi.AvailabilityResponse
		err  error
	)
	switch kind {
	case flows.KindEmail:
		resp, err = e.backend.CheckEmail(ctx, value)
	default:
		resp, err = e.backend.CheckUsername(ctx, value)
	}
	if err != nil {
		return false, err
	}
	return resp.Exists, nil
}

func (e *Engine) cacheTaken(ctx context.Context, kind flows.AvailabilityKind, value string) (bool, error) {
	return e.cache.Taken(ctx, stores.Kind(kind), value)
}

func (e *Engine) cacheMarkTaken(ctx context.Context, kind flows.AvailabilityKind, value string) error {
	return e.cache.MarkTaken(ctx, stores.Kind(kind), value)
}
