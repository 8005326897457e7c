package authgate

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/authgate/authapi"
	"github.com/MrEthical07/authgate/clock"
	"github.com/MrEthical07/authgate/internal/stores"
	"github.com/MrEthical07/authgate/password"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder defines a public type used by authgate APIs.
//
// A Builder is single-use: Build may succeed once.
type Builder struct {
	config     Config
	backend    Backend
	httpClient *http.Client
	redis      redis.UniversalClient
	logger     *zap.Logger
	auditSink  AuditSink
	clock      clock.Clock

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBackend replaces the HTTP client built from Backend.BaseURL.
func (b *Builder) WithBackend(backend Backend) *Builder {
	b.backend = backend
	return b
}

// WithHTTPClient sets the http.Client used when the Builder constructs the
// backend client itself.
func (b *Builder) WithHTTPClient(hc *http.Client) *Builder {
	b.httpClient = hc
	return b
}

// WithRedis supplies the client for the availability cache.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock replaces the wall clock, mainly for deterministic tests.
func (b *Builder) WithClock(c clock.Clock) *Builder {
	b.clock = c
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Cache.Enabled && b.redis == nil {
		return nil, errors.New("Cache requires redis client")
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("authgate")

	clk := b.clock
	if clk == nil {
		clk = clock.Real()
	}

	backend := b.backend
	if backend == nil {
		if cfg.Backend.BaseURL == "" {
			return nil, errors.New("Backend BaseURL required when no backend is supplied")
		}
		client, err := authapi.NewClient(cfg.Backend.BaseURL,
			authapi.WithHTTPClient(b.httpClient),
			authapi.WithLogger(logger.Named("authapi")),
			authapi.WithUserAgent(cfg.Backend.UserAgent),
		)
		if err != nil {
			return nil, err
		}
		backend = client
	}

	policy, err := password.NewPolicy(password.Config{
		MinLength:         cfg.Password.MinLength,
		SpecialCharacters: cfg.Password.SpecialCharacters,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:         cloneConfig(cfg),
		backend:        backend,
		logger:         logger,
		clock:          clk,
		passwordPolicy: policy,
	}

	if cfg.Cache.Enabled {
		engine.cache = stores.NewAvailabilityCache(b.redis, cfg.Cache.RedisPrefix, cfg.Cache.TTL)
	}
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink, logger.Named("audit"))
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
