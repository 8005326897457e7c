package authgate

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/authgate/authapi"
	"github.com/MrEthical07/authgate/clock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var testEpoch = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

const (
	testUsername = "alice"
	testPassword = "correct-password"
)

// fakeBackend answers like the storefront API. Each hook, when set,
// replaces the default behaviour for that endpoint.
type fakeBackend struct {
	mu sync.Mutex

	taken      map[string]bool
	takenEmail map[string]bool

	loginFn    func(ctx context.Context, req authapi.LoginRequest) (authapi.LoginResponse, error)
	usernameFn func(ctx context.Context, username string) (authapi.AvailabilityResponse, error)
	emailFn    func(ctx context.Context, email string) (authapi.AvailabilityResponse, error)
	registerFn func(ctx context.Context, req authapi.RegisterRequest) (authapi.RegisterResponse, error)

	loginCalls     int
	usernameChecks []string
	emailChecks    []string
	registrations  []authapi.RegisterRequest
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		taken:      map[string]bool{},
		takenEmail: map[string]bool{},
	}
}

func (b *fakeBackend) Login(ctx context.Context, req authapi.LoginRequest) (authapi.LoginResponse, error) {
	b.mu.Lock()
	b.loginCalls++
	fn := b.loginFn
	b.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if req.Username == testUsername && req.Password == testPassword {
		return authapi.LoginResponse{Success: true, Message: "Login successful"}, nil
	}
	return authapi.LoginResponse{Success: false, Message: "Invalid username or password"}, nil
}

func (b *fakeBackend) CheckUsername(ctx context.Context, username string) (authapi.AvailabilityResponse, error) {
	b.mu.Lock()
	b.usernameChecks = append(b.usernameChecks, username)
	fn := b.usernameFn
	exists := b.taken[strings.ToLower(username)]
	b.mu.Unlock()

	if fn != nil {
		return fn(ctx, username)
	}
	return authapi.AvailabilityResponse{Exists: exists}, nil
}

func (b *fakeBackend) CheckEmail(ctx context.Context, email string) (authapi.AvailabilityResponse, error) {
	b.mu.Lock()
	b.emailChecks = append(b.emailChecks, email)
	fn := b.emailFn
	exists := b.takenEmail[strings.ToLower(email)]
	b.mu.Unlock()

	if fn != nil {
		return fn(ctx, email)
	}
	return authapi.AvailabilityResponse{Exists: exists}, nil
}

func (b *fakeBackend) Register(ctx context.Context, req authapi.RegisterRequest) (authapi.RegisterResponse, error) {
	b.mu.Lock()
	b.registrations = append(b.registrations, req)
	fn := b.registerFn
	b.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return authapi.RegisterResponse{Success: true, Message: "Registration successful"}, nil
}

func (b *fakeBackend) LoginCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loginCalls
}

func (b *fakeBackend) UsernameChecks() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.usernameChecks...)
}

func (b *fakeBackend) EmailChecks() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.emailChecks...)
}

func (b *fakeBackend) Registrations() []authapi.RegisterRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]authapi.RegisterRequest(nil), b.registrations...)
}

type testEngineOptions struct {
	mutate func(*Config)
	sink   AuditSink
	redis  redis.UniversalClient
}

func newTestEngine(t testing.TB, backend Backend, opts testEngineOptions) (*Engine, *clock.Fake) {
	t.Helper()

	cfg := defaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	if opts.sink != nil {
		cfg.Audit.Enabled = true
		cfg.Audit.BufferSize = 64
		cfg.Audit.DropIfFull = false
	}
	if opts.mutate != nil {
		opts.mutate(&cfg)
	}

	fc := clock.NewFake(testEpoch)
	b := New().
		WithConfig(cfg).
		WithBackend(backend).
		WithClock(fc).
		WithAuditSink(opts.sink)
	if opts.redis != nil {
		b = b.WithRedis(opts.redis)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, fc
}

func newTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

type captureSink struct {
	events chan AuditEvent
}

func newCaptureSink(buffer int) *captureSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &captureSink{
		events: make(chan AuditEvent, buffer),
	}
}

func (s *captureSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// next waits for the next event of the given type, skipping others.
func (s *captureSink) next(t *testing.T, eventType string) AuditEvent {
	t.Helper()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-s.events:
			if ev.EventType == eventType {
				return ev
			}
		case <-timeout:
			t.Fatalf("no %q audit event received", eventType)
			return AuditEvent{}
		}
	}
}

// gate blocks a backend call until released, and reports when the call has
// been entered.
type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{
		entered: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (g *gate) wait(ctx context.Context) error {
	g.entered <- struct{}{}
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gate) awaitEntered(t *testing.T) {
	t.Helper()
	select {
	case <-g.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("backend call was never made")
	}
}
