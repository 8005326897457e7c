//go:build integration
// +build integration

package test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrEthical07/authgate"
	"github.com/MrEthical07/authgate/internal/devserver"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

var integrationSecret = []byte("integration-secret-0123456789abcdef")

func newIntegrationServer(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()

	srv, err := devserver.New(devserver.Config{
		Delay:       delay,
		TokenSecret: integrationSecret,
		BcryptCost:  bcrypt.MinCost,
		Seed:        devserver.DefaultSeed(),
		Logger:      zaptest.NewLogger(t),
	})
	if err != nil {
		t.Fatalf("devserver: %v", err)
	}
	hs := httptest.NewServer(srv)
	t.Cleanup(hs.Close)
	return hs
}

// newIntegrationEngine builds an engine with the real clock and HTTP client.
// Durations are shortened so lockouts and debounces finish quickly.
func newIntegrationEngine(t *testing.T, baseURL string, mutate func(*authgate.Config)) (*authgate.Engine, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := authgate.DefaultConfig()
	cfg.Backend.BaseURL = baseURL
	cfg.Backend.LoginTimeout = 2 * time.Second
	cfg.Login.LockoutDuration = 300 * time.Millisecond
	cfg.Login.CountdownInterval = 100 * time.Millisecond
	cfg.Registration.DebounceDelay = 30 * time.Millisecond
	cfg.Cache.Enabled = true
	cfg.Metrics.Enabled = true
	if mutate != nil {
		mutate(&cfg)
	}

	engine, err := authgate.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithLogger(zaptest.NewLogger(t)).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	})
	return engine, mr
}

func eventually(t *testing.T, timeout time.Duration, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
