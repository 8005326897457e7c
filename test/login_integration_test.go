//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/authgate"
	"github.com/MrEthical07/authgate/internal/devserver"
)

func TestLoginLockoutRoundTrip(t *testing.T) {
	hs := newIntegrationServer(t, 0)
	engine, _ := newIntegrationEngine(t, hs.URL, nil)

	lc, err := engine.NewLoginController()
	if err != nil {
		t.Fatalf("NewLoginController failed: %v", err)
	}
	defer lc.Close()

	ctx := context.Background()
	seed := devserver.DefaultSeed()[0]

	for i := 0; i < 3; i++ {
		_, err := lc.AttemptLogin(ctx, seed.User.Username, "wrong-password")
		if !errors.Is(err, authgate.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}
	if !lc.State().IsLockedOut {
		t.Fatal("expected lockout after three failures")
	}

	if _, err := lc.AttemptLogin(ctx, seed.User.Username, seed.Password); !errors.Is(err, authgate.ErrLoginLockedOut) {
		t.Fatalf("expected ErrLoginLockedOut, got %v", err)
	}

	eventually(t, 2*time.Second, func() bool { return !lc.State().IsLockedOut }, "lockout expiry")

	res, err := lc.AttemptLogin(ctx, seed.User.Username, seed.Password)
	if err != nil {
		t.Fatalf("login after expiry failed: %v", err)
	}
	if res.Claims == nil || res.Claims.Username != seed.User.Username {
		t.Fatalf("unexpected claims: %+v", res.Claims)
	}
	if lc.State().FailedAttempts != 0 {
		t.Fatal("success must reset failed attempts")
	}
}

func TestLoginTimeoutCountsTowardLockout(t *testing.T) {
	hs := newIntegrationServer(t, 200*time.Millisecond)
	engine, _ := newIntegrationEngine(t, hs.URL, func(cfg *authgate.Config) {
		cfg.Backend.LoginTimeout = 20 * time.Millisecond
		cfg.Login.MaxFailedAttempts = 2
	})

	lc, err := engine.NewLoginController()
	if err != nil {
		t.Fatalf("NewLoginController failed: %v", err)
	}
	defer lc.Close()

	if _, err := lc.AttemptLogin(context.Background(), "juandc", "Storefront1!"); !errors.Is(err, authgate.ErrLoginTimeout) {
		t.Fatalf("expected ErrLoginTimeout, got %v", err)
	}
	if got := lc.State().FailedAttempts; got != 1 {
		t.Fatalf("expected 1 failed attempt, got %d", got)
	}
}
