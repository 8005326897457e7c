package devserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/authgate"
	"github.com/MrEthical07/authgate/authapi"
	"github.com/MrEthical07/authgate/clock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestServer(t *testing.T, cfg Config) (*Server, *authapi.Client) {
	t.Helper()
	if cfg.TokenSecret == nil {
		cfg.TokenSecret = testSecret
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.MinCost
	}
	if cfg.Seed == nil {
		cfg.Seed = DefaultSeed()
	}
	cfg.Logger = zaptest.NewLogger(t)

	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	hs := httptest.NewServer(srv)
	t.Cleanup(hs.Close)

	client, err := authapi.NewClient(hs.URL)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return srv, client
}

func TestNewRejectsShortSecret(t *testing.T) {
	if _, err := New(Config{TokenSecret: []byte("short")}); err == nil {
		t.Fatal("expected error for short token secret")
	}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	srv, client := newTestServer(t, Config{})
	seed := DefaultSeed()[0]

	resp, err := client.Login(context.Background(), authapi.LoginRequest{Username: seed.User.Username, Password: seed.Password})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !resp.Success || resp.Token == "" {
		t.Fatalf("unexpected login response: %+v", resp)
	}

	claims, err := srv.Issuer().Verify(resp.Token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Username != seed.User.Username || claims.Subject == "" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	bad, err := client.Login(context.Background(), authapi.LoginRequest{Username: seed.User.Username, Password: "nope-nope"})
	if err != nil {
		t.Fatalf("explicit failure returned as error: %v", err)
	}
	if bad.Success || bad.Message != messageBadCredentials {
		t.Fatalf("unexpected failure response: %+v", bad)
	}
}

func TestLoginLimiterAnswersTooManyRequests(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	_, client := newTestServer(t, Config{Redis: rdb, LoginLimit: 2, LoginWindow: time.Minute})
	ctx := context.Background()
	seed := DefaultSeed()[0]

	for i := 0; i < 2; i++ {
		resp, err := client.Login(ctx, authapi.LoginRequest{Username: seed.User.Username, Password: "wrong-pass"})
		if err != nil || resp.Success {
			t.Fatalf("attempt %d: unexpected %+v, %v", i+1, resp, err)
		}
	}

	resp, err := client.Login(ctx, authapi.LoginRequest{Username: seed.User.Username, Password: seed.Password})
	if err != nil {
		t.Fatalf("429 body must decode as a result: %v", err)
	}
	if resp.Success || resp.Message != messageRateLimited {
		t.Fatalf("expected rate-limited response, got %+v", resp)
	}

	mr.FastForward(time.Minute)
	resp, err = client.Login(ctx, authapi.LoginRequest{Username: seed.User.Username, Password: seed.Password})
	if err != nil || !resp.Success {
		t.Fatalf("expected login after window, got %+v, %v", resp, err)
	}
}

func TestAvailabilityEndpoints(t *testing.T) {
	_, client := newTestServer(t, Config{})
	ctx := context.Background()

	tests := []struct {
		name   string
		check  func(context.Context, string) (authapi.AvailabilityResponse, error)
		value  string
		exists bool
	}{
		{name: "taken username", check: client.CheckUsername, value: "JuanDC", exists: true},
		{name: "free username", check: client.CheckUsername, value: "abcuser", exists: false},
		{name: "taken email", check: client.CheckEmail, value: "maria@example.com", exists: true},
		{name: "free email", check: client.CheckEmail, value: "new@example.com", exists: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := tt.check(ctx, tt.value)
			if err != nil {
				t.Fatalf("check failed: %v", err)
			}
			if resp.Exists != tt.exists {
				t.Fatalf("expected exists=%v, got %v", tt.exists, resp.Exists)
			}
		})
	}
}

func validRegisterRequest() authapi.RegisterRequest {
	return authapi.RegisterRequest{
		FirstName: "Ana",
		LastName:  "Reyes",
		Username:  "anareyes",
		Email:     "ana@example.com",
		Password:  "Abcdef1!",
		Address:   "7 Luna Street",
		Region:    "NCR",
		Province:  "Metro Manila",
		City:      "Makati",
		Barangay:  "Poblacion",
		Postal:    "1210",
	}
}

func TestRegisterOutcomes(t *testing.T) {
	srv, client := newTestServer(t, Config{})
	ctx := context.Background()

	resp, err := client.Register(ctx, validRegisterRequest())
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success, got %+v", resp)
	}
	if !srv.Store().UsernameExists("anareyes") {
		t.Fatal("user not stored")
	}

	dupUser := validRegisterRequest()
	dupUser.Email = "other@example.com"
	dupEmail := validRegisterRequest()
	dupEmail.Username = "someoneelse"
	missing := validRegisterRequest()
	missing.City = "  "

	tests := []struct {
		name string
		req  authapi.RegisterRequest
		want string
	}{
		{name: "username taken", req: dupUser, want: messageUsernameTaken},
		{name: "email taken", req: dupEmail, want: messageEmailRegistered},
		{name: "missing field", req: missing, want: "City is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.Register(ctx, tt.req)
			if err != nil {
				t.Fatalf("explicit failure returned as error: %v", err)
			}
			if resp.Success || resp.Message != tt.want {
				t.Fatalf("expected %q, got %+v", tt.want, resp)
			}
		})
	}
}

func TestDelayHonoursClientDeadline(t *testing.T) {
	_, client := newTestServer(t, Config{Delay: 200 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.CheckUsername(ctx, "abcuser")
	if !errors.Is(err, authapi.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, err := New(Config{TokenSecret: testSecret, AllowedOrigins: []string{"http://shop.test"}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodOptions, authapi.LoginPath, nil)
	req.Header.Set("Origin", "http://shop.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://shop.test" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
}

func TestRejectsUnknownBodyFields(t *testing.T) {
	srv, err := New(Config{TokenSecret: testSecret})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, authapi.LoginPath, strings.NewReader(`{"username":"a","password":"b","admin":true}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

// The engine drives the dev server through the real HTTP client. The fake
// clock only drives debounce and lockout timers.
func TestEngineAgainstDevServer(t *testing.T) {
	_, client := newTestServer(t, Config{})
	fc := clock.NewFake(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))

	engine, err := authgate.New().
		WithBackend(client).
		WithClock(fc).
		WithLogger(zaptest.NewLogger(t)).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	t.Run("login", func(t *testing.T) {
		lc, err := engine.NewLoginController()
		if err != nil {
			t.Fatalf("NewLoginController failed: %v", err)
		}
		defer lc.Close()

		seed := DefaultSeed()[1]
		res, err := lc.AttemptLogin(context.Background(), seed.User.Username, seed.Password)
		if err != nil {
			t.Fatalf("AttemptLogin failed: %v", err)
		}
		if res.Claims == nil || res.Claims.Username != seed.User.Username {
			t.Fatalf("expected decoded claims, got %+v", res)
		}
	})

	t.Run("registration", func(t *testing.T) {
		r, err := engine.NewRegistration()
		if err != nil {
			t.Fatalf("NewRegistration failed: %v", err)
		}
		defer r.Close()

		req := validRegisterRequest()
		values := map[authgate.Field]string{
			authgate.FieldFirstName:       req.FirstName,
			authgate.FieldLastName:        req.LastName,
			authgate.FieldUsername:        "juandc",
			authgate.FieldEmail:           "fresh@example.com",
			authgate.FieldPassword:        req.Password,
			authgate.FieldConfirmPassword: req.Password,
		}
		for _, f := range authgate.StepFields(authgate.StepAccount) {
			if err := r.SetValue(f, values[f]); err != nil {
				t.Fatalf("SetValue(%s): %v", f, err)
			}
		}
		fc.Advance(engine.Config().Registration.DebounceDelay)

		st, _ := r.Field(authgate.FieldUsername)
		if st.Error != "Username already taken" {
			t.Fatalf("expected seeded username to be taken, got %+v", st)
		}
		if err := r.Next(); !errors.Is(err, authgate.ErrStepInvalid) {
			t.Fatalf("expected ErrStepInvalid, got %v", err)
		}

		if err := r.SetValue(authgate.FieldUsername, "freshuser"); err != nil {
			t.Fatalf("SetValue: %v", err)
		}
		fc.Advance(engine.Config().Registration.DebounceDelay)
		if err := r.Next(); err != nil {
			t.Fatalf("Next failed: %v", err)
		}

		address := map[authgate.Field]string{
			authgate.FieldAddress:  req.Address,
			authgate.FieldRegion:   req.Region,
			authgate.FieldProvince: req.Province,
			authgate.FieldCity:     req.City,
			authgate.FieldBarangay: req.Barangay,
			authgate.FieldPostal:   req.Postal,
		}
		for f, v := range address {
			if err := r.SetValue(f, v); err != nil {
				t.Fatalf("SetValue(%s): %v", f, err)
			}
		}

		res, err := r.Submit(context.Background())
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if res.Email != "fresh@example.com" || !res.VerificationRequired {
			t.Fatalf("unexpected result: %+v", res)
		}
	})
}
