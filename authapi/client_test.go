package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL+"/", WithLogger(zaptest.NewLogger(t)))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func TestLoginDecodesSuccessAndFailure(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != LoginPath {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get(RequestIDHeader) == "" {
			t.Error("missing request id header")
		}
		var body LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if body.Password == "correct-pass" {
			_ = json.NewEncoder(w).Encode(LoginWire{Success: true, Token: "tok"})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(LoginWire{Success: false, Message: "Invalid username or password"})
	}))

	ok, err := c.Login(context.Background(), LoginRequest{Username: "abcuser", Password: "correct-pass"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !ok.Success || ok.Token != "tok" {
		t.Fatalf("unexpected success response: %+v", ok)
	}

	bad, err := c.Login(context.Background(), LoginRequest{Username: "abcuser", Password: "wrong-pass"})
	if err != nil {
		t.Fatalf("explicit failure must not be a transport error: %v", err)
	}
	if bad.Success || bad.Message != "Invalid username or password" {
		t.Fatalf("unexpected failure response: %+v", bad)
	}
}

func TestCheckUsernameSendsQueryParameter(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != CheckUsernamePath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		exists := r.URL.Query().Get("username") == "taken_name"
		_ = json.NewEncoder(w).Encode(AvailabilityWire{Exists: exists})
	}))

	res, err := c.CheckUsername(context.Background(), "taken_name")
	if err != nil || !res.Exists {
		t.Fatalf("expected exists=true, got %+v err=%v", res, err)
	}
	res, err = c.CheckUsername(context.Background(), "free_name")
	if err != nil || res.Exists {
		t.Fatalf("expected exists=false, got %+v err=%v", res, err)
	}
}

func TestCheckEmailEscapesQuery(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("email"); got != "a+b@giftbox.ph" {
			t.Errorf("unexpected email query %q", got)
		}
		_ = json.NewEncoder(w).Encode(AvailabilityWire{Exists: false})
	}))

	if _, err := c.CheckEmail(context.Background(), "a+b@giftbox.ph"); err != nil {
		t.Fatalf("CheckEmail failed: %v", err)
	}
}

func TestMalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing exists", body: `{"available":true}`},
		{name: "wrong type", body: `{"exists":"yes"}`},
		{name: "not json", body: `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			_, err := c.CheckUsername(context.Background(), "abcuser")
			if !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

func TestServerErrorIsUnavailable(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))

	_, err := c.Register(context.Background(), RegisterRequest{Username: "abcuser"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestDeadlineIsTimeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Login(ctx, LoginRequest{Username: "abcuser", Password: "secret1"})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestConnectionRefusedIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c, err := NewClient(addr)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	_, err = c.CheckEmail(context.Background(), "buyer@giftbox.ph")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestNewClientRejectsBadBaseURL(t *testing.T) {
	for _, in := range []string{"", "ftp://host", "http://", "://bad"} {
		if _, err := NewClient(in); err == nil {
			t.Fatalf("NewClient(%q): expected error", in)
		}
	}
}
