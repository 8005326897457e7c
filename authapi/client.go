// Package authapi is the HTTP client for the storefront's four auth
// endpoints: login, check-username, check-email, and register.
//
// Responses are decoded into one explicit result type per endpoint and
// checked at this boundary; callers never see raw JSON maps.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	LoginPath         = "/api/auth/login"
	CheckUsernamePath = "/api/auth/check-username"
	CheckEmailPath    = "/api/auth/check-email"
	RegisterPath      = "/api/auth/register"

	// RequestIDHeader carries a per-request correlation id.
	RequestIDHeader = "X-Request-ID"

	maxResponseBytes = 1 << 20
	defaultUserAgent = "authgate/1"
)

var (
	// ErrTimeout indicates the request exceeded its deadline.
	ErrTimeout = errors.New("auth backend request timed out")
	// ErrUnavailable indicates a transport failure or a 5xx response.
	ErrUnavailable = errors.New("auth backend unavailable")
	// ErrMalformedResponse indicates a body that does not match the endpoint's result shape.
	ErrMalformedResponse = errors.New("auth backend returned malformed response")
)

// Client talks to the storefront auth API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client. Per-call deadlines come
// from the request context, so the client should not set its own Timeout
// shorter than the login timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a Client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("invalid base URL: missing host")
	}

	c := &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: &http.Client{},
		userAgent:  defaultUserAgent,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalised API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login posts credentials. A response with success=false is returned as a
// result, not an error.
func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	var raw loginWire
	if err := c.do(ctx, http.MethodPost, LoginPath, nil, req, &raw); err != nil {
		return LoginResponse{}, err
	}
	return raw.validate()
}

// CheckUsername asks whether username is already registered.
func (c *Client) CheckUsername(ctx context.Context, username string) (AvailabilityResponse, error) {
	return c.checkAvailability(ctx, CheckUsernamePath, "username", username)
}

// CheckEmail asks whether email is already registered.
func (c *Client) CheckEmail(ctx context.Context, email string) (AvailabilityResponse, error) {
	return c.checkAvailability(ctx, CheckEmailPath, "email", email)
}

// Register submits a completed sign-up form.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	var raw registerWire
	if err := c.do(ctx, http.MethodPost, RegisterPath, nil, req, &raw); err != nil {
		return RegisterResponse{}, err
	}
	return raw.validate()
}

func (c *Client) checkAvailability(ctx context.Context, path, param, value string) (AvailabilityResponse, error) {
	var raw availabilityWire
	q := url.Values{}
	q.Set(param, value)
	if err := c.do(ctx, http.MethodGet, path, q, nil, &raw); err != nil {
		return AvailabilityResponse{}, err
	}
	return raw.validate()
}

// do issues one request and decodes the JSON body into out. 4xx bodies are
// decoded too, because the API reports explicit failures with a 4xx status
// and a {success:false,message} body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	if ctx == nil {
		ctx = context.Background()
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("auth api request failed",
			zap.String("request_id", requestID),
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("auth api response",
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode >= http.StatusInternalServerError {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return classifyTransportError(ctx, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		}
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) && ctx.Err() == context.Canceled {
		return context.Canceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
