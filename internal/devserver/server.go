package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/authgate/authapi"
	"github.com/MrEthical07/authgate/clock"
	"github.com/MrEthical07/authgate/internal/rate"
	"github.com/MrEthical07/authgate/rules"
	"github.com/MrEthical07/authgate/token"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	messageLoginSuccess    = "Login successful"
	messageBadCredentials  = "Invalid username or password"
	messageRegistered      = "Registration successful"
	messageUsernameTaken   = "Username already taken"
	messageEmailRegistered = "Email already registered"
	messageBadRequest      = "Invalid request body"
	messageRateLimited     = "Too many login attempts. Please try again later."
)

// SeedUser is an account created at startup.
type SeedUser struct {
	User     User
	Password string
}

// Config controls a Server. Zero values pick development defaults.
type Config struct {
	// Delay is added before every API response to mimic a slow backend.
	Delay          time.Duration
	TokenSecret    []byte
	TokenTTL       time.Duration
	TokenIssuer    string
	BcryptCost     int
	AllowedOrigins []string
	Seed           []SeedUser
	Clock          clock.Clock

	// Redis enables the server-side failed-login limiter. LoginLimit
	// failures per username or IP within LoginWindow answer 429.
	Redis       redis.UniversalClient
	LoginLimit  int
	LoginWindow time.Duration

	Logger *zap.Logger
}

// Server is the development auth backend.
type Server struct {
	store   *Store
	issuer  *token.Issuer
	limiter *rate.Limiter
	delay   time.Duration
	clock   clock.Clock
	logger  *zap.Logger
	router  chi.Router
}

// DefaultSeed returns the demo accounts the examples log in with.
func DefaultSeed() []SeedUser {
	return []SeedUser{
		{
			User: User{
				FirstName: "Juan",
				LastName:  "Dela Cruz",
				Username:  "juandc",
				Email:     "juan@example.com",
				Address:   "123 Rizal Street",
				Region:    "NCR",
				Province:  "Metro Manila",
				City:      "Quezon City",
				Barangay:  "Bagumbayan",
				Postal:    "1110",
			},
			Password: "Storefront1!",
		},
		{
			User: User{
				FirstName: "Maria",
				LastName:  "Santos",
				Username:  "msantos",
				Email:     "maria@example.com",
				Address:   "45 Mabini Avenue",
				Region:    "Region VII",
				Province:  "Cebu",
				City:      "Cebu City",
				Barangay:  "Lahug",
				Postal:    "6000",
			},
			Password: "Storefront2!",
		},
	}
}

// New builds a Server and loads the seed accounts.
func New(cfg Config) (*Server, error) {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.TokenIssuer == "" {
		cfg.TokenIssuer = "authgate-devserver"
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://*", "https://*"}
	}

	issuer, err := token.NewIssuer(cfg.TokenSecret, cfg.TokenTTL, cfg.TokenIssuer)
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}

	s := &Server{
		store:  NewStore(cfg.BcryptCost),
		issuer: issuer,
		delay:  cfg.Delay,
		clock:  cfg.Clock,
		logger: cfg.Logger,
	}
	if cfg.Redis != nil {
		if cfg.LoginLimit <= 0 {
			cfg.LoginLimit = 5
		}
		if cfg.LoginWindow <= 0 {
			cfg.LoginWindow = 15 * time.Minute
		}
		s.limiter = rate.New(cfg.Redis, rate.Config{
			Prefix:           "agdev",
			MaxLoginAttempts: cfg.LoginLimit,
			Window:           cfg.LoginWindow,
			EnableIPThrottle: true,
		})
	}
	for _, seed := range cfg.Seed {
		if _, err := s.store.Create(seed.User, seed.Password, s.clock.Now()); err != nil {
			return nil, fmt.Errorf("seed %s: %w", seed.User.Username, err)
		}
	}
	s.router = s.routes(cfg.AllowedOrigins)
	return s, nil
}

// Store exposes the backing user store.
func (s *Server) Store() *Store {
	return s.store
}

// Issuer exposes the token issuer so callers can verify login tokens.
func (s *Server) Issuer() *token.Issuer {
	return s.issuer
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes(origins []string) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", authapi.RequestIDHeader},
		ExposedHeaders: []string{authapi.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.slow)
		r.Post(authapi.LoginPath, s.handleLogin)
		r.Get(authapi.CheckUsernamePath, s.handleCheckUsername)
		r.Get(authapi.CheckEmailPath, s.handleCheckEmail)
		r.Post(authapi.RegisterPath, s.handleRegister)
	})
	return r
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("devserver request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

// slow holds the response for the configured delay, or until the client
// goes away.
func (s *Server) slow(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.delay > 0 {
			if err := sleep(r.Context(), s.delay); err != nil {
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req authapi.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, authapi.LoginWire{Success: false, Message: messageBadRequest})
		return
	}

	ctx := r.Context()
	ip := clientIP(r)
	if s.limiter != nil {
		switch err := s.limiter.CheckLogin(ctx, req.Username, ip); {
		case errors.Is(err, rate.ErrRateLimited):
			writeJSON(w, http.StatusTooManyRequests, authapi.LoginWire{Success: false, Message: messageRateLimited})
			return
		case err != nil:
			s.logger.Warn("login limiter unavailable", zap.Error(err))
		}
	}

	u, err := s.store.Authenticate(req.Username, req.Password)
	if err != nil {
		if s.limiter != nil {
			if err := s.limiter.IncrementLogin(ctx, req.Username, ip); err != nil {
				s.logger.Warn("login limiter unavailable", zap.Error(err))
			}
		}
		writeJSON(w, http.StatusUnauthorized, authapi.LoginWire{Success: false, Message: messageBadCredentials})
		return
	}
	if s.limiter != nil {
		if err := s.limiter.ResetLogin(ctx, req.Username); err != nil {
			s.logger.Warn("login limiter unavailable", zap.Error(err))
		}
	}

	tok, err := s.issuer.Issue(u.ID, u.Username, s.clock.Now())
	if err != nil {
		s.logger.Error("issue token", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, authapi.LoginWire{Success: false, Message: "Internal error"})
		return
	}
	writeJSON(w, http.StatusOK, authapi.LoginWire{Success: true, Message: messageLoginSuccess, Token: tok})
}

func (s *Server) handleCheckUsername(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		writeJSON(w, http.StatusBadRequest, authapi.RegisterWire{Success: false, Message: "username is required"})
		return
	}
	writeJSON(w, http.StatusOK, authapi.AvailabilityWire{Exists: s.store.UsernameExists(username)})
}

func (s *Server) handleCheckEmail(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeJSON(w, http.StatusBadRequest, authapi.RegisterWire{Success: false, Message: "email is required"})
		return
	}
	writeJSON(w, http.StatusOK, authapi.AvailabilityWire{Exists: s.store.EmailExists(email)})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req authapi.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, authapi.RegisterWire{Success: false, Message: messageBadRequest})
		return
	}
	if msg := validateRegister(req); msg != "" {
		writeJSON(w, http.StatusBadRequest, authapi.RegisterWire{Success: false, Message: msg})
		return
	}

	_, err := s.store.Create(User{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Username:  strings.TrimSpace(req.Username),
		Email:     strings.TrimSpace(req.Email),
		Address:   strings.TrimSpace(req.Address),
		Region:    strings.TrimSpace(req.Region),
		Province:  strings.TrimSpace(req.Province),
		City:      strings.TrimSpace(req.City),
		Barangay:  strings.TrimSpace(req.Barangay),
		Postal:    strings.TrimSpace(req.Postal),
	}, req.Password, s.clock.Now())
	switch {
	case errors.Is(err, ErrUsernameTaken):
		writeJSON(w, http.StatusConflict, authapi.RegisterWire{Success: false, Message: messageUsernameTaken})
	case errors.Is(err, ErrEmailTaken):
		writeJSON(w, http.StatusConflict, authapi.RegisterWire{Success: false, Message: messageEmailRegistered})
	case err != nil:
		s.logger.Error("create user", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, authapi.RegisterWire{Success: false, Message: "Internal error"})
	default:
		writeJSON(w, http.StatusCreated, authapi.RegisterWire{Success: true, Message: messageRegistered})
	}
}

// validateRegister repeats the client's format checks. The password policy
// stays client side, as on the storefront server.
func validateRegister(req authapi.RegisterRequest) string {
	checks := []string{
		rules.Required("First name", req.FirstName),
		rules.Required("Last name", req.LastName),
		rules.Username(req.Username, rules.MinUsernameLength),
		rules.Email(req.Email),
		rules.Required("Password", req.Password),
		rules.Required("Address", req.Address),
		rules.Required("Region", req.Region),
		rules.Required("Province", req.Province),
		rules.Required("City", req.City),
		rules.Required("Barangay", req.Barangay),
		rules.Postal(req.Postal, rules.MinPostalDigits, rules.MaxPostalDigits),
	}
	for _, msg := range checks {
		if msg != "" {
			return msg
		}
	}
	return ""
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
