package devserver

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUnknownUser   = errors.New("unknown user")
	ErrBadPassword   = errors.New("password mismatch")
)

// User is one stored account.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Username     string
	Email        string
	PasswordHash []byte
	Address      string
	Region       string
	Province     string
	City         string
	Barangay     string
	Postal       string
	CreatedAt    time.Time
}

// Store keeps users in memory, indexed case-insensitively by username and
// email.
type Store struct {
	mu         sync.RWMutex
	cost       int
	byUsername map[string]*User
	byEmail    map[string]*User
}

func NewStore(bcryptCost int) *Store {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Store{
		cost:       bcryptCost,
		byUsername: make(map[string]*User),
		byEmail:    make(map[string]*User),
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Create hashes the password and stores u. The hash is computed before the
// lock is taken.
func (s *Store) Create(u User, password string, now time.Time) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[normalize(u.Username)]; ok {
		return nil, ErrUsernameTaken
	}
	if _, ok := s.byEmail[normalize(u.Email)]; ok {
		return nil, ErrEmailTaken
	}

	stored := u
	stored.ID = uuid.NewString()
	stored.PasswordHash = hash
	stored.CreatedAt = now
	s.byUsername[normalize(u.Username)] = &stored
	s.byEmail[normalize(u.Email)] = &stored
	out := stored
	return &out, nil
}

func (s *Store) UsernameExists(username string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byUsername[normalize(username)]
	return ok
}

func (s *Store) EmailExists(email string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byEmail[normalize(email)]
	return ok
}

// Authenticate returns the user when username and password match.
func (s *Store) Authenticate(username, password string) (*User, error) {
	s.mu.RLock()
	u, ok := s.byUsername[normalize(username)]
	var copyU User
	if ok {
		copyU = *u
	}
	s.mu.RUnlock()

	if !ok {
		return nil, ErrUnknownUser
	}
	if err := bcrypt.CompareHashAndPassword(copyU.PasswordHash, []byte(password)); err != nil {
		return nil, ErrBadPassword
	}
	return &copyU, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byUsername)
}
