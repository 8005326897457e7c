package devserver

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestStoreCreateAndAuthenticate(t *testing.T) {
	s := NewStore(bcrypt.MinCost)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	u, err := s.Create(User{Username: "Alice", Email: "Alice@Example.com"}, "Secret1!", now)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if u.ID == "" || !u.CreatedAt.Equal(now) {
		t.Fatalf("unexpected stored user: %+v", u)
	}
	if string(u.PasswordHash) == "Secret1!" {
		t.Fatal("password stored in clear")
	}

	if !s.UsernameExists("alice") || !s.EmailExists("alice@example.COM") {
		t.Fatal("lookups must be case-insensitive")
	}

	if _, err := s.Authenticate("ALICE", "Secret1!"); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if _, err := s.Authenticate("alice", "wrong"); !errors.Is(err, ErrBadPassword) {
		t.Fatalf("expected ErrBadPassword, got %v", err)
	}
	if _, err := s.Authenticate("bob", "Secret1!"); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("expected ErrUnknownUser, got %v", err)
	}
}

func TestStoreRejectsDuplicates(t *testing.T) {
	s := NewStore(bcrypt.MinCost)
	now := time.Now()

	if _, err := s.Create(User{Username: "alice", Email: "alice@example.com"}, "pw", now); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	tests := []struct {
		name string
		user User
		want error
	}{
		{name: "username", user: User{Username: " ALICE ", Email: "other@example.com"}, want: ErrUsernameTaken},
		{name: "email", user: User{Username: "bob", Email: "ALICE@example.com"}, want: ErrEmailTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Create(tt.user, "pw", now); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 user, got %d", s.Len())
	}
}
