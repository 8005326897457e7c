package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenMalformed indicates the login response carried an unparsable token.
	ErrTokenMalformed = errors.New("malformed token")
	// ErrTokenExpired indicates the decoded token is already past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the display-level view of an access token.
type Claims struct {
	Subject   string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type accessClaims struct {
	Username string `json:"usr,omitempty"`
	jwt.RegisteredClaims
}

// Decode parses tokenStr without signature verification. A token whose
// expiry is before now yields ErrTokenExpired alongside the decoded claims.
func Decode(tokenStr string, now time.Time) (*Claims, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return nil, ErrTokenMalformed
	}

	parser := jwt.NewParser()
	var raw accessClaims
	if _, _, err := parser.ParseUnverified(tokenStr, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	claims := &Claims{
		Subject:  raw.Subject,
		Username: raw.Username,
	}
	if raw.IssuedAt != nil {
		claims.IssuedAt = raw.IssuedAt.Time
	}
	if raw.ExpiresAt != nil {
		claims.ExpiresAt = raw.ExpiresAt.Time
		if !now.Before(claims.ExpiresAt) {
			return claims, ErrTokenExpired
		}
	}

	return claims, nil
}

// Issuer signs HS256 access tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewIssuer returns an Issuer. The secret must be at least 32 bytes.
func NewIssuer(secret []byte, ttl time.Duration, issuer string) (*Issuer, error) {
	if len(secret) < 32 {
		return nil, errors.New("hs256 secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &Issuer{secret: key, ttl: ttl, issuer: issuer}, nil
}

// Issue returns a signed token for the given subject.
func (i *Issuer) Issue(subject, username string, now time.Time) (string, error) {
	claims := accessClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(i.secret)
}

// Verify checks the signature and expiry of tokenStr.
func (i *Issuer) Verify(tokenStr string) (*Claims, error) {
	var raw accessClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
	)
	_, err := parser.ParseWithClaims(tokenStr, &raw, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	claims := &Claims{Subject: raw.Subject, Username: raw.Username}
	if raw.IssuedAt != nil {
		claims.IssuedAt = raw.IssuedAt.Time
	}
	if raw.ExpiresAt != nil {
		claims.ExpiresAt = raw.ExpiresAt.Time
	}
	return claims, nil
}
