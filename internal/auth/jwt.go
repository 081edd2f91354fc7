package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/course-advisor/internal/model"
)

const (
	tokenIssuer = "course-advisor"

	// DefaultTokenTTL is how long an API token stays valid.
	DefaultTokenTTL = time.Hour
)

// TokenService signs and validates HS256 tokens for the HTTP API.
//
// The token subject is the account email; the role travels as a private claim
// so admin-only routes can be gated without a database lookup.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and
// DefaultTokenTTL.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), ttl: DefaultTokenTTL}, nil
}

type claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity is what a validated token tells us about its bearer.
type Identity struct {
	Email string
	Role  model.Role
}

func (id Identity) IsAdmin() bool { return id.Role == model.RoleAdmin }

// Generate issues a token for user that expires after the service TTL.
func (s *TokenService) Generate(user model.User) (string, error) {
	return s.GenerateWithDuration(user, s.ttl)
}

// GenerateWithDuration issues a token with an explicit lifetime. A negative
// duration produces an already-expired token, which tests rely on.
func (s *TokenService) GenerateWithDuration(user model.User, d time.Duration) (string, error) {
	if user.Email == "" {
		return "", errors.New("auth: cannot issue token without an email")
	}

	now := time.Now()
	c := claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses tokenStr and returns the bearer's identity.
//
// Rejected: wrong algorithm, wrong issuer, missing or past expiry, bad
// signature, empty subject, unknown role.
func (s *TokenService) Validate(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("auth: token expired")
		}
		return Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return Identity{}, fmt.Errorf("auth: token has no subject")
	}
	role, ok := model.ParseRole(string(c.Role))
	if !ok {
		return Identity{}, fmt.Errorf("auth: token carries unknown role %q", c.Role)
	}

	return Identity{Email: c.Subject, Role: role}, nil
}
