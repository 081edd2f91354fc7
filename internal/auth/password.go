// Package auth holds the credential primitives: bcrypt password digests for
// account login and signed JWTs for the HTTP API.
//
// PASSWORD DIGESTS:
// A digest is the full output of bcrypt.GenerateFromPassword:
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost
//	 version
//
// It embeds salt and cost, so it is stored as one opaque string and only ever
// compared through Verify.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when configuration does not say
// otherwise.
const DefaultCost = 12

// maxPasswordBytes is bcrypt's input limit. Longer inputs are rejected instead
// of being truncated silently.
const maxPasswordBytes = 72

// Hasher is the hashing capability consumed by the account service.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// PasswordService provides bcrypt hashing and verification.
type PasswordService struct {
	cost int
}

var _ Hasher = (*PasswordService)(nil)

// NewPasswordService creates a PasswordService with DefaultCost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: DefaultCost}
}

// NewPasswordServiceWithCost creates a PasswordService with a custom cost.
// Values outside bcrypt's range fall back to DefaultCost. Tests use cost 4
// (the minimum) to keep hashing fast.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &PasswordService{cost: cost}
}

// Hash hashes plaintext with bcrypt and returns the digest as a string.
//
// Returns an error if the plaintext is longer than 72 bytes.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", maxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify reports whether plaintext matches digest. A wrong password, an empty
// password and a malformed digest all yield false; it never returns an error.
//
// bcrypt.CompareHashAndPassword compares in constant time.
func (p *PasswordService) Verify(plaintext, digest string) bool {
	return p.Compare(plaintext, digest) == nil
}

// Compare is Verify with the reason attached, for callers that want to log why
// a check failed.
func (p *PasswordService) Compare(plaintext, digest string) error {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
