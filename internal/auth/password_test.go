package auth

import (
	"strings"
	"testing"
)

// =========================================================================
// HELPER
// =========================================================================

// newTestPasswordService returns a PasswordService with bcrypt cost 4, the
// minimum bcrypt accepts.
func newTestPasswordService() *PasswordService {
	return NewPasswordServiceWithCost(4)
}

// =========================================================================
// Hash TESTS
// =========================================================================

func TestHash_OutputLooksBcrypt(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("password123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("Hash() does not look like a bcrypt hash: %q", hash)
	}
}

func TestHash_SamePasswordProducesDifferentHashes(t *testing.T) {
	ps := newTestPasswordService()

	hash1, _ := ps.Hash("same-password")
	hash2, _ := ps.Hash("same-password")

	if hash1 == hash2 {
		t.Error("Hash() produced identical hashes for the same password (salt must be random)")
	}
}

func TestHash_RejectsPasswordOver72Bytes(t *testing.T) {
	ps := newTestPasswordService()

	if _, err := ps.Hash(strings.Repeat("a", 73)); err == nil {
		t.Fatal("Hash() should return an error for passwords longer than 72 bytes")
	}
	if _, err := ps.Hash(strings.Repeat("a", 72)); err != nil {
		t.Fatalf("Hash() should accept a 72-byte password, got error: %v", err)
	}
}

func TestNewPasswordServiceWithCost_OutOfRangeFallsBack(t *testing.T) {
	if ps := NewPasswordServiceWithCost(1); ps.cost != DefaultCost {
		t.Errorf("cost = %d, want DefaultCost for too-low input", ps.cost)
	}
	if ps := NewPasswordServiceWithCost(99); ps.cost != DefaultCost {
		t.Errorf("cost = %d, want DefaultCost for too-high input", ps.cost)
	}
}

// =========================================================================
// Verify TESTS
// =========================================================================

func TestVerify(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	tests := []struct {
		name      string
		plaintext string
		digest    string
		want      bool
	}{
		{"correct password", "correct-horse-battery-staple", hash, true},
		{"wrong password", "Tr0ub4dor&3", hash, false},
		{"empty password", "", hash, false},
		{"garbage digest", "correct-horse-battery-staple", "not-a-bcrypt-hash", false},
		{"empty digest", "correct-horse-battery-staple", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ps.Verify(tt.plaintext, tt.digest); got != tt.want {
				t.Errorf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompare_ExplainsMismatch(t *testing.T) {
	ps := newTestPasswordService()
	hash, _ := ps.Hash("the-real-password")

	err := ps.Compare("the-wrong-password", hash)
	if err == nil {
		t.Fatal("Compare() should return an error for a wrong password")
	}
	if !strings.Contains(err.Error(), "invalid password") {
		t.Errorf("Compare() error = %q, want it to mention invalid password", err)
	}
}

func TestHashVerify_RoundTrip(t *testing.T) {
	ps := newTestPasswordService()

	for _, pw := range []string{"hello123", "p@$$w0rd!#%", "пароль-密码", "  padded  "} {
		t.Run(pw, func(t *testing.T) {
			hash, err := ps.Hash(pw)
			if err != nil {
				t.Fatalf("Hash(%q) error = %v", pw, err)
			}
			if !ps.Verify(pw, hash) {
				t.Errorf("Verify() failed for %q", pw)
			}
		})
	}
}
