package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/sakif/course-advisor/internal/model"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func testUser(email string, role model.Role) model.User {
	return model.NewUser("Test", "User", email, "digest", role)
}

// =========================================================================
// TOKEN SERVICE CONSTRUCTION TESTS
// =========================================================================

func TestNewTokenService_ShortSecret(t *testing.T) {
	if _, err := NewTokenService("short"); err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
}

func TestNewTokenService_ValidSecret(t *testing.T) {
	if _, err := NewTokenService("this-is-16-chars"); err != nil {
		t.Fatalf("NewTokenService() unexpected error for valid secret: %v", err)
	}
}

// =========================================================================
// GENERATE / VALIDATE TESTS
// =========================================================================

func TestGenerate_LooksLikeJWT(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate(testUser("ada@example.com", model.RoleStudent))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got := strings.Count(token, "."); got != 2 {
		t.Errorf("token has %d dots, want 2 (header.payload.signature)", got)
	}
}

func TestGenerate_RequiresEmail(t *testing.T) {
	ts := newTestTokenService(t)

	if _, err := ts.Generate(testUser("", model.RoleStudent)); err == nil {
		t.Fatal("Generate() should refuse a user without an email")
	}
}

func TestValidate_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	for _, role := range []model.Role{model.RoleStudent, model.RoleAdmin} {
		t.Run(role.String(), func(t *testing.T) {
			token, err := ts.Generate(testUser("grace@example.com", role))
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}

			id, err := ts.Validate(token)
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if id.Email != "grace@example.com" {
				t.Errorf("Email = %q, want %q", id.Email, "grace@example.com")
			}
			if id.Role != role {
				t.Errorf("Role = %q, want %q", id.Role, role)
			}
			if id.IsAdmin() != (role == model.RoleAdmin) {
				t.Errorf("IsAdmin() = %v for role %q", id.IsAdmin(), role)
			}
		})
	}
}

func TestValidate_ExpiredToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateWithDuration(testUser("ada@example.com", model.RoleStudent), -1*time.Second)
	if err != nil {
		t.Fatalf("GenerateWithDuration() error = %v", err)
	}

	_, err = ts.Validate(token)
	if err == nil {
		t.Fatal("Validate() should return an error for an expired token")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Errorf("Validate() error = %q, want it to mention expiry", err)
	}
}

func TestValidate_TamperedToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, _ := ts.Generate(testUser("ada@example.com", model.RoleStudent))
	tampered := token[:len(token)-3] + "xxx"

	if _, err := ts.Validate(tampered); err == nil {
		t.Fatal("Validate() should return an error for a tampered token")
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	ts1, _ := NewTokenService("correct-secret-32-chars-long!!!!")
	ts2, _ := NewTokenService("wrong-secret-32-chars-long!!!!!!")

	token, _ := ts1.Generate(testUser("ada@example.com", model.RoleAdmin))

	if _, err := ts2.Validate(token); err == nil {
		t.Fatal("Validate() should fail when using a different secret")
	}
}

func TestValidate_Garbage(t *testing.T) {
	ts := newTestTokenService(t)

	for _, in := range []string{"", "not.a.jwt.token", "abc"} {
		if _, err := ts.Validate(in); err == nil {
			t.Errorf("Validate(%q) should return an error", in)
		}
	}
}
