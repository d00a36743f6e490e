package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/reelboard/reelboard/internal/models"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	a := New("test-secret")

	raw, err := a.Issue("u1", "Maya", models.RoleManager)
	if err != nil {
		t.Fatal(err)
	}

	id, err := a.Verify(raw)
	if err != nil {
		t.Fatal(err)
	}
	if id.UserID != "u1" {
		t.Fatalf("expected user u1, got %q", id.UserID)
	}
	if id.Role != models.RoleManager {
		t.Fatalf("expected role manager, got %q", id.Role)
	}
	if id.Name != "Maya" {
		t.Fatalf("expected name Maya, got %q", id.Name)
	}
}

func TestVerifyRejectsMissingToken(t *testing.T) {
	a := New("test-secret")
	if _, err := a.Verify(""); err != ErrMissingToken {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	raw, err := New("secret-a").Issue("u1", "Maya", models.RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New("secret-b").Verify(raw); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	secret := []byte("test-secret")
	claims := Claims{
		Name: "Maya",
		Role: "editor",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := New("test-secret").Verify(raw); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	claims := Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := New("test-secret").Verify(raw); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for alg=none, got %v", err)
	}
}
