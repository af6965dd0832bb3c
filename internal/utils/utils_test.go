package utils

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testJWTSecret = "taskmanager_test_jwt_secret_key_123456"

func TestMain(m *testing.M) {
	_ = os.Setenv("JWT_SECRET", testJWTSecret)
	code := m.Run()
	os.Exit(code)
}

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(42)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("expected user 42, got %d", claims.UserID)
	}
	if claims.Issuer != jwtIssuer {
		t.Fatalf("expected issuer %q, got %q", jwtIssuer, claims.Issuer)
	}
}

func TestGenerateTokenRejectsInvalidUser(t *testing.T) {
	if _, err := GenerateToken(0); err == nil {
		t.Fatalf("expected error for user 0")
	}
}

func TestValidateTokenRejects(t *testing.T) {
	expired, err := generateToken(5, time.Now().Add(-8*24*time.Hour))
	if err != nil {
		t.Fatalf("generateToken: %v", err)
	}

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: 5,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "5",
			Issuer:    jwtIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	foreignSigned, err := foreign.SignedString([]byte("another_secret_that_is_long_enough_123"))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}

	wrongIssuer := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: 5,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "5",
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	wrongIssuerSigned, err := wrongIssuer.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}

	subjectMismatch := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: 5,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "6",
			Issuer:    jwtIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	subjectMismatchSigned, err := subjectMismatch.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:           5,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "5", Issuer: jwtIssuer},
	})
	noExpirySigned, err := noExpiry.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}

	otherAlg := jwt.NewWithClaims(jwt.SigningMethodHS512, newClaims(5, time.Now()))
	otherAlgSigned, err := otherAlg.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "empty", token: "  ", wantErr: ErrInvalidToken},
		{name: "garbage", token: "not.a.jwt", wantErr: ErrInvalidToken},
		{name: "expired", token: expired, wantErr: ErrExpiredToken},
		{name: "foreign secret", token: foreignSigned, wantErr: ErrInvalidToken},
		{name: "wrong issuer", token: wrongIssuerSigned, wantErr: ErrInvalidToken},
		{name: "subject mismatch", token: subjectMismatchSigned, wantErr: ErrInvalidToken},
		{name: "no expiry", token: noExpirySigned, wantErr: ErrInvalidToken},
		{name: "hs512", token: otherAlgSigned, wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateToken(tt.token)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("Secret123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "Secret123" {
		t.Fatalf("hash equals plaintext")
	}
	if !CheckPasswordHash("Secret123", hash) {
		t.Fatalf("expected password to match")
	}
	if CheckPasswordHash("secret123", hash) {
		t.Fatalf("expected different password to fail")
	}
}

func TestHashPasswordTooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("a", MaxPasswordBytes+1))
	if !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
}
