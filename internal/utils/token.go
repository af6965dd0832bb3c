package utils

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	jwtIssuer         = "taskmanager-api"
	minJWTSecretBytes = 32
	tokenTTL          = 7 * 24 * time.Hour
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims identifies the account a session token was issued for. Subject
// repeats UserID as a decimal string.
type Claims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

// signingKey is read from JWT_SECRET on first use and cached along with any
// error, so a bad secret keeps failing the same way.
var signingKey struct {
	once  sync.Once
	value []byte
	err   error
}

func loadSigningKey() ([]byte, error) {
	signingKey.once.Do(func() {
		secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
		switch {
		case secret == "":
			signingKey.err = errors.New("JWT_SECRET is required")
		case len(secret) < minJWTSecretBytes:
			signingKey.err = fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretBytes)
		default:
			signingKey.value = []byte(secret)
		}
	})
	return signingKey.value, signingKey.err
}

// EnsureJWTReady lets startup fail fast on a missing or short JWT_SECRET.
func EnsureJWTReady() error {
	_, err := loadSigningKey()
	return err
}

func GenerateToken(userID int) (string, error) {
	return generateToken(userID, time.Now())
}

func generateToken(userID int, issuedAt time.Time) (string, error) {
	if userID <= 0 {
		return "", fmt.Errorf("cannot issue a token for user %d", userID)
	}
	key, err := loadSigningKey()
	if err != nil {
		return "", err
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, newClaims(userID, issuedAt)).SignedString(key)
}

func newClaims(userID int, issuedAt time.Time) Claims {
	return Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtIssuer,
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(tokenTTL)),
		},
	}
}

var tokenParser = jwt.NewParser(
	jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	jwt.WithIssuer(jwtIssuer),
	jwt.WithExpirationRequired(),
)

// ValidateToken returns the claims of a token this service signed. Expired
// tokens fail with ErrExpiredToken and every other rejection wraps
// ErrInvalidToken.
func ValidateToken(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	key, err := loadSigningKey()
	if err != nil {
		return nil, err
	}

	claims := &Claims{}
	_, err = tokenParser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	case claims.UserID <= 0:
		return nil, fmt.Errorf("%w: no user", ErrInvalidToken)
	case claims.Subject != strconv.Itoa(claims.UserID):
		return nil, fmt.Errorf("%w: subject %q does not name user %d", ErrInvalidToken, claims.Subject, claims.UserID)
	}
	return claims, nil
}
