// Package auth owns accounts and credentials: registration, password checks
// and session token issue/validation.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"taskmanager/internal/apperr"
	"taskmanager/internal/models"
	"taskmanager/internal/utils"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

const maxNameLength = 100

// UserStore persists accounts. Create must report a duplicate email as an
// apperr.Conflict and the finders must report a missing user as
// apperr.NotFound.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id int) (*models.User, error)
}

// Service is the credential store used by the HTTP layer and the session
// gate.
type Service struct {
	users UserStore
}

func NewService(users UserStore) *Service {
	return &Service{users: users}
}

// Register validates and creates an account. The email is stored
// lower-cased.
func (s *Service) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if name == "" || email == "" || password == "" {
		return nil, apperr.New(apperr.Validation, "Name, email and password are required")
	}
	if strings.ContainsRune(name, 0) || strings.ContainsRune(email, 0) {
		return nil, apperr.New(apperr.Validation, "Name and email must not contain null characters")
	}
	if len([]rune(name)) > maxNameLength {
		return nil, apperr.New(apperr.Validation, fmt.Sprintf("Name must be at most %d characters", maxNameLength))
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, apperr.New(apperr.Validation, "Invalid email format")
	}
	if len(password) < MinPasswordLength {
		return nil, apperr.New(apperr.Validation, fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return nil, apperr.New(apperr.Validation, "Password must be at most 72 bytes")
		}
		return nil, apperr.Wrap(apperr.Internal, "hash password", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// VerifyCredentials returns the id of the account matching email and
// password. Unknown emails and wrong passwords fail the same way.
func (s *Service) VerifyCredentials(ctx context.Context, email, password string) (int, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return 0, apperr.New(apperr.Validation, "Email and password are required")
	}
	// No stored address can hold a NUL, so skip the lookup.
	if strings.ContainsRune(email, 0) {
		return 0, apperr.New(apperr.Unauthenticated, "Invalid credentials")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return 0, apperr.New(apperr.Unauthenticated, "Invalid credentials")
		}
		return 0, err
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return 0, apperr.New(apperr.Unauthenticated, "Invalid credentials")
	}
	return user.ID, nil
}

// IssueToken signs a session token for userID.
func (s *Service) IssueToken(userID int) (string, error) {
	token, err := utils.GenerateToken(userID)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "generate token", err)
	}
	return token, nil
}

// ValidateToken returns the user id a session token was issued for.
func (s *Service) ValidateToken(token string) (int, error) {
	claims, err := utils.ValidateToken(token)
	if err != nil {
		if errors.Is(err, utils.ErrExpiredToken) {
			return 0, apperr.Wrap(apperr.Unauthenticated, "Token has expired", err)
		}
		return 0, apperr.Wrap(apperr.Unauthenticated, "Invalid token", err)
	}
	return claims.UserID, nil
}

// User returns the account with id.
func (s *Service) User(ctx context.Context, id int) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
