// Package session resolves bearer tokens into callers. It fails closed: any
// doubt about a token ends in apperr.Unauthenticated.
package session

import (
	"context"
	"strings"

	"taskmanager/internal/apperr"
	"taskmanager/internal/models"
)

// Credentials is the part of the credential store the gate depends on.
type Credentials interface {
	ValidateToken(token string) (int, error)
	User(ctx context.Context, id int) (*models.User, error)
}

type Gate struct {
	creds Credentials
}

func NewGate(creds Credentials) *Gate {
	return &Gate{creds: creds}
}

// Resolve returns the caller a token belongs to. Tokens for users that no
// longer exist are rejected; a store failure is reported as apperr.Store.
func (g *Gate) Resolve(ctx context.Context, token string) (models.Caller, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.Caller{}, apperr.New(apperr.Unauthenticated, "Not authorized, no token")
	}

	userID, err := g.creds.ValidateToken(token)
	if err != nil {
		return models.Caller{}, apperr.Wrap(apperr.Unauthenticated, "Not authorized, token failed", err)
	}

	user, err := g.creds.User(ctx, userID)
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.NotFound:
			return models.Caller{}, apperr.Wrap(apperr.Unauthenticated, "Not authorized, user not found", err)
		case apperr.Store:
			return models.Caller{}, err
		default:
			return models.Caller{}, apperr.Wrap(apperr.Store, "resolve session user", err)
		}
	}

	return models.Caller{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
	}, nil
}
