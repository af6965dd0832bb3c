package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"taskmanager/internal/apperr"
	"taskmanager/internal/models"
)

// UserStore is an in-memory account store with case-insensitive unique
// emails.
type UserStore struct {
	mu      sync.RWMutex
	nextID  int
	users   map[int]models.User
	byEmail map[string]int
}

func NewUserStore() *UserStore {
	return &UserStore{
		users:   make(map[int]models.User),
		byEmail: make(map[string]int),
	}
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return apperr.Wrap(apperr.Store, "insert user", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, exists := s.byEmail[key]; exists {
		return apperr.New(apperr.Conflict, "User with this email already exists")
	}

	s.nextID++
	now := time.Now().UTC()
	user.ID = s.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	s.byEmail[key] = user.ID
	return nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Store, "query user", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, found := s.byEmail[strings.ToLower(email)]
	if !found {
		return nil, apperr.New(apperr.NotFound, "User not found")
	}
	user := s.users[id]
	return &user, nil
}

func (s *UserStore) FindByID(ctx context.Context, id int) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Store, "query user", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, found := s.users[id]
	if !found {
		return nil, apperr.New(apperr.NotFound, "User not found")
	}
	return &user, nil
}
