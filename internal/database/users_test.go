package database

import (
	"context"
	"regexp"
	"testing"
	"time"

	"taskmanager/internal/apperr"
	"taskmanager/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
)

func TestUserRepositoryCreate(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	now := time.Now()
	mock.
		ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (name, email, password) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`)).
		WithArgs("Ada", "ada@example.com", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(12, now, now))

	user := &models.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "hash"}
	if err := NewUserRepository(db).Create(context.Background(), user); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if user.ID != 12 {
		t.Fatalf("expected id 12, got %d", user.ID)
	}

	expectationsMet(t, mock)
}

func TestUserRepositoryCreateDuplicateEmail(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.
		ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := NewUserRepository(db).Create(context.Background(), &models.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "hash"})
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	expectationsMet(t, mock)
}

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	now := time.Now()
	mock.
		ExpectQuery(regexp.QuoteMeta(`SELECT id, name, email, password, created_at, updated_at FROM users WHERE email = $1`)).
		WithArgs("ada@example.com").
		WillReturnRows(
			sqlmock.NewRows([]string{"id", "name", "email", "password", "created_at", "updated_at"}).
				AddRow(12, "Ada", "ada@example.com", "hash", now, now),
		)
	mock.
		ExpectQuery(regexp.QuoteMeta(`SELECT id, name, email, password, created_at, updated_at FROM users WHERE id = $1`)).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password", "created_at", "updated_at"}))

	repo := NewUserRepository(db)
	user, err := repo.FindByEmail(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if user.ID != 12 || user.PasswordHash != "hash" {
		t.Fatalf("unexpected user %#v", user)
	}

	if _, err := repo.FindByID(context.Background(), 99); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	expectationsMet(t, mock)
}
