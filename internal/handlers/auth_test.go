package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"testing"
	"time"

	"taskmanager/internal/utils"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestRegisterSuccess(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	now := time.Now()
	mock.
		ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (name, email, password) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`)).
		WithArgs("Demo User", "user@example.com", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(101, now, now))

	router, _ := newPostgresRouter(db)
	resp := doJSON(router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Demo User",
		"email":    "User@example.com",
		"password": "Secret123",
	})
	mustStatus(t, resp.Code, http.StatusCreated)

	var out struct {
		Message string `json:"message"`
		Token   string `json:"token"`
		User    struct {
			ID    int    `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"user"`
	}
	decodeJSON(t, resp, &out)
	if out.Token == "" {
		t.Fatalf("expected non-empty token")
	}
	if out.User.ID != 101 || out.User.Email != "user@example.com" || out.User.Name != "Demo User" {
		t.Fatalf("unexpected user %+v", out.User)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestLoginSuccess(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	hashed, err := utils.HashPassword("Secret123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	now := time.Now()
	userColumns := []string{"id", "name", "email", "password", "created_at", "updated_at"}
	mock.
		ExpectQuery(regexp.QuoteMeta(`SELECT id, name, email, password, created_at, updated_at FROM users WHERE email = $1`)).
		WithArgs("user@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(101, "Demo User", "user@example.com", hashed, now, now))
	mock.
		ExpectQuery(regexp.QuoteMeta(`SELECT id, name, email, password, created_at, updated_at FROM users WHERE id = $1`)).
		WithArgs(101).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(101, "Demo User", "user@example.com", hashed, now, now))

	router, _ := newPostgresRouter(db)
	resp := doJSON(router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "User@example.com",
		"password": "Secret123",
	})
	expectHTTP200(t, resp.Code)

	var out map[string]any
	decodeJSON(t, resp, &out)
	token, _ := out["token"].(string)
	if token == "" {
		t.Fatalf("expected non-empty token")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestLoginStoreFailureIsHidden(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery(`FROM users WHERE email`).WillReturnError(errors.New("connection reset by peer"))

	router, _ := newPostgresRouter(db)
	resp := doJSON(router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "user@example.com",
		"password": "Secret123",
	})
	mustStatus(t, resp.Code, http.StatusInternalServerError)
	expectErrorBody(t, resp, "Internal server error")
}

func TestRegisterRejectsBadInput(t *testing.T) {
	router, _ := newMemoryRouter()

	tests := []struct {
		name string
		body any
		want int
	}{
		{name: "malformed json", body: `{"email":`, want: http.StatusBadRequest},
		{name: "missing name", body: map[string]string{"email": "a@example.com", "password": "Secret123"}, want: http.StatusBadRequest},
		{name: "invalid email", body: map[string]string{"name": "A", "email": "nope", "password": "Secret123"}, want: http.StatusBadRequest},
		{name: "short password", body: map[string]string{"name": "A", "email": "a@example.com", "password": "123"}, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(router, http.MethodPost, "/api/auth/register", "", tt.body)
			mustStatus(t, resp.Code, tt.want)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	router, _ := newMemoryRouter()
	registerUser(t, router, "Ada", "ada@example.com")

	resp := doJSON(router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Ada Again",
		"email":    "ADA@example.com",
		"password": "Secret123",
	})
	mustStatus(t, resp.Code, http.StatusConflict)
	expectErrorBody(t, resp, "User with this email already exists")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	router, _ := newMemoryRouter()
	registerUser(t, router, "Ada", "ada@example.com")

	wrongPassword := doJSON(router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "not-the-password",
	})
	mustStatus(t, wrongPassword.Code, http.StatusUnauthorized)
	expectErrorBody(t, wrongPassword, "Invalid credentials")

	unknown := doJSON(router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "Secret123",
	})
	mustStatus(t, unknown.Code, http.StatusUnauthorized)
	expectErrorBody(t, unknown, "Invalid credentials")

	missing := doJSON(router, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ada@example.com"})
	mustStatus(t, missing.Code, http.StatusBadRequest)
}

func TestMe(t *testing.T) {
	router, _ := newMemoryRouter()
	token := registerUser(t, router, "Ada", "ada@example.com")

	resp := doJSON(router, http.MethodGet, "/api/auth/me", token, nil)
	expectHTTP200(t, resp.Code)

	var out map[string]any
	decodeJSON(t, resp, &out)
	if out["email"] != "ada@example.com" || out["name"] != "Ada" {
		t.Fatalf("unexpected profile %v", out)
	}
	if _, leaked := out["password"]; leaked {
		t.Fatalf("profile must not include the password hash")
	}

	unauthenticated := doJSON(router, http.MethodGet, "/api/auth/me", "", nil)
	mustStatus(t, unauthenticated.Code, http.StatusUnauthorized)
}
