package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskmanager/internal/apperr"
	"taskmanager/internal/models"
	"taskmanager/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

type mockResolver struct {
	resolve func(ctx context.Context, token string) (models.Caller, error)
}

func (m mockResolver) Resolve(ctx context.Context, token string) (models.Caller, error) {
	return m.resolve(ctx, token)
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	resolver := mockResolver{resolve: func(_ context.Context, token string) (models.Caller, error) {
		switch token {
		case "valid-token":
			return models.Caller{UserID: 7, Name: "Ada", Email: "ada@example.com"}, nil
		case "db-down":
			return models.Caller{}, apperr.Wrap(apperr.Store, "query user", errors.New("connection refused"))
		case "":
			return models.Caller{}, apperr.New(apperr.Unauthenticated, "Not authorized, no token")
		default:
			return models.Caller{}, apperr.New(apperr.Unauthenticated, "Not authorized, token failed")
		}
	}}

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "missing authorization header",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"Authorization header is required"`,
		},
		{
			name:           "wrong scheme",
			authHeader:     "Basic dXNlcjpwYXNz",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `Bearer {token}`,
		},
		{
			name:           "extra parts",
			authHeader:     "Bearer a b",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `Bearer {token}`,
		},
		{
			name:           "bearer without token",
			authHeader:     "Bearer ",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `no token`,
		},
		{
			name:           "invalid token",
			authHeader:     "Bearer forged",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `token failed`,
		},
		{
			name:           "store failure",
			authHeader:     "Bearer db-down",
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"Internal server error"`,
		},
		{
			name:           "valid token",
			authHeader:     "Bearer valid-token",
			expectedStatus: http.StatusOK,
			expectedBody:   `"user_id":7`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerRan := false
			router := gin.New()
			router.GET("/protected", AuthMiddleware(resolver), func(c *gin.Context) {
				handlerRan = true
				caller, ok := CallerFromContext(c)
				if !ok {
					t.Fatalf("expected caller in context")
				}
				c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt("user_id"), "email": caller.Email})
			})

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d (%s)", tt.expectedStatus, resp.Code, resp.Body.String())
			}
			if !strings.Contains(resp.Body.String(), tt.expectedBody) {
				t.Fatalf("expected body to contain %s, got %s", tt.expectedBody, resp.Body.String())
			}
			if handlerRan != (tt.expectedStatus == http.StatusOK) {
				t.Fatalf("handler ran = %v for status %d", handlerRan, resp.Code)
			}
		})
	}
}

func TestCallerFromContextWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if _, ok := CallerFromContext(c); ok {
		t.Fatalf("expected no caller")
	}
	c.Set("caller", "not a caller")
	if _, ok := CallerFromContext(c); ok {
		t.Fatalf("expected wrong type to be rejected")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFromContext(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	generated := resp.Header().Get("X-Request-ID")
	if len(generated) != 36 || resp.Body.String() != generated {
		t.Fatalf("expected a generated uuid echoed in header and context, got %q / %q", generated, resp.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "  trace-123  ")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if got := resp.Header().Get("X-Request-ID"); got != "trace-123" {
		t.Fatalf("expected client request id to be kept, got %q", got)
	}
}

func TestNormalizeRequestID(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "", want: ""},
		{raw: "abc-123", want: "abc-123"},
		{raw: "has space", want: ""},
		{raw: "line\nbreak", want: ""},
		{raw: strings.Repeat("a", 200), want: strings.Repeat("a", 128)},
	}
	for _, tt := range tests {
		if got := normalizeRequestID(tt.raw); got != tt.want {
			t.Errorf("normalizeRequestID(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

type fakeLimiter struct {
	limit   int
	used    int
	failing bool
}

func (f *fakeLimiter) Limit() int {
	return f.limit
}

func (f *fakeLimiter) Allow(context.Context, string) (*ratelimit.Result, error) {
	if f.failing {
		return nil, errors.New("redis unavailable")
	}
	f.used++
	if f.used > f.limit {
		return &ratelimit.Result{Allowed: false, ResetAt: time.Now().Add(time.Minute), RetryAfter: 30 * time.Second}, nil
	}
	return &ratelimit.Result{Allowed: true, Remaining: f.limit - f.used, ResetAt: time.Now().Add(time.Minute)}, nil
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := &fakeLimiter{limit: 2}

	router := gin.New()
	router.POST("/login", RateLimitMiddleware(limiter), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/login", nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, resp.Code)
		}
		if resp.Header().Get("X-RateLimit-Limit") != "2" {
			t.Fatalf("expected limit header")
		}
	}

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/login", nil))
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	if resp.Header().Get("Retry-After") != "30" {
		t.Fatalf("expected Retry-After 30, got %q", resp.Header().Get("Retry-After"))
	}
	if !strings.Contains(resp.Body.String(), `"error"`) {
		t.Fatalf("expected error body, got %s", resp.Body.String())
	}
}

func TestRateLimitMiddlewareFailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/login", RateLimitMiddleware(&fakeLimiter{failing: true}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/login", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected limiter errors to let the request through, got %d", resp.Code)
	}
}
