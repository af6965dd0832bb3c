package handlers

import (
	"context"
	"net/http"

	"taskmanager/internal/apperr"
	"taskmanager/internal/middleware"
	"taskmanager/internal/models"

	"github.com/gin-gonic/gin"
)

// Credentials is the account side of the API.
type Credentials interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	VerifyCredentials(ctx context.Context, email, password string) (int, error)
	IssueToken(userID int) (string, error)
	User(ctx context.Context, id int) (*models.User, error)
}

type AuthHandler struct {
	creds Credentials
}

func NewAuthHandler(creds Credentials) *AuthHandler {
	return &AuthHandler{creds: creds}
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := h.creds.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.creds.IssueToken(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   token,
		"user":    callerOf(user),
	})
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var credentials struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&credentials); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	ctx := c.Request.Context()
	userID, err := h.creds.VerifyCredentials(ctx, credentials.Email, credentials.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := h.creds.User(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.creds.IssueToken(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    callerOf(user),
	})
}

// Me returns the signed-in user.
func (h *AuthHandler) Me(c *gin.Context) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		respondError(c, apperr.New(apperr.Unauthenticated, "Unauthorized"))
		return
	}
	c.JSON(http.StatusOK, caller)
}

func callerOf(user *models.User) models.Caller {
	return models.Caller{UserID: user.ID, Name: user.Name, Email: user.Email}
}
