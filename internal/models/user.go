package models

import (
	"time"
)

// User represents a registered account.
type User struct {
	ID           int       `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Caller is the identity resolved from a session token.
type Caller struct {
	UserID int    `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}
