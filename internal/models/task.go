package models

import (
	"time"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Task is a to-do item owned by exactly one user.
type Task struct {
	ID          int        `json:"id" db:"id"`
	OwnerID     int        `json:"ownerId" db:"owner_id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description" db:"description"`
	Status      TaskStatus `json:"status" db:"status"`
	DueDate     *Date      `json:"dueDate" db:"due_date"`
	Tags        []string   `json:"tags" db:"tags"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	out := *t
	if t.Description != nil {
		description := *t.Description
		out.Description = &description
	}
	if t.DueDate != nil {
		dueDate := *t.DueDate
		out.DueDate = &dueDate
	}
	out.Tags = append(make([]string, 0, len(t.Tags)), t.Tags...)
	return &out
}
