package models

import "time"

// Inventory is a point-in-time count of stored records.
type Inventory struct {
	UsersTotal     int64 `json:"users_total"`
	UsersNew24h    int64 `json:"users_new_24h"`
	TasksTotal     int64 `json:"tasks_total"`
	TasksPending   int64 `json:"tasks_pending"`
	TasksCompleted int64 `json:"tasks_completed"`
}

// UserSummary is one row of the monitoring users list.
type UserSummary struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	TasksTotal int64     `json:"tasks_total"`
	CreatedAt  time.Time `json:"created_at"`
}
