package database

import (
	"context"
	"database/sql"

	"taskmanager/internal/apperr"
	"taskmanager/internal/models"
)

// StatsRepository answers the monitoring queries.
type StatsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) Inventory(ctx context.Context) (models.Inventory, error) {
	var inv models.Inventory

	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE created_at >= NOW() - INTERVAL '24 hours')
		FROM users
	`).Scan(&inv.UsersTotal, &inv.UsersNew24h)
	if err != nil {
		return inv, apperr.Wrap(apperr.Store, "count users", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'completed')
		FROM tasks
	`).Scan(&inv.TasksTotal, &inv.TasksPending, &inv.TasksCompleted)
	if err != nil {
		return inv, apperr.Wrap(apperr.Store, "count tasks", err)
	}

	return inv, nil
}

// ListUsers returns users newest first with their task counts.
func (r *StatsRepository) ListUsers(ctx context.Context, skip, limit int) ([]models.UserSummary, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, apperr.Wrap(apperr.Store, "count users", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			u.id,
			u.name,
			u.email,
			u.created_at,
			COUNT(t.id) AS tasks_total
		FROM users u
		LEFT JOIN tasks t ON t.owner_id = u.id
		GROUP BY u.id, u.name, u.email, u.created_at
		ORDER BY u.created_at DESC, u.id DESC
		LIMIT $1 OFFSET $2
	`, limit, skip)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.Store, "list users", err)
	}
	defer rows.Close()

	users := make([]models.UserSummary, 0, limit)
	for rows.Next() {
		var item models.UserSummary
		if err := rows.Scan(&item.ID, &item.Name, &item.Email, &item.CreatedAt, &item.TasksTotal); err != nil {
			return nil, 0, apperr.Wrap(apperr.Store, "scan user summary", err)
		}
		item.CreatedAt = item.CreatedAt.UTC()
		users = append(users, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Wrap(apperr.Store, "iterate users", err)
	}

	return users, total, nil
}
