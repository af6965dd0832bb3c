package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// CreateTables creates all required tables and indexes.
func CreateTables(ctx context.Context, db *sql.DB) error {
	steps := []struct {
		name string
		fn   func(context.Context, *sql.DB) error
	}{
		{"users", createUsersTable},
		{"tasks", createTasksTable},
	}
	for _, step := range steps {
		if err := step.fn(ctx, db); err != nil {
			return fmt.Errorf("create %s table: %w", step.name, err)
		}
		log.Printf("%s table ready", step.name)
	}
	return nil
}

func createUsersTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return err
	}

	return execAll(ctx, db,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_unique ON users(lower(email))`,
	)
}

func createTasksTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS tasks (
		id SERIAL PRIMARY KEY,
		owner_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title VARCHAR(200) NOT NULL CHECK (length(btrim(title)) > 0),
		description TEXT,
		status VARCHAR(16) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'completed')),
		due_date DATE,
		tags TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CHECK (created_at <= updated_at)
	);
	`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return err
	}

	return execAll(ctx, db,
		`CREATE EXTENSION IF NOT EXISTS pg_trgm`,
		`CREATE INDEX IF NOT EXISTS tasks_owner_created_idx ON tasks(owner_id, created_at DESC, id DESC)`,
		`CREATE INDEX IF NOT EXISTS tasks_owner_due_date_idx ON tasks(owner_id, due_date ASC NULLS LAST, id)`,
		`CREATE INDEX IF NOT EXISTS tasks_owner_status_idx ON tasks(owner_id, status)`,
		`CREATE INDEX IF NOT EXISTS tasks_title_search_trgm_idx ON tasks USING gin (lower(title) gin_trgm_ops)`,
	)
}

func execAll(ctx context.Context, db *sql.DB, statements ...string) error {
	for _, statement := range statements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("%s: %w", statement, err)
		}
	}
	return nil
}
