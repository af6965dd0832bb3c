package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"taskmanager/internal/config"

	_ "github.com/lib/pq"
)

const pingTimeout = 5 * time.Second

// Open connects to Postgres, applies pool settings and pings the server.
func Open(cfg config.Database) (*sql.DB, error) {
	log.Printf("Connecting to database: host=%s port=%s user=%s db=%s sslmode=%s", cfg.Host, cfg.Port, cfg.User, cfg.Name, cfg.SSLMode)

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Println("Connected to database successfully")
	return db, nil
}
