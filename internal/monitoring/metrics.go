// Package monitoring collects process, database and task metrics for the
// operator endpoints under /api/monitor.
package monitoring

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"strings"
	"time"

	"taskmanager/internal/models"
)

// Source provides record counts from whichever store is configured.
type Source interface {
	Inventory(ctx context.Context) (models.Inventory, error)
	ListUsers(ctx context.Context, skip, limit int) ([]models.UserSummary, int, error)
}

// Service holds runtime context for monitoring and reporting. db is nil when
// the API runs on the in-memory store.
type Service struct {
	startedAt time.Time
	source    Source
	db        *sql.DB
}

type Snapshot struct {
	TimestampUTC       string `json:"timestamp_utc"`
	UptimeSeconds      int64  `json:"uptime_seconds"`
	HTTPActiveRequests int64  `json:"http_active_requests"`
	HTTPTotalRequests  uint64 `json:"http_total_requests"`
	HTTPServerErrors   uint64 `json:"http_server_errors"`
	DBOpenConnections  int    `json:"db_open_connections"`
	DBInUseConnections int    `json:"db_in_use_connections"`
	DBWaitCount        int64  `json:"db_wait_count"`
	DBSizeBytes        int64  `json:"db_size_bytes"`
	Goroutines         int    `json:"goroutines"`
	GoMemoryAllocBytes uint64 `json:"go_memory_alloc_bytes"`
	GoMemorySysBytes   uint64 `json:"go_memory_sys_bytes"`
	GoHeapInUseBytes   uint64 `json:"go_heap_in_use_bytes"`
	GoGCCount          uint32 `json:"go_gc_count"`
	models.Inventory
	TaskOperations map[string]TaskOpStats `json:"task_operations"`
}

// UsersPage is one page of the monitoring users list.
type UsersPage struct {
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
	TotalUsers int                  `json:"total_users"`
	TotalPages int                  `json:"total_pages"`
	Users      []models.UserSummary `json:"users"`
}

func NewService(startedAt time.Time, source Source, db *sql.DB) *Service {
	return &Service{startedAt: startedAt, source: source, db: db}
}

// Ping checks the database, if there is one.
func (s *Service) Ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}

func (s *Service) StatusText(ctx context.Context) string {
	dbState := "ok"
	if s.db == nil {
		dbState = "in-memory"
	} else if err := s.db.PingContext(ctx); err != nil {
		dbState = "error: " + err.Error()
	}

	uptime := time.Since(s.startedAt).Round(time.Second)
	activeHTTP, totalHTTP, serverErrors := getHTTPStats()

	lines := []string{
		"Task Manager Status",
		fmt.Sprintf("Uptime: %s", uptime),
		fmt.Sprintf("DB: %s", dbState),
		fmt.Sprintf("HTTP active requests: %d", activeHTTP),
		fmt.Sprintf("HTTP total requests: %d", totalHTTP),
		fmt.Sprintf("HTTP 5xx responses: %d", serverErrors),
	}
	if s.db != nil {
		lines = append(lines, fmt.Sprintf("DB open connections: %d", s.db.Stats().OpenConnections))
	}

	var memory runtime.MemStats
	runtime.ReadMemStats(&memory)
	lines = append(lines,
		fmt.Sprintf("Go goroutines: %d", runtime.NumGoroutine()),
		fmt.Sprintf("Heap in use: %s", formatBytes(int64(memory.HeapInuse))),
	)

	if inv, err := s.source.Inventory(ctx); err == nil {
		lines = append(lines,
			fmt.Sprintf("Users total: %d", inv.UsersTotal),
			fmt.Sprintf("Tasks total: %d (%d pending, %d completed)", inv.TasksTotal, inv.TasksPending, inv.TasksCompleted),
		)
	}

	return strings.Join(lines, "\n")
}

func (s *Service) Snapshot(ctx context.Context) Snapshot {
	activeHTTP, totalHTTP, serverErrors := getHTTPStats()

	var memory runtime.MemStats
	runtime.ReadMemStats(&memory)

	snap := Snapshot{
		TimestampUTC:       time.Now().UTC().Format(time.RFC3339),
		UptimeSeconds:      int64(time.Since(s.startedAt).Seconds()),
		HTTPActiveRequests: activeHTTP,
		HTTPTotalRequests:  totalHTTP,
		HTTPServerErrors:   serverErrors,
		Goroutines:         runtime.NumGoroutine(),
		GoMemoryAllocBytes: memory.Alloc,
		GoMemorySysBytes:   memory.Sys,
		GoHeapInUseBytes:   memory.HeapInuse,
		GoGCCount:          memory.NumGC,
		TaskOperations:     getTaskOpStats(),
	}

	if s.db != nil {
		stats := s.db.Stats()
		snap.DBOpenConnections = stats.OpenConnections
		snap.DBInUseConnections = stats.InUse
		snap.DBWaitCount = stats.WaitCount
		_ = s.db.QueryRowContext(ctx, `SELECT COALESCE(pg_database_size(current_database()), 0)`).Scan(&snap.DBSizeBytes)
	}

	if inv, err := s.source.Inventory(ctx); err == nil {
		snap.Inventory = inv
	}

	return snap
}

// Users returns page (1-based) of the users list, newest first.
func (s *Service) Users(ctx context.Context, page, limit int) (*UsersPage, error) {
	users, total, err := s.source.ListUsers(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return &UsersPage{
		Page:       page,
		Limit:      limit,
		TotalUsers: total,
		TotalPages: totalPages,
		Users:      users,
	}, nil
}

func formatBytes(value int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(value)
	unit := 0

	for size >= 1024 && unit < len(units)-1 {
		size /= 1024
		unit++
	}

	if unit == 0 {
		return fmt.Sprintf("%d %s", value, units[unit])
	}
	return fmt.Sprintf("%.2f %s", size, units[unit])
}
