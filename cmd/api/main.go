package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"taskmanager/internal/auth"
	"taskmanager/internal/config"
	"taskmanager/internal/database"
	"taskmanager/internal/memstore"
	"taskmanager/internal/monitoring"
	"taskmanager/internal/ratelimit"
	"taskmanager/internal/server"
	"taskmanager/internal/session"
	"taskmanager/internal/tasks"
	"taskmanager/internal/utils"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	if err := utils.EnsureJWTReady(); err != nil {
		log.Fatalf("jwt configuration failed: %v", err)
	}

	var (
		db        *sql.DB
		users     auth.UserStore
		taskStore tasks.Store
		source    monitoring.Source
	)

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		memUsers := memstore.NewUserStore()
		memTasks := memstore.NewTaskStore()
		users, taskStore, source = memUsers, memTasks, memstore.NewStats(memUsers, memTasks)
		log.Println("store=memory, data is lost on restart")
	default:
		db, err = database.Open(cfg.Database)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = database.CreateTables(initCtx, db)
		cancel()
		if err != nil {
			log.Fatalf("database schema setup failed: %v", err)
		}
		users = database.NewUserRepository(db)
		taskStore = database.NewTaskRepository(db)
		source = database.NewStatsRepository(db)
		log.Printf("store=postgres host=%s db=%s", cfg.Database.Host, cfg.Database.Name)
	}

	credentials := auth.NewService(users)

	var (
		redisClient *redis.Client
		authLimiter ratelimit.Limiter
	)
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		authLimiter = ratelimit.NewSlidingWindowLimiter(redisClient, ratelimit.Config{
			RequestsPerWindow: cfg.RateLimit.Requests,
			WindowSize:        cfg.RateLimit.Window,
		}, "taskmanager:ratelimit:auth:")
		log.Printf("auth rate limit: %d requests per %s (redis=%s)", cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.Redis.Addr)
	}

	router := server.NewRouter(server.Deps{
		Credentials:      credentials,
		Sessions:         session.NewGate(credentials),
		Tasks:            tasks.NewService(taskStore, nil),
		Monitoring:       monitoring.NewService(time.Now(), source, db),
		MonitoringAPIKey: cfg.MonitoringAPIKey,
		AuthLimiter:      authLimiter,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.WithCORS(router, cfg.CORSAllowedOrigins),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		log.Printf("Task Manager API starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed to start: %v", err)
		}
	}()

	operations := map[string]gfshutdown.Operation{
		"http-server": func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	}
	if db != nil {
		operations["database"] = func(ctx context.Context) error {
			return db.Close()
		}
	}
	if redisClient != nil {
		operations["redis"] = func(ctx context.Context) error {
			return redisClient.Close()
		}
	}

	wait := gfshutdown.GracefulShutdown(context.Background(), cfg.ShutdownTimeout, operations)
	exitCode := <-wait
	log.Printf("Task Manager API exited with code: %d", exitCode)
	os.Exit(exitCode)
}
