// Package server assembles the gin engine and the CORS wrapper around it.
package server

import (
	"net/http"

	"taskmanager/internal/handlers"
	"taskmanager/internal/middleware"
	"taskmanager/internal/monitoring"
	"taskmanager/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

// Deps are the services the routes delegate to. AuthLimiter may be nil, which
// leaves the credential routes unthrottled.
type Deps struct {
	Credentials      handlers.Credentials
	Sessions         middleware.SessionResolver
	Tasks            handlers.TaskEngine
	Monitoring       *monitoring.Service
	MonitoringAPIKey string
	AuthLimiter      ratelimit.Limiter
}

// NewRouter registers every route of the API.
func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		monitoring.RequestMetricsMiddleware(),
	)

	statusHandler := handlers.NewStatusHandler(deps.Monitoring)
	authHandler := handlers.NewAuthHandler(deps.Credentials)
	taskHandler := handlers.NewTaskHandler(deps.Tasks)
	monitoringHandler := handlers.NewMonitoringHandler(deps.Monitoring, deps.MonitoringAPIKey)
	requireAuth := middleware.AuthMiddleware(deps.Sessions)

	router.GET("/", statusHandler.Root)
	router.GET("/health", statusHandler.Health)

	api := router.Group("/api")
	api.GET("/status", statusHandler.Status)

	authRoutes := api.Group("/auth")
	credentialRoutes := authRoutes.Group("")
	if deps.AuthLimiter != nil {
		credentialRoutes.Use(middleware.RateLimitMiddleware(deps.AuthLimiter))
	}
	credentialRoutes.POST("/register", authHandler.Register)
	credentialRoutes.POST("/login", authHandler.Login)
	authRoutes.GET("/me", requireAuth, authHandler.Me)

	taskRoutes := api.Group("/tasks", requireAuth)
	taskRoutes.GET("", taskHandler.GetTasks)
	taskRoutes.POST("", taskHandler.CreateTask)
	taskRoutes.GET("/:id", taskHandler.GetTask)
	taskRoutes.PUT("/:id", taskHandler.UpdateTask)
	taskRoutes.PATCH("/:id", taskHandler.UpdateTask)
	taskRoutes.DELETE("/:id", taskHandler.DeleteTask)

	monitorRoutes := api.Group("/monitor")
	monitorRoutes.GET("/status", monitoringHandler.MonitorStatus)
	monitorRoutes.GET("/snapshot", monitoringHandler.MonitorSnapshot)
	monitorRoutes.GET("/users", monitoringHandler.MonitorUsersList)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found - " + c.Request.URL.Path})
	})

	return router
}

// WithCORS lets the browser client on allowedOrigins call the API.
func WithCORS(handler http.Handler, allowedOrigins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID", "X-Monitoring-Key"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
	})
	return c.Handler(handler)
}
