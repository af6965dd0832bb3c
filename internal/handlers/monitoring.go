package handlers

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"taskmanager/internal/monitoring"

	"github.com/gin-gonic/gin"
)

const (
	monitorUsersDefaultLimit = 8
	monitorUsersMaxLimit     = 50
)

// MonitoringHandler serves /api/monitor. An empty API key disables it.
type MonitoringHandler struct {
	service *monitoring.Service
	apiKey  string
}

func NewMonitoringHandler(service *monitoring.Service, apiKey string) *MonitoringHandler {
	return &MonitoringHandler{service: service, apiKey: strings.TrimSpace(apiKey)}
}

func (h *MonitoringHandler) checkMonitoringToken(c *gin.Context) bool {
	if h.apiKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Monitoring API is disabled"})
		return false
	}

	provided := strings.TrimSpace(c.GetHeader("X-Monitoring-Key"))
	if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(h.apiKey)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid monitoring key"})
		return false
	}
	return true
}

func (h *MonitoringHandler) MonitorStatus(c *gin.Context) {
	if !h.checkMonitoringToken(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": h.service.StatusText(c.Request.Context())})
}

func (h *MonitoringHandler) MonitorSnapshot(c *gin.Context) {
	if !h.checkMonitoringToken(c) {
		return
	}
	c.JSON(http.StatusOK, h.service.Snapshot(c.Request.Context()))
}

func (h *MonitoringHandler) MonitorUsersList(c *gin.Context) {
	if !h.checkMonitoringToken(c) {
		return
	}

	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), monitorUsersDefaultLimit)
	if limit > monitorUsersMaxLimit {
		limit = monitorUsersMaxLimit
	}

	result, err := h.service.Users(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func parsePositiveInt(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 || value > 1_000_000 {
		return fallback
	}
	return value
}
