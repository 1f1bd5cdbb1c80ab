package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/servana/reviews-api/internal/database"
)

// HealthHandler reports service and database health
type HealthHandler struct {
	db *database.DB
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// GetHealth returns liveness plus database reachability and pool stats
func (h *HealthHandler) GetHealth(c *gin.Context) {
	dbStatus := "ok"
	status := http.StatusOK

	if err := h.db.HealthCheck(); err != nil {
		dbStatus = "unavailable"
		status = http.StatusServiceUnavailable
	}

	stats := h.db.GetStats()

	c.JSON(status, gin.H{
		"status":    dbStatus,
		"timestamp": time.Now(),
		"database": gin.H{
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
			"idle":             stats.Idle,
		},
	})
}
