package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"visa-consult-api/config"
)

// HealthController exposes the liveness probes consumed by external
// monitoring.
type HealthController struct {
	db        *gorm.DB
	startedAt time.Time
}

// NewHealthController constructs the controller.
func NewHealthController(db *gorm.DB) *HealthController {
	return &HealthController{db: db, startedAt: time.Now()}
}

// Health handles GET /health.
func (ctl *HealthController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Visa Consult API is running",
	})
}

// HealthDetailed handles GET /health/detailed: store liveness plus
// connection statistics and process uptime.
func (ctl *HealthController) HealthDetailed(c *gin.Context) {
	dbStatus := "ok"
	httpStatus := http.StatusOK
	if err := config.Ping(ctl.db); err != nil {
		dbStatus = "unavailable"
		httpStatus = http.StatusServiceUnavailable
	}

	detail := gin.H{
		"status":         dbStatus,
		"database":       dbStatus,
		"uptime_seconds": int64(time.Since(ctl.startedAt).Seconds()),
		"checked_at":     time.Now().UTC().Format(time.RFC3339),
	}
	if stats, err := config.DBStats(ctl.db); err == nil {
		detail["connections"] = gin.H{
			"open":   stats.OpenConnections,
			"in_use": stats.InUse,
			"idle":   stats.Idle,
		}
	}

	c.JSON(httpStatus, detail)
}

// Ping handles GET /health/ping.
func (ctl *HealthController) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
