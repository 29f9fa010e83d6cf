package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SystemHandler serves liveness and readiness probes.
type SystemHandler struct {
	Base
	db      *gorm.DB
	appName string
	version string
}

// NewSystemHandler creates the system handler.
func NewSystemHandler(base Base, db *gorm.DB, appName, version string) *SystemHandler {
	return &SystemHandler{Base: base, db: db, appName: appName, version: version}
}

// Health reports process and database health.
func (h *SystemHandler) Health(c *gin.Context) {
	status := "ok"
	dbStatus := "ok"
	code := http.StatusOK

	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			status = "degraded"
			dbStatus = "unreachable"
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, gin.H{
		"status":   status,
		"app":      h.appName,
		"version":  h.version,
		"database": dbStatus,
	})
}
