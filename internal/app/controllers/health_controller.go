package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/afterschool/sessions-api/internal/app/models/dto"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Pinger checks a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController reports service health
type HealthController struct {
	db     Pinger
	logger zerolog.Logger
}

// NewHealthController creates a new HealthController
func NewHealthController(db Pinger, logger zerolog.Logger) *HealthController {
	return &HealthController{db: db, logger: logger}
}

// Health handles GET /health
func (c *HealthController) Health(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	resp := dto.HealthResponse{Status: "ok", Database: "ok"}
	status := http.StatusOK
	if err := c.db.Ping(pingCtx); err != nil {
		c.logger.Warn().Err(err).Msg("Database health check failed")
		resp.Status = "degraded"
		resp.Database = "unavailable"
		status = http.StatusServiceUnavailable
	}
	ctx.JSON(status, dto.NewSuccessResponse(resp))
}

// Ping handles GET /ping
func (c *HealthController) Ping(ctx *gin.Context) {
	ctx.String(http.StatusOK, "pong")
}
