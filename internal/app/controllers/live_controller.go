package controllers

import (
	"net/http"

	"github.com/afterschool/sessions-api/internal/app/services"
	"github.com/afterschool/sessions-api/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// LiveSubscriber attaches a websocket connection to a session's event stream
type LiveSubscriber interface {
	Serve(w http.ResponseWriter, r *http.Request, sessionID, staffID int64) error
}

// LiveController streams occurrence changes to staff over websockets
type LiveController struct {
	sessionService services.SessionService
	hub            LiveSubscriber
	logger         zerolog.Logger
}

// NewLiveController creates a new LiveController
func NewLiveController(sessionService services.SessionService, hub LiveSubscriber, logger zerolog.Logger) *LiveController {
	return &LiveController{sessionService: sessionService, hub: hub, logger: logger}
}

// WatchSession handles GET /admin/sessions/:id/live
func (c *LiveController) WatchSession(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Session")
	if !ok {
		return
	}
	if _, err := c.sessionService.Get(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	staffID := middleware.StaffID(ctx)
	if err := c.hub.Serve(ctx.Writer, ctx.Request, id, staffID); err != nil {
		c.logger.Warn().Err(err).Int64("sessionID", id).Int64("staffID", staffID).Msg("Live subscription failed")
	}
}
