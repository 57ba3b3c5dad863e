package controllers

import (
	"net/http"
	"strconv"

	"github.com/afterschool/sessions-api/internal/app/services"
	"github.com/afterschool/sessions-api/internal/middleware"
	"github.com/gin-gonic/gin"
)

// CalendarController serves public calendar feeds
type CalendarController struct {
	calendarService services.CalendarService
	refreshHours    int
}

// NewCalendarController creates a new CalendarController
func NewCalendarController(calendarService services.CalendarService, refreshHours int) *CalendarController {
	return &CalendarController{calendarService: calendarService, refreshHours: refreshHours}
}

// SessionFeed handles GET /sessions/:id/calendar.ics
func (c *CalendarController) SessionFeed(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Session")
	if !ok {
		return
	}

	feed, err := c.calendarService.SessionFeed(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	if c.refreshHours > 0 {
		ctx.Header("Cache-Control", "public, max-age="+strconv.Itoa(c.refreshHours*3600))
	}
	ctx.Header("Content-Disposition", `inline; filename="session-`+ctx.Param("id")+`.ics"`)
	ctx.Data(http.StatusOK, services.CalendarContentType, feed)
}
