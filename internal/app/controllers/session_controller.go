package controllers

import (
	"net/http"

	"github.com/afterschool/sessions-api/internal/app/models/dto"
	"github.com/afterschool/sessions-api/internal/app/services"
	"github.com/afterschool/sessions-api/internal/middleware"
	"github.com/afterschool/sessions-api/internal/pkg/helpers"
	"github.com/gin-gonic/gin"
)

// SessionController handles session endpoints
type SessionController struct {
	sessionService services.SessionService
}

// NewSessionController creates a new SessionController
func NewSessionController(sessionService services.SessionService) *SessionController {
	return &SessionController{sessionService: sessionService}
}

type sessionListQuery struct {
	Year            *int   `form:"year" binding:"omitempty,min=2000,max=2100"`
	LocationID      *int64 `form:"locationId" binding:"omitempty,min=1"`
	IncludeArchived bool   `form:"includeArchived"`
}

// ListSessions handles GET /admin/sessions?year=&locationId=&includeArchived=&page=&size=
func (c *SessionController) ListSessions(ctx *gin.Context) {
	var query sessionListQuery
	if !middleware.BindQuery(ctx, &query) {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	resp, err := c.sessionService.List(ctx.Request.Context(), services.SessionListQuery{
		Year:            query.Year,
		LocationID:      query.LocationID,
		IncludeArchived: query.IncludeArchived,
		Page:            page,
		PageSize:        size,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, resp)
}

// GetSession handles GET /admin/sessions/:id
func (c *SessionController) GetSession(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Session")
	if !ok {
		return
	}

	session, err := c.sessionService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, session)
}

// CreateSession handles POST /admin/sessions
func (c *SessionController) CreateSession(ctx *gin.Context) {
	var req dto.CreateSessionRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	session, err := c.sessionService.Create(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, session)
}

// UpdateSession handles PATCH /admin/sessions/:id
func (c *SessionController) UpdateSession(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Session")
	if !ok {
		return
	}
	var req dto.UpdateSessionRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	session, err := c.sessionService.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, session)
}

// DeleteSession handles DELETE /admin/sessions/:id
func (c *SessionController) DeleteSession(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Session")
	if !ok {
		return
	}

	if err := c.sessionService.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// DuplicateSession handles POST /admin/sessions/:id/duplicate
func (c *SessionController) DuplicateSession(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Session")
	if !ok {
		return
	}

	session, err := c.sessionService.Duplicate(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, session)
}
