package controllers

import (
	"net/http"
	"time"

	"github.com/afterschool/sessions-api/internal/app/models/dto"
	"github.com/afterschool/sessions-api/internal/app/services"
	"github.com/afterschool/sessions-api/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ExclusionController handles exclusion date endpoints
type ExclusionController struct {
	exclusionService services.ExclusionService
	zone             *time.Location
}

// NewExclusionController creates a new ExclusionController. Listing without a
// year uses the current year in zone.
func NewExclusionController(exclusionService services.ExclusionService, zone *time.Location) *ExclusionController {
	if zone == nil {
		zone = time.UTC
	}
	return &ExclusionController{exclusionService: exclusionService, zone: zone}
}

type exclusionListQuery struct {
	Year int `form:"year" binding:"omitempty,min=2000,max=2100"`
}

// ListExclusions handles GET /admin/exclusions?year=
func (c *ExclusionController) ListExclusions(ctx *gin.Context) {
	var query exclusionListQuery
	if !middleware.BindQuery(ctx, &query) {
		return
	}
	if query.Year == 0 {
		query.Year = time.Now().In(c.zone).Year()
	}

	exclusions, err := c.exclusionService.List(ctx.Request.Context(), query.Year)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.NewExclusionResponses(exclusions))
}

// CreateExclusion handles POST /admin/exclusions
func (c *ExclusionController) CreateExclusion(ctx *gin.Context) {
	var req dto.CreateExclusionRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	exclusion, err := c.exclusionService.Create(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, dto.NewExclusionResponse(exclusion))
}

// UpdateExclusion handles PATCH /admin/exclusions/:id
func (c *ExclusionController) UpdateExclusion(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Exclusion")
	if !ok {
		return
	}
	var req dto.UpdateExclusionRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	exclusion, err := c.exclusionService.UpdateReason(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.NewExclusionResponse(exclusion))
}

// DeleteExclusion handles DELETE /admin/exclusions/:id
func (c *ExclusionController) DeleteExclusion(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Exclusion")
	if !ok {
		return
	}

	if err := c.exclusionService.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
