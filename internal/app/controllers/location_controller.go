package controllers

import (
	"github.com/afterschool/sessions-api/internal/app/models/dto"
	"github.com/afterschool/sessions-api/internal/app/services"
	"github.com/afterschool/sessions-api/internal/middleware"
	"github.com/afterschool/sessions-api/internal/pkg/helpers"
	"github.com/gin-gonic/gin"
)

// LocationController handles venue endpoints
type LocationController struct {
	locationService services.LocationService
	sessionService  services.SessionService
}

// NewLocationController creates a new LocationController
func NewLocationController(locationService services.LocationService, sessionService services.SessionService) *LocationController {
	return &LocationController{
		locationService: locationService,
		sessionService:  sessionService,
	}
}

// ListLocations handles GET /admin/locations
func (c *LocationController) ListLocations(ctx *gin.Context) {
	locations, err := c.locationService.List(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, locations)
}

// GetLocation handles GET /admin/locations/:id
func (c *LocationController) GetLocation(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Location")
	if !ok {
		return
	}

	location, err := c.locationService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, location)
}

// CreateLocation handles POST /admin/locations
func (c *LocationController) CreateLocation(ctx *gin.Context) {
	var req dto.CreateLocationRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	location, err := c.locationService.Create(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, location)
}

// UpdateLocation handles PATCH /admin/locations/:id
func (c *LocationController) UpdateLocation(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Location")
	if !ok {
		return
	}
	var req dto.UpdateLocationRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	location, err := c.locationService.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, location)
}

// ListLocationSessions handles GET /admin/locations/:id/sessions
func (c *LocationController) ListLocationSessions(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Location")
	if !ok {
		return
	}
	if _, err := c.locationService.Get(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	resp, err := c.sessionService.List(ctx.Request.Context(), services.SessionListQuery{
		LocationID:      &id,
		IncludeArchived: ctx.Query("includeArchived") == "true",
		Page:            page,
		PageSize:        size,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, resp)
}
