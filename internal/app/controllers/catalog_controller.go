package controllers

import (
	"github.com/afterschool/sessions-api/internal/app/services"
	"github.com/afterschool/sessions-api/internal/middleware"
	"github.com/gin-gonic/gin"
)

// CatalogController serves the public session catalogue
type CatalogController struct {
	catalogService services.CatalogService
}

// NewCatalogController creates a new CatalogController
func NewCatalogController(catalogService services.CatalogService) *CatalogController {
	return &CatalogController{catalogService: catalogService}
}

type catalogQuery struct {
	Q string `form:"q" binding:"omitempty,max=100"`
}

// ListSessions handles GET /sessions?q=
func (c *CatalogController) ListSessions(ctx *gin.Context) {
	var query catalogQuery
	if !middleware.BindQuery(ctx, &query) {
		return
	}

	groups, err := c.catalogService.ListByRegion(ctx.Request.Context(), query.Q)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, groups)
}

// GetSession handles GET /session/:id
func (c *CatalogController) GetSession(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Session")
	if !ok {
		return
	}

	detail, err := c.catalogService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, detail)
}
