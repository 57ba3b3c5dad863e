package controllers

import (
	"net/http"
	"strconv"

	"github.com/afterschool/sessions-api/internal/app/models/dto"
	"github.com/afterschool/sessions-api/internal/app/services"
	"github.com/afterschool/sessions-api/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// OccurrenceController handles occurrence generation and maintenance
type OccurrenceController struct {
	occurrenceService services.OccurrenceService
	logger            zerolog.Logger
}

// NewOccurrenceController creates a new OccurrenceController
func NewOccurrenceController(occurrenceService services.OccurrenceService, logger zerolog.Logger) *OccurrenceController {
	return &OccurrenceController{
		occurrenceService: occurrenceService,
		logger:            logger,
	}
}

// GenerateOccurrences handles POST /admin/sessions/:id/occurrences/generate
func (c *OccurrenceController) GenerateOccurrences(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Session")
	if !ok {
		return
	}

	result, err := c.occurrenceService.Generate(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, result)
}

// RegenerateOccurrences handles POST /admin/sessions/:id/occurrences/regenerate.
// delete_auto_generated may come from the query string or the JSON body; the
// query string wins.
func (c *OccurrenceController) RegenerateOccurrences(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Session")
	if !ok {
		return
	}

	var body dto.RegenerateOccurrencesRequest
	if !middleware.BindOptionalJSON(ctx, &body) {
		return
	}
	deleteAuto := body.DeleteAutoGenerated
	if raw, present := ctx.GetQuery("delete_auto_generated"); present {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed").
				WithField("delete_auto_generated").
				WithDetails("delete_auto_generated must be true or false")
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}
		deleteAuto = parsed
	}

	result, err := c.occurrenceService.Regenerate(ctx.Request.Context(), id, deleteAuto)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, result)
}

// ListOccurrences handles GET /admin/sessions/:id/occurrences
func (c *OccurrenceController) ListOccurrences(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Session")
	if !ok {
		return
	}

	occurrences, err := c.occurrenceService.List(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, occurrences)
}

// CreateOccurrence handles POST /admin/sessions/:id/occurrences
func (c *OccurrenceController) CreateOccurrence(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Session")
	if !ok {
		return
	}
	var req dto.CreateOccurrenceRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	occurrence, err := c.occurrenceService.CreateManual(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, occurrence)
}

// CancelOccurrence handles PATCH /admin/occurrences/:id/cancel
func (c *OccurrenceController) CancelOccurrence(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Occurrence")
	if !ok {
		return
	}
	var req dto.CancelOccurrenceRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	occurrence, err := c.occurrenceService.SetCancelled(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Debug().
		Int64("occurrenceID", id).
		Int64("staffID", middleware.StaffID(ctx)).
		Bool("cancelled", occurrence.Cancelled).
		Msg("Occurrence cancellation updated")
	respondOK(ctx, occurrence)
}
