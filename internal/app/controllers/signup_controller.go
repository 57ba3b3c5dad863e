package controllers

import (
	"github.com/afterschool/sessions-api/internal/app/models"
	"github.com/afterschool/sessions-api/internal/app/models/dto"
	"github.com/afterschool/sessions-api/internal/app/services"
	"github.com/afterschool/sessions-api/internal/middleware"
	"github.com/gin-gonic/gin"
)

// SignupController handles staff signup and caregiver messaging endpoints
type SignupController struct {
	signupService        services.SignupService
	communicationService services.CommunicationService
}

// NewSignupController creates a new SignupController
func NewSignupController(signupService services.SignupService, communicationService services.CommunicationService) *SignupController {
	return &SignupController{signupService: signupService, communicationService: communicationService}
}

type signupListQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=pending confirmed waitlisted withdrawn"`
}

// ListSignups handles GET /admin/sessions/:id/signups?status=
func (c *SignupController) ListSignups(ctx *gin.Context) {
	sessionID, ok := parseIDParam(ctx, "id", "Session")
	if !ok {
		return
	}
	var query signupListQuery
	if !middleware.BindQuery(ctx, &query) {
		return
	}

	var status *models.SignupStatus
	if query.Status != "" {
		s := models.SignupStatus(query.Status)
		status = &s
	}

	signups, err := c.signupService.List(ctx.Request.Context(), sessionID, status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, signups)
}

// UpdateSignupStatus handles PATCH /admin/signups/:id/status
func (c *SignupController) UpdateSignupStatus(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Signup")
	if !ok {
		return
	}
	var req dto.UpdateSignupStatusRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	signup, err := c.signupService.SetStatus(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, signup)
}

// NotifySession handles POST /admin/sessions/:id/notify
func (c *SignupController) NotifySession(ctx *gin.Context) {
	sessionID, ok := parseIDParam(ctx, "id", "Session")
	if !ok {
		return
	}
	var req dto.NotifySessionRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.communicationService.NotifySession(ctx.Request.Context(), sessionID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, resp)
}
