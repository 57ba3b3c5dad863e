package controllers

import (
	"context"

	"github.com/afterschool/sessions-api/internal/app/models/dto"
	"github.com/afterschool/sessions-api/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// LoginService authenticates staff
type LoginService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
}

// AuthController handles staff authentication
type AuthController struct {
	authService LoginService
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService LoginService, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		logger:      logger,
	}
}

// Login handles POST /admin/auth/login
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if !middleware.BindJSON(ctx, &req) {
		c.logger.Debug().Msg("Invalid login request payload")
		return
	}

	resp, err := c.authService.Login(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, resp)
}
