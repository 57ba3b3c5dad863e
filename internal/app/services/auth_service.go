package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/afterschool/sessions-api/internal/app/models"
	"github.com/afterschool/sessions-api/internal/app/models/dto"
	"github.com/afterschool/sessions-api/internal/app/repositories"
	"github.com/afterschool/sessions-api/internal/pkg/apperrors"
	"github.com/afterschool/sessions-api/internal/pkg/auth"
	"github.com/rs/zerolog"
)

// TokenIssuer signs access tokens for staff
type TokenIssuer interface {
	GenerateAccessToken(staff *models.Staff) (string, int64, error)
}

// AuthService handles staff authentication
type AuthService struct {
	staff  StaffStore
	tokens TokenIssuer
	logger zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(staff StaffStore, tokens TokenIssuer, logger zerolog.Logger) *AuthService {
	return &AuthService{
		staff:  staff,
		tokens: tokens,
		logger: logger,
	}
}

// Login authenticates a staff member by email and password
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperrors.NewValidationError("email and password are required")
	}

	staff, err := s.staff.GetStaffByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(staff.PasswordHash, req.Password) {
		s.logger.Warn().Str("email", email).Msg("Failed staff login attempt")
		return nil, apperrors.ErrInvalidCredentials
	}
	if !staff.Active {
		return nil, apperrors.ErrAccountDisabled
	}

	accessToken, expiresIn, err := s.tokens.GenerateAccessToken(staff)
	if err != nil {
		return nil, fmt.Errorf("token generation error: %w", err)
	}

	s.logger.Info().Int64("staffID", staff.ID).Msg("Staff signed in")
	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken: accessToken,
			TokenType:   "Bearer",
			ExpiresIn:   expiresIn,
		},
		Staff: dto.NewStaffResponse(staff),
	}, nil
}
