package dto

import "github.com/afterschool/sessions-api/internal/app/models"

// LoginRequest represents staff login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// StaffResponse represents a signed-in staff member
type StaffResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	Staff StaffResponse `json:"staff"`
}

// NewStaffResponse maps a staff row to its public shape
func NewStaffResponse(s *models.Staff) StaffResponse {
	return StaffResponse{
		ID:    s.ID,
		Email: s.Email,
		Name:  s.Name,
		Role:  string(s.Role),
	}
}
