package middleware

import (
	"errors"
	"net/http"

	"github.com/afterschool/sessions-api/internal/app/models/dto"
	"github.com/afterschool/sessions-api/internal/pkg/apperrors"
	"github.com/afterschool/sessions-api/internal/pkg/dberrors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// HandleAPIError maps an error returned by a service to an HTTP error response
func HandleAPIError(c *gin.Context, err error) {
	status, detail := errorDetailFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("Unhandled error in request")
	}
	c.JSON(status, dto.NewErrorResponse(detail))
}

func errorDetailFor(err error) (int, *dto.ErrorDetail) {
	message := apperrors.Message(err)
	withMessage := func(d *dto.ErrorDetail) *dto.ErrorDetail {
		if message != "" {
			d.WithDetails(message)
		}
		return d
	}

	switch {
	case apperrors.Is(err, apperrors.ErrResourceNotFound,
		apperrors.ErrSessionNotFound,
		apperrors.ErrBlockNotFound,
		apperrors.ErrLocationNotFound,
		apperrors.ErrExclusionNotFound,
		apperrors.ErrOccurrenceNotFound,
		apperrors.ErrSignupNotFound):
		return http.StatusNotFound, withMessage(dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Resource not found"))

	case apperrors.Is(err, apperrors.ErrConflict,
		apperrors.ErrResourceAlreadyExists,
		apperrors.ErrBlockAlreadyExists,
		apperrors.ErrExclusionAlreadyExists,
		apperrors.ErrOccurrenceAlreadyExists):
		return http.StatusConflict, withMessage(dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "Resource already exists"))

	case errors.Is(err, apperrors.ErrValidationFailed):
		return http.StatusBadRequest, withMessage(dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed"))

	case errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, withMessage(dto.NewErrorDetail(dto.ErrorCodeInvalidPayload, "Bad request"))

	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidCredentials, "Invalid credentials")

	case errors.Is(err, apperrors.ErrAccountDisabled):
		return http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeAccountDisabled, "Account is disabled")

	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired")

	case errors.Is(err, apperrors.ErrTokenInvalid):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token")

	case errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden, withMessage(dto.NewErrorDetail(dto.ErrorCodeForbidden, "Permission denied"))

	case errors.Is(err, apperrors.ErrRateLimited):
		return http.StatusTooManyRequests, dto.NewErrorDetail(dto.ErrorCodeRateLimited, "Too many requests").
			WithSeverity(dto.ErrorSeverityWarning)

	case errors.Is(err, apperrors.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, withMessage(dto.NewErrorDetail(dto.ErrorCodeExternalServiceError, "Service unavailable"))

	case dberrors.IsUnavailable(err):
		return http.StatusServiceUnavailable, dto.NewErrorDetail(dto.ErrorCodeDatabaseError, "Database unavailable").
			WithSeverity(dto.ErrorSeverityCritical)

	default:
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
	}
}
