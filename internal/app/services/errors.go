package services

import (
	"errors"
	"fmt"

	"github.com/afterschool/sessions-api/internal/app/repositories"
	"github.com/afterschool/sessions-api/internal/pkg/apperrors"
)

// notFound maps a missing row to sentinel with a caller-facing message and
// passes every other error through.
func notFound(err, sentinel error, message string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.NewCustomError(sentinel, message)
	}
	return err
}

// invalid reports a validation failure that matches both
// apperrors.ErrValidationFailed and reason.
func invalid(reason error) error {
	return invalidf(reason, "%s", reason.Error())
}

func invalidf(reason error, format string, args ...interface{}) error {
	return &apperrors.CustomError{
		Err:     fmt.Errorf("%w: %w", apperrors.ErrValidationFailed, reason),
		Message: fmt.Sprintf(format, args...),
	}
}
