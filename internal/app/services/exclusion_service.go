package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/afterschool/sessions-api/internal/app/models"
	"github.com/afterschool/sessions-api/internal/app/models/dto"
	"github.com/afterschool/sessions-api/internal/pkg/apperrors"
	"github.com/afterschool/sessions-api/internal/pkg/helpers"
	"github.com/afterschool/sessions-api/internal/pkg/schedule"
	"github.com/rs/zerolog"
)

// ExclusionService defines the interface for exclusion date operations
type ExclusionService interface {
	List(ctx context.Context, year int) ([]*models.ExclusionDate, error)
	Create(ctx context.Context, req *dto.CreateExclusionRequest) (*models.ExclusionDate, error)
	UpdateReason(ctx context.Context, id int64, req *dto.UpdateExclusionRequest) (*models.ExclusionDate, error)
	Delete(ctx context.Context, id int64) error
}

type exclusionServiceImpl struct {
	store  ExclusionStore
	logger zerolog.Logger
}

// NewExclusionService creates a new exclusion service
func NewExclusionService(store ExclusionStore, logger zerolog.Logger) ExclusionService {
	return &exclusionServiceImpl{store: store, logger: logger}
}

// List returns the exclusion dates of one year in date order
func (s *exclusionServiceImpl) List(ctx context.Context, year int) ([]*models.ExclusionDate, error) {
	return s.store.ExclusionsForYears(ctx, []int{year})
}

// Create adds an exclusion date; its year is taken from the date
func (s *exclusionServiceImpl) Create(ctx context.Context, req *dto.CreateExclusionRequest) (*models.ExclusionDate, error) {
	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		return nil, apperrors.NewValidationError("date must be in YYYY-MM-DD format")
	}

	exclusion := &models.ExclusionDate{
		Year:   date.Year(),
		Date:   date,
		Reason: helpers.TrimmedOrNil(req.Reason),
	}
	if err := s.store.CreateExclusion(ctx, exclusion); err != nil {
		if errors.Is(err, apperrors.ErrExclusionAlreadyExists) {
			return nil, apperrors.NewCustomError(apperrors.ErrExclusionAlreadyExists,
				fmt.Sprintf("%s is already excluded", req.Date))
		}
		return nil, err
	}

	s.logger.Info().Int64("exclusionID", exclusion.ID).Str("date", req.Date).Msg("Exclusion date created")
	return exclusion, nil
}

// UpdateReason replaces the reason of an exclusion date
func (s *exclusionServiceImpl) UpdateReason(ctx context.Context, id int64, req *dto.UpdateExclusionRequest) (*models.ExclusionDate, error) {
	exclusion, err := s.store.UpdateExclusionReason(ctx, id, helpers.TrimmedOrNil(req.Reason))
	if err != nil {
		return nil, notFound(err, apperrors.ErrExclusionNotFound, "Exclusion date not found")
	}
	return exclusion, nil
}

// Delete removes an exclusion date
func (s *exclusionServiceImpl) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteExclusion(ctx, id); err != nil {
		return notFound(err, apperrors.ErrExclusionNotFound, "Exclusion date not found")
	}
	s.logger.Info().Int64("exclusionID", id).Msg("Exclusion date deleted")
	return nil
}
