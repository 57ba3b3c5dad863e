package services

import (
	"context"
	"strings"

	"github.com/afterschool/sessions-api/internal/app/models"
	"github.com/afterschool/sessions-api/internal/app/models/dto"
	"github.com/afterschool/sessions-api/internal/pkg/apperrors"
	"github.com/afterschool/sessions-api/internal/pkg/helpers"
	"github.com/rs/zerolog"
)

// LocationService defines the interface for venue operations
type LocationService interface {
	List(ctx context.Context) ([]*models.Location, error)
	Get(ctx context.Context, id int64) (*models.Location, error)
	Create(ctx context.Context, req *dto.CreateLocationRequest) (*models.Location, error)
	Update(ctx context.Context, id int64, req *dto.UpdateLocationRequest) (*models.Location, error)
}

type locationServiceImpl struct {
	store  LocationStore
	logger zerolog.Logger
}

// NewLocationService creates a new location service
func NewLocationService(store LocationStore, logger zerolog.Logger) LocationService {
	return &locationServiceImpl{store: store, logger: logger}
}

func validateLocation(l *models.Location) error {
	if l.Name == "" {
		return apperrors.NewValidationError("name cannot be empty")
	}
	if l.Address == "" {
		return apperrors.NewValidationError("address cannot be empty")
	}
	return nil
}

// List returns every venue ordered by region and name
func (s *locationServiceImpl) List(ctx context.Context) ([]*models.Location, error) {
	return s.store.ListLocations(ctx)
}

// Get returns a venue by ID
func (s *locationServiceImpl) Get(ctx context.Context, id int64) (*models.Location, error) {
	location, err := s.store.GetLocation(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrLocationNotFound, "Location not found")
	}
	return location, nil
}

// Create adds a venue
func (s *locationServiceImpl) Create(ctx context.Context, req *dto.CreateLocationRequest) (*models.Location, error) {
	location := &models.Location{
		Name:          strings.TrimSpace(req.Name),
		Address:       strings.TrimSpace(req.Address),
		Region:        helpers.TrimmedOrNil(req.Region),
		Lat:           req.Lat,
		Lng:           req.Lng,
		Instructions:  helpers.TrimmedOrNil(req.Instructions),
		ContactName:   helpers.TrimmedOrNil(req.ContactName),
		ContactEmail:  helpers.TrimmedOrNil(req.ContactEmail),
		ContactPhone:  helpers.TrimmedOrNil(req.ContactPhone),
		InternalNotes: helpers.TrimmedOrNil(req.InternalNotes),
	}
	if err := validateLocation(location); err != nil {
		return nil, err
	}

	if err := s.store.CreateLocation(ctx, location); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("locationID", location.ID).Str("name", location.Name).Msg("Location created")
	return location, nil
}

// Update applies the fields present in req
func (s *locationServiceImpl) Update(ctx context.Context, id int64, req *dto.UpdateLocationRequest) (*models.Location, error) {
	location, err := s.store.GetLocation(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrLocationNotFound, "Location not found")
	}

	if req.Name != nil {
		location.Name = strings.TrimSpace(*req.Name)
	}
	if req.Address != nil {
		location.Address = strings.TrimSpace(*req.Address)
	}
	if req.Region != nil {
		location.Region = helpers.TrimmedOrNil(req.Region)
	}
	if req.Lat != nil {
		location.Lat = req.Lat
	}
	if req.Lng != nil {
		location.Lng = req.Lng
	}
	if req.Instructions != nil {
		location.Instructions = helpers.TrimmedOrNil(req.Instructions)
	}
	if req.ContactName != nil {
		location.ContactName = helpers.TrimmedOrNil(req.ContactName)
	}
	if req.ContactEmail != nil {
		location.ContactEmail = helpers.TrimmedOrNil(req.ContactEmail)
	}
	if req.ContactPhone != nil {
		location.ContactPhone = helpers.TrimmedOrNil(req.ContactPhone)
	}
	if req.InternalNotes != nil {
		location.InternalNotes = helpers.TrimmedOrNil(req.InternalNotes)
	}
	if err := validateLocation(location); err != nil {
		return nil, err
	}

	if err := s.store.UpdateLocation(ctx, location); err != nil {
		return nil, notFound(err, apperrors.ErrLocationNotFound, "Location not found")
	}
	return location, nil
}
