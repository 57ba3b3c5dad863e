package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/afterschool/sessions-api/internal/app/models"
	"github.com/afterschool/sessions-api/internal/app/models/dto"
	"github.com/afterschool/sessions-api/internal/pkg/apperrors"
	"github.com/afterschool/sessions-api/internal/pkg/schedule"
	"github.com/rs/zerolog"
)

// BlockService defines the interface for block operations
type BlockService interface {
	List(ctx context.Context, year *int) ([]*models.Block, error)
	Get(ctx context.Context, id int64) (*models.Block, error)
	Create(ctx context.Context, req *dto.CreateBlockRequest) (*models.Block, error)
	Update(ctx context.Context, id int64, req *dto.UpdateBlockRequest) (*models.Block, error)
}

type blockServiceImpl struct {
	store           BlockStore
	defaultTimezone string
	logger          zerolog.Logger
}

// NewBlockService creates a new block service. Blocks created without a
// timezone get defaultTimezone.
func NewBlockService(store BlockStore, defaultTimezone string, logger zerolog.Logger) BlockService {
	return &blockServiceImpl{
		store:           store,
		defaultTimezone: defaultTimezone,
		logger:          logger,
	}
}

// yearBounds returns 1 January and 31 December of year
func yearBounds(year int) (time.Time, time.Time) {
	return schedule.NewDate(year, time.January, 1), schedule.NewDate(year, time.December, 31)
}

func (s *blockServiceImpl) validateBlock(b *models.Block) error {
	if !b.BlockType.IsValid() {
		return apperrors.NewValidationError(fmt.Sprintf("unknown block type %q", b.BlockType))
	}
	if strings.TrimSpace(b.Name) == "" {
		return apperrors.NewValidationError("name cannot be empty")
	}
	if b.BlockType == models.BlockTypeSpecial {
		b.StartDate, b.EndDate = yearBounds(b.Year)
	}
	if b.StartDate.IsZero() || b.EndDate.IsZero() {
		return apperrors.NewValidationError("startDate and endDate are required for term blocks")
	}
	if b.StartDate.After(b.EndDate) {
		return apperrors.NewValidationError("startDate must be on or before endDate")
	}
	if b.Timezone == "" {
		b.Timezone = s.defaultTimezone
	}
	if _, err := time.LoadLocation(b.Timezone); err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("unknown timezone %q", b.Timezone))
	}
	return nil
}

func parseOptionalDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	d, err := schedule.ParseDate(value)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError(fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field))
	}
	return d, nil
}

// List returns blocks ordered by year and start date
func (s *blockServiceImpl) List(ctx context.Context, year *int) ([]*models.Block, error) {
	return s.store.ListBlocks(ctx, year)
}

// Get returns a block by ID
func (s *blockServiceImpl) Get(ctx context.Context, id int64) (*models.Block, error) {
	block, err := s.store.GetBlock(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrBlockNotFound, "Block not found")
	}
	return block, nil
}

// Create adds a block. Special blocks always span their whole year.
func (s *blockServiceImpl) Create(ctx context.Context, req *dto.CreateBlockRequest) (*models.Block, error) {
	block := &models.Block{
		Year:      req.Year,
		BlockType: models.BlockType(req.BlockType),
		Name:      strings.TrimSpace(req.Name),
		Timezone:  strings.TrimSpace(req.Timezone),
	}

	var err error
	if block.StartDate, err = parseOptionalDate("startDate", req.StartDate); err != nil {
		return nil, err
	}
	if block.EndDate, err = parseOptionalDate("endDate", req.EndDate); err != nil {
		return nil, err
	}
	if err := s.validateBlock(block); err != nil {
		return nil, err
	}

	if err := s.store.CreateBlock(ctx, block); err != nil {
		if errors.Is(err, apperrors.ErrBlockAlreadyExists) {
			return nil, apperrors.NewCustomError(apperrors.ErrBlockAlreadyExists,
				fmt.Sprintf("A %s block already exists for %d", block.BlockType, block.Year))
		}
		return nil, err
	}

	s.logger.Info().Int64("blockID", block.ID).Int("year", block.Year).Str("blockType", string(block.BlockType)).Msg("Block created")
	return block, nil
}

// Update changes a block's name, dates or timezone
func (s *blockServiceImpl) Update(ctx context.Context, id int64, req *dto.UpdateBlockRequest) (*models.Block, error) {
	block, err := s.store.GetBlock(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrBlockNotFound, "Block not found")
	}

	if req.Name != nil {
		block.Name = strings.TrimSpace(*req.Name)
	}
	if req.StartDate != nil {
		if block.StartDate, err = parseOptionalDate("startDate", *req.StartDate); err != nil {
			return nil, err
		}
	}
	if req.EndDate != nil {
		if block.EndDate, err = parseOptionalDate("endDate", *req.EndDate); err != nil {
			return nil, err
		}
	}
	if req.Timezone != nil {
		block.Timezone = strings.TrimSpace(*req.Timezone)
	}
	if err := s.validateBlock(block); err != nil {
		return nil, err
	}

	if err := s.store.UpdateBlock(ctx, block); err != nil {
		return nil, notFound(err, apperrors.ErrBlockNotFound, "Block not found")
	}
	return block, nil
}
