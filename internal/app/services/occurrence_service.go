package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/afterschool/sessions-api/internal/app/models"
	"github.com/afterschool/sessions-api/internal/app/models/dto"
	"github.com/afterschool/sessions-api/internal/pkg/apperrors"
	"github.com/afterschool/sessions-api/internal/pkg/schedule"
	"github.com/rs/zerolog"
)

// Generation refusals
var (
	ErrNotTermSession     = errors.New("occurrence generation is for term sessions")
	ErrIncompleteSchedule = errors.New("session schedule is incomplete")
	ErrNoBlocksSelected   = errors.New("no blocks selected for this session")
)

// OccurrenceService defines the interface for occurrence operations
type OccurrenceService interface {
	Generate(ctx context.Context, sessionID int64) (*dto.GenerateOccurrencesResponse, error)
	Regenerate(ctx context.Context, sessionID int64, deleteAutoGenerated bool) (*dto.RegenerateOccurrencesResponse, error)
	List(ctx context.Context, sessionID int64) ([]*models.Occurrence, error)
	CreateManual(ctx context.Context, sessionID int64, req *dto.CreateOccurrenceRequest) (*models.Occurrence, error)
	SetCancelled(ctx context.Context, occurrenceID int64, req *dto.CancelOccurrenceRequest) (*models.Occurrence, error)
}

// ChangeNotifier is told when an occurrence is cancelled or reinstated
type ChangeNotifier interface {
	NotifyOccurrenceChange(ctx context.Context, session *models.Session, occurrence *models.Occurrence) error
}

type occurrenceServiceImpl struct {
	store       OccurrenceStore
	tx          Transactor
	notifier    ChangeNotifier
	defaultZone *time.Location
	logger      zerolog.Logger
}

// NewOccurrenceService creates a new occurrence service. defaultZone is used
// for blocks that carry no timezone of their own.
func NewOccurrenceService(
	store OccurrenceStore,
	tx Transactor,
	notifier ChangeNotifier,
	defaultZone *time.Location,
	logger zerolog.Logger,
) OccurrenceService {
	if defaultZone == nil {
		defaultZone = time.UTC
	}
	return &occurrenceServiceImpl{
		store:       store,
		tx:          tx,
		notifier:    notifier,
		defaultZone: defaultZone,
		logger:      logger,
	}
}

// generationPlan is everything needed to expand one session, loaded and
// validated before any row is written.
type generationPlan struct {
	session  *models.Session
	rule     schedule.Rule
	blocks   []*models.Block
	windows  []schedule.Window
	excluded schedule.Exclusions
}

func (s *occurrenceServiceImpl) loadPlan(ctx context.Context, store GenerationStore, sessionID int64) (*generationPlan, error) {
	session, err := store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, notFound(err, apperrors.ErrSessionNotFound, "Session not found")
	}
	if session.SessionType != models.SessionTypeTerm {
		return nil, invalid(ErrNotTermSession)
	}

	rule, ok := session.WeeklyRule()
	if !ok {
		return nil, invalid(ErrIncompleteSchedule)
	}
	if err := rule.Validate(); err != nil {
		return nil, invalidf(ErrIncompleteSchedule, "%s: %v", ErrIncompleteSchedule, err)
	}

	blocks, err := store.ListSessionBlocks(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("error loading session blocks: %w", err)
	}
	if len(blocks) == 0 {
		return nil, invalid(ErrNoBlocksSelected)
	}

	plan := &generationPlan{session: session, rule: rule, blocks: blocks, excluded: schedule.Exclusions{}}

	var years []int
	seen := make(map[int]bool)
	for _, b := range blocks {
		loc, err := s.blockLocation(b)
		if err != nil {
			return nil, err
		}
		plan.windows = append(plan.windows, schedule.Window{Start: b.StartDate, End: b.EndDate, Year: b.Year, Location: loc})
		if !seen[b.Year] {
			seen[b.Year] = true
			years = append(years, b.Year)
		}
	}

	exclusions, err := store.ExclusionsForYears(ctx, years)
	if err != nil {
		return nil, fmt.Errorf("error loading exclusion dates: %w", err)
	}
	for _, e := range exclusions {
		plan.excluded.Add(e.Year, e.Date)
	}

	return plan, nil
}

func (s *occurrenceServiceImpl) blockLocation(b *models.Block) (*time.Location, error) {
	if b.Timezone == "" {
		return s.defaultZone, nil
	}
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("block %q has an unknown timezone %q", b.Name, b.Timezone))
	}
	return loc, nil
}

// apply expands every window of plan and inserts the slots not already present
func (s *occurrenceServiceImpl) apply(ctx context.Context, store GenerationStore, plan *generationPlan) (created, skipped int, err error) {
	existing, err := store.ExistingStartTimes(ctx, plan.session.ID)
	if err != nil {
		return 0, 0, fmt.Errorf("error loading existing occurrences: %w", err)
	}

	for i, window := range plan.windows {
		block := plan.blocks[i]
		for _, slot := range schedule.Expand(plan.rule, window, plan.excluded) {
			key := schedule.InstantKey(slot.StartsAt)
			if _, ok := existing[key]; ok {
				skipped++
				continue
			}

			blockID := block.ID
			inserted, err := store.InsertGeneratedOccurrence(ctx, &models.Occurrence{
				SessionID:     plan.session.ID,
				BlockID:       &blockID,
				StartsAt:      slot.StartsAt,
				EndsAt:        slot.EndsAt,
				AutoGenerated: true,
			})
			if err != nil {
				return 0, 0, err
			}
			existing[key] = struct{}{}
			if inserted {
				created++
			} else {
				skipped++
			}
		}
	}
	return created, skipped, nil
}

// Generate adds the occurrences of a term session that do not exist yet
func (s *occurrenceServiceImpl) Generate(ctx context.Context, sessionID int64) (*dto.GenerateOccurrencesResponse, error) {
	result := &dto.GenerateOccurrencesResponse{}

	err := s.tx.InTx(ctx, func(ctx context.Context, tx TxStore) error {
		plan, err := s.loadPlan(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		result.Created, result.SkippedExisting, err = s.apply(ctx, tx, plan)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("sessionID", sessionID).
		Int("created", result.Created).
		Int("skippedExisting", result.SkippedExisting).
		Msg("Generated session occurrences")
	return result, nil
}

// Regenerate optionally deletes the auto-generated occurrences of a session
// and then generates again. Manually added occurrences are never deleted.
func (s *occurrenceServiceImpl) Regenerate(ctx context.Context, sessionID int64, deleteAutoGenerated bool) (*dto.RegenerateOccurrencesResponse, error) {
	result := &dto.RegenerateOccurrencesResponse{}

	err := s.tx.InTx(ctx, func(ctx context.Context, tx TxStore) error {
		plan, err := s.loadPlan(ctx, tx, sessionID)
		if err != nil {
			return err
		}

		if deleteAutoGenerated {
			deleted, err := tx.DeleteAutoGeneratedOccurrences(ctx, sessionID)
			if err != nil {
				return err
			}
			result.Deleted = int(deleted)
		}

		result.Created, result.SkippedExisting, err = s.apply(ctx, tx, plan)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("sessionID", sessionID).
		Bool("deleteAutoGenerated", deleteAutoGenerated).
		Int("deleted", result.Deleted).
		Int("created", result.Created).
		Int("skippedExisting", result.SkippedExisting).
		Msg("Regenerated session occurrences")
	return result, nil
}

// List returns a session's occurrences in start order
func (s *occurrenceServiceImpl) List(ctx context.Context, sessionID int64) ([]*models.Occurrence, error) {
	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, notFound(err, apperrors.ErrSessionNotFound, "Session not found")
	}
	return s.store.ListOccurrences(ctx, sessionID)
}

// CreateManual adds a one-off occurrence. Without an explicit block the first
// linked block containing the start date is assigned.
func (s *occurrenceServiceImpl) CreateManual(ctx context.Context, sessionID int64, req *dto.CreateOccurrenceRequest) (*models.Occurrence, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, notFound(err, apperrors.ErrSessionNotFound, "Session not found")
	}
	if !req.StartsAt.Before(req.EndsAt) {
		return nil, apperrors.NewValidationError("startsAt must be before endsAt")
	}

	occurrence := &models.Occurrence{
		SessionID:     session.ID,
		StartsAt:      req.StartsAt,
		EndsAt:        req.EndsAt,
		AutoGenerated: false,
	}

	if req.BlockID != nil {
		block, err := s.store.GetBlock(ctx, *req.BlockID)
		if err != nil {
			return nil, notFound(err, apperrors.ErrBlockNotFound, "Block not found")
		}
		occurrence.BlockID = &block.ID
	} else {
		blocks, err := s.store.ListSessionBlocks(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("error loading session blocks: %w", err)
		}
		for _, b := range blocks {
			loc, err := s.blockLocation(b)
			if err != nil {
				continue
			}
			if b.Contains(schedule.Date(req.StartsAt.In(loc))) {
				id := b.ID
				occurrence.BlockID = &id
				break
			}
		}
	}

	if err := s.store.CreateOccurrence(ctx, occurrence); err != nil {
		if errors.Is(err, apperrors.ErrOccurrenceAlreadyExists) {
			return nil, apperrors.NewCustomError(apperrors.ErrOccurrenceAlreadyExists, "An occurrence already starts at this time")
		}
		return nil, err
	}

	s.logger.Info().Int64("sessionID", sessionID).Int64("occurrenceID", occurrence.ID).Msg("Created manual occurrence")
	return occurrence, nil
}

// SetCancelled cancels or reinstates an occurrence and notifies confirmed
// signups when its state or reason changed.
func (s *occurrenceServiceImpl) SetCancelled(ctx context.Context, occurrenceID int64, req *dto.CancelOccurrenceRequest) (*models.Occurrence, error) {
	if req.Cancelled == nil {
		return nil, apperrors.NewValidationError("cancelled is required")
	}

	before, err := s.store.GetOccurrence(ctx, occurrenceID)
	if err != nil {
		return nil, notFound(err, apperrors.ErrOccurrenceNotFound, "Occurrence not found")
	}

	cancelled := *req.Cancelled
	reason := req.Reason
	if !cancelled {
		reason = nil
	}

	after, err := s.store.SetOccurrenceCancelled(ctx, occurrenceID, cancelled, reason)
	if err != nil {
		return nil, notFound(err, apperrors.ErrOccurrenceNotFound, "Occurrence not found")
	}

	if before.Cancelled == after.Cancelled && sameReason(before.CancellationReason, after.CancellationReason) {
		return after, nil
	}

	s.logger.Info().
		Int64("occurrenceID", occurrenceID).
		Bool("cancelled", after.Cancelled).
		Msg("Occurrence cancellation state changed")

	session, err := s.store.GetSession(ctx, after.SessionID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("sessionID", after.SessionID).Msg("Could not load session for change notification")
		return after, nil
	}
	if err := s.notifier.NotifyOccurrenceChange(ctx, session, after); err != nil {
		s.logger.Warn().Err(err).Int64("occurrenceID", occurrenceID).Msg("Could not queue change notification")
	}
	return after, nil
}

func sameReason(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
