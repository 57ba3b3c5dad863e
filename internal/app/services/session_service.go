package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/afterschool/sessions-api/internal/app/models"
	"github.com/afterschool/sessions-api/internal/app/models/dto"
	"github.com/afterschool/sessions-api/internal/app/repositories"
	"github.com/afterschool/sessions-api/internal/pkg/apperrors"
	"github.com/afterschool/sessions-api/internal/pkg/helpers"
	"github.com/afterschool/sessions-api/internal/pkg/schedule"
	"github.com/rs/zerolog"
)

// SessionListQuery selects a page of sessions
type SessionListQuery struct {
	Year            *int
	LocationID      *int64
	IncludeArchived bool
	Page            int
	PageSize        int
}

// SessionService defines the interface for session operations
type SessionService interface {
	List(ctx context.Context, query SessionListQuery) (*dto.SessionListResponse, error)
	Get(ctx context.Context, id int64) (*dto.SessionResponse, error)
	Create(ctx context.Context, req *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	Update(ctx context.Context, id int64, req *dto.UpdateSessionRequest) (*dto.SessionResponse, error)
	Delete(ctx context.Context, id int64) error
	Duplicate(ctx context.Context, id int64) (*dto.SessionResponse, error)
}

type sessionServiceImpl struct {
	store  SessionStore
	tx     Transactor
	logger zerolog.Logger
}

// NewSessionService creates a new session service
func NewSessionService(store SessionStore, tx Transactor, logger zerolog.Logger) SessionService {
	return &sessionServiceImpl{store: store, tx: tx, logger: logger}
}

func validateSession(s *models.Session) error {
	if !s.SessionType.IsValid() {
		return apperrors.NewValidationError(fmt.Sprintf("unknown session type %q", s.SessionType))
	}
	if strings.TrimSpace(s.Name) == "" {
		return apperrors.NewValidationError("name cannot be empty")
	}
	if s.DayOfWeek != nil && !s.DayOfWeek.IsValid() {
		return apperrors.NewValidationError("dayOfWeek must be between 0 (Monday) and 6 (Sunday)")
	}
	if s.SessionType == models.SessionTypeTerm && s.DayOfWeek == nil {
		return apperrors.NewValidationError("dayOfWeek is required for term sessions")
	}
	if (s.StartTime == nil) != (s.EndTime == nil) {
		return apperrors.NewValidationError("startTime and endTime must be set together")
	}
	if s.StartTime != nil && !s.StartTime.Before(*s.EndTime) {
		return apperrors.NewValidationError("startTime must be before endTime")
	}
	if s.AgeLower != nil && s.AgeUpper != nil && *s.AgeLower > *s.AgeUpper {
		return apperrors.NewValidationError("ageLower cannot be greater than ageUpper")
	}
	if s.Capacity != nil && *s.Capacity < 0 {
		return apperrors.NewValidationError("capacity cannot be negative")
	}
	return nil
}

func weekdayPtr(v *int) *schedule.Weekday {
	if v == nil {
		return nil
	}
	w := schedule.Weekday(*v)
	return &w
}

// uniqueIDs drops duplicates and returns the IDs sorted
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// checkReferences verifies the session's venue and every requested block exist
func (s *sessionServiceImpl) checkReferences(ctx context.Context, locationID int64, blockIDs []int64) error {
	if _, err := s.store.GetLocation(ctx, locationID); err != nil {
		return notFound(err, apperrors.ErrLocationNotFound, "Location not found")
	}
	if len(blockIDs) == 0 {
		return nil
	}

	blocks, err := s.store.GetBlocksByIDs(ctx, blockIDs)
	if err != nil {
		return fmt.Errorf("error loading blocks: %w", err)
	}
	if len(blocks) != len(blockIDs) {
		found := make(map[int64]bool, len(blocks))
		for _, b := range blocks {
			found[b.ID] = true
		}
		var missing []string
		for _, id := range blockIDs {
			if !found[id] {
				missing = append(missing, fmt.Sprint(id))
			}
		}
		return apperrors.NewValidationError("unknown block ids: " + strings.Join(missing, ", "))
	}
	return nil
}

// List returns a page of sessions with their linked block IDs
func (s *sessionServiceImpl) List(ctx context.Context, query SessionListQuery) (*dto.SessionListResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(query.Page, query.PageSize)
	filter := repositories.SessionFilter{
		Year:            query.Year,
		LocationID:      query.LocationID,
		IncludeArchived: query.IncludeArchived,
		Offset:          int(offset),
		Limit:           limit,
	}

	total, err := s.store.CountSessions(ctx, filter)
	if err != nil {
		return nil, err
	}
	sessions, err := s.store.ListSessions(ctx, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(sessions))
	for _, session := range sessions {
		ids = append(ids, session.ID)
	}
	links, err := s.store.SessionBlockIDsFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	resp := &dto.SessionListResponse{
		Sessions:       make([]dto.SessionResponse, 0, len(sessions)),
		PaginationInfo: helpers.NewPaginationInfo(total, query.Page, limit),
	}
	for _, session := range sessions {
		blockIDs := links[session.ID]
		if blockIDs == nil {
			blockIDs = []int64{}
		}
		resp.Sessions = append(resp.Sessions, dto.SessionResponse{Session: session, BlockIDs: blockIDs})
	}
	return resp, nil
}

// Get returns a session with its linked block IDs
func (s *sessionServiceImpl) Get(ctx context.Context, id int64) (*dto.SessionResponse, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrSessionNotFound, "Session not found")
	}
	blockIDs, err := s.store.SessionBlockIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.SessionResponse{Session: session, BlockIDs: blockIDs}, nil
}

// Create adds a session and links its blocks in one transaction
func (s *sessionServiceImpl) Create(ctx context.Context, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	session := &models.Session{
		LocationID:    req.LocationID,
		Year:          req.Year,
		SessionType:   models.SessionType(req.SessionType),
		Name:          strings.TrimSpace(req.Name),
		AgeLower:      req.AgeLower,
		AgeUpper:      req.AgeUpper,
		DayOfWeek:     weekdayPtr(req.DayOfWeek),
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Waitlist:      req.Waitlist,
		Capacity:      req.Capacity,
		WhatToBring:   helpers.TrimmedOrNil(req.WhatToBring),
		Prerequisites: helpers.TrimmedOrNil(req.Prerequisites),
		PhotoAlbumURL: helpers.TrimmedOrNil(req.PhotoAlbumURL),
		InternalNotes: helpers.TrimmedOrNil(req.InternalNotes),
	}
	if err := validateSession(session); err != nil {
		return nil, err
	}

	blockIDs := uniqueIDs(req.BlockIDs)
	if err := s.checkReferences(ctx, session.LocationID, blockIDs); err != nil {
		return nil, err
	}

	err := s.tx.InTx(ctx, func(ctx context.Context, tx TxStore) error {
		if err := tx.CreateSession(ctx, session); err != nil {
			return err
		}
		return tx.ReplaceSessionBlocks(ctx, session.ID, blockIDs)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("sessionID", session.ID).Str("name", session.Name).Msg("Session created")
	return &dto.SessionResponse{Session: session, BlockIDs: blockIDs}, nil
}

// Update applies the fields present in req; an explicit null clears a nullable
// field. A present blockIds list replaces the session's links.
func (s *sessionServiceImpl) Update(ctx context.Context, id int64, req *dto.UpdateSessionRequest) (*dto.SessionResponse, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrSessionNotFound, "Session not found")
	}

	if req.LocationID != nil {
		session.LocationID = *req.LocationID
	}
	if req.Year != nil {
		session.Year = *req.Year
	}
	if req.SessionType != nil {
		session.SessionType = models.SessionType(*req.SessionType)
	}
	if req.Name != nil {
		session.Name = strings.TrimSpace(*req.Name)
	}
	if req.AgeLower.Set {
		session.AgeLower = req.AgeLower.Value
	}
	if req.AgeUpper.Set {
		session.AgeUpper = req.AgeUpper.Value
	}
	if req.DayOfWeek.Set {
		session.DayOfWeek = weekdayPtr(req.DayOfWeek.Value)
	}
	if req.StartTime.Set {
		session.StartTime = req.StartTime.Value
	}
	if req.EndTime.Set {
		session.EndTime = req.EndTime.Value
	}
	if req.Waitlist != nil {
		session.Waitlist = *req.Waitlist
	}
	if req.Capacity.Set {
		session.Capacity = req.Capacity.Value
	}
	if req.WhatToBring.Set {
		session.WhatToBring = helpers.TrimmedOrNil(req.WhatToBring.Value)
	}
	if req.Prerequisites.Set {
		session.Prerequisites = helpers.TrimmedOrNil(req.Prerequisites.Value)
	}
	if req.PhotoAlbumURL.Set {
		session.PhotoAlbumURL = helpers.TrimmedOrNil(req.PhotoAlbumURL.Value)
	}
	if req.InternalNotes.Set {
		session.InternalNotes = helpers.TrimmedOrNil(req.InternalNotes.Value)
	}
	if req.Archived != nil {
		session.Archived = *req.Archived
	}
	if err := validateSession(session); err != nil {
		return nil, err
	}

	var blockIDs []int64
	if req.BlockIDs != nil {
		blockIDs = uniqueIDs(*req.BlockIDs)
	}
	if err := s.checkReferences(ctx, session.LocationID, blockIDs); err != nil {
		return nil, err
	}

	err = s.tx.InTx(ctx, func(ctx context.Context, tx TxStore) error {
		if err := tx.UpdateSession(ctx, session); err != nil {
			return notFound(err, apperrors.ErrSessionNotFound, "Session not found")
		}
		if req.BlockIDs != nil {
			if err := tx.ReplaceSessionBlocks(ctx, session.ID, blockIDs); err != nil {
				return err
			}
		}
		linked, err := tx.SessionBlockIDs(ctx, session.ID)
		blockIDs = linked
		return err
	})
	if err != nil {
		return nil, err
	}

	return &dto.SessionResponse{Session: session, BlockIDs: blockIDs}, nil
}

// Delete removes a session with its occurrences, links and signups
func (s *sessionServiceImpl) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteSession(ctx, id); err != nil {
		return notFound(err, apperrors.ErrSessionNotFound, "Session not found")
	}
	s.logger.Info().Int64("sessionID", id).Msg("Session deleted")
	return nil
}

// Duplicate copies a session and its block links. Occurrences and signups
// are not copied.
func (s *sessionServiceImpl) Duplicate(ctx context.Context, id int64) (*dto.SessionResponse, error) {
	var (
		copied   *models.Session
		blockIDs []int64
	)

	err := s.tx.InTx(ctx, func(ctx context.Context, tx TxStore) error {
		original, err := tx.GetSession(ctx, id)
		if err != nil {
			return notFound(err, apperrors.ErrSessionNotFound, "Session not found")
		}
		if blockIDs, err = tx.SessionBlockIDs(ctx, id); err != nil {
			return err
		}

		dup := *original
		dup.ID = 0
		dup.Name = original.Name + " (Copy)"
		if err := tx.CreateSession(ctx, &dup); err != nil {
			return err
		}
		if err := tx.ReplaceSessionBlocks(ctx, dup.ID, blockIDs); err != nil {
			return err
		}
		copied = &dup
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("sessionID", id).Int64("copyID", copied.ID).Msg("Session duplicated")
	return &dto.SessionResponse{Session: copied, BlockIDs: blockIDs}, nil
}
