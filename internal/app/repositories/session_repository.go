package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/afterschool/sessions-api/internal/app/models"
	"github.com/afterschool/sessions-api/internal/pkg/helpers"
	"github.com/afterschool/sessions-api/internal/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

var sessionColumns = []string{
	"id", "session_location_id", "year", "session_type", "name", "age_lower", "age_upper",
	"day_of_week", "start_time", "end_time", "waitlist", "capacity", "what_to_bring",
	"prerequisites", "photo_album_url", "internal_notes", "archived", "created_at", "updated_at",
}

// SessionFilter narrows ListSessions and CountSessions. Search matches
// session names case-insensitively.
type SessionFilter struct {
	Year            *int
	LocationID      *int64
	IncludeArchived bool
	Search          string
	Offset          int
	Limit           int
}

// SessionRepository handles session and session block link database operations
type SessionRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db, sb: newBuilder()}
}

func scanSession(row pgx.Row) (*models.Session, error) {
	s := &models.Session{}
	var (
		dayOfWeek          pgtype.Int2
		startTime, endTime pgtype.Time
	)
	err := row.Scan(&s.ID, &s.LocationID, &s.Year, &s.SessionType, &s.Name, &s.AgeLower, &s.AgeUpper,
		&dayOfWeek, &startTime, &endTime, &s.Waitlist, &s.Capacity, &s.WhatToBring,
		&s.Prerequisites, &s.PhotoAlbumURL, &s.InternalNotes, &s.Archived, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.DayOfWeek = helpers.WeekdayFromPg(dayOfWeek)
	s.StartTime = helpers.TimeOfDayFromPg(startTime)
	s.EndTime = helpers.TimeOfDayFromPg(endTime)
	return s, nil
}

func sessionValues(s *models.Session) map[string]interface{} {
	return map[string]interface{}{
		"session_location_id": s.LocationID,
		"year":                s.Year,
		"session_type":        s.SessionType,
		"name":                s.Name,
		"age_lower":           s.AgeLower,
		"age_upper":           s.AgeUpper,
		"day_of_week":         helpers.PgWeekday(s.DayOfWeek),
		"start_time":          helpers.PgTime(s.StartTime),
		"end_time":            helpers.PgTime(s.EndTime),
		"waitlist":            s.Waitlist,
		"capacity":            s.Capacity,
		"what_to_bring":       s.WhatToBring,
		"prerequisites":       s.Prerequisites,
		"photo_album_url":     s.PhotoAlbumURL,
		"internal_notes":      s.InternalNotes,
		"archived":            s.Archived,
	}
}

func applySessionFilter(q squirrel.SelectBuilder, f SessionFilter) squirrel.SelectBuilder {
	if f.Year != nil {
		q = q.Where(squirrel.Eq{"year": *f.Year})
	}
	if f.LocationID != nil {
		q = q.Where(squirrel.Eq{"session_location_id": *f.LocationID})
	}
	if !f.IncludeArchived {
		q = q.Where(squirrel.Eq{"archived": false})
	}
	if f.Search != "" {
		q = q.Where(squirrel.ILike{"name": "%" + f.Search + "%"})
	}
	return q
}

// CreateSession inserts a session
func (r *SessionRepository) CreateSession(ctx context.Context, s *models.Session) error {
	sql, args, err := r.sb.Insert("sessions").
		SetMap(sessionValues(s)).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create session query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		logger.Error().Err(err).Str("name", s.Name).Msg("Error executing create session query")
		return fmt.Errorf("error creating session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID
func (r *SessionRepository) GetSession(ctx context.Context, id int64) (*models.Session, error) {
	sql, args, err := r.sb.Select(sessionColumns...).
		From("sessions").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get session query: %w", err)
	}

	s, err := scanSession(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Error().Err(err).Int64("sessionID", id).Msg("Error scanning session row")
		return nil, fmt.Errorf("error getting session: %w", err)
	}
	return s, nil
}

// ListSessions retrieves one page of sessions ordered by year, weekday and start time
func (r *SessionRepository) ListSessions(ctx context.Context, f SessionFilter) ([]*models.Session, error) {
	q := applySessionFilter(r.sb.Select(sessionColumns...).From("sessions"), f).
		OrderBy("year DESC", "day_of_week ASC NULLS LAST", "start_time ASC NULLS LAST", "name ASC")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit)).Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list sessions query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list sessions query")
		return nil, fmt.Errorf("error querying sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*models.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning session row: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}
	return sessions, nil
}

// CountSessions counts the sessions matching f, ignoring paging
func (r *SessionRepository) CountSessions(ctx context.Context, f SessionFilter) (int64, error) {
	sql, args, err := applySessionFilter(r.sb.Select("COUNT(*)").From("sessions"), f).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count sessions query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error executing count sessions query")
		return 0, fmt.Errorf("error counting sessions: %w", err)
	}
	return total, nil
}

// UpdateSession writes every editable column of s
func (r *SessionRepository) UpdateSession(ctx context.Context, s *models.Session) error {
	values := sessionValues(s)
	values["updated_at"] = squirrel.Expr("NOW()")

	sql, args, err := r.sb.Update("sessions").
		SetMap(values).
		Where(squirrel.Eq{"id": s.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update session query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		logger.Error().Err(err).Int64("sessionID", s.ID).Msg("Error executing update session query")
		return fmt.Errorf("error updating session: %w", err)
	}
	return nil
}

// DeleteSession removes a session. Links, occurrences and signups cascade.
func (r *SessionRepository) DeleteSession(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("sessions").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete session query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("sessionID", id).Msg("Error executing delete session query")
		return fmt.Errorf("error deleting session: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceSessionBlocks makes blockIDs the exact set of blocks linked to the session
func (r *SessionRepository) ReplaceSessionBlocks(ctx context.Context, sessionID int64, blockIDs []int64) error {
	sql, args, err := r.sb.Delete("session_block_links").Where(squirrel.Eq{"session_id": sessionID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete session blocks query: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("sessionID", sessionID).Msg("Error clearing session blocks")
		return fmt.Errorf("error clearing session blocks: %w", err)
	}

	if len(blockIDs) == 0 {
		return nil
	}

	insert := r.sb.Insert("session_block_links").Columns("session_id", "block_id")
	for _, blockID := range blockIDs {
		insert = insert.Values(sessionID, blockID)
	}
	sql, args, err = insert.Suffix("ON CONFLICT (session_id, block_id) DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert session blocks query: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("sessionID", sessionID).Msg("Error linking session blocks")
		return fmt.Errorf("error linking session blocks: %w", err)
	}
	return nil
}

// SessionBlockIDs returns the IDs of the blocks linked to a session
func (r *SessionRepository) SessionBlockIDs(ctx context.Context, sessionID int64) ([]int64, error) {
	links, err := r.SessionBlockIDsFor(ctx, []int64{sessionID})
	if err != nil {
		return nil, err
	}
	ids := links[sessionID]
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}

// SessionBlockIDsFor returns the linked block IDs of several sessions keyed by session ID
func (r *SessionRepository) SessionBlockIDsFor(ctx context.Context, sessionIDs []int64) (map[int64][]int64, error) {
	links := make(map[int64][]int64, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return links, nil
	}

	sql, args, err := r.sb.Select("l.session_id", "l.block_id").
		From("session_block_links l").
		Join("session_blocks b ON b.id = l.block_id").
		Where(squirrel.Eq{"l.session_id": sessionIDs}).
		OrderBy("l.session_id ASC", "b.start_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build session blocks query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing session blocks query")
		return nil, fmt.Errorf("error querying session blocks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sessionID, blockID int64
		if err := rows.Scan(&sessionID, &blockID); err != nil {
			return nil, fmt.Errorf("error scanning session block row: %w", err)
		}
		links[sessionID] = append(links[sessionID], blockID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session block rows: %w", err)
	}
	return links, nil
}
