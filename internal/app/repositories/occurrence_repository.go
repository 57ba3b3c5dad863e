package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/afterschool/sessions-api/internal/app/models"
	"github.com/afterschool/sessions-api/internal/pkg/apperrors"
	"github.com/afterschool/sessions-api/internal/pkg/dberrors"
	"github.com/afterschool/sessions-api/internal/pkg/logger"
	"github.com/afterschool/sessions-api/internal/pkg/schedule"
	"github.com/jackc/pgx/v5"
)

// ConstraintOccurrenceSessionStart is the unique (session_id, starts_at) constraint
const ConstraintOccurrenceSessionStart = "uq_session_occurrences_session_start"

var occurrenceColumns = []string{
	"o.id", "o.session_id", "o.block_id", "o.starts_at", "o.ends_at",
	"o.cancelled", "o.cancellation_reason", "o.auto_generated", "o.created_at",
}

// OccurrenceRepository handles session occurrence database operations
type OccurrenceRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewOccurrenceRepository creates a new OccurrenceRepository
func NewOccurrenceRepository(db DBTX) *OccurrenceRepository {
	return &OccurrenceRepository{db: db, sb: newBuilder()}
}

func scanOccurrence(row pgx.Row, extra ...any) (*models.Occurrence, error) {
	o := &models.Occurrence{}
	dest := append([]any{&o.ID, &o.SessionID, &o.BlockID, &o.StartsAt, &o.EndsAt,
		&o.Cancelled, &o.CancellationReason, &o.AutoGenerated, &o.CreatedAt}, extra...)
	err := row.Scan(dest...)
	return o, err
}

// ListOccurrences retrieves a session's occurrences in start order, with block names
func (r *OccurrenceRepository) ListOccurrences(ctx context.Context, sessionID int64) ([]*models.Occurrence, error) {
	sql, args, err := r.sb.Select(append(occurrenceColumns, "b.name")...).
		From("session_occurrences o").
		LeftJoin("session_blocks b ON b.id = o.block_id").
		Where(squirrel.Eq{"o.session_id": sessionID}).
		OrderBy("o.starts_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list occurrences query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("sessionID", sessionID).Msg("Error executing list occurrences query")
		return nil, fmt.Errorf("error querying occurrences: %w", err)
	}
	defer rows.Close()

	occurrences := []*models.Occurrence{}
	for rows.Next() {
		var blockName *string
		o, err := scanOccurrence(rows, &blockName)
		if err != nil {
			return nil, fmt.Errorf("error scanning occurrence row: %w", err)
		}
		o.BlockName = blockName
		occurrences = append(occurrences, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating occurrence rows: %w", err)
	}
	return occurrences, nil
}

// GetOccurrence retrieves an occurrence by ID
func (r *OccurrenceRepository) GetOccurrence(ctx context.Context, id int64) (*models.Occurrence, error) {
	sql, args, err := r.sb.Select(occurrenceColumns...).
		From("session_occurrences o").
		Where(squirrel.Eq{"o.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get occurrence query: %w", err)
	}

	o, err := scanOccurrence(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Error().Err(err).Int64("occurrenceID", id).Msg("Error scanning occurrence row")
		return nil, fmt.Errorf("error getting occurrence: %w", err)
	}
	return o, nil
}

// ExistingStartTimes returns the start instants of every occurrence of a session,
// keyed by schedule.InstantKey
func (r *OccurrenceRepository) ExistingStartTimes(ctx context.Context, sessionID int64) (map[int64]struct{}, error) {
	sql, args, err := r.sb.Select("starts_at").
		From("session_occurrences").
		Where(squirrel.Eq{"session_id": sessionID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build existing starts query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("sessionID", sessionID).Msg("Error executing existing starts query")
		return nil, fmt.Errorf("error querying existing starts: %w", err)
	}
	defer rows.Close()

	starts := make(map[int64]struct{})
	for rows.Next() {
		var startsAt time.Time
		if err := rows.Scan(&startsAt); err != nil {
			return nil, fmt.Errorf("error scanning start time: %w", err)
		}
		starts[schedule.InstantKey(startsAt)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating start times: %w", err)
	}
	return starts, nil
}

// InsertGeneratedOccurrence inserts an auto-generated occurrence unless one already
// starts at the same instant. It reports whether a row was written.
func (r *OccurrenceRepository) InsertGeneratedOccurrence(ctx context.Context, o *models.Occurrence) (bool, error) {
	sql, args, err := r.sb.Insert("session_occurrences").
		Columns("session_id", "block_id", "starts_at", "ends_at", "cancelled", "auto_generated").
		Values(o.SessionID, o.BlockID, o.StartsAt, o.EndsAt, false, true).
		Suffix("ON CONFLICT (session_id, starts_at) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build insert occurrence query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("sessionID", o.SessionID).Time("startsAt", o.StartsAt).Msg("Error inserting generated occurrence")
		return false, fmt.Errorf("error inserting occurrence: %w", err)
	}
	return cmdTag.RowsAffected() == 1, nil
}

// CreateOccurrence inserts a manually added occurrence
func (r *OccurrenceRepository) CreateOccurrence(ctx context.Context, o *models.Occurrence) error {
	sql, args, err := r.sb.Insert("session_occurrences").
		Columns("session_id", "block_id", "starts_at", "ends_at", "cancelled", "cancellation_reason", "auto_generated").
		Values(o.SessionID, o.BlockID, o.StartsAt, o.EndsAt, o.Cancelled, o.CancellationReason, o.AutoGenerated).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create occurrence query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&o.ID, &o.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, ConstraintOccurrenceSessionStart) {
			return apperrors.ErrOccurrenceAlreadyExists
		}
		logger.Error().Err(err).Int64("sessionID", o.SessionID).Msg("Error executing create occurrence query")
		return fmt.Errorf("error creating occurrence: %w", err)
	}
	return nil
}

// DeleteAutoGeneratedOccurrences removes every auto-generated occurrence of a
// session and returns how many were deleted. Manual occurrences are kept.
func (r *OccurrenceRepository) DeleteAutoGeneratedOccurrences(ctx context.Context, sessionID int64) (int64, error) {
	sql, args, err := r.sb.Delete("session_occurrences").
		Where(squirrel.Eq{"session_id": sessionID, "auto_generated": true}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete occurrences query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("sessionID", sessionID).Msg("Error deleting generated occurrences")
		return 0, fmt.Errorf("error deleting occurrences: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}

// SetOccurrenceCancelled updates the cancellation state of an occurrence.
// Reinstating clears the reason.
func (r *OccurrenceRepository) SetOccurrenceCancelled(ctx context.Context, id int64, cancelled bool, reason *string) (*models.Occurrence, error) {
	if !cancelled {
		reason = nil
	}

	sql, args, err := r.sb.Update("session_occurrences o").
		Set("cancelled", cancelled).
		Set("cancellation_reason", reason).
		Where(squirrel.Eq{"o.id": id}).
		Suffix("RETURNING " + joinColumns(occurrenceColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build cancel occurrence query: %w", err)
	}

	o, err := scanOccurrence(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Error().Err(err).Int64("occurrenceID", id).Msg("Error executing cancel occurrence query")
		return nil, fmt.Errorf("error updating occurrence: %w", err)
	}
	return o, nil
}
