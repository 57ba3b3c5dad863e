package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/afterschool/sessions-api/internal/app/models"
	"github.com/afterschool/sessions-api/internal/pkg/apperrors"
	"github.com/afterschool/sessions-api/internal/pkg/dberrors"
	"github.com/afterschool/sessions-api/internal/pkg/helpers"
	"github.com/afterschool/sessions-api/internal/pkg/logger"
	"github.com/jackc/pgx/v5"
)

// ConstraintExclusionYearDate is the unique (year, date) constraint
const ConstraintExclusionYearDate = "uq_exclusion_dates_year_date"

// ExclusionRepository handles exclusion date database operations
type ExclusionRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewExclusionRepository creates a new ExclusionRepository
func NewExclusionRepository(db DBTX) *ExclusionRepository {
	return &ExclusionRepository{db: db, sb: newBuilder()}
}

func scanExclusion(row pgx.Row) (*models.ExclusionDate, error) {
	e := &models.ExclusionDate{}
	err := row.Scan(&e.ID, &e.Year, &e.Date, &e.Reason, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// CreateExclusion inserts an exclusion date
func (r *ExclusionRepository) CreateExclusion(ctx context.Context, e *models.ExclusionDate) error {
	sql, args, err := r.sb.Insert("exclusion_dates").
		Columns("year", "date", "reason").
		Values(e.Year, helpers.PgDate(e.Date), e.Reason).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create exclusion query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, ConstraintExclusionYearDate) {
			return apperrors.ErrExclusionAlreadyExists
		}
		logger.Error().Err(err).Msg("Error executing create exclusion query")
		return fmt.Errorf("error creating exclusion: %w", err)
	}
	return nil
}

// ExclusionsForYears retrieves every exclusion belonging to any of the years
func (r *ExclusionRepository) ExclusionsForYears(ctx context.Context, years []int) ([]*models.ExclusionDate, error) {
	if len(years) == 0 {
		return []*models.ExclusionDate{}, nil
	}

	sql, args, err := r.sb.Select("id", "year", "date", "reason", "created_at", "updated_at").
		From("exclusion_dates").
		Where(squirrel.Eq{"year": years}).
		OrderBy("date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list exclusions query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Ints("years", years).Msg("Error executing list exclusions query")
		return nil, fmt.Errorf("error querying exclusions: %w", err)
	}
	defer rows.Close()

	exclusions := []*models.ExclusionDate{}
	for rows.Next() {
		e, err := scanExclusion(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning exclusion row: %w", err)
		}
		exclusions = append(exclusions, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exclusion rows: %w", err)
	}
	return exclusions, nil
}

// UpdateExclusionReason replaces the reason of an exclusion
func (r *ExclusionRepository) UpdateExclusionReason(ctx context.Context, id int64, reason *string) (*models.ExclusionDate, error) {
	sql, args, err := r.sb.Update("exclusion_dates").
		Set("reason", reason).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING id, year, date, reason, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update exclusion query: %w", err)
	}

	e, err := scanExclusion(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Error().Err(err).Int64("exclusionID", id).Msg("Error executing update exclusion query")
		return nil, fmt.Errorf("error updating exclusion: %w", err)
	}
	return e, nil
}

// DeleteExclusion removes an exclusion
func (r *ExclusionRepository) DeleteExclusion(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("exclusion_dates").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete exclusion query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("exclusionID", id).Msg("Error executing delete exclusion query")
		return fmt.Errorf("error deleting exclusion: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
