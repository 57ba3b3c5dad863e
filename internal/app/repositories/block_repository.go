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

// ConstraintBlockYearType is the unique (year, block_type) constraint
const ConstraintBlockYearType = "uq_session_blocks_year_type"

var blockColumns = []string{"b.id", "b.year", "b.block_type", "b.name", "b.start_date", "b.end_date", "b.timezone", "b.created_at", "b.updated_at"}

// BlockRepository handles block database operations
type BlockRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewBlockRepository creates a new BlockRepository
func NewBlockRepository(db DBTX) *BlockRepository {
	return &BlockRepository{db: db, sb: newBuilder()}
}

func scanBlock(row pgx.Row) (*models.Block, error) {
	b := &models.Block{}
	err := row.Scan(&b.ID, &b.Year, &b.BlockType, &b.Name, &b.StartDate, &b.EndDate, &b.Timezone, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (r *BlockRepository) queryBlocks(ctx context.Context, q squirrel.SelectBuilder) ([]*models.Block, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build block query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing block query")
		return nil, fmt.Errorf("error querying blocks: %w", err)
	}
	defer rows.Close()

	blocks := []*models.Block{}
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning block row: %w", err)
		}
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating block rows: %w", err)
	}
	return blocks, nil
}

// CreateBlock inserts a block
func (r *BlockRepository) CreateBlock(ctx context.Context, b *models.Block) error {
	sql, args, err := r.sb.Insert("session_blocks").
		Columns("year", "block_type", "name", "start_date", "end_date", "timezone").
		Values(b.Year, b.BlockType, b.Name, helpers.PgDate(b.StartDate), helpers.PgDate(b.EndDate), b.Timezone).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create block query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, ConstraintBlockYearType) {
			return apperrors.ErrBlockAlreadyExists
		}
		logger.Error().Err(err).Int("year", b.Year).Str("blockType", string(b.BlockType)).Msg("Error executing create block query")
		return fmt.Errorf("error creating block: %w", err)
	}
	return nil
}

// GetBlock retrieves a block by ID
func (r *BlockRepository) GetBlock(ctx context.Context, id int64) (*models.Block, error) {
	sql, args, err := r.sb.Select(blockColumns...).
		From("session_blocks b").
		Where(squirrel.Eq{"b.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get block query: %w", err)
	}

	b, err := scanBlock(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Error().Err(err).Int64("blockID", id).Msg("Error scanning block row")
		return nil, fmt.Errorf("error getting block: %w", err)
	}
	return b, nil
}

// ListBlocks retrieves blocks, optionally restricted to one year
func (r *BlockRepository) ListBlocks(ctx context.Context, year *int) ([]*models.Block, error) {
	q := r.sb.Select(blockColumns...).From("session_blocks b").OrderBy("b.year ASC", "b.start_date ASC")
	if year != nil {
		q = q.Where(squirrel.Eq{"b.year": *year})
	}
	return r.queryBlocks(ctx, q)
}

// GetBlocksByIDs retrieves the blocks with the given IDs; missing IDs are simply absent
func (r *BlockRepository) GetBlocksByIDs(ctx context.Context, ids []int64) ([]*models.Block, error) {
	if len(ids) == 0 {
		return []*models.Block{}, nil
	}
	q := r.sb.Select(blockColumns...).From("session_blocks b").
		Where(squirrel.Eq{"b.id": ids}).
		OrderBy("b.start_date ASC")
	return r.queryBlocks(ctx, q)
}

// ListSessionBlocks retrieves the blocks linked to a session, earliest first
func (r *BlockRepository) ListSessionBlocks(ctx context.Context, sessionID int64) ([]*models.Block, error) {
	q := r.sb.Select(blockColumns...).
		From("session_blocks b").
		Join("session_block_links l ON l.block_id = b.id").
		Where(squirrel.Eq{"l.session_id": sessionID}).
		OrderBy("b.start_date ASC", "b.id ASC")
	return r.queryBlocks(ctx, q)
}

// UpdateBlock writes the editable columns of b
func (r *BlockRepository) UpdateBlock(ctx context.Context, b *models.Block) error {
	sql, args, err := r.sb.Update("session_blocks").
		SetMap(map[string]interface{}{
			"name":       b.Name,
			"start_date": helpers.PgDate(b.StartDate),
			"end_date":   helpers.PgDate(b.EndDate),
			"timezone":   b.Timezone,
			"updated_at": squirrel.Expr("NOW()"),
		}).
		Where(squirrel.Eq{"id": b.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update block query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		logger.Error().Err(err).Int64("blockID", b.ID).Msg("Error executing update block query")
		return fmt.Errorf("error updating block: %w", err)
	}
	return nil
}
