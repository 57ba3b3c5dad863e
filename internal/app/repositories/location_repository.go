package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/afterschool/sessions-api/internal/app/models"
	"github.com/afterschool/sessions-api/internal/pkg/logger"
	"github.com/jackc/pgx/v5"
)

var locationColumns = []string{
	"id", "name", "address", "region", "lat", "lng", "instructions",
	"contact_name", "contact_email", "contact_phone", "internal_notes",
	"created_at", "updated_at",
}

// LocationRepository handles venue database operations
type LocationRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewLocationRepository creates a new LocationRepository
func NewLocationRepository(db DBTX) *LocationRepository {
	return &LocationRepository{db: db, sb: newBuilder()}
}

func scanLocation(row pgx.Row) (*models.Location, error) {
	l := &models.Location{}
	err := row.Scan(&l.ID, &l.Name, &l.Address, &l.Region, &l.Lat, &l.Lng, &l.Instructions,
		&l.ContactName, &l.ContactEmail, &l.ContactPhone, &l.InternalNotes,
		&l.CreatedAt, &l.UpdatedAt)
	return l, err
}

// CreateLocation inserts a venue and fills its generated fields
func (r *LocationRepository) CreateLocation(ctx context.Context, l *models.Location) error {
	sql, args, err := r.sb.Insert("session_locations").
		Columns("name", "address", "region", "lat", "lng", "instructions",
			"contact_name", "contact_email", "contact_phone", "internal_notes").
		Values(l.Name, l.Address, l.Region, l.Lat, l.Lng, l.Instructions,
			l.ContactName, l.ContactEmail, l.ContactPhone, l.InternalNotes).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create location query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt); err != nil {
		logger.Error().Err(err).Msg("Error executing create location query")
		return fmt.Errorf("error creating location: %w", err)
	}
	return nil
}

// GetLocation retrieves a venue by ID
func (r *LocationRepository) GetLocation(ctx context.Context, id int64) (*models.Location, error) {
	sql, args, err := r.sb.Select(locationColumns...).
		From("session_locations").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get location query: %w", err)
	}

	l, err := scanLocation(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Error().Err(err).Int64("locationID", id).Msg("Error scanning location row")
		return nil, fmt.Errorf("error getting location: %w", err)
	}
	return l, nil
}

// ListLocations retrieves every venue ordered by region and name
func (r *LocationRepository) ListLocations(ctx context.Context) ([]*models.Location, error) {
	sql, args, err := r.sb.Select(locationColumns...).
		From("session_locations").
		OrderBy("region ASC NULLS LAST", "name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list locations query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list locations query")
		return nil, fmt.Errorf("error querying locations: %w", err)
	}
	defer rows.Close()

	locations := []*models.Location{}
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning location row: %w", err)
		}
		locations = append(locations, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating location rows: %w", err)
	}
	return locations, nil
}

// UpdateLocation writes every editable column of l
func (r *LocationRepository) UpdateLocation(ctx context.Context, l *models.Location) error {
	sql, args, err := r.sb.Update("session_locations").
		SetMap(map[string]interface{}{
			"name":           l.Name,
			"address":        l.Address,
			"region":         l.Region,
			"lat":            l.Lat,
			"lng":            l.Lng,
			"instructions":   l.Instructions,
			"contact_name":   l.ContactName,
			"contact_email":  l.ContactEmail,
			"contact_phone":  l.ContactPhone,
			"internal_notes": l.InternalNotes,
			"updated_at":     squirrel.Expr("NOW()"),
		}).
		Where(squirrel.Eq{"id": l.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update location query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&l.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		logger.Error().Err(err).Int64("locationID", l.ID).Msg("Error executing update location query")
		return fmt.Errorf("error updating location: %w", err)
	}
	return nil
}
