package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/afterschool/sessions-api/internal/app/models"
	"github.com/afterschool/sessions-api/internal/pkg/logger"
	"github.com/jackc/pgx/v5"
)

// StaffRepository handles staff account database operations
type StaffRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewStaffRepository creates a new StaffRepository
func NewStaffRepository(db DBTX) *StaffRepository {
	return &StaffRepository{db: db, sb: newBuilder()}
}

// GetStaffByEmail retrieves a staff account by email, case-insensitively
func (r *StaffRepository) GetStaffByEmail(ctx context.Context, email string) (*models.Staff, error) {
	sql, args, err := r.sb.Select("id", "email", "name", "password_hash", "role", "active", "created_at").
		From("staff").
		Where(squirrel.Eq{"LOWER(email)": strings.ToLower(email)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get staff query: %w", err)
	}

	s := &models.Staff{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(&s.ID, &s.Email, &s.Name, &s.PasswordHash, &s.Role, &s.Active, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Error().Err(err).Msg("Error scanning staff row")
		return nil, fmt.Errorf("error getting staff: %w", err)
	}
	return s, nil
}

// StaffEmailExists reports whether an account already uses the email
func (r *StaffRepository) StaffEmailExists(ctx context.Context, email string) (bool, error) {
	sql, args, err := r.sb.Select("1").
		Prefix("SELECT EXISTS (").
		From("staff").
		Where(squirrel.Eq{"LOWER(email)": strings.ToLower(email)}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build staff exists query: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		logger.Error().Err(err).Msg("Error checking staff email")
		return false, fmt.Errorf("error checking staff email: %w", err)
	}
	return exists, nil
}

// CreateStaff inserts a staff account
func (r *StaffRepository) CreateStaff(ctx context.Context, s *models.Staff) error {
	sql, args, err := r.sb.Insert("staff").
		Columns("email", "name", "password_hash", "role", "active").
		Values(s.Email, s.Name, s.PasswordHash, s.Role, s.Active).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create staff query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.ID, &s.CreatedAt); err != nil {
		logger.Error().Err(err).Str("email", s.Email).Msg("Error executing create staff query")
		return fmt.Errorf("error creating staff: %w", err)
	}
	return nil
}
