package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/afterschool/sessions-api/internal/app/models"
	"github.com/afterschool/sessions-api/internal/pkg/logger"
	"github.com/jackc/pgx/v5"
)

// SignupRepository handles signup database operations
type SignupRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewSignupRepository creates a new SignupRepository
func NewSignupRepository(db DBTX) *SignupRepository {
	return &SignupRepository{db: db, sb: newBuilder()}
}

// ConfirmedRecipients lists the caregivers with a confirmed signup for the
// session and a non-empty email address
func (r *SignupRepository) ConfirmedRecipients(ctx context.Context, sessionID int64) ([]models.SignupRecipient, error) {
	sql, args, err := r.sb.Select("s.id", "c.name", "c.email", "ch.name").
		From("signups s").
		Join("caregivers c ON c.id = s.caregiver_id").
		Join("children ch ON ch.id = s.child_id").
		Where(squirrel.Eq{"s.session_id": sessionID, "s.status": models.SignupStatusConfirmed}).
		Where(squirrel.NotEq{"c.email": nil}).
		Where(squirrel.NotEq{"c.email": ""}).
		OrderBy("s.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build recipients query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("sessionID", sessionID).Msg("Error executing recipients query")
		return nil, fmt.Errorf("error querying recipients: %w", err)
	}
	defer rows.Close()

	recipients := []models.SignupRecipient{}
	for rows.Next() {
		var rcpt models.SignupRecipient
		if err := rows.Scan(&rcpt.SignupID, &rcpt.CaregiverName, &rcpt.CaregiverEmail, &rcpt.ChildName); err != nil {
			return nil, fmt.Errorf("error scanning recipient row: %w", err)
		}
		recipients = append(recipients, rcpt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipient rows: %w", err)
	}
	return recipients, nil
}

var signupColumns = []string{
	"s.id", "s.session_id", "s.child_id", "s.caregiver_id", "s.status", "s.created_at", "s.withdrawn_at",
	"ch.name", "c.name", "c.email", "c.phone",
}

// SignupFilter narrows ListSignups
type SignupFilter struct {
	SessionID int64
	Status    *models.SignupStatus
}

func scanSignup(row pgx.Row) (*models.Signup, error) {
	s := &models.Signup{}
	err := row.Scan(&s.ID, &s.SessionID, &s.ChildID, &s.CaregiverID, &s.Status, &s.CreatedAt, &s.WithdrawnAt,
		&s.StudentName, &s.GuardianName, &s.Email, &s.Phone)
	return s, err
}

func (r *SignupRepository) selectSignups() squirrel.SelectBuilder {
	return r.sb.Select(signupColumns...).
		From("signups s").
		Join("caregivers c ON c.id = s.caregiver_id").
		Join("children ch ON ch.id = s.child_id")
}

// ListSignups lists a session's signups, oldest first
func (r *SignupRepository) ListSignups(ctx context.Context, f SignupFilter) ([]*models.Signup, error) {
	q := r.selectSignups().Where(squirrel.Eq{"s.session_id": f.SessionID})
	if f.Status != nil {
		q = q.Where(squirrel.Eq{"s.status": *f.Status})
	}

	sql, args, err := q.OrderBy("s.created_at ASC", "s.id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list signups query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("sessionID", f.SessionID).Msg("Error executing list signups query")
		return nil, fmt.Errorf("error querying signups: %w", err)
	}
	defer rows.Close()

	signups := []*models.Signup{}
	for rows.Next() {
		s, err := scanSignup(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning signup row: %w", err)
		}
		signups = append(signups, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signup rows: %w", err)
	}
	return signups, nil
}

// GetSignup retrieves a signup by ID
func (r *SignupRepository) GetSignup(ctx context.Context, id int64) (*models.Signup, error) {
	sql, args, err := r.selectSignups().Where(squirrel.Eq{"s.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get signup query: %w", err)
	}

	s, err := scanSignup(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Error().Err(err).Int64("signupID", id).Msg("Error scanning signup row")
		return nil, fmt.Errorf("error getting signup: %w", err)
	}
	return s, nil
}

// UpdateSignupStatus sets the status of a signup. withdrawn_at is stamped when
// the signup is withdrawn and cleared for every other status.
func (r *SignupRepository) UpdateSignupStatus(ctx context.Context, id int64, status models.SignupStatus) (*time.Time, error) {
	var withdrawnAt interface{}
	if status == models.SignupStatusWithdrawn {
		withdrawnAt = squirrel.Expr("NOW()")
	}

	sql, args, err := r.sb.Update("signups").
		Set("status", status).
		Set("withdrawn_at", withdrawnAt).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING withdrawn_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update signup status query: %w", err)
	}

	var stamped *time.Time
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&stamped); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Error().Err(err).Int64("signupID", id).Msg("Error executing update signup status query")
		return nil, fmt.Errorf("error updating signup status: %w", err)
	}
	return stamped, nil
}
