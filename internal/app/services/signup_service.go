package services

import (
	"context"

	"github.com/afterschool/sessions-api/internal/app/models"
	"github.com/afterschool/sessions-api/internal/app/models/dto"
	"github.com/afterschool/sessions-api/internal/app/repositories"
	"github.com/afterschool/sessions-api/internal/pkg/apperrors"
	"github.com/rs/zerolog"
)

// SignupNotifier tells a caregiver that their signup changed status
type SignupNotifier interface {
	NotifySignupStatusChange(ctx context.Context, session *models.Session, signup *models.Signup, previous models.SignupStatus) error
}

// SignupService defines the interface for staff signup operations
type SignupService interface {
	List(ctx context.Context, sessionID int64, status *models.SignupStatus) ([]*models.Signup, error)
	SetStatus(ctx context.Context, signupID int64, req *dto.UpdateSignupStatusRequest) (*models.Signup, error)
}

type signupServiceImpl struct {
	store    SignupStore
	notifier SignupNotifier
	logger   zerolog.Logger
}

// NewSignupService creates a new signup service
func NewSignupService(store SignupStore, notifier SignupNotifier, logger zerolog.Logger) SignupService {
	return &signupServiceImpl{store: store, notifier: notifier, logger: logger}
}

// List returns a session's signups, oldest first, optionally of one status
func (s *signupServiceImpl) List(ctx context.Context, sessionID int64, status *models.SignupStatus) ([]*models.Signup, error) {
	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, notFound(err, apperrors.ErrSessionNotFound, "Session not found")
	}
	return s.store.ListSignups(ctx, repositories.SignupFilter{SessionID: sessionID, Status: status})
}

// SetStatus moves a signup to the requested status. The caregiver is told
// when the status actually changes; a failed notification never fails the
// update.
func (s *signupServiceImpl) SetStatus(ctx context.Context, signupID int64, req *dto.UpdateSignupStatusRequest) (*models.Signup, error) {
	status := models.SignupStatus(req.Status)
	switch status {
	case models.SignupStatusConfirmed, models.SignupStatusWaitlisted, models.SignupStatusWithdrawn:
	default:
		return nil, apperrors.NewValidationError("status must be confirmed, waitlisted or withdrawn")
	}

	signup, err := s.store.GetSignup(ctx, signupID)
	if err != nil {
		return nil, notFound(err, apperrors.ErrSignupNotFound, "Signup not found")
	}
	previous := signup.Status

	withdrawnAt, err := s.store.UpdateSignupStatus(ctx, signupID, status)
	if err != nil {
		return nil, notFound(err, apperrors.ErrSignupNotFound, "Signup not found")
	}
	signup.Status = status
	signup.WithdrawnAt = withdrawnAt

	if previous == status {
		return signup, nil
	}

	s.logger.Info().
		Int64("signupID", signupID).
		Str("from", string(previous)).
		Str("to", string(status)).
		Msg("Signup status changed")

	session, err := s.store.GetSession(ctx, signup.SessionID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("sessionID", signup.SessionID).Msg("Could not load session for signup notification")
		return signup, nil
	}
	if err := s.notifier.NotifySignupStatusChange(ctx, session, signup, previous); err != nil {
		s.logger.Warn().Err(err).Int64("signupID", signupID).Msg("Could not queue signup notification")
	}
	return signup, nil
}
