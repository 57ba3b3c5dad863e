package services

import (
	"context"
	"strings"

	"github.com/afterschool/sessions-api/internal/app/models"
	"github.com/afterschool/sessions-api/internal/app/models/dto"
	"github.com/afterschool/sessions-api/internal/pkg/apperrors"
	"github.com/afterschool/sessions-api/internal/pkg/helpers"
	"github.com/rs/zerolog"
)

// SessionBroadcaster queues a notice for a session's confirmed caregivers
type SessionBroadcaster interface {
	NotifySession(ctx context.Context, session *models.Session, notice SessionNotice) (int, error)
}

// SessionReader looks up a session
type SessionReader interface {
	GetSession(ctx context.Context, id int64) (*models.Session, error)
}

// CommunicationService sends staff-written updates to caregivers
type CommunicationService interface {
	NotifySession(ctx context.Context, sessionID int64, req *dto.NotifySessionRequest) (*dto.NotifySessionResponse, error)
}

type communicationServiceImpl struct {
	sessions    SessionReader
	broadcaster SessionBroadcaster
	logger      zerolog.Logger
}

// NewCommunicationService creates a new communication service
func NewCommunicationService(sessions SessionReader, broadcaster SessionBroadcaster, logger zerolog.Logger) CommunicationService {
	return &communicationServiceImpl{sessions: sessions, broadcaster: broadcaster, logger: logger}
}

// NotifySession queues the update for every confirmed caregiver of the
// session. A full mail queue is reported as service unavailable.
func (s *communicationServiceImpl) NotifySession(ctx context.Context, sessionID int64, req *dto.NotifySessionRequest) (*dto.NotifySessionResponse, error) {
	title := strings.TrimSpace(req.UpdateTitle)
	if title == "" {
		return nil, apperrors.NewValidationError("updateTitle cannot be empty")
	}

	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, notFound(err, apperrors.ErrSessionNotFound, "Session not found")
	}

	queued, err := s.broadcaster.NotifySession(ctx, session, SessionNotice{
		Title:        title,
		Message:      helpers.StringValue(helpers.TrimmedOrNil(req.UpdateMessage)),
		AffectedDate: helpers.StringValue(helpers.TrimmedOrNil(req.AffectedDate)),
	})
	if err != nil {
		s.logger.Warn().Err(err).Int64("sessionID", sessionID).Int("queued", queued).Msg("Session notice only partly queued")
		return nil, err
	}
	return &dto.NotifySessionResponse{Enqueued: queued}, nil
}
