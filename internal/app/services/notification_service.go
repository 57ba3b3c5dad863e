package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/afterschool/sessions-api/internal/app/models"
	"github.com/afterschool/sessions-api/internal/pkg/apperrors"
	"github.com/afterschool/sessions-api/internal/pkg/email"
	"github.com/rs/zerolog"
)

// Notification errors
var (
	ErrNotificationQueueFull = fmt.Errorf("notification queue is full: %w", apperrors.ErrServiceUnavailable)
	ErrNotificationsStopped  = fmt.Errorf("notification service is stopped: %w", apperrors.ErrServiceUnavailable)
)

const affectedDateLayout = "Mon 02 Jan 2006, 3:04PM"

// NotificationService sends session change alerts to caregivers from a
// background worker
type NotificationService struct {
	store         NotificationStore
	mailer        email.EmailService
	zone          *time.Location
	publicBaseURL string
	jobs          chan email.SessionChangeAlert
	logger        zerolog.Logger

	mu       sync.RWMutex
	stopped  bool
	wg       sync.WaitGroup
	stopOnce sync.Once
	cancel   context.CancelFunc
}

// NotificationConfig tunes a NotificationService. PublicBaseURL prefixes the
// calendar link in signup confirmations.
type NotificationConfig struct {
	Zone          *time.Location
	PublicBaseURL string
	QueueSize     int
}

// NewNotificationService creates a notification service with a queue of
// cfg.QueueSize alerts
func NewNotificationService(store NotificationStore, mailer email.EmailService, cfg NotificationConfig, logger zerolog.Logger) *NotificationService {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.Zone == nil {
		cfg.Zone = time.UTC
	}
	return &NotificationService{
		store:         store,
		mailer:        mailer,
		zone:          cfg.Zone,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		jobs:          make(chan email.SessionChangeAlert, cfg.QueueSize),
		logger:        logger,
	}
}

// Start launches the delivery worker. It runs until ctx is done or Stop is called.
func (n *NotificationService) Start(ctx context.Context) {
	ctx, n.cancel = context.WithCancel(ctx)
	n.wg.Add(1)
	go n.run(ctx)
}

// Stop stops the worker after it has delivered every alert already queued
func (n *NotificationService) Stop() {
	n.stopOnce.Do(func() {
		n.mu.Lock()
		n.stopped = true
		close(n.jobs)
		n.mu.Unlock()

		n.wg.Wait()
		if n.cancel != nil {
			n.cancel()
		}
	})
}

func (n *NotificationService) run(ctx context.Context) {
	defer n.wg.Done()
	for {
		select {
		case alert, ok := <-n.jobs:
			if !ok {
				return
			}
			n.deliver(alert)
		case <-ctx.Done():
			n.logger.Info().Int("pending", len(n.jobs)).Msg("Notification worker stopped")
			return
		}
	}
}

func (n *NotificationService) deliver(alert email.SessionChangeAlert) {
	if err := n.mailer.SendSessionChangeAlert(alert); err != nil {
		n.logger.Error().Err(err).Str("toEmail", alert.ToEmail).Msg("Failed to send session change alert")
		return
	}
	n.logger.Debug().Str("toEmail", alert.ToEmail).Str("title", alert.UpdateTitle).Msg("Session change alert sent")
}

// NotifyOccurrenceChange queues one alert per confirmed signup of the session
func (n *NotificationService) NotifyOccurrenceChange(ctx context.Context, session *models.Session, occurrence *models.Occurrence) error {
	base := email.SessionChangeAlert{
		AffectedDate: n.formatDate(occurrence.StartsAt),
	}
	if occurrence.Cancelled {
		base.UpdateTitle = "Session cancelled"
		base.UpdateMessage = "This session has been cancelled."
		if occurrence.CancellationReason != nil && *occurrence.CancellationReason != "" {
			base.UpdateMessage = *occurrence.CancellationReason
		}
	} else {
		base.UpdateTitle = "Session update"
		base.UpdateMessage = "This session is scheduled to run as normal."
	}

	queued, err := n.broadcast(ctx, session, base)
	if err != nil {
		return err
	}
	n.logger.Info().Int64("sessionID", session.ID).Int64("occurrenceID", occurrence.ID).Int("queued", queued).Msg("Queued session change alerts")
	return nil
}

// SessionNotice is a free-form update sent to every confirmed caregiver
type SessionNotice struct {
	Title        string
	Message      string
	AffectedDate string
}

// NotifySession queues notice for every confirmed signup of the session and
// reports how many alerts were queued
func (n *NotificationService) NotifySession(ctx context.Context, session *models.Session, notice SessionNotice) (int, error) {
	queued, err := n.broadcast(ctx, session, email.SessionChangeAlert{
		UpdateTitle:   notice.Title,
		UpdateMessage: notice.Message,
		AffectedDate:  notice.AffectedDate,
	})
	if err != nil {
		return queued, err
	}
	n.logger.Info().Int64("sessionID", session.ID).Str("title", notice.Title).Int("queued", queued).Msg("Queued session notice")
	return queued, nil
}

// NotifySignupStatusChange tells the caregiver that their signup moved from
// previous to signup.Status. A move into confirmed sends the confirmation
// with the first running date and the calendar link.
func (n *NotificationService) NotifySignupStatusChange(ctx context.Context, session *models.Session, signup *models.Signup, previous models.SignupStatus) error {
	alert := n.sessionAlert(ctx, session)

	if signup.Status == models.SignupStatusConfirmed && previous != models.SignupStatusConfirmed {
		alert.UpdateTitle = "Signup confirmed"
		alert.UpdateMessage = "Your place in this session is confirmed."
		alert.CalendarURL = fmt.Sprintf("%s/api/v1/sessions/%d/calendar.ics", n.publicBaseURL, session.ID)
		if session.WhatToBring != nil {
			alert.WhatToBring = *session.WhatToBring
		}
		if first, ok := n.firstRunningDate(ctx, session.ID); ok {
			alert.FirstSessionDate = n.formatDate(first)
		}
	} else {
		alert.UpdateTitle = "Signup status updated"
		alert.UpdateMessage = fmt.Sprintf("Your signup status changed from %s to %s.", previous, signup.Status)
	}

	queued, err := n.enqueue(session.ID, alert, []models.SignupRecipient{signup.Recipient()})
	if err != nil {
		return err
	}
	n.logger.Info().Int64("signupID", signup.ID).Str("status", string(signup.Status)).Int("queued", queued).Msg("Queued signup status alert")
	return nil
}

func (n *NotificationService) formatDate(t time.Time) string {
	return t.In(n.zone).Format(affectedDateLayout)
}

func (n *NotificationService) firstRunningDate(ctx context.Context, sessionID int64) (time.Time, bool) {
	occurrences, err := n.store.ListOccurrences(ctx, sessionID)
	if err != nil {
		n.logger.Warn().Err(err).Int64("sessionID", sessionID).Msg("Could not load occurrences for confirmation")
		return time.Time{}, false
	}
	for _, o := range occurrences {
		if !o.Cancelled {
			return o.StartsAt, true
		}
	}
	return time.Time{}, false
}

// sessionAlert fills the session and venue fields shared by every alert
func (n *NotificationService) sessionAlert(ctx context.Context, session *models.Session) email.SessionChangeAlert {
	alert := email.SessionChangeAlert{SessionName: session.Name}
	if rule, ok := session.WeeklyRule(); ok {
		alert.SessionTime = rule.Describe()
	}
	location, err := n.store.GetLocation(ctx, session.LocationID)
	if err != nil {
		n.logger.Warn().Err(err).Int64("locationID", session.LocationID).Msg("Could not load venue for change alert")
		return alert
	}
	alert.SessionVenue = location.Name
	alert.SessionAddress = location.Address
	if location.ContactEmail != nil {
		alert.ContactEmail = *location.ContactEmail
	}
	return alert
}

func (n *NotificationService) broadcast(ctx context.Context, session *models.Session, update email.SessionChangeAlert) (int, error) {
	recipients, err := n.store.ConfirmedRecipients(ctx, session.ID)
	if err != nil {
		return 0, err
	}
	if len(recipients) == 0 {
		return 0, nil
	}

	alert := n.sessionAlert(ctx, session)
	alert.UpdateTitle = update.UpdateTitle
	alert.UpdateMessage = update.UpdateMessage
	alert.AffectedDate = update.AffectedDate
	return n.enqueue(session.ID, alert, recipients)
}

// enqueue addresses a copy of base to each recipient with an email and a name
func (n *NotificationService) enqueue(sessionID int64, base email.SessionChangeAlert, recipients []models.SignupRecipient) (int, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.stopped {
		return 0, ErrNotificationsStopped
	}

	queued := 0
	for _, r := range recipients {
		if r.CaregiverEmail == "" || r.CaregiverName == "" {
			continue
		}
		alert := base
		alert.ToEmail = r.CaregiverEmail
		alert.CaregiverName = r.CaregiverName
		alert.ChildName = r.ChildName

		select {
		case n.jobs <- alert:
			queued++
		default:
			n.logger.Warn().Int64("sessionID", sessionID).Int("queued", queued).Msg("Notification queue full, dropping remaining alerts")
			return queued, ErrNotificationQueueFull
		}
	}
	return queued, nil
}
