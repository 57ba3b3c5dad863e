package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/afterschool/sessions-api/internal/app/models"
	"github.com/afterschool/sessions-api/internal/pkg/apperrors"
	"github.com/emersion/go-ical"
	"github.com/rs/zerolog"
)

// CalendarContentType is the media type of a calendar feed
const CalendarContentType = "text/calendar; charset=utf-8"

// CalendarStore is what the calendar feed reads
type CalendarStore interface {
	GetSession(ctx context.Context, id int64) (*models.Session, error)
	GetLocation(ctx context.Context, id int64) (*models.Location, error)
	ListOccurrences(ctx context.Context, sessionID int64) ([]*models.Occurrence, error)
}

// CalendarConfig describes the published feeds
type CalendarConfig struct {
	OrgName      string
	Zone         *time.Location
	Domain       string
	RefreshHours int
}

// CalendarService defines the interface for calendar feed operations
type CalendarService interface {
	SessionFeed(ctx context.Context, sessionID int64) ([]byte, error)
}

type calendarServiceImpl struct {
	store  CalendarStore
	config CalendarConfig
	now    func() time.Time
	logger zerolog.Logger
}

// NewCalendarService creates a new calendar service
func NewCalendarService(store CalendarStore, config CalendarConfig, logger zerolog.Logger) CalendarService {
	if config.Zone == nil {
		config.Zone = time.UTC
	}
	if config.RefreshHours <= 0 {
		config.RefreshHours = 24
	}
	return &calendarServiceImpl{
		store:  store,
		config: config,
		now:    time.Now,
		logger: logger,
	}
}

// SessionFeed renders every occurrence of a non-archived session as an
// iCalendar document that clients can subscribe to
func (s *calendarServiceImpl) SessionFeed(ctx context.Context, sessionID int64) ([]byte, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, notFound(err, apperrors.ErrSessionNotFound, "Session not found")
	}
	if session.Archived {
		return nil, apperrors.NewCustomError(apperrors.ErrSessionNotFound, "Session not found")
	}

	location, err := s.store.GetLocation(ctx, session.LocationID)
	if err != nil {
		return nil, fmt.Errorf("error loading session venue: %w", err)
	}
	occurrences, err := s.store.ListOccurrences(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cal := s.newCalendar(session)
	stamp := s.now().UTC()
	firstYear, lastYear := s.feedYears(occurrences, stamp)
	cal.Children = append(cal.Children, newTimezone(s.config.Zone, firstYear, lastYear))
	for _, o := range occurrences {
		cal.Children = append(cal.Children, s.newEvent(session, location, o, stamp).Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		s.logger.Error().Err(err).Int64("sessionID", sessionID).Msg("Failed to encode calendar feed")
		return nil, fmt.Errorf("failed to encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}

// feedYears is the range of years the feed's occurrences fall in, or the
// current year for an empty feed
func (s *calendarServiceImpl) feedYears(occurrences []*models.Occurrence, now time.Time) (int, int) {
	if len(occurrences) == 0 {
		year := now.In(s.config.Zone).Year()
		return year, year
	}
	first := occurrences[0].StartsAt.In(s.config.Zone).Year()
	last := first
	for _, o := range occurrences {
		year := o.StartsAt.In(s.config.Zone).Year()
		if year < first {
			first = year
		}
		if year > last {
			last = year
		}
	}
	return first, last
}

func (s *calendarServiceImpl) newCalendar(session *models.Session) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, fmt.Sprintf("-//%s//Sessions//EN", s.config.OrgName))
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")
	cal.Props.SetText(ical.PropMethod, "PUBLISH")
	cal.Props.SetText("X-WR-CALNAME", session.Name)
	cal.Props.SetText("X-WR-CALDESC", fmt.Sprintf("%s session: %s", s.config.OrgName, session.Name))
	cal.Props.SetText("X-WR-TIMEZONE", s.config.Zone.String())

	ttl := fmt.Sprintf("PT%dH", s.config.RefreshHours)
	refresh := ical.NewProp("REFRESH-INTERVAL")
	refresh.SetValueType(ical.ValueDuration)
	refresh.Value = ttl
	cal.Props.Set(refresh)
	cal.Props.SetText("X-PUBLISHED-TTL", ttl)
	return cal
}

func (s *calendarServiceImpl) newEvent(session *models.Session, location *models.Location, o *models.Occurrence, stamp time.Time) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, fmt.Sprintf("occurrence-%d@%s", o.ID, s.config.Domain))
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	event.Props.SetDateTime(ical.PropDateTimeStart, o.StartsAt.In(s.config.Zone))
	event.Props.SetDateTime(ical.PropDateTimeEnd, o.EndsAt.In(s.config.Zone))

	summary := fmt.Sprintf("%s: %s", s.config.OrgName, session.Name)
	if o.Cancelled {
		summary = "CANCELLED - " + summary
	}
	event.Props.SetText(ical.PropSummary, summary)
	event.Props.SetText(ical.PropLocation, location.Name)

	description := []string{session.Name}
	if location.Address != "" {
		description = append(description, location.Address)
	}
	if o.Cancelled && o.CancellationReason != nil && *o.CancellationReason != "" {
		description = append(description, "Cancelled: "+*o.CancellationReason)
	}
	event.Props.SetText(ical.PropDescription, strings.Join(description, "\n"))

	if o.Cancelled {
		event.Props.SetText(ical.PropStatus, "CANCELLED")
	}
	return event
}
