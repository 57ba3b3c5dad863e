package services

import (
	"context"
	"errors"

	"github.com/afterschool/sessions-api/internal/app/models"
	"github.com/afterschool/sessions-api/internal/pkg/websocket"
)

// EventPublisher pushes events to staff watching a session
type EventPublisher interface {
	Publish(event websocket.Event)
}

type liveNotifier struct {
	publisher EventPublisher
}

// NewLiveNotifier publishes occurrence changes to live subscribers
func NewLiveNotifier(publisher EventPublisher) ChangeNotifier {
	return &liveNotifier{publisher: publisher}
}

func (n *liveNotifier) NotifyOccurrenceChange(ctx context.Context, session *models.Session, occurrence *models.Occurrence) error {
	eventType := websocket.EventOccurrenceReinstated
	if occurrence.Cancelled {
		eventType = websocket.EventOccurrenceCancelled
	}
	snapshot := *occurrence
	n.publisher.Publish(websocket.Event{Type: eventType, SessionID: session.ID, Data: &snapshot})
	return nil
}

// ChangeNotifiers fans a change out to every notifier. Every notifier is
// called; their errors are joined.
type ChangeNotifiers []ChangeNotifier

// NotifyOccurrenceChange implements ChangeNotifier
func (ns ChangeNotifiers) NotifyOccurrenceChange(ctx context.Context, session *models.Session, occurrence *models.Occurrence) error {
	var errs error
	for _, n := range ns {
		if err := n.NotifyOccurrenceChange(ctx, session, occurrence); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return errs
}
