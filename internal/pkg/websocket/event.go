package websocket

import "time"

// Event types pushed to live subscribers
const (
	EventOccurrenceCancelled  = "occurrence.cancelled"
	EventOccurrenceReinstated = "occurrence.reinstated"
)

// Event is one change pushed to every client watching a session
type Event struct {
	Type      string      `json:"type"`
	SessionID int64       `json:"sessionId"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
