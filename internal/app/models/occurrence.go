package models

import "time"

// Occurrence is one concrete dated instance of a session
type Occurrence struct {
	ID                 int64     `json:"id"`
	SessionID          int64     `json:"sessionId"`
	BlockID            *int64    `json:"blockId,omitempty"`
	StartsAt           time.Time `json:"startsAt"`
	EndsAt             time.Time `json:"endsAt"`
	Cancelled          bool      `json:"cancelled"`
	CancellationReason *string   `json:"cancellationReason,omitempty"`
	AutoGenerated      bool      `json:"autoGenerated"`
	CreatedAt          time.Time `json:"createdAt"`

	// BlockName is filled by list queries only
	BlockName *string `json:"blockName,omitempty"`
}
