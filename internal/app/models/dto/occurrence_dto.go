package dto

import "time"

// CreateOccurrenceRequest adds a one-off occurrence to a session
type CreateOccurrenceRequest struct {
	StartsAt time.Time `json:"startsAt" binding:"required"`
	EndsAt   time.Time `json:"endsAt" binding:"required"`
	BlockID  *int64    `json:"blockId" binding:"omitempty,min=1"`
}

// CancelOccurrenceRequest cancels or reinstates an occurrence
type CancelOccurrenceRequest struct {
	Cancelled *bool   `json:"cancelled" binding:"required"`
	Reason    *string `json:"reason" binding:"omitempty,max=500"`
}

// RegenerateOccurrencesRequest is the optional body of a regenerate call
type RegenerateOccurrencesRequest struct {
	DeleteAutoGenerated bool `json:"deleteAutoGenerated"`
}

// GenerateOccurrencesResponse reports the outcome of a generate call
type GenerateOccurrencesResponse struct {
	Created         int `json:"created"`
	SkippedExisting int `json:"skippedExisting"`
}

// RegenerateOccurrencesResponse reports the outcome of a regenerate call
type RegenerateOccurrencesResponse struct {
	Deleted         int `json:"deleted"`
	Created         int `json:"created"`
	SkippedExisting int `json:"skippedExisting"`
}
