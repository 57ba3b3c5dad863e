package dto

// UpdateSignupStatusRequest moves a signup to a new status
type UpdateSignupStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=confirmed waitlisted withdrawn"`
}

// NotifySessionRequest is a free-form update for a session's confirmed caregivers
type NotifySessionRequest struct {
	UpdateTitle   string  `json:"updateTitle" binding:"required,min=1,max=200"`
	UpdateMessage *string `json:"updateMessage" binding:"omitempty,max=2000"`
	AffectedDate  *string `json:"affectedDate" binding:"omitempty,max=100"`
}

// NotifySessionResponse reports how many alerts were queued
type NotifySessionResponse struct {
	Enqueued int `json:"enqueued"`
}
