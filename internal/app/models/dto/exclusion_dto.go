package dto

import (
	"time"

	"github.com/afterschool/sessions-api/internal/app/models"
)

// CreateExclusionRequest represents a new exclusion date; its year is taken from the date
type CreateExclusionRequest struct {
	Date   string  `json:"date" binding:"required,datetime=2006-01-02"`
	Reason *string `json:"reason" binding:"omitempty,max=500"`
}

// UpdateExclusionRequest changes an exclusion's reason
type UpdateExclusionRequest struct {
	Reason *string `json:"reason" binding:"omitempty,max=500"`
}

// ExclusionResponse is the admin view of an exclusion date
type ExclusionResponse struct {
	ID     int64   `json:"id"`
	Year   int     `json:"year"`
	Date   string  `json:"date"`
	Reason *string `json:"reason,omitempty"`
}

// NewExclusionResponses maps exclusion rows
func NewExclusionResponses(rows []*models.ExclusionDate) []ExclusionResponse {
	out := make([]ExclusionResponse, 0, len(rows))
	for _, e := range rows {
		out = append(out, NewExclusionResponse(e))
	}
	return out
}

// NewExclusionResponse maps an exclusion row
func NewExclusionResponse(e *models.ExclusionDate) ExclusionResponse {
	return ExclusionResponse{
		ID:     e.ID,
		Year:   e.Year,
		Date:   e.Date.Format(time.DateOnly),
		Reason: e.Reason,
	}
}
