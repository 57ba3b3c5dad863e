package models

import "time"

// ExclusionDate is a day on which no term occurrence is generated
type ExclusionDate struct {
	ID        int64     `json:"id"`
	Year      int       `json:"year"`
	Date      time.Time `json:"date"`
	Reason    *string   `json:"reason,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
