package models

import "time"

// Location is a venue where sessions run
type Location struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Address       string    `json:"address"`
	Region        *string   `json:"region,omitempty"`
	Lat           *float64  `json:"lat,omitempty"`
	Lng           *float64  `json:"lng,omitempty"`
	Instructions  *string   `json:"instructions,omitempty"`
	ContactName   *string   `json:"contactName,omitempty"`
	ContactEmail  *string   `json:"contactEmail,omitempty"`
	ContactPhone  *string   `json:"contactPhone,omitempty"`
	InternalNotes *string   `json:"internalNotes,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
