package models

import (
	"time"

	"github.com/afterschool/sessions-api/internal/pkg/schedule"
)

// Session is a recurring (term) or one-off (special) programme definition
type Session struct {
	ID            int64               `json:"id"`
	LocationID    int64               `json:"locationId"`
	Year          int                 `json:"year"`
	SessionType   SessionType         `json:"sessionType"`
	Name          string              `json:"name"`
	AgeLower      *int                `json:"ageLower,omitempty"`
	AgeUpper      *int                `json:"ageUpper,omitempty"`
	DayOfWeek     *schedule.Weekday   `json:"dayOfWeek,omitempty"`
	StartTime     *schedule.TimeOfDay `json:"startTime,omitempty"`
	EndTime       *schedule.TimeOfDay `json:"endTime,omitempty"`
	Waitlist      bool                `json:"waitlist"`
	Capacity      *int                `json:"capacity,omitempty"`
	WhatToBring   *string             `json:"whatToBring,omitempty"`
	Prerequisites *string             `json:"prerequisites,omitempty"`
	PhotoAlbumURL *string             `json:"photoAlbumUrl,omitempty"`
	InternalNotes *string             `json:"internalNotes,omitempty"`
	Archived      bool                `json:"archived"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// WeeklyRule returns the session's recurrence rule, or false when any part
// of it is missing.
func (s *Session) WeeklyRule() (schedule.Rule, bool) {
	if s.DayOfWeek == nil || s.StartTime == nil || s.EndTime == nil {
		return schedule.Rule{}, false
	}
	return schedule.Rule{Weekday: *s.DayOfWeek, Start: *s.StartTime, End: *s.EndTime}, true
}
