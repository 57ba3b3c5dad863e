package dto

import (
	"github.com/afterschool/sessions-api/internal/app/models"
	"github.com/afterschool/sessions-api/internal/pkg/schedule"
)

// CreateSessionRequest represents session creation data
type CreateSessionRequest struct {
	LocationID    int64               `json:"locationId" binding:"required,min=1"`
	Year          int                 `json:"year" binding:"required,min=2000,max=2100"`
	SessionType   string              `json:"sessionType" binding:"required,session_type"`
	Name          string              `json:"name" binding:"required,max=200"`
	AgeLower      *int                `json:"ageLower" binding:"omitempty,min=0,max=99"`
	AgeUpper      *int                `json:"ageUpper" binding:"omitempty,min=0,max=99"`
	DayOfWeek     *int                `json:"dayOfWeek" binding:"omitempty,min=0,max=6"`
	StartTime     *schedule.TimeOfDay `json:"startTime"`
	EndTime       *schedule.TimeOfDay `json:"endTime"`
	Waitlist      bool                `json:"waitlist"`
	Capacity      *int                `json:"capacity" binding:"omitempty,min=0"`
	WhatToBring   *string             `json:"whatToBring"`
	Prerequisites *string             `json:"prerequisites"`
	PhotoAlbumURL *string             `json:"photoAlbumUrl" binding:"omitempty,url"`
	InternalNotes *string             `json:"internalNotes"`
	BlockIDs      []int64             `json:"blockIds"`
}

// UpdateSessionRequest represents a partial session update. Absent keys are
// left alone; an explicit null clears a nullable field. When BlockIDs is
// present it replaces the session's block links.
type UpdateSessionRequest struct {
	LocationID    *int64                       `json:"locationId" binding:"omitempty,min=1"`
	Year          *int                         `json:"year" binding:"omitempty,min=2000,max=2100"`
	SessionType   *string                      `json:"sessionType" binding:"omitempty,session_type"`
	Name          *string                      `json:"name" binding:"omitempty,min=1,max=200"`
	AgeLower      Nullable[int]                `json:"ageLower" binding:"omitempty,min=0,max=99"`
	AgeUpper      Nullable[int]                `json:"ageUpper" binding:"omitempty,min=0,max=99"`
	DayOfWeek     Nullable[int]                `json:"dayOfWeek" binding:"omitempty,min=0,max=6"`
	StartTime     Nullable[schedule.TimeOfDay] `json:"startTime"`
	EndTime       Nullable[schedule.TimeOfDay] `json:"endTime"`
	Waitlist      *bool                        `json:"waitlist"`
	Capacity      Nullable[int]                `json:"capacity" binding:"omitempty,min=0"`
	WhatToBring   Nullable[string]             `json:"whatToBring"`
	Prerequisites Nullable[string]             `json:"prerequisites"`
	PhotoAlbumURL Nullable[string]             `json:"photoAlbumUrl" binding:"omitempty,url"`
	InternalNotes Nullable[string]             `json:"internalNotes"`
	Archived      *bool                        `json:"archived"`
	BlockIDs      *[]int64                     `json:"blockIds"`
}

// SessionResponse is the admin view of a session with its linked blocks
type SessionResponse struct {
	*models.Session
	BlockIDs []int64 `json:"blockIds"`
}

// SessionListResponse is a page of sessions
type SessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
	PaginationInfo
}
