package dto

import "github.com/afterschool/sessions-api/internal/app/models"

// CreateLocationRequest represents venue creation data
type CreateLocationRequest struct {
	Name          string   `json:"name" binding:"required,max=200"`
	Address       string   `json:"address" binding:"required"`
	Region        *string  `json:"region" binding:"omitempty,max=100"`
	Lat           *float64 `json:"lat" binding:"omitempty,gte=-90,lte=90"`
	Lng           *float64 `json:"lng" binding:"omitempty,gte=-180,lte=180"`
	Instructions  *string  `json:"instructions"`
	ContactName   *string  `json:"contactName" binding:"omitempty,max=200"`
	ContactEmail  *string  `json:"contactEmail" binding:"omitempty,email"`
	ContactPhone  *string  `json:"contactPhone" binding:"omitempty,max=50"`
	InternalNotes *string  `json:"internalNotes"`
}

// UpdateLocationRequest represents a partial venue update
type UpdateLocationRequest struct {
	Name          *string  `json:"name" binding:"omitempty,min=1,max=200"`
	Address       *string  `json:"address" binding:"omitempty,min=1"`
	Region        *string  `json:"region" binding:"omitempty,max=100"`
	Lat           *float64 `json:"lat" binding:"omitempty,gte=-90,lte=90"`
	Lng           *float64 `json:"lng" binding:"omitempty,gte=-180,lte=180"`
	Instructions  *string  `json:"instructions"`
	ContactName   *string  `json:"contactName" binding:"omitempty,max=200"`
	ContactEmail  *string  `json:"contactEmail" binding:"omitempty,email"`
	ContactPhone  *string  `json:"contactPhone" binding:"omitempty,max=50"`
	InternalNotes *string  `json:"internalNotes"`
}

// LocationResponse is the admin view of a venue
type LocationResponse = models.Location
