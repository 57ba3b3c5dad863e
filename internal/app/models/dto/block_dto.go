package dto

import (
	"time"

	"github.com/afterschool/sessions-api/internal/app/models"
)

// CreateBlockRequest represents block creation data.
// Dates are ignored for special blocks, which always span the whole year.
type CreateBlockRequest struct {
	Year      int    `json:"year" binding:"required,min=2000,max=2100"`
	BlockType string `json:"blockType" binding:"required,block_type"`
	Name      string `json:"name" binding:"required,max=100"`
	StartDate string `json:"startDate" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"endDate" binding:"omitempty,datetime=2006-01-02"`
	Timezone  string `json:"timezone" binding:"omitempty,iana_tz"`
}

// UpdateBlockRequest represents a partial block update
type UpdateBlockRequest struct {
	Name      *string `json:"name" binding:"omitempty,min=1,max=100"`
	StartDate *string `json:"startDate" binding:"omitempty,datetime=2006-01-02"`
	EndDate   *string `json:"endDate" binding:"omitempty,datetime=2006-01-02"`
	Timezone  *string `json:"timezone" binding:"omitempty,iana_tz"`
}

// BlockResponse is the admin view of a block
type BlockResponse struct {
	ID        int64     `json:"id"`
	Year      int       `json:"year"`
	BlockType string    `json:"blockType"`
	Name      string    `json:"name"`
	StartDate string    `json:"startDate"`
	EndDate   string    `json:"endDate"`
	Timezone  string    `json:"timezone"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewBlockResponse maps a block row
func NewBlockResponse(b *models.Block) BlockResponse {
	return BlockResponse{
		ID:        b.ID,
		Year:      b.Year,
		BlockType: string(b.BlockType),
		Name:      b.Name,
		StartDate: b.StartDate.Format(time.DateOnly),
		EndDate:   b.EndDate.Format(time.DateOnly),
		Timezone:  b.Timezone,
		UpdatedAt: b.UpdatedAt,
	}
}

// NewBlockResponses maps a list of block rows
func NewBlockResponses(blocks []*models.Block) []BlockResponse {
	out := make([]BlockResponse, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, NewBlockResponse(b))
	}
	return out
}
