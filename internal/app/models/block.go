package models

import "time"

// Block is a named date range of a year that sessions attach to.
// StartDate and EndDate are inclusive calendar dates held at midnight UTC.
type Block struct {
	ID        int64     `json:"id"`
	Year      int       `json:"year"`
	BlockType BlockType `json:"blockType"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Contains reports whether the calendar date falls inside the block
func (b *Block) Contains(date time.Time) bool {
	return !date.Before(b.StartDate) && !date.After(b.EndDate)
}
