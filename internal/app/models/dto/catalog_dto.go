package dto

import "time"

// LatLng is a venue's map position
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PublicLocation is the venue as shown to caregivers
type PublicLocation struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Region  *string `json:"region"`
	LatLong *LatLng `json:"latlong"`
}

// PublicSession is a session as listed in the public catalogue. Internal
// notes and capacity are never exposed.
type PublicSession struct {
	ID                  int64          `json:"id"`
	Name                string         `json:"name"`
	Age                 string         `json:"age"`
	Time                string         `json:"time"`
	TermSummary         *string        `json:"termSummary"`
	Blocks              []string       `json:"blocks"`
	PublicInstructions  *string        `json:"publicInstructions"`
	ArrivalInstructions *string        `json:"arrivalInstructions"`
	WhatToBring         *string        `json:"whatToBring"`
	Prerequisites       *string        `json:"prerequisites"`
	Waitlist            bool           `json:"waitlist"`
	LocationDetails     PublicLocation `json:"locationDetails"`
}

// RegionGroup is the catalogue's sessions in one region
type RegionGroup struct {
	Name     string          `json:"name"`
	Sessions []PublicSession `json:"sessions"`
}

// PublicOccurrence is one dated instance as shown to caregivers
type PublicOccurrence struct {
	StartsAt           time.Time `json:"startsAt"`
	EndsAt             time.Time `json:"endsAt"`
	Cancelled          bool      `json:"cancelled"`
	CancellationReason *string   `json:"cancellationReason"`
}

// BlockOccurrences groups a session's occurrences by block. Block fields are
// nil for occurrences outside any block.
type BlockOccurrences struct {
	BlockID     *int64             `json:"blockId"`
	BlockName   *string            `json:"blockName"`
	BlockType   *string            `json:"blockType"`
	Occurrences []PublicOccurrence `json:"occurrences"`
}

// PublicSessionDetail is one session with its dates
type PublicSessionDetail struct {
	PublicSession
	OccurrencesByBlock []BlockOccurrences `json:"occurrencesByBlock"`
}
