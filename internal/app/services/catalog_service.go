package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/afterschool/sessions-api/internal/app/models"
	"github.com/afterschool/sessions-api/internal/app/models/dto"
	"github.com/afterschool/sessions-api/internal/app/repositories"
	"github.com/afterschool/sessions-api/internal/pkg/apperrors"
	"github.com/rs/zerolog"
)

// unknownRegion groups sessions whose venue has no region
const unknownRegion = "Unknown"

// CatalogService defines the read-only public view of sessions
type CatalogService interface {
	ListByRegion(ctx context.Context, search string) ([]dto.RegionGroup, error)
	Get(ctx context.Context, id int64) (*dto.PublicSessionDetail, error)
}

type catalogServiceImpl struct {
	store  CatalogStore
	logger zerolog.Logger
}

// NewCatalogService creates a new catalogue service
func NewCatalogService(store CatalogStore, logger zerolog.Logger) CatalogService {
	return &catalogServiceImpl{store: store, logger: logger}
}

// ListByRegion returns the active sessions whose name matches search, grouped
// by venue region. The busiest region comes first; ties keep region name order.
func (s *catalogServiceImpl) ListByRegion(ctx context.Context, search string) ([]dto.RegionGroup, error) {
	sessions, err := s.store.ListSessions(ctx, repositories.SessionFilter{Search: strings.TrimSpace(search)})
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return []dto.RegionGroup{}, nil
	}

	locations, err := s.store.ListLocations(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*models.Location, len(locations))
	for _, l := range locations {
		byID[l.ID] = l
	}

	blockNames, err := s.blockNames(ctx, sessions)
	if err != nil {
		return nil, err
	}

	groups := map[string]*dto.RegionGroup{}
	for _, session := range sessions {
		location := byID[session.LocationID]
		region := unknownRegion
		if location != nil && location.Region != nil && *location.Region != "" {
			region = *location.Region
		}
		group, ok := groups[region]
		if !ok {
			group = &dto.RegionGroup{Name: region, Sessions: []dto.PublicSession{}}
			groups[region] = group
		}
		group.Sessions = append(group.Sessions, publicSession(session, location, blockNames[session.ID]))
	}

	out := make([]dto.RegionGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Sessions) != len(out[j].Sessions) {
			return len(out[i].Sessions) > len(out[j].Sessions)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Get returns one active session with its occurrences grouped by block
func (s *catalogServiceImpl) Get(ctx context.Context, id int64) (*dto.PublicSessionDetail, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrSessionNotFound, "Session not found")
	}
	if session.Archived {
		return nil, apperrors.NewCustomError(apperrors.ErrSessionNotFound, "Session not found")
	}

	location, err := s.store.GetLocation(ctx, session.LocationID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("locationID", session.LocationID).Msg("Could not load venue for public session")
	}

	blockIDs, err := s.store.SessionBlockIDsFor(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	blocks, err := s.store.GetBlocksByIDs(ctx, blockIDs[id])
	if err != nil {
		return nil, err
	}
	occurrences, err := s.store.ListOccurrences(ctx, id)
	if err != nil {
		return nil, err
	}

	return &dto.PublicSessionDetail{
		PublicSession:      publicSession(session, location, orderedBlockNames(blocks)),
		OccurrencesByBlock: groupOccurrences(occurrences, blocks),
	}, nil
}

func (s *catalogServiceImpl) blockNames(ctx context.Context, sessions []*models.Session) (map[int64][]string, error) {
	ids := make([]int64, len(sessions))
	for i, session := range sessions {
		ids[i] = session.ID
	}
	links, err := s.store.SessionBlockIDsFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	var all []int64
	seen := map[int64]bool{}
	for _, blockIDs := range links {
		for _, id := range blockIDs {
			if !seen[id] {
				seen[id] = true
				all = append(all, id)
			}
		}
	}
	if len(all) == 0 {
		return map[int64][]string{}, nil
	}

	blocks, err := s.store.GetBlocksByIDs(ctx, all)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*models.Block, len(blocks))
	for _, b := range blocks {
		byID[b.ID] = b
	}

	out := make(map[int64][]string, len(links))
	for sessionID, blockIDs := range links {
		linked := make([]*models.Block, 0, len(blockIDs))
		for _, id := range blockIDs {
			if b, ok := byID[id]; ok {
				linked = append(linked, b)
			}
		}
		out[sessionID] = orderedBlockNames(linked)
	}
	return out, nil
}

// orderedBlockNames lists block names in calendar block order
func orderedBlockNames(blocks []*models.Block) []string {
	sorted := append([]*models.Block(nil), blocks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return blockRank(sorted[i].BlockType) < blockRank(sorted[j].BlockType)
	})
	names := make([]string, len(sorted))
	for i, b := range sorted {
		names[i] = b.Name
	}
	return names
}

func blockRank(t models.BlockType) int {
	for i, bt := range models.BlockTypes {
		if bt == t {
			return i
		}
	}
	return len(models.BlockTypes)
}

// groupOccurrences buckets occurrences by block ID, blocks in ID order and
// unassigned occurrences last
func groupOccurrences(occurrences []*models.Occurrence, blocks []*models.Block) []dto.BlockOccurrences {
	byID := make(map[int64]*models.Block, len(blocks))
	for _, b := range blocks {
		byID[b.ID] = b
	}

	grouped := map[int64]*dto.BlockOccurrences{}
	var unassigned *dto.BlockOccurrences
	for _, o := range occurrences {
		public := dto.PublicOccurrence{
			StartsAt:           o.StartsAt,
			EndsAt:             o.EndsAt,
			Cancelled:          o.Cancelled,
			CancellationReason: o.CancellationReason,
		}
		if o.BlockID == nil {
			if unassigned == nil {
				unassigned = &dto.BlockOccurrences{Occurrences: []dto.PublicOccurrence{}}
			}
			unassigned.Occurrences = append(unassigned.Occurrences, public)
			continue
		}

		group, ok := grouped[*o.BlockID]
		if !ok {
			blockID := *o.BlockID
			group = &dto.BlockOccurrences{BlockID: &blockID, BlockName: o.BlockName, Occurrences: []dto.PublicOccurrence{}}
			if b, ok := byID[blockID]; ok {
				name, blockType := b.Name, string(b.BlockType)
				group.BlockName = &name
				group.BlockType = &blockType
			}
			grouped[blockID] = group
		}
		group.Occurrences = append(group.Occurrences, public)
	}

	out := make([]dto.BlockOccurrences, 0, len(grouped)+1)
	for _, g := range grouped {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].BlockID < *out[j].BlockID })
	if unassigned != nil {
		out = append(out, *unassigned)
	}
	return out
}

func publicSession(session *models.Session, location *models.Location, blocks []string) dto.PublicSession {
	if blocks == nil {
		blocks = []string{}
	}
	public := dto.PublicSession{
		ID:            session.ID,
		Name:          session.Name,
		Age:           ageRange(session.AgeLower, session.AgeUpper),
		Blocks:        blocks,
		WhatToBring:   session.WhatToBring,
		Prerequisites: session.Prerequisites,
		Waitlist:      session.Waitlist,
	}
	if rule, ok := session.WeeklyRule(); ok {
		public.Time = rule.Describe()
	}
	if session.SessionType == models.SessionTypeTerm {
		year := strconv.Itoa(session.Year)
		public.TermSummary = &year
	}
	if location != nil {
		public.PublicInstructions = location.Instructions
		public.ArrivalInstructions = location.Instructions
		public.LocationDetails = dto.PublicLocation{
			ID:      location.ID,
			Name:    location.Name,
			Address: location.Address,
			Region:  location.Region,
		}
		if location.Lat != nil && location.Lng != nil {
			public.LocationDetails.LatLong = &dto.LatLng{Lat: *location.Lat, Lng: *location.Lng}
		}
	}
	return public
}

// ageRange renders school years, e.g. "Years 3-6"
func ageRange(lower, upper *int) string {
	switch {
	case lower != nil && upper != nil:
		return fmt.Sprintf("Years %d-%d", *lower, *upper)
	case lower != nil:
		return fmt.Sprintf("Years %d+", *lower)
	case upper != nil:
		return fmt.Sprintf("Up to year %d", *upper)
	}
	return ""
}
