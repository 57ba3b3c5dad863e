package services

import (
	"context"
	"testing"
	"time"

	"github.com/afterschool/sessions-api/internal/app/models"
	"github.com/afterschool/sessions-api/internal/pkg/apperrors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalogFixture struct {
	store   *memStore
	service CatalogService
	central *models.Location
	north   *models.Location
	term1   *models.Block
	term2   *models.Block
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	store := newMemStore()
	central := store.addLocation("Ponsonby Hall", "1 Ponsonby Rd")
	central.Region = ptr("Central")
	central.Instructions = ptr("Use the side door")
	central.Lat, central.Lng = ptr(-36.85), ptr(174.74)
	store.locations[central.ID] = *central
	north := store.addLocation("Takapuna Library", "9 The Strand")
	north.Region = ptr("North Shore")
	store.locations[north.ID] = *north

	return &catalogFixture{
		store:   store,
		service: NewCatalogService(store, zerolog.Nop()),
		central: central,
		north:   north,
		term1:   store.addBlock(2026, models.BlockTypeTerm1, calendarDate(2026, 2, 2), calendarDate(2026, 4, 17), aucklandZone),
		term2:   store.addBlock(2026, models.BlockTypeTerm2, calendarDate(2026, 5, 4), calendarDate(2026, 7, 3), aucklandZone),
	}
}

func calendarDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestCatalogListByRegion(t *testing.T) {
	f := newCatalogFixture(t)
	lego := wednesdaySession(f.central.ID)
	lego.AgeLower, lego.AgeUpper = ptr(3), ptr(6)
	f.store.addSession(lego, f.term2.ID, f.term1.ID)
	chess := wednesdaySession(f.central.ID)
	chess.Name = "Chess Club"
	f.store.addSession(chess)
	robots := wednesdaySession(f.north.ID)
	robots.Name = "Robotics"
	f.store.addSession(robots)
	archived := wednesdaySession(f.north.ID)
	archived.Name = "Old Club"
	archived.Archived = true
	f.store.addSession(archived)

	groups, err := f.service.ListByRegion(context.Background(), "")
	require.NoError(t, err)

	require.Len(t, groups, 2)
	assert.Equal(t, "Central", groups[0].Name)
	require.Len(t, groups[0].Sessions, 2)
	assert.Equal(t, "North Shore", groups[1].Name)
	require.Len(t, groups[1].Sessions, 1)

	first := groups[0].Sessions[0]
	assert.Equal(t, "Lego Club", first.Name)
	assert.Equal(t, "Years 3-6", first.Age)
	assert.Equal(t, "Wed 3:30pm–5pm", first.Time)
	require.NotNil(t, first.TermSummary)
	assert.Equal(t, "2026", *first.TermSummary)
	assert.Equal(t, []string{"term_1", "term_2"}, first.Blocks)
	assert.Equal(t, "Use the side door", *first.ArrivalInstructions)
	require.NotNil(t, first.LocationDetails.LatLong)
	assert.Equal(t, 174.74, first.LocationDetails.LatLong.Lng)
	assert.Nil(t, groups[1].Sessions[0].LocationDetails.LatLong)
}

func TestCatalogListByRegion_SearchAndUnknownRegion(t *testing.T) {
	f := newCatalogFixture(t)
	bare := f.store.addLocation("Garage", "2 Side St")
	special := wednesdaySession(bare.ID)
	special.Name = "Holiday LEGO"
	special.SessionType = models.SessionTypeSpecial
	f.store.addSession(special)
	other := wednesdaySession(f.central.ID)
	other.Name = "Chess Club"
	f.store.addSession(other)

	groups, err := f.service.ListByRegion(context.Background(), " lego ")
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.Equal(t, "Unknown", groups[0].Name)
	require.Len(t, groups[0].Sessions, 1)
	assert.Nil(t, groups[0].Sessions[0].TermSummary)
	assert.Empty(t, groups[0].Sessions[0].Blocks)

	empty, err := f.service.ListByRegion(context.Background(), "nothing matches")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCatalogGet_GroupsOccurrencesByBlock(t *testing.T) {
	f := newCatalogFixture(t)
	loc := loadZone(t, aucklandZone)
	session := f.store.addSession(wednesdaySession(f.central.ID), f.term1.ID, f.term2.ID)
	at := func(month time.Month, day int) time.Time { return time.Date(2026, month, day, 15, 30, 0, 0, loc) }
	f.store.addOccurrence(models.Occurrence{SessionID: session.ID, BlockID: &f.term2.ID, StartsAt: at(5, 6), EndsAt: at(5, 6).Add(90 * time.Minute)})
	f.store.addOccurrence(models.Occurrence{SessionID: session.ID, BlockID: &f.term1.ID, StartsAt: at(2, 4), EndsAt: at(2, 4).Add(90 * time.Minute)})
	f.store.addOccurrence(models.Occurrence{
		SessionID: session.ID, BlockID: &f.term1.ID, StartsAt: at(2, 11), EndsAt: at(2, 11).Add(90 * time.Minute),
		Cancelled: true, CancellationReason: ptr("Hall flooded"),
	})
	f.store.addOccurrence(models.Occurrence{SessionID: session.ID, StartsAt: at(8, 1), EndsAt: at(8, 1).Add(time.Hour)})

	detail, err := f.service.Get(context.Background(), session.ID)
	require.NoError(t, err)

	assert.Equal(t, "Lego Club", detail.Name)
	require.Len(t, detail.OccurrencesByBlock, 3)

	term1 := detail.OccurrencesByBlock[0]
	assert.Equal(t, f.term1.ID, *term1.BlockID)
	assert.Equal(t, "term_1", *term1.BlockType)
	require.Len(t, term1.Occurrences, 2)
	assert.True(t, term1.Occurrences[0].StartsAt.Equal(at(2, 4)))
	assert.True(t, term1.Occurrences[1].Cancelled)
	assert.Equal(t, "Hall flooded", *term1.Occurrences[1].CancellationReason)

	assert.Equal(t, f.term2.ID, *detail.OccurrencesByBlock[1].BlockID)
	assert.Nil(t, detail.OccurrencesByBlock[2].BlockID)
	assert.Len(t, detail.OccurrencesByBlock[2].Occurrences, 1)
}

func TestCatalogGet_HidesArchivedAndMissing(t *testing.T) {
	f := newCatalogFixture(t)
	archived := wednesdaySession(f.central.ID)
	archived.Archived = true
	session := f.store.addSession(archived)

	_, err := f.service.Get(context.Background(), session.ID)
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)

	_, err = f.service.Get(context.Background(), 999)
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}
