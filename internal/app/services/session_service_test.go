package services

import (
	"context"
	"testing"

	"github.com/afterschool/sessions-api/internal/app/models"
	"github.com/afterschool/sessions-api/internal/app/models/dto"
	"github.com/afterschool/sessions-api/internal/pkg/apperrors"
	"github.com/afterschool/sessions-api/internal/pkg/schedule"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionFixture() (*memStore, SessionService, *models.Location, *models.Block) {
	store := newMemStore()
	location := store.addLocation("Ponsonby Hall", "1 Ponsonby Rd")
	block := store.addBlock(2026, models.BlockTypeTerm1, schedule.NewDate(2026, 2, 2), schedule.NewDate(2026, 4, 17), aucklandZone)
	return store, NewSessionService(store, store, zerolog.Nop()), location, block
}

func termRequest(locationID int64, blockIDs ...int64) *dto.CreateSessionRequest {
	return &dto.CreateSessionRequest{
		LocationID:  locationID,
		Year:        2026,
		SessionType: string(models.SessionTypeTerm),
		Name:        "  Lego Club ",
		DayOfWeek:   ptr(2),
		StartTime:   ptr(schedule.MustTimeOfDay("15:30")),
		EndTime:     ptr(schedule.MustTimeOfDay("17:00")),
		WhatToBring: ptr("  "),
		BlockIDs:    blockIDs,
	}
}

func TestSessionCreate(t *testing.T) {
	store, svc, location, block := newSessionFixture()

	resp, err := svc.Create(context.Background(), termRequest(location.ID, block.ID, block.ID))

	require.NoError(t, err)
	assert.NotZero(t, resp.ID)
	assert.Equal(t, "Lego Club", resp.Name)
	assert.Nil(t, resp.WhatToBring)
	assert.Equal(t, schedule.Wednesday, *resp.DayOfWeek)
	assert.Equal(t, []int64{block.ID}, resp.BlockIDs)
	assert.Equal(t, []int64{block.ID}, store.links[resp.ID])
}

func TestSessionCreate_Validation(t *testing.T) {
	_, svc, location, block := newSessionFixture()

	tests := []struct {
		name   string
		mutate func(r *dto.CreateSessionRequest)
		want   error
	}{
		{"blank name", func(r *dto.CreateSessionRequest) { r.Name = "  " }, apperrors.ErrValidationFailed},
		{"term without weekday", func(r *dto.CreateSessionRequest) { r.DayOfWeek = nil }, apperrors.ErrValidationFailed},
		{"weekday out of range", func(r *dto.CreateSessionRequest) { r.DayOfWeek = ptr(7) }, apperrors.ErrValidationFailed},
		{"only start time", func(r *dto.CreateSessionRequest) { r.EndTime = nil }, apperrors.ErrValidationFailed},
		{"start after end", func(r *dto.CreateSessionRequest) { r.StartTime = ptr(schedule.MustTimeOfDay("18:00")) }, apperrors.ErrValidationFailed},
		{"ages reversed", func(r *dto.CreateSessionRequest) { r.AgeLower, r.AgeUpper = ptr(10), ptr(5) }, apperrors.ErrValidationFailed},
		{"unknown block", func(r *dto.CreateSessionRequest) { r.BlockIDs = []int64{block.ID, 999} }, apperrors.ErrValidationFailed},
		{"unknown location", func(r *dto.CreateSessionRequest) { r.LocationID = 999 }, apperrors.ErrLocationNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := termRequest(location.ID, block.ID)
			tt.mutate(req)
			_, err := svc.Create(context.Background(), req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSessionCreate_SpecialNeedsNoWeekday(t *testing.T) {
	_, svc, location, _ := newSessionFixture()
	req := termRequest(location.ID)
	req.SessionType = string(models.SessionTypeSpecial)
	req.DayOfWeek = nil

	resp, err := svc.Create(context.Background(), req)

	require.NoError(t, err)
	assert.Empty(t, resp.BlockIDs)
}

func TestSessionUpdate_ReplacesLinksOnlyWhenPresent(t *testing.T) {
	store, svc, location, block := newSessionFixture()
	term2 := store.addBlock(2026, models.BlockTypeTerm2, schedule.NewDate(2026, 5, 4), schedule.NewDate(2026, 7, 3), aucklandZone)
	created, err := svc.Create(context.Background(), termRequest(location.ID, block.ID))
	require.NoError(t, err)

	renamed, err := svc.Update(context.Background(), created.ID, &dto.UpdateSessionRequest{Name: ptr("Robotics")})
	require.NoError(t, err)
	assert.Equal(t, "Robotics", renamed.Name)
	assert.Equal(t, []int64{block.ID}, renamed.BlockIDs)

	relinked, err := svc.Update(context.Background(), created.ID, &dto.UpdateSessionRequest{BlockIDs: &[]int64{term2.ID}})
	require.NoError(t, err)
	assert.Equal(t, []int64{term2.ID}, relinked.BlockIDs)

	cleared, err := svc.Update(context.Background(), created.ID, &dto.UpdateSessionRequest{BlockIDs: &[]int64{}})
	require.NoError(t, err)
	assert.Empty(t, cleared.BlockIDs)
}

func TestSessionUpdate_InvalidLeavesRowUnchanged(t *testing.T) {
	store, svc, location, block := newSessionFixture()
	created, err := svc.Create(context.Background(), termRequest(location.ID, block.ID))
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), created.ID, &dto.UpdateSessionRequest{EndTime: dto.NullableOf(schedule.MustTimeOfDay("12:00"))})

	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Equal(t, schedule.MustTimeOfDay("17:00"), *store.sessions[created.ID].EndTime)

	_, err = svc.Update(context.Background(), 999, &dto.UpdateSessionRequest{})
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestSessionUpdate_ExplicitNullClearsField(t *testing.T) {
	store, svc, location, block := newSessionFixture()
	req := termRequest(location.ID, block.ID)
	req.AgeLower = ptr(5)
	req.Capacity = ptr(12)
	created, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, &dto.UpdateSessionRequest{
		AgeLower: dto.Null[int](),
		Capacity: dto.Null[int](),
	})
	require.NoError(t, err)
	assert.Nil(t, updated.AgeLower)
	assert.Nil(t, updated.Capacity)
	assert.Nil(t, store.sessions[created.ID].Capacity)
	assert.NotNil(t, store.sessions[created.ID].DayOfWeek)

	special := string(models.SessionTypeSpecial)
	switched, err := svc.Update(context.Background(), created.ID, &dto.UpdateSessionRequest{
		SessionType: &special,
		DayOfWeek:   dto.Null[int](),
		StartTime:   dto.Null[schedule.TimeOfDay](),
		EndTime:     dto.Null[schedule.TimeOfDay](),
	})
	require.NoError(t, err)
	assert.Equal(t, models.SessionTypeSpecial, switched.SessionType)
	assert.Nil(t, switched.DayOfWeek)
	assert.Nil(t, switched.StartTime)

	_, err = svc.Update(context.Background(), created.ID, &dto.UpdateSessionRequest{
		SessionType: ptr(string(models.SessionTypeTerm)),
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestSessionDuplicate(t *testing.T) {
	store, svc, location, block := newSessionFixture()
	created, err := svc.Create(context.Background(), termRequest(location.ID, block.ID))
	require.NoError(t, err)
	store.addOccurrence(models.Occurrence{SessionID: created.ID})

	dup, err := svc.Duplicate(context.Background(), created.ID)

	require.NoError(t, err)
	assert.NotEqual(t, created.ID, dup.ID)
	assert.Equal(t, "Lego Club (Copy)", dup.Name)
	assert.Equal(t, []int64{block.ID}, dup.BlockIDs)
	assert.Empty(t, store.sessionOccurrences(dup.ID))

	_, err = svc.Duplicate(context.Background(), 999)
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestSessionList_FiltersAndPages(t *testing.T) {
	store, svc, location, block := newSessionFixture()
	other := store.addLocation("Grey Lynn Library", "2 Great North Rd")
	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), termRequest(location.ID, block.ID))
		require.NoError(t, err)
	}
	_, err := svc.Create(context.Background(), termRequest(other.ID))
	require.NoError(t, err)
	archived, err := svc.Create(context.Background(), termRequest(location.ID))
	require.NoError(t, err)
	_, err = svc.Update(context.Background(), archived.ID, &dto.UpdateSessionRequest{Archived: ptr(true)})
	require.NoError(t, err)

	page, err := svc.List(context.Background(), SessionListQuery{LocationID: &location.ID, Page: 2, PageSize: 2})

	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Sessions, 1)
	assert.Equal(t, []int64{block.ID}, page.Sessions[0].BlockIDs)

	all, err := svc.List(context.Background(), SessionListQuery{IncludeArchived: true})
	require.NoError(t, err)
	assert.Equal(t, int64(5), all.TotalItems)
}

func TestSessionDelete(t *testing.T) {
	store, svc, location, block := newSessionFixture()
	created, err := svc.Create(context.Background(), termRequest(location.ID, block.ID))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	assert.NotContains(t, store.sessions, created.ID)
	assert.ErrorIs(t, svc.Delete(context.Background(), created.ID), apperrors.ErrSessionNotFound)
}
