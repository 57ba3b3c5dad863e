package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/afterschool/sessions-api/internal/app/models"
	"github.com/afterschool/sessions-api/internal/app/models/dto"
	"github.com/afterschool/sessions-api/internal/pkg/apperrors"
	"github.com/afterschool/sessions-api/internal/pkg/schedule"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyOccurrenceChange(ctx context.Context, session *models.Session, occurrence *models.Occurrence) error {
	args := m.Called(ctx, session, occurrence)
	return args.Error(0)
}

const aucklandZone = "Pacific/Auckland"

func loadZone(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func ptr[T any](v T) *T {
	return &v
}

func wednesdaySession(locationID int64) models.Session {
	return models.Session{
		LocationID:  locationID,
		Year:        2026,
		SessionType: models.SessionTypeTerm,
		Name:        "Lego Club",
		DayOfWeek:   ptr(schedule.Wednesday),
		StartTime:   ptr(schedule.MustTimeOfDay("15:30")),
		EndTime:     ptr(schedule.MustTimeOfDay("17:00")),
	}
}

type occurrenceFixture struct {
	store    *memStore
	notifier *mockNotifier
	service  OccurrenceService
	location *models.Location
	term1    *models.Block
}

func newOccurrenceFixture(t *testing.T) *occurrenceFixture {
	t.Helper()
	store := newMemStore()
	notifier := &mockNotifier{}
	f := &occurrenceFixture{
		store:    store,
		notifier: notifier,
		service:  NewOccurrenceService(store, store, notifier, loadZone(t, aucklandZone), zerolog.Nop()),
		location: store.addLocation("Ponsonby Hall", "1 Ponsonby Rd"),
	}
	f.term1 = store.addBlock(2026, models.BlockTypeTerm1, schedule.NewDate(2026, 2, 4), schedule.NewDate(2026, 2, 18), aucklandZone)
	return f
}

func TestGenerate_WeeklySlotsInBlockZone(t *testing.T) {
	f := newOccurrenceFixture(t)
	session := f.store.addSession(wednesdaySession(f.location.ID), f.term1.ID)

	result, err := f.service.Generate(context.Background(), session.ID)

	require.NoError(t, err)
	assert.Equal(t, 3, result.Created)
	assert.Equal(t, 0, result.SkippedExisting)

	loc := loadZone(t, aucklandZone)
	occurrences := f.store.sessionOccurrences(session.ID)
	require.Len(t, occurrences, 3)
	for i, day := range []int{4, 11, 18} {
		o := occurrences[i]
		assert.True(t, o.StartsAt.Equal(time.Date(2026, 2, day, 15, 30, 0, 0, loc)))
		assert.True(t, o.EndsAt.Equal(time.Date(2026, 2, day, 17, 0, 0, 0, loc)))
		assert.True(t, o.AutoGenerated)
		assert.False(t, o.Cancelled)
		require.NotNil(t, o.BlockID)
		assert.Equal(t, f.term1.ID, *o.BlockID)
	}
}

func TestGenerate_SkipsExclusionDates(t *testing.T) {
	f := newOccurrenceFixture(t)
	f.store.addExclusion(2026, schedule.NewDate(2026, 2, 11))
	session := f.store.addSession(wednesdaySession(f.location.ID), f.term1.ID)

	result, err := f.service.Generate(context.Background(), session.ID)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	loc := loadZone(t, aucklandZone)
	var days []int
	for _, o := range f.store.sessionOccurrences(session.ID) {
		days = append(days, o.StartsAt.In(loc).Day())
	}
	assert.Equal(t, []int{4, 18}, days)
}

func TestGenerate_ExclusionsOfOtherYearsIgnored(t *testing.T) {
	f := newOccurrenceFixture(t)
	f.store.addExclusion(2025, schedule.NewDate(2026, 2, 11))
	session := f.store.addSession(wednesdaySession(f.location.ID), f.term1.ID)

	result, err := f.service.Generate(context.Background(), session.ID)

	require.NoError(t, err)
	assert.Equal(t, 3, result.Created)
}

func TestGenerate_IsIdempotent(t *testing.T) {
	f := newOccurrenceFixture(t)
	session := f.store.addSession(wednesdaySession(f.location.ID), f.term1.ID)

	_, err := f.service.Generate(context.Background(), session.ID)
	require.NoError(t, err)

	again, err := f.service.Generate(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
	assert.Equal(t, 3, again.SkippedExisting)
	assert.Len(t, f.store.sessionOccurrences(session.ID), 3)
}

func TestGenerate_ManualOccurrenceAtSlotIsKept(t *testing.T) {
	f := newOccurrenceFixture(t)
	session := f.store.addSession(wednesdaySession(f.location.ID), f.term1.ID)
	loc := loadZone(t, aucklandZone)
	manual := f.store.addOccurrence(models.Occurrence{
		SessionID: session.ID,
		StartsAt:  time.Date(2026, 2, 11, 15, 30, 0, 0, loc).UTC(),
		EndsAt:    time.Date(2026, 2, 11, 18, 0, 0, 0, loc).UTC(),
	})

	result, err := f.service.Generate(context.Background(), session.ID)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.SkippedExisting)
	kept, err := f.store.GetOccurrence(context.Background(), manual.ID)
	require.NoError(t, err)
	assert.False(t, kept.AutoGenerated)
	assert.True(t, kept.EndsAt.Equal(manual.EndsAt))
}

func TestGenerate_ConcurrentInsertCountsAsSkipped(t *testing.T) {
	f := newOccurrenceFixture(t)
	session := f.store.addSession(wednesdaySession(f.location.ID), f.term1.ID)
	_, err := f.service.Generate(context.Background(), session.ID)
	require.NoError(t, err)

	f.store.hideExisting = true
	result, err := f.service.Generate(context.Background(), session.ID)

	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 3, result.SkippedExisting)
	assert.Len(t, f.store.sessionOccurrences(session.ID), 3)
}

func TestGenerate_MultipleBlocksUseTheirOwnZones(t *testing.T) {
	f := newOccurrenceFixture(t)
	term2 := f.store.addBlock(2026, models.BlockTypeTerm2, schedule.NewDate(2026, 4, 27), schedule.NewDate(2026, 5, 3), "Australia/Perth")
	session := f.store.addSession(wednesdaySession(f.location.ID), f.term1.ID, term2.ID)

	result, err := f.service.Generate(context.Background(), session.ID)

	require.NoError(t, err)
	assert.Equal(t, 4, result.Created)
	occurrences := f.store.sessionOccurrences(session.ID)
	last := occurrences[len(occurrences)-1]
	perth := loadZone(t, "Australia/Perth")
	assert.True(t, last.StartsAt.Equal(time.Date(2026, 4, 29, 15, 30, 0, 0, perth)))
	require.NotNil(t, last.BlockID)
	assert.Equal(t, term2.ID, *last.BlockID)
}

func TestGenerate_BlockWithoutZoneUsesDefault(t *testing.T) {
	f := newOccurrenceFixture(t)
	block := f.store.addBlock(2026, models.BlockTypeTerm3, schedule.NewDate(2026, 7, 20), schedule.NewDate(2026, 7, 26), "")
	session := f.store.addSession(wednesdaySession(f.location.ID), block.ID)

	result, err := f.service.Generate(context.Background(), session.ID)

	require.NoError(t, err)
	require.Equal(t, 1, result.Created)
	o := f.store.sessionOccurrences(session.ID)[0]
	assert.True(t, o.StartsAt.Equal(time.Date(2026, 7, 22, 15, 30, 0, 0, loadZone(t, aucklandZone))))
}

func TestGenerate_UnknownZoneIsRejected(t *testing.T) {
	f := newOccurrenceFixture(t)
	block := f.store.addBlock(2026, models.BlockTypeTerm3, schedule.NewDate(2026, 7, 20), schedule.NewDate(2026, 7, 26), "Mars/Olympus")
	session := f.store.addSession(wednesdaySession(f.location.ID), block.ID)

	_, err := f.service.Generate(context.Background(), session.ID)

	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Empty(t, f.store.sessionOccurrences(session.ID))
}

func TestGenerate_Refusals(t *testing.T) {
	special := wednesdaySession(0)
	special.SessionType = models.SessionTypeSpecial

	noStart := wednesdaySession(0)
	noStart.StartTime = nil

	backwards := wednesdaySession(0)
	backwards.StartTime = ptr(schedule.MustTimeOfDay("18:00"))

	tests := []struct {
		name     string
		session  models.Session
		noBlocks bool
		want     error
	}{
		{"special session", special, false, ErrNotTermSession},
		{"missing start time", noStart, false, ErrIncompleteSchedule},
		{"start after end", backwards, false, ErrIncompleteSchedule},
		{"no blocks linked", wednesdaySession(0), true, ErrNoBlocksSelected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOccurrenceFixture(t)
			tt.session.LocationID = f.location.ID
			var blocks []int64
			if !tt.noBlocks {
				blocks = append(blocks, f.term1.ID)
			}
			session := f.store.addSession(tt.session, blocks...)

			_, err := f.service.Generate(context.Background(), session.ID)

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, f.store.sessionOccurrences(session.ID))
		})
	}
}

func TestGenerate_UnknownSession(t *testing.T) {
	f := newOccurrenceFixture(t)

	_, err := f.service.Generate(context.Background(), 999)

	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	assert.Equal(t, "Session not found", apperrors.Message(err))
}

func TestGenerate_RollsBackOnStorageFailure(t *testing.T) {
	f := newOccurrenceFixture(t)
	session := f.store.addSession(wednesdaySession(f.location.ID), f.term1.ID)
	f.store.failInsertAt = 2

	_, err := f.service.Generate(context.Background(), session.ID)

	assert.ErrorIs(t, err, errInjected)
	assert.Empty(t, f.store.sessionOccurrences(session.ID))
}

func TestRegenerate_DeletesOnlyAutoGenerated(t *testing.T) {
	f := newOccurrenceFixture(t)
	session := f.store.addSession(wednesdaySession(f.location.ID), f.term1.ID)
	_, err := f.service.Generate(context.Background(), session.ID)
	require.NoError(t, err)

	loc := loadZone(t, aucklandZone)
	manual := f.store.addOccurrence(models.Occurrence{
		SessionID: session.ID,
		StartsAt:  time.Date(2026, 2, 14, 10, 0, 0, 0, loc),
		EndsAt:    time.Date(2026, 2, 14, 12, 0, 0, 0, loc),
	})

	result, err := f.service.Regenerate(context.Background(), session.ID, true)

	require.NoError(t, err)
	assert.Equal(t, 3, result.Deleted)
	assert.Equal(t, 3, result.Created)
	assert.Equal(t, 0, result.SkippedExisting)
	_, err = f.store.GetOccurrence(context.Background(), manual.ID)
	assert.NoError(t, err)
	assert.Len(t, f.store.sessionOccurrences(session.ID), 4)
}

func TestRegenerate_WithoutDeleteFillsGaps(t *testing.T) {
	f := newOccurrenceFixture(t)
	session := f.store.addSession(wednesdaySession(f.location.ID), f.term1.ID)
	_, err := f.service.Generate(context.Background(), session.ID)
	require.NoError(t, err)

	first := f.store.sessionOccurrences(session.ID)[0]
	delete(f.store.occurrences, first.ID)

	result, err := f.service.Regenerate(context.Background(), session.ID, false)

	require.NoError(t, err)
	assert.Equal(t, 0, result.Deleted)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 2, result.SkippedExisting)
}

func TestRegenerate_RefusalLeavesOccurrencesInPlace(t *testing.T) {
	f := newOccurrenceFixture(t)
	session := f.store.addSession(wednesdaySession(f.location.ID), f.term1.ID)
	_, err := f.service.Generate(context.Background(), session.ID)
	require.NoError(t, err)

	f.store.links[session.ID] = nil

	_, err = f.service.Regenerate(context.Background(), session.ID, true)

	assert.ErrorIs(t, err, ErrNoBlocksSelected)
	assert.Len(t, f.store.sessionOccurrences(session.ID), 3)
}

func TestRegenerate_FailureRestoresDeletedRows(t *testing.T) {
	f := newOccurrenceFixture(t)
	session := f.store.addSession(wednesdaySession(f.location.ID), f.term1.ID)
	_, err := f.service.Generate(context.Background(), session.ID)
	require.NoError(t, err)
	f.store.inserts = 0
	f.store.failInsertAt = 3

	_, err = f.service.Regenerate(context.Background(), session.ID, true)

	assert.True(t, errors.Is(err, errInjected))
	assert.Len(t, f.store.sessionOccurrences(session.ID), 3)
}

func TestList_IncludesBlockName(t *testing.T) {
	f := newOccurrenceFixture(t)
	session := f.store.addSession(wednesdaySession(f.location.ID), f.term1.ID)
	_, err := f.service.Generate(context.Background(), session.ID)
	require.NoError(t, err)

	occurrences, err := f.service.List(context.Background(), session.ID)

	require.NoError(t, err)
	require.Len(t, occurrences, 3)
	require.NotNil(t, occurrences[0].BlockName)
	assert.Equal(t, f.term1.Name, *occurrences[0].BlockName)

	_, err = f.service.List(context.Background(), 999)
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestCreateManual(t *testing.T) {
	f := newOccurrenceFixture(t)
	session := f.store.addSession(wednesdaySession(f.location.ID), f.term1.ID)
	loc := loadZone(t, aucklandZone)

	t.Run("infers the containing block", func(t *testing.T) {
		o, err := f.service.CreateManual(context.Background(), session.ID, &dto.CreateOccurrenceRequest{
			StartsAt: time.Date(2026, 2, 7, 10, 0, 0, 0, loc),
			EndsAt:   time.Date(2026, 2, 7, 12, 0, 0, 0, loc),
		})
		require.NoError(t, err)
		assert.False(t, o.AutoGenerated)
		require.NotNil(t, o.BlockID)
		assert.Equal(t, f.term1.ID, *o.BlockID)
	})

	t.Run("outside every block has no block", func(t *testing.T) {
		o, err := f.service.CreateManual(context.Background(), session.ID, &dto.CreateOccurrenceRequest{
			StartsAt: time.Date(2026, 3, 7, 10, 0, 0, 0, loc),
			EndsAt:   time.Date(2026, 3, 7, 12, 0, 0, 0, loc),
		})
		require.NoError(t, err)
		assert.Nil(t, o.BlockID)
	})

	t.Run("duplicate start conflicts", func(t *testing.T) {
		_, err := f.service.CreateManual(context.Background(), session.ID, &dto.CreateOccurrenceRequest{
			StartsAt: time.Date(2026, 2, 7, 10, 0, 0, 0, loc),
			EndsAt:   time.Date(2026, 2, 7, 11, 0, 0, 0, loc),
		})
		assert.ErrorIs(t, err, apperrors.ErrOccurrenceAlreadyExists)
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := f.service.CreateManual(context.Background(), session.ID, &dto.CreateOccurrenceRequest{
			StartsAt: time.Date(2026, 2, 8, 12, 0, 0, 0, loc),
			EndsAt:   time.Date(2026, 2, 8, 12, 0, 0, 0, loc),
		})
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	})

	t.Run("unknown explicit block", func(t *testing.T) {
		_, err := f.service.CreateManual(context.Background(), session.ID, &dto.CreateOccurrenceRequest{
			StartsAt: time.Date(2026, 2, 9, 10, 0, 0, 0, loc),
			EndsAt:   time.Date(2026, 2, 9, 12, 0, 0, 0, loc),
			BlockID:  ptr(int64(999)),
		})
		assert.ErrorIs(t, err, apperrors.ErrBlockNotFound)
	})
}

func TestSetCancelled_NotifiesOnChangeOnly(t *testing.T) {
	f := newOccurrenceFixture(t)
	session := f.store.addSession(wednesdaySession(f.location.ID), f.term1.ID)
	_, err := f.service.Generate(context.Background(), session.ID)
	require.NoError(t, err)
	target := f.store.sessionOccurrences(session.ID)[1]

	f.notifier.On("NotifyOccurrenceChange", mock.Anything, mock.MatchedBy(func(s *models.Session) bool {
		return s.ID == session.ID
	}), mock.MatchedBy(func(o *models.Occurrence) bool {
		return o.ID == target.ID
	})).Return(nil)

	cancelled, err := f.service.SetCancelled(context.Background(), target.ID, &dto.CancelOccurrenceRequest{
		Cancelled: ptr(true),
		Reason:    ptr("Hall flooded"),
	})
	require.NoError(t, err)
	assert.True(t, cancelled.Cancelled)
	assert.Equal(t, "Hall flooded", *cancelled.CancellationReason)

	_, err = f.service.SetCancelled(context.Background(), target.ID, &dto.CancelOccurrenceRequest{
		Cancelled: ptr(true),
		Reason:    ptr("Hall flooded"),
	})
	require.NoError(t, err)

	reinstated, err := f.service.SetCancelled(context.Background(), target.ID, &dto.CancelOccurrenceRequest{
		Cancelled: ptr(false),
		Reason:    ptr("ignored"),
	})
	require.NoError(t, err)
	assert.False(t, reinstated.Cancelled)
	assert.Nil(t, reinstated.CancellationReason)

	f.notifier.AssertNumberOfCalls(t, "NotifyOccurrenceChange", 2)
}

func TestSetCancelled_NotifierFailureIsNotReturned(t *testing.T) {
	f := newOccurrenceFixture(t)
	session := f.store.addSession(wednesdaySession(f.location.ID), f.term1.ID)
	_, err := f.service.Generate(context.Background(), session.ID)
	require.NoError(t, err)
	target := f.store.sessionOccurrences(session.ID)[0]
	f.notifier.On("NotifyOccurrenceChange", mock.Anything, mock.Anything, mock.Anything).Return(ErrNotificationQueueFull)

	o, err := f.service.SetCancelled(context.Background(), target.ID, &dto.CancelOccurrenceRequest{Cancelled: ptr(true)})

	require.NoError(t, err)
	assert.True(t, o.Cancelled)
}

func TestSetCancelled_Errors(t *testing.T) {
	f := newOccurrenceFixture(t)

	_, err := f.service.SetCancelled(context.Background(), 1, &dto.CancelOccurrenceRequest{})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.service.SetCancelled(context.Background(), 999, &dto.CancelOccurrenceRequest{Cancelled: ptr(true)})
	assert.ErrorIs(t, err, apperrors.ErrOccurrenceNotFound)
	f.notifier.AssertNotCalled(t, "NotifyOccurrenceChange", mock.Anything, mock.Anything, mock.Anything)
}
