package services

import (
	"context"
	"testing"

	"github.com/afterschool/sessions-api/internal/app/models/dto"
	"github.com/afterschool/sessions-api/internal/pkg/apperrors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationCreateAndUpdate(t *testing.T) {
	store := newMemStore()
	svc := NewLocationService(store, zerolog.Nop())

	created, err := svc.Create(context.Background(), &dto.CreateLocationRequest{
		Name:        " Ponsonby Hall ",
		Address:     "1 Ponsonby Rd",
		Region:      ptr("Central"),
		ContactName: ptr("   "),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ponsonby Hall", created.Name)
	assert.Nil(t, created.ContactName)

	updated, err := svc.Update(context.Background(), created.ID, &dto.UpdateLocationRequest{Lat: ptr(-36.85)})
	require.NoError(t, err)
	assert.Equal(t, "Ponsonby Hall", updated.Name)
	assert.Equal(t, "Central", *updated.Region)
	assert.Equal(t, -36.85, *updated.Lat)

	_, err = svc.Update(context.Background(), created.ID, &dto.UpdateLocationRequest{Address: ptr("  ")})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.Get(context.Background(), 999)
	assert.ErrorIs(t, err, apperrors.ErrLocationNotFound)
}

func TestLocationCreate_RequiresAddress(t *testing.T) {
	svc := NewLocationService(newMemStore(), zerolog.Nop())

	_, err := svc.Create(context.Background(), &dto.CreateLocationRequest{Name: "Hall"})

	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}
