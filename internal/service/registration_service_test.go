package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/repository"
)

func TestRegistrationService(t *testing.T) {
	ctx := context.Background()
	svc := NewRegistrationService(repository.NewRegistrationStore())

	_, err := svc.Create(ctx, &models.Registration{Username: "an", Email: "not-an-email", Password: "pw"})
	assert.True(t, apperrors.IsValidation(err))

	created, err := svc.Create(ctx, &models.Registration{Username: "an", Email: "an@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())

	_, err = svc.Create(ctx, &models.Registration{Username: "an2", Email: "AN@example.com", Password: "pw"})
	assert.True(t, apperrors.IsConflict(err))

	require.NoError(t, svc.Update(ctx, created.ID, &models.Registration{Username: "binh", Email: "an@example.com", Password: "pw"}))
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "binh", got.Username)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.True(t, apperrors.IsNotFound(svc.Delete(ctx, created.ID)))
}
