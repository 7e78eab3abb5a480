package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/models"
)

func TestRegistrationStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewRegistrationStore()

	reg := &models.Registration{Username: "an", Email: "an@example.com", RoleID: models.RoleCustomer}
	require.NoError(t, store.Create(ctx, reg))
	assert.Equal(t, int64(1), reg.ID)

	err := store.Create(ctx, &models.Registration{Username: "binh", Email: "AN@example.com"})
	assert.True(t, apperrors.IsConflict(err))

	reg.Address = "Hanoi"
	require.NoError(t, store.Update(ctx, reg))

	got, err := store.Get(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hanoi", got.Address)

	require.NoError(t, store.Delete(ctx, reg.ID))
	_, err = store.Get(ctx, reg.ID)
	assert.True(t, apperrors.IsNotFound(err))
	assert.True(t, apperrors.IsNotFound(store.Delete(ctx, reg.ID)))
}

func TestRegistrationStore_InstancesAreIsolated(t *testing.T) {
	ctx := context.Background()
	a, b := NewRegistrationStore(), NewRegistrationStore()

	require.NoError(t, a.Create(ctx, &models.Registration{Email: "x@example.com"}))

	list, err := b.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRegistrationStore_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	store := NewRegistrationStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Create(ctx, &models.Registration{Email: fmt.Sprintf("user%d@example.com", i)})
		}(i)
	}
	wg.Wait()

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 50)
	for i, r := range list {
		assert.Equal(t, int64(i+1), r.ID)
	}
}
