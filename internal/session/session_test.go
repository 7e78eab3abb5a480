package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/apperrors"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)

	s := &Session{UserID: 4, Username: "an", RoleID: 2}
	require.NoError(t, store.Create(ctx, s))
	require.NotEmpty(t, s.ID)

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.UserID)

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	s := &Session{UserID: 1}
	require.NoError(t, store.Create(ctx, s))

	now = now.Add(59 * time.Second)
	_, err := store.Get(ctx, s.ID)
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = store.Get(ctx, s.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestMemoryStore_CreateSweepsExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	for i := 0; i < 1000; i++ {
		require.NoError(t, store.Create(ctx, &Session{UserID: int64(i + 1)}))
	}
	require.Equal(t, 1000, store.Len())

	now = now.Add(24 * time.Hour)
	live := &Session{UserID: 1}
	require.NoError(t, store.Create(ctx, live))
	assert.Equal(t, 1, store.Len())

	got, err := store.Get(ctx, live.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.UserID)
}

func TestMemoryStore_SweepKeepsLiveSessions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	old := &Session{UserID: 1}
	require.NoError(t, store.Create(ctx, old))

	now = now.Add(30 * time.Second)
	fresh := &Session{UserID: 2}
	require.NoError(t, store.Create(ctx, fresh))

	now = now.Add(40 * time.Second)
	require.NoError(t, store.Create(ctx, &Session{UserID: 3}))

	assert.Equal(t, 2, store.Len())
	_, err := store.Get(ctx, old.ID)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = store.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestMemoryStore_UniqueIDs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)

	a, b := &Session{UserID: 1}, &Session{UserID: 1}
	require.NoError(t, store.Create(ctx, a))
	require.NoError(t, store.Create(ctx, b))
	assert.NotEqual(t, a.ID, b.ID)
}

func TestRedisStore(t *testing.T) {
	t.Skip("Integration test - requires Redis")
}
