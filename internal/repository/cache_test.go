package repository

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/models"
)

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "order:42", orderKey(42))
	assert.Equal(t, "customer_orders:7", customerOrdersKey(7))
	assert.Equal(t, "order_gen:42", orderGenKey(42))
}

func TestNewRedisOrderCache_DefaultTTL(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	c := NewRedisOrderCache(client, 0, nil)
	assert.Equal(t, defaultCacheTTL, c.ttl)

	c = NewRedisOrderCache(client, time.Second, nil)
	assert.Equal(t, time.Second, c.ttl)
}

func TestNopOrderCache_AlwaysMisses(t *testing.T) {
	ctx := context.Background()
	var c OrderCache = NopOrderCache{}

	require.NoError(t, c.Set(ctx, &models.Order{ID: 1}))
	order, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, order)

	orders, err := c.GetByCustomer(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, orders)

	gen, err := c.Generation(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, gen)
	assert.NoError(t, c.SetAtGeneration(ctx, &models.Order{ID: 1}, gen))
}

func TestRedisOrderCache_RoundTrip(t *testing.T) {
	// Requires a running Redis on localhost:6379
	t.Skip("Integration test - requires Redis")

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	c := NewRedisOrderCache(client, time.Minute, metrics.New())
	order := &models.Order{ID: 9, CustomerID: 3, Status: "processing", TotalAmount: decimal.NewFromInt(10)}

	require.NoError(t, c.Set(ctx, order))
	got, err := c.Get(ctx, 9)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, order.TotalAmount.Equal(got.TotalAmount))

	require.NoError(t, c.SetByCustomer(ctx, 3, []*models.Order{order}))
	require.NoError(t, c.InvalidateByCustomer(ctx, 3))
	list, err := c.GetByCustomer(ctx, 3)
	require.NoError(t, err)
	assert.Nil(t, list)

	require.NoError(t, c.Delete(ctx, 9))
	got, err = c.Get(ctx, 9)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisOrderCache_SetAtGenerationSkipsAfterEviction(t *testing.T) {
	// Requires a running Redis on localhost:6379
	t.Skip("Integration test - requires Redis")

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	c := NewRedisOrderCache(client, time.Minute, metrics.New())
	order := &models.Order{ID: 21, CustomerID: 3, Status: "processing"}

	gen, err := c.Generation(ctx, 21)
	require.NoError(t, err)

	require.NoError(t, c.Delete(ctx, 21))
	require.NoError(t, c.SetAtGeneration(ctx, order, gen))

	got, err := c.Get(ctx, 21)
	require.NoError(t, err)
	assert.Nil(t, got)

	gen, err = c.Generation(ctx, 21)
	require.NoError(t, err)
	require.NoError(t, c.SetAtGeneration(ctx, order, gen))

	got, err = c.Get(ctx, 21)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "processing", got.Status)
}
