package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/models"
)

const (
	orderKeyPrefix       = "order:"
	orderGenPrefix       = "order_gen:"
	customerOrdersPrefix = "customer_orders:"
	defaultCacheTTL      = 5 * time.Minute
	generationTTL        = 24 * time.Hour
)

var errStaleGeneration = errors.New("order generation changed")

// RedisOrderCache implements OrderCache using Redis. A miss is reported as
// (nil, nil).
type RedisOrderCache struct {
	client  redis.UniversalClient
	ttl     time.Duration
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewRedisClient builds a client from config.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewRedisOrderCache creates a new Redis-based order cache.
func NewRedisOrderCache(client redis.UniversalClient, ttl time.Duration, m *metrics.Metrics) *RedisOrderCache {
	if ttl == 0 {
		ttl = defaultCacheTTL
	}

	return &RedisOrderCache{
		client:  client,
		ttl:     ttl,
		logger:  logging.New("order-cache"),
		metrics: m,
	}
}

func orderKey(id int64) string {
	return orderKeyPrefix + strconv.FormatInt(id, 10)
}

func orderGenKey(id int64) string {
	return orderGenPrefix + strconv.FormatInt(id, 10)
}

func customerOrdersKey(customerID int64) string {
	return customerOrdersPrefix + strconv.FormatInt(customerID, 10)
}

// Get retrieves an order from cache.
func (c *RedisOrderCache) Get(ctx context.Context, id int64) (*models.Order, error) {
	data, err := c.client.Get(ctx, orderKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.CacheMiss()
		c.logger.Debug("Cache miss", logging.Fields{"order_id": id})
		return nil, nil
	}
	if err != nil {
		c.metrics.CacheError()
		c.logger.Error("Cache get error", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return nil, err
	}

	var order models.Order
	if err := json.Unmarshal(data, &order); err != nil {
		c.metrics.CacheError()
		return nil, err
	}

	c.metrics.CacheHit()
	c.logger.Debug("Cache hit", logging.Fields{"order_id": id})
	return &order, nil
}

// Set stores an order in cache.
func (c *RedisOrderCache) Set(ctx context.Context, order *models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, orderKey(order.ID), data, c.ttl).Err(); err != nil {
		c.logger.Error("Cache set error", logging.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		})
		return err
	}

	c.logger.Debug("Order cached", logging.Fields{
		"order_id": order.ID,
		"ttl":      c.ttl.String(),
	})
	return nil
}

// Delete removes an order from cache and bumps its generation so that a
// reader holding an older copy cannot write it back.
func (c *RedisOrderCache) Delete(ctx context.Context, id int64) error {
	genKey := orderGenKey(id)
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, orderKey(id))
		p.Incr(ctx, genKey)
		p.Expire(ctx, genKey, generationTTL)
		return nil
	})
	if err != nil {
		c.logger.Error("Cache delete error", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return err
	}

	c.logger.Debug("Order deleted from cache", logging.Fields{"order_id": id})
	return nil
}

func (c *RedisOrderCache) Generation(ctx context.Context, id int64) (int64, error) {
	gen, err := c.client.Get(ctx, orderGenKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		c.metrics.CacheError()
		return 0, err
	}
	return gen, nil
}

// SetAtGeneration stores order under WATCH on its generation key. The write
// is skipped when an eviction happened after gen was read.
func (c *RedisOrderCache) SetAtGeneration(ctx context.Context, order *models.Order, gen int64) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}

	genKey := orderGenKey(order.ID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, orderKey(order.ID), data, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
		c.logger.Debug("Order cached", logging.Fields{"order_id": order.ID, "generation": gen})
		return nil
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("Skipped caching stale order", logging.Fields{"order_id": order.ID})
		return nil
	default:
		c.logger.Error("Cache set error", logging.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		})
		return err
	}
}

// GetByCustomer retrieves the cached order list of a customer.
func (c *RedisOrderCache) GetByCustomer(ctx context.Context, customerID int64) ([]*models.Order, error) {
	data, err := c.client.Get(ctx, customerOrdersKey(customerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.CacheMiss()
		return nil, nil
	}
	if err != nil {
		c.metrics.CacheError()
		return nil, err
	}

	var orders []*models.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		c.metrics.CacheError()
		return nil, err
	}

	c.metrics.CacheHit()
	return orders, nil
}

func (c *RedisOrderCache) SetByCustomer(ctx context.Context, customerID int64, orders []*models.Order) error {
	data, err := json.Marshal(orders)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, customerOrdersKey(customerID), data, c.ttl).Err()
}

func (c *RedisOrderCache) InvalidateByCustomer(ctx context.Context, customerID int64) error {
	return c.client.Del(ctx, customerOrdersKey(customerID)).Err()
}

// NopOrderCache is used when order caching is disabled. Every lookup misses.
type NopOrderCache struct{}

func (NopOrderCache) Get(context.Context, int64) (*models.Order, error) { return nil, nil }
func (NopOrderCache) Set(context.Context, *models.Order) error          { return nil }
func (NopOrderCache) Delete(context.Context, int64) error               { return nil }

func (NopOrderCache) Generation(context.Context, int64) (int64, error) { return 0, nil }

func (NopOrderCache) SetAtGeneration(context.Context, *models.Order, int64) error { return nil }

func (NopOrderCache) GetByCustomer(context.Context, int64) ([]*models.Order, error) {
	return nil, nil
}

func (NopOrderCache) SetByCustomer(context.Context, int64, []*models.Order) error { return nil }
func (NopOrderCache) InvalidateByCustomer(context.Context, int64) error           { return nil }
