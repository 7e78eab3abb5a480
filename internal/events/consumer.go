package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/metrics"
)

// FulfillmentEventType represents the type of a fulfillment event.
type FulfillmentEventType string

const (
	FulfillmentShipped       FulfillmentEventType = "fulfillment.shipped"
	FulfillmentDelivered     FulfillmentEventType = "fulfillment.delivered"
	FulfillmentCancelled     FulfillmentEventType = "fulfillment.cancelled"
	FulfillmentStatusUpdated FulfillmentEventType = "fulfillment.status_updated"
)

// FulfillmentEvent is a status update emitted by the fulfillment system.
type FulfillmentEvent struct {
	ID        string               `json:"id"`
	Type      FulfillmentEventType `json:"type"`
	OrderID   int64                `json:"order_id"`
	Status    string               `json:"status,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// StatusLabel returns the order status this event sets, or "" when the
// event carries none.
func (e *FulfillmentEvent) StatusLabel() string {
	switch e.Type {
	case FulfillmentShipped:
		return "shipped"
	case FulfillmentDelivered:
		return "delivered"
	case FulfillmentCancelled:
		return "cancelled"
	case FulfillmentStatusUpdated:
		return strings.TrimSpace(e.Status)
	}
	return ""
}

// StatusUpdater applies a status-only change to an order.
type StatusUpdater interface {
	UpdateOrderStatusOnly(ctx context.Context, id int64, status string) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaConsumer applies fulfillment status updates to orders.
type KafkaConsumer struct {
	reader   messageReader
	orders   StatusUpdater
	logger   *logging.Logger
	metrics  *metrics.Metrics
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewKafkaConsumer creates a new Kafka-based event consumer.
func NewKafkaConsumer(cfg config.KafkaConfig, orders StatusUpdater, m *metrics.Metrics) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.StatusUpdatesTopic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})
	return newKafkaConsumer(reader, orders, m)
}

func newKafkaConsumer(r messageReader, orders StatusUpdater, m *metrics.Metrics) *KafkaConsumer {
	return &KafkaConsumer{
		reader:  r,
		orders:  orders,
		logger:  logging.New("event-consumer"),
		metrics: m,
		stopCh:  make(chan struct{}),
	}
}

// Start consumes until ctx is done or Stop is called.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info("Starting Kafka consumer")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			c.logger.Info("Kafka consumer stopped")
			return nil
		default:
		}

		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			select {
			case <-c.stopCh:
				c.logger.Info("Kafka consumer stopped")
				return nil
			default:
			}
			c.logger.Error("Failed to read message", logging.Fields{"error": err.Error()})
			continue
		}

		c.handleMessage(ctx, msg)
	}
}

// Stop stops the consumer. It is safe to call more than once.
func (c *KafkaConsumer) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		c.reader.Close()
	})
}

func (c *KafkaConsumer) handleMessage(ctx context.Context, msg kafka.Message) {
	c.logger.Debug("Received message", logging.Fields{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})

	var event FulfillmentEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.metrics.Event("in", "malformed", err)
		c.logger.Error("Failed to unmarshal event", logging.Fields{"error": err.Error()})
		return
	}

	status := event.StatusLabel()
	if status == "" {
		c.logger.Debug("Ignoring event without status", logging.Fields{"type": event.Type})
		return
	}

	err := c.orders.UpdateOrderStatusOnly(ctx, event.OrderID, status)
	c.metrics.Event("in", string(event.Type), err)

	switch {
	case err == nil:
		c.logger.Info("Order status updated from fulfillment", logging.Fields{
			"order_id": event.OrderID,
			"status":   status,
			"event_id": event.ID,
		})
	case apperrors.IsNotFound(err):
		c.logger.Warn("Fulfillment event for unknown order", logging.Fields{
			"order_id": event.OrderID,
			"event_id": event.ID,
		})
	case errors.Is(err, context.Canceled):
	default:
		c.logger.Error("Failed to update order status", logging.Fields{
			"order_id": event.OrderID,
			"error":    err.Error(),
		})
	}
}
