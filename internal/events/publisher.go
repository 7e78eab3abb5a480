package events

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/requestctx"
)

// EventType represents the type of a lifecycle event.
type EventType string

const (
	EventTypeOrderCreated       EventType = "order.created"
	EventTypeOrderStatusChanged EventType = "order.status_changed"
	EventTypeOrderDeleted       EventType = "order.deleted"
	EventTypeUserDeleted        EventType = "user.deleted"
)

// Event is the envelope written to the orders topic.
type Event struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	OrderID       int64           `json:"order_id,omitempty"`
	CustomerID    int64           `json:"customer_id"`
	Data          json.RawMessage `json:"data"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id,omitempty"`
}

// Publisher emits order and account lifecycle events.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
	PublishOrderStatusChanged(ctx context.Context, order *models.Order, previousStatus string) error
	PublishOrderDeleted(ctx context.Context, order *models.Order, linesDeleted int) error
	PublishUserDeleted(ctx context.Context, userID int64, result models.CascadeResult) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes lifecycle events to Kafka.
type KafkaPublisher struct {
	writer  messageWriter
	topic   string
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewKafkaPublisher creates a new Kafka-based event publisher.
func NewKafkaPublisher(cfg config.KafkaConfig, m *metrics.Metrics) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.OrdersTopic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}
	return newKafkaPublisher(writer, cfg.OrdersTopic, m)
}

func newKafkaPublisher(w messageWriter, topic string, m *metrics.Metrics) *KafkaPublisher {
	return &KafkaPublisher{
		writer:  w,
		topic:   topic,
		logger:  logging.New("event-publisher"),
		metrics: m,
	}
}

// PublishOrderCreated publishes an order created event.
func (p *KafkaPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	p.logger.Debug("Publishing order created event", logging.Fields{"order_id": order.ID})

	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return p.publish(ctx, p.newEvent(ctx, EventTypeOrderCreated, order.ID, order.CustomerID, data))
}

// PublishOrderStatusChanged publishes an order status change event.
func (p *KafkaPublisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, previousStatus string) error {
	p.logger.Debug("Publishing order status changed event", logging.Fields{
		"order_id":        order.ID,
		"previous_status": previousStatus,
		"new_status":      order.Status,
	})

	payload := struct {
		Order          *models.Order `json:"order"`
		PreviousStatus string        `json:"previous_status"`
		NewStatus      string        `json:"new_status"`
	}{
		Order:          order,
		PreviousStatus: previousStatus,
		NewStatus:      order.Status,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.publish(ctx, p.newEvent(ctx, EventTypeOrderStatusChanged, order.ID, order.CustomerID, data))
}

// PublishOrderDeleted publishes the removal of an order and its lines.
func (p *KafkaPublisher) PublishOrderDeleted(ctx context.Context, order *models.Order, linesDeleted int) error {
	payload := struct {
		Order        *models.Order `json:"order"`
		LinesDeleted int           `json:"lines_deleted"`
	}{order, linesDeleted}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.publish(ctx, p.newEvent(ctx, EventTypeOrderDeleted, order.ID, order.CustomerID, data))
}

// PublishUserDeleted publishes an account removal with its cascade totals.
func (p *KafkaPublisher) PublishUserDeleted(ctx context.Context, userID int64, result models.CascadeResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return p.publish(ctx, p.newEvent(ctx, EventTypeUserDeleted, 0, userID, data))
}

func (p *KafkaPublisher) newEvent(ctx context.Context, eventType EventType, orderID, customerID int64, data []byte) *Event {
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		OrderID:       orderID,
		CustomerID:    customerID,
		Data:          data,
		Timestamp:     time.Now().UTC(),
		CorrelationID: requestctx.RequestID(ctx),
	}
}

// messageKey partitions by customer so one customer's events stay ordered.
func messageKey(event *Event) []byte {
	return []byte(strconv.FormatInt(event.CustomerID, 10))
}

func (p *KafkaPublisher) publish(ctx context.Context, event *Event) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   messageKey(event),
		Value: eventData,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	err = p.writer.WriteMessages(ctx, msg)
	p.metrics.Event("out", string(event.Type), err)
	if err != nil {
		p.logger.Error("Failed to publish event", logging.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
			"order_id":   event.OrderID,
			"error":      err.Error(),
		})
		return err
	}

	p.logger.Info("Event published", logging.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
		"order_id":   event.OrderID,
		"topic":      p.topic,
	})
	return nil
}

// Close closes the Kafka writer.
func (p *KafkaPublisher) Close() error {
	p.logger.Info("Closing Kafka publisher")
	return p.writer.Close()
}

// NopPublisher drops every event. It is used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) PublishOrderCreated(context.Context, *models.Order) error { return nil }

func (NopPublisher) PublishOrderStatusChanged(context.Context, *models.Order, string) error {
	return nil
}

func (NopPublisher) PublishOrderDeleted(context.Context, *models.Order, int) error { return nil }

func (NopPublisher) PublishUserDeleted(context.Context, int64, models.CascadeResult) error {
	return nil
}

func (NopPublisher) Close() error { return nil }

// RecordingPublisher keeps published events in memory for tests.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

func (r *RecordingPublisher) record(e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *RecordingPublisher) PublishOrderCreated(_ context.Context, order *models.Order) error {
	return r.record(Event{Type: EventTypeOrderCreated, OrderID: order.ID, CustomerID: order.CustomerID})
}

func (r *RecordingPublisher) PublishOrderStatusChanged(_ context.Context, order *models.Order, _ string) error {
	return r.record(Event{Type: EventTypeOrderStatusChanged, OrderID: order.ID, CustomerID: order.CustomerID})
}

func (r *RecordingPublisher) PublishOrderDeleted(_ context.Context, order *models.Order, _ int) error {
	return r.record(Event{Type: EventTypeOrderDeleted, OrderID: order.ID, CustomerID: order.CustomerID})
}

func (r *RecordingPublisher) PublishUserDeleted(_ context.Context, userID int64, _ models.CascadeResult) error {
	return r.record(Event{Type: EventTypeUserDeleted, CustomerID: userID})
}

func (r *RecordingPublisher) Close() error { return nil }

// Events returns a copy of what has been recorded.
func (r *RecordingPublisher) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the recorded event types in order.
func (r *RecordingPublisher) Types() []EventType {
	var out []EventType
	for _, e := range r.Events() {
		out = append(out, e.Type)
	}
	return out
}
