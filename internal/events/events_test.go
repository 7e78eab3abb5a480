package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/requestctx"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestKafkaPublisher_OrderCreated(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, "webstore.orders", nil)

	ctx := requestctx.WithRequestID(context.Background(), "req-1")
	order := &models.Order{ID: 3, CustomerID: 2, Status: "processing", TotalAmount: decimal.NewFromInt(75_000_000)}
	require.NoError(t, p.PublishOrderCreated(ctx, order))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "2", string(msg.Key))
	assert.Equal(t, string(EventTypeOrderCreated), header(msg, "event_type"))

	var event Event
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, EventTypeOrderCreated, event.Type)
	assert.Equal(t, int64(3), event.OrderID)
	assert.Equal(t, "req-1", event.CorrelationID)
	assert.Equal(t, header(msg, "event_id"), event.ID)
	assert.NotEmpty(t, event.ID)
}

func TestKafkaPublisher_UserDeletedCarriesCascadeTotals(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, "webstore.orders", nil)

	require.NoError(t, p.PublishUserDeleted(context.Background(), 7, models.CascadeResult{OrdersDeleted: 1, LinesDeleted: 2}))

	var event Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &event))

	var result models.CascadeResult
	require.NoError(t, json.Unmarshal(event.Data, &result))
	assert.Equal(t, models.CascadeResult{OrdersDeleted: 1, LinesDeleted: 2}, result)
	assert.Equal(t, int64(7), event.CustomerID)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	boom := errors.New("broker unavailable")
	p := newKafkaPublisher(&fakeWriter{err: boom}, "webstore.orders", nil)

	err := p.PublishOrderDeleted(context.Background(), &models.Order{ID: 1}, 2)
	assert.ErrorIs(t, err, boom)
}

type fakeReader struct {
	msgs chan kafka.Message
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) Close() error { return nil }

type statusCall struct {
	id     int64
	status string
}

type fakeUpdater struct {
	mu    sync.Mutex
	calls []statusCall
	done  chan struct{}
}

func (u *fakeUpdater) UpdateOrderStatusOnly(_ context.Context, id int64, status string) error {
	u.mu.Lock()
	u.calls = append(u.calls, statusCall{id, status})
	u.mu.Unlock()
	u.done <- struct{}{}
	if id == 404 {
		return apperrors.NotFound("order", id)
	}
	return nil
}

func encode(t *testing.T, e FulfillmentEvent) kafka.Message {
	data, err := json.Marshal(e)
	require.NoError(t, err)
	return kafka.Message{Value: data}
}

func TestKafkaConsumer_AppliesStatusUpdates(t *testing.T) {
	reader := &fakeReader{msgs: make(chan kafka.Message, 4)}
	updater := &fakeUpdater{done: make(chan struct{}, 4)}
	c := newKafkaConsumer(reader, updater, nil)

	reader.msgs <- kafka.Message{Value: []byte("not json")}
	reader.msgs <- encode(t, FulfillmentEvent{ID: "e1", Type: FulfillmentShipped, OrderID: 1})
	reader.msgs <- encode(t, FulfillmentEvent{ID: "e2", Type: FulfillmentStatusUpdated, OrderID: 404, Status: "on hold"})
	reader.msgs <- encode(t, FulfillmentEvent{ID: "e3", Type: "inventory.reserved", OrderID: 1})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Start(ctx) }()

	for i := 0; i < 2; i++ {
		select {
		case <-updater.done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for status update")
		}
	}

	c.Stop()
	cancel()
	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}

	updater.mu.Lock()
	defer updater.mu.Unlock()
	assert.Equal(t, []statusCall{{1, "shipped"}, {404, "on hold"}}, updater.calls)
}

func TestFulfillmentEvent_StatusLabel(t *testing.T) {
	tests := []struct {
		event FulfillmentEvent
		want  string
	}{
		{FulfillmentEvent{Type: FulfillmentDelivered}, "delivered"},
		{FulfillmentEvent{Type: FulfillmentCancelled}, "cancelled"},
		{FulfillmentEvent{Type: FulfillmentStatusUpdated, Status: "  packed "}, "packed"},
		{FulfillmentEvent{Type: FulfillmentStatusUpdated}, ""},
		{FulfillmentEvent{Type: "other"}, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.event.StatusLabel(), string(tt.event.Type))
	}
}

func TestRecordingPublisher(t *testing.T) {
	r := NewRecordingPublisher()
	ctx := context.Background()

	require.NoError(t, r.PublishOrderCreated(ctx, &models.Order{ID: 1}))
	require.NoError(t, r.PublishUserDeleted(ctx, 7, models.CascadeResult{}))

	assert.Equal(t, []EventType{EventTypeOrderCreated, EventTypeUserDeleted}, r.Types())
}
