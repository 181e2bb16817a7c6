package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/delivery-platform/internal/domain"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaPublisher_Handle(t *testing.T) {
	fw := &fakeWriter{}
	p := NewKafkaPublisherWithWriter(fw)

	order := &domain.Order{ID: 42, UserID: 7, RestaurantID: 3, Status: domain.OrderStatusPlaced, TotalPrice: 1300}
	event := NewOrderCreated(order, time.Now())
	require.NoError(t, p.Handle(context.Background(), event))

	require.Len(t, fw.msgs, 1)
	assert.Equal(t, "42", string(fw.msgs[0].Key))

	var decoded struct {
		Type    EventType `json:"type"`
		OrderID int64     `json:"order_id"`
		Payload struct {
			TotalAmount int64  `json:"total_amount"`
			Status      string `json:"status"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(fw.msgs[0].Value, &decoded))
	assert.Equal(t, EventOrderCreated, decoded.Type)
	assert.Equal(t, int64(42), decoded.OrderID)
	assert.Equal(t, int64(1300), decoded.Payload.TotalAmount)
	assert.Equal(t, "PLACED", decoded.Payload.Status)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := NewKafkaPublisherWithWriter(&fakeWriter{err: errors.New("broker down")})
	err := p.Handle(context.Background(), NewOrderStatusChanged(1, 2, domain.OrderStatusPlaced, domain.OrderStatusCooking, time.Now()))
	assert.ErrorContains(t, err, "broker down")
}

func TestDispatcher_RunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string
	d.Subscribe(EventOrderStatusChanged, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventOrderStatusChanged, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventOrderCreated, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), NewOrderStatusChanged(1, 2, domain.OrderStatusPlaced, domain.OrderStatusReady, time.Now()))
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestDispatcher_RecoversHandlerPanic(t *testing.T) {
	d := NewInMemoryDispatcher()
	delivered := false
	d.Subscribe(EventOrderCreated, func(context.Context, Event) error { panic("nil map") })
	d.Subscribe(EventOrderCreated, func(context.Context, Event) error {
		delivered = true
		return nil
	})

	order := &domain.Order{ID: 4, UserID: 2, Status: domain.OrderStatusPlaced}
	err := d.Publish(context.Background(), NewOrderCreated(order, time.Now()))
	assert.ErrorContains(t, err, "handler #0: handler panicked: nil map")
	assert.True(t, delivered)
}
