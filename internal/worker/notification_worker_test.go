package worker

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/delivery-platform/internal/domain"
	"github.com/spec-kit/delivery-platform/internal/events"
	"github.com/spec-kit/delivery-platform/internal/service"
)

type recordingWriter struct {
	msgs []kafka.Message
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestWorkers_ForwardOrderEvents(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	writer := &recordingWriter{}

	StartNotificationWorker(service.NewNotificationService(dispatcher, zap.NewNop()))
	StartEventForwarder(dispatcher, events.NewKafkaPublisherWithWriter(writer), zap.NewNop())

	order := &domain.Order{ID: 5, UserID: 1, RestaurantID: 2, Status: domain.OrderStatusPlaced, TotalPrice: 900}
	require.NoError(t, dispatcher.Publish(context.Background(), events.NewOrderCreated(order, time.Now())))
	require.NoError(t, dispatcher.Publish(context.Background(),
		events.NewOrderStatusChanged(5, 9, domain.OrderStatusPlaced, domain.OrderStatusCooking, time.Now())))

	require.Len(t, writer.msgs, 2)
	for _, msg := range writer.msgs {
		assert.Equal(t, "5", string(msg.Key))
	}
}

func TestStartEventForwarder_NilPublisher(t *testing.T) {
	assert.NotPanics(t, func() {
		StartEventForwarder(events.NewInMemoryDispatcher(), nil, zap.NewNop())
	})
}
