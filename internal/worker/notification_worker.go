package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/delivery-platform/internal/events"
	"github.com/spec-kit/delivery-platform/internal/service"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// StartEventForwarder subscribes publisher to every order event so they reach the stream.
func StartEventForwarder(dispatcher events.Dispatcher, publisher *events.KafkaPublisher, logger *zap.Logger) {
	if dispatcher == nil || publisher == nil {
		return
	}
	for _, eventType := range []events.EventType{events.EventOrderCreated, events.EventOrderStatusChanged} {
		dispatcher.Subscribe(eventType, publisher.Handle)
	}
	logger.Info("order events forwarded to kafka")
}
