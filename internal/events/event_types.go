package events

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/delivery-platform/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventOrderCreated       EventType = "order_created"
	EventOrderStatusChanged EventType = "order_status_changed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	OrderID   int64       `json:"order_id"`
	ActorID   int64       `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Key is the partitioning key for the event, so all events of one order stay ordered.
func (e Event) Key() string {
	return strconv.FormatInt(e.OrderID, 10)
}

// OrderCreatedPayload payload.
type OrderCreatedPayload struct {
	OrderID      int64              `json:"order_id"`
	UserID       int64              `json:"user_id"`
	RestaurantID int64              `json:"restaurant_id"`
	Status       domain.OrderStatus `json:"status"`
	TotalAmount  int64              `json:"total_amount"`
	CreatedAt    time.Time          `json:"created_at"`
}

// OrderStatusChangedPayload payload.
type OrderStatusChangedPayload struct {
	OrderID   int64              `json:"order_id"`
	OldStatus domain.OrderStatus `json:"old_status"`
	NewStatus domain.OrderStatus `json:"new_status"`
}

// NewOrderCreated builds the event emitted after an order is committed.
func NewOrderCreated(order *domain.Order, at time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      EventOrderCreated,
		OrderID:   order.ID,
		ActorID:   order.UserID,
		Timestamp: at.UTC(),
		Payload: OrderCreatedPayload{
			OrderID:      order.ID,
			UserID:       order.UserID,
			RestaurantID: order.RestaurantID,
			Status:       order.Status,
			TotalAmount:  order.TotalPrice,
			CreatedAt:    order.CreatedAt,
		},
	}
}

// NewOrderStatusChanged builds the event emitted after a status overwrite.
func NewOrderStatusChanged(orderID, actorID int64, oldStatus, newStatus domain.OrderStatus, at time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      EventOrderStatusChanged,
		OrderID:   orderID,
		ActorID:   actorID,
		Timestamp: at.UTC(),
		Payload: OrderStatusChangedPayload{
			OrderID:   orderID,
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	}
}
