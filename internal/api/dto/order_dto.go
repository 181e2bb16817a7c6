package dto

import (
	"time"

	"github.com/spec-kit/delivery-platform/internal/domain"
)

// OrderItemRequest is one requested line.
type OrderItemRequest struct {
	DishID   int64 `json:"dish_id"`
	Quantity int   `json:"quantity"`
	Price    int64 `json:"price"`
}

// CreateOrderRequest payload for POST /orders.
type CreateOrderRequest struct {
	RestaurantID  int64              `json:"restaurant_id"`
	Items         []OrderItemRequest `json:"items"`
	PaymentMethod string             `json:"payment_method"`
}

// UpdateOrderStatusRequest payload for PATCH /orders/:id/status.
type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

// OrderItemResponse view.
type OrderItemResponse struct {
	ID       int64 `json:"id"`
	DishID   int64 `json:"dish_id"`
	Quantity int   `json:"quantity"`
	Price    int64 `json:"price"`
}

// PaymentResponse view.
type PaymentResponse struct {
	ID     int64                `json:"id"`
	Method domain.PaymentMethod `json:"method"`
	Amount int64                `json:"amount"`
	Status domain.PaymentStatus `json:"status"`
}

// OrderResponse view.
type OrderResponse struct {
	ID           int64               `json:"id"`
	Status       domain.OrderStatus  `json:"status"`
	UserID       int64               `json:"user_id"`
	RestaurantID int64               `json:"restaurant_id"`
	TotalPrice   int64               `json:"total_price"`
	Items        []OrderItemResponse `json:"items"`
	Payment      *PaymentResponse    `json:"payment,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

// NewOrderResponse maps a domain order.
func NewOrderResponse(order *domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:           order.ID,
		Status:       order.Status,
		UserID:       order.UserID,
		RestaurantID: order.RestaurantID,
		TotalPrice:   order.TotalPrice,
		Items:        make([]OrderItemResponse, 0, len(order.Items)),
		CreatedAt:    order.CreatedAt,
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ID: item.ID, DishID: item.DishID, Quantity: item.Quantity, Price: item.Price,
		})
	}
	if p := order.Payment; p != nil {
		resp.Payment = &PaymentResponse{ID: p.ID, Method: p.Method, Amount: p.Amount, Status: p.Status}
	}
	return resp
}

// NewOrderResponses maps a list.
func NewOrderResponses(orders []domain.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, NewOrderResponse(&orders[i]))
	}
	return out
}
