package domain

import "time"

// OrderStatus enumerates lifecycle states for orders.
type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "PLACED"
	OrderStatusCooking   OrderStatus = "COOKING"
	OrderStatusReady     OrderStatus = "READY"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Valid reports whether s is one of the recognized statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPlaced, OrderStatusCooking, OrderStatusReady, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further progress is expected from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// PaymentMethod enumerates accepted payment methods.
type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "CARD"
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodPaypal PaymentMethod = "PAYPAL"
)

// Valid reports whether m is an accepted payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodCash, PaymentMethodPaypal:
		return true
	}
	return false
}

// PaymentStatus tracks settlement of a payment. Only PAID is produced today;
// PENDING and FAILED are reserved for gateway callbacks.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// Order is the aggregate for a customer order. It exclusively owns its items and payment.
type Order struct {
	ID           int64
	Status       OrderStatus
	UserID       int64
	RestaurantID int64
	TotalPrice   int64
	Items        []OrderItem
	Payment      *Payment
	CreatedAt    time.Time
}

// OrderItem is one line of an order. Price is in minor currency units.
type OrderItem struct {
	ID       int64
	OrderID  int64
	DishID   int64
	Quantity int
	Price    int64
}

// Payment records how an order was paid for.
type Payment struct {
	ID      int64
	OrderID int64
	Method  PaymentMethod
	Amount  int64
	Status  PaymentStatus
}
