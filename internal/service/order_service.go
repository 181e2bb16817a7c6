package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/delivery-platform/internal/domain"
	"github.com/spec-kit/delivery-platform/internal/events"
	"github.com/spec-kit/delivery-platform/internal/repository"
	apperrors "github.com/spec-kit/delivery-platform/pkg/util/errorutil"
)

// OrderService coordinates order workflows.
type OrderService struct {
	orders     repository.OrderRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// OrderDependencies bundles collaborators for the order service.
type OrderDependencies struct {
	OrderRepo  repository.OrderRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// OrderItemInput is one requested line. Price is the unit price locked in the cart,
// in minor currency units.
type OrderItemInput struct {
	DishID   int64
	Quantity int
	Price    int64
}

// CreateOrderInput describes order creation payload.
type CreateOrderInput struct {
	RestaurantID  int64
	Items         []OrderItemInput
	PaymentMethod domain.PaymentMethod
}

// NewOrderService constructs the service.
func NewOrderService(deps OrderDependencies) *OrderService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orders:     deps.OrderRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateOrder validates the input, computes the total and persists the order with its
// items and payment in one transaction. Nothing is written when validation fails.
func (s *OrderService) CreateOrder(ctx context.Context, ownerID int64, input CreateOrderInput) (*domain.Order, error) {
	total, err := validateOrder(input)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		Status:       domain.OrderStatusPlaced,
		UserID:       ownerID,
		RestaurantID: input.RestaurantID,
		TotalPrice:   total,
		Items:        make([]domain.OrderItem, 0, len(input.Items)),
		Payment: &domain.Payment{
			Method: input.PaymentMethod,
			Amount: total,
			Status: domain.PaymentStatusPaid,
		},
	}
	for _, item := range input.Items {
		order.Items = append(order.Items, domain.OrderItem{
			DishID:   item.DishID,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.publishEvent(ctx, events.NewOrderCreated(order, s.now()))
	return order, nil
}

// ListOrders returns every order for an admin, otherwise only the caller's own orders.
// A non-empty statuses list narrows the result to those statuses.
func (s *OrderService) ListOrders(ctx context.Context, principal *domain.Principal, statuses []string) ([]domain.Order, error) {
	if principal == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	filter := repository.OrderFilter{}
	for _, raw := range statuses {
		status, err := parseStatus(raw)
		if err != nil {
			return nil, err
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	if !principal.IsAdmin() {
		filter.UserID = &principal.SubjectID
	}

	orders, err := s.orders.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return orders, nil
}

// ListOrdersByUser returns all orders owned by userID.
func (s *OrderService) ListOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID, 0, 0)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return orders, nil
}

// GetOrder loads a single order. Ownership is checked by the caller against Order.UserID.
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, mapOrderError(err, id)
	}
	return order, nil
}

// UpdateStatus overwrites the order status. Any recognized status may follow any other.
func (s *OrderService) UpdateStatus(ctx context.Context, actorID, orderID int64, raw string) (*domain.Order, error) {
	status, err := parseStatus(raw)
	if err != nil {
		return nil, err
	}

	previous, err := s.orders.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return nil, mapOrderError(err, orderID)
	}

	s.publishEvent(ctx, events.NewOrderStatusChanged(orderID, actorID, previous, status, s.now()))
	return s.GetOrder(ctx, orderID)
}

func parseStatus(raw string) (domain.OrderStatus, error) {
	status := domain.OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", apperrors.NewValidationError("unknown order status", map[string]any{"status": raw})
	}
	return status, nil
}

func validateOrder(input CreateOrderInput) (int64, error) {
	errs := fieldErrors{}
	if input.RestaurantID <= 0 {
		errs.add("restaurant_id", "must be positive")
	}
	if !input.PaymentMethod.Valid() {
		errs.add("payment_method", "must be one of CARD, CASH, PAYPAL")
	}
	if len(input.Items) == 0 {
		errs.add("items", "at least one item required")
	}

	var total int64
	overflow := false
	for _, item := range input.Items {
		if item.DishID <= 0 {
			errs.add("items.dish_id", "must be positive")
		}
		if item.Quantity <= 0 {
			errs.add("items.quantity", "must be positive")
			continue
		}
		if item.Price <= 0 {
			errs.add("items.price", "must be positive")
			continue
		}
		if overflow {
			continue
		}
		qty := int64(item.Quantity)
		if item.Price > math.MaxInt64/qty || total > math.MaxInt64-item.Price*qty {
			overflow = true
			errs.add("items", "order total out of range")
			continue
		}
		total += item.Price * qty
	}

	if !errs.empty() {
		return 0, apperrors.NewValidationError("invalid order", errs)
	}
	return total, nil
}

func mapOrderError(err error, id int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("order", map[string]any{"id": id})
	}
	return apperrors.NewInternalError(err)
}

// publishEvent runs after commit; failures are logged and never surface to the caller.
func (s *OrderService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed",
			zap.String("event_type", string(event.Type)),
			zap.Int64("order_id", event.OrderID),
			zap.Error(err))
	}
}
