package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/delivery-platform/internal/api/dto"
	"github.com/spec-kit/delivery-platform/internal/auth"
	"github.com/spec-kit/delivery-platform/internal/domain"
	"github.com/spec-kit/delivery-platform/internal/service"
	apperrors "github.com/spec-kit/delivery-platform/pkg/util/errorutil"
)

// OrdersHandler manages order endpoints.
type OrdersHandler struct {
	service *service.OrderService
}

// NewOrdersHandler constructs handler.
func NewOrdersHandler(orderService *service.OrderService) *OrdersHandler {
	return &OrdersHandler{service: orderService}
}

// CreateOrder POST /orders. The caller becomes the owner.
func (h *OrdersHandler) CreateOrder(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.CreateOrderInput{
		RestaurantID:  req.RestaurantID,
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		Items:         make([]service.OrderItemInput, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, service.OrderItemInput{
			DishID:   item.DishID,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	order, err := h.service.CreateOrder(c.UserContext(), principal.SubjectID, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

// ListOrders GET /orders[?status=PLACED,COOKING].
func (h *OrdersHandler) ListOrders(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var statuses []string
	if raw := c.Query("status"); raw != "" {
		statuses = strings.Split(raw, ",")
	}
	orders, err := h.service.ListOrders(c.UserContext(), principal, statuses)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponses(orders)})
}

// GetOrder GET /orders/:id. Readable by the owner or an admin.
func (h *OrdersHandler) GetOrder(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	// An anonymous caller must not learn whether the order exists.
	if err := auth.AuthorizeRequest(c, auth.Rule{Authenticated: true}, nil); err != nil {
		return err
	}
	order, err := h.service.GetOrder(c.UserContext(), id)
	if err != nil {
		return err
	}
	if err := auth.AuthorizeRequest(c, auth.RuleViewOrder, &order.UserID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

// ListUserOrders GET /orders/user/:id.
func (h *OrdersHandler) ListUserOrders(c *fiber.Ctx) error {
	userID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	orders, err := h.service.ListOrdersByUser(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponses(orders)})
}

// UpdateStatus PATCH /orders/:id/status.
func (h *OrdersHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	order, err := h.service.UpdateStatus(c.UserContext(), principal.SubjectID, id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}
