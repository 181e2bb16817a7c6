package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/delivery-platform/internal/api/http/handlers"
	"github.com/spec-kit/delivery-platform/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	Users   *handlers.UsersHandler
	Orders  *handlers.OrdersHandler
	Metrics *handlers.MetricsHandler
}

// RegisterRoutes wires HTTP routes. Each route declares its rule here; ownership rules
// are completed inside the handler once the owner is known.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	users := app.Group("/users")
	users.Get("/me", auth.Require(auth.RuleViewOwnProfile), cfg.Users.Me)
	users.Put("/me", auth.Require(auth.RuleUpdateOwnProfile), cfg.Users.UpdateMe)
	users.Get("/", auth.Require(auth.RuleListUsers), cfg.Users.List)
	users.Get("/:id", cfg.Users.Get)
	users.Delete("/:id", cfg.Users.Delete)
	users.Post("/:id/roles", auth.Require(auth.RuleGrantRole), cfg.Users.GrantRole)

	orders := app.Group("/orders")
	orders.Post("/", auth.Require(auth.RuleCreateOrder), cfg.Orders.CreateOrder)
	orders.Get("/", auth.Require(auth.RuleListOrders), cfg.Orders.ListOrders)
	orders.Get("/user/:id", auth.Require(auth.RuleListUserOrders), cfg.Orders.ListUserOrders)
	orders.Get("/:id", cfg.Orders.GetOrder)
	orders.Patch("/:id/status", auth.Require(auth.RuleUpdateOrderStatus), cfg.Orders.UpdateStatus)

	if cfg.Metrics != nil {
		app.Get("/admin/metrics", auth.Require(auth.RuleViewMetrics), cfg.Metrics.Snapshot)
	}
}
