package http

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/delivery-platform/internal/auth"
	"github.com/spec-kit/delivery-platform/internal/domain"
	"github.com/spec-kit/delivery-platform/internal/observability"
	apperrors "github.com/spec-kit/delivery-platform/pkg/util/errorutil"
)

func TestErrorHandlingMiddleware(t *testing.T) {
	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, time.Second, nil)
	app.Get("/unauthorized", func(*fiber.Ctx) error { return apperrors.NewUnauthorized("authentication required") })
	app.Get("/boom", func(*fiber.Ctx) error { return errors.New("db password leaked in message") })
	app.Get("/panic", func(*fiber.Ctx) error { panic("unexpected") })

	type errorBody struct {
		Error struct {
			Code      string `json:"code"`
			Message   string `json:"message"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	call := func(path string) (int, errorBody, string) {
		req := httptest.NewRequest("GET", path, nil)
		req.Header.Set(observability.RequestIDHeader, "req-123")
		resp, err := app.Test(req)
		require.NoError(t, err)
		var body errorBody
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return resp.StatusCode, body, resp.Header.Get(fiber.HeaderWWWAuthenticate)
	}

	status, body, challenge := call("/unauthorized")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, apperrors.CodeUnauthorized, body.Error.Code)
	assert.Equal(t, "req-123", body.Error.RequestID)
	assert.Contains(t, challenge, "Bearer")

	status, body, _ = call("/boom")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, apperrors.CodeInternal, body.Error.Code)
	assert.NotContains(t, body.Error.Message, "password")

	status, body, _ = call("/panic")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, apperrors.CodeInternal, body.Error.Code)

	status, body, _ = call("/missing")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, apperrors.CodeNotFound, body.Error.Code)

	assert.NotEmpty(t, metrics.Snapshot().Errors)
}

func TestErrorHandlingMiddleware_LogsDenyReason(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	app := fiber.New()
	RegisterMiddlewares(app, zap.New(core), nil, 0, nil)
	app.Get("/orders/:id/status", func(c *fiber.Ctx) error {
		auth.SetPrincipal(c, domain.NewPrincipal(4, domain.RoleCustomer))
		return c.Next()
	}, auth.Require(auth.RuleUpdateOrderStatus), func(c *fiber.Ctx) error {
		return c.SendString("changed")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/orders/1/status", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	denied := logs.FilterMessage("request denied").All()
	require.Len(t, denied, 1)
	fields := denied[0].ContextMap()
	assert.Equal(t, auth.CodeMissingRole, fields["reason"])
	assert.Equal(t, "orders.update_status", fields["rule"])
}
