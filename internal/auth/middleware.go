package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/delivery-platform/internal/domain"
	"github.com/spec-kit/delivery-platform/internal/observability"
	"github.com/spec-kit/delivery-platform/internal/repository"
)

const principalKey = "auth_principal"

// Authentication outcomes, recorded per request.
const (
	OutcomeAuthenticated    = "authenticated"
	OutcomeNoToken          = "no_token"
	OutcomeMalformed        = "malformed"
	OutcomeInvalidSignature = "invalid_signature"
	OutcomeExpired          = "expired"
	OutcomeWrongKind        = "wrong_kind"
	OutcomeUnknownSubject   = "unknown_subject"
	OutcomeInternalError    = "internal_error"
)

// IdentityStore resolves the live identity behind a token subject.
type IdentityStore interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// AuthMiddleware validates bearer tokens and attaches principals. It never rejects a
// request: callers without a valid token continue unauthenticated and the route's
// Rule decides.
type AuthMiddleware struct {
	tokens  *TokenManager
	users   IdentityStore
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users IdentityStore, logger *zap.Logger, metrics *observability.Metrics) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{tokens: tokens, users: users, logger: logger, metrics: metrics}
}

// Handle resolves the caller, if any, and always continues the chain.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	principal, outcome := m.authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization))
	m.metrics.RecordAuth(outcome)
	if principal != nil {
		SetPrincipal(c, principal)
	}
	return c.Next()
}

// authenticate fails closed: any error or panic yields no principal.
func (m *AuthMiddleware) authenticate(ctx context.Context, header string) (principal *domain.Principal, outcome string) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("authentication panic", zap.Any("panic", r))
			principal, outcome = nil, OutcomeInternalError
		}
	}()

	token, ok := bearerToken(header)
	if !ok {
		return nil, OutcomeNoToken
	}

	claims, err := m.tokens.VerifyAccess(token)
	if err != nil {
		outcome = verifyOutcome(err)
		m.logger.Debug("token rejected", zap.String("reason", outcome))
		return nil, outcome
	}

	user, err := m.users.GetByID(ctx, claims.SubjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			m.logger.Warn("token subject not found", zap.Int64("subject_id", claims.SubjectID))
			return nil, OutcomeUnknownSubject
		}
		m.logger.Error("identity lookup failed", zap.Int64("subject_id", claims.SubjectID), zap.Error(err))
		return nil, OutcomeInternalError
	}
	if user == nil {
		return nil, OutcomeUnknownSubject
	}

	return domain.NewPrincipal(user.ID, user.Roles...), OutcomeAuthenticated
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func verifyOutcome(err error) string {
	switch {
	case errors.Is(err, ErrExpired):
		return OutcomeExpired
	case errors.Is(err, ErrInvalidSignature):
		return OutcomeInvalidSignature
	case errors.Is(err, ErrWrongTokenKind):
		return OutcomeWrongKind
	default:
		return OutcomeMalformed
	}
}

// SetPrincipal attaches principal to the request.
func SetPrincipal(c *fiber.Ctx, principal *domain.Principal) {
	c.Locals(principalKey, principal)
}

// PrincipalFromContext retrieves the authenticated principal.
func PrincipalFromContext(c *fiber.Ctx) (*domain.Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*domain.Principal)
	return principal, ok && principal != nil
}
