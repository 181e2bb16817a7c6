package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/delivery-platform/internal/domain"
	apperrors "github.com/spec-kit/delivery-platform/pkg/util/errorutil"
)

// Authorization outcomes.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
)

// AuthzError carries a machine readable reason for a deny decision.
type AuthzError struct {
	Code string
	Rule string
	Err  error
}

func (e *AuthzError) Error() string {
	if e == nil {
		return ""
	}
	return e.Code
}

func (e *AuthzError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Deny reason codes.
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeMissingRole     = "MISSING_ROLE"
	CodeNotOwner        = "NOT_OWNER"
)

// Rule is the allow-set of one operation. The hierarchy is flat: a role only
// satisfies a rule that lists it.
type Rule struct {
	Name string
	// Authenticated requires a principal even when AnyOf is empty.
	Authenticated bool
	AnyOf         []domain.Role
	// AllowOwner lets the resource owner through without any listed role.
	AllowOwner bool
}

func (r Rule) public() bool {
	return !r.Authenticated && len(r.AnyOf) == 0 && !r.AllowOwner
}

// Per-operation rules.
var (
	RuleViewOwnProfile   = Rule{Name: "profile.view_own", Authenticated: true}
	RuleUpdateOwnProfile = Rule{Name: "profile.update_own", Authenticated: true}
	RuleListUsers        = Rule{Name: "users.list", AnyOf: []domain.Role{domain.RoleAdmin}}
	RuleViewUser         = Rule{Name: "users.view", AnyOf: []domain.Role{domain.RoleAdmin}, AllowOwner: true}
	RuleDeleteUser       = Rule{Name: "users.delete", AnyOf: []domain.Role{domain.RoleAdmin}, AllowOwner: true}
	RuleGrantRole        = Rule{Name: "users.grant_role", AnyOf: []domain.Role{domain.RoleAdmin}}

	RuleCreateOrder       = Rule{Name: "orders.create", AnyOf: []domain.Role{domain.RoleCustomer, domain.RoleUser}}
	RuleListOrders        = Rule{Name: "orders.list", AnyOf: []domain.Role{domain.RoleCustomer, domain.RoleUser, domain.RoleAdmin}}
	RuleViewOrder         = Rule{Name: "orders.view", AnyOf: []domain.Role{domain.RoleAdmin}, AllowOwner: true}
	RuleListUserOrders    = Rule{Name: "orders.list_by_user", AnyOf: []domain.Role{domain.RoleAdmin}}
	RuleUpdateOrderStatus = Rule{Name: "orders.update_status", AnyOf: []domain.Role{domain.RoleAdmin}}

	RuleViewMetrics = Rule{Name: "admin.metrics", AnyOf: []domain.Role{domain.RoleAdmin}}
)

// Authorize decides whether principal may perform the operation guarded by rule.
// ownerID is the owner of the target resource, or nil when the operation has none.
func Authorize(principal *domain.Principal, rule Rule, ownerID *int64) error {
	if rule.public() {
		return nil
	}
	if principal == nil || principal.SubjectID == 0 {
		return &AuthzError{Code: CodeUnauthenticated, Rule: rule.Name, Err: ErrUnauthenticated}
	}
	if len(rule.AnyOf) == 0 && !rule.AllowOwner {
		return nil
	}
	if principal.Roles.HasAny(rule.AnyOf...) {
		return nil
	}
	if rule.AllowOwner {
		if ownerID != nil && principal.Owns(*ownerID) {
			return nil
		}
		return &AuthzError{Code: CodeNotOwner, Rule: rule.Name, Err: ErrForbidden}
	}
	return &AuthzError{Code: CodeMissingRole, Rule: rule.Name, Err: ErrForbidden}
}

// IsAuthzError unwraps err into an AuthzError.
func IsAuthzError(err error) (*AuthzError, bool) {
	var authz *AuthzError
	if errors.As(err, &authz) {
		return authz, true
	}
	return nil, false
}

// AuthorizeRequest evaluates rule for the request principal and returns a boundary error.
func AuthorizeRequest(c *fiber.Ctx, rule Rule, ownerID *int64) error {
	principal, _ := PrincipalFromContext(c)
	return toDomainError(Authorize(principal, rule, ownerID))
}

// Require guards a route with a rule that has no resource owner.
func Require(rule Rule) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := AuthorizeRequest(c, rule, nil); err != nil {
			return err
		}
		return c.Next()
	}
}

func toDomainError(err error) error {
	if err == nil {
		return nil
	}
	var denied *apperrors.DomainError
	switch {
	case errors.Is(err, ErrUnauthenticated):
		denied = apperrors.NewDomainError(apperrors.CodeUnauthorized, "authentication required", fiber.StatusUnauthorized, nil)
	case errors.Is(err, ErrForbidden):
		denied = apperrors.NewDomainError(apperrors.CodeForbidden, "access denied", fiber.StatusForbidden, nil)
	default:
		return apperrors.MapError(err)
	}
	// The deny reason stays reachable through Unwrap for logging.
	denied.Err = err
	return denied
}
