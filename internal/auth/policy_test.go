package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/delivery-platform/internal/domain"
	apperrors "github.com/spec-kit/delivery-platform/pkg/util/errorutil"
)

func TestAuthorize(t *testing.T) {
	owner := int64(5)
	customer := domain.NewPrincipal(5, domain.RoleCustomer)
	user := domain.NewPrincipal(6, domain.RoleUser)
	admin := domain.NewPrincipal(9, domain.RoleAdmin)

	cases := []struct {
		name      string
		principal *domain.Principal
		rule      Rule
		ownerID   *int64
		code      string
	}{
		{"public rule", nil, Rule{}, nil, ""},
		{"anonymous", nil, RuleListOrders, nil, CodeUnauthenticated},
		{"zero subject", &domain.Principal{}, RuleViewOwnProfile, nil, CodeUnauthenticated},
		{"authenticated only", user, RuleViewOwnProfile, nil, ""},
		{"customer creates", customer, RuleCreateOrder, nil, ""},
		{"user creates", user, RuleCreateOrder, nil, ""},
		{"flat hierarchy", admin, RuleCreateOrder, nil, CodeMissingRole},
		{"admin lists", admin, RuleListOrders, nil, ""},
		{"customer status change", customer, RuleUpdateOrderStatus, nil, CodeMissingRole},
		{"owner exception", customer, RuleViewOrder, &owner, ""},
		{"not owner", user, RuleViewOrder, &owner, CodeNotOwner},
		{"owner unknown", user, RuleViewOrder, nil, CodeNotOwner},
		{"admin any order", admin, RuleViewOrder, &owner, ""},
		{"no principal roles", domain.NewPrincipal(3), RuleListOrders, nil, CodeMissingRole},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(tc.principal, tc.rule, tc.ownerID)
			if tc.code == "" {
				assert.NoError(t, err)
				return
			}
			authz, ok := IsAuthzError(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tc.code, authz.Code)
			assert.Equal(t, tc.rule.Name, authz.Rule)
			if tc.code == CodeUnauthenticated {
				assert.ErrorIs(t, err, ErrUnauthenticated)
			} else {
				assert.ErrorIs(t, err, ErrForbidden)
			}
		})
	}
}

func TestAuthorizeRequest_KeepsDenyReason(t *testing.T) {
	err := toDomainError(Authorize(domain.NewPrincipal(6, domain.RoleUser), RuleGrantRole, nil))

	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	authz, ok := IsAuthzError(err)
	require.True(t, ok)
	assert.Equal(t, CodeMissingRole, authz.Code)
	assert.Equal(t, "users.grant_role", authz.Rule)
	assert.NotContains(t, apperrors.ToDomainError(err).Message, CodeMissingRole)
}
