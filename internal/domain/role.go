package domain

import (
	"sort"
	"strings"
)

// Role is a member of the fixed set of roles understood by the authorization policy.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleUser     Role = "USER"
	RoleAdmin    Role = "ADMIN"
)

// DefaultRole is assigned to every newly registered identity.
const DefaultRole = RoleCustomer

// Valid reports whether r belongs to the fixed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleUser, RoleAdmin:
		return true
	}
	return false
}

// ParseRole normalizes a role name, accepting an optional ROLE_ prefix.
func ParseRole(name string) (Role, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "ROLE_")
	role := Role(name)
	return role, role.Valid()
}

// RoleSet is an unordered set of known roles.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set, silently dropping unknown roles.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		if r.Valid() {
			set[r] = struct{}{}
		}
	}
	return set
}

// Has reports membership.
func (s RoleSet) Has(role Role) bool {
	_, ok := s[role]
	return ok
}

// HasAny reports whether any of roles is in the set.
func (s RoleSet) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// Slice returns the roles in a stable order.
func (s RoleSet) Slice() []Role {
	out := make([]Role, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
