package domain

// TokenKind differentiates access vs refresh tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Principal is the authenticated identity attached to one in-flight request.
// It is rebuilt from a verified token on every request and never persisted.
type Principal struct {
	SubjectID int64
	Roles     RoleSet
}

// NewPrincipal builds a principal for subjectID holding roles.
func NewPrincipal(subjectID int64, roles ...Role) *Principal {
	return &Principal{SubjectID: subjectID, Roles: NewRoleSet(roles...)}
}

// IsAdmin reports whether the principal holds ADMIN.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Roles.Has(RoleAdmin)
}

// Owns reports whether ownerID identifies the principal.
func (p *Principal) Owns(ownerID int64) bool {
	return p != nil && p.SubjectID != 0 && p.SubjectID == ownerID
}
