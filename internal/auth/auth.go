// Package auth implements credential login, token issuance, and principal
// resolution for Vigil. Authenticated actors form a closed union of variants;
// downstream systems read only the role tag and, for org admins, the
// organization scope, and never need to know about other branches.
package auth

import (
	"context"

	"github.com/google/uuid"
)

// Role tags the kind of authenticated actor.
type Role string

// Known roles.
const (
	RoleOrgAdmin Role = "org-admin"
	RoleMember   Role = "member"
)

// Principal is an authenticated actor. The union is closed: only the variants
// in this package implement it.
type Principal interface {
	// Role returns the actor's role tag.
	Role() Role
	// Subject returns the stable identifier carried in token claims.
	Subject() string

	principal()
}

// OrgAdmin is an organization administrator. It is the only variant carrying
// an organization scope and the only one permitted to run analyses.
type OrgAdmin struct {
	ID    uuid.UUID
	OrgID uuid.UUID
	Email string
}

func (OrgAdmin) Role() Role        { return RoleOrgAdmin }
func (a OrgAdmin) Subject() string { return a.ID.String() }
func (OrgAdmin) principal()        {}

// Member is a registered platform user with no organization scope.
type Member struct {
	ID       uuid.UUID
	Username string
}

func (Member) Role() Role        { return RoleMember }
func (m Member) Subject() string { return m.ID.String() }
func (Member) principal()        {}

type contextKey struct{}

// WithPrincipal returns a context carrying the principal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// PrincipalFrom extracts the principal placed in the context by RequireAuth.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}
