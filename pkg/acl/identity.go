// Package acl decides whether the acting identity may perform an operation
// on a resource.
package acl

import "context"

// RoleGuest is assigned to callers without an identity.
const RoleGuest = "guest"

// Identity is the acting user for one request.
type Identity struct {
	UserID string   `json:"userId,omitempty"`
	Roles  []string `json:"roles,omitempty"`
}

// Guest is the anonymous identity.
var Guest = Identity{Roles: []string{RoleGuest}}

type identityKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity in ctx, or Guest when none is set or it
// carries no roles.
func IdentityFrom(ctx context.Context) Identity {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok {
		return Guest
	}
	if len(id.Roles) == 0 {
		id.Roles = []string{RoleGuest}
	}
	return id
}
