// Package identity carries the current caller's user id, group memberships
// and global roles through a context.Context for the duration of one
// logical operation. Authentication itself happens outside the engine; the
// embedding application attaches the identity before calling in.
package identity

import (
	"context"

	"github.com/mtlprog/taskbasket/internal/domain"
)

// Identity describes the current caller.
type Identity struct {
	UserID   string
	GroupIDs []string
	Roles    []domain.Role
}

// HasRole reports whether the caller holds any of the given roles.
func (id *Identity) HasRole(roles ...domain.Role) bool {
	for _, want := range roles {
		for _, have := range id.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// AccessIDs returns the user id plus all group ids, the full set of access
// ids workbasket permissions can be granted to.
func (id *Identity) AccessIDs() []string {
	return append([]string{id.UserID}, id.GroupIDs...)
}

type contextKey struct{}

// WithIdentity returns a context carrying the given identity.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext extracts the caller identity from the context. The second
// return value is false when no identity was attached.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(*Identity)
	return id, ok
}
