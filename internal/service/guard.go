package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mtlprog/taskbasket/internal/domain"
	"github.com/mtlprog/taskbasket/internal/identity"
)

// AuthorizationGuard decides whether the current caller satisfies a role set
// or a workbasket permission set. Pure decision logic, no side effects.
type AuthorizationGuard struct {
	workbaskets WorkbasketRepository
	access      AccessIndex
}

// NewAuthorizationGuard creates a new AuthorizationGuard.
func NewAuthorizationGuard(workbaskets WorkbasketRepository, access AccessIndex) *AuthorizationGuard {
	return &AuthorizationGuard{workbaskets: workbaskets, access: access}
}

// callerIdentity extracts the caller identity attached to the context.
func callerIdentity(ctx context.Context) (*identity.Identity, error) {
	id, ok := identity.FromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: no caller identity in context", domain.ErrNotAuthorized)
	}
	return id, nil
}

// CheckRole verifies that the caller holds at least one of the given roles.
func (g *AuthorizationGuard) CheckRole(ctx context.Context, roles ...domain.Role) error {
	id, err := callerIdentity(ctx)
	if err != nil {
		return err
	}
	if !id.HasRole(roles...) {
		return &domain.NotAuthorizedError{CurrentUserID: id.UserID, Roles: roles}
	}
	return nil
}

// CheckPermission verifies that the caller holds all required permissions on
// the given workbasket.
//
// ADMIN and TASK_ADMIN callers bypass the permission lookup; for them a
// missing workbasket surfaces directly as a not-found error. Everyone else
// gets a permission error even when the workbasket does not exist, so that
// the check never leaks whether a non-visible workbasket is there at all.
func (g *AuthorizationGuard) CheckPermission(ctx context.Context, workbasketID string, required domain.Permission) error {
	id, err := callerIdentity(ctx)
	if err != nil {
		return err
	}

	if id.HasRole(domain.RoleAdmin, domain.RoleTaskAdmin) {
		if _, err := g.workbaskets.GetSummary(ctx, workbasketID); err != nil {
			return err
		}
		return nil
	}

	effective, err := g.access.EffectivePermissions(ctx, workbasketID, id.AccessIDs())
	if err != nil {
		if errors.Is(err, domain.ErrWorkbasketNotFound) {
			return &domain.NotAuthorizedOnWorkbasketError{
				CurrentUserID: id.UserID,
				WorkbasketID:  workbasketID,
				Required:      required,
			}
		}
		return fmt.Errorf("resolve permissions on workbasket %s: %w", workbasketID, err)
	}

	if !effective.Has(required) {
		return &domain.NotAuthorizedOnWorkbasketError{
			CurrentUserID: id.UserID,
			WorkbasketID:  workbasketID,
			Required:      required,
		}
	}
	return nil
}
