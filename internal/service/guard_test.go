package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mtlprog/taskbasket/internal/domain"
	"github.com/mtlprog/taskbasket/internal/identity"
	"github.com/mtlprog/taskbasket/internal/service"
	"github.com/stretchr/testify/suite"
)

// AuthorizationGuardTestSuite covers role checks and workbasket permission
// resolution.
type AuthorizationGuardTestSuite struct {
	suite.Suite
	wbRepo *fakeWorkbasketRepo
	access *fakeAccessIndex
	guard  *service.AuthorizationGuard

	wb *domain.WorkbasketSummary
}

func (s *AuthorizationGuardTestSuite) SetupTest() {
	s.wbRepo = newFakeWorkbasketRepo()
	s.access = newFakeAccessIndex(s.wbRepo)
	s.guard = service.NewAuthorizationGuard(s.wbRepo, s.access)
	s.wb = s.wbRepo.add("WBI:wb-1", "TEAM-A")
}

// TestCheckRole_Membership tests matching against the caller's role set.
func (s *AuthorizationGuardTestSuite) TestCheckRole_Membership() {
	ctx := ctxAs("user-1", domain.RoleUser, domain.RoleMonitor)

	s.NoError(s.guard.CheckRole(ctx, domain.RoleMonitor))
	s.NoError(s.guard.CheckRole(ctx, domain.RoleAdmin, domain.RoleUser))

	err := s.guard.CheckRole(ctx, domain.RoleAdmin, domain.RoleTaskAdmin)
	s.Require().Error(err)
	s.True(errors.Is(err, domain.ErrNotAuthorized))

	var roleErr *domain.NotAuthorizedError
	s.Require().True(errors.As(err, &roleErr))
	s.Equal("user-1", roleErr.CurrentUserID)
	s.Equal([]domain.Role{domain.RoleAdmin, domain.RoleTaskAdmin}, roleErr.Roles)
}

// TestCheckRole_NoIdentity tests the missing-identity failure.
func (s *AuthorizationGuardTestSuite) TestCheckRole_NoIdentity() {
	err := s.guard.CheckRole(context.Background(), domain.RoleUser)
	s.Require().Error(err)
	s.True(errors.Is(err, domain.ErrNotAuthorized))
}

// TestCheckPermission_DirectGrant tests a plain user grant.
func (s *AuthorizationGuardTestSuite) TestCheckPermission_DirectGrant() {
	s.access.grant(s.wb.ID, "user-1", domain.PermissionRead|domain.PermissionOpen)
	ctx := ctxAs("user-1")

	s.NoError(s.guard.CheckPermission(ctx, s.wb.ID, domain.PermissionRead))

	err := s.guard.CheckPermission(ctx, s.wb.ID, domain.PermissionTransfer)
	s.Require().Error(err)
	s.True(errors.Is(err, domain.ErrNotAuthorizedOnWorkbasket))

	var permErr *domain.NotAuthorizedOnWorkbasketError
	s.Require().True(errors.As(err, &permErr))
	s.Equal(s.wb.ID, permErr.WorkbasketID)
	s.Equal(domain.PermissionTransfer, permErr.Required)
}

// TestCheckPermission_GroupGrant tests that group memberships contribute to
// the effective permission set.
func (s *AuthorizationGuardTestSuite) TestCheckPermission_GroupGrant() {
	s.access.grant(s.wb.ID, "group-clerks", domain.PermissionRead|domain.PermissionAppend)
	ctx := identity.WithIdentity(context.Background(), &identity.Identity{
		UserID:   "user-1",
		GroupIDs: []string{"group-clerks"},
	})

	s.NoError(s.guard.CheckPermission(ctx, s.wb.ID, domain.PermissionRead|domain.PermissionAppend))
}

// TestCheckPermission_AdminBypass tests that ADMIN and TASK_ADMIN skip the
// permission lookup entirely.
func (s *AuthorizationGuardTestSuite) TestCheckPermission_AdminBypass() {
	s.NoError(s.guard.CheckPermission(ctxAs("root", domain.RoleAdmin), s.wb.ID, domain.PermissionTransfer))
	s.NoError(s.guard.CheckPermission(ctxAs("ops", domain.RoleTaskAdmin), s.wb.ID, domain.PermissionDistribute))
}

// TestCheckPermission_HidesExistence tests that a plain caller cannot tell a
// missing workbasket from a forbidden one.
func (s *AuthorizationGuardTestSuite) TestCheckPermission_HidesExistence() {
	err := s.guard.CheckPermission(ctxAs("user-1"), "WBI:missing", domain.PermissionRead)
	s.Require().Error(err)
	s.True(errors.Is(err, domain.ErrNotAuthorizedOnWorkbasket))
	s.False(errors.Is(err, domain.ErrWorkbasketNotFound))
}

// TestCheckPermission_AdminSeesNotFound tests that admins get the real
// not-found error for a missing workbasket.
func (s *AuthorizationGuardTestSuite) TestCheckPermission_AdminSeesNotFound() {
	err := s.guard.CheckPermission(ctxAs("root", domain.RoleAdmin), "WBI:missing", domain.PermissionRead)
	s.Require().Error(err)
	s.True(errors.Is(err, domain.ErrWorkbasketNotFound))
}

func TestAuthorizationGuardTestSuite(t *testing.T) {
	suite.Run(t, new(AuthorizationGuardTestSuite))
}
