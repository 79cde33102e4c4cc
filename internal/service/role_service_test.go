package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chanhnguyen91/go-auth-boilerplate/internal/model"
	"github.com/chanhnguyen91/go-auth-boilerplate/pkg/apperr"
)

func newRoleService(t *testing.T) (RoleService, *fakeRoleRepo) {
	t.Helper()
	repo := newFakeRoleRepo()
	return NewRoleService(repo, nil), repo
}

func TestSeedDefaultsCreatesRolesPermissionsAndAdminGrants(t *testing.T) {
	svc, repo := newRoleService(t)
	ctx := context.Background()

	require.NoError(t, svc.SeedDefaults(ctx))

	for _, name := range []string{"admin", "user", RoleStreamer} {
		_, err := repo.FindByName(ctx, name)
		require.NoError(t, err, name)
	}

	perms, err := repo.ListPermissions(ctx)
	require.NoError(t, err)
	require.Len(t, perms, 3)

	admin, err := repo.FindByName(ctx, "admin")
	require.NoError(t, err)
	links, err := repo.LinksForRoles(ctx, []uint{admin.ID})
	require.NoError(t, err)
	require.Len(t, links, 3)
	for _, link := range links {
		require.True(t, link.CanRead)
		require.True(t, link.CanWrite)
		require.True(t, link.CanDelete)
	}

	// The streamer role starts with no grants at all.
	streamer, err := repo.FindByName(ctx, RoleStreamer)
	require.NoError(t, err)
	links, err = repo.LinksForRoles(ctx, []uint{streamer.ID})
	require.NoError(t, err)
	require.Empty(t, links)
}

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	svc, repo := newRoleService(t)
	ctx := context.Background()

	require.NoError(t, svc.SeedDefaults(ctx))
	require.NoError(t, svc.SeedDefaults(ctx))

	perms, err := repo.ListPermissions(ctx)
	require.NoError(t, err)
	require.Len(t, perms, 3)

	admin, _ := repo.FindByName(ctx, "admin")
	links, err := repo.LinksForRoles(ctx, []uint{admin.ID})
	require.NoError(t, err)
	require.Len(t, links, 3)
}

func TestCreateRoleValidation(t *testing.T) {
	svc, _ := newRoleService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateRoleRequest{Name: "   "})
	require.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.Create(ctx, CreateRoleRequest{Name: "editor"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateRoleRequest{Name: "editor"})
	require.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestSetPermissionUpsertsLink(t *testing.T) {
	svc, repo := newRoleService(t)
	ctx := context.Background()
	require.NoError(t, svc.SeedDefaults(ctx))

	role, err := svc.Create(ctx, CreateRoleRequest{Name: "support"})
	require.NoError(t, err)

	// First call creates the link.
	updated, err := svc.SetPermission(ctx, role.ID, SetRolePermissionRequest{
		Permission: model.PermissionUserManagement,
		CanRead:    true,
	})
	require.NoError(t, err)
	require.Len(t, updated.RolePermissions, 1)
	require.True(t, updated.RolePermissions[0].CanRead)
	require.False(t, updated.RolePermissions[0].CanWrite)

	// Second call updates the flags in place.
	updated, err = svc.SetPermission(ctx, role.ID, SetRolePermissionRequest{
		Permission: model.PermissionUserManagement,
		CanRead:    true,
		CanWrite:   true,
	})
	require.NoError(t, err)
	require.Len(t, updated.RolePermissions, 1)
	require.True(t, updated.RolePermissions[0].CanWrite)

	links, err := repo.LinksForRoles(ctx, []uint{role.ID})
	require.NoError(t, err)
	require.Len(t, links, 1)
}

func TestSetPermissionAllFalseRemovesLink(t *testing.T) {
	svc, repo := newRoleService(t)
	ctx := context.Background()
	require.NoError(t, svc.SeedDefaults(ctx))

	role, err := svc.Create(ctx, CreateRoleRequest{Name: "support"})
	require.NoError(t, err)

	_, err = svc.SetPermission(ctx, role.ID, SetRolePermissionRequest{
		Permission: model.PermissionUserManagement,
		CanRead:    true,
	})
	require.NoError(t, err)

	updated, err := svc.SetPermission(ctx, role.ID, SetRolePermissionRequest{
		Permission: model.PermissionUserManagement,
	})
	require.NoError(t, err)
	require.Empty(t, updated.RolePermissions)

	links, err := repo.LinksForRoles(ctx, []uint{role.ID})
	require.NoError(t, err)
	require.Empty(t, links)
}

func TestSetPermissionUnknownPermission(t *testing.T) {
	svc, _ := newRoleService(t)
	ctx := context.Background()
	require.NoError(t, svc.SeedDefaults(ctx))

	role, err := svc.Create(ctx, CreateRoleRequest{Name: "support"})
	require.NoError(t, err)

	_, err = svc.SetPermission(ctx, role.ID, SetRolePermissionRequest{
		Permission: "NOT_A_PERMISSION",
		CanRead:    true,
	})
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestGetRoleNotFound(t *testing.T) {
	svc, _ := newRoleService(t)

	_, err := svc.Get(context.Background(), 999)
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
