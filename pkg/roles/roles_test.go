package roles

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/locallibrary/catalog/internal/testgen"
	"github.com/locallibrary/catalog/internal/testhttp"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/testutils"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codenames(role *models.Role) []string {
	out := make([]string, len(role.Permissions))
	for i, p := range role.Permissions {
		out[i] = p.Codename
	}
	return out
}

func TestService_LibrarianRoleIsSeeded(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewService(testgen.NewDB(t))

	name := models.RoleLibrarian
	role, err := svc.RetrieveRole(ctx, RetrieveRoleOptions{Name: &name})
	require.NoError(t, err)
	assert.True(t, role.IsSystem)
	assert.Equal(t, []string{models.PermissionCanMarkReturned, models.PermissionStaffMemberRequired}, codenames(role))
}

func TestService_CreateUpdateDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewService(testgen.NewDB(t))

	role := &models.Role{Name: "desk"}
	require.NoError(t, svc.CreateRole(ctx, role, []string{models.PermissionCanMarkReturned, models.PermissionCanMarkReturned}))

	got, err := svc.RetrieveRole(ctx, RetrieveRoleOptions{ID: &role.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{models.PermissionCanMarkReturned}, codenames(got))

	err = svc.CreateRole(ctx, &models.Role{Name: "DESK"}, nil)
	var e *errcodes.Error
	require.True(t, errors.As(err, &e))
	assert.Contains(t, e.Fields, "name")

	err = svc.CreateRole(ctx, &models.Role{Name: "pilot"}, []string{"catalog.fly"})
	require.True(t, errors.As(err, &e))
	assert.Contains(t, e.Fields, "permissions")

	newName := "front desk"
	perms := []string{models.PermissionStaffMemberRequired}
	require.NoError(t, svc.UpdateRole(ctx, got, UpdateRoleOptions{Name: &newName, Codenames: &perms}))
	got, err = svc.RetrieveRole(ctx, RetrieveRoleOptions{ID: &role.ID})
	require.NoError(t, err)
	assert.Equal(t, "front desk", got.Name)
	assert.Equal(t, perms, codenames(got))

	count, err := svc.CountRoles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, svc.DeleteRole(ctx, role.ID))
	assert.ErrorIs(t, svc.DeleteRole(ctx, role.ID), errcodes.NotFound("Role"))
}

func TestService_SystemRolesAreProtected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewService(testgen.NewDB(t))

	name := models.RoleLibrarian
	role, err := svc.RetrieveRole(ctx, RetrieveRoleOptions{Name: &name})
	require.NoError(t, err)

	renamed := "librarians"
	assert.ErrorIs(t, svc.UpdateRole(ctx, role, UpdateRoleOptions{Name: &renamed}), errcodes.Forbidden("Renaming system roles"))
	assert.ErrorIs(t, svc.DeleteRole(ctx, role.ID), errcodes.Forbidden("Deleting system roles"))
}

func TestService_DeleteRole_Assigned(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testgen.NewDB(t)
	svc := NewService(db)

	role := &models.Role{Name: "volunteer"}
	require.NoError(t, svc.CreateRole(ctx, role, nil))
	testgen.CreateUser(t, db, "helper", testutils.UserOptions{Role: "volunteer"})

	err := svc.DeleteRole(ctx, role.ID)
	var e *errcodes.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, http.StatusConflict, e.HTTPCode)
}

func TestHandlers(t *testing.T) {
	t.Parallel()
	db := testgen.NewDB(t)
	srv := testhttp.New(t, db)
	RegisterRoutesWithGroup(srv.Echo.Group("/admin/auth", srv.Middleware.RequireStaff), db)
	staff := testgen.CreateUser(t, db, "admin", testutils.UserOptions{IsStaff: true})

	rec := srv.Do(testhttp.Request{
		Method: http.MethodPost,
		Path:   "/admin/auth/roles/",
		JSON:   `{"name":"renewals","permissions":["catalog.can_mark_returned"]}`,
		User:   staff,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Role
	testhttp.Decode(t, rec, &created)
	assert.Equal(t, "renewals", created.Name)
	require.Len(t, created.Permissions, 1)

	rec = srv.Do(testhttp.Request{
		Method: http.MethodPost,
		Path:   "/admin/auth/roles/",
		JSON:   `{"name":"broken","permissions":["catalog.fly"]}`,
		User:   staff,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.Get("/admin/auth/roles/", staff)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		RoleList []models.Role `json:"role_list"`
	}
	testhttp.Decode(t, rec, &list)
	require.Len(t, list.RoleList, 2)
	assert.Equal(t, models.RoleLibrarian, list.RoleList[0].Name)
	assert.Equal(t, "renewals", list.RoleList[1].Name)

	path := "/admin/auth/roles/" + strconv.Itoa(created.ID)
	rec = srv.Do(testhttp.Request{
		Method: http.MethodPost,
		Path:   path,
		JSON:   `{"permissions":[]}`,
		User:   staff,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.Role
	testhttp.Decode(t, rec, &updated)
	assert.Empty(t, updated.Permissions)

	assert.Equal(t, http.StatusNoContent, srv.Do(testhttp.Request{Method: http.MethodDelete, Path: path, User: staff}).Code)
	assert.Equal(t, http.StatusNotFound, srv.Get(path, staff).Code)
}
