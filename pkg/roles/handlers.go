package roles

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/pagination"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// PageSize is the number of roles per admin page.
const PageSize = 20

type handler struct {
	roleService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListRolesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	total, err := h.roleService.CountRoles(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	page, err := pagination.New(params.Page, PageSize, total)
	if err != nil {
		return err
	}

	limit, offset := page.Limit(), page.Offset()
	roles, err := h.roleService.ListRoles(ctx, ListRolesOptions{Limit: &limit, Offset: &offset})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, pagination.Response("role", roles, page)))
}

func (h *handler) retrieve(c echo.Context) error {
	role, err := h.lookup(c)
	if err != nil {
		return err
	}
	return errors.WithStack(c.JSON(http.StatusOK, role))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateRolePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	role := &models.Role{Name: params.Name}
	if err := h.roleService.CreateRole(ctx, role, params.Permissions); err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("role created", logger.Data{"role_id": role.ID, "name": role.Name})

	role, err := h.roleService.RetrieveRole(ctx, RetrieveRoleOptions{ID: &role.ID})
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.JSON(http.StatusCreated, role))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	role, err := h.lookup(c)
	if err != nil {
		return err
	}

	params := UpdateRolePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	err = h.roleService.UpdateRole(ctx, role, UpdateRoleOptions{
		Name:      params.Name,
		Codenames: params.Permissions,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	role, err = h.roleService.RetrieveRole(ctx, RetrieveRoleOptions{ID: &role.ID})
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.JSON(http.StatusOK, role))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	role, err := h.lookup(c)
	if err != nil {
		return err
	}

	if err := h.roleService.DeleteRole(ctx, role.ID); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *handler) lookup(c echo.Context) (*models.Role, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, errcodes.NotFound("Role")
	}

	role, err := h.roleService.RetrieveRole(c.Request().Context(), RetrieveRoleOptions{ID: &id})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return role, nil
}
