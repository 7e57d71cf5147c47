package users

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/auth"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/pagination"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// PageSize is the number of users per admin page.
const PageSize = 20

type handler struct {
	userService *Service
}

type userResponse struct {
	*models.User
	AllPermissions []string `json:"all_permissions"`
}

func newUserResponse(user *models.User) userResponse {
	return userResponse{User: user, AllPermissions: user.AllPermissions()}
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateUserPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.userService.Create(ctx, CreateUserOptions{
		Username:    params.Username,
		Email:       params.Email,
		Password:    params.Password,
		FirstName:   params.FirstName,
		LastName:    params.LastName,
		IsStaff:     params.IsStaff,
		IsSuperuser: params.IsSuperuser,
		RoleName:    params.Role,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("user created", logger.Data{"user_id": user.ID, "username": user.Username})

	return errors.WithStack(c.JSON(http.StatusCreated, newUserResponse(user)))
}

func (h *handler) retrieve(c echo.Context) error {
	user, err := h.lookup(c)
	if err != nil {
		return err
	}
	return errors.WithStack(c.JSON(http.StatusOK, newUserResponse(user)))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListUsersQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	total, err := h.userService.CountUsers(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	page, err := pagination.New(params.Page, PageSize, total)
	if err != nil {
		return err
	}

	limit, offset := page.Limit(), page.Offset()
	users, err := h.userService.List(ctx, ListOptions{Limit: &limit, Offset: &offset})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, pagination.Response("user", users, page)))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.lookup(c)
	if err != nil {
		return err
	}

	params := UpdateUserPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	if params.IsActive != nil && !*params.IsActive {
		if current := auth.CurrentUser(c); current != nil && current.ID == user.ID {
			return errcodes.FieldError("is_active", "You cannot deactivate your own account.")
		}
	}

	opts := UpdateOptions{Columns: []string{}}
	if params.Email != nil {
		user.Email = params.Email
		opts.Columns = append(opts.Columns, "email")
	}
	if params.FirstName != nil {
		user.FirstName = *params.FirstName
		opts.Columns = append(opts.Columns, "first_name")
	}
	if params.LastName != nil {
		user.LastName = *params.LastName
		opts.Columns = append(opts.Columns, "last_name")
	}
	if params.IsStaff != nil {
		user.IsStaff = *params.IsStaff
		opts.Columns = append(opts.Columns, "is_staff")
	}
	if params.IsActive != nil {
		user.IsActive = *params.IsActive
		opts.Columns = append(opts.Columns, "is_active")
	}

	if err := h.userService.Update(ctx, user, opts); err != nil {
		return errors.WithStack(err)
	}

	if params.Role != nil {
		var roleName *string
		if *params.Role != "" {
			roleName = params.Role
		}
		if err := h.userService.AssignRole(ctx, user.ID, roleName); err != nil {
			return errors.WithStack(err)
		}
	}

	return h.respondWithUser(c, user.ID)
}

func (h *handler) grant(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.lookup(c)
	if err != nil {
		return err
	}

	params := PermissionPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	if err := h.userService.GrantPermission(ctx, user.ID, params.Codename); err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("permission granted", logger.Data{"user_id": user.ID, "codename": params.Codename})

	return h.respondWithUser(c, user.ID)
}

func (h *handler) revoke(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.lookup(c)
	if err != nil {
		return err
	}

	params := PermissionPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	if err := h.userService.RevokePermission(ctx, user.ID, params.Codename); err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("permission revoked", logger.Data{"user_id": user.ID, "codename": params.Codename})

	return h.respondWithUser(c, user.ID)
}

func (h *handler) resetPassword(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.lookup(c)
	if err != nil {
		return err
	}

	params := ResetPasswordPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	if err := h.userService.ResetPassword(ctx, user.ID, params.NewPassword); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *handler) respondWithUser(c echo.Context, id int) error {
	user, err := h.userService.Retrieve(c.Request().Context(), RetrieveUserOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.JSON(http.StatusOK, newUserResponse(user)))
}

func (h *handler) lookup(c echo.Context) (*models.User, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, errcodes.NotFound("User")
	}

	user, err := h.userService.Retrieve(c.Request().Context(), RetrieveUserOptions{ID: &id})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return user, nil
}
