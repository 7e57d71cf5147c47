package testutils

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type handler struct {
	db *bun.DB
}

type createUserRequest struct {
	Username    string   `json:"username" validate:"required"`
	Password    string   `json:"password" validate:"required"`
	IsStaff     bool     `json:"is_staff"`
	IsSuperuser bool     `json:"is_superuser"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions" validate:"dive,permission"`
}

type createUserResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// createUser creates a user for end-to-end tests.
// POST /test/users.
func (h *handler) createUser(c echo.Context) error {
	ctx := c.Request().Context()

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return errors.WithStack(err)
	}

	user, err := InsertUser(ctx, h.db, req.Username, req.Password, UserOptions{
		IsStaff:     req.IsStaff,
		IsSuperuser: req.IsSuperuser,
		Role:        req.Role,
		Permissions: req.Permissions,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create user")
	}

	return errors.WithStack(c.JSON(http.StatusCreated, createUserResponse{
		ID:       user.ID,
		Username: user.Username,
	}))
}

// deleteAllUsers removes every user.
// DELETE /test/users.
func (h *handler) deleteAllUsers(c echo.Context) error {
	ctx := c.Request().Context()

	_, err := h.db.NewDelete().Model((*models.User)(nil)).Where("1 = 1").Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to delete users")
	}

	return c.NoContent(http.StatusNoContent)
}

// deleteCatalog removes every genre, author, book and copy.
// DELETE /test/catalog.
func (h *handler) deleteCatalog(c echo.Context) error {
	ctx := c.Request().Context()

	err := h.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, model := range []interface{}{
			(*models.BookInstance)(nil),
			(*models.BookGenre)(nil),
			(*models.Book)(nil),
			(*models.Author)(nil),
			(*models.Genre)(nil),
		} {
			if _, err := tx.NewDelete().Model(model).Where("1 = 1").Exec(ctx); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to delete catalog")
	}

	return c.NoContent(http.StatusNoContent)
}
