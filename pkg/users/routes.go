package users

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers user management on the admin group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) *Service {
	userService := NewService(db)

	h := &handler{
		userService: userService,
	}

	g.GET("/users/", h.list)
	g.POST("/users/", h.create)
	g.GET("/users/:id", h.retrieve)
	g.POST("/users/:id", h.update)
	g.POST("/users/:id/permissions/", h.grant)
	g.DELETE("/users/:id/permissions/", h.revoke)
	g.POST("/users/:id/reset-password/", h.resetPassword)

	return userService
}
