package authors

import (
	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/auth"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers the author pages on the catalog group.
// Changes need the librarian permission.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) {
	h := &handler{
		authorService: NewService(db),
	}

	staff := authMiddleware.RequirePermission(models.PermissionStaffMemberRequired)

	g.GET("/authors/", h.list)
	g.GET("/author/:id", h.retrieve)
	g.GET("/author/create/", h.createForm, staff)
	g.POST("/author/create/", h.create, staff)
	g.GET("/author/:id/update/", h.updateForm, staff)
	g.POST("/author/:id/update/", h.update, staff)
	g.GET("/author/:id/delete/", h.deleteConfirm, staff)
	g.POST("/author/:id/delete/", h.deleteAuthor, staff)
}
