package books

import (
	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/auth"
	"github.com/locallibrary/catalog/pkg/authors"
	"github.com/locallibrary/catalog/pkg/genres"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers the book pages on the catalog group.
// Changes need the librarian permission.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) {
	h := &handler{
		bookService:   NewService(db),
		authorService: authors.NewService(db),
		genreService:  genres.NewService(db),
	}

	staff := authMiddleware.RequirePermission(models.PermissionStaffMemberRequired)

	g.GET("/books/", h.list)
	g.GET("/book/:id", h.retrieve)
	g.GET("/book/create/", h.createForm, staff)
	g.POST("/book/create/", h.create, staff)
	g.GET("/book/:id/update/", h.updateForm, staff)
	g.POST("/book/:id/update/", h.update, staff)
	g.GET("/book/:id/delete/", h.deleteConfirm, staff)
	g.POST("/book/:id/delete/", h.deleteBook, staff)
}
