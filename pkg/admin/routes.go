package admin

import (
	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/auth"
	"github.com/locallibrary/catalog/pkg/authors"
	"github.com/locallibrary/catalog/pkg/bookinstances"
	"github.com/locallibrary/catalog/pkg/books"
	"github.com/locallibrary/catalog/pkg/genres"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/roles"
	"github.com/locallibrary/catalog/pkg/users"
	"github.com/uptrace/bun"
)

// RegisterRoutes mounts the staff-only admin site under /admin.
func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) {
	h := &handler{
		genreService:    genres.NewService(db),
		authorService:   authors.NewService(db),
		bookService:     books.NewService(db),
		instanceService: bookinstances.NewService(db),
		today:           models.Today,
	}

	g := e.Group("/admin")
	g.Use(authMiddleware.RequireStaff)

	catalog := g.Group("/catalog")
	catalog.GET("/genres/", h.listGenres)
	catalog.POST("/genres/", h.createGenre)
	catalog.DELETE("/genres/:id", h.deleteGenre)

	catalog.GET("/authors/", h.listAuthors)

	catalog.GET("/books/", h.listBooks)
	catalog.GET("/books/:id", h.retrieveBook)

	catalog.GET("/bookinstances/", h.listBookInstances)
	catalog.POST("/bookinstances/", h.createBookInstance)
	catalog.GET("/bookinstances/:id", h.retrieveBookInstance)
	catalog.POST("/bookinstances/:id", h.updateBookInstance)
	catalog.DELETE("/bookinstances/:id", h.deleteBookInstance)

	authGroup := g.Group("/auth")
	users.RegisterRoutesWithGroup(authGroup, db)
	roles.RegisterRoutesWithGroup(authGroup, db)
}
