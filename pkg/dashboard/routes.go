package dashboard

import (
	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/authors"
	"github.com/locallibrary/catalog/pkg/bookinstances"
	"github.com/locallibrary/catalog/pkg/books"
	"github.com/locallibrary/catalog/pkg/config"
	"github.com/locallibrary/catalog/pkg/genres"
	"github.com/uptrace/bun"
)

func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, cfg *config.Config) {
	h := &handler{
		bookService:     books.NewService(db),
		instanceService: bookinstances.NewService(db),
		authorService:   authors.NewService(db),
		genreService:    genres.NewService(db),
		titleFilter:     cfg.DashboardTitleFilter,
	}

	g.GET("/", h.index)
}
