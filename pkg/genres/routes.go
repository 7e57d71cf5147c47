package genres

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers the public genre pages on the catalog
// group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	h := &handler{
		genreService: NewService(db),
	}

	g.GET("/genres/", h.list)
	g.GET("/genre/:id", h.retrieve)
}
