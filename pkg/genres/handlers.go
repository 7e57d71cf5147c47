package genres

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/pagination"
	"github.com/pkg/errors"
)

// PageSize is the number of genres per list page.
const PageSize = 10

type handler struct {
	genreService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListGenresQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	count, err := h.genreService.CountGenres(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	page, err := pagination.New(params.Page, PageSize, count)
	if err != nil {
		return err
	}

	limit, offset := page.Limit(), page.Offset()
	genres, err := h.genreService.ListGenres(ctx, ListGenresOptions{
		Limit:  &limit,
		Offset: &offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, pagination.Response("genre", genres, page)))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Genre")
	}

	genre, err := h.genreService.RetrieveGenre(ctx, RetrieveGenreOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	books, err := h.genreService.ListBooks(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}
	genre.BookCount = len(books)

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{
		"genre": genre,
		"books": books,
	}))
}
