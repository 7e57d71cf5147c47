package books

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/authors"
	"github.com/locallibrary/catalog/pkg/bookinstances"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/genres"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/pagination"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

const (
	// PageSize is the number of books per list page.
	PageSize = 5
	// ListURL is where book forms land after a successful submit.
	ListURL = "/catalog/books/"
)

type handler struct {
	bookService   *Service
	authorService *authors.Service
	genreService  *genres.Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	count, err := h.bookService.CountBooks(ctx, ListBooksOptions{})
	if err != nil {
		return errors.WithStack(err)
	}
	page, err := pagination.New(params.Page, PageSize, count)
	if err != nil {
		return err
	}

	limit, offset := page.Limit(), page.Offset()
	books, err := h.bookService.ListBooks(ctx, ListBooksOptions{
		Limit:  &limit,
		Offset: &offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, pagination.Response("book", NewResponses(books), page)))
}

func (h *handler) retrieve(c echo.Context) error {
	book, err := h.lookup(c, true)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{
		"book":      NewResponse(book),
		"instances": bookinstances.NewResponses(book.Instances),
	}))
}

func (h *handler) createForm(c echo.Context) error {
	resp, err := h.formResponse(c, BookPayload{})
	if err != nil {
		return err
	}
	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := BookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book := &models.Book{}
	params.Apply(book)
	if err := h.bookService.CreateBook(ctx, book, params.GenreIDs); err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("book created", logger.Data{"book_id": book.ID})

	return errors.WithStack(c.Redirect(http.StatusFound, ListURL))
}

func (h *handler) updateForm(c echo.Context) error {
	book, err := h.lookup(c, false)
	if err != nil {
		return err
	}

	resp, err := h.formResponse(c, InitialFrom(book))
	if err != nil {
		return err
	}
	resp["book"] = NewResponse(book)
	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	book, err := h.lookup(c, false)
	if err != nil {
		return err
	}

	params := BookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	params.Apply(book)
	err = h.bookService.UpdateBook(ctx, book, UpdateBookOptions{
		Columns:  []string{"title", "author_id", "summary", "isbn"},
		GenreIDs: &params.GenreIDs,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.Redirect(http.StatusFound, ListURL))
}

func (h *handler) deleteConfirm(c echo.Context) error {
	book, err := h.lookup(c, true)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{
		"book":      NewResponse(book),
		"instances": bookinstances.NewResponses(book.Instances),
	}))
}

func (h *handler) deleteBook(c echo.Context) error {
	ctx := c.Request().Context()

	book, err := h.lookup(c, false)
	if err != nil {
		return err
	}

	if err := h.bookService.DeleteBook(ctx, book.ID); err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("book deleted", logger.Data{"book_id": book.ID})

	return errors.WithStack(c.Redirect(http.StatusFound, ListURL))
}

func (h *handler) lookup(c echo.Context, includeInstances bool) (*models.Book, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(c.Request().Context(), RetrieveBookOptions{
		ID:               &id,
		IncludeInstances: includeInstances,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return book, nil
}

type choice struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// formResponse describes the book form along with the authors and genres
// that can be picked.
func (h *handler) formResponse(c echo.Context, initial BookPayload) (map[string]interface{}, error) {
	ctx := c.Request().Context()

	authorList, err := h.authorService.ListAuthors(ctx, authors.ListAuthorsOptions{})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	genreList, err := h.genreService.ListGenres(ctx, genres.ListGenresOptions{})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	authorChoices := make([]choice, len(authorList))
	for i, a := range authorList {
		authorChoices[i] = choice{ID: a.ID, Label: a.String()}
	}
	genreChoices := make([]choice, len(genreList))
	for i, g := range genreList {
		genreChoices[i] = choice{ID: g.ID, Label: g.String()}
	}

	return map[string]interface{}{
		"form": map[string]interface{}{
			"fields":  FormFields,
			"initial": initial,
			"choices": map[string]interface{}{
				"author_id": authorChoices,
				"genre_ids": genreChoices,
			},
		},
	}, nil
}
