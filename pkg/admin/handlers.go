package admin

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/authors"
	"github.com/locallibrary/catalog/pkg/bookinstances"
	"github.com/locallibrary/catalog/pkg/books"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/genres"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/pagination"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// PageSize is the number of rows per admin list page.
const PageSize = 100

type handler struct {
	genreService    *genres.Service
	authorService   *authors.Service
	bookService     *books.Service
	instanceService *bookinstances.Service
	today           func() models.Date
}

func (h *handler) listGenres(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListQuery{}
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
	list, err := h.genreService.ListGenres(ctx, genres.ListGenresOptions{Limit: &limit, Offset: &offset})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, pagination.Response("genre", list, page)))
}

func (h *handler) createGenre(c echo.Context) error {
	ctx := c.Request().Context()

	params := genres.GenrePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	genre := &models.Genre{Name: params.Name}
	if err := h.genreService.CreateGenre(ctx, genre); err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("genre created", logger.Data{"genre_id": genre.ID, "name": genre.Name})

	return errors.WithStack(c.JSON(http.StatusCreated, genre))
}

func (h *handler) deleteGenre(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Genre")
	}
	if err := h.genreService.DeleteGenre(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *handler) listAuthors(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	count, err := h.authorService.CountAuthors(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	page, err := pagination.New(params.Page, PageSize, count)
	if err != nil {
		return err
	}

	limit, offset := page.Limit(), page.Offset()
	list, err := h.authorService.ListAuthors(ctx, authors.ListAuthorsOptions{
		Limit:        &limit,
		Offset:       &offset,
		IncludeBooks: true,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	rows := make([]authorRow, len(list))
	for i, a := range list {
		rows[i] = newAuthorRow(a)
	}

	return errors.WithStack(c.JSON(http.StatusOK, pagination.Response("author", rows, page)))
}

func (h *handler) listBooks(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := books.ListBooksOptions{
		AuthorID: params.AuthorID,
		GenreID:  params.GenreID,
	}
	count, err := h.bookService.CountBooks(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}
	page, err := pagination.New(params.Page, PageSize, count)
	if err != nil {
		return err
	}

	limit, offset := page.Limit(), page.Offset()
	opts.Limit = &limit
	opts.Offset = &offset
	list, err := h.bookService.ListBooks(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	rows := make([]bookRow, len(list))
	for i, b := range list {
		rows[i] = newBookRow(b)
	}

	return errors.WithStack(c.JSON(http.StatusOK, pagination.Response("book", rows, page)))
}

func (h *handler) retrieveBook(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, books.RetrieveBookOptions{ID: &id, IncludeInstances: true})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, bookDetail{
		Response:  books.NewResponse(book),
		Instances: bookinstances.NewResponses(book.Instances),
	}))
}

func (h *handler) listBookInstances(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBookInstancesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := bookinstances.ListBookInstancesOptions{}
	if params.Status != "" {
		opts.Status = &params.Status
	}
	from, to, err := DueBackRange(params.DueBack, h.today())
	if err != nil {
		return err
	}
	opts.DueBackFrom = from
	opts.DueBackTo = to

	count, err := h.instanceService.CountBookInstances(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}
	page, err := pagination.New(params.Page, PageSize, count)
	if err != nil {
		return err
	}

	limit, offset := page.Limit(), page.Offset()
	opts.Limit = &limit
	opts.Offset = &offset
	list, err := h.instanceService.ListBookInstances(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	rows := make([]instanceRow, len(list))
	for i, bi := range list {
		rows[i] = newInstanceRow(bi)
	}

	return errors.WithStack(c.JSON(http.StatusOK, pagination.Response("bookinstance", rows, page)))
}

func (h *handler) retrieveBookInstance(c echo.Context) error {
	instance, err := h.lookupInstance(c)
	if err != nil {
		return err
	}
	return errors.WithStack(c.JSON(http.StatusOK, newInstanceRow(instance)))
}

func (h *handler) createBookInstance(c echo.Context) error {
	ctx := c.Request().Context()

	params := BookInstancePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	instance := &models.BookInstance{}
	if err := params.Apply(instance); err != nil {
		return errcodes.FieldError("due_back", "Enter a valid date.")
	}
	if err := h.instanceService.CreateBookInstance(ctx, instance); err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("book instance created", logger.Data{"book_instance_id": instance.ID.String()})

	return h.respondWithInstance(c, http.StatusCreated, instance.ID)
}

func (h *handler) updateBookInstance(c echo.Context) error {
	ctx := c.Request().Context()

	instance, err := h.lookupInstance(c)
	if err != nil {
		return err
	}

	params := BookInstancePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	previousStatus := instance.Status
	if err := params.Apply(instance); err != nil {
		return errcodes.FieldError("due_back", "Enter a valid date.")
	}
	err = h.instanceService.UpdateBookInstance(ctx, instance, bookinstances.UpdateBookInstanceOptions{
		Columns: []string{"book_id", "imprint", "due_back", "status", "borrower_id"},
	})
	if err != nil {
		return errors.WithStack(err)
	}

	if previousStatus != instance.Status {
		logger.FromContext(ctx).Info("book instance status changed", logger.Data{
			"book_instance_id": instance.ID.String(),
			"from":             previousStatus,
			"to":               instance.Status,
		})
	}

	return h.respondWithInstance(c, http.StatusOK, instance.ID)
}

func (h *handler) deleteBookInstance(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book instance")
	}
	if err := h.instanceService.DeleteBookInstance(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *handler) respondWithInstance(c echo.Context, status int, id uuid.UUID) error {
	instance, err := h.instanceService.RetrieveBookInstance(c.Request().Context(), bookinstances.RetrieveBookInstanceOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.JSON(status, newInstanceRow(instance)))
}

func (h *handler) lookupInstance(c echo.Context) (*models.BookInstance, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, errcodes.NotFound("Book instance")
	}

	instance, err := h.instanceService.RetrieveBookInstance(c.Request().Context(), bookinstances.RetrieveBookInstanceOptions{ID: &id})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return instance, nil
}
