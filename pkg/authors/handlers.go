package authors

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/pagination"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

const (
	// PageSize is the number of authors per list page.
	PageSize = 5
	// ListURL is where author forms land after a successful submit.
	ListURL = "/catalog/authors/"
)

type handler struct {
	authorService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListAuthorsQuery{}
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
	authors, err := h.authorService.ListAuthors(ctx, ListAuthorsOptions{
		Limit:  &limit,
		Offset: &offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, pagination.Response("author", authors, page)))
}

func (h *handler) retrieve(c echo.Context) error {
	author, err := h.lookup(c, true)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{
		"author": author,
		"name":   author.String(),
		"url":    author.URL(),
	}))
}

func (h *handler) createForm(c echo.Context) error {
	return errors.WithStack(c.JSON(http.StatusOK, formResponse(AuthorPayload{})))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := AuthorPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	author := &models.Author{}
	if err := params.Apply(author); err != nil {
		return errors.WithStack(err)
	}
	if err := h.authorService.CreateAuthor(ctx, author); err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("author created", logger.Data{"author_id": author.ID})

	return errors.WithStack(c.Redirect(http.StatusFound, ListURL))
}

func (h *handler) updateForm(c echo.Context) error {
	author, err := h.lookup(c, false)
	if err != nil {
		return err
	}

	resp := formResponse(InitialFrom(author))
	resp["author"] = author
	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	author, err := h.lookup(c, false)
	if err != nil {
		return err
	}

	params := AuthorPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	if err := params.Apply(author); err != nil {
		return errors.WithStack(err)
	}
	err = h.authorService.UpdateAuthor(ctx, author, UpdateAuthorOptions{
		Columns: []string{"first_name", "last_name", "date_of_birth", "date_of_death"},
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.Redirect(http.StatusFound, ListURL))
}

func (h *handler) deleteConfirm(c echo.Context) error {
	author, err := h.lookup(c, true)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{
		"author": author,
	}))
}

func (h *handler) deleteAuthor(c echo.Context) error {
	ctx := c.Request().Context()

	author, err := h.lookup(c, false)
	if err != nil {
		return err
	}

	if err := h.authorService.DeleteAuthor(ctx, author.ID); err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("author deleted", logger.Data{"author_id": author.ID})

	return errors.WithStack(c.Redirect(http.StatusFound, ListURL))
}

func (h *handler) lookup(c echo.Context, includeBooks bool) (*models.Author, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, errcodes.NotFound("Author")
	}

	author, err := h.authorService.RetrieveAuthor(c.Request().Context(), RetrieveAuthorOptions{
		ID:           &id,
		IncludeBooks: includeBooks,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return author, nil
}

func formResponse(initial AuthorPayload) map[string]interface{} {
	return map[string]interface{}{
		"form": map[string]interface{}{
			"fields":  FormFields,
			"initial": initial,
		},
	}
}
