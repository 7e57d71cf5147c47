package dashboard

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/authors"
	"github.com/locallibrary/catalog/pkg/bookinstances"
	"github.com/locallibrary/catalog/pkg/books"
	"github.com/locallibrary/catalog/pkg/genres"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/sessions"
	"github.com/pkg/errors"
)

// VisitsKey is the session key of the visit counter.
const VisitsKey = "num_visits"

// Summary is the dashboard payload.
type Summary struct {
	NumBooks              int    `json:"num_books"`
	NumInstances          int    `json:"num_instances"`
	NumInstancesAvailable int    `json:"num_instances_available"`
	NumAuthors            int    `json:"num_authors"`
	NumGenres             int    `json:"num_genres"`
	NumBooksWithTitle     int    `json:"num_books_with_title_filter"`
	TitleFilter           string `json:"title_filter"`
	NumVisits             int    `json:"num_visits"`
}

type handler struct {
	bookService     *books.Service
	instanceService *bookinstances.Service
	authorService   *authors.Service
	genreService    *genres.Service
	titleFilter     string
}

func (h *handler) index(c echo.Context) error {
	ctx := c.Request().Context()

	summary := Summary{TitleFilter: h.titleFilter}
	var err error

	if summary.NumBooks, err = h.bookService.CountBooks(ctx, books.ListBooksOptions{}); err != nil {
		return errors.WithStack(err)
	}
	if summary.NumInstances, err = h.instanceService.CountBookInstances(ctx, bookinstances.ListBookInstancesOptions{}); err != nil {
		return errors.WithStack(err)
	}
	available := models.LoanStatusAvailable
	summary.NumInstancesAvailable, err = h.instanceService.CountBookInstances(ctx, bookinstances.ListBookInstancesOptions{
		Status: &available,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	if summary.NumAuthors, err = h.authorService.CountAuthors(ctx); err != nil {
		return errors.WithStack(err)
	}
	if summary.NumGenres, err = h.genreService.CountGenres(ctx); err != nil {
		return errors.WithStack(err)
	}
	if summary.NumBooksWithTitle, err = h.bookService.CountBooksWithTitle(ctx, h.titleFilter); err != nil {
		return errors.WithStack(err)
	}

	// The page shows the count from before this visit.
	if sess := sessions.FromContext(c); sess != nil {
		summary.NumVisits = sess.Int(VisitsKey, 0)
		sess.Set(VisitsKey, summary.NumVisits+1)
	}

	return errors.WithStack(c.JSON(http.StatusOK, summary))
}
