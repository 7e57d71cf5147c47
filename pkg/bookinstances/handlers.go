package bookinstances

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/auth"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/pagination"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

const (
	// MyLoansPageSize is the page size of a borrower's own loans.
	MyLoansPageSize = 10
	// AllLoansPageSize is the page size of the librarian loan list.
	AllLoansPageSize = 5
	// RenewedURL is where a successful renewal lands.
	RenewedURL = "/catalog/borrowed/"
)

type handler struct {
	instanceService *Service
	policy          RenewalPolicy
	today           func() models.Date
}

func (h *handler) myBooks(c echo.Context) error {
	user := auth.CurrentUser(c)
	return h.listLoans(c, &user.ID, MyLoansPageSize, "bookinstance")
}

func (h *handler) borrowed(c echo.Context) error {
	return h.listLoans(c, nil, AllLoansPageSize, "bookinstance")
}

func (h *handler) listLoans(c echo.Context, borrowerID *int, perPage int, name string) error {
	ctx := c.Request().Context()

	params := ListLoansQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	status := models.LoanStatusOnLoan
	opts := ListBookInstancesOptions{
		Status:     &status,
		BorrowerID: borrowerID,
	}

	count, err := h.instanceService.CountBookInstances(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}
	page, err := pagination.New(params.Page, perPage, count)
	if err != nil {
		return err
	}

	limit, offset := page.Limit(), page.Offset()
	opts.Limit = &limit
	opts.Offset = &offset
	instances, err := h.instanceService.ListBookInstances(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, pagination.Response(name, NewResponses(instances), page)))
}

func (h *handler) renewForm(c echo.Context) error {
	instance, err := h.lookup(c)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{
		"form": map[string]interface{}{
			"fields": []string{"due_back"},
			"initial": RenewalPayload{
				DueBack: h.policy.Proposed(h.today()).String(),
			},
		},
		"book_instance": NewResponse(instance),
	}))
}

func (h *handler) renew(c echo.Context) error {
	ctx := c.Request().Context()

	instance, err := h.lookup(c)
	if err != nil {
		return err
	}

	params := RenewalPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	dueBack, err := models.ParseDate(params.DueBack)
	if err != nil {
		return errcodes.FieldError("due_back", "Enter a valid date.")
	}
	if err := h.policy.Check(dueBack, h.today()); err != nil {
		return err
	}

	if err := h.instanceService.RenewBookInstance(ctx, instance.ID, dueBack); err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("loan renewed", logger.Data{
		"book_instance_id": instance.ID.String(),
		"due_back":         dueBack.String(),
	})

	return errors.WithStack(c.Redirect(http.StatusFound, RenewedURL))
}

func (h *handler) lookup(c echo.Context) (*models.BookInstance, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, errcodes.NotFound("Book instance")
	}

	instance, err := h.instanceService.RetrieveBookInstance(c.Request().Context(), RetrieveBookInstanceOptions{ID: &id})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return instance, nil
}
