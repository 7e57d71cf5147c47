package bookinstances

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/locallibrary/catalog/internal/testgen"
	"github.com/locallibrary/catalog/internal/testhttp"
	"github.com/locallibrary/catalog/pkg/auth"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/pagination"
	"github.com/locallibrary/catalog/pkg/testutils"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type loanList struct {
	BookInstanceList []struct {
		ID         uuid.UUID    `json:"id"`
		Status     string       `json:"status"`
		DueBack    *models.Date `json:"due_back"`
		BorrowerID *int         `json:"borrower_id"`
		IsOverdue  bool         `json:"is_overdue"`
	} `json:"bookinstance_list"`
	IsPaginated bool            `json:"is_paginated"`
	PageObj     pagination.Page `json:"page_obj"`
}

func newServer(t *testing.T) (*testhttp.Server, *bun.DB) {
	t.Helper()
	db := testgen.NewDB(t)
	srv := testhttp.New(t, db)
	RegisterRoutesWithGroup(srv.Echo.Group("/catalog"), db, srv.Config, srv.Middleware)
	return srv, db
}

func dueIn(days int) *models.Date {
	d := models.Today().AddDays(days)
	return &d
}

func TestRenewalPolicy_Check(t *testing.T) {
	t.Parallel()

	policy := RenewalPolicy{ProposedDays: 21, MaxDays: 28}
	today := models.NewDate(time.Date(2024, time.February, 20, 15, 0, 0, 0, time.UTC))

	assert.Equal(t, "2024-03-12", policy.Proposed(today).String())

	tests := []struct {
		name    string
		dueBack models.Date
		message string
	}{
		{"yesterday", today.AddDays(-1), "Invalid date - renewal in past"},
		{"today", today, ""},
		{"proposed", policy.Proposed(today), ""},
		{"last allowed day", today.AddDays(28), ""},
		{"one day too far", today.AddDays(29), "Invalid date - renewal more than 4 weeks ahead"},
	}
	for _, tc := range tests {
		err := policy.Check(tc.dueBack, today)
		if tc.message == "" {
			assert.NoError(t, err, tc.name)
			continue
		}
		var e *errcodes.Error
		require.True(t, errors.As(err, &e), tc.name)
		assert.Equal(t, http.StatusBadRequest, e.HTTPCode, tc.name)
		assert.Equal(t, tc.message, e.Fields["due_back"], tc.name)
	}
}

func TestService_CreateBookInstance(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testgen.NewDB(t)
	svc := NewService(db)

	book := testgen.CreateBook(t, db, "Emma", nil)

	instance := &models.BookInstance{BookID: &book.ID, Imprint: "Penguin, 2003"}
	require.NoError(t, svc.CreateBookInstance(ctx, instance))
	assert.NotEqual(t, uuid.Nil, instance.ID)
	assert.Equal(t, models.LoanStatusMaintenance, instance.Status)

	got, err := svc.RetrieveBookInstance(ctx, RetrieveBookInstanceOptions{ID: &instance.ID})
	require.NoError(t, err)
	require.NotNil(t, got.Book)
	assert.Equal(t, "Emma", got.Book.Title)
	assert.Equal(t, instance.ID.String()+" (Emma)", got.String())

	missing := 777
	err = svc.CreateBookInstance(ctx, &models.BookInstance{BorrowerID: &missing, Imprint: "x"})
	var e *errcodes.Error
	require.True(t, errors.As(err, &e))
	assert.Contains(t, e.Fields, "borrower_id")

	err = svc.CreateBookInstance(ctx, &models.BookInstance{Status: "lost", Imprint: "x"})
	require.True(t, errors.As(err, &e))
	assert.Contains(t, e.Fields, "status")

	unknown := uuid.New()
	_, err = svc.RetrieveBookInstance(ctx, RetrieveBookInstanceOptions{ID: &unknown})
	assert.ErrorIs(t, err, errcodes.NotFound("Book instance"))
}

func TestService_ListBookInstances_Filters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testgen.NewDB(t)
	svc := NewService(db)

	book := testgen.CreateBook(t, db, "Persuasion", nil)
	reader := testgen.CreateUser(t, db, "reader", testutils.UserOptions{})

	late := testgen.CreateInstance(t, db, book, testgen.InstanceOptions{Status: models.LoanStatusOnLoan, DueBack: dueIn(-3), Borrower: reader})
	soon := testgen.CreateInstance(t, db, book, testgen.InstanceOptions{Status: models.LoanStatusOnLoan, DueBack: dueIn(2), Borrower: reader})
	testgen.CreateInstance(t, db, book, testgen.InstanceOptions{Status: models.LoanStatusReserved, DueBack: dueIn(1)})
	testgen.CreateInstance(t, db, book, testgen.InstanceOptions{})

	status := models.LoanStatusOnLoan
	instances, total, err := svc.ListBookInstancesWithTotal(ctx, ListBookInstancesOptions{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, instances, 2)
	assert.Equal(t, late.ID, instances[0].ID)
	assert.Equal(t, soon.ID, instances[1].ID)
	assert.True(t, instances[0].IsOverdue())
	assert.False(t, instances[1].IsOverdue())
	require.NotNil(t, instances[0].Borrower)
	assert.Equal(t, "reader", instances[0].Borrower.Username)

	from, to := models.Today(), models.Today().AddDays(1)
	count, err := svc.CountBookInstances(ctx, ListBookInstancesOptions{DueBackFrom: &from, DueBackTo: &to})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = svc.CountBookInstances(ctx, ListBookInstancesOptions{BookID: &book.ID})
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestService_RenewAndDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testgen.NewDB(t)
	svc := NewService(db)

	instance := testgen.CreateInstance(t, db, nil, testgen.InstanceOptions{Status: models.LoanStatusOnLoan, DueBack: dueIn(1)})

	newDue := models.Today().AddDays(14)
	require.NoError(t, svc.RenewBookInstance(ctx, instance.ID, newDue))

	got, err := svc.RetrieveBookInstance(ctx, RetrieveBookInstanceOptions{ID: &instance.ID})
	require.NoError(t, err)
	require.NotNil(t, got.DueBack)
	assert.Equal(t, newDue.String(), got.DueBack.String())

	require.NoError(t, svc.DeleteBookInstance(ctx, instance.ID))
	assert.ErrorIs(t, svc.DeleteBookInstance(ctx, instance.ID), errcodes.NotFound("Book instance"))
	assert.ErrorIs(t, svc.RenewBookInstance(ctx, instance.ID, newDue), errcodes.NotFound("Book instance"))
}

func TestHandlers_MyBooks(t *testing.T) {
	t.Parallel()
	srv, db := newServer(t)

	book := testgen.CreateBook(t, db, "Book Title", nil)
	first := testgen.CreateUser(t, db, "testuser1", testutils.UserOptions{})
	second := testgen.CreateUser(t, db, "testuser2", testutils.UserOptions{})

	rec := srv.Get("/catalog/mybooks/", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/accounts/login/?next=/catalog/mybooks/", rec.Header().Get("Location"))

	rec = srv.Get("/catalog/mybooks/", first)
	require.Equal(t, http.StatusOK, rec.Code)
	var body loanList
	testhttp.Decode(t, rec, &body)
	assert.Empty(t, body.BookInstanceList)
	assert.False(t, body.IsPaginated)

	for i := 0; i < 30; i++ {
		borrower := first
		if i%2 == 1 {
			borrower = second
		}
		status := models.LoanStatusMaintenance
		if i%3 == 0 {
			status = models.LoanStatusOnLoan
		}
		testgen.CreateInstance(t, db, book, testgen.InstanceOptions{
			Status:   status,
			DueBack:  dueIn(5 - i%7),
			Borrower: borrower,
		})
	}

	rec = srv.Get("/catalog/mybooks/", first)
	require.Equal(t, http.StatusOK, rec.Code)
	body = loanList{}
	testhttp.Decode(t, rec, &body)

	// i in {0, 6, 12, 18, 24} are first's on_loan copies.
	require.Len(t, body.BookInstanceList, 5)
	var previous *models.Date
	for _, bi := range body.BookInstanceList {
		assert.Equal(t, models.LoanStatusOnLoan, bi.Status)
		require.NotNil(t, bi.BorrowerID)
		assert.Equal(t, first.ID, *bi.BorrowerID)
		require.NotNil(t, bi.DueBack)
		if previous != nil {
			assert.False(t, bi.DueBack.Before(*previous))
		}
		previous = bi.DueBack
	}
}

func TestHandlers_MyBooks_Pagination(t *testing.T) {
	t.Parallel()
	srv, db := newServer(t)

	reader := testgen.CreateUser(t, db, "reader", testutils.UserOptions{})
	for i := 0; i < MyLoansPageSize+2; i++ {
		testgen.CreateInstance(t, db, nil, testgen.InstanceOptions{
			Status:   models.LoanStatusOnLoan,
			DueBack:  dueIn(i),
			Borrower: reader,
		})
	}

	rec := srv.Get("/catalog/mybooks/?page=2", reader)
	require.Equal(t, http.StatusOK, rec.Code)
	var body loanList
	testhttp.Decode(t, rec, &body)
	assert.True(t, body.IsPaginated)
	assert.Len(t, body.BookInstanceList, 2)
	assert.Equal(t, MyLoansPageSize+2, body.PageObj.Count)
}

func TestHandlers_Borrowed(t *testing.T) {
	t.Parallel()
	srv, db := newServer(t)

	author := testgen.CreateAuthor(t, db, "John", "Smith")
	genre := testgen.CreateGenre(t, db, "Fantasy")
	book := testgen.CreateBook(t, db, "Book Title", author, genre)
	borrower := testgen.CreateUser(t, db, "testuser1", testutils.UserOptions{})
	staff := testgen.CreateUser(t, db, "testuser2", testutils.UserOptions{
		Permissions: []string{models.PermissionStaffMemberRequired},
	})

	later := testgen.CreateInstance(t, db, book, testgen.InstanceOptions{Status: models.LoanStatusOnLoan, DueBack: dueIn(9), Borrower: borrower})
	for i := 0; i < 30; i++ {
		testgen.CreateInstance(t, db, book, testgen.InstanceOptions{DueBack: dueIn(i % 5), Borrower: borrower})
	}
	earlier := testgen.CreateInstance(t, db, book, testgen.InstanceOptions{Status: models.LoanStatusOnLoan, DueBack: dueIn(-1), Borrower: borrower})

	rec := srv.Get("/catalog/borrowed/", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, http.StatusForbidden, srv.Get("/catalog/borrowed/", borrower).Code)

	rec = srv.Get("/catalog/borrowed/", staff)
	require.Equal(t, http.StatusOK, rec.Code)
	var body loanList
	testhttp.Decode(t, rec, &body)
	require.Len(t, body.BookInstanceList, 2)
	assert.Equal(t, earlier.ID, body.BookInstanceList[0].ID)
	assert.True(t, body.BookInstanceList[0].IsOverdue)
	assert.Equal(t, later.ID, body.BookInstanceList[1].ID)
	assert.False(t, body.BookInstanceList[1].IsOverdue)
}

func TestHandlers_Renew_Access(t *testing.T) {
	t.Parallel()
	srv, db := newServer(t)

	instance := testgen.CreateInstance(t, db, nil, testgen.InstanceOptions{Status: models.LoanStatusOnLoan, DueBack: dueIn(3)})
	reader := testgen.CreateUser(t, db, "reader", testutils.UserOptions{})
	path := "/catalog/book/" + instance.ID.String() + "/renew/"

	rec := srv.Get(path, nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, auth.LoginRedirectURL(path), rec.Header().Get("Location"))

	rec = srv.Get(path, reader)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, HomeURL, rec.Header().Get("Location"))

	rec = srv.PostForm(path, url.Values{"due_back": {models.Today().AddDays(7).String()}}, reader)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, HomeURL, rec.Header().Get("Location"))
}

func TestHandlers_RenewForm(t *testing.T) {
	t.Parallel()
	srv, db := newServer(t)

	instance := testgen.CreateInstance(t, db, nil, testgen.InstanceOptions{Status: models.LoanStatusOnLoan, DueBack: dueIn(3)})
	librarian := testgen.CreateUser(t, db, "librarian", testutils.UserOptions{Role: models.RoleLibrarian})

	rec := srv.Get("/catalog/book/"+instance.ID.String()+"/renew/", librarian)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Form struct {
			Fields  []string       `json:"fields"`
			Initial RenewalPayload `json:"initial"`
		} `json:"form"`
		BookInstance struct {
			ID uuid.UUID `json:"id"`
		} `json:"book_instance"`
	}
	testhttp.Decode(t, rec, &body)
	assert.Equal(t, []string{"due_back"}, body.Form.Fields)
	assert.Equal(t, models.Today().AddDays(21).String(), body.Form.Initial.DueBack)
	assert.Equal(t, instance.ID, body.BookInstance.ID)

	assert.Equal(t, http.StatusNotFound, srv.Get("/catalog/book/"+uuid.NewString()+"/renew/", librarian).Code)
	assert.Equal(t, http.StatusNotFound, srv.Get("/catalog/book/not-a-uuid/renew/", librarian).Code)
}

func TestHandlers_Renew(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	srv, db := newServer(t)

	instance := testgen.CreateInstance(t, db, nil, testgen.InstanceOptions{Status: models.LoanStatusOnLoan, DueBack: dueIn(3)})
	librarian := testgen.CreateUser(t, db, "librarian", testutils.UserOptions{
		Permissions: []string{models.PermissionCanMarkReturned},
	})
	path := "/catalog/book/" + instance.ID.String() + "/renew/"

	tests := []struct {
		name    string
		dueBack string
		message string
	}{
		{"past", models.Today().AddDays(-7).String(), "Invalid date - renewal in past"},
		{"too far ahead", models.Today().AddDays(5 * 7).String(), "Invalid date - renewal more than 4 weeks ahead"},
		{"not a date", "next week", "Enter a valid date."},
		{"missing", "", "This field is required."},
	}
	for _, tc := range tests {
		rec := srv.PostForm(path, url.Values{"due_back": {tc.dueBack}}, librarian)
		require.Equal(t, http.StatusBadRequest, rec.Code, tc.name)
		assert.Equal(t, tc.message, testhttp.DecodeError(t, rec).Error.Fields["due_back"], tc.name)
	}

	newDue := models.Today().AddDays(14)
	rec := srv.PostForm(path, url.Values{"due_back": {newDue.String()}}, librarian)
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, RenewedURL, rec.Header().Get("Location"))

	got, err := NewService(db).RetrieveBookInstance(ctx, RetrieveBookInstanceOptions{ID: &instance.ID})
	require.NoError(t, err)
	require.NotNil(t, got.DueBack)
	assert.Equal(t, newDue.String(), got.DueBack.String())

	rec = srv.PostForm("/catalog/book/"+uuid.NewString()+"/renew/", url.Values{"due_back": {newDue.String()}}, librarian)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
