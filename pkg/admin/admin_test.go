package admin

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/locallibrary/catalog/internal/testgen"
	"github.com/locallibrary/catalog/internal/testhttp"
	"github.com/locallibrary/catalog/pkg/auth"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type instanceBody struct {
	ID          uuid.UUID    `json:"id"`
	BookID      *int         `json:"book_id"`
	Imprint     string       `json:"imprint"`
	DueBack     *models.Date `json:"due_back"`
	Status      string       `json:"status"`
	StatusLabel string       `json:"status_label"`
	BorrowerID  *int         `json:"borrower_id"`
	BookTitle   string       `json:"book_title"`
}

func newServer(t *testing.T) (*testhttp.Server, *bun.DB, *models.User) {
	t.Helper()
	db := testgen.NewDB(t)
	srv := testhttp.New(t, db)
	RegisterRoutes(srv.Echo, db, srv.Middleware)
	staff := testgen.CreateUser(t, db, "admin", testutils.UserOptions{IsStaff: true})
	return srv, db, staff
}

func TestAccess(t *testing.T) {
	t.Parallel()
	srv, db, staff := newServer(t)

	reader := testgen.CreateUser(t, db, "reader", testutils.UserOptions{
		Permissions: []string{models.PermissionStaffMemberRequired},
	})
	superuser := testgen.CreateUser(t, db, "root", testutils.UserOptions{IsSuperuser: true})

	path := "/admin/catalog/genres/"

	rec := srv.Get(path, nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, auth.LoginRedirectURL(path), rec.Header().Get("Location"))

	assert.Equal(t, http.StatusForbidden, srv.Get(path, reader).Code)
	assert.Equal(t, http.StatusOK, srv.Get(path, staff).Code)
	assert.Equal(t, http.StatusOK, srv.Get(path, superuser).Code)
}

func TestGenres(t *testing.T) {
	t.Parallel()
	srv, _, staff := newServer(t)

	rec := srv.Do(testhttp.Request{
		Method: http.MethodPost,
		Path:   "/admin/catalog/genres/",
		JSON:   `{"name":"  Western "}`,
		User:   staff,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var genre models.Genre
	testhttp.Decode(t, rec, &genre)
	assert.Equal(t, "Western", genre.Name)

	rec = srv.Do(testhttp.Request{
		Method: http.MethodPost,
		Path:   "/admin/catalog/genres/",
		JSON:   `{"name":"WESTERN"}`,
		User:   staff,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Genre with this name already exists.", testhttp.DecodeError(t, rec).Error.Fields["name"])

	path := "/admin/catalog/genres/" + strconv.Itoa(genre.ID)
	assert.Equal(t, http.StatusNoContent, srv.Do(testhttp.Request{Method: http.MethodDelete, Path: path, User: staff}).Code)
	assert.Equal(t, http.StatusNotFound, srv.Do(testhttp.Request{Method: http.MethodDelete, Path: path, User: staff}).Code)
}

func TestListAuthors(t *testing.T) {
	t.Parallel()
	srv, db, staff := newServer(t)

	author := testgen.CreateAuthor(t, db, "Agatha", "Christie")
	testgen.CreateBook(t, db, "Poirot Investigates", author)
	testgen.CreateAuthor(t, db, "Dorothy", "Sayers")

	rec := srv.Get("/admin/catalog/authors/", staff)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		AuthorList []struct {
			DisplayAuthorName string         `json:"display_author_name"`
			Books             []*models.Book `json:"books"`
		} `json:"author_list"`
	}
	testhttp.Decode(t, rec, &body)
	require.Len(t, body.AuthorList, 2)
	assert.Equal(t, "Christie Agatha", body.AuthorList[0].DisplayAuthorName)
	require.Len(t, body.AuthorList[0].Books, 1)
	assert.Equal(t, "Poirot Investigates", body.AuthorList[0].Books[0].Title)
	assert.Empty(t, body.AuthorList[1].Books)
}

func TestListBooks_Filters(t *testing.T) {
	t.Parallel()
	srv, db, staff := newServer(t)

	christie := testgen.CreateAuthor(t, db, "Agatha", "Christie")
	doyle := testgen.CreateAuthor(t, db, "Arthur", "Doyle")
	mystery := testgen.CreateGenre(t, db, "Mystery")
	testgen.CreateBook(t, db, "And Then There Were None", christie, mystery)
	testgen.CreateBook(t, db, "The Lost World", doyle)
	testgen.CreateBook(t, db, "A Study in Scarlet", doyle, mystery)

	type listBody struct {
		BookList []bookRow `json:"book_list"`
	}

	tests := []struct {
		query  string
		titles []string
	}{
		{"", []string{"A Study in Scarlet", "And Then There Were None", "The Lost World"}},
		{"?author_id=" + strconv.Itoa(doyle.ID), []string{"A Study in Scarlet", "The Lost World"}},
		{"?genre_id=" + strconv.Itoa(mystery.ID), []string{"A Study in Scarlet", "And Then There Were None"}},
		{"?genre_id=" + strconv.Itoa(mystery.ID) + "&author_id=" + strconv.Itoa(christie.ID), []string{"And Then There Were None"}},
	}
	for _, tc := range tests {
		rec := srv.Get("/admin/catalog/books/"+tc.query, staff)
		require.Equal(t, http.StatusOK, rec.Code, tc.query)
		var body listBody
		testhttp.Decode(t, rec, &body)
		titles := make([]string, len(body.BookList))
		for i, b := range body.BookList {
			titles[i] = b.Title
		}
		assert.Equal(t, tc.titles, titles, tc.query)
	}

	rec := srv.Get("/admin/catalog/books/?author_id=abc", staff)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRetrieveBook_InlinesInstances(t *testing.T) {
	t.Parallel()
	srv, db, staff := newServer(t)

	author := testgen.CreateAuthor(t, db, "Arthur", "Doyle")
	book := testgen.CreateBook(t, db, "The Sign of the Four", author)
	testgen.CreateInstance(t, db, book, testgen.InstanceOptions{Status: models.LoanStatusAvailable})
	testgen.CreateInstance(t, db, book, testgen.InstanceOptions{Status: models.LoanStatusReserved})

	rec := srv.Get("/admin/catalog/books/"+strconv.Itoa(book.ID), staff)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Title     string         `json:"title"`
		Instances []instanceBody `json:"instances"`
	}
	testhttp.Decode(t, rec, &body)
	assert.Equal(t, "The Sign of the Four", body.Title)
	assert.Len(t, body.Instances, 2)

	assert.Equal(t, http.StatusNotFound, srv.Get("/admin/catalog/books/999", staff).Code)
}

func TestListBookInstances_Filters(t *testing.T) {
	t.Parallel()
	srv, db, staff := newServer(t)

	book := testgen.CreateBook(t, db, "Hamlet", nil)
	today := models.Today()
	dueToday := testgen.CreateInstance(t, db, book, testgen.InstanceOptions{Status: models.LoanStatusOnLoan, DueBack: models.DatePtr(today)})
	lastWeek := testgen.CreateInstance(t, db, book, testgen.InstanceOptions{Status: models.LoanStatusOnLoan, DueBack: models.DatePtr(today.AddDays(-5))})
	testgen.CreateInstance(t, db, book, testgen.InstanceOptions{Status: models.LoanStatusAvailable})
	testgen.CreateInstance(t, db, book, testgen.InstanceOptions{Status: models.LoanStatusReserved, DueBack: models.DatePtr(today.AddDays(-400))})

	type listBody struct {
		BookInstanceList []instanceBody `json:"bookinstance_list"`
	}
	ids := func(query string) []uuid.UUID {
		rec := srv.Get("/admin/catalog/bookinstances/"+query, staff)
		require.Equal(t, http.StatusOK, rec.Code, query)
		var body listBody
		testhttp.Decode(t, rec, &body)
		out := make([]uuid.UUID, len(body.BookInstanceList))
		for i, bi := range body.BookInstanceList {
			out[i] = bi.ID
			assert.Equal(t, "Hamlet", bi.BookTitle)
		}
		return out
	}

	assert.Len(t, ids(""), 4)
	assert.Equal(t, []uuid.UUID{lastWeek.ID, dueToday.ID}, ids("?status=on_loan"))
	assert.Equal(t, []uuid.UUID{dueToday.ID}, ids("?due_back=today"))
	assert.Equal(t, []uuid.UUID{lastWeek.ID, dueToday.ID}, ids("?due_back=past_7_days"))

	assert.Equal(t, http.StatusBadRequest, srv.Get("/admin/catalog/bookinstances/?status=lost", staff).Code)
	assert.Equal(t, http.StatusBadRequest, srv.Get("/admin/catalog/bookinstances/?due_back=someday", staff).Code)
}

func TestBookInstanceCRUD(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	srv, db, staff := newServer(t)

	book := testgen.CreateBook(t, db, "Macbeth", nil)
	borrower := testgen.CreateUser(t, db, "borrower", testutils.UserOptions{})

	rec := srv.Do(testhttp.Request{
		Method: http.MethodPost,
		Path:   "/admin/catalog/bookinstances/",
		JSON:   `{"book_id":` + strconv.Itoa(book.ID) + `,"imprint":"Folger, 2003"}`,
		User:   staff,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created instanceBody
	testhttp.Decode(t, rec, &created)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, models.LoanStatusMaintenance, created.Status)
	assert.Equal(t, "Macbeth", created.BookTitle)
	assert.Nil(t, created.DueBack)

	path := "/admin/catalog/bookinstances/" + created.ID.String()
	due := models.Today().AddDays(10).String()

	rec = srv.Do(testhttp.Request{
		Method: http.MethodPost,
		Path:   path,
		JSON: `{"book_id":` + strconv.Itoa(book.ID) + `,"imprint":"Folger, 2003","status":"on_loan","due_back":"` + due +
			`","borrower_id":` + strconv.Itoa(borrower.ID) + `}`,
		User: staff,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated instanceBody
	testhttp.Decode(t, rec, &updated)
	assert.Equal(t, models.LoanStatusOnLoan, updated.Status)
	assert.Equal(t, "On loan", updated.StatusLabel)
	require.NotNil(t, updated.DueBack)
	assert.Equal(t, due, updated.DueBack.String())
	require.NotNil(t, updated.BorrowerID)
	assert.Equal(t, borrower.ID, *updated.BorrowerID)

	rec = srv.Do(testhttp.Request{
		Method: http.MethodPost,
		Path:   path,
		JSON:   `{"imprint":"Folger, 2003","status":"lost"}`,
		User:   staff,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, testhttp.DecodeError(t, rec).Error.Fields, "status")

	rec = srv.Do(testhttp.Request{
		Method: http.MethodPost,
		Path:   path,
		JSON:   `{"imprint":"Folger, 2003","borrower_id":9999}`,
		User:   staff,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, testhttp.DecodeError(t, rec).Error.Fields, "borrower_id")

	assert.Equal(t, http.StatusOK, srv.Get(path, staff).Code)
	assert.Equal(t, http.StatusNoContent, srv.Do(testhttp.Request{Method: http.MethodDelete, Path: path, User: staff}).Code)
	assert.Equal(t, http.StatusNotFound, srv.Get(path, staff).Code)
	assert.Equal(t, http.StatusNotFound, srv.Get("/admin/catalog/bookinstances/nope", staff).Code)

	count, err := db.NewSelect().Model((*models.BookInstance)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
