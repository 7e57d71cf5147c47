package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/internal/testgen"
	"github.com/locallibrary/catalog/pkg/auth"
	"github.com/locallibrary/catalog/pkg/config"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/sessions"
	"github.com/locallibrary/catalog/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEcho(t *testing.T) *echo.Echo {
	t.Helper()
	db := testgen.NewDB(t)
	cfg := config.NewForTest()

	store, err := NewSessionStore(context.Background(), cfg, db)
	require.NoError(t, err)
	assert.IsType(t, &sessions.DBStore{}, store)

	e, err := NewEcho(cfg, db, store)
	require.NoError(t, err)
	return e
}

func serve(e *echo.Echo, method, path string, body url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(body.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestNewEcho_Routes(t *testing.T) {
	t.Parallel()
	e := newEcho(t)

	rec := serve(e, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, auth.HomeURL, rec.Header().Get("Location"))

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/catalog/", nil).Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/catalog/books/", nil).Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/catalog/authors/", nil).Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/catalog/genres/", nil).Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/accounts/login/", nil).Code)

	rec = serve(e, http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")

	rec = serve(e, http.MethodGet, "/config", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, auth.LoginRedirectURL("/config"), rec.Header().Get("Location"))
}

func TestNewEcho_LoginFlow(t *testing.T) {
	t.Parallel()
	e := newEcho(t)

	rec := serve(e, http.MethodGet, "/catalog/mybooks/", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	loginURL := rec.Header().Get("Location")
	assert.Equal(t, auth.LoginRedirectURL("/catalog/mybooks/"), loginURL)

	req := httptest.NewRequest(http.MethodPost, "/test/users", strings.NewReader(`{"username":"staffer","password":"`+testutils.DefaultPassword+`","is_staff":true,"role":"librarian"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	created := httptest.NewRecorder()
	e.ServeHTTP(created, req)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())

	rec = serve(e, http.MethodPost, loginURL, url.Values{
		"username": {"staffer"},
		"password": {testutils.DefaultPassword},
	})
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, "/catalog/mybooks/", rec.Header().Get("Location"))

	token := cookieNamed(rec, auth.CookieName)
	require.NotNil(t, token)

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/catalog/mybooks/", nil, token).Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/catalog/borrowed/", nil, token).Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/catalog/book/create/", nil, token).Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/admin/catalog/bookinstances/", nil, token).Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/admin/auth/users/", nil, token).Code)

	rec = serve(e, http.MethodGet, "/config", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"renewal_max_weeks":4`)
	assert.NotContains(t, rec.Body.String(), "test-secret")

	rec = serve(e, http.MethodPost, "/accounts/logout/", url.Values{}, token)
	require.Equal(t, http.StatusFound, rec.Code)
	cleared := cookieNamed(rec, auth.CookieName)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
}

func TestNewEcho_VisitCounterAcrossRequests(t *testing.T) {
	t.Parallel()
	e := newEcho(t)

	rec := serve(e, http.MethodGet, "/catalog/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	session := cookieNamed(rec, sessions.CookieName)
	require.NotNil(t, session)

	rec = serve(e, http.MethodGet, "/catalog/", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"num_visits":1`)
}

func TestNewSessionStore_UnknownBackend(t *testing.T) {
	t.Parallel()
	cfg := config.NewForTest()
	cfg.SessionBackend = "memcached"

	_, err := NewSessionStore(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestNewSessionStore_Redis(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	cfg := config.NewForTest()
	cfg.SessionBackend = config.SessionBackendRedis
	cfg.RedisURL = "redis://" + mr.Addr()

	store, err := NewSessionStore(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.IsType(t, &sessions.RedisStore{}, store)

	closer, ok := store.(io.Closer)
	require.True(t, ok)
	require.NoError(t, closer.Close())
	_, err = store.Load(context.Background(), "any")
	assert.Error(t, err, "a closed store cannot reach redis")
	assert.NotErrorIs(t, err, sessions.ErrNotFound)
}

func TestNewEcho_CatalogWipe(t *testing.T) {
	t.Parallel()
	db := testgen.NewDB(t)
	cfg := config.NewForTest()
	e, err := NewEcho(cfg, db, sessions.NewDBStore(db))
	require.NoError(t, err)

	testgen.CreateInstance(t, db, testgen.CreateBook(t, db, "Temporary", nil), testgen.InstanceOptions{})

	rec := serve(e, http.MethodDelete, "/test/catalog", nil)
	require.True(t, rec.Code < 300, rec.Body.String())

	count, err := db.NewSelect().Model((*models.Book)(nil)).Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
