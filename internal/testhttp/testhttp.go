// Package testhttp drives handlers through a real Echo instance with the
// catalog's binder, error handler, auth and session middleware installed.
package testhttp

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/auth"
	"github.com/locallibrary/catalog/pkg/binder"
	"github.com/locallibrary/catalog/pkg/config"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/sessions"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// Server is an Echo instance ready for routes to be registered on.
type Server struct {
	Echo       *echo.Echo
	Config     *config.Config
	Auth       *auth.Service
	Middleware *auth.Middleware

	t testing.TB
}

// New builds a Server backed by db.
func New(t testing.TB, db *bun.DB) *Server {
	t.Helper()

	cfg := config.NewForTest()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	svc := auth.NewService(db, cfg.JWTSecret)
	mw := auth.NewMiddleware(svc)
	e.Use(mw.Authenticate)
	e.Use(sessions.Middleware(sessions.NewDBStore(db), cfg.SessionMaxAge))

	return &Server{Echo: e, Config: cfg, Auth: svc, Middleware: mw, t: t}
}

// Request describes one call against the server.
type Request struct {
	Method  string
	Path    string
	Form    url.Values
	JSON    string
	User    *models.User
	Cookies []*http.Cookie
}

// Do serves req and returns the recorded response.
func (s *Server) Do(req Request) *httptest.ResponseRecorder {
	s.t.Helper()

	if req.Method == "" {
		req.Method = http.MethodGet
	}

	var r *http.Request
	switch {
	case req.JSON != "":
		r = httptest.NewRequest(req.Method, req.Path, strings.NewReader(req.JSON))
		r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	case req.Form != nil:
		r = httptest.NewRequest(req.Method, req.Path, strings.NewReader(req.Form.Encode()))
		r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	default:
		r = httptest.NewRequest(req.Method, req.Path, nil)
	}

	if req.User != nil {
		token, err := s.Auth.GenerateToken(req.User)
		require.NoError(s.t, err)
		r.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}
	for _, c := range req.Cookies {
		r.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, r)
	return rec
}

// Get is shorthand for an authenticated or anonymous GET.
func (s *Server) Get(path string, user *models.User) *httptest.ResponseRecorder {
	s.t.Helper()
	return s.Do(Request{Path: path, User: user})
}

// PostForm submits form as user.
func (s *Server) PostForm(path string, form url.Values, user *models.User) *httptest.ResponseRecorder {
	s.t.Helper()
	return s.Do(Request{Method: http.MethodPost, Path: path, Form: form, User: user})
}

// Decode unmarshals the JSON body of rec into v.
func Decode(t testing.TB, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

// ErrorBody is the JSON shape of an error response.
type ErrorBody struct {
	Error struct {
		Code       string            `json:"code"`
		Message    string            `json:"message"`
		StatusCode int               `json:"status_code"`
		Fields     map[string]string `json:"fields"`
	} `json:"error"`
}

// DecodeError unmarshals an error response.
func DecodeError(t testing.TB, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	Decode(t, rec, &body)
	return body
}
