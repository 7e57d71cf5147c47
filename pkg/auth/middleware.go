package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
)

const (
	// LoginURL is where unauthenticated visitors of protected pages are sent.
	LoginURL = "/accounts/login/"
	// HomeURL is the catalog index.
	HomeURL = "/catalog/"
	// NextParam carries the page to return to after logging in.
	NextParam = "next"
)

type contextKey string

const (
	ContextKeyUser contextKey = "user"

	echoKeyUser = "user"
)

// Middleware provides authentication middleware.
type Middleware struct {
	authService *Service
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(authService *Service) *Middleware {
	return &Middleware{
		authService: authService,
	}
}

// Authenticate loads the user behind the auth cookie, if any. Requests without
// a valid cookie carry on anonymously; the Require* middlewares decide what
// anonymous visitors may see.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()

		cookie, err := c.Cookie(CookieName)
		if err != nil || cookie.Value == "" {
			return next(c)
		}

		claims, err := m.authService.ValidateToken(cookie.Value)
		if err != nil {
			return next(c)
		}

		user, err := m.authService.GetUserByID(req.Context(), claims.UserID)
		if err != nil {
			return next(c)
		}

		c.Set(echoKeyUser, user)
		c.SetRequest(req.WithContext(context.WithValue(req.Context(), ContextKeyUser, user)))

		return next(c)
	}
}

// RequireLogin redirects anonymous visitors to the login page, remembering
// where they were going.
func (m *Middleware) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if CurrentUser(c) == nil {
			return redirectToLogin(c)
		}
		return next(c)
	}
}

// RequirePermission lets through users holding codename. Anonymous visitors
// are sent to log in and everyone else gets a 403.
func (m *Middleware) RequirePermission(codename string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				return redirectToLogin(c)
			}
			if !user.HasPermission(codename) {
				return errcodes.PermissionDenied()
			}
			return next(c)
		}
	}
}

// RequirePermissionOrRedirect behaves like RequirePermission except that
// users lacking codename are redirected to target instead of refused.
func (m *Middleware) RequirePermissionOrRedirect(codename, target string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				return redirectToLogin(c)
			}
			if !user.HasPermission(codename) {
				return c.Redirect(http.StatusFound, target)
			}
			return next(c)
		}
	}
}

// RequireStaff admits active staff accounts, as the admin site does.
func (m *Middleware) RequireStaff(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := CurrentUser(c)
		if user == nil {
			return redirectToLogin(c)
		}
		if !user.IsActive || !(user.IsStaff || user.IsSuperuser) {
			return errcodes.PermissionDenied()
		}
		return next(c)
	}
}

// LoginRedirectURL builds the login URL that returns to path afterwards.
// Slashes in path stay readable; everything else is query-escaped.
func LoginRedirectURL(path string) string {
	return LoginURL + "?" + NextParam + "=" + strings.ReplaceAll(url.QueryEscape(path), "%2F", "/")
}

func redirectToLogin(c echo.Context) error {
	return c.Redirect(http.StatusFound, LoginRedirectURL(c.Request().URL.RequestURI()))
}

// CurrentUser returns the authenticated user, or nil for anonymous requests.
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(echoKeyUser).(*models.User)
	return user
}

// GetUserFromContext retrieves the user from a request context.
func GetUserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(ContextKeyUser).(*models.User)
	return user
}
