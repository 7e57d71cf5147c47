package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

const (
	// CookieName is the name of the auth cookie.
	CookieName = "catalog_auth"
	// CookieMaxAge is how long the cookie is valid.
	CookieMaxAge = TokenExpiry

	invalidLoginMessage = "Please enter a correct username and password. Note that both fields may be case-sensitive."
)

type handler struct {
	authService *Service
}

func buildMeResponse(user *models.User) MeResponse {
	var roleName *string
	if user.Role != nil {
		roleName = &user.Role.Name
	}

	return MeResponse{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		IsStaff:     user.IsStaff,
		IsSuperuser: user.IsSuperuser,
		RoleName:    roleName,
		Permissions: user.AllPermissions(),
	}
}

// loginForm describes the login form and where a successful login leads.
func (h *handler) loginForm(c echo.Context) error {
	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{
		"form": map[string]interface{}{
			"fields": []string{"username", "password"},
		},
		"next": safeNext(c.QueryParam(NextParam)),
	}))
}

func (h *handler) login(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	params := LoginPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	if params.Next == "" {
		params.Next = c.QueryParam(NextParam)
	}

	user, err := h.authService.Authenticate(ctx, params.Username, params.Password)
	if err != nil {
		log.Data(logger.Data{"username": params.Username}).Info("failed login")
		return errcodes.ValidationError(invalidLoginMessage, map[string]string{
			"non_field_errors": invalidLoginMessage,
		})
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		return errors.WithStack(err)
	}

	setAuthCookie(c, token, CookieMaxAge)

	return errors.WithStack(c.Redirect(http.StatusFound, safeNext(params.Next)))
}

func (h *handler) logout(c echo.Context) error {
	setAuthCookie(c, "", -1)
	return errors.WithStack(c.Redirect(http.StatusFound, HomeURL))
}

func (h *handler) me(c echo.Context) error {
	user := CurrentUser(c)
	if user == nil {
		return errcodes.Unauthorized("Not authenticated")
	}
	return errors.WithStack(c.JSON(http.StatusOK, buildMeResponse(user)))
}

// setAuthCookie writes the HTTP-only auth cookie. A negative maxAge clears it.
func setAuthCookie(c echo.Context, value string, maxAge time.Duration) {
	seconds := int(maxAge.Seconds())
	if maxAge < 0 {
		seconds = -1
	}
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   seconds,
		HttpOnly: true,
		Secure:   c.Request().TLS != nil || c.Request().Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

// safeNext only follows local paths so the login form can't be used as an
// open redirect.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return HomeURL
	}
	return next
}
