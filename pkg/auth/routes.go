package auth

import (
	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/config"
)

// RegisterRoutes registers the account routes. Login attempts are rate
// limited per client IP.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, authService *Service, authMiddleware *Middleware) {
	h := &handler{
		authService: authService,
	}

	limiter := NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateBurst)

	accounts := e.Group("/accounts")
	accounts.GET("/login/", h.loginForm)
	accounts.POST("/login/", h.login, limiter)
	accounts.POST("/logout/", h.logout)
	accounts.GET("/me/", h.me, authMiddleware.RequireLogin)
}
