package config

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the read-only config endpoint. The caller supplies the
// middleware that restricts it to staff.
func RegisterRoutes(e *echo.Echo, cfg *Config, mw ...echo.MiddlewareFunc) {
	h := &handler{cfg: cfg}

	configGroup := e.Group("/config", mw...)
	configGroup.GET("", h.retrieve)
}
