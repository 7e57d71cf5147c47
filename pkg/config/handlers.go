package config

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// PublicConfig is the subset of settings that staff tooling may read.
type PublicConfig struct {
	Environment          string `json:"environment"`
	SessionBackend       string `json:"session_backend"`
	RenewalDefaultWeeks  int    `json:"renewal_default_weeks"`
	RenewalMaxWeeks      int    `json:"renewal_max_weeks"`
	DashboardTitleFilter string `json:"dashboard_title_filter"`
}

type handler struct {
	cfg *Config
}

func (h *handler) retrieve(c echo.Context) error {
	return errors.WithStack(c.JSON(http.StatusOK, h.cfg.Public()))
}

// Public strips secrets and connection details from the configuration.
func (cfg *Config) Public() PublicConfig {
	return PublicConfig{
		Environment:          cfg.Environment,
		SessionBackend:       cfg.SessionBackend,
		RenewalDefaultWeeks:  cfg.RenewalDefaultWeeks,
		RenewalMaxWeeks:      cfg.RenewalMaxWeeks,
		DashboardTitleFilter: cfg.DashboardTitleFilter,
	}
}
