package bookinstances

import (
	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/auth"
	"github.com/locallibrary/catalog/pkg/config"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/uptrace/bun"
)

// HomeURL is where users without the renewal permission are sent.
const HomeURL = "/catalog/"

// RegisterRoutesWithGroup registers the loan pages on the catalog group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, cfg *config.Config, authMiddleware *auth.Middleware) {
	proposedDays, maxDays := cfg.RenewalWindow()
	h := &handler{
		instanceService: NewService(db),
		policy:          RenewalPolicy{ProposedDays: proposedDays, MaxDays: maxDays},
		today:           models.Today,
	}

	canRenew := authMiddleware.RequirePermissionOrRedirect(models.PermissionCanMarkReturned, HomeURL)

	g.GET("/mybooks/", h.myBooks, authMiddleware.RequireLogin)
	g.GET("/borrowed/", h.borrowed, authMiddleware.RequirePermission(models.PermissionStaffMemberRequired))
	g.GET("/book/:id/renew/", h.renewForm, canRenew)
	g.POST("/book/:id/renew/", h.renew, canRenew)
}
