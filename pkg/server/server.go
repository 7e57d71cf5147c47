package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/admin"
	"github.com/locallibrary/catalog/pkg/auth"
	"github.com/locallibrary/catalog/pkg/authors"
	"github.com/locallibrary/catalog/pkg/binder"
	"github.com/locallibrary/catalog/pkg/bookinstances"
	"github.com/locallibrary/catalog/pkg/books"
	"github.com/locallibrary/catalog/pkg/config"
	"github.com/locallibrary/catalog/pkg/dashboard"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/genres"
	"github.com/locallibrary/catalog/pkg/sessions"
	"github.com/locallibrary/catalog/pkg/testutils"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

// New builds the HTTP server. Sessions are kept in store.
func New(cfg *config.Config, db *bun.DB, store sessions.Store) (*http.Server, error) {
	e, err := NewEcho(cfg, db, store)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

// NewEcho wires every route of the catalog onto a fresh Echo instance.
func NewEcho(cfg *config.Config, db *bun.DB, store sessions.Store) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())

	health.RegisterRoutes(e)

	authService := auth.NewService(db, cfg.JWTSecret)
	authMiddleware := auth.NewMiddleware(authService)

	e.Use(authMiddleware.Authenticate)
	e.Use(sessions.Middleware(store, cfg.SessionMaxAge))

	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, auth.HomeURL)
	})

	auth.RegisterRoutes(e, cfg, authService, authMiddleware)
	registerCatalogRoutes(e, db, cfg, authMiddleware)
	admin.RegisterRoutes(e, db, authMiddleware)

	config.RegisterRoutes(e, cfg, authMiddleware.RequireStaff)

	if cfg.IsTest() {
		testutils.RegisterRoutes(e, db)
	}

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	return e, nil
}

// NewSessionStore returns the store selected by SessionBackend.
func NewSessionStore(ctx context.Context, cfg *config.Config, db *bun.DB) (sessions.Store, error) {
	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		client, err := sessions.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return sessions.NewRedisStore(client), nil
	case config.SessionBackendDatabase, "":
		return sessions.NewDBStore(db), nil
	default:
		return nil, errors.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}

func registerCatalogRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config, authMiddleware *auth.Middleware) {
	g := e.Group("/catalog")

	dashboard.RegisterRoutesWithGroup(g, db, cfg)
	books.RegisterRoutesWithGroup(g, db, authMiddleware)
	authors.RegisterRoutesWithGroup(g, db, authMiddleware)
	genres.RegisterRoutesWithGroup(g, db)
	bookinstances.RegisterRoutesWithGroup(g, db, cfg, authMiddleware)
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
