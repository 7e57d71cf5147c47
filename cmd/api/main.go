package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/locallibrary/catalog/pkg/config"
	"github.com/locallibrary/catalog/pkg/database"
	"github.com/locallibrary/catalog/pkg/migrations"
	"github.com/locallibrary/catalog/pkg/server"
	"github.com/locallibrary/catalog/pkg/sessions"
	"github.com/locallibrary/catalog/pkg/version"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
)

const sessionPurgeInterval = time.Hour

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting catalog", logger.Data{"version": version.Version})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		log.Err(err).Fatal("migrations error")
	}
	if group.ID == 0 {
		log.Info("no new migrations to run")
	} else {
		log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}

	store, err := server.NewSessionStore(ctx, cfg, db)
	if err != nil {
		log.Err(err).Fatal("session store error")
	}
	log.Info("session store ready", logger.Data{"backend": cfg.SessionBackend})

	srv, err := server.New(cfg, db, store)
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	purgeCtx, stopPurge := context.WithCancel(ctx)
	if dbStore, ok := store.(*sessions.DBStore); ok {
		go purgeSessions(purgeCtx, log, dbStore)
	}

	graceful := signals.Setup()

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort)
		lc := net.ListenConfig{}
		listener, err := lc.Listen(ctx, "tcp", addr)
		if err != nil {
			log.Err(err).Fatal("failed to bind port")
		}

		log.Info("server started", logger.Data{"addr": listener.Addr().String()})

		err = srv.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	<-graceful
	log.Info("starting graceful shutdown")

	stopPurge()

	err = srv.Shutdown(ctx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")

	if closer, ok := store.(io.Closer); ok {
		err = closer.Close()
		if err != nil {
			log.Err(err).Error("session store close error")
		}
		log.Info("session store closed")
	}

	err = db.Close()
	if err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("database closed")
}

// purgeSessions removes expired database sessions until ctx is done.
func purgeSessions(ctx context.Context, log logger.Logger, store *sessions.DBStore) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				log.Err(err).Warn("failed to purge sessions")
				continue
			}
			if n > 0 {
				log.Info("purged expired sessions", logger.Data{"count": n})
			}
		}
	}
}
