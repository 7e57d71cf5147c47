package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/locallibrary/catalog/pkg/config"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const memoryPath = ":memory:"

type key int

const ctxKey key = 0

// WithLogging turns on query logging for everything run with the returned
// context, even when database_debug is off.
func WithLogging(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey, true)
}

type logQueryHook struct {
	log    logger.Logger
	always bool
}

func (*logQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (qh *logQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	enabled, _ := ctx.Value(ctxKey).(bool)
	if !enabled && !qh.always {
		return
	}

	data := logger.Data{"duration_ms": time.Since(event.StartTime).Milliseconds()}
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		qh.log.Data(data).Err(event.Err).Warn(event.Query)
		return
	}
	qh.log.Data(data).Debug(event.Query)
}

// New opens the SQLite database and applies the connection pragmas. All
// access goes through a single connection so writers never contend for the
// file lock, and so an in-memory database is shared by every query.
func New(cfg *config.Config) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DatabaseFilePath)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	sqldb.SetMaxOpenConns(1)
	sqldb.SetConnMaxLifetime(0)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	db.AddQueryHook(&logQueryHook{log: logger.NewWithLevel("debug"), always: cfg.DatabaseDebug})

	// Retry up to a few times to ensure that the database can connect.
	attempts := cfg.DatabaseConnectRetryCount
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		_, err = db.Exec("SELECT 1")
		if err == nil {
			break
		}
		time.Sleep(cfg.DatabaseConnectRetryDelay)
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := configure(db, cfg); err != nil {
		return nil, err
	}

	return db, nil
}

func configure(db *bun.DB, cfg *config.Config) error {
	if cfg.DatabaseFilePath != memoryPath {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			return errors.Wrap(err, "failed to enable WAL mode")
		}
	}

	if _, err := db.Exec("PRAGMA busy_timeout=?", cfg.DatabaseBusyTimeout.Milliseconds()); err != nil {
		return errors.Wrap(err, "failed to set busy_timeout")
	}

	// Deletes rely on ON DELETE SET NULL and CASCADE.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return errors.Wrap(err, "failed to enable foreign keys")
	}

	return nil
}
