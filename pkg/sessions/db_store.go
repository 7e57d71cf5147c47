package sessions

import (
	"context"
	"database/sql"
	"time"

	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// DBStore keeps sessions in the sessions table.
type DBStore struct {
	db  *bun.DB
	now func() time.Time
}

func NewDBStore(db *bun.DB) *DBStore {
	return &DBStore{db: db, now: time.Now}
}

func (s *DBStore) Load(ctx context.Context, key string) (Data, error) {
	session := &models.Session{}
	err := s.db.NewSelect().
		Model(session).
		Where("s.key = ?", key).
		Where("s.expires_at > ?", s.now()).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.WithStack(err)
	}
	return decode(session.Data)
}

// Save upserts the session. Concurrent saves of the same key are last write
// wins.
func (s *DBStore) Save(ctx context.Context, key string, data Data, ttl time.Duration) error {
	raw, err := encode(data)
	if err != nil {
		return err
	}

	session := &models.Session{
		Key:       key,
		Data:      raw,
		ExpiresAt: s.now().Add(ttl),
	}
	_, err = s.db.NewInsert().
		Model(session).
		On("CONFLICT (key) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set("expires_at = EXCLUDED.expires_at").
		Exec(ctx)
	return errors.WithStack(err)
}

func (s *DBStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.NewDelete().
		Model((*models.Session)(nil)).
		Where("key = ?", key).
		Exec(ctx)
	return errors.WithStack(err)
}

// PurgeExpired removes sessions past their expiry and returns how many went.
func (s *DBStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*models.Session)(nil)).
		Where("expires_at <= ?", s.now()).
		Exec(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	n, err := res.RowsAffected()
	return n, errors.WithStack(err)
}
