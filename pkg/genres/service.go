package genres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveGenreOptions struct {
	ID   *int
	Name *string
}

type ListGenresOptions struct {
	Limit  *int
	Offset *int
	IDs    []int

	includeTotal bool
}

type UpdateGenreOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// CreateGenre inserts a genre. Names are unique regardless of case.
func (svc *Service) CreateGenre(ctx context.Context, genre *models.Genre) error {
	genre.Name = strings.TrimSpace(genre.Name)
	if err := svc.checkNameAvailable(ctx, genre.Name, 0); err != nil {
		return err
	}

	now := time.Now()
	if genre.CreatedAt.IsZero() {
		genre.CreatedAt = now
	}
	genre.UpdatedAt = genre.CreatedAt

	_, err := svc.db.
		NewInsert().
		Model(genre).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveGenre(ctx context.Context, opts RetrieveGenreOptions) (*models.Genre, error) {
	genre := &models.Genre{}

	q := svc.db.
		NewSelect().
		Model(genre)

	if opts.ID != nil {
		q = q.Where("g.id = ?", *opts.ID)
	}
	if opts.Name != nil {
		q = q.Where("g.name = ? COLLATE NOCASE", strings.TrimSpace(*opts.Name))
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Genre")
		}
		return nil, errors.WithStack(err)
	}

	return genre, nil
}

func (svc *Service) ListGenres(ctx context.Context, opts ListGenresOptions) ([]*models.Genre, error) {
	g, _, err := svc.listGenresWithTotal(ctx, opts)
	return g, errors.WithStack(err)
}

func (svc *Service) ListGenresWithTotal(ctx context.Context, opts ListGenresOptions) ([]*models.Genre, int, error) {
	opts.includeTotal = true
	return svc.listGenresWithTotal(ctx, opts)
}

func (svc *Service) listGenresWithTotal(ctx context.Context, opts ListGenresOptions) ([]*models.Genre, int, error) {
	var genres []*models.Genre
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&genres).
		ColumnExpr("g.*").
		ColumnExpr("(SELECT COUNT(*) FROM book_genres AS bg WHERE bg.genre_id = g.id) AS book_count").
		Order("g.name ASC", "g.id ASC")

	if len(opts.IDs) > 0 {
		q = q.Where("g.id IN (?)", bun.In(opts.IDs))
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return genres, total, nil
}

func (svc *Service) CountGenres(ctx context.Context) (int, error) {
	count, err := svc.db.NewSelect().Model((*models.Genre)(nil)).Count(ctx)
	return count, errors.WithStack(err)
}

func (svc *Service) UpdateGenre(ctx context.Context, genre *models.Genre, opts UpdateGenreOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	for _, col := range opts.Columns {
		if col == "name" {
			genre.Name = strings.TrimSpace(genre.Name)
			if err := svc.checkNameAvailable(ctx, genre.Name, genre.ID); err != nil {
				return err
			}
		}
	}

	genre.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	res, err := svc.db.
		NewUpdate().
		Model(genre).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("Genre")
	}
	return nil
}

// DeleteGenre deletes a genre and detaches it from its books.
func (svc *Service) DeleteGenre(ctx context.Context, genreID int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*models.BookGenre)(nil)).
			Where("genre_id = ?", genreID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		res, err := tx.NewDelete().
			Model((*models.Genre)(nil)).
			Where("id = ?", genreID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("Genre")
		}
		return nil
	})
}

// ListBooks returns the books tagged with the genre, by title.
func (svc *Service) ListBooks(ctx context.Context, genreID int) ([]*models.Book, error) {
	var books []*models.Book

	err := svc.db.NewSelect().
		Model(&books).
		Relation("Author").
		Join("INNER JOIN book_genres AS bg ON bg.book_id = b.id").
		Where("bg.genre_id = ?", genreID).
		Order("b.title ASC", "b.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return books, nil
}

func (svc *Service) checkNameAvailable(ctx context.Context, name string, exceptID int) error {
	q := svc.db.NewSelect().
		Model((*models.Genre)(nil)).
		Where("g.name = ? COLLATE NOCASE", name)
	if exceptID != 0 {
		q = q.Where("g.id != ?", exceptID)
	}
	exists, err := q.Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if exists {
		return errcodes.FieldError("name", "Genre with this name already exists.")
	}
	return nil
}
