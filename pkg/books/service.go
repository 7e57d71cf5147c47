package books

import (
	"context"
	"database/sql"
	"time"

	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveBookOptions struct {
	ID               *int
	IncludeInstances bool
}

type ListBooksOptions struct {
	Limit    *int
	Offset   *int
	AuthorID *int
	GenreID  *int

	includeTotal bool
}

type UpdateBookOptions struct {
	Columns []string
	// GenreIDs replaces the book's genres when set.
	GenreIDs *[]int
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// CreateBook inserts a book and links it to genreIDs.
func (svc *Service) CreateBook(ctx context.Context, book *models.Book, genreIDs []int) error {
	now := time.Now()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = book.CreatedAt
	book.NormalizeTitle()

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := checkReferences(ctx, tx, book.AuthorID, genreIDs); err != nil {
			return err
		}

		_, err := tx.
			NewInsert().
			Model(book).
			Returning("*").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		return setGenres(ctx, tx, book.ID, genreIDs)
	})
}

func (svc *Service) RetrieveBook(ctx context.Context, opts RetrieveBookOptions) (*models.Book, error) {
	book := &models.Book{}

	q := svc.db.
		NewSelect().
		Model(book).
		Relation("Author").
		Relation("BookGenres", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("bg.id ASC")
		}).
		Relation("BookGenres.Genre")

	if opts.ID != nil {
		q = q.Where("b.id = ?", *opts.ID)
	}
	if opts.IncludeInstances {
		q = q.Relation("Instances", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("bi.due_back ASC", "bi.id ASC")
		})
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	for _, bi := range book.Instances {
		bi.Book = book
	}

	return book, nil
}

func (svc *Service) ListBooks(ctx context.Context, opts ListBooksOptions) ([]*models.Book, error) {
	b, _, err := svc.listBooksWithTotal(ctx, opts)
	return b, errors.WithStack(err)
}

func (svc *Service) ListBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	opts.includeTotal = true
	return svc.listBooksWithTotal(ctx, opts)
}

func (svc *Service) listBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	var books []*models.Book
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&books).
		Relation("Author").
		Relation("BookGenres", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("bg.id ASC")
		}).
		Relation("BookGenres.Genre").
		Order("b.title ASC", "b.id ASC")

	q = applyBookFilters(q, opts)
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

	return books, total, nil
}

// CountBooks counts the books matching the filters of opts.
func (svc *Service) CountBooks(ctx context.Context, opts ListBooksOptions) (int, error) {
	q := svc.db.NewSelect().Model((*models.Book)(nil))
	count, err := applyBookFilters(q, opts).Count(ctx)
	return count, errors.WithStack(err)
}

// CountBooksWithTitle counts books whose title contains substr, ignoring
// case. SQLite's own case folding is ASCII only, so the comparison runs
// against the lower-cased copy of the title.
func (svc *Service) CountBooksWithTitle(ctx context.Context, substr string) (int, error) {
	probe := &models.Book{Title: substr}
	probe.NormalizeTitle()
	if probe.TitleLower == "" {
		return svc.CountBooks(ctx, ListBooksOptions{})
	}

	count, err := svc.db.NewSelect().
		Model((*models.Book)(nil)).
		Where("instr(b.title_lower, ?) > 0", probe.TitleLower).
		Count(ctx)
	return count, errors.WithStack(err)
}

func (svc *Service) UpdateBook(ctx context.Context, book *models.Book, opts UpdateBookOptions) error {
	if len(opts.Columns) == 0 && opts.GenreIDs == nil {
		return nil
	}

	columns := append([]string{}, opts.Columns...)
	for _, col := range opts.Columns {
		if col == "title" {
			book.NormalizeTitle()
			columns = append(columns, "title_lower")
		}
	}

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var genreIDs []int
		if opts.GenreIDs != nil {
			genreIDs = *opts.GenreIDs
		}
		if err := checkReferences(ctx, tx, book.AuthorID, genreIDs); err != nil {
			return err
		}

		book.UpdatedAt = time.Now()
		columns = append(columns, "updated_at")

		res, err := tx.
			NewUpdate().
			Model(book).
			Column(columns...).
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("Book")
		}

		if opts.GenreIDs == nil {
			return nil
		}
		_, err = tx.NewDelete().
			Model((*models.BookGenre)(nil)).
			Where("book_id = ?", book.ID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		return setGenres(ctx, tx, book.ID, genreIDs)
	})
}

// DeleteBook removes the book and its genre links. Its copies are kept but no
// longer point at a book.
func (svc *Service) DeleteBook(ctx context.Context, bookID int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().
			Model((*models.BookInstance)(nil)).
			Set("book_id = NULL").
			Set("updated_at = ?", time.Now()).
			Where("book_id = ?", bookID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewDelete().
			Model((*models.BookGenre)(nil)).
			Where("book_id = ?", bookID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		res, err := tx.NewDelete().
			Model((*models.Book)(nil)).
			Where("id = ?", bookID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("Book")
		}
		return nil
	})
}

func applyBookFilters(q *bun.SelectQuery, opts ListBooksOptions) *bun.SelectQuery {
	if opts.AuthorID != nil {
		q = q.Where("b.author_id = ?", *opts.AuthorID)
	}
	if opts.GenreID != nil {
		q = q.Where("b.id IN (SELECT book_id FROM book_genres WHERE genre_id = ?)", *opts.GenreID)
	}
	return q
}

// checkReferences turns dangling author or genre ids into form errors rather
// than foreign key failures.
func checkReferences(ctx context.Context, tx bun.Tx, authorID *int, genreIDs []int) error {
	fields := map[string]string{}

	if authorID != nil {
		exists, err := tx.NewSelect().
			Model((*models.Author)(nil)).
			Where("a.id = ?", *authorID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			fields["author_id"] = "Select a valid choice. That choice is not one of the available choices."
		}
	}

	if ids := dedupe(genreIDs); len(ids) > 0 {
		count, err := tx.NewSelect().
			Model((*models.Genre)(nil)).
			Where("g.id IN (?)", bun.In(ids)).
			Count(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if count != len(ids) {
			fields["genre_ids"] = "Select a valid choice. One of the genres is not one of the available choices."
		}
	}

	if len(fields) == 0 {
		return nil
	}
	for _, key := range []string{"author_id", "genre_ids"} {
		if msg, ok := fields[key]; ok {
			return errcodes.ValidationError(key+": "+msg, fields)
		}
	}
	return nil
}

func setGenres(ctx context.Context, tx bun.Tx, bookID int, genreIDs []int) error {
	ids := dedupe(genreIDs)
	if len(ids) == 0 {
		return nil
	}
	links := make([]*models.BookGenre, len(ids))
	for i, id := range ids {
		links[i] = &models.BookGenre{BookID: bookID, GenreID: id}
	}
	_, err := tx.NewInsert().Model(&links).Exec(ctx)
	return errors.WithStack(err)
}

func dedupe(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
