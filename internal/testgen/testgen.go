// Package testgen builds databases and catalog fixtures for tests.
package testgen

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/locallibrary/catalog/pkg/config"
	"github.com/locallibrary/catalog/pkg/database"
	"github.com/locallibrary/catalog/pkg/migrations"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/testutils"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// NewDB returns a migrated in-memory database that is closed when the test
// ends.
func NewDB(t testing.TB) *bun.DB {
	t.Helper()

	cfg := config.NewForTest()
	cfg.DatabaseConnectRetryCount = 1

	db, err := database.New(cfg)
	require.NoError(t, err)

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// CreateUser inserts a user whose password is testutils.DefaultPassword.
func CreateUser(t testing.TB, db *bun.DB, username string, opts testutils.UserOptions) *models.User {
	t.Helper()
	user, err := testutils.InsertUser(context.Background(), db, username, testutils.DefaultPassword, opts)
	require.NoError(t, err)
	return user
}

// CreateGenre inserts a genre.
func CreateGenre(t testing.TB, db *bun.DB, name string) *models.Genre {
	t.Helper()
	now := time.Now()
	genre := &models.Genre{CreatedAt: now, UpdatedAt: now, Name: name}
	_, err := db.NewInsert().Model(genre).Exec(context.Background())
	require.NoError(t, err)
	return genre
}

// CreateAuthor inserts an author.
func CreateAuthor(t testing.TB, db *bun.DB, firstName, lastName string) *models.Author {
	t.Helper()
	now := time.Now()
	author := &models.Author{CreatedAt: now, UpdatedAt: now, FirstName: firstName, LastName: lastName}
	_, err := db.NewInsert().Model(author).Exec(context.Background())
	require.NoError(t, err)
	return author
}

// CreateBook inserts a book by author tagged with genres.
func CreateBook(t testing.TB, db *bun.DB, title string, author *models.Author, genres ...*models.Genre) *models.Book {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	book := &models.Book{
		CreatedAt: now,
		UpdatedAt: now,
		Title:     title,
		Summary:   "Summary of " + title,
		ISBN:      "9780000000000",
	}
	book.NormalizeTitle()
	if author != nil {
		book.AuthorID = &author.ID
	}
	_, err := db.NewInsert().Model(book).Exec(ctx)
	require.NoError(t, err)

	for _, genre := range genres {
		_, err := db.NewInsert().Model(&models.BookGenre{BookID: book.ID, GenreID: genre.ID}).Exec(ctx)
		require.NoError(t, err)
	}
	return book
}

// InstanceOptions tweaks a fixture book instance.
type InstanceOptions struct {
	Status   string
	DueBack  *models.Date
	Borrower *models.User
	Imprint  string
}

// CreateInstance inserts a copy of book.
func CreateInstance(t testing.TB, db *bun.DB, book *models.Book, opts InstanceOptions) *models.BookInstance {
	t.Helper()
	now := time.Now()
	if opts.Status == "" {
		opts.Status = models.LoanStatusMaintenance
	}
	if opts.Imprint == "" {
		opts.Imprint = "Unlikely Imprint, 2016"
	}
	instance := &models.BookInstance{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
		Imprint:   opts.Imprint,
		Status:    opts.Status,
		DueBack:   opts.DueBack,
	}
	if book != nil {
		instance.BookID = &book.ID
	}
	if opts.Borrower != nil {
		instance.BorrowerID = &opts.Borrower.ID
	}
	_, err := db.NewInsert().Model(instance).Exec(context.Background())
	require.NoError(t, err)
	return instance
}
