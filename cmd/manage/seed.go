package main

import (
	"github.com/locallibrary/catalog/pkg/authors"
	"github.com/locallibrary/catalog/pkg/bookinstances"
	"github.com/locallibrary/catalog/pkg/books"
	"github.com/locallibrary/catalog/pkg/genres"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
	"github.com/urfave/cli/v2"
)

type seedBook struct {
	title    string
	first    string
	last     string
	isbn     string
	genres   []string
	statuses []string
}

var seedBooks = []seedBook{
	{"Дюна", "Фрэнк", "Герберт", "9785170906300", []string{"Фантастика"}, []string{models.LoanStatusAvailable, models.LoanStatusOnLoan}},
	{"Дети Дюны", "Фрэнк", "Герберт", "9785170906324", []string{"Фантастика"}, []string{models.LoanStatusAvailable}},
	{"The Left Hand of Darkness", "Ursula", "Le Guin", "9780441478125", []string{"Science Fiction"}, []string{models.LoanStatusReserved, models.LoanStatusMaintenance}},
	{"A Wizard of Earthsea", "Ursula", "Le Guin", "9780547773742", []string{"Fantasy"}, []string{models.LoanStatusAvailable}},
	{"Pride and Prejudice", "Jane", "Austen", "9780141439518", []string{"Romance", "Classics"}, []string{models.LoanStatusOnLoan}},
}

func seedCommand(db *bun.DB, log logger.Logger) *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "load a small demo catalog into an empty database",
		Action: func(c *cli.Context) error {
			ctx := c.Context

			bookService := books.NewService(db)
			count, err := bookService.CountBooks(ctx, books.ListBooksOptions{})
			if err != nil {
				return errors.WithStack(err)
			}
			if count > 0 {
				log.Info("catalog already has books, skipping seed", logger.Data{"books": count})
				return nil
			}

			genreService := genres.NewService(db)
			authorService := authors.NewService(db)
			instanceService := bookinstances.NewService(db)

			genreIDs := map[string]int{}
			authorIDs := map[string]int{}
			instances := 0

			for _, sb := range seedBooks {
				ids := make([]int, 0, len(sb.genres))
				for _, name := range sb.genres {
					if _, ok := genreIDs[name]; !ok {
						genre := &models.Genre{Name: name}
						if err := genreService.CreateGenre(ctx, genre); err != nil {
							return errors.WithStack(err)
						}
						genreIDs[name] = genre.ID
					}
					ids = append(ids, genreIDs[name])
				}

				key := sb.first + " " + sb.last
				if _, ok := authorIDs[key]; !ok {
					author := &models.Author{FirstName: sb.first, LastName: sb.last}
					if err := authorService.CreateAuthor(ctx, author); err != nil {
						return errors.WithStack(err)
					}
					authorIDs[key] = author.ID
				}
				authorID := authorIDs[key]

				book := &models.Book{
					Title:    sb.title,
					Summary:  "A demo copy of " + sb.title + ".",
					ISBN:     sb.isbn,
					AuthorID: &authorID,
				}
				if err := bookService.CreateBook(ctx, book, ids); err != nil {
					return errors.WithStack(err)
				}

				for i, status := range sb.statuses {
					instance := &models.BookInstance{
						BookID:  &book.ID,
						Imprint: "Demo Press, 2026",
						Status:  status,
					}
					if status == models.LoanStatusOnLoan {
						instance.DueBack = models.DatePtr(models.Today().AddDays(7 * (i + 1)))
					}
					if err := instanceService.CreateBookInstance(ctx, instance); err != nil {
						return errors.WithStack(err)
					}
					instances++
				}
			}

			log.Info("catalog seeded", logger.Data{
				"books":     len(seedBooks),
				"authors":   len(authorIDs),
				"genres":    len(genreIDs),
				"instances": instances,
			})
			return nil
		},
	}
}
