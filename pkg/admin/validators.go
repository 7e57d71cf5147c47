package admin

import (
	"github.com/locallibrary/catalog/pkg/bookinstances"
	"github.com/locallibrary/catalog/pkg/books"
	"github.com/locallibrary/catalog/pkg/models"
)

type ListQuery struct {
	Page string `query:"page" json:"page" mod:"trim"`
}

type ListBooksQuery struct {
	Page     string `query:"page" json:"page" mod:"trim"`
	AuthorID *int   `query:"author_id" json:"author_id"`
	GenreID  *int   `query:"genre_id" json:"genre_id"`
}

type ListBookInstancesQuery struct {
	Page    string `query:"page" json:"page" mod:"trim"`
	Status  string `query:"status" json:"status" mod:"trim" validate:"omitempty,loan_status"`
	DueBack string `query:"due_back" json:"due_back" mod:"trim" validate:"omitempty,oneof=any today past_7_days this_month this_year"`
}

// BookInstancePayload is the administrative form of a book copy. Every field
// is written on update.
type BookInstancePayload struct {
	BookID     *int   `json:"book_id" form:"book_id"`
	Imprint    string `json:"imprint" form:"imprint" mod:"trim" validate:"required,max=200"`
	DueBack    string `json:"due_back" form:"due_back" mod:"trim" validate:"omitempty,date"`
	Status     string `json:"status" form:"status" mod:"trim" default:"maintenance" validate:"required,loan_status"`
	BorrowerID *int   `json:"borrower_id" form:"borrower_id"`
}

// Apply copies the payload onto instance.
func (p BookInstancePayload) Apply(instance *models.BookInstance) error {
	dueBack, err := models.ParseOptionalDate(p.DueBack)
	if err != nil {
		return err
	}
	instance.BookID = p.BookID
	instance.Imprint = p.Imprint
	instance.DueBack = dueBack
	instance.Status = p.Status
	instance.BorrowerID = p.BorrowerID
	return nil
}

// authorRow is an author line of the admin list.
type authorRow struct {
	ID                int            `json:"id"`
	DisplayAuthorName string         `json:"display_author_name"`
	DateOfBirth       *models.Date   `json:"date_of_birth"`
	DateOfDeath       *models.Date   `json:"date_of_death"`
	Books             []*models.Book `json:"books"`
}

func newAuthorRow(a *models.Author) authorRow {
	b := a.Books
	if b == nil {
		b = []*models.Book{}
	}
	return authorRow{
		ID:                a.ID,
		DisplayAuthorName: a.DisplayName(),
		DateOfBirth:       a.DateOfBirth,
		DateOfDeath:       a.DateOfDeath,
		Books:             b,
	}
}

// bookRow is a book line of the admin list.
type bookRow struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	DisplayGenre string `json:"display_genre"`
}

func newBookRow(b *models.Book) bookRow {
	row := bookRow{ID: b.ID, Title: b.Title, DisplayGenre: b.DisplayGenre()}
	if b.Author != nil {
		row.Author = b.Author.String()
	}
	return row
}

// bookDetail is a book with its copies inlined.
type bookDetail struct {
	books.Response
	Instances []bookinstances.Response `json:"instances"`
}

// instanceRow is a book instance line of the admin list.
type instanceRow struct {
	bookinstances.Response
	BookTitle string `json:"book_title"`
}

func newInstanceRow(bi *models.BookInstance) instanceRow {
	row := instanceRow{Response: bookinstances.NewResponse(bi)}
	if bi.Book != nil {
		row.BookTitle = bi.Book.Title
	}
	return row
}
