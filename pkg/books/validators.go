package books

import (
	"github.com/locallibrary/catalog/pkg/models"
)

type ListBooksQuery struct {
	Page string `query:"page" json:"page" mod:"trim"`
}

// BookPayload is the book form.
type BookPayload struct {
	Title    string `json:"title" form:"title" mod:"trim" validate:"required,max=200"`
	AuthorID *int   `json:"author_id" form:"author_id" validate:"required"`
	Summary  string `json:"summary" form:"summary" mod:"trim" validate:"required,max=1000"`
	ISBN     string `json:"isbn" form:"isbn" mod:"trim" validate:"required,max=13"`
	GenreIDs []int  `json:"genre_ids" form:"genre_ids" validate:"required,min=1,dive,gt=0"`
}

// FormFields lists the book form fields in display order.
var FormFields = []string{"title", "author_id", "summary", "isbn", "genre_ids"}

// Apply copies the payload onto book.
func (p BookPayload) Apply(book *models.Book) {
	book.Title = p.Title
	book.AuthorID = p.AuthorID
	book.Summary = p.Summary
	book.ISBN = p.ISBN
}

// InitialFrom pre-fills the form with an existing book. Genres must be
// loaded.
func InitialFrom(book *models.Book) BookPayload {
	genres := book.Genres()
	ids := make([]int, len(genres))
	for i, g := range genres {
		ids[i] = g.ID
	}
	return BookPayload{
		Title:    book.Title,
		AuthorID: book.AuthorID,
		Summary:  book.Summary,
		ISBN:     book.ISBN,
		GenreIDs: ids,
	}
}

// Response is a book as the catalog pages show it.
type Response struct {
	*models.Book
	Genres       []*models.Genre `json:"genres"`
	DisplayGenre string          `json:"display_genre"`
	URL          string          `json:"url"`
}

func NewResponse(book *models.Book) Response {
	return Response{
		Book:         book,
		Genres:       book.Genres(),
		DisplayGenre: book.DisplayGenre(),
		URL:          book.URL(),
	}
}

func NewResponses(books []*models.Book) []Response {
	out := make([]Response, len(books))
	for i, b := range books {
		out[i] = NewResponse(b)
	}
	return out
}
