package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// displayGenreLimit is how many genre names DisplayGenre joins together.
const displayGenreLimit = 3

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID         int       `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Title      string    `bun:",notnull" json:"title"`
	TitleLower string    `bun:",notnull" json:"-"`
	Summary    string    `bun:",notnull" json:"summary"`
	ISBN       string    `bun:"isbn,notnull" json:"isbn"`
	AuthorID   *int      `json:"author_id"`

	// Relations
	Author     *Author         `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
	BookGenres []*BookGenre    `bun:"rel:has-many,join:id=book_id" json:"-"`
	Instances  []*BookInstance `bun:"rel:has-many,join:id=book_id" json:"instances,omitempty"`
}

func (b *Book) String() string {
	return b.Title
}

func (b *Book) URL() string {
	return fmt.Sprintf("/catalog/book/%d", b.ID)
}

// Genres returns the loaded genres in association order. BookGenres must be
// loaded with its Genre relation.
func (b *Book) Genres() []*Genre {
	genres := make([]*Genre, 0, len(b.BookGenres))
	for _, bg := range b.BookGenres {
		if bg.Genre != nil {
			genres = append(genres, bg.Genre)
		}
	}
	return genres
}

// DisplayGenre joins up to the first three genre names.
func (b *Book) DisplayGenre() string {
	genres := b.Genres()
	if len(genres) > displayGenreLimit {
		genres = genres[:displayGenreLimit]
	}
	names := make([]string, len(genres))
	for i, g := range genres {
		names[i] = g.Name
	}
	return strings.Join(names, ", ")
}

// NormalizeTitle keeps TitleLower in sync with Title. It has to be called
// before every insert or title update.
func (b *Book) NormalizeTitle() {
	b.Title = strings.TrimSpace(b.Title)
	b.TitleLower = strings.ToLower(b.Title)
}
