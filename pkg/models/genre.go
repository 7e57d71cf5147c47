package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Genre struct {
	bun.BaseModel `bun:"table:genres,alias:g"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `bun:",notnull" json:"name"`
	BookCount int       `bun:",scanonly" json:"book_count,omitempty"`
}

func (g *Genre) String() string {
	return g.Name
}

type BookGenre struct {
	bun.BaseModel `bun:"table:book_genres,alias:bg"`

	ID      int    `bun:",pk,nullzero" json:"id"`
	BookID  int    `bun:",notnull" json:"book_id"`
	GenreID int    `bun:",notnull" json:"genre_id"`
	Genre   *Genre `bun:"rel:belongs-to,join:genre_id=id" json:"genre,omitempty"`
}
