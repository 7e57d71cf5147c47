package models

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

type Author struct {
	bun.BaseModel `bun:"table:authors,alias:a"`

	ID          int       `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	FirstName   string    `bun:",notnull" json:"first_name"`
	LastName    string    `bun:",notnull" json:"last_name"`
	DateOfBirth *Date     `json:"date_of_birth"`
	DateOfDeath *Date     `json:"date_of_death"`

	// Relations
	Books []*Book `bun:"rel:has-many,join:id=author_id" json:"books,omitempty"`
}

// String renders the author the way they're listed in the catalog: last name
// first.
func (a *Author) String() string {
	return fmt.Sprintf("%s %s", a.LastName, a.FirstName)
}

// DisplayName is the admin list column for authors.
func (a *Author) DisplayName() string {
	return a.String()
}

func (a *Author) URL() string {
	return fmt.Sprintf("/catalog/author/%d", a.ID)
}
