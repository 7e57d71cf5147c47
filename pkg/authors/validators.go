package authors

import (
	"github.com/locallibrary/catalog/pkg/models"
)

type ListAuthorsQuery struct {
	Page string `query:"page" json:"page" mod:"trim"`
}

// AuthorPayload is the author form. Dates are YYYY-MM-DD and may be left
// blank.
type AuthorPayload struct {
	FirstName   string `json:"first_name" form:"first_name" mod:"trim" validate:"required,max=100"`
	LastName    string `json:"last_name" form:"last_name" mod:"trim" validate:"required,max=100"`
	DateOfBirth string `json:"date_of_birth" form:"date_of_birth" mod:"trim" validate:"omitempty,date"`
	DateOfDeath string `json:"date_of_death" form:"date_of_death" mod:"trim" validate:"omitempty,date"`
}

// FormFields lists the author form fields in display order.
var FormFields = []string{"first_name", "last_name", "date_of_birth", "date_of_death"}

// Apply copies the payload onto author. The dates were validated by the
// binder.
func (p AuthorPayload) Apply(author *models.Author) error {
	born, err := models.ParseOptionalDate(p.DateOfBirth)
	if err != nil {
		return err
	}
	died, err := models.ParseOptionalDate(p.DateOfDeath)
	if err != nil {
		return err
	}
	author.FirstName = p.FirstName
	author.LastName = p.LastName
	author.DateOfBirth = born
	author.DateOfDeath = died
	return nil
}

// InitialFrom pre-fills the form with an existing author.
func InitialFrom(author *models.Author) AuthorPayload {
	return AuthorPayload{
		FirstName:   author.FirstName,
		LastName:    author.LastName,
		DateOfBirth: models.FormatOptionalDate(author.DateOfBirth),
		DateOfDeath: models.FormatOptionalDate(author.DateOfDeath),
	}
}
