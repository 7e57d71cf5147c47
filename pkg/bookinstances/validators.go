package bookinstances

import (
	"fmt"

	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
)

type ListLoansQuery struct {
	Page string `query:"page" json:"page" mod:"trim"`
}

// RenewalPayload is the renewal form.
type RenewalPayload struct {
	DueBack string `json:"due_back" form:"due_back" mod:"trim" validate:"required,date"`
}

// RenewalPolicy bounds how far a loan may be extended.
type RenewalPolicy struct {
	ProposedDays int
	MaxDays      int
}

// Proposed is the due date suggested on the renewal form.
func (p RenewalPolicy) Proposed(today models.Date) models.Date {
	return today.AddDays(p.ProposedDays)
}

// Check accepts dates from today up to MaxDays ahead, both inclusive.
func (p RenewalPolicy) Check(dueBack, today models.Date) error {
	if dueBack.Before(today) {
		return errcodes.FieldError("due_back", "Invalid date - renewal in past")
	}
	if dueBack.After(today.AddDays(p.MaxDays)) {
		return errcodes.FieldError("due_back", fmt.Sprintf("Invalid date - renewal more than %d weeks ahead", p.MaxDays/7))
	}
	return nil
}

// Response is a book copy with its derived display fields.
type Response struct {
	*models.BookInstance
	StatusLabel string `json:"status_label"`
	IsOverdue   bool   `json:"is_overdue"`
	Label       string `json:"label"`
}

func NewResponse(bi *models.BookInstance) Response {
	return Response{
		BookInstance: bi,
		StatusLabel:  bi.StatusLabel(),
		IsOverdue:    bi.IsOverdue(),
		Label:        bi.String(),
	}
}

func NewResponses(instances []*models.BookInstance) []Response {
	out := make([]Response, len(instances))
	for i, bi := range instances {
		out[i] = NewResponse(bi)
	}
	return out
}
