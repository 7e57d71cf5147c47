package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Loan statuses.
const (
	LoanStatusMaintenance = "maintenance"
	LoanStatusOnLoan      = "on_loan"
	LoanStatusAvailable   = "available"
	LoanStatusReserved    = "reserved"
)

// LoanStatuses lists every valid status in display order.
var LoanStatuses = []string{
	LoanStatusMaintenance,
	LoanStatusOnLoan,
	LoanStatusAvailable,
	LoanStatusReserved,
}

var loanStatusLabels = map[string]string{
	LoanStatusMaintenance: "Maintenance",
	LoanStatusOnLoan:      "On loan",
	LoanStatusAvailable:   "Available",
	LoanStatusReserved:    "Reserved",
}

// IsValidLoanStatus reports whether status is one of LoanStatuses.
func IsValidLoanStatus(status string) bool {
	_, ok := loanStatusLabels[status]
	return ok
}

// LoanStatusLabel returns the human readable label of a status.
func LoanStatusLabel(status string) string {
	return loanStatusLabels[status]
}

type BookInstance struct {
	bun.BaseModel `bun:"table:book_instances,alias:bi"`

	ID         uuid.UUID `bun:",pk,type:text" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	BookID     *int      `json:"book_id"`
	Imprint    string    `bun:",notnull" json:"imprint"`
	DueBack    *Date     `json:"due_back"`
	Status     string    `bun:",notnull" json:"status"`
	BorrowerID *int      `json:"borrower_id"`

	// Relations
	Book     *Book `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty"`
	Borrower *User `bun:"rel:belongs-to,join:borrower_id=id" json:"borrower,omitempty"`
}

func (bi *BookInstance) String() string {
	title := ""
	if bi.Book != nil {
		title = bi.Book.Title
	}
	return fmt.Sprintf("%s (%s)", bi.ID, title)
}

// IsOverdue reports whether the due date has passed.
func (bi *BookInstance) IsOverdue() bool {
	return bi.IsOverdueAt(Today())
}

// IsOverdueAt reports whether the due date is strictly before today.
func (bi *BookInstance) IsOverdueAt(today Date) bool {
	return bi.DueBack != nil && bi.DueBack.Before(today)
}

func (bi *BookInstance) StatusLabel() string {
	return LoanStatusLabel(bi.Status)
}
