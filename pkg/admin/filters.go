package admin

import (
	"time"

	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
)

// Due date filter choices of the book instance list.
const (
	DueBackAny       = "any"
	DueBackToday     = "today"
	DueBackPast7Days = "past_7_days"
	DueBackThisMonth = "this_month"
	DueBackThisYear  = "this_year"
)

// DueBackRange turns a due date filter into an inclusive date range. A nil
// bound is open.
func DueBackRange(filter string, today models.Date) (from, to *models.Date, err error) {
	switch filter {
	case "", DueBackAny:
		return nil, nil, nil
	case DueBackToday:
		return models.DatePtr(today), models.DatePtr(today), nil
	case DueBackPast7Days:
		return models.DatePtr(today.AddDays(-7)), models.DatePtr(today), nil
	case DueBackThisMonth:
		first := models.NewDate(time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC))
		last := models.NewDate(first.Time.AddDate(0, 1, -1))
		return &first, &last, nil
	case DueBackThisYear:
		first := models.NewDate(time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC))
		last := models.NewDate(time.Date(today.Year(), time.December, 31, 0, 0, 0, 0, time.UTC))
		return &first, &last, nil
	default:
		return nil, nil, errcodes.FieldError("due_back", "Select a valid choice. "+filter+" is not one of the available choices.")
	}
}
