package binder

import (
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/locallibrary/catalog/pkg/models"
)

var dateRE = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])-(0[1-9]|[12][0-9]|3[01])$`)

// dateValidator accepts YYYY-MM-DD or the empty string, so that optional
// dates can be cleared. Pair it with `required` when a value is needed.
func dateValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	if !dateRE.MatchString(value) {
		return false
	}
	_, err := models.ParseDate(value)
	return err == nil
}

func loanStatusValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.IsValidLoanStatus(value)
}

func permissionValidator(fl validator.FieldLevel) bool {
	return models.IsValidPermission(fl.Field().String())
}
