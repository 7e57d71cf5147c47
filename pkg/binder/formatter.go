package binder

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"github.com/segmentio/encoding/json"
)

const (
	date       = "date"
	email      = "email"
	loanStatus = "loan_status"
	mx         = "max"
	mn         = "min"
	oneof      = "oneof"
	permission = "permission"
	required   = "required"
	gt         = "gt"

	invalidValue = "Enter a valid value."
)

func formatUnmarshalTypeError(err *json.UnmarshalTypeError) string {
	return fmt.Sprintf("%q should be of type %s", strings.Trim(err.Field, "."), err.Type)
}

func formatSchemaConversionError(err schema.ConversionError) string {
	switch err.Type.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "Enter a whole number."
	case reflect.Bool:
		return "Enter true or false."
	default:
		return invalidValue
	}
}

// formatValidationError renders one failed rule the way a form would show it
// next to the field.
func formatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case required:
		return "This field is required."
	case date:
		return "Enter a valid date."
	case email:
		return "Enter a valid email address."
	case loanStatus, oneof:
		return fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", err.Value())
	case permission:
		return fmt.Sprintf("Unknown permission %q.", err.Value())
	case gt:
		return fmt.Sprintf("Ensure this value is greater than %s.", err.Param())
	case mx:
		if isNumeric(err.Kind()) {
			return fmt.Sprintf("Ensure this value is less than or equal to %s.", err.Param())
		}
		return fmt.Sprintf("Ensure this value has at most %s %s.", err.Param(), plural(err.Param(), unit(err.Kind())))
	case mn:
		if isNumeric(err.Kind()) {
			return fmt.Sprintf("Ensure this value is greater than or equal to %s.", err.Param())
		}
		return fmt.Sprintf("Ensure this value has at least %s %s.", err.Param(), plural(err.Param(), unit(err.Kind())))
	default:
		return invalidValue
	}
}

func isNumeric(kind reflect.Kind) bool {
	//exhaustive:ignore
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func unit(kind reflect.Kind) string {
	if kind == reflect.Slice {
		return "item"
	}
	return "character"
}

func plural(count, noun string) string {
	if count == "1" {
		return noun
	}
	return noun + "s"
}
