package binder

import (
	"reflect"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/stretchr/testify/assert"
)

type mockFieldError struct {
	tag   string
	field string
	param string
	value interface{}
	kind  reflect.Kind
}

func (e *mockFieldError) Error() string           { return "Mock Field Error" }
func (e *mockFieldError) Tag() string             { return e.tag }
func (e *mockFieldError) ActualTag() string       { return e.tag }
func (e *mockFieldError) Namespace() string       { return "" }
func (e *mockFieldError) StructNamespace() string { return "" }
func (e *mockFieldError) Field() string           { return e.field }
func (e *mockFieldError) StructField() string     { return "" }
func (e *mockFieldError) Value() interface{}      { return e.value }
func (e *mockFieldError) Param() string           { return e.param }
func (e *mockFieldError) Kind() reflect.Kind {
	if e.kind == 0 {
		return reflect.String
	}
	return e.kind
}
func (e *mockFieldError) Type() reflect.Type               { return reflect.TypeOf("") }
func (e *mockFieldError) Translate(_ ut.Translator) string { return "" }

func TestFormatValidationError(t *testing.T) {
	cases := []struct {
		tag   string
		param string
		value interface{}
		kind  reflect.Kind
		msg   string
	}{
		{required, "", "", 0, "This field is required."},
		{date, "", "2020-02-30", 0, "Enter a valid date."},
		{email, "", "nope", 0, "Enter a valid email address."},
		{loanStatus, "", "lost", 0, "Select a valid choice. lost is not one of the available choices."},
		{permission, "", "catalog.fly", 0, `Unknown permission "catalog.fly".`},
		{gt, "0", 0, reflect.Int, "Ensure this value is greater than 0."},
		{mx, "100", "", reflect.String, "Ensure this value has at most 100 characters."},
		{mx, "1", "", reflect.String, "Ensure this value has at most 1 character."},
		{mx, "50", 0, reflect.Int, "Ensure this value is less than or equal to 50."},
		{mn, "1", 0, reflect.Int, "Ensure this value is greater than or equal to 1."},
		{mn, "2", nil, reflect.Slice, "Ensure this value has at least 2 items."},
		{"foo", "", "", 0, "Enter a valid value."},
	}

	for _, tt := range cases {
		err := mockFieldError{tag: tt.tag, field: "multi_word", param: tt.param, value: tt.value, kind: tt.kind}
		msg := formatValidationError(&err)
		assert.Equal(t, tt.msg, msg, tt.tag)
	}
}
