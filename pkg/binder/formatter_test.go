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
	kind  reflect.Kind
}

func (e *mockFieldError) Error() string           { return "Mock Field Error" }
func (e *mockFieldError) Tag() string             { return e.tag }
func (e *mockFieldError) ActualTag() string       { return e.tag }
func (e *mockFieldError) Namespace() string       { return "" }
func (e *mockFieldError) StructNamespace() string { return "" }
func (e *mockFieldError) Field() string           { return e.field }
func (e *mockFieldError) StructField() string     { return "" }
func (e *mockFieldError) Value() interface{}      { return "" }
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
	t.Parallel()

	cases := []struct {
		tag   string
		param string
		kind  reflect.Kind
		msg   string
	}{
		{mx, "100", reflect.String, `"title" length must be less than or equal to 100 characters`},
		{mx, "1", reflect.String, `"title" length must be less than or equal to 1 character`},
		{mn, "1", reflect.String, `"title" length must be greater than or equal to 1 character`},
		{mx, "1000000", reflect.Int, `"title" must be less than or equal to 1000000`},
		{mn, "0", reflect.Int, `"title" must be greater than or equal to 0`},
		{gte, "0", reflect.Int, `"title" must be greater than or equal to 0`},
		{lte, "10", reflect.Int, `"title" must be less than or equal to 10`},
		{mn, "1", reflect.Slice, `"title" length must be greater than or equal to 1 element`},
		{mx, "50", reflect.Slice, `"title" length must be less than or equal to 50 elements`},
		{oneof, "asc desc", 0, `"title" must be one of the following: "asc", "desc"`},
		{required, "", 0, `"title" is required`},
		{httpURL, "", 0, `"title" must be a valid URL`},
		{categoryName, "", 0, `"title" may only contain letters, numbers, spaces and - _ . ,`},
		{"uuid4", "", 0, `"title" is invalid`},
	}

	for _, tt := range cases {
		err := mockFieldError{tag: tt.tag, field: "title", param: tt.param, kind: tt.kind}
		assert.Equal(t, tt.msg, formatValidationError(&err))
	}
}
