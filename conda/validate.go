package conda

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/dmora/condarun"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	v.RegisterStructValidation(updateRules, UpdateOptions{})
	return v
}

// updateRules requires packages unless every package is being updated.
func updateRules(sl validator.StructLevel) {
	o := sl.Current().Interface().(UpdateOptions)
	if len(o.Packages) == 0 && !o.All {
		sl.ReportError(o.Packages, "packages", "Packages", "required_without", "All")
	}
}

// check validates s and converts the first violation into a
// ValidationFailure for op.
func check(op string, s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &condarun.Error{Kind: condarun.KindValidationFailure, Op: op, Message: "invalid options", Err: err}
	}
	return &condarun.Error{Kind: condarun.KindValidationFailure, Op: op, Message: describe(verrs[0]), Err: err}
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	params := strings.Fields(fe.Param())
	for i, p := range params {
		params[i] = lowerFirst(p)
	}
	switch fe.Tag() {
	case "required_without":
		return fmt.Sprintf("either %s or %s required", field, strings.Join(params, ", "))
	case "required_without_all":
		return fmt.Sprintf("at least one of %s required", strings.Join(append([]string{field}, params...), ", "))
	case "excluded_with":
		return fmt.Sprintf("at most one of %s and %s allowed", field, strings.Join(params, ", "))
	case "min":
		return fmt.Sprintf("%s needs at least %s entry", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s %v not allowed, must be one of %s", field, fe.Value(), strings.Join(params, ", "))
	default:
		return fmt.Sprintf("%s failed %q check", field, fe.Tag())
	}
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
