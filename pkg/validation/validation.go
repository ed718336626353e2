package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"marriage-registry/pkg/certno"
	dErrors "marriage-registry/pkg/domain-errors"
)

var defaultValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("roman", func(fl validator.FieldLevel) bool {
		_, ok := certno.BookOrdinal(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("year4", func(fl validator.FieldLevel) bool {
		return certno.IsYear(fl.Field().String())
	})
	_ = v.RegisterValidation("segment", func(fl validator.FieldLevel) bool {
		return isSegment(fl.Field().String())
	})
	return v
}

// isSegment reports whether s can stand as one field of a hyphenated
// certificate number.
func isSegment(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r == '-' || unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

// Validate validates a struct and returns a CodeValidation domain error
// describing the first failing field.
func Validate(req any) error {
	if err := defaultValidator.Struct(req); err != nil {
		return dErrors.New(dErrors.CodeValidation, ErrorMessage(err))
	}
	return nil
}

// ErrorMessage converts a validator error into a human-readable message.
func ErrorMessage(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return "invalid request body"
	}

	fe := validationErrs[0]
	fieldName := fe.Field()
	if fieldName == "" {
		fieldName = fe.StructField()
	}
	field := toSnakeCase(fieldName)

	switch fe.ActualTag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "notblank":
		return fmt.Sprintf("%s must not be blank", field)
	case "roman":
		return fmt.Sprintf("%s must be a book numeral between I and L", field)
	case "year4":
		return fmt.Sprintf("%s must be a four digit year", field)
	case "alpha":
		return fmt.Sprintf("%s must contain letters only", field)
	case "segment":
		return fmt.Sprintf("%s must not contain hyphens or spaces", field)
	default:
		if field == "" {
			return "invalid request body"
		}
		return fmt.Sprintf("%s is invalid", field)
	}
}

func toSnakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 &&
			(unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
