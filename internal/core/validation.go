// AngelaMos | 2026
// validation.go

package core

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

const minPasswordLength = 8

// NewValidator returns a validator with the project's custom tags
// registered: "slug" and "strongpassword".
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	//nolint:errcheck // tag names are static and valid
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return IsSlug(fl.Field().String())
	})

	//nolint:errcheck // tag names are static and valid
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})

	return v
}

// ParseID validates a path identifier before it reaches a uuid column.
func ParseID(name, value string) (string, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return "", ValidationError(name + " must be a valid UUID")
	}
	return id.String(), nil
}

func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// IsStrongPassword requires at least eight characters with one lowercase,
// one uppercase, one digit and one symbol.
func IsStrongPassword(s string) bool {
	if len(s) < minPasswordLength {
		return false
	}

	var lower, upper, digit, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}

	return lower && upper && digit && symbol
}

func FormatValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return "invalid request"
	}

	messages := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		messages = append(messages, formatFieldError(fe))
	}

	return strings.Join(messages, "; ")
}

func formatFieldError(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "eqfield":
		return "passwords do not match"
	case "slug":
		return fmt.Sprintf(
			"%s must contain only lowercase letters, numbers and hyphens",
			field,
		)
	case "strongpassword":
		return fmt.Sprintf(
			"%s must be at least 8 characters with upper and lower case letters, a number and a symbol",
			field,
		)
	case "uuid", "uuid4":
		return fmt.Sprintf("%s must be a valid UUID", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
