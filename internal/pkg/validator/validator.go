// Package validator wraps go-playground/validator with a package-level
// instance and readable, joined error messages.
//
// Struct fields are validated through `validate` tags; single values through
// Var. Every failure chain starts with ErrValidationFailed so callers can
// detect it with errors.Is.
package validator

import (
	"errors"
	"fmt"

	gvalidator "github.com/go-playground/validator/v10"
)

// ErrValidationFailed heads every validation error chain.
var ErrValidationFailed = errors.New("validation failed")

// errStringFormat renders one field failure.
//
// Example: "'Address': value '0x' does not meet the requirements for the 'eth_addr' validation"
const errStringFormat = "'%s': value '%v' does not meet the requirements for the '%s' validation"

var validator = gvalidator.New(gvalidator.WithRequiredStructEnabled())

// formatError joins ErrValidationFailed with one message per failing field.
// Errors that are not validation errors are returned unchanged.
func formatError(name string, err error) error {
	var validationErrors gvalidator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	errs := []error{ErrValidationFailed}
	for _, validationErr := range validationErrors {
		field := validationErr.Field()
		if field == "" {
			field = name
		}

		errs = append(errs, fmt.Errorf(errStringFormat, field, validationErr.Value(), validationErr.Tag()))
	}

	return errors.Join(errs...)
}

// Validate checks v against its struct tags.
func Validate(v any) error {
	if err := validator.Struct(v); err != nil {
		return formatError("", err)
	}
	return nil
}

// Var checks a single value against tag (e.g. "omitempty,eth_addr"). name
// labels the value in the resulting error message.
func Var(name string, value any, tag string) error {
	if err := validator.Var(value, tag); err != nil {
		return formatError(name, err)
	}
	return nil
}
