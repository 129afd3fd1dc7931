// internal/utils/errors.go
package utils

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a single field-level validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of field-level validation failures.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	errorString := "validation errors: "
	for _, err := range ve {
		errorString += fmt.Sprintf("[%s: %s] ", err.Field, err.Message)
	}
	return errorString
}

// HandleValidationError converts validator.ValidationErrors into
// ValidationErrors, one field-level message per failed tag.
func HandleValidationError(verr validator.ValidationErrors) ValidationErrors {
	validationErrors := make(ValidationErrors, len(verr))
	for i, fieldError := range verr {
		validationErrors[i] = ValidationError{
			Field:   fieldError.Field(),
			Message: validationErrorMessage(fieldError),
		}
	}
	return validationErrors
}

func validationErrorMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "This field is required and cannot be empty."
	case "min":
		return fmt.Sprintf("Must be at least %s characters long.", fieldErr.Param())
	case "max":
		return fmt.Sprintf("Cannot exceed %s characters.", fieldErr.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s.", fieldErr.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s.", fieldErr.Param())
	case "lt":
		return fmt.Sprintf("Must be less than %s.", fieldErr.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s.", fieldErr.Param())
	case "uuid":
		return "Must be a valid UUID (Universally Unique Identifier)."
	case "oneof":
		return fmt.Sprintf("Must be one of: %s.", fieldErr.Param())
	default:
		return fmt.Sprintf("Value is invalid for field '%s'.", fieldErr.Field())
	}
}

// Wrap adds context to an existing error.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds context to an existing error, using printf-style formatting.
func Wrapf(err error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// As allows checking for a specific error type in an error chain.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Is allows checking if an error matches a specific error value.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
