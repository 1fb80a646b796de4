package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// MaxPasswordBytes is the longest password bcrypt can hash
const MaxPasswordBytes = 72

// FieldError describes one rejected request field
type FieldError struct {
	Param   string `json:"param"`
	Message string `json:"message,omitempty"`
}

// ErrorsPayload is the body of validation and conflict responses
type ErrorsPayload struct {
	Errors []FieldError `json:"errors"`
}

// ValidationError wraps validation errors with structured details.
// Fields keep the declaration order of the validated struct.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	params := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		params = append(params, f.Param)
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(params, ", "))
}

// Payload returns the response body for e
func (e *ValidationError) Payload() ErrorsPayload {
	return ErrorsPayload{Errors: e.Fields}
}

// Validator checks request payloads with go-playground/validator.
// The "password" tag enforces the configured minimum length and bcrypt's maximum.
type Validator struct {
	validate          *validator.Validate
	minPasswordLength int
}

// NewValidator creates a validator with the given minimum password length
func NewValidator(minPasswordLength int) *Validator {
	v := &Validator{
		validate:          validator.New(validator.WithRequiredStructEnabled()),
		minPasswordLength: minPasswordLength,
	}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// registration on a fresh instance with a non-empty tag cannot fail
	_ = v.validate.RegisterValidation("password", v.validPassword)

	return v
}

// MinPasswordLength returns the configured minimum password length
func (v *Validator) MinPasswordLength() int {
	return v.minPasswordLength
}

func (v *Validator) validPassword(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return utf8.RuneCountInString(s) >= v.minPasswordLength && len(s) <= MaxPasswordBytes
}

// Struct validates s and returns a *ValidationError describing every failed field
func (v *Validator) Struct(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return v.newValidationError(validationErrors)
		}
		return err
	}
	return nil
}

func (v *Validator) newValidationError(errs validator.ValidationErrors) *ValidationError {
	fields := make([]FieldError, 0, len(errs))
	seen := make(map[string]bool, len(errs))

	for _, err := range errs {
		field := err.Field()
		if seen[field] {
			continue
		}
		seen[field] = true

		var msg string
		switch err.Tag() {
		case "required":
			msg = fmt.Sprintf("%s is required", field)
		case "email":
			msg = fmt.Sprintf("%s must be a valid email", field)
		case "min":
			msg = fmt.Sprintf("%s must be at least %s characters", field, err.Param())
		case "max":
			msg = fmt.Sprintf("%s must be at most %s characters", field, err.Param())
		case "password":
			msg = fmt.Sprintf("%s must be between %d characters and %d bytes", field, v.minPasswordLength, MaxPasswordBytes)
		default:
			msg = fmt.Sprintf("%s validation failed on '%s' tag", field, err.Tag())
		}

		fields = append(fields, FieldError{Param: field, Message: msg})
	}

	return &ValidationError{
		Message: "Validation failed",
		Fields:  fields,
	}
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// GetValidationFields extracts field errors from a ValidationError
func GetValidationFields(err error) []FieldError {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Fields
	}
	return nil
}

// TrimString removes surrounding whitespace
func TrimString(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeEmail trims and lower-cases an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
