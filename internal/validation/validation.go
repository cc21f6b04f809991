// Package validation evaluates field rules against request payloads and maps
// failures onto user-facing messages. Rule evaluation is delegated to
// go-playground/validator, the same engine behind gin's binding tags.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/platewise/backend/internal/apperrors"
)

// FieldError is one rejected field with its user-facing message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator evaluates struct and single-value rules.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator using json tag names in messages.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Struct validates s and returns a Validation-kind error describing every
// failed field, or nil.
func (val *Validator) Struct(s interface{}) *apperrors.AppError {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidation(err.Error(), "Please check your input and try again.")
	}

	fields := make([]FieldError, 0, len(verrs))
	var parts []string
	for _, fe := range verrs {
		msg := messageFor(fe)
		fields = append(fields, FieldError{Field: fe.Field(), Message: msg})
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), msg))
	}

	appErr := apperrors.NewValidation(strings.Join(parts, "; "), fields[0].Message)
	return appErr.WithContext("fields", fields)
}

// Var validates a single value against a rule string such as
// "required,min=1" and returns a FieldError or nil.
func (val *Validator) Var(field string, value interface{}, rules string) *FieldError {
	err := val.v.Var(value, rules)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &FieldError{Field: field, Message: messageFor(verrs[0])}
	}
	return &FieldError{Field: field, Message: "is invalid"}
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("must be %s or more", fe.Param())
	case "url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}
