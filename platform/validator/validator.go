// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the go-playground validator for structured validation.
// Using a struct allows for dependency injection and easier testing.
type Validator struct {
	v *validator.Validate
}

// New creates a new Validator instance with the clinic's custom tags
// registered. The "shift" tag accepts the fixed set of work-shift labels.
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("shift", validShift)
	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

func validShift(fl validator.FieldLevel) bool {
	switch strings.TrimSpace(fl.Field().String()) {
	case "morning", "afternoon", "evening":
		return true
	}
	return false
}
