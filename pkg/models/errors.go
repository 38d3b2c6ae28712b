package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Error kinds. A *FieldError unwraps to one of these.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrConfiguration = errors.New("configuration error")
)

// FieldError reports a rejected value together with the field it came from.
type FieldError struct {
	Kind   error
	Field  string
	Value  any
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%v: %s=%v: %s", e.Kind, e.Field, e.Value, e.Reason)
}

func (e *FieldError) Unwrap() error { return e.Kind }

// InvalidInput builds a FieldError of kind ErrInvalidInput.
func InvalidInput(field string, value any, reason string) *FieldError {
	return &FieldError{Kind: ErrInvalidInput, Field: field, Value: value, Reason: reason}
}

// ConfigError builds a FieldError of kind ErrConfiguration.
func ConfigError(field string, value any, reason string) *FieldError {
	return &FieldError{Kind: ErrConfiguration, Field: field, Value: value, Reason: reason}
}

// ConfigErrors collects every configuration violation found in one pass.
type ConfigErrors struct {
	Errors []*FieldError
}

func (e *ConfigErrors) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fmt.Sprintf("%s=%v: %s", fe.Field, fe.Value, fe.Reason)
	}
	return fmt.Sprintf("config validation failed: %s", strings.Join(msgs, "; "))
}

// Add records a violation.
func (e *ConfigErrors) Add(field string, value any, reason string) {
	e.Errors = append(e.Errors, ConfigError(field, value, reason))
}

// Unwrap exposes each violation to errors.Is and errors.As.
func (e *ConfigErrors) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, fe := range e.Errors {
		errs[i] = fe
	}
	return errs
}

// Err returns nil when nothing was recorded.
func (e *ConfigErrors) Err() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// ValidateRecord rejects a record that no computation can accept.
func ValidateRecord(r UsageRecord) error {
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return InvalidInput("date", r.Date, "expected YYYY-MM-DD")
	}
	if !r.Department.Valid() {
		return InvalidInput("department", r.Department, "unknown department")
	}
	if r.Project == "" {
		return InvalidInput("project", r.Project, "must not be empty")
	}
	if !r.Vendor.Valid() {
		return InvalidInput("vendor", r.Vendor, "unknown vendor")
	}
	if r.GPUClass == "" {
		return InvalidInput("gpu_class", r.GPUClass, "must not be empty")
	}
	if r.Units < 0 || math.IsNaN(r.Units) {
		return InvalidInput("ncc", r.Units, "must be >= 0")
	}
	if r.Cost < 0 || math.IsNaN(r.Cost) {
		return InvalidInput("cost", r.Cost, "must be >= 0")
	}
	return nil
}

// ValidateRecords checks every record and reports the first offender by index.
func ValidateRecords(recs []UsageRecord) error {
	for i, r := range recs {
		if err := ValidateRecord(r); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return nil
}
