package parser

import (
	"errors"
	"fmt"

	"jobassist-backend/internal/shared/apperr"
)

// ErrUnterminatedFence reports an opening code fence with no closing marker.
var ErrUnterminatedFence = errors.New("code fence not terminated")

// SchemaViolationError carries the raw model payload that failed to parse or
// validate. It matches apperr.ErrSchemaViolation under errors.Is.
type SchemaViolationError struct {
	Raw    string
	Reason string
	Err    error
}

func (e *SchemaViolationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", apperr.ErrSchemaViolation, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", apperr.ErrSchemaViolation, e.Reason, e.Err)
}

func (e *SchemaViolationError) Unwrap() []error {
	if e.Err == nil {
		return []error{apperr.ErrSchemaViolation}
	}
	return []error{apperr.ErrSchemaViolation, e.Err}
}

func violation(raw, reason string, err error) error {
	return &SchemaViolationError{Raw: raw, Reason: reason, Err: err}
}

// RawPayload returns the model output that failed.
func (e *SchemaViolationError) RawPayload() string { return e.Raw }
