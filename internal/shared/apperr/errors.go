// Package apperr holds the error kinds shared across the parse pipeline and
// the user-facing features built around it.
package apperr

import "errors"

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrEmptyDocument     = errors.New("document contains no text")
	ErrExtractionFailure = errors.New("text extraction failed")
	ErrModelCallFailure  = errors.New("language model call failed")
	ErrSchemaViolation   = errors.New("model output does not match schema")
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrStoreUnavailable  = errors.New("record store unavailable")
	ErrConfiguration     = errors.New("configuration error")

	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("not found")
	ErrLimitReached          = errors.New("plan limit reached")
	ErrCheckoutNotConfigured = errors.New("checkout provider not configured")
)
