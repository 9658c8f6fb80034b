// Package resumes runs the extract, build and persist pipeline for uploaded
// résumés and stores the resulting record on the user document.
package resumes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"jobassist-backend/internal/record"
	"jobassist-backend/internal/shared/apperr"
	"jobassist-backend/internal/shared/storage/docstore"
)

const (
	usersCollection = "users"

	// FieldParsedResume holds the latest structured record.
	FieldParsedResume = "parsed_resume"
	// FieldResumeData is the older name of the same field. It is read, never written.
	FieldResumeData = "resume_data"
)

// RecordStore persists structured records on users/{uid}.
type RecordStore struct {
	Store docstore.Store
	// Schema restores template field order on load when the stored record
	// matches it.
	Schema *record.Schema
}

func NewRecordStore(store docstore.Store, schema *record.Schema) *RecordStore {
	return &RecordStore{Store: store, Schema: schema}
}

// Save merge-writes the record into the parsed_resume field, leaving every
// other field of the user document untouched.
func (s *RecordStore) Save(ctx context.Context, userID string, rec *record.Record) error {
	if strings.TrimSpace(userID) == "" {
		return apperr.ErrNotAuthenticated
	}
	if s == nil || s.Store == nil {
		return apperr.ErrStoreUnavailable
	}
	if rec == nil {
		return fmt.Errorf("%w: record is required", apperr.ErrInvalidInput)
	}
	err := s.Store.MergeSet(ctx, usersCollection, userID, map[string]any{
		FieldParsedResume: rec.Map(),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrStoreUnavailable, err)
	}
	return nil
}

// Load returns the stored record, or apperr.ErrNotFound when the user has
// none.
func (s *RecordStore) Load(ctx context.Context, userID string) (*record.Record, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.ErrNotAuthenticated
	}
	if s == nil || s.Store == nil {
		return nil, apperr.ErrStoreUnavailable
	}
	doc, err := s.Store.Get(ctx, usersCollection, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%w: no stored resume", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %w", apperr.ErrStoreUnavailable, err)
	}

	raw, ok := doc[FieldParsedResume]
	if !ok || raw == nil {
		raw, ok = doc[FieldResumeData]
	}
	if !ok || raw == nil {
		return nil, fmt.Errorf("%w: no stored resume", apperr.ErrNotFound)
	}

	if s.Schema != nil {
		if rec, err := s.Schema.Coerce(raw); err == nil {
			return rec, nil
		}
	}
	rec, err := record.FromAny(raw)
	if err != nil {
		return nil, fmt.Errorf("decode stored resume: %w", err)
	}
	return rec, nil
}
