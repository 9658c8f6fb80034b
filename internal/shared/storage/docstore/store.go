// Package docstore is a small schemaless document store: documents are JSON
// objects addressed by collection path and id. Writes merge top-level
// fields instead of replacing the document.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Document is one stored object.
type Document struct {
	ID   string
	Data map[string]any
}

// Store is implemented by the memory, Postgres and Redis backends. Get,
// Update and Delete return apperr.ErrNotFound for a missing document.
type Store interface {
	Get(ctx context.Context, collection, id string) (map[string]any, error)
	// MergeSet creates the document if needed and overwrites only the given
	// top-level fields.
	MergeSet(ctx context.Context, collection, id string, fields map[string]any) error
	// Update merges fields into an existing document.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	// List returns the documents of a collection in creation order.
	List(ctx context.Context, collection string) ([]Document, error)
	// Increment adds delta to a numeric field, creating document and field
	// as needed, and returns the new value.
	Increment(ctx context.Context, collection, id, field string, delta int64) (int64, error)
}

// Path joins collection and document segments: Path("users", uid,
// "applications") addresses the applications sub-collection of a user.
func Path(segments ...string) string {
	return strings.Join(segments, "/")
}

// normalizeFields converts values into their JSON form so every backend
// stores and returns the same types.
func normalizeFields(fields map[string]any) (map[string]any, error) {
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	out := make(map[string]any, len(fields))
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return out, nil
}

func validateKey(collection, id string) error {
	if strings.TrimSpace(collection) == "" {
		return fmt.Errorf("docstore: collection is required")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("docstore: document id is required")
	}
	return nil
}

// Int reads a numeric field stored through any backend.
func Int(v any) int64 {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int64:
		return t
	case float64:
		if math.IsNaN(t) {
			return 0
		}
		return int64(t)
	case json.Number:
		n, _ := t.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n
	default:
		return 0
	}
}

// String reads a string field, returning "" for anything else.
func String(v any) string {
	s, _ := v.(string)
	return s
}
