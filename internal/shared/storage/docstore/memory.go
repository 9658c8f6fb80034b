package docstore

import (
	"context"
	"sort"
	"sync"

	"jobassist-backend/internal/shared/apperr"
)

type memoryDoc struct {
	seq  uint64
	data map[string]any
}

// MemoryStore keeps documents in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	seq         uint64
	collections map[string]map[string]*memoryDoc
	writes      int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]*memoryDoc)}
}

// Writes reports how many successful writes the store has accepted.
func (s *MemoryStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return copyMap(doc.data), nil
}

func (s *MemoryStore) MergeSet(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateKey(collection, id); err != nil {
		return err
	}
	normalized, err := normalizeFields(fields)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.docLocked(collection, id, true)
	for k, v := range normalized {
		doc.data[k] = v
	}
	s.writes++
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	normalized, err := normalizeFields(fields)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.docLocked(collection, id, false)
	if doc == nil {
		return apperr.ErrNotFound
	}
	for k, v := range normalized {
		doc.data[k] = v
	}
	s.writes++
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.collections[collection]
	if _, ok := docs[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(docs, id)
	s.writes++
	return nil
}

func (s *MemoryStore) List(ctx context.Context, collection string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	type entry struct {
		id  string
		doc *memoryDoc
	}
	entries := make([]entry, 0, len(s.collections[collection]))
	for id, doc := range s.collections[collection] {
		entries = append(entries, entry{id: id, doc: doc})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].doc.seq < entries[j].doc.seq })
	out := make([]Document, 0, len(entries))
	for _, e := range entries {
		out = append(out, Document{ID: e.id, Data: copyMap(e.doc.data)})
	}
	s.mu.RUnlock()
	return out, nil
}

func (s *MemoryStore) Increment(ctx context.Context, collection, id, field string, delta int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := validateKey(collection, id); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.docLocked(collection, id, true)
	next := Int(doc.data[field]) + delta
	doc.data[field] = float64(next)
	s.writes++
	return next, nil
}

func (s *MemoryStore) docLocked(collection, id string, create bool) *memoryDoc {
	docs, ok := s.collections[collection]
	if !ok {
		if !create {
			return nil
		}
		docs = make(map[string]*memoryDoc)
		s.collections[collection] = docs
	}
	doc, ok := docs[id]
	if !ok {
		if !create {
			return nil
		}
		s.seq++
		doc = &memoryDoc{seq: s.seq, data: make(map[string]any)}
		docs[id] = doc
	}
	return doc
}

func copyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
