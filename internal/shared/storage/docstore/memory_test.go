package docstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobassist-backend/internal/shared/apperr"
)

func TestMemoryStoreMergeSetKeepsOtherFields(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.MergeSet(ctx, "users", "u1", map[string]any{"a": 1}))
	require.NoError(t, s.MergeSet(ctx, "users", "u1", map[string]any{"b": 2}))

	got, err := s.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1), "b": float64(2)}, got)
	assert.Equal(t, 2, s.Writes())
}

func TestMemoryStoreMergeSetReplacesTopLevelValue(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.MergeSet(ctx, "users", "u1", map[string]any{
		"parsed_resume": map[string]any{"name": "old", "email": "old@example.com"},
	}))
	require.NoError(t, s.MergeSet(ctx, "users", "u1", map[string]any{
		"parsed_resume": map[string]any{"name": "new"},
	}))

	got, err := s.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "new"}, got["parsed_resume"])
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.MergeSet(ctx, "c", "id", map[string]any{"k": "v"}))

	got, err := s.Get(ctx, "c", "id")
	require.NoError(t, err)
	got["k"] = "mutated"

	again, err := s.Get(ctx, "c", "id")
	require.NoError(t, err)
	assert.Equal(t, "v", again["k"])
}

func TestMemoryStoreMissingDocument(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, "c", "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	assert.True(t, errors.Is(s.Update(ctx, "c", "missing", map[string]any{"x": 1}), apperr.ErrNotFound))
	assert.True(t, errors.Is(s.Delete(ctx, "c", "missing"), apperr.ErrNotFound))
	assert.Equal(t, 0, s.Writes())
}

func TestMemoryStoreListInCreationOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	col := Path("users", "u1", "applications")

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, s.MergeSet(ctx, col, id, map[string]any{"id": id}))
	}
	require.NoError(t, s.Update(ctx, col, "c", map[string]any{"status": "Rejected"}))
	require.NoError(t, s.Delete(ctx, col, "a"))

	docs, err := s.List(ctx, col)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "c", docs[0].ID)
	assert.Equal(t, "Rejected", docs[0].Data["status"])
	assert.Equal(t, "b", docs[1].ID)

	other, err := s.List(ctx, "users/u2/applications")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestMemoryStoreIncrementConcurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Increment(ctx, "users", "u1", "applications_count", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := s.Increment(ctx, "users", "u1", "applications_count", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(20), n)

	got, err := s.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(20), Int(got["applications_count"]))
}

func TestMemoryStoreRejectsBlankKeys(t *testing.T) {
	s := NewMemoryStore()
	assert.Error(t, s.MergeSet(context.Background(), "", "id", map[string]any{"x": 1}))
	assert.Error(t, s.MergeSet(context.Background(), "c", " ", map[string]any{"x": 1}))
}

func TestMemoryStoreCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemoryStore()
	assert.ErrorIs(t, s.MergeSet(ctx, "c", "id", map[string]any{"x": 1}), context.Canceled)
}

func TestPathAndInt(t *testing.T) {
	assert.Equal(t, "users/u1/applications", Path("users", "u1", "applications"))
	assert.Equal(t, int64(3), Int(float64(3)))
	assert.Equal(t, int64(7), Int("7"))
	assert.Equal(t, int64(0), Int(nil))
	assert.Equal(t, "x", String("x"))
	assert.Equal(t, "", String(3))
}
