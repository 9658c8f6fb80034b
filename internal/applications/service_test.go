package applications

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobassist-backend/internal/billing"
	"jobassist-backend/internal/shared/apperr"
	"jobassist-backend/internal/shared/storage/docstore"
)

func newTestService(t *testing.T) (*Service, *docstore.MemoryStore) {
	t.Helper()
	mem := docstore.NewMemoryStore()
	svc := NewService(mem, billing.NewService(mem, nil))
	svc.now = func() time.Time { return time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC) }
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("app-%02d", seq)
	}
	return svc, mem
}

func TestAddDefaultsStatusAndDate(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()

	app, err := svc.Add(ctx, "u1", NewApplication{Company: " Acme ", Position: "Engineer"})
	require.NoError(t, err)
	assert.Equal(t, "app-01", app.ID)
	assert.Equal(t, "Acme", app.Company)
	assert.Equal(t, StatusApplied, app.Status)
	assert.Equal(t, "2026-03-04", app.Date)

	user, err := mem.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), docstore.Int(user["applications_count"]))

	got, err := svc.Get(ctx, "u1", app.ID)
	require.NoError(t, err)
	assert.Equal(t, app.Company, got.Company)
	assert.True(t, got.CreatedAt.Equal(app.CreatedAt))
}

func TestAddValidation(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()

	cases := map[string]NewApplication{
		"missing company":  {Position: "Engineer"},
		"missing position": {Company: "Acme"},
		"bad status":       {Company: "Acme", Position: "Engineer", Status: "Ghosted"},
		"bad date":         {Company: "Acme", Position: "Engineer", Date: "03/04/2026"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Add(ctx, "u1", in)
			assert.True(t, errors.Is(err, apperr.ErrInvalidInput), err)
		})
	}
	assert.Equal(t, 0, mem.Writes())
}

func TestAddRequiresUser(t *testing.T) {
	svc, mem := newTestService(t)
	_, err := svc.Add(context.Background(), "", NewApplication{Company: "Acme", Position: "Engineer"})
	assert.True(t, errors.Is(err, apperr.ErrNotAuthenticated))
	assert.Equal(t, 0, mem.Writes())
}

func TestAddStopsAtFreePlanLimit(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < billing.FreeApplicationLimit; i++ {
		_, err := svc.Add(ctx, "u1", NewApplication{Company: "Acme", Position: fmt.Sprintf("Role %d", i)})
		require.NoError(t, err)
	}
	_, err := svc.Add(ctx, "u1", NewApplication{Company: "Acme", Position: "One too many"})
	assert.True(t, errors.Is(err, apperr.ErrLimitReached))

	apps, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, apps, billing.FreeApplicationLimit)
}

func TestListSortedByDateThenID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, d := range []string{"2026-01-10", "2026-02-01", "2026-01-10"} {
		_, err := svc.Add(ctx, "u1", NewApplication{Company: "Acme", Position: "Engineer", Date: d})
		require.NoError(t, err)
	}
	apps, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, apps, 3)
	assert.Equal(t, []string{"app-02", "app-01", "app-03"}, []string{apps[0].ID, apps[1].ID, apps[2].ID})
}

func TestUpdateStatusAndDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	app, err := svc.Add(ctx, "u1", NewApplication{Company: "Acme", Position: "Engineer"})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, "u1", app.ID, StatusInterviewScheduled)
	require.NoError(t, err)
	assert.Equal(t, StatusInterviewScheduled, updated.Status)
	assert.Equal(t, "Acme", updated.Company)

	_, err = svc.UpdateStatus(ctx, "u1", app.ID, "Hired")
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	_, err = svc.UpdateStatus(ctx, "u1", "missing", StatusRejected)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	require.NoError(t, svc.Delete(ctx, "u1", app.ID))
	assert.True(t, errors.Is(svc.Delete(ctx, "u1", app.ID), apperr.ErrNotFound))
}

func TestStatsAlwaysListsEveryStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	st, err := svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, st.Total)
	require.Len(t, st.ByStatus, 4)
	for i, sc := range st.ByStatus {
		assert.Equal(t, Statuses[i], sc.Status)
		assert.Zero(t, sc.Count)
	}

	for _, status := range []string{StatusApplied, StatusRejected, StatusRejected} {
		_, err := svc.Add(ctx, "u1", NewApplication{Company: "Acme", Position: "Engineer", Status: status})
		require.NoError(t, err)
	}
	st, err = svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, []StatusCount{
		{StatusApplied, 1},
		{StatusInterviewScheduled, 0},
		{StatusOfferReceived, 0},
		{StatusRejected, 2},
	}, st.ByStatus)
}

func TestCanAddReportsLimitWithoutWriting(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.CanAdd(ctx, "u1"))
	assert.True(t, errors.Is(svc.CanAdd(ctx, ""), apperr.ErrNotAuthenticated))

	require.NoError(t, mem.MergeSet(ctx, "users", "u1", map[string]any{"applications_count": billing.FreeApplicationLimit}))
	writes := mem.Writes()
	assert.True(t, errors.Is(svc.CanAdd(ctx, "u1"), apperr.ErrLimitReached))
	assert.Equal(t, writes, mem.Writes())
}
