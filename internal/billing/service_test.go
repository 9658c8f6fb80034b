package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobassist-backend/internal/shared/apperr"
	"jobassist-backend/internal/shared/storage/docstore"
)

type fakeCheckout struct {
	requests []CheckoutRequest
	active   map[string]bool
}

func (f *fakeCheckout) CreateSession(_ context.Context, req CheckoutRequest) (CheckoutSession, error) {
	f.requests = append(f.requests, req)
	return CheckoutSession{CustomerID: "cus_" + req.UserID, URL: "https://checkout.test/" + req.Plan}, nil
}

func (f *fakeCheckout) SubscriptionActive(_ context.Context, customerID string) (bool, error) {
	return f.active[customerID], nil
}

func TestStatusDefaultsToFree(t *testing.T) {
	svc := NewService(docstore.NewMemoryStore(), nil)

	st, err := svc.Status(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, Status{Plan: PlanFree, Limit: FreeApplicationLimit}, st)
}

func TestStatusRequiresUser(t *testing.T) {
	svc := NewService(docstore.NewMemoryStore(), nil)
	_, err := svc.Status(context.Background(), "")
	assert.True(t, errors.Is(err, apperr.ErrNotAuthenticated))
}

func TestFreePlanBlocksTwentySixthApplication(t *testing.T) {
	ctx := context.Background()
	mem := docstore.NewMemoryStore()
	svc := NewService(mem, nil)

	for i := 1; i <= FreeApplicationLimit; i++ {
		require.NoError(t, svc.CanAddApplication(ctx, "u1"))
		n, err := svc.RecordApplication(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(i), n)
	}

	assert.True(t, errors.Is(svc.CanAddApplication(ctx, "u1"), apperr.ErrLimitReached))
	_, err := svc.RecordApplication(ctx, "u1")
	assert.True(t, errors.Is(err, apperr.ErrLimitReached))

	st, err := svc.Status(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(FreeApplicationLimit), st.ApplicationsCount)
	assert.True(t, st.LimitReached)
}

func TestPaidPlanIsUnlimited(t *testing.T) {
	ctx := context.Background()
	mem := docstore.NewMemoryStore()
	require.NoError(t, mem.MergeSet(ctx, "users", "u1", map[string]any{
		"plan":               PlanPro,
		"applications_count": 100,
	}))
	svc := NewService(mem, nil)

	require.NoError(t, svc.CanAddApplication(ctx, "u1"))
	n, err := svc.RecordApplication(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(101), n)
}

func TestUpgradeWithPlaceholderCheckout(t *testing.T) {
	mem := docstore.NewMemoryStore()
	svc := NewService(mem, nil)

	_, err := svc.Upgrade(context.Background(), "u1", "pro", "")
	assert.True(t, errors.Is(err, apperr.ErrCheckoutNotConfigured))
	assert.Equal(t, 0, mem.Writes())
}

func TestUpgradeRejectsFreeAndUnknownPlans(t *testing.T) {
	svc := NewService(docstore.NewMemoryStore(), &fakeCheckout{})
	for _, plan := range []string{"Free", "Gold", ""} {
		_, err := svc.Upgrade(context.Background(), "u1", plan, "")
		assert.True(t, errors.Is(err, apperr.ErrInvalidInput), plan)
	}
}

func TestUpgradeRecordsCheckout(t *testing.T) {
	ctx := context.Background()
	mem := docstore.NewMemoryStore()
	checkout := &fakeCheckout{active: map[string]bool{"cus_u1": true}}
	svc := NewService(mem, checkout)

	res, err := svc.Upgrade(ctx, "u1", "Enterprise", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, UpgradeResult{Plan: PlanEnterprise, CheckoutURL: "https://checkout.test/Enterprise"}, res)
	require.Len(t, checkout.requests, 1)
	assert.Equal(t, 1999, checkout.requests[0].PriceCents)

	doc, err := mem.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, PlanEnterprise, doc["plan"])
	assert.Equal(t, "cus_u1", doc["stripe_customer_id"])

	active, err := svc.SubscriptionActive(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, active)
}

func TestSubscriptionActiveWithoutCustomer(t *testing.T) {
	svc := NewService(docstore.NewMemoryStore(), nil)
	active, err := svc.SubscriptionActive(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestLookupPlan(t *testing.T) {
	p, ok := LookupPlan(" enterprise ")
	require.True(t, ok)
	assert.Equal(t, PlanEnterprise, p.Name)
	_, ok = LookupPlan("platinum")
	assert.False(t, ok)
	assert.Len(t, Plans(), 3)
}
