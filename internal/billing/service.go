package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"jobassist-backend/internal/shared/apperr"
	"jobassist-backend/internal/shared/storage/docstore"
	"jobassist-backend/internal/shared/telemetry"
)

const (
	usersCollection = "users"

	fieldPlan              = "plan"
	fieldApplicationsCount = "applications_count"
	fieldCustomerID        = "stripe_customer_id"
	fieldCheckoutURL       = "checkout_url"
)

// Status is a user's plan and consumption snapshot.
type Status struct {
	Plan              string `json:"plan"`
	ApplicationsCount int64  `json:"applicationsCount"`
	Limit             int    `json:"limit"`
	Unlimited         bool   `json:"unlimited"`
	LimitReached      bool   `json:"limitReached"`
}

// UpgradeResult is returned after a checkout session has been started.
type UpgradeResult struct {
	Plan        string `json:"plan"`
	CheckoutURL string `json:"checkoutUrl"`
}

// Service reads and writes plan fields on users/{uid}.
type Service struct {
	Store    docstore.Store
	Checkout CheckoutProvider
}

func NewService(store docstore.Store, checkout CheckoutProvider) *Service {
	if checkout == nil {
		checkout = PlaceholderCheckout{}
	}
	return &Service{Store: store, Checkout: checkout}
}

// Status reports the user's plan. Missing fields mean Free with no
// applications recorded.
func (s *Service) Status(ctx context.Context, userID string) (Status, error) {
	doc, err := s.userDoc(ctx, userID)
	if err != nil {
		return Status{}, err
	}
	return statusFrom(doc), nil
}

func statusFrom(doc map[string]any) Status {
	plan, ok := LookupPlan(docstore.String(doc[fieldPlan]))
	if !ok {
		plan, _ = LookupPlan(PlanFree)
	}
	st := Status{
		Plan:              plan.Name,
		ApplicationsCount: docstore.Int(doc[fieldApplicationsCount]),
		Limit:             plan.Limit,
		Unlimited:         plan.Limit == 0,
	}
	st.LimitReached = !st.Unlimited && st.ApplicationsCount >= int64(plan.Limit)
	return st
}

// CanAddApplication fails with apperr.ErrLimitReached once a limited plan
// has used its allowance.
func (s *Service) CanAddApplication(ctx context.Context, userID string) error {
	st, err := s.Status(ctx, userID)
	if err != nil {
		return err
	}
	if st.LimitReached {
		return fmt.Errorf("%w: %s plan allows %d applications", apperr.ErrLimitReached, st.Plan, st.Limit)
	}
	return nil
}

// RecordApplication counts one application against the user's plan. The
// counter is incremented first and rolled back if it passes the limit, so
// concurrent adds cannot overshoot.
func (s *Service) RecordApplication(ctx context.Context, userID string) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, apperr.ErrNotAuthenticated
	}
	if s == nil || s.Store == nil {
		return 0, apperr.ErrStoreUnavailable
	}
	st, err := s.Status(ctx, userID)
	if err != nil {
		return 0, err
	}
	next, err := s.Store.Increment(ctx, usersCollection, userID, fieldApplicationsCount, 1)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", apperr.ErrStoreUnavailable, err)
	}
	if !st.Unlimited && next > int64(st.Limit) {
		if _, rbErr := s.Store.Increment(ctx, usersCollection, userID, fieldApplicationsCount, -1); rbErr != nil {
			telemetry.Error("billing.rollback_failed", map[string]any{"user_id": userID, "error": rbErr.Error()})
		}
		return next - 1, fmt.Errorf("%w: %s plan allows %d applications", apperr.ErrLimitReached, st.Plan, st.Limit)
	}
	return next, nil
}

// ReleaseApplication undoes RecordApplication when the application itself
// could not be stored.
func (s *Service) ReleaseApplication(ctx context.Context, userID string) error {
	if s == nil || s.Store == nil {
		return apperr.ErrStoreUnavailable
	}
	_, err := s.Store.Increment(ctx, usersCollection, userID, fieldApplicationsCount, -1)
	return err
}

// Upgrade starts a checkout for a paid plan and records the plan, customer
// id and checkout URL on the user document.
func (s *Service) Upgrade(ctx context.Context, userID, planName, email string) (UpgradeResult, error) {
	if strings.TrimSpace(userID) == "" {
		return UpgradeResult{}, apperr.ErrNotAuthenticated
	}
	plan, ok := LookupPlan(planName)
	if !ok || !plan.Paid {
		return UpgradeResult{}, fmt.Errorf("%w: %q is not a paid plan", apperr.ErrInvalidInput, planName)
	}
	if s == nil || s.Store == nil {
		return UpgradeResult{}, apperr.ErrStoreUnavailable
	}

	session, err := s.Checkout.CreateSession(ctx, CheckoutRequest{
		UserID:     userID,
		Email:      email,
		Plan:       plan.Name,
		PriceCents: plan.PriceCents,
		Currency:   "usd",
	})
	if err != nil {
		return UpgradeResult{}, err
	}

	err = s.Store.MergeSet(ctx, usersCollection, userID, map[string]any{
		fieldPlan:        plan.Name,
		fieldCustomerID:  session.CustomerID,
		fieldCheckoutURL: session.URL,
	})
	if err != nil {
		return UpgradeResult{}, fmt.Errorf("%w: %w", apperr.ErrStoreUnavailable, err)
	}
	telemetry.Info("billing.upgrade_started", map[string]any{"user_id": userID, "plan": plan.Name})
	return UpgradeResult{Plan: plan.Name, CheckoutURL: session.URL}, nil
}

// SubscriptionActive asks the checkout provider about the stored customer.
// Users without a customer id are never active.
func (s *Service) SubscriptionActive(ctx context.Context, userID string) (bool, error) {
	doc, err := s.userDoc(ctx, userID)
	if err != nil {
		return false, err
	}
	customerID := docstore.String(doc[fieldCustomerID])
	if customerID == "" {
		return false, nil
	}
	return s.Checkout.SubscriptionActive(ctx, customerID)
}

func (s *Service) userDoc(ctx context.Context, userID string) (map[string]any, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.ErrNotAuthenticated
	}
	if s == nil || s.Store == nil {
		return nil, apperr.ErrStoreUnavailable
	}
	doc, err := s.Store.Get(ctx, usersCollection, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("%w: %w", apperr.ErrStoreUnavailable, err)
	}
	return doc, nil
}
