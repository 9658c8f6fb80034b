package billing

import (
	"context"

	"jobassist-backend/internal/shared/apperr"
)

// CheckoutRequest describes the subscription a user wants to buy.
type CheckoutRequest struct {
	UserID     string
	Email      string
	Plan       string
	PriceCents int
	Currency   string
}

// CheckoutSession is what a provider returns for a started checkout.
type CheckoutSession struct {
	CustomerID string
	URL        string
}

// CheckoutProvider starts subscription checkouts and reports their state.
type CheckoutProvider interface {
	CreateSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
	SubscriptionActive(ctx context.Context, customerID string) (bool, error)
}

// PlaceholderCheckout is the provider used when no payment integration is
// configured. Every call fails with apperr.ErrCheckoutNotConfigured.
type PlaceholderCheckout struct{}

func (PlaceholderCheckout) CreateSession(context.Context, CheckoutRequest) (CheckoutSession, error) {
	return CheckoutSession{}, apperr.ErrCheckoutNotConfigured
}

func (PlaceholderCheckout) SubscriptionActive(context.Context, string) (bool, error) {
	return false, apperr.ErrCheckoutNotConfigured
}
