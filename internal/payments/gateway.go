package payments

import (
	"context"

	"github.com/commercegrid/acp-checkout-backend/pkg/types"
)

// Provider intent states the completion flow branches on. Other states are
// treated as still in flight.
const (
	IntentStatusSucceeded = "succeeded"
	IntentStatusCanceled  = "canceled"
)

// Intent is the gateway-agnostic view of a created payment.
type Intent struct {
	ID     string
	Status string
}

// IntentStatus reports the current state of a payment intent.
type IntentStatus struct {
	ID       string
	Status   string
	Amount   int64
	Currency string
}

// Gateway abstracts the payment provider so the checkout engine never
// touches provider SDK types directly.
type Gateway interface {
	// CreateIntent authorizes the session total against the delegated
	// payment token and returns the provider intent.
	CreateIntent(ctx context.Context, session *types.CheckoutSession, paymentToken string) (*Intent, error)

	// GetIntentStatus fetches the provider-side state of an intent.
	GetIntentStatus(ctx context.Context, intentID string) (*IntentStatus, error)

	// CancelIntent voids a pending intent. Callers treat failures as
	// best-effort cleanup.
	CancelIntent(ctx context.Context, intentID string) error
}
