package sessions

import (
	"context"

	"github.com/commercegrid/acp-checkout-backend/pkg/enums"
	"github.com/commercegrid/acp-checkout-backend/pkg/types"
)

// Store persists checkout sessions keyed by checkout ID. Implementations
// must return deep copies so callers can never mutate stored state in place.
type Store interface {
	// Create persists a new session. Existing IDs are overwritten; ID
	// collisions are the generator's problem, not the store's.
	Create(ctx context.Context, session *types.CheckoutSession) error

	// Get loads a session. The bool reports existence; err is reserved for
	// backend failures.
	Get(ctx context.Context, checkoutID string) (*types.CheckoutSession, bool, error)

	// Update applies the patch to the stored session in one write and
	// returns the updated copy. The bool reports existence.
	Update(ctx context.Context, checkoutID string, patch Patch) (*types.CheckoutSession, bool, error)

	// Delete removes a session, reporting whether it existed.
	Delete(ctx context.Context, checkoutID string) (bool, error)

	// CountActive reports sessions currently held by the backend.
	CountActive(ctx context.Context) (int64, error)
}

// Patch is a partial session mutation. Nil fields are left untouched.
// Metadata is merged key-by-key rather than replaced.
type Patch struct {
	Status *enums.CheckoutStatus

	LineItems *[]types.ResolvedLineItem

	Subtotal     *types.Money
	ShippingCost **types.Money
	Tax          **types.Money
	Total        *types.Money

	SelectedShippingOption **string
	ShippingAddress        **types.Address
	BillingAddress         **types.Address
	BuyerEmail             **string
	BuyerPhone             **string

	AvailableShippingOptions *[]types.ShippingOption
	RequiredFields           *[]enums.RequiredField

	PaymentIntentID **string
	OrderID         **string
	FailureReason   **string

	Metadata map[string]string
}

// Apply mutates the session with every set field and merges metadata.
// The caller owns the session copy; UpdatedAt is stamped by the store.
func (p Patch) Apply(s *types.CheckoutSession) {
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.LineItems != nil {
		s.LineItems = append([]types.ResolvedLineItem(nil), (*p.LineItems)...)
	}
	if p.Subtotal != nil {
		s.Subtotal = *p.Subtotal
	}
	if p.ShippingCost != nil {
		s.ShippingCost = *p.ShippingCost
	}
	if p.Tax != nil {
		s.Tax = *p.Tax
	}
	if p.Total != nil {
		s.Total = *p.Total
	}
	if p.SelectedShippingOption != nil {
		s.SelectedShippingOption = *p.SelectedShippingOption
	}
	if p.ShippingAddress != nil {
		s.ShippingAddress = *p.ShippingAddress
	}
	if p.BillingAddress != nil {
		s.BillingAddress = *p.BillingAddress
	}
	if p.BuyerEmail != nil {
		s.BuyerEmail = *p.BuyerEmail
	}
	if p.BuyerPhone != nil {
		s.BuyerPhone = *p.BuyerPhone
	}
	if p.AvailableShippingOptions != nil {
		s.AvailableShippingOptions = append([]types.ShippingOption(nil), (*p.AvailableShippingOptions)...)
	}
	if p.RequiredFields != nil {
		s.RequiredFields = append([]enums.RequiredField(nil), (*p.RequiredFields)...)
	}
	if p.PaymentIntentID != nil {
		s.PaymentIntentID = *p.PaymentIntentID
	}
	if p.OrderID != nil {
		s.OrderID = *p.OrderID
	}
	if p.FailureReason != nil {
		s.FailureReason = *p.FailureReason
	}
	if len(p.Metadata) > 0 {
		if s.Metadata == nil {
			s.Metadata = make(map[string]string, len(p.Metadata))
		}
		for k, v := range p.Metadata {
			s.Metadata[k] = v
		}
	}
}
