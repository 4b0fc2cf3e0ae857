package types

import (
	"time"

	"github.com/commercegrid/acp-checkout-backend/pkg/enums"
)

// ResolvedLineItem is a cart line enriched with catalog-derived pricing and
// display data, fixed at resolution time.
type ResolvedLineItem struct {
	ProductID  string  `json:"product_id"`
	Quantity   int     `json:"quantity"`
	VariantID  *string `json:"variant_id,omitempty"`
	Name       string  `json:"name"`
	UnitPrice  Money   `json:"unit_price"`
	TotalPrice Money   `json:"total_price"`
	ImageURL   *string `json:"image_url,omitempty"`
}

// EstimatedDays bounds a shipping option's delivery window in business days.
type EstimatedDays struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// ShippingOption is an immutable catalog entry for a delivery method.
type ShippingOption struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Price         Money         `json:"price"`
	EstimatedDays EstimatedDays `json:"estimated_days"`
}

// BuyerContext carries the agent-supplied hints about the buyer: locale,
// preferred currency and destination country. Stored verbatim on the session
// for display and support tooling; pricing does not depend on it.
type BuyerContext struct {
	Locale          *string `json:"locale,omitempty"`
	Currency        *string `json:"currency,omitempty"`
	ShippingCountry *string `json:"shipping_country,omitempty"`
}

// Clone is nil-safe.
func (b *BuyerContext) Clone() *BuyerContext {
	if b == nil {
		return nil
	}
	return &BuyerContext{
		Locale:          cloneString(b.Locale),
		Currency:        cloneString(b.Currency),
		ShippingCountry: cloneString(b.ShippingCountry),
	}
}

// CheckoutSession is the mutable record tracking one buyer's in-progress
// purchase from creation to terminal outcome. Every field must survive a
// store round trip.
type CheckoutSession struct {
	CheckoutID          string               `json:"checkout_id"`
	CheckoutReferenceID string               `json:"checkout_reference_id"`
	Status              enums.CheckoutStatus `json:"status"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`

	LineItems []ResolvedLineItem `json:"line_items"`

	Subtotal     Money  `json:"subtotal"`
	ShippingCost *Money `json:"shipping_cost,omitempty"`
	Tax          *Money `json:"tax,omitempty"`
	Total        Money  `json:"total"`

	SelectedShippingOption *string  `json:"selected_shipping_option,omitempty"`
	ShippingAddress        *Address `json:"shipping_address,omitempty"`
	BillingAddress         *Address `json:"billing_address,omitempty"`
	BuyerEmail             *string  `json:"buyer_email,omitempty"`
	BuyerPhone             *string  `json:"buyer_phone,omitempty"`

	BuyerContext *BuyerContext `json:"buyer_context,omitempty"`

	AvailableShippingOptions []ShippingOption      `json:"available_shipping_options"`
	RequiredFields           []enums.RequiredField `json:"required_fields"`

	PaymentIntentID *string `json:"payment_intent_id,omitempty"`

	OrderID       *string `json:"order_id,omitempty"`
	FailureReason *string `json:"failure_reason,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// Clone returns a deep copy so callers can mutate drafts without aliasing
// the stored session.
func (s *CheckoutSession) Clone() *CheckoutSession {
	if s == nil {
		return nil
	}
	out := *s
	out.LineItems = append([]ResolvedLineItem(nil), s.LineItems...)
	out.AvailableShippingOptions = append([]ShippingOption(nil), s.AvailableShippingOptions...)
	out.RequiredFields = append([]enums.RequiredField(nil), s.RequiredFields...)
	out.ShippingCost = cloneMoney(s.ShippingCost)
	out.Tax = cloneMoney(s.Tax)
	out.SelectedShippingOption = cloneString(s.SelectedShippingOption)
	out.ShippingAddress = cloneAddress(s.ShippingAddress)
	out.BillingAddress = cloneAddress(s.BillingAddress)
	out.BuyerEmail = cloneString(s.BuyerEmail)
	out.BuyerPhone = cloneString(s.BuyerPhone)
	out.BuyerContext = s.BuyerContext.Clone()
	out.PaymentIntentID = cloneString(s.PaymentIntentID)
	out.OrderID = cloneString(s.OrderID)
	out.FailureReason = cloneString(s.FailureReason)
	if s.Metadata != nil {
		out.Metadata = make(map[string]string, len(s.Metadata))
		for k, v := range s.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

func cloneMoney(m *Money) *Money {
	if m == nil {
		return nil
	}
	out := *m
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	out := *s
	return &out
}

func cloneAddress(a *Address) *Address {
	if a == nil {
		return nil
	}
	out := *a
	out.Line2 = cloneString(a.Line2)
	out.State = cloneString(a.State)
	return &out
}
