package enums

import "fmt"

// CheckoutStatus describes the lifecycle state of a checkout session.
type CheckoutStatus string

const (
	CheckoutStatusCreated         CheckoutStatus = "created"
	CheckoutStatusPending         CheckoutStatus = "pending"
	CheckoutStatusReadyForPayment CheckoutStatus = "ready_for_payment"
	CheckoutStatusProcessing      CheckoutStatus = "processing"
	CheckoutStatusCompleted       CheckoutStatus = "completed"
	CheckoutStatusFailed          CheckoutStatus = "failed"
)

var validCheckoutStatuses = []CheckoutStatus{
	CheckoutStatusCreated,
	CheckoutStatusPending,
	CheckoutStatusReadyForPayment,
	CheckoutStatusProcessing,
	CheckoutStatusCompleted,
	CheckoutStatusFailed,
}

// IsValid reports whether the value matches the canonical checkout status enum.
func (s CheckoutStatus) IsValid() bool {
	for _, candidate := range validCheckoutStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is permitted out of s.
func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusCompleted || s == CheckoutStatusFailed
}

// ParseCheckoutStatus converts the raw string to CheckoutStatus.
func ParseCheckoutStatus(value string) (CheckoutStatus, error) {
	for _, candidate := range validCheckoutStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout status %q", value)
}
