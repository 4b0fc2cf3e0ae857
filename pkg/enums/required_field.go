package enums

// RequiredField names a piece of buyer input a session still needs before it
// can accept payment.
type RequiredField string

const (
	RequiredFieldShippingAddress RequiredField = "shipping_address"
	RequiredFieldEmail           RequiredField = "email"
	RequiredFieldShippingOption  RequiredField = "shipping_option"
)
