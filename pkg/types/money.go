package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in the currency's smallest unit plus a lowercase
// ISO 4217 code.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// minorUnitDigits lists the exponent for currencies that do not use two
// decimal places.
var minorUnitDigits = map[string]int32{
	"jpy": 0,
	"krw": 0,
	"vnd": 0,
	"bhd": 3,
	"jod": 3,
	"kwd": 3,
	"omr": 3,
	"tnd": 3,
}

// NewMoney normalizes the currency code to lowercase.
func NewMoney(amount int64, currency string) Money {
	return Money{Amount: amount, Currency: strings.ToLower(strings.TrimSpace(currency))}
}

// Add returns the sum of m and other. Both sides must share a currency.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// Mul returns m scaled by the given quantity.
func (m Money) Mul(qty int64) Money {
	return Money{Amount: m.Amount * qty, Currency: m.Currency}
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

// MarshalJSON emits the major-unit rendering next to the raw amount so
// clients can display prices without knowing the currency exponent.
func (m Money) MarshalJSON() ([]byte, error) {
	type plain Money
	return json.Marshal(struct {
		plain
		Formatted string `json:"formatted"`
	}{plain(m), m.Formatted()})
}

// Formatted renders the amount as a decimal string in major units,
// e.g. 12999 usd -> "129.99".
func (m Money) Formatted() string {
	exp := int32(2)
	if digits, ok := minorUnitDigits[m.Currency]; ok {
		exp = digits
	}
	return decimal.New(m.Amount, -exp).StringFixed(exp)
}
