package pricing

import "github.com/shopspring/decimal"

// DiscountKind determines how the discount value is interpreted.
type DiscountKind string

const (
	// Percentage discounts carry a value like 10 for 10% off.
	Percentage DiscountKind = "percentage"
	// FlatAmount discounts subtract a fixed amount in the currency.
	FlatAmount DiscountKind = "flat"
)

// rank fixes the application order: all percentage discounts apply before
// any flat-amount discount.
func (k DiscountKind) rank() int {
	if k == Percentage {
		return 0
	}
	return 1
}

// Scope limits which partition of the selection a discount touches.
type Scope string

const (
	ScopeRecurring Scope = "recurring"
	ScopeOneTime   Scope = "one-time"
	ScopeAll       Scope = "all"
)

type Discount struct {
	Code  string          `json:"code" yaml:"code"`
	Kind  DiscountKind    `json:"kind" yaml:"kind"`
	Scope Scope           `json:"scope" yaml:"scope"`
	Value decimal.Decimal `json:"value" yaml:"value"`
}

var oneHundred = decimal.NewFromInt(100)

// amountOff computes the discount amount against a subtotal, rounded
// half-to-even at the currency's minor unit. A flat discount never takes
// a subtotal below zero.
func (d Discount) amountOff(subtotal decimal.Decimal, exponent int32) decimal.Decimal {
	var amount decimal.Decimal
	switch d.Kind {
	case Percentage:
		amount = subtotal.Mul(d.Value).Div(oneHundred)
	case FlatAmount:
		amount = d.Value
	}
	if amount.GreaterThan(subtotal) {
		amount = subtotal
	}
	return amount.RoundBank(exponent)
}
