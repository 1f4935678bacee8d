// Package pricing derives the price summary from the current selection.
// Computation is pure, synchronous, and deterministic; it is re-run on
// every selection mutation and never memoized, because a stale total is a
// correctness bug, not a performance win.
package pricing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/plancraft/plancraft/plan"
)

// PriceSummary is derived state: always recomputed from the selection,
// never mutated in place.
type PriceSummary struct {
	Currency       string            `json:"currency"`
	RecurringTotal decimal.Decimal   `json:"recurringTotal"`
	OneTimeTotal   decimal.Decimal   `json:"oneTimeTotal"`
	Discounts      []AppliedDiscount `json:"discounts"`
	ComputedAt     time.Time         `json:"computedAt"`
}

// AppliedDiscount records one discount's effect for auditability.
type AppliedDiscount struct {
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
}

// Calculator computes totals in a single currency, rounding at that
// currency's minor unit.
type Calculator struct {
	currency string
	exponent int32
	now      func() time.Time
}

// minorUnits maps ISO currency codes to their minor-unit exponent.
// Currencies not listed fall back to two decimal places.
var minorUnits = map[string]int32{
	"USD": 2,
	"EUR": 2,
	"GBP": 2,
	"JPY": 0,
	"KRW": 0,
}

func NewCalculator(currency string) *Calculator {
	exponent, ok := minorUnits[currency]
	if !ok {
		exponent = 2
	}
	return &Calculator{
		currency: currency,
		exponent: exponent,
		now:      time.Now,
	}
}

// ComputeTotal partitions the selection by kind, sums unit price times
// quantity per partition (with proration for eligible components), then
// applies discounts: percentage discounts strictly before flat-amount
// discounts, so rounding cannot depend on discount list ordering within a
// class. Results are rounded half-to-even at the currency's minor unit.
func (c *Calculator) ComputeTotal(sel plan.Selection, discounts []Discount) PriceSummary {
	recurring := decimal.Zero
	oneTime := decimal.Zero

	for _, comp := range sel.Components {
		switch comp.Kind {
		case plan.KindRecurring:
			recurring = recurring.Add(comp.Subtotal())
		case plan.KindOneTime:
			oneTime = oneTime.Add(comp.Subtotal())
		}
	}

	ordered := orderDiscounts(discounts)
	applied := make([]AppliedDiscount, 0, len(ordered))

	for _, d := range ordered {
		var amount decimal.Decimal
		switch d.Scope {
		case ScopeRecurring:
			amount = d.amountOff(recurring, c.exponent)
			recurring = recurring.Sub(amount)
		case ScopeOneTime:
			amount = d.amountOff(oneTime, c.exponent)
			oneTime = oneTime.Sub(amount)
		case ScopeAll:
			offRecurring := d.amountOff(recurring, c.exponent)
			offOneTime := d.amountOff(oneTime, c.exponent)
			recurring = recurring.Sub(offRecurring)
			oneTime = oneTime.Sub(offOneTime)
			amount = offRecurring.Add(offOneTime)
		}
		if !amount.IsZero() {
			applied = append(applied, AppliedDiscount{Code: d.Code, Amount: amount})
		}
	}

	return PriceSummary{
		Currency:       c.currency,
		RecurringTotal: recurring.RoundBank(c.exponent),
		OneTimeTotal:   oneTime.RoundBank(c.exponent),
		Discounts:      applied,
		ComputedAt:     c.now(),
	}
}

// orderDiscounts returns a copy sorted percentage-first. The sort is
// stable so discounts of the same kind keep their declared order.
func orderDiscounts(discounts []Discount) []Discount {
	ordered := make([]Discount, len(discounts))
	copy(ordered, discounts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Kind.rank() < ordered[j].Kind.rank()
	})
	return ordered
}
