package plan

import "github.com/shopspring/decimal"

// ComponentKind distinguishes recurring charges from one-time charges.
type ComponentKind string

const (
	KindRecurring ComponentKind = "recurring"
	KindOneTime   ComponentKind = "one-time"
)

// Component is a single plan line item. Components are owned by the
// Selection: they are created when chosen on a step and removed when
// deselected or when the session is reset.
type Component struct {
	ID        string          `json:"id"`
	Kind      ComponentKind   `json:"kind"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int64           `json:"quantity"`
	// Prorated marks the component as eligible for partial-period
	// price adjustment when added mid-cycle.
	Prorated bool `json:"prorated"`
	// PeriodFraction is the fraction of the billing period remaining
	// when the component was added. Only honored when Prorated is set.
	// Zero means "full period".
	PeriodFraction decimal.Decimal `json:"periodFraction"`
}

// Subtotal returns unit price times quantity, with proration applied
// when the component is eligible and carries a period fraction.
func (c Component) Subtotal() decimal.Decimal {
	total := c.UnitPrice.Mul(decimal.NewFromInt(c.Quantity))
	if c.Prorated && !c.PeriodFraction.IsZero() {
		total = total.Mul(c.PeriodFraction)
	}
	return total
}
