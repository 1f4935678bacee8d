package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plancraft/plancraft/plan"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func baseSelection() plan.Selection {
	sel := plan.NewSelection()
	sel.Upsert(plan.Component{ID: "tier", Kind: plan.KindRecurring, UnitPrice: dec("20.00"), Quantity: 1})
	sel.Upsert(plan.Component{ID: "setup", Kind: plan.KindOneTime, UnitPrice: dec("50.00"), Quantity: 2})
	return sel
}

func TestComputeTotal_Partitions(t *testing.T) {
	c := NewCalculator("USD")

	summary := c.ComputeTotal(baseSelection(), nil)

	assert.True(t, summary.RecurringTotal.Equal(dec("20.00")), "recurring = %s", summary.RecurringTotal)
	assert.True(t, summary.OneTimeTotal.Equal(dec("100.00")), "one-time = %s", summary.OneTimeTotal)
	assert.Equal(t, "USD", summary.Currency)
	assert.False(t, summary.ComputedAt.IsZero())
}

func TestComputeTotal_RecurringPercentageDiscount(t *testing.T) {
	c := NewCalculator("USD")

	summary := c.ComputeTotal(baseSelection(), []Discount{
		{Code: "SAVE10", Kind: Percentage, Scope: ScopeRecurring, Value: dec("10")},
	})

	assert.True(t, summary.RecurringTotal.Equal(dec("18.00")), "recurring = %s", summary.RecurringTotal)
	assert.True(t, summary.OneTimeTotal.Equal(dec("100.00")))
	require.Len(t, summary.Discounts, 1)
	assert.Equal(t, "SAVE10", summary.Discounts[0].Code)
	assert.True(t, summary.Discounts[0].Amount.Equal(dec("2.00")))
}

func TestComputeTotal_PercentageBeforeFlat(t *testing.T) {
	c := NewCalculator("USD")
	discounts := []Discount{
		{Code: "FLAT5", Kind: FlatAmount, Scope: ScopeRecurring, Value: dec("5.00")},
		{Code: "SAVE10", Kind: Percentage, Scope: ScopeRecurring, Value: dec("10")},
	}

	summary := c.ComputeTotal(baseSelection(), discounts)

	// 20.00 - 10% = 18.00, then - 5.00 = 13.00; flat-first would give 13.50
	assert.True(t, summary.RecurringTotal.Equal(dec("13.00")), "recurring = %s", summary.RecurringTotal)
	require.Len(t, summary.Discounts, 2)
	assert.Equal(t, "SAVE10", summary.Discounts[0].Code)
	assert.Equal(t, "FLAT5", summary.Discounts[1].Code)
}

func TestComputeTotal_OrderIndependentWithinClass(t *testing.T) {
	c := NewCalculator("USD")
	a := []Discount{
		{Code: "A", Kind: Percentage, Scope: ScopeRecurring, Value: dec("10")},
		{Code: "B", Kind: Percentage, Scope: ScopeRecurring, Value: dec("5")},
	}
	b := []Discount{a[1], a[0]}

	first := c.ComputeTotal(baseSelection(), a)
	second := c.ComputeTotal(baseSelection(), b)

	assert.True(t, first.RecurringTotal.Equal(second.RecurringTotal),
		"%s != %s", first.RecurringTotal, second.RecurringTotal)
}

func TestComputeTotal_BankersRounding(t *testing.T) {
	c := NewCalculator("USD")
	sel := plan.NewSelection()
	sel.Upsert(plan.Component{ID: "odd", Kind: plan.KindRecurring, UnitPrice: dec("10.25"), Quantity: 1})

	// 10.25 * 50% = 5.125, which rounds half-to-even to 5.12
	summary := c.ComputeTotal(sel, []Discount{
		{Code: "HALF", Kind: Percentage, Scope: ScopeRecurring, Value: dec("50")},
	})

	assert.True(t, summary.Discounts[0].Amount.Equal(dec("5.12")),
		"discount = %s", summary.Discounts[0].Amount)
	assert.True(t, summary.RecurringTotal.Equal(dec("5.13")),
		"recurring = %s", summary.RecurringTotal)
}

func TestComputeTotal_ZeroMinorUnitCurrency(t *testing.T) {
	c := NewCalculator("JPY")
	sel := plan.NewSelection()
	sel.Upsert(plan.Component{ID: "tier", Kind: plan.KindRecurring, UnitPrice: dec("1000"), Quantity: 1})

	summary := c.ComputeTotal(sel, []Discount{
		{Code: "QUARTER", Kind: Percentage, Scope: ScopeRecurring, Value: dec("25")},
	})

	// 250 off, rounded to whole yen
	assert.True(t, summary.RecurringTotal.Equal(dec("750")), "recurring = %s", summary.RecurringTotal)
}

func TestComputeTotal_FlatDiscountNeverGoesNegative(t *testing.T) {
	c := NewCalculator("USD")
	sel := plan.NewSelection()
	sel.Upsert(plan.Component{ID: "small", Kind: plan.KindOneTime, UnitPrice: dec("3.00"), Quantity: 1})

	summary := c.ComputeTotal(sel, []Discount{
		{Code: "BIG", Kind: FlatAmount, Scope: ScopeOneTime, Value: dec("10.00")},
	})

	assert.True(t, summary.OneTimeTotal.Equal(dec("0")), "one-time = %s", summary.OneTimeTotal)
	assert.True(t, summary.Discounts[0].Amount.Equal(dec("3.00")))
}

func TestComputeTotal_Proration(t *testing.T) {
	c := NewCalculator("USD")
	sel := plan.NewSelection()
	sel.Upsert(plan.Component{
		ID:             "support",
		Kind:           plan.KindRecurring,
		UnitPrice:      dec("9.50"),
		Quantity:       1,
		Prorated:       true,
		PeriodFraction: dec("0.5"),
	})

	summary := c.ComputeTotal(sel, nil)

	assert.True(t, summary.RecurringTotal.Equal(dec("4.75")), "recurring = %s", summary.RecurringTotal)
}

func TestComputeTotal_NeverMemoized(t *testing.T) {
	c := NewCalculator("USD")
	c.now = func() time.Time { return time.Unix(100, 0) }

	sel := baseSelection()
	first := c.ComputeTotal(sel, nil)

	sel.Upsert(plan.Component{ID: "seat", Kind: plan.KindRecurring, UnitPrice: dec("4.00"), Quantity: 3})
	second := c.ComputeTotal(sel, nil)

	assert.True(t, first.RecurringTotal.Equal(dec("20.00")))
	assert.True(t, second.RecurringTotal.Equal(dec("32.00")), "recurring = %s", second.RecurringTotal)
}
