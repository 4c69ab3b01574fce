package pricing

// Money represents a monetary value stored in minor units (centavos).
type Money = int64

// DefaultMinOrderQty is the cart-wide unit floor required before checkout.
const DefaultMinOrderQty = 30

// LineItem describes one distinct product in the cart together with the
// price snapshot copied from the catalog when the item was added.
type LineItem struct {
	ProductID          string
	Name               string
	CategoryName       string
	ImageURL           string
	UnitPriceRegular   Money
	UnitPriceSpecial   Money
	SpecialPriceMinQty int
	Qty                int
}

// SpecialPriceActive reports whether the quantity reached the special-price
// threshold.
func (it LineItem) SpecialPriceActive() bool {
	return it.SpecialPriceMinQty > 0 && it.Qty >= it.SpecialPriceMinQty
}

// AppliedPrice returns the unit price currently in effect for the line item.
func (it LineItem) AppliedPrice() Money {
	if it.SpecialPriceActive() {
		return it.UnitPriceSpecial
	}
	return it.UnitPriceRegular
}

// Subtotal returns the line total at the applied price.
func (it LineItem) Subtotal() Money {
	if it.Qty <= 0 {
		return 0
	}
	return it.AppliedPrice() * Money(it.Qty)
}

// Savings returns the amount saved against the regular price. Items below the
// threshold contribute zero.
func (it LineItem) Savings() Money {
	if !it.SpecialPriceActive() || it.Qty <= 0 {
		return 0
	}
	return (it.UnitPriceRegular - it.UnitPriceSpecial) * Money(it.Qty)
}

// Summary aggregates cart-wide totals and the minimum-order gate.
type Summary struct {
	TotalItems      int
	TotalPrice      Money
	TotalSavings    Money
	MinOrderMet     bool
	ItemsToMinOrder int
}

// Compute derives the cart summary from the line items. Results are never
// cached; callers recompute on every read.
func Compute(items []LineItem, minOrderQty int) Summary {
	if minOrderQty <= 0 {
		minOrderQty = DefaultMinOrderQty
	}
	var s Summary
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		s.TotalItems += it.Qty
		s.TotalPrice += it.Subtotal()
		s.TotalSavings += it.Savings()
	}
	s.MinOrderMet = s.TotalItems >= minOrderQty
	if gap := minOrderQty - s.TotalItems; gap > 0 {
		s.ItemsToMinOrder = gap
	}
	return s
}
