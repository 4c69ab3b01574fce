package pricing

import "sort"

// Opportunity is an upsell suggestion for a near-threshold line item: how
// many more units unlock the special price and the saving realised at the
// threshold quantity.
type Opportunity struct {
	ProductID         string
	Name              string
	QtyToSpecialPrice int
	PotentialSaving   Money
}

// OpportunityPolicy controls which items are close enough to the threshold to
// surface. This is display policy, not a pricing rule.
type OpportunityPolicy struct {
	// ProgressRatio is the share of the threshold that must already be in
	// the cart before the suggestion is shown.
	ProgressRatio float64
	// MaxGap caps how many missing units still count as "close".
	MaxGap int
}

// DefaultOpportunityPolicy mirrors the storefront heuristic: at least 80% of
// the threshold reached, gap no larger than 100 units.
func DefaultOpportunityPolicy() OpportunityPolicy {
	return OpportunityPolicy{ProgressRatio: 0.8, MaxGap: 100}
}

func (p OpportunityPolicy) normalised() OpportunityPolicy {
	if p.ProgressRatio <= 0 || p.ProgressRatio > 1 {
		p.ProgressRatio = 0.8
	}
	if p.MaxGap <= 0 {
		p.MaxGap = 100
	}
	return p
}

// Opportunities returns one suggestion per non-special-active item that
// satisfies the policy, ordered by ascending gap.
func Opportunities(items []LineItem, policy OpportunityPolicy) []Opportunity {
	policy = policy.normalised()
	out := make([]Opportunity, 0, len(items))
	for _, it := range items {
		if it.Qty <= 0 || it.SpecialPriceMinQty <= 0 || it.SpecialPriceActive() {
			continue
		}
		gap := it.SpecialPriceMinQty - it.Qty
		if gap > policy.MaxGap {
			continue
		}
		if float64(it.Qty) < policy.ProgressRatio*float64(it.SpecialPriceMinQty) {
			continue
		}
		out = append(out, Opportunity{
			ProductID:         it.ProductID,
			Name:              it.Name,
			QtyToSpecialPrice: gap,
			PotentialSaving:   (it.UnitPriceRegular - it.UnitPriceSpecial) * Money(it.SpecialPriceMinQty),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QtyToSpecialPrice < out[j].QtyToSpecialPrice })
	return out
}
