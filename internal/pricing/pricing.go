// Package pricing implements the cost to selling-price rules applied during
// catalog ingestion. Rules are pure so connectors can be tested against known
// input/output pairs.
package pricing

import "math"

// Rule captures the per-supplier VAT and margin rates.
type Rule struct {
	VATRate    float64
	MarginRate float64
}

// Rules maps supplier slugs to their pricing rule. Rates are seeded from the
// commercial agreements with each distributor.
var Rules = map[string]Rule{
	"avitech":    {VATRate: 0.21, MarginRate: 0.30},
	"soundwave":  {VATRate: 0.21, MarginRate: 0.25},
	"hifistudio": {VATRate: 0.21, MarginRate: 0.20},
}

// DefaultRule applies when a supplier has no negotiated rates.
var DefaultRule = Rule{VATRate: 0.21, MarginRate: 0.25}

// RuleFor returns the pricing rule for a supplier slug.
func RuleFor(supplier string) Rule {
	if r, ok := Rules[supplier]; ok {
		return r
	}
	return DefaultRule
}

// SellingPrice computes cost x (1+vat) x (1+margin) rounded to cents. The
// result is floored at one cent above cost so rounding can never collapse
// the margin to zero on very small amounts.
func (r Rule) SellingPrice(cost float64) float64 {
	if cost <= 0 {
		return 0
	}
	selling := round2(cost * (1 + r.VATRate) * (1 + r.MarginRate))
	if floor := round2(cost + 0.01); selling < floor {
		selling = floor
	}
	return selling
}

// RetailPrice is the VAT-inclusive cost without margin, used as the
// comparison price on listings.
func (r Rule) RetailPrice(cost float64) float64 {
	if cost <= 0 {
		return 0
	}
	return round2(cost * (1 + r.VATRate))
}

// MarginPercentage returns the relative margin between cost and selling
// price, as a percentage.
func MarginPercentage(cost, selling float64) float64 {
	if cost <= 0 || selling <= 0 {
		return 0
	}
	return round2((selling - cost) / cost * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
