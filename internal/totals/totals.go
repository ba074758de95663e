// Package totals prorates a document discount across invoice lines and
// balances tax and rounding so the line figures add up to the document
// figures exactly.
package totals

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Rates holds the total GST percentage, charged as two equal legs.
type Rates struct {
	GSTPercent decimal.Decimal
}

// NewRates builds Rates from a total percentage such as 5.
func NewRates(gstTotal float64) Rates {
	return Rates{GSTPercent: decimal.NewFromFloat(gstTotal)}
}

// Leg is the percentage of each of CGST and SGST.
func (r Rates) Leg() decimal.Decimal {
	return r.GSTPercent.Div(decimal.NewFromInt(2))
}

// Line is one invoice line after proration.
type Line struct {
	Amount   decimal.Decimal
	Discount decimal.Decimal
	Taxable  decimal.Decimal
	CGST     decimal.Decimal
	SGST     decimal.Decimal
	RoundOff decimal.Decimal
	Total    decimal.Decimal
}

// Summary is the document-level view; each figure is the sum of the
// matching line figures.
type Summary struct {
	SubTotal   decimal.Decimal
	Discount   decimal.Decimal
	Taxable    decimal.Decimal
	CGST       decimal.Decimal
	SGST       decimal.Decimal
	Gross      decimal.Decimal
	RoundOff   decimal.Decimal
	GrandTotal decimal.Decimal
	LegRate    decimal.Decimal
}

// Money rounds to two decimal places.
func Money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Format renders d with exactly two decimals.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// LineAmount is qty × rate rounded to two decimals.
func LineAmount(qty, rate decimal.Decimal) decimal.Decimal {
	return Money(qty.Mul(rate))
}

// Sum adds amounts.
func Sum(amounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Compute prorates discount over amounts and applies tax. Discount shares
// are proportional to each amount, kept to whole cents by largest
// remainder so they add up to the discount exactly; the whole-rupee
// rounding remainder goes to the last line. A negative discount is treated
// as zero.
func Compute(amounts []decimal.Decimal, discount decimal.Decimal, rates Rates) ([]Line, Summary) {
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	discount = Money(discount)
	leg := rates.Leg()
	sub := Sum(amounts)
	shares := Prorate(discount, amounts)

	lines := make([]Line, len(amounts))
	for i, a := range amounts {
		taxable := a.Sub(shares[i])
		if taxable.IsNegative() {
			taxable = decimal.Zero
		}
		tax := Money(taxable.Mul(leg).Div(hundred))
		lines[i] = Line{
			Amount:   a,
			Discount: shares[i],
			Taxable:  taxable,
			CGST:     tax,
			SGST:     tax,
			Total:    taxable.Add(tax).Add(tax),
		}
	}

	s := Summary{SubTotal: sub, Discount: discount, LegRate: leg}
	for _, l := range lines {
		s.Taxable = s.Taxable.Add(l.Taxable)
		s.CGST = s.CGST.Add(l.CGST)
		s.SGST = s.SGST.Add(l.SGST)
	}
	s.Gross = s.Taxable.Add(s.CGST).Add(s.SGST)
	s.GrandTotal = s.Gross.RoundBank(0)
	s.RoundOff = s.GrandTotal.Sub(s.Gross)

	if n := len(lines); n > 0 {
		lines[n-1].RoundOff = s.RoundOff
		lines[n-1].Total = lines[n-1].Total.Add(s.RoundOff)
	}
	return lines, s
}

// Prorate splits total across weights in proportion, in whole cents. The
// shares sum to total (rounded to cents) whenever the weights sum to a
// positive value; otherwise every share is zero. Leftover cents go to the
// largest fractional parts, earlier lines first on ties.
func Prorate(total decimal.Decimal, weights []decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(weights))
	for i := range shares {
		shares[i] = decimal.Zero
	}
	sum := Sum(weights)
	if !sum.IsPositive() || len(weights) == 0 {
		return shares
	}

	cents := Money(total).Shift(2)
	rems := make([]decimal.Decimal, len(weights))
	given := decimal.Zero
	for i, w := range weights {
		raw := cents.Mul(w).Div(sum)
		whole := raw.Floor()
		rems[i] = raw.Sub(whole)
		shares[i] = whole
		given = given.Add(whole)
	}

	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return rems[order[a]].GreaterThan(rems[order[b]])
	})
	left := cents.Sub(given).IntPart()
	for k := int64(0); k < left; k++ {
		i := order[k%int64(len(order))]
		shares[i] = shares[i].Add(decimal.NewFromInt(1))
	}

	for i := range shares {
		shares[i] = shares[i].Shift(-2)
	}
	return shares
}
