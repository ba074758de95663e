// Package words spells amounts in English using Indian digit grouping.
package words

import (
	"strings"

	"github.com/shopspring/decimal"
)

var units = [...]string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
	"Seventeen", "Eighteen", "Nineteen",
}

var tens = [...]string{
	"", "Ten", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}

const (
	crore    = 10000000
	lakh     = 100000
	thousand = 1000
)

// Words spells n with Crore, Lakh, Thousand and Hundred groups. Crore
// counts of a thousand or more are themselves spelled with Indian grouping.
func Words(n uint64) string {
	if n == 0 {
		return "Zero"
	}
	var parts []string
	if c := n / crore; c > 0 {
		if c >= thousand {
			parts = append(parts, Words(c))
		} else {
			parts = append(parts, three(int(c)))
		}
		parts = append(parts, "Crore")
	}
	n %= crore
	if l := n / lakh; l > 0 {
		parts = append(parts, two(int(l)), "Lakh")
	}
	n %= lakh
	if t := n / thousand; t > 0 {
		parts = append(parts, two(int(t)), "Thousand")
	}
	if r := n % thousand; r > 0 {
		parts = append(parts, three(int(r)))
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// Rupees rounds v to whole rupees and appends "Rupees Only". Negative
// amounts are spelled by magnitude.
func Rupees(v decimal.Decimal) string {
	whole := v.Abs().RoundBank(0).BigInt().Uint64()
	return Words(whole) + " Rupees Only"
}

func two(x int) string {
	if x < 20 {
		return units[x]
	}
	if x%10 == 0 {
		return tens[x/10]
	}
	return tens[x/10] + " " + units[x%10]
}

func three(x int) string {
	h, r := x/100, x%100
	switch {
	case h > 0 && r > 0:
		return units[h] + " Hundred " + two(r)
	case h > 0:
		return units[h] + " Hundred"
	default:
		return two(r)
	}
}
