// Package sequence allocates per-ledger document numbers.
package sequence

import (
	"regexp"
	"strconv"
	"strings"
)

var trailingDigits = regexp.MustCompile(`(\d+)$`)

// Parse extracts the numeric part of a document number: the whole value
// when it is all digits, else its trailing run of digits.
func Parse(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	m := trailingDigits.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Max returns the largest parsed number in values, 0 when there is none.
func Max(values []string) int64 {
	var max int64
	for _, v := range values {
		if n, ok := Parse(v); ok && n > max {
			max = n
		}
	}
	return max
}

// Next returns the number after the largest one in values, or "1".
func Next(values []string) string {
	return Format(Max(values) + 1)
}

// Format renders n as a document number.
func Format(n int64) string {
	if n < 1 {
		n = 1
	}
	return strconv.FormatInt(n, 10)
}
