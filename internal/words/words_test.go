package words_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"billing/internal/words"
)

func TestWords(t *testing.T) {
	cases := []struct {
		n    uint64
		want string
	}{
		{0, "Zero"},
		{7, "Seven"},
		{19, "Nineteen"},
		{40, "Forty"},
		{99, "Ninety Nine"},
		{100, "One Hundred"},
		{101, "One Hundred One"},
		{1000, "One Thousand"},
		{100000, "One Lakh"},
		{100100, "One Lakh One Hundred"},
		{1234567, "Twelve Lakh Thirty Four Thousand Five Hundred Sixty Seven"},
		{10000000, "One Crore"},
		{99999999, "Nine Crore Ninety Nine Lakh Ninety Nine Thousand Nine Hundred Ninety Nine"},
		{12345678901, "One Thousand Two Hundred Thirty Four Crore Fifty Six Lakh Seventy Eight Thousand Nine Hundred One"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, words.Words(tc.n), "n=%d", tc.n)
	}
}

func TestRupees(t *testing.T) {
	assert.Equal(t, "One Thousand Fifty Rupees Only", words.Rupees(decimal.RequireFromString("1049.50")))
	assert.Equal(t, "One Thousand Fifty One Rupees Only", words.Rupees(decimal.RequireFromString("1050.51")))
	assert.Equal(t, "Zero Rupees Only", words.Rupees(decimal.Zero))
}
