package document_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing/internal/document"
	"billing/pkg/models"
	"billing/pkg/services"
)

func TestParseItems(t *testing.T) {
	items := document.ParseItems([]services.ItemInput{
		{ChallanNo: " 7 ", Description: " Cotton ", Qty: "2", Rate: "10.255"},
		{Description: "", Qty: "1", Rate: "1"},
		{Description: "no qty", Qty: "", Rate: "1"},
		{Description: "no rate", Qty: "1", Rate: ""},
		{Description: "free sample", Qty: "1", Rate: "0", SAC: "998877"},
		{Description: "returned", Qty: "-2", Rate: "5"},
	}, "123456")

	require.Len(t, items, 2)
	assert.Equal(t, "7", items[0].ChallanNo)
	assert.Equal(t, "Cotton", items[0].Description)
	assert.Equal(t, "123456", items[0].SAC)
	assert.Equal(t, "20.51", items[0].Amount.StringFixed(2))
	assert.Equal(t, "998877", items[1].SAC)
	assert.True(t, items[1].Amount.IsZero())
}

func TestResolveParty(t *testing.T) {
	stored := map[string]models.Party{
		"S1": {Code: "S1", Name: "Om Traders", GSTIN: "24AAAAA0000A1Z5", Mobile: "+91 99887 76655", Address: "Surat"},
	}

	p := document.ResolveParty(stored, services.PartyInput{Code: " S1 ", Address: "  Ahmedabad "}, "IN")
	assert.Equal(t, models.Party{Code: "S1", Name: "Om Traders", GSTIN: "24AAAAA0000A1Z5", Mobile: "+91 99887 76655", Address: "Ahmedabad"}, p)

	p = document.ResolveParty(stored, services.PartyInput{Code: "NEW", Name: "Walk-in", Mobile: "09988776655"}, "IN")
	assert.Equal(t, "NEW", p.Code)
	assert.Equal(t, "Walk-in", p.Name)
	assert.Equal(t, "+91 99887 76655", p.Mobile)
	assert.Empty(t, p.GSTIN)
}

func TestFormatMobile(t *testing.T) {
	assert.Equal(t, "+91 98765 43210", document.FormatMobile("9876543210", "IN"))
	assert.Equal(t, "12345", document.FormatMobile(" 12345 ", "IN"))
	assert.Equal(t, "", document.FormatMobile("  ", "IN"))
}
