package reconciliation

import (
	"strings"

	"github.com/shopspring/decimal"
)

// JobItem is one invoiced line to match against the challan ledger.
type JobItem struct {
	ChallanNo   string          `json:"challan_no"`
	Description string          `json:"description"`
	Qty         decimal.Decimal `json:"qty"`
}

// Job asks for one invoice's lines to be marked on their challans.
type Job struct {
	Firm          string    `json:"firm"` // Firm legal name as logged
	SupplierCode  string    `json:"supplier_code"`
	InvoiceNumber string    `json:"invoice_number"`
	Items         []JobItem `json:"items"`
}

// Key identifies the job for de-duplication.
func (j Job) Key() string {
	return strings.Join([]string{
		strings.TrimSpace(j.Firm),
		strings.TrimSpace(j.SupplierCode),
		strings.TrimSpace(j.InvoiceNumber),
	}, "|")
}

// ImportLine is an uninvoiced challan line offered for invoicing.
type ImportLine struct {
	Row         int
	Description string
	Qty         decimal.Decimal
	Rate        decimal.Decimal
}

// ImportableChallan groups the uninvoiced lines of one challan.
type ImportableChallan struct {
	Number            string
	Date              string
	SupplierChallanNo string
	Lines             []ImportLine
}
