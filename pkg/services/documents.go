package services

import (
	"context"

	"github.com/shopspring/decimal"

	"billing/internal/totals"
	"billing/pkg/models"
)

// DocumentService issues challans and invoices
type DocumentService interface {
	// CreateChallan allocates a challan number, renders the two-copy PDF and
	// logs every item to the challan ledger
	CreateChallan(ctx context.Context, req ChallanRequest) (*Result, error)

	// CreateInvoice allocates an invoice number, renders the PDF, logs every
	// item to the invoice ledger and schedules reconciliation against the
	// originating challans
	CreateInvoice(ctx context.Context, req InvoiceRequest) (*Result, error)
}

// ItemInput is a line as submitted, before parsing and filtering.
type ItemInput struct {
	ChallanNo   string `json:"challan_no,omitempty"`
	Description string `json:"description"`
	SAC         string `json:"sac,omitempty"`
	Qty         string `json:"qty"`
	Rate        string `json:"rate"`
}

// PartyInput carries per-request overrides of the stored party profile.
type PartyInput struct {
	Code    string `json:"code"`
	Name    string `json:"name,omitempty"`
	GSTIN   string `json:"gstin,omitempty"`
	Mobile  string `json:"mobile,omitempty"`
	Address string `json:"address,omitempty"`
}

// ChallanRequest is a challan creation request
type ChallanRequest struct {
	Firm              string      `json:"firm"`
	Party             PartyInput  `json:"party"`
	Number            string      `json:"number,omitempty"`              // Empty allocates the next number
	Date              string      `json:"date,omitempty"`                // dd/mm/yyyy, empty for today
	SupplierChallanNo string      `json:"supplier_challan_no,omitempty"` // Counterparty's own number
	Items             []ItemInput `json:"items"`
}

// InvoiceRequest is an invoice creation request
type InvoiceRequest struct {
	Firm     string      `json:"firm"`
	Party    PartyInput  `json:"party"`
	Number   string      `json:"number,omitempty"`
	Date     string      `json:"date,omitempty"`
	Discount string      `json:"discount,omitempty"`
	SAC      string      `json:"sac,omitempty"` // Default SAC for items without one
	Items    []ItemInput `json:"items"`
}

// Result is an issued document
type Result struct {
	Document  models.Document
	FileName  string
	PDF       []byte
	Items     []models.Item        // Every valid item, including those past the page's row cap
	Lines     []models.InvoiceLine // Invoice only
	Total     decimal.Decimal      // Grand total
	Summary   totals.Summary       // Invoice only
	Truncated int                  // Items logged but not printed
}
