package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Firm is the issuing business, keyed by its uppercased name.
type Firm struct {
	Key         string   // Uppercased firm name used for lookups
	TitleName   string   // Display name printed in the header band
	CompanyName string   // Legal name as written in the ledger's Firm column
	Address     string   // Postal address
	Mobile      string   // Contact number
	GST         string   // GSTIN of the firm
	Logo        string   // Logo reference: URL, local path, or data URI
	BankLines   []string // Bank, A/C Name, A/C No., IFSC, Branch lines
}

// Party is a supplier or other counterparty, keyed by code.
type Party struct {
	Code    string
	Name    string
	GSTIN   string
	Mobile  string
	Address string
}

// Item is one validated line of a document request.
type Item struct {
	ChallanNo   string          // Originating challan number (invoice only)
	Description string          // Product name
	SAC         string          // Tax classification code (invoice only)
	Qty         decimal.Decimal // Quantity, always positive
	Rate        decimal.Decimal // Unit rate, never negative
	Amount      decimal.Decimal // Qty × Rate rounded to cents
}

// ChallanLine is a challan ledger row read back for reconciliation.
type ChallanLine struct {
	Row               int             // 1-based row in the challan table
	Firm              string          // Firm legal name
	SupplierCode      string          // Counterparty code
	ChallanNo         string          // Challan document number
	SupplierChallanNo string          // Counterparty's own challan number
	Date              string          // Challan date as written
	Description       string          // Product name
	Qty               decimal.Decimal // Delivered quantity
	Rate              decimal.Decimal // Unit rate
	Amount            decimal.Decimal // Line amount
	InvoicedQty       string          // Invoiced-quantity marker; empty until invoiced
	InvoiceNo         string          // Invoice that wrote the marker, when recorded
}

// Invoiced reports whether the line already carries an invoiced-quantity marker.
func (l ChallanLine) Invoiced() bool {
	return l.InvoicedQty != ""
}

// InvoiceLine is an invoice item with its prorated figures.
type InvoiceLine struct {
	Item
	Discount   decimal.Decimal // Share of the document discount
	Taxable    decimal.Decimal // Amount less discount, floored at zero
	CGST       decimal.Decimal // Central tax leg
	SGST       decimal.Decimal // State tax leg
	RoundOff   decimal.Decimal // Whole-rupee rounding remainder, last line only
	GrandTotal decimal.Decimal // Taxable + taxes + round off
}

// Document is the common header of an issued challan or invoice.
type Document struct {
	Kind              string    // "challan" or "invoice"
	Number            string    // Allocated document number
	Date              string    // Document date, dd/mm/yyyy
	SupplierChallanNo string    // Counterparty's challan number (challan only)
	Firm              Firm      // Issuing firm
	Party             Party     // Resolved counterparty
	CreatedAt         time.Time // Issue timestamp in the configured zone
}
