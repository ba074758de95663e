package ledger

import (
	"github.com/shopspring/decimal"

	"billing/internal/schema"
	"billing/internal/totals"
	"billing/pkg/models"
)

// CreatedLayout is the timestamp format of the Createed_Date column.
const CreatedLayout = "2006-01-02 15:04:05"

// ChallanRows builds one ledger row per challan item.
func ChallanRows(doc models.Document, items []models.Item) []Row {
	created := doc.CreatedAt.Format(CreatedLayout)
	rows := make([]Row, 0, len(items))
	for _, it := range items {
		amount := totals.Format(it.Amount)
		rows = append(rows, Row{
			schema.Firm:                  doc.Firm.CompanyName,
			schema.CreatedDate:           created,
			schema.InvoiceDate:           doc.Date,
			schema.ChallanNumber:         doc.Number,
			schema.SupplierChallanNumber: doc.SupplierChallanNo,
			schema.SupplierCode:          doc.Party.Code,
			schema.SupplierName:          doc.Party.Name,
			schema.GstNo:                 doc.Party.GSTIN,
			schema.Description:           it.Description,
			schema.Qty:                   totals.Format(it.Qty),
			schema.Rate:                  totals.Format(it.Rate),
			schema.Amount:                amount,
			schema.TaxableAmount:         amount,
			schema.GrandTotal:            amount,
		})
	}
	return rows
}

// InvoiceRows builds one ledger row per invoice line.
func InvoiceRows(doc models.Document, lines []models.InvoiceLine, gstPercent decimal.Decimal) []Row {
	created := doc.CreatedAt.Format(CreatedLayout)
	pct := gstPercent.String() + "%"
	rows := make([]Row, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, Row{
			schema.Firm:          doc.Firm.CompanyName,
			schema.CreatedDate:   created,
			schema.InvoiceDate:   doc.Date,
			schema.InvoiceNumber: doc.Number,
			schema.SupplierCode:  doc.Party.Code,
			schema.SupplierName:  doc.Party.Name,
			schema.GstNo:         doc.Party.GSTIN,
			schema.ChallanNumber: l.ChallanNo,
			schema.Description:   l.Description,
			schema.Qty:           totals.Format(l.Qty),
			schema.Rate:          totals.Format(l.Rate),
			schema.Amount:        totals.Format(l.Amount),
			schema.TaxableAmount: totals.Format(l.Taxable),
			schema.Discount:      totals.Format(l.Discount),
			schema.GstPercentage: pct,
			schema.CGST:          totals.Format(l.CGST),
			schema.SGST:          totals.Format(l.SGST),
			schema.RoundOff:      totals.Format(l.RoundOff),
			schema.GrandTotal:    totals.Format(l.GrandTotal),
		})
	}
	return rows
}
