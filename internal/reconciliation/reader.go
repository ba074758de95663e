package reconciliation

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"billing/internal/ledger"
	"billing/internal/schema"
	"billing/internal/sequence"
	"billing/internal/totals"
	"billing/pkg/models"
)

// Importable groups the challan lines of firm and supplierCode that carry no
// invoiced-quantity marker. Challans whose lines are all invoiced are left
// out. The firm compares case-insensitively; the supplier code exactly.
func Importable(lines []models.ChallanLine, firm, supplierCode string) []ImportableChallan {
	firm = strings.TrimSpace(firm)
	supplierCode = strings.TrimSpace(supplierCode)

	byNumber := make(map[string]*ImportableChallan)
	var order []string
	for _, l := range lines {
		if l.Invoiced() || l.ChallanNo == "" {
			continue
		}
		if !strings.EqualFold(l.Firm, firm) || l.SupplierCode != supplierCode {
			continue
		}

		ch, ok := byNumber[l.ChallanNo]
		if !ok {
			ch = &ImportableChallan{Number: l.ChallanNo, Date: l.Date, SupplierChallanNo: l.SupplierChallanNo}
			byNumber[l.ChallanNo] = ch
			order = append(order, l.ChallanNo)
		}

		rate := l.Rate
		if rate.IsZero() && l.Qty.IsPositive() {
			rate = totals.Money(l.Amount.Div(l.Qty))
		}
		ch.Lines = append(ch.Lines, ImportLine{Row: l.Row, Description: l.Description, Qty: l.Qty, Rate: rate})
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, aok := sequence.Parse(order[i])
		b, bok := sequence.Parse(order[j])
		if aok && bok && a != b {
			return a < b
		}
		return order[i] < order[j]
	})

	out := make([]ImportableChallan, 0, len(order))
	for _, n := range order {
		out = append(out, *byNumber[n])
	}
	return out
}

// DataReader serves importable challans from the ledger.
type DataReader struct {
	repo *ledger.Repository
}

// NewDataReader returns a DataReader over repo.
func NewDataReader(repo *ledger.Repository) *DataReader {
	return &DataReader{repo: repo}
}

// ReadImportable returns the importable challans of a firm and supplier.
// Ledger failures yield none.
func (dr *DataReader) ReadImportable(ctx context.Context, firm, supplierCode string) []ImportableChallan {
	return Importable(dr.repo.ChallanLines(ctx), firm, supplierCode)
}

// JobFromInvoice rebuilds the reconciliation job of an invoice already in
// the ledger from its logged rows. ok is false when no row carries number.
func JobFromInvoice(recs []schema.Record, number string) (Job, bool) {
	number = strings.TrimSpace(number)
	var (
		job   Job
		found bool
	)
	for _, rec := range recs {
		if rec.Get(schema.InvoiceNumber) != number {
			continue
		}
		if !found {
			job = Job{
				Firm:          rec.Get(schema.Firm),
				SupplierCode:  rec.Get(schema.SupplierCode),
				InvoiceNumber: number,
			}
			found = true
		}
		chNo := rec.Get(schema.ChallanNumber)
		if chNo == "" {
			continue
		}
		job.Items = append(job.Items, JobItem{
			ChallanNo:   chNo,
			Description: rec.Get(schema.Description),
			Qty:         ledger.ParseDecimal(rec.Get(schema.Qty)),
		})
	}
	return job, found
}

// ReadJob loads the reconciliation job of invoice number.
func (dr *DataReader) ReadJob(ctx context.Context, number string) (Job, error) {
	recs, err := dr.repo.InvoiceRecords(ctx)
	if err != nil {
		return Job{}, fmt.Errorf("reconciliation: %w", err)
	}
	job, ok := JobFromInvoice(recs, number)
	if !ok {
		return Job{}, fmt.Errorf("reconciliation: invoice %q not in ledger", number)
	}
	return job, nil
}
