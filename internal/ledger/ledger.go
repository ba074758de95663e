// Package ledger reads and writes the firm, supplier, challan and invoice
// tables through a store.Store.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"billing/internal/logger"
	"billing/internal/schema"
	"billing/internal/store"
	"billing/pkg/models"
)

// Ledger kinds.
const (
	Challan = "challan"
	Invoice = "invoice"
)

const missing = "—"

// Tables names the four backing tables.
type Tables struct {
	Firms     string
	Suppliers string
	Challan   string
	Invoice   string
}

// DefaultTables are the table names of an unconfigured spreadsheet.
var DefaultTables = Tables{Firms: "ID", Suppliers: "Supplier", Challan: "Challan", Invoice: "Invoice"}

// Row is a ledger row keyed by column name.
type Row map[string]string

// Mark sets the invoiced-quantity marker of one challan row.
type Mark struct {
	Row     int    // 1-based challan table row
	Qty     string // Quantity formatted to two decimals
	Invoice string // Invoice number written beside the marker, if any
}

// Snapshot is the challan table as read at one point in time.
type Snapshot struct {
	Header  []string
	Records []schema.Record
}

// Repository is the ledger adapter. Every store call is bounded by the
// configured timeout.
type Repository struct {
	store   store.Store
	tables  Tables
	timeout time.Duration
	log     zerolog.Logger
}

// New returns a Repository over st.
func New(st store.Store, tables Tables, timeout time.Duration) *Repository {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Repository{
		store:   st,
		tables:  tables,
		timeout: timeout,
		log:     logger.WithComponent("ledger"),
	}
}

// Tables returns the configured table names.
func (r *Repository) Tables() Tables {
	return r.tables
}

func (r *Repository) read(ctx context.Context, table string) ([][]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.store.Read(ctx, table)
}

// Firms returns firm profiles in sheet order. Read failures yield none.
func (r *Repository) Firms(ctx context.Context) []models.Firm {
	values, err := r.read(ctx, r.tables.Firms)
	if err != nil {
		r.log.Warn().Err(err).Str("table", r.tables.Firms).Msg("Firms unavailable")
		return nil
	}

	upper := cases.Upper(language.Und)
	var firms []models.Firm
	for _, rec := range schema.Firms.Normalize(values) {
		name := rec.Get(schema.Firm)
		if name == "" {
			continue
		}
		key := upper.String(name)
		firms = append(firms, models.Firm{
			Key:         key,
			TitleName:   key,
			CompanyName: name,
			Address:     rec.Get(schema.Address),
			Mobile:      rec.Get(schema.Number),
			GST:         rec.Get(schema.Gst),
			Logo:        rec.Get(schema.LogoLink),
			BankLines: []string{
				"Bank: " + orMissing(rec.Get(schema.Bank)),
				"A/C Name: " + orMissing(rec.Get(schema.AccountName)),
				"A/C No.: " + orMissing(rec.Get(schema.AccountNumber)),
				"IFSC: " + orMissing(rec.Get(schema.Ifsc)),
				"Branch: " + orMissing(rec.Get(schema.Branch)),
			},
		})
	}
	return firms
}

// FindFirm looks key up case-insensitively, falling back to the first
// firm. With no firms it returns a blank profile keyed by key.
func FindFirm(firms []models.Firm, key string) models.Firm {
	want := cases.Upper(language.Und).String(strings.TrimSpace(key))
	for _, f := range firms {
		if f.Key == want {
			return f
		}
	}
	if len(firms) > 0 {
		return firms[0]
	}
	return models.Firm{Key: want, TitleName: want, CompanyName: strings.TrimSpace(key)}
}

// Suppliers returns party profiles by code. Read failures yield none.
func (r *Repository) Suppliers(ctx context.Context) map[string]models.Party {
	values, err := r.read(ctx, r.tables.Suppliers)
	if err != nil {
		r.log.Warn().Err(err).Str("table", r.tables.Suppliers).Msg("Suppliers unavailable")
		return map[string]models.Party{}
	}

	out := make(map[string]models.Party)
	for _, rec := range schema.Suppliers.Normalize(values) {
		code := rec.Get(schema.SupplierCode)
		if code == "" {
			continue
		}
		out[code] = models.Party{
			Code:    code,
			Name:    rec.Get(schema.PartyName),
			GSTIN:   rec.Get(schema.PartyGSTIN),
			Mobile:  rec.Get(schema.PartyMobile),
			Address: rec.Get(schema.PartyAddress),
		}
	}
	return out
}

// Numbers lists the document numbers of a ledger. A missing table is an
// empty ledger; other read failures are returned.
func (r *Repository) Numbers(ctx context.Context, kind string) ([]string, error) {
	table, tbl, field := r.tables.Challan, schema.Challan, schema.ChallanNumber
	if kind == Invoice {
		table, tbl, field = r.tables.Invoice, schema.Invoice, schema.InvoiceNumber
	}

	values, err := r.read(ctx, table)
	if err != nil {
		if errors.Is(err, store.ErrTableNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("ledger: numbers of %s: %w", table, err)
	}

	recs := tbl.Normalize(values)
	numbers := make([]string, 0, len(recs))
	for _, rec := range recs {
		numbers = append(numbers, rec.Get(field))
	}
	return numbers, nil
}

// ChallanSnapshot reads the challan table.
func (r *Repository) ChallanSnapshot(ctx context.Context) (*Snapshot, error) {
	values, err := r.read(ctx, r.tables.Challan)
	if err != nil {
		return nil, fmt.Errorf("ledger: read %s: %w", r.tables.Challan, err)
	}
	snap := &Snapshot{}
	if len(values) > 0 {
		snap.Header = append([]string(nil), values[0]...)
		snap.Records = schema.Challan.Normalize(values)
	}
	return snap, nil
}

// ChallanLines returns every challan line. Read failures yield none.
func (r *Repository) ChallanLines(ctx context.Context) []models.ChallanLine {
	snap, err := r.ChallanSnapshot(ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("Challan lines unavailable")
		return nil
	}
	return Lines(snap.Records)
}

// Lines converts normalized challan records. Quantity falls back to the
// MTR column, unparsable numbers read as zero.
func Lines(recs []schema.Record) []models.ChallanLine {
	lines := make([]models.ChallanLine, 0, len(recs))
	for _, rec := range recs {
		qtyRaw := rec.Get(schema.Qty)
		if qtyRaw == "" {
			qtyRaw = rec.Get(schema.MTR)
		}
		lines = append(lines, models.ChallanLine{
			Row:               rec.Row,
			Firm:              rec.Get(schema.Firm),
			SupplierCode:      rec.Get(schema.SupplierCode),
			ChallanNo:         rec.Get(schema.ChallanNumber),
			SupplierChallanNo: rec.Get(schema.SupplierChallanNumber),
			Date:              rec.Get(schema.InvoiceDate),
			Description:       rec.Get(schema.Description),
			Qty:               ParseDecimal(qtyRaw),
			Rate:              ParseDecimal(rec.Get(schema.Rate)),
			Amount:            ParseDecimal(rec.Get(schema.Amount)),
			InvoicedQty:       rec.Get(schema.InvoiceMTR),
			InvoiceNo:         rec.Get(schema.InvoiceNo),
		})
	}
	return lines
}

// InvoiceRecords reads the invoice table.
func (r *Repository) InvoiceRecords(ctx context.Context) ([]schema.Record, error) {
	values, err := r.read(ctx, r.tables.Invoice)
	if err != nil {
		return nil, fmt.Errorf("ledger: read %s: %w", r.tables.Invoice, err)
	}
	return schema.Invoice.Normalize(values), nil
}

// AppendChallan logs challan rows, healing the header first.
func (r *Repository) AppendChallan(ctx context.Context, rows []Row) error {
	return r.appendRows(ctx, r.tables.Challan, schema.ChallanHeader, rows)
}

// AppendInvoice logs invoice rows, healing the header first.
func (r *Repository) AppendInvoice(ctx context.Context, rows []Row) error {
	return r.appendRows(ctx, r.tables.Invoice, schema.InvoiceHeader, rows)
}

func (r *Repository) appendRows(ctx context.Context, table string, required []string, rows []Row) error {
	const op = "ledger.append"

	if len(rows) == 0 {
		return nil
	}

	var header []string
	values, err := r.read(ctx, table)
	switch {
	case err == nil:
		if len(values) > 0 {
			header = values[0]
		}
	case errors.Is(err, store.ErrTableNotFound):
	default:
		return fmt.Errorf("%s: read header of %s: %w", op, table, err)
	}

	header, err = r.ensureColumns(ctx, table, header, required)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	positions := make(map[string]int, len(required))
	for _, name := range required {
		positions[name] = columnOf(header, name)
	}

	out := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(header))
		for name, v := range row {
			if p, ok := positions[name]; ok && p >= 0 {
				cells[p] = v
			}
		}
		out[i] = cells
	}

	wctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.store.Append(wctx, table, out); err != nil {
		return fmt.Errorf("%s: %s: %w", op, table, err)
	}

	r.log.Info().Str("table", table).Int("rows", len(out)).Msg("Logged ledger rows")
	return nil
}

// ensureColumns appends required columns missing from header and writes
// the healed header back. Existing columns are never reordered.
func (r *Repository) ensureColumns(ctx context.Context, table string, header, required []string) ([]string, error) {
	healed := append([]string(nil), header...)
	var added []string
	for _, name := range required {
		if columnOf(healed, name) < 0 {
			healed = append(healed, name)
			added = append(added, name)
		}
	}
	if len(added) == 0 {
		return healed, nil
	}

	wctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.store.WriteHeader(wctx, table, healed); err != nil {
		return nil, fmt.Errorf("heal header of %s: %w", table, err)
	}
	r.log.Info().Str("table", table).Strs("added", added).Msg("Added missing ledger columns")
	return healed, nil
}

// MarkInvoiced writes invoiced-quantity markers and their invoice numbers
// in one batch, adding either column to the challan table when it is
// missing.
func (r *Repository) MarkInvoiced(ctx context.Context, snap *Snapshot, marks []Mark) error {
	const op = "ledger.MarkInvoiced"

	if len(marks) == 0 {
		return nil
	}

	col, invCol := MarkerColumn(snap.Header), InvoiceColumn(snap.Header)
	var need []string
	if col < 0 {
		need = append(need, schema.InvoiceMTR)
	}
	if invCol < 0 {
		need = append(need, schema.InvoiceNo)
	}
	if len(need) > 0 {
		header, err := r.ensureColumns(ctx, r.tables.Challan, snap.Header, need)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		snap.Header = header
		col, invCol = MarkerColumn(header), InvoiceColumn(header)
	}

	updates := make([]store.CellUpdate, 0, 2*len(marks))
	for _, m := range marks {
		updates = append(updates, store.CellUpdate{Row: m.Row, Col: col, Value: m.Qty})
		if m.Invoice != "" {
			updates = append(updates, store.CellUpdate{Row: m.Row, Col: invCol, Value: m.Invoice})
		}
	}

	wctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.store.UpdateCells(wctx, r.tables.Challan, updates); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// MarkerColumn locates the invoiced-quantity column, or -1.
func MarkerColumn(header []string) int {
	if i := columnOf(header, schema.InvoiceMTR); i >= 0 {
		return i
	}
	return schema.Challan.Index(header, schema.InvoiceMTR)
}

// InvoiceColumn locates the column naming the invoice behind a marker, or -1.
func InvoiceColumn(header []string) int {
	if i := columnOf(header, schema.InvoiceNo); i >= 0 {
		return i
	}
	return schema.Challan.Index(header, schema.InvoiceNo)
}

// columnOf finds the column whose folded name equals name's.
func columnOf(header []string, name string) int {
	want := schema.Key(name)
	for i, h := range header {
		if schema.Key(h) == want {
			return i
		}
	}
	return -1
}

// ParseDecimal reads a sheet number, tolerating thousands separators.
// Unparsable input reads as zero.
func ParseDecimal(s string) decimal.Decimal {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func orMissing(s string) string {
	if s == "" {
		return missing
	}
	return s
}
