package reconciliation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing/internal/ledger"
	"billing/internal/reconciliation"
	"billing/internal/store"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedChallans(mem *store.Memory) {
	mem.Seed("Challan", [][]string{
		{"Firm", "Challan_Number", "Supplier Code", "Description", "Qty", "Rate", "Amount", "INVOICE_MTR"},
		{"ACME", "5", "S01", "Cotton", "10.00", "50", "500.00", ""},
		{"ACME", "5", "S01", "Cotton", "10.01", "50", "500.50", ""},
		{"ACME", "5", "S01", "Silk", "3.00", "", "300.00", "3.00"},
		{"ACME", "6", "S01", "Linen", "2.00", "20", "40.00", ""},
		{"OTHER", "5", "S01", "Cotton", "1.00", "1", "1.00", ""},
	})
}

func newEngine(mem *store.Memory, reg prometheus.Registerer) (*reconciliation.Engine, *ledger.Repository) {
	repo := ledger.New(mem, ledger.DefaultTables, time.Second)
	return reconciliation.NewEngine(repo, reconciliation.NewMetrics(reg), nil), repo
}

func TestReconcile_MarksOnlyFirstUnmarkedMatch(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	seedChallans(mem)
	engine, repo := newEngine(mem, prometheus.NewRegistry())

	job := reconciliation.Job{
		Firm:          "ACME",
		SupplierCode:  "S01",
		InvoiceNumber: "12",
		Items:         []reconciliation.JobItem{{ChallanNo: " 5 ", Description: "Cotton ", Qty: dec("10")}},
	}
	marked, err := engine.Reconcile(ctx, job)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	lines := repo.ChallanLines(ctx)
	assert.Equal(t, "10.00", lines[0].InvoicedQty)
	assert.Equal(t, "", lines[1].InvoicedQty)
	assert.Equal(t, "", lines[4].InvoicedQty)

	assert.Equal(t, "12", lines[0].InvoiceNo)

	// The same invoice again finds its own marker and writes nothing.
	marked, err = engine.Reconcile(ctx, job)
	require.NoError(t, err)
	assert.Equal(t, 0, marked)

	lines = repo.ChallanLines(ctx)
	assert.Equal(t, "10.00", lines[0].InvoicedQty)
	assert.Equal(t, "", lines[1].InvoicedQty)
	assert.Equal(t, "", lines[1].InvoiceNo)

	// A different invoice for the same line takes the next free row.
	job.InvoiceNumber = "13"
	marked, err = engine.Reconcile(ctx, job)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	lines = repo.ChallanLines(ctx)
	assert.Equal(t, "10.00", lines[1].InvoicedQty)
	assert.Equal(t, "13", lines[1].InvoiceNo)
}

func TestReconcile_RetryAfterPartialRunMarksOnlyTheRest(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	seedChallans(mem)
	engine, repo := newEngine(mem, prometheus.NewRegistry())

	first := reconciliation.Job{
		Firm:          "ACME",
		SupplierCode:  "S01",
		InvoiceNumber: "20",
		Items:         []reconciliation.JobItem{{ChallanNo: "5", Description: "Cotton", Qty: dec("10")}},
	}
	_, err := engine.Reconcile(ctx, first)
	require.NoError(t, err)

	full := first
	full.Items = []reconciliation.JobItem{
		{ChallanNo: "5", Description: "Cotton", Qty: dec("10")},
		{ChallanNo: "6", Description: "Linen", Qty: dec("2")},
	}
	marked, err := engine.Reconcile(ctx, full)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	lines := repo.ChallanLines(ctx)
	assert.Equal(t, "10.00", lines[0].InvoicedQty)
	assert.Equal(t, "", lines[1].InvoicedQty)
	assert.Equal(t, "2.00", lines[3].InvoicedQty)
	assert.Equal(t, "20", lines[3].InvoiceNo)
}

// slowReads delays every challan read so concurrent jobs overlap.
type slowReads struct {
	*store.Memory
	delay time.Duration
}

func (s slowReads) Read(ctx context.Context, table string) ([][]string, error) {
	time.Sleep(s.delay)
	return s.Memory.Read(ctx, table)
}

func TestReconcile_ConcurrentJobsNeverShareARow(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	mem.Seed("Challan", [][]string{
		{"Firm", "Challan_Number", "Supplier Code", "Description", "Qty", "INVOICE_MTR"},
		{"ACME", "5", "S01", "Cotton", "10.00", ""},
	})
	repo := ledger.New(slowReads{Memory: mem, delay: 20 * time.Millisecond}, ledger.DefaultTables, time.Second)
	engine := reconciliation.NewEngine(repo, nil, nil)

	jobs := []reconciliation.Job{
		{Firm: "ACME", SupplierCode: "S01", InvoiceNumber: "30", Items: []reconciliation.JobItem{{ChallanNo: "5", Description: "Cotton", Qty: dec("4")}}},
		{Firm: "ACME", SupplierCode: "S01", InvoiceNumber: "31", Items: []reconciliation.JobItem{{ChallanNo: "5", Description: "Cotton", Qty: dec("6")}}},
	}

	var wg sync.WaitGroup
	counts := make([]int, len(jobs))
	errs := make([]error, len(jobs))
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job reconciliation.Job) {
			defer wg.Done()
			counts[i], errs[i] = engine.Reconcile(ctx, job)
		}(i, job)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 1, counts[0]+counts[1])

	lines := repo.ChallanLines(ctx)
	require.Len(t, lines, 1)
	winner := 0
	if counts[1] == 1 {
		winner = 1
	}
	assert.Equal(t, qtyOf(jobs[winner]), lines[0].InvoicedQty)
	assert.Equal(t, jobs[winner].InvoiceNumber, lines[0].InvoiceNo)
}

func qtyOf(job reconciliation.Job) string {
	return job.Items[0].Qty.StringFixed(2)
}

func TestPlan_ClaimsDistinctRowsInOnePass(t *testing.T) {
	mem := store.NewMemory()
	seedChallans(mem)
	repo := ledger.New(mem, ledger.DefaultTables, time.Second)
	lines := repo.ChallanLines(context.Background())

	marks := reconciliation.Plan(lines, reconciliation.Job{
		Firm:         "ACME",
		SupplierCode: "S01",
		Items: []reconciliation.JobItem{
			{ChallanNo: "5", Description: "Cotton", Qty: dec("10")},
			{ChallanNo: "5", Description: "Cotton", Qty: dec("10.01")},
			{ChallanNo: "5", Description: "Cotton", Qty: dec("1")},
			{ChallanNo: "5", Description: "Silk", Qty: dec("3")},
			{ChallanNo: "6", Description: "linen", Qty: dec("2")},
		},
	})
	assert.Equal(t, []ledger.Mark{{Row: 2, Qty: "10.00"}, {Row: 3, Qty: "10.01"}}, marks)
}

func TestReconcile_NothingToMark(t *testing.T) {
	mem := store.NewMemory()
	seedChallans(mem)
	reg := prometheus.NewRegistry()
	engine, _ := newEngine(mem, reg)

	marked, err := engine.Reconcile(context.Background(), reconciliation.Job{Firm: "NOPE"})
	require.NoError(t, err)
	assert.Zero(t, marked)
}

func TestReconcile_MissingTableFails(t *testing.T) {
	engine, _ := newEngine(store.NewMemory(), prometheus.NewRegistry())
	_, err := engine.Reconcile(context.Background(), reconciliation.Job{Firm: "ACME"})
	assert.Error(t, err)
}

func TestMetrics_CountRunsAndMarks(t *testing.T) {
	mem := store.NewMemory()
	seedChallans(mem)
	reg := prometheus.NewRegistry()
	engine, _ := newEngine(mem, reg)

	_, err := engine.Reconcile(context.Background(), reconciliation.Job{
		Firm:         "ACME",
		SupplierCode: "S01",
		Items:        []reconciliation.JobItem{{ChallanNo: "6", Description: "Linen", Qty: dec("2")}},
	})
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				values[mf.GetName()] += c.GetValue()
			}
		}
	}
	assert.Equal(t, 1.0, values["billing_reconcile_marks_total"])
	assert.Equal(t, 1.0, values["billing_reconcile_runs_total"])
	assert.Zero(t, values["billing_reconcile_failures_total"])
}

func TestImportable(t *testing.T) {
	mem := store.NewMemory()
	seedChallans(mem)
	mem.Seed("Challan", append(mustRead(t, mem), []string{"ACME", "10", "S01", "Wool", "4", "", "100.00", ""}))
	reader := reconciliation.NewDataReader(ledger.New(mem, ledger.DefaultTables, time.Second))

	got := reader.ReadImportable(context.Background(), "acme", "S01")
	require.Len(t, got, 3)
	assert.Equal(t, []string{"5", "6", "10"}, []string{got[0].Number, got[1].Number, got[2].Number})

	require.Len(t, got[0].Lines, 2)
	assert.Equal(t, "Cotton", got[0].Lines[0].Description)
	assert.Equal(t, "25", got[2].Lines[0].Rate.String())
}

func mustRead(t *testing.T, mem *store.Memory) [][]string {
	t.Helper()
	rows, err := mem.Read(context.Background(), "Challan")
	require.NoError(t, err)
	return rows
}

func TestReadJob_RebuildsFromInvoiceLedger(t *testing.T) {
	mem := store.NewMemory()
	mem.Seed("Invoice", [][]string{
		{"Firm", "Invoice_Number", "Supplier Code", "Challan_Number", "Description", "Qty"},
		{"ACME", "9", "S01", "5", "Cotton", "2.00"},
		{"ACME", "9", "S01", "", "Freight", "1.00"},
		{"ACME", "10", "S01", "6", "Silk", "3.00"},
		{"ACME", "9", "S01", "6", "Silk", "1.50"},
	})
	reader := reconciliation.NewDataReader(ledger.New(mem, ledger.DefaultTables, time.Second))

	job, err := reader.ReadJob(context.Background(), " 9 ")
	require.NoError(t, err)
	assert.Equal(t, "ACME|S01|9", job.Key())
	require.Len(t, job.Items, 2)
	assert.Equal(t, "Cotton", job.Items[0].Description)
	assert.Equal(t, "6", job.Items[1].ChallanNo)
	assert.Equal(t, "1.5", job.Items[1].Qty.String())

	_, err = reader.ReadJob(context.Background(), "404")
	assert.Error(t, err)
}
