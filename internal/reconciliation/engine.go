package reconciliation

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"billing/internal/ledger"
	"billing/internal/logger"
	"billing/internal/sequence"
	"billing/internal/totals"
	"billing/pkg/models"
)

// Plan picks, for each job item in order, a challan line with the same
// firm, supplier code, challan number and description that no earlier item
// has picked. A line this invoice already marked is picked without a new
// mark; otherwise the first line with no invoiced-quantity marker is marked.
// Fields are compared trimmed and exactly.
func Plan(lines []models.ChallanLine, job Job) []ledger.Mark {
	firm := strings.TrimSpace(job.Firm)
	code := strings.TrimSpace(job.SupplierCode)
	invoice := strings.TrimSpace(job.InvoiceNumber)

	claimed := make(map[int]bool)
	var marks []ledger.Mark
	for _, it := range job.Items {
		chNo := strings.TrimSpace(it.ChallanNo)
		desc := strings.TrimSpace(it.Description)
		if chNo == "" {
			continue
		}
		match := func(l models.ChallanLine) bool {
			return !claimed[l.Row] && l.Firm == firm && l.SupplierCode == code && l.ChallanNo == chNo && l.Description == desc
		}

		if invoice != "" {
			if l, ok := first(lines, func(l models.ChallanLine) bool {
				return match(l) && l.Invoiced() && l.InvoiceNo == invoice
			}); ok {
				claimed[l.Row] = true
				continue
			}
		}
		if l, ok := first(lines, func(l models.ChallanLine) bool {
			return match(l) && !l.Invoiced()
		}); ok {
			claimed[l.Row] = true
			marks = append(marks, ledger.Mark{Row: l.Row, Qty: totals.Format(it.Qty), Invoice: invoice})
		}
	}
	return marks
}

func first(lines []models.ChallanLine, keep func(models.ChallanLine) bool) (models.ChallanLine, bool) {
	for _, l := range lines {
		if keep(l) {
			return l, true
		}
	}
	return models.ChallanLine{}, false
}

// Engine applies reconciliation jobs to the challan ledger.
type Engine struct {
	repo    *ledger.Repository
	locker  sequence.Locker
	metrics *Metrics
	log     zerolog.Logger
}

// NewEngine returns an Engine. Jobs hold locker's lock on the challan
// ledger while they read and mark it; a nil locker locks in process.
// metrics may be nil.
func NewEngine(repo *ledger.Repository, metrics *Metrics, locker sequence.Locker) *Engine {
	if locker == nil {
		locker = sequence.NewLocalLocker()
	}
	return &Engine{
		repo:    repo,
		locker:  locker,
		metrics: metrics,
		log:     logger.WithComponent("reconciliation"),
	}
}

// Reconcile reads the challan ledger, plans the marks for job and writes
// them in one batch under the challan ledger lock. Rows already marked,
// by this invoice or another, are never rewritten, so running a job again
// marks nothing new. It returns the number of rows marked.
func (e *Engine) Reconcile(ctx context.Context, job Job) (int, error) {
	const op = "Reconcile"

	tracker := e.metrics.Track("reconcile")
	log := logger.WithFields(e.log, map[string]interface{}{
		"invoice":  job.InvoiceNumber,
		"supplier": job.SupplierCode,
	})

	table := e.repo.Tables().Challan
	unlock, err := e.locker.Lock(ctx, "reconcile:"+table)
	if err != nil {
		return 0, tracker.End(fmt.Errorf("%s: lock %s: %w", op, table, err))
	}
	defer unlock()

	snap, err := e.repo.ChallanSnapshot(ctx)
	if err != nil {
		return 0, tracker.End(fmt.Errorf("%s: %w", op, err))
	}

	marks := Plan(ledger.Lines(snap.Records), job)
	if len(marks) == 0 {
		log.Info().
			Int("items", len(job.Items)).
			Msg("No challan lines to mark")
		return 0, tracker.End(nil)
	}

	if err := e.repo.MarkInvoiced(ctx, snap, marks); err != nil {
		return 0, tracker.End(fmt.Errorf("%s: %w", op, err))
	}

	e.metrics.AddMarks(len(marks))
	log.Info().
		Int("items", len(job.Items)).
		Int("marked", len(marks)).
		Msg("Marked invoiced quantities on challans")

	return len(marks), tracker.End(nil)
}
