// Package document issues challans and invoices: it numbers them, renders
// the PDF, logs every item to the ledger and keeps the challans in step
// with what has been invoiced.
package document

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"billing/internal/archive"
	"billing/internal/layout"
	"billing/internal/ledger"
	"billing/internal/logger"
	"billing/internal/reconciliation"
	"billing/internal/sequence"
	"billing/internal/totals"
	"billing/pkg/models"
	"billing/pkg/services"
)

// DateLayout is the printed document date.
const DateLayout = "02/01/2006"

// Options holds the document defaults.
type Options struct {
	Rates       totals.Rates
	SACDefault  string
	Location    *time.Location
	PhoneRegion string
	Now         func() time.Time
}

// Deps are the collaborators of a Service. Queue and Archives may be empty.
type Deps struct {
	Ledger    *ledger.Repository
	Allocator *sequence.Allocator
	Renderer  *layout.Renderer
	Queue     reconciliation.Queue
	Archives  []archive.Archiver
}

// Service implements services.DocumentService.
type Service struct {
	deps Deps
	opts Options
	log  zerolog.Logger
}

var _ services.DocumentService = (*Service)(nil)

// NewService fills unset dependencies and options with in-process defaults.
func NewService(deps Deps, opts Options) *Service {
	if deps.Allocator == nil {
		deps.Allocator = sequence.NewAllocator(nil, nil)
	}
	if deps.Renderer == nil {
		deps.Renderer = layout.NewRenderer(layout.Options{SACDefault: opts.SACDefault})
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rates.GSTPercent.IsZero() {
		opts.Rates = totals.NewRates(5)
	}
	return &Service{deps: deps, opts: opts, log: logger.WithComponent("document")}
}

// NextNumber is the number the next document of kind would get.
func (s *Service) NextNumber(ctx context.Context, kind string) string {
	return s.deps.Allocator.Peek(ctx, kind, s.numbers(kind))
}

func (s *Service) numbers(kind string) sequence.ReadFunc {
	return func(ctx context.Context) ([]string, error) {
		return s.deps.Ledger.Numbers(ctx, kind)
	}
}

// CreateChallan issues a delivery challan.
func (s *Service) CreateChallan(ctx context.Context, req services.ChallanRequest) (*services.Result, error) {
	const op = "CreateChallan"
	log := logger.WithRequestID(s.log, uuid.NewString())

	items := ParseItems(req.Items, "")
	if len(items) == 0 {
		return nil, &Error{Op: op, Kind: ledger.Challan, Err: ErrNoValidItems}
	}

	now := s.now()
	doc := models.Document{
		Kind:              ledger.Challan,
		Date:              s.date(req.Date, now),
		SupplierChallanNo: strings.TrimSpace(req.SupplierChallanNo),
		Firm:              ledger.FindFirm(s.deps.Ledger.Firms(ctx), req.Firm),
		Party:             ResolveParty(s.deps.Ledger.Suppliers(ctx), req.Party, s.opts.PhoneRegion),
		CreatedAt:         now,
	}
	total := totals.Sum(amounts(items))

	page, err := s.issue(ctx, log, &doc, req.Number,
		func(ctx context.Context, d models.Document) error {
			return s.deps.Ledger.AppendChallan(ctx, ledger.ChallanRows(d, items))
		},
		func(ctx context.Context, d models.Document) (layout.Page, error) {
			return s.deps.Renderer.Challan(ctx, layout.Challan{Document: d, Items: items, Total: total})
		})
	if err != nil {
		return nil, &Error{Op: op, Kind: doc.Kind, Number: doc.Number, Err: err}
	}

	res := &services.Result{
		Document:  doc,
		FileName:  archive.Name(doc.Kind, doc.Number, doc.Party.Name, now),
		PDF:       page.PDF,
		Items:     items,
		Total:     total,
		Truncated: len(items) - page.Rows,
	}
	s.archive(ctx, log, res)

	log.Info().
		Str("number", doc.Number).
		Str("firm", doc.Firm.CompanyName).
		Str("party", doc.Party.Code).
		Int("items", len(items)).
		Int("truncated", res.Truncated).
		Str("total", totals.Format(total)).
		Msg("Challan issued")
	return res, nil
}

// CreateInvoice issues a tax invoice and schedules marking its lines on
// the originating challans.
func (s *Service) CreateInvoice(ctx context.Context, req services.InvoiceRequest) (*services.Result, error) {
	const op = "CreateInvoice"
	log := logger.WithRequestID(s.log, uuid.NewString())

	sac := strings.TrimSpace(req.SAC)
	if sac == "" {
		sac = s.opts.SACDefault
	}
	items := ParseItems(req.Items, sac)
	if len(items) == 0 {
		return nil, &Error{Op: op, Kind: ledger.Invoice, Err: ErrNoValidItems}
	}

	now := s.now()
	doc := models.Document{
		Kind:      ledger.Invoice,
		Date:      s.date(req.Date, now),
		Firm:      ledger.FindFirm(s.deps.Ledger.Firms(ctx), req.Firm),
		Party:     ResolveParty(s.deps.Ledger.Suppliers(ctx), req.Party, s.opts.PhoneRegion),
		CreatedAt: now,
	}

	computed, summary := totals.Compute(amounts(items), ledger.ParseDecimal(req.Discount), s.opts.Rates)
	lines := make([]models.InvoiceLine, len(items))
	for i, l := range computed {
		lines[i] = models.InvoiceLine{
			Item:       items[i],
			Discount:   l.Discount,
			Taxable:    l.Taxable,
			CGST:       l.CGST,
			SGST:       l.SGST,
			RoundOff:   l.RoundOff,
			GrandTotal: l.Total,
		}
	}

	page, err := s.issue(ctx, log, &doc, req.Number,
		func(ctx context.Context, d models.Document) error {
			return s.deps.Ledger.AppendInvoice(ctx, ledger.InvoiceRows(d, lines, s.opts.Rates.GSTPercent))
		},
		func(ctx context.Context, d models.Document) (layout.Page, error) {
			return s.deps.Renderer.Invoice(ctx, layout.Invoice{Document: d, Lines: lines, Summary: summary, SACDefault: sac})
		})
	if err != nil {
		return nil, &Error{Op: op, Kind: doc.Kind, Number: doc.Number, Err: err}
	}

	res := &services.Result{
		Document:  doc,
		FileName:  archive.Name(doc.Kind, doc.Number, doc.Party.Name, now),
		PDF:       page.PDF,
		Items:     items,
		Lines:     lines,
		Total:     summary.GrandTotal,
		Summary:   summary,
		Truncated: len(items) - page.Rows,
	}
	s.archive(ctx, log, res)
	s.reconcile(ctx, log, doc, items)

	log.Info().
		Str("number", doc.Number).
		Str("firm", doc.Firm.CompanyName).
		Str("party", doc.Party.Code).
		Int("items", len(items)).
		Int("truncated", res.Truncated).
		Str("taxable", totals.Format(summary.Taxable)).
		Str("grand_total", summary.GrandTotal.StringFixed(0)).
		Msg("Invoice issued")
	return res, nil
}

type persistFunc func(ctx context.Context, doc models.Document) error

type renderFunc func(ctx context.Context, doc models.Document) (layout.Page, error)

// issue numbers doc and then renders and persists it concurrently. An
// explicit number is used as given. A failed ledger write is logged and
// the document is still issued; doc.Number is set on return.
func (s *Service) issue(ctx context.Context, log zerolog.Logger, doc *models.Document, explicit string, persist persistFunc, render renderFunc) (layout.Page, error) {
	numbers := make(chan string, 1)
	var (
		page   layout.Page
		number string
		g      errgroup.Group
	)
	base := *doc

	g.Go(func() error {
		defer close(numbers)
		commit := func(ctx context.Context, n string) error {
			numbers <- n
			d := base
			d.Number = n
			return persist(ctx, d)
		}

		if explicit = strings.TrimSpace(explicit); explicit != "" {
			number = explicit
			if err := commit(ctx, explicit); err != nil {
				log.Error().Err(err).Str("number", explicit).Msg("Ledger append failed, document still issued")
			}
			return nil
		}

		n, err := s.deps.Allocator.Allocate(ctx, base.Kind, s.numbers(base.Kind), commit)
		if n == "" {
			return fmt.Errorf("%w: %v", ErrNumberUnavailable, err)
		}
		number = n
		if err != nil {
			log.Error().Err(err).Str("number", n).Msg("Ledger append failed, document still issued")
		}
		return nil
	})

	g.Go(func() error {
		n, ok := <-numbers
		if !ok {
			return nil
		}
		d := base
		d.Number = n
		p, err := render(ctx, d)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRenderFailed, err)
		}
		page = p
		return nil
	})

	err := g.Wait()
	doc.Number = number
	return page, err
}

func (s *Service) archive(ctx context.Context, log zerolog.Logger, res *services.Result) {
	for _, a := range s.deps.Archives {
		where, err := a.Save(ctx, res.Document.Kind, res.Document.Firm.CompanyName, res.FileName, res.PDF)
		if err != nil {
			log.Warn().Err(err).Str("file", res.FileName).Msg("Skip saving copy")
			continue
		}
		log.Info().Str("path", where).Msg("Saved copy")
	}
}

func (s *Service) reconcile(ctx context.Context, log zerolog.Logger, doc models.Document, items []models.Item) {
	if s.deps.Queue == nil {
		return
	}
	job := reconciliation.Job{
		Firm:          doc.Firm.CompanyName,
		SupplierCode:  doc.Party.Code,
		InvoiceNumber: doc.Number,
	}
	for _, it := range items {
		if it.ChallanNo == "" {
			continue
		}
		job.Items = append(job.Items, reconciliation.JobItem{ChallanNo: it.ChallanNo, Description: it.Description, Qty: it.Qty})
	}
	if len(job.Items) == 0 {
		return
	}
	if err := s.deps.Queue.Enqueue(context.WithoutCancel(ctx), job); err != nil {
		log.Error().Err(err).Str("job", job.Key()).Msg("Failed to schedule reconciliation")
	}
}

func (s *Service) now() time.Time {
	return s.opts.Now().In(s.opts.Location)
}

func (s *Service) date(requested string, now time.Time) string {
	if d := strings.TrimSpace(requested); d != "" {
		return d
	}
	return now.Format(DateLayout)
}
