package layout

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"billing/internal/logger"
)

// Default row capacities.
const (
	ChallanRows = 5
	InvoiceRows = 10
)

// Options configures a Renderer.
type Options struct {
	ChallanRows int           // Item rows per challan copy
	InvoiceRows int           // Item rows per invoice
	SACDefault  string        // SAC printed for lines without one
	Logos       LogoSource    // nil renders without logos
	LogoTimeout time.Duration // Bound on a single logo fetch
}

// Page is a rendered document.
type Page struct {
	PDF  []byte
	Rows int // Item rows actually printed
}

// Renderer turns challans and invoices into PDF bytes.
type Renderer struct {
	opts Options
	log  zerolog.Logger
}

// NewRenderer fills unset options with the defaults.
func NewRenderer(opts Options) *Renderer {
	if opts.ChallanRows <= 0 {
		opts.ChallanRows = ChallanRows
	}
	if opts.InvoiceRows <= 0 {
		opts.InvoiceRows = InvoiceRows
	}
	if opts.LogoTimeout <= 0 {
		opts.LogoTimeout = 8 * time.Second
	}
	return &Renderer{opts: opts, log: logger.WithComponent("layout")}
}

// Challan renders ch with the firm's logo when one can be loaded.
func (r *Renderer) Challan(ctx context.Context, ch Challan) (Page, error) {
	const op = "RenderChallan"
	if ch.Logo == nil {
		ch.Logo = r.logo(ctx, ch.Document.Firm.Logo)
	}
	c := NewPDFCanvas(ch.Document.CreatedAt)
	rows := DrawChallan(c, ch, r.opts.ChallanRows)
	data, err := c.Bytes()
	if err != nil {
		return Page{}, fmt.Errorf("%s: challan %s: %w", op, ch.Document.Number, err)
	}
	r.log.Debug().
		Str("number", ch.Document.Number).
		Int("rows", rows).
		Int("bytes", len(data)).
		Msg("Challan rendered")
	return Page{PDF: data, Rows: rows}, nil
}

// Invoice renders inv with the firm's logo when one can be loaded.
func (r *Renderer) Invoice(ctx context.Context, inv Invoice) (Page, error) {
	const op = "RenderInvoice"
	if inv.SACDefault == "" {
		inv.SACDefault = r.opts.SACDefault
	}
	if inv.Logo == nil {
		inv.Logo = r.logo(ctx, inv.Document.Firm.Logo)
	}
	c := NewPDFCanvas(inv.Document.CreatedAt)
	rows := DrawInvoice(c, inv, r.opts.InvoiceRows)
	data, err := c.Bytes()
	if err != nil {
		return Page{}, fmt.Errorf("%s: invoice %s: %w", op, inv.Document.Number, err)
	}
	r.log.Debug().
		Str("number", inv.Document.Number).
		Int("rows", rows).
		Int("bytes", len(data)).
		Msg("Invoice rendered")
	return Page{PDF: data, Rows: rows}, nil
}

// logo loads ref, returning nil on any failure.
func (r *Renderer) logo(ctx context.Context, ref string) *Logo {
	if ref == "" || r.opts.Logos == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.opts.LogoTimeout)
	defer cancel()

	data, err := r.opts.Logos.Fetch(ctx, ref)
	if err != nil {
		r.log.Warn().Err(err).Msg("Logo load skipped")
		return nil
	}
	logo, err := PrepareLogo(data, logoMaxW, logoMaxH)
	if err != nil {
		r.log.Warn().Err(err).Msg("Logo load skipped")
		return nil
	}
	return logo
}
