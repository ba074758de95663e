package layout_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing/internal/layout"
	"billing/internal/totals"
	"billing/pkg/models"
)

type drawnText struct {
	x, y float64
	s    string
	bold bool
}

// recorder is a Canvas that keeps every string and image it is given.
type recorder struct {
	size   float64
	bold   bool
	texts  []drawnText
	images []string
	rects  int
}

func newRecorder() *recorder { return &recorder{size: 9} }

func (r *recorder) Size() (float64, float64)      { return 595.28, 841.89 }
func (r *recorder) SetFont(bold bool, size float64) { r.bold, r.size = bold, size }
func (r *recorder) StringWidth(s string) float64 {
	return float64(len([]rune(s))) * r.size * 0.5
}
func (r *recorder) Text(x, y float64, s string) {
	r.texts = append(r.texts, drawnText{x: x, y: y, s: s, bold: r.bold})
}
func (r *recorder) Line(x1, y1, x2, y2 float64)        {}
func (r *recorder) Rect(x, y, w, h float64, fill bool) { r.rects++ }
func (r *recorder) SetLineWidth(w float64)             {}
func (r *recorder) SetFillGray(g float64)              {}
func (r *recorder) Image(name string, png []byte, x, y, w, h float64) error {
	r.images = append(r.images, name)
	return nil
}

func (r *recorder) count(s string) int {
	return len(r.find(s))
}

func (r *recorder) containing(sub string) []drawnText {
	var out []drawnText
	for _, t := range r.texts {
		if strings.Contains(t.s, sub) {
			out = append(out, t)
		}
	}
	return out
}

func (r *recorder) find(s string) []drawnText {
	var out []drawnText
	for _, t := range r.texts {
		if t.s == s {
			out = append(out, t)
		}
	}
	return out
}

func testDocument(kind string) models.Document {
	return models.Document{
		Kind:   kind,
		Number: "7",
		Date:   "14/10/2026",
		Firm: models.Firm{
			Key:         "ACME",
			TitleName:   "Acme Textiles",
			CompanyName: "Acme Textiles Pvt Ltd",
			Address:     "12 Ring Road, Surat",
			Mobile:      "+91 98765 43210",
			GST:         "24ABCDE1234F1Z5",
			BankLines:   []string{"Bank: SBI", "A/C Name: Acme", "A/C No.: 1", "IFSC: SBIN0000001", "Branch: Surat"},
		},
		Party: models.Party{Code: "S1", Name: "Om Traders", GSTIN: "24AAAAA0000A1Z5", Address: "Market Yard"},
	}
}

func items(n int) []models.Item {
	out := make([]models.Item, n)
	for i := range out {
		qty := decimal.NewFromInt(int64(i + 1))
		rate := decimal.RequireFromString("10.50")
		out[i] = models.Item{
			ChallanNo:   fmt.Sprint(100 + i),
			Description: fmt.Sprintf("Item %02d", i+1),
			Qty:         qty,
			Rate:        rate,
			Amount:      totals.LineAmount(qty, rate),
		}
	}
	return out
}

func invoiceOf(n int, discount string) layout.Invoice {
	its := items(n)
	amounts := make([]decimal.Decimal, n)
	for i, it := range its {
		amounts[i] = it.Amount
	}
	computed, summary := totals.Compute(amounts, decimal.RequireFromString(discount), totals.NewRates(5))
	lines := make([]models.InvoiceLine, n)
	for i, l := range computed {
		lines[i] = models.InvoiceLine{Item: its[i], Discount: l.Discount, Taxable: l.Taxable, CGST: l.CGST, SGST: l.SGST, RoundOff: l.RoundOff, GrandTotal: l.Total}
	}
	return layout.Invoice{Document: testDocument("invoice"), Lines: lines, Summary: summary, SACDefault: "123456"}
}

func TestDrawInvoiceTruncatesToRowCap(t *testing.T) {
	c := newRecorder()
	rows := layout.DrawInvoice(c, invoiceOf(12, "0"), layout.InvoiceRows)

	assert.Equal(t, 10, rows)
	for i := 1; i <= 10; i++ {
		assert.Equal(t, 1, c.count(fmt.Sprintf("Item %02d", i)), "item %d", i)
	}
	assert.Zero(t, c.count("Item 11"))
	assert.Zero(t, c.count("Item 12"))
	assert.Equal(t, 10, c.count("123456"), "SAC default on every printed line")
	assert.Equal(t, 1, c.count("+2 more items"))
}

func TestDrawInvoiceFullPageHasNoMoreNote(t *testing.T) {
	c := newRecorder()
	layout.DrawInvoice(c, invoiceOf(10, "0"), layout.InvoiceRows)

	assert.Empty(t, c.containing("more item"))
}

func TestDrawInvoiceSummary(t *testing.T) {
	c := newRecorder()
	inv := invoiceOf(3, "5")
	layout.DrawInvoice(c, inv, layout.InvoiceRows)

	s := inv.Summary
	assert.Equal(t, 1, c.count("CGST (2.5%):"))
	assert.Equal(t, 1, c.count("SGST (2.5%):"))
	assert.Equal(t, 1, c.count("Grand Total (Rs.)"))
	assert.Equal(t, 1, c.count(s.GrandTotal.StringFixed(0)))
	assert.Equal(t, 1, c.count(totals.Format(s.SubTotal)))
	assert.NotEmpty(t, c.containing("Total: "))
	assert.NotEmpty(t, c.containing("Rupees Only"))
	assert.Equal(t, 1, c.count("For Acme Textiles Pvt Ltd"))
	assert.Equal(t, 1, c.count("Bank: SBI"))

	roundOff := c.containing("Round Off")
	require.Len(t, roundOff, 1)
	var signedValue bool
	for _, txt := range c.texts {
		if txt.y == roundOff[0].y && (strings.HasPrefix(txt.s, "+") || strings.HasPrefix(txt.s, "-")) {
			signedValue = true
		}
	}
	assert.True(t, signedValue, "round off is printed with a sign")
}

func TestDrawInvoiceRightAlignsNumbers(t *testing.T) {
	c := newRecorder()
	layout.DrawInvoice(c, invoiceOf(10, "0"), layout.InvoiceRows)

	first, last := c.find("1.00"), c.find("10.00")
	require.Len(t, first, 1)
	require.Len(t, last, 1)
	end := func(d drawnText) float64 { return d.x + c.StringWidth(d.s) }
	assert.InDelta(t, end(first[0]), end(last[0]), 0.001)
	assert.Greater(t, first[0].x, last[0].x)
}

func TestDrawInvoiceClipsDescription(t *testing.T) {
	c := newRecorder()
	inv := invoiceOf(1, "0")
	inv.Lines[0].Description = strings.Repeat("x", 80)
	layout.DrawInvoice(c, inv, layout.InvoiceRows)

	assert.Equal(t, 1, c.count(strings.Repeat("x", 50)))
}

func TestDrawChallanTwoCopies(t *testing.T) {
	c := newRecorder()
	its := items(7)
	ch := layout.Challan{Document: testDocument("challan"), Items: its, Total: decimal.RequireFromString("294.00")}
	rows := layout.DrawChallan(c, ch, layout.ChallanRows)

	assert.Equal(t, 5, rows)
	assert.Equal(t, 2, c.count("Challan No.: 7"))
	assert.Equal(t, 2, c.count("Item 05"))
	assert.Zero(t, c.count("Item 06"))
	assert.Equal(t, 2, c.count("+2 more items"))
	assert.Equal(t, 2, c.count("294.00"))
	assert.Equal(t, 2, c.count("Party Details - Om Traders"))
	assert.Equal(t, 2, c.count("DELIVERY CHALLAN - Acme Textiles"))

	copies := c.containing("Challan No.: 7")
	assert.Greater(t, copies[0].y, 841.89/2)
	assert.Less(t, copies[1].y, 841.89/2)
}

func TestDrawChallanSupplierNumberShiftsDate(t *testing.T) {
	c := newRecorder()
	doc := testDocument("challan")
	doc.SupplierChallanNo = "SC-9"
	layout.DrawChallan(c, layout.Challan{Document: doc, Items: items(1)}, layout.ChallanRows)

	sup := c.find("Supplier Ch. No.: SC-9")
	date := c.find("Date: 14/10/2026")
	require.Len(t, sup, 2)
	require.Len(t, date, 2)
	assert.InDelta(t, sup[0].y-16, date[0].y, 0.001)
}

func TestDrawChallanBlankParty(t *testing.T) {
	c := newRecorder()
	doc := testDocument("challan")
	doc.Party = models.Party{}
	layout.DrawChallan(c, layout.Challan{Document: doc}, layout.ChallanRows)

	assert.Equal(t, 2, c.count("Party Details - —"))
	assert.Equal(t, 2, c.count("Address: "))
	assert.Equal(t, 2, c.count("0.00"), "grand total of an empty challan")
}

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPrepareLogoFitsBox(t *testing.T) {
	logo, err := layout.PrepareLogo(pngOf(t, 1000, 100), 140, 46)
	require.NoError(t, err)
	assert.InDelta(t, 140, logo.W, 0.001)
	assert.InDelta(t, 14, logo.H, 0.001)

	logo, err = layout.PrepareLogo(pngOf(t, 50, 100), 140, 46)
	require.NoError(t, err)
	assert.InDelta(t, 23, logo.W, 0.001)
	assert.InDelta(t, 46, logo.H, 0.001)

	_, err = layout.PrepareLogo([]byte("not an image"), 140, 46)
	assert.Error(t, err)
}

func TestStockSourceDataURI(t *testing.T) {
	raw := pngOf(t, 4, 4)
	ref := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)
	got, err := layout.StockSource{}.Fetch(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	_, err = layout.StockSource{}.Fetch(context.Background(), "data:image/png;base64")
	assert.Error(t, err)
}

func TestRendererProducesPDF(t *testing.T) {
	r := layout.NewRenderer(layout.Options{SACDefault: "123456"})
	inv := invoiceOf(12, "10")
	inv.Document.CreatedAt = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

	page, err := r.Invoice(context.Background(), inv)
	require.NoError(t, err)
	assert.Equal(t, 10, page.Rows)
	assert.True(t, bytes.HasPrefix(page.PDF, []byte("%PDF")))

	chPage, err := r.Challan(context.Background(), layout.Challan{Document: testDocument("challan"), Items: items(2)})
	require.NoError(t, err)
	assert.Equal(t, 2, chPage.Rows)
	assert.True(t, bytes.HasPrefix(chPage.PDF, []byte("%PDF")))
}

func TestRendererSkipsBrokenLogo(t *testing.T) {
	var asked []string
	src := layout.LogoFunc(func(_ context.Context, ref string) ([]byte, error) {
		asked = append(asked, ref)
		return nil, errors.New("unreachable")
	})
	r := layout.NewRenderer(layout.Options{Logos: src})
	doc := testDocument("challan")
	doc.Firm.Logo = "https://example.invalid/logo.png"

	page, err := r.Challan(context.Background(), layout.Challan{Document: doc, Items: items(1)})
	require.NoError(t, err)
	assert.NotEmpty(t, page.PDF)
	assert.Equal(t, []string{"https://example.invalid/logo.png"}, asked)
}

func TestRendererSurvivesUndecodableLogo(t *testing.T) {
	r := layout.NewRenderer(layout.Options{})
	doc := testDocument("invoice")
	bad := &layout.Logo{Name: "logo-bad", PNG: []byte("not a png"), W: 140, H: 46}

	page, err := r.Invoice(context.Background(), layout.Invoice{Document: doc, Lines: invoiceOf(1, "0").Lines, Logo: bad})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(page.PDF, []byte("%PDF")))

	chPage, err := r.Challan(context.Background(), layout.Challan{Document: testDocument("challan"), Items: items(1), Logo: bad})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(chPage.PDF, []byte("%PDF")))
}

func TestPDFCanvasRecoversFromRejectedImage(t *testing.T) {
	c := layout.NewPDFCanvas(time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC))
	assert.Error(t, c.Image("broken", []byte{0x89, 'P', 'N', 'G'}, 10, 10, 20, 20))
	c.SetFont(false, 9)
	c.Text(10, 10, "still drawn")

	data, err := c.Bytes()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestRendererEmbedsLogo(t *testing.T) {
	data := pngOf(t, 280, 92)
	src := layout.LogoFunc(func(context.Context, string) ([]byte, error) { return data, nil })
	r := layout.NewRenderer(layout.Options{Logos: src})
	doc := testDocument("invoice")
	doc.Firm.Logo = "logo.png"

	page, err := r.Invoice(context.Background(), layout.Invoice{Document: doc, Lines: invoiceOf(1, "0").Lines})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(page.PDF, []byte("%PDF")))
}

func TestDrawChallanLogoOnEachCopy(t *testing.T) {
	logo, err := layout.PrepareLogo(pngOf(t, 280, 92), 140, 46)
	require.NoError(t, err)
	c := newRecorder()
	layout.DrawChallan(c, layout.Challan{Document: testDocument("challan"), Logo: logo}, layout.ChallanRows)

	assert.Equal(t, []string{logo.Name, logo.Name}, c.images)
}
