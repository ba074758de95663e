// Package layout draws challans and invoices on a fixed A4 grid.
//
// Coordinates are in points with the origin at the bottom-left corner of
// the page, so y grows upwards and "top" bands are drawn at large y.
package layout

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// Canvas is the drawing surface the layouts paint on.
type Canvas interface {
	Size() (w, h float64)
	SetFont(bold bool, size float64)
	StringWidth(s string) float64
	Text(x, y float64, s string)
	Line(x1, y1, x2, y2 float64)
	Rect(x, y, w, h float64, fill bool)
	SetLineWidth(w float64)
	SetFillGray(g float64)
	Image(name string, png []byte, x, y, w, h float64) error
}

const fontFamily = "Helvetica"

// PDFCanvas is a single A4 page backed by fpdf.
type PDFCanvas struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	width  float64
	height float64
}

// NewPDFCanvas starts a portrait A4 document with one blank page.
func NewPDFCanvas(created time.Time) *PDFCanvas {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	if !created.IsZero() {
		pdf.SetCreationDate(created)
		pdf.SetModificationDate(created)
	}
	pdf.AddPage()
	w, h := pdf.GetPageSize()

	// Core fonts are cp1252; anything outside it is dropped by the translator.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if tr == nil || pdf.Err() {
		pdf.ClearError()
		tr = func(s string) string { return s }
	}
	return &PDFCanvas{pdf: pdf, tr: tr, width: w, height: h}
}

func (p *PDFCanvas) Size() (float64, float64) {
	return p.width, p.height
}

func (p *PDFCanvas) SetFont(bold bool, size float64) {
	style := ""
	if bold {
		style = "B"
	}
	p.pdf.SetFont(fontFamily, style, size)
}

func (p *PDFCanvas) StringWidth(s string) float64 {
	return p.pdf.GetStringWidth(p.tr(s))
}

func (p *PDFCanvas) Text(x, y float64, s string) {
	if s == "" {
		return
	}
	p.pdf.Text(x, p.height-y, p.tr(s))
}

func (p *PDFCanvas) Line(x1, y1, x2, y2 float64) {
	p.pdf.Line(x1, p.height-y1, x2, p.height-y2)
}

func (p *PDFCanvas) Rect(x, y, w, h float64, fill bool) {
	style := "D"
	if fill {
		style = "FD"
	}
	p.pdf.Rect(x, p.height-y-h, w, h, style)
}

func (p *PDFCanvas) SetLineWidth(w float64) {
	p.pdf.SetLineWidth(w)
}

func (p *PDFCanvas) SetFillGray(g float64) {
	v := int(g*255 + 0.5)
	p.pdf.SetFillColor(v, v, v)
}

// Image embeds a PNG. A rejected image leaves the page intact.
func (p *PDFCanvas) Image(name string, png []byte, x, y, w, h float64) error {
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	p.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	if err := p.pdf.Error(); err != nil {
		p.pdf.ClearError()
		return fmt.Errorf("embed image %s: %w", name, err)
	}
	p.pdf.ImageOptions(name, x, p.height-y-h, w, h, false, opts, 0, "")
	if err := p.pdf.Error(); err != nil {
		p.pdf.ClearError()
		return fmt.Errorf("place image %s: %w", name, err)
	}
	return nil
}

// Bytes finishes the document and returns the encoded PDF.
func (p *PDFCanvas) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func textRight(c Canvas, x, y float64, s string) {
	c.Text(x-c.StringWidth(s), y, s)
}

func textCenter(c Canvas, x, y float64, s string) {
	c.Text(x-c.StringWidth(s)/2, y, s)
}
