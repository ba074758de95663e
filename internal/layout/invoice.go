package layout

import (
	"fmt"

	"github.com/shopspring/decimal"

	"billing/internal/totals"
	"billing/internal/words"
	"billing/pkg/models"
)

// Invoice is everything printed on a tax invoice.
type Invoice struct {
	Document   models.Document
	Lines      []models.InvoiceLine
	Summary    totals.Summary
	SACDefault string // Printed for lines without their own SAC
	Logo       *Logo
}

// DrawInvoice paints inv on one page and returns the number of item rows
// printed.
func DrawInvoice(c Canvas, inv Invoice, rows int) int {
	w, h := c.Size()
	left, right, top, base := margin, w-margin, h-margin, 42.0
	inner := right - left - 2
	firm, party, s := inv.Document.Firm, inv.Document.Party, inv.Summary

	c.SetLineWidth(stroke)
	c.Rect(left, base, right-left, top-base, false)

	const bandH = 26
	c.SetFillGray(bandGray)
	c.Rect(left+1, top-bandH, inner, bandH, true)
	c.SetFont(true, 16)
	textCenter(c, (left+right)/2, top-bandH+6, firm.TitleName)

	y := top - bandH - 8
	c.Rect(left+1, y-54, inner, 54, false)
	c.SetFont(true, 12)
	c.Text(left+10, y-16, "TAX INVOICE - "+firm.TitleName)
	c.SetFont(false, 9)
	ay := y - 30
	for _, ln := range Wrap(c.StringWidth, "Address: "+firm.Address, inner-20-160) {
		c.Text(left+10, ay, ln)
		ay -= lineStep
	}
	c.Text(left+10, ay, fmt.Sprintf("Mobile: %s   |   GST No.: %s", firm.Mobile, firm.GST))
	drawLogo(c, inv.Logo, right-10, y-8)

	y = ay - 24
	const partH = 130
	half := inner / 2
	c.Rect(left+1, y-partH, half, partH, false)
	c.Rect(left+1+half, y-partH, half, partH, false)

	c.SetFont(true, 10)
	c.Text(left+8, y-18, "Supplier details")
	c.SetFont(false, 9)
	sx, sy := left+8, y-34
	details := []string{"Name: " + orNone(party.Name)}
	if party.GSTIN != "" {
		details = append(details, "GSTIN: "+party.GSTIN)
	}
	if party.Mobile != "" {
		details = append(details, "Mobile: "+party.Mobile)
	}
	details = append(details, "Address:")
	for _, ln := range details {
		c.Text(sx, sy, ln)
		sy -= lineStep
	}
	for _, ln := range firstN(Wrap(c.StringWidth, party.Address, half-16), 8) {
		c.Text(sx+12, sy, ln)
		sy -= lineStep
	}

	mx := left + 10 + half
	c.SetFont(true, 10)
	c.Text(mx, y-18, "Invoice Details")
	c.SetFont(false, 9)
	c.Text(mx, y-36, "Invoice No.: "+inv.Document.Number)
	c.Text(mx, y-52, "Date: "+inv.Document.Date)

	ytbl := y - partH - 12
	const wCh, wDesc, wSAC, wMTR, wRate = 65, 240, 70, 60, 60
	wAmt := inner - (wCh + wDesc + wSAC + wMTR + wRate)
	widths := []float64{wCh, wDesc, wSAC, wMTR, wRate, wAmt}
	top0 := drawGrid(c, left+1, ytbl, widths, []string{"Ch. No", "Product Name", "SAC", "MTR", "Rate", "Amount"}, rows)

	shown := min(len(inv.Lines), rows)
	c.SetFont(false, 9)
	for r := 0; r < shown; r++ {
		ln := inv.Lines[r]
		ry := top0 - float64(r)*rowH - 12
		x := left + 1
		c.Text(x+6, ry, ln.ChallanNo)
		x += wCh
		c.Text(x+6, ry, clip(ln.Description, 50))
		x += wDesc
		sac := ln.SAC
		if sac == "" {
			sac = inv.SACDefault
		}
		c.Text(x+6, ry, sac)
		x += wSAC
		textRight(c, x+wMTR-6, ry, ln.Qty.StringFixed(2))
		x += wMTR
		textRight(c, x+wRate-6, ry, ln.Rate.StringFixed(2))
		x += wRate
		textRight(c, x+wAmt-6, ry, ln.Amount.StringFixed(2))
	}

	sub := top0 - float64(rows)*rowH
	lead := float64(wCh + wDesc + wSAC + wMTR)
	c.SetFont(true, 9)
	c.Rect(left+1, sub-rowH, lead, rowH, false)
	c.Text(left+7, sub-12, "Sub Total")
	if more := moreItems(len(inv.Lines), shown); more != "" {
		textRight(c, left+1+lead-6, sub-12, more)
	}
	c.Rect(left+1+lead, sub-rowH, wRate, rowH, false)
	c.Rect(left+1+lead+wRate, sub-rowH, wAmt, rowH, false)
	textRight(c, left+1+inner-6, sub-12, totals.Format(s.SubTotal))

	drawInvoiceFooter(c, firm, s, left, sub-26, inner)

	c.SetFont(false, 9)
	c.Text(left+10, base+22, "Customer Signature")
	textRight(c, right-10, base+22, "For "+firm.CompanyName)
	textRight(c, right-10, base+8, "Authorised Signatory")
	return shown
}

// drawInvoiceFooter draws the amounts in words, bank details and summary
// boxes below the item table, starting at ybot.
func drawInvoiceFooter(c Canvas, firm models.Firm, s totals.Summary, left, ybot, tableW float64) {
	const bottomH, wordsH = 200, 110
	half := tableW / 2
	c.Rect(left+1, ybot-bottomH, tableW, bottomH, false)

	c.Rect(left+1, ybot-wordsH, half, wordsH, false)
	c.SetFont(true, 10)
	c.Text(left+8, ybot-16, "Amounts in Words:")
	c.SetFont(false, 9)
	yl := ybot - 32
	for _, p := range []struct {
		label string
		value decimal.Decimal
	}{
		{"Taxable", s.Taxable},
		{"GST", s.CGST.Add(s.SGST)},
		{"Total", s.GrandTotal},
	} {
		for _, ln := range Wrap(c.StringWidth, p.label+": "+words.Rupees(p.value), half-16) {
			c.Text(left+8, yl, ln)
			yl -= lineStep
		}
	}

	c.Rect(left+1, ybot-bottomH, half, bottomH-wordsH, false)
	c.SetFont(true, 10)
	c.Text(left+8, ybot-wordsH-16, "Bank Details:")
	c.SetFont(false, 9)
	by := ybot - wordsH - 32
	for _, ln := range firm.BankLines {
		c.Text(left+8, by, ln)
		by -= lineStep
	}

	c.Rect(left+1+half, ybot-bottomH, half, bottomH, false)
	rx, rv := left+10+half, left+1+tableW-8
	c.SetFont(true, 10)
	c.Text(rx, ybot-16, "Summary")
	c.SetFont(true, 9)
	yy := ybot - 32
	leg := s.LegRate.StringFixed(1)
	for _, p := range [][2]string{
		{"Taxable Amount", totals.Format(s.Taxable)},
		{"Discount", totals.Format(s.Discount)},
		{"CGST (" + leg + "%)", totals.Format(s.CGST)},
		{"SGST (" + leg + "%)", totals.Format(s.SGST)},
		{"Round Off", signed(s.RoundOff)},
	} {
		c.Text(rx, yy, p[0]+":")
		textRight(c, rv, yy, p[1])
		yy -= 14
	}
	c.SetFont(true, 10)
	c.Text(rx, yy-2, "Grand Total (Rs.)")
	textRight(c, rv, yy-2, s.GrandTotal.StringFixed(0))
}

// signed formats d with two decimals and an explicit sign.
func signed(d decimal.Decimal) string {
	if d.IsNegative() {
		return d.StringFixed(2)
	}
	return "+" + d.StringFixed(2)
}
