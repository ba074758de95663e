package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"billing/pkg/models"
)

const (
	margin   = 24.0
	rowH     = 18.0
	headH    = 16.0
	lineStep = 12.0
	logoMaxW = 140.0
	logoMaxH = 46.0
	bandGray = 0.93
	stroke   = 0.7
)

const none = "—"

// Challan is everything printed on a delivery challan.
type Challan struct {
	Document models.Document
	Items    []models.Item
	Total    decimal.Decimal // Grand total over every item, shown or not
	Logo     *Logo
}

// DrawChallan paints two identical copies of ch, one per half page, and
// returns the number of item rows printed in each copy.
func DrawChallan(c Canvas, ch Challan, rows int) int {
	_, h := c.Size()
	n := challanCopy(c, ch, rows, h-margin)
	challanCopy(c, ch, rows, h/2-8)
	return n
}

func challanCopy(c Canvas, ch Challan, rows int, top float64) int {
	w, _ := c.Size()
	left, right := margin, w-margin
	inner := right - left - 2
	firm, party := ch.Document.Firm, ch.Document.Party

	c.SetLineWidth(stroke)
	c.SetFillGray(bandGray)
	c.Rect(left+1, top-22, inner, 22, true)
	c.SetFont(true, 14)
	textCenter(c, (left+right)/2, top-17, firm.TitleName)

	y := top - 28
	c.SetFont(true, 11)
	c.Text(left+8, y-14, "DELIVERY CHALLAN - "+firm.TitleName)
	c.SetFont(false, 9)
	ay := y - 30
	for _, ln := range Wrap(c.StringWidth, "Address: "+firm.Address, inner-16-160) {
		c.Text(left+8, ay, ln)
		ay -= lineStep
	}
	c.Text(left+8, ay, fmt.Sprintf("Mobile: %s   |   GST No.: %s", firm.Mobile, firm.GST))
	drawLogo(c, ch.Logo, right-10, y-8)

	// Party and challan details side by side.
	y = ay - 24
	const partH = 112
	half := inner / 2
	c.Rect(left+1, y-partH, half, partH, false)
	c.Rect(left+1+half, y-partH, half, partH, false)

	c.SetFont(true, 10)
	c.Text(left+8, y-16, "Party Details - "+orNone(party.Name))
	c.SetFont(false, 9)
	var ids []string
	for _, v := range []string{party.GSTIN, party.Mobile} {
		if v != "" {
			ids = append(ids, v)
		}
	}
	if len(ids) > 0 {
		c.Text(left+8, y-32, strings.Join(ids, " | "))
	}
	label := "Address: "
	lw := c.StringWidth(label)
	addr := firstN(Wrap(c.StringWidth, party.Address, half-16-lw), 2)
	c.Text(left+8, y-46, label+addr[0])
	if len(addr) > 1 {
		c.Text(left+8+lw, y-58, addr[1])
	}

	mx := left + 10 + half
	c.SetFont(true, 10)
	c.Text(mx, y-16, "Challan Details")
	c.SetFont(false, 9)
	c.Text(mx, y-34, "Challan No.: "+ch.Document.Number)
	if sup := ch.Document.SupplierChallanNo; sup != "" {
		c.Text(mx, y-50, "Supplier Ch. No.: "+sup)
		c.Text(mx, y-66, "Date: "+ch.Document.Date)
	} else {
		c.Text(mx, y-50, "Date: "+ch.Document.Date)
	}

	// Items.
	ytbl := y - partH - 12
	const wNo, wMTR, wRate, wAmt = 40, 70, 90, 90
	wDesc := inner - (wNo + wMTR + wRate + wAmt)
	widths := []float64{wNo, wDesc, wMTR, wRate, wAmt}
	top0 := drawGrid(c, left+1, ytbl, widths, []string{"No.", "Product Name", "MTR", "Rate", "Amount"}, rows)

	shown := min(len(ch.Items), rows)
	c.SetFont(false, 9)
	for r := 0; r < shown; r++ {
		it := ch.Items[r]
		ry := top0 - float64(r)*rowH - 12
		x := left + 1
		textRight(c, x+wNo-6, ry, strconv.Itoa(r+1))
		x += wNo
		c.Text(x+6, ry, clip(it.Description, 60))
		x += wDesc
		textRight(c, x+wMTR-6, ry, it.Qty.StringFixed(2))
		x += wMTR
		textRight(c, x+wRate-6, ry, it.Rate.StringFixed(2))
		x += wRate
		textRight(c, x+wAmt-6, ry, it.Amount.StringFixed(2))
	}

	sub := top0 - float64(rows)*rowH
	c.SetFont(true, 9)
	c.Rect(left+1, sub-rowH, inner-wAmt, rowH, false)
	c.Text(left+7, sub-12, "Grand Total (Rs.)")
	if more := moreItems(len(ch.Items), shown); more != "" {
		textRight(c, left+1+inner-wAmt-6, sub-12, more)
	}
	c.Rect(left+1+inner-wAmt, sub-rowH, wAmt, rowH, false)
	textRight(c, left+1+inner-6, sub-12, ch.Total.StringFixed(2))

	sig := sub - 26
	c.SetFont(false, 9)
	c.Text(left+10, sig-30, "Receiver's Signature")
	textRight(c, right-10, sig-30, "Authorised Signatory")

	bottom := sig - 36
	c.Rect(left, bottom, right-left, top-bottom, false)
	return shown
}

// drawGrid draws a table frame with a header row and rows empty data rows
// below ytbl, and returns the y of the first data row's top edge.
func drawGrid(c Canvas, x0, ytbl float64, widths []float64, headers []string, rows int) float64 {
	tableW := 0.0
	for _, w := range widths {
		tableW += w
	}
	dataH := float64(rows) * rowH
	c.Rect(x0, ytbl-headH-dataH, tableW, headH+dataH, false)

	c.SetFont(true, 9)
	x := x0
	for i, w := range widths {
		c.Rect(x, ytbl-headH, w, headH, false)
		c.Text(x+6, ytbl-12, headers[i])
		x += w
	}

	top := ytbl - headH
	x = x0
	for _, w := range widths[:len(widths)-1] {
		x += w
		c.Line(x, top, x, top-dataH)
	}
	return top
}

// moreItems notes the items left off the page and counted in the totals.
func moreItems(total, shown int) string {
	switch n := total - shown; {
	case n == 1:
		return "+1 more item"
	case n > 1:
		return "+" + strconv.Itoa(n) + " more items"
	}
	return ""
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return none
	}
	return s
}

func firstN(lines []string, n int) []string {
	if len(lines) > n {
		return lines[:n]
	}
	return lines
}
