// Package statementtest builds synthetic statement pages and PDFs for tests.
package statementtest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/insightdelivered/statement-extractor/internal/layout"
)

// Column positions of the table cells. With the header Page draws, the
// debit, credit and balance boundaries are 372, 449 and 541.
const (
	XDate    = 40
	XDesc    = 100
	XDebit   = 340
	XCredit  = 410
	XBalance = 480
)

// Cell is a piece of text at a column position.
type Cell struct {
	X    float64
	Text string
}

// Row is one table line.
type Row []Cell

// Page renders the content stream of a statement page: the page scale, a
// shaded box inside a saved state, the anchor rows, then one table row per
// entry of rows, twelve units apart.
func Page(page int, rows ...Row) string {
	var b strings.Builder
	b.WriteString("0.6 0 0 0.6 0 0 cm\nq 0.5 g 30 40 540 760 re f Q\n")
	text(&b, 40, 780, "ST.GEORGE BANK")
	text(&b, 40, 760, layout.StatementPeriodLabel)
	text(&b, 200, 760, "01 JAN 2024 to 31 JAN 2024")
	details := layout.TransactionDetailsFirst
	if page > 0 {
		details = layout.TransactionDetailsRepeat
	}
	text(&b, 40, 700, details)
	text(&b, 40, 680, layout.DateHeader)
	text(&b, 100, 680, layout.DescriptionHeader)
	text(&b, 330, 680, layout.DebitHeader)
	text(&b, 400, 680, layout.CreditHeader)
	text(&b, 460, 680, layout.BalanceHeader)

	y := 660.0
	for _, row := range rows {
		for _, c := range row {
			text(&b, c.X, y, c.Text)
		}
		y -= 12
	}
	return b.String()
}

func text(b *strings.Builder, x, y float64, s string) {
	fmt.Fprintf(b, "BT /F1 9 Tf 1 0 0 1 %g %g Tm (%s) Tj ET\n", x, y, s)
}

// Opening is an opening balance row.
func Opening(balance string) Row {
	return Row{{XDate, "01 JAN"}, {XDesc, "OPENING BALANCE"}, {XBalance, balance}}
}

// Closing is a closing balance row.
func Closing(balance string) Row {
	return Row{{XDate, "31 JAN"}, {XDesc, "CLOSING BALANCE"}, {XBalance, balance}}
}

// Debit is a transaction row with an amount in the debit column.
func Debit(date, desc, amount, balance string) Row {
	return Row{{XDate, date}, {XDesc, desc}, {XDebit, amount}, {XBalance, balance}}
}

// Credit is a transaction row with an amount in the credit column.
func Credit(date, desc, amount, balance string) Row {
	return Row{{XDate, date}, {XDesc, desc}, {XCredit, amount}, {XBalance, balance}}
}

// Detail is a continuation line.
func Detail(text string) Row {
	return Row{{XDesc, text}}
}

// Marker is a row with only a description and a balance, like the
// carried-forward subtotals.
func Marker(desc, balance string) Row {
	return Row{{XDesc, desc}, {XBalance, balance}}
}

// SinglePage is a one-page statement with an opening balance of 100.00 and
// one 5.00 EFTPOS purchase.
func SinglePage() string {
	return Page(0,
		Opening("100.00"),
		Debit("02 JAN", "EFTPOS PURCHASE TEST STORE", "5.00", "95.00"),
		Closing("95.00"),
	)
}

// PDF describes a document of uncompressed content streams.
type PDF struct {
	MediaBox [4]float64
	Pages    []string
}

// NewPDF returns a document with the statement page size.
func NewPDF(pages ...string) *PDF {
	return &PDF{MediaBox: [4]float64{0, 0, 596, 842}, Pages: pages}
}

// Bytes serializes the document with a classic cross-reference table.
func (p *PDF) Bytes() []byte {
	var (
		b       bytes.Buffer
		offsets []int
	)
	obj := func(body string) {
		offsets = append(offsets, b.Len())
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	b.WriteString("%PDF-1.4\n")
	kids := make([]string, len(p.Pages))
	for i := range p.Pages {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [%g %g %g %g] >>",
		strings.Join(kids, " "), len(p.Pages), p.MediaBox[0], p.MediaBox[1], p.MediaBox[2], p.MediaBox[3]))
	for i, content := range p.Pages {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /Contents %d 0 R >>", 4+2*i))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return b.Bytes()
}
