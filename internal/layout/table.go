package layout

import (
	"errors"
	"fmt"

	"github.com/insightdelivered/statement-extractor/internal/extractor"
	"github.com/insightdelivered/statement-extractor/internal/money"
)

// Anchor texts that locate the transaction table on a page.
const (
	StatementPeriodLabel     = "Statement Period"
	TransactionDetailsFirst  = "Transaction Details"
	TransactionDetailsRepeat = "Transaction Details continued"
	DateHeader               = "Date"
	DescriptionHeader        = "Transaction Description"
	DebitHeader              = "Debit"
	CreditHeader             = "Credit"
	BalanceHeader            = "Balance $"
)

// The amount columns are right aligned, so their boundaries sit past the
// header text: roughly seven units per character plus one character.
const (
	DebitColumnOffset   = 42
	CreditColumnOffset  = 49
	BalanceColumnOffset = 81
)

var (
	// ErrHeaderMismatch is returned when the column header row is not the expected one.
	ErrHeaderMismatch = errors.New("unexpected column header row")
	// ErrOutsideColumns is returned for a cell right of the balance column.
	ErrOutsideColumns = errors.New("cell outside table columns")
)

// SlotError reports two cells of one row landing in the same field.
type SlotError struct {
	Slot  string
	Y     float64
	First string
	Next  string
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("row at y=%v: both %q and %q in %s column", e.Y, e.First, e.Next, e.Slot)
}

// Columns holds the x boundaries of the transaction table.
// Date and Description are exact left edges; the others are exclusive upper bounds.
type Columns struct {
	Date        float64
	Description float64
	DebitEnd    float64
	CreditEnd   float64
	BalanceEnd  float64
}

// Table is the transaction section of one page.
type Table struct {
	Page    int
	Period  string
	Columns Columns
	// Rows are the lines below the column header, top first.
	Rows []Row
}

// Record is the field tuple of one classified row. The Has flags record
// whether a cell landed in the field, even one with empty text.
type Record struct {
	Y           float64
	Date        string
	HasDate     bool
	Description string
	Amount      int64
	HasAmount   bool
	Balance     int64
	HasBalance  bool
}

// Row slots, in column order.
const (
	slotDate = iota
	slotDescription
	slotAmount
	slotBalance
	numSlots
)

var slotNames = [numSlots]string{"date", "description", "amount", "balance"}

// Reconstruct clusters a page's fragments into rows and locates the
// transaction table. A page without the anchor rows yields a table with no rows.
func Reconstruct(frags []extractor.Fragment, page int) (*Table, error) {
	rows := ClusterRows(frags)
	t := &Table{Page: page}

	detailsLabel := TransactionDetailsFirst
	if page > 0 {
		detailsLabel = TransactionDetailsRepeat
	}

	const (
		wantPeriod = iota
		wantDetails
		wantHeader
	)
	state := wantPeriod
	for i, row := range rows {
		first := row.Cells[0]
		switch state {
		case wantPeriod:
			if first.Text == StatementPeriodLabel {
				if len(row.Cells) > 1 {
					t.Period = row.Cells[1].Text
				}
				state = wantDetails
			}
		case wantDetails:
			if first.Text == detailsLabel {
				t.Columns.Date = first.X
				state = wantHeader
			}
		case wantHeader:
			if first.X == t.Columns.Date && first.Text == DateHeader {
				if err := t.Columns.fromHeader(row); err != nil {
					return nil, fmt.Errorf("page %d: %w", page+1, err)
				}
				t.Rows = rows[i+1:]
				return t, nil
			}
		}
	}
	return t, nil
}

func (c *Columns) fromHeader(row Row) error {
	want := []string{DateHeader, DescriptionHeader, DebitHeader, CreditHeader, BalanceHeader}
	if len(row.Cells) != len(want) {
		return fmt.Errorf("%w: %d cells %v", ErrHeaderMismatch, len(row.Cells), row.Cells)
	}
	for i, w := range want {
		if row.Cells[i].Text != w {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrHeaderMismatch, i, row.Cells[i].Text, w)
		}
	}
	c.Description = row.Cells[1].X
	c.DebitEnd = row.Cells[2].X + DebitColumnOffset
	c.CreditEnd = row.Cells[3].X + CreditColumnOffset
	c.BalanceEnd = row.Cells[4].X + BalanceColumnOffset
	return nil
}

// Classify assigns each cell of a table row to a field by its x position.
// Debit amounts come back negative, credit amounts positive.
func (t *Table) Classify(row Row) (Record, error) {
	var (
		texts  [numSlots]string
		filled [numSlots]bool
		debit  bool
	)
	for _, c := range row.Cells {
		var slot int
		switch {
		case c.X == t.Columns.Date:
			slot = slotDate
		case c.X == t.Columns.Description:
			slot = slotDescription
		case c.X < t.Columns.CreditEnd:
			slot = slotAmount
			debit = c.X < t.Columns.DebitEnd
		case c.X < t.Columns.BalanceEnd:
			slot = slotBalance
		default:
			return Record{}, fmt.Errorf("%w: %q at x=%v, y=%v", ErrOutsideColumns, c.Text, c.X, row.Y)
		}
		if filled[slot] {
			return Record{}, &SlotError{Slot: slotNames[slot], Y: row.Y, First: texts[slot], Next: c.Text}
		}
		texts[slot], filled[slot] = c.Text, true
	}

	rec := Record{
		Y:           row.Y,
		Date:        texts[slotDate],
		HasDate:     filled[slotDate],
		Description: texts[slotDescription],
	}
	if filled[slotAmount] {
		cents, err := money.ParseCents(texts[slotAmount])
		if err != nil {
			return Record{}, fmt.Errorf("row at y=%v: %w", row.Y, err)
		}
		if debit {
			cents = -cents
		}
		rec.Amount, rec.HasAmount = cents, true
	}
	if filled[slotBalance] {
		cents, err := money.ParseCents(texts[slotBalance])
		if err != nil {
			return Record{}, fmt.Errorf("row at y=%v: %w", row.Y, err)
		}
		rec.Balance, rec.HasBalance = cents, true
	}
	return rec, nil
}
