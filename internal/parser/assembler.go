package parser

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/insightdelivered/statement-extractor/internal/layout"
	"github.com/insightdelivered/statement-extractor/internal/models"
	"github.com/insightdelivered/statement-extractor/internal/money"
)

// Section marker descriptions.
const (
	OpeningBalance      = "OPENING BALANCE"
	ClosingBalance      = "CLOSING BALANCE"
	CarriedFromPrevious = "SUB TOTAL CARRIED FORWARD FROM PREVIOUS PAGE"
	CarriedToNext       = "SUB TOTAL CARRIED FORWARD TO NEXT PAGE"
)

var (
	// ErrLayout is wrapped by every violation of the statement's row structure.
	ErrLayout = errors.New("unexpected statement layout")
	// ErrNoClosingBalance is returned when no page carried the closing balance.
	ErrNoClosingBalance = errors.New("closing balance not found")
)

// BalanceError reports a running balance that does not match the printed one.
type BalanceError struct {
	Page        int
	Description string
	Expected    int64
	Printed     int64
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("page %d: %s: running balance is %s but statement shows %s",
		e.Page+1, e.Description, money.Display(e.Expected), money.Display(e.Printed))
}

// Assembler turns classified rows into transactions, page by page, checking
// the running balance as it goes.
type Assembler struct {
	pageCount  int
	classifier *Classifier
	logger     *slog.Logger

	stmt    models.Statement
	closed  bool
	carried *int64 // balance carried to the next page
}

// NewAssembler returns an assembler for a document of pageCount pages.
func NewAssembler(pageCount int, classifier *Classifier, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{pageCount: pageCount, classifier: classifier, logger: logger}
}

func layoutErr(page int, format string, args ...any) error {
	return fmt.Errorf("%w: page %d: %s", ErrLayout, page+1, fmt.Sprintf(format, args...))
}

// AddPage processes one page's table. Pages must be added in order.
func (a *Assembler) AddPage(t *layout.Table) error {
	page := t.Page
	if a.stmt.Period == "" {
		a.stmt.Period = t.Period
	}

	var running *int64
	for _, row := range t.Rows {
		rec, err := t.Classify(row)
		if err != nil {
			return fmt.Errorf("page %d: %w", page+1, err)
		}
		if a.closed {
			return layoutErr(page, "row %q after closing balance", rec.Description)
		}

		if !rec.HasDate && !rec.HasAmount {
			switch rec.Description {
			case CarriedFromPrevious:
				if page == 0 {
					return layoutErr(page, "carried forward balance on first page")
				}
				if running != nil {
					return layoutErr(page, "carried forward balance after transactions")
				}
				if !rec.HasBalance {
					return layoutErr(page, "carried forward row without balance")
				}
				if a.carried == nil || *a.carried != rec.Balance {
					return &BalanceError{Page: page, Description: rec.Description, Expected: deref(a.carried), Printed: rec.Balance}
				}
				running = ptr(rec.Balance)
				continue

			case CarriedToNext:
				if page >= a.pageCount-1 {
					return layoutErr(page, "balance carried past the last page")
				}
				if running == nil || !rec.HasBalance || *running != rec.Balance {
					return &BalanceError{Page: page, Description: rec.Description, Expected: deref(running), Printed: rec.Balance}
				}
				a.carried = ptr(rec.Balance)
				a.logger.Debug("page carried forward", "page", page+1, "balance", money.FormatCents(rec.Balance))
				return nil

			default:
				if rec.HasBalance {
					return layoutErr(page, "continuation %q has a balance", rec.Description)
				}
				if rec.Description == "" {
					return layoutErr(page, "empty row at y=%v", rec.Y)
				}
				n := len(a.stmt.Transactions)
				if n == 0 {
					return layoutErr(page, "continuation %q before any transaction", rec.Description)
				}
				if err := a.stmt.Transactions[n-1].AddDetail(rec.Description); err != nil {
					return fmt.Errorf("page %d: %w", page+1, err)
				}
				continue
			}
		}

		switch rec.Description {
		case OpeningBalance:
			if page != 0 {
				return layoutErr(page, "opening balance after the first page")
			}
			if running != nil || len(a.stmt.Transactions) > 0 {
				return layoutErr(page, "second opening balance")
			}
			if rec.HasAmount || !rec.HasBalance {
				return layoutErr(page, "opening balance row must carry only a balance")
			}
			running = ptr(rec.Balance)
			a.stmt.OpeningDate = rec.Date
			a.stmt.OpeningBalance = rec.Balance
			continue

		case ClosingBalance:
			if running == nil || !rec.HasBalance || *running != rec.Balance {
				return &BalanceError{Page: page, Description: rec.Description, Expected: deref(running), Printed: rec.Balance}
			}
			a.stmt.ClosingDate = rec.Date
			a.stmt.ClosingBalance = rec.Balance
			a.closed = true
			a.logger.Debug("closing balance", "page", page+1, "balance", money.FormatCents(rec.Balance))
			return nil
		}

		if !rec.HasAmount {
			return layoutErr(page, "transaction %q has no amount", rec.Description)
		}
		if running == nil {
			return layoutErr(page, "transaction %q before opening balance", rec.Description)
		}
		kind := a.classifier.Classify(rec.Description, rec.Amount)
		a.stmt.Transactions = append(a.stmt.Transactions,
			models.NewTransaction(kind, rec.Date, rec.Description, rec.Amount, rec.Balance))

		*running += rec.Amount
		if !rec.HasBalance || *running != rec.Balance {
			return &BalanceError{Page: page, Description: rec.Description, Expected: *running, Printed: rec.Balance}
		}
	}
	return nil
}

// Finish returns the statement once the closing balance has been seen.
func (a *Assembler) Finish() (*models.Statement, error) {
	if !a.closed {
		return nil, ErrNoClosingBalance
	}
	stmt := a.stmt
	return &stmt, nil
}

// Unhandled lists continuation lines that only a generic transaction took.
func (a *Assembler) Unhandled() []string {
	var out []string
	for _, t := range a.stmt.Transactions {
		for _, d := range t.Unhandled {
			out = append(out, fmt.Sprintf("%s %s: %s", t.Date, t.Detail, d))
		}
	}
	return out
}

func ptr(v int64) *int64 { return &v }

func deref(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
