package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/insightdelivered/statement-extractor/internal/extractor"
	"github.com/insightdelivered/statement-extractor/internal/models"
	st "github.com/insightdelivered/statement-extractor/internal/statementtest"
)

// memSource serves synthetic content streams, one per page.
type memSource []string

func (m memSource) NumPages() int { return len(m) }

func (m memSource) Instructions(page int) ([]extractor.Instruction, error) {
	return extractor.ParseContent([]byte(m[page]))
}

func TestParse_SinglePage(t *testing.T) {
	src := memSource{st.Page(0,
		st.Opening("100.00"),
		st.Debit("02 JAN", "EFTPOS PURCHASE TEST STORE", "5.00", "95.00"),
		st.Closing("95.00"),
	)}

	stmt, err := Parse(context.Background(), src, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stmt.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(stmt.Transactions))
	}
	got := stmt.Transactions[0]
	if got.Kind != models.KindEftPosPurchase {
		t.Errorf("kind: got %s, want %s", got.Kind, models.KindEftPosPurchase)
	}
	if got.Amount != -500 || got.Balance != 9500 {
		t.Errorf("amount/balance: got %d/%d, want -500/9500", got.Amount, got.Balance)
	}
	if stmt.OpeningBalance != 10000 || stmt.ClosingBalance != 9500 {
		t.Errorf("opening/closing: got %d/%d", stmt.OpeningBalance, stmt.ClosingBalance)
	}
	if stmt.Period != "01 JAN 2024 to 31 JAN 2024" {
		t.Errorf("period: got %q", stmt.Period)
	}
	if err := stmt.Verify(); err != nil {
		t.Errorf("verify: %v", err)
	}
}

func TestParse_ClosingBalanceMismatch(t *testing.T) {
	src := memSource{st.Page(0,
		st.Opening("100.00"),
		st.Debit("02 JAN", "EFTPOS PURCHASE TEST STORE", "5.00", "95.00"),
		st.Closing("90.00"),
	)}

	_, err := Parse(context.Background(), src, Options{})
	var balErr *BalanceError
	if !errors.As(err, &balErr) {
		t.Fatalf("got %v, want BalanceError", err)
	}
	if balErr.Expected != 9500 || balErr.Printed != 9000 {
		t.Errorf("got expected=%d printed=%d", balErr.Expected, balErr.Printed)
	}
}

func TestParse_UnrecognizedOperator(t *testing.T) {
	content := st.Page(0,
		st.Opening("100.00"),
		st.Debit("02 JAN", "EFTPOS PURCHASE TEST STORE", "5.00", "95.00"),
		st.Closing("95.00"),
	)
	src := memSource{"1 0 0 RG\n" + content + "zz\n"}

	_, err := Parse(context.Background(), src, Options{})
	var opErr *UnrecognizedOperatorsError
	if !errors.As(err, &opErr) {
		t.Fatalf("got %v, want UnrecognizedOperatorsError", err)
	}
	want := []string{"RG", "zz"}
	if strings.Join(opErr.Operators, ",") != strings.Join(want, ",") {
		t.Errorf("operators: got %v, want %v", opErr.Operators, want)
	}
}

func multiPage(carriedFrom string) memSource {
	return memSource{
		st.Page(0,
			st.Opening("100.00"),
			st.Credit("03 JAN", "SALARY ACME PTY LTD", "50.00", "150.00"),
			st.Detail("PAYROLL JAN"),
			st.Marker(CarriedToNext, "150.00"),
		),
		st.Page(1,
			st.Marker(CarriedFromPrevious, carriedFrom),
			st.Debit("05 JAN", "VISA PURCHASE O/SEAS 02/01", "10.00", "140.00"),
			st.Detail("USD 7.00"),
			st.Detail("HOTEL SAIGON"),
			st.Debit("06 JAN", "GMHBA", "20.00", "120.00"),
			st.Closing("120.00"),
		),
	}
}

func TestParse_MultiPage(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			stmt, err := Parse(context.Background(), multiPage("150.00"), Options{Workers: workers})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(stmt.Transactions) != 3 {
				t.Fatalf("got %d transactions, want 3", len(stmt.Transactions))
			}

			salary := stmt.Transactions[0]
			if salary.Kind != models.KindCredit || salary.Note != "PAYROLL JAN" {
				t.Errorf("credit: got %+v", salary)
			}
			visa := stmt.Transactions[1]
			if visa.Kind != models.KindVisaPurchaseForeign {
				t.Errorf("visa kind: got %s", visa.Kind)
			}
			if visa.RealDate != "VISA PURCHASE O/SEAS 02/01" || visa.ForeignValue != "USD 7.00" || visa.Detail != "HOTEL SAIGON" {
				t.Errorf("visa fields: got %+v", visa)
			}
			if dd := stmt.Transactions[2]; dd.Kind != models.KindDirectDebit {
				t.Errorf("direct debit kind: got %s", dd.Kind)
			}
			if err := stmt.Verify(); err != nil {
				t.Errorf("verify: %v", err)
			}
		})
	}
}

func TestParse_CarriedBalanceMismatch(t *testing.T) {
	_, err := Parse(context.Background(), multiPage("160.00"), Options{Workers: 2})
	var balErr *BalanceError
	if !errors.As(err, &balErr) {
		t.Fatalf("got %v, want BalanceError", err)
	}
	if balErr.Page != 1 || balErr.Description != CarriedFromPrevious {
		t.Errorf("got %+v", balErr)
	}
}

func TestParse_DirectDebitPayees(t *testing.T) {
	src := memSource{st.Page(0,
		st.Opening("100.00"),
		st.Debit("02 JAN", "CITY WATER", "30.00", "70.00"),
		st.Detail("REF 1234"),
		st.Closing("70.00"),
	)}

	stmt, err := Parse(context.Background(), src, Options{DirectDebitPayees: []string{"CITY WATER"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := stmt.Transactions[0]; got.Kind != models.KindDirectDebit || got.Note != "REF 1234" {
		t.Errorf("got %+v", got)
	}

	// without the payee the continuation lands on a generic transaction
	_, err = Parse(context.Background(), src, Options{})
	var detErr *UnhandledDetailsError
	if !errors.As(err, &detErr) || !errors.Is(err, ErrUnhandledDetails) {
		t.Fatalf("got %v, want UnhandledDetailsError", err)
	}
	if len(detErr.Details) != 1 || !strings.Contains(detErr.Details[0], "REF 1234") {
		t.Errorf("details: got %v", detErr.Details)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     memSource
		wantErr error
	}{
		{
			name:    "no closing balance",
			src:     memSource{st.Page(0, st.Opening("100.00"))},
			wantErr: ErrNoClosingBalance,
		},
		{
			name:    "row after closing balance",
			src:     memSource{st.Page(0, st.Opening("100.00"), st.Closing("100.00")), st.Page(1, st.Detail("LATE"))},
			wantErr: ErrLayout,
		},
		{
			name:    "continuation before any transaction",
			src:     memSource{st.Page(0, st.Detail("ORPHAN"), st.Opening("100.00"), st.Closing("100.00"))},
			wantErr: ErrLayout,
		},
		{
			name:    "continuation with balance",
			src:     memSource{st.Page(0, st.Opening("100.00"), st.Marker("NOTE", "1.00"), st.Closing("100.00"))},
			wantErr: ErrLayout,
		},
		{
			name: "carried forward on last page",
			src: memSource{st.Page(0, st.Opening("100.00"),
				st.Marker(CarriedToNext, "100.00"))},
			wantErr: ErrLayout,
		},
		{
			name:    "detail written twice",
			src:     memSource{st.Page(0, st.Opening("100.00"), st.Debit("02 JAN", "EFTPOS PURCHASE X", "1.00", "99.00"), st.Detail("A"), st.Detail("B"), st.Closing("99.00"))},
			wantErr: models.ErrDetailRejected,
		},
		{
			name:    "unexpected scale",
			src:     memSource{"2 0 0 2 0 0 cm\n" + st.Page(0, st.Opening("100.00"), st.Closing("100.00"))},
			wantErr: extractor.ErrUnexpectedScale,
		},
		{
			name:    "text in saved state",
			src:     memSource{"q BT 1 0 0 1 5 5 Tm (x) Tj ET Q\n" + st.Page(0, st.Opening("100.00"), st.Closing("100.00"))},
			wantErr: extractor.ErrTextInSavedState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(context.Background(), tt.src, Options{})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParse_Document(t *testing.T) {
	data := st.NewPDF(st.SinglePage()).Bytes()
	doc, err := extractor.NewDocument(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	defer doc.Close()

	stmt, err := Parse(context.Background(), doc, Options{Workers: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stmt.Transactions) != 1 || stmt.Transactions[0].Kind != models.KindEftPosPurchase {
		t.Errorf("got %+v", stmt.Transactions)
	}
}

func TestParse_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Parse(ctx, multiPage("150.00"), Options{Workers: 2})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
