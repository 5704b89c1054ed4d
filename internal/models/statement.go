package models

import (
	"errors"
	"fmt"

	"github.com/insightdelivered/statement-extractor/internal/money"
)

// ErrRunningBalance is wrapped by Verify failures.
var ErrRunningBalance = errors.New("running balance mismatch")

// Statement is the ordered transaction list of one statement document.
type Statement struct {
	Period         string        `json:"period,omitempty"`
	OpeningDate    string        `json:"openingDate,omitempty"`
	OpeningBalance int64         `json:"openingBalance"`
	ClosingDate    string        `json:"closingDate,omitempty"`
	ClosingBalance int64         `json:"closingBalance"`
	Transactions   []Transaction `json:"transactions"`
}

// Verify checks the running balance: each transaction's balance is the
// previous balance plus its amount, starting from the opening balance and
// ending at the closing balance.
func (s *Statement) Verify() error {
	balance := s.OpeningBalance
	for i, t := range s.Transactions {
		balance += t.Amount
		if t.Balance != balance {
			return fmt.Errorf("%w: transaction %d (%s): balance %s, expected %s",
				ErrRunningBalance, i, t.Kind, money.Display(t.Balance), money.Display(balance))
		}
	}
	if balance != s.ClosingBalance {
		return fmt.Errorf("%w: closing balance %s, expected %s",
			ErrRunningBalance, money.Display(s.ClosingBalance), money.Display(balance))
	}
	return nil
}

// Totals returns the sum of debits (as a positive number) and credits.
func (s *Statement) Totals() (debit, credit int64) {
	for _, t := range s.Transactions {
		if t.Amount < 0 {
			debit -= t.Amount
		} else {
			credit += t.Amount
		}
	}
	return debit, credit
}
