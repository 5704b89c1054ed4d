package parser

import (
	"testing"

	"github.com/insightdelivered/statement-extractor/internal/models"
)

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier(DefaultDirectDebitPayees)

	tests := []struct {
		description string
		amount      int64
		want        models.Kind
	}{
		{"VISA PURCHASE O/SEAS 12/03", -1000, models.KindVisaPurchaseForeign},
		{"VISA PURCHASE 12/03", -1000, models.KindVisaPurchase},
		{"EFTPOS PURCHASE WOOLWORTHS", -1000, models.KindEftPosPurchase},
		{"ATM WITHDRAWAL", -2000, models.KindAtmWithdrawal},
		{"VISA CASH ADVANCE", -2000, models.KindAtmWithdrawalForeign},
		{"INTERNET WITHDRAWAL 01JAN", -500, models.KindInternetWithdrawal},
		{"O/SEAS CASH WITHDRAWAL FEE", -500, models.KindAtmWithdrawalForeignFee},
		{"GMHBA", -9000, models.KindDirectDebit},
		{"GMHBA HEALTH", -9000, models.KindTransaction},
		{"TRANSFER TO SAVINGS", -100, models.KindTransaction},
		{"VISA CREDIT 04/01", 1000, models.KindVisaCredit},
		{"SALARY", 1000, models.KindCredit},
		// debit prefixes do not apply to credits
		{"VISA PURCHASE 12/03", 1000, models.KindCredit},
		{"GMHBA", 1000, models.KindCredit},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			if got := c.Classify(tt.description, tt.amount); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifier_NoPayees(t *testing.T) {
	c := NewClassifier(nil)
	if got := c.Classify("GMHBA", -100); got != models.KindTransaction {
		t.Errorf("got %s, want %s", got, models.KindTransaction)
	}
}
