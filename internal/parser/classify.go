package parser

import (
	"strings"

	"github.com/insightdelivered/statement-extractor/internal/models"
)

// DefaultDirectDebitPayees are payees whose debits are direct debits. The
// statement prints nothing else that distinguishes them.
var DefaultDirectDebitPayees = []string{"GMHBA"}

// Rule maps descriptions matching Match to a transaction kind.
type Rule struct {
	Match func(description string) bool
	Kind  models.Kind
}

func prefix(p string) func(string) bool {
	return func(s string) bool { return strings.HasPrefix(s, p) }
}

// Credit rules apply to positive amounts.
var creditRules = []Rule{
	{prefix("VISA CREDIT"), models.KindVisaCredit},
}

// Debit rules are tried in order; the longer VISA PURCHASE O/SEAS prefix
// must precede VISA PURCHASE.
var debitRules = []Rule{
	{prefix("VISA PURCHASE O/SEAS"), models.KindVisaPurchaseForeign},
	{prefix("VISA PURCHASE"), models.KindVisaPurchase},
	{prefix("EFTPOS PURCHASE"), models.KindEftPosPurchase},
	{prefix("ATM WITHDRAWAL"), models.KindAtmWithdrawal},
	{prefix("VISA CASH ADVANCE"), models.KindAtmWithdrawalForeign},
	{prefix("INTERNET WITHDRAWAL"), models.KindInternetWithdrawal},
	{prefix("O/SEAS CASH WITHDRAWAL FEE"), models.KindAtmWithdrawalForeignFee},
}

// Classifier picks the transaction kind for a new statement row.
type Classifier struct {
	credit []Rule
	debit  []Rule
}

// NewClassifier builds the rule ladder. Direct-debit payees are matched
// exactly and take precedence over the debit prefixes.
func NewClassifier(directDebitPayees []string) *Classifier {
	c := &Classifier{credit: creditRules}
	for _, payee := range directDebitPayees {
		payee := payee
		c.debit = append(c.debit, Rule{
			Match: func(s string) bool { return s == payee },
			Kind:  models.KindDirectDebit,
		})
	}
	c.debit = append(c.debit, debitRules...)
	return c
}

// Classify returns the kind for a description and signed amount.
func (c *Classifier) Classify(description string, amount int64) models.Kind {
	if amount > 0 {
		if k, ok := firstMatch(c.credit, description); ok {
			return k
		}
		return models.KindCredit
	}
	if k, ok := firstMatch(c.debit, description); ok {
		return k
	}
	return models.KindTransaction
}

func firstMatch(rules []Rule, description string) (models.Kind, bool) {
	for _, r := range rules {
		if r.Match(description) {
			return r.Kind, true
		}
	}
	return 0, false
}
