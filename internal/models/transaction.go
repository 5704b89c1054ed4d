package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/insightdelivered/statement-extractor/internal/money"
)

// Kind identifies the transaction variant.
type Kind int

const (
	KindTransaction Kind = iota
	KindCredit
	KindVisaCredit
	KindDirectDebit
	KindVisaPurchase
	KindVisaPurchaseForeign
	KindEftPosPurchase
	KindAtmWithdrawal
	KindAtmWithdrawalForeign
	KindAtmWithdrawalForeignFee
	KindInternetWithdrawal
)

var kindNames = map[Kind]string{
	KindTransaction:             "Transaction",
	KindCredit:                  "Credit",
	KindVisaCredit:              "VisaCredit",
	KindDirectDebit:             "DirectDebit",
	KindVisaPurchase:            "VisaPurchase",
	KindVisaPurchaseForeign:     "VisaPurchaseForeign",
	KindEftPosPurchase:          "EftPosPurchase",
	KindAtmWithdrawal:           "AtmWithdrawal",
	KindAtmWithdrawalForeign:    "AtmWithdrawalForeign",
	KindAtmWithdrawalForeignFee: "AtmWithdrawalForeignFee",
	KindInternetWithdrawal:      "InternetWithdrawal",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText lets the kind appear by name in JSON.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// KnownForeignCurrencies are the currency-code prefixes of foreign value lines.
var KnownForeignCurrencies = []string{"USD", "EUR", "VND", "THB"}

const effectiveDatePrefix = "EFFECTIVE DATE"

// ErrDetailRejected is wrapped by every DetailError.
var ErrDetailRejected = errors.New("continuation detail rejected")

// DetailError reports a continuation line a transaction could not accept.
type DetailError struct {
	Kind   Kind
	Field  string
	Detail string
	Reason string
}

func (e *DetailError) Error() string {
	return fmt.Sprintf("%s: cannot add %q to %s %s: %s", ErrDetailRejected, e.Detail, e.Kind, e.Field, e.Reason)
}

func (e *DetailError) Unwrap() error { return ErrDetailRejected }

// detailFields is a set of the optional fields a continuation line has
// written, so an empty line still fills its field.
type detailFields uint8

const (
	fieldDetail detailFields = 1 << iota
	fieldEffectiveDate
	fieldForeignValue
	fieldLocation
	fieldNote
)

// Transaction is one statement line item. Date is the statement-format date
// literal; Amount is signed cents and Balance the running balance after it.
// Which optional fields are used depends on Kind.
type Transaction struct {
	Kind    Kind   `json:"kind"`
	Date    string `json:"date"`
	Detail  string `json:"detail,omitempty"`
	Amount  int64  `json:"amount"`
	Balance int64  `json:"balance"`

	// RealDate is the purchase date text printed in place of a description
	// on card transactions.
	RealDate      string `json:"realDate,omitempty"`
	EffectiveDate string `json:"effectiveDate,omitempty"`
	ForeignValue  string `json:"foreignValue,omitempty"`
	Location      string `json:"location,omitempty"`
	Note          string `json:"note,omitempty"`

	// Unhandled holds continuation lines appended to a generic transaction.
	Unhandled []string `json:"unhandled,omitempty"`

	written detailFields
}

// NewTransaction builds a transaction of the given kind from a statement row.
func NewTransaction(kind Kind, date, description string, amount, balance int64) Transaction {
	t := Transaction{Kind: kind, Date: date, Detail: description, Amount: amount, Balance: balance}
	switch kind {
	case KindVisaPurchase, KindVisaPurchaseForeign, KindVisaCredit:
		t.RealDate = description
		t.Detail = ""
	case KindAtmWithdrawalForeignFee:
		t.EffectiveDate = date
	}
	return t
}

// AddDetail applies a continuation line printed under the transaction.
func (t *Transaction) AddDetail(detail string) error {
	switch t.Kind {
	case KindVisaPurchase, KindVisaCredit:
		if strings.HasPrefix(detail, effectiveDatePrefix) {
			return t.setOnce(&t.EffectiveDate, fieldEffectiveDate, "effective date", detail)
		}
		return t.setOnce(&t.Detail, fieldDetail, "detail", detail)

	case KindVisaPurchaseForeign:
		if isForeignValue(detail) {
			return t.setOnce(&t.ForeignValue, fieldForeignValue, "foreign value", detail)
		}
		return t.setOnce(&t.Detail, fieldDetail, "detail", detail)

	case KindCredit, KindDirectDebit, KindInternetWithdrawal:
		return t.setOnce(&t.Note, fieldNote, "note", detail)

	case KindEftPosPurchase, KindAtmWithdrawal:
		return t.setOnce(&t.Location, fieldLocation, "location", detail)

	case KindAtmWithdrawalForeign:
		if isForeignValue(detail) {
			return t.setOnce(&t.ForeignValue, fieldForeignValue, "foreign value", detail)
		}
		return t.setOnce(&t.Location, fieldLocation, "location", detail)

	case KindAtmWithdrawalForeignFee:
		if !strings.HasPrefix(detail, effectiveDatePrefix) {
			return &DetailError{Kind: t.Kind, Field: "effective date", Detail: detail, Reason: "not an effective date"}
		}
		return t.setOnce(&t.EffectiveDate, fieldEffectiveDate, "effective date", detail)
	}

	t.Unhandled = append(t.Unhandled, detail)
	if t.Detail == "" {
		t.Detail = detail
	} else {
		t.Detail = t.Detail + " " + detail
	}
	return nil
}

// setOnce writes detail to field unless a continuation line already has.
func (t *Transaction) setOnce(field *string, bit detailFields, name, detail string) error {
	if t.written&bit != 0 {
		return &DetailError{Kind: t.Kind, Field: name, Detail: detail, Reason: fmt.Sprintf("already set to %q", *field)}
	}
	*field = detail
	t.written |= bit
	return nil
}

func isForeignValue(detail string) bool {
	for _, code := range KnownForeignCurrencies {
		if strings.HasPrefix(detail, code) {
			return true
		}
	}
	return false
}

func (t Transaction) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", t.Kind, t.Date)
	if t.RealDate != "" {
		fmt.Fprintf(&b, " (%s)", t.RealDate)
	}
	if t.EffectiveDate != "" && t.EffectiveDate != t.Date {
		fmt.Fprintf(&b, " %s", t.EffectiveDate)
	}
	fmt.Fprintf(&b, ": %s", t.Detail)
	for _, extra := range []string{t.Location, t.Note, t.ForeignValue} {
		if extra != "" {
			fmt.Fprintf(&b, " -- %s", extra)
		}
	}
	fmt.Fprintf(&b, "\t%s\t%s", money.Display(t.Amount), money.Display(t.Balance))
	return b.String()
}
