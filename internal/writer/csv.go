package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/insightdelivered/statement-extractor/internal/models"
	"github.com/insightdelivered/statement-extractor/internal/money"
)

// Columns is the column header shared by the CSV and XLSX outputs.
var Columns = []string{
	"Date", "Type", "Description", "Amount", "Balance",
	"Real Date", "Effective Date", "Foreign Value", "Location", "Note",
}

// CSVWriter writes transactions to CSV format.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteToFile writes transactions to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, stmt *models.Statement) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, stmt)
}

// Write writes transactions in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, stmt *models.Statement) error {
	writer := csv.NewWriter(out)

	if w.IncludeHeader {
		for _, kv := range metadata(stmt) {
			if err := writer.Write([]string{"# " + kv[0], kv[1]}); err != nil {
				return fmt.Errorf("failed to write CSV metadata: %w", err)
			}
		}
	}

	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, txn := range stmt.Transactions {
		if err := writer.Write(row(txn)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// metadata returns the statement-level label/value pairs, skipping empty ones.
func metadata(stmt *models.Statement) [][2]string {
	var out [][2]string
	if stmt.Period != "" {
		out = append(out, [2]string{"Statement Period", stmt.Period})
	}
	out = append(out,
		[2]string{"Opening Balance", money.FormatCents(stmt.OpeningBalance)},
		[2]string{"Closing Balance", money.FormatCents(stmt.ClosingBalance)},
	)
	return out
}

func row(txn models.Transaction) []string {
	return []string{
		txn.Date,
		txn.Kind.String(),
		txn.Detail,
		money.FormatCents(txn.Amount),
		money.FormatCents(txn.Balance),
		txn.RealDate,
		txn.EffectiveDate,
		txn.ForeignValue,
		txn.Location,
		txn.Note,
	}
}
