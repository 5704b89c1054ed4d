package writer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/statement-extractor/internal/models"
	"github.com/insightdelivered/statement-extractor/internal/money"
)

// SheetName is the worksheet holding the transactions.
const SheetName = "Transactions"

// XLSXWriter writes transactions to an Excel workbook. Amounts are stored
// as numbers in dollars so the sheet can total them.
type XLSXWriter struct {
	IncludeHeader bool
}

// WriteToFile writes the workbook to the given path.
func (w *XLSXWriter) WriteToFile(path string, stmt *models.Statement) error {
	f, err := w.build(stmt)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %q: %w", path, err)
	}
	return nil
}

// Write writes the workbook to out.
func (w *XLSXWriter) Write(out io.Writer, stmt *models.Statement) error {
	f, err := w.build(stmt)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func (w *XLSXWriter) build(stmt *models.Statement) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, err
	}

	line := 1
	write := func(col int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, line)
		if err != nil {
			return err
		}
		return f.SetCellValue(SheetName, cell, v)
	}

	if w.IncludeHeader {
		for _, kv := range metadata(stmt) {
			if err := write(1, kv[0]); err != nil {
				f.Close()
				return nil, err
			}
			if err := write(2, kv[1]); err != nil {
				f.Close()
				return nil, err
			}
			line++
		}
		line++
	}

	headerRow := line
	for i, h := range Columns {
		if err := write(i+1, h); err != nil {
			f.Close()
			return nil, err
		}
	}
	line++

	for _, txn := range stmt.Transactions {
		values := cells(txn)
		for i, v := range values {
			if err := write(i+1, v); err != nil {
				f.Close()
				return nil, err
			}
		}
		line++
	}

	if err := format(f, headerRow, line-1); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// colWidths are the widths of the sheet columns.
var colWidths = []struct {
	first, last string
	width       float64
}{
	{"A", "A", 12}, // date
	{"B", "B", 24}, // type
	{"C", "C", 40}, // description
	{"D", "E", 14}, // amounts
	{"F", "J", 20},
}

// format bolds the header row, gives the amount and balance columns of
// rows headerRow+1..lastRow a number format and sets the column widths.
func format(f *excelize.File, headerRow, lastRow int) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := setStyle(f, 1, headerRow, len(Columns), headerRow, bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if lastRow > headerRow {
		amounts, err := f.NewStyle(&excelize.Style{NumFmt: 4})
		if err != nil {
			return fmt.Errorf("amount style: %w", err)
		}
		if err := setStyle(f, 4, headerRow+1, 5, lastRow, amounts); err != nil {
			return fmt.Errorf("amount style: %w", err)
		}
	}

	for _, c := range colWidths {
		if err := f.SetColWidth(SheetName, c.first, c.last, c.width); err != nil {
			return fmt.Errorf("column width %s: %w", c.first, err)
		}
	}
	return nil
}

func setStyle(f *excelize.File, col1, row1, col2, row2, style int) error {
	first, err := excelize.CoordinatesToCellName(col1, row1)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(col2, row2)
	if err != nil {
		return err
	}
	return f.SetCellStyle(SheetName, first, last, style)
}

// cells is row with the amount and balance as numbers.
func cells(txn models.Transaction) []any {
	out := make([]any, 0, len(Columns))
	for i, s := range row(txn) {
		switch i {
		case 3:
			out = append(out, money.Dollars(txn.Amount))
		case 4:
			out = append(out, money.Dollars(txn.Balance))
		default:
			out = append(out, s)
		}
	}
	return out
}
