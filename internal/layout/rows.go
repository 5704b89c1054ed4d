// Package layout rebuilds the transaction table of a statement page from
// positioned text fragments.
package layout

import (
	"sort"

	"github.com/insightdelivered/statement-extractor/internal/extractor"
)

// RowJitter lists the offsets tried, in order, when looking for an existing
// row for a fragment. Some fonts on the statement sit a unit or two off the
// baseline of the line they belong to.
var RowJitter = []float64{0, 1, -1, 2, -2}

// Cell is one fragment of a row.
type Cell struct {
	X    float64
	Text string
}

// Row is a print line: cells sharing a representative Y, ordered by X.
type Row struct {
	Y     float64
	Cells []Cell
}

// ClusterRows groups fragments into rows and returns them top of page first.
func ClusterRows(frags []extractor.Fragment) []Row {
	byY := make(map[float64]*Row)
	for _, f := range frags {
		row := lookupRow(byY, f.Y)
		if row == nil {
			row = &Row{Y: f.Y}
			byY[f.Y] = row
		}
		// keep cells ordered by x; equal x keeps document order
		i := sort.Search(len(row.Cells), func(i int) bool { return row.Cells[i].X > f.X })
		row.Cells = append(row.Cells, Cell{})
		copy(row.Cells[i+1:], row.Cells[i:])
		row.Cells[i] = Cell{X: f.X, Text: f.Text}
	}

	rows := make([]Row, 0, len(byY))
	for _, r := range byY {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Y > rows[j].Y })
	return rows
}

func lookupRow(byY map[float64]*Row, y float64) *Row {
	for _, off := range RowJitter {
		if row, ok := byY[y+off]; ok {
			return row
		}
	}
	return nil
}
