package pipeline

import (
	"slices"

	"tabstat/internal/dataset"
)

// Normalize selects how cross-tabulated counts are scaled
type Normalize int

const (
	// NormalizeNone keeps raw counts
	NormalizeNone Normalize = iota
	// NormalizeRow scales each row to 100
	NormalizeRow
	// NormalizeColumn scales each column to 100
	NormalizeColumn
	// NormalizeAll scales the whole table to 100
	NormalizeAll
)

// CrossTab is a table of counts or percentages over two categorical fields
type CrossTab struct {
	RowField  string
	ColField  string
	Rows      []string
	Cols      []string
	Cells     [][]float64
	Normalize Normalize
}

// CrossTabulate counts records by (rowField, colField). Records missing either
// value are left out. Labels are sorted with CompareKeys.
func CrossTabulate(ds *dataset.Dataset, rowField, colField string, normalize Normalize) *CrossTab {
	counts := make(map[[2]string]float64)
	rowSet := make(map[string]bool)
	colSet := make(map[string]bool)

	for _, rec := range ds.Records() {
		r, c := KeyValue(rec, rowField), KeyValue(rec, colField)
		if r == MissingKey || c == MissingKey {
			continue
		}
		counts[[2]string{r, c}]++
		rowSet[r] = true
		colSet[c] = true
	}

	ct := &CrossTab{
		RowField:  rowField,
		ColField:  colField,
		Rows:      sortedLabels(rowSet),
		Cols:      sortedLabels(colSet),
		Normalize: normalize,
	}
	ct.Cells = make([][]float64, len(ct.Rows))
	for i, r := range ct.Rows {
		ct.Cells[i] = make([]float64, len(ct.Cols))
		for j, c := range ct.Cols {
			ct.Cells[i][j] = counts[[2]string{r, c}]
		}
	}

	ct.normalize()
	return ct
}

func (ct *CrossTab) normalize() {
	switch ct.Normalize {
	case NormalizeRow:
		for i := range ct.Rows {
			scale(ct.Cells[i], sum(ct.Cells[i]))
		}
	case NormalizeColumn:
		for j := range ct.Cols {
			var total float64
			for i := range ct.Rows {
				total += ct.Cells[i][j]
			}
			if total == 0 {
				continue
			}
			for i := range ct.Rows {
				ct.Cells[i][j] = ct.Cells[i][j] / total * 100
			}
		}
	case NormalizeAll:
		var total float64
		for i := range ct.Rows {
			total += sum(ct.Cells[i])
		}
		for i := range ct.Rows {
			scale(ct.Cells[i], total)
		}
	}
}

// Value returns the cell for a row and column label
func (ct *CrossTab) Value(row, col string) (float64, bool) {
	i := slices.Index(ct.Rows, row)
	j := slices.Index(ct.Cols, col)
	if i < 0 || j < 0 {
		return 0, false
	}
	return ct.Cells[i][j], true
}

// Column returns the values of one column in row order
func (ct *CrossTab) Column(col string) []float64 {
	j := slices.Index(ct.Cols, col)
	values := make([]float64, len(ct.Rows))
	if j < 0 {
		return values
	}
	for i := range ct.Rows {
		values[i] = ct.Cells[i][j]
	}
	return values
}

func sortedLabels(set map[string]bool) []string {
	labels := make([]string, 0, len(set))
	for k := range set {
		labels = append(labels, k)
	}
	slices.SortFunc(labels, CompareKeys)
	return labels
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

func scale(values []float64, total float64) {
	if total == 0 {
		return
	}
	for i := range values {
		values[i] = values[i] / total * 100
	}
}
