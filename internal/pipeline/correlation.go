package pipeline

import (
	"cmp"
	"math"
	"slices"

	"tabstat/internal/dataset"
	"tabstat/internal/stats"
)

// Matrix is a symmetric correlation matrix over named fields. NaN marks an
// undefined coefficient.
type Matrix struct {
	Fields []string
	Values [][]float64
}

// Correlation is one coefficient against a reference field
type Correlation struct {
	Field string
	R     float64
}

// CorrelationMatrix computes pairwise-complete Pearson coefficients. Each pair
// uses the records where both fields have a value. The diagonal is 1 for
// fields with nonzero variance and NaN otherwise.
func CorrelationMatrix(ds *dataset.Dataset, fields []string) *Matrix {
	n := len(fields)
	m := &Matrix{Fields: append([]string(nil), fields...), Values: make([][]float64, n)}
	for i := range m.Values {
		m.Values[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		if v := stats.Variance(ds.Numbers(fields[i])); v > 0 {
			m.Values[i][i] = 1
		} else {
			m.Values[i][i] = math.NaN()
		}

		for j := i + 1; j < n; j++ {
			x, y := pairs(ds, fields[i], fields[j])
			r := stats.Pearson(x, y)
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m
}

// pairs returns the values of a and b over records where both are present
func pairs(ds *dataset.Dataset, a, b string) ([]float64, []float64) {
	x := make([]float64, 0, ds.Len())
	y := make([]float64, 0, ds.Len())
	for _, rec := range ds.Records() {
		av, aok := rec.Number(a)
		bv, bok := rec.Number(b)
		if aok && bok {
			x = append(x, av)
			y = append(y, bv)
		}
	}
	return x, y
}

// CompletePairs counts records where both a and b have a numeric value
func CompletePairs(ds *dataset.Dataset, a, b string) int {
	x, _ := pairs(ds, a, b)
	return len(x)
}

// At returns the coefficient of two fields, NaN when either is unknown
func (m *Matrix) At(a, b string) float64 {
	i := slices.Index(m.Fields, a)
	j := slices.Index(m.Fields, b)
	if i < 0 || j < 0 {
		return math.NaN()
	}
	return m.Values[i][j]
}

// Ranked returns the other fields' coefficients with field, by |r| descending.
// NaN coefficients come last.
func (m *Matrix) Ranked(field string) []Correlation {
	i := slices.Index(m.Fields, field)
	if i < 0 {
		return nil
	}

	out := make([]Correlation, 0, len(m.Fields)-1)
	for j, f := range m.Fields {
		if j != i {
			out = append(out, Correlation{Field: f, R: m.Values[i][j]})
		}
	}
	slices.SortStableFunc(out, func(a, b Correlation) int {
		an, bn := math.IsNaN(a.R), math.IsNaN(b.R)
		switch {
		case an && bn:
			return 0
		case an:
			return 1
		case bn:
			return -1
		}
		return cmp.Compare(math.Abs(b.R), math.Abs(a.R))
	})
	return out
}
