package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Pearson returns the correlation coefficient of two equally long series.
// It is NaN when fewer than two pairs exist or either series is constant.
func Pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return math.NaN()
	}
	if Variance(x) == 0 || Variance(y) == 0 {
		return math.NaN()
	}

	r := stat.Correlation(x, y, nil)
	if math.IsInf(r, 0) {
		return math.NaN()
	}
	// Rounding can push |r| marginally past one
	return math.Max(-1, math.Min(1, r))
}

// TTestResult holds the outcome of a two-sample t-test.
type TTestResult struct {
	T      float64
	P      float64
	DF     float64
	MeanA  float64
	MeanB  float64
	NA, NB int
}

// TTest runs an independent two-sample Student t-test assuming equal
// variances. The p-value is two-sided. T and P are NaN when either sample has
// fewer than two values or the pooled variance is zero.
func TTest(a, b []float64) TTestResult {
	res := TTestResult{
		T:     math.NaN(),
		P:     math.NaN(),
		MeanA: Mean(a),
		MeanB: Mean(b),
		NA:    len(a),
		NB:    len(b),
	}
	if res.NA < 2 || res.NB < 2 {
		return res
	}

	na, nb := float64(res.NA), float64(res.NB)
	res.DF = na + nb - 2
	pooled := ((na-1)*Variance(a) + (nb-1)*Variance(b)) / res.DF
	se := math.Sqrt(pooled * (1/na + 1/nb))
	if se == 0 || math.IsNaN(se) {
		return res
	}

	res.T = (res.MeanA - res.MeanB) / se
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: res.DF}
	res.P = 2 * dist.Survival(math.Abs(res.T))
	return res
}
