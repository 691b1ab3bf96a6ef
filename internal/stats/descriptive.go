package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// PercentileMethod selects how a percentile between two order statistics is resolved.
type PercentileMethod string

const (
	// Lower takes the order statistic at floor(p*(n-1)).
	Lower PercentileMethod = "lower"
	// Linear interpolates between the neighbouring order statistics.
	Linear PercentileMethod = "linear"
)

// ParsePercentileMethod maps a configuration value to a method; unknown values
// fall back to Lower.
func ParsePercentileMethod(s string) PercentileMethod {
	if PercentileMethod(s) == Linear {
		return Linear
	}
	return Lower
}

// Percentile returns the p-th percentile (0 <= p <= 1) of an ascending slice.
func Percentile(sorted []float64, p float64, method PercentileMethod) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}

	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	index := p * float64(n-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))

	if lower == upper || method != Linear {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Quantile is Percentile over an unsorted slice.
func Quantile(values []float64, p float64, method PercentileMethod) float64 {
	return Percentile(sortedCopy(values), p, method)
}

// Median computes the median of values
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	sorted := sortedCopy(values)
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// Mean returns the arithmetic mean, NaN for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return stat.Mean(values, nil)
}

// Variance returns the unbiased sample variance, NaN with fewer than two values.
func Variance(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	return stat.Variance(values, nil)
}

// Sum adds values; an empty slice sums to zero.
func Sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// Min returns the smallest value, NaN for an empty slice.
func Min(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Max returns the largest value, NaN for an empty slice.
func Max(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func sortedCopy(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}
