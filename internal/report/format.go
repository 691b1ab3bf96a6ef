package report

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// NA is printed for undefined values
const NA = "n/a"

func undefined(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// Fixed formats v with d decimal places
func Fixed(v float64, d int) string {
	if undefined(v) {
		return NA
	}
	return fmt.Sprintf("%.*f", d, v)
}

// Money formats v as dollars with d decimal places
func Money(v float64, d int) string {
	if undefined(v) {
		return NA
	}
	return fmt.Sprintf("$%.*f", d, v)
}

// Percent formats v, already scaled to 0..100, with d decimal places
func Percent(v float64, d int) string {
	if undefined(v) {
		return NA
	}
	return fmt.Sprintf("%.*f%%", d, v)
}

// Count formats an integer with thousands separators
func Count(n int) string {
	return humanize.Comma(int64(n))
}

// Thousands rounds v and formats it with thousands separators
func Thousands(v float64) string {
	if undefined(v) {
		return NA
	}
	return humanize.Comma(int64(math.Round(v)))
}

// Optional formats v with f when ok, else NA
func Optional(v float64, ok bool, f func(float64) string) string {
	if !ok {
		return NA
	}
	return f(v)
}

// Share returns part as a percentage of total, NaN when total is zero
func Share(part, total int) float64 {
	if total == 0 {
		return math.NaN()
	}
	return float64(part) / float64(total) * 100
}
