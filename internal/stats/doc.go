// Package stats provides the numeric primitives of the pipeline: percentiles
// with a selectable method, median, mean and extrema, Pearson correlation and a
// pooled-variance two-sample t-test.
//
// Functions take plain float64 slices and never modify their input. Empty or
// degenerate input yields NaN instead of an error; callers decide how an
// undefined value is reported.
package stats
