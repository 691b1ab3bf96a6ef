// Package pipeline implements the tabular aggregation steps the reports are
// built from: cleaning with derived numeric fields and percentile trimming,
// grouped aggregates, cross-tabulations, correlation matrices and a handful of
// descriptive helpers.
//
// Every function except Cleaner.Clean is pure. Inputs are never modified and
// results are independent values. Undefined statistics (an empty group, a
// constant series) are reported as absent values or NaN, never as panics.
package pipeline
