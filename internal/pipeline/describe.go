package pipeline

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"tabstat/internal/dataset"
	apperrors "tabstat/internal/errors"
	"tabstat/internal/stats"
)

// Predicate selects records
type Predicate func(dataset.Record) bool

// Equals matches records whose field value equals value
func Equals(field, value string) Predicate {
	return func(r dataset.Record) bool {
		return KeyValue(r, field) == value
	}
}

// GreaterThan matches records whose numeric field exceeds threshold
func GreaterThan(field string, threshold float64) Predicate {
	return func(r dataset.Record) bool {
		v, ok := r.Number(field)
		return ok && v > threshold
	}
}

// AtLeast matches records whose numeric field is >= threshold
func AtLeast(field string, threshold float64) Predicate {
	return func(r dataset.Record) bool {
		v, ok := r.Number(field)
		return ok && v >= threshold
	}
}

// AtMost matches records whose numeric field is <= threshold
func AtMost(field string, threshold float64) Predicate {
	return func(r dataset.Record) bool {
		v, ok := r.Number(field)
		return ok && v <= threshold
	}
}

// And matches records that satisfy every predicate
func And(preds ...Predicate) Predicate {
	return func(r dataset.Record) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

// CountWhere counts records matching p
func CountWhere(ds *dataset.Dataset, p Predicate) int {
	n := 0
	for _, r := range ds.Records() {
		if p(r) {
			n++
		}
	}
	return n
}

// Filter returns a new dataset with the records matching p
func Filter(ds *dataset.Dataset, p Predicate) *dataset.Dataset {
	var kept []dataset.Record
	for _, r := range ds.Records() {
		if p(r) {
			kept = append(kept, r)
		}
	}
	return ds.WithRecords(kept)
}

// Category is one entry of a value count
type Category struct {
	Value string
	Count int
	// Share is the percentage of all records in the dataset
	Share float64
}

// ValueCounts counts the non-missing values of field, most frequent first.
// Ties keep first-appearance order.
func ValueCounts(ds *dataset.Dataset, field string) []Category {
	table := GroupAggregate(ds, []string{field}, "", OpCount, OpShare).
		WithoutMissing().
		SortByCount(true)

	out := make([]Category, len(table.Groups))
	for i, g := range table.Groups {
		share, _ := g.Value(OpShare)
		out[i] = Category{Value: g.Key[0], Count: g.Count, Share: share}
	}
	return out
}

// Bucketize derives the categorical field target from the numeric field.
// Bucket i covers (edges[i], edges[i+1]]; values outside every bucket are missing.
func Bucketize(ds *dataset.Dataset, field string, edges []float64, labels []string, target string) (*dataset.Dataset, error) {
	if len(edges) < 2 || len(labels) != len(edges)-1 {
		return nil, apperrors.NewAppValidationError(
			fmt.Sprintf("bucketize %s: %d edges need %d labels, got %d", field, len(edges), len(edges)-1, len(labels)))
	}
	if !slices.IsSorted(edges) {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("bucketize %s: edges must be ascending", field))
	}

	derived := ds.Derive(func(r dataset.Record) dataset.Record {
		v, ok := r.Number(field)
		if !ok {
			return r.WithText(target, "")
		}
		for i := 0; i < len(labels); i++ {
			if v > edges[i] && v <= edges[i+1] {
				return r.WithText(target, labels[i])
			}
		}
		return r.WithText(target, "")
	}, dataset.Field{Name: target, Kind: dataset.Categorical})
	return derived, nil
}

// Summary describes a numeric field over a set of records
type Summary struct {
	Count  int
	Mean   float64
	Median float64
	Min    float64
	Max    float64
	Sum    float64
}

// Describe summarises field over the records matching where (nil for all).
// It returns an EMPTY_GROUP error when no matching record has a value.
func Describe(ds *dataset.Dataset, field string, where Predicate) (Summary, error) {
	var values []float64
	for _, r := range ds.Records() {
		if where != nil && !where(r) {
			continue
		}
		if v, ok := r.Number(field); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return Summary{}, apperrors.NewEmptyGroupError(field)
	}

	return Summary{
		Count:  len(values),
		Mean:   stats.Mean(values),
		Median: stats.Median(values),
		Min:    stats.Min(values),
		Max:    stats.Max(values),
		Sum:    stats.Sum(values),
	}, nil
}

// MeanComparison holds the mean of several fields per group
type MeanComparison struct {
	GroupField string
	Groups     []string
	Fields     []string
	tables     map[string]*AggregateTable
}

// CompareMeans computes the mean of each field per group of groupField.
// Groups are sorted by key.
func CompareMeans(ds *dataset.Dataset, groupField string, fields []string) *MeanComparison {
	mc := &MeanComparison{
		GroupField: groupField,
		Fields:     append([]string(nil), fields...),
		tables:     make(map[string]*AggregateTable, len(fields)),
	}

	for _, f := range fields {
		mc.tables[f] = GroupAggregate(ds, []string{groupField}, f, OpMean).WithoutMissing().SortByKey()
	}
	seed := GroupAggregate(ds, []string{groupField}, "", OpCount).WithoutMissing().SortByKey()
	for _, g := range seed.Groups {
		mc.Groups = append(mc.Groups, g.Key[0])
	}
	return mc
}

// Mean returns the mean of field within group
func (mc *MeanComparison) Mean(group, field string) (float64, bool) {
	table, ok := mc.tables[field]
	if !ok {
		return 0, false
	}
	g, ok := table.Lookup(group)
	if !ok {
		return 0, false
	}
	return g.Value(OpMean)
}

// TTest compares field between the records whose groupField is a and b
func TTest(ds *dataset.Dataset, groupField, a, b, field string) stats.TTestResult {
	var xa, xb []float64
	for _, r := range ds.Records() {
		v, ok := r.Number(field)
		if !ok {
			continue
		}
		switch KeyValue(r, groupField) {
		case a:
			xa = append(xa, v)
		case b:
			xb = append(xb, v)
		}
	}
	return stats.TTest(xa, xb)
}

// Sample returns up to n records drawn without replacement. The draw depends
// only on seed, so repeated runs pick the same records.
func Sample(ds *dataset.Dataset, n int, seed uint64) *dataset.Dataset {
	if n >= ds.Len() {
		return ds.WithRecords(ds.Records())
	}
	if n <= 0 {
		return ds.WithRecords(nil)
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	idx := rng.Perm(ds.Len())[:n]
	slices.Sort(idx)

	records := make([]dataset.Record, n)
	for i, j := range idx {
		records[i] = ds.Record(j)
	}
	return ds.WithRecords(records)
}
