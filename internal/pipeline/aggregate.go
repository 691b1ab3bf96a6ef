package pipeline

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"tabstat/internal/dataset"
	"tabstat/internal/stats"
)

// MissingKey labels the partition of records whose group value is missing
const MissingKey = "(missing)"

// Op names an aggregate computed per group
type Op string

const (
	OpCount  Op = "count"
	OpShare  Op = "share"
	OpMean   Op = "mean"
	OpMedian Op = "median"
	OpSum    Op = "sum"
	OpMin    Op = "min"
	OpMax    Op = "max"
	// OpRate is the percentage of non-zero metric values
	OpRate Op = "rate"
)

// Group is one row of an aggregate table
type Group struct {
	Key   []string
	Count int
	// Support is the number of records with a metric value
	Support int
	values  map[Op]float64
}

// Value returns the op value; ok is false when the op is undefined for the group
func (g Group) Value(op Op) (float64, bool) {
	v, ok := g.values[op]
	return v, ok
}

// Label joins the key parts for display
func (g Group) Label() string {
	return strings.Join(g.Key, " / ")
}

// IsMissing reports whether any key part is missing
func (g Group) IsMissing() bool {
	return slices.Contains(g.Key, MissingKey)
}

// AggregateTable holds groups in insertion order unless re-sorted
type AggregateTable struct {
	GroupFields []string
	Metric      string
	Ops         []Op
	Groups      []Group
	// Total is the number of input records
	Total int
}

// GroupAggregate partitions ds by the tuple of groupFields values and computes
// ops over metric. Records with a missing group value form their own
// partition, so group counts sum to ds.Len(). Groups keep first-appearance
// order.
func GroupAggregate(ds *dataset.Dataset, groupFields []string, metric string, ops ...Op) *AggregateTable {
	index := make(map[string]int)
	var (
		keys    [][]string
		members [][]float64
		counts  []int
	)

	for _, rec := range ds.Records() {
		key := make([]string, len(groupFields))
		for i, f := range groupFields {
			key[i] = KeyValue(rec, f)
		}
		id := strings.Join(key, "\x1f")

		pos, exists := index[id]
		if !exists {
			pos = len(keys)
			index[id] = pos
			keys = append(keys, key)
			members = append(members, nil)
			counts = append(counts, 0)
		}
		counts[pos]++
		if metric != "" {
			if v, ok := rec.Number(metric); ok {
				members[pos] = append(members[pos], v)
			}
		}
	}

	table := &AggregateTable{
		GroupFields: append([]string(nil), groupFields...),
		Metric:      metric,
		Ops:         append([]Op(nil), ops...),
		Groups:      make([]Group, len(keys)),
		Total:       ds.Len(),
	}
	for i, key := range keys {
		table.Groups[i] = aggregateGroup(key, counts[i], members[i], table.Total, ops)
	}
	return table
}

func aggregateGroup(key []string, count int, values []float64, total int, ops []Op) Group {
	g := Group{Key: key, Count: count, Support: len(values), values: make(map[Op]float64, len(ops))}

	for _, op := range ops {
		switch op {
		case OpCount:
			g.values[op] = float64(count)
		case OpShare:
			if total > 0 {
				g.values[op] = float64(count) / float64(total) * 100
			}
		case OpSum:
			if len(values) > 0 {
				g.values[op] = stats.Sum(values)
			}
		case OpMean:
			if len(values) > 0 {
				g.values[op] = stats.Mean(values)
			}
		case OpMedian:
			if len(values) > 0 {
				g.values[op] = stats.Median(values)
			}
		case OpMin:
			if len(values) > 0 {
				g.values[op] = stats.Min(values)
			}
		case OpMax:
			if len(values) > 0 {
				g.values[op] = stats.Max(values)
			}
		case OpRate:
			if len(values) > 0 {
				nonZero := 0
				for _, v := range values {
					if v != 0 {
						nonZero++
					}
				}
				g.values[op] = float64(nonZero) / float64(len(values)) * 100
			}
		}
	}
	return g
}

// KeyValue returns the grouping value of field: its parsed number formatted
// without trailing zeros, else its text, else MissingKey. Equal numbers
// written differently ("2", "2.0") share a key.
func KeyValue(rec dataset.Record, field string) string {
	if v, ok := rec.Number(field); ok {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	if s, ok := rec.Text(field); ok {
		return s
	}
	return MissingKey
}

// Lookup finds the group with the given key
func (t *AggregateTable) Lookup(key ...string) (Group, bool) {
	for _, g := range t.Groups {
		if slices.Equal(g.Key, key) {
			return g, true
		}
	}
	return Group{}, false
}

// Counts returns the group counts in table order
func (t *AggregateTable) Counts() []int {
	counts := make([]int, len(t.Groups))
	for i, g := range t.Groups {
		counts[i] = g.Count
	}
	return counts
}

func (t *AggregateTable) withGroups(groups []Group) *AggregateTable {
	out := *t
	out.Groups = groups
	return &out
}

// SortByKey orders groups by key ascending. Parts that parse as numbers
// compare numerically; missing parts sort last.
func (t *AggregateTable) SortByKey() *AggregateTable {
	groups := slices.Clone(t.Groups)
	slices.SortStableFunc(groups, func(a, b Group) int {
		for i := range a.Key {
			if c := CompareKeys(a.Key[i], b.Key[i]); c != 0 {
				return c
			}
		}
		return 0
	})
	return t.withGroups(groups)
}

// SortByOrder orders groups by the position of their first key part in order.
// Unlisted groups follow in their current order.
func (t *AggregateTable) SortByOrder(order []string) *AggregateTable {
	rank := make(map[string]int, len(order))
	for i, k := range order {
		rank[k] = i
	}
	pos := func(g Group) int {
		if len(g.Key) == 0 {
			return len(order)
		}
		if r, ok := rank[g.Key[0]]; ok {
			return r
		}
		return len(order)
	}

	groups := slices.Clone(t.Groups)
	slices.SortStableFunc(groups, func(a, b Group) int {
		return cmp.Compare(pos(a), pos(b))
	})
	return t.withGroups(groups)
}

// SortByCount orders groups by record count; ties keep their order
func (t *AggregateTable) SortByCount(descending bool) *AggregateTable {
	groups := slices.Clone(t.Groups)
	slices.SortStableFunc(groups, func(a, b Group) int {
		if descending {
			return cmp.Compare(b.Count, a.Count)
		}
		return cmp.Compare(a.Count, b.Count)
	})
	return t.withGroups(groups)
}

// SortBy orders groups by an op value; groups where the op is undefined sort last
func (t *AggregateTable) SortBy(op Op, descending bool) *AggregateTable {
	groups := slices.Clone(t.Groups)
	slices.SortStableFunc(groups, func(a, b Group) int {
		av, aok := a.Value(op)
		bv, bok := b.Value(op)
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return 1
		case !bok:
			return -1
		case descending:
			return cmp.Compare(bv, av)
		default:
			return cmp.Compare(av, bv)
		}
	})
	return t.withGroups(groups)
}

// Limit keeps the first n groups; n <= 0 keeps all
func (t *AggregateTable) Limit(n int) *AggregateTable {
	if n <= 0 || n >= len(t.Groups) {
		return t.withGroups(slices.Clone(t.Groups))
	}
	return t.withGroups(slices.Clone(t.Groups[:n]))
}

// Filter keeps the groups for which keep returns true
func (t *AggregateTable) Filter(keep func(Group) bool) *AggregateTable {
	var groups []Group
	for _, g := range t.Groups {
		if keep(g) {
			groups = append(groups, g)
		}
	}
	return t.withGroups(groups)
}

// WithoutMissing drops the groups with a missing key part
func (t *AggregateTable) WithoutMissing() *AggregateTable {
	return t.Filter(func(g Group) bool { return !g.IsMissing() })
}

// Top ranks groups with at least minSupport records by op, descending, and
// returns the first n. The table itself is left unchanged.
func (t *AggregateTable) Top(op Op, n, minSupport int) []Group {
	eligible := t.Filter(func(g Group) bool { return g.Count >= minSupport })
	return eligible.SortBy(op, true).Limit(n).Groups
}

// CompareKeys orders two key values: missing last, numbers numerically and
// before text, text lexically.
func CompareKeys(a, b string) int {
	if a == b {
		return 0
	}
	if a == MissingKey {
		return 1
	}
	if b == MissingKey {
		return -1
	}
	af, aerr := strconv.ParseFloat(a, 64)
	bf, berr := strconv.ParseFloat(b, 64)
	switch {
	case aerr == nil && berr == nil:
		return cmp.Compare(af, bf)
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
