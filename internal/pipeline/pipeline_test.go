package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabstat/internal/dataset"
	apperrors "tabstat/internal/errors"
	"tabstat/internal/stats"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
}

// build creates a dataset from rows of text values; fields listed in numeric are
// also parsed.
func build(t *testing.T, numeric []string, rows ...map[string]string) *dataset.Dataset {
	t.Helper()
	isNum := make(map[string]bool)
	for _, f := range numeric {
		isNum[f] = true
	}

	var fields []dataset.Field
	seen := map[string]bool{}
	records := make([]dataset.Record, 0, len(rows))
	for i, row := range rows {
		num := map[string]float64{}
		for k, v := range row {
			if !seen[k] {
				seen[k] = true
				kind := dataset.Categorical
				if isNum[k] {
					kind = dataset.Numeric
				}
				fields = append(fields, dataset.Field{Name: k, Kind: kind})
			}
			if isNum[k] && v != "" {
				f, err := strconv.ParseFloat(v, 64)
				require.NoError(t, err)
				num[k] = f
			}
		}
		records = append(records, dataset.NewRecord(i+2, row, num))
	}
	return dataset.New(dataset.NewSchema(fields...), records, nil)
}

func prices(t *testing.T, values ...string) *dataset.Dataset {
	rows := make([]map[string]string, len(values))
	for i, v := range values {
		rows[i] = map[string]string{"price": v, "room_type": "Entire home/apt"}
	}
	return build(t, nil, rows...)
}

func listingCleaner(cfg CleanerConfig) *Cleaner {
	cfg.Derivations = []Derivation{{Source: "price", Target: "price_cleaned", Rule: CurrencyRule}}
	cfg.TrimField = "price_cleaned"
	if cfg.UpperPercentile == 0 {
		cfg.LowerPercentile, cfg.UpperPercentile = 0.01, 0.99
	}
	if cfg.Method == "" {
		cfg.Method = stats.Lower
	}
	if cfg.MaxParseFailureRatio == 0 {
		cfg.MaxParseFailureRatio = 0.25
	}
	return NewCleaner(quietLogger(), cfg)
}

func TestCleaner_OutlierExample(t *testing.T) {
	ds := prices(t, "$10", "$20", "$1000000", "$30")

	cleaned, report, err := listingCleaner(CleanerConfig{}).Clean(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, 3, cleaned.Len())
	assert.Equal(t, 1, report.Trimmed)
	assert.Equal(t, 4, report.Input)
	assert.Equal(t, 3, report.Retained)
	assert.Equal(t, 10.0, report.Lower)
	assert.Equal(t, 30.0, report.Upper)
	assert.Equal(t, 20.0, stats.Mean(cleaned.Numbers("price_cleaned")))
	assert.True(t, cleaned.Has("price_cleaned"))

	// Input is untouched
	assert.Equal(t, 4, ds.Len())
	_, ok := ds.Record(0).Number("price_cleaned")
	assert.False(t, ok)
}

func TestCleaner_LinearMethod(t *testing.T) {
	ds := prices(t, "$10", "$20", "$1000000", "$30")

	cleaned, report, err := listingCleaner(CleanerConfig{Method: stats.Linear}).Clean(context.Background(), ds)
	require.NoError(t, err)

	// The interpolated band excludes both extremes
	assert.Equal(t, 10.3, math.Round(report.Lower*10)/10)
	assert.Equal(t, 2, cleaned.Len())
}

func TestCleaner_Properties(t *testing.T) {
	inputs := [][]string{
		{"$1", "$2", "$3", "$4", "$5", "$6", "$7", "$8", "$9", "$100"},
		{"$5", "$5", "$5"},
		{"$1,200.50", " $300 ", "$75", "oops"},
		{},
	}
	for i, values := range inputs {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			ds := prices(t, values...)
			cleaned, report, err := listingCleaner(CleanerConfig{MaxParseFailureRatio: 0.5}).Clean(context.Background(), ds)
			require.NoError(t, err)

			assert.LessOrEqual(t, cleaned.Len(), ds.Len())
			assert.Equal(t, ds.Len(), report.Retained+report.Dropped())
			for _, v := range cleaned.Numbers("price_cleaned") {
				assert.GreaterOrEqual(t, v, report.Lower)
				assert.LessOrEqual(t, v, report.Upper)
			}
		})
	}
}

func TestCleaner_ParseFailures(t *testing.T) {
	t.Run("below threshold excludes records", func(t *testing.T) {
		ds := prices(t, "$10", "n/a", "$20", "$30", "$40")
		cleaned, report, err := listingCleaner(CleanerConfig{UpperPercentile: 1}).Clean(context.Background(), ds)
		require.NoError(t, err)

		assert.Equal(t, 1, report.Unparsable)
		assert.Equal(t, 4, cleaned.Len())
		require.Len(t, report.ParseErrors, 1)
		assert.Equal(t, "price", report.ParseErrors[0].Field)
		assert.Equal(t, 3, report.ParseErrors[0].Row)
		assert.True(t, errors.Is(report.ParseErrors[0], apperrors.ErrParsing))
	})

	t.Run("above threshold fails", func(t *testing.T) {
		ds := prices(t, "$10", "free", "ask", "$30")
		_, report, err := listingCleaner(CleanerConfig{}).Clean(context.Background(), ds)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrCleaning))
		assert.Equal(t, 2, report.Unparsable)
	})

	t.Run("missing source values are dropped but not counted as failures", func(t *testing.T) {
		ds := prices(t, "$10", "", "", "$30")
		cleaned, report, err := listingCleaner(CleanerConfig{UpperPercentile: 1}).Clean(context.Background(), ds)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Missing)
		assert.Equal(t, 2, cleaned.Len())
	})
}

func TestIndicatorRule(t *testing.T) {
	rule := IndicatorRule("Yes", "No")
	for in, want := range map[string]float64{"Yes": 1, " No ": 0} {
		v, err := rule(in)
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
	for _, in := range []string{"Maybe", "yes", "NO", ""} {
		_, err := rule(in)
		assert.Error(t, err, in)
	}
}

func TestCurrencyRule(t *testing.T) {
	v, err := CurrencyRule(" $1,234.50 ")
	require.NoError(t, err)
	assert.Equal(t, 1234.5, v)

	_, err = CurrencyRule("$")
	assert.Error(t, err)
}

func groupsDataset(t *testing.T) *dataset.Dataset {
	return build(t, []string{"price"},
		map[string]string{"hood": "A", "price": "10"},
		map[string]string{"hood": "A", "price": "20"},
		map[string]string{"hood": "B", "price": "100"},
		map[string]string{"hood": "A", "price": "30"},
		map[string]string{"hood": "", "price": "50"},
		map[string]string{"hood": "C", "price": ""},
	)
}

func TestGroupAggregate(t *testing.T) {
	ds := groupsDataset(t)
	table := GroupAggregate(ds, []string{"hood"}, "price", OpCount, OpMean, OpMedian, OpSum, OpMin, OpMax, OpShare)

	labels := make([]string, len(table.Groups))
	total := 0
	for i, g := range table.Groups {
		labels[i] = g.Label()
		total += g.Count
	}
	assert.Equal(t, []string{"A", "B", MissingKey, "C"}, labels, "groups keep first appearance order")
	assert.Equal(t, ds.Len(), total)

	a, ok := table.Lookup("A")
	require.True(t, ok)
	assert.Equal(t, 3, a.Count)
	mean, _ := a.Value(OpMean)
	assert.Equal(t, 20.0, mean)
	median, _ := a.Value(OpMedian)
	assert.Equal(t, 20.0, median)
	sumV, _ := a.Value(OpSum)
	assert.Equal(t, 60.0, sumV)
	minV, _ := a.Value(OpMin)
	maxV, _ := a.Value(OpMax)
	assert.Equal(t, 10.0, minV)
	assert.Equal(t, 30.0, maxV)
	share, _ := a.Value(OpShare)
	assert.InDelta(t, 50.0, share, 1e-9)

	c, ok := table.Lookup("C")
	require.True(t, ok)
	assert.Equal(t, 1, c.Count)
	count, ok := c.Value(OpCount)
	assert.True(t, ok)
	assert.Equal(t, 1.0, count)
	_, ok = c.Value(OpMean)
	assert.False(t, ok, "mean of a group without values is undefined")
}

func TestGroupAggregate_Top(t *testing.T) {
	ds := build(t, []string{"price"},
		map[string]string{"group": "A", "price": "10"},
		map[string]string{"group": "A", "price": "20"},
		map[string]string{"group": "A", "price": "30"},
		map[string]string{"group": "B", "price": "100"},
	)
	table := GroupAggregate(ds, []string{"group"}, "price", OpMean)

	top := table.Top(OpMean, 10, 2)
	require.Len(t, top, 1)
	assert.Equal(t, "A", top[0].Label())

	// The full table still includes B
	_, ok := table.Lookup("B")
	assert.True(t, ok)
	assert.Len(t, table.Top(OpMean, 10, 1), 2)
	assert.Equal(t, "B", table.Top(OpMean, 1, 1)[0].Label())
}

func TestGroupAggregate_NumericKeys(t *testing.T) {
	ds := build(t, []string{"bedrooms", "price"},
		map[string]string{"bedrooms": "2", "price": "100"},
		map[string]string{"bedrooms": "2.0", "price": "200"},
		map[string]string{"bedrooms": "10", "price": "300"},
		map[string]string{"bedrooms": "", "price": "50"},
	)
	table := GroupAggregate(ds, []string{"bedrooms"}, "price", OpCount, OpMean).SortByKey()

	require.Len(t, table.Groups, 3)
	two, ok := table.Lookup("2")
	require.True(t, ok)
	assert.Equal(t, 2, two.Count)
	mean, ok := two.Value(OpMean)
	require.True(t, ok)
	assert.Equal(t, 150.0, mean)
	_, ok = table.Lookup("2.0")
	assert.False(t, ok)

	assert.Equal(t, 2, CountWhere(ds, Equals("bedrooms", "2")))

	tab := CrossTabulate(ds, "bedrooms", "bedrooms", NormalizeNone)
	assert.Equal(t, []string{"2", "10"}, tab.Rows)
}

func TestGroupAggregate_Sorting(t *testing.T) {
	ds := build(t, []string{"bedrooms", "price"},
		map[string]string{"bedrooms": "10", "price": "500"},
		map[string]string{"bedrooms": "2", "price": "150"},
		map[string]string{"bedrooms": "", "price": "90"},
		map[string]string{"bedrooms": "1", "price": "100"},
		map[string]string{"bedrooms": "2", "price": "160"},
	)
	table := GroupAggregate(ds, []string{"bedrooms"}, "price", OpMean)

	keys := func(tb *AggregateTable) []string {
		var out []string
		for _, g := range tb.Groups {
			out = append(out, g.Label())
		}
		return out
	}

	assert.Equal(t, []string{"1", "2", "10", MissingKey}, keys(table.SortByKey()))
	assert.Equal(t, []string{"1", "2", "10"}, keys(table.WithoutMissing().SortByKey()))
	assert.Equal(t, []string{"2", "10", MissingKey, "1"}, keys(table.SortByCount(true)))
	assert.Equal(t, []string{"10", "2", "1", MissingKey}, keys(table.SortBy(OpMean, true)))
	assert.Equal(t, []string{"1", "10"}, keys(table.SortByOrder([]string{"1", "10", "2"}).Limit(2)))

	// Re-sorting returns a new table
	assert.Equal(t, []string{"10", "2", MissingKey, "1"}, keys(table))
}

func TestGroupAggregate_Rate(t *testing.T) {
	ds := build(t, []string{"left"},
		map[string]string{"role": "Sales", "left": "1"},
		map[string]string{"role": "Sales", "left": "0"},
		map[string]string{"role": "Sales", "left": "0"},
		map[string]string{"role": "Sales", "left": "1"},
		map[string]string{"role": "Research", "left": "0"},
	)
	table := GroupAggregate(ds, []string{"role"}, "left", OpRate)

	sales, _ := table.Lookup("Sales")
	rate, ok := sales.Value(OpRate)
	require.True(t, ok)
	assert.Equal(t, 50.0, rate)

	research, _ := table.Lookup("Research")
	rate, _ = research.Value(OpRate)
	assert.Equal(t, 0.0, rate)
}

func TestGroupAggregate_MultipleFields(t *testing.T) {
	ds := build(t, nil,
		map[string]string{"dept": "Sales", "overtime": "Yes"},
		map[string]string{"dept": "Sales", "overtime": "No"},
		map[string]string{"dept": "Sales", "overtime": "Yes"},
	)
	table := GroupAggregate(ds, []string{"dept", "overtime"}, "", OpCount)

	require.Len(t, table.Groups, 2)
	g, ok := table.Lookup("Sales", "Yes")
	require.True(t, ok)
	assert.Equal(t, 2, g.Count)
	assert.Equal(t, "Sales / Yes", g.Label())
	assert.Equal(t, []int{2, 1}, table.Counts())
}

func TestCrossTabulate(t *testing.T) {
	ds := build(t, nil,
		map[string]string{"dept": "Sales", "attrition": "Yes"},
		map[string]string{"dept": "Sales", "attrition": "No"},
		map[string]string{"dept": "Sales", "attrition": "No"},
		map[string]string{"dept": "HR", "attrition": "No"},
		map[string]string{"dept": "R&D", "attrition": "Yes"},
		map[string]string{"dept": "R&D", "attrition": ""},
	)

	counts := CrossTabulate(ds, "dept", "attrition", NormalizeNone)
	assert.Equal(t, []string{"HR", "R&D", "Sales"}, counts.Rows)
	assert.Equal(t, []string{"No", "Yes"}, counts.Cols)
	v, ok := counts.Value("Sales", "No")
	require.True(t, ok)
	assert.Equal(t, 2.0, v)
	_, ok = counts.Value("Ops", "No")
	assert.False(t, ok)

	rows := CrossTabulate(ds, "dept", "attrition", NormalizeRow)
	for i := range rows.Rows {
		assert.InDelta(t, 100.0, sum(rows.Cells[i]), 1e-9)
	}
	v, _ = rows.Value("Sales", "Yes")
	assert.InDelta(t, 100.0/3, v, 1e-9)

	cols := CrossTabulate(ds, "dept", "attrition", NormalizeColumn)
	assert.InDelta(t, 100.0, sum(cols.Column("Yes")), 1e-9)
	assert.InDelta(t, 50.0, cols.Column("Yes")[1], 1e-9)

	all := CrossTabulate(ds, "dept", "attrition", NormalizeAll)
	total := 0.0
	for i := range all.Rows {
		total += sum(all.Cells[i])
	}
	assert.InDelta(t, 100.0, total, 1e-9)
	assert.Equal(t, make([]float64, 3), all.Column("Maybe"))
}

func TestCorrelationMatrix(t *testing.T) {
	ds := build(t, []string{"a", "b", "c", "d"},
		map[string]string{"a": "1", "b": "2", "c": "5", "d": "3"},
		map[string]string{"a": "2", "b": "4", "c": "5", "d": "1"},
		map[string]string{"a": "3", "b": "6", "c": "5", "d": ""},
		map[string]string{"a": "4", "b": "8", "c": "5", "d": "2"},
	)
	m := CorrelationMatrix(ds, []string{"a", "b", "c", "d"})

	for i := range m.Fields {
		for j := range m.Fields {
			x, y := m.Values[i][j], m.Values[j][i]
			if math.IsNaN(x) {
				assert.True(t, math.IsNaN(y))
				continue
			}
			assert.Equal(t, x, y)
		}
	}

	assert.Equal(t, 1.0, m.At("a", "a"))
	assert.True(t, math.IsNaN(m.At("c", "c")), "zero variance field")
	assert.InDelta(t, 1.0, m.At("a", "b"), 1e-12)
	assert.True(t, math.IsNaN(m.At("a", "c")))
	assert.True(t, math.IsNaN(m.At("a", "zzz")))

	// d uses the three complete pairs only
	assert.Equal(t, 3, CompletePairs(ds, "a", "d"))
	assert.InDelta(t, stats.Pearson([]float64{1, 2, 4}, []float64{3, 1, 2}), m.At("a", "d"), 1e-12)

	ranked := m.Ranked("a")
	require.Len(t, ranked, 3)
	assert.Equal(t, "b", ranked[0].Field)
	assert.Equal(t, "d", ranked[1].Field)
	assert.Equal(t, "c", ranked[2].Field)
	assert.Nil(t, m.Ranked("zzz"))
}

func TestValueCounts(t *testing.T) {
	ds := build(t, nil,
		map[string]string{"room": "Private room"},
		map[string]string{"room": "Entire home/apt"},
		map[string]string{"room": "Entire home/apt"},
		map[string]string{"room": "Shared room"},
		map[string]string{"room": ""},
	)
	counts := ValueCounts(ds, "room")

	require.Len(t, counts, 3)
	assert.Equal(t, Category{Value: "Entire home/apt", Count: 2, Share: 40}, counts[0])
	assert.Equal(t, "Private room", counts[1].Value, "ties keep first appearance")
	assert.Equal(t, "Shared room", counts[2].Value)
}

func TestBucketize(t *testing.T) {
	ds := build(t, []string{"Age"},
		map[string]string{"Age": "18"},
		map[string]string{"Age": "30"},
		map[string]string{"Age": "31"},
		map[string]string{"Age": "50"},
		map[string]string{"Age": "60"},
		map[string]string{"Age": "120"},
	)
	bucketed, err := Bucketize(ds, "Age", []float64{0, 30, 40, 50, 100}, []string{"<30", "30-40", "40-50", "50+"}, "AgeGroup")
	require.NoError(t, err)

	var got []string
	for _, r := range bucketed.Records() {
		got = append(got, KeyValue(r, "AgeGroup"))
	}
	assert.Equal(t, []string{"<30", "<30", "30-40", "40-50", "50+", MissingKey}, got)
	assert.True(t, bucketed.Has("AgeGroup"))

	_, err = Bucketize(ds, "Age", []float64{0, 30}, []string{"a", "b"}, "x")
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
	_, err = Bucketize(ds, "Age", []float64{30, 0}, []string{"a"}, "x")
	assert.Error(t, err)
}

func TestDescribeAndPredicates(t *testing.T) {
	ds := build(t, []string{"price", "reviews"},
		map[string]string{"host": "t", "price": "100", "reviews": "0"},
		map[string]string{"host": "t", "price": "200", "reviews": "12"},
		map[string]string{"host": "f", "price": "50", "reviews": "10"},
	)

	s, err := Describe(ds, "price", Equals("host", "t"))
	require.NoError(t, err)
	assert.Equal(t, Summary{Count: 2, Mean: 150, Median: 150, Min: 100, Max: 200, Sum: 300}, s)

	all, err := Describe(ds, "price", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, all.Count)

	_, err = Describe(ds, "price", Equals("host", "x"))
	assert.True(t, errors.Is(err, apperrors.ErrEmptyGroup))

	assert.Equal(t, 2, CountWhere(ds, GreaterThan("reviews", 0)))
	assert.Equal(t, 2, CountWhere(ds, AtLeast("reviews", 10)))
	assert.Equal(t, 2, CountWhere(ds, AtMost("reviews", 10)))
	assert.Equal(t, 1, CountWhere(ds, And(Equals("host", "t"), GreaterThan("reviews", 0))))

	filtered := Filter(ds, Equals("host", "f"))
	assert.Equal(t, 1, filtered.Len())
	assert.Equal(t, 3, ds.Len())
}

func TestCompareMeansAndTTest(t *testing.T) {
	ds := build(t, []string{"income"},
		map[string]string{"Attrition": "Yes", "income": "1"},
		map[string]string{"Attrition": "No", "income": "2"},
		map[string]string{"Attrition": "Yes", "income": "2"},
		map[string]string{"Attrition": "No", "income": "3"},
		map[string]string{"Attrition": "Yes", "income": "3"},
		map[string]string{"Attrition": "No", "income": "4"},
		map[string]string{"Attrition": "Yes", "income": "4"},
		map[string]string{"Attrition": "No", "income": "5"},
		map[string]string{"Attrition": "Yes", "income": "5"},
		map[string]string{"Attrition": "No", "income": "6"},
	)

	mc := CompareMeans(ds, "Attrition", []string{"income"})
	assert.Equal(t, []string{"No", "Yes"}, mc.Groups)
	m, ok := mc.Mean("Yes", "income")
	require.True(t, ok)
	assert.Equal(t, 3.0, m)
	_, ok = mc.Mean("Yes", "age")
	assert.False(t, ok)

	res := TTest(ds, "Attrition", "Yes", "No", "income")
	assert.InDelta(t, 0.346594, res.P, 1e-5)
	assert.Equal(t, 5, res.NA)
}

func TestSample(t *testing.T) {
	rows := make([]map[string]string, 50)
	for i := range rows {
		rows[i] = map[string]string{"n": strconv.Itoa(i)}
	}
	ds := build(t, []string{"n"}, rows...)

	a := Sample(ds, 10, 42)
	b := Sample(ds, 10, 42)
	assert.Equal(t, 10, a.Len())
	assert.Equal(t, a.Numbers("n"), b.Numbers("n"))
	assert.NotEqual(t, a.Numbers("n"), Sample(ds, 10, 7).Numbers("n"))

	assert.Equal(t, 50, Sample(ds, 500, 42).Len())
	assert.Equal(t, 0, Sample(ds, 0, 42).Len())
}
