package attrition

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"tabstat/internal/config"
	"tabstat/internal/dataset"
	apperrors "tabstat/internal/errors"
	"tabstat/internal/pipeline"
	"tabstat/internal/report"
	"tabstat/internal/stats"
)

const (
	topCorrelations = 10
	incomeBins      = 30
	tenureBins      = 20
	distanceBins    = 20
)

// Analysis holds every result of an attrition run
type Analysis struct {
	Raw      *dataset.Dataset
	Clean    *dataset.Dataset
	Cleaning pipeline.CleanReport

	// Rate is the percentage of employees who left
	Rate float64

	ByDepartment *pipeline.CrossTab
	ByJobRole    *pipeline.AggregateTable
	ByAgeGroup   *pipeline.AggregateTable

	Means   *pipeline.MeanComparison
	Tests   []FieldTest
	Factors []FactorRates

	Correlations          *pipeline.Matrix
	AttritionCorrelations []pipeline.Correlation

	leavers   *dataset.Dataset
	overtime  *pipeline.CrossTab
	leftCount int
}

// FieldTest is a leavers versus stayers t-test on one field
type FieldTest struct {
	Field  string
	Result stats.TTestResult
}

// Significance returns the star rating of the test's p-value
func (ft FieldTest) Significance() string {
	return Significance(ft.Result.P)
}

// FactorRates is the attrition rate per value of a workplace factor
type FactorRates struct {
	Field string
	Rates *pipeline.AggregateTable
}

// Significance maps a p-value to "***" (< 0.001), "**" (< 0.01), "*" (< 0.05)
// or "ns". An undefined p-value is "ns".
func Significance(p float64) string {
	switch {
	case math.IsNaN(p):
		return "ns"
	case p < 0.001:
		return "***"
	case p < 0.01:
		return "**"
	case p < 0.05:
		return "*"
	default:
		return "ns"
	}
}

// Analyze computes the attrition results from the raw and cleaned datasets
func Analyze(ctx context.Context, logger *slog.Logger, raw, clean *dataset.Dataset, cleaning pipeline.CleanReport, cfg config.PipelineConfig) (*Analysis, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "attrition"))

	if _, ok := clean.Schema().Field(FieldAttritionBinary); !ok {
		return nil, apperrors.NewAppValidationError("employees must be cleaned before analysis: no " + FieldAttritionBinary + " field")
	}

	bucketed, err := pipeline.Bucketize(clean, FieldAge, ageEdges, ageLabels, FieldAgeGroup)
	if err != nil {
		return nil, fmt.Errorf("age groups: %w", err)
	}

	a := &Analysis{
		Raw:      raw,
		Clean:    bucketed,
		Cleaning: cleaning,
		leavers:  pipeline.Filter(bucketed, pipeline.Equals(FieldAttrition, Left)),
	}
	a.leftCount = a.leavers.Len()
	a.Rate = report.Share(a.leftCount, bucketed.Len())

	a.ByDepartment = pipeline.CrossTabulate(bucketed, FieldDepartment, FieldAttrition, pipeline.NormalizeRow)
	a.ByJobRole = rates(bucketed, FieldJobRole).SortBy(pipeline.OpRate, true)
	a.ByAgeGroup = rates(bucketed, FieldAgeGroup).SortByOrder(ageLabels)

	a.Means = pipeline.CompareMeans(bucketed, FieldAttrition, comparedFields)
	for _, f := range comparedFields {
		res := pipeline.TTest(bucketed, FieldAttrition, Left, Stayed, f)
		a.Tests = append(a.Tests, FieldTest{Field: f, Result: res})
		logger.DebugContext(ctx, "Mean comparison",
			slog.String("field", f),
			slog.Float64("t", res.T),
			slog.Float64("p", res.P))
	}

	for _, f := range factorFields {
		a.Factors = append(a.Factors, FactorRates{Field: f, Rates: rates(bucketed, f).SortByKey()})
	}
	a.overtime = pipeline.CrossTabulate(bucketed, FieldOverTime, FieldAttrition, pipeline.NormalizeRow)

	a.Correlations = pipeline.CorrelationMatrix(bucketed, correlationFields)
	for _, c := range head(a.Correlations.Ranked(FieldAttritionBinary), topCorrelations) {
		a.AttritionCorrelations = append(a.AttritionCorrelations, pipeline.Correlation{Field: c.Field, R: math.Abs(c.R)})
	}

	logger.InfoContext(ctx, "Attrition analysed",
		slog.Int("employees", bucketed.Len()),
		slog.Int("left", a.leftCount),
		slog.String("rate", report.Percent(a.Rate, 2)))
	return a, nil
}

// RatesFor returns the rates of one factor field
func (a *Analysis) RatesFor(field string) (*pipeline.AggregateTable, bool) {
	for _, f := range a.Factors {
		if f.Field == field {
			return f.Rates, true
		}
	}
	return nil, false
}

// rates groups by field and computes the attrition rate per group
func rates(ds *dataset.Dataset, field string) *pipeline.AggregateTable {
	return pipeline.GroupAggregate(ds, []string{field}, FieldAttritionBinary, pipeline.OpRate, pipeline.OpCount).
		WithoutMissing()
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
