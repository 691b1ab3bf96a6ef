package attrition

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabstat/internal/charts"
	"tabstat/internal/config"
	"tabstat/internal/dataset"
	apperrors "tabstat/internal/errors"
	"tabstat/internal/pipeline"
	"tabstat/internal/report"
)

const header = "Attrition,Department,JobRole,Age,MonthlyIncome,DistanceFromHome,TotalWorkingYears,YearsAtCompany,YearsInCurrentRole,YearsSinceLastPromotion,JobSatisfaction,WorkLifeBalance,EnvironmentSatisfaction,JobInvolvement,OverTime,EmployeeCount"

var rows = []string{
	"Yes,Sales,Sales Representative,25,2000,20,2,1,0,0,1,1,2,2,Yes,1",
	"No,Sales,Sales Executive,35,6000,5,10,5,3,1,3,3,3,3,No,1",
	"No,Research & Development,Research Scientist,45,8000,2,20,10,7,2,4,3,4,3,No,1",
	"Yes,Research & Development,Laboratory Technician,28,2500,15,3,2,1,1,2,2,1,2,Yes,1",
	"No,Research & Development,Laboratory Technician,52,9000,3,25,15,10,3,4,4,3,4,No,1",
	"No,Sales,Sales Executive,38,5500,8,12,6,4,2,3,2,3,3,Yes,1",
	"No,Human Resources,Human Resources,41,4000,10,15,8,5,4,2,3,2,3,No,1",
	"Yes,Sales,Sales Representative,22,1800,25,1,1,0,0,1,2,1,1,No,1",
	"No,Research & Development,Research Scientist,30,4500,6,7,4,2,1,4,3,4,3,No,1",
	"No,Research & Development,Manager,55,15000,1,30,20,12,5,3,3,3,4,No,",
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
}

func analyse(t *testing.T, lines ...string) *Analysis {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "employees.csv")
	content := header + "\n" + strings.Join(lines, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := config.Default().Pipeline
	raw, err := dataset.NewLoader(quietLogger()).Load(ctx, path, Schema())
	require.NoError(t, err)
	clean, cleaning, err := pipeline.NewCleaner(quietLogger(), CleanerConfig(cfg)).Clean(ctx, raw)
	require.NoError(t, err)

	a, err := Analyze(ctx, quietLogger(), raw, clean, cleaning, cfg)
	require.NoError(t, err)
	return a
}

func rate(t *testing.T, table *pipeline.AggregateTable, key string) float64 {
	t.Helper()
	g, ok := table.Lookup(key)
	require.True(t, ok, "no group %q", key)
	v, ok := g.Value(pipeline.OpRate)
	require.True(t, ok)
	return v
}

func TestSignificance(t *testing.T) {
	tests := []struct {
		p    float64
		want string
	}{
		{0.0005, "***"},
		{0.005, "**"},
		{0.03, "*"},
		{0.05, "ns"},
		{0.2, "ns"},
		{math.NaN(), "ns"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Significance(tt.p), "p=%v", tt.p)
	}
}

func TestAnalyze(t *testing.T) {
	a := analyse(t, rows...)

	assert.Equal(t, 10, a.Clean.Len())
	assert.InDelta(t, 30.0, a.Rate, 1e-9)

	assert.Equal(t, []string{"Human Resources", "Research & Development", "Sales"}, a.ByDepartment.Rows)
	assert.Equal(t, []string{Stayed, Left}, a.ByDepartment.Cols)
	sales, ok := a.ByDepartment.Value("Sales", Left)
	require.True(t, ok)
	assert.InDelta(t, 50.0, sales, 1e-9)
	rd, _ := a.ByDepartment.Value("Research & Development", Left)
	assert.InDelta(t, 20.0, rd, 1e-9)
	hr, _ := a.ByDepartment.Value("Human Resources", Left)
	assert.Equal(t, 0.0, hr)

	var roles []string
	for _, g := range a.ByJobRole.Groups {
		roles = append(roles, g.Key[0])
	}
	assert.Equal(t, []string{
		"Sales Representative", "Laboratory Technician",
		"Sales Executive", "Research Scientist", "Human Resources", "Manager",
	}, roles)
	assert.InDelta(t, 100.0, rate(t, a.ByJobRole, "Sales Representative"), 1e-9)

	var ages []string
	for _, g := range a.ByAgeGroup.Groups {
		ages = append(ages, g.Key[0])
	}
	assert.Equal(t, ageLabels, ages)
	// 30 falls in the first bucket, (0, 30]
	assert.InDelta(t, 75.0, rate(t, a.ByAgeGroup, "<30"), 1e-9)

	income, ok := a.Means.Mean(Left, FieldMonthlyIncome)
	require.True(t, ok)
	assert.InDelta(t, 2100.0, income, 1e-9)
	age, _ := a.Means.Mean(Stayed, FieldAge)
	assert.InDelta(t, 296.0/7, age, 1e-9)

	require.Len(t, a.Tests, len(comparedFields))
	assert.Equal(t, FieldAge, a.Tests[1].Field)
	assert.Equal(t, "*", a.Tests[1].Significance())
	assert.Equal(t, 8.0, a.Tests[1].Result.DF)

	overtime, ok := a.RatesFor(FieldOverTime)
	require.True(t, ok)
	assert.InDelta(t, 200.0/3, rate(t, overtime, "Yes"), 1e-9)
	assert.InDelta(t, 100.0/7, rate(t, overtime, "No"), 1e-9)

	satisfaction, _ := a.RatesFor(FieldJobSatisfaction)
	var levels []string
	for _, g := range satisfaction.Groups {
		levels = append(levels, g.Key[0])
	}
	assert.Equal(t, []string{"1", "2", "3", "4"}, levels)
	assert.InDelta(t, 100.0, rate(t, satisfaction, "1"), 1e-9)

	assert.Equal(t, correlationFields, a.Correlations.Fields)
	assert.Len(t, a.AttritionCorrelations, topCorrelations)
	for i := 1; i < len(a.AttritionCorrelations); i++ {
		assert.GreaterOrEqual(t, a.AttritionCorrelations[i-1].R, a.AttritionCorrelations[i].R)
	}
}

func TestDocument(t *testing.T) {
	a := analyse(t, rows...)

	var buf bytes.Buffer
	require.NoError(t, report.Render(&buf, a.Document([]report.Artifact{
		{Name: config.AttritionFigureFile},
		{Name: config.AttritionHeatmapFile},
	})))
	out := buf.String()

	for _, want := range []string{
		"HR EMPLOYEE ATTRITION ANALYSIS",
		"Dataset shape: 10 employees, 16 features",
		"Attrition rate: 30.00%",
		"Missing values: 1",
		"Attrition by Department:",
		"Attrition by Job Role:",
		"Attrition by Age Group:",
		"Average values by Attrition status:",
		"Statistical Significance (t-test p-values):",
		"Age                           : p=",
		"OverTime:",
		"EnvironmentSatisfaction:",
		"✓ Saved: hr_attrition_analysis.png",
		"✓ Saved: correlation_heatmap.png",
		"Top correlations with Attrition:",
		"6. Focus retention efforts on Sales Representatives and Laboratory Technicians",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Excluded:")

	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "Age ") && strings.Contains(line, ": p=") {
			assert.True(t, strings.HasSuffix(line, " *"), line)
		}
	}
}

func TestAnalyze_UnrecognisedAttritionValue(t *testing.T) {
	lines := append([]string{"Maybe,Sales,Sales Executive,33,5000,4,8,3,2,1,3,3,3,3,No,1"}, rows...)
	a := analyse(t, lines...)

	assert.Equal(t, 11, a.Raw.Len())
	assert.Equal(t, 10, a.Clean.Len())
	assert.Equal(t, 1, a.Cleaning.Unparsable)

	var buf bytes.Buffer
	require.NoError(t, report.Render(&buf, a.Document(nil)))
	assert.Contains(t, buf.String(), "Excluded: 1 employees with an unrecognised Attrition value")
}

func TestAnalyze_LowercaseAttritionValue(t *testing.T) {
	lines := append([]string{"yes,Sales,Sales Executive,33,5000,4,8,3,2,1,3,3,3,3,No,1"}, rows...)
	a := analyse(t, lines...)

	assert.Equal(t, 10, a.Clean.Len())
	assert.Equal(t, 1, a.Cleaning.Unparsable)
	assert.Equal(t, 3, a.leftCount)
	assert.InDelta(t, 30.0, a.Rate, 1e-9)

	// Every breakdown agrees with the headline leaver count
	count, left := 0, 0.0
	for _, g := range a.ByJobRole.Groups {
		rate, ok := g.Value(pipeline.OpRate)
		require.True(t, ok)
		count += g.Count
		left += rate * float64(g.Count) / 100
	}
	assert.Equal(t, 10, count)
	assert.InDelta(t, 3.0, left, 1e-9)
	assert.Equal(t, []string{Stayed, Left}, a.ByDepartment.Cols)
	assert.Equal(t, []string{Stayed, Left}, a.overtime.Cols)
}

func TestAnalyze_RequiresCleaning(t *testing.T) {
	raw := dataset.New(Schema(), nil, nil)
	_, err := Analyze(context.Background(), quietLogger(), raw, raw, pipeline.CleanReport{}, config.Default().Pipeline)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestCharts(t *testing.T) {
	a := analyse(t, rows...)

	items, err := a.Charts()
	require.NoError(t, err)
	require.Len(t, items, 2)

	out := config.Default().Output
	out.ChartWidthIn, out.ChartHeightIn, out.HeatmapSizeIn, out.DPI = 9, 6, 6, 72
	r := charts.NewRenderer(quietLogger(), out)
	dir := t.TempDir()
	for _, c := range items {
		path := filepath.Join(dir, c.Filename())
		require.NoError(t, c.Render(r, path))
		assert.True(t, config.FileExists(path))
	}
}
