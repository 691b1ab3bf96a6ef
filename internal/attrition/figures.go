package attrition

import (
	"image/color"
	"math"
	"strconv"

	"gonum.org/v1/plot"

	"tabstat/internal/charts"
	"tabstat/internal/config"
	apperrors "tabstat/internal/errors"
	"tabstat/internal/pipeline"
)

// Charts builds the attrition overview grid and the correlation heatmap
func (a *Analysis) Charts() ([]charts.Chart, error) {
	panels, err := a.panels()
	if err != nil {
		return nil, err
	}
	return []charts.Chart{
		charts.Figure{Name: config.AttritionFigureFile, Rows: 3, Cols: 3, Panels: panels},
		charts.Heatmap{
			Name:   config.AttritionHeatmapFile,
			Title:  "Correlation Matrix - Key Features",
			Fields: a.Correlations.Fields,
			Values: a.Correlations.Values,
		},
	}, nil
}

func (a *Analysis) panels() ([]*plot.Plot, error) {
	if a.Clean.Len() == 0 {
		return nil, apperrors.NewEmptyGroupError("employees")
	}

	overview, err := charts.GroupedBars(charts.Axes{Title: "Overall Attrition Rate", YLabel: "Share of employees (%)"},
		[]string{"Employees"},
		[]charts.Series{
			{Name: "Stayed", Values: []float64{100 - a.Rate}, Color: charts.Green},
			{Name: "Left", Values: []float64{a.Rate}, Color: charts.Red},
		})
	if err != nil {
		return nil, err
	}

	var depts []string
	var leftByDept []float64
	for _, c := range pipeline.ValueCounts(a.leavers, FieldDepartment) {
		depts = append(depts, c.Value)
		leftByDept = append(leftByDept, float64(c.Count))
	}
	departments, err := charts.Bars(charts.Axes{Title: "Attrition by Department", XLabel: "Number of Employees Left"},
		depts, leftByDept, charts.Red, true)
	if err != nil {
		return nil, err
	}

	ageLabels, ageRates := groupRates(a.ByAgeGroup)
	ages, err := charts.Bars(charts.Axes{Title: "Attrition Rate by Age Group", YLabel: "Attrition Rate (%)"},
		ageLabels, ageRates, charts.Blue, false)
	if err != nil {
		return nil, err
	}

	income, err := a.splitHistogram(charts.Axes{Title: "Income Distribution by Attrition", XLabel: "Monthly Income"}, FieldMonthlyIncome, incomeBins)
	if err != nil {
		return nil, err
	}
	tenure, err := a.splitHistogram(charts.Axes{Title: "Tenure Distribution by Attrition", XLabel: "Years at Company"}, FieldYearsAtCompany, tenureBins)
	if err != nil {
		return nil, err
	}
	distance, err := a.splitHistogram(charts.Axes{Title: "Distance from Home by Attrition", XLabel: "Distance from Home (km)"}, FieldDistanceFromHome, distanceBins)
	if err != nil {
		return nil, err
	}

	overtime, err := charts.GroupedBars(charts.Axes{Title: "Attrition by Overtime Status", YLabel: "Percentage (%)"},
		a.overtime.Rows,
		[]charts.Series{
			{Name: "Stayed", Values: a.overtime.Column(Stayed), Color: charts.Green},
			{Name: "Left", Values: a.overtime.Column(Left), Color: charts.Red},
		})
	if err != nil {
		return nil, err
	}

	satisfaction, err := a.rateLine(charts.Axes{Title: "Attrition Rate by Job Satisfaction", XLabel: "Job Satisfaction Level (1-4)", YLabel: "Attrition Rate (%)"},
		FieldJobSatisfaction, charts.Red)
	if err != nil {
		return nil, err
	}
	balance, err := a.rateLine(charts.Axes{Title: "Attrition Rate by Work-Life Balance", XLabel: "Work-Life Balance (1-4)", YLabel: "Attrition Rate (%)"},
		FieldWorkLifeBalance, charts.Purple)
	if err != nil {
		return nil, err
	}

	return []*plot.Plot{
		overview, departments, ages,
		income, tenure, distance,
		overtime, satisfaction, balance,
	}, nil
}

// splitHistogram overlays the field's distribution for stayers and leavers
func (a *Analysis) splitHistogram(axes charts.Axes, field string, bins int) (*plot.Plot, error) {
	stayed := pipeline.Filter(a.Clean, pipeline.Equals(FieldAttrition, Stayed))
	nan := math.NaN()
	return charts.Histogram(axes, bins, nan, nan, []charts.Series{
		{Name: "Stayed", Values: stayed.Numbers(field), Color: charts.Green},
		{Name: "Left", Values: a.leavers.Numbers(field), Color: charts.Red},
	})
}

func (a *Analysis) rateLine(axes charts.Axes, field string, c color.RGBA) (*plot.Plot, error) {
	table, ok := a.RatesFor(field)
	if !ok {
		return charts.Empty(axes.Title, "no data"), nil
	}
	var xs, ys []float64
	for _, g := range table.Groups {
		x, err := strconv.ParseFloat(g.Key[0], 64)
		v, vok := g.Value(pipeline.OpRate)
		if err != nil || !vok {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, v)
	}
	return charts.Line(axes, xs, ys, c)
}

func groupRates(table *pipeline.AggregateTable) ([]string, []float64) {
	var labels []string
	var values []float64
	for _, g := range table.Groups {
		if v, ok := g.Value(pipeline.OpRate); ok {
			labels = append(labels, g.Label())
			values = append(values, v)
		}
	}
	return labels, values
}
