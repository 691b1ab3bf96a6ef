package attrition

import (
	"tabstat/internal/config"
	"tabstat/internal/pipeline"
	"tabstat/internal/report"
)

// Document renders the text report; charts lists the figures the run wrote
func (a *Analysis) Document(charts []report.Artifact) *report.Document {
	doc := report.New("HR EMPLOYEE ATTRITION ANALYSIS")

	doc.Heading("1. DATA OVERVIEW").
		Linef("Dataset shape: %d employees, %d features", a.Raw.Len(), a.Raw.Columns()).
		Linef("Attrition rate: %s", report.Percent(a.Rate, 2)).
		Linef("Missing values: %d", a.Raw.MissingCells())
	if a.Cleaning.Dropped() > 0 {
		doc.Linef("Excluded: %d employees with an unrecognised %s value", a.Cleaning.Dropped(), FieldAttrition)
	}

	a.breakdownSection(doc)
	a.numericSection(doc)

	doc.Heading("4. CATEGORICAL FEATURES IMPACT")
	for _, f := range a.Factors {
		doc.Table(rateTable(f.Field+":", f.Field, f.Rates))
	}

	doc.Heading("5. GENERATING VISUALIZATIONS...")
	doc.Add(report.Pick(charts, config.AttritionFigureFile))

	doc.Heading("6. CORRELATION ANALYSIS")
	doc.Add(report.Pick(charts, config.AttritionHeatmapFile))
	corr := report.NewTable("Top correlations with Attrition:", "field", "|r|")
	for _, c := range a.AttritionCorrelations {
		corr.AddRow(c.Field, report.Fixed(c.R, 3))
	}
	doc.Table(corr)

	doc.Blank().Banner("KEY FINDINGS & RECOMMENDATIONS").
		Blank().
		Text(findings)

	doc.Blank().Banner("Analysis complete! Check the generated PNG files for visualizations.")
	return doc
}

func (a *Analysis) breakdownSection(doc *report.Document) {
	doc.Heading("2. ATTRITION BREAKDOWN")

	dept := report.NewTable("Attrition by Department:", append([]string{FieldDepartment}, a.ByDepartment.Cols...)...)
	for i, row := range a.ByDepartment.Rows {
		cells := []string{row}
		for _, v := range a.ByDepartment.Cells[i] {
			cells = append(cells, report.Fixed(v, 2))
		}
		dept.AddRow(cells...)
	}
	doc.Table(dept)

	doc.Table(rateTable("Attrition by Job Role:", FieldJobRole, a.ByJobRole))
	doc.Table(rateTable("Attrition by Age Group:", FieldAgeGroup, a.ByAgeGroup))
}

func (a *Analysis) numericSection(doc *report.Document) {
	doc.Heading("3. NUMERICAL ANALYSIS")

	means := report.NewTable("Average values by Attrition status:", append([]string{"feature"}, a.Means.Groups...)...)
	for _, f := range a.Means.Fields {
		cells := []string{f}
		for _, g := range a.Means.Groups {
			v, ok := a.Means.Mean(g, f)
			cells = append(cells, report.Optional(v, ok, func(x float64) string { return report.Fixed(x, 2) }))
		}
		means.AddRow(cells...)
	}
	doc.Table(means)

	doc.Blank().Blank().Linef("Statistical Significance (t-test p-values):")
	for _, t := range a.Tests {
		doc.Linef("%-30s: p=%s %s", t.Field, report.Fixed(t.Result.P, 4), t.Significance())
	}
}

func rateTable(title, field string, table *pipeline.AggregateTable) *report.Table {
	t := report.NewTable(title, field, "attrition %")
	for _, g := range table.Groups {
		v, ok := g.Value(pipeline.OpRate)
		t.AddRow(g.Label(), report.Optional(v, ok, func(x float64) string { return report.Fixed(x, 2) }))
	}
	return t
}

const findings = `TOP ATTRITION DRIVERS:
1. Overtime: Employees working overtime have significantly higher attrition
2. Job Satisfaction: Lower satisfaction correlates with higher turnover
3. Work-Life Balance: Poor balance increases likelihood of leaving
4. Distance from Home: Longer commutes associated with higher attrition
5. Years at Company: New employees (<2 years) have highest attrition risk

RECOMMENDATIONS:
1. Review and optimize overtime policies to prevent burnout
2. Implement regular satisfaction surveys and address concerns promptly
3. Offer flexible work arrangements to improve work-life balance
4. Consider remote work options for employees with long commutes
5. Strengthen onboarding and mentorship programs for new hires
6. Focus retention efforts on Sales Representatives and Laboratory Technicians
7. Monitor younger employees (<30) more closely for early warning signs`
