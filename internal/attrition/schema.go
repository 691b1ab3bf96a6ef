package attrition

import (
	"tabstat/internal/config"
	"tabstat/internal/dataset"
	"tabstat/internal/pipeline"
	"tabstat/internal/stats"
)

const (
	FieldAttrition               = "Attrition"
	FieldDepartment              = "Department"
	FieldJobRole                 = "JobRole"
	FieldAge                     = "Age"
	FieldMonthlyIncome           = "MonthlyIncome"
	FieldDistanceFromHome        = "DistanceFromHome"
	FieldTotalWorkingYears       = "TotalWorkingYears"
	FieldYearsAtCompany          = "YearsAtCompany"
	FieldYearsInCurrentRole      = "YearsInCurrentRole"
	FieldYearsSinceLastPromotion = "YearsSinceLastPromotion"
	FieldJobSatisfaction         = "JobSatisfaction"
	FieldWorkLifeBalance         = "WorkLifeBalance"
	FieldEnvironmentSatisfaction = "EnvironmentSatisfaction"
	FieldJobInvolvement          = "JobInvolvement"
	FieldOverTime                = "OverTime"

	// Derived fields
	FieldAttritionBinary = "Attrition_Binary"
	FieldAgeGroup        = "AgeGroup"
)

// Attrition labels
const (
	Left   = "Yes"
	Stayed = "No"
)

var (
	ageEdges  = []float64{0, 30, 40, 50, 100}
	ageLabels = []string{"<30", "30-40", "40-50", "50+"}

	comparedFields = []string{
		FieldMonthlyIncome, FieldAge, FieldYearsAtCompany, FieldDistanceFromHome,
		FieldTotalWorkingYears, FieldYearsSinceLastPromotion,
	}

	factorFields = []string{
		FieldOverTime, FieldJobSatisfaction, FieldWorkLifeBalance,
		FieldEnvironmentSatisfaction, FieldJobInvolvement,
	}

	correlationFields = []string{
		FieldAge, FieldMonthlyIncome, FieldDistanceFromHome, FieldTotalWorkingYears,
		FieldYearsAtCompany, FieldYearsInCurrentRole, FieldYearsSinceLastPromotion,
		FieldJobSatisfaction, FieldWorkLifeBalance, FieldEnvironmentSatisfaction,
		FieldJobInvolvement, FieldAttritionBinary,
	}
)

// Schema returns the columns the analysis reads; all are required
func Schema() dataset.Schema {
	categorical := []string{FieldAttrition, FieldDepartment, FieldJobRole}
	numeric := []string{
		FieldAge, FieldMonthlyIncome, FieldDistanceFromHome, FieldTotalWorkingYears,
		FieldYearsAtCompany, FieldYearsInCurrentRole, FieldYearsSinceLastPromotion,
		FieldJobSatisfaction, FieldWorkLifeBalance, FieldEnvironmentSatisfaction,
		FieldJobInvolvement,
	}

	var fields []dataset.Field
	for _, name := range categorical {
		fields = append(fields, dataset.Field{Name: name, Kind: dataset.Categorical, Required: true})
	}
	for _, name := range numeric {
		fields = append(fields, dataset.Field{Name: name, Kind: dataset.Numeric, Required: true})
	}
	fields = append(fields, dataset.Field{Name: FieldOverTime, Kind: dataset.Categorical, Required: true})
	return dataset.NewSchema(fields...)
}

// CleanerConfig derives the 0/1 attrition indicator; nothing is trimmed
func CleanerConfig(cfg config.PipelineConfig) pipeline.CleanerConfig {
	return pipeline.CleanerConfig{
		Derivations: []pipeline.Derivation{
			{Source: FieldAttrition, Target: FieldAttritionBinary, Rule: pipeline.IndicatorRule(Left, Stayed)},
		},
		Method:               stats.ParsePercentileMethod(cfg.PercentileMethod),
		MaxParseFailureRatio: cfg.MaxParseFailureRatio,
	}
}
