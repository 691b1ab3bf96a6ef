package listings

import (
	"tabstat/internal/config"
	"tabstat/internal/dataset"
	"tabstat/internal/pipeline"
	"tabstat/internal/stats"
)

// Column names of the listings export
const (
	FieldID            = "id"
	FieldPrice         = "price"
	FieldRoomType      = "room_type"
	FieldPropertyType  = "property_type"
	FieldAccommodates  = "accommodates"
	FieldReviews       = "number_of_reviews"
	FieldAvailability  = "availability_365"
	FieldMinimumNights = "minimum_nights"
	FieldNeighbourhood = "neighbourhood_cleansed"
	FieldBedrooms      = "bedrooms"
	FieldBeds          = "beds"
	FieldRating        = "review_scores_rating"
	FieldSuperhost     = "host_is_superhost"

	// Derived by the cleaner
	FieldPriceCleaned = "price_cleaned"
)

// Category values the findings refer to
const (
	EntireHome      = "Entire home/apt"
	SuperhostFlag   = "t"
	RegularHostFlag = "f"
)

const (
	highAvailabilityDays = 300
	establishedReviews   = 10
	// The reviews/price coefficient is reported above this many complete pairs
	minCorrelationPairs = 10
	bedroomRows         = 8
	capacityRows        = 10
	maxStayNights       = 30
)

// correlationFields are correlated with each other and with price when present
var correlationFields = []string{
	FieldPriceCleaned, FieldAccommodates, FieldBedrooms, FieldBeds,
	FieldReviews, FieldAvailability, FieldMinimumNights,
}

// Schema returns the columns the analysis reads
func Schema() dataset.Schema {
	return dataset.NewSchema(
		dataset.Field{Name: FieldID, Kind: dataset.Text, Required: true},
		dataset.Field{Name: FieldPrice, Kind: dataset.Text, Required: true},
		dataset.Field{Name: FieldRoomType, Kind: dataset.Categorical, Required: true},
		dataset.Field{Name: FieldPropertyType, Kind: dataset.Categorical, Required: true},
		dataset.Field{Name: FieldAccommodates, Kind: dataset.Numeric, Required: true},
		dataset.Field{Name: FieldReviews, Kind: dataset.Numeric, Required: true},
		dataset.Field{Name: FieldAvailability, Kind: dataset.Numeric, Required: true},
		dataset.Field{Name: FieldMinimumNights, Kind: dataset.Numeric, Required: true},
		dataset.Field{Name: FieldNeighbourhood, Kind: dataset.Categorical},
		dataset.Field{Name: FieldBedrooms, Kind: dataset.Numeric},
		dataset.Field{Name: FieldBeds, Kind: dataset.Numeric},
		dataset.Field{Name: FieldRating, Kind: dataset.Numeric},
		dataset.Field{Name: FieldSuperhost, Kind: dataset.Categorical},
	)
}

// CleanerConfig parses the price column and trims it to the configured band
func CleanerConfig(cfg config.PipelineConfig) pipeline.CleanerConfig {
	return pipeline.CleanerConfig{
		Derivations: []pipeline.Derivation{
			{Source: FieldPrice, Target: FieldPriceCleaned, Rule: pipeline.CurrencyRule},
		},
		TrimField:            FieldPriceCleaned,
		LowerPercentile:      cfg.LowerPercentile,
		UpperPercentile:      cfg.UpperPercentile,
		Method:               stats.ParsePercentileMethod(cfg.PercentileMethod),
		MaxParseFailureRatio: cfg.MaxParseFailureRatio,
	}
}
