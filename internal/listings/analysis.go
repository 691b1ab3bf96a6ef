package listings

import (
	"context"
	"log/slog"
	"math"

	"tabstat/internal/config"
	"tabstat/internal/dataset"
	apperrors "tabstat/internal/errors"
	"tabstat/internal/pipeline"
	"tabstat/internal/report"
	"tabstat/internal/stats"
)

// Analysis holds every result of a listings run
type Analysis struct {
	Raw      *dataset.Dataset
	Clean    *dataset.Dataset
	Cleaning pipeline.CleanReport
	TopN     int

	Price pipeline.Summary

	RoomTypes      []pipeline.Category
	PropertyTypes  []pipeline.Category
	Neighbourhoods []pipeline.Category // nil without a neighbourhood column

	ByRoomType *pipeline.AggregateTable
	ByBedrooms *pipeline.AggregateTable // nil without bedroom values
	ByCapacity *pipeline.AggregateTable
	Expensive  []pipeline.Group // nil without a neighbourhood column

	Reviews      ReviewStats
	Hosts        *HostStats // nil without a superhost column
	Availability AvailabilityStats

	Correlations      *pipeline.Matrix
	PriceCorrelations []pipeline.Correlation

	EntireHomeShare  float64
	EstablishedShare float64

	sample *dataset.Dataset
}

// ReviewStats summarises review counts and ratings
type ReviewStats struct {
	Total       float64
	WithReviews int
	Share       float64

	// Rating is nil when no listing has a rating
	Rating *pipeline.Summary

	// PriceCorrelation is NaN when there are too few complete pairs
	PriceCorrelation float64
	Pairs            int
}

// HostStats compares superhosts with regular hosts
type HostStats struct {
	Superhosts     int
	Share          float64
	SuperhostPrice float64
	RegularPrice   float64
}

// AvailabilityStats summarises calendar availability and minimum stays
type AvailabilityStats struct {
	Mean      float64
	Median    float64
	High      int
	HighShare float64

	MinNightsMean   float64
	MinNightsMedian float64
}

// Analyze computes the listings results from the raw and cleaned datasets
func Analyze(ctx context.Context, logger *slog.Logger, raw, clean *dataset.Dataset, cleaning pipeline.CleanReport, cfg config.PipelineConfig) (*Analysis, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, ok := clean.Schema().Field(FieldPriceCleaned); !ok {
		return nil, apperrors.NewAppValidationError("listings must be cleaned before analysis: no " + FieldPriceCleaned + " field")
	}
	logger = logger.With(slog.String("component", "listings"))

	a := &Analysis{
		Raw:      raw,
		Clean:    clean,
		Cleaning: cleaning,
		TopN:     cfg.TopN,
	}
	n := clean.Len()

	a.Price = describe(ctx, logger, clean, FieldPriceCleaned, nil)

	// Market overview
	a.RoomTypes = pipeline.ValueCounts(clean, FieldRoomType)
	a.PropertyTypes = head(pipeline.ValueCounts(clean, FieldPropertyType), cfg.TopN)
	if clean.Has(FieldNeighbourhood) {
		a.Neighbourhoods = head(pipeline.ValueCounts(clean, FieldNeighbourhood), cfg.TopN)
	}

	// Pricing
	a.ByRoomType = pipeline.GroupAggregate(clean, []string{FieldRoomType}, FieldPriceCleaned,
		pipeline.OpMean, pipeline.OpMedian, pipeline.OpCount).WithoutMissing().SortByKey()
	if len(clean.Numbers(FieldBedrooms)) > 0 {
		a.ByBedrooms = pipeline.GroupAggregate(clean, []string{FieldBedrooms}, FieldPriceCleaned, pipeline.OpMean).
			WithoutMissing().SortByKey()
	}
	a.ByCapacity = pipeline.GroupAggregate(clean, []string{FieldAccommodates}, FieldPriceCleaned, pipeline.OpMean).
		WithoutMissing().SortByKey()
	if clean.Has(FieldNeighbourhood) {
		a.Expensive = pipeline.GroupAggregate(clean, []string{FieldNeighbourhood}, FieldPriceCleaned, pipeline.OpMean).
			WithoutMissing().
			Top(pipeline.OpMean, cfg.TopN, cfg.MinSupport)
	}

	// Reviews
	reviewed := pipeline.GreaterThan(FieldReviews, 0)
	a.Reviews = ReviewStats{
		Total:            stats.Sum(clean.Numbers(FieldReviews)),
		WithReviews:      pipeline.CountWhere(clean, reviewed),
		PriceCorrelation: math.NaN(),
		Pairs:            pipeline.CompletePairs(clean, FieldReviews, FieldPriceCleaned),
	}
	a.Reviews.Share = report.Share(a.Reviews.WithReviews, n)
	if clean.Has(FieldRating) {
		if s, err := pipeline.Describe(clean, FieldRating, nil); err == nil {
			a.Reviews.Rating = &s
		}
	}
	if a.Reviews.Pairs > minCorrelationPairs {
		pair := pipeline.CorrelationMatrix(clean, []string{FieldReviews, FieldPriceCleaned})
		a.Reviews.PriceCorrelation = pair.At(FieldReviews, FieldPriceCleaned)
	}

	// Hosts
	if clean.Has(FieldSuperhost) {
		superhosts := pipeline.CountWhere(clean, pipeline.Equals(FieldSuperhost, SuperhostFlag))
		a.Hosts = &HostStats{
			Superhosts:     superhosts,
			Share:          report.Share(superhosts, n),
			SuperhostPrice: describe(ctx, logger, clean, FieldPriceCleaned, pipeline.Equals(FieldSuperhost, SuperhostFlag)).Mean,
			RegularPrice:   describe(ctx, logger, clean, FieldPriceCleaned, pipeline.Equals(FieldSuperhost, RegularHostFlag)).Mean,
		}
	}

	// Availability
	availability := describe(ctx, logger, clean, FieldAvailability, nil)
	minNights := describe(ctx, logger, clean, FieldMinimumNights, nil)
	high := pipeline.CountWhere(clean, pipeline.GreaterThan(FieldAvailability, highAvailabilityDays))
	a.Availability = AvailabilityStats{
		Mean:            availability.Mean,
		Median:          availability.Median,
		High:            high,
		HighShare:       report.Share(high, n),
		MinNightsMean:   minNights.Mean,
		MinNightsMedian: minNights.Median,
	}

	// Correlations over the numeric fields this export carries
	var fields []string
	for _, f := range correlationFields {
		if clean.Has(f) {
			fields = append(fields, f)
		}
	}
	a.Correlations = pipeline.CorrelationMatrix(clean, fields)
	for _, c := range a.Correlations.Ranked(FieldPriceCleaned) {
		a.PriceCorrelations = append(a.PriceCorrelations, pipeline.Correlation{Field: c.Field, R: math.Abs(c.R)})
	}

	// Findings
	a.EntireHomeShare = report.Share(pipeline.CountWhere(clean, pipeline.Equals(FieldRoomType, EntireHome)), n)
	a.EstablishedShare = report.Share(pipeline.CountWhere(clean, pipeline.AtLeast(FieldReviews, establishedReviews)), n)

	a.sample = pipeline.Sample(pipeline.Filter(clean, reviewed), cfg.SampleSize, cfg.SampleSeed)

	logger.InfoContext(ctx, "Listings analysed",
		slog.Int("listings", n),
		slog.Int("room_types", len(a.RoomTypes)),
		slog.Int("correlation_fields", len(fields)))
	return a, nil
}

// describe returns a NaN summary when no record qualifies
func describe(ctx context.Context, logger *slog.Logger, ds *dataset.Dataset, field string, where pipeline.Predicate) pipeline.Summary {
	s, err := pipeline.Describe(ds, field, where)
	if err != nil {
		logger.DebugContext(ctx, "Summary undefined",
			slog.String("field", field),
			slog.String("error", err.Error()))
		nan := math.NaN()
		return pipeline.Summary{Mean: nan, Median: nan, Min: nan, Max: nan, Sum: nan}
	}
	return s
}

func head[T any](s []T, n int) []T {
	if n >= 0 && len(s) > n {
		return s[:n]
	}
	return s
}
