package listings

import (
	"fmt"

	"tabstat/internal/config"
	"tabstat/internal/pipeline"
	"tabstat/internal/report"
)

const (
	title   = "AIRBNB MARKET ANALYSIS"
	closing = "Analysis complete! Check the generated PNG files for visualizations."
)

// Document renders the text report. charts lists the figures the run wrote;
// each is reported in the section that produced it.
func (a *Analysis) Document(charts []report.Artifact) *report.Document {
	doc := report.New(title)
	a.cleaningSection(doc)
	a.marketSection(doc)
	a.pricingSection(doc)
	a.reviewSection(doc)
	a.hostSection(doc)
	a.availabilitySection(doc)

	doc.Heading("7. GENERATING VISUALIZATIONS...")
	doc.Add(report.Pick(charts, config.ListingsFigureFile))

	a.correlationSection(doc, report.Pick(charts, config.ListingsHeatmapFile))
	a.findingsSection(doc)

	doc.Blank().Banner(closing)
	return doc
}

func (a *Analysis) cleaningSection(doc *report.Document) {
	doc.Heading("1. DATA CLEANING").
		Linef("Original dataset: %d listings, %d features", a.Raw.Len(), a.Raw.Columns()).
		Linef("After cleaning: %d listings", a.Clean.Len()).
		Linef("Price range: %s - %s", report.Money(a.Price.Min, 2), report.Money(a.Price.Max, 2)).
		Linef("Average price: %s", report.Money(a.Price.Mean, 2)).
		Linef("Median price: %s", report.Money(a.Price.Median, 2))

	if dropped := a.Cleaning.Dropped(); dropped > 0 {
		doc.Linef("Dropped: %d unparsable price, %d missing price, %d outside %s - %s",
			a.Cleaning.Unparsable, a.Cleaning.Missing, a.Cleaning.Trimmed,
			report.Money(a.Cleaning.Lower, 2), report.Money(a.Cleaning.Upper, 2))
	}
}

func (a *Analysis) marketSection(doc *report.Document) {
	doc.Heading("2. MARKET OVERVIEW")

	counts := report.NewTable("Room Type Distribution:", FieldRoomType, "count")
	shares := report.NewTable("Room Type Percentages:", FieldRoomType, "percent")
	for _, c := range a.RoomTypes {
		counts.AddRow(c.Value, report.Count(c.Count))
		shares.AddRow(c.Value, report.Fixed(c.Share, 2))
	}
	doc.Table(counts).Table(shares)

	doc.Table(categoryTable(fmt.Sprintf("Top %d Property Types:", a.TopN), FieldPropertyType, a.PropertyTypes))
	if a.Neighbourhoods != nil {
		doc.Table(categoryTable(fmt.Sprintf("Top %d Neighborhoods by Listings:", a.TopN), FieldNeighbourhood, a.Neighbourhoods))
	}
}

func (a *Analysis) pricingSection(doc *report.Document) {
	doc.Heading("3. PRICING ANALYSIS")

	byRoom := report.NewTable("Average Price by Room Type:", FieldRoomType, "mean", "median", "count")
	for _, g := range a.ByRoomType.Groups {
		byRoom.AddRow(g.Label(), value(g, pipeline.OpMean), value(g, pipeline.OpMedian), report.Count(g.Count))
	}
	doc.Table(byRoom)

	if a.ByBedrooms != nil {
		doc.Table(meanTable("Average Price by Number of Bedrooms:", FieldBedrooms, a.ByBedrooms.Limit(bedroomRows).Groups))
	}
	doc.Table(meanTable("Average Price by Guest Capacity:", FieldAccommodates, a.ByCapacity.Limit(capacityRows).Groups))

	if a.Neighbourhoods != nil {
		t := report.NewTable(fmt.Sprintf("Top %d Most Expensive Neighborhoods:", a.TopN), FieldNeighbourhood, FieldPriceCleaned, "count")
		for _, g := range a.Expensive {
			t.AddRow(g.Label(), value(g, pipeline.OpMean), report.Count(g.Count))
		}
		doc.Table(t)
	}
}

func (a *Analysis) reviewSection(doc *report.Document) {
	r := a.Reviews
	doc.Heading("4. REVIEW & RATING ANALYSIS").
		Blank().
		Linef("Total reviews: %s", report.Thousands(r.Total)).
		Linef("Listings with reviews: %d (%s)", r.WithReviews, report.Percent(r.Share, 1))

	if r.Rating != nil {
		doc.Blank().
			Linef("Average rating: %s / 5.0", report.Fixed(r.Rating.Mean, 2)).
			Linef("Median rating: %s / 5.0", report.Fixed(r.Rating.Median, 2))
	}
	if r.Pairs > minCorrelationPairs {
		doc.Blank().Linef("Correlation between reviews and price: %s", report.Fixed(r.PriceCorrelation, 3))
	}
}

func (a *Analysis) hostSection(doc *report.Document) {
	doc.Heading("5. HOST ANALYSIS")
	if a.Hosts == nil {
		doc.Blank().Linef("No %s column; host analysis skipped", FieldSuperhost)
		return
	}
	doc.Blank().
		Linef("Superhosts: %d (%s)", a.Hosts.Superhosts, report.Percent(a.Hosts.Share, 1)).
		Linef("Superhost average price: %s", report.Money(a.Hosts.SuperhostPrice, 2)).
		Linef("Regular host average price: %s", report.Money(a.Hosts.RegularPrice, 2))
}

func (a *Analysis) availabilitySection(doc *report.Document) {
	av := a.Availability
	doc.Heading("6. AVAILABILITY ANALYSIS").
		Blank().
		Linef("Average availability (next 365 days): %s days", report.Fixed(av.Mean, 0)).
		Linef("Median availability: %s days", report.Fixed(av.Median, 0)).
		Blank().
		Linef("Listings available >%d days/year: %d (%s)", highAvailabilityDays, av.High, report.Percent(av.HighShare, 1)).
		Blank().
		Linef("Average minimum nights: %s", report.Fixed(av.MinNightsMean, 1)).
		Linef("Median minimum nights: %s", report.Fixed(av.MinNightsMedian, 0))
}

func (a *Analysis) correlationSection(doc *report.Document, heatmap report.Artifacts) {
	doc.Heading("8. CORRELATION ANALYSIS")
	doc.Add(heatmap)

	t := report.NewTable("Top correlations with Price:", "field", "|r|")
	for _, c := range a.PriceCorrelations {
		t.AddRow(c.Field, report.Fixed(c.R, 3))
	}
	doc.Table(t)
}

func (a *Analysis) findingsSection(doc *report.Document) {
	doc.Blank().Banner("KEY FINDINGS & RECOMMENDATIONS").
		Blank().
		Linef("MARKET INSIGHTS:").
		Linef("1. Average Listing Price: %s per night", report.Money(a.Price.Mean, 2)).
		Linef("2. Most Common: Entire homes/apartments (%s of listings)", report.Percent(a.EntireHomeShare, 1)).
		Linef("3. %s of listings have %d+ reviews (established properties)", report.Percent(a.EstablishedShare, 1), establishedReviews).
		Linef("4. Price increases linearly with guest capacity and number of bedrooms").
		Linef("5. Superhosts can command higher prices on average").
		Blank().
		Text(recommendations)
}

const recommendations = `PRICING FACTORS (Strongest to Weakest):
1. Number of guests accommodated - Primary driver
2. Room type - Entire homes command premium prices
3. Number of bedrooms/beds - Direct impact on price
4. Location/Neighborhood - Significant geographic variation
5. Host status (Superhost) - Modest premium

RECOMMENDATIONS FOR HOSTS:
1. Optimize capacity: Listings that accommodate more guests earn significantly more
2. Consider room type: Converting to entire home can increase revenue if feasible
3. Build reviews: Focus on guest experience to accumulate positive reviews
4. Strategic pricing: Research neighborhood averages and price competitively
5. Maintain availability: Higher availability correlates with more bookings
6. Work toward Superhost status: Small but meaningful price premium

RECOMMENDATIONS FOR MARKET ENTRANTS:
1. Target underserved neighborhoods with lower competition
2. Focus on unique property types in high-demand areas
3. Offer competitive pricing for first 5-10 reviews
4. Emphasize amenities that justify higher prices
5. Maintain high response rates and guest satisfaction`

func categoryTable(title, field string, categories []pipeline.Category) *report.Table {
	t := report.NewTable(title, field, "count")
	for _, c := range categories {
		t.AddRow(c.Value, report.Count(c.Count))
	}
	return t
}

func meanTable(title, field string, groups []pipeline.Group) *report.Table {
	t := report.NewTable(title, field, FieldPriceCleaned)
	for _, g := range groups {
		t.AddRow(g.Label(), value(g, pipeline.OpMean))
	}
	return t
}

func value(g pipeline.Group, op pipeline.Op) string {
	v, ok := g.Value(op)
	return report.Optional(v, ok, func(f float64) string { return report.Fixed(f, 2) })
}
