package listings

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/plot"

	"tabstat/internal/charts"
	"tabstat/internal/config"
	"tabstat/internal/pipeline"
	"tabstat/internal/stats"
)

// Charts builds the market overview grid and the correlation heatmap
func (a *Analysis) Charts() ([]charts.Chart, error) {
	panels, err := a.panels()
	if err != nil {
		return nil, err
	}
	return []charts.Chart{
		charts.Figure{Name: config.ListingsFigureFile, Rows: 3, Cols: 3, Panels: panels},
		charts.Heatmap{
			Name:   config.ListingsHeatmapFile,
			Title:  "Correlation Matrix - Key Pricing Factors",
			Fields: a.Correlations.Fields,
			Values: a.Correlations.Values,
		},
	}, nil
}

func (a *Analysis) panels() ([]*plot.Plot, error) {
	nan := math.NaN()
	prices := a.Clean.Numbers(FieldPriceCleaned)

	priceHist, err := charts.Histogram(charts.Axes{Title: "Price Distribution", XLabel: "Price ($)"}, 50, nan, nan,
		[]charts.Series{{Values: prices, Color: charts.Blue}},
		charts.Marker{Label: fmt.Sprintf("Mean: $%.0f", a.Price.Mean), X: a.Price.Mean, Color: charts.Red},
		charts.Marker{Label: fmt.Sprintf("Median: $%.0f", a.Price.Median), X: a.Price.Median, Color: charts.Green})
	if err != nil {
		return nil, err
	}

	byMean := a.ByRoomType.SortBy(pipeline.OpMean, true)
	roomLabels, roomMeans := means(byMean.Groups)
	roomPrices, err := charts.Bars(charts.Axes{Title: "Average Price by Room Type", XLabel: "Average Price ($)"},
		roomLabels, roomMeans, charts.Red, true)
	if err != nil {
		return nil, err
	}

	var shareLabels []string
	var shareValues []float64
	for _, c := range a.RoomTypes {
		shareLabels = append(shareLabels, c.Value)
		shareValues = append(shareValues, c.Share)
	}
	roomShares, err := charts.Bars(charts.Axes{Title: "Room Type Distribution", YLabel: "Share of listings (%)"},
		shareLabels, shareValues, charts.Blue, false)
	if err != nil {
		return nil, err
	}

	var guests, guestPrices []float64
	for _, g := range a.ByCapacity.Groups {
		x, perr := strconv.ParseFloat(g.Key[0], 64)
		v, ok := g.Value(pipeline.OpMean)
		if perr != nil || !ok {
			continue
		}
		guests = append(guests, x)
		guestPrices = append(guestPrices, v)
	}
	capacity, err := charts.Line(charts.Axes{Title: "Price by Guest Capacity", XLabel: "Number of Guests", YLabel: "Average Price ($)"},
		guests, guestPrices, charts.Purple)
	if err != nil {
		return nil, err
	}

	reviewed := pipeline.Filter(a.Clean, pipeline.GreaterThan(FieldReviews, 0)).Numbers(FieldReviews)
	reviewHist, err := charts.Histogram(charts.Axes{Title: "Review Count Distribution", XLabel: "Number of Reviews"}, 50,
		0, stats.Quantile(reviewed, 0.95, stats.Linear),
		[]charts.Series{{Values: reviewed, Color: charts.Teal}})
	if err != nil {
		return nil, err
	}

	availability, err := charts.Histogram(charts.Axes{Title: "Availability Distribution", XLabel: "Days Available (per year)"}, 50, nan, nan,
		[]charts.Series{{Values: a.Clean.Numbers(FieldAvailability), Color: charts.Orange}})
	if err != nil {
		return nil, err
	}

	scatter, err := charts.Scatter(charts.Axes{Title: "Price vs Number of Reviews", XLabel: "Number of Reviews", YLabel: "Price ($)"},
		a.sample.Numbers(FieldReviews), a.sample.Numbers(FieldPriceCleaned), charts.Red)
	if err != nil {
		return nil, err
	}

	shortStays := pipeline.Filter(a.Clean, pipeline.AtMost(FieldMinimumNights, maxStayNights)).Numbers(FieldMinimumNights)
	minNights, err := charts.Histogram(charts.Axes{Title: "Minimum Stay Requirements", XLabel: "Minimum Nights"}, 30, nan, nan,
		[]charts.Series{{Values: shortStays, Color: charts.Sea}})
	if err != nil {
		return nil, err
	}

	neighbourhoods := charts.Empty(fmt.Sprintf("Top %d Neighborhoods", a.TopN), "no neighbourhood column")
	if a.Neighbourhoods != nil {
		var names []string
		var counts []float64
		for _, c := range a.Neighbourhoods {
			names = append(names, c.Value)
			counts = append(counts, float64(c.Count))
		}
		neighbourhoods, err = charts.Bars(charts.Axes{Title: fmt.Sprintf("Top %d Neighborhoods", a.TopN), XLabel: "Number of Listings"},
			names, counts, charts.Navy, true)
		if err != nil {
			return nil, err
		}
	}

	return []*plot.Plot{
		priceHist, roomPrices, roomShares,
		capacity, reviewHist, availability,
		scatter, minNights, neighbourhoods,
	}, nil
}

// means returns the labels and mean values of the groups with a defined mean
func means(groups []pipeline.Group) ([]string, []float64) {
	var labels []string
	var values []float64
	for _, g := range groups {
		if v, ok := g.Value(pipeline.OpMean); ok {
			labels = append(labels, g.Label())
			values = append(values, v)
		}
	}
	return labels, values
}
