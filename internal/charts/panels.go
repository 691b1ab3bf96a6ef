package charts

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Series is one named set of values drawn in a panel
type Series struct {
	Name   string
	Values []float64
	Color  color.RGBA
}

// Marker is a labelled vertical line
type Marker struct {
	Label string
	X     float64
	Color color.RGBA
}

// Axes holds panel titles
type Axes struct {
	Title  string
	XLabel string
	YLabel string
}

func newPlot(a Axes) *plot.Plot {
	p := plot.New()
	p.Title.Text = a.Title
	p.X.Label.Text = a.XLabel
	p.Y.Label.Text = a.YLabel
	return p
}

// Empty is a placeholder panel for a figure slot with no data
func Empty(title, message string) *plot.Plot {
	p := newPlot(Axes{Title: title})
	p.HideAxes()
	if message != "" {
		labels, err := plotter.NewLabels(plotter.XYLabels{
			XYs:    plotter.XYs{{X: 0.5, Y: 0.5}},
			Labels: []string{message},
		})
		if err == nil {
			p.Add(labels)
		}
	}
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	return p
}

// Histogram bins every series over a shared range [lo, hi]. NaN bounds are
// taken from the data. A series with no values is skipped; when all are empty
// the panel is an Empty placeholder.
func Histogram(a Axes, bins int, lo, hi float64, series []Series, markers ...Marker) (*plot.Plot, error) {
	if math.IsNaN(lo) || math.IsNaN(hi) {
		dlo, dhi := dataRange(series)
		if math.IsNaN(lo) {
			lo = dlo
		}
		if math.IsNaN(hi) {
			hi = dhi
		}
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) || math.IsNaN(lo) || math.IsNaN(hi) {
		return Empty(a.Title, "no data"), nil
	}
	if hi <= lo {
		hi = lo + 1
	}
	if a.YLabel == "" {
		a.YLabel = "Frequency"
	}

	p := newPlot(a)
	var maxWeight float64
	for _, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		h := binned(s.Values, bins, lo, hi)
		fill := s.Color
		if len(series) > 1 {
			fill = Translucent(s.Color, 0.7)
		}
		h.FillColor = fill
		p.Add(h)
		if s.Name != "" && len(series) > 1 {
			p.Legend.Add(s.Name, h)
		}
		for _, b := range h.Bins {
			maxWeight = math.Max(maxWeight, b.Weight)
		}
	}

	for _, m := range markers {
		if math.IsNaN(m.X) {
			continue
		}
		line, err := plotter.NewLine(plotter.XYs{{X: m.X, Y: 0}, {X: m.X, Y: maxWeight}})
		if err != nil {
			return nil, fmt.Errorf("marker %s: %w", m.Label, err)
		}
		line.Color = m.Color
		line.Width = vg.Points(2)
		line.Dashes = dashed
		p.Add(line)
		p.Legend.Add(m.Label, line)
	}

	p.X.Min, p.X.Max = lo, hi
	p.Legend.Top = true
	return p, nil
}

// binned builds a histogram with bins equal-width bins over [lo, hi]; values
// outside the range are dropped and hi is included in the last bin.
func binned(values []float64, bins int, lo, hi float64) *plotter.Histogram {
	if bins < 1 {
		bins = 1
	}
	width := (hi - lo) / float64(bins)
	h := &plotter.Histogram{
		Bins:      make([]plotter.HistogramBin, bins),
		Width:     width,
		LineStyle: plotter.DefaultLineStyle,
	}
	for i := range h.Bins {
		h.Bins[i].Min = lo + float64(i)*width
		h.Bins[i].Max = lo + float64(i+1)*width
	}
	for _, v := range values {
		if v < lo || v > hi || math.IsNaN(v) {
			continue
		}
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		h.Bins[i].Weight++
	}
	return h
}

func dataRange(series []Series) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s.Values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi
}

// Bars draws one bar per label. Horizontal bars list labels top to bottom in
// the given order.
func Bars(a Axes, labels []string, values []float64, c color.RGBA, horizontal bool) (*plot.Plot, error) {
	if len(values) == 0 {
		return Empty(a.Title, "no data"), nil
	}

	vals := make(plotter.Values, len(values))
	names := make([]string, len(labels))
	copy(vals, values)
	copy(names, labels)
	if horizontal {
		reverse(vals)
		reverse(names)
	}

	p := newPlot(a)
	bars, err := plotter.NewBarChart(vals, vg.Points(14))
	if err != nil {
		return nil, fmt.Errorf("bar chart %s: %w", a.Title, err)
	}
	bars.Color = c
	bars.LineStyle.Width = 0
	bars.Horizontal = horizontal
	p.Add(bars)

	if horizontal {
		p.NominalY(names...)
	} else {
		p.NominalX(names...)
	}
	return p, nil
}

// GroupedBars draws one group of bars per category, one bar per series
func GroupedBars(a Axes, categories []string, series []Series) (*plot.Plot, error) {
	if len(categories) == 0 || len(series) == 0 {
		return Empty(a.Title, "no data"), nil
	}

	p := newPlot(a)
	w := vg.Points(18)
	for i, s := range series {
		bars, err := plotter.NewBarChart(plotter.Values(s.Values), w)
		if err != nil {
			return nil, fmt.Errorf("bar chart %s: %w", a.Title, err)
		}
		bars.Color = s.Color
		bars.LineStyle.Width = 0
		bars.Offset = w * vg.Length(float64(i)-float64(len(series)-1)/2)
		p.Add(bars)
		p.Legend.Add(s.Name, bars)
	}
	p.Legend.Top = true
	p.NominalX(categories...)
	return p, nil
}

// Line draws connected points with markers and a background grid
func Line(a Axes, xs, ys []float64, c color.RGBA) (*plot.Plot, error) {
	if len(xs) == 0 || len(xs) != len(ys) {
		return Empty(a.Title, "no data"), nil
	}

	p := newPlot(a)
	p.Add(plotter.NewGrid())
	line, points, err := plotter.NewLinePoints(xyPairs(xs, ys))
	if err != nil {
		return nil, fmt.Errorf("line chart %s: %w", a.Title, err)
	}
	line.Color = c
	line.Width = vg.Points(2)
	points.Color = c
	points.Radius = vg.Points(4)
	p.Add(line, points)
	return p, nil
}

// Scatter draws one translucent dot per pair
func Scatter(a Axes, xs, ys []float64, c color.RGBA) (*plot.Plot, error) {
	if len(xs) == 0 || len(xs) != len(ys) {
		return Empty(a.Title, "no data"), nil
	}

	p := newPlot(a)
	p.Add(plotter.NewGrid())
	s, err := plotter.NewScatter(xyPairs(xs, ys))
	if err != nil {
		return nil, fmt.Errorf("scatter %s: %w", a.Title, err)
	}
	s.GlyphStyle.Color = Translucent(c, 0.5)
	s.GlyphStyle.Radius = vg.Points(2.5)
	p.Add(s)
	return p, nil
}

func xyPairs(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return pts
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
