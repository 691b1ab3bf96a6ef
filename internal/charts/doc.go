// Package charts renders report figures to PNG with gonum.org/v1/plot.
//
// Panel constructors (Histogram, Bars, GroupedBars, Line, Scatter, Empty)
// return a *plot.Plot each. A Renderer tiles panels into one image with
// SaveGrid and draws annotated correlation heatmaps with SaveHeatmap. Sizes and
// resolution come from config.OutputConfig.
//
// Pie charts of the original analyses are drawn as share bar charts.
package charts
