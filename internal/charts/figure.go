package charts

import "gonum.org/v1/plot"

// Chart is an image artifact a Renderer can write
type Chart interface {
	Filename() string
	Render(r *Renderer, path string) error
}

// Figure is a grid of panels saved as one image
type Figure struct {
	Name   string
	Rows   int
	Cols   int
	Panels []*plot.Plot
}

func (f Figure) Filename() string { return f.Name }

func (f Figure) Render(r *Renderer, path string) error {
	return r.SaveGrid(path, f.Rows, f.Cols, f.Panels)
}

// Heatmap is an annotated correlation matrix image
type Heatmap struct {
	Name   string
	Title  string
	Fields []string
	Values [][]float64
}

func (h Heatmap) Filename() string { return h.Name }

func (h Heatmap) Render(r *Renderer, path string) error {
	return r.SaveHeatmap(path, h.Title, h.Fields, h.Values)
}
