package charts

import (
	"bufio"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"tabstat/internal/config"
	apperrors "tabstat/internal/errors"
)

// Smallest grid cell a panel can be laid out in. Below this the panel
// padding leaves no data area and drawing does not terminate.
const (
	MinCellWidth  = 2.25 * vg.Inch
	MinCellHeight = 1.5 * vg.Inch
)

// Renderer writes figures to PNG files
type Renderer struct {
	logger  *slog.Logger
	width   vg.Length
	height  vg.Length
	heatmap vg.Length
	dpi     int
}

// NewRenderer creates a renderer with the configured figure sizes
func NewRenderer(logger *slog.Logger, cfg config.OutputConfig) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		logger:  logger.With(slog.String("component", "charts")),
		width:   vg.Length(cfg.ChartWidthIn) * vg.Inch,
		height:  vg.Length(cfg.ChartHeightIn) * vg.Inch,
		heatmap: vg.Length(cfg.HeatmapSizeIn) * vg.Inch,
		dpi:     cfg.DPI,
	}
}

// SaveGrid tiles panels row by row into a rows x cols figure. Missing slots
// are left blank.
func (r *Renderer) SaveGrid(path string, rows, cols int, panels []*plot.Plot) error {
	if rows < 1 || cols < 1 {
		return apperrors.NewAppValidationError(fmt.Sprintf("invalid grid %dx%d", rows, cols))
	}
	if len(panels) > rows*cols {
		return apperrors.NewAppValidationError(
			fmt.Sprintf("%d panels do not fit a %dx%d grid", len(panels), rows, cols))
	}

	grid := make([][]*plot.Plot, rows)
	for i := range grid {
		grid[i] = make([]*plot.Plot, cols)
		for j := range grid[i] {
			if k := i*cols + j; k < len(panels) && panels[k] != nil {
				grid[i][j] = panels[k]
			} else {
				grid[i][j] = Empty("", "")
			}
		}
	}

	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter * 8,
		PadY:      vg.Millimeter * 8,
		PadTop:    vg.Millimeter * 4,
		PadBottom: vg.Millimeter * 4,
		PadLeft:   vg.Millimeter * 4,
		PadRight:  vg.Millimeter * 4,
	}
	if w, h := cellSize(r.width, r.height, tiles); w < MinCellWidth || h < MinCellHeight {
		return apperrors.NewRenderError(filepath.Base(path), fmt.Errorf(
			"%.1fx%.1f in figure leaves %.2fx%.2f in per panel, need at least %.2fx%.2f in",
			inches(r.width), inches(r.height), inches(w), inches(h),
			inches(MinCellWidth), inches(MinCellHeight)))
	}

	img := vgimg.NewWith(vgimg.UseWH(r.width, r.height), vgimg.UseDPI(r.dpi))
	dc := draw.New(img)

	var drawErr error
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				drawErr = fmt.Errorf("draw panic: %v", rec)
			}
		}()
		canvases := plot.Align(grid, tiles, dc)
		for i := range canvases {
			for j := range canvases[i] {
				if !usable(canvases[i][j].Rectangle) {
					drawErr = fmt.Errorf("panel %d,%d has no drawable area", i, j)
					return
				}
			}
		}
		for i := range grid {
			for j := range grid[i] {
				grid[i][j].Draw(canvases[i][j])
			}
		}
	}()
	if drawErr != nil {
		return apperrors.NewRenderError(filepath.Base(path), drawErr)
	}

	if err := writePNG(path, img); err != nil {
		return err
	}
	r.logger.Info("Figure saved",
		slog.String("path", path),
		slog.Int("panels", len(panels)))
	return nil
}

// cellSize is the width and height of one tile of the grid
func cellSize(width, height vg.Length, t draw.Tiles) (vg.Length, vg.Length) {
	w := (width - t.PadLeft - t.PadRight - vg.Length(t.Cols-1)*t.PadX) / vg.Length(t.Cols)
	h := (height - t.PadTop - t.PadBottom - vg.Length(t.Rows-1)*t.PadY) / vg.Length(t.Rows)
	return w, h
}

func inches(l vg.Length) float64 { return float64(l / vg.Inch) }

func usable(r vg.Rectangle) bool {
	for _, v := range []vg.Length{r.Min.X, r.Min.Y, r.Max.X, r.Max.Y} {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return false
		}
	}
	return r.Max.X > r.Min.X && r.Max.Y > r.Min.Y
}

// SaveHeatmap draws a correlation matrix with diverging colours over [-1, 1]
// and each cell annotated to two decimals. NaN cells are grey and unlabelled.
func (r *Renderer) SaveHeatmap(path, title string, fields []string, values [][]float64) error {
	n := len(fields)
	if n == 0 || len(values) != n {
		return apperrors.NewAppValidationError("heatmap needs a square matrix with one label per row")
	}
	for _, row := range values {
		if len(row) != n {
			return apperrors.NewAppValidationError("heatmap needs a square matrix with one label per row")
		}
	}

	cm := moreland.SmoothBlueRed()
	cm.SetMin(-1)
	cm.SetMax(1)
	grid := matrixGrid{values: values}
	hm := plotter.NewHeatMap(grid, cm.Palette(255))
	hm.Min, hm.Max = -1, 1
	hm.NaN = color.Gray{Y: 200}

	var pts plotter.XYs
	var texts []string
	for c := 0; c < n; c++ {
		for row := 0; row < n; row++ {
			z := grid.Z(c, row)
			if math.IsNaN(z) {
				continue
			}
			pts = append(pts, plotter.XY{X: grid.X(c), Y: grid.Y(row)})
			texts = append(texts, fmt.Sprintf("%.2f", z))
		}
	}

	p := plot.New()
	p.Title.Text = title
	p.Add(hm)
	if len(pts) > 0 {
		labels, err := plotter.NewLabels(plotter.XYLabels{XYs: pts, Labels: texts})
		if err != nil {
			return apperrors.NewRenderError(filepath.Base(path), err)
		}
		for i := range labels.TextStyle {
			labels.TextStyle[i].XAlign = draw.XCenter
			labels.TextStyle[i].YAlign = draw.YCenter
		}
		p.Add(labels)
	}

	rowNames := make([]string, n)
	for i := range fields {
		rowNames[i] = fields[n-1-i]
	}
	p.NominalX(fields...)
	p.NominalY(rowNames...)

	img := vgimg.NewWith(vgimg.UseWH(r.heatmap, r.heatmap), vgimg.UseDPI(r.dpi))
	p.Draw(draw.New(img))
	if err := writePNG(path, img); err != nil {
		return err
	}
	r.logger.Info("Heatmap saved",
		slog.String("path", path),
		slog.Int("fields", n))
	return nil
}

// matrixGrid adapts a square matrix to plotter.GridXYZ with row 0 at the top
type matrixGrid struct {
	values [][]float64
}

func (g matrixGrid) Dims() (c, r int)   { return len(g.values), len(g.values) }
func (g matrixGrid) X(c int) float64    { return float64(c) }
func (g matrixGrid) Y(r int) float64    { return float64(r) }
func (g matrixGrid) Z(c, r int) float64 { return g.values[len(g.values)-1-r][c] }

func writePNG(path string, img *vgimg.Canvas) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to create directory for %s", path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to create %s", path), err)
	}
	w := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		f.Close()
		return apperrors.NewRenderError(filepath.Base(path), err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return apperrors.NewStorageError(fmt.Sprintf("failed to write %s", path), err)
	}
	if err := f.Close(); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to close %s", path), err)
	}
	return nil
}
