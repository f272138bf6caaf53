// Package render draws static plots of run output with gonum/plot. The
// image format follows the file extension (png, svg, pdf).
package render

import (
	"fmt"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/coastal/internal/analysis"
	"github.com/san-kum/coastal/internal/dynamo"
)

const (
	figWidth  = 7 * vg.Inch
	figHeight = 3.5 * vg.Inch
)

// Series is one labelled line.
type Series struct {
	Label string
	X, Y  []float64
}

func xys(s Series) (plotter.XYs, error) {
	if len(s.X) != len(s.Y) {
		return nil, fmt.Errorf("%s: %d x values for %d y values", s.Label, len(s.X), len(s.Y))
	}
	if len(s.X) < 2 {
		return nil, fmt.Errorf("%s: need at least 2 points, got %d", s.Label, len(s.X))
	}
	out := make(plotter.XYs, len(s.X))
	for i := range s.X {
		out[i].X, out[i].Y = s.X[i], s.Y[i]
	}
	return out, nil
}

// Lines plots every series on shared axes and saves the figure.
func Lines(path, title, xlabel, ylabel string, series ...Series) error {
	if len(series) == 0 {
		return fmt.Errorf("render %s: no series", path)
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())

	for i, s := range series {
		pts, err := xys(s)
		if err != nil {
			return fmt.Errorf("render %s: %w", path, err)
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("render %s: %w", path, err)
		}
		l.LineStyle.Width = vg.Points(1)
		l.LineStyle.Color = plotutil.Color(i)
		p.Add(l)
		if len(series) > 1 {
			p.Legend.Add(s.Label, l)
		}
	}
	p.Legend.Top = true
	return p.Save(figWidth, figHeight, path)
}

// GaugePNG plots the gauge record of each field against time.
func GaugePNG(path, title string, times []float64, gauges map[string][]float64) error {
	names := make([]string, 0, len(gauges))
	for name := range gauges {
		names = append(names, name)
	}
	sort.Strings(names)
	series := make([]Series, len(names))
	for i, name := range names {
		series[i] = Series{Label: name, X: times, Y: gauges[name]}
	}
	return Lines(path, title, "time (s)", "value", series...)
}

// ProfilePNG plots a 1D field along x.
func ProfilePNG(path, title string, x []float64, f *dynamo.Field, label string) error {
	if f == nil {
		return fmt.Errorf("render %s: no field", path)
	}
	return Lines(path, title, "x (m)", label, Series{Label: label, X: x, Y: f.Row(0)})
}

// SpectrumPNG plots a power spectral density.
func SpectrumPNG(path, title string, sp *analysis.Spectrum) error {
	if sp == nil {
		return fmt.Errorf("render %s: no spectrum", path)
	}
	return Lines(path, title, "frequency (Hz)", "density", Series{Label: "S(f)", X: sp.Freqs, Y: sp.Density})
}

// fieldGrid adapts a field and its axes to plotter.GridXYZ.
type fieldGrid struct {
	f    *dynamo.Field
	x, y []float64
}

func (g fieldGrid) Dims() (c, r int)   { return g.f.Nx, g.f.Ny }
func (g fieldGrid) Z(c, r int) float64 { return g.f.At(c, r) }
func (g fieldGrid) X(c int) float64    { return g.x[c] }
func (g fieldGrid) Y(r int) float64    { return g.y[r] }

// PlanPNG draws a 2D field as a heat map.
func PlanPNG(path, title string, f *dynamo.Field, x, y []float64) error {
	if f == nil {
		return fmt.Errorf("render %s: no field", path)
	}
	if f.Nx < 2 || f.Ny < 2 {
		return fmt.Errorf("render %s: plan view needs a 2D field, got %dx%d", path, f.Nx, f.Ny)
	}
	if len(x) != f.Nx || len(y) != f.Ny {
		return fmt.Errorf("render %s: axes %dx%d do not match field %dx%d", path, len(x), len(y), f.Nx, f.Ny)
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"
	p.Add(plotter.NewHeatMap(fieldGrid{f: f, x: x, y: y}, palette.Heat(64, 1)))

	// follow the domain aspect ratio within sensible page bounds
	aspect := (y[len(y)-1] - y[0]) / (x[len(x)-1] - x[0])
	h := figWidth * vg.Length(aspect)
	h = max(min(h, 2*figWidth), figHeight/2)
	return p.Save(figWidth, h, path)
}
