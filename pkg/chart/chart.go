// Package chart draws number-fraction and weight-fraction curves of a
// population, with a dashed marker at each requested average.
package chart

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mchmarny/molweight/pkg/averages"
	"github.com/mchmarny/molweight/pkg/data"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	_ "gonum.org/v1/plot/vg/vgeps"
	_ "gonum.org/v1/plot/vg/vgimg"
	_ "gonum.org/v1/plot/vg/vgpdf"
	_ "gonum.org/v1/plot/vg/vgsvg"
)

const (
	// DefaultWidth and DefaultHeight are in inches.
	DefaultWidth  = 6.4
	DefaultHeight = 4.8

	DefaultFormat = "svg"

	numberFractionLabel = "Number Fraction"
	weightFractionLabel = "Weight Fraction"
	xAxisLabel          = "Molecular Weight"
)

var (
	// Formats lists the image formats the chart can be written in.
	Formats = []string{"svg", "png", "pdf", "eps", "jpg", "jpeg", "tif", "tiff"}

	markerDashes = []vg.Length{vg.Points(6), vg.Points(3)}
)

// Options control which averages are marked and how the chart is laid out.
type Options struct {
	Title string

	// Averages lists the registry names to mark, in legend order.
	Averages []string

	// AllAverages marks every registered average and overrides Averages.
	AllAverages bool

	// YTicks, when set, replaces the automatic y axis ticks.
	YTicks []float64

	// Width and Height are in inches; zero means default.
	Width  float64
	Height float64

	// Registry resolves average names; nil means the default registry.
	Registry *averages.Registry
}

func (o Options) registry() *averages.Registry {
	if o.Registry == nil {
		return averages.Default()
	}
	return o.Registry
}

func (o Options) size() (vg.Length, vg.Length) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return vg.Length(w) * vg.Inch, vg.Length(h) * vg.Inch
}

func (o Options) markedAverages() []string {
	if o.AllAverages {
		return o.registry().Names()
	}
	return o.Averages
}

// New builds the chart for pop. Unknown average names fail; an average that
// cannot be computed for this population is left out with a warning.
func New(pop *data.Population, opts Options) (*plot.Plot, error) {
	if err := pop.Validate(); err != nil {
		return nil, err
	}

	reg := opts.registry()
	names := opts.markedAverages()
	funcs := make([]averages.Func, len(names))
	for i, name := range names {
		f, err := reg.Lookup(name)
		if err != nil {
			return nil, err
		}
		funcs[i] = f
	}

	nf, err := averages.NumberFractions(pop.Counts)
	if err != nil {
		return nil, fmt.Errorf("number fractions: %w", err)
	}
	wf, err := averages.WeightFractions(pop.Counts, pop.Weights)
	if err != nil {
		return nil, fmt.Errorf("weight fractions: %w", err)
	}
	yMax := max(floats.Max(nf), floats.Max(wf))

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = xAxisLabel
	p.Legend.Top = true

	if err := addCurve(p, 0, numberFractionLabel, pop.Weights, nf); err != nil {
		return nil, err
	}
	if err := addCurve(p, 1, weightFractionLabel, pop.Weights, wf); err != nil {
		return nil, err
	}

	for i, name := range names {
		v, err := funcs[i](pop.Counts, pop.Weights)
		if err != nil {
			slog.Warn("average not drawn", "population", pop.Name, "average", name, "error", err)
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			slog.Warn("average not drawn", "population", pop.Name, "average", name, "value", v)
			continue
		}
		if err := addMarker(p, i+2, name, v, yMax); err != nil {
			return nil, err
		}
		slog.Debug("average marked", "population", pop.Name, "average", name, "value", v)
	}

	if len(opts.YTicks) > 0 {
		setTicks(&p.Y, opts.YTicks)
	}

	return p, nil
}

func addCurve(p *plot.Plot, idx int, label string, xs, ys []float64) error {
	xys := make(plotter.XYs, len(xs))
	for i := range xs {
		xys[i].X = xs[i]
		xys[i].Y = ys[i]
	}

	l, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	l.Color = plotutil.Color(idx)
	p.Add(l)
	p.Legend.Add(label, l)
	return nil
}

func addMarker(p *plot.Plot, idx int, label string, x, yMax float64) error {
	l, err := plotter.NewLine(plotter.XYs{{X: x, Y: 0}, {X: x, Y: yMax}})
	if err != nil {
		return fmt.Errorf("%s marker: %w", label, err)
	}
	l.Color = plotutil.Color(idx)
	l.Dashes = markerDashes
	p.Add(l)
	p.Legend.Add(label, l)
	return nil
}

// setTicks pins the axis to the given ticks and widens its range to show
// all of them.
func setTicks(a *plot.Axis, values []float64) {
	ticks := make(plot.ConstantTicks, len(values))
	for i, v := range values {
		ticks[i] = plot.Tick{Value: v, Label: strconv.FormatFloat(v, 'g', -1, 64)}
		a.Min = min(a.Min, v)
		a.Max = max(a.Max, v)
	}
	a.Tick.Marker = ticks
}

// FormatFromPath returns the image format implied by the file extension.
func FormatFromPath(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if !data.Contains(Formats, ext) {
		return "", fmt.Errorf("unsupported chart extension %q (supported: %s)",
			filepath.Ext(path), strings.Join(Formats, ", "))
	}
	return ext, nil
}

// Write renders p in format to w.
func Write(w io.Writer, p *plot.Plot, opts Options, format string) error {
	width, height := opts.size()
	wt, err := p.WriterTo(width, height, format)
	if err != nil {
		return fmt.Errorf("preparing %s chart: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("writing %s chart: %w", format, err)
	}
	return nil
}

// Save builds the chart for pop and writes it to path, choosing the format
// from the file extension.
func Save(path string, pop *data.Population, opts Options) (retErr error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	p, err := New(pop, opts)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("closing chart file: %w", cerr)
		}
	}()

	if err := Write(f, p, opts, format); err != nil {
		return err
	}

	slog.Debug("chart saved", "path", path, "population", pop.Name)
	return nil
}
