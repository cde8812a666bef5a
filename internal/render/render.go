// Package render draws phase diagrams with go-chart and exports sampled
// boundary curves as CSV or JSON.
package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"phasecore/pkg/domain"
	"phasecore/pkg/phase"
	"phasecore/pkg/units"
)

// Format is an image encoding supported by Diagram.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

var (
	// ErrUnsupportedFormat rejects an image or export format.
	ErrUnsupportedFormat = errors.New("render: unsupported format")
	// ErrNothingToPlot is returned when no curve has a drawable sample.
	ErrNothingToPlot = errors.New("render: nothing to plot")
)

// ParseFormat accepts "png" and "svg" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatPNG, FormatSVG:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Options controls chart output. Zero values pick PNG, 1024x768, kelvin,
// pascal and a logarithmic pressure axis.
type Options struct {
	Format          Format
	Width, Height   int
	Title           string
	TemperatureUnit units.Unit
	PressureUnit    units.Unit
	LinearPressure  bool
	// ClapeyronLV adds the Clausius–Clapeyron liquid–vapour line next to
	// the Antoine curve in PhaseDiagram.
	ClapeyronLV bool
}

func (o Options) withDefaults() Options {
	if o.Format == "" {
		o.Format = FormatPNG
	}
	if o.Width <= 0 {
		o.Width = 1024
	}
	if o.Height <= 0 {
		o.Height = 768
	}
	if o.TemperatureUnit.IsZero() {
		o.TemperatureUnit = units.Kelvin
	}
	if o.PressureUnit.IsZero() {
		o.PressureUnit = units.Pascal
	}
	return o
}

// Marker is a labelled point drawn as a dot.
type Marker struct {
	Label string
	Point domain.StatePoint
}

var curveColors = map[phase.CurveKind]drawing.Color{
	phase.CurveSolidLiquid:  chart.ColorBlue,
	phase.CurveSolidVapour:  chart.ColorGreen,
	phase.CurveAntoine:      chart.ColorRed,
	phase.CurveLiquidVapour: chart.ColorAlternateGray,
}

var markerColors = []drawing.Color{chart.ColorBlack, chart.ColorOrange, chart.ColorCyan}

func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    5,
		DotColor:    col,
	}
}

func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: 2,
		StrokeColor: col,
	}
}

// PhaseDiagram plots the solid–liquid, solid–vapour and Antoine curves of
// d together with its triple and critical points. The solid–liquid line is
// cut at the critical pressure.
func PhaseDiagram(w io.Writer, d *phase.Diagram, opts Options) error {
	sl, err := d.ClapeyronSL(units.Quantity{})
	if err != nil {
		return err
	}
	sl, err = TruncateAbove(sl, d.CriticalPoint().Pressure)
	if err != nil {
		return err
	}
	sv, err := d.ClapeyronSV(units.Quantity{})
	if err != nil {
		return err
	}
	curves := []phase.BoundaryCurve{sl, sv, d.AntoineLV()}
	if opts.ClapeyronLV {
		curves = append(curves, d.ClapeyronLV())
	}
	if opts.Title == "" {
		c := d.Constants().Compound
		opts.Title = fmt.Sprintf("Phase diagram of %s", domain.PlainFormula(c.Formula))
		if c.Name != "" {
			opts.Title = fmt.Sprintf("Phase diagram of %s (%s)", c.Name, domain.PlainFormula(c.Formula))
		}
	}
	markers := []Marker{
		{Label: "Triple point", Point: d.TriplePoint()},
		{Label: "Critical point", Point: d.CriticalPoint()},
	}
	return Diagram(w, curves, markers, opts)
}

// Diagram renders arbitrary curves and markers.
func Diagram(w io.Writer, curves []phase.BoundaryCurve, markers []Marker, opts Options) error {
	opts = opts.withDefaults()
	var provider chart.RendererProvider
	switch opts.Format {
	case FormatPNG:
		provider = chart.PNG
	case FormatSVG:
		provider = chart.SVG
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, opts.Format)
	}

	var series []chart.Series
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range curves {
		xs, ys, err := axisValues(c.Temperature, c.Pressure, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", c.Kind, err)
		}
		if len(xs) < 2 {
			continue
		}
		for _, y := range ys {
			lo, hi = math.Min(lo, y), math.Max(hi, y)
		}
		col, ok := curveColors[c.Kind]
		if !ok {
			col = chart.ColorLightGray
		}
		series = append(series, chart.ContinuousSeries{Name: c.Kind.Label(), XValues: xs, YValues: ys, Style: lineStyle(col)})
	}
	if len(series) == 0 {
		return ErrNothingToPlot
	}
	for i, m := range markers {
		xs, ys, err := axisValues(
			units.NewSeries([]float64{m.Point.Temperature.Value()}, m.Point.Temperature.Unit()),
			units.NewSeries([]float64{m.Point.Pressure.Value()}, m.Point.Pressure.Unit()),
			opts)
		if err != nil {
			return fmt.Errorf("marker %q: %w", m.Label, err)
		}
		if len(xs) == 0 {
			continue
		}
		lo, hi = math.Min(lo, ys[0]), math.Max(hi, ys[0])
		series = append(series, chart.ContinuousSeries{
			Name:    m.Label,
			XValues: xs,
			YValues: ys,
			Style:   pointStyle(markerColors[i%len(markerColors)]),
		})
	}

	yAxis := chart.YAxis{Name: fmt.Sprintf("Pressure (%s)", opts.PressureUnit.Symbol())}
	if !opts.LinearPressure {
		yAxis.Range, yAxis.Ticks = decadeTicks(lo, hi)
		yAxis.Name = fmt.Sprintf("Pressure (%s, log scale)", opts.PressureUnit.Symbol())
	}
	ch := chart.Chart{
		Title:      opts.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: fmt.Sprintf("Temperature (%s)", opts.TemperatureUnit.Symbol())},
		YAxis:      yAxis,
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	if err := ch.Render(provider, w); err != nil {
		return fmt.Errorf("render %s: %w", opts.Format, err)
	}
	return nil
}

// axisValues converts a series pair to the axis units, taking log10 of the
// pressure unless the axis is linear. Samples that cannot be drawn on a log
// axis (zero or negative pressure) and non-finite samples are dropped.
func axisValues(temperature, pressure units.Series, opts Options) ([]float64, []float64, error) {
	t, err := temperature.To(opts.TemperatureUnit)
	if err != nil {
		return nil, nil, err
	}
	p, err := pressure.To(opts.PressureUnit)
	if err != nil {
		return nil, nil, err
	}
	ts, ps := t.Values(), p.Values()
	xs := make([]float64, 0, len(ts))
	ys := make([]float64, 0, len(ps))
	for i := range ts {
		y := ps[i]
		if !opts.LinearPressure {
			if y <= 0 {
				continue
			}
			y = math.Log10(y)
		}
		if math.IsNaN(ts[i]) || math.IsInf(ts[i], 0) || math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		xs = append(xs, ts[i])
		ys = append(ys, y)
	}
	return xs, ys, nil
}

// decadeTicks spans whole decades around [lo, hi] (already log10) and
// labels at most about a dozen of them.
func decadeTicks(lo, hi float64) (*chart.ContinuousRange, []chart.Tick) {
	first, last := math.Floor(lo), math.Ceil(hi)
	if last == first {
		last = first + 1
	}
	step := math.Max(1, math.Ceil((last-first)/12))
	var ticks []chart.Tick
	for v := first; v <= last; v += step {
		ticks = append(ticks, chart.Tick{Value: v, Label: fmt.Sprintf("1e%+d", int(v))})
	}
	return &chart.ContinuousRange{Min: first, Max: last}, ticks
}

// TruncateAbove keeps the leading samples of c whose pressure does not
// exceed limit.
func TruncateAbove(c phase.BoundaryCurve, limit units.Quantity) (phase.BoundaryCurve, error) {
	ceiling, err := limit.In(c.Pressure.Unit())
	if err != nil {
		return phase.BoundaryCurve{}, err
	}
	ps := c.Pressure.Values()
	n := 0
	for n < len(ps) && ps[n] <= ceiling {
		n++
	}
	return phase.BoundaryCurve{
		Kind:        c.Kind,
		Temperature: units.NewSeries(c.Temperature.Values()[:n], c.Temperature.Unit()),
		Pressure:    units.NewSeries(ps[:n], c.Pressure.Unit()),
	}, nil
}
