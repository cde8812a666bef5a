package phase

import (
	"fmt"

	"phasecore/pkg/domain"
	"phasecore/pkg/units"
)

// CurveKind names one of the curves a Diagram produces.
type CurveKind string

// Curves produced by the engine.
const (
	CurveSolidLiquid  CurveKind = "clapeyron-sl"
	CurveSolidVapour  CurveKind = "clapeyron-sv"
	CurveLiquidVapour CurveKind = "clapeyron-lv"
	CurveAntoine      CurveKind = "antoine-lv"
)

// CurveKinds lists every curve in presentation order.
var CurveKinds = []CurveKind{CurveSolidLiquid, CurveSolidVapour, CurveAntoine, CurveLiquidVapour}

// ParseCurveKind accepts the kind strings plus the short forms sl, sv, lv and antoine.
func ParseCurveKind(s string) (CurveKind, error) {
	switch s {
	case string(CurveSolidLiquid), "sl":
		return CurveSolidLiquid, nil
	case string(CurveSolidVapour), "sv":
		return CurveSolidVapour, nil
	case string(CurveLiquidVapour), "lv":
		return CurveLiquidVapour, nil
	case string(CurveAntoine), "antoine":
		return CurveAntoine, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCurve, s)
}

// Label is the legend text for the curve.
func (k CurveKind) Label() string {
	switch k {
	case CurveSolidLiquid:
		return "Clapeyron S-L"
	case CurveSolidVapour:
		return "Clapeyron S-V"
	case CurveLiquidVapour:
		return "Clapeyron L-V"
	case CurveAntoine:
		return "Antoine L-V"
	}
	return string(k)
}

// BoundaryCurve is an ordered sequence of (temperature, pressure) samples.
type BoundaryCurve struct {
	Kind        CurveKind    `json:"kind"`
	Temperature units.Series `json:"temperature"`
	Pressure    units.Series `json:"pressure"`
}

// Len returns the number of samples.
func (c BoundaryCurve) Len() int { return c.Temperature.Len() }

// At returns sample i.
func (c BoundaryCurve) At(i int) domain.StatePoint {
	return domain.StatePoint{Temperature: c.Temperature.At(i), Pressure: c.Pressure.At(i)}
}

// Points returns every sample as a StatePoint.
func (c BoundaryCurve) Points() []domain.StatePoint {
	out := make([]domain.StatePoint, c.Len())
	for i := range out {
		out[i] = c.At(i)
	}
	return out
}

// To re-expresses the curve in the given axis units.
func (c BoundaryCurve) To(temperature, pressure units.Unit) (BoundaryCurve, error) {
	t, err := c.Temperature.To(temperature)
	if err != nil {
		return BoundaryCurve{}, err
	}
	p, err := c.Pressure.To(pressure)
	if err != nil {
		return BoundaryCurve{}, err
	}
	return BoundaryCurve{Kind: c.Kind, Temperature: t, Pressure: p}, nil
}

// Linspace returns n evenly spaced values from start to stop inclusive. The
// last value is stop exactly.
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}

func sample(kind CurveKind, temps []float64, f func(float64) float64) BoundaryCurve {
	ps := make([]float64, len(temps))
	for i, t := range temps {
		ps[i] = f(t)
	}
	return BoundaryCurve{
		Kind:        kind,
		Temperature: units.NewSeries(temps, units.Kelvin),
		Pressure:    units.NewSeries(ps, units.Pascal),
	}
}
