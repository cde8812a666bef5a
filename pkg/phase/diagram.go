package phase

import (
	"fmt"
	"math"

	"phasecore/pkg/domain"
	"phasecore/pkg/units"
)

// Diagram evaluates the boundary equations for one compound. It is
// immutable after NewDiagram and safe for concurrent use.
type Diagram struct {
	constants domain.PhaseConstants
	cfg       settings

	tt, pt float64 // triple point, K and Pa
	tc, pc float64 // critical point, K and Pa

	dv       float64 // ΔV_fus, m³/mol
	slSlope  float64 // ΔH_fus/ΔV_fus, Pa
	subOverR float64 // ΔH_sub/R, K
	vapOverR float64 // ΔH_vap/R, K
	antoine  AntoineSI
}

// NewDiagram validates pc and converts it to SI once. A nil opts uses
// DefaultOptions.
func NewDiagram(pc domain.PhaseConstants, opts *Options) (*Diagram, error) {
	cfg, err := opts.resolve()
	if err != nil {
		return nil, err
	}
	if err := pc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConstants, err)
	}
	d := &Diagram{constants: pc, cfg: cfg}

	if d.tt, d.pt, err = pc.TriplePoint.SI(); err != nil {
		return nil, fmt.Errorf("%w: triple point: %w", ErrInvalidConstants, err)
	}
	if d.tc, d.pc, err = pc.CriticalPoint.SI(); err != nil {
		return nil, fmt.Errorf("%w: critical point: %w", ErrInvalidConstants, err)
	}
	if d.dv, err = pc.VolumeChangeFusion.In(units.CubicMetrePerMole); err != nil {
		return nil, fmt.Errorf("%w: volume change of fusion: %w", ErrInvalidConstants, err)
	}
	if d.slSlope, err = ratio(pc.EnthalpyFusion, pc.VolumeChangeFusion, units.Pascal); err != nil {
		return nil, fmt.Errorf("%w: ΔH_fus/ΔV_fus: %w", ErrInvalidConstants, err)
	}
	if d.subOverR, err = ratio(pc.EnthalpySublimation, GasConstant, units.Kelvin); err != nil {
		return nil, fmt.Errorf("%w: ΔH_sub/R: %w", ErrInvalidConstants, err)
	}
	if d.vapOverR, err = ratio(pc.EnthalpyVaporization, GasConstant, units.Kelvin); err != nil {
		return nil, fmt.Errorf("%w: ΔH_vap/R: %w", ErrInvalidConstants, err)
	}
	if d.antoine, err = ConvertAntoine(pc.Antoine); err != nil {
		return nil, err
	}
	return d, nil
}

// ratio divides a by b with unit checking and returns the magnitude in want.
func ratio(a, b units.Quantity, want units.Unit) (float64, error) {
	q, err := units.Div(a, b)
	if err != nil {
		return 0, err
	}
	return q.In(want)
}

// Constants returns the constants the diagram was built from.
func (d *Diagram) Constants() domain.PhaseConstants { return d.constants }

// TriplePoint returns the triple point in kelvin and pascal.
func (d *Diagram) TriplePoint() domain.StatePoint { return domain.NewStatePoint(d.tt, d.pt) }

// CriticalPoint returns the critical point in kelvin and pascal.
func (d *Diagram) CriticalPoint() domain.StatePoint { return domain.NewStatePoint(d.tc, d.pc) }

// AntoineSI returns the Antoine coefficients converted to kelvin and pascal.
func (d *Diagram) AntoineSI() AntoineSI { return d.antoine }

// Tolerance returns the configured point-on-curve tolerance.
func (d *Diagram) Tolerance() units.Quantity { return units.New(d.cfg.tolerance, units.Pascal) }

func (d *Diagram) solidLiquid(t float64) float64 {
	return d.pt + d.slSlope*math.Log(t/d.tt)
}

func (d *Diagram) solidVapour(t float64) float64 {
	return d.pt * math.Exp(d.subOverR*(1/d.tt-1/t))
}

func (d *Diagram) liquidVapour(t float64) float64 {
	return d.pt * math.Exp(d.vapOverR*(1/d.tt-1/t))
}

func (d *Diagram) fn(kind CurveKind) (func(float64) float64, error) {
	switch kind {
	case CurveSolidLiquid:
		return d.solidLiquid, nil
	case CurveSolidVapour:
		return d.solidVapour, nil
	case CurveLiquidVapour:
		return d.liquidVapour, nil
	case CurveAntoine:
		return d.antoine.Pressure, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCurve, kind)
}

// PressureFunc maps a temperature to the pressure of a boundary curve.
type PressureFunc func(temperature units.Quantity) (units.Quantity, error)

// Func returns the pressure function of the given curve.
func (d *Diagram) Func(kind CurveKind) (PressureFunc, error) {
	f, err := d.fn(kind)
	if err != nil {
		return nil, err
	}
	return func(temperature units.Quantity) (units.Quantity, error) {
		t, err := temperature.In(units.Kelvin)
		if err != nil {
			return units.Quantity{}, err
		}
		return units.New(f(t), units.Pascal), nil
	}, nil
}

// PressureAt evaluates one curve at the given temperature.
func (d *Diagram) PressureAt(kind CurveKind, temperature units.Quantity) (units.Quantity, error) {
	f, err := d.Func(kind)
	if err != nil {
		return units.Quantity{}, err
	}
	return f(temperature)
}

// ClapeyronSL samples the solid–liquid line starting at the triple point.
// A zero span uses Options.SolidLiquidRange.
func (d *Diagram) ClapeyronSL(span units.Quantity) (BoundaryCurve, error) {
	r := d.cfg.slRange
	if !span.IsZero() {
		var err error
		if r, err = rangeIn(span, units.Quantity{}); err != nil {
			return BoundaryCurve{}, fmt.Errorf("solid-liquid range: %w", err)
		}
		if r < 0 {
			return BoundaryCurve{}, fmt.Errorf("%w: negative solid-liquid range", ErrInvalidOptions)
		}
	}
	var end float64
	switch {
	case d.dv > 0:
		end = d.tt + r
	case d.dv < 0:
		end = math.Max(d.tt-r, MinSolidLiquidTemperature)
	default:
		return BoundaryCurve{}, fmt.Errorf("%w: zero volume change of fusion", ErrInvalidConstants)
	}
	return sample(CurveSolidLiquid, Linspace(d.tt, end, d.cfg.samples), d.solidLiquid), nil
}

// ClapeyronSV samples the solid–vapour line up to the triple point. A zero
// span uses Options.SolidVapourRange; a span reaching below 0 K is shrunk so
// the curve starts at exactly 0 K.
func (d *Diagram) ClapeyronSV(span units.Quantity) (BoundaryCurve, error) {
	r := d.cfg.svRange
	if !span.IsZero() {
		var err error
		if r, err = rangeIn(span, units.Quantity{}); err != nil {
			return BoundaryCurve{}, fmt.Errorf("solid-vapour range: %w", err)
		}
		if r < 0 {
			return BoundaryCurve{}, fmt.Errorf("%w: negative solid-vapour range", ErrInvalidOptions)
		}
	}
	start := math.Max(d.tt-r, 0)
	return sample(CurveSolidVapour, Linspace(start, d.tt, d.cfg.samples), d.solidVapour), nil
}

// ClapeyronLV samples the Clausius–Clapeyron liquid–vapour line from the
// triple to the critical temperature.
func (d *Diagram) ClapeyronLV() BoundaryCurve {
	return sample(CurveLiquidVapour, Linspace(d.tt, d.tc, d.cfg.samples), d.liquidVapour)
}

// AntoineLV samples the Antoine correlation from the triple to the critical
// temperature, extrapolating beyond the tabulated range where needed.
func (d *Diagram) AntoineLV() BoundaryCurve {
	return sample(CurveAntoine, Linspace(d.tt, d.tc, d.cfg.samples), d.antoine.Pressure)
}

// Curve returns the curve of the given kind with default spans.
func (d *Diagram) Curve(kind CurveKind) (BoundaryCurve, error) {
	switch kind {
	case CurveSolidLiquid:
		return d.ClapeyronSL(units.Quantity{})
	case CurveSolidVapour:
		return d.ClapeyronSV(units.Quantity{})
	case CurveLiquidVapour:
		return d.ClapeyronLV(), nil
	case CurveAntoine:
		return d.AntoineLV(), nil
	}
	return BoundaryCurve{}, fmt.Errorf("%w: %q", ErrUnknownCurve, kind)
}

// Curves returns all four curves in CurveKinds order.
func (d *Diagram) Curves() ([]BoundaryCurve, error) {
	out := make([]BoundaryCurve, 0, len(CurveKinds))
	for _, k := range CurveKinds {
		c, err := d.Curve(k)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
