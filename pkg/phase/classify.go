package phase

import (
	"fmt"
	"math"

	"phasecore/pkg/domain"
)

// StateLabel is the result of classifying a point.
type StateLabel string

// Labels returned by Classify. StateUnknown is the degenerate fallback.
const (
	StateSolid             StateLabel = "solid"
	StateLiquid            StateLabel = "liquid"
	StateVapour            StateLabel = "vapour"
	StateGas               StateLabel = "gas"
	StateSupercritical     StateLabel = "supercritical fluid"
	StateSolidLiquidCurve  StateLabel = "solid-liquid curve"
	StateSolidVapourCurve  StateLabel = "solid-vapour curve"
	StateLiquidVapourCurve StateLabel = "liquid-vapour curve"
	StateUnknown           StateLabel = ""
)

// OnCurve reports whether the label names a boundary rather than a region.
func (l StateLabel) OnCurve() bool {
	switch l {
	case StateSolidLiquidCurve, StateSolidVapourCurve, StateLiquidVapourCurve:
		return true
	}
	return false
}

// Classify maps a point to a state label. The rules and their order are
// documented on the package.
func (d *Diagram) Classify(point domain.StatePoint) (StateLabel, error) {
	t, p, err := point.SI()
	if err != nil {
		return StateUnknown, fmt.Errorf("%w: %w", ErrInvalidPoint, err)
	}
	if !finite(t) || !finite(p) {
		return StateUnknown, fmt.Errorf("%w: non-finite magnitude (%v, %v)", ErrInvalidPoint, t, p)
	}
	if t <= 0 {
		return StateUnknown, fmt.Errorf("%w: temperature %v K is not above absolute zero", ErrInvalidPoint, t)
	}
	return d.classify(t, p), nil
}

func (d *Diagram) classify(t, p float64) StateLabel {
	tol := d.cfg.tolerance

	switch {
	case t == d.tt:
		if p < d.pt {
			return StateVapour
		}
		if d.dv < 0 {
			return StateLiquid
		}
		return StateSolid

	case t == d.tc:
		if p < d.pc {
			return StateVapour
		}
		return StateLiquid

	case onFunction(t, p, d.antoine.Pressure, tol):
		return StateLiquidVapourCurve
	case onFunction(t, p, d.solidLiquid, tol):
		return StateSolidLiquidCurve
	case onFunction(t, p, d.solidVapour, tol):
		return StateSolidVapourCurve

	case t > d.tc:
		if p > d.pc {
			return StateSupercritical
		}
		return StateGas
	case t > d.tt && p < d.antoine.Pressure(t):
		return StateVapour
	case t < d.tt && p < d.solidVapour(t):
		return StateVapour
	}

	// Dense phase. The same rule holds for either sign of ΔV_fus.
	if d.dv == 0 {
		return StateUnknown
	}
	if t < d.tt && p > d.solidVapour(t) {
		return StateSolid
	}
	return StateLiquid
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
