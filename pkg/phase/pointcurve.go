package phase

import (
	"fmt"
	"math"

	"phasecore/pkg/domain"
	"phasecore/pkg/units"
)

// PointOnFunction reports whether |P − f(T)| ≤ tolerance. The comparison
// is absolute and happens in pascal.
func PointOnFunction(point domain.StatePoint, f PressureFunc, tolerance units.Quantity) (bool, error) {
	want, err := f(point.Temperature)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidPoint, err)
	}
	p, err := point.Pressure.In(units.Pascal)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidPoint, err)
	}
	pw, err := want.In(units.Pascal)
	if err != nil {
		return false, err
	}
	tol, err := tolerance.In(units.Pascal)
	if err != nil {
		return false, fmt.Errorf("%w: tolerance: %w", ErrInvalidOptions, err)
	}
	return math.Abs(p-pw) <= tol, nil
}

// PointInCurve reports whether point equals one of the curve's samples
// exactly, after conversion to the curve's units.
func PointInCurve(point domain.StatePoint, curve BoundaryCurve) bool {
	t, err := point.Temperature.In(curve.Temperature.Unit())
	if err != nil {
		return false
	}
	p, err := point.Pressure.In(curve.Pressure.Unit())
	if err != nil {
		return false
	}
	for i := 0; i < curve.Len(); i++ {
		if curve.Temperature.At(i).Value() == t && curve.Pressure.At(i).Value() == p {
			return true
		}
	}
	return false
}

func onFunction(t, p float64, f func(float64) float64, tol float64) bool {
	return math.Abs(p-f(t)) <= tol
}
