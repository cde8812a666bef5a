package phase

import (
	"fmt"
	"math"

	"phasecore/pkg/domain"
	"phasecore/pkg/units"
)

// AntoineSI holds Antoine coefficients for T in kelvin and P in pascal.
type AntoineSI struct {
	TMin units.Quantity `json:"t_min"`
	TMax units.Quantity `json:"t_max"`
	A    float64        `json:"a"`
	B    float64        `json:"b"`
	C    float64        `json:"c"`
}

// ConvertAntoine rewrites tabulated coefficients for kelvin and pascal.
//
// For the usual °C/mmHg table this is A + log10(101325/760), B, C − 273.15
// and [Tmin, Tmax] + 273.15. Any registered temperature and pressure unit
// is accepted: with T_table = (T − offset)/scale the correlation becomes
// A + log10(p_scale) − B·scale/(C·scale + T − offset).
func ConvertAntoine(ac domain.AntoineCoefficients) (AntoineSI, error) {
	if ac.PressureUnit.IsZero() || ac.TMin.IsZero() || ac.TMax.IsZero() {
		return AntoineSI{}, fmt.Errorf("%w: antoine coefficients without units", ErrInvalidConstants)
	}
	pScale, err := units.New(1, ac.PressureUnit).In(units.Pascal)
	if err != nil {
		return AntoineSI{}, fmt.Errorf("%w: antoine pressure unit: %w", ErrInvalidConstants, err)
	}
	tu := ac.TMin.Unit()
	offset, err := units.New(0, tu).In(units.Kelvin)
	if err != nil {
		return AntoineSI{}, fmt.Errorf("%w: antoine temperature unit: %w", ErrInvalidConstants, err)
	}
	one, err := units.New(1, tu).In(units.Kelvin)
	if err != nil {
		return AntoineSI{}, fmt.Errorf("%w: antoine temperature unit: %w", ErrInvalidConstants, err)
	}
	tScale := one - offset

	tmin, err := ac.TMin.To(units.Kelvin)
	if err != nil {
		return AntoineSI{}, fmt.Errorf("%w: antoine Tmin: %w", ErrInvalidConstants, err)
	}
	tmax, err := ac.TMax.To(units.Kelvin)
	if err != nil {
		return AntoineSI{}, fmt.Errorf("%w: antoine Tmax: %w", ErrInvalidConstants, err)
	}
	return AntoineSI{
		TMin: tmin,
		TMax: tmax,
		A:    ac.A + math.Log10(pScale),
		B:    ac.B * tScale,
		C:    ac.C*tScale - offset,
	}, nil
}

// Pressure evaluates the correlation at t kelvin and returns pascal.
func (a AntoineSI) Pressure(t float64) float64 {
	return math.Pow(10, a.A-a.B/(a.C+t))
}

// InRange reports whether t kelvin lies inside the tabulated validity range.
func (a AntoineSI) InRange(t float64) bool {
	return t >= a.TMin.Value() && t <= a.TMax.Value()
}
