package domain

import "fmt"

// PhysicalState names a row class of the density table.
type PhysicalState string

// Physical states recognised by the reference tables.
const (
	StateSolid  PhysicalState = "solid"
	StateLiquid PhysicalState = "liquid"
	StateGas    PhysicalState = "gas"
)

// ParsePhysicalState validates s against the known states.
func ParsePhysicalState(s string) (PhysicalState, error) {
	switch st := PhysicalState(s); st {
	case StateSolid, StateLiquid, StateGas:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidState, s)
}

// PointName selects one of the tabulated reference points.
type PointName string

// Reference point tables.
const (
	PointBoiling  PointName = "boiling_point"
	PointMelting  PointName = "melting_point"
	PointTriple   PointName = "triple_point"
	PointCritical PointName = "critical_point"
)

// PointNames lists every reference point table.
var PointNames = []PointName{PointBoiling, PointMelting, PointTriple, PointCritical}

// ParsePointName validates s against the reference point tables.
func ParsePointName(s string) (PointName, error) {
	for _, p := range PointNames {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPointName, s)
}

// EnthalpyName selects one of the tabulated phase-change enthalpies.
type EnthalpyName string

// Enthalpies of phase change.
const (
	EnthalpyFusion       EnthalpyName = "fusion"
	EnthalpySublimation  EnthalpyName = "sublimation"
	EnthalpyVaporization EnthalpyName = "vaporization"
)

// Table returns the reference table holding the enthalpy.
func (e EnthalpyName) Table() string {
	switch e {
	case EnthalpyFusion:
		return "h_melt"
	case EnthalpySublimation:
		return "h_sub"
	case EnthalpyVaporization:
		return "h_vap_boil"
	}
	return ""
}

// ParseEnthalpyName validates s against the known enthalpies.
func ParseEnthalpyName(s string) (EnthalpyName, error) {
	switch e := EnthalpyName(s); e {
	case EnthalpyFusion, EnthalpySublimation, EnthalpyVaporization:
		return e, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidEnthalpyName, s)
}
