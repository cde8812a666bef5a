package phase

import (
	"fmt"

	"phasecore/pkg/units"
)

// VolumeChangeFusion computes ΔV_fus = (1/ρ_liquid − 1/ρ_solid)·M and
// returns it in cm³/mol.
func VolumeChangeFusion(liquidDensity, solidDensity, molarMass units.Quantity) (units.Quantity, error) {
	vl, err := units.Pow(liquidDensity, -1)
	if err != nil {
		return units.Quantity{}, fmt.Errorf("liquid density: %w", err)
	}
	vs, err := units.Pow(solidDensity, -1)
	if err != nil {
		return units.Quantity{}, fmt.Errorf("solid density: %w", err)
	}
	dv, err := units.Sub(vl, vs)
	if err != nil {
		return units.Quantity{}, fmt.Errorf("specific volume change: %w", err)
	}
	molar, err := units.Mul(dv, molarMass)
	if err != nil {
		return units.Quantity{}, fmt.Errorf("molar volume change: %w", err)
	}
	return molar.To(units.CubicCentimetrePerMole)
}
