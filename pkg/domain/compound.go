// Package domain defines the reference records, value types and store
// contract shared by the phase engine and its infrastructure adapters.
package domain

import (
	"fmt"

	"phasecore/pkg/units"
)

// MaxAlternativeNames bounds the alternative names carried by a compound.
const MaxAlternativeNames = 3

// CompoundRecord identifies one pure substance in the reference store.
type CompoundRecord struct {
	ID               int            `json:"id"`
	CAS              string         `json:"cas"`
	Formula          string         `json:"formula"`
	MolarMass        units.Quantity `json:"molar_mass"`
	Name             string         `json:"name"`
	AlternativeNames []string       `json:"alternative_names,omitempty"`
}

func (c CompoundRecord) String() string {
	return fmt.Sprintf("%s (CAS %s, formula %s)", c.Name, c.CAS, c.Formula)
}

// StatePoint is a (temperature, pressure) pair. It is used both for the
// tabulated reference points and for caller-supplied points to classify.
type StatePoint struct {
	Temperature units.Quantity `json:"temperature"`
	Pressure    units.Quantity `json:"pressure"`
}

// NewStatePoint builds a point in kelvin and pascal.
func NewStatePoint(kelvin, pascal float64) StatePoint {
	return StatePoint{
		Temperature: units.New(kelvin, units.Kelvin),
		Pressure:    units.New(pascal, units.Pascal),
	}
}

// SI returns the point's temperature in kelvin and pressure in pascal.
func (p StatePoint) SI() (float64, float64, error) {
	t, err := p.Temperature.In(units.Kelvin)
	if err != nil {
		return 0, 0, fmt.Errorf("temperature: %w", err)
	}
	pr, err := p.Pressure.In(units.Pascal)
	if err != nil {
		return 0, 0, fmt.Errorf("pressure: %w", err)
	}
	return t, pr, nil
}

// AntoineCoefficients holds one tabulated Antoine row. TMin and TMax carry
// the table's temperature unit (degrees Celsius by convention) and
// PressureUnit the unit the correlation yields (mmHg by convention).
type AntoineCoefficients struct {
	TMin         units.Quantity `json:"t_min"`
	TMax         units.Quantity `json:"t_max"`
	A            float64        `json:"a"`
	B            float64        `json:"b"`
	C            float64        `json:"c"`
	PressureUnit units.Unit     `json:"-"`
}

// DensityMeasurement is one row of a compound's density table.
type DensityMeasurement struct {
	State PhysicalState  `json:"state"`
	Value units.Quantity `json:"value"`
}

// PhaseConstants bundles every reference value the boundary equations and
// the state classifier consume for one compound.
type PhaseConstants struct {
	Compound             CompoundRecord       `json:"compound"`
	DensitySolid         units.Quantity       `json:"density_solid"`
	DensityLiquid        units.Quantity       `json:"density_liquid"`
	Antoine              AntoineCoefficients  `json:"antoine"`
	BoilingPoint         StatePoint           `json:"boiling_point"`
	MeltingPoint         StatePoint           `json:"melting_point"`
	TriplePoint          StatePoint           `json:"triple_point"`
	CriticalPoint        StatePoint           `json:"critical_point"`
	EnthalpyFusion       units.Quantity       `json:"enthalpy_fusion"`
	EnthalpySublimation  units.Quantity       `json:"enthalpy_sublimation"`
	EnthalpyVaporization units.Quantity       `json:"enthalpy_vaporization"`
	VolumeChangeFusion   units.Quantity       `json:"volume_change_fusion"`
	Densities            []DensityMeasurement `json:"densities,omitempty"`
}

// Validate checks the invariants the phase engine relies on: every quantity
// the equations use is present and T_triple < T_critical.
func (pc PhaseConstants) Validate() error {
	required := []struct {
		name string
		q    units.Quantity
	}{
		{"triple point temperature", pc.TriplePoint.Temperature},
		{"triple point pressure", pc.TriplePoint.Pressure},
		{"critical point temperature", pc.CriticalPoint.Temperature},
		{"critical point pressure", pc.CriticalPoint.Pressure},
		{"enthalpy of fusion", pc.EnthalpyFusion},
		{"enthalpy of sublimation", pc.EnthalpySublimation},
		{"enthalpy of vaporization", pc.EnthalpyVaporization},
		{"volume change of fusion", pc.VolumeChangeFusion},
	}
	for _, r := range required {
		if r.q.IsZero() {
			return fmt.Errorf("%w: %s", ErrIncompleteConstants, r.name)
		}
	}
	if pc.Antoine.PressureUnit.IsZero() || pc.Antoine.TMin.IsZero() || pc.Antoine.TMax.IsZero() {
		return fmt.Errorf("%w: antoine coefficients", ErrIncompleteConstants)
	}
	less, err := units.Less(pc.TriplePoint.Temperature, pc.CriticalPoint.Temperature)
	if err != nil {
		return fmt.Errorf("compare triple and critical temperature: %w", err)
	}
	if !less {
		return fmt.Errorf("%w: triple point %v is not below critical point %v",
			ErrIncompleteConstants, pc.TriplePoint.Temperature, pc.CriticalPoint.Temperature)
	}
	return nil
}
