package phase_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"phasecore/pkg/domain"
	"phasecore/pkg/phase"
	"phasecore/pkg/units"
)

type substance struct {
	name                string
	formula             string
	molarMass           float64 // g/mol
	rhoSolid, rhoLiquid float64 // g/cm³
	antoine             [5]float64
	triple, critical    [2]float64
	hFus, hSub, hVap    float64 // kJ/mol
}

var (
	water = substance{
		name:      "water",
		formula:   "H2O",
		molarMass: 18.0153,
		rhoSolid:  0.9167,
		rhoLiquid: 0.9970474,
		antoine:   [5]float64{0.01, 373.98, 8.05573, 1723.6425, 233.08},
		triple:    [2]float64{273.16, 611.657},
		critical:  [2]float64{647.1, 2.206e7},
		hFus:      6.009,
		hSub:      44.0,
		hVap:      40.66,
	}
	carbonDioxide = substance{
		name:      "carbon dioxide",
		formula:   "CO2",
		molarMass: 44.0095,
		rhoSolid:  1.562,
		rhoLiquid: 1.179,
		antoine:   [5]float64{-56.57, 31.03, 7.58828, 861.82, 271.883},
		triple:    [2]float64{216.58, 518500},
		critical:  [2]float64{304.18, 7.38e6},
		hFus:      9.02,
		hSub:      25.2,
		hVap:      15.326,
	}
	iodine = substance{
		name:      "iodine",
		formula:   "I2",
		molarMass: 253.809,
		rhoSolid:  4.933,
		rhoLiquid: 3.96,
		antoine:   [5]float64{113.5, 300.0, 7.26304, 1697.87, 204.0},
		triple:    [2]float64{386.65, 12070},
		critical:  [2]float64{819, 1.17e7},
		hFus:      15.52,
		hSub:      62.42,
		hVap:      41.57,
	}
)

func (s substance) constants(t *testing.T) domain.PhaseConstants {
	t.Helper()
	molar := units.New(s.molarMass, units.GramPerMole)
	rhoS := units.New(s.rhoSolid, units.GramPerCubicCentimetre)
	rhoL := units.New(s.rhoLiquid, units.GramPerCubicCentimetre)
	dv, err := phase.VolumeChangeFusion(rhoL, rhoS, molar)
	require.NoError(t, err)
	return domain.PhaseConstants{
		Compound:      domain.CompoundRecord{Name: s.name, Formula: s.formula, MolarMass: molar},
		DensitySolid:  rhoS,
		DensityLiquid: rhoL,
		Antoine: domain.AntoineCoefficients{
			TMin:         units.New(s.antoine[0], units.Celsius),
			TMax:         units.New(s.antoine[1], units.Celsius),
			A:            s.antoine[2],
			B:            s.antoine[3],
			C:            s.antoine[4],
			PressureUnit: units.MillimetreMercury,
		},
		TriplePoint:          domain.NewStatePoint(s.triple[0], s.triple[1]),
		CriticalPoint:        domain.NewStatePoint(s.critical[0], s.critical[1]),
		EnthalpyFusion:       units.New(s.hFus, units.KilojoulePerMole),
		EnthalpySublimation:  units.New(s.hSub, units.KilojoulePerMole),
		EnthalpyVaporization: units.New(s.hVap, units.KilojoulePerMole),
		VolumeChangeFusion:   dv,
	}
}

func (s substance) diagram(t *testing.T) *phase.Diagram {
	t.Helper()
	d, err := phase.NewDiagram(s.constants(t), nil)
	require.NoError(t, err)
	return d
}
