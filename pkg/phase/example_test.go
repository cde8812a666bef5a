package phase_test

import (
	"fmt"

	"phasecore/pkg/domain"
	"phasecore/pkg/phase"
	"phasecore/pkg/units"
)

func exampleWater() domain.PhaseConstants {
	return domain.PhaseConstants{
		Antoine: domain.AntoineCoefficients{
			TMin: units.New(0.01, units.Celsius), TMax: units.New(373.98, units.Celsius),
			A: 8.05573, B: 1723.6425, C: 233.08, PressureUnit: units.MillimetreMercury,
		},
		TriplePoint:          domain.NewStatePoint(273.16, 611.657),
		CriticalPoint:        domain.NewStatePoint(647.1, 2.206e7),
		EnthalpyFusion:       units.New(6.009, units.KilojoulePerMole),
		EnthalpySublimation:  units.New(44.0, units.KilojoulePerMole),
		EnthalpyVaporization: units.New(40.66, units.KilojoulePerMole),
		VolumeChangeFusion:   units.New(-1.634, units.CubicCentimetrePerMole),
	}
}

func ExampleDiagram_Classify() {
	d, err := phase.NewDiagram(exampleWater(), nil)
	if err != nil {
		panic(err)
	}
	for _, p := range []domain.StatePoint{
		domain.NewStatePoint(700, 1e8),
		domain.NewStatePoint(700, 1e5),
		domain.NewStatePoint(250, 1e3),
		domain.NewStatePoint(400, 1e7),
	} {
		label, _ := d.Classify(p)
		fmt.Println(label)
	}
	// Output:
	// supercritical fluid
	// gas
	// solid
	// liquid
}

func ExampleDiagram_AntoineSI() {
	d, _ := phase.NewDiagram(exampleWater(), nil)
	a := d.AntoineSI()
	fmt.Printf("Tmin=%.2f Tmax=%.2f A=%.4f B=%.4f C=%.2f\n", a.TMin, a.TMax, a.A, a.B, a.C)
	// Output: Tmin=273.16 K Tmax=647.13 K A=10.1806 B=1723.6425 C=-40.07
}

func ExampleDiagram_ClapeyronSL() {
	d, _ := phase.NewDiagram(exampleWater(), nil)
	sl, _ := d.ClapeyronSL(units.New(5, units.Kelvin))
	first, last := sl.At(0), sl.At(sl.Len()-1)
	fmt.Printf("%d samples from %.2f to %.2f\n", sl.Len(), first.Temperature, last.Temperature)
	// Output: 100 samples from 273.16 K to 268.16 K
}
