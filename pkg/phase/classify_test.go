package phase_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phasecore/pkg/domain"
	"phasecore/pkg/phase"
	"phasecore/pkg/units"
)

func TestClassifyScenarios(t *testing.T) {
	cases := []struct {
		s    substance
		t, p float64
		want phase.StateLabel
	}{
		{water, 700, 1e8, phase.StateSupercritical},
		{water, 700, 1e5, phase.StateGas},
		{water, 500, 1e5, phase.StateVapour},
		{water, 250, 1e1, phase.StateVapour},
		{water, 250, 1e3, phase.StateSolid},
		{water, 400, 1e7, phase.StateLiquid},
		{water, 273.16, 1e2, phase.StateVapour},
		{water, 273.16, 1e9, phase.StateLiquid},
		{water, 647.1, 1e2, phase.StateVapour},
		{water, 647.1, 1e9, phase.StateLiquid},

		{carbonDioxide, 350, 1e10, phase.StateSupercritical},
		{carbonDioxide, 350, 1e6, phase.StateGas},
		{carbonDioxide, 260, 1e6, phase.StateVapour},
		{carbonDioxide, 200, 1e4, phase.StateVapour},
		{carbonDioxide, 180, 1e6, phase.StateSolid},
		{carbonDioxide, 240, 1e7, phase.StateLiquid},
		{carbonDioxide, 216.58, 1e2, phase.StateVapour},
		{carbonDioxide, 216.58, 1e7, phase.StateSolid},

		{iodine, 900, 2e7, phase.StateSupercritical},
		{iodine, 900, 1e5, phase.StateGas},
		{iodine, 500, 1e4, phase.StateVapour},
		{iodine, 350, 1, phase.StateVapour},
		{iodine, 350, 1e4, phase.StateSolid},
		{iodine, 600, 1e7, phase.StateLiquid},
	}
	for _, tc := range cases {
		d := tc.s.diagram(t)
		got, err := d.Classify(domain.NewStatePoint(tc.t, tc.p))
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s at (%v K, %v Pa)", tc.s.name, tc.t, tc.p)
	}
}

func TestClassifyOnCurvePoints(t *testing.T) {
	d := water.diagram(t)
	cases := []struct {
		point domain.StatePoint
		want  phase.StateLabel
	}{
		{domain.NewStatePoint(643.32282828, 21056478.669068832), phase.StateLiquidVapourCurve},
		{domain.NewStatePoint(268.16, 70096120.44156641), phase.StateSolidLiquidCurve},
		{domain.NewStatePoint(213.16000000000003, 2.619617119846615), phase.StateSolidVapourCurve},
	}
	for _, tc := range cases {
		got, err := d.Classify(tc.point)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%v", tc.point)
		assert.True(t, got.OnCurve())
	}
}

// Every interior sample of the Antoine, solid-liquid and solid-vapour curves
// classifies as its own curve. The first and last samples sit on the triple
// or critical temperature, which take precedence.
func TestClassifierAgreesWithCurves(t *testing.T) {
	for _, s := range []substance{water, carbonDioxide, iodine} {
		d := s.diagram(t)
		sl, err := d.ClapeyronSL(units.Quantity{})
		require.NoError(t, err)
		sv, err := d.ClapeyronSV(units.Quantity{})
		require.NoError(t, err)

		checks := []struct {
			curve    phase.BoundaryCurve
			from, to int
			want     phase.StateLabel
		}{
			{d.AntoineLV(), 1, 99, phase.StateLiquidVapourCurve},
			{sl, 1, 100, phase.StateSolidLiquidCurve},
			{sv, 0, 99, phase.StateSolidVapourCurve},
		}
		for _, c := range checks {
			for i := c.from; i < c.to; i++ {
				got, err := d.Classify(c.curve.At(i))
				require.NoError(t, err)
				require.Equal(t, c.want, got, "%s %s sample %d", s.name, c.curve.Kind, i)
			}
		}
	}
}

// The dense-phase rule decides solid against liquid from the solid-vapour
// curve alone, whatever the sign of ΔV_fus. These points lie on the far side
// of the solid-liquid line from the label they receive.
func TestDensePhaseRuleIgnoresSolidLiquidLine(t *testing.T) {
	cases := []struct {
		s    substance
		t, p float64
		want phase.StateLabel
	}{
		// water: negative slope, high pressure left of T_t is liquid physically
		{water, 268.16, 1e9, phase.StateSolid},
		// carbon dioxide: positive slope, high pressure right of T_t is solid physically
		{carbonDioxide, 220, 1e9, phase.StateLiquid},
	}
	for _, tc := range cases {
		d := tc.s.diagram(t)
		got, err := d.Classify(domain.NewStatePoint(tc.t, tc.p))
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)

		psl, err := d.PressureAt(phase.CurveSolidLiquid, units.New(tc.t, units.Kelvin))
		require.NoError(t, err)
		assert.Greater(t, tc.p, psl.Value(), "point should lie above the solid-liquid line")

		// above a negative-slope line is liquid, above a positive-slope line solid
		clapeyronSays := phase.StateSolid
		if d.Constants().VolumeChangeFusion.Value() < 0 {
			clapeyronSays = phase.StateLiquid
		}
		assert.NotEqual(t, clapeyronSays, got, "classifier and solid-liquid line disagree here")
	}
}

func TestClassifyZeroVolumeChangeIsUnknown(t *testing.T) {
	pc := water.constants(t)
	pc.VolumeChangeFusion = units.New(0, units.CubicCentimetrePerMole)
	d, err := phase.NewDiagram(pc, nil)
	require.NoError(t, err)

	got, err := d.Classify(domain.NewStatePoint(400, 1e7))
	require.NoError(t, err)
	assert.Equal(t, phase.StateUnknown, got)

	got, err = d.Classify(domain.NewStatePoint(273.16, 1e7))
	require.NoError(t, err)
	assert.Equal(t, phase.StateSolid, got)
}

func TestClassifyConvertsUnits(t *testing.T) {
	d := water.diagram(t)
	got, err := d.Classify(domain.StatePoint{
		Temperature: units.New(126.85, units.Celsius),
		Pressure:    units.New(100, units.Bar),
	})
	require.NoError(t, err)
	assert.Equal(t, phase.StateLiquid, got)
}

func TestClassifyRejectsInvalidPoints(t *testing.T) {
	d := water.diagram(t)
	bad := []domain.StatePoint{
		domain.NewStatePoint(math.NaN(), 1e5),
		domain.NewStatePoint(300, math.Inf(1)),
		{Temperature: units.New(300, units.Pascal), Pressure: units.New(1e5, units.Pascal)},
		{Temperature: units.New(300, units.Kelvin)},
		domain.NewStatePoint(0, 1e5),
		domain.NewStatePoint(-50, 1e3),
		{Temperature: units.New(-300, units.Celsius), Pressure: units.New(1, units.Bar)},
	}
	for _, p := range bad {
		_, err := d.Classify(p)
		assert.ErrorIs(t, err, phase.ErrInvalidPoint, "%v", p)
	}
}

func TestClassifyToleranceIsConfigurable(t *testing.T) {
	pc := water.constants(t)
	strict := water.diagram(t)
	loose, err := phase.NewDiagram(pc, &phase.Options{Tolerance: units.New(10, units.Pascal)})
	require.NoError(t, err)

	f, err := strict.Func(phase.CurveAntoine)
	require.NoError(t, err)
	p, err := f(units.New(373.15, units.Kelvin))
	require.NoError(t, err)
	near := domain.NewStatePoint(373.15, p.Value()+5)

	got, err := strict.Classify(near)
	require.NoError(t, err)
	assert.Equal(t, phase.StateLiquid, got)
	got, err = loose.Classify(near)
	require.NoError(t, err)
	assert.Equal(t, phase.StateLiquidVapourCurve, got)
}

func TestPointOnFunction(t *testing.T) {
	line := func(temperature units.Quantity) (units.Quantity, error) {
		k, err := temperature.In(units.Kelvin)
		return units.New(k, units.Pascal), err
	}
	tol := units.New(0.001, units.Pascal)

	ok, err := phase.PointOnFunction(domain.NewStatePoint(3, 3.001), line, tol)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = phase.PointOnFunction(domain.NewStatePoint(3, 3.002), line, tol)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = phase.PointOnFunction(domain.StatePoint{
		Temperature: units.New(3, units.Kelvin),
		Pressure:    units.New(0.0030005, units.Kilopascal),
	}, line, tol)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPointInCurve(t *testing.T) {
	curve := phase.BoundaryCurve{
		Kind:        phase.CurveAntoine,
		Temperature: units.NewSeries([]float64{1, 2, 3}, units.Kelvin),
		Pressure:    units.NewSeries([]float64{1, 2, 3}, units.Pascal),
	}
	assert.True(t, phase.PointInCurve(domain.NewStatePoint(2, 2), curve))
	assert.False(t, phase.PointInCurve(domain.NewStatePoint(2, 3), curve))
	assert.False(t, phase.PointInCurve(domain.NewStatePoint(2, 2.000001), curve))
	assert.False(t, phase.PointInCurve(domain.StatePoint{Temperature: units.New(2, units.Pascal), Pressure: units.New(2, units.Pascal)}, curve))
}

func TestClassifyStateWrapper(t *testing.T) {
	got, err := phase.ClassifyState(water.constants(t), domain.NewStatePoint(700, 1e8))
	require.NoError(t, err)
	assert.Equal(t, phase.StateSupercritical, got)
}
