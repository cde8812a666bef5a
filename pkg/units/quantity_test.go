package units_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phasecore/pkg/units"
)

func TestConvertTemperatureOffset(t *testing.T) {
	k, err := units.New(25, units.Celsius).To(units.Kelvin)
	require.NoError(t, err)
	assert.InDelta(t, 298.15, k.Value(), 1e-12)
	assert.Equal(t, "K", k.Unit().Symbol())

	back, err := k.To(units.Celsius)
	require.NoError(t, err)
	assert.InDelta(t, 25, back.Value(), 1e-12)
}

func TestConvertPressureRoundTrip(t *testing.T) {
	p := units.New(611.657, units.Pascal)
	for _, u := range []units.Unit{units.Kilopascal, units.Megapascal, units.Bar, units.Atmosphere, units.MillimetreMercury} {
		mid, err := p.To(u)
		require.NoError(t, err)
		got, err := mid.To(units.Pascal)
		require.NoError(t, err)
		assert.InEpsilon(t, p.Value(), got.Value(), 1e-12, "via %s", u)
	}

	mm, err := units.New(1, units.Atmosphere).In(units.MillimetreMercury)
	require.NoError(t, err)
	assert.InDelta(t, 760, mm, 1e-9)
}

func TestConvertIncompatible(t *testing.T) {
	_, err := units.New(1, units.Kelvin).To(units.Pascal)
	assert.ErrorIs(t, err, units.ErrUnitMismatch)

	_, err = units.Quantity{}.To(units.Kelvin)
	assert.ErrorIs(t, err, units.ErrMissingUnit)
}

func TestAddSub(t *testing.T) {
	sum, err := units.Add(units.New(25, units.Celsius), units.New(10, units.Kelvin))
	require.NoError(t, err)
	assert.Equal(t, units.Kelvin.Symbol(), sum.Unit().Symbol())
	assert.InDelta(t, 308.15, sum.Value(), 1e-9)

	diff, err := units.Sub(units.New(2, units.Kilopascal), units.New(500, units.Pascal))
	require.NoError(t, err)
	assert.Equal(t, "kPa", diff.Unit().Symbol())
	assert.InDelta(t, 1.5, diff.Value(), 1e-12)

	_, err = units.Add(units.New(6.009, units.KilojoulePerMole), units.New(-1.634, units.CubicCentimetrePerMole))
	assert.ErrorIs(t, err, units.ErrUnitMismatch)
}

func TestMulDivCoherentResult(t *testing.T) {
	slope, err := units.Div(units.New(6.009, units.KilojoulePerMole), units.New(-1.634, units.CubicCentimetrePerMole))
	require.NoError(t, err)
	assert.Equal(t, "Pa", slope.Unit().Symbol())
	assert.InEpsilon(t, 6009/-1.634e-6, slope.Value(), 1e-12)

	work, err := units.Mul(units.New(2, units.Bar), units.New(3, units.CubicCentimetrePerMole))
	require.NoError(t, err)
	assert.Equal(t, "J/mol", work.Unit().Symbol())
	assert.InDelta(t, 0.6, work.Value(), 1e-12)

	ratio, err := units.Div(units.New(1, units.Atmosphere), units.New(101325, units.Pascal))
	require.NoError(t, err)
	assert.True(t, ratio.Unit().Compatible(units.Dimensionless))
	assert.InDelta(t, 1, ratio.Value(), 1e-12)
}

func TestPow(t *testing.T) {
	inv, err := units.Pow(units.New(2, units.Kelvin), -1)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, inv.Value(), 1e-12)
	assert.Equal(t, "K^-1", inv.Unit().Symbol())

	sq, err := units.Pow(units.New(2, units.Kelvin), 2)
	require.NoError(t, err)
	assert.InDelta(t, 4, sq.Value(), 1e-12)
	assert.Equal(t, "K^2", sq.Unit().Symbol())

	// specific volume of a 2 g/cm³ solid, 0.5 cm³/g = 5e-4 m³/kg
	specific, err := units.Pow(units.New(2, units.GramPerCubicCentimetre), -1)
	require.NoError(t, err)
	assert.InDelta(t, 5e-4, specific.Value(), 1e-15)
	back, err := units.Mul(specific, units.New(2000, units.KilogramPerCubicMetre))
	require.NoError(t, err)
	assert.True(t, back.Unit().Compatible(units.Dimensionless))
	assert.InDelta(t, 1, back.Value(), 1e-12)

	one, err := units.Pow(units.New(7, units.Pascal), 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, one.Value())
	assert.True(t, one.Unit().Compatible(units.Dimensionless))
}

func TestTranscendentalRequiresDimensionless(t *testing.T) {
	ln, err := units.Ln(units.New(1, units.Dimensionless))
	require.NoError(t, err)
	assert.Equal(t, 0.0, ln.Value())

	_, err = units.Ln(units.New(273.16, units.Kelvin))
	assert.ErrorIs(t, err, units.ErrUnitMismatch)

	_, err = units.Exp(units.New(1, units.Pascal))
	assert.ErrorIs(t, err, units.ErrUnitMismatch)

	lg, err := units.Log10(units.New(1000, units.Dimensionless))
	require.NoError(t, err)
	assert.InDelta(t, 3, lg.Value(), 1e-12)
}

func TestCompare(t *testing.T) {
	eq, err := units.Equal(units.New(0, units.Celsius), units.New(273.15, units.Kelvin))
	require.NoError(t, err)
	assert.True(t, eq)

	less, err := units.Less(units.New(1, units.Bar), units.New(1, units.Atmosphere))
	require.NoError(t, err)
	assert.True(t, less)

	_, err = units.Compare(units.New(1, units.Bar), units.New(1, units.Kelvin))
	assert.ErrorIs(t, err, units.ErrUnitMismatch)

	ok, err := units.ApproxEqual(units.New(3, units.Pascal), units.New(3.001, units.Pascal), units.New(0.001, units.Pascal))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = units.ApproxEqual(units.New(3, units.Pascal), units.New(3.002, units.Pascal), units.New(0.001, units.Pascal))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScale(t *testing.T) {
	q := units.Scale(units.New(2, units.Kilopascal), 3)
	assert.Equal(t, 6.0, q.Value())
	assert.Equal(t, "kPa", q.Unit().Symbol())

	k := units.Scale(units.New(0, units.Celsius), 2)
	assert.Equal(t, "K", k.Unit().Symbol())
	assert.InDelta(t, 546.3, k.Value(), 1e-9)
}

func TestParseAndLookup(t *testing.T) {
	q, err := units.Parse(" 273.16 K ")
	require.NoError(t, err)
	assert.Equal(t, 273.16, q.Value())
	assert.Equal(t, "K", q.Unit().Symbol())

	q, err = units.Parse("760 torr")
	require.NoError(t, err)
	assert.Equal(t, "mmHg", q.Unit().Symbol())

	_, err = units.Parse("3 furlongs")
	assert.ErrorIs(t, err, units.ErrUnknownUnit)

	_, err = units.Parse("abc K")
	assert.Error(t, err)

	u, err := units.Lookup("g/cm**3")
	require.NoError(t, err)
	assert.True(t, u.Same(units.GramPerCubicCentimetre))
}

func TestQuantityJSON(t *testing.T) {
	data, err := json.Marshal(units.New(18.0153, units.GramPerMole))
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":18.0153,"unit":"g/mol"}`, string(data))

	var q units.Quantity
	require.NoError(t, json.Unmarshal(data, &q))
	assert.True(t, q.Unit().Same(units.GramPerMole))
	assert.Equal(t, 18.0153, q.Value())

	assert.Error(t, json.Unmarshal([]byte(`{"value":1,"unit":"parsec"}`), &q))
}

func TestQuantityString(t *testing.T) {
	assert.Equal(t, "611.657 Pa", units.New(611.657, units.Pascal).String())
	assert.Equal(t, "2", units.New(2, units.Dimensionless).String())
	assert.Equal(t, "<nil>", units.Quantity{}.String())
}
