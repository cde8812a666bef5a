package units_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phasecore/pkg/units"
)

func TestSeries(t *testing.T) {
	src := []float64{0, 100}
	s := units.NewSeries(src, units.Celsius)
	src[0] = 42
	require.Equal(t, 2, s.Len())
	assert.Equal(t, 0.0, s.At(0).Value(), "NewSeries must copy its input")

	k, err := s.To(units.Kelvin)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{273.15, 373.15}, k.Values(), 1e-9)

	vals := k.Values()
	vals[0] = -1
	assert.InDelta(t, 273.15, k.At(0).Value(), 1e-9)

	_, err = s.To(units.Pascal)
	assert.ErrorIs(t, err, units.ErrUnitMismatch)

	data, err := json.Marshal(units.NewSeries([]float64{1, 2}, units.Pascal))
	require.NoError(t, err)
	assert.JSONEq(t, `{"unit":"Pa","values":[1,2]}`, string(data))
}
