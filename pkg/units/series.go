package units

import (
	"encoding/json"
	"fmt"
)

// Series is an ordered vector of magnitudes sharing one unit.
type Series struct {
	values []float64
	unit   Unit
}

// NewSeries copies values into a Series expressed in u.
func NewSeries(values []float64, u Unit) Series {
	cp := make([]float64, len(values))
	copy(cp, values)
	return Series{values: cp, unit: u}
}

// Len returns the number of samples.
func (s Series) Len() int { return len(s.values) }

// Unit returns the unit shared by all samples.
func (s Series) Unit() Unit { return s.unit }

// At returns sample i as a Quantity. It panics if i is out of range.
func (s Series) At(i int) Quantity { return Quantity{value: s.values[i], unit: s.unit} }

// Values returns a copy of the magnitudes.
func (s Series) Values() []float64 {
	cp := make([]float64, len(s.values))
	copy(cp, s.values)
	return cp
}

// To converts every sample into u.
func (s Series) To(u Unit) (Series, error) {
	if !s.unit.Compatible(u) {
		return Series{}, fmt.Errorf("%w: %s to %s", ErrUnitMismatch, s.unit.describe(), u.describe())
	}
	out := make([]float64, len(s.values))
	for i, v := range s.values {
		out[i] = u.fromSI(s.unit.toSI(v))
	}
	return Series{values: out, unit: u}, nil
}

// MarshalJSON encodes the series as {"unit": "K", "values": [...]}.
func (s Series) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Unit   string    `json:"unit"`
		Values []float64 `json:"values"`
	}{Unit: s.unit.symbol, Values: s.values})
}
