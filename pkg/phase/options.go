package phase

import (
	"fmt"

	"phasecore/pkg/units"
)

// Engine defaults.
const (
	DefaultSamples          = 100
	DefaultTolerancePascal  = 0.001
	DefaultSolidLiquidRange = 5.0  // K
	DefaultSolidVapourRange = 60.0 // K
)

// MinSolidLiquidTemperature is the lowest temperature the solid–liquid line
// is sampled at. ln(T/T_t) diverges at 0 K.
const MinSolidLiquidTemperature = 1e-3 // K

// GasConstant is the molar gas constant R.
var GasConstant = units.New(8.314462618, units.JoulePerMoleKelvin)

// Options tunes curve sampling and classification.
//
// Samples          – points per curve, at least 2.
// Tolerance        – absolute pressure tolerance of the point-on-curve test.
// SolidLiquidRange – temperature span of the solid–liquid curve.
// SolidVapourRange – temperature span of the solid–vapour curve.
//
// Zero fields fall back to the defaults.
type Options struct {
	Samples          int
	Tolerance        units.Quantity
	SolidLiquidRange units.Quantity
	SolidVapourRange units.Quantity
}

// DefaultOptions returns 100 samples, 0.001 Pa, 5 K and 60 K.
func DefaultOptions() Options {
	return Options{
		Samples:          DefaultSamples,
		Tolerance:        units.New(DefaultTolerancePascal, units.Pascal),
		SolidLiquidRange: units.New(DefaultSolidLiquidRange, units.Kelvin),
		SolidVapourRange: units.New(DefaultSolidVapourRange, units.Kelvin),
	}
}

// settings is Options resolved to SI magnitudes.
type settings struct {
	samples   int
	tolerance float64 // Pa
	slRange   float64 // K
	svRange   float64 // K
}

func (o *Options) resolve() (settings, error) {
	def := DefaultOptions()
	if o == nil {
		o = &def
	}
	s := settings{samples: o.Samples}
	if s.samples == 0 {
		s.samples = def.Samples
	}
	if s.samples < 2 {
		return settings{}, fmt.Errorf("%w: samples %d < 2", ErrInvalidOptions, s.samples)
	}

	var err error
	if s.tolerance, err = orDefault(o.Tolerance, def.Tolerance, units.Pascal); err != nil {
		return settings{}, fmt.Errorf("%w: tolerance: %w", ErrInvalidOptions, err)
	}
	if s.slRange, err = rangeIn(o.SolidLiquidRange, def.SolidLiquidRange); err != nil {
		return settings{}, fmt.Errorf("%w: solid-liquid range: %w", ErrInvalidOptions, err)
	}
	if s.svRange, err = rangeIn(o.SolidVapourRange, def.SolidVapourRange); err != nil {
		return settings{}, fmt.Errorf("%w: solid-vapour range: %w", ErrInvalidOptions, err)
	}
	if s.tolerance < 0 || s.slRange < 0 || s.svRange < 0 {
		return settings{}, fmt.Errorf("%w: negative tolerance or range", ErrInvalidOptions)
	}
	return s, nil
}

func orDefault(q, def units.Quantity, u units.Unit) (float64, error) {
	if q.IsZero() {
		q = def
	}
	return q.In(u)
}

// rangeIn converts a temperature span to kelvin. A span is a difference, so
// an offset unit contributes only its scale (5 °C of range is 5 K).
func rangeIn(q, def units.Quantity) (float64, error) {
	if q.IsZero() {
		q = def
	}
	hi, err := q.In(units.Kelvin)
	if err != nil {
		return 0, err
	}
	lo, err := units.New(0, q.Unit()).In(units.Kelvin)
	if err != nil {
		return 0, err
	}
	return hi - lo, nil
}
