package units

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/unit"
)

// Unit describes how magnitudes expressed in it map onto the coherent SI
// unit of the same dimensions: si = value*scale + offset.
type Unit struct {
	symbol string
	dims   unit.Dimensions
	scale  float64
	offset float64
}

var (
	dimTemperature  = unit.Dimensions{unit.TemperatureDim: 1}
	dimPressure     = unit.Dimensions{unit.MassDim: 1, unit.LengthDim: -1, unit.TimeDim: -2}
	dimDensity      = unit.Dimensions{unit.MassDim: 1, unit.LengthDim: -3}
	dimMolarMass    = unit.Dimensions{unit.MassDim: 1, unit.MoleDim: -1}
	dimMolarEnergy  = unit.Dimensions{unit.MassDim: 1, unit.LengthDim: 2, unit.TimeDim: -2, unit.MoleDim: -1}
	dimMolarVolume  = unit.Dimensions{unit.LengthDim: 3, unit.MoleDim: -1}
	dimMolarEntropy = unit.Dimensions{unit.MassDim: 1, unit.LengthDim: 2, unit.TimeDim: -2, unit.MoleDim: -1, unit.TemperatureDim: -1}
)

// Registered units.
var (
	Kelvin  = Unit{symbol: "K", dims: dimTemperature, scale: 1}
	Celsius = Unit{symbol: "degC", dims: dimTemperature, scale: 1, offset: 273.15}

	Pascal            = Unit{symbol: "Pa", dims: dimPressure, scale: 1}
	Kilopascal        = Unit{symbol: "kPa", dims: dimPressure, scale: 1e3}
	Megapascal        = Unit{symbol: "MPa", dims: dimPressure, scale: 1e6}
	Bar               = Unit{symbol: "bar", dims: dimPressure, scale: 1e5}
	Atmosphere        = Unit{symbol: "atm", dims: dimPressure, scale: 101325}
	MillimetreMercury = Unit{symbol: "mmHg", dims: dimPressure, scale: 101325.0 / 760.0}

	GramPerCubicCentimetre = Unit{symbol: "g/cm^3", dims: dimDensity, scale: 1e3}
	KilogramPerCubicMetre  = Unit{symbol: "kg/m^3", dims: dimDensity, scale: 1}

	GramPerMole     = Unit{symbol: "g/mol", dims: dimMolarMass, scale: 1e-3}
	KilogramPerMole = Unit{symbol: "kg/mol", dims: dimMolarMass, scale: 1}

	KilojoulePerMole = Unit{symbol: "kJ/mol", dims: dimMolarEnergy, scale: 1e3}
	JoulePerMole     = Unit{symbol: "J/mol", dims: dimMolarEnergy, scale: 1}

	CubicCentimetrePerMole = Unit{symbol: "cm^3/mol", dims: dimMolarVolume, scale: 1e-6}
	CubicMetrePerMole      = Unit{symbol: "m^3/mol", dims: dimMolarVolume, scale: 1}

	JoulePerMoleKelvin = Unit{symbol: "J/(mol*K)", dims: dimMolarEntropy, scale: 1}

	Dimensionless = Unit{symbol: "", dims: unit.Dimensions{}, scale: 1}
)

// coherent lists the scale-1, offset-0 units used to name arithmetic results.
var coherent = []Unit{
	Kelvin,
	Pascal,
	KilogramPerCubicMetre,
	KilogramPerMole,
	JoulePerMole,
	CubicMetrePerMole,
	JoulePerMoleKelvin,
	Dimensionless,
}

var registry = map[string]Unit{
	"K":             Kelvin,
	"kelvin":        Kelvin,
	"degC":          Celsius,
	"°C":            Celsius,
	"C":             Celsius,
	"celsius":       Celsius,
	"Pa":            Pascal,
	"pascal":        Pascal,
	"kPa":           Kilopascal,
	"MPa":           Megapascal,
	"bar":           Bar,
	"atm":           Atmosphere,
	"mmHg":          MillimetreMercury,
	"torr":          MillimetreMercury,
	"g/cm^3":        GramPerCubicCentimetre,
	"g/cm**3":       GramPerCubicCentimetre,
	"kg/m^3":        KilogramPerCubicMetre,
	"g/mol":         GramPerMole,
	"kg/mol":        KilogramPerMole,
	"kJ/mol":        KilojoulePerMole,
	"J/mol":         JoulePerMole,
	"cm^3/mol":      CubicCentimetrePerMole,
	"cm**3/mol":     CubicCentimetrePerMole,
	"m^3/mol":       CubicMetrePerMole,
	"J/(mol*K)":     JoulePerMoleKelvin,
	"J/mol/K":       JoulePerMoleKelvin,
	"":              Dimensionless,
	"dimensionless": Dimensionless,
}

// Lookup returns the registered unit for symbol.
func Lookup(symbol string) (Unit, error) {
	if u, ok := registry[strings.TrimSpace(symbol)]; ok {
		return u, nil
	}
	return Unit{}, fmt.Errorf("%w: %q", ErrUnknownUnit, symbol)
}

// Symbol returns the unit's printable symbol.
func (u Unit) Symbol() string { return u.symbol }

func (u Unit) String() string { return u.symbol }

// Dimensions returns a copy of the unit's SI dimensions.
func (u Unit) Dimensions() unit.Dimensions {
	out := make(unit.Dimensions, len(u.dims))
	for d, p := range u.dims {
		if p != 0 {
			out[d] = p
		}
	}
	return out
}

// IsZero reports whether u is the zero Unit, i.e. no unit at all.
func (u Unit) IsZero() bool { return u.scale == 0 }

// HasOffset reports whether the unit's zero differs from the SI zero (°C).
func (u Unit) HasOffset() bool { return u.offset != 0 }

// Compatible reports whether magnitudes in u and v can be converted into each other.
func (u Unit) Compatible(v Unit) bool {
	if u.IsZero() || v.IsZero() {
		return false
	}
	return dimsMatch(u.dims, v.dims)
}

// Same reports whether u and v are the same unit (same dimensions, scale and offset).
func (u Unit) Same(v Unit) bool {
	return u.Compatible(v) && u.scale == v.scale && u.offset == v.offset
}

func (u Unit) toSI(v float64) float64   { return v*u.scale + u.offset }
func (u Unit) fromSI(v float64) float64 { return (v - u.offset) / u.scale }

func dimsMatch(a, b unit.Dimensions) bool {
	return unit.DimensionsMatch(unit.New(1, a), unit.New(1, b))
}

// coherentUnit names the SI unit for dims, deriving a symbol when none of
// the registered units match.
func coherentUnit(dims unit.Dimensions) Unit {
	for _, u := range coherent {
		if dimsMatch(u.dims, dims) {
			return u
		}
	}
	return Unit{symbol: formatDims(dims), dims: unit.New(1, dims).Dimensions(), scale: 1}
}

func formatDims(dims unit.Dimensions) string {
	parts := make([]string, 0, len(dims))
	for d, p := range dims {
		switch {
		case p == 0:
			continue
		case p == 1:
			parts = append(parts, d.String())
		default:
			parts = append(parts, fmt.Sprintf("%s^%d", d, p))
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}
