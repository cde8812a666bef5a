// Package units attaches physical units to scalar magnitudes.
//
// A Quantity is an immutable (magnitude, Unit) pair. Every Unit in the
// registry carries its SI dimensions (gonum.org/v1/gonum/unit Dimensions)
// together with the scale and offset that map it onto the coherent SI unit,
// so conversions such as °C -> K or mmHg -> Pa are a single affine step.
//
// Arithmetic validates dimensions before it touches magnitudes:
//
//	h := units.New(6.009, units.KilojoulePerMole)
//	dv := units.New(-1.634, units.CubicCentimetrePerMole)
//	slope, err := units.Div(h, dv) // pascal
//	_, err = units.Add(h, dv)      // ErrUnitMismatch
//
// Multiplicative results (Mul, Div, Pow) are expressed in the coherent SI
// unit for their dimensions; Add and Sub keep the left operand's unit unless
// it is an offset unit such as Celsius, in which case kelvin is used.
package units
