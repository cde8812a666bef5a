package units

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/unit"
)

// Quantity is a magnitude with the unit it is expressed in. The zero value
// carries no unit and is rejected by every arithmetic operation.
type Quantity struct {
	value float64
	unit  Unit
}

// New returns the quantity v expressed in u.
func New(v float64, u Unit) Quantity { return Quantity{value: v, unit: u} }

// Value returns the magnitude in the quantity's own unit.
func (q Quantity) Value() float64 { return q.value }

// Unit returns the unit the magnitude is expressed in.
func (q Quantity) Unit() Unit { return q.unit }

// IsZero reports whether q is the zero Quantity (no unit attached).
func (q Quantity) IsZero() bool { return q.unit.IsZero() }

// SI returns the magnitude in the coherent SI unit for q's dimensions.
func (q Quantity) SI() float64 { return q.unit.toSI(q.value) }

// In returns q's magnitude expressed in u.
func (q Quantity) In(u Unit) (float64, error) {
	if q.IsZero() {
		return 0, ErrMissingUnit
	}
	if !q.unit.Compatible(u) {
		return 0, fmt.Errorf("%w: %s to %s", ErrUnitMismatch, q.unit.describe(), u.describe())
	}
	if q.unit.Same(u) {
		return q.value, nil
	}
	return u.fromSI(q.SI()), nil
}

// To converts q into u.
func (q Quantity) To(u Unit) (Quantity, error) {
	v, err := q.In(u)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{value: v, unit: u}, nil
}

// Convert is the function form of q.To(u).
func Convert(q Quantity, u Unit) (Quantity, error) { return q.To(u) }

// IsFinite reports whether the magnitude is neither NaN nor infinite.
func (q Quantity) IsFinite() bool {
	return !math.IsNaN(q.value) && !math.IsInf(q.value, 0)
}

func (q Quantity) String() string {
	if q.IsZero() {
		return "<nil>"
	}
	v := strconv.FormatFloat(q.value, 'g', -1, 64)
	if q.unit.symbol == "" {
		return v
	}
	return v + " " + q.unit.symbol
}

// Format lets fmt verbs such as %.2f apply to the magnitude.
func (q Quantity) Format(f fmt.State, verb rune) {
	switch verb {
	case 'v', 's':
		fmt.Fprint(f, q.String())
	default:
		format := "%"
		if p, ok := f.Precision(); ok {
			format += "." + strconv.Itoa(p)
		}
		fmt.Fprintf(f, format+string(verb), q.value)
		if q.unit.symbol != "" {
			fmt.Fprint(f, " "+q.unit.symbol)
		}
	}
}

func (q Quantity) gonum() *unit.Unit { return unit.New(q.SI(), q.unit.dims) }

func fromGonum(u *unit.Unit) Quantity {
	cu := coherentUnit(u.Dimensions())
	return Quantity{value: u.Value(), unit: cu}
}

func checkPresent(qs ...Quantity) error {
	for _, q := range qs {
		if q.IsZero() {
			return ErrMissingUnit
		}
	}
	return nil
}

// resultUnit is the unit additive results are reported in.
func resultUnit(u Unit) Unit {
	if u.HasOffset() {
		return coherentUnit(u.dims)
	}
	return u
}

// Add returns a+b in a's unit. Offset units are added in kelvin.
func Add(a, b Quantity) (Quantity, error) {
	return additive(a, b, 1)
}

// Sub returns a-b in a's unit. Offset units are subtracted in kelvin.
func Sub(a, b Quantity) (Quantity, error) {
	return additive(a, b, -1)
}

func additive(a, b Quantity, sign float64) (Quantity, error) {
	if err := checkPresent(a, b); err != nil {
		return Quantity{}, err
	}
	ga, gb := a.gonum(), b.gonum()
	if !unit.DimensionsMatch(ga, gb) {
		return Quantity{}, fmt.Errorf("%w: %s and %s", ErrUnitMismatch, a.unit.describe(), b.unit.describe())
	}
	gb.SetValue(sign * gb.Value())
	sum := ga.Add(gb)
	ru := resultUnit(a.unit)
	return Quantity{value: ru.fromSI(sum.Value()), unit: ru}, nil
}

// Mul returns a*b in the coherent SI unit of the product.
func Mul(a, b Quantity) (Quantity, error) {
	if err := checkPresent(a, b); err != nil {
		return Quantity{}, err
	}
	return fromGonum(a.gonum().Mul(b.gonum())), nil
}

// Div returns a/b in the coherent SI unit of the quotient.
func Div(a, b Quantity) (Quantity, error) {
	if err := checkPresent(a, b); err != nil {
		return Quantity{}, err
	}
	return fromGonum(a.gonum().Div(b.gonum())), nil
}

// Pow returns q raised to the integer power n in the coherent SI unit of
// the result. n == 0 yields a dimensionless 1.
func Pow(q Quantity, n int) (Quantity, error) {
	if err := checkPresent(q); err != nil {
		return Quantity{}, err
	}
	if n == 0 {
		return Quantity{value: 1, unit: Dimensionless}, nil
	}
	dims := make(unit.Dimensions, len(q.unit.dims))
	for d, e := range q.unit.dims {
		if e != 0 {
			dims[d] = e * n
		}
	}
	return Quantity{value: math.Pow(q.SI(), float64(n)), unit: coherentUnit(dims)}, nil
}

// Scale multiplies the magnitude by f. Offset units are scaled in kelvin.
func Scale(q Quantity, f float64) Quantity {
	if q.unit.HasOffset() {
		ru := resultUnit(q.unit)
		return Quantity{value: q.SI() * f, unit: ru}
	}
	return Quantity{value: q.value * f, unit: q.unit}
}

// Ln is the natural logarithm of a dimensionless quantity.
func Ln(q Quantity) (Quantity, error) { return transcendental(q, math.Log, "ln") }

// Exp is e raised to a dimensionless quantity.
func Exp(q Quantity) (Quantity, error) { return transcendental(q, math.Exp, "exp") }

// Log10 is the decimal logarithm of a dimensionless quantity.
func Log10(q Quantity) (Quantity, error) { return transcendental(q, math.Log10, "log10") }

func transcendental(q Quantity, fn func(float64) float64, name string) (Quantity, error) {
	if err := checkPresent(q); err != nil {
		return Quantity{}, err
	}
	if !q.unit.Compatible(Dimensionless) {
		return Quantity{}, fmt.Errorf("%w: %s of %s", ErrUnitMismatch, name, q.unit.describe())
	}
	return Quantity{value: fn(q.SI()), unit: Dimensionless}, nil
}

// Compare returns -1, 0 or +1 as a is less than, equal to or greater than b.
func Compare(a, b Quantity) (int, error) {
	if err := checkPresent(a, b); err != nil {
		return 0, err
	}
	if !a.unit.Compatible(b.unit) {
		return 0, fmt.Errorf("%w: %s and %s", ErrUnitMismatch, a.unit.describe(), b.unit.describe())
	}
	x, y := a.SI(), b.SI()
	switch {
	case x < y:
		return -1, nil
	case x > y:
		return 1, nil
	default:
		return 0, nil
	}
}

// Equal reports whether a and b denote the same physical amount.
func Equal(a, b Quantity) (bool, error) {
	c, err := Compare(a, b)
	return err == nil && c == 0, err
}

// Less reports whether a < b.
func Less(a, b Quantity) (bool, error) {
	c, err := Compare(a, b)
	return err == nil && c < 0, err
}

// ApproxEqual reports whether |a-b| <= atol. All three must share dimensions.
func ApproxEqual(a, b, atol Quantity) (bool, error) {
	if err := checkPresent(a, b, atol); err != nil {
		return false, err
	}
	if !a.unit.Compatible(b.unit) || !a.unit.Compatible(atol.unit) {
		return false, fmt.Errorf("%w: %s, %s and %s", ErrUnitMismatch,
			a.unit.describe(), b.unit.describe(), atol.unit.describe())
	}
	tol := atol.value * atol.unit.scale
	return math.Abs(a.SI()-b.SI()) <= tol, nil
}

// Parse reads "<magnitude> <unit>", e.g. "273.16 K" or "1 atm". A bare
// number is dimensionless.
func Parse(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	num, sym, _ := strings.Cut(s, " ")
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Quantity{}, fmt.Errorf("units: parse %q: %w", s, err)
	}
	u, err := Lookup(sym)
	if err != nil {
		return Quantity{}, err
	}
	return New(v, u), nil
}

type quantityJSON struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// MarshalJSON encodes q as {"value": v, "unit": "symbol"}.
func (q Quantity) MarshalJSON() ([]byte, error) {
	if q.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(quantityJSON{Value: q.value, Unit: q.unit.symbol})
}

// UnmarshalJSON accepts the MarshalJSON form; the unit must be registered.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*q = Quantity{}
		return nil
	}
	var raw quantityJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("units: decode quantity: %w", err)
	}
	u, err := Lookup(raw.Unit)
	if err != nil {
		return err
	}
	*q = New(raw.Value, u)
	return nil
}

func (u Unit) describe() string {
	if u.IsZero() {
		return "<no unit>"
	}
	if u.symbol == "" {
		return "dimensionless"
	}
	return u.symbol
}

