package units

import "errors"

var (
	// ErrUnitMismatch is returned when an operation combines or converts
	// quantities whose dimensions are not compatible.
	ErrUnitMismatch = errors.New("units: incompatible dimensions")

	// ErrUnknownUnit is returned by Lookup and Parse for unregistered symbols.
	ErrUnknownUnit = errors.New("units: unknown unit")

	// ErrMissingUnit signals a zero Quantity (no unit attached) used where a
	// physical value is required.
	ErrMissingUnit = errors.New("units: quantity has no unit")
)
