package phase

import "errors"

// Sentinel errors returned by the phase engine.
var (
	// ErrInvalidConstants wraps any problem with the PhaseConstants handed to NewDiagram.
	ErrInvalidConstants = errors.New("phase: invalid phase constants")

	// ErrInvalidPoint indicates a point whose magnitudes cannot be classified.
	ErrInvalidPoint = errors.New("phase: invalid point")

	// ErrInvalidOptions indicates Options outside their valid ranges.
	ErrInvalidOptions = errors.New("phase: invalid options")

	// ErrUnknownCurve indicates a CurveKind the engine does not produce.
	ErrUnknownCurve = errors.New("phase: unknown curve kind")
)
