package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCompoundNotFound is returned when an identifier matches no compound.
	ErrCompoundNotFound = errors.New("domain: compound not found")
	// ErrInvalidState rejects a physical state outside solid/liquid/gas.
	ErrInvalidState = errors.New("domain: invalid physical state")
	// ErrInvalidPointName rejects an unknown reference point table.
	ErrInvalidPointName = errors.New("domain: invalid point name")
	// ErrInvalidEnthalpyName rejects an unknown enthalpy table.
	ErrInvalidEnthalpyName = errors.New("domain: invalid enthalpy name")
	// ErrMissingValue is matched by MissingValueError.
	ErrMissingValue = errors.New("domain: missing value")
	// ErrIncompleteConstants reports PhaseConstants that fail Validate.
	ErrIncompleteConstants = errors.New("domain: incomplete phase constants")
)

// MissingValueError is returned when a value index is out of range for a
// compound's rows in a reference table.
type MissingValueError struct {
	Table      string
	CompoundID int
	Index      int
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("%s: no value %d for compound %d", e.Table, e.Index, e.CompoundID)
}

// Is makes errors.Is(err, ErrMissingValue) hold.
func (e *MissingValueError) Is(target error) bool { return target == ErrMissingValue }

// NotFoundError carries the identifier that failed to resolve.
type NotFoundError struct {
	Identifier string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("compound %q not found", e.Identifier)
}

// Is makes errors.Is(err, ErrCompoundNotFound) hold.
func (e NotFoundError) Is(target error) bool { return target == ErrCompoundNotFound }
