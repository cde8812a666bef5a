package domain

import (
	"context"

	"phasecore/pkg/units"
)

// ReferenceStore is the read-only compound reference consumed by the
// service layer. Backends resolve identifiers with the same rule: an exact
// match on formula or CAS, then on primary or alternative names, then the
// same two passes ignoring case. The first match wins.
//
// Index arguments select among multiple rows for the same compound; an
// out-of-range index yields a *MissingValueError.
type ReferenceStore interface {
	ResolveCompound(ctx context.Context, identifier string) (CompoundRecord, error)
	ListCompounds(ctx context.Context) ([]CompoundRecord, error)
	Densities(ctx context.Context, compoundID int) ([]DensityMeasurement, error)
	Density(ctx context.Context, compoundID int, state PhysicalState, index int) (units.Quantity, error)
	Antoine(ctx context.Context, compoundID int, index int) (AntoineCoefficients, error)
	Point(ctx context.Context, compoundID int, name PointName, index int) (StatePoint, error)
	Enthalpy(ctx context.Context, compoundID int, name EnthalpyName, index int) (units.Quantity, error)
	// VolumeChangeFusion returns the tabulated molar volume change of fusion.
	VolumeChangeFusion(ctx context.Context, compoundID int, index int) (units.Quantity, error)
	Close() error
}
