// Package dataset holds the tabular compound reference shared by every
// reference backend: the row types of each table, the units the tables are
// recorded in and the embedded seed data.
package dataset

import (
	"strings"

	"phasecore/pkg/domain"
	"phasecore/pkg/units"
)

// Units the reference tables are recorded in.
var (
	MolarMassUnit          = units.GramPerMole
	DensityUnit            = units.GramPerCubicCentimetre
	AntoineTemperatureUnit = units.Celsius
	AntoinePressureUnit    = units.MillimetreMercury
	TemperatureUnit        = units.Kelvin
	PressureUnit           = units.Pascal
	EnthalpyUnit           = units.KilojoulePerMole
	VolumeUnit             = units.CubicCentimetrePerMole
)

// Compound is a row of the compounds table.
type Compound struct {
	ID        int     `db:"id" json:"id"`
	CAS       string  `db:"cas" json:"cas"`
	Formula   string  `db:"formula" json:"formula"`
	MolarMass float64 `db:"molar_mass" json:"molar_mass"`
}

// CompoundID implements Row.
func (c Compound) CompoundID() int { return c.ID }

// Record combines the row with its names into a domain record.
func (c Compound) Record(n Names) domain.CompoundRecord {
	return domain.CompoundRecord{
		ID:               c.ID,
		CAS:              c.CAS,
		Formula:          c.Formula,
		MolarMass:        units.New(c.MolarMass, MolarMassUnit),
		Name:             n.Name,
		AlternativeNames: n.Alternatives(),
	}
}

// Names is a row of the names table.
type Names struct {
	ID   int    `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Alt1 string `db:"name_alt1" json:"name_alt1"`
	Alt2 string `db:"name_alt2" json:"name_alt2"`
	Alt3 string `db:"name_alt3" json:"name_alt3"`
}

// CompoundID implements Row.
func (n Names) CompoundID() int { return n.ID }

// Alternatives returns the non-empty alternative names in column order.
func (n Names) Alternatives() []string {
	var out []string
	for _, alt := range []string{n.Alt1, n.Alt2, n.Alt3} {
		if strings.TrimSpace(alt) != "" {
			out = append(out, alt)
		}
	}
	return out
}

// PhysState is a row of the phys_states lookup table.
type PhysState struct {
	ID    int    `db:"id" json:"id"`
	State string `db:"state" json:"state"`
}

// DensityRow is a row of the density table; State references PhysState.ID.
type DensityRow struct {
	ID    int     `db:"id" json:"id"`
	State int     `db:"state" json:"state"`
	Value float64 `db:"value" json:"value"`
}

// CompoundID implements Row.
func (r DensityRow) CompoundID() int { return r.ID }

// Quantity returns the density in g/cm³.
func (r DensityRow) Quantity() units.Quantity { return units.New(r.Value, DensityUnit) }

// AntoineRow is a row of the antoine table. Temperatures are in °C and the
// correlation yields mmHg.
type AntoineRow struct {
	ID   int     `db:"id" json:"id"`
	TMin float64 `db:"t_min" json:"t_min"`
	TMax float64 `db:"t_max" json:"t_max"`
	A    float64 `db:"a" json:"a"`
	B    float64 `db:"b" json:"b"`
	C    float64 `db:"c" json:"c"`
}

// CompoundID implements Row.
func (r AntoineRow) CompoundID() int { return r.ID }

// Coefficients returns the row with its table units attached.
func (r AntoineRow) Coefficients() domain.AntoineCoefficients {
	return domain.AntoineCoefficients{
		TMin:         units.New(r.TMin, AntoineTemperatureUnit),
		TMax:         units.New(r.TMax, AntoineTemperatureUnit),
		A:            r.A,
		B:            r.B,
		C:            r.C,
		PressureUnit: AntoinePressureUnit,
	}
}

// PointRow is a row of one of the reference point tables (K, Pa).
type PointRow struct {
	ID          int     `db:"id" json:"id"`
	Temperature float64 `db:"temperature" json:"temperature"`
	Pressure    float64 `db:"pressure" json:"pressure"`
}

// CompoundID implements Row.
func (r PointRow) CompoundID() int { return r.ID }

// StatePoint returns the row as a domain point.
func (r PointRow) StatePoint() domain.StatePoint {
	return domain.StatePoint{
		Temperature: units.New(r.Temperature, TemperatureUnit),
		Pressure:    units.New(r.Pressure, PressureUnit),
	}
}

// ValueRow is a row of a single-value table (h_melt, h_sub, h_vap_boil, v_melt).
type ValueRow struct {
	ID    int     `db:"id" json:"id"`
	Value float64 `db:"value" json:"value"`
}

// CompoundID implements Row.
func (r ValueRow) CompoundID() int { return r.ID }

// Enthalpy returns the value in kJ/mol.
func (r ValueRow) Enthalpy() units.Quantity { return units.New(r.Value, EnthalpyUnit) }

// Volume returns the value in cm³/mol.
func (r ValueRow) Volume() units.Quantity { return units.New(r.Value, VolumeUnit) }

// Row is implemented by every per-compound table row.
type Row interface {
	CompoundID() int
}

// Nth returns the index-th row belonging to compoundID, in table order.
func Nth[T Row](rows []T, compoundID, index int) (T, bool) {
	var zero T
	if index < 0 {
		return zero, false
	}
	seen := 0
	for _, r := range rows {
		if r.CompoundID() != compoundID {
			continue
		}
		if seen == index {
			return r, true
		}
		seen++
	}
	return zero, false
}
