package dataset

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"phasecore/pkg/domain"
)

// Table names, shared by the relational schema and the bucketed snapshot.
const (
	TableCompounds     = "compounds"
	TableNames         = "names"
	TablePhysStates    = "phys_states"
	TableDensity       = "density"
	TableAntoine       = "antoine"
	TableBoilingPoint  = "boiling_point"
	TableMeltingPoint  = "melting_point"
	TableTriplePoint   = "triple_point"
	TableCriticalPoint = "critical_point"
	TableHMelt         = "h_melt"
	TableHSub          = "h_sub"
	TableHVapBoil      = "h_vap_boil"
	TableVMelt         = "v_melt"
)

// ErrInvalidDataset reports reference rows that break referential integrity.
var ErrInvalidDataset = errors.New("dataset: invalid reference data")

//go:embed seed.json
var seedJSON []byte

// Dataset is the complete reference, one slice per table in row order.
type Dataset struct {
	Compounds     []Compound   `json:"compounds"`
	Names         []Names      `json:"names"`
	PhysStates    []PhysState  `json:"phys_states"`
	Density       []DensityRow `json:"density"`
	Antoine       []AntoineRow `json:"antoine"`
	BoilingPoint  []PointRow   `json:"boiling_point"`
	MeltingPoint  []PointRow   `json:"melting_point"`
	TriplePoint   []PointRow   `json:"triple_point"`
	CriticalPoint []PointRow   `json:"critical_point"`
	HMelt         []ValueRow   `json:"h_melt"`
	HSub          []ValueRow   `json:"h_sub"`
	HVapBoil      []ValueRow   `json:"h_vap_boil"`
	VMelt         []ValueRow   `json:"v_melt"`
}

// Seed returns the built-in reference (water, carbon dioxide, iodine).
func Seed() (Dataset, error) {
	return Decode(seedJSON)
}

// Decode parses a JSON reference and validates it.
func Decode(data []byte) (Dataset, error) {
	var d Dataset
	if err := json.Unmarshal(data, &d); err != nil {
		return Dataset{}, fmt.Errorf("decode dataset: %w", err)
	}
	if err := d.Validate(); err != nil {
		return Dataset{}, err
	}
	return d, nil
}

// Bucket pairs a table name with a pointer to its row slice.
type Bucket struct {
	Name string
	Rows any
}

// Buckets lists every table in a fixed order. Rows point into d, so decoding
// into a bucket fills the dataset.
func (d *Dataset) Buckets() []Bucket {
	return []Bucket{
		{TableCompounds, &d.Compounds},
		{TableNames, &d.Names},
		{TablePhysStates, &d.PhysStates},
		{TableDensity, &d.Density},
		{TableAntoine, &d.Antoine},
		{TableBoilingPoint, &d.BoilingPoint},
		{TableMeltingPoint, &d.MeltingPoint},
		{TableTriplePoint, &d.TriplePoint},
		{TableCriticalPoint, &d.CriticalPoint},
		{TableHMelt, &d.HMelt},
		{TableHSub, &d.HSub},
		{TableHVapBoil, &d.HVapBoil},
		{TableVMelt, &d.VMelt},
	}
}

// Clone returns a deep copy.
func (d Dataset) Clone() Dataset {
	return Dataset{
		Compounds:     slices.Clone(d.Compounds),
		Names:         slices.Clone(d.Names),
		PhysStates:    slices.Clone(d.PhysStates),
		Density:       slices.Clone(d.Density),
		Antoine:       slices.Clone(d.Antoine),
		BoilingPoint:  slices.Clone(d.BoilingPoint),
		MeltingPoint:  slices.Clone(d.MeltingPoint),
		TriplePoint:   slices.Clone(d.TriplePoint),
		CriticalPoint: slices.Clone(d.CriticalPoint),
		HMelt:         slices.Clone(d.HMelt),
		HSub:          slices.Clone(d.HSub),
		HVapBoil:      slices.Clone(d.HVapBoil),
		VMelt:         slices.Clone(d.VMelt),
	}
}

// IsEmpty reports whether the dataset holds no compounds.
func (d Dataset) IsEmpty() bool { return len(d.Compounds) == 0 }

// Validate checks primary keys and that every row references a known
// compound (and density rows a known physical state).
func (d Dataset) Validate() error {
	ids := make(map[int]struct{}, len(d.Compounds))
	for _, c := range d.Compounds {
		if c.ID <= 0 {
			return fmt.Errorf("%w: compound id %d", ErrInvalidDataset, c.ID)
		}
		if _, dup := ids[c.ID]; dup {
			return fmt.Errorf("%w: duplicate compound id %d", ErrInvalidDataset, c.ID)
		}
		if strings.TrimSpace(c.Formula) == "" {
			return fmt.Errorf("%w: compound %d has no formula", ErrInvalidDataset, c.ID)
		}
		if c.MolarMass <= 0 {
			return fmt.Errorf("%w: compound %d molar mass %v", ErrInvalidDataset, c.ID, c.MolarMass)
		}
		ids[c.ID] = struct{}{}
	}
	named := make(map[int]struct{}, len(d.Names))
	for _, n := range d.Names {
		if _, ok := ids[n.ID]; !ok {
			return fmt.Errorf("%w: %s row references unknown compound %d", ErrInvalidDataset, TableNames, n.ID)
		}
		if _, dup := named[n.ID]; dup {
			return fmt.Errorf("%w: duplicate names for compound %d", ErrInvalidDataset, n.ID)
		}
		named[n.ID] = struct{}{}
	}
	states := make(map[int]struct{}, len(d.PhysStates))
	for _, s := range d.PhysStates {
		if _, err := domain.ParsePhysicalState(s.State); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidDataset, err)
		}
		if _, dup := states[s.ID]; dup {
			return fmt.Errorf("%w: duplicate physical state id %d", ErrInvalidDataset, s.ID)
		}
		states[s.ID] = struct{}{}
	}
	for _, r := range d.Density {
		if _, ok := states[r.State]; !ok {
			return fmt.Errorf("%w: density row for compound %d references unknown state %d", ErrInvalidDataset, r.ID, r.State)
		}
	}
	check := func(table string, rows []int) error {
		for _, id := range rows {
			if _, ok := ids[id]; !ok {
				return fmt.Errorf("%w: %s row references unknown compound %d", ErrInvalidDataset, table, id)
			}
		}
		return nil
	}
	for _, t := range []struct {
		name string
		ids  []int
	}{
		{TableDensity, compoundIDs(d.Density)},
		{TableAntoine, compoundIDs(d.Antoine)},
		{TableBoilingPoint, compoundIDs(d.BoilingPoint)},
		{TableMeltingPoint, compoundIDs(d.MeltingPoint)},
		{TableTriplePoint, compoundIDs(d.TriplePoint)},
		{TableCriticalPoint, compoundIDs(d.CriticalPoint)},
		{TableHMelt, compoundIDs(d.HMelt)},
		{TableHSub, compoundIDs(d.HSub)},
		{TableHVapBoil, compoundIDs(d.HVapBoil)},
		{TableVMelt, compoundIDs(d.VMelt)},
	} {
		if err := check(t.name, t.ids); err != nil {
			return err
		}
	}
	return nil
}

func compoundIDs[T Row](rows []T) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.CompoundID()
	}
	return out
}

// Resolve finds the compound an identifier names. Formula and CAS matches
// take priority over names, and exact matches over case-insensitive ones.
func (d Dataset) Resolve(identifier string) (Compound, Names, bool) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return Compound{}, Names{}, false
	}
	for _, eq := range []func(a, b string) bool{
		func(a, b string) bool { return a == b },
		strings.EqualFold,
	} {
		for _, c := range d.Compounds {
			if eq(c.Formula, identifier) || eq(c.CAS, identifier) {
				return c, d.NamesOf(c.ID), true
			}
		}
		for _, n := range d.Names {
			for _, candidate := range append([]string{n.Name}, n.Alternatives()...) {
				if !eq(candidate, identifier) {
					continue
				}
				if c, ok := d.Compound(n.ID); ok {
					return c, n, true
				}
			}
		}
	}
	return Compound{}, Names{}, false
}

// Compound returns the compound row with the given id.
func (d Dataset) Compound(id int) (Compound, bool) {
	for _, c := range d.Compounds {
		if c.ID == id {
			return c, true
		}
	}
	return Compound{}, false
}

// NamesOf returns the names row of a compound, or a row with only ID set.
func (d Dataset) NamesOf(id int) Names {
	for _, n := range d.Names {
		if n.ID == id {
			return n
		}
	}
	return Names{ID: id}
}

// StateID maps a physical state onto its phys_states id.
func (d Dataset) StateID(state domain.PhysicalState) (int, bool) {
	for _, s := range d.PhysStates {
		if s.State == string(state) {
			return s.ID, true
		}
	}
	return 0, false
}

// StateOf maps a phys_states id back onto the physical state.
func (d Dataset) StateOf(id int) (domain.PhysicalState, bool) {
	for _, s := range d.PhysStates {
		if s.ID == id {
			return domain.PhysicalState(s.State), true
		}
	}
	return "", false
}

// PointRows returns the table holding the named reference point.
func (d Dataset) PointRows(name domain.PointName) ([]PointRow, error) {
	switch name {
	case domain.PointBoiling:
		return d.BoilingPoint, nil
	case domain.PointMelting:
		return d.MeltingPoint, nil
	case domain.PointTriple:
		return d.TriplePoint, nil
	case domain.PointCritical:
		return d.CriticalPoint, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPointName, name)
}

// EnthalpyRows returns the table holding the named enthalpy.
func (d Dataset) EnthalpyRows(name domain.EnthalpyName) ([]ValueRow, error) {
	switch name {
	case domain.EnthalpyFusion:
		return d.HMelt, nil
	case domain.EnthalpySublimation:
		return d.HSub, nil
	case domain.EnthalpyVaporization:
		return d.HVapBoil, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrInvalidEnthalpyName, name)
}
