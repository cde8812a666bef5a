// Package memory provides an in-memory compound reference store. It backs
// the default configuration and serves as the read path of the postgres
// backend, which hydrates it from a snapshot.
package memory

import (
	"context"
	"fmt"
	"sync"

	"phasecore/internal/reference/dataset"
	"phasecore/pkg/domain"
	"phasecore/pkg/units"
)

var _ domain.ReferenceStore = (*Store)(nil)

// Store serves a dataset from memory. Reads take a shared lock; imports
// replace the dataset wholesale.
type Store struct {
	mu   sync.RWMutex
	data dataset.Dataset
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// NewSeededStore returns a store loaded with the built-in seed dataset.
func NewSeededStore() (*Store, error) {
	seed, err := dataset.Seed()
	if err != nil {
		return nil, err
	}
	s := NewStore()
	if err := s.ImportDataset(seed); err != nil {
		return nil, err
	}
	return s, nil
}

// ImportDataset validates d and replaces the store's contents with a copy.
func (s *Store) ImportDataset(d dataset.Dataset) error {
	if err := d.Validate(); err != nil {
		return err
	}
	clone := d.Clone()
	s.mu.Lock()
	s.data = clone
	s.mu.Unlock()
	return nil
}

// ExportDataset returns a copy of the store's contents.
func (s *Store) ExportDataset() dataset.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}

func (s *Store) view(ctx context.Context, fn func(d *dataset.Dataset) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&s.data)
}

// ResolveCompound implements domain.ReferenceStore.
func (s *Store) ResolveCompound(ctx context.Context, identifier string) (domain.CompoundRecord, error) {
	var rec domain.CompoundRecord
	err := s.view(ctx, func(d *dataset.Dataset) error {
		c, n, ok := d.Resolve(identifier)
		if !ok {
			return domain.NotFoundError{Identifier: identifier}
		}
		rec = c.Record(n)
		return nil
	})
	return rec, err
}

// ListCompounds implements domain.ReferenceStore.
func (s *Store) ListCompounds(ctx context.Context) ([]domain.CompoundRecord, error) {
	var out []domain.CompoundRecord
	err := s.view(ctx, func(d *dataset.Dataset) error {
		out = make([]domain.CompoundRecord, 0, len(d.Compounds))
		for _, c := range d.Compounds {
			out = append(out, c.Record(d.NamesOf(c.ID)))
		}
		return nil
	})
	return out, err
}

// Densities implements domain.ReferenceStore.
func (s *Store) Densities(ctx context.Context, compoundID int) ([]domain.DensityMeasurement, error) {
	var out []domain.DensityMeasurement
	err := s.view(ctx, func(d *dataset.Dataset) error {
		for _, r := range d.Density {
			if r.ID != compoundID {
				continue
			}
			state, ok := d.StateOf(r.State)
			if !ok {
				return fmt.Errorf("%w: state id %d", domain.ErrInvalidState, r.State)
			}
			out = append(out, domain.DensityMeasurement{State: state, Value: r.Quantity()})
		}
		return nil
	})
	return out, err
}

// Density implements domain.ReferenceStore.
func (s *Store) Density(ctx context.Context, compoundID int, state domain.PhysicalState, index int) (units.Quantity, error) {
	var q units.Quantity
	err := s.view(ctx, func(d *dataset.Dataset) error {
		stateID, ok := d.StateID(state)
		if !ok {
			return fmt.Errorf("%w: %q", domain.ErrInvalidState, state)
		}
		var rows []dataset.DensityRow
		for _, r := range d.Density {
			if r.State == stateID {
				rows = append(rows, r)
			}
		}
		r, ok := dataset.Nth(rows, compoundID, index)
		if !ok {
			return &domain.MissingValueError{Table: dataset.TableDensity, CompoundID: compoundID, Index: index}
		}
		q = r.Quantity()
		return nil
	})
	return q, err
}

// Antoine implements domain.ReferenceStore.
func (s *Store) Antoine(ctx context.Context, compoundID int, index int) (domain.AntoineCoefficients, error) {
	var out domain.AntoineCoefficients
	err := s.view(ctx, func(d *dataset.Dataset) error {
		r, ok := dataset.Nth(d.Antoine, compoundID, index)
		if !ok {
			return &domain.MissingValueError{Table: dataset.TableAntoine, CompoundID: compoundID, Index: index}
		}
		out = r.Coefficients()
		return nil
	})
	return out, err
}

// Point implements domain.ReferenceStore.
func (s *Store) Point(ctx context.Context, compoundID int, name domain.PointName, index int) (domain.StatePoint, error) {
	var out domain.StatePoint
	err := s.view(ctx, func(d *dataset.Dataset) error {
		rows, err := d.PointRows(name)
		if err != nil {
			return err
		}
		r, ok := dataset.Nth(rows, compoundID, index)
		if !ok {
			return &domain.MissingValueError{Table: string(name), CompoundID: compoundID, Index: index}
		}
		out = r.StatePoint()
		return nil
	})
	return out, err
}

// Enthalpy implements domain.ReferenceStore.
func (s *Store) Enthalpy(ctx context.Context, compoundID int, name domain.EnthalpyName, index int) (units.Quantity, error) {
	var out units.Quantity
	err := s.view(ctx, func(d *dataset.Dataset) error {
		rows, err := d.EnthalpyRows(name)
		if err != nil {
			return err
		}
		r, ok := dataset.Nth(rows, compoundID, index)
		if !ok {
			return &domain.MissingValueError{Table: name.Table(), CompoundID: compoundID, Index: index}
		}
		out = r.Enthalpy()
		return nil
	})
	return out, err
}

// VolumeChangeFusion implements domain.ReferenceStore.
func (s *Store) VolumeChangeFusion(ctx context.Context, compoundID int, index int) (units.Quantity, error) {
	var out units.Quantity
	err := s.view(ctx, func(d *dataset.Dataset) error {
		r, ok := dataset.Nth(d.VMelt, compoundID, index)
		if !ok {
			return &domain.MissingValueError{Table: dataset.TableVMelt, CompoundID: compoundID, Index: index}
		}
		out = r.Volume()
		return nil
	})
	return out, err
}

// Close implements domain.ReferenceStore.
func (s *Store) Close() error { return nil }
