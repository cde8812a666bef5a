// Package core is the phase-equilibrium service: it resolves compounds in a
// reference store, assembles their phase constants and drives the boundary
// curve engine and state classifier, recording logs, metrics, traces and
// audit entries for every operation.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"phasecore/pkg/domain"
	"phasecore/pkg/phase"
	"phasecore/pkg/units"
)

// VolumeChangeSource selects where ΔV_fus comes from.
type VolumeChangeSource string

const (
	// VolumeChangeComputed derives ΔV_fus from the selected densities and
	// the molar mass.
	VolumeChangeComputed VolumeChangeSource = "computed"
	// VolumeChangeTabulated reads ΔV_fus from the v_melt table.
	VolumeChangeTabulated VolumeChangeSource = "tabulated"
)

// ErrInvalidVolumeChangeSource rejects an unknown VolumeChangeSource.
var ErrInvalidVolumeChangeSource = errors.New("core: invalid volume change source")

// ParseVolumeChangeSource accepts "computed", "tabulated" or empty (computed).
func ParseVolumeChangeSource(s string) (VolumeChangeSource, error) {
	switch v := VolumeChangeSource(s); v {
	case "", VolumeChangeComputed:
		return VolumeChangeComputed, nil
	case VolumeChangeTabulated:
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidVolumeChangeSource, s)
}

// PhaseDataOptions picks which tabulated row feeds each constant. The zero
// value takes the first row of every table and computes ΔV_fus.
type PhaseDataOptions struct {
	SolidDensityIndex  int
	LiquidDensityIndex int
	AntoineIndex       int
	PointIndex         int
	EnthalpyIndex      int
	VolumeChange       VolumeChangeSource
	VolumeChangeIndex  int
}

// Service wires a reference store to the phase engine.
type Service struct {
	store     domain.ReferenceStore
	phaseOpts *phase.Options

	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
	audit   AuditRecorder
	clock   Clock
}

// NewService constructs a service over store. The service does not take
// ownership of store unless Close is called.
func NewService(store domain.ReferenceStore, opts ...Option) *Service {
	s := &Service{
		store:   store,
		logger:  noopLogger{},
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
		audit:   noopAuditRecorder{},
		clock:   ClockFunc(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// WithPhaseOptions sets the sampling and tolerance used for every diagram
// the service builds. nil means phase.DefaultOptions.
func WithPhaseOptions(o *phase.Options) Option {
	return func(s *Service) {
		if o != nil {
			cpy := *o
			s.phaseOpts = &cpy
		}
	}
}

// Store returns the reference store.
func (s *Service) Store() domain.ReferenceStore { return s.store }

// Close closes the reference store.
func (s *Service) Close() error { return s.store.Close() }

// ListCompounds returns every compound in the reference store.
func (s *Service) ListCompounds(ctx context.Context) ([]domain.CompoundRecord, error) {
	var out []domain.CompoundRecord
	err := s.run(ctx, "list_compounds", "", func(ctx context.Context) error {
		var err error
		out, err = s.store.ListCompounds(ctx)
		return err
	})
	return out, err
}

// ResolveCompound looks up a compound by name, formula or CAS number.
func (s *Service) ResolveCompound(ctx context.Context, identifier string) (domain.CompoundRecord, error) {
	var out domain.CompoundRecord
	err := s.run(ctx, "resolve_compound", identifier, func(ctx context.Context) error {
		var err error
		out, err = s.store.ResolveCompound(ctx, identifier)
		return err
	})
	return out, err
}

// GetPhaseData assembles the phase constants of a compound.
func (s *Service) GetPhaseData(ctx context.Context, identifier string, opts PhaseDataOptions) (domain.PhaseConstants, error) {
	var out domain.PhaseConstants
	err := s.run(ctx, "get_phase_data", identifier, func(ctx context.Context) error {
		var err error
		out, err = s.phaseData(ctx, identifier, opts)
		return err
	})
	return out, err
}

func (s *Service) phaseData(ctx context.Context, identifier string, opts PhaseDataOptions) (domain.PhaseConstants, error) {
	source, err := ParseVolumeChangeSource(string(opts.VolumeChange))
	if err != nil {
		return domain.PhaseConstants{}, err
	}
	compound, err := s.store.ResolveCompound(ctx, identifier)
	if err != nil {
		return domain.PhaseConstants{}, err
	}
	id := compound.ID
	pc := domain.PhaseConstants{Compound: compound}

	if pc.Densities, err = s.store.Densities(ctx, id); err != nil {
		return domain.PhaseConstants{}, fmt.Errorf("densities: %w", err)
	}
	if pc.DensitySolid, err = s.store.Density(ctx, id, domain.StateSolid, opts.SolidDensityIndex); err != nil {
		return domain.PhaseConstants{}, fmt.Errorf("solid density: %w", err)
	}
	if pc.DensityLiquid, err = s.store.Density(ctx, id, domain.StateLiquid, opts.LiquidDensityIndex); err != nil {
		return domain.PhaseConstants{}, fmt.Errorf("liquid density: %w", err)
	}
	if pc.Antoine, err = s.store.Antoine(ctx, id, opts.AntoineIndex); err != nil {
		return domain.PhaseConstants{}, fmt.Errorf("antoine: %w", err)
	}

	points := []struct {
		name domain.PointName
		dst  *domain.StatePoint
	}{
		{domain.PointBoiling, &pc.BoilingPoint},
		{domain.PointMelting, &pc.MeltingPoint},
		{domain.PointTriple, &pc.TriplePoint},
		{domain.PointCritical, &pc.CriticalPoint},
	}
	for _, p := range points {
		if *p.dst, err = s.store.Point(ctx, id, p.name, opts.PointIndex); err != nil {
			return domain.PhaseConstants{}, fmt.Errorf("%s: %w", p.name, err)
		}
	}

	enthalpies := []struct {
		name domain.EnthalpyName
		dst  *units.Quantity
	}{
		{domain.EnthalpyFusion, &pc.EnthalpyFusion},
		{domain.EnthalpySublimation, &pc.EnthalpySublimation},
		{domain.EnthalpyVaporization, &pc.EnthalpyVaporization},
	}
	for _, e := range enthalpies {
		if *e.dst, err = s.store.Enthalpy(ctx, id, e.name, opts.EnthalpyIndex); err != nil {
			return domain.PhaseConstants{}, fmt.Errorf("enthalpy of %s: %w", e.name, err)
		}
	}

	switch source {
	case VolumeChangeTabulated:
		pc.VolumeChangeFusion, err = s.store.VolumeChangeFusion(ctx, id, opts.VolumeChangeIndex)
	default:
		pc.VolumeChangeFusion, err = phase.VolumeChangeFusion(pc.DensityLiquid, pc.DensitySolid, compound.MolarMass)
	}
	if err != nil {
		return domain.PhaseConstants{}, fmt.Errorf("volume change of fusion: %w", err)
	}
	return pc, nil
}

// Diagram builds the phase diagram of a compound with the service's
// phase options.
func (s *Service) Diagram(ctx context.Context, identifier string, opts PhaseDataOptions) (*phase.Diagram, error) {
	var out *phase.Diagram
	err := s.run(ctx, "diagram", identifier, func(ctx context.Context) error {
		var err error
		out, err = s.diagram(ctx, identifier, opts)
		return err
	})
	return out, err
}

func (s *Service) diagram(ctx context.Context, identifier string, opts PhaseDataOptions) (*phase.Diagram, error) {
	pc, err := s.phaseData(ctx, identifier, opts)
	if err != nil {
		return nil, err
	}
	return phase.NewDiagram(pc, s.phaseOpts)
}

// Curves samples the requested boundary curves of a compound, all four in
// phase.CurveKinds order when kinds is empty.
func (s *Service) Curves(ctx context.Context, identifier string, opts PhaseDataOptions, kinds ...phase.CurveKind) ([]phase.BoundaryCurve, error) {
	var out []phase.BoundaryCurve
	err := s.run(ctx, "curves", identifier, func(ctx context.Context) error {
		d, err := s.diagram(ctx, identifier, opts)
		if err != nil {
			return err
		}
		if len(kinds) == 0 {
			out, err = d.Curves()
			return err
		}
		out = make([]phase.BoundaryCurve, 0, len(kinds))
		for _, k := range kinds {
			c, err := d.Curve(k)
			if err != nil {
				return err
			}
			out = append(out, c)
		}
		return nil
	})
	return out, err
}

// ClassifyState labels a point on the phase diagram of a compound.
func (s *Service) ClassifyState(ctx context.Context, identifier string, point domain.StatePoint, opts PhaseDataOptions) (phase.StateLabel, error) {
	label := phase.StateUnknown
	err := s.run(ctx, "classify_state", identifier, func(ctx context.Context) error {
		d, err := s.diagram(ctx, identifier, opts)
		if err != nil {
			return err
		}
		label, err = d.Classify(point)
		return err
	})
	return label, err
}

// run wraps fn with tracing, metrics, logging and auditing.
func (s *Service) run(ctx context.Context, op, compound string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, op)
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, elapsed)

	entry := AuditEntry{
		Operation: op,
		Compound:  compound,
		Status:    AuditStatusSuccess,
		Duration:  elapsed,
		Timestamp: s.clock.Now(),
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
		s.logger.Warn("operation failed", "operation", op, "compound", compound, "error", err)
	} else {
		s.logger.Debug("operation completed", "operation", op, "compound", compound, "duration", elapsed)
	}
	s.audit.Record(ctx, entry)
	return err
}
