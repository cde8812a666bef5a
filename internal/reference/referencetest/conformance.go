// Package referencetest holds the behaviour every domain.ReferenceStore
// backend must share when loaded with the seed dataset.
package referencetest

import (
	"context"
	"errors"
	"testing"

	"phasecore/pkg/domain"
	"phasecore/pkg/units"
)

// RunSeeded exercises store, which must hold exactly the seed dataset.
func RunSeeded(t *testing.T, store domain.ReferenceStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("resolve", func(t *testing.T) {
		for ident, want := range map[string]int{
			"H2O":                 1,
			"7732-18-5":           1,
			"water":               1,
			"Dihydrogen Monoxide": 1,
			"co2":                 2,
			"carbonic anhydride":  2,
			"I2":                  3,
			"Molecular Iodine":    3,
		} {
			rec, err := store.ResolveCompound(ctx, ident)
			if err != nil {
				t.Fatalf("ResolveCompound(%q): %v", ident, err)
			}
			if rec.ID != want {
				t.Fatalf("ResolveCompound(%q) = %d, want %d", ident, rec.ID, want)
			}
		}
		rec, err := store.ResolveCompound(ctx, "water")
		if err != nil {
			t.Fatalf("ResolveCompound: %v", err)
		}
		if rec.Formula != "H2O" || rec.CAS != "7732-18-5" || len(rec.AlternativeNames) != 3 {
			t.Fatalf("unexpected water record %+v", rec)
		}
		if g, err := rec.MolarMass.In(units.GramPerMole); err != nil || g != 18.0153 {
			t.Fatalf("molar mass %v %v", g, err)
		}
		for _, miss := range []string{"", "unobtainium"} {
			if _, err := store.ResolveCompound(ctx, miss); !errors.Is(err, domain.ErrCompoundNotFound) {
				t.Fatalf("ResolveCompound(%q): expected ErrCompoundNotFound, got %v", miss, err)
			}
		}
	})

	t.Run("list", func(t *testing.T) {
		all, err := store.ListCompounds(ctx)
		if err != nil {
			t.Fatalf("ListCompounds: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 compounds, got %d", len(all))
		}
		for i, name := range []string{"water", "carbon dioxide", "iodine"} {
			if all[i].Name != name {
				t.Fatalf("compound %d = %q, want %q", i, all[i].Name, name)
			}
		}
		if len(all[1].AlternativeNames) != 2 {
			t.Fatalf("carbon dioxide alternative names %q", all[1].AlternativeNames)
		}
	})

	t.Run("densities", func(t *testing.T) {
		all, err := store.Densities(ctx, 1)
		if err != nil {
			t.Fatalf("Densities: %v", err)
		}
		if len(all) != 3 || all[0].State != domain.StateSolid || all[1].Value.Value() != 0.9970474 {
			t.Fatalf("unexpected water densities %+v", all)
		}
		q, err := store.Density(ctx, 1, domain.StateLiquid, 1)
		if err != nil || q.Value() != 0.99984 || !q.Unit().Same(units.GramPerCubicCentimetre) {
			t.Fatalf("second liquid density %v %v", q, err)
		}
		if _, err := store.Density(ctx, 2, domain.StateGas, 0); !errors.Is(err, domain.ErrMissingValue) {
			t.Fatalf("expected ErrMissingValue, got %v", err)
		}
		if _, err := store.Density(ctx, 2, domain.StateSolid, -1); !errors.Is(err, domain.ErrMissingValue) {
			t.Fatalf("negative index: expected ErrMissingValue, got %v", err)
		}
		if _, err := store.Density(ctx, 2, "plasma", 0); !errors.Is(err, domain.ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("antoine", func(t *testing.T) {
		a, err := store.Antoine(ctx, 1, 0)
		if err != nil {
			t.Fatalf("Antoine: %v", err)
		}
		if a.A != 8.05573 || a.B != 1723.6425 || a.C != 233.08 || !a.PressureUnit.Same(units.MillimetreMercury) {
			t.Fatalf("unexpected water antoine %+v", a)
		}
		if c, _ := a.TMax.In(units.Celsius); c != 373.98 {
			t.Fatalf("tmax %v", c)
		}
		_, err = store.Antoine(ctx, 1, 1)
		var mv *domain.MissingValueError
		if !errors.As(err, &mv) || mv.Table != "antoine" || mv.Index != 1 {
			t.Fatalf("expected antoine MissingValueError, got %v", err)
		}
	})

	t.Run("points", func(t *testing.T) {
		want := map[domain.PointName][2]float64{
			domain.PointBoiling:  {457.6, 101325},
			domain.PointMelting:  {386.85, 101325},
			domain.PointTriple:   {386.65, 12070},
			domain.PointCritical: {819, 1.17e7},
		}
		for name, w := range want {
			p, err := store.Point(ctx, 3, name, 0)
			if err != nil {
				t.Fatalf("Point(%s): %v", name, err)
			}
			tk, pa, err := p.SI()
			if err != nil || tk != w[0] || pa != w[1] {
				t.Fatalf("Point(%s) = (%v, %v) %v", name, tk, pa, err)
			}
		}
		if _, err := store.Point(ctx, 3, "dew_point", 0); !errors.Is(err, domain.ErrInvalidPointName) {
			t.Fatalf("expected ErrInvalidPointName, got %v", err)
		}
		if _, err := store.Point(ctx, 99, domain.PointTriple, 0); !errors.Is(err, domain.ErrMissingValue) {
			t.Fatalf("expected ErrMissingValue, got %v", err)
		}
	})

	t.Run("enthalpies", func(t *testing.T) {
		want := map[domain.EnthalpyName]float64{
			domain.EnthalpyFusion:       9.02,
			domain.EnthalpySublimation:  25.2,
			domain.EnthalpyVaporization: 15.326,
		}
		for name, w := range want {
			h, err := store.Enthalpy(ctx, 2, name, 0)
			if err != nil || h.Value() != w || !h.Unit().Same(units.KilojoulePerMole) {
				t.Fatalf("Enthalpy(%s) = %v %v", name, h, err)
			}
		}
		if _, err := store.Enthalpy(ctx, 2, "mixing", 0); !errors.Is(err, domain.ErrInvalidEnthalpyName) {
			t.Fatalf("expected ErrInvalidEnthalpyName, got %v", err)
		}
		_, err := store.Enthalpy(ctx, 2, domain.EnthalpyFusion, 1)
		var mv *domain.MissingValueError
		if !errors.As(err, &mv) || mv.Table != "h_melt" {
			t.Fatalf("expected h_melt MissingValueError, got %v", err)
		}
	})

	t.Run("volume change", func(t *testing.T) {
		v, err := store.VolumeChangeFusion(ctx, 1, 0)
		if err != nil || v.Value() != -1.634 || !v.Unit().Same(units.CubicCentimetrePerMole) {
			t.Fatalf("VolumeChangeFusion = %v %v", v, err)
		}
		if _, err := store.VolumeChangeFusion(ctx, 3, 0); !errors.Is(err, domain.ErrMissingValue) {
			t.Fatalf("expected ErrMissingValue for iodine v_melt, got %v", err)
		}
	})
}
