package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"phasecore/internal/reference/dataset"
	"phasecore/internal/reference/referencetest"
	"phasecore/pkg/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "reference.db")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSeededConformance(t *testing.T) {
	referencetest.RunSeeded(t, newTestStore(t))
}

func TestNewStoreSeedsOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reference.db")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if s.Path() != path {
		t.Fatalf("Path() = %q", s.Path())
	}
	if _, err := s.DB().ExecContext(ctx, `UPDATE names SET name = 'ice' WHERE id = 1`); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	rec, err := reopened.ResolveCompound(ctx, "ice")
	if err != nil {
		t.Fatalf("existing rows must survive reopen: %v", err)
	}
	if rec.ID != 1 {
		t.Fatalf("unexpected record %+v", rec)
	}
	var count int
	if err := reopened.DB().GetContext(ctx, &count, `SELECT COUNT(*) FROM density`); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 7 {
		t.Fatalf("seed applied twice? density rows = %d", count)
	}
}

func TestImportExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seed, err := dataset.Seed()
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	got, err := s.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(got.Compounds) != len(seed.Compounds) || len(got.Density) != len(seed.Density) {
		t.Fatalf("export mismatch: %d compounds, %d density rows", len(got.Compounds), len(got.Density))
	}
	for i := range seed.Density {
		if got.Density[i] != seed.Density[i] {
			t.Fatalf("density row %d = %+v, want %+v", i, got.Density[i], seed.Density[i])
		}
	}
	if got.Names[1] != seed.Names[1] || got.Antoine[1] != seed.Antoine[1] || got.VMelt[0] != seed.VMelt[0] {
		t.Fatal("exported rows differ from the seed")
	}

	trimmed := seed.Clone()
	trimmed.Compounds = trimmed.Compounds[:1]
	trimmed.Names = trimmed.Names[:1]
	trimmed.Density = trimmed.Density[:3]
	trimmed.Antoine = trimmed.Antoine[:1]
	trimmed.BoilingPoint = trimmed.BoilingPoint[:1]
	trimmed.MeltingPoint = trimmed.MeltingPoint[:1]
	trimmed.TriplePoint = trimmed.TriplePoint[:1]
	trimmed.CriticalPoint = trimmed.CriticalPoint[:1]
	trimmed.HMelt = trimmed.HMelt[:1]
	trimmed.HSub = trimmed.HSub[:1]
	trimmed.HVapBoil = trimmed.HVapBoil[:1]
	if err := s.Import(ctx, trimmed); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if _, err := s.ResolveCompound(ctx, "CO2"); !errors.Is(err, domain.ErrCompoundNotFound) {
		t.Fatalf("import must replace previous rows, got %v", err)
	}
	q, err := s.Density(ctx, 1, domain.StateLiquid, 1)
	if err != nil || q.Value() != 0.99984 {
		t.Fatalf("row order must survive re-import: %v %v", q, err)
	}
}

func TestImportRejectsInvalidDataset(t *testing.T) {
	s := newTestStore(t)
	bad := dataset.Dataset{Compounds: []dataset.Compound{{ID: 1, Formula: "X"}}}
	if err := s.Import(context.Background(), bad); !errors.Is(err, dataset.ErrInvalidDataset) {
		t.Fatalf("expected ErrInvalidDataset, got %v", err)
	}
	if _, err := s.ResolveCompound(context.Background(), "H2O"); err != nil {
		t.Fatalf("failed import must leave data untouched: %v", err)
	}
}

func TestResolveIgnoresEmptyAlternativeNames(t *testing.T) {
	s := newTestStore(t)
	// carbon dioxide has an empty third alternative name
	if _, err := s.ResolveCompound(context.Background(), "   "); !errors.Is(err, domain.ErrCompoundNotFound) {
		t.Fatalf("blank identifier must not match empty columns, got %v", err)
	}
}

func TestQueries(t *testing.T) {
	if got := insertQuery(dataset.TableAntoine); got != "INSERT INTO antoine (id, t_min, t_max, a, b, c) VALUES (:id, :t_min, :t_max, :a, :b, :c)" {
		t.Fatalf("insertQuery = %q", got)
	}
	if got := selectQuery(dataset.TableNames); got != "SELECT id, name, name_alt1, name_alt2, name_alt3 FROM names ORDER BY id" {
		t.Fatalf("selectQuery = %q", got)
	}
	if got := selectQuery(dataset.TableHSub); got != "SELECT id, value FROM h_sub ORDER BY row_id" {
		t.Fatalf("selectQuery = %q", got)
	}
}
