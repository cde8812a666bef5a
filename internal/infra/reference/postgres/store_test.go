package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"phasecore/internal/infra/reference/postgres/testutil"
	"phasecore/internal/reference/dataset"
	"phasecore/internal/reference/referencetest"
	"phasecore/pkg/domain"
)

func openStub(t *testing.T) (*sql.DB, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(driverName, dsn string) (*sql.DB, error) {
		if driverName != "pgx" {
			t.Fatalf("unexpected driver %q", driverName)
		}
		return db, nil
	})
	t.Cleanup(restore)
	return db, conn
}

func TestNewStoreSeedsEmptyDatabase(t *testing.T) {
	_, conn := openStub(t)
	store, err := NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer func() { _ = store.Close() }()

	var sawDDL bool
	for _, stmt := range conn.Execs {
		if strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS reference_bucket") {
			sawDDL = true
		}
	}
	if !sawDDL {
		t.Fatalf("expected bucket DDL to be applied, got %v", conn.Execs)
	}
	if got := len(conn.Rows("reference_bucket")); got != 13 {
		t.Fatalf("expected 13 persisted buckets, got %d", got)
	}
	referencetest.RunSeeded(t, store)
}

func TestNewStoreHydratesExistingSnapshot(t *testing.T) {
	_, conn := openStub(t)
	seed, err := dataset.Seed()
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	seed.Names[0].Name = "ice"
	for _, b := range seed.Buckets() {
		payload, err := json.Marshal(b.Rows)
		if err != nil {
			t.Fatalf("marshal %s: %v", b.Name, err)
		}
		conn.Put("reference_bucket", testutil.Row{"bucket": b.Name, "payload": payload})
	}
	conn.Put("reference_bucket", testutil.Row{"bucket": "legacy", "payload": []byte(`{"ignored":true}`)})

	store, err := NewStore("postgres://example/phasecore")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	rec, err := store.ResolveCompound(context.Background(), "ice")
	if err != nil || rec.ID != 1 {
		t.Fatalf("expected snapshot names to be served, got %+v %v", rec, err)
	}
	for _, stmt := range conn.Execs {
		if strings.HasPrefix(stmt, "INSERT") {
			t.Fatalf("hydrating a populated database must not write, saw %q", stmt)
		}
	}
}

func TestImportPersistsBeforeSwapping(t *testing.T) {
	ctx := context.Background()
	_, conn := openStub(t)
	store, err := NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	d := store.ExportDataset()
	d.Compounds[2].Formula = "I₂"

	conn.FailCommit = true
	if err := store.Import(ctx, d); err == nil {
		t.Fatal("expected commit failure")
	}
	if _, err := store.ResolveCompound(ctx, "I2"); err != nil {
		t.Fatalf("failed import must keep the previous view: %v", err)
	}

	conn.FailCommit = false
	if err := store.Import(ctx, d); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if _, err := store.ResolveCompound(ctx, "I₂"); err != nil {
		t.Fatalf("import not visible: %v", err)
	}
	for _, row := range conn.Rows("reference_bucket") {
		if row["bucket"] == "compounds" && !strings.Contains(string(row["payload"].([]byte)), "I₂") {
			t.Fatalf("compounds bucket not updated: %s", row["payload"])
		}
	}

	bad := d.Clone()
	bad.Density[0].State = 42
	if err := store.Import(ctx, bad); !errors.Is(err, dataset.ErrInvalidDataset) {
		t.Fatalf("expected ErrInvalidDataset, got %v", err)
	}
}

func TestNewStoreErrors(t *testing.T) {
	cases := map[string]func(*testutil.StubConn){
		"ping":   func(c *testutil.StubConn) { c.FailPing = true },
		"ddl":    func(c *testutil.StubConn) { c.FailExec = true },
		"select": func(c *testutil.StubConn) { c.FailTables = map[string]bool{"reference_bucket": true} },
		"rows":   func(c *testutil.StubConn) { c.RowsErr = errors.New("iteration broke") },
		"begin":  func(c *testutil.StubConn) { c.FailBegin = true },
		"decode": func(c *testutil.StubConn) {
			c.Put("reference_bucket", testutil.Row{"bucket": "compounds", "payload": []byte("{")})
		},
		"invalid snapshot": func(c *testutil.StubConn) {
			c.Put("reference_bucket",
				testutil.Row{"bucket": "compounds", "payload": []byte(`[{"id":1,"cas":"","formula":"X","molar_mass":1}]`)},
				testutil.Row{"bucket": "names", "payload": []byte(`[{"id":7,"name":"orphan"}]`)})
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			_, conn := openStub(t)
			mutate(conn)
			if _, err := NewStore(""); err == nil {
				t.Fatalf("expected NewStore to fail")
			}
		})
	}

	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return nil, errors.New("no driver") })
	defer restore()
	if _, err := NewStore(""); err == nil || !strings.Contains(err.Error(), "open postgres") {
		t.Fatalf("expected open error, got %v", err)
	}
}

func TestStoreSatisfiesReferenceStore(t *testing.T) {
	var _ domain.ReferenceStore = (*Store)(nil)
}
