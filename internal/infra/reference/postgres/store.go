// Package postgres provides a Postgres-backed compound reference store. The
// reference is kept as one JSONB bucket per table; reads are served by the
// in-memory store hydrated from those buckets on open.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"phasecore/internal/infra/reference/memory"
	"phasecore/internal/reference/dataset"
	"phasecore/internal/reference/sqlbundle"
	"phasecore/pkg/domain"
)

var _ domain.ReferenceStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/phasecore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store serves reference queries from memory and persists imports to Postgres.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens the database at dsn (defaultDSN when empty), applies the
// bucket schema and hydrates the in-memory store. An empty database is
// seeded with the built-in dataset.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	s, err := hydrate(context.Background(), db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func hydrate(ctx context.Context, db *sql.DB) (*Store, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := sqlbundle.Apply(ctx, db, sqlbundle.Postgres()); err != nil {
		return nil, err
	}
	snapshot, err := loadSnapshot(ctx, db)
	if err != nil {
		return nil, err
	}
	s := &Store{Store: memory.NewStore(), db: db}
	if snapshot.IsEmpty() {
		seed, err := dataset.Seed()
		if err != nil {
			return nil, err
		}
		if err := s.Import(ctx, seed); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err := s.Store.ImportDataset(snapshot); err != nil {
		return nil, fmt.Errorf("hydrate reference: %w", err)
	}
	return s, nil
}

// Import replaces the reference and writes every bucket in one transaction.
// The in-memory view changes only after the commit succeeds.
func (s *Store) Import(ctx context.Context, d dataset.Dataset) error {
	if err := d.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := persist(ctx, s.db, d); err != nil {
		return err
	}
	return s.Store.ImportDataset(d)
}

func loadSnapshot(ctx context.Context, db *sql.DB) (dataset.Dataset, error) {
	rows, err := db.QueryContext(ctx, `SELECT bucket, payload FROM reference_bucket`)
	if err != nil {
		return dataset.Dataset{}, fmt.Errorf("select reference_bucket: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshot dataset.Dataset
	targets := map[string]any{}
	for _, b := range snapshot.Buckets() {
		targets[b.Name] = b.Rows
	}
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return dataset.Dataset{}, fmt.Errorf("scan reference_bucket: %w", err)
		}
		if len(payload) == 0 {
			continue
		}
		if target, ok := targets[bucket]; ok {
			if err := json.Unmarshal(payload, target); err != nil {
				return dataset.Dataset{}, fmt.Errorf("decode %s: %w", bucket, err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return dataset.Dataset{}, fmt.Errorf("iterate reference_bucket: %w", err)
	}
	return snapshot, nil
}

func persist(ctx context.Context, db *sql.DB, d dataset.Dataset) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, b := range d.Buckets() {
		data, err := json.Marshal(b.Rows)
		if err != nil {
			return fmt.Errorf("encode %s: %w", b.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO reference_bucket(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload, updated_at=now()`, b.Name, data); err != nil {
			return fmt.Errorf("upsert %s: %w", b.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
