// Package sqlite provides the relational compound reference store backed by
// an embedded SQLite file. The schema mirrors the reference tables one to
// one; an empty database is seeded with the built-in dataset on open.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"phasecore/internal/reference/dataset"
	"phasecore/internal/reference/sqlbundle"
	"phasecore/pkg/domain"
	"phasecore/pkg/units"
)

var _ domain.ReferenceStore = (*Store)(nil)

const defaultPath = "phasecore.db"

// columns lists the data columns of each reference table in insert order.
var columns = map[string][]string{
	dataset.TableCompounds:     {"id", "cas", "formula", "molar_mass"},
	dataset.TableNames:         {"id", "name", "name_alt1", "name_alt2", "name_alt3"},
	dataset.TablePhysStates:    {"id", "state"},
	dataset.TableDensity:       {"id", "state", "value"},
	dataset.TableAntoine:       {"id", "t_min", "t_max", "a", "b", "c"},
	dataset.TableBoilingPoint:  {"id", "temperature", "pressure"},
	dataset.TableMeltingPoint:  {"id", "temperature", "pressure"},
	dataset.TableTriplePoint:   {"id", "temperature", "pressure"},
	dataset.TableCriticalPoint: {"id", "temperature", "pressure"},
	dataset.TableHMelt:         {"id", "value"},
	dataset.TableHSub:          {"id", "value"},
	dataset.TableHVapBoil:      {"id", "value"},
	dataset.TableVMelt:         {"id", "value"},
}

// keyed tables have no row_id; their primary key orders the rows.
var keyed = map[string]bool{
	dataset.TableCompounds:  true,
	dataset.TableNames:      true,
	dataset.TablePhysStates: true,
}

// Store answers reference queries with SQL against the reference tables.
type Store struct {
	db   *sqlx.DB
	path string
}

// NewStore opens (or creates) the database at path, applies the schema and
// seeds it when the compounds table is empty.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	ctx := context.Background()
	if err := sqlbundle.Apply(ctx, db, sqlbundle.SQLite()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	s := &Store{db: db, path: path}
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM compounds`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("count compounds: %w", err)
	}
	if count == 0 {
		seed, err := dataset.Seed()
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		if err := s.Import(ctx, seed); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// Import replaces every reference table with the rows of d.
func (s *Store) Import(ctx context.Context, d dataset.Dataset) error {
	if err := d.Validate(); err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	buckets := d.Buckets()
	for i := len(buckets) - 1; i >= 0; i-- {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+buckets[i].Name); err != nil {
			return fmt.Errorf("clear %s: %w", buckets[i].Name, err)
		}
	}
	for _, b := range buckets {
		query := insertQuery(b.Name)
		rows := reflect.ValueOf(b.Rows).Elem()
		for i := 0; i < rows.Len(); i++ {
			if _, err := tx.NamedExecContext(ctx, query, rows.Index(i).Interface()); err != nil {
				return fmt.Errorf("insert %s row %d: %w", b.Name, i, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

// Export reads every reference table back into a dataset.
func (s *Store) Export(ctx context.Context) (dataset.Dataset, error) {
	var d dataset.Dataset
	for _, b := range d.Buckets() {
		if err := s.db.SelectContext(ctx, b.Rows, selectQuery(b.Name)); err != nil {
			return dataset.Dataset{}, fmt.Errorf("select %s: %w", b.Name, err)
		}
	}
	return d, nil
}

func insertQuery(table string) string {
	cols := columns[table]
	named := make([]string, len(cols))
	for i, c := range cols {
		named[i] = ":" + c
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), strings.Join(named, ", "))
}

func selectQuery(table string) string {
	order := "row_id"
	if keyed[table] {
		order = "id"
	}
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", strings.Join(columns[table], ", "), table, order)
}

// ResolveCompound implements domain.ReferenceStore.
func (s *Store) ResolveCompound(ctx context.Context, identifier string) (domain.CompoundRecord, error) {
	ident := strings.TrimSpace(identifier)
	if ident == "" {
		return domain.CompoundRecord{}, domain.NotFoundError{Identifier: identifier}
	}
	passes := []string{
		`SELECT id, cas, formula, molar_mass FROM compounds
		 WHERE formula = ?1 OR cas = ?1 ORDER BY id LIMIT 1`,
		`SELECT c.id, c.cas, c.formula, c.molar_mass FROM names n JOIN compounds c ON c.id = n.id
		 WHERE ?1 IN (n.name, n.name_alt1, n.name_alt2, n.name_alt3) ORDER BY n.id LIMIT 1`,
		`SELECT id, cas, formula, molar_mass FROM compounds
		 WHERE lower(formula) = lower(?1) OR lower(cas) = lower(?1) ORDER BY id LIMIT 1`,
		`SELECT c.id, c.cas, c.formula, c.molar_mass FROM names n JOIN compounds c ON c.id = n.id
		 WHERE lower(?1) IN (lower(n.name), lower(n.name_alt1), lower(n.name_alt2), lower(n.name_alt3))
		 ORDER BY n.id LIMIT 1`,
	}
	for _, q := range passes {
		var c dataset.Compound
		err := s.db.GetContext(ctx, &c, q, ident)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return domain.CompoundRecord{}, fmt.Errorf("resolve %q: %w", identifier, err)
		}
		names, err := s.names(ctx, c.ID)
		if err != nil {
			return domain.CompoundRecord{}, err
		}
		return c.Record(names), nil
	}
	return domain.CompoundRecord{}, domain.NotFoundError{Identifier: identifier}
}

func (s *Store) names(ctx context.Context, id int) (dataset.Names, error) {
	var n dataset.Names
	err := s.db.GetContext(ctx, &n, `SELECT id, name, name_alt1, name_alt2, name_alt3 FROM names WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return dataset.Names{ID: id}, nil
	}
	if err != nil {
		return dataset.Names{}, fmt.Errorf("select names for %d: %w", id, err)
	}
	return n, nil
}

// ListCompounds implements domain.ReferenceStore.
func (s *Store) ListCompounds(ctx context.Context) ([]domain.CompoundRecord, error) {
	var rows []struct {
		dataset.Compound
		Name string         `db:"name"`
		Alt1 sql.NullString `db:"name_alt1"`
		Alt2 sql.NullString `db:"name_alt2"`
		Alt3 sql.NullString `db:"name_alt3"`
	}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT c.id, c.cas, c.formula, c.molar_mass,
		       COALESCE(n.name, '') AS name, n.name_alt1, n.name_alt2, n.name_alt3
		FROM compounds c LEFT JOIN names n ON n.id = c.id
		ORDER BY c.id`)
	if err != nil {
		return nil, fmt.Errorf("list compounds: %w", err)
	}
	out := make([]domain.CompoundRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Compound.Record(dataset.Names{
			ID:   r.ID,
			Name: r.Name,
			Alt1: r.Alt1.String,
			Alt2: r.Alt2.String,
			Alt3: r.Alt3.String,
		}))
	}
	return out, nil
}

// Densities implements domain.ReferenceStore.
func (s *Store) Densities(ctx context.Context, compoundID int) ([]domain.DensityMeasurement, error) {
	var rows []struct {
		State string  `db:"state"`
		Value float64 `db:"value"`
	}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT s.state, d.value FROM density d JOIN phys_states s ON s.id = d.state
		WHERE d.id = ? ORDER BY d.row_id`, compoundID)
	if err != nil {
		return nil, fmt.Errorf("select densities for %d: %w", compoundID, err)
	}
	var out []domain.DensityMeasurement
	for _, r := range rows {
		state, err := domain.ParsePhysicalState(r.State)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.DensityMeasurement{State: state, Value: units.New(r.Value, dataset.DensityUnit)})
	}
	return out, nil
}

// Density implements domain.ReferenceStore.
func (s *Store) Density(ctx context.Context, compoundID int, state domain.PhysicalState, index int) (units.Quantity, error) {
	if _, err := domain.ParsePhysicalState(string(state)); err != nil {
		return units.Quantity{}, err
	}
	var r dataset.DensityRow
	err := s.nth(ctx, &r, dataset.TableDensity, compoundID, index, `
		SELECT d.id, d.state, d.value FROM density d JOIN phys_states s ON s.id = d.state
		WHERE d.id = ? AND s.state = ? ORDER BY d.row_id LIMIT 1 OFFSET ?`,
		compoundID, string(state), index)
	if err != nil {
		return units.Quantity{}, err
	}
	return r.Quantity(), nil
}

// Antoine implements domain.ReferenceStore.
func (s *Store) Antoine(ctx context.Context, compoundID int, index int) (domain.AntoineCoefficients, error) {
	var r dataset.AntoineRow
	if err := s.nthRow(ctx, &r, dataset.TableAntoine, compoundID, index); err != nil {
		return domain.AntoineCoefficients{}, err
	}
	return r.Coefficients(), nil
}

// Point implements domain.ReferenceStore.
func (s *Store) Point(ctx context.Context, compoundID int, name domain.PointName, index int) (domain.StatePoint, error) {
	if _, err := domain.ParsePointName(string(name)); err != nil {
		return domain.StatePoint{}, err
	}
	var r dataset.PointRow
	if err := s.nthRow(ctx, &r, string(name), compoundID, index); err != nil {
		return domain.StatePoint{}, err
	}
	return r.StatePoint(), nil
}

// Enthalpy implements domain.ReferenceStore.
func (s *Store) Enthalpy(ctx context.Context, compoundID int, name domain.EnthalpyName, index int) (units.Quantity, error) {
	if _, err := domain.ParseEnthalpyName(string(name)); err != nil {
		return units.Quantity{}, err
	}
	var r dataset.ValueRow
	if err := s.nthRow(ctx, &r, name.Table(), compoundID, index); err != nil {
		return units.Quantity{}, err
	}
	return r.Enthalpy(), nil
}

// VolumeChangeFusion implements domain.ReferenceStore.
func (s *Store) VolumeChangeFusion(ctx context.Context, compoundID int, index int) (units.Quantity, error) {
	var r dataset.ValueRow
	if err := s.nthRow(ctx, &r, dataset.TableVMelt, compoundID, index); err != nil {
		return units.Quantity{}, err
	}
	return r.Volume(), nil
}

// nthRow selects the index-th row of a per-compound table. table must be one
// of the validated reference table names.
func (s *Store) nthRow(ctx context.Context, dest any, table string, compoundID, index int) error {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? ORDER BY row_id LIMIT 1 OFFSET ?",
		strings.Join(columns[table], ", "), table)
	return s.nth(ctx, dest, table, compoundID, index, query, compoundID, index)
}

func (s *Store) nth(ctx context.Context, dest any, table string, compoundID, index int, query string, args ...any) error {
	missing := &domain.MissingValueError{Table: table, CompoundID: compoundID, Index: index}
	if index < 0 {
		return missing
	}
	err := s.db.GetContext(ctx, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return missing
	}
	if err != nil {
		return fmt.Errorf("select %s for %d: %w", table, compoundID, err)
	}
	return nil
}

// Close implements domain.ReferenceStore.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying handle for integration tests.
func (s *Store) DB() *sqlx.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
