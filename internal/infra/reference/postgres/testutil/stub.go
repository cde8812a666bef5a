// Package testutil provides a stub database/sql driver for postgres store
// tests. It understands the handful of statement shapes the reference store
// issues: DDL (recorded only), keyed upserts and whole-table selects.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
)

// Failure switches injected into the stub connection.
var (
	ErrPing   = errors.New("stub: ping failed")
	ErrExec   = errors.New("stub: exec failed")
	ErrBegin  = errors.New("stub: begin failed")
	ErrCommit = errors.New("stub: commit failed")
	ErrQuery  = errors.New("stub: query failed")
)

// Row is one stored row keyed by lower-case column name.
type Row map[string]any

// StubConn records statements and keeps inserted rows per table.
type StubConn struct {
	mu sync.Mutex

	Execs  []string
	Tables map[string][]Row

	FailPing   bool
	FailExec   bool
	FailBegin  bool
	FailCommit bool
	// FailTables makes inserts into and selects from the named tables fail.
	FailTables map[string]bool
	// RowsErr is returned by the row iterator after the last row.
	RowsErr error

	// pending holds upserts of the open transaction until commit.
	pending []func()
	inTx    bool
}

var driverSeq atomic.Int64

// NewStubDB registers a fresh driver instance and opens a *sql.DB on it.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{Tables: make(map[string][]Row)}
	name := fmt.Sprintf("stubpg-reference-%d", driverSeq.Add(1))
	sql.Register(name, stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	db.SetMaxOpenConns(1)
	return db, conn
}

// Put stores rows directly, bypassing SQL.
func (c *StubConn) Put(table string, rows ...Row) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Tables[table] = append(c.Tables[table], rows...)
}

// Rows returns a copy of a table's rows.
func (c *StubConn) Rows(table string) []Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Row(nil), c.Tables[table]...)
}

type stubDriver struct{ conn *StubConn }

func (d stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

// Prepare implements driver.Conn.
func (c *StubConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("stub: prepared statements not supported")
}

// Close implements driver.Conn.
func (c *StubConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// Ping implements driver.Pinger.
func (c *StubConn) Ping(context.Context) error {
	if c.FailPing {
		return ErrPing
	}
	return nil
}

// BeginTx implements driver.ConnBeginTx.
func (c *StubConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	if c.FailBegin {
		return nil, ErrBegin
	}
	c.mu.Lock()
	c.inTx = true
	c.pending = nil
	c.mu.Unlock()
	return stubTx{conn: c}, nil
}

var insertRe = regexp.MustCompile(`(?is)^\s*INSERT\s+INTO\s+(\w+)\s*\(([^)]*)\)`)

// ExecContext implements driver.ExecerContext.
func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Execs = append(c.Execs, query)
	if c.FailExec {
		return nil, ErrExec
	}
	m := insertRe.FindStringSubmatch(query)
	if m == nil {
		return driver.RowsAffected(0), nil
	}
	table := strings.ToLower(m[1])
	if c.FailTables[table] {
		return nil, fmt.Errorf("%w: insert into %s", ErrExec, table)
	}
	cols := splitColumns(m[2])
	if len(cols) != len(args) {
		return nil, fmt.Errorf("stub: %d columns but %d args for %s", len(cols), len(args), table)
	}
	row := make(Row, len(cols))
	for i, col := range cols {
		row[col] = args[i].Value
	}
	apply := func() { c.upsert(table, cols[0], row) }
	if c.inTx {
		c.pending = append(c.pending, apply)
	} else {
		apply()
	}
	return driver.RowsAffected(1), nil
}

// upsert replaces the row sharing the first column's value, or appends.
func (c *StubConn) upsert(table, key string, row Row) {
	for i, existing := range c.Tables[table] {
		if fmt.Sprint(existing[key]) == fmt.Sprint(row[key]) {
			c.Tables[table][i] = row
			return
		}
	}
	c.Tables[table] = append(c.Tables[table], row)
}

var selectRe = regexp.MustCompile(`(?is)^\s*SELECT\s+(.+?)\s+FROM\s+(\w+)`)

// QueryContext implements driver.QueryerContext.
func (c *StubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := selectRe.FindStringSubmatch(query)
	if m == nil {
		return nil, fmt.Errorf("stub: cannot parse query %q", query)
	}
	table := strings.ToLower(m[2])
	if c.FailTables[table] {
		return nil, fmt.Errorf("%w: select from %s", ErrQuery, table)
	}
	cols := splitColumns(m[1])
	out := &stubRows{cols: cols, err: c.RowsErr}
	for _, row := range c.Tables[table] {
		vals := make([]driver.Value, len(cols))
		for i, col := range cols {
			vals[i] = row[col]
		}
		out.rows = append(out.rows, vals)
	}
	return out, nil
}

type stubTx struct{ conn *StubConn }

func (t stubTx) Commit() error {
	c := t.conn
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inTx = false
	pending := c.pending
	c.pending = nil
	if c.FailCommit {
		return ErrCommit
	}
	for _, apply := range pending {
		apply()
	}
	return nil
}

func (t stubTx) Rollback() error {
	c := t.conn
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inTx = false
	c.pending = nil
	return nil
}

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
	err  error
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		if r.err != nil {
			return r.err
		}
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}

func splitColumns(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.ToLower(strings.TrimSpace(part)))
	}
	return out
}
