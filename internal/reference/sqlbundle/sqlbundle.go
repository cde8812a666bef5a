// Package sqlbundle exposes the reference-store DDL and applies it.
package sqlbundle

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sqldocs "phasecore/docs/schema/sql"
)

// SQLite returns the relational reference schema.
func SQLite() string { return sqldocs.SQLite }

// Postgres returns the bucketed snapshot schema.
func Postgres() string { return sqldocs.Postgres }

// SplitStatements breaks a DDL script into statements, each ending with ";".
// Whole-line "--" comments and blank lines are dropped; a trailing statement
// without terminator is kept as is.
func SplitStatements(ddl string) []string {
	var (
		stmts []string
		cur   []string
	)
	for _, line := range strings.Split(ddl, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		cur = append(cur, strings.TrimRight(line, " \t\r"))
		if strings.HasSuffix(trimmed, ";") {
			stmts = append(stmts, strings.TrimSpace(strings.Join(cur, "\n")))
			cur = cur[:0]
		}
	}
	if len(cur) > 0 {
		stmts = append(stmts, strings.TrimSpace(strings.Join(cur, "\n")))
	}
	return stmts
}

// Execer is satisfied by *sql.DB, *sql.Tx and *sqlx.DB.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Apply executes every statement of ddl in order.
func Apply(ctx context.Context, db Execer, ddl string) error {
	for i, stmt := range SplitStatements(ddl) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute ddl statement %d: %w", i+1, err)
		}
	}
	return nil
}
