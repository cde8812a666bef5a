// Package sqldocs exposes the compound reference DDL directly from the docs tree.
package sqldocs

import _ "embed"

// SQLite contains the relational compound reference schema.
//
//go:embed sqlite.sql
var SQLite string

// Postgres contains the bucketed reference snapshot schema.
//
//go:embed postgres.sql
var Postgres string
