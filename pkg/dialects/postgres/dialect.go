// Package postgres provides the PostgreSQL dialect definition.
package postgres

import (
	"github.com/leapstack-labs/sqlgen/pkg/dialect"
)

func init() {
	dialect.Register(Postgres)
}

// postgresReservedWords contains the PostgreSQL reserved key words
// (pg_get_keywords() catcode 'R').
var postgresReservedWords = []string{
	"user", "order", "group", "table", "select", "from", "where", "index",
	"all", "and", "any", "array", "as", "asc", "asymmetric", "authorization",
	"between", "binary", "both", "case", "cast", "check", "collate", "column",
	"constraint", "create", "cross", "current_catalog", "current_date",
	"current_role", "current_schema", "current_time", "current_timestamp",
	"current_user", "default", "deferrable", "desc", "distinct", "do", "else",
	"end", "except", "false", "fetch", "for", "foreign", "freeze", "full",
	"grant", "having", "ilike", "in", "initially", "inner", "intersect",
	"into", "is", "isnull", "join", "lateral", "leading", "left", "like",
	"limit", "localtime", "localtimestamp", "natural", "not", "notnull",
	"null", "offset", "on", "only", "or", "outer", "overlaps", "placing",
	"primary", "references", "returning", "right", "session_user", "similar",
	"some", "symmetric", "then", "to", "trailing", "true", "union", "unique",
	"using", "variadic", "verbose", "when", "window", "with",
}

var aggregates = []string{
	"SUM", "COUNT", "AVG", "MIN", "MAX",
	"STDDEV", "STDDEV_POP", "STDDEV_SAMP",
	"VARIANCE", "VAR_POP", "VAR_SAMP",
	"ARRAY_AGG", "STRING_AGG", "JSONB_AGG", "JSON_AGG",
	"BOOL_AND", "BOOL_OR", "EVERY", "BIT_AND", "BIT_OR",
}

// Postgres is the PostgreSQL dialect. Identities come from sequences when
// a table names one and are read back with RETURNING.
var Postgres = dialect.NewDialect("postgres").
	WithReservedWords(postgresReservedWords...).
	Aggregates(aggregates...).
	Flags(func(f *dialect.Flags) {
		f.IsMultiTableUpdateSupported = false
		f.IsMultiTableDeleteSupported = false
	}).
	Paging(dialect.Paging{
		LimitFormat:  "LIMIT %s",
		OffsetFormat: "OFFSET %s",
	}).
	Identity(dialect.IdentityReturning).
	Upsert(dialect.UpsertOnConflict).
	Strategy(func(base *dialect.BaseStrategy) dialect.Strategy {
		return &strategy{BaseStrategy: base}
	}).
	Build()
