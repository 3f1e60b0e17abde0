// Package sqlite provides the SQLite dialect definition. It is the reference
// dialect the renderer tests execute against.
package sqlite

import (
	"github.com/leapstack-labs/sqlgen/pkg/dialect"
)

func init() {
	dialect.Register(SQLite)
}

// sqliteReservedWords contains the SQLite keywords most likely to collide
// with table or column names.
var sqliteReservedWords = []string{
	"abort", "action", "add", "after", "all", "alter", "analyze", "and", "as",
	"asc", "attach", "autoincrement", "before", "begin", "between", "by",
	"cascade", "case", "cast", "check", "collate", "column", "commit",
	"conflict", "constraint", "create", "cross", "current", "current_date",
	"current_time", "current_timestamp", "database", "default", "deferrable",
	"deferred", "delete", "desc", "detach", "distinct", "do", "drop", "each",
	"else", "end", "escape", "except", "exclusive", "exists", "explain",
	"fail", "filter", "for", "foreign", "from", "full", "glob", "group",
	"having", "if", "ignore", "immediate", "in", "index", "indexed",
	"initially", "inner", "insert", "instead", "intersect", "into", "is",
	"isnull", "join", "key", "left", "like", "limit", "match", "natural",
	"no", "not", "nothing", "notnull", "null", "of", "offset", "on", "or",
	"order", "outer", "plan", "pragma", "primary", "query", "raise",
	"recursive", "references", "regexp", "reindex", "release", "rename",
	"replace", "restrict", "right", "rollback", "row", "savepoint", "select",
	"set", "table", "temp", "temporary", "then", "to", "transaction",
	"trigger", "union", "unique", "update", "using", "vacuum", "values",
	"view", "virtual", "when", "where", "with", "without",
}

// SQLite is the SQLite dialect: native LIMIT/OFFSET, ON CONFLICT upserts,
// single-table UPDATE and DELETE only.
var SQLite = dialect.NewDialect("sqlite").
	WithReservedWords(sqliteReservedWords...).
	Aggregates("COUNT", "SUM", "TOTAL", "AVG", "MIN", "MAX", "GROUP_CONCAT").
	Flags(func(f *dialect.Flags) {
		f.IsMultiTableUpdateSupported = false
		f.IsMultiTableDeleteSupported = false
	}).
	Paging(dialect.Paging{
		LimitFormat:         "LIMIT %s",
		OffsetFormat:        "OFFSET %s",
		OffsetRequiresLimit: true,
	}).
	Identity(dialect.IdentitySecondCommand).
	Upsert(dialect.UpsertOnConflict).
	Strategy(func(base *dialect.BaseStrategy) dialect.Strategy {
		return &strategy{BaseStrategy: base}
	}).
	Build()
