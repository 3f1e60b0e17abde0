// Package access provides the Microsoft Access (Jet/ACE) dialect. Access
// has neither OFFSET nor scalar subquery columns, so queries lean on the
// nested-TOP paging emulation and subquery pushdown.
package access

import (
	"github.com/leapstack-labs/sqlgen/pkg/dialect"
)

func init() {
	dialect.Register(Access)
}

var accessReservedWords = []string{
	"add", "all", "alter", "and", "any", "as", "asc", "autoincrement", "avg",
	"between", "by", "column", "constraint", "count", "counter", "create",
	"currency", "date", "datetime", "delete", "desc", "disallow", "distinct",
	"distinctrow", "drop", "exists", "first", "from", "group", "having", "in",
	"index", "inner", "insert", "into", "is", "join", "key", "last", "left",
	"level", "like", "max", "min", "name", "not", "null", "on", "or", "order",
	"outer", "password", "percent", "pivot", "primary", "references",
	"right", "select", "set", "sum", "table", "text", "time", "top",
	"transform", "union", "unique", "update", "user", "value", "values",
	"where", "year",
}

// Access is the Microsoft Access dialect.
var Access = dialect.NewDialect("access").
	Identifiers("[", "]", "]]").
	WithReservedWords(accessReservedWords...).
	Aggregates("COUNT", "SUM", "AVG", "MIN", "MAX", "FIRST", "LAST", "STDEV", "STDEVP", "VAR", "VARP").
	Flags(func(f *dialect.Flags) {
		f.IsSkipSupported = false
		f.IsSkipSupportedIfTake = true
		f.IsSubQuerySkipSupported = false
		f.AcceptsTakeAsParameter = false
		f.IsSubQueryColumnSupported = false
		f.IsCountSubQuerySupported = false
		f.IsMultiTableUpdateSupported = false
		f.IsMultiTableDeleteSupported = false
		f.IsNestedJoinParenthesisRequired = true
		f.MaxAliasLength = 64
	}).
	Paging(dialect.Paging{
		TakeFormat: "TOP %s",
		Emulation:  dialect.PagingNestedTop,
	}).
	Identity(dialect.IdentitySecondCommand).
	Upsert(dialect.UpsertNone).
	ParenthesizeJoins().
	Strategy(func(base *dialect.BaseStrategy) dialect.Strategy {
		return &strategy{BaseStrategy: base}
	}).
	Build()
