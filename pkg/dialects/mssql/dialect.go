// Package mssql provides the Microsoft SQL Server dialects: mssql for 2008
// and later, mssql2005 for servers without MERGE.
package mssql

import (
	"github.com/leapstack-labs/sqlgen/pkg/dialect"
)

func init() {
	dialect.Register(MSSQL)
	dialect.Register(MSSQL2005)
}

// mssqlReservedWords contains the T-SQL reserved keywords.
var mssqlReservedWords = []string{
	"add", "all", "alter", "and", "any", "as", "asc", "authorization",
	"backup", "begin", "between", "break", "browse", "bulk", "by", "cascade",
	"case", "check", "checkpoint", "close", "clustered", "coalesce",
	"collate", "column", "commit", "compute", "constraint", "contains",
	"continue", "convert", "create", "cross", "current", "current_date",
	"current_time", "current_timestamp", "current_user", "cursor",
	"database", "dbcc", "deallocate", "declare", "default", "delete", "deny",
	"desc", "distinct", "distributed", "double", "drop", "else", "end",
	"errlvl", "escape", "except", "exec", "execute", "exists", "exit",
	"external", "fetch", "file", "fillfactor", "for", "foreign", "freetext",
	"from", "full", "function", "goto", "grant", "group", "having",
	"holdlock", "identity", "identity_insert", "identitycol", "if", "in",
	"index", "inner", "insert", "intersect", "into", "is", "join", "key",
	"kill", "left", "like", "lineno", "merge", "national", "nocheck",
	"nonclustered", "not", "null", "nullif", "of", "off", "offsets", "on",
	"open", "option", "or", "order", "outer", "over", "percent", "pivot",
	"plan", "primary", "print", "proc", "procedure", "public", "raiserror",
	"read", "reconfigure", "references", "replication", "restore",
	"restrict", "return", "revert", "revoke", "right", "rollback", "rowcount",
	"rowguidcol", "rule", "save", "schema", "select", "session_user", "set",
	"setuser", "shutdown", "some", "statistics", "system_user", "table",
	"tablesample", "textsize", "then", "to", "top", "tran", "transaction",
	"trigger", "truncate", "union", "unique", "unpivot", "update",
	"updatetext", "use", "user", "values", "varying", "view", "waitfor",
	"when", "where", "while", "with",
}

var aggregates = []string{
	"COUNT", "COUNT_BIG", "SUM", "AVG", "MIN", "MAX",
	"STDEV", "STDEVP", "VAR", "VARP", "CHECKSUM_AGG", "GROUPING", "STRING_AGG",
}

func newBuilder(name string) *dialect.Builder {
	return dialect.NewDialect(name).
		Identifiers("[", "]", "]]").
		QuoteAll().
		WithReservedWords(mssqlReservedWords...).
		Aggregates(aggregates...).
		Flags(func(f *dialect.Flags) {
			f.IsApplyJoinSupported = true
			f.IsNegatedComparisonSupported = true
		}).
		Paging(dialect.Paging{
			TakeFormat: "TOP (%s)",
			Emulation:  dialect.PagingRowNumber,
		}).
		Identity(dialect.IdentityInline).
		Strategy(func(base *dialect.BaseStrategy) dialect.Strategy {
			return &strategy{BaseStrategy: base}
		})
}

// MSSQL is the SQL Server 2008+ dialect. Skip is emulated with
// ROW_NUMBER() and upserts use MERGE.
var MSSQL = newBuilder("mssql").
	Upsert(dialect.UpsertMerge).
	Build()

// MSSQL2005 is the SQL Server 2005 dialect. It upserts with an UPDATE
// followed by a conditional INSERT.
var MSSQL2005 = newBuilder("mssql2005").
	Upsert(dialect.UpsertUpdateInsert).
	Build()
