package querydoc_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlgen/internal/querydoc"
	"github.com/leapstack-labs/sqlgen/internal/testutil"
	"github.com/leapstack-labs/sqlgen/pkg/core"
	"github.com/leapstack-labs/sqlgen/pkg/dialects/mssql"
	"github.com/leapstack-labs/sqlgen/pkg/dialects/sqlite"
	"github.com/leapstack-labs/sqlgen/pkg/format"
)

func loadPeople(t *testing.T) map[string]*core.Query {
	t.Helper()
	doc, err := querydoc.ReadFile(filepath.Join("testdata", "people.yaml"))
	require.NoError(t, err)
	stmts, err := doc.Build()
	require.NoError(t, err)

	byName := make(map[string]*core.Query, len(stmts))
	for _, s := range stmts {
		byName[s.Name] = s.Query
	}
	return byName
}

func build(t *testing.T, src string) []querydoc.Statement {
	t.Helper()
	doc, err := querydoc.Parse([]byte(src))
	require.NoError(t, err)
	stmts, err := doc.Build()
	require.NoError(t, err)
	return stmts
}

func buildErr(t *testing.T, src string) error {
	t.Helper()
	doc, err := querydoc.Parse([]byte(src))
	require.NoError(t, err)
	_, err = doc.Build()
	require.Error(t, err)
	return err
}

func sqlOf(t *testing.T, q *core.Query) string {
	t.Helper()
	out, err := format.SQL(q, sqlite.SQLite)
	require.NoError(t, err)
	return out
}

const catalog = `
tables:
  - name: Person
    alias: p
    fields:
      - {name: Id, type: Int32, primary_key: 1}
      - {name: Name, type: NVarChar, length: 50, nullable: true}
  - name: Sale
    alias: s
    fields:
      - {name: Id, type: Int32, primary_key: 1}
      - {name: PersonId, type: Int32}
`

func TestTables(t *testing.T) {
	q := loadPeople(t)["create_person"]
	require.Equal(t, core.QueryCreateTable, q.Kind)
	require.False(t, q.CreateTable.IsDrop)

	person := q.CreateTable.Table
	assert.Equal(t, "p", person.Alias)
	assert.Equal(t, "person_id_seq", person.Sequence("postgres"))
	require.Len(t, person.Fields, 4)

	id := person.Field("Id")
	assert.True(t, id.IsPrimaryKey)
	assert.True(t, id.IsIdentity)
	assert.Equal(t, core.DataInt32, id.DataType)
	assert.Equal(t, core.KindInt32, id.Type)

	name := person.Field("Name")
	assert.Equal(t, 50, name.Length)
	assert.True(t, name.Nullable)
	assert.Equal(t, []*core.Field{id}, person.PrimaryKey())
}

func TestBuildIsIndependent(t *testing.T) {
	doc, err := querydoc.ReadFile(filepath.Join("testdata", "people.yaml"))
	require.NoError(t, err)
	first, err := doc.Build()
	require.NoError(t, err)
	second, err := doc.Build()
	require.NoError(t, err)

	assert.NotSame(t, first[0].Query.CreateTable.Table, second[0].Query.CreateTable.Table)
}

func TestSelect(t *testing.T) {
	want := "SELECT\n" +
		"\tp.Id,\n" +
		"\tp.Name\n" +
		"FROM\n" +
		"\tPerson p\n" +
		"WHERE\n" +
		"\tp.Age >= @min_age\n" +
		"ORDER BY\n" +
		"\tp.Name DESC\n" +
		"LIMIT 10\n"
	assert.Equal(t, want, sqlOf(t, loadPeople(t)["adults"]))
}

// TestPeopleOnSQLite runs the whole document against SQLite.
func TestPeopleOnSQLite(t *testing.T) {
	q := loadPeople(t)
	db := testutil.OpenSQLite(t)
	for _, name := range []string{"create_person", "create_sale", "seed_a", "seed_b", "seed_c", "seed_sales"} {
		testutil.Exec(t, db, sqlOf(t, q[name]))
	}

	assert.Equal(t, []string{"60", "120", "180"}, testutil.Strings(t, db, "SELECT Amount FROM Sale ORDER BY Id"))
	assert.Equal(t, []string{"a", "c"}, testutil.Strings(t, db, sqlOf(t, q["totals"])))

	testutil.Exec(t, db, sqlOf(t, q["retire_big_spenders"]), sqlOf(t, q["rename_first"]))
	assert.Equal(t, []string{"Ann"}, testutil.Strings(t, db, "SELECT Name FROM Person ORDER BY Id"))
}

func TestTargets(t *testing.T) {
	q := loadPeople(t)

	del := q["retire_big_spenders"]
	require.Len(t, del.From.Tables, 1)
	person := del.From.Tables[0].Source.(*core.Table)
	assert.Equal(t, "Person", person.Name)
	require.Len(t, del.From.Tables[0].Joins, 1)

	upsert := q["rename_first"]
	assert.Equal(t, core.QueryInsertOrUpdate, upsert.Kind)
	assert.Len(t, upsert.Insert.Items, 3)
	require.Len(t, upsert.Update.Items, 1)
	assert.Same(t, upsert.Insert.Into.Field("Name"), upsert.Update.Items[0].Column)
	assert.Equal(t, "Ann", upsert.Update.Items[0].Expr.(*core.Value).Val)

	update := build(t, catalog+`
statements:
  - kind: update
    table: Person
    set:
      - {column: Name, value: 'x'}
    where:
      - eq: [Id, 1]
`)[0].Query
	require.Len(t, update.From.Tables, 1)
	assert.Same(t, update.Update.Table, update.From.Tables[0].Source)
	assert.Equal(t, "UPDATE\n\tPerson\nSET\n\tName = 'x'\nWHERE\n\tPerson.Id = 1\n", sqlOf(t, update))
}

func TestRepeatedTableIsCopied(t *testing.T) {
	q := build(t, catalog+`
statements:
  - select: [a.Name, b.Name]
    from:
      - table: Person
        as: a
        join:
          - table: Person
            as: b
            on:
              - eq: [b.Id, a.Id]
`)[0].Query

	outer := q.From.Tables[0]
	inner := outer.Joins[0].Table
	assert.NotSame(t, outer.Source, inner.Source)
	assert.Same(t, outer.Source, core.UnderlyingField(q.Select.Columns[0]).Table)
	assert.Same(t, inner.Source, core.UnderlyingField(q.Select.Columns[1]).Table)
}

func TestCorrelatedSubquery(t *testing.T) {
	q := build(t, catalog+`
statements:
  - select: [Name]
    from:
      - table: Person
    where:
      - exists:
          select: ["*"]
          from:
            - table: Sale
          where:
            - eq: [s.PersonId, p.Id]
      - not:
          is_null: Name
`)[0].Query

	require.Len(t, q.Where.Conditions, 2)
	exists, ok := q.Where.Conditions[0].Predicate.(*core.FuncLike)
	require.True(t, ok)
	sub := exists.Func.Args[0].(*core.Query)
	cmp := sub.Where.Conditions[0].Predicate.(*core.ExprExpr)
	assert.Same(t, q.From.Tables[0].Source, cmp.Right.(*core.Field).Table)

	assert.True(t, q.Where.Conditions[1].Not)
	assert.IsType(t, &core.IsNull{}, q.Where.Conditions[1].Predicate)
}

func TestDerivedTable(t *testing.T) {
	q := build(t, catalog+`
statements:
  - select: [t.PersonId, t.n]
    from:
      - as: t
        query:
          select:
            - s.PersonId
            - {expr: {func: COUNT, args: ["*"]}, as: n}
          from:
            - table: Sale
          group_by: [s.PersonId]
`)[0].Query

	sub := q.From.Tables[0].Source.(*core.Query)
	require.Len(t, sub.Select.Columns, 2)
	assert.Same(t, sub.Select.Columns[0], q.Select.Columns[0].Expr)
	assert.Same(t, sub.Select.Columns[1], q.Select.Columns[1].Expr)

	count := sub.Select.Columns[1].Expr.(*core.Function)
	assert.Equal(t, "Count", count.Name)
	assert.Equal(t, core.KindInt32, count.Type)
}

func TestExpressions(t *testing.T) {
	q := build(t, catalog+`
statements:
  - select:
      - {op: "+", args: [Id, 1, 2]}
      - {case: [{when: {gt: [Id, 5]}, then: 'big'}], else: 'small'}
      - {convert: Id, to: {type: NVarChar, length: 10}}
      - {func: DatePart, args: ['yy', Id]}
      - {func: last_insert_rowid}
      - {query: {select: [s.Id], from: [{table: Sale}], take: 1}}
    from:
      - table: Person
`)[0].Query
	cols := q.Select.Columns

	sum := cols[0].Expr.(*core.Binary)
	assert.Equal(t, "+", sum.Op)
	assert.Equal(t, core.KindInt32, sum.Type)
	assert.IsType(t, &core.Binary{}, sum.Left)

	cs := cols[1].Expr.(*core.Function)
	assert.Equal(t, "CASE", cs.Name)
	require.Len(t, cs.Args, 3)
	assert.IsType(t, &core.SearchCondition{}, cs.Args[0])
	assert.Equal(t, core.KindString, cs.Type)

	conv := cols[2].Expr.(*core.Function)
	assert.Equal(t, "Convert", conv.Name)
	assert.Equal(t, &core.DataType{Kind: core.DataNVarChar, Length: 10}, conv.Args[0])

	assert.Equal(t, "DatePart", cols[3].Expr.(*core.Function).Name)
	assert.Equal(t, "last_insert_rowid", cols[4].Expr.(*core.Function).Name)
	assert.IsType(t, &core.Query{}, cols[5].Expr)
}

func TestValues(t *testing.T) {
	stmts := build(t, catalog+`
parameters:
  - {name: when, type: DateTime, value: 2024-01-02 03:04:05}
  - {name: flag, value: true, bound: true}
statements:
  - select:
      - {val: 6ba7b810-9dad-11d1-80b4-00c04fd430c8, type: Guid}
      - {val: "12.50", type: Decimal}
      - {val: q, type: Char}
      - {val: dead, type: VarBinary}
      - {val: 7, type: Int64}
      - null
      - 1.5
      - 'it''s'
      - "@when"
      - "@flag"
    from:
      - table: Person
`)
	cols := stmts[0].Query.Select.Columns
	value := func(i int) any { return cols[i].Expr.(*core.Value).Val }

	assert.Equal(t, uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"), value(0))
	assert.True(t, decimal.RequireFromString("12.5").Equal(value(1).(decimal.Decimal)))
	assert.Equal(t, "q", value(2))
	assert.Equal(t, []byte{0xde, 0xad}, value(3))
	assert.Equal(t, int64(7), value(4))
	assert.Equal(t, core.KindInt64, cols[4].Expr.(*core.Value).Type)
	assert.Nil(t, value(5))
	assert.Equal(t, 1.5, value(6))
	assert.Equal(t, "it's", value(7))

	when := cols[8].Expr.(*core.Parameter)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), when.Val)
	assert.Equal(t, core.KindTime, when.Type)

	flag := cols[9].Expr.(*core.Parameter)
	assert.True(t, flag.IsQueryParameter)
	assert.Equal(t, true, flag.Val)
}

func TestPredicates(t *testing.T) {
	q := build(t, catalog+`
statements:
  - select: [Id]
    from:
      - table: Person
    where:
      - or:
          - {eq: [Id, 1], strict: true}
          - {like: [Name, 'a%'], not: true}
      - between: [Id, 1, 9]
      - {in: Id, query: {select: [PersonId], from: [{table: Sale}]}}
      - {ne: [Name, null]}
      - true
`)[0].Query
	conds := q.Where.Conditions
	require.Len(t, conds, 5)

	or := conds[0].Predicate.(*core.SearchCondition)
	require.Len(t, or.Conditions, 2)
	assert.True(t, or.HasOr())
	assert.True(t, or.Conditions[0].Predicate.(*core.ExprExpr).Strict)
	assert.True(t, or.Conditions[1].Predicate.(*core.Like).Not)

	assert.IsType(t, &core.Between{}, conds[1].Predicate)
	assert.IsType(t, &core.InSubQuery{}, conds[2].Predicate)
	assert.Equal(t, core.OpNotEqual, conds[3].Predicate.(*core.ExprExpr).Op)

	lit, ok := conds[4].Predicate.(*core.ExprPredicate).Literal()
	assert.True(t, ok)
	assert.True(t, lit)
}

func TestRendersForEveryDialect(t *testing.T) {
	q := loadPeople(t)["totals"]
	out, err := format.SQL(q, mssql.MSSQL)
	require.NoError(t, err)
	assert.Contains(t, out, "Sum([s].[Amount]) AS [Total]")
	assert.Contains(t, out, "[p].[Id] IN (1, 3)")
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "unknown column",
			src:  "statements:\n  - select: [p.Nope]\n    from: [{table: Person}]\n",
			want: `query document error at line 14, column 14: p has no column "Nope"`,
		},
		{
			name: "ambiguous column",
			src:  "statements:\n  - select: [Id]\n    from: [{table: Person, join: [{table: Sale, on: [true]}]}]\n",
			want: `column "Id" is ambiguous`,
		},
		{
			name: "unknown table",
			src:  "statements:\n  - select: ['x']\n    from: [{table: Nope}]\n",
			want: `unknown table "Nope"`,
		},
		{
			name: "missing parameter",
			src:  "statements:\n  - name: q\n    select: [\"@x\"]\n    from: [{table: Person}]\n",
			want: `statement 1 "q": query document error at line 15, column 14: unknown parameter "x"`,
		},
		{
			name: "combined operators",
			src:  "statements:\n  - select: [{val: 1, func: f}]\n    from: [{table: Person}]\n",
			want: `"func" cannot be combined with "val"`,
		},
		{
			name: "unknown type",
			src:  "statements:\n  - select: [{val: 1, type: Huge}]\n    from: [{table: Person}]\n",
			want: `unknown type "Huge"`,
		},
		{
			name: "select with target",
			src:  "statements:\n  - table: Person\n    select: [Id]\n",
			want: "select takes its tables from 'from', not 'table'",
		},
		{
			name: "assignment to missing field",
			src:  "statements:\n  - kind: insert\n    table: Person\n    set: [{column: Nope, value: 1}]\n",
			want: `table Person has no field "Nope"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := buildErr(t, catalog+tt.src)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("single-quoted text is a literal", func(t *testing.T) {
		stmts := build(t, catalog+"statements:\n  - select: ['@x']\n    from: [{table: Person}]\n")
		assert.Equal(t, "@x", stmts[0].Query.Select.Columns[0].Expr.(*core.Value).Val)
	})

	t.Run("no statements", func(t *testing.T) {
		_, err := querydoc.Parse([]byte(catalog))
		var docErr *querydoc.Error
		require.ErrorAs(t, err, &docErr)
		assert.Equal(t, "no statements", docErr.Message)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := querydoc.Parse([]byte("statements: [\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode query document")
	})
}
