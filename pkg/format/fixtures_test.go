package format_test

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlgen/internal/testutil"
	"github.com/leapstack-labs/sqlgen/pkg/core"
	"github.com/leapstack-labs/sqlgen/pkg/dialect"
	"github.com/leapstack-labs/sqlgen/pkg/dialects/sqlite"
	"github.com/leapstack-labs/sqlgen/pkg/format"
)

type fixture struct {
	person, sale           *core.Table
	id, name, age, active  *core.Field
	saleID, saleOf, amount *core.Field
}

func newFixture() fixture {
	person := core.NewTable("Person",
		&core.Field{Name: "Id", Type: core.KindInt32, DataType: core.DataInt32, IsPrimaryKey: true, IsIdentity: true},
		&core.Field{Name: "Name", Type: core.KindString, DataType: core.DataNVarChar, Length: 50, Nullable: true},
		&core.Field{Name: "Age", Type: core.KindInt32, DataType: core.DataInt32, Nullable: true},
		&core.Field{Name: "Active", Type: core.KindBool, DataType: core.DataBoolean},
	)
	person.Alias = "p"

	sale := core.NewTable("Sale",
		&core.Field{Name: "Id", Type: core.KindInt32, DataType: core.DataInt32, IsPrimaryKey: true},
		&core.Field{Name: "PersonId", Type: core.KindInt32, DataType: core.DataInt32},
		&core.Field{Name: "Amount", Type: core.KindDecimal, DataType: core.DataDecimal, Precision: 18, Scale: 2},
	)
	sale.Alias = "s"

	return fixture{
		person: person,
		sale:   sale,
		id:     person.Field("Id"),
		name:   person.Field("Name"),
		age:    person.Field("Age"),
		active: person.Field("Active"),
		saleID: sale.Field("Id"),
		saleOf: sale.Field("PersonId"),
		amount: sale.Field("Amount"),
	}
}

// selectFrom returns a SELECT of cols over src.
func selectFrom(src core.Source, cols ...core.Expr) *core.Query {
	q := core.NewQuery(core.QuerySelect)
	q.AddFrom(src, "")
	for _, c := range cols {
		q.AddColumn(c)
	}
	return q
}

// joined returns a statement of kind over Person joined to Sale.
func (f fixture) joined(kind core.QueryKind) *core.Query {
	q := core.NewQuery(kind)
	ts := q.AddFrom(f.person, "")
	ts.Join(core.JoinInner, core.NewTableSource(f.sale, ""), eq(f.saleOf, f.id))
	return q
}

func eq(l, r core.Expr) *core.ExprExpr {
	return &core.ExprExpr{Left: l, Op: core.OpEqual, Right: r}
}

func cmp(l core.Expr, op core.Operator, r core.Expr) *core.ExprExpr {
	return &core.ExprExpr{Left: l, Op: op, Right: r}
}

func val(v any) *core.Value { return core.NewValue(v) }

func render(t *testing.T, q *core.Query, d *dialect.Dialect) string {
	t.Helper()
	out, err := format.SQL(q, d)
	require.NoError(t, err)
	return out
}

// renderErr renders q and returns the generation error it must fail with.
func renderErr(t *testing.T, q *core.Query, d *dialect.Dialect) *core.Error {
	t.Helper()
	_, err := format.SQL(q, d)
	require.Error(t, err)
	var genErr *core.Error
	require.ErrorAs(t, err, &genErr)
	return genErr
}

func set(col core.Expr, v any) *core.SetItem {
	return &core.SetItem{Column: col, Expr: val(v)}
}

func insertInto(t *core.Table, items ...*core.SetItem) *core.Query {
	q := core.NewQuery(core.QueryInsert)
	q.Insert.Into = t
	q.Insert.Items = items
	return q
}

func createTable(t *core.Table) *core.Query {
	q := core.NewQuery(core.QueryCreateTable)
	q.CreateTable.Table = t
	return q
}

// openDB creates Person and Sale from their rendered DDL in a fresh SQLite
// database.
func (f fixture) openDB(t *testing.T) *sql.DB {
	t.Helper()
	db := testutil.OpenSQLite(t)
	testutil.Exec(t, db,
		render(t, createTable(f.person), sqlite.SQLite),
		render(t, createTable(f.sale), sqlite.SQLite),
	)
	return db
}
