package rewrite_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/leapstack-labs/sqlgen/pkg/core"
	"github.com/leapstack-labs/sqlgen/pkg/dialect"
	"github.com/leapstack-labs/sqlgen/pkg/dialects/access"
	"github.com/leapstack-labs/sqlgen/pkg/dialects/mssql"
	"github.com/leapstack-labs/sqlgen/pkg/dialects/sqlite"
	"github.com/leapstack-labs/sqlgen/pkg/rewrite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	customer, order           *core.Table
	custID, custName, city    *core.Field
	orderCustomer, orderTotal *core.Field
}

func newFixture() fixture {
	customer := core.NewTable("Customer",
		&core.Field{Name: "Id", Type: core.KindInt32, DataType: core.DataInt32, IsPrimaryKey: true},
		&core.Field{Name: "Name", Type: core.KindString, DataType: core.DataNVarChar, Length: 50, Nullable: true},
		&core.Field{Name: "City", Type: core.KindString, DataType: core.DataNVarChar, Length: 30, Nullable: true},
	)
	customer.Alias = "c"

	order := core.NewTable("Order",
		&core.Field{Name: "Id", Type: core.KindInt32, DataType: core.DataInt32, IsPrimaryKey: true},
		&core.Field{Name: "CustomerId", Type: core.KindInt32, DataType: core.DataInt32},
		&core.Field{Name: "Total", Type: core.KindDecimal, DataType: core.DataDecimal, Precision: 18, Scale: 2},
	)
	order.Alias = "o"

	return fixture{
		customer:      customer,
		order:         order,
		custID:        customer.Field("Id"),
		custName:      customer.Field("Name"),
		city:          customer.Field("City"),
		orderCustomer: order.Field("CustomerId"),
		orderTotal:    order.Field("Total"),
	}
}

func eq(l, r core.Expr) *core.ExprExpr {
	return &core.ExprExpr{Left: l, Op: core.OpEqual, Right: r}
}

func (f fixture) bigOrders() *core.ExprExpr {
	return &core.ExprExpr{Left: f.orderTotal, Op: core.OpGreater, Right: core.NewValue(100)}
}

// joined returns a statement of kind over Customer joined to Order.
func (f fixture) joined(kind core.QueryKind) *core.Query {
	q := core.NewQuery(kind)
	ts := q.AddFrom(f.customer, "")
	ts.Join(core.JoinInner, core.NewTableSource(f.order, ""), eq(f.orderCustomer, f.custID))
	return q
}

func TestFinalizeRequiresDialect(t *testing.T) {
	_, err := rewrite.Finalize(core.NewQuery(core.QuerySelect), nil)
	assert.ErrorIs(t, err, dialect.ErrDialectRequired)
}

func TestFinalizeMultiTableDelete(t *testing.T) {
	f := newFixture()
	q := f.joined(core.QueryDelete)
	q.Where.Add(f.bigOrders())
	param := &core.Parameter{Name: "min", IsQueryParameter: true}
	q.Parameters = []*core.Parameter{param}

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	out, err := rewrite.Finalize(q, sqlite.SQLite, rewrite.WithLogger(logger))
	require.NoError(t, err)

	require.NotSame(t, q, out)
	assert.Equal(t, core.QueryDelete, out.Kind)
	assert.Contains(t, logs.String(), "decorrelated")

	require.Len(t, out.From.Tables, 1)
	target := out.From.Tables[0]
	assert.True(t, target.NoAlias)
	cp, ok := target.Source.(*core.Table)
	require.True(t, ok)
	assert.NotSame(t, f.customer, cp)
	assert.Equal(t, "Customer", cp.Name)
	assert.Empty(t, cp.Alias)

	require.Len(t, out.Where.Conditions, 1)
	exists, ok := out.Where.Conditions[0].Predicate.(*core.FuncLike)
	require.True(t, ok)
	assert.Same(t, q, exists.Func.Args[0])

	assert.Equal(t, core.QuerySelect, q.Kind)
	assert.Same(t, out, q.Parent)
	assert.Equal(t, []*core.Parameter{param}, out.Parameters)
	assert.Empty(t, q.Parameters)

	require.Len(t, q.Where.Conditions, 2)
	match, ok := q.Where.Conditions[1].Predicate.(*core.ExprExpr)
	require.True(t, ok)
	assert.Same(t, cp.Field("Id"), match.Left)
	assert.Same(t, f.custID, match.Right)
	assert.True(t, match.Strict)
	assert.Equal(t, "c", q.From.Tables[0].Alias, "inner target keeps its alias")
}

func TestFinalizeMultiTableDeleteScopesOr(t *testing.T) {
	f := newFixture()
	q := f.joined(core.QueryDelete)
	q.Where.Add(f.bigOrders()).AddOr(&core.IsNull{Expr: f.city})

	out, err := rewrite.Finalize(q, sqlite.SQLite)
	require.NoError(t, err)
	require.NotSame(t, q, out)

	require.Len(t, q.Where.Conditions, 2)
	assert.False(t, q.Where.HasOr(), "the key match must not join the OR chain")
	scoped, ok := q.Where.Conditions[0].Predicate.(*core.SearchCondition)
	require.True(t, ok)
	assert.True(t, scoped.HasOr())
	assert.IsType(t, &core.ExprExpr{}, q.Where.Conditions[1].Predicate)
}

func TestFinalizeSingleTableTargets(t *testing.T) {
	tests := []struct {
		name string
		kind core.QueryKind
	}{
		{"delete", core.QueryDelete},
		{"update", core.QueryUpdate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			q := core.NewQuery(tt.kind)
			q.AddFrom(f.customer, "")
			q.Where.Add(eq(f.custID, core.NewValue(1)))

			out, err := rewrite.Finalize(q, sqlite.SQLite)
			require.NoError(t, err)
			assert.Same(t, q, out)
			assert.True(t, q.From.Tables[0].NoAlias)
			assert.Empty(t, q.From.Tables[0].Alias)
		})
	}
}

func TestFinalizeKeepsMultiTableDeleteWhenSupported(t *testing.T) {
	f := newFixture()
	q := f.joined(core.QueryDelete)
	q.Where.Add(f.bigOrders())

	out, err := rewrite.Finalize(q, mssql.MSSQL)
	require.NoError(t, err)
	assert.Same(t, q, out)
	assert.Equal(t, core.QueryDelete, q.Kind)
	assert.False(t, q.From.Tables[0].NoAlias)
	assert.Equal(t, "c", q.From.Tables[0].Alias)
}

func TestFinalizeMultiTableUpdate(t *testing.T) {
	f := newFixture()
	q := f.joined(core.QueryUpdate)
	q.Update.Table = f.customer
	q.Update.Items = []*core.SetItem{{Column: f.custName, Expr: core.NewValue("vip")}}
	q.Where.Add(f.bigOrders())

	out, err := rewrite.Finalize(q, sqlite.SQLite)
	require.NoError(t, err)
	require.NotSame(t, q, out)

	assert.Equal(t, core.QueryUpdate, out.Kind)
	cp, ok := out.From.Tables[0].Source.(*core.Table)
	require.True(t, ok)
	assert.Same(t, cp, out.Update.Table)
	require.Len(t, out.Update.Items, 1)
	assert.Same(t, cp.Field("Name"), out.Update.Items[0].Column)

	assert.Equal(t, core.QuerySelect, q.Kind)
	assert.Empty(t, q.Update.Items)
	assert.Nil(t, q.Update.Table)
}

func TestFinalizeDecorrelationNeedsPrimaryKey(t *testing.T) {
	f := newFixture()
	f.custID.IsPrimaryKey = false
	q := f.joined(core.QueryDelete)

	_, err := rewrite.Finalize(q, sqlite.SQLite)
	var genErr *core.Error
	require.ErrorAs(t, err, &genErr)
	assert.Contains(t, genErr.Message, "no primary key")
}

// countQuery selects each customer's name and number of orders.
func (f fixture) countQuery() (*core.Query, *core.Query) {
	sub := core.NewQuery(core.QuerySelect)
	sub.AddFrom(f.order, "")
	sub.AddColumn(core.NewFunction(core.KindInt32, "Count", core.Star()))
	sub.Where.Add(eq(f.orderCustomer, f.custID))

	q := core.NewQuery(core.QuerySelect)
	q.AddFrom(f.customer, "")
	q.AddColumn(f.custName)
	q.AddColumn(sub)
	return q, sub
}

func TestFinalizeMovesCountSubQuery(t *testing.T) {
	f := newFixture()
	q, sub := f.countQuery()

	out, err := rewrite.Finalize(q, access.Access)
	require.NoError(t, err)
	require.Same(t, q, out)

	root := q.From.Tables[0]
	require.Len(t, root.Joins, 1)
	join := root.Joins[0]
	assert.Equal(t, core.JoinLeft, join.Kind)
	assert.Same(t, sub, join.Table.Source)

	col, ok := q.Select.Columns[1].Expr.(*core.Column)
	require.True(t, ok)
	assert.Same(t, sub.Select.Columns[0], col)

	assert.Empty(t, sub.Where.Conditions)
	assert.Equal(t, []core.Expr{f.orderCustomer}, sub.GroupBy)
	require.Len(t, sub.Select.Columns, 2)
	assert.Equal(t, "CustomerId", sub.Select.Columns[1].Alias)

	require.Len(t, join.Condition.Conditions, 1)
	on, ok := join.Condition.Conditions[0].Predicate.(*core.ExprExpr)
	require.True(t, ok)
	assert.Same(t, sub.Select.Columns[1], on.Left)
	assert.Same(t, f.custID, on.Right)

	again, err := rewrite.Finalize(out, access.Access)
	require.NoError(t, err)
	assert.Len(t, again.From.Tables[0].Joins, 1)
	assert.Same(t, col, again.Select.Columns[1].Expr)
}

func TestFinalizeKeepsSubQueryWithOr(t *testing.T) {
	f := newFixture()
	q, sub := f.countQuery()
	sub.Where.AddOr(f.bigOrders())

	_, err := rewrite.Finalize(q, access.Access)
	require.NoError(t, err)
	assert.Empty(t, q.From.Tables[0].Joins)
	assert.Same(t, sub, q.Select.Columns[1].Expr)
}

func TestFinalizeKeepsSubQueryWhenSupported(t *testing.T) {
	f := newFixture()
	q, sub := f.countQuery()

	_, err := rewrite.Finalize(q, sqlite.SQLite)
	require.NoError(t, err)
	assert.Empty(t, q.From.Tables[0].Joins)
	assert.Same(t, sub, q.Select.Columns[1].Expr)
}

func TestFinalizeReaggregatesInGroupedQuery(t *testing.T) {
	f := newFixture()
	sub := core.NewQuery(core.QuerySelect)
	sub.AddFrom(f.order, "")
	sub.AddColumn(core.NewFunction(core.KindDecimal, "Max", f.orderTotal))
	sub.Where.Add(eq(f.orderCustomer, f.custID))

	q := core.NewQuery(core.QuerySelect)
	q.AddFrom(f.customer, "")
	q.AddColumn(f.city)
	q.AddColumn(sub)
	q.AddGroupBy(f.city)

	_, err := rewrite.Finalize(q, access.Access)
	require.NoError(t, err)

	fn, ok := q.Select.Columns[1].Expr.(*core.Function)
	require.True(t, ok)
	assert.True(t, fn.Is("Max"))
	require.Len(t, fn.Args, 1)
	assert.Same(t, sub.Select.Columns[0], fn.Args[0])
	assert.Equal(t, []core.Expr{f.orderCustomer}, sub.GroupBy)
}

func TestFinalizeMovesPlainSubQueryColumn(t *testing.T) {
	f := newFixture()
	sub := core.NewQuery(core.QuerySelect)
	sub.AddFrom(f.order, "")
	sub.AddColumn(f.orderTotal)
	sub.Where.Add(eq(f.orderCustomer, f.custID))

	q := core.NewQuery(core.QuerySelect)
	q.AddFrom(f.customer, "")
	q.AddColumn(sub)

	_, err := rewrite.Finalize(q, access.Access)
	require.NoError(t, err)

	assert.Same(t, sub.Select.Columns[0], q.Select.Columns[0].Expr)
	assert.Empty(t, sub.GroupBy, "plain subqueries are not grouped")
	assert.Len(t, q.From.Tables[0].Joins, 1)
}

func TestCheckAliases(t *testing.T) {
	tests := []struct {
		alias string
		want  string
	}{
		{"total", "total"},
		{"_total", "total"},
		{"order total", "ordertotal"},
		{"$_x", "x"},
		{"ümlaut9", "mlaut9"},
		{"averyveryverylongalias", "c1"},
		{"$$$", "c1"},
	}

	for _, tt := range tests {
		t.Run(tt.alias, func(t *testing.T) {
			f := newFixture()
			q := core.NewQuery(core.QuerySelect)
			q.AddFrom(f.customer, "")
			q.AddColumnAs(f.custName, tt.alias)

			changed := rewrite.CheckAliases(q, 16)
			assert.Equal(t, tt.want != tt.alias, changed)
			assert.Equal(t, tt.want, q.Select.Columns[0].Alias)
		})
	}
}

func TestFinalizeSanitizesTableAliases(t *testing.T) {
	f := newFixture()
	f.customer.Alias = "_c"
	d := sqlite.SQLite.WithFlags(func(fl *dialect.Flags) { fl.MaxAliasLength = 8 })

	q := core.NewQuery(core.QuerySelect)
	q.AddFrom(f.customer, "the customers")
	q.AddColumn(f.custName)

	_, err := rewrite.Finalize(q, d)
	require.NoError(t, err)
	assert.Equal(t, "c", f.customer.Alias)
	assert.Equal(t, "c", q.From.Tables[0].Alias, "too long aliases are regenerated from the table alias")
}
