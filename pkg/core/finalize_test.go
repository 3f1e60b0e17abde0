package core_test

import (
	"testing"

	"github.com/leapstack-labs/sqlgen/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mssqlOptions = core.FinalizeOptions{Dialect: "mssql", ApplyJoinSupported: true, GroupByExpressionSupported: true}

func TestFinalizeAndValidate_Aliases(t *testing.T) {
	fx := newFixture()

	q := core.NewQuery(core.QuerySelect)
	cts := q.AddFrom(fx.customer, "")
	ots := core.NewTableSource(fx.order, "")
	cts.Join(core.JoinLeft, ots, eq(fx.order.Field("CustomerId"), fx.customer.Field("Id")))
	q.AddColumn(fx.customer.Field("Name"))
	q.AddColumn(fx.order.Field("Id"))
	q.AddColumn(fx.customer.Field("Id"))
	q.AddColumn(core.NewBinary(core.KindDecimal, fx.order.Field("Total"), "*", core.NewValue(2)))

	require.NoError(t, core.FinalizeAndValidate(q, mssqlOptions))

	assert.Equal(t, "c", cts.Alias, "table alias is preferred when free")
	assert.Equal(t, "t1", ots.Alias)

	aliases := make([]string, len(q.Select.Columns))
	for i, c := range q.Select.Columns {
		aliases[i] = c.Alias
		assert.Same(t, q, c.Parent)
	}
	assert.Equal(t, []string{"Name", "Id", "Id1", "c4"}, aliases)

	// A second run changes nothing.
	require.NoError(t, core.FinalizeAndValidate(q, mssqlOptions))
	assert.Equal(t, "c", cts.Alias)
	assert.Equal(t, "t1", ots.Alias)
	assert.Equal(t, "Id1", q.Select.Columns[2].Alias)
}

func TestFinalizeAndValidate_DuplicateAliasesAcrossTree(t *testing.T) {
	fx := newFixture()

	sub := core.NewQuery(core.QuerySelect)
	inner := sub.AddFrom(fx.customer, "")
	sub.AddColumn(fx.customer.Field("Id"))

	q := core.NewQuery(core.QuerySelect)
	outer := q.AddFrom(fx.customer, "")
	q.AddColumn(fx.customer.Field("Name"))
	q.Where.Add(&core.InSubQuery{Expr: fx.customer.Field("Id"), Query: sub})

	require.NoError(t, core.FinalizeAndValidate(q, mssqlOptions))

	assert.Same(t, q, sub.Parent)
	assert.Equal(t, "c", outer.Alias)
	assert.Equal(t, "c1", inner.Alias)
}

func TestFinalizeAndValidate_RemovesDuplicateJoins(t *testing.T) {
	fx := newFixture()

	q := core.NewQuery(core.QuerySelect)
	cts := q.AddFrom(fx.customer, "c")
	cond := eq(fx.order.Field("CustomerId"), fx.customer.Field("Id"))
	cts.Join(core.JoinInner, core.NewTableSource(fx.order, "o"), cond)
	cts.Join(core.JoinInner, core.NewTableSource(fx.order, "o2"), cond)
	q.AddColumn(fx.customer.Field("Name"))

	require.NoError(t, core.FinalizeAndValidate(q, mssqlOptions))
	require.Len(t, cts.Joins, 1)
	assert.Equal(t, "o", cts.Joins[0].Table.Alias)
}

func TestFinalizeAndValidate_Errors(t *testing.T) {
	fx := newFixture()

	t.Run("apply join", func(t *testing.T) {
		q := core.NewQuery(core.QuerySelect)
		cts := q.AddFrom(fx.customer, "")
		cts.Join(core.JoinCrossApply, core.NewTableSource(fx.order, ""))
		q.AddColumn(fx.customer.Field("Name"))

		err := core.FinalizeAndValidate(q, core.FinalizeOptions{Dialect: "sqlite", GroupByExpressionSupported: true})
		var genErr *core.Error
		require.ErrorAs(t, err, &genErr)
		assert.Contains(t, genErr.Message, "apply joins")
		assert.Contains(t, genErr.Message, "sqlite")
	})

	t.Run("group by expression", func(t *testing.T) {
		q := core.NewQuery(core.QuerySelect)
		q.AddFrom(fx.order, "")
		q.AddColumn(core.NewFunction(core.KindInt32, "COUNT", core.Star()))
		q.GroupBy = append(q.GroupBy, core.NewBinary(core.KindDecimal, fx.order.Field("Total"), "/", core.NewValue(10)))

		err := core.FinalizeAndValidate(q, core.FinalizeOptions{Dialect: "access"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "GROUP BY expressions")
	})
}

func TestFinalizeAndValidate_NoAliasTargetsKeepTheirName(t *testing.T) {
	fx := newFixture()

	q := core.NewQuery(core.QueryDelete)
	ts := q.AddFrom(fx.order, "")
	ts.NoAlias = true
	q.Where.Add(eq(fx.order.Field("Id"), core.NewValue(1)))

	require.NoError(t, core.FinalizeAndValidate(q, mssqlOptions))
	assert.Empty(t, ts.Alias)
}

func TestQueryTempAliases(t *testing.T) {
	fx := newFixture()

	q := core.NewQuery(core.QuerySelect)
	q.AddFrom(fx.customer, "t1")
	q.AddColumnAs(fx.customer.Field("Name"), "rn1")

	assert.Equal(t, []string{"t2", "t3"}, q.TempAliases(2, "t"))
	assert.Equal(t, []string{"rn2"}, q.TempAliases(1, "rn"))
}
