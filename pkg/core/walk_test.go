package core_test

import (
	"testing"

	"github.com/leapstack-labs/sqlgen/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueriesVisitsEachQueryOnce(t *testing.T) {
	fx := newFixture()

	sub := core.NewQuery(core.QuerySelect)
	sub.AddFrom(fx.order, "")
	sub.AddColumn(fx.order.Field("CustomerId"))

	q := core.NewQuery(core.QuerySelect)
	q.AddFrom(fx.customer, "")
	q.AddColumn(fx.customer.Field("Name"))
	q.Where.Add(&core.InSubQuery{Expr: fx.customer.Field("Id"), Query: sub})
	q.Where.Add(core.Exists(sub))

	qs := core.Queries(q)
	require.Len(t, qs, 2)
	assert.Same(t, q, qs[0])
	assert.Same(t, sub, qs[1])
}

func TestFind(t *testing.T) {
	fx := newFixture()
	q := core.NewQuery(core.QuerySelect)
	q.AddFrom(fx.customer, "")
	q.AddColumn(core.NewFunction(core.KindString, "UPPER", fx.customer.Field("Name")))

	assert.True(t, core.Find(q, func(n core.Node) bool { return n == fx.customer.Field("Name") }))
	assert.False(t, core.Find(q, func(n core.Node) bool { return n == fx.customer.Field("City") }))
}

func TestReplaceExprCopyOnWrite(t *testing.T) {
	fx := newFixture()
	name := fx.customer.Field("Name")
	city := fx.customer.Field("City")

	upper := core.NewFunction(core.KindString, "UPPER", name)
	concat := core.NewBinary(core.KindString, upper, "+", core.NewValue("x"))

	swap := func(e core.Expr) core.Expr {
		if e == name {
			return city
		}
		return nil
	}

	out := core.ReplaceExpr(concat, swap)
	require.NotSame(t, concat, out)

	b := out.(*core.Binary)
	assert.Same(t, city, b.Left.(*core.Function).Args[0])
	assert.Same(t, name, upper.Args[0], "input tree must stay untouched")

	same := core.ReplaceExpr(concat, func(core.Expr) core.Expr { return nil })
	assert.Same(t, concat, same)
}

func TestReplacePredicate(t *testing.T) {
	fx := newFixture()
	name := fx.customer.Field("Name")
	city := fx.customer.Field("City")

	sc := (&core.SearchCondition{}).
		Add(eq(name, core.NewValue("a"))).
		AddOr(&core.Like{Expr: city, Pattern: core.NewValue("b%")})

	out := core.ReplacePredicate(sc, func(e core.Expr) core.Expr {
		if e == city {
			return name
		}
		return nil
	}).(*core.SearchCondition)

	require.NotSame(t, sc, out)
	assert.Same(t, sc.Conditions[0], out.Conditions[0], "unchanged slots are shared")
	assert.Same(t, name, out.Conditions[1].Predicate.(*core.Like).Expr)
	assert.True(t, out.Conditions[0].Or)
}
