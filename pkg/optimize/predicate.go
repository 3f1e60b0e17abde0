package optimize

import "github.com/leapstack-labs/sqlgen/pkg/core"

// Predicate returns the simplified form of p. Comparison operands are
// simplified with Expr first. When a NULL-safe rewrite would depend on the
// runtime value of a parameter, q is marked parameter dependent instead;
// q may be nil.
func Predicate(p core.Predicate, q *core.Query, s Sizer) core.Predicate {
	o := optimizer{sizer: s}
	return o.predicate(p, q)
}

func (o optimizer) predicate(p core.Predicate, q *core.Query) core.Predicate {
	switch x := p.(type) {
	case *core.ExprExpr:
		return o.comparison(x, q)
	case *core.NotExpr:
		return o.not(x, q)
	default:
		return p
	}
}

func (o optimizer) comparison(x *core.ExprExpr, q *core.Query) core.Predicate {
	if l, r := o.expr(x.Left), o.expr(x.Right); l != x.Left || r != x.Right {
		x = &core.ExprExpr{Left: l, Op: x.Op, Right: r, Strict: x.Strict}
	}

	if x.Op == core.OpEqual || x.Op == core.OpNotEqual {
		lv, lok := x.Left.(*core.Value)
		rv, rok := x.Right.(*core.Value)
		if lok && rok {
			equal := core.ValuesEqual(lv.Val, rv.Val)
			return &core.ExprPredicate{Expr: core.NewValue(equal == (x.Op == core.OpEqual)), Prec: core.PrecedenceComparison}
		}
	}

	switch x.Op {
	case core.OpEqual, core.OpNotEqual, core.OpGreater, core.OpGreaterOrEqual, core.OpLess, core.OpLessOrEqual:
		if r := o.optimizeCase(x, q); r != nil {
			return r
		}
	}

	if x.Strict || (x.Op != core.OpEqual && x.Op != core.OpNotEqual) {
		return x
	}
	if !x.Left.CanBeNull() || !x.Right.CanBeNull() {
		return x
	}
	if isParameter(x.Left) || isParameter(x.Right) {
		if q != nil {
			q.IsParameterDependent = true
		}
		return x
	}
	if isFieldOrColumn(x.Left) && isFieldOrColumn(x.Right) {
		return NullSafeEqual(x)
	}
	return x
}

func isParameter(e core.Expr) bool {
	_, ok := e.(*core.Parameter)
	return ok
}

func isFieldOrColumn(e core.Expr) bool {
	switch e.(type) {
	case *core.Field, *core.Column:
		return true
	}
	return false
}

// NullSafeEqual expands a = b into
// a IS NULL AND b IS NULL OR a IS NOT NULL AND b IS NOT NULL AND a = b,
// and a <> b into its dual. The inner comparison is strict.
func NullSafeEqual(x *core.ExprExpr) *core.SearchCondition {
	a, b := x.Left, x.Right
	cmp := &core.ExprExpr{Left: a, Op: x.Op, Right: b, Strict: true}
	sc := &core.SearchCondition{}

	if x.Op == core.OpEqual {
		sc.Add(&core.IsNull{Expr: a}).
			Add(&core.IsNull{Expr: b}).
			AddOr(&core.IsNull{Expr: a, Not: true}).
			Add(&core.IsNull{Expr: b, Not: true}).
			Add(cmp)
		return sc
	}

	sc.Add(&core.IsNull{Expr: a}).
		Add(&core.IsNull{Expr: b, Not: true}).
		AddOr(&core.IsNull{Expr: a, Not: true}).
		Add(&core.IsNull{Expr: b}).
		AddOr(cmp)
	return sc
}

func (o optimizer) not(x *core.NotExpr, q *core.Query) core.Predicate {
	sc, ok := x.Expr.(*core.SearchCondition)
	if !x.Not || !ok || len(sc.Conditions) != 1 {
		return x
	}

	c := sc.Conditions[0]
	if c.Not {
		return o.predicate(c.Predicate, q)
	}
	if n, isNull := c.Predicate.(*core.IsNull); isNull {
		return &core.IsNull{Expr: n.Expr, Not: !n.Not}
	}
	if ee, isCmp := c.Predicate.(*core.ExprExpr); isCmp {
		switch ee.Op {
		case core.OpEqual:
			return o.predicate(&core.ExprExpr{Left: ee.Left, Op: core.OpNotEqual, Right: ee.Right}, q)
		case core.OpNotEqual:
			return o.predicate(&core.ExprExpr{Left: ee.Left, Op: core.OpEqual, Right: ee.Right}, q)
		}
	}
	return x
}

// InvertOperator returns the operator of the logical negation of a
// comparison. With skipEqual, = and <> are returned unchanged.
func InvertOperator(op core.Operator, skipEqual bool) core.Operator {
	switch op {
	case core.OpEqual:
		if skipEqual {
			return op
		}
		return core.OpNotEqual
	case core.OpNotEqual:
		if skipEqual {
			return op
		}
		return core.OpEqual
	case core.OpGreater:
		return core.OpLessOrEqual
	case core.OpGreaterOrEqual, core.OpNotLess:
		return core.OpLess
	case core.OpLess:
		return core.OpGreaterOrEqual
	case core.OpLessOrEqual, core.OpNotGreater:
		return core.OpGreater
	default:
		return op
	}
}

// MirrorOperator returns the operator that holds with the operands swapped.
func MirrorOperator(op core.Operator) core.Operator {
	switch op {
	case core.OpGreater:
		return core.OpLess
	case core.OpGreaterOrEqual:
		return core.OpLessOrEqual
	case core.OpNotGreater:
		return core.OpNotLess
	case core.OpLess:
		return core.OpGreater
	case core.OpLessOrEqual:
		return core.OpGreaterOrEqual
	case core.OpNotLess:
		return core.OpNotGreater
	default:
		return op
	}
}

func compare(a, b int64, op core.Operator) bool {
	switch op {
	case core.OpEqual:
		return a == b
	case core.OpNotEqual:
		return a != b
	case core.OpGreater:
		return a > b
	case core.OpGreaterOrEqual, core.OpNotLess:
		return a >= b
	case core.OpLess:
		return a < b
	case core.OpLessOrEqual, core.OpNotGreater:
		return a <= b
	default:
		return false
	}
}

// optimizeCase collapses a literal compared with a small CASE built from
// simple comparisons. It returns nil when the shape is not recognized.
func (o optimizer) optimizeCase(x *core.ExprExpr, q *core.Query) core.Predicate {
	value, valueOK := x.Left.(*core.Value)
	fn, fnOK := x.Right.(*core.Function)
	valueFirst := valueOK && fnOK
	if !valueFirst {
		value, valueOK = x.Right.(*core.Value)
		fn, fnOK = x.Left.(*core.Function)
	}
	if !valueOK || !fnOK || !fn.Is(FuncCase) {
		return nil
	}

	if n, isInt := core.IntValue(value.Val); isInt && len(fn.Args) == 5 {
		return o.rankingCase(x, q, fn, n, valueFirst)
	}
	if bv, isBool := value.Val.(bool); isBool && len(fn.Args) == 3 {
		return booleanCase(x, fn, bv)
	}
	if x.Op == core.OpEqual && len(fn.Args) == 3 {
		sc, scOK := fn.Args[0].(*core.SearchCondition)
		v1, v1OK := fn.Args[1].(*core.Value)
		v2, v2OK := fn.Args[2].(*core.Value)
		if !scOK || !v1OK || !v2OK || core.ValuesEqual(v1.Val, v2.Val) {
			return nil
		}
		if core.ValuesEqual(value.Val, v1.Val) {
			return sc
		}
		if core.ValuesEqual(value.Val, v2.Val) && !sc.CanBeNull() {
			return o.predicate(&core.NotExpr{Expr: sc, Not: true, Prec: core.PrecedenceLogicalNegation}, q)
		}
	}
	return nil
}

// singleComparison returns the comparison of a one-condition search
// condition.
func singleComparison(e core.Expr) (*core.ExprExpr, bool) {
	sc, ok := e.(*core.SearchCondition)
	if !ok || len(sc.Conditions) != 1 || sc.Conditions[0].Not {
		return nil, false
	}
	ee, ok := sc.Conditions[0].Predicate.(*core.ExprExpr)
	return ee, ok
}

// rankingCase handles CASE WHEN c1 THEN i1 WHEN c2 THEN i2 ELSE i3 END
// compared with the integer n, where c1 and c2 compare the same operands.
func (o optimizer) rankingCase(x *core.ExprExpr, q *core.Query, fn *core.Function, n int64, valueFirst bool) core.Predicate {
	ee1, ok1 := singleComparison(fn.Args[0])
	ee2, ok2 := singleComparison(fn.Args[2])
	i1, ok3 := intLiteral(fn.Args[1])
	i2, ok4 := intLiteral(fn.Args[3])
	i3, ok5 := intLiteral(fn.Args[4])
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return nil
	}
	if !core.Equal(ee1.Left, ee2.Left) || !core.Equal(ee1.Right, ee2.Right) {
		return nil
	}

	has := func(op core.Operator) int {
		if ee1.Op == op || ee2.Op == op {
			return 1
		}
		return 0
	}
	e, g, l := has(core.OpEqual), has(core.OpGreater), has(core.OpLess)
	if e+g+l != 2 {
		return nil
	}

	holds := func(i int64) int {
		a, b := i, n
		if valueFirst {
			a, b = n, i
		}
		if compare(a, b, x.Op) {
			return 1
		}
		return 0
	}
	n1, n2, n3 := holds(i1), holds(i2), holds(i3)

	if n1+n2+n3 == 1 {
		switch {
		case n1 == 1:
			return ee1
		case n2 == 1:
			return ee2
		}
		op := core.OpLess
		switch {
		case e == 0:
			op = core.OpEqual
		case g == 0:
			op = core.OpGreater
		}
		return o.predicate(&core.ExprExpr{Left: ee1.Left, Op: op, Right: ee1.Right}, q)
	}

	// CASE WHEN a > b THEN 1 WHEN a = b THEN 0 ELSE -1 END op 0 is a op b.
	if ee1.Op == core.OpGreater && i1 == 1 && ee2.Op == core.OpEqual && i2 == 0 && i3 == -1 && n == 0 {
		op := x.Op
		if valueFirst {
			op = MirrorOperator(op)
		}
		return o.predicate(&core.ExprExpr{Left: ee1.Left, Op: op, Right: ee1.Right}, q)
	}
	return nil
}

// booleanCase handles CASE WHEN c THEN b1 ELSE b2 END compared with a
// boolean literal.
func booleanCase(x *core.ExprExpr, fn *core.Function, bv bool) core.Predicate {
	if x.Op != core.OpEqual && x.Op != core.OpNotEqual {
		return nil
	}
	sc, scOK := fn.Args[0].(*core.SearchCondition)
	b1, ok1 := boolLiteral(fn.Args[1])
	b2, ok2 := boolLiteral(fn.Args[2])
	if !scOK || len(sc.Conditions) != 1 || !ok1 || !ok2 || b1 == b2 {
		return nil
	}

	if (bv == b1) == (x.Op == core.OpEqual) {
		return sc
	}
	if ee, ok := singleComparison(sc); ok {
		return &core.ExprExpr{Left: ee.Left, Op: InvertOperator(ee.Op, false), Right: ee.Right}
	}
	return core.NewSearchCondition(&core.Condition{Not: true, Predicate: sc})
}
