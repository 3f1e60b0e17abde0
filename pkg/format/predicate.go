package format

import (
	"reflect"
	"strings"

	"github.com/leapstack-labs/sqlgen/pkg/core"
	"github.com/leapstack-labs/sqlgen/pkg/optimize"
)

// Top-level WHERE and HAVING conditions go one per line from this many
// conditions or this much text on.
const (
	lineBreakConditions = 4
	lineBreakWidth      = 50
)

// searchCondition writes the conditions of sc joined by their connectors.
// Children binding looser than the chain are parenthesized.
func (p *Printer) searchCondition(sc *core.SearchCondition, top bool) {
	if sc.IsEmpty() {
		p.write("1 = 1")
		return
	}

	// a lone condition has no connector to bind against
	parent := core.PrecedenceLogicalConjunction + 1
	switch {
	case len(sc.Conditions) == 1:
		parent = core.PrecedenceLogicalDisjunction
	case sc.HasOr():
		parent = core.PrecedenceLogicalDisjunction + 1
	}

	parts := make([]string, len(sc.Conditions))
	width := 0
	for i, c := range sc.Conditions {
		parts[i] = p.capture(func() { p.condition(c, parent) })
		width += len(parts[i])
	}

	broken := top && (len(parts) >= lineBreakConditions || width >= lineBreakWidth)
	for i, part := range parts {
		if i > 0 {
			conn := "AND"
			if sc.Conditions[i-1].Or {
				conn = "OR"
			}
			if broken {
				p.write(" ", conn)
				p.writeln()
				p.writeIndent()
			} else {
				p.write(" ", conn, " ")
			}
		}
		p.write(part)
	}
}

func (p *Printer) condition(c *core.Condition, parent int) {
	pred := optimize.Predicate(c.Predicate, p.query, p.d.Strategy)
	if !c.Not {
		p.predicate(pred, parent)
		return
	}
	wrap := core.NeedsParens(core.PrecedenceLogicalNegation, parent, false)
	if wrap {
		p.write("(")
	}
	p.write("NOT ")
	p.predicate(pred, core.PrecedenceLogicalNegation)
	if wrap {
		p.write(")")
	}
}

func (p *Printer) predicate(pred core.Predicate, parent int) {
	wrap := core.NeedsParens(pred.Precedence(), parent, false)
	if wrap {
		p.write("(")
	}

	switch x := pred.(type) {
	case *core.ExprExpr:
		p.comparison(x)
	case *core.Like:
		p.expr(x.Expr, core.PrecedenceComparison, false)
		if x.Not {
			p.write(" NOT")
		}
		p.write(" LIKE ")
		p.expr(x.Pattern, core.PrecedenceComparison, true)
		if x.Escape != nil {
			p.write(" ESCAPE ")
			p.expr(x.Escape, core.PrecedenceComparison, true)
		}
	case *core.Between:
		p.expr(x.Expr, core.PrecedenceComparison, false)
		if x.Not {
			p.write(" NOT")
		}
		p.write(" BETWEEN ")
		p.expr(x.Low, core.PrecedenceComparison, false)
		p.write(" AND ")
		p.expr(x.High, core.PrecedenceComparison, true)
	case *core.IsNull:
		p.isNull(x.Expr, x.Not)
	case *core.InSubQuery:
		p.expr(x.Expr, core.PrecedenceComparison, false)
		if x.Not {
			p.write(" NOT")
		}
		p.write(" IN ")
		p.subqueryExpr(x.Query, true)
	case *core.InList:
		p.inList(x)
	case *core.FuncLike:
		p.function(x.Func)
	case *core.ExprPredicate:
		p.exprPredicate(x)
	case *core.NotExpr:
		if x.Not {
			p.write("NOT ")
		}
		p.expr(x.Expr, core.PrecedenceLogicalNegation, false)
	case *core.SearchCondition:
		p.searchCondition(x, false)
	default:
		p.fail(core.ErrUnknownNode, pred)
	}

	if wrap {
		p.write(")")
	}
}

func (p *Printer) comparison(x *core.ExprExpr) {
	if x.Op == core.OpEqual || x.Op == core.OpNotEqual {
		switch {
		case isNullLiteral(x.Right):
			p.isNull(x.Left, x.Op == core.OpNotEqual)
			return
		case isNullLiteral(x.Left):
			p.isNull(x.Right, x.Op == core.OpNotEqual)
			return
		}
	}

	op := x.Op
	if !p.d.Flags.IsNegatedComparisonSupported {
		switch op {
		case core.OpNotGreater:
			op = core.OpLessOrEqual
		case core.OpNotLess:
			op = core.OpGreaterOrEqual
		}
	}
	p.expr(x.Left, core.PrecedenceComparison, false)
	p.write(" ", op.String(), " ")
	p.expr(x.Right, core.PrecedenceComparison, true)
}

func (p *Printer) isNull(e core.Expr, not bool) {
	p.expr(e, core.PrecedenceComparison, false)
	if not {
		p.write(" IS NOT NULL")
	} else {
		p.write(" IS NULL")
	}
}

// isNullLiteral reports whether e is a NULL literal or an inlined
// parameter holding nil.
func isNullLiteral(e core.Expr) bool {
	switch x := e.(type) {
	case *core.Value:
		return x.Val == nil
	case *core.Parameter:
		return !x.IsQueryParameter && x.Val == nil
	}
	return false
}

func (p *Printer) exprPredicate(x *core.ExprPredicate) {
	if v, ok := x.Literal(); ok {
		p.write(boolCondition(v))
		return
	}
	p.expr(x.Expr, core.PrecedenceComparison, false)
	if isBoolValue(x.Expr) {
		p.write(" = ", p.value(true))
	}
}

func boolCondition(v bool) string {
	if v {
		return "1 = 1"
	}
	return "1 = 0"
}

// inList writes expr [NOT] IN (...). A lone parameter holding a slice is
// expanded into its elements and a table or query operand is compared on
// its keys against row values.
func (p *Printer) inList(x *core.InList) {
	values := x.Values
	if len(values) == 1 {
		if prm, ok := values[0].(*core.Parameter); ok {
			if elems, isList := expand(prm.Val); isList {
				values = elems
			}
		}
	}
	if len(values) == 0 {
		p.write(boolCondition(x.Not))
		return
	}
	if src, ok := x.Expr.(core.Source); ok {
		p.rowInList(x, src, values)
		return
	}
	p.valueList(x.Expr, x.Not, values)
}

// expand returns the elements of a slice or array value.
func expand(v any) ([]core.Expr, bool) {
	switch v.(type) {
	case nil, string, []byte:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]core.Expr, rv.Len())
	for i := range out {
		out[i] = core.NewValue(rv.Index(i).Interface())
	}
	return out, true
}

// valueList writes the general IN list. NULLs leave the list for an IS
// NULL branch and the rest is split into buckets of at most
// MaxInListValuesCount values.
func (p *Printer) valueList(e core.Expr, not bool, values []core.Expr) {
	var items []core.Expr
	hasNull := false
	for _, v := range values {
		if isNullLiteral(v) {
			hasNull = true
			continue
		}
		items = append(items, v)
	}

	subject := p.capture(func() { p.expr(e, core.PrecedenceComparison, false) })
	if len(items) == 0 {
		p.isNull(e, not)
		return
	}

	size := p.d.Flags.MaxInListValuesCount
	if size <= 0 {
		size = len(items)
	}
	op := " IN ("
	if not {
		op = " NOT IN ("
	}
	var parts []string
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		list := p.capture(func() {
			for i, v := range items[start:end] {
				if i > 0 {
					p.write(", ")
				}
				p.expr(v, core.PrecedenceUnknown, false)
			}
		})
		parts = append(parts, subject+op+list+")")
	}

	conn := " OR "
	if not {
		conn = " AND "
	}
	if hasNull {
		if not {
			parts = append(parts, subject+" IS NOT NULL")
		} else {
			parts = append(parts, subject+" IS NULL")
		}
	}

	text := strings.Join(parts, conn)
	if len(parts) > 1 {
		text = "(" + text + ")"
	}
	p.write(text)
}

// rowInList compares the keys of src with the key values of every row.
func (p *Printer) rowInList(x *core.InList, src core.Source, values []core.Expr) {
	keys := src.Keys()
	if len(keys) == 0 {
		p.fail(core.ErrEmptyKeys, sourceName(src))
	}

	rows := make([]core.RowValues, len(values))
	for i, v := range values {
		rows[i] = rowOf(v)
		if rows[i] == nil {
			p.fail(core.ErrValueType, valueOf(v))
		}
	}
	keyValue := func(row core.RowValues, key core.Expr) core.Expr {
		f := core.UnderlyingField(key)
		if f == nil {
			return core.NewValue(nil)
		}
		v, _ := row.FieldValue(f)
		return core.NewValue(v)
	}

	if len(keys) == 1 {
		vals := make([]core.Expr, len(rows))
		for i, row := range rows {
			vals[i] = keyValue(row, keys[0])
		}
		p.valueList(keys[0], x.Not, vals)
		return
	}

	if x.Not {
		p.write("NOT ")
	}
	p.write("(")
	for i, row := range rows {
		if i > 0 {
			p.write(" OR ")
		}
		for j, k := range keys {
			if j > 0 {
				p.write(" AND ")
			}
			v := keyValue(row, k)
			if isNullLiteral(v) {
				p.isNull(k, false)
				continue
			}
			p.expr(k, core.PrecedenceComparison, false)
			p.write(" = ")
			p.expr(v, core.PrecedenceComparison, true)
		}
	}
	p.write(")")
}

func rowOf(e core.Expr) core.RowValues {
	r, _ := valueOf(e).(core.RowValues)
	return r
}

func valueOf(e core.Expr) any {
	switch x := e.(type) {
	case *core.Value:
		return x.Val
	case *core.Parameter:
		return x.Val
	}
	return e
}

func sourceName(src core.Source) string {
	if t, ok := src.(*core.Table); ok {
		return t.Name
	}
	return "subquery"
}
