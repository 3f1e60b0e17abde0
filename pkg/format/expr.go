package format

import (
	"fmt"

	"github.com/leapstack-labs/sqlgen/pkg/core"
	"github.com/leapstack-labs/sqlgen/pkg/dialect"
	"github.com/leapstack-labs/sqlgen/pkg/optimize"
)

// caseThenWrap is the WHEN condition width past which THEN moves to its
// own line.
const caseThenWrap = 20

// expr simplifies e and writes it under a parent of precedence parent.
// right marks the right operand of a binary operator.
func (p *Printer) expr(e core.Expr, parent int, right bool) {
	p.node(optimize.Expr(e, p.d.Strategy), parent, right)
}

func (p *Printer) node(e core.Expr, parent int, right bool) {
	if c, ok := e.(*core.Column); ok && c.Parent == p.query {
		p.node(c.Expr, parent, right)
		return
	}

	e = p.d.Strategy.ConvertExpression(e)
	wrap := core.NeedsParens(e.Precedence(), parent, right)
	if wrap {
		p.write("(")
	}

	switch x := e.(type) {
	case *core.Field:
		p.field(x)
	case *core.Column:
		p.column(x)
	case *core.Value:
		p.write(p.value(x.Val))
	case *core.Parameter:
		if x.IsQueryParameter {
			p.write(p.quote(dialect.NameQueryParameter, x.Name))
		} else {
			p.write(p.value(x.Val))
		}
	case *core.Function:
		p.function(x)
	case *core.Binary:
		p.node(x.Left, x.Precedence(), false)
		p.write(" ", x.Op, " ")
		p.node(x.Right, x.Precedence(), true)
	case *core.Raw:
		args := make([]any, len(x.Args))
		for i, a := range x.Args {
			args[i] = p.capture(func() { p.node(a, x.Precedence(), false) })
		}
		p.write(fmt.Sprintf(x.Format, args...))
	case *core.DataType:
		p.write(p.d.Strategy.DataTypeName(x, false))
	case *core.Query:
		p.subqueryExpr(x, true)
	case *core.Table:
		p.write(p.tableName(x))
	case *core.SearchCondition:
		p.conditionValue(x)
	default:
		p.fail(core.ErrUnknownNode, e)
	}

	if wrap {
		p.write(")")
	}
}

// field writes f qualified by its table source alias, or by the table name
// when the source has none or f belongs to the statement target.
func (p *Printer) field(f *core.Field) {
	name := "*"
	if !f.IsAll() {
		name = p.quote(dialect.NameField, f.Physical())
	}
	if f.Table == nil {
		p.write(name)
		return
	}

	ts := p.query.TableSource(f.Table)
	switch {
	case ts != nil && ts.Alias != "" && !ts.NoAlias:
		p.write(p.quote(dialect.NameTableAlias, ts.Alias), ".", name)
	case ts != nil, p.isTarget(f.Table):
		p.write(p.tableName(f.Table), ".", name)
	default:
		p.fail(core.ErrTableNotFound, f.Table.Name)
	}
}

// isTarget reports whether t is written by the current statement or one
// enclosing it.
func (p *Printer) isTarget(t *core.Table) bool {
	for q := p.query; q != nil; q = q.Parent {
		if q.Update.Table == t || q.Insert.Into == t {
			return true
		}
	}
	return false
}

// fieldName writes the bare name of a SET or INSERT column.
func (p *Printer) fieldName(e core.Expr) {
	if f, ok := e.(*core.Field); ok {
		p.write(p.quote(dialect.NameField, f.Physical()))
		return
	}
	p.expr(e, core.PrecedenceUnknown, false)
}

// column writes a column of a derived table through the alias of its
// table source.
func (p *Printer) column(c *core.Column) {
	if c.Parent == nil {
		p.fail(core.ErrColumnTableNotFound, c.Alias)
	}
	ts := p.query.TableSource(c.Parent)
	if ts == nil {
		p.fail(core.ErrColumnTableNotFound, c.Alias)
	}
	if ts.Alias == "" || ts.NoAlias {
		p.fail(core.ErrTableNeedsAlias, "subquery")
	}
	alias := c.Alias
	if alias == "" {
		for i, x := range c.Parent.Select.Columns {
			if x == c {
				alias = columnAlias(i, c)
			}
		}
	}
	p.write(p.quote(dialect.NameTableAlias, ts.Alias), ".", p.quote(dialect.NameField, alias))
}

func (p *Printer) function(f *core.Function) {
	if f.Is(optimize.FuncCase) {
		p.caseExpr(f)
		return
	}
	if q, ok := existsQuery(f); ok {
		p.write("EXISTS(")
		p.writeln()
		p.subquery(q, p.indent+1, true)
		p.writeIndent()
		p.write(")")
		return
	}

	p.write(f.Name, "(")
	for i, a := range f.Args {
		if i > 0 {
			p.write(", ")
		}
		p.node(a, core.PrecedenceUnknown, false)
	}
	p.write(")")
}

func existsQuery(f *core.Function) (*core.Query, bool) {
	if !f.Is("EXISTS") || len(f.Args) != 1 {
		return nil, false
	}
	q, ok := f.Args[0].(*core.Query)
	return q, ok
}

// caseExpr writes CASE with one WHEN per line. THEN moves to the next line
// when the condition is long.
func (p *Printer) caseExpr(f *core.Function) {
	p.write("CASE")
	p.writeln()
	p.indent++
	i := 0
	for ; i+1 < len(f.Args); i += 2 {
		p.writeIndent()
		cond := p.capture(func() { p.caseCondition(f.Args[i]) })
		p.write("WHEN ", cond)
		if len(cond) > caseThenWrap {
			p.writeln()
			p.writeIndent()
			p.write("\tTHEN ")
		} else {
			p.write(" THEN ")
		}
		p.node(f.Args[i+1], core.PrecedenceUnknown, false)
		p.writeln()
	}
	if i < len(f.Args) {
		p.writeIndent()
		p.write("ELSE ")
		p.node(f.Args[i], core.PrecedenceUnknown, false)
		p.writeln()
	}
	p.indent--
	p.writeIndent()
	p.write("END")
}

// conditionValue writes sc where a value is expected.
func (p *Printer) conditionValue(sc *core.SearchCondition) {
	if p.inCondition || !p.d.Strategy.WrapCondition(p.step) {
		p.searchCondition(sc, false)
		return
	}
	p.inCondition = true
	p.write("CASE WHEN ")
	p.searchCondition(sc, false)
	p.write(" THEN ", p.value(true), " ELSE ", p.value(false), " END")
	p.inCondition = false
}

// caseCondition writes a WHEN condition; a boolean value is compared with
// true.
func (p *Printer) caseCondition(e core.Expr) {
	if sc, ok := e.(*core.SearchCondition); ok {
		p.searchCondition(sc, false)
		return
	}
	p.node(e, core.PrecedenceComparison, false)
	if isBoolValue(e) {
		p.write(" = ", p.value(true))
	}
}

// isBoolValue reports whether e is a boolean column, parameter or function
// result, which needs an explicit comparison to be a condition.
func isBoolValue(e core.Expr) bool {
	if e.SystemType() != core.KindBool {
		return false
	}
	switch x := e.(type) {
	case *core.Field, *core.Column, *core.Parameter:
		return true
	case *core.Function:
		_, exists := existsQuery(x)
		return !exists
	}
	return false
}
