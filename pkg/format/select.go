package format

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlgen/pkg/core"
	"github.com/leapstack-labs/sqlgen/pkg/dialect"
)

func (p *Printer) buildSelect() {
	q := p.query
	p.checkPaging(q)
	if len(q.Unions) > 0 && (q.Select.Skip != nil || q.Select.Take != nil) {
		p.fail(core.ErrPagedUnion)
	}

	if p.emulatesSkip(q) {
		switch p.d.Paging.Emulation {
		case dialect.PagingRowNumber:
			p.buildRowNumberPaging()
		case dialect.PagingNestedTop:
			p.buildNestedTopPaging()
		default:
			p.fail(core.ErrSkipNotSupported, p.d.Name)
		}
	} else {
		p.selectClause(q)
		p.fromClause(q)
		p.whereClause(q)
		p.groupByClause(q)
		p.havingClause(q)
		p.orderByClause(q)
		p.offsetLimitClause(q)
	}

	for _, u := range q.Unions {
		if u.All {
			p.line("UNION ALL")
		} else {
			p.line("UNION")
		}
		c := &Printer{d: p.d, buf: p.buf, indent: p.indent, nesting: p.nesting, skipAlias: p.skipAlias}
		c.build(u.Query)
		p.nesting = c.nesting
	}
}

func (p *Printer) selectClause(q *core.Query) {
	p.step = dialect.StepSelect
	p.writeIndent()
	p.write("SELECT")
	if q.Select.Distinct {
		p.write(" DISTINCT")
	}
	p.selectModifiers(q)
	p.writeln()
	p.selectColumns(q.Select.Columns, false)
}

// selectColumns writes a projection. forceAlias names every column
// even when the printer skips aliases.
func (p *Printer) selectColumns(cols []*core.Column, forceAlias bool) {
	if len(cols) == 0 {
		p.indent++
		p.line("*")
		p.indent--
		return
	}
	p.formatList(len(cols), func(i int) {
		c := cols[i]
		p.expr(c.Expr, core.PrecedenceUnknown, false)
		if forceAlias {
			p.write(" AS ", p.quote(dialect.NameFieldAlias, columnAlias(i, c)))
		} else if a := p.columnAlias(c); a != "" {
			p.write(" AS ", p.quote(dialect.NameFieldAlias, a))
		}
	})
}

// columnAlias returns the alias to write for c, or "" when the column
// already carries that name.
func (p *Printer) columnAlias(c *core.Column) string {
	if p.skipAlias || c.Alias == "" {
		return ""
	}
	switch e := c.Expr.(type) {
	case *core.Field:
		if e.IsAll() || e.Physical() == c.Alias {
			return ""
		}
	case *core.Column:
		if e.Parent != p.query && e.Alias == c.Alias {
			return ""
		}
	}
	return c.Alias
}

func columnAlias(i int, c *core.Column) string {
	if c.Alias != "" {
		return c.Alias
	}
	return fmt.Sprintf("c%d", i+1)
}

func (p *Printer) fromClause(q *core.Query) {
	if len(q.From.Tables) == 0 {
		return
	}
	p.step = dialect.StepFrom
	p.line("FROM")
	p.formatList(len(q.From.Tables), func(i int) {
		p.tableSource(q.From.Tables[i])
	})
}

func (p *Printer) tableSource(ts *core.TableSource) {
	if p.d.ParenthesizeJoins {
		p.write(strings.Repeat("(", len(ts.Joins)))
	}
	p.source(ts)
	p.joins(ts)
}

func (p *Printer) joins(ts *core.TableSource) {
	p.indent++
	for _, j := range ts.Joins {
		p.writeln()
		p.writeIndent()
		p.join(j)
		if p.d.ParenthesizeJoins {
			p.write(")")
		}
	}
	p.indent--
}

func (p *Printer) join(j *core.JoinedTable) {
	p.write(j.Kind.String(), " ")
	nested := len(j.Table.Joins) > 0
	switch {
	case nested && p.d.Flags.IsNestedJoinSupported:
		paren := p.d.Flags.IsNestedJoinParenthesisRequired && !p.d.ParenthesizeJoins
		if paren {
			p.write("(")
		}
		p.tableSource(j.Table)
		if paren {
			p.write(")")
		}
		p.joinCondition(j)
	case nested:
		// flattened: the nested joins follow their parent
		p.source(j.Table)
		p.joinCondition(j)
		p.joins(j.Table)
	default:
		p.source(j.Table)
		p.joinCondition(j)
	}
}

func (p *Printer) joinCondition(j *core.JoinedTable) {
	if j.Kind.IsApply() {
		return
	}
	p.write(" ON ")
	if j.Condition.IsEmpty() {
		p.write("1 = 1")
		return
	}
	p.searchCondition(j.Condition, false)
}

func (p *Printer) source(ts *core.TableSource) {
	switch s := ts.Source.(type) {
	case *core.Table:
		p.write(p.tableName(s))
		if ts.Alias != "" && !ts.NoAlias {
			p.write(" ", p.quote(dialect.NameTableAlias, ts.Alias))
		}
	case *core.Query:
		if ts.Alias == "" || ts.NoAlias {
			p.fail(core.ErrTableNeedsAlias, "subquery")
		}
		p.subqueryExpr(s, false)
		p.write(" ", p.quote(dialect.NameTableAlias, ts.Alias))
	default:
		p.fail(core.ErrUnknownNode, ts.Source)
	}
}

// tableName returns the qualified physical name of t.
func (p *Printer) tableName(t *core.Table) string {
	name := p.quote(dialect.NameTable, t.Physical())
	switch {
	case t.Database != "" && t.Owner != "":
		return p.quote(dialect.NameDatabase, t.Database) + "." + p.quote(dialect.NameOwner, t.Owner) + "." + name
	case t.Database != "":
		return p.quote(dialect.NameDatabase, t.Database) + ".." + name
	case t.Owner != "":
		return p.quote(dialect.NameOwner, t.Owner) + "." + name
	}
	return name
}

func (p *Printer) whereClause(q *core.Query) {
	if q.Where.IsEmpty() {
		return
	}
	p.step = dialect.StepWhere
	p.line("WHERE")
	p.indent++
	p.writeIndent()
	p.searchCondition(q.Where, true)
	p.writeln()
	p.indent--
}

func (p *Printer) groupByClause(q *core.Query) {
	if len(q.GroupBy) == 0 {
		return
	}
	p.step = dialect.StepGroupBy
	p.line("GROUP BY")
	p.formatList(len(q.GroupBy), func(i int) {
		p.expr(q.GroupBy[i], core.PrecedenceUnknown, false)
	})
}

func (p *Printer) havingClause(q *core.Query) {
	if q.Having.IsEmpty() {
		return
	}
	p.step = dialect.StepHaving
	p.line("HAVING")
	p.indent++
	p.writeIndent()
	p.searchCondition(q.Having, true)
	p.writeln()
	p.indent--
}

func (p *Printer) orderByClause(q *core.Query) {
	if len(q.OrderBy) == 0 {
		return
	}
	p.step = dialect.StepOrderBy
	p.line("ORDER BY")
	p.formatList(len(q.OrderBy), func(i int) {
		p.expr(q.OrderBy[i].Expr, core.PrecedenceUnknown, false)
		if q.OrderBy[i].Desc {
			p.write(" DESC")
		}
	})
}
