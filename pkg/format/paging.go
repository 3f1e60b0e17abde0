package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/sqlgen/pkg/core"
	"github.com/leapstack-labs/sqlgen/pkg/dialect"
)

func (p *Printer) checkPaging(q *core.Query) {
	f := p.d.Flags
	nested := q.Parent != nil
	if q.Select.Skip != nil {
		if !f.SkipSupported(q) {
			p.fail(core.ErrSkipNotSupported, p.d.Name)
		}
		if nested && !f.IsSubQuerySkipSupported {
			p.fail(core.ErrSubQuerySkip, p.d.Name)
		}
	}
	if q.Select.Take != nil {
		if !f.IsTakeSupported {
			p.fail(core.ErrTakeNotSupported, p.d.Name)
		}
		if nested && !f.IsSubQueryTakeSupported {
			p.fail(core.ErrSubQueryTake, p.d.Name)
		}
	}
}

// emulatesSkip reports whether SKIP has no template and must be emulated.
func (p *Printer) emulatesSkip(q *core.Query) bool {
	return q.Select.Skip != nil && p.d.Paging.SkipFormat == "" && p.d.Paging.OffsetFormat == ""
}

func (p *Printer) skipValue(q *core.Query) string {
	return p.capture(func() { p.expr(q.Select.Skip, core.PrecedenceUnknown, false) })
}

// takeValue renders TAKE, inlining parameter values for dialects that only
// accept a literal.
func (p *Printer) takeValue(q *core.Query) string {
	return p.limitValue(q.Select.Take)
}

// limitValue renders a row count written into a TOP or LIMIT template.
func (p *Printer) limitValue(e core.Expr) string {
	if prm, ok := e.(*core.Parameter); ok && !p.d.Flags.AcceptsTakeAsParameter {
		return p.value(prm.Val)
	}
	return p.capture(func() { p.expr(e, core.PrecedenceUnknown, false) })
}

// selectModifiers writes the TOP/SKIP style modifiers of the SELECT line.
func (p *Printer) selectModifiers(q *core.Query) {
	pg := p.d.Paging
	var skip, take string
	if q.Select.Skip != nil && pg.SkipFormat != "" {
		skip = fmt.Sprintf(pg.SkipFormat, p.skipValue(q))
	}
	if q.Select.Take != nil && pg.TakeFormat != "" {
		take = fmt.Sprintf(pg.TakeFormat, p.takeValue(q))
	}
	mods := []string{take, skip}
	if pg.SkipFirst {
		mods = []string{skip, take}
	}
	for _, m := range mods {
		if m != "" {
			p.write(" ", m)
		}
	}
}

func (p *Printer) offsetLimitClause(q *core.Query) {
	pg := p.d.Paging
	var limit, offset string
	if q.Select.Take != nil && pg.LimitFormat != "" {
		limit = fmt.Sprintf(pg.LimitFormat, p.takeValue(q))
	}
	if q.Select.Skip != nil && pg.OffsetFormat != "" {
		offset = fmt.Sprintf(pg.OffsetFormat, p.skipValue(q))
		if limit == "" && pg.OffsetRequiresLimit && pg.LimitFormat != "" {
			limit = fmt.Sprintf(pg.LimitFormat, "-1")
		}
	}
	parts := []string{limit, offset}
	if pg.OffsetFirst {
		parts = []string{offset, limit}
	}
	var out []string
	for _, s := range parts {
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return
	}
	p.step = dialect.StepOffsetLimit
	p.line(strings.Join(out, " "))
}

// upperBound renders skip + take, folding integer literals.
func (p *Printer) upperBound(q *core.Query) string {
	s, sok := literalInt(q.Select.Skip)
	t, tok := literalInt(q.Select.Take)
	if sok && tok {
		return strconv.FormatInt(s+t, 10)
	}
	return p.limitValue(q.Select.Skip) + " + " + p.takeValue(q)
}

func literalInt(e core.Expr) (int64, bool) {
	switch x := e.(type) {
	case *core.Value:
		return core.IntValue(x.Val)
	case *core.Parameter:
		if !x.IsQueryParameter {
			return core.IntValue(x.Val)
		}
	}
	return 0, false
}

// tempPrefix is the base of derived table aliases at this nesting level.
func (p *Printer) tempPrefix() string {
	if p.nesting == 0 {
		return "t"
	}
	return "tn" + strconv.Itoa(p.nesting)
}

func uniqueAlias(base string, cols []*core.Column) string {
	used := make(map[string]bool, len(cols))
	for i, c := range cols {
		used[strings.ToLower(columnAlias(i, c))] = true
	}
	name := base
	for i := 1; used[strings.ToLower(name)]; i++ {
		name = base + strconv.Itoa(i)
	}
	return name
}

// buildRowNumberPaging numbers the rows of the query in a derived table and
// filters on the number:
//
//	SELECT t1.a FROM (SELECT ROW_NUMBER() OVER (ORDER BY ...) AS rn, a ...) t1
//	WHERE t1.rn > skip AND t1.rn <= skip + take ORDER BY t1.rn
//
// A DISTINCT query is wrapped once more so that the distinct rows are
// numbered rather than the rows they were reduced from.
func (p *Printer) buildRowNumberPaging() {
	q := p.query
	names := q.TempAliases(2, p.tempPrefix())
	tbl := p.quote(dialect.NameTableAlias, names[0])
	cols := q.Select.Columns

	var all []*core.Column
	var aliases []string
	if q.Select.Distinct && len(cols) > 0 {
		all, aliases = p.orderProjection(q, p.pagingOrder(q))
	}
	rn := p.quote(dialect.NameFieldAlias, uniqueAlias("rn", append(append([]*core.Column(nil), cols...), all...)))

	p.outerColumns(tbl, cols)
	p.line("FROM")
	p.indent++
	p.line("(")
	p.indent++

	if all != nil {
		distinct := p.quote(dialect.NameTableAlias, names[1])
		order := p.pagingOrder(q)
		p.step = dialect.StepSelect
		p.line("SELECT")
		p.indent++
		p.line(distinct, ".*,")
		p.writeIndent()
		p.write("ROW_NUMBER() OVER (ORDER BY ")
		for i, o := range order {
			if i > 0 {
				p.write(", ")
			}
			p.write(distinct, ".", p.quote(dialect.NameFieldAlias, aliases[i]))
			if o.Desc {
				p.write(" DESC")
			}
		}
		p.write(") AS ", rn)
		p.writeln()
		p.indent--
		p.line("FROM")
		p.indent++
		p.line("(")
		p.indent++
		p.topQuery(q, "", all, nil)
		p.indent--
		p.line(") ", distinct)
		p.indent--
	} else {
		p.step = dialect.StepSelect
		p.line("SELECT")
		p.indent++
		p.writeIndent()
		p.write("ROW_NUMBER() OVER (ORDER BY ", p.rowOrder(q), ") AS ", rn, ",")
		p.writeln()
		p.indent--
		p.selectColumns(cols, true)
		p.fromClause(q)
		p.whereClause(q)
		p.groupByClause(q)
		p.havingClause(q)
	}

	p.indent--
	p.line(") ", tbl)
	p.indent--

	p.step = dialect.StepWhere
	p.line("WHERE")
	p.indent++
	p.writeIndent()
	p.write(tbl, ".", rn, " > ", p.skipValue(q))
	if q.Select.Take != nil {
		p.write(" AND ", tbl, ".", rn, " <= ", p.upperBound(q))
	}
	p.writeln()
	p.indent--

	p.step = dialect.StepOrderBy
	p.line("ORDER BY")
	p.indent++
	p.line(tbl, ".", rn)
	p.indent--
}

// rowOrder renders the ORDER BY list of q, or its first column when it has
// none.
func (p *Printer) rowOrder(q *core.Query) string {
	return p.capture(func() {
		if len(q.OrderBy) == 0 {
			if len(q.Select.Columns) == 0 {
				p.write("(SELECT NULL)")
				return
			}
			p.expr(q.Select.Columns[0].Expr, core.PrecedenceUnknown, false)
			return
		}
		for i, o := range q.OrderBy {
			if i > 0 {
				p.write(", ")
			}
			p.expr(o.Expr, core.PrecedenceUnknown, false)
			if o.Desc {
				p.write(" DESC")
			}
		}
	})
}

// pagingOrder returns the ORDER BY of q, or its first column when it has
// none.
func (p *Printer) pagingOrder(q *core.Query) []core.OrderItem {
	if len(q.OrderBy) > 0 {
		return q.OrderBy
	}
	if len(q.Select.Columns) == 0 {
		p.fail(core.ErrSkipNotSupported, p.d.Name)
	}
	return []core.OrderItem{{Expr: q.Select.Columns[0].Expr}}
}

// orderProjection returns the columns of q followed by the ORDER BY items
// it does not select, and the alias every item of order is read by from
// outside the projection.
func (p *Printer) orderProjection(q *core.Query, order []core.OrderItem) ([]*core.Column, []string) {
	cols := q.Select.Columns
	aliases := make([]string, len(order))
	var hidden []*core.Column
	hiddenNames := q.TempAliases(len(order), "o")
	for i, o := range order {
		found := -1
		for j, c := range cols {
			if c == o.Expr || c.Expr == o.Expr || core.Equal(c.Expr, o.Expr) {
				found = j
				break
			}
		}
		if found >= 0 {
			aliases[i] = columnAlias(found, cols[found])
			continue
		}
		aliases[i] = hiddenNames[i]
		hidden = append(hidden, &core.Column{Parent: q, Expr: o.Expr, Alias: hiddenNames[i]})
	}
	return append(append([]*core.Column(nil), cols...), hidden...), aliases
}

// outerColumns writes a SELECT of cols read through the derived table tbl.
func (p *Printer) outerColumns(tbl string, cols []*core.Column) {
	p.step = dialect.StepSelect
	p.line("SELECT")
	if len(cols) == 0 {
		p.indent++
		p.line(tbl, ".*")
		p.indent--
		return
	}
	p.formatList(len(cols), func(i int) {
		p.write(tbl, ".", p.quote(dialect.NameFieldAlias, columnAlias(i, cols[i])))
	})
}

// buildNestedTopPaging pages with TOP alone. The first skip + take rows
// are selected in order and those among the first skip rows are removed:
//
//	SELECT t1.a FROM (SELECT TOP skip+take a ... ORDER BY ...) t1
//	WHERE NOT EXISTS (SELECT * FROM (SELECT TOP skip a ... ORDER BY ...) t2
//	                  WHERE t2.a = t1.a)
//	ORDER BY ...
//
// Rows are matched on every projected column, the ORDER BY items included,
// so a row equal to a skipped row on all of them is removed as well.
func (p *Printer) buildNestedTopPaging() {
	q := p.query
	if q.Select.Take == nil || len(q.Select.Columns) == 0 {
		p.fail(core.ErrSkipNotSupported, p.d.Name)
	}
	order := p.pagingOrder(q)
	all, aliases := p.orderProjection(q, order)

	names := q.TempAliases(2, p.tempPrefix())
	page, skipped := p.quote(dialect.NameTableAlias, names[0]), p.quote(dialect.NameTableAlias, names[1])

	p.outerColumns(page, q.Select.Columns)
	p.line("FROM")
	p.indent++
	p.line("(")
	p.indent++
	p.topQuery(q, p.upperBound(q), all, order)
	p.indent--
	p.line(") ", page)
	p.indent--

	if n, ok := literalInt(q.Select.Skip); !ok || n > 0 {
		p.step = dialect.StepWhere
		p.line("WHERE")
		p.indent++
		p.line("NOT EXISTS(")
		p.indent++
		p.line("SELECT")
		p.indent++
		p.line("*")
		p.indent--
		p.line("FROM")
		p.indent++
		p.line("(")
		p.indent++
		p.topQuery(q, p.limitValue(q.Select.Skip), all, order)
		p.indent--
		p.line(") ", skipped)
		p.indent--
		p.step = dialect.StepWhere
		p.line("WHERE")
		p.indent++
		p.writeIndent()
		for i, c := range all {
			if i > 0 {
				p.write(" AND ")
			}
			name := p.quote(dialect.NameFieldAlias, columnAlias(i, c))
			l, r := skipped+"."+name, page+"."+name
			if c.Expr.CanBeNull() {
				p.write("(", l, " = ", r, " OR ", l, " IS NULL AND ", r, " IS NULL)")
			} else {
				p.write(l, " = ", r)
			}
		}
		p.writeln()
		p.indent--
		p.indent--
		p.line(")")
		p.indent--
	}

	p.orderList(order, func(i int) {
		p.write(page, ".", p.quote(dialect.NameFieldAlias, aliases[i]))
	})
}

// topQuery writes q projected as cols, limited to the first n rows of
// order. An empty n or order writes neither limit nor ORDER BY.
func (p *Printer) topQuery(q *core.Query, n string, cols []*core.Column, order []core.OrderItem) {
	p.topLine(n, q.Select.Distinct)
	p.selectColumns(cols, true)
	p.fromClause(q)
	p.whereClause(q)
	p.groupByClause(q)
	p.havingClause(q)
	if len(order) == 0 {
		return
	}
	p.orderList(order, func(i int) { p.expr(order[i].Expr, core.PrecedenceUnknown, false) })
	if n != "" {
		p.topLimit(n)
	}
}

// topLine writes a SELECT line limited to n rows when the dialect has a
// TOP template and n is set.
func (p *Printer) topLine(n string, distinct bool) {
	p.step = dialect.StepSelect
	p.writeIndent()
	p.write("SELECT")
	if distinct {
		p.write(" DISTINCT")
	}
	if f := p.d.Paging.TakeFormat; f != "" && n != "" {
		p.write(" ", fmt.Sprintf(f, n))
	}
	p.writeln()
}

// topLimit limits a level with the LIMIT template for dialects without TOP.
func (p *Printer) topLimit(n string) {
	pg := p.d.Paging
	if pg.TakeFormat != "" || pg.LimitFormat == "" {
		return
	}
	p.step = dialect.StepOffsetLimit
	p.line(fmt.Sprintf(pg.LimitFormat, n))
}

// orderList writes an ORDER BY of len(order) items.
func (p *Printer) orderList(order []core.OrderItem, item func(i int)) {
	p.step = dialect.StepOrderBy
	p.line("ORDER BY")
	p.formatList(len(order), func(i int) {
		item(i)
		if order[i].Desc {
			p.write(" DESC")
		}
	})
}
