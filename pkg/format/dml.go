package format

import (
	"strings"

	"github.com/leapstack-labs/sqlgen/pkg/core"
	"github.com/leapstack-labs/sqlgen/pkg/dialect"
)

func (p *Printer) buildDelete() {
	q := p.query
	p.step = dialect.StepDelete
	p.writeIndent()
	p.write("DELETE")
	if len(q.From.Tables) > 0 {
		if ts := q.From.Tables[0]; ts.Alias != "" && !ts.NoAlias {
			p.write(" ", p.quote(dialect.NameTableAlias, ts.Alias))
		}
	}
	p.writeln()
	p.fromClause(q)
	p.whereClause(q)
}

// updateTarget returns the table an UPDATE writes and the FROM item
// wrapping it, if any.
func updateTarget(q *core.Query) (*core.Table, *core.TableSource) {
	t := q.Update.Table
	if t == nil && len(q.From.Tables) > 0 {
		t, _ = q.From.Tables[0].Source.(*core.Table)
	}
	if t == nil {
		return nil, nil
	}
	return t, q.TableSource(t)
}

func (p *Printer) buildUpdate() {
	q := p.query
	t, ts := updateTarget(q)
	if t == nil {
		p.fail(core.ErrTableNotFound, "UPDATE target")
	}
	byAlias := ts != nil && ts.Alias != "" && !ts.NoAlias

	p.step = dialect.StepUpdate
	p.line("UPDATE")
	p.indent++
	if byAlias {
		p.line(p.quote(dialect.NameTableAlias, ts.Alias))
	} else {
		p.line(p.tableName(t))
	}
	p.indent--
	p.setClause(q.Update.Items)

	if byAlias || len(q.From.Tables) > 1 {
		p.fromClause(q)
	}
	p.whereClause(q)
}

func (p *Printer) setClause(items []*core.SetItem) {
	p.line("SET")
	p.setItems(items)
}

func (p *Printer) setItems(items []*core.SetItem) {
	p.formatList(len(items), func(i int) {
		p.fieldName(items[i].Column)
		p.write(" = ")
		p.expr(items[i].Expr, core.PrecedenceUnknown, false)
	})
}

func (p *Printer) buildInsert() {
	q := p.query
	t := q.Insert.Into
	if t == nil {
		p.fail(core.ErrTableNotFound, "INSERT target")
	}
	identity := p.identityField(q)
	items := p.insertItems(t)

	p.step = dialect.StepInsert
	p.line("INSERT INTO ", p.tableName(t))
	switch {
	case len(items) == 0 && len(q.From.Tables) == 0:
		p.line("DEFAULT VALUES")
	case len(q.From.Tables) > 0:
		p.insertColumns(items)
		p.step = dialect.StepSelect
		p.line("SELECT")
		p.formatList(len(items), func(i int) {
			p.expr(items[i].Expr, core.PrecedenceUnknown, false)
		})
		p.fromClause(q)
		p.whereClause(q)
	default:
		p.insertColumns(items)
		p.insertValues(items)
	}

	if identity == nil {
		return
	}
	switch p.d.Identity {
	case dialect.IdentityInline:
		p.writeln()
		p.line(p.d.Strategy.IdentitySQL(t, identity))
	case dialect.IdentityReturning:
		p.line(p.d.Strategy.IdentitySQL(t, identity))
	}
}

// identityField returns the identity field of an INSERT that reads its
// generated identity back.
func (p *Printer) identityField(q *core.Query) *core.Field {
	if !q.Insert.WithIdentity {
		return nil
	}
	f := q.Insert.Into.Identity()
	if f == nil {
		p.fail(core.ErrNoIdentity, q.Insert.Into.Name)
	}
	return f
}

// insertItems returns the INSERT items of t, with the identity value of a
// sequence-backed table in front.
func (p *Printer) insertItems(t *core.Table) []*core.SetItem {
	items := p.query.Insert.Items
	f := t.Identity()
	if f == nil || len(t.Sequences) == 0 {
		return items
	}
	for _, it := range items {
		if core.UnderlyingField(it.Column) == f {
			return items
		}
	}
	seq, err := SequenceName(t, p.d.Name)
	p.check(err)
	e := p.d.Strategy.IdentityExpression(t, f, seq)
	if e == nil {
		return items
	}
	return append([]*core.SetItem{{Column: f, Expr: e}}, items...)
}

func (p *Printer) insertColumns(items []*core.SetItem) {
	p.line("(")
	p.formatList(len(items), func(i int) { p.fieldName(items[i].Column) })
	p.line(")")
}

func (p *Printer) insertValues(items []*core.SetItem) {
	p.line("VALUES")
	p.line("(")
	p.formatList(len(items), func(i int) {
		p.expr(items[i].Expr, core.PrecedenceUnknown, false)
	})
	p.line(")")
}

func (p *Printer) buildUpsert() {
	q := p.query
	t := q.Insert.Into
	if t == nil {
		t = q.Update.Table
	}
	if t == nil {
		p.fail(core.ErrTableNotFound, "InsertOrUpdate target")
	}

	switch p.d.Upsert {
	case dialect.UpsertOnConflict:
		p.upsertOnConflict(t)
	case dialect.UpsertMerge:
		p.upsertMerge(t)
	case dialect.UpsertUpdateInsert:
		p.upsertUpdateInsert(t)
	default:
		p.fail(core.ErrUpsertNotSupported, p.d.Name)
	}
}

// upsertKeys returns the items identifying the row: the explicit keys, or
// the INSERT items of the primary key fields.
func (p *Printer) upsertKeys(t *core.Table) []*core.SetItem {
	q := p.query
	if len(q.Update.Keys) > 0 {
		return q.Update.Keys
	}
	var keys []*core.SetItem
	for _, f := range t.PrimaryKey() {
		for _, it := range q.Insert.Items {
			if core.UnderlyingField(it.Column) == f {
				keys = append(keys, it)
			}
		}
	}
	if len(keys) == 0 {
		p.fail(core.ErrUpsertKeys, t.Name)
	}
	return keys
}

// keyCondition renders the key items as an AND-ed equality.
func (p *Printer) keyCondition(keys []*core.SetItem) string {
	return p.capture(func() {
		for i, k := range keys {
			if i > 0 {
				p.write(" AND ")
			}
			p.comparison(&core.ExprExpr{Left: k.Column, Op: core.OpEqual, Right: k.Expr, Strict: true})
		}
	})
}

func (p *Printer) upsertOnConflict(t *core.Table) {
	q := p.query
	keys := p.upsertKeys(t)

	p.step = dialect.StepInsert
	p.line("INSERT INTO ", p.tableName(t))
	p.insertColumns(q.Insert.Items)
	p.insertValues(q.Insert.Items)

	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = p.capture(func() { p.fieldName(k.Column) })
	}
	p.writeIndent()
	p.write("ON CONFLICT (", strings.Join(names, ", "), ") DO ")
	if len(q.Update.Items) == 0 {
		p.write("NOTHING")
		p.writeln()
		return
	}
	p.write("UPDATE SET")
	p.writeln()
	p.step = dialect.StepUpdate
	p.setItems(q.Update.Items)
}

func (p *Printer) upsertMerge(t *core.Table) {
	q := p.query
	keys := p.upsertKeys(t)

	source := "SELECT 1 AS x"
	if p.d.MergeSource != "" {
		source += " FROM " + p.d.MergeSource
	}
	p.line("MERGE INTO ", p.tableName(t))
	p.line("USING (", source, ") s ON")
	p.line("(")
	p.indent++
	p.line(p.keyCondition(keys))
	p.indent--
	p.line(")")

	if len(q.Update.Items) > 0 {
		p.line("WHEN MATCHED THEN")
		p.indent++
		p.step = dialect.StepUpdate
		p.line("UPDATE SET")
		p.setItems(q.Update.Items)
		p.indent--
	}

	p.line("WHEN NOT MATCHED THEN")
	p.indent++
	p.step = dialect.StepInsert
	p.line("INSERT")
	p.insertColumns(q.Insert.Items)
	p.insertValues(q.Insert.Items)
	p.indent--
	p.line(";")
}

func (p *Printer) upsertUpdateInsert(t *core.Table) {
	q := p.query
	keys := p.upsertKeys(t)
	cond := p.keyCondition(keys)

	if len(q.Update.Items) > 0 {
		p.step = dialect.StepUpdate
		p.line("UPDATE")
		p.indent++
		p.line(p.tableName(t))
		p.indent--
		p.setClause(q.Update.Items)
		p.line("WHERE")
		p.indent++
		p.line(cond)
		p.indent--
		p.writeln()
		p.line("IF ", p.d.RowCountCheck)
	} else {
		p.line("IF NOT EXISTS(SELECT * FROM ", p.tableName(t), " WHERE ", cond, ")")
	}

	p.line("BEGIN")
	p.indent++
	p.step = dialect.StepInsert
	p.line("INSERT INTO ", p.tableName(t))
	p.insertColumns(q.Insert.Items)
	p.insertValues(q.Insert.Items)
	p.indent--
	p.line("END")
}
