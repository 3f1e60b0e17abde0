package querydoc

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/sqlgen/pkg/core"
)

// Statement is a built statement ready for rendering.
type Statement struct {
	Name  string
	Query *core.Query
}

var queryKinds = map[string]core.QueryKind{
	"":       core.QuerySelect,
	"select": core.QuerySelect,
	"insert": core.QueryInsert,
	"update": core.QueryUpdate,
	"delete": core.QueryDelete,
	"upsert": core.QueryInsertOrUpdate,
	"create": core.QueryCreateTable,
	"drop":   core.QueryCreateTable,
}

var joinKinds = map[string]core.JoinKind{
	"":            core.JoinInner,
	"inner":       core.JoinInner,
	"left":        core.JoinLeft,
	"cross apply": core.JoinCrossApply,
	"outer apply": core.JoinOuterApply,
}

// Build turns every statement of d into a query tree. Each call builds new
// tables and trees, so the result may be finalized and rendered without
// affecting later calls.
func (d *Document) Build() ([]Statement, error) {
	b, err := newBuilder(d)
	if err != nil {
		return nil, err
	}
	out := make([]Statement, 0, len(d.Statements))
	for i := range d.Statements {
		def := &d.Statements[i]
		b.used = make(map[*core.Table]bool)
		q, err := b.query(&def.QueryDef, nil)
		if err != nil {
			return nil, fmt.Errorf("statement %d %q: %w", i+1, def.Name, err)
		}
		out = append(out, Statement{Name: def.Name, Query: q})
	}
	return out, nil
}

type builder struct {
	tables map[string]*core.Table
	params map[string]*core.Parameter
	// used holds the tables already placed in a FROM tree of the current
	// statement. A table appearing again is given a copy so that its fields
	// resolve to one table source.
	used map[*core.Table]bool
}

func newBuilder(d *Document) (*builder, error) {
	b := &builder{
		tables: make(map[string]*core.Table, len(d.Tables)),
		params: make(map[string]*core.Parameter, len(d.Parameters)),
	}
	for _, td := range d.Tables {
		t, err := buildTable(td)
		if err != nil {
			return nil, err
		}
		b.tables[strings.ToLower(td.Name)] = t
	}
	for i := range d.Parameters {
		pd := &d.Parameters[i]
		p, err := buildParameter(pd)
		if err != nil {
			return nil, err
		}
		b.params[strings.ToLower(pd.Name)] = p
	}
	return b, nil
}

func buildTable(td TableDef) (*core.Table, error) {
	if td.Name == "" {
		return nil, &Error{Message: "table without a name"}
	}
	t := core.NewTable(td.Name)
	t.PhysicalName = td.Physical
	t.Database = td.Database
	t.Owner = td.Owner
	t.Alias = td.Alias
	for _, s := range td.Sequences {
		t.Sequences = append(t.Sequences, core.SequenceAttribute{Configuration: s.Configuration, Name: s.Name})
	}
	for _, fd := range td.Fields {
		f := &core.Field{
			Name:            fd.Name,
			PhysicalName:    fd.Physical,
			DBType:          fd.DBType,
			Length:          fd.Length,
			Precision:       fd.Precision,
			Scale:           fd.Scale,
			Nullable:        fd.Nullable,
			IsPrimaryKey:    fd.PrimaryKey > 0,
			PrimaryKeyOrder: fd.PrimaryKey,
			IsIdentity:      fd.Identity,
		}
		if fd.Type != "" {
			dk, ok := core.ParseDataKind(fd.Type)
			if !ok {
				return nil, &Error{Message: "field " + td.Name + "." + fd.Name + ": unknown type " + fd.Type}
			}
			f.DataType = dk
			f.Type = core.SystemKindOf(dk)
		}
		t.AddField(f)
	}
	return t, nil
}

func buildParameter(pd *ParameterDef) (*core.Parameter, error) {
	dk, err := dataKind(&pd.Value, pd.Type)
	if err != nil {
		return nil, err
	}
	p := &core.Parameter{Name: pd.Name, IsQueryParameter: pd.Bound, Nullable: pd.Nullable}
	if pd.Value.Kind != 0 {
		if p.Val, err = scalarValue(&pd.Value, dk); err != nil {
			return nil, err
		}
	}
	if dk != core.DataUndefined {
		p.Type = core.SystemKindOf(dk)
	}
	return p, nil
}

// table returns the catalog table named name without marking it used.
func (b *builder) table(name string) (*core.Table, error) {
	t, ok := b.tables[strings.ToLower(name)]
	if !ok {
		return nil, &Error{Message: fmt.Sprintf("unknown table %q", name)}
	}
	return t, nil
}

// sourceTable returns the table for a FROM item, copying it when the
// statement already uses it.
func (b *builder) sourceTable(name string) (*core.Table, error) {
	t, err := b.table(name)
	if err != nil {
		return nil, err
	}
	if b.used[t] {
		return t.Copy(), nil
	}
	b.used[t] = true
	return t, nil
}

// scope resolves names inside one query, falling back to the enclosing
// queries.
type scope struct {
	parent  *scope
	sources []*core.TableSource
}

func (s *scope) add(ts *core.TableSource) { s.sources = append(s.sources, ts) }

func (b *builder) query(def *QueryDef, parent *scope) (*core.Query, error) {
	kind, ok := queryKinds[strings.ToLower(def.Kind)]
	if !ok {
		return nil, &Error{Message: "unknown statement kind " + def.Kind}
	}
	q := core.NewQuery(kind)
	q.Select.Distinct = def.Distinct
	s := &scope{parent: parent}

	target, err := b.target(q, def)
	if err != nil {
		return nil, err
	}

	for i := range def.From {
		ts, err := b.source(&def.From[i], s)
		if err != nil {
			return nil, err
		}
		q.From.Tables = append(q.From.Tables, ts)
	}
	if (kind == core.QueryUpdate || kind == core.QueryDelete) && len(q.From.Tables) == 0 {
		b.used[target] = true
		q.From.Tables = append(q.From.Tables, core.NewTableSource(target, ""))
		s.add(q.From.Tables[0])
	}

	if err := b.projection(q, def, s); err != nil {
		return nil, err
	}
	if err := b.conditions(q.Where, def.Where, s); err != nil {
		return nil, err
	}
	if err := b.conditions(q.Having, def.Having, s); err != nil {
		return nil, err
	}
	if err := b.assignments(q, def, target, s); err != nil {
		return nil, err
	}

	for i := range def.Unions {
		u := &def.Unions[i]
		uq, err := b.query(&u.QueryDef, nil)
		if err != nil {
			return nil, err
		}
		q.Unions = append(q.Unions, core.Union{Query: uq, All: u.All})
	}
	return q, nil
}

// target sets the table a non-SELECT statement acts on.
func (b *builder) target(q *core.Query, def *QueryDef) (*core.Table, error) {
	if q.Kind == core.QuerySelect {
		if def.Table != "" {
			return nil, &Error{Message: "select takes its tables from 'from', not 'table'"}
		}
		return nil, nil
	}
	if def.Table == "" {
		return nil, &Error{Message: q.Kind.String() + " needs a target 'table'"}
	}
	t, err := b.table(def.Table)
	if err != nil {
		return nil, err
	}
	switch q.Kind {
	case core.QueryInsert, core.QueryInsertOrUpdate:
		q.Insert.Into = t
		q.Insert.WithIdentity = def.Identity
	case core.QueryUpdate:
		q.Update.Table = t
	case core.QueryCreateTable:
		q.CreateTable.Table = t
		q.CreateTable.IsDrop = strings.EqualFold(def.Kind, "drop")
	}
	return t, nil
}

func (b *builder) source(def *SourceDef, s *scope) (*core.TableSource, error) {
	var src core.Source
	switch {
	case def.Table != "" && def.Query != nil:
		return nil, &Error{Message: "a source is either a table or a query"}
	case def.Table != "":
		t, err := b.sourceTable(def.Table)
		if err != nil {
			return nil, err
		}
		src = t
	case def.Query != nil:
		sub, err := b.query(def.Query, s)
		if err != nil {
			return nil, err
		}
		src = sub
	default:
		return nil, &Error{Message: "source without a table or a query"}
	}

	ts := core.NewTableSource(src, def.As)
	s.add(ts)
	for i := range def.Joins {
		jd := &def.Joins[i]
		kind, ok := joinKinds[strings.ToLower(jd.Kind)]
		if !ok {
			return nil, &Error{Message: "unknown join kind " + jd.Kind}
		}
		target, err := b.source(&jd.SourceDef, s)
		if err != nil {
			return nil, err
		}
		j := ts.Join(kind, target)
		if err := b.conditions(j.Condition, jd.On, s); err != nil {
			return nil, err
		}
	}
	return ts, nil
}

func (b *builder) projection(q *core.Query, def *QueryDef, s *scope) error {
	for i := range def.Columns {
		n := &def.Columns[i]
		e, alias, err := b.aliased(n, s)
		if err != nil {
			return err
		}
		if alias != "" {
			q.AddColumnAs(e, alias)
		} else {
			q.Select.Columns = append(q.Select.Columns, &core.Column{Parent: q, Expr: e})
		}
	}
	for i := range def.GroupBy {
		e, err := b.expr(&def.GroupBy[i], s)
		if err != nil {
			return err
		}
		q.AddGroupBy(e)
	}
	for i := range def.OrderBy {
		item, err := b.orderItem(&def.OrderBy[i], s)
		if err != nil {
			return err
		}
		q.OrderBy = append(q.OrderBy, item)
	}
	var err error
	if def.Skip.Kind != 0 {
		if q.Select.Skip, err = b.expr(&def.Skip, s); err != nil {
			return err
		}
	}
	if def.Take.Kind != 0 {
		if q.Select.Take, err = b.expr(&def.Take, s); err != nil {
			return err
		}
	}
	return nil
}

// aliased decodes a projected column: an expression or {expr: e, as: alias}.
func (b *builder) aliased(n *yaml.Node, s *scope) (core.Expr, string, error) {
	if n.Kind == yaml.MappingNode {
		if en := mapValue(n, "expr"); en != nil {
			alias := ""
			if an := mapValue(n, "as"); an != nil {
				alias = an.Value
			}
			e, err := b.expr(en, s)
			return e, alias, err
		}
	}
	e, err := b.expr(n, s)
	return e, "", err
}

func (b *builder) orderItem(n *yaml.Node, s *scope) (core.OrderItem, error) {
	if n.Kind == yaml.MappingNode {
		if en := mapValue(n, "expr"); en != nil {
			e, err := b.expr(en, s)
			return core.OrderItem{Expr: e, Desc: flag(n, "desc")}, err
		}
	}
	e, err := b.expr(n, s)
	return core.OrderItem{Expr: e}, err
}

func (b *builder) conditions(sc *core.SearchCondition, nodes []yaml.Node, s *scope) error {
	for i := range nodes {
		c, err := b.condition(&nodes[i], s)
		if err != nil {
			return err
		}
		sc.Conditions = append(sc.Conditions, c)
	}
	return nil
}

// assignments decodes the SET items of UPDATE, INSERT and upsert.
func (b *builder) assignments(q *core.Query, def *QueryDef, target *core.Table, s *scope) error {
	items := func(defs []SetDef) ([]*core.SetItem, error) {
		out := make([]*core.SetItem, 0, len(defs))
		for i := range defs {
			sd := &defs[i]
			f := target.Field(sd.Column)
			if f == nil {
				return nil, errorAt(&sd.Value, "table %s has no field %q", target.Name, sd.Column)
			}
			e, err := b.expr(&sd.Value, s)
			if err != nil {
				return nil, err
			}
			out = append(out, &core.SetItem{Column: f, Expr: e})
		}
		return out, nil
	}

	var err error
	switch q.Kind {
	case core.QueryUpdate:
		q.Update.Items, err = items(def.Set)
	case core.QueryInsert:
		q.Insert.Items, err = items(def.Set)
	case core.QueryInsertOrUpdate:
		if q.Insert.Items, err = items(def.Set); err != nil {
			return err
		}
		if q.Update.Items, err = items(def.Update); err != nil {
			return err
		}
		q.Update.Keys, err = items(def.Keys)
	default:
		if len(def.Set) > 0 || len(def.Update) > 0 || len(def.Keys) > 0 {
			return &Error{Message: q.Kind.String() + " takes no assignments"}
		}
	}
	return err
}
