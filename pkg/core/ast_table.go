package core

import (
	"slices"
	"strings"
)

// ---------- Table Types ----------

// SequenceAttribute names the sequence backing a table's identity column
// for one dialect configuration. An empty Configuration is the default.
type SequenceAttribute struct {
	Configuration string
	Name          string
}

// Table is a base table: name, optional database/owner and its fields.
type Table struct {
	Name         string
	PhysicalName string
	Database     string
	Owner        string
	Alias        string
	Fields       []*Field
	All          *Field
	Sequences    []SequenceAttribute
}

// NewTable returns a table owning fields.
func NewTable(name string, fields ...*Field) *Table {
	t := &Table{Name: name}
	t.All = &Field{Table: t, Name: "*", PhysicalName: "*", Type: KindObject, all: true}
	for _, f := range fields {
		t.AddField(f)
	}
	return t
}

// AddField attaches f to t.
func (t *Table) AddField(f *Field) *Field {
	f.Table = t
	t.Fields = append(t.Fields, f)
	return f
}

// Field returns the field named name, or nil.
func (t *Table) Field(name string) *Field {
	for _, f := range t.Fields {
		if strings.EqualFold(f.Name, name) {
			return f
		}
	}
	return nil
}

// Physical returns the physical table name, defaulting to Name.
func (t *Table) Physical() string {
	if t.PhysicalName != "" {
		return t.PhysicalName
	}
	return t.Name
}

// Identity returns the identity field, or nil.
func (t *Table) Identity() *Field {
	for _, f := range t.Fields {
		if f.IsIdentity {
			return f
		}
	}
	return nil
}

// PrimaryKey returns the primary key fields ordered by key order.
func (t *Table) PrimaryKey() []*Field {
	var keys []*Field
	for _, f := range t.Fields {
		if f.IsPrimaryKey {
			keys = append(keys, f)
		}
	}
	slices.SortStableFunc(keys, func(a, b *Field) int { return a.PrimaryKeyOrder - b.PrimaryKeyOrder })
	return keys
}

// Sequence returns the sequence configured for configuration, falling back
// to the attribute without a configuration. It returns "" when neither
// exists.
func (t *Table) Sequence(configuration string) string {
	def := ""
	for _, s := range t.Sequences {
		switch {
		case s.Configuration != "" && strings.EqualFold(s.Configuration, configuration):
			return s.Name
		case s.Configuration == "" && def == "":
			def = s.Name
		}
	}
	return def
}

// Keys implements Source.
func (t *Table) Keys() []Expr {
	pk := t.PrimaryKey()
	keys := make([]Expr, len(pk))
	for i, f := range pk {
		keys[i] = f
	}
	return keys
}

// Copy returns a new table with copies of every field, pointing at the copy.
func (t *Table) Copy() *Table {
	c := NewTable(t.Name)
	c.PhysicalName = t.PhysicalName
	c.Database = t.Database
	c.Owner = t.Owner
	c.Alias = t.Alias
	c.Sequences = slices.Clone(t.Sequences)
	for _, f := range t.Fields {
		nf := *f
		c.AddField(&nf)
	}
	return c
}

// FieldMap maps every field of t to the same-named field of other.
func (t *Table) FieldMap(other *Table) map[*Field]*Field {
	m := make(map[*Field]*Field, len(t.Fields)+1)
	m[t.All] = other.All
	for i, f := range t.Fields {
		if i < len(other.Fields) {
			m[f] = other.Fields[i]
		}
	}
	return m
}

func (*Table) node()       {}
func (*Table) sourceNode() {}
func (*Table) exprNode()   {}

// Precedence implements Expr.
func (*Table) Precedence() int { return PrecedencePrimary }

// SystemType implements Expr.
func (*Table) SystemType() Kind { return KindObject }

// CanBeNull implements Expr.
func (*Table) CanBeNull() bool { return false }

// JoinKind is the kind of a joined table.
type JoinKind int

// JoinKind constants.
const (
	JoinInner JoinKind = iota
	JoinLeft
	JoinCrossApply
	JoinOuterApply
)

func (k JoinKind) String() string {
	switch k {
	case JoinInner:
		return "INNER JOIN"
	case JoinLeft:
		return "LEFT JOIN"
	case JoinCrossApply:
		return "CROSS APPLY"
	case JoinOuterApply:
		return "OUTER APPLY"
	default:
		return "JOIN"
	}
}

// IsApply reports whether k is an APPLY join, which carries no ON clause.
func (k JoinKind) IsApply() bool { return k == JoinCrossApply || k == JoinOuterApply }

// JoinedTable is one join hanging off a TableSource.
type JoinedTable struct {
	Kind      JoinKind
	Table     *TableSource
	Condition *SearchCondition
}

func (*JoinedTable) node() {}

// TableSource is a FROM item: a table or derived query, its alias and the
// joins nested under it. NoAlias forces the source to render by its
// physical name (single-table UPDATE/DELETE targets).
type TableSource struct {
	Source  Source
	Alias   string
	NoAlias bool
	Joins   []*JoinedTable
}

// NewTableSource returns a FROM item for src.
func NewTableSource(src Source, alias string) *TableSource {
	return &TableSource{Source: src, Alias: alias}
}

func (*TableSource) node() {}

// Join appends a join of kind against target and returns it.
func (ts *TableSource) Join(kind JoinKind, target *TableSource, on ...Predicate) *JoinedTable {
	j := &JoinedTable{Kind: kind, Table: target, Condition: &SearchCondition{}}
	for _, p := range on {
		j.Condition.Add(p)
	}
	ts.Joins = append(ts.Joins, j)
	return j
}

// JoinCount returns the number of joins under ts, nested ones included.
func (ts *TableSource) JoinCount() int {
	n := len(ts.Joins)
	for _, j := range ts.Joins {
		n += j.Table.JoinCount()
	}
	return n
}

// Find returns the table source under ts (ts included) wrapping src.
func (ts *TableSource) Find(src Source) *TableSource {
	if ts.Source == src {
		return ts
	}
	for _, j := range ts.Joins {
		if found := j.Table.Find(src); found != nil {
			return found
		}
	}
	return nil
}

// Sources calls fn for ts and every joined source under it, depth first.
func (ts *TableSource) Sources(fn func(*TableSource)) {
	fn(ts)
	for _, j := range ts.Joins {
		j.Table.Sources(fn)
	}
}
