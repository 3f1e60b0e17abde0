package core

// ---------- Statement Types ----------

// QueryKind is the statement kind of a Query.
type QueryKind int

// QueryKind constants.
const (
	QuerySelect QueryKind = iota
	QueryInsert
	QueryUpdate
	QueryDelete
	QueryInsertOrUpdate
	QueryCreateTable
)

func (k QueryKind) String() string {
	switch k {
	case QuerySelect:
		return "Select"
	case QueryInsert:
		return "Insert"
	case QueryUpdate:
		return "Update"
	case QueryDelete:
		return "Delete"
	case QueryInsertOrUpdate:
		return "InsertOrUpdate"
	case QueryCreateTable:
		return "CreateTable"
	default:
		return "Unknown"
	}
}

// OrderItem is one ORDER BY entry.
type OrderItem struct {
	Expr Expr
	Desc bool
}

// SetItem assigns Expr to Column in UPDATE, INSERT and upsert clauses.
type SetItem struct {
	Column Expr
	Expr   Expr
}

// SelectClause holds the projection and paging of a query.
type SelectClause struct {
	Distinct bool
	Columns  []*Column
	Skip     Expr
	Take     Expr
}

// FromClause holds the table sources of a query.
type FromClause struct {
	Tables []*TableSource
}

// UpdateClause holds the target and assignments of an UPDATE. Keys are the
// correlation items used by upserts.
type UpdateClause struct {
	Table *Table
	Items []*SetItem
	Keys  []*SetItem
}

// InsertClause holds the target and values of an INSERT.
type InsertClause struct {
	Into         *Table
	Items        []*SetItem
	WithIdentity bool
}

// CreateTableClause describes CREATE TABLE or, with IsDrop, DROP TABLE.
type CreateTableClause struct {
	Table  *Table
	IsDrop bool
}

// Union is one UNION branch appended to a query.
type Union struct {
	Query *Query
	All   bool
}

// Query is a statement of any kind. It is also an expression (scalar
// subquery) and a Source (derived table). Parent is a non-owning reference
// to the enclosing query, used only for name resolution.
type Query struct {
	Kind        QueryKind
	Select      SelectClause
	From        FromClause
	Where       *SearchCondition
	GroupBy     []Expr
	Having      *SearchCondition
	OrderBy     []OrderItem
	Update      UpdateClause
	Insert      InsertClause
	CreateTable CreateTableClause
	Unions      []Union

	Parent               *Query
	Parameters           []*Parameter
	IsParameterDependent bool
}

// NewQuery returns an empty query of kind.
func NewQuery(kind QueryKind) *Query {
	return &Query{Kind: kind, Where: &SearchCondition{}, Having: &SearchCondition{}}
}

func (*Query) node()       {}
func (*Query) exprNode()   {}
func (*Query) sourceNode() {}

// Precedence implements Expr.
func (*Query) Precedence() int { return PrecedencePrimary }

// SystemType implements Expr.
func (q *Query) SystemType() Kind {
	if len(q.Select.Columns) == 1 {
		return q.Select.Columns[0].SystemType()
	}
	return KindObject
}

// CanBeNull implements Expr.
func (*Query) CanBeNull() bool { return true }

// Keys implements Source: the columns projecting a primary key field.
func (q *Query) Keys() []Expr {
	var keys []Expr
	for _, c := range q.Select.Columns {
		if f := UnderlyingField(c); f != nil && f.IsPrimaryKey {
			keys = append(keys, c)
		}
	}
	return keys
}

// UnderlyingField follows column references down to a field, or nil.
func UnderlyingField(e Expr) *Field {
	for {
		switch x := e.(type) {
		case *Field:
			return x
		case *Column:
			e = x.Expr
		default:
			return nil
		}
	}
}

// AddFrom appends a FROM item for src and returns it.
func (q *Query) AddFrom(src Source, alias string) *TableSource {
	ts := NewTableSource(src, alias)
	q.From.Tables = append(q.From.Tables, ts)
	return ts
}

// AddColumn returns the index of the column projecting e, appending a new
// column when no existing one matches.
func (q *Query) AddColumn(e Expr) int {
	for i, c := range q.Select.Columns {
		if c.Expr == e || Equal(c.Expr, e) {
			return i
		}
	}
	q.Select.Columns = append(q.Select.Columns, &Column{Parent: q, Expr: e})
	return len(q.Select.Columns) - 1
}

// AddColumnAs appends a column projecting e under alias.
func (q *Query) AddColumnAs(e Expr, alias string) *Column {
	c := &Column{Parent: q, Expr: e, Alias: alias}
	q.Select.Columns = append(q.Select.Columns, c)
	return c
}

// RemoveColumn drops the column at index i.
func (q *Query) RemoveColumn(i int) {
	q.Select.Columns = append(q.Select.Columns[:i], q.Select.Columns[i+1:]...)
}

// AddGroupBy appends e to GROUP BY unless an equal item is present.
func (q *Query) AddGroupBy(e Expr) {
	for _, g := range q.GroupBy {
		if g == e || Equal(g, e) {
			return
		}
	}
	q.GroupBy = append(q.GroupBy, e)
}

// TableSource resolves src through this query's FROM tree, then through
// the enclosing queries.
func (q *Query) TableSource(src Source) *TableSource {
	for cur := q; cur != nil; cur = cur.Parent {
		for _, ts := range cur.From.Tables {
			if found := ts.Find(src); found != nil {
				return found
			}
		}
	}
	return nil
}

// IsLevelSource reports whether src is wrapped by a table source in this
// query's own FROM tree (joins included).
func (q *Query) IsLevelSource(src Source) bool {
	for _, ts := range q.From.Tables {
		if ts.Find(src) != nil {
			return true
		}
	}
	return false
}

// Root returns the outermost query.
func (q *Query) Root() *Query {
	for q.Parent != nil {
		q = q.Parent
	}
	return q
}

// HasJoins reports whether the FROM clause has several tables or any join.
func (q *Query) HasJoins() bool {
	return len(q.From.Tables) > 1 || (len(q.From.Tables) == 1 && len(q.From.Tables[0].Joins) > 0)
}

// Clone returns a shallow copy of q with its own clause slices.
func (q *Query) Clone() *Query {
	c := *q
	c.Select.Columns = append([]*Column(nil), q.Select.Columns...)
	c.From.Tables = append([]*TableSource(nil), q.From.Tables...)
	c.GroupBy = append([]Expr(nil), q.GroupBy...)
	c.OrderBy = append([]OrderItem(nil), q.OrderBy...)
	c.Where = q.Where.Copy()
	c.Having = q.Having.Copy()
	return &c
}
