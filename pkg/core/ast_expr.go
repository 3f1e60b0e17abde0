package core

import "strings"

// ---------- Expression Types ----------

// Field is a column of a base Table.
type Field struct {
	Table        *Table
	Name         string
	PhysicalName string
	Type         Kind
	DataType     DataKind
	DBType       string // explicit type text for CREATE TABLE, overrides DataType
	Length       int
	Precision    int
	Scale        int
	Nullable     bool

	IsPrimaryKey    bool
	PrimaryKeyOrder int
	IsIdentity      bool

	all bool
}

func (*Field) node()     {}
func (*Field) exprNode() {}

// Precedence implements Expr.
func (*Field) Precedence() int { return PrecedencePrimary }

// SystemType implements Expr.
func (f *Field) SystemType() Kind {
	if f.Type == KindUnknown && f.DataType != DataUndefined {
		return SystemKindOf(f.DataType)
	}
	return f.Type
}

// CanBeNull implements Expr.
func (f *Field) CanBeNull() bool { return f.Nullable }

// IsAll reports whether f is the table's `*` pseudo field.
func (f *Field) IsAll() bool { return f.all }

// Physical returns the physical column name, defaulting to Name.
func (f *Field) Physical() string {
	if f.PhysicalName != "" {
		return f.PhysicalName
	}
	return f.Name
}

// Column is an output column of a Query: an expression and its alias.
type Column struct {
	Parent *Query
	Expr   Expr
	Alias  string
}

func (*Column) node()     {}
func (*Column) exprNode() {}

// Precedence implements Expr.
func (*Column) Precedence() int { return PrecedencePrimary }

// SystemType implements Expr.
func (c *Column) SystemType() Kind { return c.Expr.SystemType() }

// CanBeNull implements Expr.
func (c *Column) CanBeNull() bool { return c.Expr.CanBeNull() }

// Value is a literal. Val holds an already unwrapped Go value, or nil.
type Value struct {
	Val  any
	Type Kind // optional; derived from Val when unset
}

// NewValue returns a literal for v.
func NewValue(v any) *Value { return &Value{Val: v} }

func (*Value) node()     {}
func (*Value) exprNode() {}

// Precedence implements Expr.
func (*Value) Precedence() int { return PrecedencePrimary }

// SystemType implements Expr.
func (v *Value) SystemType() Kind {
	if v.Type != KindUnknown {
		return v.Type
	}
	return KindOf(v.Val)
}

// CanBeNull implements Expr.
func (v *Value) CanBeNull() bool { return v.Val == nil }

// Parameter is a named value. Query parameters are rendered by name and
// bound at execution time; all others are inlined as literals.
type Parameter struct {
	Name             string
	Val              any
	Type             Kind
	IsQueryParameter bool
	Nullable         bool
}

func (*Parameter) node()     {}
func (*Parameter) exprNode() {}

// Precedence implements Expr.
func (*Parameter) Precedence() int { return PrecedencePrimary }

// SystemType implements Expr.
func (p *Parameter) SystemType() Kind {
	if p.Type != KindUnknown {
		return p.Type
	}
	return KindOf(p.Val)
}

// CanBeNull implements Expr.
func (p *Parameter) CanBeNull() bool { return p.Nullable || p.Val == nil }

// Function is a named function call. The CASE function takes alternating
// condition/value arguments with an optional trailing else value.
type Function struct {
	Name    string
	Args    []Expr
	Type    Kind
	Prec    int
	NotNull bool
}

// NewFunction returns a function call of primary precedence.
func NewFunction(kind Kind, name string, args ...Expr) *Function {
	return &Function{Name: name, Args: args, Type: kind, Prec: PrecedencePrimary}
}

func (*Function) node()     {}
func (*Function) exprNode() {}

// Precedence implements Expr.
func (f *Function) Precedence() int {
	if f.Prec == PrecedenceUnknown {
		return PrecedencePrimary
	}
	return f.Prec
}

// SystemType implements Expr.
func (f *Function) SystemType() Kind { return f.Type }

// CanBeNull implements Expr.
func (f *Function) CanBeNull() bool { return !f.NotNull }

// Is reports whether the function is named name, ignoring case.
func (f *Function) Is(name string) bool { return strings.EqualFold(f.Name, name) }

// Binary is an infix operator applied to two operands.
type Binary struct {
	Left  Expr
	Op    string
	Right Expr
	Type  Kind
	Prec  int
}

// NewBinary returns a binary expression with the operator's default precedence.
func NewBinary(kind Kind, left Expr, op string, right Expr) *Binary {
	return &Binary{Left: left, Op: op, Right: right, Type: kind, Prec: BinaryPrecedence(op)}
}

func (*Binary) node()     {}
func (*Binary) exprNode() {}

// Precedence implements Expr.
func (b *Binary) Precedence() int { return b.Prec }

// SystemType implements Expr.
func (b *Binary) SystemType() Kind { return b.Type }

// CanBeNull implements Expr.
func (b *Binary) CanBeNull() bool { return b.Left.CanBeNull() || b.Right.CanBeNull() }

// DataType is a type descriptor used as a conversion target or in DDL.
type DataType struct {
	Kind      DataKind
	Type      Kind // system type; derived from Kind when unset
	Length    int
	Precision int
	Scale     int
}

func (*DataType) node()     {}
func (*DataType) exprNode() {}

// Precedence implements Expr.
func (*DataType) Precedence() int { return PrecedencePrimary }

// SystemType implements Expr.
func (d *DataType) SystemType() Kind {
	if d.Type != KindUnknown {
		return d.Type
	}
	return SystemKindOf(d.Kind)
}

// CanBeNull implements Expr.
func (*DataType) CanBeNull() bool { return false }

// Raw is a SQL text template whose %[n]s verbs are replaced by the rendered
// arguments, for example "CAST(%[1]s AS %[2]s)".
type Raw struct {
	Format   string
	Args     []Expr
	Type     Kind
	Prec     int
	Nullable bool
}

// NewRaw returns a raw expression of primary precedence.
func NewRaw(kind Kind, format string, args ...Expr) *Raw {
	return &Raw{Format: format, Args: args, Type: kind, Prec: PrecedencePrimary}
}

func (*Raw) node()     {}
func (*Raw) exprNode() {}

// Precedence implements Expr.
func (r *Raw) Precedence() int { return r.Prec }

// SystemType implements Expr.
func (r *Raw) SystemType() Kind { return r.Type }

// CanBeNull implements Expr.
func (r *Raw) CanBeNull() bool { return r.Nullable }

// Star is the `*` argument of COUNT(*).
func Star() *Raw { return NewRaw(KindObject, "*") }
