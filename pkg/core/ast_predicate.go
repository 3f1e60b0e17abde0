package core

// ---------- Predicate Types ----------

// Operator is a comparison operator of an ExprExpr predicate.
type Operator int

// Operator constants.
const (
	OpEqual Operator = iota
	OpNotEqual
	OpGreater
	OpGreaterOrEqual
	OpNotGreater
	OpLess
	OpLessOrEqual
	OpNotLess
)

var operatorSymbols = [...]string{
	OpEqual:          "=",
	OpNotEqual:       "<>",
	OpGreater:        ">",
	OpGreaterOrEqual: ">=",
	OpNotGreater:     "!>",
	OpLess:           "<",
	OpLessOrEqual:    "<=",
	OpNotLess:        "!<",
}

func (o Operator) String() string {
	if o >= 0 && int(o) < len(operatorSymbols) {
		return operatorSymbols[o]
	}
	return "?"
}

// ParseOperator returns the operator written as sym.
func ParseOperator(sym string) (Operator, bool) {
	for i, s := range operatorSymbols {
		if s == sym {
			return Operator(i), true
		}
	}
	if sym == "!=" {
		return OpNotEqual, true
	}
	return 0, false
}

// ExprExpr compares two expressions. Strict comparisons are emitted as
// written and never expanded into their NULL-safe form.
type ExprExpr struct {
	Left   Expr
	Op     Operator
	Right  Expr
	Strict bool
}

func (*ExprExpr) node()          {}
func (*ExprExpr) predicateNode() {}

// Precedence implements Predicate.
func (*ExprExpr) Precedence() int { return PrecedenceComparison }

// CanBeNull implements Predicate.
func (p *ExprExpr) CanBeNull() bool { return p.Left.CanBeNull() || p.Right.CanBeNull() }

// Like is `expr [NOT] LIKE pattern [ESCAPE escape]`.
type Like struct {
	Expr    Expr
	Not     bool
	Pattern Expr
	Escape  Expr // optional
}

func (*Like) node()          {}
func (*Like) predicateNode() {}

// Precedence implements Predicate.
func (*Like) Precedence() int { return PrecedenceComparison }

// CanBeNull implements Predicate.
func (p *Like) CanBeNull() bool { return p.Expr.CanBeNull() || p.Pattern.CanBeNull() }

// Between is `expr [NOT] BETWEEN low AND high`.
type Between struct {
	Expr Expr
	Not  bool
	Low  Expr
	High Expr
}

func (*Between) node()          {}
func (*Between) predicateNode() {}

// Precedence implements Predicate.
func (*Between) Precedence() int { return PrecedenceComparison }

// CanBeNull implements Predicate.
func (p *Between) CanBeNull() bool {
	return p.Expr.CanBeNull() || p.Low.CanBeNull() || p.High.CanBeNull()
}

// IsNull is `expr IS [NOT] NULL`.
type IsNull struct {
	Expr Expr
	Not  bool
}

func (*IsNull) node()          {}
func (*IsNull) predicateNode() {}

// Precedence implements Predicate.
func (*IsNull) Precedence() int { return PrecedenceComparison }

// CanBeNull implements Predicate.
func (*IsNull) CanBeNull() bool { return false }

// InSubQuery is `expr [NOT] IN (subquery)`.
type InSubQuery struct {
	Expr  Expr
	Not   bool
	Query *Query
}

func (*InSubQuery) node()          {}
func (*InSubQuery) predicateNode() {}

// Precedence implements Predicate.
func (*InSubQuery) Precedence() int { return PrecedenceComparison }

// CanBeNull implements Predicate.
func (p *InSubQuery) CanBeNull() bool { return p.Expr.CanBeNull() }

// InList is `expr [NOT] IN (values)`. A single Parameter whose value is a
// slice is expanded element by element at render time. When Expr is a
// Source (a *Table or *Query) the slice holds rows compared on its keys.
type InList struct {
	Expr   Expr
	Not    bool
	Values []Expr
}

func (*InList) node()          {}
func (*InList) predicateNode() {}

// Precedence implements Predicate.
func (*InList) Precedence() int { return PrecedenceComparison }

// CanBeNull implements Predicate.
func (p *InList) CanBeNull() bool { return p.Expr.CanBeNull() }

// FuncLike wraps a boolean function such as EXISTS.
type FuncLike struct {
	Func *Function
}

func (*FuncLike) node()          {}
func (*FuncLike) predicateNode() {}

// Precedence implements Predicate.
func (p *FuncLike) Precedence() int { return p.Func.Precedence() }

// CanBeNull implements Predicate.
func (p *FuncLike) CanBeNull() bool { return p.Func.CanBeNull() }

// Exists returns the EXISTS(q) predicate.
func Exists(q *Query) *FuncLike {
	return &FuncLike{Func: &Function{Name: "EXISTS", Args: []Expr{q}, Type: KindBool, Prec: PrecedencePrimary, NotNull: true}}
}

// ExprPredicate treats an expression as a boolean.
type ExprPredicate struct {
	Expr Expr
	Prec int
}

// NewExprPredicate wraps e, taking its precedence.
func NewExprPredicate(e Expr) *ExprPredicate {
	return &ExprPredicate{Expr: e, Prec: e.Precedence()}
}

// BoolPredicate returns the literal-boolean predicate for b.
func BoolPredicate(b bool) *ExprPredicate {
	return &ExprPredicate{Expr: NewValue(b), Prec: PrecedencePrimary}
}

func (*ExprPredicate) node()          {}
func (*ExprPredicate) predicateNode() {}

// Precedence implements Predicate.
func (p *ExprPredicate) Precedence() int { return p.Prec }

// CanBeNull implements Predicate.
func (p *ExprPredicate) CanBeNull() bool { return p.Expr.CanBeNull() }

// Literal reports the boolean value of a literal-boolean predicate.
func (p *ExprPredicate) Literal() (value, ok bool) {
	if v, isValue := p.Expr.(*Value); isValue {
		b, isBool := v.Val.(bool)
		return b, isBool
	}
	return false, false
}

// NotExpr is an expression optionally negated with NOT.
type NotExpr struct {
	Expr Expr
	Not  bool
	Prec int
}

func (*NotExpr) node()          {}
func (*NotExpr) predicateNode() {}

// Precedence implements Predicate.
func (p *NotExpr) Precedence() int { return p.Prec }

// CanBeNull implements Predicate.
func (p *NotExpr) CanBeNull() bool { return p.Expr.CanBeNull() }

// ---------- Search Conditions ----------

// Condition is one slot of a search condition. Or connects the condition to
// the one after it, so the flag of the last condition is never used.
type Condition struct {
	Not       bool
	Predicate Predicate
	Or        bool
}

// Cond returns an AND-connected condition over p.
func Cond(p Predicate) *Condition { return &Condition{Predicate: p} }

// Precedence returns the precedence of the condition as a whole.
func (c *Condition) Precedence() int {
	if c.Not {
		return PrecedenceLogicalNegation
	}
	return c.Predicate.Precedence()
}

// SearchCondition is an ordered list of conditions. It is both a predicate
// and, in dialects that allow it, a boolean expression.
type SearchCondition struct {
	Conditions []*Condition
}

// NewSearchCondition returns a search condition holding conds.
func NewSearchCondition(conds ...*Condition) *SearchCondition {
	return &SearchCondition{Conditions: conds}
}

func (*SearchCondition) node()          {}
func (*SearchCondition) exprNode()      {}
func (*SearchCondition) predicateNode() {}

// Precedence implements Expr and Predicate.
func (sc *SearchCondition) Precedence() int {
	switch len(sc.Conditions) {
	case 0:
		return PrecedenceUnknown
	case 1:
		return sc.Conditions[0].Precedence()
	}
	if sc.HasOr() {
		return PrecedenceLogicalDisjunction
	}
	return PrecedenceLogicalConjunction
}

// SystemType implements Expr.
func (*SearchCondition) SystemType() Kind { return KindBool }

// CanBeNull implements Expr and Predicate.
func (sc *SearchCondition) CanBeNull() bool {
	for _, c := range sc.Conditions {
		if c.Predicate.CanBeNull() {
			return true
		}
	}
	return false
}

// IsEmpty reports whether sc has no conditions.
func (sc *SearchCondition) IsEmpty() bool { return sc == nil || len(sc.Conditions) == 0 }

// HasOr reports whether any connector between conditions is OR.
func (sc *SearchCondition) HasOr() bool {
	for i := 0; i < len(sc.Conditions)-1; i++ {
		if sc.Conditions[i].Or {
			return true
		}
	}
	return false
}

// Add appends an AND-connected condition over p and returns sc.
func (sc *SearchCondition) Add(p Predicate) *SearchCondition {
	sc.Conditions = append(sc.Conditions, Cond(p))
	return sc
}

// AddOr appends p connected to the previous condition with OR.
func (sc *SearchCondition) AddOr(p Predicate) *SearchCondition {
	if n := len(sc.Conditions); n > 0 {
		sc.Conditions[n-1].Or = true
	}
	sc.Conditions = append(sc.Conditions, Cond(p))
	return sc
}

// Copy returns a shallow copy: new condition slots, shared predicates.
func (sc *SearchCondition) Copy() *SearchCondition {
	if sc == nil {
		return &SearchCondition{}
	}
	out := &SearchCondition{Conditions: make([]*Condition, len(sc.Conditions))}
	for i, c := range sc.Conditions {
		cc := *c
		out.Conditions[i] = &cc
	}
	return out
}

// ---------- Row values ----------

// RowValues supplies the key values of one row for collection IN lists.
// The mapping layer that turns objects into rows is external.
type RowValues interface {
	FieldValue(f *Field) (any, bool)
}

// Row is a RowValues keyed by field name.
type Row map[string]any

// FieldValue implements RowValues.
func (r Row) FieldValue(f *Field) (any, bool) {
	v, ok := r[f.Name]
	return v, ok
}
