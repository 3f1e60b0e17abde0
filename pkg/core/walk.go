package core

// Walk visits n and every node reachable from it, depth first. When fn
// returns false the children of that node are skipped. Queries and columns
// are visited once even when referenced from several places.
func Walk(n Node, fn func(Node) bool) {
	w := walker{fn: fn, seen: map[Node]bool{}}
	w.walk(n)
}

type walker struct {
	fn   func(Node) bool
	seen map[Node]bool
}

func (w *walker) walk(n Node) {
	if n == nil {
		return
	}
	switch n.(type) {
	case *Query, *Column:
		if w.seen[n] {
			return
		}
		w.seen[n] = true
	}
	if !w.fn(n) {
		return
	}

	switch x := n.(type) {
	case *Query:
		for _, c := range x.Select.Columns {
			w.walk(c)
		}
		w.expr(x.Select.Skip)
		w.expr(x.Select.Take)
		for _, ts := range x.From.Tables {
			w.walk(ts)
		}
		w.cond(x.Where)
		for _, g := range x.GroupBy {
			w.expr(g)
		}
		w.cond(x.Having)
		for _, o := range x.OrderBy {
			w.expr(o.Expr)
		}
		if x.Update.Table != nil {
			w.walk(x.Update.Table)
		}
		w.items(x.Update.Items)
		w.items(x.Update.Keys)
		if x.Insert.Into != nil {
			w.walk(x.Insert.Into)
		}
		w.items(x.Insert.Items)
		if x.CreateTable.Table != nil {
			w.walk(x.CreateTable.Table)
		}
		for _, u := range x.Unions {
			w.walk(u.Query)
		}
	case *Column:
		w.expr(x.Expr)
	case *TableSource:
		w.walk(x.Source)
		for _, j := range x.Joins {
			w.walk(j)
		}
	case *JoinedTable:
		w.walk(x.Table)
		w.cond(x.Condition)
	case *Function:
		for _, a := range x.Args {
			w.expr(a)
		}
	case *Binary:
		w.expr(x.Left)
		w.expr(x.Right)
	case *Raw:
		for _, a := range x.Args {
			w.expr(a)
		}
	case *SearchCondition:
		for _, c := range x.Conditions {
			w.walk(c.Predicate)
		}
	case *ExprExpr:
		w.expr(x.Left)
		w.expr(x.Right)
	case *Like:
		w.expr(x.Expr)
		w.expr(x.Pattern)
		w.expr(x.Escape)
	case *Between:
		w.expr(x.Expr)
		w.expr(x.Low)
		w.expr(x.High)
	case *IsNull:
		w.expr(x.Expr)
	case *InSubQuery:
		w.expr(x.Expr)
		w.walk(x.Query)
	case *InList:
		w.expr(x.Expr)
		for _, v := range x.Values {
			w.expr(v)
		}
	case *FuncLike:
		w.walk(x.Func)
	case *ExprPredicate:
		w.expr(x.Expr)
	case *NotExpr:
		w.expr(x.Expr)
	case *Table, *Field, *Value, *Parameter, *DataType:
		// leaves
	}
}

func (w *walker) expr(e Expr) {
	if e != nil {
		w.walk(e)
	}
}

func (w *walker) cond(sc *SearchCondition) {
	if sc != nil {
		w.walk(sc)
	}
}

func (w *walker) items(items []*SetItem) {
	for _, it := range items {
		w.expr(it.Column)
		w.expr(it.Expr)
	}
}

// Find reports whether any node under n satisfies match.
func Find(n Node, match func(Node) bool) bool {
	found := false
	Walk(n, func(x Node) bool {
		if found {
			return false
		}
		if match(x) {
			found = true
			return false
		}
		return true
	})
	return found
}

// Queries returns q and every query nested under it, outermost first.
func Queries(q *Query) []*Query {
	var out []*Query
	Walk(q, func(n Node) bool {
		if sub, ok := n.(*Query); ok {
			out = append(out, sub)
		}
		return true
	})
	return out
}

// ReplaceExpr rewrites e copy-on-write. fn is called top-down; a non-nil
// result replaces the node without descending into it. Nested queries and
// column references are leaves: their contents are never rewritten.
func ReplaceExpr(e Expr, fn func(Expr) Expr) Expr {
	if e == nil {
		return nil
	}
	if r := fn(e); r != nil {
		return r
	}

	switch x := e.(type) {
	case *Function:
		if args, changed := replaceAll(x.Args, fn); changed {
			c := *x
			c.Args = args
			return &c
		}
	case *Binary:
		l, r := ReplaceExpr(x.Left, fn), ReplaceExpr(x.Right, fn)
		if l != x.Left || r != x.Right {
			c := *x
			c.Left, c.Right = l, r
			return &c
		}
	case *Raw:
		if args, changed := replaceAll(x.Args, fn); changed {
			c := *x
			c.Args = args
			return &c
		}
	case *SearchCondition:
		if sc := ReplacePredicate(x, fn); sc != Predicate(x) {
			return sc.(*SearchCondition)
		}
	}
	return e
}

func replaceAll(in []Expr, fn func(Expr) Expr) ([]Expr, bool) {
	var out []Expr
	for i, a := range in {
		r := ReplaceExpr(a, fn)
		if r != a && out == nil {
			out = make([]Expr, len(in))
			copy(out, in[:i])
		}
		if out != nil {
			out[i] = r
		}
	}
	if out == nil {
		return in, false
	}
	return out, true
}

// ReplacePredicate rewrites the expressions under p copy-on-write, with the
// same rules as ReplaceExpr. The result is p itself when nothing changed.
func ReplacePredicate(p Predicate, fn func(Expr) Expr) Predicate {
	rep := func(e Expr) Expr { return ReplaceExpr(e, fn) }

	switch x := p.(type) {
	case *SearchCondition:
		var out *SearchCondition
		for i, c := range x.Conditions {
			np := ReplacePredicate(c.Predicate, fn)
			if np != c.Predicate && out == nil {
				out = &SearchCondition{Conditions: make([]*Condition, len(x.Conditions))}
				copy(out.Conditions, x.Conditions[:i])
			}
			if out != nil {
				out.Conditions[i] = &Condition{Not: c.Not, Predicate: np, Or: c.Or}
			}
		}
		if out != nil {
			return out
		}
	case *ExprExpr:
		l, r := rep(x.Left), rep(x.Right)
		if l != x.Left || r != x.Right {
			return &ExprExpr{Left: l, Op: x.Op, Right: r, Strict: x.Strict}
		}
	case *Like:
		e, pat, esc := rep(x.Expr), rep(x.Pattern), rep(x.Escape)
		if e != x.Expr || pat != x.Pattern || esc != x.Escape {
			return &Like{Expr: e, Not: x.Not, Pattern: pat, Escape: esc}
		}
	case *Between:
		e, lo, hi := rep(x.Expr), rep(x.Low), rep(x.High)
		if e != x.Expr || lo != x.Low || hi != x.High {
			return &Between{Expr: e, Not: x.Not, Low: lo, High: hi}
		}
	case *IsNull:
		if e := rep(x.Expr); e != x.Expr {
			return &IsNull{Expr: e, Not: x.Not}
		}
	case *InSubQuery:
		if e := rep(x.Expr); e != x.Expr {
			return &InSubQuery{Expr: e, Not: x.Not, Query: x.Query}
		}
	case *InList:
		e := rep(x.Expr)
		vals, changed := replaceAll(x.Values, fn)
		if e != x.Expr || changed {
			return &InList{Expr: e, Not: x.Not, Values: vals}
		}
	case *FuncLike:
		if f := rep(x.Func); f != Expr(x.Func) {
			if fn, ok := f.(*Function); ok {
				return &FuncLike{Func: fn}
			}
			return NewExprPredicate(f)
		}
	case *ExprPredicate:
		if e := rep(x.Expr); e != x.Expr {
			return &ExprPredicate{Expr: e, Prec: x.Prec}
		}
	case *NotExpr:
		if e := rep(x.Expr); e != x.Expr {
			return &NotExpr{Expr: e, Not: x.Not, Prec: x.Prec}
		}
	}
	return p
}
