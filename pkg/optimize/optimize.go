// Package optimize simplifies expressions and predicates of the query tree:
// constant folding, identity elimination, CASE flattening, redundant
// conversion removal and the comparison rewrites of predicates.
//
// Every function here is pure and idempotent. Inputs are never modified;
// a changed subtree is returned as a copy and an unchanged one as itself.
// Shapes no rule recognizes pass through unchanged.
package optimize

import (
	"fmt"

	"github.com/leapstack-labs/sqlgen/pkg/core"
)

// Sizer reports the text width of a data kind. Dialect strategies
// implement it; a nil Sizer uses the generic sizes.
type Sizer interface {
	MaxDisplaySize(kind core.DataKind) int
}

// defaultVarCharLength is used for string coercions of unknown width.
const defaultVarCharLength = 100

// Expr returns the simplified form of e. Children are simplified first and
// the output of every rule is simplified again, so Expr(Expr(e)) equals
// Expr(e).
func Expr(e core.Expr, s Sizer) core.Expr {
	o := optimizer{sizer: s}
	return o.expr(e)
}

type optimizer struct {
	sizer Sizer
}

func (o optimizer) displaySize(k core.Kind) int {
	if k == core.KindUnknown {
		return defaultVarCharLength
	}
	dk := core.DataKindOf(k)
	n := dk.MaxDisplaySize()
	if o.sizer != nil {
		n = o.sizer.MaxDisplaySize(dk)
	}
	if n <= 0 {
		return defaultVarCharLength
	}
	return n
}

func (o optimizer) expr(e core.Expr) core.Expr {
	switch x := e.(type) {
	case *core.Binary:
		l, r := o.expr(x.Left), o.expr(x.Right)
		if l != x.Left || r != x.Right {
			c := *x
			c.Left, c.Right = l, r
			x = &c
		}
		return o.binary(x)
	case *core.Function:
		if args, changed := o.args(x.Args); changed {
			c := *x
			c.Args = args
			x = &c
		}
		return o.function(x)
	case *core.Raw:
		if args, changed := o.args(x.Args); changed {
			c := *x
			c.Args = args
			x = &c
		}
		return o.raw(x)
	case *core.SearchCondition:
		c := x.Copy()
		core.OptimizeSearchCondition(c)
		if core.PredicatesEqual(c, x) {
			return x
		}
		return c
	default:
		// Fields, columns, values, parameters, data types, tables and
		// queries are leaves.
		return e
	}
}

func (o optimizer) args(in []core.Expr) ([]core.Expr, bool) {
	var out []core.Expr
	for i, a := range in {
		if a == nil {
			continue
		}
		r := o.expr(a)
		if r != a && out == nil {
			out = make([]core.Expr, len(in))
			copy(out, in)
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

// ---------- Binary operators ----------

func (o optimizer) binary(b *core.Binary) core.Expr {
	var r core.Expr
	switch b.Op {
	case "+":
		r = o.add(b)
	case "-":
		r = o.sub(b)
	case "*":
		r = o.mul(b)
	}
	if r == nil {
		return b
	}
	if rb, ok := r.(*core.Binary); ok {
		return o.binary(rb)
	}
	return r
}

func intLiteral(e core.Expr) (int64, bool) {
	if v, ok := e.(*core.Value); ok {
		return core.IntValue(v.Val)
	}
	return 0, false
}

func stringLiteral(e core.Expr) (string, bool) {
	if v, ok := e.(*core.Value); ok {
		s, isString := v.Val.(string)
		return s, isString
	}
	return "", false
}

func floatLiteral(e core.Expr) (float64, bool) {
	if v, ok := e.(*core.Value); ok {
		return core.FloatValue(v.Val)
	}
	return 0, false
}

// shifted returns a op' |k| for the folded constant k of (a op k1) ± k2.
func shifted(b *core.Binary, a core.Expr, k int64, positive, negative string) *core.Binary {
	op := positive
	if k < 0 {
		k, op = -k, negative
	}
	return &core.Binary{Left: a, Op: op, Right: core.NewValue(k), Type: b.Type, Prec: core.BinaryPrecedence(op)}
}

func (o optimizer) add(b *core.Binary) core.Expr {
	if n, ok := intLiteral(b.Left); ok && n == 0 {
		return b.Right
	}
	if s, ok := stringLiteral(b.Left); ok && s == "" {
		return b.Right
	}

	if n, ok := intLiteral(b.Right); ok {
		if n == 0 {
			return b.Left
		}
		if inner, isBinary := b.Left.(*core.Binary); isBinary {
			if k, isInt := intLiteral(inner.Right); isInt {
				switch inner.Op {
				case "+":
					return shifted(b, inner.Left, k+n, "+", "-")
				case "-":
					return shifted(b, inner.Left, k-n, "-", "+")
				}
			}
		}
	}

	if s, ok := stringLiteral(b.Right); ok {
		if s == "" {
			return b.Left
		}
		if inner, isBinary := b.Left.(*core.Binary); isBinary && inner.Op == "+" {
			if s1, isString := stringLiteral(inner.Right); isString {
				return &core.Binary{Left: inner.Left, Op: inner.Op, Right: core.NewValue(s1 + s), Type: inner.Type, Prec: inner.Prec}
			}
		}
	}

	lv, lok := b.Left.(*core.Value)
	rv, rok := b.Right.(*core.Value)
	if lok && rok && lv.Val != nil && rv.Val != nil {
		l, lint := core.IntValue(lv.Val)
		r, rint := core.IntValue(rv.Val)
		if lint && rint {
			return core.NewValue(l + r)
		}
		_, ls := lv.Val.(string)
		_, rs := rv.Val.(string)
		if ls || rs {
			return core.NewValue(fmt.Sprint(lv.Val) + fmt.Sprint(rv.Val))
		}
	}

	lt, rt := b.Left.SystemType(), b.Right.SystemType()
	switch {
	case lt == core.KindString && rt != core.KindString:
		return &core.Binary{Left: b.Left, Op: b.Op, Right: o.toVarChar(b.Right), Type: b.Type, Prec: b.Prec}
	case lt != core.KindString && rt == core.KindString:
		return &core.Binary{Left: o.toVarChar(b.Left), Op: b.Op, Right: b.Right, Type: b.Type, Prec: b.Prec}
	}
	return nil
}

// toVarChar wraps e in a conversion to a VARCHAR wide enough for its type.
func (o optimizer) toVarChar(e core.Expr) core.Expr {
	dt := &core.DataType{Kind: core.DataVarChar, Type: core.KindString, Length: o.displaySize(e.SystemType())}
	return o.function(Convert(dt, e))
}

func (o optimizer) sub(b *core.Binary) core.Expr {
	if n, ok := intLiteral(b.Right); ok {
		if n == 0 {
			return b.Left
		}
		if inner, isBinary := b.Left.(*core.Binary); isBinary {
			if k, isInt := intLiteral(inner.Right); isInt {
				switch inner.Op {
				case "+":
					return shifted(b, inner.Left, k-n, "+", "-")
				case "-":
					return shifted(b, inner.Left, k+n, "-", "+")
				}
			}
		}
		if l, isInt := intLiteral(b.Left); isInt {
			return core.NewValue(l - n)
		}
	}
	return nil
}

func (o optimizer) mul(b *core.Binary) core.Expr {
	if n, ok := intLiteral(b.Left); ok {
		switch n {
		case 0:
			return core.NewValue(int64(0))
		case 1:
			return b.Right
		}
		if inner, isBinary := b.Right.(*core.Binary); isBinary && inner.Op == "*" {
			if k, isInt := intLiteral(inner.Left); isInt {
				return core.NewBinary(inner.Type, core.NewValue(n*k), "*", inner.Right)
			}
		}
	}

	if n, ok := intLiteral(b.Right); ok {
		switch n {
		case 1:
			return b.Left
		case 0:
			return core.NewValue(int64(0))
		}
	}

	if l, ok := intLiteral(b.Left); ok {
		if r, isInt := intLiteral(b.Right); isInt {
			return core.NewValue(l * r)
		}
		if r, isFloat := floatLiteral(b.Right); isFloat {
			return core.NewValue(float64(l) * r)
		}
	}
	if l, ok := floatLiteral(b.Left); ok {
		if r, isInt := intLiteral(b.Right); isInt {
			return core.NewValue(l * float64(r))
		}
		if r, isFloat := floatLiteral(b.Right); isFloat {
			return core.NewValue(l * r)
		}
	}
	return nil
}

// ---------- Raw templates ----------

// CastTemplate is the raw template of a CAST conversion: the expression is
// the first argument and the target type the second.
const CastTemplate = "CAST(%[1]s AS %[2]s)"

func (o optimizer) raw(r *core.Raw) core.Expr {
	if r.Format == "%[1]s" && len(r.Args) == 1 && r.Args[0] != nil {
		return r.Args[0]
	}
	return r
}
