package core

import (
	"bytes"
	"reflect"
	"time"

	"github.com/shopspring/decimal"
)

// Equal reports whether two expressions are structurally equal. Fields,
// columns, tables and queries compare by identity; literals by value.
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a == b {
		return true
	}

	switch x := a.(type) {
	case *Value:
		y, ok := b.(*Value)
		return ok && ValuesEqual(x.Val, y.Val)
	case *Parameter:
		y, ok := b.(*Parameter)
		return ok && x.Name == y.Name && x.IsQueryParameter == y.IsQueryParameter &&
			(x.IsQueryParameter || ValuesEqual(x.Val, y.Val))
	case *DataType:
		y, ok := b.(*DataType)
		return ok && x.Kind == y.Kind && x.Length == y.Length &&
			x.Precision == y.Precision && x.Scale == y.Scale
	case *Function:
		y, ok := b.(*Function)
		return ok && x.Is(y.Name) && equalAll(x.Args, y.Args)
	case *Binary:
		y, ok := b.(*Binary)
		return ok && x.Op == y.Op && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *Raw:
		y, ok := b.(*Raw)
		return ok && x.Format == y.Format && equalAll(x.Args, y.Args)
	case *SearchCondition:
		y, ok := b.(*SearchCondition)
		return ok && PredicatesEqual(x, y)
	default:
		return false
	}
}

func equalAll(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// PredicatesEqual reports whether two predicates are structurally equal.
func PredicatesEqual(a, b Predicate) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a == b {
		return true
	}

	switch x := a.(type) {
	case *ExprExpr:
		y, ok := b.(*ExprExpr)
		return ok && x.Op == y.Op && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *Like:
		y, ok := b.(*Like)
		return ok && x.Not == y.Not && Equal(x.Expr, y.Expr) && Equal(x.Pattern, y.Pattern) && Equal(x.Escape, y.Escape)
	case *Between:
		y, ok := b.(*Between)
		return ok && x.Not == y.Not && Equal(x.Expr, y.Expr) && Equal(x.Low, y.Low) && Equal(x.High, y.High)
	case *IsNull:
		y, ok := b.(*IsNull)
		return ok && x.Not == y.Not && Equal(x.Expr, y.Expr)
	case *InSubQuery:
		y, ok := b.(*InSubQuery)
		return ok && x.Not == y.Not && x.Query == y.Query && Equal(x.Expr, y.Expr)
	case *InList:
		y, ok := b.(*InList)
		return ok && x.Not == y.Not && Equal(x.Expr, y.Expr) && equalAll(x.Values, y.Values)
	case *FuncLike:
		y, ok := b.(*FuncLike)
		return ok && Equal(x.Func, y.Func)
	case *ExprPredicate:
		y, ok := b.(*ExprPredicate)
		return ok && Equal(x.Expr, y.Expr)
	case *NotExpr:
		y, ok := b.(*NotExpr)
		return ok && x.Not == y.Not && Equal(x.Expr, y.Expr)
	case *SearchCondition:
		y, ok := b.(*SearchCondition)
		if !ok || len(x.Conditions) != len(y.Conditions) {
			return false
		}
		for i, c := range x.Conditions {
			d := y.Conditions[i]
			if c.Not != d.Not || (c.Or != d.Or && i < len(x.Conditions)-1) || !PredicatesEqual(c.Predicate, d.Predicate) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// ValuesEqual compares two literal values, treating all signed integer
// widths as one type.
func ValuesEqual(a, b any) bool {
	if ai, ok := IntValue(a); ok {
		bi, ok := IntValue(b)
		return ok && ai == bi
	}
	switch x := a.(type) {
	case nil:
		return b == nil
	case []byte:
		y, ok := b.([]byte)
		return ok && bytes.Equal(x, y)
	case decimal.Decimal:
		y, ok := b.(decimal.Decimal)
		return ok && x.Equal(y)
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	}
	return reflect.DeepEqual(a, b)
}
