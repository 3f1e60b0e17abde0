package optimize

import "github.com/leapstack-labs/sqlgen/pkg/core"

// Function names with rewrite rules.
const (
	FuncCase                   = "CASE"
	FuncConvert                = "Convert"
	FuncConvertClamped         = "$Convert$"
	FuncConvertToCaseCompareTo = "ConvertToCaseCompareTo"
	FuncAverage                = "Average"
	FuncAvg                    = "Avg"
	FuncMax                    = "Max"
	FuncMin                    = "Min"
)

// Convert returns the conversion of e to dt.
func Convert(dt *core.DataType, e core.Expr) *core.Function {
	return core.NewFunction(dt.SystemType(), FuncConvert, dt, e)
}

// Case returns a CASE function over alternating condition and value
// arguments with an optional trailing else value.
func Case(kind core.Kind, args ...core.Expr) *core.Function {
	return core.NewFunction(kind, FuncCase, args...)
}

func (o optimizer) function(f *core.Function) core.Expr {
	switch {
	case f.Is(FuncConvertToCaseCompareTo) && len(f.Args) == 2:
		a, b := f.Args[0], f.Args[1]
		return o.expr(Case(f.Type,
			core.NewSearchCondition(core.Cond(&core.ExprExpr{Left: a, Op: core.OpGreater, Right: b})), core.NewValue(1),
			core.NewSearchCondition(core.Cond(&core.ExprExpr{Left: a, Op: core.OpEqual, Right: b})), core.NewValue(0),
			core.NewValue(-1),
		))

	case f.Is(FuncConvertClamped) && len(f.Args) == 3:
		return o.clampedConversion(f)

	case f.Is(FuncAverage):
		c := *f
		c.Name = FuncAvg
		return &c

	case (f.Is(FuncMax) || f.Is(FuncMin)) && f.Type == core.KindBool && len(f.Args) == 1:
		return &core.Function{
			Name: f.Name,
			Args: []core.Expr{Case(core.KindInt32, f.Args[0], core.NewValue(1), core.NewValue(0))},
			Type: core.KindInt32,
			Prec: f.Prec,
		}

	case f.Is(FuncCase):
		return foldCase(f)

	case f.Is(FuncConvert) && len(f.Args) == 2:
		return unwrapConversion(f)
	}
	return f
}

// foldCase drops WHEN branches whose condition is a false literal and cuts
// the list at the first true literal.
func foldCase(f *core.Function) core.Expr {
	args := f.Args
	changed := false

	for i := 0; i+1 < len(args); {
		lit, ok := boolLiteral(args[i])
		if !ok {
			i += 2
			continue
		}
		changed = true
		if !lit {
			args = append(append([]core.Expr(nil), args[:i]...), args[i+2:]...)
			continue
		}
		args = append(append([]core.Expr(nil), args[:i]...), args[i+1])
		break
	}

	switch len(args) {
	case 0:
		return &core.Value{Val: nil, Type: f.Type}
	case 1:
		return args[0]
	}
	if !changed {
		return f
	}
	c := *f
	c.Args = args
	return &c
}

func boolLiteral(e core.Expr) (value, ok bool) {
	if v, isValue := e.(*core.Value); isValue {
		b, isBool := v.Val.(bool)
		return b, isBool
	}
	return false, false
}

// unwrapConversion removes Convert(T, Convert(U, x)) and
// Convert(T, CAST(x AS U)) when x already has the system type of T.
func unwrapConversion(f *core.Function) core.Expr {
	target := f.Type
	switch inner := f.Args[1].(type) {
	case *core.Function:
		if inner.Is(FuncConvert) && len(inner.Args) == 2 && inner.Args[1].SystemType() == target {
			return inner.Args[1]
		}
	case *core.Raw:
		if inner.Format == CastTemplate && len(inner.Args) == 2 && inner.Args[0].SystemType() == target {
			return inner.Args[0]
		}
	}
	return f
}

// clampedConversion rewrites $Convert$(to, from, x) into a Convert whose
// length, precision and scale do not exceed what the source type can hold.
func (o optimizer) clampedConversion(f *core.Function) core.Expr {
	to, toOK := f.Args[0].(*core.DataType)
	from, fromOK := f.Args[1].(*core.DataType)
	x := f.Args[2]
	if !toOK || !fromOK {
		return f
	}

	if to.SystemType() == core.KindObject {
		return x
	}

	switch {
	case to.Precision > 0:
		precision, scale := clamp(to.Precision, from.Kind.MaxPrecision()), clamp(to.Scale, from.Kind.MaxScale())
		if precision != to.Precision || scale != to.Scale {
			to = &core.DataType{Kind: to.Kind, Type: to.Type, Precision: precision, Scale: scale}
		}
	case to.Length > 0:
		limit := from.Kind.MaxLength()
		if to.SystemType() == core.KindString {
			limit = from.Kind.MaxDisplaySize()
			if o.sizer != nil {
				limit = o.sizer.MaxDisplaySize(from.Kind)
			}
		}
		if length := clamp(to.Length, limit); length != to.Length {
			to = &core.DataType{Kind: to.Kind, Type: to.Type, Length: length}
		}
	case from.SystemType() == core.KindInt16 && to.SystemType() == core.KindInt32:
		return x
	}

	return o.function(core.NewFunction(f.Type, FuncConvert, to, x))
}

func clamp(v, limit int) int {
	if limit >= 0 && limit < v {
		return limit
	}
	return v
}
