package optimize

import "github.com/leapstack-labs/sqlgen/pkg/core"

// Add returns the simplified form of a + b typed as kind.
func Add(kind core.Kind, a, b core.Expr) core.Expr {
	return Expr(core.NewBinary(kind, a, "+", b), nil)
}

// Sub returns the simplified form of a - b typed as kind.
func Sub(kind core.Kind, a, b core.Expr) core.Expr {
	return Expr(core.NewBinary(kind, a, "-", b), nil)
}

// Mul returns the simplified form of a * b typed as kind.
func Mul(kind core.Kind, a, b core.Expr) core.Expr {
	return Expr(core.NewBinary(kind, a, "*", b), nil)
}

// Div returns a / b typed as kind. Division by the literal 1 is dropped.
func Div(kind core.Kind, a, b core.Expr) core.Expr {
	if n, ok := intLiteral(b); ok && n == 1 {
		return a
	}
	return Expr(core.NewBinary(kind, a, "/", b), nil)
}
