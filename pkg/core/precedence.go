package core

// Operator precedence, higher binds tighter. The values only drive
// parenthesization in the renderer; they never affect evaluation.
const (
	PrecedencePrimary            = 100
	PrecedenceUnary              = 90
	PrecedenceMultiplicative     = 80
	PrecedenceSubtraction        = 70
	PrecedenceAdditive           = 60
	PrecedenceComparison         = 50
	PrecedenceBitwise            = 40
	PrecedenceLogicalNegation    = 30
	PrecedenceLogicalConjunction = 20
	PrecedenceLogicalDisjunction = 10
	PrecedenceUnknown            = 0
)

// BinaryPrecedence returns the precedence a binary operator gets by default.
func BinaryPrecedence(op string) int {
	switch op {
	case "*", "/", "%":
		return PrecedenceMultiplicative
	case "-":
		return PrecedenceSubtraction
	case "+", "||":
		return PrecedenceAdditive
	case "&", "|", "^":
		return PrecedenceBitwise
	default:
		return PrecedenceUnknown
	}
}

// NeedsParens reports whether a child of precedence child rendered under a
// parent of precedence parent must be parenthesized. Subtraction and
// negation are not associative, so an equal-precedence child on the right
// side still gets parentheses.
func NeedsParens(child, parent int, right bool) bool {
	if child == PrecedenceUnknown || child < parent {
		return true
	}
	return right && child == parent &&
		(parent == PrecedenceSubtraction || parent == PrecedenceLogicalNegation)
}
