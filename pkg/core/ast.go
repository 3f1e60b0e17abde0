package core

// Node is the base interface for all query tree nodes.
//
// The node sets below are closed: every variant lives in this package and
// carries an unexported marker method, so switches in the rewriters and the
// renderer only ever see the types declared here.
type Node interface {
	node()
}

// Expr is a value-producing node.
type Expr interface {
	Node
	exprNode() // Marker method to distinguish expressions

	// Precedence is used solely to decide parenthesization when rendering.
	Precedence() int
	// SystemType is the type of the value the expression yields.
	SystemType() Kind
	// CanBeNull reports whether the expression may evaluate to NULL.
	CanBeNull() bool
}

// Predicate is a boolean-valued node usable in a search condition.
type Predicate interface {
	Node
	predicateNode() // Marker method to distinguish predicates

	Precedence() int
	CanBeNull() bool
}

// Source is what a TableSource wraps: a *Table or a *Query.
type Source interface {
	Node
	sourceNode()

	// Keys returns the expressions that identify one row of the source.
	Keys() []Expr
}
