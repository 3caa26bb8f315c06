package vtl

import "io"

// node is the result of any parser: a concrete AST node value. Grounded on
// spec.md §9's "AST as tagged variants" note — rather than a closed sum
// type, each node kind implements whichever of the two node-shaped
// interfaces below applies to it (statement or expression). Helper nodes
// such as NameOrCall, SubExpression, Assignment and the #else/#elseif
// parts implement neither and are evaluated by their parent node.
type node = any

// stmt is a block-level AST node: Text, Placeholder, Comment, and every
// directive. eval writes its contribution to out in document order.
type stmt interface {
	eval(ns *Namespace, out io.Writer, ldr Loader) error
}

// expr is an expression-level AST node: literals, SimpleReference,
// VariableExpression, Condition. calculate evaluates against ns and returns a
// Value, never writing to the output sink directly.
type expr interface {
	calculate(ns *Namespace) (Value, error)
}
