package feature

import (
	"encoding/json"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Evaluated is the result of statically evaluating an expression: either a
// literal value or a marker that evaluation was not possible. The marker keeps
// the original expression so later passes can still inspect it.
type Evaluated struct {
	value     any
	converted bool
	node      *sitter.Node
	text      string
}

// Literal wraps a successfully evaluated value. Valid values are nil, bool,
// float64, string, []any and map[string]any.
func Literal(v any, node *sitter.Node) Evaluated {
	return Evaluated{value: v, converted: true, node: node}
}

// CannotConvert records an expression that has no static value.
func CannotConvert(node *sitter.Node, text string) Evaluated {
	return Evaluated{node: node, text: text}
}

// Value returns the literal and whether evaluation succeeded.
func (e Evaluated) Value() (any, bool) {
	return e.value, e.converted
}

// Converted reports whether the expression had a static value.
func (e Evaluated) Converted() bool {
	return e.converted
}

// Node returns the original expression handle.
func (e Evaluated) Node() *sitter.Node {
	return e.node
}

// Text returns the source text of an unconvertible expression.
func (e Evaluated) Text() string {
	return e.text
}

// JSON renders the value for serialized metadata. Unconvertible expressions
// render as their source text.
func (e Evaluated) JSON() string {
	if !e.converted {
		return e.text
	}
	b, err := json.Marshal(e.value)
	if err != nil {
		return e.text
	}
	return string(b)
}
