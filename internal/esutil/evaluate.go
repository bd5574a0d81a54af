package esutil

import (
	"strconv"
	"strings"

	"github.com/mvp-joe/featurescan/internal/feature"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Evaluate statically evaluates literal expressions. Anything that would need
// running code yields feature.CannotConvert with the original node retained.
func Evaluate(n *sitter.Node, src []byte) feature.Evaluated {
	if v, ok := evaluate(n, src); ok {
		return feature.Literal(v, n)
	}
	return feature.CannotConvert(n, Text(n, src))
}

func evaluate(n *sitter.Node, src []byte) (any, bool) {
	if n == nil {
		return nil, false
	}
	switch n.Kind() {
	case "string", "template_string":
		return StringLiteral(n, src)
	case "number":
		return parseNumber(Text(n, src))
	case "true":
		return true, true
	case "false":
		return false, true
	case "null":
		return nil, true
	case "undefined":
		return nil, true
	case "identifier":
		if Text(n, src) == "undefined" {
			return nil, true
		}
	case "parenthesized_expression":
		if n.NamedChildCount() == 1 {
			return evaluate(n.NamedChild(0), src)
		}
	case "unary_expression":
		return evaluateUnary(n, src)
	case "array":
		out := []any{}
		for _, el := range NamedChildren(n) {
			v, ok := evaluate(el, src)
			if !ok {
				return nil, false
			}
			out = append(out, v)
		}
		return out, true
	case "object":
		out := map[string]any{}
		for _, member := range NamedChildren(n) {
			if member.Kind() != "pair" {
				return nil, false
			}
			key, ok := ObjectKeyName(member.ChildByFieldName("key"), src)
			if !ok {
				return nil, false
			}
			v, ok := evaluate(member.ChildByFieldName("value"), src)
			if !ok {
				return nil, false
			}
			out[key] = v
		}
		return out, true
	}
	return nil, false
}

func evaluateUnary(n *sitter.Node, src []byte) (any, bool) {
	op := n.ChildByFieldName("operator")
	arg, ok := evaluate(n.ChildByFieldName("argument"), src)
	if op == nil || !ok {
		return nil, false
	}
	switch Text(op, src) {
	case "-":
		if f, isNum := arg.(float64); isNum {
			return -f, true
		}
	case "+":
		if f, isNum := arg.(float64); isNum {
			return f, true
		}
	case "!":
		return !truthy(arg), true
	}
	return nil, false
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	}
	return true
}

func parseNumber(text string) (any, bool) {
	clean := strings.ReplaceAll(text, "_", "")
	if f, err := strconv.ParseFloat(clean, 64); err == nil {
		return f, true
	}
	if i, err := strconv.ParseInt(clean, 0, 64); err == nil {
		return float64(i), true
	}
	return nil, false
}
