// Package esutil holds helpers for reading script syntax trees without
// evaluating them.
package esutil

import (
	"strconv"
	"strings"

	"github.com/mvp-joe/featurescan/internal/jsdoc"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Text returns the source text of a node.
func Text(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return string(src[n.StartByte():n.EndByte()])
}

// DottedName returns the dotted path an identifier or member expression
// refers to ("Polymer.Foo.Bar"). Bracket access contributes a segment when its
// subscript is a string literal or an identifier; any other subscript makes the
// name unresolvable.
func DottedName(n *sitter.Node, src []byte) (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Kind() {
	case "identifier", "property_identifier", "this", "shorthand_property_identifier",
		"type_identifier", "private_property_identifier":
		return Text(n, src), true
	case "member_expression":
		object, ok := DottedName(n.ChildByFieldName("object"), src)
		if !ok {
			return "", false
		}
		prop := n.ChildByFieldName("property")
		if prop == nil {
			return "", false
		}
		return object + "." + Text(prop, src), true
	case "subscript_expression":
		object, ok := DottedName(n.ChildByFieldName("object"), src)
		if !ok {
			return "", false
		}
		index := n.ChildByFieldName("index")
		if index == nil {
			return "", false
		}
		switch index.Kind() {
		case "string":
			return object + "." + StringContent(index, src), true
		case "identifier":
			return object + "." + Text(index, src), true
		}
		return "", false
	case "parenthesized_expression":
		if n.NamedChildCount() == 1 {
			return DottedName(n.NamedChild(0), src)
		}
	}
	return "", false
}

// ObjectKeyName returns the static name of an object literal key.
// Computed keys have no static name.
func ObjectKeyName(key *sitter.Node, src []byte) (string, bool) {
	if key == nil {
		return "", false
	}
	switch key.Kind() {
	case "property_identifier", "identifier", "private_property_identifier", "shorthand_property_identifier":
		return Text(key, src), true
	case "string":
		return StringContent(key, src), true
	case "number":
		return Text(key, src), true
	}
	return "", false
}

// StringLiteral returns the value of a string literal or of a template literal
// without substitutions.
func StringLiteral(n *sitter.Node, src []byte) (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Kind() {
	case "string":
		return StringContent(n, src), true
	case "template_string":
		for i := uint(0); i < n.NamedChildCount(); i++ {
			if c := n.NamedChild(i); c != nil && c.Kind() == "template_substitution" {
				return "", false
			}
		}
		raw := Text(n, src)
		return raw[1 : len(raw)-1], true
	case "parenthesized_expression":
		if n.NamedChildCount() == 1 {
			return StringLiteral(n.NamedChild(0), src)
		}
	}
	return "", false
}

// StringContent returns the unescaped contents of a quoted string node.
func StringContent(n *sitter.Node, src []byte) string {
	return Unquote(Text(n, src))
}

// Unquote strips JavaScript string quotes and resolves escape sequences where
// Go's rules agree with JavaScript's; otherwise the raw contents are returned.
func Unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	q := s[0]
	if (q != '"' && q != '\'') || s[len(s)-1] != q {
		return s
	}
	body := s[1 : len(s)-1]
	if !strings.ContainsRune(body, '\\') {
		return body
	}
	if v, err := strconv.Unquote(`"` + goQuoted(body) + `"`); err == nil {
		return v
	}
	return body
}

// goQuoted rewrites the body of a JavaScript string literal for a Go
// double-quoted literal. Escape pairs are kept whole, so an escaped quote is
// never escaped twice.
func goQuoted(body string) string {
	var b strings.Builder
	b.Grow(len(body) + 2)
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '\\' && i+1 < len(body):
			i++
			if body[i] == '\'' {
				b.WriteByte('\'')
			} else {
				b.WriteByte(c)
				b.WriteByte(body[i])
			}
		case c == '"':
			b.WriteString(`\"`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// LeadingComment returns the documentation comment attached above a node.
// Attachment climbs through the wrappers a declaration sits in, so a comment
// above "export const X = ..." or "a.b = ..." is found from the inner node.
func LeadingComment(n *sitter.Node, src []byte) string {
	for cur := n; cur != nil; {
		if c := docCommentBefore(cur, src); c != "" {
			return c
		}
		parent := cur.Parent()
		if parent == nil || !isWrapper(parent.Kind()) || !leadsParent(cur) {
			return ""
		}
		cur = parent
	}
	return ""
}

// docCommentBefore looks through the contiguous run of comments directly
// preceding n for the nearest /** comment.
func docCommentBefore(n *sitter.Node, src []byte) string {
	for prev := n.PrevSibling(); prev != nil && prev.Kind() == "comment"; prev = prev.PrevSibling() {
		text := Text(prev, src)
		if jsdoc.IsDocComment(text) {
			return text
		}
	}
	return ""
}

func isWrapper(kind string) bool {
	switch kind {
	case "expression_statement", "export_statement", "variable_declaration",
		"lexical_declaration", "variable_declarator", "parenthesized_expression":
		return true
	}
	return false
}

// leadsParent reports whether only keywords or punctuation precede n inside
// its parent, so a comment above the parent also sits above n.
func leadsParent(n *sitter.Node) bool {
	for prev := n.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
		if prev.IsNamed() {
			return false
		}
	}
	return true
}

// DocComments returns the text of every /** comment inside n, in source order.
func DocComments(n *sitter.Node, src []byte) []string {
	nodes := DocCommentNodes(n, src)
	if len(nodes) == 0 {
		return nil
	}
	out := make([]string, len(nodes))
	for i, c := range nodes {
		out[i] = Text(c, src)
	}
	return out
}

// DocCommentNodes returns every /** comment node inside n, in source order.
func DocCommentNodes(n *sitter.Node, src []byte) []*sitter.Node {
	var out []*sitter.Node
	var walk func(*sitter.Node)
	walk = func(cur *sitter.Node) {
		if cur.Kind() == "comment" {
			if jsdoc.IsDocComment(Text(cur, src)) {
				out = append(out, cur)
			}
			return
		}
		for i := uint(0); i < cur.ChildCount(); i++ {
			if c := cur.Child(i); c != nil {
				walk(c)
			}
		}
	}
	if n != nil {
		walk(n)
	}
	return out
}

// Unwrap strips parentheses around an expression.
func Unwrap(n *sitter.Node) *sitter.Node {
	for n != nil && n.Kind() == "parenthesized_expression" && n.NamedChildCount() == 1 {
		n = n.NamedChild(0)
	}
	return n
}

// NamedChildren returns the named children of n, skipping comments.
func NamedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := uint(0); i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		if c == nil || c.Kind() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ConstructorType maps a Polymer type constructor to its closure type name.
func ConstructorType(name string) (string, bool) {
	switch name {
	case "String":
		return "string", true
	case "Number":
		return "number", true
	case "Boolean":
		return "boolean", true
	case "Array":
		return "Array", true
	case "Object":
		return "Object", true
	case "Date":
		return "Date", true
	}
	return "", false
}
