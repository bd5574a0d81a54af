package scan

import (
	"slices"

	"github.com/mvp-joe/featurescan/internal/esutil"
	"github.com/mvp-joe/featurescan/internal/feature"
	"github.com/mvp-joe/featurescan/internal/jsdoc"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// readClass reads static getters and static fields of a class body. A getter
// contributes the expression it returns, so "static get properties()" is read
// like a "properties" key of an object definition.
func (x *extractor) readClass(class *sitter.Node, t target) {
	body := class.ChildByFieldName("body")
	for _, member := range esutil.NamedChildren(body) {
		if !hasKeyword(member, "static", "static get") {
			continue
		}
		name := x.doc.Text(member.ChildByFieldName("name"))
		switch member.Kind() {
		case "method_definition":
			if !hasKeyword(member, "get", "static get") {
				continue
			}
			x.readMember(name, returnedExpression(member.ChildByFieldName("body")), t)
		case "public_field_definition", "field_definition":
			x.readMember(name, member.ChildByFieldName("value"), t)
		}
	}
}

// heritage splits an extends clause like A(B(Base)) into the base class and
// the applied mixins, innermost first.
func (x *extractor) heritage(class *sitter.Node) (string, []feature.ScannedReference) {
	value := extendsValue(class)
	var mixins []feature.ScannedReference
	for value != nil && value.Kind() == "call_expression" {
		if name, ok := esutil.DottedName(value.ChildByFieldName("function"), x.src()); ok {
			mixins = append(mixins, feature.ScannedReference{
				Name:        name,
				SourceRange: x.doc.SourceRangeForNode(value),
			})
		}
		args := esutil.NamedChildren(value.ChildByFieldName("arguments"))
		if len(args) == 0 {
			value = nil
			break
		}
		value = esutil.Unwrap(args[0])
	}
	slices.Reverse(mixins)

	if value == nil {
		return "", mixins
	}
	if name, ok := esutil.DottedName(value, x.src()); ok {
		return name, mixins
	}
	return x.doc.Text(value), mixins
}

// appliedMixins adds @appliesMixin references that the heritage did not name.
func (x *extractor) appliedMixins(ann *jsdoc.Annotation, node *sitter.Node, mixins []feature.ScannedReference) []feature.ScannedReference {
	for _, tag := range ann.TagsByTitle("appliesMixin") {
		if tag.Name == "" {
			continue
		}
		dup := slices.ContainsFunc(mixins, func(m feature.ScannedReference) bool { return m.Name == tag.Name })
		if dup {
			continue
		}
		mixins = append(mixins, feature.ScannedReference{
			Name:        tag.Name,
			SourceRange: x.doc.SourceRangeForNode(node),
		})
	}
	return mixins
}

// className returns a class's own name or the name it is bound to.
func (x *extractor) className(class *sitter.Node) string {
	if id := class.ChildByFieldName("name"); id != nil {
		return x.doc.Text(id)
	}
	name, _ := boundName(class, x.src())
	return name
}

func extendsValue(class *sitter.Node) *sitter.Node {
	for _, c := range esutil.NamedChildren(class) {
		if c.Kind() != "class_heritage" {
			continue
		}
		for _, h := range esutil.NamedChildren(c) {
			if h.Kind() == "extends_clause" {
				return esutil.Unwrap(h.ChildByFieldName("value"))
			}
		}
		// JavaScript grammar: class_heritage holds the expression directly.
		if children := esutil.NamedChildren(c); len(children) > 0 && children[0].Kind() != "implements_clause" {
			return esutil.Unwrap(children[0])
		}
	}
	return nil
}

// returnedExpression returns the expression of the first top-level return
// statement of a function body.
func returnedExpression(body *sitter.Node) *sitter.Node {
	for _, stmt := range esutil.NamedChildren(body) {
		if stmt.Kind() != "return_statement" {
			continue
		}
		children := esutil.NamedChildren(stmt)
		if len(children) == 0 {
			return nil
		}
		return children[0]
	}
	return nil
}

// findClass returns the first class in n, in pre-order.
func findClass(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	if n.Kind() == "class" || n.Kind() == "class_declaration" {
		return n
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if c := findClass(n.NamedChild(i)); c != nil {
			return c
		}
	}
	return nil
}

func hasKeyword(n *sitter.Node, keywords ...string) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c != nil && !c.IsNamed() && slices.Contains(keywords, c.Kind()) {
			return true
		}
	}
	return false
}
