package scan

import (
	"context"

	"github.com/mvp-joe/featurescan/internal/diag"
	"github.com/mvp-joe/featurescan/internal/esutil"
	"github.com/mvp-joe/featurescan/internal/feature"
	"github.com/mvp-joe/featurescan/internal/jsdoc"
	"github.com/mvp-joe/featurescan/internal/parse"
	"github.com/mvp-joe/featurescan/internal/visitor"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// BehaviorScanner finds behavior objects documented with @polymerBehavior.
//
// A behavior is either an object literal or an array literal. Array elements
// that name other behaviors become references; object literal elements are
// merged into the behavior's own declaration.
type BehaviorScanner struct {
	opts options
}

// NewBehaviorScanner creates a behavior scanner.
func NewBehaviorScanner(opts ...Option) *BehaviorScanner {
	return &BehaviorScanner{opts: newOptions(opts)}
}

func (s *BehaviorScanner) Name() string { return "behavior" }

func (s *BehaviorScanner) Begin(doc *parse.JavaScriptDocument, warnings *diag.Collector) Pass {
	p := &behaviorPass{x: &extractor{doc: doc, logger: s.opts.logger, warnings: warnings}}
	p.visitor = visitor.New().
		OnEnter("variable_declaration", p.enterDeclaration).
		OnEnter("lexical_declaration", p.enterDeclaration).
		OnEnter("assignment_expression", p.enterAssignment)
	return p
}

type behaviorPass struct {
	x         *extractor
	visitor   *visitor.Visitor
	behaviors []feature.Scanned
}

func (p *behaviorPass) Visitor() *visitor.Visitor { return p.visitor }

func (p *behaviorPass) Finish(ctx context.Context) ([]feature.Scanned, error) {
	return p.behaviors, nil
}

func (p *behaviorPass) enterDeclaration(node, _ *sitter.Node) error {
	ann := p.x.annotationFor(node)
	if !ann.Has("polymerBehavior") {
		return nil
	}
	declarator, ok := singleDeclarator(node)
	if !ok {
		return nil
	}
	value := declarator.ChildByFieldName("value")
	if value == nil {
		return nil
	}
	name, ok := behaviorName(ann, value, p.x.src())
	if !ok {
		return nil
	}
	return p.add(node, ann, name, value)
}

func (p *behaviorPass) enterAssignment(node, parent *sitter.Node) error {
	ann := p.x.annotationFor(node)
	if !ann.Has("polymerBehavior") {
		return nil
	}
	value := node.ChildByFieldName("right")
	name, ok := behaviorName(ann, value, p.x.src())
	if !ok {
		return nil
	}
	target := node
	if parent != nil && parent.Kind() == "expression_statement" {
		target = parent
	}
	return p.add(target, ann, name, value)
}

func behaviorName(ann *jsdoc.Annotation, value *sitter.Node, src []byte) (string, bool) {
	if tag, _ := ann.Tag("polymerBehavior"); tag.Name != "" {
		return tag.Name, true
	}
	return boundName(value, src)
}

func (p *behaviorPass) add(node *sitter.Node, ann *jsdoc.Annotation, name string, value *sitter.Node) error {
	value = esutil.Unwrap(value)
	if value == nil || (value.Kind() != "object" && value.Kind() != "array") {
		p.x.skip(node, "behavior "+name, "value is not an object or array literal")
		return nil
	}

	r, err := requireRange(p.x.doc, node, name)
	if err != nil {
		return err
	}
	b := &feature.ScannedBehavior{
		ScannedBase: feature.ScannedBase{
			SourceRange: r,
			Description: ann.Description,
			JSDoc:       ann,
			ASTNode:     node,
		},
		Name:     name,
		Abstract: ann.Has("abstract"),
	}
	t := target{decl: &b.ScannedDeclaration, base: &b.ScannedBase}

	switch value.Kind() {
	case "object":
		p.x.readObject(value, t)
	case "array":
		for _, el := range esutil.NamedChildren(value) {
			if inner := esutil.Unwrap(el); inner.Kind() == "object" {
				p.x.readObject(inner, t)
				continue
			}
			refName, ok := esutil.DottedName(el, p.x.src())
			if !ok {
				t.warn(p.x, diag.CodeCouldNotDetermineBehaviorName, el,
					"could not determine behavior name from expression "+p.x.doc.Text(el))
				continue
			}
			b.BehaviorAssignments = append(b.BehaviorAssignments, feature.ScannedBehaviorAssignment{
				Name:        refName,
				SourceRange: p.x.doc.SourceRangeForNode(el),
			})
		}
	}
	p.x.readEvents(ann, node, value, t)

	p.behaviors = append(p.behaviors, b)
	return nil
}
