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

// ElementScanner finds component definitions: Polymer({...}) calls and
// classes that declare a tag name through a static "is" getter or a
// @customElement tag.
type ElementScanner struct {
	opts options
}

// NewElementScanner creates an element scanner.
func NewElementScanner(opts ...Option) *ElementScanner {
	return &ElementScanner{opts: newOptions(opts)}
}

func (s *ElementScanner) Name() string { return "element" }

func (s *ElementScanner) Begin(doc *parse.JavaScriptDocument, warnings *diag.Collector) Pass {
	p := &elementPass{x: &extractor{doc: doc, logger: s.opts.logger, warnings: warnings}}
	p.visitor = visitor.New().
		OnEnter("call_expression", p.enterCall).
		OnEnter("class_declaration", p.enterClass).
		OnEnter("class", p.enterClass)
	return p
}

type elementPass struct {
	x        *extractor
	visitor  *visitor.Visitor
	elements []feature.Scanned
}

func (p *elementPass) Visitor() *visitor.Visitor { return p.visitor }

func (p *elementPass) Finish(ctx context.Context) ([]feature.Scanned, error) {
	return p.elements, nil
}

func (p *elementPass) enterCall(node, _ *sitter.Node) error {
	callee, ok := esutil.DottedName(node.ChildByFieldName("function"), p.x.src())
	if !ok || callee != "Polymer" {
		return nil
	}
	args := esutil.NamedChildren(node.ChildByFieldName("arguments"))
	if len(args) == 0 {
		return nil
	}
	obj := esutil.Unwrap(args[0])
	if obj.Kind() != "object" {
		return nil
	}

	ann := p.x.annotationFor(node)
	className, _ := boundName(node, p.x.src())
	el, err := p.newElement(node, ann, className)
	if err != nil {
		return err
	}
	t := target{decl: &el.ScannedDeclaration, base: &el.ScannedBase}
	p.x.readObject(obj, t)
	p.x.readEvents(ann, node, obj, t)

	p.elements = append(p.elements, el)
	return nil
}

func (p *elementPass) enterClass(node, _ *sitter.Node) error {
	ann := p.x.annotationFor(node)
	if ann.Has("mixinFunction") {
		return nil
	}

	name := p.x.className(node)
	el, err := p.newElement(node, ann, name)
	if err != nil {
		return err
	}
	t := target{decl: &el.ScannedDeclaration, base: &el.ScannedBase}
	p.x.readClass(node, t)

	if tag, ok := ann.Tag("customElement"); ok && el.TagName == "" {
		el.TagName = tag.Name
	}
	if el.TagName == "" && !ann.Has("customElement") {
		return nil
	}

	el.SuperClass, el.Mixins = p.x.heritage(node)
	el.Mixins = p.x.appliedMixins(ann, node, el.Mixins)
	p.x.readEvents(ann, node, node.ChildByFieldName("body"), t)

	p.elements = append(p.elements, el)
	return nil
}

func (p *elementPass) newElement(node *sitter.Node, ann *jsdoc.Annotation, className string) (*feature.ScannedPolymerElement, error) {
	label := className
	if label == "" {
		label = "element"
	}
	r, err := requireRange(p.x.doc, node, label)
	if err != nil {
		return nil, err
	}
	var desc string
	if ann != nil {
		desc = ann.Description
	}
	return &feature.ScannedPolymerElement{
		ScannedBase: feature.ScannedBase{
			SourceRange: r,
			Description: desc,
			JSDoc:       ann,
			ASTNode:     node,
		},
		ClassName: className,
	}, nil
}
