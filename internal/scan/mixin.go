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

// MixinScanner finds class mixin functions documented with @mixinFunction.
type MixinScanner struct {
	opts options
}

// NewMixinScanner creates a mixin scanner.
func NewMixinScanner(opts ...Option) *MixinScanner {
	return &MixinScanner{opts: newOptions(opts)}
}

func (s *MixinScanner) Name() string { return "mixin" }

func (s *MixinScanner) Begin(doc *parse.JavaScriptDocument, warnings *diag.Collector) Pass {
	p := &mixinPass{x: &extractor{doc: doc, logger: s.opts.logger, warnings: warnings}}
	p.visitor = visitor.New().
		OnEnter("function_declaration", p.enterFunction).
		OnEnter("variable_declaration", p.enterDeclaration).
		OnEnter("lexical_declaration", p.enterDeclaration).
		OnEnter("assignment_expression", p.enterAssignment)
	return p
}

type mixinPass struct {
	x       *extractor
	visitor *visitor.Visitor
	mixins  []feature.Scanned
}

func (p *mixinPass) Visitor() *visitor.Visitor { return p.visitor }

func (p *mixinPass) Finish(ctx context.Context) ([]feature.Scanned, error) {
	return p.mixins, nil
}

func (p *mixinPass) enterFunction(node, _ *sitter.Node) error {
	ann := p.x.annotationFor(node)
	if !ann.Has("mixinFunction") {
		return nil
	}
	name := mixinTagName(ann)
	if name == "" {
		name = p.x.doc.Text(node.ChildByFieldName("name"))
	}
	return p.add(node, ann, name, node.ChildByFieldName("body"))
}

func (p *mixinPass) enterDeclaration(node, _ *sitter.Node) error {
	ann := p.x.annotationFor(node)
	if !ann.Has("mixinFunction") {
		return nil
	}
	declarator, ok := singleDeclarator(node)
	if !ok {
		return nil
	}
	value := declarator.ChildByFieldName("value")
	name := mixinTagName(ann)
	if name == "" {
		if name, ok = boundName(value, p.x.src()); !ok {
			return nil
		}
	}
	return p.add(node, ann, name, value)
}

func (p *mixinPass) enterAssignment(node, parent *sitter.Node) error {
	ann := p.x.annotationFor(node)
	if !ann.Has("mixinFunction") {
		return nil
	}
	value := node.ChildByFieldName("right")
	name := mixinTagName(ann)
	if name == "" {
		var ok bool
		if name, ok = esutil.DottedName(node.ChildByFieldName("left"), p.x.src()); !ok {
			return nil
		}
	}
	target := node
	if parent != nil && parent.Kind() == "expression_statement" {
		target = parent
	}
	return p.add(target, ann, name, value)
}

func mixinTagName(ann *jsdoc.Annotation) string {
	tag, _ := ann.Tag("mixinFunction")
	return tag.Name
}

func (p *mixinPass) add(node *sitter.Node, ann *jsdoc.Annotation, name string, value *sitter.Node) error {
	if name == "" {
		return nil
	}
	class := findClass(value)
	if class == nil {
		p.x.skip(node, "mixin "+name, "mixin function does not return a class")
		return nil
	}

	r, err := requireRange(p.x.doc, node, name)
	if err != nil {
		return err
	}
	m := &feature.ScannedPolymerElementMixin{
		ScannedBase: feature.ScannedBase{
			SourceRange: r,
			Description: ann.Description,
			JSDoc:       ann,
			ASTNode:     node,
		},
		Name:     name,
		Abstract: ann.Has("abstract"),
	}
	t := target{decl: &m.ScannedDeclaration, base: &m.ScannedBase}
	p.x.readClass(class, t)

	// The innermost heritage value is the function's base class parameter.
	_, m.Mixins = p.x.heritage(class)
	m.Mixins = p.x.appliedMixins(ann, node, m.Mixins)
	p.x.readEvents(ann, node, class.ChildByFieldName("body"), t)

	p.mixins = append(p.mixins, m)
	return nil
}
