package scan

import (
	"context"
	"fmt"
	"strings"

	"github.com/mvp-joe/featurescan/internal/diag"
	"github.com/mvp-joe/featurescan/internal/esutil"
	"github.com/mvp-joe/featurescan/internal/feature"
	"github.com/mvp-joe/featurescan/internal/jsdoc"
	"github.com/mvp-joe/featurescan/internal/parse"
	"github.com/mvp-joe/featurescan/internal/source"
	"github.com/mvp-joe/featurescan/internal/visitor"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NamespaceScanner finds objects documented with @namespace.
type NamespaceScanner struct{}

// NewNamespaceScanner creates a namespace scanner.
func NewNamespaceScanner() *NamespaceScanner {
	return &NamespaceScanner{}
}

func (s *NamespaceScanner) Name() string { return "namespace" }

func (s *NamespaceScanner) Begin(doc *parse.JavaScriptDocument, warnings *diag.Collector) Pass {
	p := &namespacePass{doc: doc, warnings: warnings}
	p.visitor = visitor.New().
		OnEnter("variable_declaration", p.enterDeclaration).
		OnEnter("lexical_declaration", p.enterDeclaration).
		OnEnter("assignment_expression", p.enterAssignment)
	return p
}

type namespacePass struct {
	doc        *parse.JavaScriptDocument
	warnings   *diag.Collector
	visitor    *visitor.Visitor
	namespaces []feature.Scanned
}

func (p *namespacePass) Visitor() *visitor.Visitor { return p.visitor }

func (p *namespacePass) Finish(ctx context.Context) ([]feature.Scanned, error) {
	return p.namespaces, nil
}

func (p *namespacePass) enterDeclaration(node, _ *sitter.Node) error {
	ann := p.annotation(node)
	if !ann.Has("namespace") {
		return nil
	}

	var declarators []*sitter.Node
	for _, c := range esutil.NamedChildren(node) {
		if c.Kind() == "variable_declarator" {
			declarators = append(declarators, c)
		}
	}
	// Several declarators under one comment are ambiguous.
	if len(declarators) != 1 {
		p.warnings.Addf(diag.CodeSkippedDeclaration, diag.SeverityInfo, p.doc.SourceRangeForNode(node),
			"skipped namespace: %d declarators share one @namespace comment", len(declarators))
		return nil
	}

	name := namespaceTagName(ann)
	if name == "" {
		id := declarators[0].ChildByFieldName("name")
		if id == nil || id.Kind() != "identifier" {
			return nil
		}
		name = p.doc.Text(id)
	}
	return p.add(node, ann, name)
}

func (p *namespacePass) enterAssignment(node, parent *sitter.Node) error {
	ann := p.annotation(node)
	if !ann.Has("namespace") {
		return nil
	}

	name := namespaceTagName(ann)
	if name == "" {
		var ok bool
		name, ok = esutil.DottedName(node.ChildByFieldName("left"), p.doc.Contents())
		if !ok {
			return nil
		}
	}

	target := node
	if parent != nil && parent.Kind() == "expression_statement" {
		target = parent
	}
	return p.add(target, ann, name)
}

func (p *namespacePass) annotation(node *sitter.Node) *jsdoc.Annotation {
	comment := esutil.LeadingComment(node, p.doc.Contents())
	if comment == "" {
		return nil
	}
	return jsdoc.Parse(comment)
}

func (p *namespacePass) add(node *sitter.Node, ann *jsdoc.Annotation, name string) error {
	if memberOf, ok := ann.Tag("memberof"); ok && memberOf.Name != "" && !strings.HasPrefix(name, memberOf.Name+".") {
		name = memberOf.Name + "." + name
	}

	r, err := requireRange(p.doc, node, name)
	if err != nil {
		return err
	}
	p.namespaces = append(p.namespaces, &feature.ScannedNamespace{
		ScannedBase: feature.ScannedBase{
			SourceRange: r,
			Description: ann.Description,
			JSDoc:       ann,
			ASTNode:     node,
		},
		Name: name,
	})
	return nil
}

func namespaceTagName(ann *jsdoc.Annotation) string {
	tag, _ := ann.Tag("namespace")
	return tag.Name
}

// requireRange returns the node's range or a hard failure when it has none.
func requireRange(doc *parse.JavaScriptDocument, node *sitter.Node, name string) (*source.Range, error) {
	r := doc.SourceRangeForNode(node)
	if r == nil {
		return nil, diag.NewWarningError(diag.CodeMissingSourceRange, diag.SeverityError,
			fmt.Sprintf("could not determine source range for %s", name),
			&source.Range{File: doc.URL()})
	}
	return r, nil
}
