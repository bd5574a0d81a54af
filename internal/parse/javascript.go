package parse

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mvp-joe/featurescan/internal/diag"
	"github.com/mvp-joe/featurescan/internal/source"
	"github.com/mvp-joe/featurescan/internal/visitor"
	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

var (
	languageOnce sync.Once
	language     *sitter.Language
)

// scriptLanguage returns the grammar used for all script dialects. The
// TypeScript grammar is a superset that also accepts plain JavaScript.
func scriptLanguage() *sitter.Language {
	languageOnce.Do(func() {
		language = sitter.NewLanguage(typescript.LanguageTypescript())
	})
	return language
}

// JavaScriptDocument is a parsed script, either a file of its own or a
// <script> block inlined in a markup document.
type JavaScriptDocument struct {
	url      string
	contents []byte
	tree     *sitter.Tree
	offset   *source.LocationOffset
	imports  []Import
}

// ParseJavaScript parses script contents. A non-nil offset marks the document
// as inline and describes where it begins inside its container.
//
// A syntax error is fatal: it is returned as a *diag.WarningError with code
// "parse-error" and the container-file range of the first error node.
func ParseJavaScript(url string, contents []byte, offset *source.LocationOffset) (*JavaScriptDocument, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(scriptLanguage()); err != nil {
		return nil, fmt.Errorf("failed to set script language: %w", err)
	}

	tree := parser.Parse(contents, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse script file: %s", url)
	}

	doc := &JavaScriptDocument{
		url:      url,
		contents: contents,
		tree:     tree,
		offset:   offset,
	}

	root := tree.RootNode()
	if root.HasError() {
		bad := firstErrorNode(root)
		r := doc.SourceRangeForNode(bad)
		msg := "unexpected token"
		if bad != nil && bad.IsMissing() {
			msg = fmt.Sprintf("missing %s", bad.Kind())
		} else if bad != nil {
			msg = fmt.Sprintf("unexpected token %s", truncate(doc.Text(bad), 40))
		}
		tree.Close()
		return nil, diag.NewWarningError(diag.CodeParseError, diag.SeverityError, msg, r)
	}

	doc.imports = doc.collectImports(root)
	return doc, nil
}

// URL returns the document URL. Inline documents share their container's URL.
func (d *JavaScriptDocument) URL() string {
	return d.url
}

// Contents returns the raw script text.
func (d *JavaScriptDocument) Contents() []byte {
	return d.contents
}

// Root returns the root node of the syntax tree.
func (d *JavaScriptDocument) Root() *sitter.Node {
	return d.tree.RootNode()
}

// Imports returns the module specifiers the script imports.
func (d *JavaScriptDocument) Imports() []Import {
	return d.imports
}

// Text returns the source text of a node.
func (d *JavaScriptDocument) Text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(d.contents[n.StartByte():n.EndByte()])
}

// SourceRangeForNode returns the node's range in the coordinate space of the
// physical file. It returns nil for a nil node.
func (d *JavaScriptDocument) SourceRangeForNode(n *sitter.Node) *source.Range {
	if n == nil {
		return nil
	}
	start := n.StartPosition()
	end := n.EndPosition()
	local := &source.Range{
		File:  d.url,
		Start: source.Position{Line: int(start.Row), Column: int(start.Column)},
		End:   source.Position{Line: int(end.Row), Column: int(end.Column)},
	}
	return source.CorrectSourceRange(local, d.offset)
}

// Visit drives all visitors through one traversal of the tree.
func (d *JavaScriptDocument) Visit(ctx context.Context, visitors ...*visitor.Visitor) error {
	return visitor.NewMultiplexer(visitors...).Walk(ctx, d.Root())
}

// Close releases the syntax tree. Nodes handed out by the document are
// invalid afterwards.
func (d *JavaScriptDocument) Close() {
	if d.tree != nil {
		d.tree.Close()
		d.tree = nil
	}
}

// collectImports reads top-level import and re-export statements.
func (d *JavaScriptDocument) collectImports(root *sitter.Node) []Import {
	var imports []Import
	for i := uint(0); i < root.NamedChildCount(); i++ {
		stmt := root.NamedChild(i)
		if stmt == nil {
			continue
		}
		if stmt.Kind() != "import_statement" && stmt.Kind() != "export_statement" {
			continue
		}
		src := stmt.ChildByFieldName("source")
		if src == nil || src.Kind() != "string" {
			continue
		}
		spec := unquote(d.Text(src))
		if IsBareSpecifier(spec) {
			continue
		}
		resolved, ok := ResolveURL(d.url, spec)
		if !ok {
			continue
		}
		imports = append(imports, Import{
			URL:         resolved,
			Kind:        ImportScriptModule,
			SourceRange: d.SourceRangeForNode(stmt),
		})
	}
	return imports
}

// firstErrorNode finds the first ERROR or MISSING node in pre-order.
func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil || !(child.HasError() || child.IsMissing()) {
			continue
		}
		if bad := firstErrorNode(child); bad != nil {
			return bad
		}
	}
	return n
}

func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'' || first == '`') && first == last {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
