package parse

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mvp-joe/featurescan/internal/diag"
	"github.com/mvp-joe/featurescan/internal/source"
	"golang.org/x/net/html"
)

// HTMLDocument is a markup file: its imports and the inline scripts it embeds.
type HTMLDocument struct {
	url      string
	contents []byte
	scripts  []*JavaScriptDocument
	imports  []Import
	warnings []diag.Warning
}

// ParseHTML tokenizes markup and parses every inline <script> block as its own
// JavaScript document whose ranges map back into this file. A syntax error in
// one inline script becomes a warning on the container; the other scripts are
// still parsed.
func ParseHTML(url string, contents []byte) (*HTMLDocument, error) {
	doc := &HTMLDocument{url: url, contents: contents}

	z := html.NewTokenizer(bytes.NewReader(contents))
	offset := 0
	var openScript *scriptTag

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to tokenize %s: %w", url, z.Err())
		}

		raw := z.Raw()
		start := offset
		offset += len(raw)

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			r := doc.rangeFor(start, offset)
			switch tok.Data {
			case "link":
				doc.addLinkImport(tok, r)
			case "script":
				st := newScriptTag(tok)
				if st.src != "" {
					if resolved, ok := ResolveURL(url, st.src); ok {
						doc.imports = append(doc.imports, Import{URL: resolved, Kind: ImportHTMLScript, SourceRange: r})
					}
				}
				if tt == html.StartTagToken {
					openScript = st
				}
			}
		case html.TextToken:
			if openScript != nil && openScript.isInlineScript() {
				doc.addInlineScript(raw, start)
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == "script" {
				openScript = nil
			}
		}
	}

	return doc, nil
}

// URL returns the document URL.
func (d *HTMLDocument) URL() string {
	return d.url
}

// Contents returns the raw markup.
func (d *HTMLDocument) Contents() []byte {
	return d.contents
}

// Scripts returns the inline script documents in source order.
func (d *HTMLDocument) Scripts() []*JavaScriptDocument {
	return d.scripts
}

// Imports returns HTML imports and external script references.
func (d *HTMLDocument) Imports() []Import {
	return d.imports
}

// Warnings returns problems found while splitting the markup.
func (d *HTMLDocument) Warnings() []diag.Warning {
	return d.warnings
}

// Close releases every inline script tree.
func (d *HTMLDocument) Close() {
	for _, s := range d.scripts {
		s.Close()
	}
}

func (d *HTMLDocument) addLinkImport(tok html.Token, r *source.Range) {
	var rel, href string
	for _, a := range tok.Attr {
		switch a.Key {
		case "rel":
			rel = a.Val
		case "href":
			href = a.Val
		}
	}
	if rel != "import" {
		return
	}
	if resolved, ok := ResolveURL(d.url, href); ok {
		d.imports = append(d.imports, Import{URL: resolved, Kind: ImportHTML, SourceRange: r})
	}
}

func (d *HTMLDocument) addInlineScript(raw []byte, start int) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return
	}
	pos := positionAt(d.contents, start)
	offset := &source.LocationOffset{Line: pos.Line, Column: pos.Column, Filename: d.url}

	content := make([]byte, len(raw))
	copy(content, raw)

	script, err := ParseJavaScript(d.url, content, offset)
	if err != nil {
		var we *diag.WarningError
		if errors.As(err, &we) {
			d.warnings = append(d.warnings, we.Warning)
			return
		}
		d.warnings = append(d.warnings, diag.Warning{
			Code:        diag.CodeParseError,
			Severity:    diag.SeverityError,
			Message:     err.Error(),
			SourceRange: d.rangeFor(start, start+len(raw)),
		})
		return
	}
	d.scripts = append(d.scripts, script)
}

func (d *HTMLDocument) rangeFor(start, end int) *source.Range {
	return &source.Range{
		File:  d.url,
		Start: positionAt(d.contents, start),
		End:   positionAt(d.contents, end),
	}
}

type scriptTag struct {
	src string
	typ string
}

func newScriptTag(tok html.Token) *scriptTag {
	st := &scriptTag{}
	for _, a := range tok.Attr {
		switch a.Key {
		case "src":
			st.src = a.Val
		case "type":
			st.typ = strings.ToLower(strings.TrimSpace(a.Val))
		}
	}
	return st
}

// isInlineScript reports whether the tag body is script source to analyze.
func (s *scriptTag) isInlineScript() bool {
	if s.src != "" {
		return false
	}
	switch s.typ {
	case "", "text/javascript", "application/javascript", "module":
		return true
	}
	return false
}

// positionAt converts a byte offset into a zero-based line/column.
func positionAt(contents []byte, offset int) source.Position {
	if offset > len(contents) {
		offset = len(contents)
	}
	prefix := contents[:offset]
	line := bytes.Count(prefix, []byte{'\n'})
	col := offset
	if nl := bytes.LastIndexByte(prefix, '\n'); nl >= 0 {
		col = offset - nl - 1
	}
	return source.Position{Line: line, Column: col}
}
