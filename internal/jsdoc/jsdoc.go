// Package jsdoc reads the tag structure of documentation comments.
//
// Only what the scanners need is understood: a free-text description followed by
// block tags of the form "@title {type} name description".
package jsdoc

import (
	"strings"
)

// Tag is a single block tag of a documentation comment.
type Tag struct {
	Title       string
	Type        string
	Name        string
	Description string
}

// Annotation is a parsed documentation comment.
type Annotation struct {
	Description string
	Tags        []Tag
}

// IsDocComment reports whether a raw comment uses the /** ... */ form.
func IsDocComment(raw string) bool {
	return strings.HasPrefix(raw, "/**") && !strings.HasPrefix(raw, "/***")
}

// Parse parses the raw text of a comment, including its delimiters.
func Parse(raw string) *Annotation {
	body := stripDelimiters(raw)

	ann := &Annotation{}
	var desc []string
	var current *Tag
	var tagLines []string

	flush := func() {
		if current == nil {
			return
		}
		parseTagBody(current, strings.TrimSpace(strings.Join(tagLines, "\n")))
		ann.Tags = append(ann.Tags, *current)
		current = nil
		tagLines = nil
	}

	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "@") && len(trimmed) > 1 {
			flush()
			title, rest, _ := strings.Cut(trimmed[1:], " ")
			title, rest2, hasBrace := strings.Cut(title, "{")
			if hasBrace {
				rest = "{" + rest2 + " " + rest
			}
			current = &Tag{Title: title}
			tagLines = []string{rest}
			continue
		}
		if current != nil {
			tagLines = append(tagLines, trimmed)
			continue
		}
		desc = append(desc, trimmed)
	}
	flush()

	ann.Description = strings.TrimSpace(strings.Join(desc, "\n"))
	return ann
}

func stripDelimiters(raw string) string {
	s := raw
	switch {
	case strings.HasPrefix(s, "/*"):
		s = strings.TrimPrefix(s, "/*")
		s = strings.TrimPrefix(s, "*")
		s = strings.TrimSuffix(s, "*/")
	case strings.HasPrefix(s, "//"):
		s = strings.TrimPrefix(s, "//")
	}

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		lines[i] = strings.TrimPrefix(line, " ")
	}
	return strings.Join(lines, "\n")
}

// parseTagBody splits "{type} name description" into the tag's fields.
func parseTagBody(tag *Tag, body string) {
	if strings.HasPrefix(body, "{") {
		depth := 0
		for i, r := range body {
			switch r {
			case '{':
				depth++
			case '}':
				depth--
			}
			if depth == 0 {
				tag.Type = strings.TrimSpace(body[1:i])
				body = strings.TrimSpace(body[i+1:])
				break
			}
		}
	}
	if !takesName(tag.Title) {
		tag.Description = body
		return
	}
	name, rest, _ := strings.Cut(body, " ")
	if nl := strings.IndexByte(name, '\n'); nl >= 0 {
		rest = name[nl+1:] + " " + rest
		name = name[:nl]
	}
	tag.Name = strings.TrimSpace(name)
	tag.Description = strings.TrimSpace(rest)
}

// takesName lists the tags whose first word is a name rather than prose.
func takesName(title string) bool {
	switch title {
	case "namespace", "memberof", "polymerBehavior", "mixinFunction", "appliesMixin",
		"event", "fires", "param", "property", "customElement", "polymer", "mixes",
		"extends", "demo":
		return true
	}
	return false
}

// Has reports whether the annotation carries at least one tag with the title.
func (a *Annotation) Has(title string) bool {
	_, ok := a.Tag(title)
	return ok
}

// Tag returns the first tag with the title.
func (a *Annotation) Tag(title string) (Tag, bool) {
	if a == nil {
		return Tag{}, false
	}
	for _, t := range a.Tags {
		if t.Title == title {
			return t, true
		}
	}
	return Tag{}, false
}

// TagsByTitle returns every tag with the title, in comment order.
func (a *Annotation) TagsByTitle(title string) []Tag {
	if a == nil {
		return nil
	}
	var out []Tag
	for _, t := range a.Tags {
		if t.Title == title {
			out = append(out, t)
		}
	}
	return out
}

// Privacy returns the visibility declared with @public, @protected or @private,
// or "" if none is present.
func (a *Annotation) Privacy() string {
	for _, p := range []string{"private", "protected", "public"} {
		if a.Has(p) {
			return p
		}
	}
	return ""
}
