package scan

import (
	"log/slog"

	"github.com/mvp-joe/featurescan/internal/diag"
	"github.com/mvp-joe/featurescan/internal/esutil"
	"github.com/mvp-joe/featurescan/internal/feature"
	"github.com/mvp-joe/featurescan/internal/jsdoc"
	"github.com/mvp-joe/featurescan/internal/parse"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// declarationHandler reads the value of one recognized declaration key.
type declarationHandler func(x *extractor, value *sitter.Node, t target)

// declarationHandlers is the allow-list of keys a component definition is
// read for. Other keys are left alone.
var declarationHandlers = map[string]declarationHandler{
	"is":         (*extractor).readTagName,
	"properties": (*extractor).readProperties,
	"behaviors":  (*extractor).readBehaviors,
	"observers":  (*extractor).readObservers,
	"listeners":  (*extractor).readListeners,
}

// target is where extracted items and warnings go.
type target struct {
	decl *feature.ScannedDeclaration
	base *feature.ScannedBase
}

func (t target) warn(x *extractor, code string, node *sitter.Node, message string) {
	t.base.AddWarning(diag.Warning{
		Code:        code,
		Severity:    diag.SeverityWarning,
		Message:     message,
		SourceRange: x.doc.SourceRangeForNode(node),
	})
}

// extractor holds the shared declaration extraction routines.
type extractor struct {
	doc      *parse.JavaScriptDocument
	logger   *slog.Logger
	warnings *diag.Collector
}

func (x *extractor) src() []byte { return x.doc.Contents() }

// skip reports a documented declaration that yields no feature.
func (x *extractor) skip(node *sitter.Node, name, reason string) {
	x.logger.Debug("Skipping declaration", "url", x.doc.URL(), "name", name, "reason", reason)
	x.warnings.Addf(diag.CodeSkippedDeclaration, diag.SeverityInfo, x.doc.SourceRangeForNode(node),
		"skipped %s: %s", name, reason)
}

// readObject dispatches each recognized key of an object literal.
func (x *extractor) readObject(obj *sitter.Node, t target) {
	for _, member := range esutil.NamedChildren(obj) {
		if member.Kind() != "pair" {
			continue
		}
		key, ok := esutil.ObjectKeyName(member.ChildByFieldName("key"), x.src())
		if !ok {
			continue
		}
		if h, found := declarationHandlers[key]; found {
			h(x, member.ChildByFieldName("value"), t)
		}
	}
}

// readMember feeds a named value from outside an object literal, such as the
// return value of a static getter, through the same dispatch table.
func (x *extractor) readMember(key string, value *sitter.Node, t target) {
	if h, found := declarationHandlers[key]; found && value != nil {
		h(x, value, t)
	}
}

func (x *extractor) readTagName(value *sitter.Node, t target) {
	name, ok := esutil.StringLiteral(esutil.Unwrap(value), x.src())
	if !ok {
		t.warn(x, diag.CodeInvalidTagName, value, "the tag name must be a string literal")
		return
	}
	t.decl.TagName = name
}

func (x *extractor) readBehaviors(value *sitter.Node, t target) {
	arr := esutil.Unwrap(value)
	if arr == nil || arr.Kind() != "array" {
		t.warn(x, diag.CodeInvalidBehaviorsDeclaration, value, "behaviors must be an array literal")
		return
	}
	for _, el := range esutil.NamedChildren(arr) {
		name, ok := esutil.DottedName(el, x.src())
		if !ok {
			t.warn(x, diag.CodeCouldNotDetermineBehaviorName, el,
				"could not determine behavior name from expression "+x.doc.Text(el))
			continue
		}
		t.decl.BehaviorAssignments = append(t.decl.BehaviorAssignments, feature.ScannedBehaviorAssignment{
			Name:        name,
			SourceRange: x.doc.SourceRangeForNode(el),
		})
	}
}

func (x *extractor) readObservers(value *sitter.Node, t target) {
	arr := esutil.Unwrap(value)
	if arr == nil || arr.Kind() != "array" {
		t.warn(x, diag.CodeInvalidObserversDeclaration, value, "observers must be an array literal")
		return
	}
	for _, el := range esutil.NamedChildren(arr) {
		parsed := esutil.Evaluate(el, x.src())
		expr := x.doc.Text(el)
		if v, ok := parsed.Value(); ok {
			if s, isString := v.(string); isString {
				expr = s
			}
		}
		t.decl.Observers = append(t.decl.Observers, feature.Observer{
			Expression:  expr,
			Parsed:      parsed,
			SourceRange: x.doc.SourceRangeForNode(el),
		})
	}
}

func (x *extractor) readListeners(value *sitter.Node, t target) {
	obj := esutil.Unwrap(value)
	if obj == nil || obj.Kind() != "object" {
		t.warn(x, diag.CodeInvalidListenersDeclaration, value, "listeners must be an object literal")
		return
	}
	for _, member := range esutil.NamedChildren(obj) {
		if member.Kind() != "pair" {
			x.logger.Debug("Dropping listener entry", "url", x.doc.URL(), "entry", x.doc.Text(member))
			continue
		}
		event, keyOK := esutil.ObjectKeyName(member.ChildByFieldName("key"), x.src())
		handler, handlerOK := esutil.StringLiteral(member.ChildByFieldName("value"), x.src())
		if !keyOK || !handlerOK {
			x.logger.Debug("Dropping listener entry", "url", x.doc.URL(), "entry", x.doc.Text(member))
			continue
		}
		t.decl.Listeners = append(t.decl.Listeners, feature.Listener{
			Event:       event,
			Handler:     handler,
			SourceRange: x.doc.SourceRangeForNode(member),
		})
	}
}

// readEvents collects @event and @fires tags from the attached comment and
// from every documentation comment inside the declaration.
func (x *extractor) readEvents(ann *jsdoc.Annotation, declNode, body *sitter.Node, t target) {
	seen := make(map[string]bool)
	add := func(a *jsdoc.Annotation, at *sitter.Node) {
		for _, title := range []string{"event", "fires"} {
			for _, tag := range a.TagsByTitle(title) {
				if tag.Name == "" || seen[tag.Name] {
					continue
				}
				seen[tag.Name] = true
				desc := tag.Description
				if desc == "" {
					desc = a.Description
				}
				t.decl.Events = append(t.decl.Events, feature.Event{
					Name:        tag.Name,
					Description: desc,
					SourceRange: x.doc.SourceRangeForNode(at),
				})
			}
		}
	}
	add(ann, declNode)
	for _, c := range esutil.DocCommentNodes(body, x.src()) {
		add(jsdoc.Parse(x.doc.Text(c)), c)
	}
}

// annotationFor returns the documentation attached to a definition. A value
// nested in a declarator or an assignment takes the statement's comment.
func (x *extractor) annotationFor(node *sitter.Node) *jsdoc.Annotation {
	comment := esutil.LeadingComment(node, x.src())
	if comment == "" {
		if owner := definitionOwner(node); owner != nil {
			comment = esutil.LeadingComment(owner, x.src())
		}
	}
	if comment == "" {
		return nil
	}
	return jsdoc.Parse(comment)
}

// definitionOwner returns the declarator or assignment a value is bound by.
func definitionOwner(value *sitter.Node) *sitter.Node {
	cur := value
	for cur != nil && cur.Parent() != nil && cur.Parent().Kind() == "parenthesized_expression" {
		cur = cur.Parent()
	}
	if cur == nil || cur.Parent() == nil {
		return nil
	}
	parent := cur.Parent()
	switch parent.Kind() {
	case "variable_declarator", "assignment_expression":
		return parent
	}
	return nil
}

// boundName returns the name a value is bound to by its declarator or
// assignment.
func boundName(value *sitter.Node, src []byte) (string, bool) {
	owner := definitionOwner(value)
	if owner == nil {
		return "", false
	}
	switch owner.Kind() {
	case "variable_declarator":
		id := owner.ChildByFieldName("name")
		if id == nil || id.Kind() != "identifier" {
			return "", false
		}
		return esutil.Text(id, src), true
	case "assignment_expression":
		return esutil.DottedName(owner.ChildByFieldName("left"), src)
	}
	return "", false
}

// singleDeclarator returns the only declarator of a declaration statement.
func singleDeclarator(decl *sitter.Node) (*sitter.Node, bool) {
	var found *sitter.Node
	for _, c := range esutil.NamedChildren(decl) {
		if c.Kind() != "variable_declarator" {
			continue
		}
		if found != nil {
			return nil, false
		}
		found = c
	}
	return found, found != nil
}
