// Package feature holds the scanned and resolved feature model.
//
// Scanned features are built by a single traversal of one document and are
// owned by the scanner that created them until resolution. Resolved features
// are immutable copies with every behavior and mixin reference flattened into
// the composed property, observer, listener and event lists.
package feature

import (
	"github.com/mvp-joe/featurescan/internal/diag"
	"github.com/mvp-joe/featurescan/internal/jsdoc"
	"github.com/mvp-joe/featurescan/internal/source"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Feature kinds used for lookups.
const (
	KindNamespace      = "namespace"
	KindBehavior       = "behavior"
	KindElement        = "element"
	KindPolymerElement = "polymer-element"
	KindElementMixin   = "element-mixin"
	KindPolymerMixin   = "polymer-element-mixin"
)

// Privacy is the visibility of a member.
type Privacy string

const (
	PrivacyPublic    Privacy = "public"
	PrivacyProtected Privacy = "protected"
	PrivacyPrivate   Privacy = "private"
)

// PrivacyFromName infers visibility from the underscore naming convention.
func PrivacyFromName(name string) Privacy {
	switch {
	case len(name) > 1 && name[:2] == "__":
		return PrivacyPrivate
	case len(name) > 0 && name[0] == '_':
		return PrivacyProtected
	}
	return PrivacyPublic
}

// Scanned is a feature produced during traversal, before resolution.
type Scanned interface {
	Range() *source.Range
	ScanWarnings() []diag.Warning
}

// Feature is a resolved, immutable feature.
type Feature interface {
	Kinds() []string
	Identifiers() []string
	SourceRange() source.Range
	Warnings() []diag.Warning
}

// ScannedBase carries the attributes every scanned feature has.
type ScannedBase struct {
	SourceRange *source.Range
	Warnings    []diag.Warning
	Description string
	JSDoc       *jsdoc.Annotation
	ASTNode     *sitter.Node
}

// Range returns the feature's location.
func (b *ScannedBase) Range() *source.Range {
	return b.SourceRange
}

// ScanWarnings returns the warnings recorded while scanning.
func (b *ScannedBase) ScanWarnings() []diag.Warning {
	return b.Warnings
}

// AddWarning appends a warning to the feature.
func (b *ScannedBase) AddWarning(w diag.Warning) {
	b.Warnings = append(b.Warnings, w)
}

// Property is a declared property of an element, behavior or mixin.
type Property struct {
	Name               string
	Type               string
	Description        string
	Privacy            Privacy
	Default            *Evaluated
	Notify             bool
	ReadOnly           bool
	ReflectToAttribute bool
	Observer           string
	Computed           string
	SourceRange        *source.Range
}

// Observer is an entry of an "observers" array.
type Observer struct {
	Expression  string
	Parsed      Evaluated
	SourceRange *source.Range
}

// Listener maps an event name to a handler method name.
type Listener struct {
	Event       string
	Handler     string
	SourceRange *source.Range
}

// Event is an event a component documents that it fires.
type Event struct {
	Name        string
	Description string
	SourceRange *source.Range
}

// ScannedBehaviorAssignment is a by-name reference to a behavior, possibly
// dotted and possibly defined in another document.
type ScannedBehaviorAssignment struct {
	Name        string
	SourceRange *source.Range
}

// ScannedReference is a by-name reference to a mixin.
type ScannedReference struct {
	Name        string
	SourceRange *source.Range
}
