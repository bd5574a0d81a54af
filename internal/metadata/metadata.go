// Package metadata generates the serialized description of analyzed
// components and validates metadata documents.
package metadata

import (
	"github.com/mvp-joe/featurescan/internal/feature"
	"github.com/mvp-joe/featurescan/internal/source"
)

// SchemaVersion is the version of the metadata format this package writes.
const SchemaVersion = "1.0.0"

// Metadata is the root of a generated metadata document.
type Metadata struct {
	SchemaVersion string      `json:"schema_version" validate:"required,schema_version"`
	Elements      []Element   `json:"elements,omitempty" validate:"omitempty,dive"`
	Mixins        []Mixin     `json:"mixins,omitempty" validate:"omitempty,dive"`
	Behaviors     []Behavior  `json:"behaviors,omitempty" validate:"omitempty,dive"`
	Namespaces    []Namespace `json:"namespaces,omitempty" validate:"omitempty,dive"`
}

// Element describes a custom element.
type Element struct {
	TagName     string       `json:"tagname,omitempty" validate:"required_without=Name"`
	Name        string       `json:"name,omitempty"`
	Superclass  string       `json:"superclass,omitempty"`
	Description string       `json:"description"`
	Privacy     string       `json:"privacy" validate:"omitempty,oneof=public protected private"`
	Path        string       `json:"path" validate:"required"`
	Properties  []Property   `json:"properties" validate:"omitempty,dive"`
	Observers   []Observer   `json:"observers,omitempty" validate:"omitempty,dive"`
	Listeners   []Listener   `json:"listeners,omitempty" validate:"omitempty,dive"`
	Events      []Event      `json:"events" validate:"omitempty,dive"`
	Behaviors   []string     `json:"behaviors,omitempty"`
	Mixins      []string     `json:"mixins,omitempty"`
	SourceRange *SourceRange `json:"sourceRange,omitempty"`
}

// Mixin describes an element mixin.
type Mixin struct {
	Name        string       `json:"name" validate:"required"`
	Description string       `json:"description"`
	Path        string       `json:"path" validate:"required"`
	Properties  []Property   `json:"properties" validate:"omitempty,dive"`
	Observers   []Observer   `json:"observers,omitempty" validate:"omitempty,dive"`
	Listeners   []Listener   `json:"listeners,omitempty" validate:"omitempty,dive"`
	Events      []Event      `json:"events" validate:"omitempty,dive"`
	Mixins      []string     `json:"mixins,omitempty"`
	SourceRange *SourceRange `json:"sourceRange,omitempty"`
}

// Behavior describes a behavior object.
type Behavior struct {
	Name        string       `json:"name" validate:"required"`
	Description string       `json:"description"`
	Path        string       `json:"path" validate:"required"`
	Properties  []Property   `json:"properties" validate:"omitempty,dive"`
	Observers   []Observer   `json:"observers,omitempty" validate:"omitempty,dive"`
	Listeners   []Listener   `json:"listeners,omitempty" validate:"omitempty,dive"`
	Events      []Event      `json:"events" validate:"omitempty,dive"`
	Behaviors   []string     `json:"behaviors,omitempty"`
	SourceRange *SourceRange `json:"sourceRange,omitempty"`
}

// Namespace describes a namespace object.
type Namespace struct {
	Name        string       `json:"name" validate:"required"`
	Description string       `json:"description"`
	Path        string       `json:"path" validate:"required"`
	SourceRange *SourceRange `json:"sourceRange,omitempty"`
}

// Property describes one element property.
type Property struct {
	Name         string            `json:"name" validate:"required"`
	Type         string            `json:"type"`
	Description  string            `json:"description"`
	Privacy      string            `json:"privacy" validate:"omitempty,oneof=public protected private"`
	DefaultValue string            `json:"defaultValue,omitempty"`
	Metadata     *PropertyMetadata `json:"metadata,omitempty"`
	SourceRange  *SourceRange      `json:"sourceRange,omitempty"`
}

// PropertyMetadata holds Polymer's per-property configuration.
type PropertyMetadata struct {
	Notify             bool   `json:"notify,omitempty"`
	ReadOnly           bool   `json:"readOnly,omitempty"`
	ReflectToAttribute bool   `json:"reflectToAttribute,omitempty"`
	Observer           string `json:"observer,omitempty"`
	Computed           string `json:"computed,omitempty"`
}

// Observer is a complex observer expression.
type Observer struct {
	Expression string `json:"expression" validate:"required"`
}

// Listener maps an event to a handler method.
type Listener struct {
	Event   string `json:"event" validate:"required"`
	Handler string `json:"handler" validate:"required"`
}

// Event is an event a component fires.
type Event struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// SourceRange is a location in a file. Lines and columns are zero based.
type SourceRange struct {
	File  string   `json:"file,omitempty"`
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Position is a zero-based line and column.
type Position struct {
	Line   int `json:"line" validate:"gte=0"`
	Column int `json:"column" validate:"gte=0"`
}

// Source is what metadata is generated from.
type Source interface {
	Elements() []*feature.PolymerElement
	Mixins() []*feature.PolymerElementMixin
	Behaviors() []*feature.Behavior
	Namespaces() []*feature.Namespace
}

// Generate builds the metadata document for every feature of src.
func Generate(src Source) *Metadata {
	m := &Metadata{SchemaVersion: SchemaVersion}

	for _, e := range src.Elements() {
		r := e.SourceRange()
		m.Elements = append(m.Elements, Element{
			TagName:     e.TagName,
			Name:        e.ClassName,
			Superclass:  e.SuperClass,
			Description: e.Description,
			Privacy:     string(e.Privacy),
			Path:        r.File,
			Properties:  properties(e.Properties),
			Observers:   observers(e.Observers),
			Listeners:   listeners(e.Listeners),
			Events:      events(e.Events),
			Behaviors:   e.Behaviors,
			Mixins:      e.Mixins,
			SourceRange: sourceRange(&r),
		})
	}
	for _, mx := range src.Mixins() {
		r := mx.SourceRange()
		m.Mixins = append(m.Mixins, Mixin{
			Name:        mx.Name,
			Description: mx.Description,
			Path:        r.File,
			Properties:  properties(mx.Properties),
			Observers:   observers(mx.Observers),
			Listeners:   listeners(mx.Listeners),
			Events:      events(mx.Events),
			Mixins:      mx.Mixins,
			SourceRange: sourceRange(&r),
		})
	}
	for _, b := range src.Behaviors() {
		r := b.SourceRange()
		m.Behaviors = append(m.Behaviors, Behavior{
			Name:        b.Name,
			Description: b.Description,
			Path:        r.File,
			Properties:  properties(b.Properties),
			Observers:   observers(b.Observers),
			Listeners:   listeners(b.Listeners),
			Events:      events(b.Events),
			Behaviors:   b.Behaviors,
			SourceRange: sourceRange(&r),
		})
	}
	for _, ns := range src.Namespaces() {
		r := ns.SourceRange()
		m.Namespaces = append(m.Namespaces, Namespace{
			Name:        ns.Name,
			Description: ns.Description,
			Path:        r.File,
			SourceRange: sourceRange(&r),
		})
	}
	return m
}

func properties(props []feature.Property) []Property {
	out := make([]Property, 0, len(props))
	for _, p := range props {
		prop := Property{
			Name:        p.Name,
			Type:        p.Type,
			Description: p.Description,
			Privacy:     string(p.Privacy),
			SourceRange: sourceRange(p.SourceRange),
		}
		if p.Default != nil {
			prop.DefaultValue = p.Default.JSON()
		}
		if p.Notify || p.ReadOnly || p.ReflectToAttribute || p.Observer != "" || p.Computed != "" {
			prop.Metadata = &PropertyMetadata{
				Notify:             p.Notify,
				ReadOnly:           p.ReadOnly,
				ReflectToAttribute: p.ReflectToAttribute,
				Observer:           p.Observer,
				Computed:           p.Computed,
			}
		}
		out = append(out, prop)
	}
	return out
}

func observers(in []feature.Observer) []Observer {
	var out []Observer
	for _, o := range in {
		out = append(out, Observer{Expression: o.Expression})
	}
	return out
}

func listeners(in []feature.Listener) []Listener {
	var out []Listener
	for _, l := range in {
		out = append(out, Listener{Event: l.Event, Handler: l.Handler})
	}
	return out
}

func events(in []feature.Event) []Event {
	out := make([]Event, 0, len(in))
	for _, e := range in {
		out = append(out, Event{Name: e.Name, Description: e.Description})
	}
	return out
}

func sourceRange(r *source.Range) *SourceRange {
	if r == nil {
		return nil
	}
	return &SourceRange{
		File:  r.File,
		Start: Position{Line: r.Start.Line, Column: r.Start.Column},
		End:   Position{Line: r.End.Line, Column: r.End.Column},
	}
}
