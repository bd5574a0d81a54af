package feature

import (
	"github.com/mvp-joe/featurescan/internal/diag"
	"github.com/mvp-joe/featurescan/internal/source"
)

// Composition is the flattened result of composing a declaration with every
// behavior and mixin it references.
type Composition struct {
	Properties []Property
	Observers  []Observer
	Listeners  []Listener
	Events     []Event
	Behaviors  []string
	Mixins     []string
}

// Merge folds an already-composed referenced declaration into c. Its names
// are appended to the behavior or mixin chain by the caller. Properties and
// events override earlier entries of the same name in place.
func (c *Composition) Merge(other Composition) {
	for _, p := range other.Properties {
		c.setProperty(p)
	}
	for _, e := range other.Events {
		c.setEvent(e)
	}
	c.Observers = append(c.Observers, other.Observers...)
	c.Listeners = append(c.Listeners, other.Listeners...)
	c.Behaviors = appendUnique(c.Behaviors, other.Behaviors...)
	c.Mixins = appendUnique(c.Mixins, other.Mixins...)
}

// ApplyOwn appends a declaration's own items after everything inherited. Own
// properties always win a name collision.
func (c *Composition) ApplyOwn(d *ScannedDeclaration) {
	for _, p := range d.Properties {
		c.setProperty(p)
	}
	for _, e := range d.Events {
		c.setEvent(e)
	}
	c.Observers = append(c.Observers, d.Observers...)
	c.Listeners = append(c.Listeners, d.Listeners...)
}

// AddBehavior records a composed behavior name after the ones it depends on.
func (c *Composition) AddBehavior(name string) {
	c.Behaviors = appendUnique(c.Behaviors, name)
}

// AddMixin records a composed mixin name after the ones it depends on.
func (c *Composition) AddMixin(name string) {
	c.Mixins = appendUnique(c.Mixins, name)
}

// Property returns the composed property with the given name.
func (c *Composition) Property(name string) (Property, bool) {
	for _, p := range c.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Clone returns a deep copy of the slices so the result can be frozen.
func (c Composition) Clone() Composition {
	return Composition{
		Properties: append([]Property(nil), c.Properties...),
		Observers:  append([]Observer(nil), c.Observers...),
		Listeners:  append([]Listener(nil), c.Listeners...),
		Events:     append([]Event(nil), c.Events...),
		Behaviors:  append([]string(nil), c.Behaviors...),
		Mixins:     append([]string(nil), c.Mixins...),
	}
}

func (c *Composition) setProperty(p Property) {
	for i := range c.Properties {
		if c.Properties[i].Name == p.Name {
			c.Properties[i] = p
			return
		}
	}
	c.Properties = append(c.Properties, p)
}

func (c *Composition) setEvent(e Event) {
	for i := range c.Events {
		if c.Events[i].Name == e.Name {
			c.Events[i] = e
			return
		}
	}
	c.Events = append(c.Events, e)
}

func appendUnique(dst []string, names ...string) []string {
	for _, n := range names {
		seen := false
		for _, d := range dst {
			if d == n {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, n)
		}
	}
	return dst
}

// resolvedBase holds the immutable fields every resolved feature has.
type resolvedBase struct {
	sourceRange source.Range
	warnings    []diag.Warning
}

func (b resolvedBase) SourceRange() source.Range {
	return b.sourceRange
}

func (b resolvedBase) Warnings() []diag.Warning {
	return append([]diag.Warning(nil), b.warnings...)
}

// Namespace is a resolved namespace.
type Namespace struct {
	resolvedBase
	Name        string
	Description string
}

// NewNamespace freezes a namespace.
func NewNamespace(name, description string, r source.Range, warnings []diag.Warning) *Namespace {
	return &Namespace{
		resolvedBase: resolvedBase{sourceRange: r, warnings: append([]diag.Warning(nil), warnings...)},
		Name:         name,
		Description:  description,
	}
}

func (n *Namespace) Kinds() []string       { return []string{KindNamespace} }
func (n *Namespace) Identifiers() []string { return []string{n.Name} }

// Behavior is a resolved behavior.
type Behavior struct {
	resolvedBase
	Composition
	Name        string
	Description string
	Abstract    bool
}

// NewBehavior freezes a behavior composition.
func NewBehavior(name, description string, abstract bool, c Composition, r source.Range, warnings []diag.Warning) *Behavior {
	return &Behavior{
		resolvedBase: resolvedBase{sourceRange: r, warnings: append([]diag.Warning(nil), warnings...)},
		Composition:  c.Clone(),
		Name:         name,
		Description:  description,
		Abstract:     abstract,
	}
}

func (b *Behavior) Kinds() []string       { return []string{KindBehavior} }
func (b *Behavior) Identifiers() []string { return []string{b.Name} }

// PolymerElement is a resolved element.
type PolymerElement struct {
	resolvedBase
	Composition
	TagName     string
	ClassName   string
	SuperClass  string
	Description string
	Privacy     Privacy
}

// NewPolymerElement freezes an element composition.
func NewPolymerElement(tagName, className, superClass, description string, c Composition, r source.Range, warnings []diag.Warning) *PolymerElement {
	return &PolymerElement{
		resolvedBase: resolvedBase{sourceRange: r, warnings: append([]diag.Warning(nil), warnings...)},
		Composition:  c.Clone(),
		TagName:      tagName,
		ClassName:    className,
		SuperClass:   superClass,
		Description:  description,
		Privacy:      PrivacyFromName(className),
	}
}

func (e *PolymerElement) Kinds() []string { return []string{KindElement, KindPolymerElement} }

func (e *PolymerElement) Identifiers() []string {
	var ids []string
	if e.TagName != "" {
		ids = append(ids, e.TagName)
	}
	if e.ClassName != "" {
		ids = append(ids, e.ClassName)
	}
	return ids
}

// PolymerElementMixin is a resolved mixin.
type PolymerElementMixin struct {
	resolvedBase
	Composition
	Name        string
	Description string
	Abstract    bool
}

// NewPolymerElementMixin freezes a mixin composition.
func NewPolymerElementMixin(name, description string, abstract bool, c Composition, r source.Range, warnings []diag.Warning) *PolymerElementMixin {
	return &PolymerElementMixin{
		resolvedBase: resolvedBase{sourceRange: r, warnings: append([]diag.Warning(nil), warnings...)},
		Composition:  c.Clone(),
		Name:         name,
		Description:  description,
		Abstract:     abstract,
	}
}

func (m *PolymerElementMixin) Kinds() []string       { return []string{KindElementMixin, KindPolymerMixin} }
func (m *PolymerElementMixin) Identifiers() []string { return []string{m.Name} }
