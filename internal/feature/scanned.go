package feature

// ScannedDeclaration is the shape shared by elements, behaviors and mixins.
// Slices are append-only while scanning.
type ScannedDeclaration struct {
	TagName             string
	Properties          []Property
	Observers           []Observer
	Listeners           []Listener
	Events              []Event
	BehaviorAssignments []ScannedBehaviorAssignment
}

// Declaration exposes the shared declaration shape.
func (d *ScannedDeclaration) Declaration() *ScannedDeclaration {
	return d
}

// AddProperty appends a property.
func (d *ScannedDeclaration) AddProperty(p Property) {
	d.Properties = append(d.Properties, p)
}

// ScannedNamespace is a namespace object marked with @namespace.
type ScannedNamespace struct {
	ScannedBase
	Name string
}

// ScannedBehavior is a behavior object marked with @polymerBehavior.
type ScannedBehavior struct {
	ScannedBase
	ScannedDeclaration
	Name     string
	Abstract bool
}

// ScannedPolymerElement is a component definition: a Polymer({...}) call or a
// class with a static "is" getter.
type ScannedPolymerElement struct {
	ScannedBase
	ScannedDeclaration
	ClassName  string
	SuperClass string
	Mixins     []ScannedReference
}

// ScannedPolymerElementMixin is a mixin function marked with @mixinFunction.
type ScannedPolymerElementMixin struct {
	ScannedBase
	ScannedDeclaration
	Name     string
	Mixins   []ScannedReference
	Abstract bool
}
