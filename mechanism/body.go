package mechanism

import (
	"github.com/mechdyn/mechdyn/spatialmath"
)

// Body is a rigid body in a mechanism. Its spatial inertia is expressed in
// its own body-fixed frame. The root body of a mechanism has no inertia and
// acts as the universal reference.
type Body struct {
	name    string
	frame   *spatialmath.Frame
	inertia spatialmath.SpatialInertia

	parent   *Body
	joint    *Joint
	children []*Body
	index    int
}

// NewBody creates a body with the given name and spatial inertia. The
// inertia's frame becomes the body's frame.
func NewBody(name string, inertia spatialmath.SpatialInertia) *Body {
	return &Body{name: name, frame: inertia.Frame(), inertia: inertia, index: -1}
}

// Name returns the body's name.
func (b *Body) Name() string { return b.name }

// Frame returns the body-fixed frame.
func (b *Body) Frame() *spatialmath.Frame { return b.frame }

// Inertia returns the body's spatial inertia expressed in its own frame.
func (b *Body) Inertia() spatialmath.SpatialInertia { return b.inertia }

// Parent returns the parent body, or nil for the root.
func (b *Body) Parent() *Body { return b.parent }

// Joint returns the joint connecting this body to its parent, or nil for the
// root.
func (b *Body) Joint() *Joint { return b.joint }

// Children returns the body's children in attachment order. The returned
// slice must not be modified.
func (b *Body) Children() []*Body { return b.children }

// Index returns the body's position in the mechanism's topological ordering
// (root is 0), or -1 if the body is not part of a mechanism.
func (b *Body) Index() int { return b.index }

// IsRoot reports whether the body is the root of its mechanism.
func (b *Body) IsRoot() bool { return b.index == 0 }
