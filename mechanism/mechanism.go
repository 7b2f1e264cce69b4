// Package mechanism models an articulated rigid-body mechanism as a rooted
// tree of bodies connected by joints. The tree is built once with Attach and
// is read-only afterwards; the dynamics algorithms traverse its precomputed
// topological ordering.
package mechanism

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/mechdyn/mechdyn/spatialmath"
)

// World is the conventional name of a mechanism's root body.
const World = "world"

// Mechanism is a rooted tree of bodies connected by joints. Bodies are kept
// in topological order, root first, so a forward pass is a simple slice
// traversal and a backward pass is the same slice reversed. Gravity is an
// explicit field rather than process state.
type Mechanism struct {
	name    string
	gravity r3.Vector

	root   *Body
	bodies []*Body  // topological order, bodies[0] == root
	joints []*Joint // joints[i] connects bodies[i+1] to its parent

	bodiesByName map[string]*Body
	jointsByName map[string]*Joint
	bodyByFrame  map[*spatialmath.Frame]*Body

	configDim   int
	velocityDim int
}

// New creates a mechanism with a massless root body named "world" and the
// given gravitational acceleration expressed in the root frame.
func New(name string, gravity r3.Vector) *Mechanism {
	return NewWithRoot(name, World, gravity)
}

// NewWithRoot creates a mechanism whose massless root body carries the given
// name instead of the conventional "world".
func NewWithRoot(name, rootName string, gravity r3.Vector) *Mechanism {
	rootFrame := spatialmath.NewFrame(rootName)
	root := NewBody(rootName, spatialmath.NewZeroInertia(rootFrame))
	root.index = 0
	m := &Mechanism{
		name:         name,
		gravity:      gravity,
		root:         root,
		bodies:       []*Body{root},
		bodiesByName: map[string]*Body{rootName: root},
		jointsByName: map[string]*Joint{},
		bodyByFrame:  map[*spatialmath.Frame]*Body{rootFrame: root},
	}
	return m
}

// Name returns the mechanism's name.
func (m *Mechanism) Name() string { return m.name }

// Gravity returns the gravitational acceleration in the root frame.
func (m *Mechanism) Gravity() r3.Vector { return m.gravity }

// Root returns the root body.
func (m *Mechanism) Root() *Body { return m.root }

// RootFrame returns the root body's frame.
func (m *Mechanism) RootFrame() *spatialmath.Frame { return m.root.frame }

// Bodies returns all bodies in topological order, root first. The returned
// slice must not be modified.
func (m *Mechanism) Bodies() []*Body { return m.bodies }

// Joints returns all joints, ordered so that joint i connects body i+1 to
// its parent. The returned slice must not be modified.
func (m *Mechanism) Joints() []*Joint { return m.joints }

// ConfigurationDimension is the total number of configuration coordinates
// across all joints.
func (m *Mechanism) ConfigurationDimension() int { return m.configDim }

// VelocityDimension is the total number of velocity coordinates across all
// joints.
func (m *Mechanism) VelocityDimension() int { return m.velocityDim }

// Attach connects a child body to a parent body through a joint. toParent is
// the fixed transform from the joint's frame-before to the parent body's
// frame. The child body's frame is taken to coincide with the joint's
// frame-after. The parent must already be part of the mechanism, so
// appending the child preserves the topological ordering.
func (m *Mechanism) Attach(parent *Body, joint *Joint, toParent spatialmath.Transform, child *Body) error {
	var err error
	if got, ok := m.bodiesByName[parent.name]; !ok || got != parent {
		multierr.AppendInto(&err, NewUnknownBodyError(parent.name))
	}
	if _, ok := m.bodiesByName[child.name]; ok {
		multierr.AppendInto(&err, errors.Errorf("body name %q already present in mechanism", child.name))
	}
	if _, ok := m.jointsByName[joint.name]; ok {
		multierr.AppendInto(&err, errors.Errorf("joint name %q already present in mechanism", joint.name))
	}
	if child.parent != nil || child.index != -1 {
		multierr.AppendInto(&err, errors.Errorf("body %q is already attached", child.name))
	}
	if joint.index != -1 {
		multierr.AppendInto(&err, errors.Errorf("joint %q is already attached", joint.name))
	}
	if toParent.From() != joint.frameBefore {
		multierr.AppendInto(&err, errors.Errorf(
			"transform maps from frame %q, want joint frame-before %q", toParent.From().Name(), joint.frameBefore.Name()))
	}
	if toParent.To() != parent.frame {
		multierr.AppendInto(&err, errors.Errorf(
			"transform maps to frame %q, want parent body frame %q", toParent.To().Name(), parent.frame.Name()))
	}
	if err != nil {
		return err
	}

	child.parent = parent
	child.joint = joint
	child.index = len(m.bodies)
	parent.children = append(parent.children, child)

	// The frame after the joint is fixed relative to the child body; here
	// the two are identified so joint-side quantities need no extra bridge
	// transform.
	joint.frameAfter = child.frame
	joint.toParent = toParent
	joint.index = len(m.joints)
	joint.configStart = m.configDim
	joint.velocityStart = m.velocityDim
	m.configDim += joint.typ.ConfigurationDimension()
	m.velocityDim += joint.typ.VelocityDimension()

	m.bodies = append(m.bodies, child)
	m.joints = append(m.joints, joint)
	m.bodiesByName[child.name] = child
	m.jointsByName[joint.name] = joint
	m.bodyByFrame[child.frame] = child
	m.bodyByFrame[joint.frameAfter] = child
	return nil
}

// FindBody returns the body with the given name.
func (m *Mechanism) FindBody(name string) (*Body, error) {
	b, ok := m.bodiesByName[name]
	if !ok {
		return nil, NewBodyNotFoundError(name)
	}
	return b, nil
}

// FindJoint returns the joint with the given name.
func (m *Mechanism) FindJoint(name string) (*Joint, error) {
	j, ok := m.jointsByName[name]
	if !ok {
		return nil, NewJointNotFoundError(name)
	}
	return j, nil
}

// BodyOfFrame returns the body a frame is rigidly attached to. Body frames
// and joint frame-afters are resolvable; the root frame resolves to the root
// body.
func (m *Mechanism) BodyOfFrame(frame *spatialmath.Frame) (*Body, error) {
	b, ok := m.bodyByFrame[frame]
	if !ok {
		return nil, NewUnknownFrameError(frame.Name())
	}
	return b, nil
}

// CheckBody verifies that a body belongs to this mechanism.
func (m *Mechanism) CheckBody(b *Body) error {
	if got, ok := m.bodiesByName[b.name]; !ok || got != b {
		return NewUnknownBodyError(b.name)
	}
	return nil
}

// CheckJoint verifies that a joint belongs to this mechanism.
func (m *Mechanism) CheckJoint(j *Joint) error {
	if got, ok := m.jointsByName[j.name]; !ok || got != j {
		return NewUnknownJointError(j.name)
	}
	return nil
}

// PathEdge is one joint along a path between two bodies. Sign is +1 when the
// edge is traversed from parent to child walking from the path's source to
// its target, and -1 when traversed child to parent.
type PathEdge struct {
	Joint *Joint
	Sign  float64
}

// PathBetween returns the joints on the unique tree path from one body to
// another, in order from `from` to `to`.
func (m *Mechanism) PathBetween(from, to *Body) ([]PathEdge, error) {
	if err := multierr.Combine(m.CheckBody(from), m.CheckBody(to)); err != nil {
		return nil, err
	}

	// Walk both bodies up to the root, then drop the shared ancestor tail.
	fromChain := m.ancestry(from)
	toChain := m.ancestry(to)
	for len(fromChain) > 0 && len(toChain) > 0 && fromChain[len(fromChain)-1] == toChain[len(toChain)-1] {
		fromChain = fromChain[:len(fromChain)-1]
		toChain = toChain[:len(toChain)-1]
	}

	path := make([]PathEdge, 0, len(fromChain)+len(toChain))
	for _, b := range fromChain {
		path = append(path, PathEdge{Joint: b.joint, Sign: -1})
	}
	for i := len(toChain) - 1; i >= 0; i-- {
		path = append(path, PathEdge{Joint: toChain[i].joint, Sign: 1})
	}
	return path, nil
}

// ancestry returns the chain of non-root bodies from b up to (excluding) the
// root.
func (m *Mechanism) ancestry(b *Body) []*Body {
	var chain []*Body
	for cur := b; cur.parent != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	return chain
}
