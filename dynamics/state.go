// Package dynamics implements the recursive dynamics algorithms for
// articulated rigid-body mechanisms: forward kinematic propagation, the
// composite-rigid-body mass matrix, recursive Newton-Euler inverse dynamics,
// and the forward-dynamics solve built on top of them.
//
// All derived spatial quantities are cached per MechanismState and expressed
// in the mechanism's root ("world") frame. Any configuration or velocity
// write invalidates the whole cache; the next read recomputes the affected
// category over the entire mechanism in one pass.
package dynamics

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/mechdyn/mechdyn/mechanism"
	"github.com/mechdyn/mechdyn/spatialmath"
)

// MechanismState holds the configuration and velocity of a mechanism
// together with a cache of derived spatial quantities. A state is bound to
// one immutable Mechanism for its lifetime.
//
// A state must not be shared between goroutines; independent states over the
// same Mechanism are safe to use concurrently.
type MechanismState struct {
	mech *mechanism.Mechanism

	q []float64
	v []float64

	// cache arrays, indexed by body index or joint index
	toParent  []spatialmath.Transform           // per joint: frame-after -> parent body frame
	toRoot    []spatialmath.Transform           // per body: body frame -> root frame
	subspaces [][]spatialmath.Twist             // per joint: motion subspace columns, world frame
	twists    []spatialmath.Twist               // per body: twist wrt world, world frame
	bias      []spatialmath.SpatialAcceleration // per body: bias acceleration, world frame
	inertias  []spatialmath.SpatialInertia      // per body: spatial inertia, world frame
	crb       []spatialmath.SpatialInertia      // per body: composite rigid-body inertia, world frame

	kinematicsValid bool
	crbValid        bool
}

// NewMechanismState creates a state for the given mechanism at the zero
// configuration and zero velocity.
func NewMechanismState(mech *mechanism.Mechanism) *MechanismState {
	nb := len(mech.Bodies())
	nj := len(mech.Joints())
	s := &MechanismState{
		mech:      mech,
		q:         make([]float64, mech.ConfigurationDimension()),
		v:         make([]float64, mech.VelocityDimension()),
		toParent:  make([]spatialmath.Transform, nj),
		toRoot:    make([]spatialmath.Transform, nb),
		subspaces: make([][]spatialmath.Twist, nj),
		twists:    make([]spatialmath.Twist, nb),
		bias:      make([]spatialmath.SpatialAcceleration, nb),
		inertias:  make([]spatialmath.SpatialInertia, nb),
		crb:       make([]spatialmath.SpatialInertia, nb),
	}
	for _, j := range mech.Joints() {
		start, _ := j.ConfigurationRange()
		copy(s.q[start:], j.Type().ZeroConfiguration())
	}
	return s
}

// Mechanism returns the mechanism the state is bound to.
func (s *MechanismState) Mechanism() *mechanism.Mechanism { return s.mech }

// Configuration returns a copy of the flat configuration vector.
func (s *MechanismState) Configuration() []float64 {
	out := make([]float64, len(s.q))
	copy(out, s.q)
	return out
}

// Velocity returns a copy of the flat velocity vector.
func (s *MechanismState) Velocity() []float64 {
	out := make([]float64, len(s.v))
	copy(out, s.v)
	return out
}

// SetConfiguration replaces the whole configuration vector.
func (s *MechanismState) SetConfiguration(q []float64) error {
	if len(q) != len(s.q) {
		return errors.Errorf("configuration has length %d, mechanism expects %d", len(q), len(s.q))
	}
	copy(s.q, q)
	s.invalidate()
	return nil
}

// SetVelocity replaces the whole velocity vector.
func (s *MechanismState) SetVelocity(v []float64) error {
	if len(v) != len(s.v) {
		return errors.Errorf("velocity has length %d, mechanism expects %d", len(v), len(s.v))
	}
	copy(s.v, v)
	s.invalidate()
	return nil
}

// SetJointConfiguration sets the configuration coordinates of one joint.
func (s *MechanismState) SetJointConfiguration(j *mechanism.Joint, q []float64) error {
	if err := s.mech.CheckJoint(j); err != nil {
		return err
	}
	start, end := j.ConfigurationRange()
	if len(q) != end-start {
		return errors.Errorf("joint %q configuration has length %d, want %d", j.Name(), len(q), end-start)
	}
	copy(s.q[start:end], q)
	s.invalidate()
	return nil
}

// SetJointVelocity sets the velocity coordinates of one joint.
func (s *MechanismState) SetJointVelocity(j *mechanism.Joint, v []float64) error {
	if err := s.mech.CheckJoint(j); err != nil {
		return err
	}
	start, end := j.VelocityRange()
	if len(v) != end-start {
		return errors.Errorf("joint %q velocity has length %d, want %d", j.Name(), len(v), end-start)
	}
	copy(s.v[start:end], v)
	s.invalidate()
	return nil
}

// Randomize draws a valid random configuration per joint and uniform
// velocities in [-1, 1).
func (s *MechanismState) Randomize(r *rand.Rand) {
	for _, j := range s.mech.Joints() {
		start, _ := j.ConfigurationRange()
		copy(s.q[start:], j.Type().RandomConfiguration(r))
	}
	for i := range s.v {
		s.v[i] = r.Float64()*2 - 1
	}
	s.invalidate()
}

// invalidate marks every cached derived quantity stale. There is no
// per-entry invalidation: a body's derived quantities depend on its entire
// ancestor chain, so the cache is recomputed wholesale on the next read.
func (s *MechanismState) invalidate() {
	s.kinematicsValid = false
	s.crbValid = false
}

// TransformToParent returns the transform from the joint's frame-after to
// the parent body's frame at the current configuration.
func (s *MechanismState) TransformToParent(j *mechanism.Joint) (spatialmath.Transform, error) {
	if err := s.mech.CheckJoint(j); err != nil {
		return spatialmath.Transform{}, err
	}
	s.ensureKinematics()
	return s.toParent[j.Index()], nil
}

// TransformToRoot returns the transform from the given frame to the root
// frame at the current configuration.
func (s *MechanismState) TransformToRoot(frame *spatialmath.Frame) (spatialmath.Transform, error) {
	b, err := s.mech.BodyOfFrame(frame)
	if err != nil {
		return spatialmath.Transform{}, err
	}
	s.ensureKinematics()
	return s.toRoot[b.Index()], nil
}

// TwistWrtWorld returns the body's twist with respect to the world,
// expressed in the world frame.
func (s *MechanismState) TwistWrtWorld(b *mechanism.Body) (spatialmath.Twist, error) {
	if err := s.mech.CheckBody(b); err != nil {
		return spatialmath.Twist{}, err
	}
	s.ensureKinematics()
	return s.twists[b.Index()], nil
}

// BiasAcceleration returns the body's velocity-product spatial acceleration,
// the acceleration it experiences with all joint accelerations zero.
func (s *MechanismState) BiasAcceleration(b *mechanism.Body) (spatialmath.SpatialAcceleration, error) {
	if err := s.mech.CheckBody(b); err != nil {
		return spatialmath.SpatialAcceleration{}, err
	}
	s.ensureKinematics()
	return s.bias[b.Index()], nil
}

// MotionSubspace returns the joint's motion subspace columns expressed in
// the world frame, one twist per velocity coordinate.
func (s *MechanismState) MotionSubspace(j *mechanism.Joint) ([]spatialmath.Twist, error) {
	if err := s.mech.CheckJoint(j); err != nil {
		return nil, err
	}
	s.ensureKinematics()
	return s.subspaces[j.Index()], nil
}

// SpatialInertia returns the body's spatial inertia re-expressed in the
// world frame at the current pose.
func (s *MechanismState) SpatialInertia(b *mechanism.Body) (spatialmath.SpatialInertia, error) {
	if err := s.mech.CheckBody(b); err != nil {
		return spatialmath.SpatialInertia{}, err
	}
	s.ensureKinematics()
	return s.inertias[b.Index()], nil
}

// CompositeInertia returns the inertia of the subtree rooted at the body as
// if rigidly fused, expressed in the world frame.
func (s *MechanismState) CompositeInertia(b *mechanism.Body) (spatialmath.SpatialInertia, error) {
	if err := s.mech.CheckBody(b); err != nil {
		return spatialmath.SpatialInertia{}, err
	}
	s.ensureCRB()
	return s.crb[b.Index()], nil
}

// ensureKinematics recomputes, if stale, every kinematic cache category in a
// single forward pass over the bodies in topological order: transforms to
// parent and root, world-frame motion subspaces, twists, bias accelerations
// and world-frame spatial inertias.
func (s *MechanismState) ensureKinematics() {
	if s.kinematicsValid {
		return
	}
	bodies := s.mech.Bodies()
	root := s.mech.Root()
	worldFrame := s.mech.RootFrame()

	s.toRoot[0] = spatialmath.NewIdentityTransform(worldFrame)
	s.twists[0] = spatialmath.NewZeroTwist(worldFrame)
	s.bias[0] = spatialmath.NewZeroAcceleration(worldFrame)
	s.inertias[0] = root.Inertia()

	for i := 1; i < len(bodies); i++ {
		body := bodies[i]
		parent := body.Parent()
		j := body.Joint()
		jt := j.Type()

		qStart, qEnd := j.ConfigurationRange()
		jointXform := jt.Transform(j.FrameAfter(), j.FrameBefore(), s.q[qStart:qEnd])
		toParent := spatialmath.Compose(j.ToParentTransform(), jointXform)
		toRoot := spatialmath.Compose(s.toRoot[parent.Index()], toParent)
		s.toParent[j.Index()] = toParent
		s.toRoot[i] = toRoot

		cols := jt.MotionSubspace(j.FrameAfter())
		worldCols := make([]spatialmath.Twist, len(cols))
		for k, col := range cols {
			worldCols[k] = toRoot.TransformTwist(col)
		}
		s.subspaces[j.Index()] = worldCols

		vStart, _ := j.VelocityRange()
		jointTwist := spatialmath.NewZeroTwist(worldFrame)
		for k, col := range worldCols {
			jointTwist = jointTwist.Add(col.Scale(s.v[vStart+k]))
		}

		parentTwist := s.twists[parent.Index()]
		s.twists[i] = parentTwist.Add(jointTwist)
		// The subspace rotates with the parent's motion; its velocity
		// product is the only acceleration present at zero joint
		// acceleration.
		s.bias[i] = s.bias[parent.Index()].Add(spatialmath.CrossTwist(parentTwist, jointTwist))

		s.inertias[i] = toRoot.TransformInertia(body.Inertia())
	}
	s.kinematicsValid = true
}

// ensureCRB recomputes, if stale, the composite rigid-body inertias with a
// single backward accumulation over the bodies in reverse topological order.
func (s *MechanismState) ensureCRB() {
	s.ensureKinematics()
	if s.crbValid {
		return
	}
	bodies := s.mech.Bodies()
	copy(s.crb, s.inertias)
	for i := len(bodies) - 1; i > 0; i-- {
		p := bodies[i].Parent().Index()
		s.crb[p] = s.crb[p].Add(s.crb[i])
	}
	s.crbValid = true
}
