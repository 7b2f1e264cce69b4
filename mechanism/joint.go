package mechanism

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/mechdyn/mechdyn/spatialmath"
)

// JointType describes what a joint's configuration coordinates mean. It is a
// closed set of variants; each maps configuration to a relative pose, exposes
// the motion subspace spanned by its velocity coordinates, and maps velocity
// coordinates to configuration-coordinate rates.
type JointType interface {
	// ConfigurationDimension is the number of configuration coordinates.
	ConfigurationDimension() int

	// VelocityDimension is the number of velocity coordinates. It may be
	// smaller than the configuration dimension (quaternion joints).
	VelocityDimension() int

	// Transform maps the configuration to the pose of the frame after the
	// joint relative to the frame before it.
	Transform(after, before *spatialmath.Frame, q []float64) spatialmath.Transform

	// MotionSubspace returns one unit twist per velocity coordinate,
	// expressed in the frame after the joint.
	MotionSubspace(after *spatialmath.Frame) []spatialmath.Twist

	// ConfigurationDerivative maps velocity coordinates to the time
	// derivative of the configuration coordinates at configuration q.
	ConfigurationDerivative(q, v []float64) []float64

	// ZeroConfiguration returns the configuration at which the joint
	// transform is closest to identity.
	ZeroConfiguration() []float64

	// RandomConfiguration returns a valid random configuration.
	RandomConfiguration(r *rand.Rand) []float64
}

// Revolute is a one degree of freedom rotation about a fixed axis.
type Revolute struct {
	Axis r3.Vector
}

// NewRevolute creates a revolute joint type about the given axis.
func NewRevolute(axis r3.Vector) Revolute {
	return Revolute{Axis: axis.Normalize()}
}

// ConfigurationDimension returns 1.
func (rj Revolute) ConfigurationDimension() int { return 1 }

// VelocityDimension returns 1.
func (rj Revolute) VelocityDimension() int { return 1 }

// Transform rotates the frame after the joint about the axis by q[0] radians.
func (rj Revolute) Transform(after, before *spatialmath.Frame, q []float64) spatialmath.Transform {
	return spatialmath.NewTransformFromAxisAngle(after, before, rj.Axis, q[0], r3.Vector{})
}

// MotionSubspace is a single pure-rotation twist about the axis.
func (rj Revolute) MotionSubspace(after *spatialmath.Frame) []spatialmath.Twist {
	return []spatialmath.Twist{spatialmath.NewTwist(after, rj.Axis, r3.Vector{})}
}

// ConfigurationDerivative is the identity for a revolute joint.
func (rj Revolute) ConfigurationDerivative(q, v []float64) []float64 {
	return []float64{v[0]}
}

// ZeroConfiguration returns a single zero angle.
func (rj Revolute) ZeroConfiguration() []float64 { return []float64{0} }

// RandomConfiguration returns a uniform angle in [-pi, pi).
func (rj Revolute) RandomConfiguration(r *rand.Rand) []float64 {
	return []float64{(r.Float64()*2 - 1) * math.Pi}
}

// Prismatic is a one degree of freedom translation along a fixed axis.
type Prismatic struct {
	Axis r3.Vector
}

// NewPrismatic creates a prismatic joint type along the given axis.
func NewPrismatic(axis r3.Vector) Prismatic {
	return Prismatic{Axis: axis.Normalize()}
}

// ConfigurationDimension returns 1.
func (pj Prismatic) ConfigurationDimension() int { return 1 }

// VelocityDimension returns 1.
func (pj Prismatic) VelocityDimension() int { return 1 }

// Transform translates the frame after the joint along the axis by q[0].
func (pj Prismatic) Transform(after, before *spatialmath.Frame, q []float64) spatialmath.Transform {
	return spatialmath.NewTransformFromTranslation(after, before, pj.Axis.Mul(q[0]))
}

// MotionSubspace is a single pure-translation twist along the axis.
func (pj Prismatic) MotionSubspace(after *spatialmath.Frame) []spatialmath.Twist {
	return []spatialmath.Twist{spatialmath.NewTwist(after, r3.Vector{}, pj.Axis)}
}

// ConfigurationDerivative is the identity for a prismatic joint.
func (pj Prismatic) ConfigurationDerivative(q, v []float64) []float64 {
	return []float64{v[0]}
}

// ZeroConfiguration returns a single zero displacement.
func (pj Prismatic) ZeroConfiguration() []float64 { return []float64{0} }

// RandomConfiguration returns a uniform displacement in [-1, 1).
func (pj Prismatic) RandomConfiguration(r *rand.Rand) []float64 {
	return []float64{r.Float64()*2 - 1}
}

// Floating is a six degree of freedom joint parameterized by a unit
// quaternion (w, x, y, z) followed by a translation (x, y, z): seven
// configuration coordinates, six velocity coordinates. Velocity coordinates
// are the angular then linear velocity expressed in the frame after the
// joint.
type Floating struct{}

// ConfigurationDimension returns 7.
func (fj Floating) ConfigurationDimension() int { return 7 }

// VelocityDimension returns 6.
func (fj Floating) VelocityDimension() int { return 6 }

// Transform builds the pose from the quaternion and translation coordinates.
func (fj Floating) Transform(after, before *spatialmath.Frame, q []float64) spatialmath.Transform {
	rot := quat.Number{Real: q[0], Imag: q[1], Jmag: q[2], Kmag: q[3]}
	return spatialmath.NewTransform(after, before, rot, r3.Vector{X: q[4], Y: q[5], Z: q[6]})
}

// MotionSubspace spans all six degrees of freedom in the frame after the
// joint: three rotational columns then three translational columns.
func (fj Floating) MotionSubspace(after *spatialmath.Frame) []spatialmath.Twist {
	return []spatialmath.Twist{
		spatialmath.NewTwist(after, r3.Vector{X: 1}, r3.Vector{}),
		spatialmath.NewTwist(after, r3.Vector{Y: 1}, r3.Vector{}),
		spatialmath.NewTwist(after, r3.Vector{Z: 1}, r3.Vector{}),
		spatialmath.NewTwist(after, r3.Vector{}, r3.Vector{X: 1}),
		spatialmath.NewTwist(after, r3.Vector{}, r3.Vector{Y: 1}),
		spatialmath.NewTwist(after, r3.Vector{}, r3.Vector{Z: 1}),
	}
}

// ConfigurationDerivative applies quaternion kinematics to the rotational
// coordinates, q̇ = q ⊗ ω/2 with ω in the frame after the joint, and rotates
// the body-frame linear velocity into the frame before the joint for the
// translational coordinates.
func (fj Floating) ConfigurationDerivative(q, v []float64) []float64 {
	rot := quat.Number{Real: q[0], Imag: q[1], Jmag: q[2], Kmag: q[3]}
	omega := quat.Number{Imag: v[0], Jmag: v[1], Kmag: v[2]}
	qdot := quat.Scale(0.5, quat.Mul(rot, omega))
	linear := spatialmath.Rotate(rot, r3.Vector{X: v[3], Y: v[4], Z: v[5]})
	return []float64{qdot.Real, qdot.Imag, qdot.Jmag, qdot.Kmag, linear.X, linear.Y, linear.Z}
}

// ZeroConfiguration returns the identity quaternion and zero translation.
func (fj Floating) ZeroConfiguration() []float64 {
	return []float64{1, 0, 0, 0, 0, 0, 0}
}

// RandomConfiguration returns a uniformly random unit quaternion and a
// translation with components in [-1, 1).
func (fj Floating) RandomConfiguration(r *rand.Rand) []float64 {
	rot := quat.Number{Real: r.NormFloat64(), Imag: r.NormFloat64(), Jmag: r.NormFloat64(), Kmag: r.NormFloat64()}
	n := quat.Abs(rot)
	if n == 0 {
		rot = quat.Number{Real: 1}
		n = 1
	}
	rot = quat.Scale(1/n, rot)
	return []float64{
		rot.Real, rot.Imag, rot.Jmag, rot.Kmag,
		r.Float64()*2 - 1, r.Float64()*2 - 1, r.Float64()*2 - 1,
	}
}

// Fixed is a zero degree of freedom joint rigidly connecting two bodies. It
// contributes no rows or columns to joint-space quantities.
type Fixed struct{}

// ConfigurationDimension returns 0.
func (xj Fixed) ConfigurationDimension() int { return 0 }

// VelocityDimension returns 0.
func (xj Fixed) VelocityDimension() int { return 0 }

// Transform is the identity pose regardless of configuration.
func (xj Fixed) Transform(after, before *spatialmath.Frame, q []float64) spatialmath.Transform {
	return spatialmath.NewTransform(after, before, quat.Number{Real: 1}, r3.Vector{})
}

// MotionSubspace is empty.
func (xj Fixed) MotionSubspace(after *spatialmath.Frame) []spatialmath.Twist {
	return nil
}

// ConfigurationDerivative is empty.
func (xj Fixed) ConfigurationDerivative(q, v []float64) []float64 { return nil }

// ZeroConfiguration is empty.
func (xj Fixed) ZeroConfiguration() []float64 { return nil }

// RandomConfiguration is empty.
func (xj Fixed) RandomConfiguration(r *rand.Rand) []float64 { return nil }

// Joint is a named connection between a parent and child body. Its pose
// bookkeeping involves three frames: the frame before the joint, fixed
// relative to the parent body; the frame after the joint, fixed relative to
// the child body; and the joint-type transform between them, which varies
// with configuration.
type Joint struct {
	name        string
	typ         JointType
	frameBefore *spatialmath.Frame
	frameAfter  *spatialmath.Frame

	// set by Mechanism.Attach
	toParent      spatialmath.Transform
	index         int
	configStart   int
	velocityStart int
}

// NewJoint creates a joint with the given name and type. The frames before
// and after the joint are created alongside it.
func NewJoint(name string, typ JointType) *Joint {
	return &Joint{
		name:        name,
		typ:         typ,
		frameBefore: spatialmath.NewFrame("before_" + name),
		frameAfter:  spatialmath.NewFrame("after_" + name),
		index:       -1,
	}
}

// Name returns the joint's name.
func (j *Joint) Name() string { return j.name }

// Type returns the joint's type variant.
func (j *Joint) Type() JointType { return j.typ }

// FrameBefore returns the frame on the parent side of the joint.
func (j *Joint) FrameBefore() *spatialmath.Frame { return j.frameBefore }

// FrameAfter returns the frame on the child side of the joint. Once the
// joint is attached this is the child body's frame.
func (j *Joint) FrameAfter() *spatialmath.Frame { return j.frameAfter }

// ToParentTransform returns the fixed transform from the frame before the
// joint to the parent body's frame, established at attach time.
func (j *Joint) ToParentTransform() spatialmath.Transform { return j.toParent }

// Index returns the joint's position in the mechanism's topological joint
// ordering, or -1 if the joint is not attached.
func (j *Joint) Index() int { return j.index }

// ConfigurationRange returns the joint's contiguous slice bounds in the
// mechanism-wide configuration vector.
func (j *Joint) ConfigurationRange() (start, end int) {
	return j.configStart, j.configStart + j.typ.ConfigurationDimension()
}

// VelocityRange returns the joint's contiguous slice bounds in the
// mechanism-wide velocity vector.
func (j *Joint) VelocityRange() (start, end int) {
	return j.velocityStart, j.velocityStart + j.typ.VelocityDimension()
}
