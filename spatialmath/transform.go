package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// Transform is a rigid transform taking quantities expressed in the `from`
// frame to the `to` frame. The rotation is a unit quaternion and the
// translation is the origin of `from` expressed in `to` coordinates.
type Transform struct {
	from, to *Frame
	rot      quat.Number
	trans    r3.Vector
}

// NewTransform creates a transform from the given rotation quaternion and
// translation. The quaternion is normalized.
func NewTransform(from, to *Frame, rot quat.Number, trans r3.Vector) Transform {
	return Transform{from: from, to: to, rot: normalize(rot), trans: trans}
}

// NewIdentityTransform creates the identity transform on a single frame.
func NewIdentityTransform(frame *Frame) Transform {
	return Transform{from: frame, to: frame, rot: quat.Number{Real: 1}}
}

// NewTransformFromTranslation creates a pure-translation transform.
func NewTransformFromTranslation(from, to *Frame, trans r3.Vector) Transform {
	return Transform{from: from, to: to, rot: quat.Number{Real: 1}, trans: trans}
}

// NewTransformFromAxisAngle creates a transform rotating about the given axis
// by theta radians, with the given translation applied after rotation.
func NewTransformFromAxisAngle(from, to *Frame, axis r3.Vector, theta float64, trans r3.Vector) Transform {
	return Transform{from: from, to: to, rot: QuatFromAxisAngle(axis, theta), trans: trans}
}

// From returns the frame this transform maps from.
func (t Transform) From() *Frame { return t.from }

// To returns the frame this transform maps to.
func (t Transform) To() *Frame { return t.to }

// Rotation returns the rotation quaternion.
func (t Transform) Rotation() quat.Number { return t.rot }

// Translation returns the translation component.
func (t Transform) Translation() r3.Vector { return t.trans }

// Compose returns the transform t∘u, mapping from u.From() to t.To().
// u must map into the frame t maps from.
func Compose(t, u Transform) Transform {
	checkFrame(u.to, t.from, "Compose")
	return Transform{
		from:  u.from,
		to:    t.to,
		rot:   normalize(quat.Mul(t.rot, u.rot)),
		trans: t.trans.Add(Rotate(t.rot, u.trans)),
	}
}

// Inverse returns the transform mapping in the opposite direction.
func (t Transform) Inverse() Transform {
	inv := quat.Conj(t.rot)
	return Transform{
		from:  t.to,
		to:    t.from,
		rot:   inv,
		trans: Rotate(inv, t.trans).Mul(-1),
	}
}

// TransformPoint maps a point expressed in t.From() into t.To() coordinates.
func (t Transform) TransformPoint(p r3.Vector) r3.Vector {
	return Rotate(t.rot, p).Add(t.trans)
}

// RotationMatrix returns the 3x3 rotation matrix equivalent of the
// transform's quaternion.
func (t Transform) RotationMatrix() *mat.Dense {
	q := t.rot
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return mat.NewDense(3, 3, []float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	})
}

// Rotate applies the rotation quaternion q to a vector.
func Rotate(q quat.Number, v r3.Vector) r3.Vector {
	qv := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(q, quat.Mul(qv, quat.Conj(q)))
	return r3.Vector{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// QuatFromAxisAngle returns the unit quaternion rotating by theta radians
// about the given axis.
func QuatFromAxisAngle(axis r3.Vector, theta float64) quat.Number {
	axis = axis.Normalize()
	s, c := math.Sincos(theta / 2)
	return quat.Number{Real: c, Imag: s * axis.X, Jmag: s * axis.Y, Kmag: s * axis.Z}
}

func normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/n, q)
}
