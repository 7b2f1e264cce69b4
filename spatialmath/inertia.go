package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// SpatialInertia is the inertia of a rigid body expressed in a frame: mass,
// the cross part (mass times the center-of-mass offset from the frame
// origin), and the 3x3 rotational moment about the frame origin.
type SpatialInertia struct {
	frame     *Frame
	Mass      float64
	CrossPart r3.Vector
	Moment    *mat.SymDense
}

// NewSpatialInertia creates a spatial inertia from a mass, the center of mass
// expressed in the given frame, and the rotational inertia about the center
// of mass. The moment is shifted to the frame origin via the parallel-axis
// theorem.
func NewSpatialInertia(frame *Frame, mass float64, com r3.Vector, momentAboutCoM *mat.SymDense) SpatialInertia {
	moment := mat.NewSymDense(3, nil)
	if momentAboutCoM != nil {
		moment.CopySym(momentAboutCoM)
	}
	// parallel axis: J_origin = J_com + m*(|d|^2 I - d d^T)
	d := com
	dd := [3]float64{d.X, d.Y, d.Z}
	norm2 := d.Dot(d)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			shift := -mass * dd[i] * dd[j]
			if i == j {
				shift += mass * norm2
			}
			moment.SetSym(i, j, moment.At(i, j)+shift)
		}
	}
	return SpatialInertia{frame: frame, Mass: mass, CrossPart: com.Mul(mass), Moment: moment}
}

// NewZeroInertia creates a massless spatial inertia in the given frame.
func NewZeroInertia(frame *Frame) SpatialInertia {
	return SpatialInertia{frame: frame, Moment: mat.NewSymDense(3, nil)}
}

// Frame returns the frame the inertia is expressed in.
func (si SpatialInertia) Frame() *Frame { return si.frame }

// CenterOfMass returns the center of mass expressed in the inertia's frame.
// A massless inertia has its center of mass at the frame origin.
func (si SpatialInertia) CenterOfMass() r3.Vector {
	if si.Mass == 0 {
		return r3.Vector{}
	}
	return si.CrossPart.Mul(1 / si.Mass)
}

// Add sums two inertias expressed in the same frame, the inertia of the two
// bodies rigidly fused.
func (si SpatialInertia) Add(other SpatialInertia) SpatialInertia {
	checkFrame(other.frame, si.frame, "SpatialInertia.Add")
	moment := mat.NewSymDense(3, nil)
	moment.AddSym(si.Moment, other.Moment)
	return SpatialInertia{
		frame:     si.frame,
		Mass:      si.Mass + other.Mass,
		CrossPart: si.CrossPart.Add(other.CrossPart),
		Moment:    moment,
	}
}

// MulTwist computes the spatial momentum of a body with this inertia moving
// with the given twist.
func (si SpatialInertia) MulTwist(tw Twist) Momentum {
	checkFrame(tw.frame, si.frame, "SpatialInertia.MulTwist")
	jw := mulSym(si.Moment, tw.Angular)
	return Momentum{
		frame:   si.frame,
		Angular: jw.Add(si.CrossPart.Cross(tw.Linear)),
		Linear:  tw.Linear.Mul(si.Mass).Sub(si.CrossPart.Cross(tw.Angular)),
	}
}

// mulAccel applies the inertia to a spatial acceleration, giving the rate of
// change of momentum due to that acceleration alone.
func (si SpatialInertia) mulAccel(a SpatialAcceleration) Wrench {
	checkFrame(a.frame, si.frame, "SpatialInertia.mulAccel")
	ja := mulSym(si.Moment, a.Angular)
	return Wrench{
		frame:  si.frame,
		Torque: ja.Add(si.CrossPart.Cross(a.Linear)),
		Force:  a.Linear.Mul(si.Mass).Sub(si.CrossPart.Cross(a.Angular)),
	}
}

// NewtonEuler evaluates the rigid-body equation of motion: the net wrench
// required for a body with this inertia, moving with the given twist, to
// undergo the given spatial acceleration. The second term is the gyroscopic
// (velocity-product) correction v ×* (I·v).
func (si SpatialInertia) NewtonEuler(accel SpatialAcceleration, twist Twist) Wrench {
	return si.mulAccel(accel).Add(CrossMomentum(twist, si.MulTwist(twist)))
}

// KineticEnergy computes 1/2 v^T I v for a body moving with the given twist.
func (si SpatialInertia) KineticEnergy(tw Twist) float64 {
	return 0.5 * si.MulTwist(tw).Dot(tw)
}

// TransformInertia re-expresses a spatial inertia in t.To() coordinates,
// applying both the rotation and the origin shift.
func (t Transform) TransformInertia(si SpatialInertia) SpatialInertia {
	checkFrame(si.frame, t.from, "TransformInertia")

	rm := t.RotationMatrix()
	var tmp, rjr mat.Dense
	tmp.Mul(rm, si.Moment)
	rjr.Mul(&tmp, rm.T())

	rc := Rotate(t.rot, si.CrossPart)
	mp := t.trans.Mul(si.Mass)
	crossNew := rc.Add(mp)

	// J' = R J R^T - Y + tr(Y) I, with Y = X + X^T + m p p^T and X = (Rc) p^T
	p := [3]float64{t.trans.X, t.trans.Y, t.trans.Z}
	rcv := [3]float64{rc.X, rc.Y, rc.Z}
	var y [3][3]float64
	trY := 0.0
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			y[i][j] = rcv[i]*p[j] + p[i]*rcv[j] + si.Mass*p[i]*p[j]
		}
		trY += y[i][i]
	}
	moment := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			v := 0.5*(rjr.At(i, j)+rjr.At(j, i)) - y[i][j]
			if i == j {
				v += trY
			}
			moment.SetSym(i, j, v)
		}
	}
	return SpatialInertia{frame: t.to, Mass: si.Mass, CrossPart: crossNew, Moment: moment}
}

func mulSym(m *mat.SymDense, v r3.Vector) r3.Vector {
	return r3.Vector{
		X: m.At(0, 0)*v.X + m.At(0, 1)*v.Y + m.At(0, 2)*v.Z,
		Y: m.At(1, 0)*v.X + m.At(1, 1)*v.Y + m.At(1, 2)*v.Z,
		Z: m.At(2, 0)*v.X + m.At(2, 1)*v.Y + m.At(2, 2)*v.Z,
	}
}
