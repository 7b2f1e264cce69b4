package spatialmath

import "github.com/golang/geo/r3"

// Twist is a spatial velocity: angular velocity and the linear velocity of
// the point currently coincident with the expressing frame's origin.
type Twist struct {
	frame   *Frame
	Angular r3.Vector
	Linear  r3.Vector
}

// NewTwist creates a twist expressed in the given frame.
func NewTwist(frame *Frame, angular, linear r3.Vector) Twist {
	return Twist{frame: frame, Angular: angular, Linear: linear}
}

// NewZeroTwist creates the zero twist in the given frame.
func NewZeroTwist(frame *Frame) Twist {
	return Twist{frame: frame}
}

// Frame returns the frame the twist is expressed in.
func (tw Twist) Frame() *Frame { return tw.frame }

// Add sums two twists expressed in the same frame.
func (tw Twist) Add(other Twist) Twist {
	checkFrame(other.frame, tw.frame, "Twist.Add")
	return Twist{frame: tw.frame, Angular: tw.Angular.Add(other.Angular), Linear: tw.Linear.Add(other.Linear)}
}

// Sub subtracts a twist expressed in the same frame.
func (tw Twist) Sub(other Twist) Twist {
	checkFrame(other.frame, tw.frame, "Twist.Sub")
	return Twist{frame: tw.frame, Angular: tw.Angular.Sub(other.Angular), Linear: tw.Linear.Sub(other.Linear)}
}

// Scale scales both parts of the twist.
func (tw Twist) Scale(s float64) Twist {
	return Twist{frame: tw.frame, Angular: tw.Angular.Mul(s), Linear: tw.Linear.Mul(s)}
}

// TransformTwist re-expresses a twist in t.To() coordinates.
func (t Transform) TransformTwist(tw Twist) Twist {
	checkFrame(tw.frame, t.from, "TransformTwist")
	ang := Rotate(t.rot, tw.Angular)
	lin := Rotate(t.rot, tw.Linear).Add(t.trans.Cross(ang))
	return Twist{frame: t.to, Angular: ang, Linear: lin}
}

// CrossTwist is the spatial cross product of two motion vectors, v1 × v2.
// It yields the rate of change of v2 as seen from a frame moving with v1,
// which is a spatial acceleration.
func CrossTwist(v1, v2 Twist) SpatialAcceleration {
	checkFrame(v2.frame, v1.frame, "CrossTwist")
	return SpatialAcceleration{
		frame:   v1.frame,
		Angular: v1.Angular.Cross(v2.Angular),
		Linear:  v1.Angular.Cross(v2.Linear).Add(v1.Linear.Cross(v2.Angular)),
	}
}

// CrossMomentum is the dual spatial cross product v ×* h of a motion vector
// with a momentum, producing the gyroscopic wrench.
func CrossMomentum(v Twist, h Momentum) Wrench {
	checkFrame(h.frame, v.frame, "CrossMomentum")
	return Wrench{
		frame:  v.frame,
		Torque: v.Angular.Cross(h.Angular).Add(v.Linear.Cross(h.Linear)),
		Force:  v.Angular.Cross(h.Linear),
	}
}

// SpatialAcceleration is the time derivative of a twist, expressed in a
// frame with angular and linear parts about that frame's origin.
type SpatialAcceleration struct {
	frame   *Frame
	Angular r3.Vector
	Linear  r3.Vector
}

// NewSpatialAcceleration creates a spatial acceleration in the given frame.
func NewSpatialAcceleration(frame *Frame, angular, linear r3.Vector) SpatialAcceleration {
	return SpatialAcceleration{frame: frame, Angular: angular, Linear: linear}
}

// NewZeroAcceleration creates the zero spatial acceleration in the given frame.
func NewZeroAcceleration(frame *Frame) SpatialAcceleration {
	return SpatialAcceleration{frame: frame}
}

// Frame returns the frame the acceleration is expressed in.
func (a SpatialAcceleration) Frame() *Frame { return a.frame }

// Add sums two spatial accelerations expressed in the same frame.
func (a SpatialAcceleration) Add(other SpatialAcceleration) SpatialAcceleration {
	checkFrame(other.frame, a.frame, "SpatialAcceleration.Add")
	return SpatialAcceleration{frame: a.frame, Angular: a.Angular.Add(other.Angular), Linear: a.Linear.Add(other.Linear)}
}

// Sub subtracts a spatial acceleration expressed in the same frame.
func (a SpatialAcceleration) Sub(other SpatialAcceleration) SpatialAcceleration {
	checkFrame(other.frame, a.frame, "SpatialAcceleration.Sub")
	return SpatialAcceleration{frame: a.frame, Angular: a.Angular.Sub(other.Angular), Linear: a.Linear.Sub(other.Linear)}
}

// TransformAcceleration re-expresses a spatial acceleration in t.To()
// coordinates. Valid when the two frames are not moving relative to each
// other, which is how the dynamics passes use it (re-expressing a quantity
// computed in one frame of a rigid chain snapshot in another).
func (t Transform) TransformAcceleration(a SpatialAcceleration) SpatialAcceleration {
	checkFrame(a.frame, t.from, "TransformAcceleration")
	ang := Rotate(t.rot, a.Angular)
	lin := Rotate(t.rot, a.Linear).Add(t.trans.Cross(ang))
	return SpatialAcceleration{frame: t.to, Angular: ang, Linear: lin}
}

// Wrench is a spatial force: a torque about the expressing frame's origin
// and a linear force.
type Wrench struct {
	frame  *Frame
	Torque r3.Vector
	Force  r3.Vector
}

// NewWrench creates a wrench expressed in the given frame.
func NewWrench(frame *Frame, torque, force r3.Vector) Wrench {
	return Wrench{frame: frame, Torque: torque, Force: force}
}

// NewZeroWrench creates the zero wrench in the given frame.
func NewZeroWrench(frame *Frame) Wrench {
	return Wrench{frame: frame}
}

// Frame returns the frame the wrench is expressed in.
func (w Wrench) Frame() *Frame { return w.frame }

// Add sums two wrenches expressed in the same frame.
func (w Wrench) Add(other Wrench) Wrench {
	checkFrame(other.frame, w.frame, "Wrench.Add")
	return Wrench{frame: w.frame, Torque: w.Torque.Add(other.Torque), Force: w.Force.Add(other.Force)}
}

// Sub subtracts a wrench expressed in the same frame.
func (w Wrench) Sub(other Wrench) Wrench {
	checkFrame(other.frame, w.frame, "Wrench.Sub")
	return Wrench{frame: w.frame, Torque: w.Torque.Sub(other.Torque), Force: w.Force.Sub(other.Force)}
}

// TransformWrench re-expresses a wrench in t.To() coordinates.
func (t Transform) TransformWrench(w Wrench) Wrench {
	checkFrame(w.frame, t.from, "TransformWrench")
	force := Rotate(t.rot, w.Force)
	torque := Rotate(t.rot, w.Torque).Add(t.trans.Cross(force))
	return Wrench{frame: t.to, Torque: torque, Force: force}
}

// Dot is the power pairing between a motion vector and a wrench: the rate of
// work the wrench performs through the twist.
func (w Wrench) Dot(tw Twist) float64 {
	checkFrame(tw.frame, w.frame, "Wrench.Dot")
	return w.Torque.Dot(tw.Angular) + w.Force.Dot(tw.Linear)
}

// Momentum is a spatial momentum: angular momentum about the expressing
// frame's origin and linear momentum.
type Momentum struct {
	frame   *Frame
	Angular r3.Vector
	Linear  r3.Vector
}

// NewMomentum creates a momentum expressed in the given frame.
func NewMomentum(frame *Frame, angular, linear r3.Vector) Momentum {
	return Momentum{frame: frame, Angular: angular, Linear: linear}
}

// Frame returns the frame the momentum is expressed in.
func (h Momentum) Frame() *Frame { return h.frame }

// Add sums two momenta expressed in the same frame.
func (h Momentum) Add(other Momentum) Momentum {
	checkFrame(other.frame, h.frame, "Momentum.Add")
	return Momentum{frame: h.frame, Angular: h.Angular.Add(other.Angular), Linear: h.Linear.Add(other.Linear)}
}

// Dot is the kinetic-energy pairing between a momentum and a twist.
func (h Momentum) Dot(tw Twist) float64 {
	checkFrame(tw.frame, h.frame, "Momentum.Dot")
	return h.Angular.Dot(tw.Angular) + h.Linear.Dot(tw.Linear)
}
