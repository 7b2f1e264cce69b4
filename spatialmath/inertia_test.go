package spatialmath

import (
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func randomInertia(r *rand.Rand, frame *Frame) SpatialInertia {
	mass := 0.5 + r.Float64()*2
	com := r3.Vector{X: r.NormFloat64(), Y: r.NormFloat64(), Z: r.NormFloat64()}
	// random positive definite moment about the center of mass
	var a mat.Dense
	g := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			g.Set(i, j, r.NormFloat64())
		}
	}
	a.Mul(g, g.T())
	moment := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			v := a.At(i, j)
			if i == j {
				v += 1 // keep it comfortably positive definite
			}
			moment.SetSym(i, j, v)
		}
	}
	return NewSpatialInertia(frame, mass, com, moment)
}

func randomTwist(r *rand.Rand, frame *Frame) Twist {
	return NewTwist(frame,
		r3.Vector{X: r.NormFloat64(), Y: r.NormFloat64(), Z: r.NormFloat64()},
		r3.Vector{X: r.NormFloat64(), Y: r.NormFloat64(), Z: r.NormFloat64()})
}

func TestParallelAxisShift(t *testing.T) {
	f := NewFrame("body")
	com := r3.Vector{X: 0, Y: 0, Z: -0.5}
	moment := mat.NewSymDense(3, []float64{0.1, 0, 0, 0, 0.2, 0, 0, 0, 0.3})
	si := NewSpatialInertia(f, 2, com, moment)

	// shifting by d=(0,0,-0.5): Ixx and Iyy gain m*d^2, Izz is unchanged
	test.That(t, si.Moment.At(0, 0), test.ShouldAlmostEqual, 0.1+2*0.25, 1e-12)
	test.That(t, si.Moment.At(1, 1), test.ShouldAlmostEqual, 0.2+2*0.25, 1e-12)
	test.That(t, si.Moment.At(2, 2), test.ShouldAlmostEqual, 0.3, 1e-12)
	vectorsAlmostEqual(t, si.CenterOfMass(), com, 1e-12)
}

func TestKineticEnergyInvariantUnderTransform(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	a, b := NewFrame("a"), NewFrame("b")

	for i := 0; i < 25; i++ {
		si := randomInertia(r, a)
		tw := randomTwist(r, a)
		tf := randomTransform(r, a, b)

		ke := si.KineticEnergy(tw)
		keTransformed := tf.TransformInertia(si).KineticEnergy(tf.TransformTwist(tw))
		test.That(t, keTransformed, test.ShouldAlmostEqual, ke, 1e-10)
	}
}

func TestInertiaTransformRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	a, b := NewFrame("a"), NewFrame("b")

	for i := 0; i < 25; i++ {
		si := randomInertia(r, a)
		tf := randomTransform(r, a, b)
		back := tf.Inverse().TransformInertia(tf.TransformInertia(si))

		test.That(t, back.Mass, test.ShouldAlmostEqual, si.Mass, 1e-12)
		vectorsAlmostEqual(t, back.CrossPart, si.CrossPart, 1e-9)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				test.That(t, back.Moment.At(i, j), test.ShouldAlmostEqual, si.Moment.At(i, j), 1e-8)
			}
		}
	}
}

func TestNewtonEulerGyroscopicTerm(t *testing.T) {
	// A symmetric top spinning about a principal axis at constant rate
	// needs no torque; about a non-principal configuration the gyroscopic
	// term w x (I w) appears.
	f := NewFrame("top")
	moment := mat.NewSymDense(3, []float64{1, 0, 0, 0, 2, 0, 0, 0, 3})
	si := NewSpatialInertia(f, 1, r3.Vector{}, moment)

	t.Run("principal axis", func(t *testing.T) {
		tw := NewTwist(f, r3.Vector{Z: 4}, r3.Vector{})
		w := si.NewtonEuler(NewZeroAcceleration(f), tw)
		vectorsAlmostEqual(t, w.Torque, r3.Vector{}, 1e-12)
		vectorsAlmostEqual(t, w.Force, r3.Vector{}, 1e-12)
	})

	t.Run("off axis", func(t *testing.T) {
		omega := r3.Vector{X: 1, Y: 2, Z: 3}
		tw := NewTwist(f, omega, r3.Vector{})
		w := si.NewtonEuler(NewZeroAcceleration(f), tw)
		iw := r3.Vector{X: 1 * omega.X, Y: 2 * omega.Y, Z: 3 * omega.Z}
		vectorsAlmostEqual(t, w.Torque, omega.Cross(iw), 1e-12)
		vectorsAlmostEqual(t, w.Force, r3.Vector{}, 1e-12)
	})
}

func TestMomentumMatchesDefinition(t *testing.T) {
	// For a point mass offset from the origin, momentum must match the
	// hand computation m*v_com and com x p.
	f := NewFrame("pt")
	com := r3.Vector{X: 1}
	si := NewSpatialInertia(f, 2, com, nil)

	omega := r3.Vector{Z: 3}
	tw := NewTwist(f, omega, r3.Vector{})
	h := si.MulTwist(tw)

	vCom := omega.Cross(com)
	p := vCom.Mul(2)
	vectorsAlmostEqual(t, h.Linear, p, 1e-12)
	vectorsAlmostEqual(t, h.Angular, com.Cross(p), 1e-12)
}

func TestWrenchTransformPreservesPower(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	a, b := NewFrame("a"), NewFrame("b")

	for i := 0; i < 25; i++ {
		tf := randomTransform(r, a, b)
		tw := randomTwist(r, a)
		w := NewWrench(a,
			r3.Vector{X: r.NormFloat64(), Y: r.NormFloat64(), Z: r.NormFloat64()},
			r3.Vector{X: r.NormFloat64(), Y: r.NormFloat64(), Z: r.NormFloat64()})
		test.That(t, tf.TransformWrench(w).Dot(tf.TransformTwist(tw)), test.ShouldAlmostEqual, w.Dot(tw), 1e-10)
	}
}
