package spatialmath

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func randomTransform(r *rand.Rand, from, to *Frame) Transform {
	rot := quat.Number{Real: r.NormFloat64(), Imag: r.NormFloat64(), Jmag: r.NormFloat64(), Kmag: r.NormFloat64()}
	trans := r3.Vector{X: r.NormFloat64(), Y: r.NormFloat64(), Z: r.NormFloat64()}
	return NewTransform(from, to, rot, trans)
}

func vectorsAlmostEqual(t *testing.T, got, want r3.Vector, tol float64) {
	t.Helper()
	test.That(t, got.X, test.ShouldAlmostEqual, want.X, tol)
	test.That(t, got.Y, test.ShouldAlmostEqual, want.Y, tol)
	test.That(t, got.Z, test.ShouldAlmostEqual, want.Z, tol)
}

func TestTransformPoint(t *testing.T) {
	a := NewFrame("a")
	b := NewFrame("b")

	// quarter turn about z plus a unit x offset
	tf := NewTransformFromAxisAngle(a, b, r3.Vector{Z: 1}, math.Pi/2, r3.Vector{X: 1})
	vectorsAlmostEqual(t, tf.TransformPoint(r3.Vector{X: 1}), r3.Vector{X: 1, Y: 1}, 1e-12)
	vectorsAlmostEqual(t, tf.TransformPoint(r3.Vector{}), r3.Vector{X: 1}, 1e-12)
}

func TestComposeInverseRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	a, b, c := NewFrame("a"), NewFrame("b"), NewFrame("c")

	for i := 0; i < 25; i++ {
		ab := randomTransform(r, a, b)
		bc := randomTransform(r, b, c)
		ac := Compose(bc, ab)
		test.That(t, ac.From(), test.ShouldEqual, a)
		test.That(t, ac.To(), test.ShouldEqual, c)

		p := r3.Vector{X: r.NormFloat64(), Y: r.NormFloat64(), Z: r.NormFloat64()}
		vectorsAlmostEqual(t, ac.TransformPoint(p), bc.TransformPoint(ab.TransformPoint(p)), 1e-12)

		// A transform composed with its inverse is the identity.
		id := Compose(ab.Inverse(), ab)
		vectorsAlmostEqual(t, id.TransformPoint(p), p, 1e-12)
	}
}

func TestRotationMatrixAgreesWithQuat(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	a, b := NewFrame("a"), NewFrame("b")

	for i := 0; i < 10; i++ {
		tf := randomTransform(r, a, b)
		rm := tf.RotationMatrix()
		v := r3.Vector{X: r.NormFloat64(), Y: r.NormFloat64(), Z: r.NormFloat64()}
		rv := Rotate(tf.Rotation(), v)
		vectorsAlmostEqual(t, r3.Vector{
			X: rm.At(0, 0)*v.X + rm.At(0, 1)*v.Y + rm.At(0, 2)*v.Z,
			Y: rm.At(1, 0)*v.X + rm.At(1, 1)*v.Y + rm.At(1, 2)*v.Z,
			Z: rm.At(2, 0)*v.X + rm.At(2, 1)*v.Y + rm.At(2, 2)*v.Z,
		}, rv, 1e-12)
	}
}

func TestFrameMismatchPanics(t *testing.T) {
	a, c := NewFrame("a"), NewFrame("c")
	ab := NewIdentityTransform(a)
	cc := NewIdentityTransform(c)
	defer func() {
		test.That(t, recover(), test.ShouldNotBeNil)
	}()
	Compose(ab, cc)
}
