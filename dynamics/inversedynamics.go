package dynamics

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/mechdyn/mechdyn/mechanism"
	"github.com/mechdyn/mechdyn/spatialmath"
)

// InverseDynamics computes the joint torques required to realize the given
// joint accelerations at the current configuration and velocity, under
// gravity and any externally applied wrenches, via the recursive
// Newton-Euler algorithm.
//
// vdot may be nil, meaning zero joint acceleration; otherwise its length
// must equal the mechanism's velocity dimension. External wrenches are keyed
// by body and must be expressed in that body's own frame; they are
// transformed to the world frame before being subtracted from the body's net
// wrench.
func (s *MechanismState) InverseDynamics(
	vdot []float64,
	external map[*mechanism.Body]spatialmath.Wrench,
) ([]float64, error) {
	nv := s.mech.VelocityDimension()
	if vdot == nil {
		vdot = make([]float64, nv)
	} else if len(vdot) != nv {
		return nil, errors.Errorf("joint acceleration has length %d, mechanism expects %d", len(vdot), nv)
	}
	for b, w := range external {
		if err := s.mech.CheckBody(b); err != nil {
			return nil, err
		}
		if w.Frame() != b.Frame() {
			return nil, errors.Errorf(
				"external wrench on body %q expressed in frame %q, want body frame %q",
				b.Name(), w.Frame().Name(), b.Frame().Name())
		}
	}
	s.ensureKinematics()

	bodies := s.mech.Bodies()
	worldFrame := s.mech.RootFrame()

	// Forward phase: joint-acceleration contributions only. The base
	// carries the pure-gravity acceleration so gravitational torques fall
	// out of the Newton-Euler equation without a separate pass.
	accels := make([]spatialmath.SpatialAcceleration, len(bodies))
	accels[0] = spatialmath.NewSpatialAcceleration(worldFrame, r3.Vector{}, s.mech.Gravity().Mul(-1))
	for i := 1; i < len(bodies); i++ {
		body := bodies[i]
		j := body.Joint()
		vStart, _ := j.VelocityRange()
		a := accels[body.Parent().Index()]
		for k, col := range s.subspaces[j.Index()] {
			vd := vdot[vStart+k]
			if vd != 0 {
				a = a.Add(spatialmath.NewSpatialAcceleration(worldFrame, col.Angular.Mul(vd), col.Linear.Mul(vd)))
			}
		}
		accels[i] = a
	}

	// Net wrench per body: Newton-Euler on the total acceleration
	// (bias included), minus external wrenches.
	wrenches := make([]spatialmath.Wrench, len(bodies))
	wrenches[0] = spatialmath.NewZeroWrench(worldFrame)
	for i := 1; i < len(bodies); i++ {
		body := bodies[i]
		w := s.inertias[i].NewtonEuler(accels[i].Add(s.bias[i]), s.twists[i])
		if ext, ok := external[body]; ok {
			w = w.Sub(s.toRoot[i].TransformWrench(ext))
		}
		wrenches[i] = w
	}

	// Backward phase: project each wrench onto its joint's motion subspace
	// and pass it up to the parent.
	torques := make([]float64, nv)
	for i := len(bodies) - 1; i > 0; i-- {
		body := bodies[i]
		j := body.Joint()
		vStart, _ := j.VelocityRange()
		for k, col := range s.subspaces[j.Index()] {
			torques[vStart+k] = wrenches[i].Dot(col)
		}
		p := body.Parent().Index()
		wrenches[p] = wrenches[p].Add(wrenches[i])
	}
	return torques, nil
}
