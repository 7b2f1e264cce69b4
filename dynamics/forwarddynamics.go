package dynamics

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/mechdyn/mechdyn/mechanism"
	"github.com/mechdyn/mechdyn/spatialmath"
)

// NewSingularMassMatrixError returns the error surfaced when the mass matrix
// cannot be factorized, e.g. an unconstrained floating joint whose subtree
// contributes no inertia.
func NewSingularMassMatrixError() error {
	return errors.New("mass matrix is singular or not positive definite")
}

// Dynamics computes forward dynamics: given applied joint torques and
// optional external wrenches, it returns the configuration derivative and
// the joint accelerations at the current state.
//
// The bias torque is extracted with inverse dynamics at zero joint
// acceleration, then M·v̇ = τ - c is solved with a Cholesky factorization of
// the mass matrix, which fails loudly if the matrix is singular. torques may
// be nil, meaning zero applied torque.
func (s *MechanismState) Dynamics(
	torques []float64,
	external map[*mechanism.Body]spatialmath.Wrench,
) (qdot, vdot []float64, err error) {
	nv := s.mech.VelocityDimension()
	if torques == nil {
		torques = make([]float64, nv)
	} else if len(torques) != nv {
		return nil, nil, errors.Errorf("torque vector has length %d, mechanism expects %d", len(torques), nv)
	}

	biasTorque, err := s.InverseDynamics(nil, external)
	if err != nil {
		return nil, nil, err
	}
	if nv == 0 {
		return []float64{}, []float64{}, nil
	}

	rhs := mat.NewVecDense(nv, nil)
	for i := 0; i < nv; i++ {
		rhs.SetVec(i, torques[i]-biasTorque[i])
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(s.MassMatrix()); !ok {
		return nil, nil, NewSingularMassMatrixError()
	}
	var sol mat.VecDense
	if err := chol.SolveVecTo(&sol, rhs); err != nil {
		return nil, nil, errors.Wrap(err, "mass matrix solve failed")
	}

	vdot = make([]float64, nv)
	copy(vdot, sol.RawVector().Data)
	return s.ConfigurationDerivative(), vdot, nil
}

// ConfigurationDerivative maps the current velocity vector to the time
// derivative of the configuration vector via each joint type's
// velocity-to-configuration-rate capability.
func (s *MechanismState) ConfigurationDerivative() []float64 {
	qdot := make([]float64, len(s.q))
	for _, j := range s.mech.Joints() {
		qStart, qEnd := j.ConfigurationRange()
		vStart, vEnd := j.VelocityRange()
		copy(qdot[qStart:qEnd], j.Type().ConfigurationDerivative(s.q[qStart:qEnd], s.v[vStart:vEnd]))
	}
	return qdot
}

// StateVector packs the configuration and velocity into one flat vector,
// [q; v], in the mechanism's fixed joint order. Suitable for handing to a
// numerical ODE integrator together with TimeDerivative.
func (s *MechanismState) StateVector() []float64 {
	out := make([]float64, len(s.q)+len(s.v))
	copy(out, s.q)
	copy(out[len(s.q):], s.v)
	return out
}

// SetStateVector unpacks a flat [q; v] vector produced by StateVector.
func (s *MechanismState) SetStateVector(x []float64) error {
	if len(x) != len(s.q)+len(s.v) {
		return errors.Errorf("state vector has length %d, mechanism expects %d", len(x), len(s.q)+len(s.v))
	}
	copy(s.q, x[:len(s.q)])
	copy(s.v, x[len(s.q):])
	s.invalidate()
	return nil
}

// TimeDerivative is the flat-vector forward-dynamics overload: it returns
// d[q; v]/dt at the current state under the given torques and external
// wrenches.
func (s *MechanismState) TimeDerivative(
	torques []float64,
	external map[*mechanism.Body]spatialmath.Wrench,
) ([]float64, error) {
	qdot, vdot, err := s.Dynamics(torques, external)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(qdot)+len(vdot))
	copy(out, qdot)
	copy(out[len(qdot):], vdot)
	return out, nil
}
