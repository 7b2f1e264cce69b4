package dynamics

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/mechdyn/mechdyn/mechanism"
	"github.com/mechdyn/mechdyn/spatialmath"
)

// GeometricJacobian returns the 6xN matrix mapping the velocity vector to
// the twist of `body` with respect to `base`, expressed in the world frame.
// Rows 0-2 are angular, rows 3-5 linear. Only joints on the tree path
// between the two bodies contribute columns; joints on the base side of the
// path enter negated.
func (s *MechanismState) GeometricJacobian(base, body *mechanism.Body) (*mat.Dense, error) {
	path, err := s.mech.PathBetween(base, body)
	if err != nil {
		return nil, err
	}
	n := s.mech.VelocityDimension()
	if n == 0 {
		return &mat.Dense{}, nil
	}
	s.ensureKinematics()

	jac := mat.NewDense(6, n, nil)
	for _, edge := range path {
		vStart, vEnd := edge.Joint.VelocityRange()
		if vStart == vEnd {
			continue
		}
		for k, col := range s.subspaces[edge.Joint.Index()] {
			setSpatialColumn(jac, vStart+k, col.Angular.Mul(edge.Sign), col.Linear.Mul(edge.Sign))
		}
	}
	return jac, nil
}

// RelativeAcceleration returns the spatial acceleration of `body` relative
// to `base` in the world frame, for the given joint accelerations at the
// current state. Bias (velocity-product) terms are included.
func (s *MechanismState) RelativeAcceleration(
	base, body *mechanism.Body,
	vdot []float64,
) (spatialmath.SpatialAcceleration, error) {
	if err := s.mech.CheckBody(base); err != nil {
		return spatialmath.SpatialAcceleration{}, err
	}
	if err := s.mech.CheckBody(body); err != nil {
		return spatialmath.SpatialAcceleration{}, err
	}
	nv := s.mech.VelocityDimension()
	if vdot == nil {
		vdot = make([]float64, nv)
	} else if len(vdot) != nv {
		return spatialmath.SpatialAcceleration{}, errors.Errorf(
			"joint acceleration has length %d, mechanism expects %d", len(vdot), nv)
	}
	s.ensureKinematics()
	return s.accelerationWrtWorld(body, vdot).Sub(s.accelerationWrtWorld(base, vdot)), nil
}

// accelerationWrtWorld is the body's total spatial acceleration with respect
// to the world (gravity excluded): its bias acceleration plus the joint
// acceleration contributions along its ancestor chain.
func (s *MechanismState) accelerationWrtWorld(b *mechanism.Body, vdot []float64) spatialmath.SpatialAcceleration {
	worldFrame := s.mech.RootFrame()
	a := s.bias[b.Index()]
	for cur := b; !cur.IsRoot(); cur = cur.Parent() {
		j := cur.Joint()
		vStart, _ := j.VelocityRange()
		for k, col := range s.subspaces[j.Index()] {
			vd := vdot[vStart+k]
			if vd != 0 {
				a = a.Add(spatialmath.NewSpatialAcceleration(worldFrame, col.Angular.Mul(vd), col.Linear.Mul(vd)))
			}
		}
	}
	return a
}
