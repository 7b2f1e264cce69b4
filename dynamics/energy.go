package dynamics

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/mechdyn/mechdyn/spatialmath"
)

// KineticEnergy is the total kinetic energy of the mechanism at the current
// state, summed directly from each body's twist and world-frame inertia.
func (s *MechanismState) KineticEnergy() float64 {
	s.ensureKinematics()
	total := 0.0
	for i := 1; i < len(s.mech.Bodies()); i++ {
		total += s.inertias[i].KineticEnergy(s.twists[i])
	}
	return total
}

// PotentialEnergy is the total gravitational potential energy at the current
// state, zero at the root frame origin.
func (s *MechanismState) PotentialEnergy() float64 {
	s.ensureKinematics()
	total := r3.Vector{}
	for i := 1; i < len(s.mech.Bodies()); i++ {
		total = total.Add(s.inertias[i].CrossPart)
	}
	return -s.mech.Gravity().Dot(total)
}

// CenterOfMass returns the mechanism's center of mass in the root frame.
func (s *MechanismState) CenterOfMass() (r3.Vector, error) {
	s.ensureKinematics()
	mass := 0.0
	weighted := r3.Vector{}
	for i := 1; i < len(s.mech.Bodies()); i++ {
		mass += s.inertias[i].Mass
		weighted = weighted.Add(s.inertias[i].CrossPart)
	}
	if mass == 0 {
		return r3.Vector{}, errors.New("mechanism has no mass")
	}
	return weighted.Mul(1 / mass), nil
}

// Momentum is the total spatial momentum of the mechanism in the world
// frame.
func (s *MechanismState) Momentum() spatialmath.Momentum {
	s.ensureKinematics()
	h := spatialmath.NewMomentum(s.mech.RootFrame(), r3.Vector{}, r3.Vector{})
	for i := 1; i < len(s.mech.Bodies()); i++ {
		h = h.Add(s.inertias[i].MulTwist(s.twists[i]))
	}
	return h
}

// MomentumMatrix returns the 6xN matrix mapping the velocity vector to the
// mechanism's total spatial momentum in the world frame. Rows 0-2 are the
// angular part, rows 3-5 the linear part. Column blocks reuse the composite
// inertias, A[:, j] = crb(body j) * S_j.
func (s *MechanismState) MomentumMatrix() *mat.Dense {
	n := s.mech.VelocityDimension()
	if n == 0 {
		return &mat.Dense{}
	}
	s.ensureCRB()

	a := mat.NewDense(6, n, nil)
	bodies := s.mech.Bodies()
	for i := 1; i < len(bodies); i++ {
		j := bodies[i].Joint()
		vStart, vEnd := j.VelocityRange()
		if vStart == vEnd {
			continue
		}
		for k, col := range s.subspaces[j.Index()] {
			h := s.crb[i].MulTwist(col)
			setSpatialColumn(a, vStart+k, h.Angular, h.Linear)
		}
	}
	return a
}

func setSpatialColumn(m *mat.Dense, col int, angular, linear r3.Vector) {
	m.Set(0, col, angular.X)
	m.Set(1, col, angular.Y)
	m.Set(2, col, angular.Z)
	m.Set(3, col, linear.X)
	m.Set(4, col, linear.Y)
	m.Set(5, col, linear.Z)
}
