package dynamics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mechdyn/mechdyn/spatialmath"
)

// MassMatrix assembles the joint-space mass matrix with the composite
// rigid-body algorithm. The matrix is square with dimension equal to the
// mechanism's velocity-coordinate count, indexed by each joint's contiguous
// velocity range; joints with no velocity coordinates contribute nothing.
//
// Writing through SymDense keeps the symmetry exact: each entry is stored
// once and mirrored structurally rather than recomputed for the other
// triangle.
func (s *MechanismState) MassMatrix() *mat.SymDense {
	n := s.mech.VelocityDimension()
	if n == 0 {
		return &mat.SymDense{}
	}
	s.ensureCRB()

	m := mat.NewSymDense(n, nil)
	bodies := s.mech.Bodies()
	for i := 1; i < len(bodies); i++ {
		body := bodies[i]
		j := body.Joint()
		vStart, vEnd := j.VelocityRange()
		nv := vEnd - vStart
		if nv == 0 {
			continue
		}
		cols := s.subspaces[j.Index()]

		// F = crb(i) * S_i, held fixed while walking the ancestor chain.
		crb := s.crb[i]
		f := make([]spatialmath.Momentum, nv)
		for k := 0; k < nv; k++ {
			f[k] = crb.MulTwist(cols[k])
		}

		for a := 0; a < nv; a++ {
			for b := a; b < nv; b++ {
				m.SetSym(vStart+a, vStart+b, f[b].Dot(cols[a]))
			}
		}

		for anc := body.Parent(); !anc.IsRoot(); anc = anc.Parent() {
			ja := anc.Joint()
			aStart, aEnd := ja.VelocityRange()
			na := aEnd - aStart
			if na == 0 {
				continue
			}
			ancCols := s.subspaces[ja.Index()]
			for a := 0; a < na; a++ {
				for b := 0; b < nv; b++ {
					m.SetSym(aStart+a, vStart+b, f[b].Dot(ancCols[a]))
				}
			}
		}
	}
	return m
}
