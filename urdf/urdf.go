// Package urdf parses Universal Robot Description Format (URDF) files into
// mechanisms. Fixed joints are merged away before the mechanism is built:
// the child link's inertia is folded into its parent and downstream joints
// are re-parented through the composed fixed transform.
package urdf

import (
	"encoding/xml"
	"os"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/mechdyn/mechdyn/mechanism"
	"github.com/mechdyn/mechdyn/spatialmath"
)

// Joint type strings supported in URDF files.
const (
	RevoluteJoint   = "revolute"
	ContinuousJoint = "continuous"
	PrismaticJoint  = "prismatic"
	FixedJoint      = "fixed"
	FloatingJoint   = "floating"
)

// Config represents the supported fields of a URDF robot element.
type Config struct {
	XMLName xml.Name `xml:"robot"`
	Name    string   `xml:"name,attr"`
	Links   []Link   `xml:"link"`
	Joints  []Joint  `xml:"joint"`
}

// Link details the XML of a URDF link element.
type Link struct {
	XMLName  xml.Name  `xml:"link"`
	Name     string    `xml:"name,attr"`
	Inertial *Inertial `xml:"inertial,omitempty"`
}

// Inertial details the XML of a URDF inertial element.
type Inertial struct {
	XMLName xml.Name      `xml:"inertial"`
	Origin  *Pose         `xml:"origin,omitempty"`
	Mass    Mass          `xml:"mass"`
	Inertia InertiaTensor `xml:"inertia"`
}

// Mass is the mass attribute of an inertial element, in kilograms.
type Mass struct {
	Value float64 `xml:"value,attr"`
}

// InertiaTensor is the rotational inertia of an inertial element, about the
// inertial origin, in the inertial frame.
type InertiaTensor struct {
	Ixx float64 `xml:"ixx,attr"`
	Iyy float64 `xml:"iyy,attr"`
	Izz float64 `xml:"izz,attr"`
	Ixy float64 `xml:"ixy,attr"`
	Ixz float64 `xml:"ixz,attr"`
	Iyz float64 `xml:"iyz,attr"`
}

// Pose is a URDF origin element: a translation in meters and a
// roll-pitch-yaw rotation in radians, both space-delimited.
type Pose struct {
	XYZ string `xml:"xyz,attr"`
	RPY string `xml:"rpy,attr"`
}

// Joint details the XML of a URDF joint element.
type Joint struct {
	XMLName xml.Name  `xml:"joint"`
	Name    string    `xml:"name,attr"`
	Type    string    `xml:"type,attr"`
	Parent  LinkRef   `xml:"parent"`
	Child   LinkRef   `xml:"child"`
	Origin  *Pose     `xml:"origin,omitempty"`
	Axis    *AxisAttr `xml:"axis,omitempty"`
}

// LinkRef names the link on one side of a joint.
type LinkRef struct {
	Link string `xml:"link,attr"`
}

// AxisAttr is a joint axis, space-delimited, in the joint frame.
type AxisAttr struct {
	XYZ string `xml:"xyz,attr"`
}

// NewUnsupportedJointTypeError returns an error for a joint type the parser
// does not handle.
func NewUnsupportedJointTypeError(jointType string) error {
	return errors.Errorf("unsupported joint type %q", jointType)
}

// linkRec and jointRec are the working representation between XML parsing
// and mechanism construction; fixed-joint flattening rewrites them in place.
type linkRec struct {
	name    string
	frame   *spatialmath.Frame
	inertia spatialmath.SpatialInertia
}

type jointRec struct {
	name   string
	typ    string
	parent string
	child  string
	rot    quat.Number
	trans  r3.Vector
	axis   r3.Vector
}

// ParseFile reads a URDF file and builds a mechanism with the given gravity
// vector expressed in the root link's frame.
func ParseFile(filename string, gravity r3.Vector) (*mechanism.Mechanism, error) {
	//nolint:gosec
	xmlData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read URDF file")
	}
	return Parse(xmlData, gravity)
}

// Parse builds a mechanism from URDF XML data. Fixed joints are flattened
// away; the root link (the one no joint names as a child) becomes the
// mechanism's root body and any inertia it declares is ignored.
func Parse(xmlData []byte, gravity r3.Vector) (*mechanism.Mechanism, error) {
	cfg := &Config{}
	if err := xml.Unmarshal(xmlData, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse URDF XML")
	}

	links := map[string]*linkRec{}
	for _, le := range cfg.Links {
		rec, err := newLinkRec(le)
		if err != nil {
			return nil, err
		}
		if _, ok := links[le.Name]; ok {
			return nil, errors.Errorf("duplicate link name %q", le.Name)
		}
		links[le.Name] = rec
	}

	joints := make([]*jointRec, 0, len(cfg.Joints))
	var errAll error
	for _, je := range cfg.Joints {
		rec, err := newJointRec(je)
		if err != nil {
			multierr.AppendInto(&errAll, err)
			continue
		}
		if _, ok := links[rec.parent]; !ok {
			multierr.AppendInto(&errAll, errors.Errorf("joint %q references unknown parent link %q", rec.name, rec.parent))
		}
		if _, ok := links[rec.child]; !ok {
			multierr.AppendInto(&errAll, errors.Errorf("joint %q references unknown child link %q", rec.name, rec.child))
		}
		joints = append(joints, rec)
	}
	if errAll != nil {
		return nil, errAll
	}

	rootName, err := findRoot(links, joints)
	if err != nil {
		return nil, err
	}

	joints, err = flattenFixedJoints(links, joints, rootName)
	if err != nil {
		return nil, err
	}

	return build(cfg.Name, rootName, gravity, links, joints)
}

func newLinkRec(le Link) (*linkRec, error) {
	frame := spatialmath.NewFrame(le.Name)
	if le.Inertial == nil {
		return &linkRec{name: le.Name, frame: frame, inertia: spatialmath.NewZeroInertia(frame)}, nil
	}
	rot := quat.Number{Real: 1}
	com := r3.Vector{}
	if le.Inertial.Origin != nil {
		var err error
		rot, com, err = parsePose(le.Inertial.Origin)
		if err != nil {
			return nil, errors.Wrapf(err, "link %q inertial origin", le.Name)
		}
	}

	// Rotate the declared tensor from the inertial frame into the link
	// frame before the parallel-axis shift to the link origin.
	it := le.Inertial.Inertia
	moment := mat.NewSymDense(3, []float64{
		it.Ixx, it.Ixy, it.Ixz,
		it.Ixy, it.Iyy, it.Iyz,
		it.Ixz, it.Iyz, it.Izz,
	})
	inertialFrame := spatialmath.NewFrame(le.Name + "_inertial")
	aligned := spatialmath.NewTransform(inertialFrame, frame, rot, r3.Vector{}).
		TransformInertia(spatialmath.NewSpatialInertia(inertialFrame, 0, r3.Vector{}, moment))

	inertia := spatialmath.NewSpatialInertia(frame, le.Inertial.Mass.Value, com, aligned.Moment)
	return &linkRec{name: le.Name, frame: frame, inertia: inertia}, nil
}

func newJointRec(je Joint) (*jointRec, error) {
	switch je.Type {
	case RevoluteJoint, ContinuousJoint, PrismaticJoint, FixedJoint, FloatingJoint:
	default:
		return nil, NewUnsupportedJointTypeError(je.Type)
	}
	rec := &jointRec{
		name:   je.Name,
		typ:    je.Type,
		parent: je.Parent.Link,
		child:  je.Child.Link,
		rot:    quat.Number{Real: 1},
		axis:   r3.Vector{X: 1},
	}
	if je.Origin != nil {
		var err error
		rec.rot, rec.trans, err = parsePose(je.Origin)
		if err != nil {
			return nil, errors.Wrapf(err, "joint %q origin", je.Name)
		}
	}
	if je.Axis != nil {
		axis, err := parseVector(je.Axis.XYZ)
		if err != nil {
			return nil, errors.Wrapf(err, "joint %q axis", je.Name)
		}
		rec.axis = axis
	}
	return rec, nil
}

// findRoot returns the single link that is not the child of any joint.
func findRoot(links map[string]*linkRec, joints []*jointRec) (string, error) {
	isChild := map[string]bool{}
	for _, j := range joints {
		if isChild[j.child] {
			return "", errors.Errorf("link %q is the child of more than one joint", j.child)
		}
		isChild[j.child] = true
	}
	var roots []string
	for name := range links {
		if !isChild[name] {
			roots = append(roots, name)
		}
	}
	if len(roots) != 1 {
		return "", errors.Errorf("kinematic graph must have exactly one root link, found %d", len(roots))
	}
	return roots[0], nil
}

// flattenFixedJoints merges each fixed joint's child link into its parent:
// the child inertia is transformed into the parent frame and added, and
// joints hanging off the child are re-parented with composed origins.
func flattenFixedJoints(links map[string]*linkRec, joints []*jointRec, rootName string) ([]*jointRec, error) {
	for {
		idx := -1
		for i, j := range joints {
			if j.typ == FixedJoint {
				idx = i
				break
			}
		}
		if idx == -1 {
			return joints, nil
		}
		fixed := joints[idx]
		parent, child := links[fixed.parent], links[fixed.child]
		if child.name == rootName {
			return nil, errors.Errorf("fixed joint %q would merge away the root link", fixed.name)
		}

		toParent := spatialmath.NewTransform(child.frame, parent.frame, fixed.rot, fixed.trans)
		parent.inertia = parent.inertia.Add(toParent.TransformInertia(child.inertia))

		for _, j := range joints {
			if j.parent == child.name {
				j.parent = parent.name
				j.trans = fixed.trans.Add(spatialmath.Rotate(fixed.rot, j.trans))
				j.rot = quat.Mul(fixed.rot, j.rot)
			}
		}
		delete(links, child.name)
		joints = append(joints[:idx], joints[idx+1:]...)
	}
}

// build assembles the mechanism by attaching joints outward from the root.
func build(
	name, rootName string,
	gravity r3.Vector,
	links map[string]*linkRec,
	joints []*jointRec,
) (*mechanism.Mechanism, error) {
	mech := mechanism.NewWithRoot(name, rootName, gravity)

	childrenOf := map[string][]*jointRec{}
	for _, j := range joints {
		childrenOf[j.parent] = append(childrenOf[j.parent], j)
	}

	attached := 0
	queue := []string{rootName}
	for len(queue) > 0 {
		parentName := queue[0]
		queue = queue[1:]
		parentBody, err := mech.FindBody(parentName)
		if err != nil {
			return nil, err
		}
		for _, jr := range childrenOf[parentName] {
			typ, err := jointType(jr)
			if err != nil {
				return nil, err
			}
			joint := mechanism.NewJoint(jr.name, typ)
			child := mechanism.NewBody(jr.child, links[jr.child].inertia)
			toParent := spatialmath.NewTransform(joint.FrameBefore(), parentBody.Frame(), jr.rot, jr.trans)
			if err := mech.Attach(parentBody, joint, toParent, child); err != nil {
				return nil, errors.Wrapf(err, "attaching joint %q", jr.name)
			}
			attached++
			queue = append(queue, jr.child)
		}
	}
	if attached != len(joints) {
		return nil, errors.Errorf("kinematic graph is not a connected tree: %d of %d joints reachable from root %q",
			attached, len(joints), rootName)
	}
	return mech, nil
}

func jointType(jr *jointRec) (mechanism.JointType, error) {
	switch jr.typ {
	case RevoluteJoint, ContinuousJoint:
		return mechanism.NewRevolute(jr.axis), nil
	case PrismaticJoint:
		return mechanism.NewPrismatic(jr.axis), nil
	case FloatingJoint:
		return mechanism.Floating{}, nil
	default:
		return nil, NewUnsupportedJointTypeError(jr.typ)
	}
}

func parsePose(p *Pose) (quat.Number, r3.Vector, error) {
	rot := quat.Number{Real: 1}
	trans := r3.Vector{}
	var err error
	if p.XYZ != "" {
		if trans, err = parseVector(p.XYZ); err != nil {
			return rot, trans, err
		}
	}
	if p.RPY != "" {
		rpy, err := parseVector(p.RPY)
		if err != nil {
			return rot, trans, err
		}
		rot = quatFromRPY(rpy.X, rpy.Y, rpy.Z)
	}
	return rot, trans, nil
}

func parseVector(s string) (r3.Vector, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return r3.Vector{}, errors.Errorf("expected 3 space-delimited values, got %q", s)
	}
	var out [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return r3.Vector{}, errors.Wrapf(err, "parsing %q", s)
		}
		out[i] = v
	}
	return r3.Vector{X: out[0], Y: out[1], Z: out[2]}, nil
}

// quatFromRPY converts URDF fixed-axis roll-pitch-yaw to a quaternion,
// R = Rz(yaw) Ry(pitch) Rx(roll).
func quatFromRPY(roll, pitch, yaw float64) quat.Number {
	qx := spatialmath.QuatFromAxisAngle(r3.Vector{X: 1}, roll)
	qy := spatialmath.QuatFromAxisAngle(r3.Vector{Y: 1}, pitch)
	qz := spatialmath.QuatFromAxisAngle(r3.Vector{Z: 1}, yaw)
	return quat.Mul(qz, quat.Mul(qy, qx))
}
