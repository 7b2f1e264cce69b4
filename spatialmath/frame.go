// Package spatialmath implements the spatial-vector algebra used by rigid-body
// dynamics: reference frames, rigid transforms, twists, wrenches, spatial
// accelerations and spatial inertias, together with the composition operators
// (transform application, spatial cross products, Newton-Euler) the recursive
// dynamics algorithms are built from.
//
// Every spatial quantity carries the frame it is expressed in. Angular and
// linear parts are always taken about the expressing frame's origin.
package spatialmath

import "fmt"

// Frame is a Cartesian coordinate frame. Frames are compared by pointer
// identity; two frames with the same name are still distinct frames.
type Frame struct {
	name string
}

// NewFrame creates a frame with the given name.
func NewFrame(name string) *Frame {
	return &Frame{name: name}
}

// Name returns the name the frame was created with.
func (f *Frame) Name() string {
	if f == nil {
		return "<nil>"
	}
	return f.name
}

// checkFrame panics if two frames that must coincide do not. Frame mismatches
// are programming errors, not runtime conditions, so this follows the gonum
// convention of panicking rather than returning an error from hot-path math.
func checkFrame(got, want *Frame, op string) {
	if got != want {
		panic(fmt.Sprintf("spatialmath: %s: frame mismatch: have %q, want %q", op, got.Name(), want.Name()))
	}
}
