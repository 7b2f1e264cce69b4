package mechanism

import "github.com/pkg/errors"

// NewBodyNotFoundError returns an error for a body name absent from a
// mechanism.
func NewBodyNotFoundError(name string) error {
	return errors.Errorf("no body with name %q in mechanism", name)
}

// NewJointNotFoundError returns an error for a joint name absent from a
// mechanism.
func NewJointNotFoundError(name string) error {
	return errors.Errorf("no joint with name %q in mechanism", name)
}

// NewUnknownBodyError returns an error for a body that does not belong to
// the mechanism being queried.
func NewUnknownBodyError(name string) error {
	return errors.Errorf("body %q does not belong to this mechanism", name)
}

// NewUnknownJointError returns an error for a joint that does not belong to
// the mechanism being queried.
func NewUnknownJointError(name string) error {
	return errors.Errorf("joint %q does not belong to this mechanism", name)
}

// NewUnknownFrameError returns an error for a frame with no associated body
// in the mechanism being queried.
func NewUnknownFrameError(name string) error {
	return errors.Errorf("frame %q does not belong to this mechanism", name)
}
