package scene

import "github.com/pkg/errors"

// ErrNoRobotModel is returned when an operation needs a robot but the scene was built without one.
var ErrNoRobotModel = errors.New("scene has no robot model")

// NewFrameMissingError returns an error indicating that a frame could not be resolved in the scene.
func NewFrameMissingError(name string) error {
	return errors.Errorf("frame %q does not exist in the scene", name)
}

// NewFrameExistsError returns an error indicating that a frame name is already taken.
func NewFrameExistsError(name string) error {
	return errors.Errorf("frame with name %q already in scene", name)
}

// NewObjectMissingError returns an error indicating that no object of that name is in the scene.
func NewObjectMissingError(name string) error {
	return errors.Errorf("object %q is not in the scene", name)
}
