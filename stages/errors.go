package stages

import "github.com/pkg/errors"

var (
	// ErrUnknownEndEffector is returned when the configured end-effector is not part of the robot model.
	ErrUnknownEndEffector = errors.New("end effector is not defined in the robot model")
	// ErrUnknownNamedPose is returned when the configured named pose is not a state of the end-effector group.
	ErrUnknownNamedPose = errors.New("named pose is not defined for the end effector group")
	// ErrFrameNotFound is returned when a frame needed to place the grasp cannot be resolved in the scene.
	ErrFrameNotFound = errors.New("frame does not exist or could not be retrieved")
)

// NewFrameNotFoundError returns an ErrFrameNotFound naming the frame and what it was needed for.
func NewFrameNotFoundError(role, name string) error {
	return errors.Wrapf(ErrFrameNotFound, "requested %s %q", role, name)
}
