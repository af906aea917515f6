package stages

import (
	"encoding/json"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/rdk/spatialmath"
)

// GraspFrame is the child frame name used by SetToolToGraspTransform.
const GraspFrame = "grasp_frame"

// TransformStamped is a pose of a child frame expressed in a named parent frame.
type TransformStamped struct {
	FrameID      string
	ChildFrameID string
	Pose         spatialmath.Pose
}

type transformStampedJSON struct {
	FrameID      string                         `json:"frame_id"`
	ChildFrameID string                         `json:"child_frame_id,omitempty"`
	Translation  r3.Vector                      `json:"translation"`
	Orientation  *spatialmath.OrientationConfig `json:"orientation,omitempty"`
}

// Transform returns the pose, or the identity if none was set.
func (ts TransformStamped) Transform() spatialmath.Pose {
	if ts.Pose == nil {
		return spatialmath.NewZeroPose()
	}
	return ts.Pose
}

// MarshalJSON writes the transform as a translation in mm and an orientation config.
func (ts TransformStamped) MarshalJSON() ([]byte, error) {
	pose := ts.Transform()
	orientation, err := spatialmath.NewOrientationConfig(pose.Orientation())
	if err != nil {
		return nil, err
	}
	return json.Marshal(transformStampedJSON{
		FrameID:      ts.FrameID,
		ChildFrameID: ts.ChildFrameID,
		Translation:  pose.Point(),
		Orientation:  orientation,
	})
}

// UnmarshalJSON reads a transform written by MarshalJSON. A missing orientation means no rotation.
func (ts *TransformStamped) UnmarshalJSON(data []byte) error {
	var raw transformStampedJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var orientation spatialmath.Orientation = spatialmath.NewZeroOrientation()
	if raw.Orientation != nil {
		o, err := raw.Orientation.ParseConfig()
		if err != nil {
			return errors.Wrap(err, "cannot parse transform orientation")
		}
		orientation = o
	}
	ts.FrameID = raw.FrameID
	ts.ChildFrameID = raw.ChildFrameID
	ts.Pose = spatialmath.NewPose(raw.Translation, orientation)
	return nil
}
