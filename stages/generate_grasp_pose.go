// Package stages contains pipeline stages that generate and connect planning states.
package stages

import (
	"context"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/referenceframe"
	"go.viam.com/rdk/spatialmath"
	"go.viam.com/utils"

	"go.viam.com/graspgen/markers"
	"go.viam.com/graspgen/scene"
	"go.viam.com/graspgen/task"
)

// Property names of GenerateGraspPose.
const (
	PropEndEffector   = "eef"
	PropEEFNamedPose  = "eef_named_pose"
	PropObject        = "object"
	PropToolToGraspTF = "tool_to_grasp_tf"
	PropAngleDelta    = "angle_delta"

	// TargetPoseProperty is the interface state property holding the pose the end-effector link should reach.
	TargetPoseProperty = "target_pose"

	// GraspPoseMarkerNamespace is the namespace of the arrow pointing at each grasp.
	GraspPoseMarkerNamespace = "grasp pose"
	// GraspEEFMarkerNamespace is the namespace of the end-effector drawn at each grasp.
	GraspEEFMarkerNamespace = "grasp eef"

	// DefaultAngleDelta is the default angular step between grasps, in radians.
	DefaultAngleDelta = 0.1

	// arrowScale is the arrow length in mm.
	arrowScale = 100.
)

// GenerateGraspPose spawns candidate end-effector poses around an object. Each call to Compute rotates the
// object's pose about its own z axis by a fixed step and places the end-effector there, until a full turn
// has been covered.
type GenerateGraspPose struct {
	task.Generator

	scene        *scene.Scene
	currentAngle float64
}

// NewGenerateGraspPose returns a stage with all of its properties declared at their defaults.
func NewGenerateGraspPose(name string, logger logging.Logger) *GenerateGraspPose {
	g := &GenerateGraspPose{Generator: task.NewGenerator(name, logger)}
	pm := g.Properties()
	task.Declare(pm, PropEndEffector, "", "name of end-effector")
	task.Declare(pm, PropEEFNamedPose, "", "pose name for end effector")
	task.Declare(pm, PropObject, "", "object on which we generate the grasp poses")
	task.Declare(pm, PropToolToGraspTF, TransformStamped{}, "transform from robot tool frame to grasp frame")
	task.Declare(pm, PropAngleDelta, DefaultAngleDelta, "angular steps (rad)")
	return g
}

// set assigns a property this stage declared itself, so a failure is a programming error.
func (g *GenerateGraspPose) set(name string, value interface{}) {
	if err := g.Properties().Set(name, value); err != nil {
		panic(err)
	}
}

// SetEndEffector sets the end-effector whose parent link is placed at each grasp.
func (g *GenerateGraspPose) SetEndEffector(eef string) {
	g.set(PropEndEffector, eef)
}

// SetGripperGraspPose sets the named group state the end-effector takes while grasping.
func (g *GenerateGraspPose) SetGripperGraspPose(pose string) {
	g.set(PropEEFNamedPose, pose)
}

// SetObject sets the frame grasps are generated around.
func (g *GenerateGraspPose) SetObject(object string) {
	g.set(PropObject, object)
}

// SetToolToGraspTF sets the transform from the tool frame to the grasp frame.
func (g *GenerateGraspPose) SetToolToGraspTF(tf TransformStamped) {
	g.set(PropToolToGraspTF, tf)
}

// SetToolToGraspTransform sets the tool to grasp transform as a pose relative to link.
func (g *GenerateGraspPose) SetToolToGraspTransform(pose spatialmath.Pose, link string) {
	g.SetToolToGraspTF(TransformStamped{FrameID: link, ChildFrameID: GraspFrame, Pose: pose})
}

// SetAngleDelta sets the angular step between grasps in radians.
func (g *GenerateGraspPose) SetAngleDelta(delta float64) {
	g.set(PropAngleDelta, delta)
}

// Configure sets properties from an attribute map.
func (g *GenerateGraspPose) Configure(attrs map[string]interface{}) error {
	return g.Properties().Configure(attrs)
}

// Validate checks that the required properties are set.
func (g *GenerateGraspPose) Validate(path string) error {
	pm := g.Properties()
	var errs error
	for _, name := range []string{PropEndEffector, PropObject} {
		v, err := task.GetProperty[string](pm, name)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if v == "" {
			errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(path, name))
		}
	}
	delta, err := task.GetProperty[float64](pm, PropAngleDelta)
	if err != nil {
		return multierr.Append(errs, err)
	}
	if delta == 0 || math.IsNaN(delta) {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path, errors.Errorf("%s must be a non-zero number", PropAngleDelta)))
	}
	return errs
}

// Init binds the stage to a private diff of s and restarts the sweep.
func (g *GenerateGraspPose) Init(ctx context.Context, s *scene.Scene) error {
	eef, err := task.GetProperty[string](g.Properties(), PropEndEffector)
	if err != nil {
		return err
	}
	model := s.RobotModel()
	if model == nil {
		return scene.ErrNoRobotModel
	}
	if !model.HasEndEffector(eef) {
		return errors.Wrapf(ErrUnknownEndEffector, "%q", eef)
	}
	g.scene = s.Diff()
	g.currentAngle = 0
	return nil
}

// CanCompute reports whether the sweep has angles left.
func (g *GenerateGraspPose) CanCompute() bool {
	return g.currentAngle > -2*math.Pi && g.currentAngle < 2*math.Pi
}

// CurrentAngle returns the angle the next grasp is generated at.
func (g *GenerateGraspPose) CurrentAngle() float64 {
	return g.currentAngle
}

// Compute spawns the grasp at the current angle and advances the angle. It returns false without
// side effects once the sweep is done. The frames are resolved first, so a missing object is
// reported even then.
func (g *GenerateGraspPose) Compute(ctx context.Context) (bool, error) {
	if g.scene == nil {
		return false, task.ErrNotInitialized
	}
	pm := g.Properties()
	eefName, err := task.GetProperty[string](pm, PropEndEffector)
	if err != nil {
		return false, err
	}
	namedPose, err := task.GetProperty[string](pm, PropEEFNamedPose)
	if err != nil {
		return false, err
	}
	objectName, err := task.GetProperty[string](pm, PropObject)
	if err != nil {
		return false, err
	}
	tf, err := task.GetProperty[TransformStamped](pm, PropToolToGraspTF)
	if err != nil {
		return false, err
	}
	delta, err := task.GetProperty[float64](pm, PropAngleDelta)
	if err != nil {
		return false, err
	}

	model := g.scene.RobotModel()
	eef, err := model.EndEffector(eefName)
	if err != nil {
		return false, errors.Wrapf(ErrUnknownEndEffector, "%q", eefName)
	}
	linkName := eef.ParentLink

	state := g.scene.CurrentStateNonConst()
	// the warp of the previous grasp must not move the frames resolved below
	state.ClearLinkOverrides()
	if namedPose != "" {
		if _, err := model.GroupState(eef.Group, namedPose); err != nil {
			return false, errors.Wrapf(ErrUnknownNamedPose, "%q of group %q", namedPose, eef.Group)
		}
		if err := state.SetToDefaultValues(eef.Group, namedPose); err != nil {
			return false, err
		}
	}

	if tf.FrameID == "" {
		tf.FrameID = linkName
	}
	toGrasp := tf.Transform()
	grasp2tool := spatialmath.PoseInverse(toGrasp)
	grasp2link := grasp2tool
	if tf.FrameID != linkName {
		// re-express the offset relative to the link instead of the tool frame
		linkPose := g.scene.FrameTransform(linkName)
		if scene.IsIdentity(linkPose) {
			return false, NewFrameNotFoundError("link", linkName)
		}
		toolPose := g.scene.FrameTransform(tf.FrameID)
		if scene.IsIdentity(toolPose) {
			return false, NewFrameNotFoundError("frame", tf.FrameID)
		}
		toGrasp = spatialmath.Compose(spatialmath.PoseInverse(linkPose), spatialmath.Compose(toolPose, toGrasp))
		grasp2link = spatialmath.PoseInverse(toGrasp)
	}

	objectPose := g.scene.FrameTransform(objectName)
	if scene.IsIdentity(objectPose) {
		return false, NewFrameNotFoundError("object", objectName)
	}

	if !g.CanCompute() {
		return false, nil
	}

	// the angle only advances once the grasp is spawned
	angle := g.currentAngle
	graspPose := spatialmath.Compose(objectPose, spatialmath.NewPoseFromOrientation(&spatialmath.R4AA{Theta: angle, RZ: 1}))
	linkPose := spatialmath.Compose(graspPose, grasp2link)

	is := task.NewInterfaceState(g.scene)
	is.SetProperty(TargetPoseProperty, referenceframe.NewPoseInFrame(linkName, linkPose))

	traj := &task.SubTrajectory{}
	traj.SetCost(0)
	traj.SetName(fmt.Sprintf("%f", angle+delta))
	traj.Comment = fmt.Sprintf("%s about %s at %.3f rad", linkName, objectName, angle)

	arrow := markers.NewMarker(g.scene.PlanningFrame())
	arrow.Namespace = GraspPoseMarkerNamespace
	markers.SetColor(arrow, markers.LimeGreen, 1)
	markers.MakeArrow(arrow, arrowScale)
	// the arrow runs along the grasp's z axis and ends at the grasp
	arrow.Pose = spatialmath.Compose(graspPose, spatialmath.Compose(grasp2tool, spatialmath.Compose(
		spatialmath.NewPoseFromOrientation(&spatialmath.R4AA{Theta: -math.Pi / 2, RY: 1}),
		spatialmath.NewPoseFromPoint(r3.Vector{X: -arrowScale}),
	)))
	traj.AddMarker(arrow)

	if err := state.UpdateStateWithLinkAt(linkName, linkPose); err != nil {
		return false, err
	}
	links, err := model.GroupLinkNames(eef.Group)
	if err != nil {
		return false, err
	}
	err = markers.GenerateVisualMarkers(state, g.scene.PlanningFrame(), func(m *markers.Marker, _ string) {
		m.Namespace = GraspEEFMarkerNamespace
		m.Color.A *= 0.5
		traj.AddMarker(m)
	}, links)
	if err != nil {
		return false, err
	}

	g.Logger().Debugw("generated grasp", "stage", g.Name(), "name", traj.Name, "link", linkName, "point", linkPose.Point())
	if err := g.Spawn(is, traj); err != nil {
		return false, err
	}
	g.currentAngle = angle + delta
	return true, nil
}
