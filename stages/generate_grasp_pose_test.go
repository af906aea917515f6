package stages

import (
	"context"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/referenceframe"
	"go.viam.com/rdk/spatialmath"
	"go.viam.com/test"

	"go.viam.com/graspgen/markers"
	"go.viam.com/graspgen/robotmodel"
	"go.viam.com/graspgen/scene"
	"go.viam.com/graspgen/task"
)

var bottlePoint = r3.Vector{X: 500, Y: 100, Z: 150}

func testScene(t *testing.T) *scene.Scene {
	t.Helper()
	model, err := robotmodel.ParseModelJSONFile("../robotmodel/testdata/two_link_gripper.json", "")
	test.That(t, err, test.ShouldBeNil)
	s, err := scene.ReadFile("../scene/testdata/table_top.json", model, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return s
}

// newStage returns an initialized stage grasping the bottle with the hand.
func newStage(t *testing.T, s *scene.Scene, configure func(g *GenerateGraspPose)) (*GenerateGraspPose, *task.SolutionCollector) {
	t.Helper()
	g := NewGenerateGraspPose("grasp", logging.NewTestLogger(t))
	g.SetEndEffector("hand")
	g.SetObject("bottle")
	if configure != nil {
		configure(g)
	}
	sink := task.NewSolutionCollector()
	g.Connect(sink)
	test.That(t, g.Init(context.Background(), s), test.ShouldBeNil)
	return g, sink
}

func targetPose(t *testing.T, sol *task.Solution) *referenceframe.PoseInFrame {
	t.Helper()
	pif, ok := task.StateProperty[*referenceframe.PoseInFrame](sol.State, TargetPoseProperty)
	test.That(t, ok, test.ShouldBeTrue)
	return pif
}

func TestCandidateCount(t *testing.T) {
	s := testScene(t)
	for _, delta := range []float64{0.1, 0.5, 1, -0.5, 3} {
		g, sink := newStage(t, s, func(g *GenerateGraspPose) { g.SetAngleDelta(delta) })
		for {
			ok, err := g.Compute(context.Background())
			test.That(t, err, test.ShouldBeNil)
			if !ok {
				break
			}
		}
		test.That(t, sink.Len(), test.ShouldEqual, int(math.Ceil(2*math.Pi/math.Abs(delta))))
		test.That(t, g.CanCompute(), test.ShouldBeFalse)
	}
}

func TestCanCompute(t *testing.T) {
	g, _ := newStage(t, testScene(t), nil)
	for _, tc := range []struct {
		angle    float64
		expected bool
	}{
		{0, true},
		{math.Pi, true},
		{2*math.Pi - 1e-9, true},
		{-2*math.Pi + 1e-9, true},
		{2 * math.Pi, false},
		{-2 * math.Pi, false},
		{7, false},
		{-7, false},
	} {
		g.currentAngle = tc.angle
		test.That(t, g.CanCompute(), test.ShouldEqual, tc.expected)
		test.That(t, g.CanCompute(), test.ShouldEqual, tc.expected)
		test.That(t, g.CurrentAngle(), test.ShouldEqual, tc.angle)
	}
}

func TestQuarterTurns(t *testing.T) {
	g, sink := newStage(t, testScene(t), func(g *GenerateGraspPose) { g.SetAngleDelta(math.Pi / 2) })
	ok, err := g.Compute(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, g.CurrentAngle(), test.ShouldEqual, math.Pi/2)

	sols := sink.Solutions()
	test.That(t, len(sols), test.ShouldEqual, 1)
	test.That(t, sols[0].Stage, test.ShouldEqual, "grasp")
	// the name carries the angle after the step, the pose uses the angle before it
	test.That(t, sols[0].Trajectory.Name, test.ShouldEqual, "1.570796")
	test.That(t, sols[0].Trajectory.Cost, test.ShouldEqual, 0.0)
	test.That(t, sols[0].Trajectory.Comment, test.ShouldEqual, "forearm about bottle at 0.000 rad")

	target := targetPose(t, sols[0])
	test.That(t, target.Parent(), test.ShouldEqual, "forearm")
	test.That(t, spatialmath.PoseAlmostEqual(target.Pose(), spatialmath.NewPoseFromPoint(bottlePoint)), test.ShouldBeTrue)

	ok, err = g.Compute(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	target = targetPose(t, sink.Solutions()[1])
	expected := spatialmath.NewPose(bottlePoint, &spatialmath.R4AA{Theta: math.Pi / 2, RZ: 1})
	test.That(t, spatialmath.PoseAlmostEqual(target.Pose(), expected), test.ShouldBeTrue)
	test.That(t, sink.Solutions()[1].Trajectory.Name, test.ShouldEqual, "3.141593")
}

func TestLinkFrameOffset(t *testing.T) {
	s := testScene(t)
	offset := spatialmath.NewPose(r3.Vector{X: 30, Y: -10, Z: 5}, &spatialmath.R4AA{Theta: math.Pi / 3, RX: 1})

	direct, directSink := newStage(t, s, func(g *GenerateGraspPose) { g.SetToolToGraspTransform(offset, "forearm") })
	implicit, implicitSink := newStage(t, s, func(g *GenerateGraspPose) { g.SetToolToGraspTF(TransformStamped{Pose: offset}) })
	for i := 0; i < 3; i++ {
		_, err := direct.Compute(context.Background())
		test.That(t, err, test.ShouldBeNil)
		_, err = implicit.Compute(context.Background())
		test.That(t, err, test.ShouldBeNil)
	}

	tf, err := task.GetProperty[TransformStamped](direct.Properties(), PropToolToGraspTF)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tf.ChildFrameID, test.ShouldEqual, GraspFrame)

	for i, sol := range directSink.Solutions() {
		angle := float64(i) * DefaultAngleDelta
		grasp := spatialmath.Compose(spatialmath.NewPoseFromPoint(bottlePoint), spatialmath.NewPoseFromOrientation(&spatialmath.R4AA{Theta: angle, RZ: 1}))
		target := targetPose(t, sol).Pose()
		// placing the link at the target puts the grasp frame on the grasp
		test.That(t, spatialmath.PoseAlmostEqual(spatialmath.Compose(target, offset), grasp), test.ShouldBeTrue)
		test.That(t, spatialmath.PoseAlmostEqual(target, targetPose(t, implicitSink.Solutions()[i]).Pose()), test.ShouldBeTrue)
	}
}

func TestToolFrameOffset(t *testing.T) {
	s := testScene(t)
	t.Run("translation", func(t *testing.T) {
		g, sink := newStage(t, s, func(g *GenerateGraspPose) {
			g.SetToolToGraspTransform(spatialmath.NewPoseFromPoint(r3.Vector{X: -20}), "tool")
		})
		_, err := g.Compute(context.Background())
		test.That(t, err, test.ShouldBeNil)
		// the tool is 100mm ahead of the forearm, the grasp 20mm behind the tool
		target := targetPose(t, sink.Solutions()[0]).Pose()
		test.That(t, spatialmath.R3VectorAlmostEqual(target.Point(), r3.Vector{X: 420, Y: 100, Z: 150}, 1e-6), test.ShouldBeTrue)
	})

	t.Run("re-expressed in the link frame", func(t *testing.T) {
		offset := spatialmath.NewPose(r3.Vector{X: -20, Y: 5, Z: 10}, &spatialmath.R4AA{Theta: math.Pi / 4, RZ: 1})
		g, sink := newStage(t, s, func(g *GenerateGraspPose) {
			g.SetToolToGraspTransform(offset, "camera")
			g.SetAngleDelta(1)
		})
		for i := 0; i < 2; i++ {
			_, err := g.Compute(context.Background())
			test.That(t, err, test.ShouldBeNil)
		}
		linkPose := s.FrameTransform("forearm")
		cameraPose := s.FrameTransform("camera")
		grasp2link := spatialmath.PoseInverse(spatialmath.Compose(spatialmath.PoseInverse(linkPose), spatialmath.Compose(cameraPose, offset)))
		for i, sol := range sink.Solutions() {
			grasp := spatialmath.Compose(spatialmath.NewPoseFromPoint(bottlePoint), spatialmath.NewPoseFromOrientation(&spatialmath.R4AA{Theta: float64(i), RZ: 1}))
			expected := spatialmath.Compose(grasp, grasp2link)
			test.That(t, spatialmath.PoseAlmostEqual(targetPose(t, sol).Pose(), expected), test.ShouldBeTrue)
		}
	})
}

func TestMarkers(t *testing.T) {
	g, sink := newStage(t, testScene(t), nil)
	for i := 0; i < 2; i++ {
		_, err := g.Compute(context.Background())
		test.That(t, err, test.ShouldBeNil)
	}
	sols := sink.Solutions()
	for _, sol := range sols {
		ms := sol.Trajectory.Markers
		test.That(t, len(ms), test.ShouldEqual, 4)

		arrow := ms[0]
		test.That(t, arrow.Namespace, test.ShouldEqual, GraspPoseMarkerNamespace)
		test.That(t, arrow.Type, test.ShouldEqual, markers.Arrow)
		test.That(t, arrow.Header.FrameID, test.ShouldEqual, scene.World)
		test.That(t, arrow.Color, test.ShouldResemble, markers.GetColor(markers.LimeGreen, 1))
		// the arrow comes up from below along z and ends at the grasp
		test.That(t, spatialmath.R3VectorAlmostEqual(markers.ArrowTip(arrow), bottlePoint, 1e-6), test.ShouldBeTrue)
		test.That(t, spatialmath.R3VectorAlmostEqual(arrow.Pose.Point(), bottlePoint.Sub(r3.Vector{Z: 100}), 1e-6), test.ShouldBeTrue)

		for i, m := range ms[1:] {
			test.That(t, m.Namespace, test.ShouldEqual, GraspEEFMarkerNamespace)
			test.That(t, m.ID, test.ShouldEqual, i)
			test.That(t, m.Color.A, test.ShouldAlmostEqual, 0.5)
		}
	}
	// the hand box sits 20mm ahead of the forearm, which is warped onto the grasp
	test.That(t, spatialmath.R3VectorAlmostEqual(sols[0].Trajectory.Markers[1].Pose.Point(), r3.Vector{X: 520, Y: 100, Z: 150}, 1e-6), test.ShouldBeTrue)
	rotated := bottlePoint.Add(r3.Vector{X: 20 * math.Cos(DefaultAngleDelta), Y: 20 * math.Sin(DefaultAngleDelta)})
	test.That(t, spatialmath.R3VectorAlmostEqual(sols[1].Trajectory.Markers[1].Pose.Point(), rotated, 1e-6), test.ShouldBeTrue)
}

func TestSceneIsolation(t *testing.T) {
	s := testScene(t)
	g, sink := newStage(t, s, func(g *GenerateGraspPose) { g.SetGripperGraspPose("open") })
	_, err := g.Compute(context.Background())
	test.That(t, err, test.ShouldBeNil)

	snapshot := sink.Solutions()[0].State.Scene
	pos, err := snapshot.CurrentState().JointPosition("finger_left_joint")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pos, test.ShouldEqual, 40.)
	// the state is captured before the end-effector is moved onto the grasp for drawing
	test.That(t, spatialmath.R3VectorAlmostEqual(snapshot.FrameTransform("forearm").Point(), r3.Vector{X: 300, Z: 300}, 1e-6), test.ShouldBeTrue)

	pos, err = s.CurrentState().JointPosition("finger_left_joint")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pos, test.ShouldEqual, 0.)
	test.That(t, spatialmath.R3VectorAlmostEqual(s.FrameTransform("forearm").Point(), r3.Vector{X: 300, Z: 300}, 1e-6), test.ShouldBeTrue)
}

func TestComputeErrors(t *testing.T) {
	s := testScene(t)

	t.Run("missing object", func(t *testing.T) {
		g, sink := newStage(t, s, func(g *GenerateGraspPose) { g.SetObject("ghost") })
		ok, err := g.Compute(context.Background())
		test.That(t, ok, test.ShouldBeFalse)
		test.That(t, errors.Is(err, ErrFrameNotFound), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "ghost")
		test.That(t, g.CurrentAngle(), test.ShouldEqual, 0.)
		test.That(t, sink.Len(), test.ShouldEqual, 0)
	})

	t.Run("missing tool frame", func(t *testing.T) {
		g, sink := newStage(t, s, func(g *GenerateGraspPose) {
			g.SetToolToGraspTransform(spatialmath.NewZeroPose(), "nowhere")
		})
		_, err := g.Compute(context.Background())
		test.That(t, errors.Is(err, ErrFrameNotFound), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "nowhere")
		test.That(t, sink.Len(), test.ShouldEqual, 0)
	})

	t.Run("unknown named pose", func(t *testing.T) {
		g, sink := newStage(t, s, func(g *GenerateGraspPose) { g.SetGripperGraspPose("home") })
		_, err := g.Compute(context.Background())
		test.That(t, errors.Is(err, ErrUnknownNamedPose), test.ShouldBeTrue)
		test.That(t, sink.Len(), test.ShouldEqual, 0)
	})

	t.Run("exhausted", func(t *testing.T) {
		g, sink := newStage(t, s, nil)
		g.currentAngle = 2 * math.Pi
		ok, err := g.Compute(context.Background())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ok, test.ShouldBeFalse)
		test.That(t, g.CurrentAngle(), test.ShouldEqual, 2*math.Pi)
		test.That(t, sink.Len(), test.ShouldEqual, 0)
	})

	t.Run("exhausted with missing object", func(t *testing.T) {
		g, _ := newStage(t, s, func(g *GenerateGraspPose) { g.SetObject("ghost") })
		g.currentAngle = -2 * math.Pi
		ok, err := g.Compute(context.Background())
		test.That(t, ok, test.ShouldBeFalse)
		test.That(t, errors.Is(err, ErrFrameNotFound), test.ShouldBeTrue)
	})

	t.Run("not initialized", func(t *testing.T) {
		g := NewGenerateGraspPose("grasp", logging.NewTestLogger(t))
		_, err := g.Compute(context.Background())
		test.That(t, err, test.ShouldEqual, task.ErrNotInitialized)
	})

	t.Run("no sink", func(t *testing.T) {
		g := NewGenerateGraspPose("grasp", logging.NewTestLogger(t))
		g.SetEndEffector("hand")
		g.SetObject("bottle")
		test.That(t, g.Init(context.Background(), s), test.ShouldBeNil)
		ok, err := g.Compute(context.Background())
		test.That(t, err, test.ShouldEqual, task.ErrNoSink)
		test.That(t, ok, test.ShouldBeFalse)
		// the failed grasp is retried at the same angle
		test.That(t, g.CurrentAngle(), test.ShouldEqual, 0.)

		g.Connect(task.NewSolutionCollector())
		ok, err = g.Compute(context.Background())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, g.CurrentAngle(), test.ShouldAlmostEqual, DefaultAngleDelta)
	})
}

func TestInit(t *testing.T) {
	s := testScene(t)
	g := NewGenerateGraspPose("grasp", logging.NewTestLogger(t))
	g.SetEndEffector("claw")
	err := g.Init(context.Background(), s)
	test.That(t, errors.Is(err, ErrUnknownEndEffector), test.ShouldBeTrue)

	err = g.Init(context.Background(), scene.New("empty", nil))
	test.That(t, err, test.ShouldEqual, scene.ErrNoRobotModel)

	g, _ = newStage(t, s, nil)
	_, err = g.Compute(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.CurrentAngle(), test.ShouldNotEqual, 0.)
	test.That(t, g.Init(context.Background(), s), test.ShouldBeNil)
	test.That(t, g.CurrentAngle(), test.ShouldEqual, 0.)
}

func TestValidate(t *testing.T) {
	g := NewGenerateGraspPose("grasp", logging.NewTestLogger(t))
	err := g.Validate("stage")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "is required")
	test.That(t, err.Error(), test.ShouldContainSubstring, PropEndEffector)
	test.That(t, err.Error(), test.ShouldContainSubstring, PropObject)

	g.SetEndEffector("hand")
	g.SetObject("bottle")
	test.That(t, g.Validate("stage"), test.ShouldBeNil)

	g.SetAngleDelta(0)
	err = g.Validate("stage")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, PropAngleDelta)
}

func TestRunToExhaustion(t *testing.T) {
	logger := logging.NewTestLogger(t)
	g := NewGenerateGraspPose("grasp", logger)
	g.SetEndEffector("hand")
	g.SetObject("bottle")
	g.SetAngleDelta(0.5)
	sink := task.NewSolutionCollector()
	n, err := task.Run(context.Background(), g, testScene(t), sink, 0, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, 13)
	test.That(t, sink.Len(), test.ShouldEqual, 13)
	test.That(t, sink.Solutions()[12].Trajectory.Name, test.ShouldEqual, "6.500000")
}
