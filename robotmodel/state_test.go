package robotmodel

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/rdk/spatialmath"
	"go.viam.com/test"
)

func testModel(t *testing.T) *Model {
	t.Helper()
	model, err := ParseModelJSONFile("testdata/two_link_gripper.json", "")
	test.That(t, err, test.ShouldBeNil)
	return model
}

func linkPoint(t *testing.T, s *State, link string) r3.Vector {
	t.Helper()
	pose, err := s.GlobalLinkTransform(link)
	test.That(t, err, test.ShouldBeNil)
	return pose.Point()
}

func TestStateForwardKinematics(t *testing.T) {
	s := NewState(testModel(t))

	test.That(t, spatialmath.R3VectorAlmostEqual(linkPoint(t, s, "base_link"), r3.Vector{}, 1e-9), test.ShouldBeTrue)
	test.That(t, spatialmath.R3VectorAlmostEqual(linkPoint(t, s, "upper_arm"), r3.Vector{Z: 300}, 1e-9), test.ShouldBeTrue)
	test.That(t, spatialmath.R3VectorAlmostEqual(linkPoint(t, s, "tool"), r3.Vector{X: 400, Z: 300}, 1e-9), test.ShouldBeTrue)
	test.That(t, spatialmath.R3VectorAlmostEqual(linkPoint(t, s, "finger_left"), r3.Vector{X: 370, Y: 10, Z: 300}, 1e-9),
		test.ShouldBeTrue)

	test.That(t, s.SetJointPosition("shoulder", math.Pi/2), test.ShouldBeNil)
	test.That(t, spatialmath.R3VectorAlmostEqual(linkPoint(t, s, "tool"), r3.Vector{Y: 400, Z: 300}, 1e-9), test.ShouldBeTrue)

	s.SetRootPose(spatialmath.NewPoseFromPoint(r3.Vector{X: 1000}))
	test.That(t, spatialmath.R3VectorAlmostEqual(linkPoint(t, s, "tool"), r3.Vector{X: 1000, Y: 400, Z: 300}, 1e-9),
		test.ShouldBeTrue)

	_, err := s.GlobalLinkTransform("elbow")
	test.That(t, err, test.ShouldBeError, NewLinkNotFoundError("elbow"))
}

func TestStateJointValues(t *testing.T) {
	s := NewState(testModel(t))

	v, err := s.JointPosition("finger_left_joint")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldEqual, 0.)

	_, err = s.JointPosition("wrist")
	test.That(t, err, test.ShouldBeError, NewJointNotFoundError("wrist"))

	err = s.SetJointPosition("finger_left_joint", 41)
	test.That(t, err, test.ShouldBeError, NewJointLimitError("finger_left_joint", 41, Limit{0, 40}))

	err = s.SetJointPositions(map[string]float64{"finger_left_joint": 10, "finger_right_joint": -1})
	test.That(t, err, test.ShouldNotBeNil)
	v, err = s.JointPosition("finger_left_joint")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldEqual, 0.)

	test.That(t, s.SetToDefaultValues("gripper", "open"), test.ShouldBeNil)
	positions := s.JointPositions()
	test.That(t, positions["finger_left_joint"], test.ShouldEqual, 40.)
	test.That(t, positions["finger_right_joint"], test.ShouldEqual, 40.)
	test.That(t, spatialmath.R3VectorAlmostEqual(linkPoint(t, s, "finger_left"), r3.Vector{X: 370, Y: 50, Z: 300}, 1e-9),
		test.ShouldBeTrue)
	test.That(t, spatialmath.R3VectorAlmostEqual(linkPoint(t, s, "finger_right"), r3.Vector{X: 370, Y: -50, Z: 300}, 1e-9),
		test.ShouldBeTrue)

	err = s.SetToDefaultValues("gripper", "ajar")
	test.That(t, err, test.ShouldBeError, NewGroupStateNotFoundError("gripper", "ajar"))
}

func TestUpdateStateWithLinkAt(t *testing.T) {
	s := NewState(testModel(t))
	test.That(t, s.SetToDefaultValues("gripper", "open"), test.ShouldBeNil)

	target := spatialmath.NewPose(r3.Vector{X: 1000, Y: 200}, &spatialmath.R4AA{Theta: math.Pi / 2, RZ: 1})
	test.That(t, s.UpdateStateWithLinkAt("forearm", target), test.ShouldBeNil)

	forearm, err := s.GlobalLinkTransform("forearm")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseAlmostEqual(forearm, target), test.ShouldBeTrue)
	// descendants follow, with the joint values they already had
	test.That(t, spatialmath.R3VectorAlmostEqual(linkPoint(t, s, "tool"), r3.Vector{X: 1000, Y: 300}, 1e-9), test.ShouldBeTrue)
	test.That(t, spatialmath.R3VectorAlmostEqual(linkPoint(t, s, "finger_left"), r3.Vector{X: 950, Y: 270}, 1e-9),
		test.ShouldBeTrue)
	// links above it do not move
	test.That(t, spatialmath.R3VectorAlmostEqual(linkPoint(t, s, "upper_arm"), r3.Vector{Z: 300}, 1e-9), test.ShouldBeTrue)

	c := s.Copy()
	test.That(t, s.SetJointPosition("elbow", 0), test.ShouldBeNil)
	test.That(t, spatialmath.R3VectorAlmostEqual(linkPoint(t, s, "tool"), r3.Vector{X: 400, Z: 300}, 1e-9), test.ShouldBeTrue)
	test.That(t, spatialmath.R3VectorAlmostEqual(linkPoint(t, c, "tool"), r3.Vector{X: 1000, Y: 300}, 1e-9), test.ShouldBeTrue)

	test.That(t, s.UpdateStateWithLinkAt("elbow", target), test.ShouldBeError, NewLinkNotFoundError("elbow"))
}

func TestLinkGeometry(t *testing.T) {
	s := NewState(testModel(t))

	g, err := s.LinkGeometry("base_link")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g, test.ShouldNotBeNil)
	test.That(t, g.Label(), test.ShouldEqual, "base_link")
	test.That(t, spatialmath.R3VectorAlmostEqual(g.Pose().Point(), r3.Vector{Z: 50}, 1e-9), test.ShouldBeTrue)

	g, err = s.LinkGeometry("forearm")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g, test.ShouldBeNil)

	_, err = s.LinkGeometry("nope")
	test.That(t, err, test.ShouldBeError, NewLinkNotFoundError("nope"))
}
