// Package robotmodel describes the kinematic and semantic structure of a robot: a tree of links and joints,
// the joint groups built from them, the end effectors attached to those groups and any named group states.
// A State holds joint values for a Model and computes where every link ends up.
package robotmodel

import (
	"sort"

	"github.com/golang/geo/r3"
	"go.viam.com/rdk/spatialmath"
)

// World is the name of the frame that root links of a model are placed in.
const World = "world"

// JointType describes how a joint moves its child.
type JointType string

// The supported joint types.
const (
	FixedJoint     JointType = "fixed"
	RevoluteJoint  JointType = "revolute"
	PrismaticJoint JointType = "prismatic"
)

// Limit represents the limits of motion for a joint. Revolute limits are in radians, prismatic limits in mm.
type Limit struct {
	Min float64
	Max float64
}

// Contains returns whether the value lies within the limit.
func (l Limit) Contains(value float64) bool {
	return value >= l.Min && value <= l.Max
}

// Link is a rigid body of the model, offset from its parent by a fixed pose.
type Link struct {
	Name     string
	Parent   string
	Pose     spatialmath.Pose
	Geometry *spatialmath.GeometryConfig
}

// Joint moves everything below it along or about Axis.
type Joint struct {
	Name   string
	Type   JointType
	Parent string
	Axis   r3.Vector
	Limit  Limit
}

// transform returns the motion of the joint at the given value.
func (j *Joint) transform(value float64) spatialmath.Pose {
	switch j.Type {
	case RevoluteJoint:
		return spatialmath.NewPoseFromOrientation(&spatialmath.R4AA{Theta: value, RX: j.Axis.X, RY: j.Axis.Y, RZ: j.Axis.Z})
	case PrismaticJoint:
		return spatialmath.NewPoseFromPoint(j.Axis.Mul(value))
	default:
		return spatialmath.NewZeroPose()
	}
}

// defaultValue is zero, moved into the limits if zero is not reachable.
func (j *Joint) defaultValue() float64 {
	switch {
	case j.Type == FixedJoint:
		return 0
	case 0 < j.Limit.Min:
		return j.Limit.Min
	case 0 > j.Limit.Max:
		return j.Limit.Max
	default:
		return 0
	}
}

// JointGroup is a named set of links and the joints that move them.
type JointGroup struct {
	Name   string
	Links  []string
	Joints []string
}

// EndEffector names a joint group that acts as the robot's tool, and where it attaches to the rest of the robot.
type EndEffector struct {
	Name        string
	Group       string
	ParentLink  string
	ParentGroup string
}

// GroupState is a named preset of joint values for a group.
type GroupState struct {
	Name   string
	Group  string
	Values map[string]float64
}

// Model is an immutable description of a robot. Build one with ParseModelJSONFile or UnmarshalModelJSON.
type Model struct {
	name         string
	links        map[string]*Link
	joints       map[string]*Joint
	parents      map[string]string
	order        []string
	groups       map[string]*JointGroup
	endEffectors map[string]*EndEffector
	groupStates  map[string]map[string]*GroupState
}

// Name returns the name of the model.
func (m *Model) Name() string {
	return m.name
}

// Link returns the link with the given name.
func (m *Model) Link(name string) (*Link, error) {
	link, ok := m.links[name]
	if !ok {
		return nil, NewLinkNotFoundError(name)
	}
	return link, nil
}

// HasLink returns whether the model has a link with that name.
func (m *Model) HasLink(name string) bool {
	_, ok := m.links[name]
	return ok
}

// Joint returns the joint with the given name.
func (m *Model) Joint(name string) (*Joint, error) {
	joint, ok := m.joints[name]
	if !ok {
		return nil, NewJointNotFoundError(name)
	}
	return joint, nil
}

// LinkNames returns the names of all links, parents before children.
func (m *Model) LinkNames() []string {
	names := make([]string, 0, len(m.links))
	for _, name := range m.order {
		if _, ok := m.links[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// JointNames returns the names of all joints, parents before children.
func (m *Model) JointNames() []string {
	names := make([]string, 0, len(m.joints))
	for _, name := range m.order {
		if _, ok := m.joints[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// JointGroup returns the group with the given name.
func (m *Model) JointGroup(name string) (*JointGroup, error) {
	group, ok := m.groups[name]
	if !ok {
		return nil, NewGroupNotFoundError(name)
	}
	return group, nil
}

// GroupLinkNames returns the links of a group, parents before children.
func (m *Model) GroupLinkNames(group string) ([]string, error) {
	g, err := m.JointGroup(group)
	if err != nil {
		return nil, err
	}
	inGroup := map[string]bool{}
	for _, l := range g.Links {
		inGroup[l] = true
	}
	names := make([]string, 0, len(g.Links))
	for _, name := range m.order {
		if inGroup[name] {
			names = append(names, name)
		}
	}
	return names, nil
}

// HasEndEffector returns whether an end effector with this name is defined.
func (m *Model) HasEndEffector(name string) bool {
	_, ok := m.endEffectors[name]
	return ok
}

// EndEffector returns the end effector with the given name.
func (m *Model) EndEffector(name string) (*EndEffector, error) {
	eef, ok := m.endEffectors[name]
	if !ok {
		return nil, NewEndEffectorNotFoundError(name)
	}
	return eef, nil
}

// EndEffectorNames returns the sorted names of all end effectors.
func (m *Model) EndEffectorNames() []string {
	names := make([]string, 0, len(m.endEffectors))
	for name := range m.endEffectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GroupState returns the named state of a group.
func (m *Model) GroupState(group, name string) (*GroupState, error) {
	if _, err := m.JointGroup(group); err != nil {
		return nil, err
	}
	state, ok := m.groupStates[group][name]
	if !ok {
		return nil, NewGroupStateNotFoundError(group, name)
	}
	return state, nil
}

// Parent returns the parent element of a link or joint. Root elements have World as parent.
func (m *Model) Parent(name string) string {
	return m.parents[name]
}

// isAncestor reports whether ancestor lies on the path from name to the root.
func (m *Model) isAncestor(ancestor, name string) bool {
	for p, ok := m.parents[name]; ok; p, ok = m.parents[p] {
		if p == ancestor {
			return true
		}
	}
	return false
}
