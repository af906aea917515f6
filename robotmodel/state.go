package robotmodel

import (
	"github.com/pkg/errors"
	"go.viam.com/rdk/spatialmath"
)

// State holds a value for every joint of a Model and computes link poses from them.
// A State is not safe for concurrent use; use Copy to hand one to another goroutine.
type State struct {
	model     *Model
	positions map[string]float64
	rootPose  spatialmath.Pose
	// overrides pin links to a pose regardless of the joints above them.
	overrides map[string]spatialmath.Pose
}

// NewState returns a state with every joint at its default value and the model's root at the origin.
func NewState(m *Model) *State {
	s := &State{
		model:     m,
		positions: make(map[string]float64, len(m.joints)),
		rootPose:  spatialmath.NewZeroPose(),
		overrides: map[string]spatialmath.Pose{},
	}
	for name, joint := range m.joints {
		s.positions[name] = joint.defaultValue()
	}
	return s
}

// Model returns the model this state belongs to.
func (s *State) Model() *Model {
	return s.model
}

// Copy returns an independent copy of the state.
func (s *State) Copy() *State {
	c := &State{
		model:     s.model,
		positions: make(map[string]float64, len(s.positions)),
		rootPose:  s.rootPose,
		overrides: make(map[string]spatialmath.Pose, len(s.overrides)),
	}
	for k, v := range s.positions {
		c.positions[k] = v
	}
	for k, v := range s.overrides {
		c.overrides[k] = v
	}
	return c
}

// RootPose returns the pose of the model's root in the world.
func (s *State) RootPose() spatialmath.Pose {
	return s.rootPose
}

// SetRootPose places the model's root in the world.
func (s *State) SetRootPose(pose spatialmath.Pose) {
	s.rootPose = pose
	s.ClearLinkOverrides()
}

// JointPosition returns the value of a joint.
func (s *State) JointPosition(name string) (float64, error) {
	v, ok := s.positions[name]
	if !ok {
		return 0, NewJointNotFoundError(name)
	}
	return v, nil
}

// JointPositions returns a copy of all joint values.
func (s *State) JointPositions() map[string]float64 {
	out := make(map[string]float64, len(s.positions))
	for k, v := range s.positions {
		out[k] = v
	}
	return out
}

// SetJointPosition sets one joint value, checking it against the joint's limits.
// Link poses are recomputed from the joints afterwards, dropping any link overrides.
func (s *State) SetJointPosition(name string, value float64) error {
	joint, err := s.model.Joint(name)
	if err != nil {
		return err
	}
	if joint.Type != FixedJoint && !joint.Limit.Contains(value) {
		return NewJointLimitError(name, value, joint.Limit)
	}
	s.positions[name] = value
	s.ClearLinkOverrides()
	return nil
}

// SetJointPositions sets several joint values. Nothing is changed if any of them is invalid.
func (s *State) SetJointPositions(values map[string]float64) error {
	for name, value := range values {
		joint, err := s.model.Joint(name)
		if err != nil {
			return err
		}
		if joint.Type != FixedJoint && !joint.Limit.Contains(value) {
			return NewJointLimitError(name, value, joint.Limit)
		}
	}
	for name, value := range values {
		s.positions[name] = value
	}
	s.ClearLinkOverrides()
	return nil
}

// SetToDefaultValues applies the named state of a group.
func (s *State) SetToDefaultValues(group, name string) error {
	gs, err := s.model.GroupState(group, name)
	if err != nil {
		return err
	}
	return s.SetJointPositions(gs.Values)
}

// ClearLinkOverrides drops every pose set by UpdateStateWithLinkAt.
func (s *State) ClearLinkOverrides() {
	if len(s.overrides) > 0 {
		s.overrides = map[string]spatialmath.Pose{}
	}
}

// UpdateStateWithLinkAt places link at pose without touching any joint value. The joint above the link is
// ignored, and all of the link's descendants move with it. Links that are not below it keep their poses.
func (s *State) UpdateStateWithLinkAt(link string, pose spatialmath.Pose) error {
	if !s.model.HasLink(link) {
		return NewLinkNotFoundError(link)
	}
	for name := range s.overrides {
		if s.model.isAncestor(link, name) {
			delete(s.overrides, name)
		}
	}
	s.overrides[link] = pose
	return nil
}

// GlobalLinkTransform returns the pose of a link in the world.
func (s *State) GlobalLinkTransform(link string) (spatialmath.Pose, error) {
	if !s.model.HasLink(link) {
		return nil, NewLinkNotFoundError(link)
	}
	return s.elementPose(link), nil
}

// LinkGeometry returns the geometry of a link placed in the world, or nil if the link has none.
func (s *State) LinkGeometry(link string) (spatialmath.Geometry, error) {
	l, err := s.model.Link(link)
	if err != nil {
		return nil, err
	}
	if l.Geometry == nil {
		return nil, nil
	}
	g, err := l.Geometry.ParseConfig()
	if err != nil {
		return nil, errors.Wrapf(err, "link %q geometry", link)
	}
	return g.Transform(s.elementPose(link)), nil
}

func (s *State) elementPose(name string) spatialmath.Pose {
	if pose, ok := s.overrides[name]; ok {
		return pose
	}
	var local spatialmath.Pose
	if link, ok := s.model.links[name]; ok {
		local = link.Pose
	} else {
		local = s.model.joints[name].transform(s.positions[name])
	}
	parent := s.model.parents[name]
	if parent == World {
		return spatialmath.Compose(s.rootPose, local)
	}
	return spatialmath.Compose(s.elementPose(parent), local)
}
