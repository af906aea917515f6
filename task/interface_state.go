package task

import (
	"go.viam.com/graspgen/scene"
)

// InterfaceState is the state passed between stages: a snapshot of the planning scene together with
// properties describing it, such as the pose the robot should reach.
type InterfaceState struct {
	Scene      *scene.Scene
	Properties map[string]interface{}
}

// NewInterfaceState returns a state holding a snapshot of s. Later edits to s are not seen by the state.
func NewInterfaceState(s *scene.Scene) *InterfaceState {
	return &InterfaceState{
		Scene:      s.Clone(),
		Properties: map[string]interface{}{},
	}
}

// SetProperty stores a property on the state.
func (is *InterfaceState) SetProperty(name string, value interface{}) {
	is.Properties[name] = value
}

// StateProperty returns a property of the state as a T. ok is false if it is missing or of another type.
func StateProperty[T any](is *InterfaceState, name string) (T, bool) {
	v, ok := is.Properties[name].(T)
	return v, ok
}
