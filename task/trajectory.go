package task

import (
	"go.viam.com/graspgen/markers"
)

// SubTrajectory is the piece of robot motion a stage contributes to a solution. Generators produce
// trajectories without motion, which only carry a name, a cost and debug markers.
type SubTrajectory struct {
	Name    string
	Cost    float64
	Comment string
	Markers []*markers.Marker
}

// SetCost sets the cost of the trajectory.
func (st *SubTrajectory) SetCost(cost float64) {
	st.Cost = cost
}

// SetName sets the name of the trajectory.
func (st *SubTrajectory) SetName(name string) {
	st.Name = name
}

// AddMarker appends a marker, assigning it the next id in its namespace.
func (st *SubTrajectory) AddMarker(m *markers.Marker) {
	id := 0
	for _, other := range st.Markers {
		if other.Namespace == m.Namespace {
			id++
		}
	}
	m.ID = id
	st.Markers = append(st.Markers, m)
}
