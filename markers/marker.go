// Package markers builds visualization primitives for debugging planning results: arrows for poses and
// one shape per robot link geometry.
package markers

import (
	"encoding/json"
	"fmt"

	"github.com/golang/geo/r3"
	"go.viam.com/rdk/spatialmath"
)

// Type is the kind of primitive a marker draws.
type Type int

// The supported primitives.
const (
	Arrow Type = iota
	Cube
	Sphere
	Capsule
	// Mesh stands in for a mesh geometry. Its scale is a unit scale factor, not a size.
	Mesh
)

func (t Type) String() string {
	switch t {
	case Arrow:
		return "arrow"
	case Cube:
		return "cube"
	case Sphere:
		return "sphere"
	case Capsule:
		return "capsule"
	case Mesh:
		return "mesh"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Header names the frame a marker's pose is expressed in.
type Header struct {
	FrameID string
}

// Marker is a single visualization primitive. Scale is in mm: length, width and height for arrows and cubes,
// the diameters and length for spheres and capsules.
type Marker struct {
	Header    Header
	Namespace string
	ID        int
	Type      Type
	Pose      spatialmath.Pose
	Scale     r3.Vector
	Color     Color
}

// NewMarker returns a white unit cube at the origin of frameID.
func NewMarker(frameID string) *Marker {
	return &Marker{
		Header: Header{FrameID: frameID},
		Type:   Cube,
		Pose:   spatialmath.NewZeroPose(),
		Scale:  r3.Vector{X: 1, Y: 1, Z: 1},
		Color:  GetColor(White, 1),
	}
}

// MakeArrow turns m into an arrow of length scale pointing along the x axis of its pose.
func MakeArrow(m *Marker, scale float64) {
	m.Type = Arrow
	m.Scale = r3.Vector{X: scale, Y: 0.1 * scale, Z: 0.1 * scale}
}

// MakeCube turns m into a box with the given edge lengths.
func MakeCube(m *Marker, x, y, z float64) {
	m.Type = Cube
	m.Scale = r3.Vector{X: x, Y: y, Z: z}
}

// MakeSphere turns m into a sphere of radius r.
func MakeSphere(m *Marker, r float64) {
	m.Type = Sphere
	m.Scale = r3.Vector{X: 2 * r, Y: 2 * r, Z: 2 * r}
}

// MakeMesh turns m into a mesh placeholder drawn at unit scale.
func MakeMesh(m *Marker) {
	m.Type = Mesh
	m.Scale = r3.Vector{X: 1, Y: 1, Z: 1}
}

// MakeCapsule turns m into a capsule of radius r and total length l along its z axis.
func MakeCapsule(m *Marker, r, l float64) {
	m.Type = Capsule
	m.Scale = r3.Vector{X: 2 * r, Y: 2 * r, Z: l}
}

// ArrowTip returns where an arrow marker points to.
func ArrowTip(m *Marker) r3.Vector {
	return spatialmath.Compose(m.Pose, spatialmath.NewPoseFromPoint(r3.Vector{X: m.Scale.X})).Point()
}

type markerJSON struct {
	FrameID     string                                `json:"frame_id"`
	Namespace   string                                `json:"ns"`
	ID          int                                   `json:"id"`
	Type        string                                `json:"type"`
	Translation r3.Vector                             `json:"translation"`
	Orientation *spatialmath.OrientationVectorDegrees `json:"orientation"`
	Scale       r3.Vector                             `json:"scale"`
	Color       Color                                 `json:"color"`
}

// MarshalJSON encodes the marker with its pose as a translation and orientation vector in degrees.
func (m *Marker) MarshalJSON() ([]byte, error) {
	return json.Marshal(markerJSON{
		FrameID:     m.Header.FrameID,
		Namespace:   m.Namespace,
		ID:          m.ID,
		Type:        m.Type.String(),
		Translation: m.Pose.Point(),
		Orientation: m.Pose.Orientation().OrientationVectorDegrees(),
		Scale:       m.Scale,
		Color:       m.Color,
	})
}
