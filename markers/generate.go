package markers

import (
	"go.viam.com/rdk/spatialmath"

	"go.viam.com/graspgen/robotmodel"
)

// LinkMarkerNamespace is the namespace given to markers made by GenerateVisualMarkers.
const LinkMarkerNamespace = "robot"

// pointRadius is the radius in mm of the sphere drawn for a point geometry.
const pointRadius = 1.

// meshType is the geometry config type for meshes; go.viam.com/rdk v0.96.0 spatialmath defines no such constant.
const meshType = spatialmath.GeometryType("mesh")

// MarkerCallback receives each link marker. It may restyle the marker before storing it.
type MarkerCallback func(m *Marker, linkName string)

// GenerateVisualMarkers creates one marker for each of the given links that has a geometry, placed where the
// state puts the link and expressed in frameID, and hands it to cb. Points are drawn as small spheres and meshes
// as Mesh placeholders. Links without a geometry, or with a geometry type that is not known, are skipped.
func GenerateVisualMarkers(state *robotmodel.State, frameID string, cb MarkerCallback, linkNames []string) error {
	model := state.Model()
	for _, name := range linkNames {
		link, err := model.Link(name)
		if err != nil {
			return err
		}
		if link.Geometry == nil {
			continue
		}
		g, err := state.LinkGeometry(name)
		if err != nil {
			return err
		}
		m := NewMarker(frameID)
		m.Namespace = LinkMarkerNamespace
		m.Color = GetColor(Grey, 1)
		m.Pose = g.Pose()
		if !shapeFromConfig(m, link.Geometry) {
			continue
		}
		cb(m, name)
	}
	return nil
}

// shapeFromConfig sets the marker primitive from a geometry config. It returns false for geometries
// that cannot be drawn.
func shapeFromConfig(m *Marker, cfg *spatialmath.GeometryConfig) bool {
	switch cfg.Type {
	case spatialmath.BoxType:
		MakeCube(m, cfg.X, cfg.Y, cfg.Z)
	case spatialmath.SphereType:
		MakeSphere(m, cfg.R)
	case spatialmath.CapsuleType:
		MakeCapsule(m, cfg.R, cfg.L)
	case spatialmath.PointType:
		MakeSphere(m, pointRadius)
	case meshType:
		MakeMesh(m)
	case "":
		// mirror the inference spatialmath does for untyped configs
		switch {
		case cfg.X != 0 || cfg.Y != 0 || cfg.Z != 0:
			MakeCube(m, cfg.X, cfg.Y, cfg.Z)
		case cfg.L != 0:
			MakeCapsule(m, cfg.R, cfg.L)
		case cfg.R != 0:
			MakeSphere(m, cfg.R)
		default:
			return false
		}
	default:
		return false
	}
	return true
}
