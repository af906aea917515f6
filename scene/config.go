package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/a8m/envsubst"
	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/spatialmath"
	rutils "go.viam.com/rdk/utils"
	"go.viam.com/utils"

	"go.viam.com/graspgen/robotmodel"
)

// PoseConfig is the JSON form of a pose: a translation in mm and an optional orientation.
type PoseConfig struct {
	Translation r3.Vector                      `json:"translation"`
	Orientation *spatialmath.OrientationConfig `json:"orientation,omitempty"`
}

// Pose converts the config into a pose.
func (cfg *PoseConfig) Pose() (spatialmath.Pose, error) {
	if cfg == nil {
		return spatialmath.NewZeroPose(), nil
	}
	if cfg.Orientation == nil {
		return spatialmath.NewPoseFromPoint(cfg.Translation), nil
	}
	o, err := cfg.Orientation.ParseConfig()
	if err != nil {
		return nil, err
	}
	return spatialmath.NewPose(cfg.Translation, o), nil
}

// FrameConfig describes a fixed frame.
type FrameConfig struct {
	Name   string `json:"name"`
	Parent string `json:"parent,omitempty"`
	PoseConfig
}

// ObjectConfig describes an object and its geometries.
type ObjectConfig struct {
	Name       string                       `json:"name"`
	Parent     string                       `json:"parent,omitempty"`
	Geometries []spatialmath.GeometryConfig `json:"geometries,omitempty"`
	PoseConfig
}

// Config is the JSON description of a scene. Frames and objects may refer to frames declared after them.
type Config struct {
	Name           string             `json:"name"`
	RobotPose      *PoseConfig        `json:"robot_pose,omitempty"`
	JointPositions map[string]float64 `json:"joint_positions,omitempty"` // in mm or degs
	Frames         []FrameConfig      `json:"frames,omitempty"`
	Objects        []ObjectConfig     `json:"objects,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	var errs error
	seen := map[string]bool{}
	checkName := func(fieldPath, name string) {
		if name == "" {
			errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(fieldPath, "name"))
			return
		}
		if seen[name] || name == World {
			errs = multierr.Append(errs, utils.NewConfigValidationError(fieldPath, NewFrameExistsError(name)))
		}
		seen[name] = true
	}
	for idx, f := range cfg.Frames {
		checkName(fmt.Sprintf("%s.%s.%d", path, "frames", idx), f.Name)
	}
	for idx, o := range cfg.Objects {
		fieldPath := fmt.Sprintf("%s.%s.%d", path, "objects", idx)
		checkName(fieldPath, o.Name)
		for gIdx, g := range o.Geometries {
			if _, err := g.ParseConfig(); err != nil {
				errs = multierr.Append(errs, utils.NewConfigValidationError(fmt.Sprintf("%s.geometries.%d", fieldPath, gIdx), err))
			}
		}
	}
	return errs
}

// ReadFile reads a scene description from a JSON file, substituting ${VAR} references from the environment.
func ReadFile(filePath string, model *robotmodel.Model, logger logging.Logger) (*Scene, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(bytes.NewReader(buf), model, logger)
}

// FromReader reads a scene description from r and builds the scene around the given robot model.
func FromReader(r io.Reader, model *robotmodel.Model, logger logging.Logger) (*Scene, error) {
	cfg := &Config{}
	if err := json.NewDecoder(r).Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "cannot parse scene config")
	}
	if err := cfg.Validate("scene"); err != nil {
		return nil, err
	}
	s, err := cfg.Build(model)
	if err != nil {
		return nil, err
	}
	logger.Debugw("read scene", "name", s.Name(), "frames", len(cfg.Frames), "objects", len(cfg.Objects))
	return s, nil
}

// Build creates the scene described by the config.
func (cfg *Config) Build(model *robotmodel.Model) (*Scene, error) {
	s := New(cfg.Name, model)
	if state := s.CurrentStateNonConst(); state != nil {
		rootPose, err := cfg.RobotPose.Pose()
		if err != nil {
			return nil, errors.Wrap(err, "robot_pose")
		}
		state.SetRootPose(rootPose)
		values := make(map[string]float64, len(cfg.JointPositions))
		for name, v := range cfg.JointPositions {
			joint, err := model.Joint(name)
			if err != nil {
				return nil, err
			}
			values[name] = joint.FromConfigValue(v)
		}
		if err := state.SetJointPositions(values); err != nil {
			return nil, err
		}
	} else if cfg.RobotPose != nil || len(cfg.JointPositions) > 0 {
		return nil, ErrNoRobotModel
	}

	// entries may be declared before their parents; keep adding until nothing changes
	pending := make([]func() error, 0, len(cfg.Frames)+len(cfg.Objects))
	for _, fc := range cfg.Frames {
		pending = append(pending, func() error {
			pose, err := fc.Pose()
			if err != nil {
				return errors.Wrapf(err, "frame %q", fc.Name)
			}
			parent := fc.Parent
			if parent == "" {
				parent = s.PlanningFrame()
			}
			return s.AddFrame(fc.Name, parent, pose)
		})
	}
	for _, oc := range cfg.Objects {
		pending = append(pending, func() error {
			pose, err := oc.Pose()
			if err != nil {
				return errors.Wrapf(err, "object %q", oc.Name)
			}
			geometries := make([]spatialmath.Geometry, 0, len(oc.Geometries))
			for _, gc := range oc.Geometries {
				if gc.Label == "" {
					gc.Label = oc.Name
				}
				g, err := gc.ParseConfig()
				if err != nil {
					return errors.Wrapf(err, "object %q", oc.Name)
				}
				geometries = append(geometries, g)
			}
			return s.AddObject(&Object{Name: oc.Name, Parent: oc.Parent, Pose: pose, Geometries: geometries})
		})
	}
	for len(pending) > 0 {
		var retry []func() error
		var lastErr error
		for _, add := range pending {
			if err := add(); err != nil {
				retry = append(retry, add)
				lastErr = err
			}
		}
		if len(retry) == len(pending) {
			return nil, lastErr
		}
		pending = retry
	}
	return s, nil
}

// String prints out a table of each frame in the scene, with columns of name, parent, kind, translation and orientation.
func (s *Scene) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Name", "Parent", "Kind", "Translation", "Orientation"})
	t.AppendRow([]interface{}{"0", s.PlanningFrame(), "", "planning frame", "", ""})
	row := 1
	appendRow := func(name, parent, kind string, pose spatialmath.Pose) {
		tra := pose.Point()
		ori := pose.Orientation().EulerAngles()
		t.AppendRow([]interface{}{
			fmt.Sprintf("%d", row),
			name,
			parent,
			kind,
			fmt.Sprintf("X:%.0f, Y:%.0f, Z:%.0f", tra.X, tra.Y, tra.Z),
			fmt.Sprintf(
				"Roll:%.2f, Pitch:%.2f, Yaw:%.2f",
				rutils.RadToDeg(ori.Roll),
				rutils.RadToDeg(ori.Pitch),
				rutils.RadToDeg(ori.Yaw),
			),
		})
		row++
	}
	for _, f := range s.Frames() {
		appendRow(f.Name, f.Parent, "frame", f.Pose)
	}
	for _, o := range s.Objects() {
		appendRow(o.Name, o.Parent, "object", o.Pose)
	}
	if state := s.currentState(); state != nil {
		for _, name := range s.model.LinkNames() {
			pose, err := state.GlobalLinkTransform(name)
			if err != nil {
				continue
			}
			appendRow(name, s.PlanningFrame(), "link", pose)
		}
	}
	return t.Render()
}
