package robotmodel

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/rdk/spatialmath"
	"go.viam.com/rdk/utils"
)

// ModelConfigJSON represents all supported fields in a robot description JSON file.
type ModelConfigJSON struct {
	Name         string              `json:"name"`
	Links        []LinkConfig        `json:"links,omitempty"`
	Joints       []JointConfig       `json:"joints,omitempty"`
	Groups       []GroupConfig       `json:"groups,omitempty"`
	EndEffectors []EndEffectorConfig `json:"end_effectors,omitempty"`
	GroupStates  []GroupStateConfig  `json:"group_states,omitempty"`
}

// LinkConfig describes a link fixed relative to its parent.
type LinkConfig struct {
	ID          string                         `json:"id"`
	Parent      string                         `json:"parent,omitempty"`
	Translation r3.Vector                      `json:"translation"`
	Orientation *spatialmath.OrientationConfig `json:"orientation,omitempty"`
	Geometry    *spatialmath.GeometryConfig    `json:"geometry,omitempty"`
}

// JointConfig describes a joint. Limits and axis are given in degrees for revolute joints and mm for prismatic ones.
type JointConfig struct {
	ID     string    `json:"id"`
	Type   string    `json:"type"`
	Parent string    `json:"parent"`
	Axis   r3.Vector `json:"axis"`
	Max    float64   `json:"max"` // in mm or degs
	Min    float64   `json:"min"` // in mm or degs
}

// GroupConfig lists the members of a joint group.
type GroupConfig struct {
	Name   string   `json:"name"`
	Links  []string `json:"links"`
	Joints []string `json:"joints,omitempty"`
}

// EndEffectorConfig declares a group as an end effector attached to parent_link.
type EndEffectorConfig struct {
	Name        string `json:"name"`
	Group       string `json:"group"`
	ParentLink  string `json:"parent_link"`
	ParentGroup string `json:"parent_group,omitempty"`
}

// GroupStateConfig is a named set of joint values (mm or degs) for a group.
type GroupStateConfig struct {
	Name   string             `json:"name"`
	Group  string             `json:"group"`
	Joints map[string]float64 `json:"joints"`
}

// UnmarshalModelJSON will parse the given JSON data into a model. modelName sets the name of the model,
// will use the name from the JSON if string is empty.
func UnmarshalModelJSON(jsonData []byte, modelName string) (*Model, error) {
	// empty data probably means that the robot has no model information
	if len(jsonData) == 0 {
		return nil, ErrNoModelInformation
	}
	m := &ModelConfigJSON{}
	if err := json.Unmarshal(jsonData, m); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal json file")
	}
	return m.ParseConfig(modelName)
}

// ParseModelJSONFile will read a given file and then parse the contained JSON data.
func ParseModelJSONFile(filename, modelName string) (*Model, error) {
	//nolint:gosec
	jsonData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read json file")
	}
	return UnmarshalModelJSON(jsonData, modelName)
}

// ParseConfig converts the ModelConfigJSON struct into a full Model with the name modelName.
func (cfg *ModelConfigJSON) ParseConfig(modelName string) (*Model, error) {
	if modelName == "" {
		modelName = cfg.Name
	}
	model := &Model{
		name:         modelName,
		links:        map[string]*Link{},
		joints:       map[string]*Joint{},
		parents:      map[string]string{},
		groups:       map[string]*JointGroup{},
		endEffectors: map[string]*EndEffector{},
		groupStates:  map[string]map[string]*GroupState{},
	}

	for _, lc := range cfg.Links {
		if lc.ID == World {
			return nil, NewReservedWordError("link", World)
		}
		if _, ok := model.parents[lc.ID]; ok {
			return nil, NewDuplicateNameError(lc.ID)
		}
		link, err := lc.parse()
		if err != nil {
			return nil, err
		}
		model.links[link.Name] = link
		model.parents[link.Name] = link.Parent
	}
	for _, jc := range cfg.Joints {
		if jc.ID == World {
			return nil, NewReservedWordError("joint", World)
		}
		if _, ok := model.parents[jc.ID]; ok {
			return nil, NewDuplicateNameError(jc.ID)
		}
		joint, err := jc.parse()
		if err != nil {
			return nil, err
		}
		model.joints[joint.Name] = joint
		model.parents[joint.Name] = joint.Parent
	}

	order, err := sortElements(model.parents)
	if err != nil {
		return nil, err
	}
	model.order = order

	if err := model.parseSemantics(cfg); err != nil {
		return nil, err
	}
	return model, nil
}

func (lc *LinkConfig) parse() (*Link, error) {
	pose := spatialmath.NewPoseFromPoint(lc.Translation)
	if lc.Orientation != nil {
		o, err := lc.Orientation.ParseConfig()
		if err != nil {
			return nil, errors.Wrapf(err, "link %q", lc.ID)
		}
		pose = spatialmath.NewPose(lc.Translation, o)
	}
	if lc.Geometry != nil {
		if lc.Geometry.Label == "" {
			lc.Geometry.Label = lc.ID
		}
		if _, err := lc.Geometry.ParseConfig(); err != nil {
			return nil, errors.Wrapf(err, "link %q geometry", lc.ID)
		}
	}
	parent := lc.Parent
	if parent == "" {
		parent = World
	}
	return &Link{Name: lc.ID, Parent: parent, Pose: pose, Geometry: lc.Geometry}, nil
}

func (jc *JointConfig) parse() (*Joint, error) {
	joint := &Joint{Name: jc.ID, Type: JointType(jc.Type), Parent: jc.Parent}
	if joint.Parent == "" {
		joint.Parent = World
	}
	if jc.Min > jc.Max {
		return nil, errors.Errorf("joint %q has min %v greater than max %v", jc.ID, jc.Min, jc.Max)
	}
	switch joint.Type {
	case FixedJoint:
		return joint, nil
	case RevoluteJoint:
		joint.Limit = Limit{Min: utils.DegToRad(jc.Min), Max: utils.DegToRad(jc.Max)}
	case PrismaticJoint:
		joint.Limit = Limit{Min: jc.Min, Max: jc.Max}
	default:
		return nil, NewUnsupportedJointTypeError(jc.Type)
	}
	if jc.Axis.Norm() == 0 {
		return nil, errors.Errorf("joint %q needs a non-zero axis", jc.ID)
	}
	joint.Axis = jc.Axis.Normalize()
	return joint, nil
}

// FromConfigValue converts a configured joint value (mm or degs) to the unit used by State (mm or rads).
func (j *Joint) FromConfigValue(value float64) float64 {
	if j.Type == RevoluteJoint {
		return utils.DegToRad(value)
	}
	return value
}

func (m *Model) parseSemantics(cfg *ModelConfigJSON) error {
	for _, gc := range cfg.Groups {
		if _, ok := m.groups[gc.Name]; ok {
			return errors.Errorf("more than one group is named %q", gc.Name)
		}
		for _, l := range gc.Links {
			if !m.HasLink(l) {
				return errors.Wrapf(NewLinkNotFoundError(l), "group %q", gc.Name)
			}
		}
		for _, j := range gc.Joints {
			if _, err := m.Joint(j); err != nil {
				return errors.Wrapf(err, "group %q", gc.Name)
			}
		}
		m.groups[gc.Name] = &JointGroup{Name: gc.Name, Links: gc.Links, Joints: gc.Joints}
		m.groupStates[gc.Name] = map[string]*GroupState{}
	}

	for _, ec := range cfg.EndEffectors {
		if _, ok := m.endEffectors[ec.Name]; ok {
			return errors.Errorf("more than one end effector is named %q", ec.Name)
		}
		if _, err := m.JointGroup(ec.Group); err != nil {
			return errors.Wrapf(err, "end effector %q", ec.Name)
		}
		if !m.HasLink(ec.ParentLink) {
			return errors.Wrapf(NewLinkNotFoundError(ec.ParentLink), "end effector %q", ec.Name)
		}
		if ec.ParentGroup != "" {
			if _, err := m.JointGroup(ec.ParentGroup); err != nil {
				return errors.Wrapf(err, "end effector %q", ec.Name)
			}
		}
		m.endEffectors[ec.Name] = &EndEffector{
			Name:        ec.Name,
			Group:       ec.Group,
			ParentLink:  ec.ParentLink,
			ParentGroup: ec.ParentGroup,
		}
	}

	for _, sc := range cfg.GroupStates {
		group, err := m.JointGroup(sc.Group)
		if err != nil {
			return errors.Wrapf(err, "group state %q", sc.Name)
		}
		members := map[string]bool{}
		for _, j := range group.Joints {
			members[j] = true
		}
		values := make(map[string]float64, len(sc.Joints))
		for name, value := range sc.Joints {
			if !members[name] {
				return errors.Errorf("group state %q sets joint %q which is not in group %q", sc.Name, name, sc.Group)
			}
			joint := m.joints[name]
			v := joint.FromConfigValue(value)
			if !joint.Limit.Contains(v) {
				return errors.Wrapf(NewJointLimitError(name, value, joint.Limit), "group state %q", sc.Name)
			}
			values[name] = v
		}
		m.groupStates[sc.Group][sc.Name] = &GroupState{Name: sc.Name, Group: sc.Group, Values: values}
	}
	return nil
}

// sortElements orders links and joints so that every element comes after its parent.
func sortElements(parents map[string]string) ([]string, error) {
	for child, parent := range parents {
		if parent == World {
			continue
		}
		if _, ok := parents[parent]; !ok {
			return nil, NewParentNotInModelError(child, parent)
		}
	}

	names := make([]string, 0, len(parents))
	for name := range parents {
		names = append(names, name)
	}
	// deterministic order for siblings
	sort.Strings(names)

	const (
		visiting = iota + 1
		done
	)
	marks := map[string]int{}
	ordered := make([]string, 0, len(parents))
	var visit func(name string) error
	visit = func(name string) error {
		switch marks[name] {
		case done:
			return nil
		case visiting:
			return ErrCircularReference
		}
		marks[name] = visiting
		if parent := parents[name]; parent != World {
			if err := visit(parent); err != nil {
				return err
			}
		}
		marks[name] = done
		ordered = append(ordered, name)
		return nil
	}
	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}
