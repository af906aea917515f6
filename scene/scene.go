// Package scene holds the planning scene: the world frames and objects around a robot, the robot's model and
// its current state. Scenes are layered. Diff returns a child scene whose edits stay local to it while lookups
// fall through to the parent, so a stage can own a scratch copy of a shared scene without copying it.
package scene

import (
	"sort"

	"github.com/golang/geo/r3"
	"go.viam.com/rdk/referenceframe"
	"go.viam.com/rdk/spatialmath"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/graspgen/robotmodel"
)

// World is the default planning frame.
const World = referenceframe.World

// Frame is a named pose fixed relative to a parent frame.
type Frame struct {
	Name   string
	Parent string
	Pose   spatialmath.Pose
}

// Object is a body in the world. Its geometries are expressed in the object's own frame.
// Every object is also a frame that others can be defined relative to.
type Object struct {
	Name       string
	Parent     string
	Pose       spatialmath.Pose
	Geometries []spatialmath.Geometry
}

// Scene is one layer of a planning scene. A scene must not be modified once diffs have been taken from it.
type Scene struct {
	name          string
	planningFrame string
	parent        *Scene

	frames  map[string]*Frame
	objects map[string]*Object
	removed map[string]bool

	model *robotmodel.Model
	// nil means the state of the parent is current.
	state *robotmodel.State
}

// New returns an empty scene around a robot. model may be nil for a scene without a robot.
func New(name string, model *robotmodel.Model) *Scene {
	s := &Scene{
		name:          name,
		planningFrame: World,
		frames:        map[string]*Frame{},
		objects:       map[string]*Object{},
		removed:       map[string]bool{},
		model:         model,
	}
	if model != nil {
		s.state = robotmodel.NewState(model)
	}
	return s
}

// Name returns the name of the scene.
func (s *Scene) Name() string {
	return s.name
}

// PlanningFrame returns the frame all world poses are expressed in.
func (s *Scene) PlanningFrame() string {
	return s.planningFrame
}

// RobotModel returns the model of the robot in the scene.
func (s *Scene) RobotModel() *robotmodel.Model {
	return s.model
}

// Parent returns the scene this one was diffed from, or nil.
func (s *Scene) Parent() *Scene {
	return s.parent
}

// Diff returns a new scene layered on top of this one. Edits to the diff never reach s.
func (s *Scene) Diff() *Scene {
	return &Scene{
		name:          s.name,
		planningFrame: s.planningFrame,
		parent:        s,
		frames:        map[string]*Frame{},
		objects:       map[string]*Object{},
		removed:       map[string]bool{},
		model:         s.model,
	}
}

// Clone returns a copy of this layer sharing the same parent. Later edits to either scene do not affect the other.
func (s *Scene) Clone() *Scene {
	c := &Scene{
		name:          s.name,
		planningFrame: s.planningFrame,
		parent:        s.parent,
		frames:        make(map[string]*Frame, len(s.frames)),
		objects:       make(map[string]*Object, len(s.objects)),
		removed:       make(map[string]bool, len(s.removed)),
		model:         s.model,
	}
	for k, v := range s.frames {
		f := *v
		c.frames[k] = &f
	}
	for k, v := range s.objects {
		o := *v
		o.Geometries = append([]spatialmath.Geometry(nil), v.Geometries...)
		c.objects[k] = &o
	}
	for k, v := range s.removed {
		c.removed[k] = v
	}
	if s.state != nil {
		c.state = s.state.Copy()
	}
	return c
}

func (s *Scene) currentState() *robotmodel.State {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.state != nil {
			return sc.state
		}
	}
	return nil
}

// CurrentState returns a copy of the robot state, or nil if there is no robot.
func (s *Scene) CurrentState() *robotmodel.State {
	state := s.currentState()
	if state == nil {
		return nil
	}
	return state.Copy()
}

// CurrentStateNonConst returns the robot state of this layer for modification, copying it from the parent the
// first time. Returns nil if there is no robot.
func (s *Scene) CurrentStateNonConst() *robotmodel.State {
	if s.state == nil {
		state := s.currentState()
		if state == nil {
			return nil
		}
		s.state = state.Copy()
	}
	return s.state
}

// lookup finds a world frame or object by name.
func (s *Scene) lookup(name string) (string, spatialmath.Pose, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.removed[name] {
			return "", nil, false
		}
		if o, ok := sc.objects[name]; ok {
			return o.Parent, o.Pose, true
		}
		if f, ok := sc.frames[name]; ok {
			return f.Parent, f.Pose, true
		}
	}
	return "", nil, false
}

func (s *Scene) isRobotLink(name string) bool {
	return s.model != nil && s.model.HasLink(name)
}

// FrameSystem returns the frames, objects and robot links visible from this layer as static frames of a
// frame system rooted at the planning frame. Robot links sit directly under the planning frame at their
// current global poses. Entries whose parent chain never reaches the planning frame are left out.
func (s *Scene) FrameSystem() *referenceframe.FrameSystem {
	fs := referenceframe.NewEmptyFrameSystem(s.name)
	pending := map[string]*Frame{}
	for _, f := range s.Frames() {
		pending[f.Name] = f
	}
	for _, o := range s.Objects() {
		pending[o.Name] = &Frame{Name: o.Name, Parent: o.Parent, Pose: o.Pose}
	}
	if state := s.currentState(); state != nil {
		for _, link := range s.model.LinkNames() {
			pose, err := state.GlobalLinkTransform(link)
			if err != nil {
				continue
			}
			pending[link] = &Frame{Name: link, Parent: s.planningFrame, Pose: pose}
		}
	}

	// parents have to be in the frame system before their children
	for added := true; added; {
		added = false
		for name, f := range pending {
			parent := fs.Frame(f.Parent)
			if parent == nil {
				continue
			}
			delete(pending, name)
			frame, err := referenceframe.NewStaticFrame(f.Name, f.Pose)
			if err != nil {
				continue
			}
			if err := fs.AddFrame(frame, parent); err != nil {
				continue
			}
			added = true
		}
	}
	return fs
}

// KnowsFrame returns whether name is the planning frame, a world frame, an object or a robot link.
func (s *Scene) KnowsFrame(name string) bool {
	return s.FrameSystem().Frame(name) != nil
}

// FrameTransform returns the pose of a frame in the planning frame. Frames that cannot be resolved
// give the identity pose, which callers treat as "not found".
func (s *Scene) FrameTransform(name string) spatialmath.Pose {
	pose, err := transformPose(s.FrameSystem(), referenceframe.NewPoseInFrame(name, spatialmath.NewZeroPose()), s.planningFrame)
	if err != nil {
		return spatialmath.NewZeroPose()
	}
	return pose.Pose()
}

// TransformPose re-expresses a stamped pose in the frame dst.
func (s *Scene) TransformPose(pif *referenceframe.PoseInFrame, dst string) (*referenceframe.PoseInFrame, error) {
	return transformPose(s.FrameSystem(), pif, dst)
}

func transformPose(fs *referenceframe.FrameSystem, pif *referenceframe.PoseInFrame, dst string) (*referenceframe.PoseInFrame, error) {
	for _, name := range []string{pif.Parent(), dst} {
		if fs.Frame(name) == nil {
			return nil, NewFrameMissingError(name)
		}
	}
	if pif.Parent() == dst {
		return pif, nil
	}
	tf, err := fs.Transform(referenceframe.FrameSystemInputs{}, pif, dst)
	if err != nil {
		return nil, err
	}
	return tf.(*referenceframe.PoseInFrame), nil
}

// IsIdentity reports whether a pose is exactly the identity transform.
func IsIdentity(pose spatialmath.Pose) bool {
	if pose.Point() != (r3.Vector{}) {
		return false
	}
	q := pose.Orientation().Quaternion()
	return q == quat.Number{Real: 1} || q == quat.Number{Real: -1}
}

// AddFrame adds a fixed frame to this layer of the scene.
func (s *Scene) AddFrame(name, parent string, pose spatialmath.Pose) error {
	if err := s.checkNewFrame(name, parent); err != nil {
		return err
	}
	delete(s.removed, name)
	s.frames[name] = &Frame{Name: name, Parent: parent, Pose: pose}
	return nil
}

// AddObject adds an object to this layer of the scene. An empty parent means the planning frame.
func (s *Scene) AddObject(obj *Object) error {
	if obj.Parent == "" {
		obj.Parent = s.planningFrame
	}
	if obj.Pose == nil {
		obj.Pose = spatialmath.NewZeroPose()
	}
	if err := s.checkNewFrame(obj.Name, obj.Parent); err != nil {
		return err
	}
	delete(s.removed, obj.Name)
	s.objects[obj.Name] = obj
	return nil
}

func (s *Scene) checkNewFrame(name, parent string) error {
	if name == s.planningFrame || s.isRobotLink(name) {
		return NewFrameExistsError(name)
	}
	if _, _, ok := s.lookup(name); ok {
		return NewFrameExistsError(name)
	}
	if !s.KnowsFrame(parent) {
		return NewFrameMissingError(parent)
	}
	return nil
}

// MoveObject changes the pose of an object relative to its parent. The change is local to this layer.
func (s *Scene) MoveObject(name string, pose spatialmath.Pose) error {
	obj, err := s.Object(name)
	if err != nil {
		return err
	}
	moved := *obj
	moved.Pose = pose
	s.objects[name] = &moved
	return nil
}

// RemoveObject removes an object from this layer's view of the scene.
func (s *Scene) RemoveObject(name string) error {
	if _, err := s.Object(name); err != nil {
		return err
	}
	delete(s.objects, name)
	if s.parent != nil {
		s.removed[name] = true
	}
	return nil
}

// Object returns the object with the given name.
func (s *Scene) Object(name string) (*Object, error) {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.removed[name] {
			break
		}
		if o, ok := sc.objects[name]; ok {
			return o, nil
		}
		if _, ok := sc.frames[name]; ok {
			break
		}
	}
	return nil, NewObjectMissingError(name)
}

// layers returns the scene layers from the root down to s.
func (s *Scene) layers() []*Scene {
	var out []*Scene
	for sc := s; sc != nil; sc = sc.parent {
		out = append([]*Scene{sc}, out...)
	}
	return out
}

// Frames returns every world frame in the scene, objects excluded, sorted by name.
func (s *Scene) Frames() []*Frame {
	frames := map[string]*Frame{}
	for _, layer := range s.layers() {
		for name := range layer.removed {
			delete(frames, name)
		}
		for name, f := range layer.frames {
			frames[name] = f
		}
	}
	out := make([]*Frame, 0, len(frames))
	for _, f := range frames {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Objects returns every object in the scene sorted by name.
func (s *Scene) Objects() []*Object {
	objects := map[string]*Object{}
	for _, layer := range s.layers() {
		for name := range layer.removed {
			delete(objects, name)
		}
		for name, o := range layer.objects {
			objects[name] = o
		}
	}
	out := make([]*Object, 0, len(objects))
	for _, o := range objects {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ObjectNames returns the sorted names of all objects in the scene.
func (s *Scene) ObjectNames() []string {
	objects := s.Objects()
	names := make([]string, 0, len(objects))
	for _, o := range objects {
		names = append(names, o.Name)
	}
	return names
}

// FrameNames returns the sorted names of every frame the scene can resolve, including objects and robot links.
func (s *Scene) FrameNames() []string {
	names := []string{s.planningFrame}
	for _, f := range s.Frames() {
		names = append(names, f.Name)
	}
	names = append(names, s.ObjectNames()...)
	if s.model != nil {
		names = append(names, s.model.LinkNames()...)
	}
	sort.Strings(names)
	return names
}
