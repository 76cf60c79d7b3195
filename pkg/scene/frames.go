package scene

import (
	"fmt"
	"maps"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

// CreateFrame adds a frame to an armature and returns its name, which is
// made unique within the armature with the ".001" suffix convention.
// The new frame has an identity basis and XYZ rotation mode.
func (s *Scene) CreateFrame(spec FrameSpec) (string, error) {
	a, err := s.armature(spec.Armature)
	if err != nil {
		return "", err
	}
	if err := checkName(spec.Name); err != nil {
		return "", err
	}
	if spec.Parent != "" {
		if _, ok := a.frames[spec.Parent]; !ok {
			return "", fmt.Errorf("%w: parent %s/%s", ErrFrameNotFound, a.name, spec.Parent)
		}
	}
	name := uniqueName(spec.Name, func(n string) bool {
		_, ok := a.frames[n]
		return ok
	})
	a.frames[name] = &frame{
		name:   name,
		parent: spec.Parent,
		head:   spec.Head,
		tail:   spec.Tail,
		mode:   RotationXYZ,
		basis:  IdentityTransform(),
		props:  make(map[string]float64),
		tags:   make(map[string]string),
		pose:   IdentityTransform(),
		local:  mgl64.Ident4(),
		world:  mgl64.Ident4(),
	}
	a.order = append(a.order, name)
	s.invalidate()
	return name, nil
}

// RemoveFrame deletes a frame. Its child frames move to its parent, drivers
// writing or reading the frame are dropped, constraints targeting it are
// removed, and objects parented to it are unparented keeping their world
// transform.
func (s *Scene) RemoveFrame(arm, name string) error {
	a, f, err := s.frame(arm, name)
	if err != nil {
		return err
	}
	if err := s.ensureFresh(); err != nil {
		return err
	}
	for _, o := range s.objectList() {
		if o.parent.Armature == a.name && o.parent.Frame == name {
			s.clearParentKeepWorld(o)
		}
	}
	for _, other := range a.frames {
		if other.parent == name {
			other.parent = f.parent
		}
		for i := len(other.constraints) - 1; i >= 0; i-- {
			if other.constraints[i].Target == name {
				a.removeConstraint(other, i)
			}
		}
	}
	a.drivers = slices.DeleteFunc(a.drivers, func(d Driver) bool { return d.references(name) })
	delete(a.frames, name)
	a.order = slices.DeleteFunc(a.order, func(n string) bool { return n == name })
	s.invalidate()
	return nil
}

// HasFrame reports whether an armature holds a frame.
func (s *Scene) HasFrame(arm, name string) bool {
	_, _, err := s.frame(arm, name)
	return err == nil
}

// Frames returns the frame names of an armature in creation order.
func (s *Scene) Frames(arm string) ([]string, error) {
	a, err := s.armature(arm)
	if err != nil {
		return nil, err
	}
	return slices.Clone(a.order), nil
}

// Frame returns an evaluated snapshot of a frame.
func (s *Scene) Frame(arm, name string) (FrameInfo, error) {
	if err := s.ensureFresh(); err != nil {
		return FrameInfo{}, err
	}
	_, f, err := s.frame(arm, name)
	if err != nil {
		return FrameInfo{}, err
	}
	return FrameInfo{
		Name:         f.name,
		Parent:       f.parent,
		Head:         f.head,
		Tail:         f.tail,
		RotationMode: f.mode,
		Basis:        f.basis,
		Pose:         f.pose,
		Constraints:  slices.Clone(f.constraints),
		Props:        maps.Clone(f.props),
		Tags:         maps.Clone(f.tags),
	}, nil
}

// LocalTransform returns the evaluated local transform of a frame: its basis
// with drivers and constraints applied.
func (s *Scene) LocalTransform(arm, name string) (Transform, error) {
	if err := s.ensureFresh(); err != nil {
		return Transform{}, err
	}
	_, f, err := s.frame(arm, name)
	if err != nil {
		return Transform{}, err
	}
	return f.pose, nil
}

// SetLocalTransform writes the basis transform of a frame. Driven channels
// are overwritten again on the next evaluation.
func (s *Scene) SetLocalTransform(arm, name string, t Transform) error {
	_, f, err := s.frame(arm, name)
	if err != nil {
		return err
	}
	f.basis = t
	s.dirty = true
	return nil
}

// SetRotationMode changes how a frame's rotation is interpreted. Switching
// away from XYZ fails while a driver writes one of the Euler channels.
func (s *Scene) SetRotationMode(arm, name string, mode RotationMode) error {
	a, f, err := s.frame(arm, name)
	if err != nil {
		return err
	}
	switch mode {
	case RotationXYZ:
	case RotationQuaternion:
		for _, d := range a.drivers {
			if d.Output.Frame == name && d.Output.Path == PathRotation {
				return fmt.Errorf("%w: %s is driven", ErrUnsupportedRotation, d.Output)
			}
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedRotation, mode)
	}
	f.mode = mode
	return nil
}

// PosePosition returns the evaluated origin of a frame in armature space.
func (s *Scene) PosePosition(arm, name string) (mgl64.Vec3, error) {
	if err := s.ensureFresh(); err != nil {
		return mgl64.Vec3{}, err
	}
	_, f, err := s.frame(arm, name)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return f.local.Col(3).Vec3(), nil
}

// WorldPosition returns the evaluated origin of a frame in scene space.
func (s *Scene) WorldPosition(arm, name string) (mgl64.Vec3, error) {
	if err := s.ensureFresh(); err != nil {
		return mgl64.Vec3{}, err
	}
	_, f, err := s.frame(arm, name)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return f.world.Col(3).Vec3(), nil
}

// AddCopyLocation appends a copy-location constraint to owner and returns
// its index, which addresses the influence channel for drivers.
func (s *Scene) AddCopyLocation(arm, owner string, c CopyLocation) (int, error) {
	a, f, err := s.frame(arm, owner)
	if err != nil {
		return 0, err
	}
	if _, ok := a.frames[c.Target]; !ok {
		return 0, fmt.Errorf("%w: constraint target %s/%s", ErrFrameNotFound, arm, c.Target)
	}
	f.constraints = append(f.constraints, c)
	if _, _, err := s.build(); err != nil {
		f.constraints = f.constraints[:len(f.constraints)-1]
		return 0, err
	}
	s.invalidate()
	return len(f.constraints) - 1, nil
}

// removeConstraint drops constraint i of f together with any driver on its
// influence channel, shifting the influence drivers of later constraints.
func (a *armature) removeConstraint(f *frame, i int) {
	f.constraints = slices.Delete(f.constraints, i, i+1)
	a.drivers = slices.DeleteFunc(a.drivers, func(d Driver) bool {
		return d.Output.Frame == f.name && d.Output.Path == PathInfluence && d.Output.Index == i
	})
	for k := range a.drivers {
		out := &a.drivers[k].Output
		if out.Frame == f.name && out.Path == PathInfluence && out.Index > i {
			out.Index--
		}
	}
}

// references reports whether a driver writes or reads the named frame.
func (d Driver) references(frame string) bool {
	if d.Output.Frame == frame {
		return true
	}
	for _, v := range d.Vars {
		if v.Frame == frame || v.Other == frame {
			return true
		}
	}
	return false
}

// vec returns the vector of t addressed by path, or nil for paths that are
// not part of a transform.
func (t *Transform) vec(path ChannelPath) *mgl64.Vec3 {
	switch path {
	case PathLocation:
		return &t.Location
	case PathRotation:
		return &t.Rotation
	case PathScale:
		return &t.Scale
	}
	return nil
}

// checkChannel validates a channel address against a frame.
func checkChannel(f *frame, path ChannelPath, index int) error {
	switch path {
	case PathLocation, PathRotation, PathScale:
		if index < 0 || index > 2 {
			return fmt.Errorf("%w: %s[%d]", ErrInvalidChannel, path, index)
		}
	case PathInfluence:
		if index < 0 || index >= len(f.constraints) {
			return fmt.Errorf("%w: %s has no constraint %d", ErrInvalidChannel, f.name, index)
		}
	default:
		return fmt.Errorf("%w: unknown path %q", ErrInvalidChannel, path)
	}
	return nil
}
