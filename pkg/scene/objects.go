package scene

import (
	"fmt"
	"maps"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

type object struct {
	name      string
	local     Transform
	parent    Parent
	parentInv mgl64.Mat4
	hidden    bool
	tags      map[string]string
}

// AddObject adds an unparented object and returns its name, which is made
// unique across objects and armatures.
func (s *Scene) AddObject(spec ObjectSpec) (string, error) {
	if err := checkName(spec.Name); err != nil {
		return "", err
	}
	name := uniqueName(spec.Name, s.nameTaken)
	local := IdentityTransform()
	local.Location = spec.Location
	s.objects[name] = &object{
		name:      name,
		local:     local,
		parentInv: mgl64.Ident4(),
		hidden:    spec.Hidden,
		tags:      make(map[string]string),
	}
	s.objOrder = append(s.objOrder, name)
	return name, nil
}

// RemoveObject deletes an object. Objects parented to it are unparented and
// keep their world transform.
func (s *Scene) RemoveObject(name string) error {
	if _, ok := s.objects[name]; !ok {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, name)
	}
	if err := s.ensureFresh(); err != nil {
		return err
	}
	for _, o := range s.objectList() {
		if o.parent.Object == name {
			s.clearParentKeepWorld(o)
		}
	}
	delete(s.objects, name)
	s.objOrder = slices.DeleteFunc(s.objOrder, func(n string) bool { return n == name })
	return nil
}

// Objects returns object names in creation order.
func (s *Scene) Objects() []string { return slices.Clone(s.objOrder) }

// Object returns a snapshot of an object.
func (s *Scene) Object(name string) (ObjectInfo, error) {
	o, err := s.object(name)
	if err != nil {
		return ObjectInfo{}, err
	}
	return ObjectInfo{
		Name:          o.name,
		Local:         o.local,
		Parent:        o.parent,
		ParentInverse: o.parentInv,
		Hidden:        o.hidden,
		Tags:          maps.Clone(o.tags),
	}, nil
}

// SetObjectLocation sets an object's local location.
func (s *Scene) SetObjectLocation(name string, loc mgl64.Vec3) error {
	o, err := s.object(name)
	if err != nil {
		return err
	}
	o.local.Location = loc
	return nil
}

// SetObjectTransform sets an object's full local transform.
func (s *Scene) SetObjectTransform(name string, t Transform) error {
	o, err := s.object(name)
	if err != nil {
		return err
	}
	o.local = t
	return nil
}

// SetObjectTag sets a string tag on an object.
func (s *Scene) SetObjectTag(name, key, value string) error {
	o, err := s.object(name)
	if err != nil {
		return err
	}
	o.tags[key] = value
	return nil
}

// ObjectParent returns what an object is parented to and whether it has a
// parent at all.
func (s *Scene) ObjectParent(name string) (Parent, bool) {
	o, ok := s.objects[name]
	if !ok || o.parent.IsZero() {
		return Parent{}, false
	}
	return o.parent, true
}

// ObjectWorldMatrix returns the world matrix of an object:
// parent matrix * parent inverse * local.
func (s *Scene) ObjectWorldMatrix(name string) (mgl64.Mat4, error) {
	if err := s.ensureFresh(); err != nil {
		return mgl64.Mat4{}, err
	}
	o, err := s.object(name)
	if err != nil {
		return mgl64.Mat4{}, err
	}
	return s.objectWorld(o)
}

// ObjectWorldPosition returns the world-space origin of an object.
func (s *Scene) ObjectWorldPosition(name string) (mgl64.Vec3, error) {
	m, err := s.ObjectWorldMatrix(name)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return m.Col(3).Vec3(), nil
}

// Reparent parents an object to the tail of a frame. With a nil correction
// the object keeps its world transform; otherwise its parent inverse matrix
// becomes a translation by correction.
func (s *Scene) Reparent(name, arm, frame string, correction *mgl64.Vec3) error {
	o, err := s.object(name)
	if err != nil {
		return err
	}
	_, f, err := s.frame(arm, frame)
	if err != nil {
		return err
	}
	if err := s.ensureFresh(); err != nil {
		return err
	}
	p := Parent{Armature: arm, Frame: frame}
	if correction != nil {
		o.parent = p
		o.parentInv = mgl64.Translate3D(correction[0], correction[1], correction[2])
		return nil
	}
	world, err := s.objectWorld(o)
	if err != nil {
		return err
	}
	o.parent = p
	o.parentInv = keepWorldInverse(tailMatrix(f), world, o.local)
	return nil
}

// ParentToObject parents child to another object, keeping the child's world
// transform.
func (s *Scene) ParentToObject(child, parent string) error {
	c, err := s.object(child)
	if err != nil {
		return err
	}
	p, err := s.object(parent)
	if err != nil {
		return err
	}
	if err := s.ensureFresh(); err != nil {
		return err
	}
	ancestors, err := s.objectChain(p)
	if err != nil {
		return err
	}
	if slices.Contains(ancestors, c) {
		return fmt.Errorf("%w: %s under %s", ErrParentCycle, child, parent)
	}
	world, err := s.objectWorld(c)
	if err != nil {
		return err
	}
	parentWorld, err := s.objectWorld(p)
	if err != nil {
		return err
	}
	c.parent = Parent{Object: parent}
	c.parentInv = keepWorldInverse(parentWorld, world, c.local)
	return nil
}

// ClearParent unparents an object, keeping its world transform.
func (s *Scene) ClearParent(name string) error {
	o, err := s.object(name)
	if err != nil {
		return err
	}
	if err := s.ensureFresh(); err != nil {
		return err
	}
	s.clearParentKeepWorld(o)
	return nil
}

// SetParent sets an object's parent and parent inverse matrix verbatim.
// It is meant for restoring saved scenes.
func (s *Scene) SetParent(name string, p Parent, inverse mgl64.Mat4) error {
	o, err := s.object(name)
	if err != nil {
		return err
	}
	switch {
	case p.Object != "" && p.Frame != "":
		return fmt.Errorf("object %s: parent names both an object and a frame", name)
	case p.Object != "":
		if _, err := s.object(p.Object); err != nil {
			return err
		}
	case p.Frame != "":
		if _, _, err := s.frame(p.Armature, p.Frame); err != nil {
			return err
		}
	}
	prev := o.parent
	o.parent = p
	if _, err := s.objectChain(o); err != nil {
		o.parent = prev
		return err
	}
	o.parentInv = inverse
	return nil
}

func (s *Scene) object(name string) (*object, error) {
	o, ok := s.objects[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, name)
	}
	return o, nil
}

func (s *Scene) objectList() []*object {
	out := make([]*object, 0, len(s.objOrder))
	for _, n := range s.objOrder {
		out = append(out, s.objects[n])
	}
	return out
}

func (s *Scene) clearParentKeepWorld(o *object) {
	world, err := s.objectWorld(o)
	if err != nil {
		world = o.local.Matrix()
	}
	o.parent = Parent{}
	o.parentInv = keepWorldInverse(mgl64.Ident4(), world, o.local)
}

// objectChain returns o followed by its object ancestors, nearest first.
// A frame parent ends the chain.
func (s *Scene) objectChain(o *object) ([]*object, error) {
	visited := map[string]bool{}
	var chain []*object
	for cur := o; cur != nil; {
		if visited[cur.name] {
			return nil, fmt.Errorf("%w: at %s", ErrParentCycle, cur.name)
		}
		visited[cur.name] = true
		chain = append(chain, cur)
		if cur.parent.Object == "" {
			break
		}
		cur = s.objects[cur.parent.Object]
	}
	return chain, nil
}

// objectWorld composes parent matrix * parent inverse * local up the chain.
// It assumes the scene has been evaluated.
func (s *Scene) objectWorld(o *object) (mgl64.Mat4, error) {
	chain, err := s.objectChain(o)
	if err != nil {
		return mgl64.Mat4{}, err
	}
	m := mgl64.Ident4()
	root := chain[len(chain)-1]
	if p := root.parent; p.Frame != "" {
		if a, ok := s.armatures[p.Armature]; ok {
			if f, ok := a.frames[p.Frame]; ok {
				m = tailMatrix(f)
			}
		}
	}
	for i := len(chain) - 1; i >= 0; i-- {
		m = m.Mul4(chain[i].parentInv).Mul4(chain[i].local.Matrix())
	}
	return m, nil
}

// tailMatrix is the matrix children of a frame are attached to: the frame's
// world matrix moved along its local Y axis by the frame length.
func tailMatrix(f *frame) mgl64.Mat4 {
	length := f.tail.Sub(f.head).Len()
	return f.world.Mul4(mgl64.Translate3D(0, length, 0))
}

// keepWorldInverse returns the parent inverse that keeps world unchanged
// under a parent with matrix parent: parent⁻¹ * world * local⁻¹.
func keepWorldInverse(parent, world mgl64.Mat4, local Transform) mgl64.Mat4 {
	return parent.Inv().Mul4(world).Mul4(local.Matrix().Inv())
}
