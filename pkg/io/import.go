package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/matzehuels/megamini/pkg/scene"
)

// ReadJSON decodes a JSON scene from r into a new scene.
//
// Frames are created in document order, then constraints are added and
// drivers bound, so every reference resolves regardless of creation order.
// Objects are added next and parented last with their parent inverse
// matrices restored verbatim.
//
// ReadJSON returns an error if:
//   - The JSON is malformed or has an unknown version
//   - A name collides or a frame's parent is missing
//   - A driver names an unknown formula, frame or property, or forms a cycle
//   - An object parent is missing or forms a cycle
//
// Errors are wrapped with the armature, frame or object that caused them.
// The scene logs through logger; if logger is nil, log.Default() is used.
// ReadJSON does not close r.
func ReadJSON(r io.Reader, logger *log.Logger) (*scene.Scene, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if doc.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported scene version %d (want %d)", doc.Version, FormatVersion)
	}

	s := scene.New(logger)
	s.SetCursor(doc.Cursor)
	for _, a := range doc.Armatures {
		if err := readArmature(s, a); err != nil {
			return nil, fmt.Errorf("armature %s: %w", a.Name, err)
		}
	}
	if err := readObjects(s, doc.Objects); err != nil {
		return nil, err
	}
	if err := s.Evaluate(); err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	return s, nil
}

// ImportJSON reads a JSON scene file at path.
func ImportJSON(path string, logger *log.Logger) (*scene.Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f, logger)
}

func readArmature(s *scene.Scene, a armature) error {
	name, err := s.NewArmature(a.Name, a.Location)
	if err != nil {
		return err
	}
	if name != a.Name {
		return fmt.Errorf("name already taken")
	}
	for k, v := range a.Props {
		if err := s.SetProperty(name, "", k, v); err != nil {
			return err
		}
	}
	for k, v := range a.Tags {
		if err := s.SetTag(name, "", k, v); err != nil {
			return err
		}
	}

	for _, f := range a.Frames {
		if err := readFrame(s, name, f); err != nil {
			return fmt.Errorf("frame %s: %w", f.Name, err)
		}
	}
	for _, f := range a.Frames {
		for _, c := range f.Constraints {
			if _, err := s.AddCopyLocation(name, f.Name, c); err != nil {
				return fmt.Errorf("frame %s: %w", f.Name, err)
			}
		}
	}
	for _, d := range a.Drivers {
		if err := s.Bind(name, d); err != nil {
			return fmt.Errorf("driver %s: %w", d.Output, err)
		}
	}
	return nil
}

func readFrame(s *scene.Scene, arm string, f frame) error {
	name, err := s.CreateFrame(scene.FrameSpec{
		Armature: arm,
		Name:     f.Name,
		Parent:   f.Parent,
		Head:     f.Head,
		Tail:     f.Tail,
	})
	if err != nil {
		return err
	}
	if name != f.Name {
		return fmt.Errorf("name already taken")
	}
	if f.RotationMode != "" {
		if err := s.SetRotationMode(arm, name, f.RotationMode); err != nil {
			return err
		}
	}
	if err := s.SetLocalTransform(arm, name, f.Basis); err != nil {
		return err
	}
	for k, v := range f.Props {
		if err := s.SetProperty(arm, name, k, v); err != nil {
			return err
		}
	}
	for k, v := range f.Tags {
		if err := s.SetTag(arm, name, k, v); err != nil {
			return err
		}
	}
	return nil
}

func readObjects(s *scene.Scene, objects []object) error {
	for _, o := range objects {
		name, err := s.AddObject(scene.ObjectSpec{Name: o.Name, Hidden: o.Hidden})
		if err != nil {
			return fmt.Errorf("object %s: %w", o.Name, err)
		}
		if name != o.Name {
			return fmt.Errorf("object %s: name already taken", o.Name)
		}
		if err := s.SetObjectTransform(name, o.Local); err != nil {
			return err
		}
		for k, v := range o.Tags {
			if err := s.SetObjectTag(name, k, v); err != nil {
				return err
			}
		}
	}
	for _, o := range objects {
		if o.Parent == nil && o.ParentInverse == nil {
			continue
		}
		var p scene.Parent
		if o.Parent != nil {
			p = *o.Parent
		}
		inv := mgl64.Ident4()
		if o.ParentInverse != nil {
			inv = *o.ParentInverse
		}
		if err := s.SetParent(o.Name, p, inv); err != nil {
			return fmt.Errorf("object %s: %w", o.Name, err)
		}
	}
	return nil
}
