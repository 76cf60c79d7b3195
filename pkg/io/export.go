package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/matzehuels/megamini/pkg/scene"
)

// FormatVersion is the scene document version written by [WriteJSON].
const FormatVersion = 1

type document struct {
	Version   int        `json:"version"`
	Cursor    mgl64.Vec3 `json:"cursor"`
	Armatures []armature `json:"armatures"`
	Objects   []object   `json:"objects"`
}

type armature struct {
	Name     string             `json:"name"`
	Location mgl64.Vec3         `json:"location"`
	Props    map[string]float64 `json:"props,omitempty"`
	Tags     map[string]string  `json:"tags,omitempty"`
	Frames   []frame            `json:"frames"`
	Drivers  []scene.Driver     `json:"drivers,omitempty"`
}

type frame struct {
	Name         string               `json:"name"`
	Parent       string               `json:"parent,omitempty"`
	Head         mgl64.Vec3           `json:"head"`
	Tail         mgl64.Vec3           `json:"tail"`
	RotationMode scene.RotationMode   `json:"rotation_mode"`
	Basis        scene.Transform      `json:"basis"`
	Constraints  []scene.CopyLocation `json:"constraints,omitempty"`
	Props        map[string]float64   `json:"props,omitempty"`
	Tags         map[string]string    `json:"tags,omitempty"`
}

type object struct {
	Name          string            `json:"name"`
	Local         scene.Transform   `json:"local"`
	Hidden        bool              `json:"hidden,omitempty"`
	Parent        *scene.Parent     `json:"parent,omitempty"`
	ParentInverse *mgl64.Mat4       `json:"parent_inverse,omitempty"`
	Tags          map[string]string `json:"tags,omitempty"`
}

// WriteJSON encodes a scene as JSON and writes it to w.
// Armatures, frames and objects keep their creation order, so the output can
// be re-imported with [ReadJSON] and exported again byte for byte.
func WriteJSON(s *scene.Scene, w io.Writer) error {
	doc, err := encode(s)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes a scene to a JSON file at path.
func ExportJSON(s *scene.Scene, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(s, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encode(s *scene.Scene) (document, error) {
	if err := s.Evaluate(); err != nil {
		return document{}, fmt.Errorf("evaluate: %w", err)
	}
	doc := document{
		Version:   FormatVersion,
		Cursor:    s.Cursor(),
		Armatures: []armature{},
		Objects:   []object{},
	}

	for _, name := range s.Armatures() {
		info, err := s.Armature(name)
		if err != nil {
			return document{}, err
		}
		a := armature{Name: name, Location: info.Location, Props: info.Props, Tags: info.Tags, Frames: []frame{}}
		names, err := s.Frames(name)
		if err != nil {
			return document{}, err
		}
		for _, fn := range names {
			fi, err := s.Frame(name, fn)
			if err != nil {
				return document{}, fmt.Errorf("armature %s: %w", name, err)
			}
			a.Frames = append(a.Frames, frame{
				Name:         fi.Name,
				Parent:       fi.Parent,
				Head:         fi.Head,
				Tail:         fi.Tail,
				RotationMode: fi.RotationMode,
				Basis:        fi.Basis,
				Constraints:  fi.Constraints,
				Props:        fi.Props,
				Tags:         fi.Tags,
			})
		}
		if a.Drivers, err = s.Drivers(name); err != nil {
			return document{}, err
		}
		doc.Armatures = append(doc.Armatures, a)
	}

	for _, name := range s.Objects() {
		info, err := s.Object(name)
		if err != nil {
			return document{}, err
		}
		o := object{Name: name, Local: info.Local, Hidden: info.Hidden, Tags: info.Tags}
		if !info.Parent.IsZero() {
			p := info.Parent
			o.Parent = &p
		}
		if inv := info.ParentInverse; inv != mgl64.Ident4() {
			o.ParentInverse = &inv
		}
		doc.Objects = append(doc.Objects, o)
	}
	return doc, nil
}
