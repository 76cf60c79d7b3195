package rig

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/matzehuels/megamini/pkg/scene"
)

// Host is the scene capability set rigs are built on. *scene.Scene
// implements it.
type Host interface {
	Cursor() mgl64.Vec3

	// Armatures
	NewArmature(name string, location mgl64.Vec3) (string, error)
	RemoveArmature(name string) error
	HasArmature(name string) bool
	Armatures() []string
	SetProperty(arm, frame, key string, v float64) error
	Property(arm, frame, key string) (float64, error)
	SetTag(arm, frame, key, value string) error
	Tag(arm, frame, key string) (string, bool)

	// Frames
	CreateFrame(spec scene.FrameSpec) (string, error)
	RemoveFrame(arm, name string) error
	HasFrame(arm, name string) bool
	Frames(arm string) ([]string, error)
	LocalTransform(arm, frame string) (scene.Transform, error)
	SetLocalTransform(arm, frame string, t scene.Transform) error
	SetRotationMode(arm, frame string, mode scene.RotationMode) error
	PosePosition(arm, frame string) (mgl64.Vec3, error)
	WorldPosition(arm, frame string) (mgl64.Vec3, error)
	Bind(arm string, d scene.Driver) error
	AddCopyLocation(arm, owner string, c scene.CopyLocation) (int, error)
	Evaluate() error

	// Objects
	AddObject(spec scene.ObjectSpec) (string, error)
	RemoveObject(name string) error
	Objects() []string
	Object(name string) (scene.ObjectInfo, error)
	SetObjectTag(name, key, value string) error
	SetObjectLocation(name string, loc mgl64.Vec3) error
	SetObjectTransform(name string, t scene.Transform) error
	ObjectParent(name string) (scene.Parent, bool)
	ObjectWorldPosition(name string) (mgl64.Vec3, error)
	Reparent(object, arm, frame string, correction *mgl64.Vec3) error
	ParentToObject(child, parent string) error
	SetParent(name string, p scene.Parent, inverse mgl64.Mat4) error
}

var _ Host = (*scene.Scene)(nil)
