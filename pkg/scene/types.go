package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Sentinel errors for scene operations.
var (
	// ErrArmatureNotFound is returned when an armature name is unknown.
	ErrArmatureNotFound = errors.New("armature not found")

	// ErrFrameNotFound is returned when a frame name is unknown in its armature.
	ErrFrameNotFound = errors.New("frame not found")

	// ErrObjectNotFound is returned when an object name is unknown.
	ErrObjectNotFound = errors.New("object not found")

	// ErrPropertyNotFound is returned when a custom property is missing.
	ErrPropertyNotFound = errors.New("property not found")

	// ErrInvalidChannel is returned for a channel path or index the scene
	// does not know.
	ErrInvalidChannel = errors.New("invalid channel")

	// ErrDependencyCycle is returned by [Scene.Bind] and [Scene.AddCopyLocation]
	// when the new dependency would make a value depend on itself.
	ErrDependencyCycle = errors.New("dependency cycle")

	// ErrParentCycle is returned when parenting an object would make it its
	// own ancestor.
	ErrParentCycle = errors.New("parent cycle")

	// ErrUnsupportedRotation is returned when a driver targets the Euler
	// channels of a frame whose rotation mode is not XYZ.
	ErrUnsupportedRotation = errors.New("unsupported rotation mode")
)

// RotationMode names how a frame's rotation channels are interpreted.
type RotationMode string

const (
	// RotationXYZ is Euler rotation applied X first, then Y, then Z.
	RotationXYZ RotationMode = "XYZ"
	// RotationQuaternion marks a frame rotated by quaternion. Its Euler
	// channels cannot be driven.
	RotationQuaternion RotationMode = "QUATERNION"
)

// Transform is a local location / Euler rotation / scale triple.
type Transform struct {
	Location mgl64.Vec3 `json:"location"`
	Rotation mgl64.Vec3 `json:"rotation_euler"`
	Scale    mgl64.Vec3 `json:"scale"`
}

// IdentityTransform returns a transform at the origin with unit scale.
func IdentityTransform() Transform {
	return Transform{Scale: mgl64.Vec3{1, 1, 1}}
}

// Matrix returns translation * rotation (Z·Y·X) * scale.
func (t Transform) Matrix() mgl64.Mat4 {
	rot := mgl64.HomogRotate3DZ(t.Rotation[2]).
		Mul4(mgl64.HomogRotate3DY(t.Rotation[1])).
		Mul4(mgl64.HomogRotate3DX(t.Rotation[0]))
	return mgl64.Translate3D(t.Location[0], t.Location[1], t.Location[2]).
		Mul4(rot).
		Mul4(mgl64.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

// ChannelPath names an animatable vector of a frame.
type ChannelPath string

const (
	PathLocation  ChannelPath = "location"
	PathRotation  ChannelPath = "rotation_euler"
	PathScale     ChannelPath = "scale"
	PathInfluence ChannelPath = "influence" // Index selects the constraint
)

// Channel addresses one scalar value of a frame.
type Channel struct {
	Frame string      `json:"frame"`
	Path  ChannelPath `json:"path"`
	Index int         `json:"index"`
}

// String renders the channel the way drivers are displayed, e.g.
// "Place.scale[0]".
func (c Channel) String() string {
	return fmt.Sprintf("%s.%s[%d]", c.Frame, c.Path, c.Index)
}

// VarType selects how a driver variable obtains its value.
type VarType string

const (
	// VarSingleProp reads a custom property of the armature (Frame empty)
	// or of a frame.
	VarSingleProp VarType = "SINGLE_PROP"
	// VarTransforms reads one channel of a frame in the given space.
	VarTransforms VarType = "TRANSFORMS"
	// VarLocDiff reads the world-space distance between two frames.
	VarLocDiff VarType = "LOC_DIFF"
)

// Space selects which transform a [VarTransforms] variable reads.
type Space string

const (
	SpaceTransform Space = "TRANSFORM_SPACE"
	SpaceLocal     Space = "LOCAL_SPACE"
	SpaceWorld     Space = "WORLD_SPACE"
)

// Variable is one named input of a driver.
type Variable struct {
	Name  string      `json:"name"`
	Type  VarType     `json:"type"`
	Frame string      `json:"frame,omitempty"`
	Other string      `json:"other,omitempty"` // second frame for LOC_DIFF
	Prop  string      `json:"prop,omitempty"`
	Path  ChannelPath `json:"path,omitempty"`
	Index int         `json:"index,omitempty"`
	Space Space       `json:"space,omitempty"`
}

// PropVar returns a variable reading an armature property.
func PropVar(name, prop string) Variable {
	return Variable{Name: name, Type: VarSingleProp, Prop: prop}
}

// FramePropVar returns a variable reading a frame property.
func FramePropVar(name, frame, prop string) Variable {
	return Variable{Name: name, Type: VarSingleProp, Frame: frame, Prop: prop}
}

// TransformVar returns a variable reading one channel of a frame.
func TransformVar(name, frame string, path ChannelPath, index int, space Space) Variable {
	return Variable{Name: name, Type: VarTransforms, Frame: frame, Path: path, Index: index, Space: space}
}

// DistanceVar returns a variable reading the world distance between two frames.
func DistanceVar(name, a, b string) Variable {
	return Variable{Name: name, Type: VarLocDiff, Frame: a, Other: b, Space: SpaceWorld}
}

// Driver computes Output from Vars with the named formula.
type Driver struct {
	Output  Channel    `json:"output"`
	Vars    []Variable `json:"vars"`
	Formula string     `json:"formula"`
}

// CopyLocation makes a frame follow another frame's local location.
// With UseOffset the target location, weighted by Influence, is added to the
// owner's own; otherwise the owner is blended towards the target.
type CopyLocation struct {
	Target    string  `json:"target"`
	UseOffset bool    `json:"use_offset"`
	Influence float64 `json:"influence"`
}

// FrameSpec describes a frame to create.
type FrameSpec struct {
	Armature string
	Name     string
	Parent   string // empty for a root frame
	Head     mgl64.Vec3
	Tail     mgl64.Vec3
}

// FrameInfo is a read-only snapshot of a frame.
type FrameInfo struct {
	Name         string
	Parent       string
	Head         mgl64.Vec3
	Tail         mgl64.Vec3
	RotationMode RotationMode
	Basis        Transform
	Pose         Transform
	Constraints  []CopyLocation
	Props        map[string]float64
	Tags         map[string]string
}

// Parent describes what an object is parented to. At most one of Object and
// Frame is set; Armature accompanies Frame.
type Parent struct {
	Object   string `json:"object,omitempty"`
	Armature string `json:"armature,omitempty"`
	Frame    string `json:"frame,omitempty"`
}

// IsZero reports whether the parent is unset.
func (p Parent) IsZero() bool { return p == Parent{} }

// ObjectSpec describes an object to add.
type ObjectSpec struct {
	Name     string
	Location mgl64.Vec3
	Hidden   bool
}

// ObjectInfo is a read-only snapshot of an object.
type ObjectInfo struct {
	Name          string
	Local         Transform
	Parent        Parent
	ParentInverse mgl64.Mat4
	Hidden        bool
	Tags          map[string]string
}
