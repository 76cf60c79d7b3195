package scene

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/matzehuels/megamini/pkg/expr"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

const (
	testCopy    = "scene_test.copy"
	testInverse = "scene_test.inverse"
	testSum     = "scene_test.sum"
)

func init() {
	expr.MustRegister(testCopy, func(v expr.Vars) float64 { return v["value"] })
	expr.MustRegister(testInverse, func(v expr.Vars) float64 { return 1 / v["value"] })
	expr.MustRegister(testSum, func(v expr.Vars) float64 {
		total := 0.0
		for _, x := range v {
			total += x
		}
		return total
	})
}

func newTestScene(t *testing.T) *Scene {
	t.Helper()
	return New(log.New(io.Discard))
}

func mustArmature(t *testing.T, s *Scene, name string, loc mgl64.Vec3) string {
	t.Helper()
	got, err := s.NewArmature(name, loc)
	if err != nil {
		t.Fatalf("NewArmature(%q): %v", name, err)
	}
	return got
}

func mustFrame(t *testing.T, s *Scene, spec FrameSpec) string {
	t.Helper()
	got, err := s.CreateFrame(spec)
	if err != nil {
		t.Fatalf("CreateFrame(%q): %v", spec.Name, err)
	}
	return got
}

func mustBind(t *testing.T, s *Scene, arm string, d Driver) {
	t.Helper()
	if err := s.Bind(arm, d); err != nil {
		t.Fatalf("Bind(%s): %v", d.Output, err)
	}
}

func TestNewArmature_UniqueNames(t *testing.T) {
	s := newTestScene(t)
	first := mustArmature(t, s, "Rig", mgl64.Vec3{})
	second := mustArmature(t, s, "Rig", mgl64.Vec3{})
	if first != "Rig" || second != "Rig.001" {
		t.Errorf("names = %q, %q; want Rig, Rig.001", first, second)
	}

	obj, err := s.AddObject(ObjectSpec{Name: "Rig"})
	if err != nil {
		t.Fatal(err)
	}
	if obj != "Rig.002" {
		t.Errorf("object name = %q, want Rig.002 (armatures and objects share names)", obj)
	}
}

func TestNewArmature_InvalidName(t *testing.T) {
	s := newTestScene(t)
	for _, name := range []string{"", "a/b", "a#b"} {
		if _, err := s.NewArmature(name, mgl64.Vec3{}); !errors.Is(err, ErrInvalidName) {
			t.Errorf("NewArmature(%q) error = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestCreateFrame_UniqueNames(t *testing.T) {
	s := newTestScene(t)
	arm := mustArmature(t, s, "Rig", mgl64.Vec3{})

	tests := []struct {
		name string
		want string
	}{
		{"Place", "Place"},
		{"Place", "Place.001"},
		{"Place", "Place.002"},
		{"Place.001", "Place.003"},
		{"Other", "Other"},
	}
	for _, tt := range tests {
		if got := mustFrame(t, s, FrameSpec{Armature: arm, Name: tt.name}); got != tt.want {
			t.Errorf("CreateFrame(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
	if got := s.FrameCount(); got != len(tests) {
		t.Errorf("FrameCount() = %d, want %d", got, len(tests))
	}
}

func TestCreateFrame_Errors(t *testing.T) {
	s := newTestScene(t)
	arm := mustArmature(t, s, "Rig", mgl64.Vec3{})

	if _, err := s.CreateFrame(FrameSpec{Armature: "Nope", Name: "A"}); !errors.Is(err, ErrArmatureNotFound) {
		t.Errorf("unknown armature: err = %v", err)
	}
	if _, err := s.CreateFrame(FrameSpec{Armature: arm, Name: "A", Parent: "Missing"}); !errors.Is(err, ErrFrameNotFound) {
		t.Errorf("unknown parent: err = %v", err)
	}
	if s.FrameCount() != 0 {
		t.Errorf("failed creations left %d frames", s.FrameCount())
	}
}

func TestWorldComposition(t *testing.T) {
	s := newTestScene(t)
	arm := mustArmature(t, s, "Rig", mgl64.Vec3{1, 0, 0})
	root := mustFrame(t, s, FrameSpec{Armature: arm, Name: "Root", Tail: mgl64.Vec3{0, 1, 0}})
	child := mustFrame(t, s, FrameSpec{Armature: arm, Name: "Child", Parent: root, Tail: mgl64.Vec3{0, 1, 0}})

	rt := IdentityTransform()
	rt.Location = mgl64.Vec3{0, 2, 0}
	rt.Rotation = mgl64.Vec3{0, 0, math.Pi / 2}
	if err := s.SetLocalTransform(arm, root, rt); err != nil {
		t.Fatal(err)
	}
	ct := IdentityTransform()
	ct.Location = mgl64.Vec3{1, 0, 0}
	if err := s.SetLocalTransform(arm, child, ct); err != nil {
		t.Fatal(err)
	}

	// Root rotates the child's X offset onto +Y.
	pose, err := s.PosePosition(arm, child)
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(pose, mgl64.Vec3{0, 3, 0}, approx) {
		t.Errorf("PosePosition = %v, want [0 3 0]", pose)
	}
	world, err := s.WorldPosition(arm, child)
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(world, mgl64.Vec3{1, 3, 0}, approx) {
		t.Errorf("WorldPosition = %v, want [1 3 0]", world)
	}
}

func TestWorldComposition_RestHeadOffset(t *testing.T) {
	s := newTestScene(t)
	arm := mustArmature(t, s, "Rig", mgl64.Vec3{})
	root := mustFrame(t, s, FrameSpec{Armature: arm, Name: "Root", Head: mgl64.Vec3{0, 1, 0}, Tail: mgl64.Vec3{0, 2, 0}})
	child := mustFrame(t, s, FrameSpec{Armature: arm, Name: "Child", Parent: root, Head: mgl64.Vec3{0, 3, 0}, Tail: mgl64.Vec3{0, 4, 0}})

	got, err := s.PosePosition(arm, child)
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(got, mgl64.Vec3{0, 3, 0}, approx) {
		t.Errorf("PosePosition at rest = %v, want the rest head [0 3 0]", got)
	}
}

func TestDriver_PropertyInput(t *testing.T) {
	s := newTestScene(t)
	arm := mustArmature(t, s, "Rig", mgl64.Vec3{})
	f := mustFrame(t, s, FrameSpec{Armature: arm, Name: "F"})
	if err := s.SetProperty(arm, "", "k", 2.5); err != nil {
		t.Fatal(err)
	}
	mustBind(t, s, arm, Driver{
		Output:  Channel{Frame: f, Path: PathScale, Index: 0},
		Vars:    []Variable{PropVar("value", "k")},
		Formula: testCopy,
	})

	lt, err := s.LocalTransform(arm, f)
	if err != nil {
		t.Fatal(err)
	}
	if lt.Scale[0] != 2.5 {
		t.Errorf("scale[0] = %g, want 2.5", lt.Scale[0])
	}

	// Reads after a write are fresh without an explicit Evaluate.
	if err := s.SetProperty(arm, "", "k", 7); err != nil {
		t.Fatal(err)
	}
	lt, _ = s.LocalTransform(arm, f)
	if lt.Scale[0] != 7 {
		t.Errorf("scale[0] after property change = %g, want 7", lt.Scale[0])
	}
}

func TestDriver_ChainedChannels(t *testing.T) {
	s := newTestScene(t)
	arm := mustArmature(t, s, "Rig", mgl64.Vec3{})
	f := mustFrame(t, s, FrameSpec{Armature: arm, Name: "F"})
	if err := s.SetProperty(arm, f, "m", 0.5); err != nil {
		t.Fatal(err)
	}
	mustBind(t, s, arm, Driver{
		Output:  Channel{Frame: f, Path: PathScale, Index: 0},
		Vars:    []Variable{FramePropVar("value", f, "m")},
		Formula: testCopy,
	})
	// Y and Z copy X from the same frame in transform space.
	for _, axis := range []int{1, 2} {
		mustBind(t, s, arm, Driver{
			Output:  Channel{Frame: f, Path: PathScale, Index: axis},
			Vars:    []Variable{TransformVar("value", f, PathScale, 0, SpaceTransform)},
			Formula: testCopy,
		})
	}

	lt, err := s.LocalTransform(arm, f)
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(lt.Scale, mgl64.Vec3{0.5, 0.5, 0.5}, approx) {
		t.Errorf("scale = %v, want uniform 0.5", lt.Scale)
	}
}

func TestBind_RejectsCycle(t *testing.T) {
	s := newTestScene(t)
	arm := mustArmature(t, s, "Rig", mgl64.Vec3{})
	a := mustFrame(t, s, FrameSpec{Armature: arm, Name: "A"})
	b := mustFrame(t, s, FrameSpec{Armature: arm, Name: "B"})

	mustBind(t, s, arm, Driver{
		Output:  Channel{Frame: a, Path: PathLocation, Index: 0},
		Vars:    []Variable{TransformVar("value", b, PathLocation, 0, SpaceTransform)},
		Formula: testCopy,
	})
	err := s.Bind(arm, Driver{
		Output:  Channel{Frame: b, Path: PathLocation, Index: 0},
		Vars:    []Variable{TransformVar("value", a, PathLocation, 0, SpaceTransform)},
		Formula: testCopy,
	})
	if !errors.Is(err, ErrDependencyCycle) {
		t.Fatalf("Bind cycle: err = %v, want ErrDependencyCycle", err)
	}

	drivers, _ := s.Drivers(arm)
	if len(drivers) != 1 {
		t.Errorf("drivers after rejected bind = %d, want 1", len(drivers))
	}
	if err := s.Evaluate(); err != nil {
		t.Errorf("Evaluate after rejected bind: %v", err)
	}
}

func TestBind_OwnEvaluatedTransformIsCycle(t *testing.T) {
	s := newTestScene(t)
	arm := mustArmature(t, s, "Rig", mgl64.Vec3{})
	f := mustFrame(t, s, FrameSpec{Armature: arm, Name: "F"})

	err := s.Bind(arm, Driver{
		Output:  Channel{Frame: f, Path: PathScale, Index: 0},
		Vars:    []Variable{TransformVar("value", f, PathLocation, 0, SpaceLocal)},
		Formula: testCopy,
	})
	if !errors.Is(err, ErrDependencyCycle) {
		t.Errorf("err = %v, want ErrDependencyCycle", err)
	}
}

func TestBind_Validation(t *testing.T) {
	s := newTestScene(t)
	arm := mustArmature(t, s, "Rig", mgl64.Vec3{})
	f := mustFrame(t, s, FrameSpec{Armature: arm, Name: "F"})
	out := Channel{Frame: f, Path: PathLocation, Index: 0}

	tests := []struct {
		name string
		d    Driver
		want error
	}{
		{"unknown formula", Driver{Output: out, Formula: "nope"}, expr.ErrUnknownFormula},
		{"missing frame", Driver{Output: Channel{Frame: "X", Path: PathLocation}, Formula: testCopy}, ErrFrameNotFound},
		{"bad index", Driver{Output: Channel{Frame: f, Path: PathScale, Index: 3}, Formula: testCopy}, ErrInvalidChannel},
		{"bad path", Driver{Output: Channel{Frame: f, Path: "color"}, Formula: testCopy}, ErrInvalidChannel},
		{"no constraint", Driver{Output: Channel{Frame: f, Path: PathInfluence}, Formula: testCopy}, ErrInvalidChannel},
		{"missing property", Driver{Output: out, Vars: []Variable{PropVar("value", "nope")}, Formula: testCopy}, ErrPropertyNotFound},
		{"missing var frame", Driver{Output: out, Vars: []Variable{DistanceVar("d", f, "X")}, Formula: testCopy}, ErrFrameNotFound},
		{"duplicate var", Driver{Output: out, Vars: []Variable{
			TransformVar("v", f, PathScale, 0, SpaceTransform),
			TransformVar("v", f, PathScale, 1, SpaceTransform),
		}, Formula: testCopy}, ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Bind(arm, tt.d); !errors.Is(err, tt.want) {
				t.Errorf("Bind error = %v, want %v", err, tt.want)
			}
		})
	}
	if drivers, _ := s.Drivers(arm); len(drivers) != 0 {
		t.Errorf("rejected binds left %d drivers", len(drivers))
	}
}

func TestBind_ReplacesExistingDriver(t *testing.T) {
	s := newTestScene(t)
	arm := mustArmature(t, s, "Rig", mgl64.Vec3{})
	f := mustFrame(t, s, FrameSpec{Armature: arm, Name: "F"})
	_ = s.SetProperty(arm, "", "a", 1)
	_ = s.SetProperty(arm, "", "b", 2)
	out := Channel{Frame: f, Path: PathLocation, Index: 2}

	mustBind(t, s, arm, Driver{Output: out, Vars: []Variable{PropVar("value", "a")}, Formula: testCopy})
	mustBind(t, s, arm, Driver{Output: out, Vars: []Variable{PropVar("value", "b")}, Formula: testCopy})

	drivers, _ := s.Drivers(arm)
	if len(drivers) != 1 {
		t.Fatalf("drivers = %d, want 1", len(drivers))
	}
	lt, _ := s.LocalTransform(arm, f)
	if lt.Location[2] != 2 {
		t.Errorf("location[2] = %g, want 2", lt.Location[2])
	}
}

func TestRotationMode(t *testing.T) {
	s := newTestScene(t)
	arm := mustArmature(t, s, "Rig", mgl64.Vec3{})
	f := mustFrame(t, s, FrameSpec{Armature: arm, Name: "F"})
	g := mustFrame(t, s, FrameSpec{Armature: arm, Name: "G"})

	if err := s.SetRotationMode(arm, f, "ZYX"); !errors.Is(err, ErrUnsupportedRotation) {
		t.Errorf("SetRotationMode(ZYX) err = %v", err)
	}
	if err := s.SetRotationMode(arm, f, RotationQuaternion); err != nil {
		t.Fatal(err)
	}
	err := s.Bind(arm, Driver{
		Output:  Channel{Frame: f, Path: PathRotation, Index: 0},
		Vars:    []Variable{TransformVar("value", g, PathRotation, 0, SpaceTransform)},
		Formula: testCopy,
	})
	if !errors.Is(err, ErrUnsupportedRotation) {
		t.Errorf("driving quaternion frame: err = %v", err)
	}

	mustBind(t, s, arm, Driver{
		Output:  Channel{Frame: g, Path: PathRotation, Index: 1},
		Vars:    []Variable{TransformVar("value", f, PathLocation, 0, SpaceTransform)},
		Formula: testCopy,
	})
	if err := s.SetRotationMode(arm, g, RotationQuaternion); !errors.Is(err, ErrUnsupportedRotation) {
		t.Errorf("leaving XYZ while driven: err = %v", err)
	}
}

func TestCopyLocation(t *testing.T) {
	tests := []struct {
		name      string
		useOffset bool
		influence float64
		want      mgl64.Vec3
	}{
		{"offset full", true, 1, mgl64.Vec3{3, 0, 0}},
		{"offset half", true, 0.5, mgl64.Vec3{2, 0, 0}},
		{"blend half", false, 0.5, mgl64.Vec3{1.5, 0, 0}},
		{"blend full", false, 1, mgl64.Vec3{2, 0, 0}},
		{"no influence", true, 0, mgl64.Vec3{1, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScene(t)
			arm := mustArmature(t, s, "Rig", mgl64.Vec3{})
			target := mustFrame(t, s, FrameSpec{Armature: arm, Name: "Target"})
			owner := mustFrame(t, s, FrameSpec{Armature: arm, Name: "Owner"})

			tt0 := IdentityTransform()
			tt0.Location = mgl64.Vec3{2, 0, 0}
			_ = s.SetLocalTransform(arm, target, tt0)
			ot := IdentityTransform()
			ot.Location = mgl64.Vec3{1, 0, 0}
			_ = s.SetLocalTransform(arm, owner, ot)

			if _, err := s.AddCopyLocation(arm, owner, CopyLocation{Target: target, UseOffset: tt.useOffset, Influence: tt.influence}); err != nil {
				t.Fatal(err)
			}
			lt, err := s.LocalTransform(arm, owner)
			if err != nil {
				t.Fatal(err)
			}
			if !cmp.Equal(lt.Location, tt.want, approx) {
				t.Errorf("location = %v, want %v", lt.Location, tt.want)
			}
		})
	}
}

func TestCopyLocation_DrivenInfluence(t *testing.T) {
	s := newTestScene(t)
	arm := mustArmature(t, s, "Rig", mgl64.Vec3{})
	target := mustFrame(t, s, FrameSpec{Armature: arm, Name: "Target"})
	owner := mustFrame(t, s, FrameSpec{Armature: arm, Name: "Owner"})
	_ = s.SetProperty(arm, "", "scale", 4)

	idx, err := s.AddCopyLocation(arm, owner, CopyLocation{Target: target, UseOffset: true, Influence: 1})
	if err != nil {
		t.Fatal(err)
	}
	mustBind(t, s, arm, Driver{
		Output:  Channel{Frame: owner, Path: PathInfluence, Index: idx},
		Vars:    []Variable{PropVar("value", "scale")},
		Formula: testInverse,
	})

	tt := IdentityTransform()
	tt.Location = mgl64.Vec3{8, -4, 2}
	_ = s.SetLocalTransform(arm, target, tt)

	lt, _ := s.LocalTransform(arm, owner)
	if !cmp.Equal(lt.Location, mgl64.Vec3{2, -1, 0.5}, approx) {
		t.Errorf("location = %v, want target / 4", lt.Location)
	}
}

func TestAddCopyLocation_Errors(t *testing.T) {
	s := newTestScene(t)
	arm := mustArmature(t, s, "Rig", mgl64.Vec3{})
	f := mustFrame(t, s, FrameSpec{Armature: arm, Name: "F"})

	if _, err := s.AddCopyLocation(arm, f, CopyLocation{Target: "X"}); !errors.Is(err, ErrFrameNotFound) {
		t.Errorf("missing target: err = %v", err)
	}
	if _, err := s.AddCopyLocation(arm, f, CopyLocation{Target: f}); !errors.Is(err, ErrDependencyCycle) {
		t.Errorf("self target: err = %v", err)
	}
	info, _ := s.Frame(arm, f)
	if len(info.Constraints) != 0 {
		t.Errorf("rejected constraints left %d behind", len(info.Constraints))
	}
}

func TestLocDiff(t *testing.T) {
	s := newTestScene(t)
	arm := mustArmature(t, s, "Rig", mgl64.Vec3{100, 0, 0})
	a := mustFrame(t, s, FrameSpec{Armature: arm, Name: "A"})
	b := mustFrame(t, s, FrameSpec{Armature: arm, Name: "B"})
	out := mustFrame(t, s, FrameSpec{Armature: arm, Name: "Out"})

	bt := IdentityTransform()
	bt.Location = mgl64.Vec3{3, 4, 0}
	_ = s.SetLocalTransform(arm, b, bt)
	mustBind(t, s, arm, Driver{
		Output:  Channel{Frame: out, Path: PathLocation, Index: 0},
		Vars:    []Variable{DistanceVar("d", a, b)},
		Formula: testSum,
	})

	lt, _ := s.LocalTransform(arm, out)
	if math.Abs(lt.Location[0]-5) > 1e-12 {
		t.Errorf("distance = %g, want 5", lt.Location[0])
	}
}

func TestGraph_Layers(t *testing.T) {
	s := newTestScene(t)
	arm := mustArmature(t, s, "Rig", mgl64.Vec3{})
	root := mustFrame(t, s, FrameSpec{Armature: arm, Name: "Root"})
	child := mustFrame(t, s, FrameSpec{Armature: arm, Name: "Child", Parent: root})
	other := mustFrame(t, s, FrameSpec{Armature: arm, Name: "Other"})
	_ = s.SetProperty(arm, "", "k", 1)
	mustBind(t, s, arm, Driver{
		Output:  Channel{Frame: child, Path: PathScale, Index: 0},
		Vars:    []Variable{PropVar("value", "k"), DistanceVar("d", root, other)},
		Formula: testSum,
	})

	g, err := s.Graph()
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if err := g.ValidateLayers(); err != nil {
		t.Errorf("ValidateLayers: %v", err)
	}
	n, ok := g.Node(channelID(arm, child, PathScale, 0))
	if !ok {
		t.Fatal("driven channel node missing")
	}
	if n.Meta[MetaFormula] != testSum {
		t.Errorf("formula meta = %v, want %s", n.Meta[MetaFormula], testSum)
	}
}

func TestRemoveFrame(t *testing.T) {
	s := newTestScene(t)
	arm := mustArmature(t, s, "Rig", mgl64.Vec3{})
	root := mustFrame(t, s, FrameSpec{Armature: arm, Name: "Root"})
	mid := mustFrame(t, s, FrameSpec{Armature: arm, Name: "Mid", Parent: root})
	leaf := mustFrame(t, s, FrameSpec{Armature: arm, Name: "Leaf", Parent: mid})
	other := mustFrame(t, s, FrameSpec{Armature: arm, Name: "Other"})

	if _, err := s.AddCopyLocation(arm, other, CopyLocation{Target: mid, Influence: 1}); err != nil {
		t.Fatal(err)
	}
	mustBind(t, s, arm, Driver{
		Output:  Channel{Frame: other, Path: PathScale, Index: 0},
		Vars:    []Variable{TransformVar("value", mid, PathScale, 0, SpaceTransform)},
		Formula: testCopy,
	})

	if err := s.RemoveFrame(arm, mid); err != nil {
		t.Fatal(err)
	}
	if s.HasFrame(arm, mid) {
		t.Error("frame still present")
	}
	info, _ := s.Frame(arm, leaf)
	if info.Parent != root {
		t.Errorf("leaf parent = %q, want %q", info.Parent, root)
	}
	info, _ = s.Frame(arm, other)
	if len(info.Constraints) != 0 {
		t.Errorf("constraint on removed target kept")
	}
	if drivers, _ := s.Drivers(arm); len(drivers) != 0 {
		t.Errorf("driver reading removed frame kept")
	}
	if err := s.Evaluate(); err != nil {
		t.Errorf("Evaluate after removal: %v", err)
	}
}

func TestRemoveArmature(t *testing.T) {
	s := newTestScene(t)
	arm := mustArmature(t, s, "Rig", mgl64.Vec3{})
	mustFrame(t, s, FrameSpec{Armature: arm, Name: "F"})

	if err := s.RemoveArmature(arm); err != nil {
		t.Fatal(err)
	}
	if s.HasArmature(arm) || s.FrameCount() != 0 {
		t.Error("armature or frames left behind")
	}
	if err := s.RemoveArmature(arm); !errors.Is(err, ErrArmatureNotFound) {
		t.Errorf("second removal err = %v", err)
	}
}

func TestPropertiesAndTags(t *testing.T) {
	s := newTestScene(t)
	arm := mustArmature(t, s, "Rig", mgl64.Vec3{})
	f := mustFrame(t, s, FrameSpec{Armature: arm, Name: "F"})

	if _, err := s.Property(arm, f, "x"); !errors.Is(err, ErrPropertyNotFound) {
		t.Errorf("missing property err = %v", err)
	}
	_ = s.SetProperty(arm, f, "x", 3)
	if v, err := s.Property(arm, f, "x"); err != nil || v != 3 {
		t.Errorf("Property = %g, %v; want 3", v, err)
	}
	if err := s.SetTag(arm, "", "role", "rig"); err != nil {
		t.Fatal(err)
	}
	if v, ok := s.Tag(arm, "", "role"); !ok || v != "rig" {
		t.Errorf("Tag = %q, %v", v, ok)
	}
	if _, ok := s.Tag(arm, "Nope", "role"); ok {
		t.Error("tag on missing frame reported present")
	}
}
