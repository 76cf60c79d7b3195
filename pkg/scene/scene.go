package scene

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/matzehuels/megamini/pkg/dag"
	"github.com/matzehuels/megamini/pkg/observability"
)

// ErrInvalidName is returned for empty names or names containing '/' or '#',
// which the scene uses to address channels.
var ErrInvalidName = errors.New("invalid name")

type armature struct {
	name     string
	location mgl64.Vec3
	props    map[string]float64
	tags     map[string]string
	frames   map[string]*frame
	order    []string
	drivers  []Driver
}

type frame struct {
	name        string
	parent      string
	head        mgl64.Vec3
	tail        mgl64.Vec3
	mode        RotationMode
	basis       Transform
	constraints []CopyLocation
	props       map[string]float64
	tags        map[string]string

	// Evaluated state.
	pose  Transform
	local mgl64.Mat4 // pose matrix in armature space
	world mgl64.Mat4
}

// Scene is an in-memory host scene: armatures holding frames, drivers bound
// to frame channels, external objects and a 3D cursor.
//
// The zero value is not usable - use [New].
type Scene struct {
	cursor    mgl64.Vec3
	armatures map[string]*armature
	armOrder  []string
	objects   map[string]*object
	objOrder  []string

	graph *dag.DAG
	plan  []step
	stale bool // topology changed, graph must be rebuilt
	dirty bool // values changed, graph must be re-evaluated

	logger *log.Logger
}

// ArmatureInfo is a read-only snapshot of an armature.
type ArmatureInfo struct {
	Name     string
	Location mgl64.Vec3
	Props    map[string]float64
	Tags     map[string]string
}

// New creates an empty scene. If logger is nil, log.Default() is used.
func New(logger *log.Logger) *Scene {
	if logger == nil {
		logger = log.Default()
	}
	return &Scene{
		armatures: make(map[string]*armature),
		objects:   make(map[string]*object),
		graph:     dag.New(nil),
		logger:    logger,
	}
}

// Cursor returns the scene's 3D cursor.
func (s *Scene) Cursor() mgl64.Vec3 { return s.cursor }

// SetCursor moves the 3D cursor. New rigs are created at the cursor.
func (s *Scene) SetCursor(v mgl64.Vec3) { s.cursor = v }

// NewArmature adds an armature at location and returns its name, which is
// made unique across armatures and objects.
func (s *Scene) NewArmature(name string, location mgl64.Vec3) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	name = uniqueName(name, s.nameTaken)
	s.armatures[name] = &armature{
		name:     name,
		location: location,
		props:    make(map[string]float64),
		tags:     make(map[string]string),
		frames:   make(map[string]*frame),
	}
	s.armOrder = append(s.armOrder, name)
	s.invalidate()
	return name, nil
}

// RemoveArmature deletes an armature with all its frames and drivers.
// Objects parented to its frames are unparented and keep their world
// transform.
func (s *Scene) RemoveArmature(name string) error {
	a, ok := s.armatures[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrArmatureNotFound, name)
	}
	if err := s.ensureFresh(); err != nil {
		return err
	}
	for _, o := range s.objectList() {
		if o.parent.Armature == a.name {
			s.clearParentKeepWorld(o)
		}
	}
	delete(s.armatures, name)
	s.armOrder = slices.DeleteFunc(s.armOrder, func(n string) bool { return n == name })
	s.invalidate()
	return nil
}

// Armatures returns armature names in creation order.
func (s *Scene) Armatures() []string { return slices.Clone(s.armOrder) }

// HasArmature reports whether an armature exists.
func (s *Scene) HasArmature(name string) bool {
	_, ok := s.armatures[name]
	return ok
}

// Armature returns a snapshot of an armature.
func (s *Scene) Armature(name string) (ArmatureInfo, error) {
	a, err := s.armature(name)
	if err != nil {
		return ArmatureInfo{}, err
	}
	return ArmatureInfo{
		Name:     a.name,
		Location: a.location,
		Props:    maps.Clone(a.props),
		Tags:     maps.Clone(a.tags),
	}, nil
}

// SetArmatureLocation moves an armature in the scene.
func (s *Scene) SetArmatureLocation(name string, location mgl64.Vec3) error {
	a, err := s.armature(name)
	if err != nil {
		return err
	}
	a.location = location
	s.dirty = true
	return nil
}

// SetProperty sets a custom float property on an armature (frame empty) or
// on one of its frames.
func (s *Scene) SetProperty(arm, frame, key string, v float64) error {
	if key == "" {
		return fmt.Errorf("%w: empty property key", ErrInvalidName)
	}
	props, err := s.propsOf(arm, frame)
	if err != nil {
		return err
	}
	_, existed := props[key]
	props[key] = v
	if existed {
		s.dirty = true
	} else {
		s.invalidate()
	}
	return nil
}

// Property returns a custom float property of an armature (frame empty) or
// of one of its frames.
func (s *Scene) Property(arm, frame, key string) (float64, error) {
	props, err := s.propsOf(arm, frame)
	if err != nil {
		return 0, err
	}
	v, ok := props[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrPropertyNotFound, key)
	}
	return v, nil
}

// SetTag sets a string tag on an armature (frame empty) or on a frame.
// Tags carry metadata only and never affect evaluation.
func (s *Scene) SetTag(arm, frame, key, value string) error {
	tags, err := s.tagsOf(arm, frame)
	if err != nil {
		return err
	}
	tags[key] = value
	return nil
}

// Tag returns a string tag of an armature (frame empty) or of a frame.
func (s *Scene) Tag(arm, frame, key string) (string, bool) {
	tags, err := s.tagsOf(arm, frame)
	if err != nil {
		return "", false
	}
	v, ok := tags[key]
	return v, ok
}

// Graph returns the evaluation graph with rows assigned, rebuilding it if the
// topology changed. The graph is owned by the scene and must not be modified.
func (s *Scene) Graph() (*dag.DAG, error) {
	if err := s.ensureFresh(); err != nil {
		return nil, err
	}
	return s.graph, nil
}

// Evaluate runs a full evaluation pass over every driver, constraint and
// world transform, rebuilding the evaluation graph first if needed.
func (s *Scene) Evaluate() error {
	start := time.Now()
	err := s.evaluate()
	elapsed := time.Since(start)
	observability.Scene().OnEvaluate(s.graph.NodeCount(), elapsed, err)
	if err != nil {
		return err
	}
	s.logger.Debug("evaluated scene", "nodes", s.graph.NodeCount(), "steps", len(s.plan), "duration", elapsed)
	return nil
}

// FrameCount returns the total number of frames across all armatures.
func (s *Scene) FrameCount() int {
	n := 0
	for _, a := range s.armatures {
		n += len(a.frames)
	}
	return n
}

func (s *Scene) ensureFresh() error {
	if s.stale || s.dirty {
		return s.Evaluate()
	}
	return nil
}

// invalidate marks both the topology and the values as out of date.
func (s *Scene) invalidate() {
	s.stale = true
	s.dirty = true
}

func (s *Scene) armature(name string) (*armature, error) {
	a, ok := s.armatures[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrArmatureNotFound, name)
	}
	return a, nil
}

func (s *Scene) frame(arm, name string) (*armature, *frame, error) {
	a, err := s.armature(arm)
	if err != nil {
		return nil, nil, err
	}
	f, ok := a.frames[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s/%s", ErrFrameNotFound, arm, name)
	}
	return a, f, nil
}

func (s *Scene) propsOf(arm, frame string) (map[string]float64, error) {
	if frame == "" {
		a, err := s.armature(arm)
		if err != nil {
			return nil, err
		}
		return a.props, nil
	}
	_, f, err := s.frame(arm, frame)
	if err != nil {
		return nil, err
	}
	return f.props, nil
}

func (s *Scene) tagsOf(arm, frame string) (map[string]string, error) {
	if frame == "" {
		a, err := s.armature(arm)
		if err != nil {
			return nil, err
		}
		return a.tags, nil
	}
	_, f, err := s.frame(arm, frame)
	if err != nil {
		return nil, err
	}
	return f.tags, nil
}

func (s *Scene) nameTaken(name string) bool {
	_, arm := s.armatures[name]
	_, obj := s.objects[name]
	return arm || obj
}

func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, "/#") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

var numericSuffix = regexp.MustCompile(`\.\d{3,}$`)

// uniqueName returns name if it is free, otherwise the first free
// "stem.NNN" with stem being name without any numeric suffix.
func uniqueName(name string, taken func(string) bool) string {
	if !taken(name) {
		return name
	}
	stem := numericSuffix.ReplaceAllString(name, "")
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s.%03d", stem, i)
		if !taken(candidate) {
			return candidate
		}
	}
}
