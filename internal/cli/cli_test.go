package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/matzehuels/megamini/pkg/cache"
	"github.com/matzehuels/megamini/pkg/errors"
	mmio "github.com/matzehuels/megamini/pkg/io"
	"github.com/matzehuels/megamini/pkg/observability"
	"github.com/matzehuels/megamini/pkg/rig"
	"github.com/matzehuels/megamini/pkg/scene"
)

// runCLI executes one command against the scene file at path.
func runCLI(t *testing.T, path string, args ...string) error {
	t.Helper()
	t.Cleanup(observability.Reset)
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(append([]string{"--scene", path}, args...))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func mustRun(t *testing.T, path string, args ...string) {
	t.Helper()
	if err := runCLI(t, path, args...); err != nil {
		t.Fatalf("%s: %v", strings.Join(args, " "), err)
	}
}

// loadScene reads the scene file back and adopts its rigs.
func loadScene(t *testing.T, path string) (*scene.Scene, *rig.Manager) {
	t.Helper()
	quiet := log.New(io.Discard)
	s, err := mmio.ImportJSON(path, quiet)
	if err != nil {
		t.Fatal(err)
	}
	m := rig.NewManager(s, quiet)
	if _, err := m.Load(); err != nil {
		t.Fatal(err)
	}
	return s, m
}

func scenePath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "scene.json")
}

func TestCommands_AttachMultiPrecreates(t *testing.T) {
	path := scenePath(t)
	mustRun(t, path, "object", "add", "House", "--at", "20,5,0")
	mustRun(t, path, "object", "add", "Tree", "--at=-8,0,1")
	mustRun(t, path, "attach", "multi", "House", "Tree")

	s, m := loadScene(t, path)
	rigs := m.Rigs()
	if len(rigs) != 1 || len(rigs[0].Places) != 2 {
		t.Fatalf("rigs = %+v", rigs)
	}
	for _, obj := range []string{"House", "Tree"} {
		r, p, err := m.FindOwningRig(obj)
		if err != nil || r != rigs[0] || p == nil {
			t.Errorf("FindOwningRig(%s) = %v, %v, %v", obj, r, p, err)
		}
	}

	before, _ := s.ObjectWorldPosition("House")
	mustRun(t, path, "observer", "move", rigs[0].Armature, "0,3,0")
	s, _ = loadScene(t, path)
	after, _ := s.ObjectWorldPosition("House")
	if before == after {
		t.Errorf("House did not move with the observer: %v", after)
	}
}

func TestCommands_RigLifecycle(t *testing.T) {
	path := scenePath(t)
	mustRun(t, path, "cursor", "set", "1,0,0")
	mustRun(t, path, "rig", "create")
	mustRun(t, path, "rig", "create", "--scale", "50", "--fp-power", "1")
	mustRun(t, path, "rig", "list")
	mustRun(t, path, "rig", "inspect", rig.BaseArmatureName)

	s, m := loadScene(t, path)
	if s.Cursor() != (mgl64.Vec3{1, 0, 0}) {
		t.Errorf("cursor = %v", s.Cursor())
	}
	rigs := m.Rigs()
	if len(rigs) != 2 {
		t.Fatalf("got %d rigs, want 2", len(rigs))
	}
	second := rigs[1].Armature
	p, err := m.Params(rigs[1])
	if err != nil {
		t.Fatal(err)
	}
	if p.Scale != 50 || p.Power != 1 {
		t.Errorf("second rig params = %+v", p)
	}

	// Two rigs: the rig must be named.
	if err := runCLI(t, path, "rig", "inspect"); !errors.Is(err, errors.ErrCodeMissingRig) {
		t.Errorf("inspect without rig = %v, want MISSING_RIG", err)
	}

	mustRun(t, path, "rig", "update", second, "--fp-min-scale", "0.25")
	mustRun(t, path, "place", "create", "--rig", second, "--at", "1,2,3")
	mustRun(t, path, "place", "create", "--rig", second, "--no-observer")
	_, m = loadScene(t, path)
	r, err := m.Rig(second)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Places) != 2 {
		t.Fatalf("places = %d, want 2", len(r.Places))
	}
	if p, _ := m.Params(r); p.MinScale != 0.25 {
		t.Errorf("min scale = %v after update", p.MinScale)
	}

	mustRun(t, path, "place", "destroy", second, r.Places[0].Name)
	if err := runCLI(t, path, "place", "destroy", second, "Nowhere"); !errors.Is(err, errors.ErrCodeMissingFrame) {
		t.Errorf("destroy unknown place = %v, want MISSING_FRAME", err)
	}
	mustRun(t, path, "rig", "destroy", second)

	_, m = loadScene(t, path)
	if got := len(m.Rigs()); got != 1 {
		t.Errorf("rigs after destroy = %d, want 1", got)
	}
}

func TestCommands_ConfigAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.json")
	cfgPath := filepath.Join(dir, "megamini.toml")
	if err := os.WriteFile(cfgPath, []byte("[rig]\nscale = 25.0\n\n[attach]\nprecreate_rig = false\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	mustRun(t, path, "object", "add", "House", "--at", "3,0,0")
	if err := runCLI(t, path, "--config", cfgPath, "attach", "single", "House"); !errors.Is(err, errors.ErrCodeMissingRig) {
		t.Fatalf("attach without rig and precreate_rig=false = %v, want MISSING_RIG", err)
	}

	// The flag wins over the file.
	mustRun(t, path, "--config", cfgPath, "attach", "single", "House", "--precreate")
	_, m := loadScene(t, path)
	p, err := m.Params(m.Rigs()[0])
	if err != nil {
		t.Fatal(err)
	}
	if p.Scale != 25 {
		t.Errorf("precreated rig scale = %v, want 25 from config", p.Scale)
	}

	t.Setenv("MEGAMINI_SCALE", "5")
	mustRun(t, path, "--config", cfgPath, "rig", "create")
	_, m = loadScene(t, path)
	if p, _ := m.Params(m.Rigs()[1]); p.Scale != 5 {
		t.Errorf("rig scale = %v, want 5 from env", p.Scale)
	}
}

func TestCommands_PlaceCreatePrecreates(t *testing.T) {
	path := scenePath(t)
	mustRun(t, path, "place", "create", "--at", "5,0,0")

	_, m := loadScene(t, path)
	rigs := m.Rigs()
	if len(rigs) != 1 || len(rigs[0].Places) != 1 {
		t.Fatalf("rigs = %+v, want one rig with one place", rigs)
	}
	if p, _ := m.Params(rigs[0]); p.Scale != 1000 {
		t.Errorf("precreated rig scale = %v, want default 1000", p.Scale)
	}

	// An existing rig is reused.
	mustRun(t, path, "place", "create")
	_, m = loadScene(t, path)
	if rigs := m.Rigs(); len(rigs) != 1 || len(rigs[0].Places) != 2 {
		t.Errorf("second place: rigs = %+v", rigs)
	}
}

func TestCommands_PlaceCreateWithoutPrecreate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.json")
	cfgPath := filepath.Join(dir, "megamini.toml")
	if err := os.WriteFile(cfgPath, []byte("[attach]\nprecreate_rig = false\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := runCLI(t, path, "place", "create", "--precreate=false"); !errors.Is(err, errors.ErrCodeMissingRig) {
		t.Errorf("--precreate=false err = %v, want MISSING_RIG", err)
	}
	if err := runCLI(t, path, "--config", cfgPath, "place", "create"); !errors.Is(err, errors.ErrCodeMissingRig) {
		t.Errorf("precreate_rig=false err = %v, want MISSING_RIG", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("rejected place create wrote the scene")
	}

	// The flag wins over the file.
	mustRun(t, path, "--config", cfgPath, "place", "create", "--precreate")
	_, m := loadScene(t, path)
	if len(m.Rigs()) != 1 {
		t.Errorf("rigs = %d, want 1", len(m.Rigs()))
	}
}

func TestCommands_PlaceScale(t *testing.T) {
	path := scenePath(t)
	mustRun(t, path, "place", "create")
	_, m := loadScene(t, path)
	r := m.Rigs()[0]
	place := r.Places[0].Name

	mustRun(t, path, "place", "scale", r.Armature, place, "2.5")
	s, m := loadScene(t, path)
	r, _ = m.Rig(r.Armature)
	if v, err := m.ScaleMultiplier(r.Places[0]); err != nil || v != 2.5 {
		t.Errorf("multiplier = %v, %v; want 2.5", v, err)
	}
	local, err := s.LocalTransform(r.Armature, place)
	if err != nil {
		t.Fatal(err)
	}
	if local.Scale != (mgl64.Vec3{2.5, 2.5, 2.5}) {
		t.Errorf("place scale = %v, want the multiplier at the observer", local.Scale)
	}

	if err := runCLI(t, path, "place", "scale", r.Armature, place, "big"); !errors.Is(err, errors.ErrCodeInvalidParameter) {
		t.Errorf("bad value err = %v, want INVALID_PARAMETER", err)
	}
	if err := runCLI(t, path, "place", "scale", r.Armature, place, "NaN"); !errors.Is(err, errors.ErrCodeInvalidParameter) {
		t.Errorf("NaN err = %v, want INVALID_PARAMETER", err)
	}
	if err := runCLI(t, path, "place", "scale", r.Armature, "Nowhere", "2"); !errors.Is(err, errors.ErrCodeMissingFrame) {
		t.Errorf("unknown place err = %v, want MISSING_FRAME", err)
	}
}

func TestCommands_HelpShowsConfiguredPolicy(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "megamini.toml")
	if err := os.WriteFile(cfgPath, []byte("[attach]\nprecreate_rig = false\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	precreateLine := func(args ...string) string {
		t.Helper()
		var buf bytes.Buffer
		root := New(io.Discard, LogInfo).RootCommand()
		root.SetArgs(args)
		root.SetOut(&buf)
		root.SetErr(io.Discard)
		if err := root.ExecuteContext(context.Background()); err != nil {
			t.Fatal(err)
		}
		for _, line := range strings.Split(buf.String(), "\n") {
			if strings.Contains(line, "--precreate") {
				return line
			}
		}
		t.Fatalf("no --precreate flag in help:\n%s", buf.String())
		return ""
	}

	for _, cmd := range [][]string{{"attach", "single"}, {"place", "create"}} {
		if line := precreateLine(append(cmd, "--help")...); !strings.Contains(line, "(default true)") {
			t.Errorf("%v help without config: %q", cmd, line)
		}
		if line := precreateLine(append([]string{"--config", cfgPath}, append(cmd, "--help")...)...); strings.Contains(line, "default true") {
			t.Errorf("%v help with precreate_rig=false: %q", cmd, line)
		}
	}
}

func TestCommands_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"bad vector", []string{"cursor", "set", "1,2"}, errors.ErrCodeInvalidParameter},
		{"zero scale", []string{"rig", "create", "--scale", "0"}, errors.ErrCodeInvalidParameter},
		{"no rig", []string{"rig", "inspect"}, errors.ErrCodeMissingRig},
		{"unknown rig", []string{"observer", "move", "Ghost", "0,0,0"}, errors.ErrCodeMissingRig},
		{"missing object", []string{"attach", "multi", "Ghost"}, errors.ErrCodeMissingObject},
		{"bad name", []string{"object", "add", "a/b"}, errors.ErrCodeInvalidParameter},
		{"unsupported graph format", []string{"graph", "-o", "out.txt"}, errors.ErrCodeUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := scenePath(t)
			if tt.name == "unsupported graph format" {
				mustRun(t, path, "rig", "create")
			}
			err := runCLI(t, path, tt.args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestCommands_SceneMustBeJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	if err := runCLI(t, path, "rig", "list"); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("err = %v, want INVALID_PATH", err)
	}
}

func TestCommands_GraphDOT(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.json")
	out := filepath.Join(dir, "rig.dot")
	mustRun(t, path, "rig", "create")
	mustRun(t, path, "place", "create")
	mustRun(t, path, "graph", "-o", out, "--detailed")

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "digraph G {") || !strings.Contains(string(data), "formula: ") {
		t.Errorf("unexpected DOT output:\n%s", data)
	}
}

func TestRenderGraph_UsesCache(t *testing.T) {
	ctx := context.Background()
	store, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	dot := "digraph G {\n}\n"
	if err := store.Set(ctx, cache.ArtifactKey(formatSVG, dot, 2.0), []byte("<svg>cached</svg>"), 0); err != nil {
		t.Fatal(err)
	}

	got, err := renderGraph(ctx, store, dot, "out.SVG", 2)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "<svg>cached</svg>" {
		t.Errorf("renderGraph = %q, want cached artifact", got)
	}

	got, err = renderGraph(ctx, cache.NewNullCache(), dot, "out.dot", 2)
	if err != nil || string(got) != dot {
		t.Errorf("renderGraph(.dot) = %q, %v", got, err)
	}
}
