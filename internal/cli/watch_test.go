package cli

import (
	"io"
	"os"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/matzehuels/megamini/pkg/perspective"
	"github.com/matzehuels/megamini/pkg/rig"
)

func newTestWatch(t *testing.T) (WatchModel, string) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	c.cfg.Scene = scenePath(t)
	ws, err := c.openWorkspace()
	if err != nil {
		t.Fatal(err)
	}
	r, err := ws.rigs.CreateRig(perspective.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	loc := mgl64.Vec3{30, 0, 0}
	if _, err := ws.rigs.CreatePlace(r, rig.PlaceOptions{Location: &loc}); err != nil {
		t.Fatal(err)
	}
	m, err := newWatchModel(ws, r, 2)
	if err != nil {
		t.Fatal(err)
	}
	return m, c.cfg.Scene
}

func press(t *testing.T, m WatchModel, keys ...tea.KeyMsg) (WatchModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(WatchModel)
	}
	return m, cmd
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestWatchModel_MovesObserver(t *testing.T) {
	m, _ := newTestWatch(t)
	scaleBefore := m.report.Places[0].Scale

	m, cmd := press(t, m,
		tea.KeyMsg{Type: tea.KeyRight},
		tea.KeyMsg{Type: tea.KeyRight},
		tea.KeyMsg{Type: tea.KeyUp},
		runeKey(']'),
		tea.KeyMsg{Type: tea.KeyPgUp},
	)
	if cmd != nil {
		t.Error("movement keys should not return a command")
	}
	if m.Err != nil {
		t.Fatal(m.Err)
	}
	if want := (mgl64.Vec3{4, 2, 4}); m.report.Observer != want {
		t.Errorf("observer = %v, want %v", m.report.Observer, want)
	}
	if !m.Dirty || m.Step != 4 {
		t.Errorf("dirty = %v, step = %v", m.Dirty, m.Step)
	}
	// The observer moved toward the place, so it grows.
	if got := m.report.Places[0].Scale; got <= scaleBefore {
		t.Errorf("place scale %v did not grow from %v", got, scaleBefore)
	}
	if !strings.Contains(m.View(), "unsaved changes") {
		t.Error("view should flag unsaved changes")
	}
}

func TestWatchModel_SaveAndQuit(t *testing.T) {
	m, path := newTestWatch(t)

	m, cmd := press(t, m, runeKey('q'))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("quitting without changes should not write the scene")
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyLeft}, runeKey('s'))
	if !m.Saved || m.Dirty {
		t.Errorf("saved = %v, dirty = %v", m.Saved, m.Dirty)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("scene not written: %v", err)
	}
	if !strings.Contains(m.View(), "saved") {
		t.Error("view should confirm the save")
	}
}

func TestWatchModel_EscDiscards(t *testing.T) {
	m, path := newTestWatch(t)
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("esc should quit")
	}
	if !m.Dirty {
		t.Error("esc should leave changes unsaved")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("esc should not write the scene")
	}
}
