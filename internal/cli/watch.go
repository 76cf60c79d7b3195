package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/cobra"

	"github.com/matzehuels/megamini/pkg/rig"
)

var (
	watchKeyStyle   = lipgloss.NewStyle().Foreground(colorCyan)
	watchErrorStyle = lipgloss.NewStyle().Foreground(colorRed)
)

// watchCommand creates the interactive observer command.
func (c *CLI) watchCommand() *cobra.Command {
	var step float64

	cmd := &cobra.Command{
		Use:   "watch [rig]",
		Short: "Move a rig's observer interactively",
		Long: `Move a rig's observer interactively and watch the places react.

  ←/→  x    ↑/↓  y    pgup/pgdn  z
  [/]  shrink or grow the step
  s    save   q  save and quit   esc  quit without saving`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.openWorkspace()
			if err != nil {
				return err
			}
			r, err := ws.rig(firstArg(args), false)
			if err != nil {
				return err
			}
			m, err := newWatchModel(ws, r, step)
			if err != nil {
				return err
			}
			final, err := tea.NewProgram(m, tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return err
			}
			if fm, ok := final.(WatchModel); ok && fm.Err != nil {
				return fm.Err
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&step, "step", 1, "observer step per key press")
	return cmd
}

// =============================================================================
// WatchModel - Interactive observer movement
// =============================================================================

// WatchModel is the bubbletea model for moving an observer.
type WatchModel struct {
	ws     *workspace
	rig    *rig.Rig
	report rigReport

	Step  float64
	Dirty bool
	Saved bool
	Err   error
}

func newWatchModel(ws *workspace, r *rig.Rig, step float64) (WatchModel, error) {
	rep, err := inspectRig(ws, r)
	if err != nil {
		return WatchModel{}, err
	}
	if step <= 0 {
		step = 1
	}
	return WatchModel{ws: ws, rig: r, report: rep, Step: step}, nil
}

func (m WatchModel) Init() tea.Cmd {
	return nil
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	var delta mgl64.Vec3
	switch key.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "q":
		m = m.save()
		return m, tea.Quit
	case "s":
		return m.save(), nil
	case "[":
		m.Step /= 2
		return m, nil
	case "]":
		m.Step *= 2
		return m, nil
	case "left", "h":
		delta = mgl64.Vec3{-m.Step, 0, 0}
	case "right", "l":
		delta = mgl64.Vec3{m.Step, 0, 0}
	case "down", "j":
		delta = mgl64.Vec3{0, -m.Step, 0}
	case "up", "k":
		delta = mgl64.Vec3{0, m.Step, 0}
	case "pgdown":
		delta = mgl64.Vec3{0, 0, -m.Step}
	case "pgup":
		delta = mgl64.Vec3{0, 0, m.Step}
	default:
		return m, nil
	}
	return m.move(delta), nil
}

func (m WatchModel) move(delta mgl64.Vec3) WatchModel {
	if err := m.ws.rigs.MoveObserver(m.rig, m.report.Observer.Add(delta)); err != nil {
		m.Err = err
		return m
	}
	rep, err := inspectRig(m.ws, m.rig)
	if err != nil {
		m.Err = err
		return m
	}
	m.report, m.Dirty, m.Saved, m.Err = rep, true, false, nil
	return m
}

func (m WatchModel) save() WatchModel {
	if !m.Dirty {
		return m
	}
	if err := m.ws.save(); err != nil {
		m.Err = err
		return m
	}
	m.Dirty, m.Saved = false, true
	return m
}

func (m WatchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Observer · " + m.report.Rig))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("%s move  %s step  %s save  %s quit",
		watchKeyStyle.Render("←→↑↓ pgup/pgdn"), watchKeyStyle.Render("[ ]"),
		watchKeyStyle.Render("s"), watchKeyStyle.Render("q/esc"))))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("observer  %s   step %s\n", StyleNumber.Render(fmtVec(m.report.Observer)), fmtFloat(m.Step)))
	b.WriteString(fmt.Sprintf("proxy     %s\n\n", StyleDim.Render(fmtVec(m.report.ProxyObserver))))

	if len(m.report.Places) == 0 {
		b.WriteString(StyleDim.Render("no places"))
	} else {
		t := newTable("Place", "Distance", "Scale", "World")
		for _, p := range m.report.Places {
			t.Row(p.Name, fmtFloat(p.Distance), fmtFloat(p.Scale), fmtVec(p.World))
		}
		b.WriteString(t.Render())
	}
	b.WriteString("\n")

	switch {
	case m.Err != nil:
		b.WriteString(watchErrorStyle.Render(iconError + " " + m.Err.Error()))
	case m.Saved:
		b.WriteString(StyleSuccess.Render(iconSuccess + " saved " + m.ws.path))
	case m.Dirty:
		b.WriteString(StyleWarning.Render(iconWarning + " unsaved changes"))
	}
	b.WriteString("\n")
	return b.String()
}
