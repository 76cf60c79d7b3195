package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/megamini/pkg/attach"
	"github.com/matzehuels/megamini/pkg/buildinfo"
	"github.com/matzehuels/megamini/pkg/config"
	"github.com/matzehuels/megamini/pkg/errors"
	mmio "github.com/matzehuels/megamini/pkg/io"
	"github.com/matzehuels/megamini/pkg/observability"
	"github.com/matzehuels/megamini/pkg/rig"
	"github.com/matzehuels/megamini/pkg/scene"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "megamini"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	scenePath  string
	cfg        config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "MegaMini builds forced-perspective rigs for miniature scenes",
		Long: `MegaMini builds forced-perspective transform rigs.

Objects attached to a rig shrink and move toward a virtual observer so that a
huge scene looks right from one viewpoint while living in a small proxy space.
The scene is stored as JSON and every command loads, edits and saves it.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	defaultHelp := root.HelpFunc()
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		// Help skips the pre-run, so show configured defaults explicitly.
		if cfg, err := config.Load(c.configPath); err == nil {
			c.cfg = cfg
		}
		c.syncPolicyFlags(cmd)
		defaultHelp(cmd, args)
	})
	root.PersistentFlags().StringVar(&c.scenePath, "scene", "", "scene file (default: megamini.json)")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "TOML config file")

	root.AddCommand(c.rigCommand())
	root.AddCommand(c.placeCommand())
	root.AddCommand(c.objectCommand())
	root.AddCommand(c.attachCommand())
	root.AddCommand(c.observerCommand())
	root.AddCommand(c.cursorCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// Attach policy flags shared by attach and place create.
const (
	flagNoReparent = "no-reparent"
	flagPrecreate  = "precreate"
)

// addPolicyFlags registers the attach policy flags. Their values are only
// read when set; otherwise the configured policy applies.
func (c *CLI) addPolicyFlags(cmd *cobra.Command, reparent bool) {
	if reparent {
		cmd.Flags().Bool(flagNoReparent, c.cfg.Attach.NoReparent, "skip objects that already have a parent")
	}
	cmd.Flags().Bool(flagPrecreate, c.cfg.Attach.PrecreateIfMissing, "create a rig if the scene has none")
}

// policy returns the configured attach policy with changed flags applied.
func (c *CLI) policy(cmd *cobra.Command) attach.Policy {
	p := c.cfg.Attach
	fs := cmd.Flags()
	if fs.Changed(flagNoReparent) {
		p.NoReparent, _ = fs.GetBool(flagNoReparent)
	}
	if fs.Changed(flagPrecreate) {
		p.PrecreateIfMissing, _ = fs.GetBool(flagPrecreate)
	}
	return p
}

// syncPolicyFlags shows the configured policy as the flags' defaults.
func (c *CLI) syncPolicyFlags(cmd *cobra.Command) {
	for name, v := range map[string]bool{
		flagNoReparent: c.cfg.Attach.NoReparent,
		flagPrecreate:  c.cfg.Attach.PrecreateIfMissing,
	} {
		if f := cmd.Flags().Lookup(name); f != nil && !f.Changed {
			f.DefValue = strconv.FormatBool(v)
		}
	}
}

// loadConfig reads the config file and environment, then registers the
// logging hooks.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.scenePath != "" {
		cfg.Scene = c.scenePath
	}
	c.cfg = cfg

	hooks := newLogHooks(c.Logger)
	observability.SetRigHooks(hooks)
	observability.SetSceneHooks(hooks)
	return nil
}

// =============================================================================
// Workspace
// =============================================================================

// workspace is a scene loaded from disk together with its rigs.
type workspace struct {
	path  string
	scene *scene.Scene
	rigs  *rig.Manager
}

// openWorkspace loads the configured scene file, starting an empty scene when
// the file does not exist yet.
func (c *CLI) openWorkspace() (*workspace, error) {
	path := c.cfg.Scene
	if err := errors.ValidateScenePath(path); err != nil {
		return nil, err
	}

	var s *scene.Scene
	if _, err := os.Stat(path); os.IsNotExist(err) {
		c.Logger.Debug("starting new scene", "path", path)
		s = scene.New(c.Logger)
	} else {
		if s, err = mmio.ImportJSON(path, c.Logger); err != nil {
			return nil, fmt.Errorf("load scene: %w", err)
		}
	}

	m := rig.NewManager(s, c.Logger)
	rigs, err := m.Load()
	if err != nil {
		return nil, fmt.Errorf("load rigs: %w", err)
	}
	c.Logger.Debug("opened scene", "path", path, "rigs", len(rigs), "objects", len(s.Objects()))
	return &workspace{path: path, scene: s, rigs: m}, nil
}

// save writes the scene back to its file.
func (w *workspace) save() error {
	if err := mmio.ExportJSON(w.scene, w.path); err != nil {
		return fmt.Errorf("save scene: %w", err)
	}
	return nil
}

// rig resolves a rig by armature name. An empty name selects the only rig in
// the scene; with no rigs it returns nil when allowNone is set.
func (w *workspace) rig(name string, allowNone bool) (*rig.Rig, error) {
	if name != "" {
		return w.rigs.Rig(name)
	}
	rigs := w.rigs.Rigs()
	switch {
	case len(rigs) == 1:
		return rigs[0], nil
	case len(rigs) == 0 && allowNone:
		return nil, nil
	case len(rigs) == 0:
		return nil, errors.New(errors.ErrCodeMissingRig, "scene has no rig; run '%s rig create' first", appName)
	}
	names := make([]string, len(rigs))
	for i, r := range rigs {
		names[i] = r.Armature
	}
	return nil, errors.New(errors.ErrCodeMissingRig, "scene has %d rigs (%s); pick one with --rig", len(rigs), strings.Join(names, ", "))
}
