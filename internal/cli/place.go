package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/megamini/pkg/errors"
	"github.com/matzehuels/megamini/pkg/rig"
	"github.com/matzehuels/megamini/pkg/scene"
)

// placeCommand creates the place command group.
func (c *CLI) placeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "place",
		Short: "Add or remove places of a rig",
	}
	cmd.AddCommand(c.placeCreateCommand())
	cmd.AddCommand(c.placeDestroyCommand())
	cmd.AddCommand(c.placeScaleCommand())
	return cmd
}

func (c *CLI) placeCreateCommand() *cobra.Command {
	var (
		rigName    string
		at         vecValue
		noObserver bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a place to a rig",
		Long: `Add a place to a rig.

By default the new place starts at the observer. Use --at to start it at an
actual-space location, or --no-observer to start it at the proxy origin.
Without a rig in the scene, one is created first unless --precreate=false.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := rig.PlaceOptions{Location: at.ptr(), UseObserverLocation: !noObserver && !at.set}
			return c.runPlaceCreate(rigName, opts, c.policy(cmd).PrecreateIfMissing)
		},
	}

	cmd.Flags().StringVar(&rigName, "rig", "", "rig armature (default: the only rig)")
	cmd.Flags().Var(&at, "at", "actual-space start location")
	cmd.Flags().BoolVar(&noObserver, "no-observer", false, "start at the proxy origin instead of the observer")
	cmd.MarkFlagsMutuallyExclusive("at", "no-observer")
	c.addPolicyFlags(cmd, false)
	return cmd
}

// runPlaceCreate adds a place, first creating a rig with the configured
// defaults when the scene has none and precreate is allowed.
func (c *CLI) runPlaceCreate(rigName string, opts rig.PlaceOptions, precreate bool) error {
	ws, err := c.openWorkspace()
	if err != nil {
		return err
	}
	r, err := ws.rig(rigName, precreate)
	if err != nil {
		return err
	}
	var created bool
	if r == nil {
		if r, err = ws.rigs.CreateRig(c.cfg.Rig); err != nil {
			return err
		}
		created = true
	}

	p, err := ws.rigs.CreatePlace(r, opts)
	if err != nil {
		if created {
			if rbErr := ws.rigs.DestroyRig(r); rbErr != nil {
				c.Logger.Warn("rollback failed", "rig", r.Armature, "err", rbErr)
			}
		}
		return err
	}
	if err := ws.save(); err != nil {
		return err
	}

	if created {
		printInfo("Created rig %s", StyleHighlight.Render(r.Armature))
	}
	printSuccess("Created place %s on %s", StyleHighlight.Render(p.Name), r.Armature)
	return nil
}

func (c *CLI) placeDestroyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "destroy <rig> <place>",
		Short: "Remove a place and its proxy frames",
		Long: `Remove a place and its proxy frames.

Objects parented to the place keep their world transform.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.openWorkspace()
			if err != nil {
				return err
			}
			r, err := ws.rig(args[0], false)
			if err != nil {
				return err
			}
			p, ok := r.Place(args[1])
			if !ok {
				return errors.New(errors.ErrCodeMissingFrame, "rig %s has no place %q", r.Armature, args[1])
			}
			if err := ws.rigs.DestroyPlace(p); err != nil {
				return err
			}
			if err := ws.save(); err != nil {
				return err
			}
			printSuccess("Destroyed place %s", p.Name)
			return nil
		},
	}
}

func (c *CLI) placeScaleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scale <rig> <place> <multiplier>",
		Short: "Set a place's scale multiplier",
		Long: `Set a place's scale multiplier.

The multiplier is the place's scale when its focus sits on the observer; the
falloff with distance divides it.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidParameter, err, "multiplier %q", args[2])
			}
			ws, err := c.openWorkspace()
			if err != nil {
				return err
			}
			r, err := ws.rig(args[0], false)
			if err != nil {
				return err
			}
			p, ok := r.Place(args[1])
			if !ok {
				return errors.New(errors.ErrCodeMissingFrame, "rig %s has no place %q", r.Armature, args[1])
			}
			if err := ws.rigs.SetScaleMultiplier(p, v); err != nil {
				return err
			}
			if err := ws.save(); err != nil {
				return err
			}
			printSuccess("Scale multiplier of %s set to %s", StyleHighlight.Render(p.Name), fmtFloat(v))
			return nil
		},
	}
}

// objectCommand creates the object command group.
func (c *CLI) objectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "object",
		Short: "Manage scene objects",
	}
	cmd.AddCommand(c.objectAddCommand())
	return cmd
}

func (c *CLI) objectAddCommand() *cobra.Command {
	var (
		at     vecValue
		parent string
		hidden bool
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an object to the scene",
		Long: `Add an object to the scene.

If the name is taken, a numeric suffix is appended (House, House.001, ...).
With --parent the object is parented to another object, keeping its world
location.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateName(args[0]); err != nil {
				return err
			}
			ws, err := c.openWorkspace()
			if err != nil {
				return err
			}
			name, err := ws.scene.AddObject(scene.ObjectSpec{Name: args[0], Location: at.v, Hidden: hidden})
			if err != nil {
				return err
			}
			if parent != "" {
				if err := ws.scene.ParentToObject(name, parent); err != nil {
					return errors.Wrap(errors.ErrCodeMissingObject, err, "parent %s", parent)
				}
			}
			if err := ws.save(); err != nil {
				return err
			}
			printSuccess("Added object %s at %s", StyleHighlight.Render(name), fmtVec(at.v))
			return nil
		},
	}

	cmd.Flags().Var(&at, "at", "world location")
	cmd.Flags().StringVar(&parent, "parent", "", "parent object")
	cmd.Flags().BoolVar(&hidden, "hidden", false, "hide the object")
	return cmd
}
