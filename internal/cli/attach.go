package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/megamini/pkg/attach"
)

// attachCommand creates the attach command with its single and multi modes.
func (c *CLI) attachCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attach",
		Short: "Attach objects to a rig",
		Long: `Attach objects to a rig.

  single  one new place for the whole selection, starting at the observer
  multi   one new place per object, placed where the object already is

Objects that already have a parent are skipped unless --no-reparent=false.
Without a rig in the scene, one is created first unless --precreate=false.`,
	}
	cmd.AddCommand(c.attachModeCommand(attach.ModeSingle))
	cmd.AddCommand(c.attachModeCommand(attach.ModeMulti))
	return cmd
}

func (c *CLI) attachModeCommand(mode string) *cobra.Command {
	var rigName string

	cmd := &cobra.Command{
		Use:   mode + " <objects...>",
		Short: "Attach objects in " + mode + " mode",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAttach(mode, rigName, args, c.policy(cmd))
		},
	}

	cmd.Flags().StringVar(&rigName, "rig", "", "rig armature (default: the only rig)")
	c.addPolicyFlags(cmd, true)
	return cmd
}

func (c *CLI) runAttach(mode, rigName string, objects []string, policy attach.Policy) error {
	ws, err := c.openWorkspace()
	if err != nil {
		return err
	}
	r, err := ws.rig(rigName, true)
	if err != nil {
		return err
	}

	a := attach.New(ws.rigs, policy, c.Logger)
	var res *attach.Result
	if mode == attach.ModeSingle {
		res, err = a.Single(r, objects)
	} else {
		res, err = a.Multi(r, objects, ws.scene.Cursor())
	}
	if err != nil {
		return err
	}
	if err := ws.save(); err != nil {
		return err
	}

	if res.Precreated {
		printInfo("Created rig %s", StyleHighlight.Render(res.Rig.Armature))
	}
	printSuccess("Attached %d object(s) to %s", len(res.Attached), res.Rig.Armature)
	for _, p := range res.Places {
		printDetail("place %s", p.Name)
	}
	if len(res.Skipped) > 0 {
		printWarning("Skipped %s", strings.Join(res.Skipped, ", "))
	}
	return nil
}
