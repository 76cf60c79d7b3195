package cli

import (
	"github.com/spf13/cobra"
)

// observerCommand creates the observer command group.
func (c *CLI) observerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "observer",
		Short: "Move a rig's observer",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "move <rig> <x,y,z>",
		Short: "Move the observer to an actual-space location",
		Long: `Move the observer to an actual-space location.

Every place of the rig is re-scaled and re-positioned for the new viewpoint.
Prefix negative coordinates with --, e.g. "observer move MegaMini -- -5,0,0".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := parseVec(args[1])
			if err != nil {
				return err
			}
			ws, err := c.openWorkspace()
			if err != nil {
				return err
			}
			r, err := ws.rig(args[0], false)
			if err != nil {
				return err
			}
			if err := ws.rigs.MoveObserver(r, loc); err != nil {
				return err
			}
			if err := ws.save(); err != nil {
				return err
			}
			printSuccess("Observer of %s at %s", r.Armature, fmtVec(loc))
			return nil
		},
	})
	return cmd
}

// cursorCommand creates the cursor command group.
func (c *CLI) cursorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cursor",
		Short: "Manage the 3D cursor",
		Long: `Manage the 3D cursor.

New rigs are created at the cursor, and multi attach measures object
locations relative to it.`,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <x,y,z>",
		Short: "Move the 3D cursor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := parseVec(args[0])
			if err != nil {
				return err
			}
			ws, err := c.openWorkspace()
			if err != nil {
				return err
			}
			ws.scene.SetCursor(loc)
			if err := ws.save(); err != nil {
				return err
			}
			printSuccess("Cursor at %s", fmtVec(loc))
			return nil
		},
	})
	return cmd
}
