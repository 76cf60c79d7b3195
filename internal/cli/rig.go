package cli

import (
	"fmt"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gonum.org/v1/gonum/floats"

	"github.com/matzehuels/megamini/pkg/perspective"
	"github.com/matzehuels/megamini/pkg/rig"
)

// rigCommand creates the rig command group.
func (c *CLI) rigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rig",
		Short: "Create, list, inspect and destroy rigs",
	}
	cmd.AddCommand(c.rigCreateCommand())
	cmd.AddCommand(c.rigUpdateCommand())
	cmd.AddCommand(c.rigListCommand())
	cmd.AddCommand(c.rigInspectCommand())
	cmd.AddCommand(c.rigDestroyCommand())
	return cmd
}

// addParamFlags registers the rig parameter flags. Values only apply when
// the flag is given; see applyParamFlags.
func addParamFlags(fs *pflag.FlagSet) {
	fs.Float64("scale", perspective.DefaultScale, "actual-to-proxy distance ratio (> 0)")
	fs.Float64("fp-power", perspective.DefaultPower, "falloff exponent, 0 disables falloff")
	fs.Float64("fp-min-dist", perspective.DefaultMinDist, "distance below which no falloff applies")
	fs.Float64("fp-min-scale", perspective.DefaultMinScale, "lower bound of the place scale")
}

// applyParamFlags copies every parameter flag the user set into p.
func applyParamFlags(fs *pflag.FlagSet, p *perspective.Params) error {
	targets := []struct {
		flag string
		dst  *float64
	}{
		{"scale", &p.Scale},
		{"fp-power", &p.Power},
		{"fp-min-dist", &p.MinDist},
		{"fp-min-scale", &p.MinScale},
	}
	for _, t := range targets {
		if !fs.Changed(t.flag) {
			continue
		}
		v, err := fs.GetFloat64(t.flag)
		if err != nil {
			return err
		}
		*t.dst = v
	}
	return nil
}

func (c *CLI) rigCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a rig at the 3D cursor",
		Long: `Create a rig at the 3D cursor.

Parameters default to the [rig] section of the config file and MEGAMINI_*
environment variables; flags override both.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params := c.cfg.Rig
			if err := applyParamFlags(cmd.Flags(), &params); err != nil {
				return err
			}
			return c.runRigCreate(params)
		},
	}
	addParamFlags(cmd.Flags())
	return cmd
}

func (c *CLI) runRigCreate(params perspective.Params) error {
	ws, err := c.openWorkspace()
	if err != nil {
		return err
	}
	r, err := ws.rigs.CreateRig(params)
	if err != nil {
		return err
	}
	if err := ws.save(); err != nil {
		return err
	}

	printSuccess("Created rig %s", StyleHighlight.Render(r.Armature))
	printDetail("scale %s · power %s · id %s", fmtFloat(params.Scale), fmtFloat(params.Power), r.ID)
	printFile(ws.path)
	printNewline()
	printNextStep("Attach objects", appName+" attach multi <objects...>")
	return nil
}

func (c *CLI) rigUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <rig>",
		Short: "Change the parameters of an existing rig",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.openWorkspace()
			if err != nil {
				return err
			}
			r, err := ws.rig(args[0], false)
			if err != nil {
				return err
			}
			params, err := ws.rigs.Params(r)
			if err != nil {
				return err
			}
			if err := applyParamFlags(cmd.Flags(), &params); err != nil {
				return err
			}
			if err := ws.rigs.UpdateParams(r, params); err != nil {
				return err
			}
			if err := ws.save(); err != nil {
				return err
			}
			printSuccess("Updated rig %s", StyleHighlight.Render(r.Armature))
			return nil
		},
	}
	addParamFlags(cmd.Flags())
	return cmd
}

func (c *CLI) rigListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the rigs in the scene",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.openWorkspace()
			if err != nil {
				return err
			}
			rigs := ws.rigs.Rigs()
			if len(rigs) == 0 {
				printInfo("No rigs in %s", ws.path)
				printNextStep("Create one", appName+" rig create")
				return nil
			}

			t := newTable("Rig", "Places", "Scale", "Power", "Min dist", "Min scale")
			for _, r := range rigs {
				p, err := ws.rigs.Params(r)
				if err != nil {
					return err
				}
				t.Row(r.Armature, strconv.Itoa(len(r.Places)),
					fmtFloat(p.Scale), fmtFloat(p.Power), fmtFloat(p.MinDist), fmtFloat(p.MinScale))
			}
			fmt.Println(t.Render())
			return nil
		},
	}
}

func (c *CLI) rigInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [rig]",
		Short: "Show a rig's parameters, observer and places",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.openWorkspace()
			if err != nil {
				return err
			}
			r, err := ws.rig(firstArg(args), false)
			if err != nil {
				return err
			}
			report, err := inspectRig(ws, r)
			if err != nil {
				return err
			}
			printRigReport(report)
			return nil
		},
	}
}

func (c *CLI) rigDestroyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "destroy <rig>",
		Short: "Remove a rig with its frames and widgets",
		Long: `Remove a rig with its frames and widgets.

Objects attached to the rig's places stay in the scene where they are.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.openWorkspace()
			if err != nil {
				return err
			}
			r, err := ws.rig(args[0], false)
			if err != nil {
				return err
			}
			if err := ws.rigs.DestroyRig(r); err != nil {
				return err
			}
			if err := ws.save(); err != nil {
				return err
			}
			printSuccess("Destroyed rig %s", r.Armature)
			return nil
		},
	}
}

// =============================================================================
// Inspection
// =============================================================================

// rigReport is a snapshot of a rig for display.
type rigReport struct {
	Rig           string
	ID            string
	Params        perspective.Params
	Observer      mgl64.Vec3
	ProxyObserver mgl64.Vec3
	Places        []placeReport
}

// placeReport describes one place of a rig.
type placeReport struct {
	Name     string
	Proxy    mgl64.Vec3 // ProxyPlaceFocus pose
	Distance float64    // proxy-space distance to the ProxyObserver
	Mult     float64 // scale multiplier
	Scale    float64
	World    mgl64.Vec3
	Objects  []string
}

// inspectRig evaluates the scene and collects the rig's current state.
func inspectRig(ws *workspace, r *rig.Rig) (rigReport, error) {
	s := ws.scene
	if err := s.Evaluate(); err != nil {
		return rigReport{}, err
	}
	params, err := ws.rigs.Params(r)
	if err != nil {
		return rigReport{}, err
	}
	rep := rigReport{Rig: r.Armature, ID: r.ID, Params: params}

	obs, err := s.LocalTransform(r.Armature, string(rig.RoleObserver))
	if err != nil {
		return rigReport{}, err
	}
	rep.Observer = obs.Location
	if rep.ProxyObserver, err = s.PosePosition(r.Armature, string(rig.RoleProxyObserver)); err != nil {
		return rigReport{}, err
	}

	for _, p := range r.Places {
		pr := placeReport{Name: p.Name}
		if pr.Proxy, err = s.PosePosition(r.Armature, p.ProxyPlaceFocus); err != nil {
			return rigReport{}, err
		}
		pr.Distance = floats.Distance(pr.Proxy[:], rep.ProxyObserver[:], 2)
		if pr.Mult, err = ws.rigs.ScaleMultiplier(p); err != nil {
			return rigReport{}, err
		}
		local, err := s.LocalTransform(r.Armature, p.Name)
		if err != nil {
			return rigReport{}, err
		}
		pr.Scale = local.Scale[0]
		if pr.World, err = s.WorldPosition(r.Armature, p.Name); err != nil {
			return rigReport{}, err
		}
		for _, obj := range s.Objects() {
			if parent, ok := s.ObjectParent(obj); ok && parent.Armature == r.Armature && parent.Frame == p.Name {
				pr.Objects = append(pr.Objects, obj)
			}
		}
		rep.Places = append(rep.Places, pr)
	}
	return rep, nil
}

// scaleRange returns the smallest and largest place scale.
func (r rigReport) scaleRange() (lo, hi float64, ok bool) {
	if len(r.Places) == 0 {
		return 0, 0, false
	}
	scales := make([]float64, len(r.Places))
	for i, p := range r.Places {
		scales[i] = p.Scale
	}
	return floats.Min(scales), floats.Max(scales), true
}

func printRigReport(r rigReport) {
	fmt.Println(StyleTitle.Render(r.Rig))
	printKeyValue("id", r.ID)
	printKeyValue("scale", fmtFloat(r.Params.Scale))
	printKeyValue("fp_power", fmtFloat(r.Params.Power))
	printKeyValue("fp_min_dist", fmtFloat(r.Params.MinDist))
	printKeyValue("fp_min_scale", fmtFloat(r.Params.MinScale))
	printKeyValue("observer", fmtVec(r.Observer))
	printKeyValue("proxy observer", fmtVec(r.ProxyObserver))
	printNewline()

	if len(r.Places) == 0 {
		printInfo("No places yet")
		return
	}
	t := newTable("Place", "Proxy focus", "Distance", "Multiplier", "Scale", "World", "Objects")
	for _, p := range r.Places {
		t.Row(p.Name, fmtVec(p.Proxy), fmtFloat(p.Distance), fmtFloat(p.Mult), fmtFloat(p.Scale), fmtVec(p.World), strconv.Itoa(len(p.Objects)))
	}
	fmt.Println(t.Render())
	if lo, hi, ok := r.scaleRange(); ok {
		printDetail("scale range %s … %s", fmtFloat(lo), fmtFloat(hi))
	}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
