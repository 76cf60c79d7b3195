package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/megamini/pkg/cache"
	"github.com/matzehuels/megamini/pkg/errors"
	"github.com/matzehuels/megamini/pkg/render/nodelink"
)

// Graph output formats, selected by file extension.
const (
	formatDOT = ".dot"
	formatSVG = ".svg"
	formatPDF = ".pdf"
	formatPNG = ".png"
)

// graphCommand creates the graph command for drawing evaluation graphs.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		output  string
		opts    nodelink.Options
		scale   float64
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "graph [rig]",
		Short: "Draw a rig's evaluation graph",
		Long: `Draw a rig's evaluation graph.

Nodes are channels, properties, poses and world transforms; edges show what
each value is computed from. The output format follows the file extension:
.dot, .svg, .pdf or .png. Without -o the DOT source is printed.

PDF and PNG output require librsvg (rsvg-convert).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd.Context(), firstArg(args), output, opts, scale, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (.dot, .svg, .pdf, .png)")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show evaluation rows and formulas")
	cmd.Flags().BoolVar(&opts.AllChannels, "all", false, "include channels no driver writes or reads")
	cmd.Flags().Float64Var(&scale, "png-scale", 2, "PNG scale factor")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "always re-render, ignoring cached images")
	return cmd
}

func (c *CLI) runGraph(ctx context.Context, rigName, output string, opts nodelink.Options, scale float64, noCache bool) error {
	ws, err := c.openWorkspace()
	if err != nil {
		return err
	}
	r, err := ws.rig(rigName, false)
	if err != nil {
		return err
	}
	g, err := ws.scene.Graph()
	if err != nil {
		return err
	}
	c.Logger.Debug("evaluation graph", "nodes", g.NodeCount(), "edges", g.EdgeCount())
	opts.Armature = r.Armature
	dot := nodelink.ToDOT(g, opts)

	if output == "" {
		fmt.Print(dot)
		return nil
	}

	store := c.newCache(noCache)
	defer store.Close()

	prog := newProgress(c.Logger)
	data, err := renderGraph(ctx, store, dot, output, scale)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	prog.done("Rendered graph")

	printSuccess("Graph of %s", r.Armature)
	printFile(output)
	return nil
}

// renderGraph converts DOT into the format named by output's extension.
// Rendered images are looked up in and stored to store.
func renderGraph(ctx context.Context, store cache.Cache, dot, output string, scale float64) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(output))
	var render func() ([]byte, error)
	switch ext {
	case formatDOT:
		return []byte(dot), nil
	case formatSVG:
		render = func() ([]byte, error) { return nodelink.RenderSVG(ctx, dot) }
	case formatPDF:
		render = func() ([]byte, error) { return nodelink.RenderPDF(ctx, dot) }
	case formatPNG:
		render = func() ([]byte, error) { return nodelink.RenderPNG(ctx, dot, scale) }
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported graph format %q (want .dot, .svg, .pdf or .png)", ext)
	}

	key := cache.ArtifactKey(ext, dot, scale)
	if data, hit, err := store.Get(ctx, key); err == nil && hit {
		return data, nil
	}

	spinner := newSpinnerWithContext(ctx, "Rendering graph...")
	spinner.Start()
	data, err := render()
	spinner.Stop()
	if err != nil {
		return nil, err
	}
	_ = store.Set(ctx, key, data, cache.ArtifactTTL)
	return data, nil
}

// newCache opens the artifact cache, falling back to a null cache when
// caching is disabled or no cache directory is available.
func (c *CLI) newCache(disabled bool) cache.Cache {
	if disabled {
		return cache.NewNullCache()
	}
	dir, err := cache.DefaultDir(appName)
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Debug("artifact cache unavailable", "dir", dir, "err", err)
		return cache.NewNullCache()
	}
	return fc
}
