package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/exorcism/pkg/render"
)

// graphOpts holds the flags of the graph command.
type graphOpts struct {
	output   string
	format   string
	maxDist  int
	detailed bool
	noCache  bool
	cacheURL string
}

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	var opts graphOpts

	cmd := &cobra.Command{
		Use:   "graph [file]",
		Short: "Render the cube adjacency graph of a cover",
		Long: `Render the cubes of a cover as nodes joined by edges for every pair at
distance 1 up to --max-distance. Distance-2 pairs are what the minimizer
rewrites first, so dense graphs usually shrink well.

The format follows the extension of -o unless --format is given.`,
		Example: `  exorcism graph adder.pla -o adder.svg
  exorcism graph --max-distance 3 --format dot adder.pla`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return c.runGraph(cmd, path, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format (dot|svg|png)")
	cmd.Flags().IntVar(&opts.maxDist, "max-distance", render.DefaultMaxDistance, "largest cube distance drawn as an edge (1-4)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "add literal counts and outputs to node labels")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")
	cmd.Flags().StringVar(&opts.cacheURL, "cache-url", "", "cache URL (file://, redis://, mongodb://, none)")

	return cmd
}

func (c *CLI) runGraph(cmd *cobra.Command, path string, opts graphOpts) error {
	ctx := cmd.Context()
	format := opts.format
	if format == "" {
		format = graphFormat(opts.output)
	}
	if opts.maxDist == 0 {
		opts.maxDist = render.DefaultMaxDistance
	}
	ropts := render.Options{MaxDistance: opts.maxDist, Detailed: opts.detailed}
	if err := render.ValidateOptions(format, ropts); err != nil {
		return err
	}

	cv, err := readCover(path)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache, opts.cacheURL)
	if err != nil {
		return err
	}
	defer runner.Close()

	st := startStage(fileLogger(ctx, path), "rendered adjacency graph")
	sp := newSpinner(ctx, fmt.Sprintf("Rendering %s", strings.ToUpper(format)))
	sp.setDetail("%d cubes", cv.Len())
	sp.start()
	data, cached, err := runner.Graph(ctx, cv, format, ropts)
	sp.stop()
	if sp.cancelled() && err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return err
	}

	if err := writeOutput(opts.output, data); err != nil {
		return err
	}
	if opts.output != "" {
		st.done("format", format, "bytes", len(data), "cached", cached)
		printFile(opts.output)
		printStats(cv.Len(), len(render.Edges(cv, opts.maxDist)), cached)
	}
	return nil
}

// graphFormat derives the format from the output extension, DOT by default.
func graphFormat(output string) string {
	switch strings.ToLower(filepath.Ext(output)) {
	case ".svg":
		return render.FormatSVG
	case ".png":
		return render.FormatPNG
	}
	return render.FormatDOT
}
