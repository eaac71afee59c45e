package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/exorcism/pkg/cover"
	"github.com/matzehuels/exorcism/pkg/esop"
	"github.com/matzehuels/exorcism/pkg/pipeline"
)

// minimizeOpts holds the flags of the minimize command.
type minimizeOpts struct {
	output   string
	outDir   string
	quality  int
	altCost  bool
	maxCubes int
	order    []string
	verify   string
	format   string
	jobs     int
	noCache  bool
	cacheURL string
	refresh  bool
	tui      bool
	stats    bool
}

// minimizeJob is one input file and, once run, its result.
type minimizeJob struct {
	path   string
	out    string
	result *pipeline.Result
}

// minimizeCommand creates the minimize command.
func (c *CLI) minimizeCommand() *cobra.Command {
	var opts minimizeOpts

	cmd := &cobra.Command{
		Use:   "minimize [file...]",
		Short: "Minimize ESOP covers",
		Long: `Minimize one or more ESOP covers given as PLA or JSON files.

With no file, or "-", the cover is read from standard input. A single
result goes to standard output unless -o is given; several inputs need
--out-dir, where each result is written next to its base name.`,
		Example: `  exorcism minimize adder.pla
  exorcism minimize -q 4 --verify auto -o adder.min.pla adder.pla
  exorcism minimize -j 8 --out-dir out/ bench/*.pla`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyMinimizeConfig(cmd, &opts)
			return c.runMinimize(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single input only)")
	cmd.Flags().StringVar(&opts.outDir, "out-dir", "", "output directory for results")
	cmd.Flags().IntVarP(&opts.quality, "quality", "q", esop.DefaultQuality, "number of heavy phases to run")
	cmd.Flags().BoolVar(&opts.altCost, "alt-cost", false, "use quantum cost instead of literal count as tie-breaker")
	cmd.Flags().IntVar(&opts.maxCubes, "max-cubes", esop.DefaultMaxCubes, "cube capacity of the minimizer")
	cmd.Flags().StringSliceVar(&opts.order, "order", nil, "group visiting order for distances 2,3,4 (min|max)")
	cmd.Flags().StringVar(&opts.verify, "verify", pipeline.DefaultVerify, "verification method (none|auto|exhaustive|bdd|sat)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", pipeline.DefaultFormat, "output format (pla|json)")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 0, "number of covers minimized in parallel")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().StringVar(&opts.cacheURL, "cache-url", "", "cache URL (file://, redis://, mongodb://, none)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results")
	cmd.Flags().BoolVar(&opts.tui, "tui", false, "show live pass progress (single input only)")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "print a per-file summary table")

	return cmd
}

// applyMinimizeConfig fills flags the user did not set from the config file.
func (c *CLI) applyMinimizeConfig(cmd *cobra.Command, opts *minimizeOpts) {
	fs := cmd.Flags()
	m := c.config.Minimize
	overrideInt(fs, "quality", &opts.quality, m.Quality)
	overrideBool(fs, "alt-cost", &opts.altCost, m.AlternateCost)
	if m.MaxCubes > 0 {
		overrideInt(fs, "max-cubes", &opts.maxCubes, m.MaxCubes)
	}
	if !fs.Changed("order") && len(m.Order) > 0 {
		opts.order = m.Order
	}
	overrideString(fs, "format", &opts.format, m.Format)
	overrideString(fs, "verify", &opts.verify, c.config.Verify.Method)
	if m.Jobs > 0 {
		overrideInt(fs, "jobs", &opts.jobs, m.Jobs)
	}
}

func (c *CLI) runMinimize(ctx context.Context, args []string, opts minimizeOpts) error {
	if len(args) == 0 {
		args = []string{"-"}
	}
	if len(args) > 1 && opts.outDir == "" {
		return fmt.Errorf("minimizing %d files requires --out-dir", len(args))
	}
	if len(args) > 1 && opts.output != "" {
		return fmt.Errorf("-o cannot be used with several inputs")
	}
	if opts.tui && len(args) > 1 {
		return fmt.Errorf("--tui supports a single input")
	}

	runner, err := c.newRunner(ctx, opts.noCache, opts.cacheURL)
	if err != nil {
		return err
	}
	defer runner.Close()

	jobs := make([]*minimizeJob, len(args))
	for i, path := range args {
		jobs[i] = &minimizeJob{path: path, out: outputPath(path, opts)}
	}

	if opts.tui {
		return c.runMinimizeTUI(ctx, runner, jobs[0], opts)
	}

	var sp *spinner
	var progress func(esop.PassStats)
	if len(jobs) == 1 {
		sp = newSpinner(ctx, "Minimizing "+displayName(jobs[0].path))
		progress = sp.pass
	} else {
		sp = newSpinner(ctx, fmt.Sprintf("Minimizing %d covers", len(jobs)))
		sp.setDetail("0 of %d done", len(jobs))
	}
	sp.start()
	defer sp.stop()

	g, ctx := errgroup.WithContext(ctx)
	if opts.jobs > 0 {
		g.SetLimit(opts.jobs)
	}
	var mu sync.Mutex // serializes stdout and the done count
	finished := 0
	for _, job := range jobs {
		g.Go(func() error {
			res, err := c.minimizeOne(ctx, runner, job.path, opts, progress)
			if err != nil {
				return fmt.Errorf("%s: %w", displayName(job.path), err)
			}
			job.result = res
			mu.Lock()
			defer mu.Unlock()
			finished++
			if len(jobs) > 1 {
				sp.setDetail("%d of %d done", finished, len(jobs))
			}
			return writeOutput(job.out, res.Output)
		})
	}
	err = g.Wait()
	sp.stop()
	if err != nil {
		return err
	}

	if opts.stats || opts.outDir != "" || opts.output != "" {
		printResults(uiOut, jobs)
	}
	return nil
}

// minimizeOne reads path and runs it through the pipeline.
func (c *CLI) minimizeOne(ctx context.Context, runner *pipeline.Runner, path string, opts minimizeOpts, progress func(esop.PassStats)) (*pipeline.Result, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}

	p := pipeline.DefaultOptions()
	p.Input = data
	p.InputFormat = cover.FormatFromPath(path)
	p.Quality = opts.quality
	p.AlternateCost = opts.altCost
	p.MaxCubes = opts.maxCubes
	p.Order = opts.order
	p.Schedule = c.config.Schedule
	p.Verbosity = c.config.Minimize.Verbosity
	p.Format = opts.format
	p.Verify = opts.verify
	p.Refresh = opts.refresh
	p.Progress = progress
	p.Logger = fileLogger(ctx, path)

	return runner.Execute(ctx, p)
}

// runMinimizeTUI minimizes a single cover while a bubbletea program shows
// the passes as they complete.
func (c *CLI) runMinimizeTUI(ctx context.Context, runner *pipeline.Runner, job *minimizeJob, opts minimizeOpts) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prog := tea.NewProgram(newPassModel(displayName(job.path)), tea.WithContext(ctx), tea.WithOutput(os.Stderr))
	go func() {
		res, err := c.minimizeOne(ctx, runner, job.path, opts, func(ps esop.PassStats) {
			prog.Send(passMsg(ps))
		})
		prog.Send(doneMsg{result: res, err: err})
	}()

	final, err := prog.Run()
	if err != nil {
		return err
	}
	m := final.(passModel)
	if m.err != nil {
		return m.err
	}
	if m.result == nil {
		return context.Canceled
	}
	job.result = m.result
	return writeOutput(job.out, m.result.Output)
}

// outputPath returns where the result for path is written; empty means
// standard output.
func outputPath(path string, opts minimizeOpts) string {
	if opts.output != "" {
		return opts.output
	}
	if opts.outDir == "" {
		return ""
	}
	base := "stdin"
	if path != "-" {
		base = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return filepath.Join(opts.outDir, base+".esop."+opts.format)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func displayName(path string) string {
	if path == "-" {
		return "stdin"
	}
	return filepath.Base(path)
}
