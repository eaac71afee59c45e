package cli

import (
	stderrors "errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/exorcism/pkg/cover"
	"github.com/matzehuels/exorcism/pkg/errors"
	"github.com/matzehuels/exorcism/pkg/verify"
)

// verifyOpts holds the flags of the verify command.
type verifyOpts struct {
	method   string
	noCache  bool
	cacheURL string
}

// verifyCommand creates the verify command.
func (c *CLI) verifyCommand() *cobra.Command {
	var opts verifyOpts

	cmd := &cobra.Command{
		Use:   "verify <a> <b>",
		Short: "Check two covers for equivalence",
		Long: `Check that two covers compute the same multi-output function.

On a mismatch the command prints an input assignment and the outputs on
which the covers differ, and exits with a non-zero status.`,
		Example: `  exorcism verify adder.pla adder.min.pla
  exorcism verify --method sat big.pla big.min.pla`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if m := c.config.Verify.Method; m != string(verify.None) {
				overrideString(cmd.Flags(), "method", &opts.method, m)
			}
			return c.runVerify(cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.method, "method", "m", string(verify.Auto), "verification method (auto|exhaustive|bdd|sat)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the verdict cache")
	cmd.Flags().StringVar(&opts.cacheURL, "cache-url", "", "cache URL (file://, redis://, mongodb://, none)")

	return cmd
}

func (c *CLI) runVerify(cmd *cobra.Command, pathA, pathB string, opts verifyOpts) error {
	ctx := cmd.Context()
	m, err := verify.ParseMethod(opts.method)
	if err != nil {
		return err
	}
	if m == verify.None {
		printWarning("method none does not check anything, using auto")
		m = verify.Auto
	}

	a, err := readCover(pathA)
	if err != nil {
		return err
	}
	b, err := readCover(pathB)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache, opts.cacheURL)
	if err != nil {
		return err
	}
	defer runner.Close()

	resolved := m.Resolve(a.Inputs)
	st := startStage(fileLogger(ctx, pathA), "checked equivalence")
	sp := newSpinner(ctx, fmt.Sprintf("Checking equivalence (%s)", resolved))
	sp.setDetail("%d and %d cubes over %d inputs", a.Len(), b.Len(), a.Inputs)
	sp.start()
	cached, err := runner.Verify(ctx, a, b, m)
	if err != nil {
		var mm *verify.Mismatch
		if !stderrors.As(err, &mm) {
			sp.stop()
			return err
		}
		sp.fail(fmt.Sprintf("Covers differ (%s)", resolved))
		printDetail("%s", mm.Error())
		return err
	}
	st.done("against", displayName(pathB), "method", resolved, "cached", cached)
	sp.succeed(fmt.Sprintf("Covers are equivalent (%s)", resolved))
	printStats(a.Len(), 0, cached)
	return nil
}

// readCover reads and validates the cover at path ("-" for stdin).
func readCover(path string) (*cover.Cover, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	c, err := cover.Decode(data, cover.FormatFromPath(path))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "reading %s", displayName(path))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
