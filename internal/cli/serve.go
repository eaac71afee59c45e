package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/exorcism/internal/server"
)

// serveOpts holds the flags of the serve command.
type serveOpts struct {
	addr     string
	maxBody  int64
	noCache  bool
	cacheURL string
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the minimizer over HTTP until interrupted.

Endpoints: POST /v1/minimize, /v1/verify, /v1/stats and /v1/graph,
GET /healthz and the Prometheus metrics at GET /metrics.`,
		Example: `  exorcism serve --addr :9000 --cache-url redis://localhost:6379/0`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			overrideString(fs, "addr", &opts.addr, c.config.Server.Addr)
			if !fs.Changed("max-body") && c.config.Server.MaxBodyBytes > 0 {
				opts.maxBody = c.config.Server.MaxBodyBytes
			}

			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, opts.noCache, opts.cacheURL)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(runner, loggerFromContext(ctx), server.Config{
				Addr:         opts.addr,
				MaxBodyBytes: opts.maxBody,
			})
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().Int64Var(&opts.maxBody, "max-body", server.DefaultMaxBodyBytes, "maximum request body size in bytes")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().StringVar(&opts.cacheURL, "cache-url", "", "cache URL (file://, redis://, mongodb://, none)")

	return cmd
}
