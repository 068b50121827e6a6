package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/metamodel/internal/web/server"
)

// newServeCommand creates the 'serve' command
func newServeCommand(opts *globalOptions) *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the metamodel over HTTP",
		Long: `Serve the metamodel over HTTP until interrupted.

The API lists specifications under /api/specs, the validation report under
/api/validation and persisted objects under /api/objects.`,
		Example: `  # Serve on the configured address
  metamodel serve

  # Serve on another port
  metamodel serve --port 9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := opts.open(cmd, true)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				a.Config.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				a.Config.Server.Port = port
			}

			cfg := server.DefaultConfig(a.Config.Server.Address(), a.Handler())
			cfg.Logger = a.Logger
			srv, err := server.New(cfg)
			if err != nil {
				a.Close()
				return err
			}
			srv.OnShutdown(func(context.Context) error { return a.Close() })

			if err := srv.Listen(); err != nil {
				a.Close()
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Serving metamodel on http://%s\n", srv.Addr())
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Listen host (overrides server.host)")
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (overrides server.port)")

	return cmd
}
