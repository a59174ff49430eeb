package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/honeycarbs/vacancy-crawler/internal/mcp"
	"github.com/honeycarbs/vacancy-crawler/pkg/shutdown"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the crawler tools over MCP streamable HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer func() { _ = a.logger.Sync() }()

			srv := mcp.NewServer(a.logger, a.cfg, a.runPipeline)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			// a listener failure ends the wait below as if a signal came in
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Run()
				cancel()
			}()

			a.logger.Info("MCP server initialized and starting", "addr", srv.Addr())

			stopErr := shutdown.Graceful(ctx, shutdownSignals, srv, shutdownTimeout, a.logger)
			if err := <-errCh; err != nil {
				a.logger.Error("MCP server exited with error", "err", err)
				return err
			}

			a.logger.Info("MCP server stopped")
			return stopErr
		},
	}
}
