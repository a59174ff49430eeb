package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/honeycarbs/vacancy-crawler/internal/scheduler"
	"github.com/honeycarbs/vacancy-crawler/pkg/shutdown"
)

const shutdownTimeout = 10 * time.Second

func newScheduleCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the crawler now and then on every SCHEDULE tick",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer func() { _ = a.logger.Sync() }()

			sched, err := scheduler.New(a.cfg.Schedule, func(ctx context.Context) error {
				_, err := a.runPipeline(ctx)
				return err
			}, a.logger)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			sched.Start(ctx)

			return shutdown.Graceful(ctx, shutdownSignals, sched, shutdownTimeout, a.logger)
		},
	}
}
