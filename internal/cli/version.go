package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/honeycarbs/vacancy-crawler/internal/mcp"
)

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// no config needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "crawler %s (mcp %s, %s %s/%s)\n",
				a.version, mcp.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return err
		},
	}
}
