// Package cli contains the crawler commands
package cli

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/morikuni/failure/v2"
	"github.com/spf13/cobra"

	"github.com/honeycarbs/vacancy-crawler/internal/config"
	"github.com/honeycarbs/vacancy-crawler/internal/crawler"
	"github.com/honeycarbs/vacancy-crawler/pkg/logging"
)

var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP}

type app struct {
	version    string
	configPath string
	verbose    bool

	cfg    config.Config
	logger *logging.Logger
}

// NewRootCommand builds the crawler command tree. Without a subcommand it
// performs a single run, same as `crawler run`.
func NewRootCommand(version string) *cobra.Command {
	a := &app{version: version}

	root := &cobra.Command{
		Use:   "crawler",
		Short: "Collect job vacancies from a source and store them in a sink",
		Long: `crawler retrieves job vacancies from one data source (hh.ru API or a CSV
file), normalizes them and writes them to one storage engine.

The source and sink are chosen by DATA_SOURCE and WRITER_ENGINE in the config
file; each one reads its settings from the block named after it.

Example usage:
  crawler                      # one run with crawler.yaml
  crawler -c prod.yaml run     # one run with another config
  crawler schedule             # run now and then on SCHEDULE
  crawler serve                # expose the MCP tools over HTTP`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.init,
		RunE:              a.runOnce,
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.DefaultPath, "config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newRunCommand(a),
		newScheduleCommand(a),
		newServeCommand(a),
		newVersionCommand(a),
	)

	return root
}

// Execute runs the command tree with the process arguments
func Execute(ctx context.Context, version string) error {
	return NewRootCommand(version).ExecuteContext(ctx)
}

// Message is the one-line form of err shown to the user
func Message(err error) string {
	if msg := failure.MessageOf(err); msg != "" {
		return msg.String()
	}
	return err.Error()
}

func (a *app) init(*cobra.Command, []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if a.verbose {
		level = "debug"
	}

	a.cfg = cfg
	a.logger = logging.New(level)
	a.logger.Debug("configuration loaded",
		"path", a.configPath,
		"data_source", cfg.DataSource,
		"writer_engine", cfg.WriterEngine,
	)

	return nil
}

// runPipeline builds a fresh Runner, since sources and sinks are single-use
func (a *app) runPipeline(ctx context.Context) (crawler.Report, error) {
	runner, err := crawler.InitializeRunner(a.cfg, a.logger)
	if err != nil {
		return crawler.Report{}, err
	}
	return runner.Run(ctx)
}

func (a *app) runOnce(cmd *cobra.Command, _ []string) error {
	defer func() { _ = a.logger.Sync() }()

	report, err := a.runPipeline(cmd.Context())
	if err != nil {
		return err
	}

	saved := "nothing saved"
	if report.Saved {
		saved = "saved to " + report.Sink
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d vacancies from %s, %s in %s\n",
		report.RunID, report.Fetched, report.Source, saved, report.Duration.Round(time.Millisecond))
	return err
}

func newRunCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the crawler once",
		Args:  cobra.NoArgs,
		RunE:  a.runOnce,
	}
}
