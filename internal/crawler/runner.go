package crawler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/honeycarbs/vacancy-crawler/internal/domain/vacancy"
	"github.com/honeycarbs/vacancy-crawler/pkg/logging"
)

// Report summarizes one run
type Report struct {
	RunID    uuid.UUID     `json:"run_id"`
	Source   string        `json:"source"`
	Sink     string        `json:"sink"`
	Fetched  int           `json:"fetched"`
	Saved    bool          `json:"saved"`
	Duration time.Duration `json:"duration"`
}

// Runner moves the records of one source into one sink. Sources and sinks
// are single-use, so a new Runner is built for every run.
type Runner struct {
	source vacancy.Source
	sink   vacancy.Sink
	logger *logging.Logger
}

func NewRunner(source vacancy.Source, sink vacancy.Sink, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		source: source,
		sink:   sink,
		logger: logger.Named("runner"),
	}
}

// Run fetches from the source and, when anything was fetched, writes it to
// the sink. The report is filled in as far as the run got, even on error.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	started := time.Now()
	report := Report{
		RunID:  uuid.New(),
		Source: r.source.Name(),
		Sink:   r.sink.Name(),
	}
	logger := r.logger.With("run_id", report.RunID.String())

	logger.Info("run started", "source", report.Source, "sink", report.Sink)

	vacancies, err := vacancy.NewFetcher(r.source, logger).Fetch(ctx)
	if err != nil {
		report.Duration = time.Since(started)
		return report, err
	}
	report.Fetched = len(vacancies)

	if len(vacancies) == 0 {
		logger.Info("nothing to save, skipping storage")
		report.Duration = time.Since(started)
		return report, nil
	}

	if err := vacancy.NewWriter(r.sink, logger).Write(ctx, vacancies); err != nil {
		report.Duration = time.Since(started)
		return report, err
	}
	report.Saved = true
	report.Duration = time.Since(started)

	logger.Info("run finished", "fetched", report.Fetched, "duration", report.Duration)
	return report, nil
}
