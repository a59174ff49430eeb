package vacancy

import (
	"context"
	"fmt"

	"github.com/morikuni/failure/v2"

	"github.com/honeycarbs/vacancy-crawler/internal/domain"
	"github.com/honeycarbs/vacancy-crawler/pkg/logging"
)

// State of a Fetcher or Writer
type State int

const (
	Created State = iota
	Connected
	Collecting
	Saving
	Disconnected
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Connected:
		return "connected"
	case Collecting:
		return "collecting"
	case Saving:
		return "saving"
	case Disconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Fetcher drives one Source through a single retrieval cycle
type Fetcher struct {
	source Source
	logger *logging.Logger
	state  State
}

// NewFetcher wraps source; a nil logger discards output
func NewFetcher(source Source, logger *logging.Logger) *Fetcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Fetcher{
		source: source,
		logger: logger.Named("fetcher").With("source", source.Name()),
	}
}

func (f *Fetcher) State() State {
	return f.state
}

// Fetch connects, collects and disconnects. A failed connect is ErrRetrieval
// and Disconnect is not called. Once connected, Disconnect always runs, even
// when Collect panics. A Collect error is logged and reported as no data.
func (f *Fetcher) Fetch(ctx context.Context) ([]domain.Vacancy, error) {
	if f.state != Created {
		return nil, failure.New(domain.ErrRetrieval,
			failure.Message("Fetcher has already been used"),
			failure.Context{"state": f.state.String()},
		)
	}

	f.logger.Info("connecting to data source")
	if err := f.source.Connect(ctx); err != nil {
		f.logger.Error("failed to connect to data source", "err", err)
		return nil, failure.Wrap(err, failure.WithCode(domain.ErrRetrieval),
			failure.Message(fmt.Sprintf("Cannot connect to data source %s", f.source.Name())),
			failure.Context{"source": f.source.Name()},
		)
	}
	f.state = Connected

	defer f.disconnect(ctx)

	f.state = Collecting
	vacancies, err := f.source.Collect(ctx)
	if err != nil {
		f.logger.Error("failed to collect vacancies", "err", err)
		return nil, nil
	}

	f.logger.Info("vacancies collected", "count", len(vacancies))
	return vacancies, nil
}

func (f *Fetcher) disconnect(ctx context.Context) {
	if err := f.source.Disconnect(context.WithoutCancel(ctx)); err != nil {
		f.logger.Error("failed to disconnect from data source", "err", err)
	}
	f.state = Disconnected
}
