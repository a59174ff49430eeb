package vacancy

import (
	"context"
	"fmt"

	"github.com/morikuni/failure/v2"

	"github.com/honeycarbs/vacancy-crawler/internal/domain"
	"github.com/honeycarbs/vacancy-crawler/pkg/logging"
)

// Writer drives one Sink through a single save cycle
type Writer struct {
	sink   Sink
	logger *logging.Logger
	state  State
}

// NewWriter wraps sink; a nil logger discards output
func NewWriter(sink Sink, logger *logging.Logger) *Writer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Writer{
		sink:   sink,
		logger: logger.Named("writer").With("sink", sink.Name()),
	}
}

func (w *Writer) State() State {
	return w.state
}

// Write connects, saves and disconnects. Any failure is ErrPersistence;
// records the sink already accepted are not rolled back.
func (w *Writer) Write(ctx context.Context, vacancies []domain.Vacancy) error {
	if w.state != Created {
		return failure.New(domain.ErrPersistence,
			failure.Message("Writer has already been used"),
			failure.Context{"state": w.state.String()},
		)
	}

	w.logger.Info("connecting to storage")
	if err := w.sink.Connect(ctx); err != nil {
		w.logger.Error("failed to connect to storage", "err", err)
		return failure.Wrap(err, failure.WithCode(domain.ErrPersistence),
			failure.Message(fmt.Sprintf("Cannot connect to storage %s", w.sink.Name())),
			failure.Context{"sink": w.sink.Name()},
		)
	}
	w.state = Connected

	defer w.disconnect(ctx)

	w.state = Saving
	if err := w.sink.Save(ctx, vacancies); err != nil {
		w.logger.Error("failed to save vacancies", "err", err)
		return failure.Wrap(err, failure.WithCode(domain.ErrPersistence),
			failure.Message(fmt.Sprintf("Cannot save vacancies to %s", w.sink.Name())),
			failure.Context{"sink": w.sink.Name()},
		)
	}

	w.logger.Info("vacancies saved", "count", len(vacancies))
	return nil
}

func (w *Writer) disconnect(ctx context.Context) {
	if err := w.sink.Disconnect(context.WithoutCancel(ctx)); err != nil {
		w.logger.Error("failed to disconnect from storage", "err", err)
	}
	w.state = Disconnected
}
