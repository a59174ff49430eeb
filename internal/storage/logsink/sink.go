// Package logsink writes vacancies to the application log
package logsink

import (
	"context"

	"github.com/honeycarbs/vacancy-crawler/internal/domain"
	"github.com/honeycarbs/vacancy-crawler/pkg/logging"
)

// Sink logs one line per vacancy. It holds no connection.
type Sink struct {
	logger *logging.Logger
}

func New(logger *logging.Logger) *Sink {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Sink{logger: logger.Named("log_output")}
}

func (s *Sink) Name() string {
	return "LogOutput"
}

func (s *Sink) Connect(context.Context) error {
	return nil
}

func (s *Sink) Save(_ context.Context, vacancies []domain.Vacancy) error {
	for _, v := range vacancies {
		s.logger.Info("vacancy",
			"source", v.Source,
			"id", v.SourceID,
			"name", v.Name,
			"date_published", v.DatePublished.Format(domain.DateLayout),
			"employer", v.EmployerName,
		)
	}
	return nil
}

func (s *Sink) Disconnect(context.Context) error {
	return nil
}
