package vacancy

import (
	"context"

	"github.com/honeycarbs/vacancy-crawler/internal/domain"
)

// Source is one origin of vacancy records (hh.ru API, CSV import, ...).
// A Source is used for a single connect/collect/disconnect cycle.
type Source interface {
	// e.g. "hh.ru" or "CSV Import"
	Name() string

	Connect(ctx context.Context) error

	// Collect returns every record available for the configured window
	Collect(ctx context.Context) ([]domain.Vacancy, error)

	// Disconnect releases what Connect acquired; safe to call when nothing is held
	Disconnect(ctx context.Context) error
}

// Sink persists vacancy records. Re-delivering a record whose identity is
// already stored must not create a duplicate.
type Sink interface {
	Name() string

	Connect(ctx context.Context) error

	Save(ctx context.Context, vacancies []domain.Vacancy) error

	Disconnect(ctx context.Context) error
}
