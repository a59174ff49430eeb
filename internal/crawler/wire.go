//go:build wireinject
// +build wireinject

package crawler

import (
	"github.com/google/wire"

	"github.com/honeycarbs/vacancy-crawler/internal/config"
	"github.com/honeycarbs/vacancy-crawler/pkg/logging"
)

// InitializeRunner builds a Runner for the configured source and sink
func InitializeRunner(cfg config.Config, logger *logging.Logger) (*Runner, error) {
	wire.Build(
		NewSource,
		NewSink,
		NewRunner,
	)

	return &Runner{}, nil
}
