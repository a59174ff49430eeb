// Package crawler assembles one source and one sink into a run
package crawler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/morikuni/failure/v2"
	"github.com/samber/lo"

	"github.com/honeycarbs/vacancy-crawler/internal/config"
	"github.com/honeycarbs/vacancy-crawler/internal/domain"
	"github.com/honeycarbs/vacancy-crawler/internal/domain/vacancy"
	"github.com/honeycarbs/vacancy-crawler/internal/domain/vacancy/sources/csvinput"
	"github.com/honeycarbs/vacancy-crawler/internal/domain/vacancy/sources/hhapi"
	"github.com/honeycarbs/vacancy-crawler/internal/storage/csvfile"
	"github.com/honeycarbs/vacancy-crawler/internal/storage/logsink"
	"github.com/honeycarbs/vacancy-crawler/internal/storage/neo4j"
	"github.com/honeycarbs/vacancy-crawler/internal/storage/postgres"
	"github.com/honeycarbs/vacancy-crawler/internal/storage/redis"
	"github.com/honeycarbs/vacancy-crawler/internal/storage/sheets"
	"github.com/honeycarbs/vacancy-crawler/pkg/logging"
)

// Sections gives access to named settings blocks; config.Config implements it
type Sections interface {
	Section(name string) config.Section
}

// SourceFactory validates a settings block and builds a source without I/O
type SourceFactory func(sec config.Section, logger *logging.Logger) (vacancy.Source, error)

// SinkFactory validates a settings block and builds a sink without I/O
type SinkFactory func(sec config.Section, logger *logging.Logger) (vacancy.Sink, error)

var sources = map[string]SourceFactory{
	"HH_API": func(sec config.Section, logger *logging.Logger) (vacancy.Source, error) {
		settings, err := hhapi.LoadSettings(sec)
		if err != nil {
			return nil, err
		}
		return hhapi.New(settings, logger)
	},
	"CSVInput": func(sec config.Section, logger *logging.Logger) (vacancy.Source, error) {
		settings, err := csvinput.LoadSettings(sec)
		if err != nil {
			return nil, err
		}
		return csvinput.New(settings, logger)
	},
}

var sinks = map[string]SinkFactory{
	"LogOutput": func(_ config.Section, logger *logging.Logger) (vacancy.Sink, error) {
		return logsink.New(logger), nil
	},
	"CSVOutput": func(sec config.Section, logger *logging.Logger) (vacancy.Sink, error) {
		settings, err := csvfile.LoadSettings(sec)
		if err != nil {
			return nil, err
		}
		return csvfile.New(settings, logger)
	},
	"PostgresOutput": func(sec config.Section, logger *logging.Logger) (vacancy.Sink, error) {
		settings, err := postgres.LoadSettings(sec)
		if err != nil {
			return nil, err
		}
		return postgres.New(settings, logger), nil
	},
	"Neo4jOutput": func(sec config.Section, logger *logging.Logger) (vacancy.Sink, error) {
		settings, err := neo4j.LoadSettings(sec)
		if err != nil {
			return nil, err
		}
		return neo4j.New(settings, logger), nil
	},
	"SheetsOutput": func(sec config.Section, logger *logging.Logger) (vacancy.Sink, error) {
		settings, err := sheets.LoadSettings(sec)
		if err != nil {
			return nil, err
		}
		return sheets.New(settings, logger), nil
	},
	"RedisOutput": func(sec config.Section, logger *logging.Logger) (vacancy.Sink, error) {
		settings, err := redis.LoadSettings(sec)
		if err != nil {
			return nil, err
		}
		return redis.New(settings, logger), nil
	},
}

// SourceNames lists the accepted DATA_SOURCE values
func SourceNames() []string {
	return sorted(lo.Keys(sources))
}

// SinkNames lists the accepted WRITER_ENGINE values
func SinkNames() []string {
	return sorted(lo.Keys(sinks))
}

// BuildSource looks up name and builds the source from the block of the same name
func BuildSource(name string, cfg Sections, logger *logging.Logger) (vacancy.Source, error) {
	factory, ok := sources[name]
	if !ok {
		return nil, unknown("data source", name, SourceNames())
	}

	source, err := factory(cfg.Section(name), logger)
	if err != nil {
		return nil, err
	}
	return source, nil
}

// BuildSink looks up name and builds the sink from the block of the same name
func BuildSink(name string, cfg Sections, logger *logging.Logger) (vacancy.Sink, error) {
	factory, ok := sinks[name]
	if !ok {
		return nil, unknown("writer engine", name, SinkNames())
	}

	sink, err := factory(cfg.Section(name), logger)
	if err != nil {
		return nil, err
	}
	return sink, nil
}

// NewSource builds the source named by DATA_SOURCE
func NewSource(cfg config.Config, logger *logging.Logger) (vacancy.Source, error) {
	return BuildSource(cfg.DataSource, cfg, logger)
}

// NewSink builds the sink named by WRITER_ENGINE
func NewSink(cfg config.Config, logger *logging.Logger) (vacancy.Sink, error) {
	return BuildSink(cfg.WriterEngine, cfg, logger)
}

func unknown(kind, name string, valid []string) error {
	return failure.New(domain.ErrConfiguration,
		failure.Message(fmt.Sprintf("Unknown %s %q, expected one of: %s", kind, name, strings.Join(valid, ", "))),
		failure.Context{"name": name},
	)
}

func sorted(names []string) []string {
	slices.Sort(names)
	return names
}
