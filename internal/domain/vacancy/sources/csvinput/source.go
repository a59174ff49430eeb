// Package csvinput imports vacancies from a local CSV file written in the
// serialized row format.
package csvinput

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/morikuni/failure/v2"
	"github.com/samber/lo"

	"github.com/honeycarbs/vacancy-crawler/internal/config"
	"github.com/honeycarbs/vacancy-crawler/internal/domain"
	"github.com/honeycarbs/vacancy-crawler/pkg/csvdialect"
	"github.com/honeycarbs/vacancy-crawler/pkg/logging"
)

// SourceName replaces the source of every imported record
const SourceName = "CSV Import"

// RequiredKeys must be present in the CSVInput config section
var RequiredKeys = []string{"FILE_PATH", "CSV_DIALECT"}

type Settings struct {
	FilePath string `mapstructure:"file_path" validate:"required"`
	Dialect  string `mapstructure:"csv_dialect" validate:"required"`
}

// LoadSettings validates sec
func LoadSettings(sec config.Section) (Settings, error) {
	if err := sec.Require(RequiredKeys...); err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := sec.Decode(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Source reads one CSV file per cycle
type Source struct {
	settings Settings
	dialect  csvdialect.Dialect
	logger   *logging.Logger
	file     *os.File
}

func New(settings Settings, logger *logging.Logger) (*Source, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	d, err := csvdialect.Lookup(settings.Dialect)
	if err != nil {
		return nil, failure.Wrap(err, failure.WithCode(domain.ErrConfiguration),
			failure.Message(fmt.Sprintf("Unknown CSV_DIALECT %q, expected one of: %s",
				settings.Dialect, strings.Join(csvdialect.Names(), ", "))),
		)
	}

	return &Source{
		settings: settings,
		dialect:  d,
		logger:   logger.Named("csv_input").With("path", settings.FilePath),
	}, nil
}

func (s *Source) Name() string {
	return SourceName
}

func (s *Source) Connect(context.Context) error {
	s.logger.Info("opening CSV file for import")

	f, err := os.Open(s.settings.FilePath)
	if err != nil {
		return failure.Wrap(err, failure.WithCode(domain.ErrRetrieval),
			failure.Message(fmt.Sprintf("Cannot open CSV file %s", s.settings.FilePath)),
			failure.Context{"path": s.settings.FilePath},
		)
	}

	s.file = f
	return nil
}

// Collect decodes every row after the header. An unknown column, a row of the
// wrong width or an unconvertible value is ErrMalformedInput and nothing is
// returned.
func (s *Source) Collect(ctx context.Context) ([]domain.Vacancy, error) {
	if s.file == nil {
		return nil, failure.New(domain.ErrRetrieval, failure.Message("CSV file is not open"))
	}

	r := s.dialect.NewReader(s.file)

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		s.logger.Info("CSV file is empty")
		return nil, nil
	}
	if err != nil {
		return nil, malformed(err, 1)
	}

	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	if unknown := lo.Without(header, domain.Columns...); len(unknown) > 0 {
		return nil, failure.New(domain.ErrMalformedInput,
			failure.Message(fmt.Sprintf("Unknown CSV columns: %s", strings.Join(unknown, ", "))),
			failure.Context{"path": s.settings.FilePath},
		)
	}

	var batch []domain.Vacancy
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed(err, line)
		}

		v, err := domain.DecodeRow(header, record)
		if err != nil {
			return nil, malformed(err, line)
		}
		v.Source = SourceName

		batch = append(batch, v)
	}

	s.logger.Info("data import completed", "count", len(batch))
	return batch, nil
}

func (s *Source) Disconnect(context.Context) error {
	if s.file == nil {
		return nil
	}

	err := s.file.Close()
	s.file = nil
	return err
}

func malformed(err error, line int) error {
	return failure.Wrap(err, failure.WithCode(domain.ErrMalformedInput),
		failure.Message(fmt.Sprintf("Malformed CSV row at line %d", line)),
		failure.Context{"line": strconv.Itoa(line)},
	)
}
