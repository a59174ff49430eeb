// Package csvfile appends vacancies to a CSV file in the serialized row format
package csvfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/morikuni/failure/v2"
	"github.com/samber/lo"

	"github.com/honeycarbs/vacancy-crawler/internal/config"
	"github.com/honeycarbs/vacancy-crawler/internal/domain"
	"github.com/honeycarbs/vacancy-crawler/pkg/csvdialect"
	"github.com/honeycarbs/vacancy-crawler/pkg/logging"
)

// RequiredKeys must be present in the CSVOutput config section
var RequiredKeys = []string{"FILE_PATH", "CSV_DIALECT"}

type Settings struct {
	FilePath string `mapstructure:"file_path" validate:"required"`
	Dialect  string `mapstructure:"csv_dialect" validate:"required"`
}

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

// Sink appends rows that are not yet in the file. A new or empty file gets
// the full header first; an existing header decides the column order.
type Sink struct {
	settings Settings
	dialect  csvdialect.Dialect
	logger   *logging.Logger

	file   *os.File
	header []string
	index  *domain.Index
}

func New(settings Settings, logger *logging.Logger) (*Sink, error) {
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

	return &Sink{
		settings: settings,
		dialect:  d,
		logger:   logger.Named("csv_output").With("path", settings.FilePath),
	}, nil
}

func (s *Sink) Name() string {
	return "CSVOutput"
}

// Connect opens the file for appending and indexes the rows already in it
func (s *Sink) Connect(context.Context) error {
	f, err := os.OpenFile(s.settings.FilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return failure.Wrap(err, failure.WithCode(domain.ErrPersistence),
			failure.Message(fmt.Sprintf("Cannot open CSV file %s", s.settings.FilePath)),
			failure.Context{"path": s.settings.FilePath},
		)
	}

	header, existing, err := s.load(f)
	if err != nil {
		_ = f.Close()
		return err
	}

	s.file = f
	s.header = header
	s.index = domain.NewIndex(existing...)

	s.logger.Info("CSV file opened", "existing_rows", len(existing))
	return nil
}

func (s *Sink) load(f *os.File) ([]string, []domain.Vacancy, error) {
	r := s.dialect.NewReader(f)

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, failure.Wrap(err, failure.WithCode(domain.ErrMalformedInput),
			failure.Message(fmt.Sprintf("Cannot read header of %s", s.settings.FilePath)),
		)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	if unknown := lo.Without(header, domain.Columns...); len(unknown) > 0 {
		return nil, nil, failure.New(domain.ErrMalformedInput,
			failure.Message(fmt.Sprintf("Unknown columns in %s: %s", s.settings.FilePath, strings.Join(unknown, ", "))),
		)
	}

	var existing []domain.Vacancy
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, failure.Wrap(err, failure.WithCode(domain.ErrMalformedInput))
		}

		v, err := domain.DecodeRow(header, record)
		if err != nil {
			return nil, nil, err
		}
		existing = append(existing, v)
	}

	return header, existing, nil
}

// Save appends the vacancies the file does not hold yet, dropping repeats
// inside the batch as well
func (s *Sink) Save(_ context.Context, vacancies []domain.Vacancy) error {
	if s.file == nil {
		return failure.New(domain.ErrPersistence, failure.Message("CSV file is not open"))
	}

	fresh := s.index.Filter(vacancies)

	w := s.dialect.NewWriter(s.file)
	if s.header == nil {
		s.header = domain.Columns
		if err := w.Write(s.header); err != nil {
			return failure.Wrap(err, failure.WithCode(domain.ErrPersistence))
		}
	}

	for _, v := range fresh {
		if err := w.Write(domain.EncodeRowAs(v, s.header)); err != nil {
			return failure.Wrap(err, failure.WithCode(domain.ErrPersistence))
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return failure.Wrap(err, failure.WithCode(domain.ErrPersistence))
	}

	s.logger.Info("rows added", "count", len(fresh), "skipped", len(vacancies)-len(fresh))
	return nil
}

func (s *Sink) Disconnect(context.Context) error {
	if s.file == nil {
		return nil
	}

	err := s.file.Close()
	s.file = nil
	return err
}
