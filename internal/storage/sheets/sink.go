// Package sheets appends vacancies to a Google Sheets range
package sheets

import (
	"context"
	"fmt"

	"github.com/morikuni/failure/v2"
	"github.com/samber/lo"

	"github.com/honeycarbs/vacancy-crawler/internal/config"
	"github.com/honeycarbs/vacancy-crawler/internal/domain"
	"github.com/honeycarbs/vacancy-crawler/pkg/logging"

	sheetsclient "github.com/honeycarbs/vacancy-crawler/pkg/sheets"
)

// RequiredKeys must be present in the SheetsOutput config section
var RequiredKeys = []string{"CREDENTIALS_FILE", "SPREADSHEET_ID"}

// ChunkSize is the most rows sent in one append call
const ChunkSize = 500

type Settings struct {
	CredentialsFile string `mapstructure:"credentials_file" validate:"required"`
	SpreadsheetID   string `mapstructure:"spreadsheet_id" validate:"required"`
	Range           string `mapstructure:"range"`
}

func LoadSettings(sec config.Section) (Settings, error) {
	if err := sec.Require(RequiredKeys...); err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := sec.Decode(&s); err != nil {
		return Settings{}, err
	}

	if s.Range == "" {
		s.Range = "Sheet1"
	}
	return s, nil
}

// Values is the part of the Sheets client the sink uses
type Values interface {
	GetValues(ctx context.Context, spreadsheetID, range_ string) ([][]interface{}, error)
	AppendValues(ctx context.Context, spreadsheetID, range_ string, values [][]interface{}) error
}

// Connector opens a Values client
type Connector func(ctx context.Context, cfg sheetsclient.Config) (Values, error)

// Option configures Sink
type Option func(*Sink)

// WithConnector replaces the Google API connector
func WithConnector(c Connector) Option {
	return func(s *Sink) {
		s.connect = c
	}
}

// Sink keeps one vacancy per row under a header row
type Sink struct {
	settings Settings
	connect  Connector
	logger   *logging.Logger

	values Values
	header []string
	index  *domain.Index
}

func New(settings Settings, logger *logging.Logger, opts ...Option) *Sink {
	if logger == nil {
		logger = logging.NewNop()
	}

	s := &Sink{
		settings: settings,
		connect:  connectAPI,
		logger:   logger.Named("sheets_output").With("spreadsheet", settings.SpreadsheetID),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func connectAPI(ctx context.Context, cfg sheetsclient.Config) (Values, error) {
	client, err := sheetsclient.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (s *Sink) Name() string {
	return "SheetsOutput"
}

// Connect reads the sheet so rows already present are not appended again
func (s *Sink) Connect(ctx context.Context) error {
	values, err := s.connect(ctx, sheetsclient.Config{CredentialsPath: s.settings.CredentialsFile})
	if err != nil {
		return failure.Wrap(err, failure.WithCode(domain.ErrPersistence),
			failure.Message("Cannot create Google Sheets client"),
		)
	}

	rows, err := values.GetValues(ctx, s.settings.SpreadsheetID, s.settings.Range)
	if err != nil {
		return failure.Wrap(err, failure.WithCode(domain.ErrPersistence),
			failure.Message(fmt.Sprintf("Cannot read spreadsheet %s", s.settings.SpreadsheetID)),
		)
	}

	header, existing, err := decodeSheet(rows)
	if err != nil {
		return err
	}

	s.values = values
	s.header = header
	s.index = domain.NewIndex(existing...)

	s.logger.Info("spreadsheet loaded", "existing_rows", len(existing))
	return nil
}

func decodeSheet(rows [][]interface{}) ([]string, []domain.Vacancy, error) {
	if len(rows) == 0 {
		return nil, nil, nil
	}

	header := cells(rows[0], len(rows[0]))
	if unknown := lo.Without(header, domain.Columns...); len(unknown) > 0 {
		return nil, nil, failure.New(domain.ErrMalformedInput,
			failure.Message(fmt.Sprintf("Unknown spreadsheet columns: %v", unknown)),
		)
	}

	existing := make([]domain.Vacancy, 0, len(rows)-1)
	for _, row := range rows[1:] {
		v, err := domain.DecodeRow(header, cells(row, len(header)))
		if err != nil {
			return nil, nil, err
		}
		existing = append(existing, v)
	}

	return header, existing, nil
}

// cells stringifies row padded to width, since the API drops trailing blanks
func cells(row []interface{}, width int) []string {
	out := make([]string, max(width, len(row)))
	for i, cell := range row {
		out[i] = fmt.Sprint(cell)
	}
	return out
}

// Save appends unseen vacancies in chunks of ChunkSize rows
func (s *Sink) Save(ctx context.Context, vacancies []domain.Vacancy) error {
	if s.values == nil {
		return failure.New(domain.ErrPersistence, failure.Message("Google Sheets is not connected"))
	}

	fresh := s.index.Filter(vacancies)

	var rows [][]interface{}
	if s.header == nil {
		s.header = domain.Columns
		rows = append(rows, toCells(s.header))
	}
	for _, v := range fresh {
		rows = append(rows, toCells(domain.EncodeRowAs(v, s.header)))
	}

	for _, chunk := range lo.Chunk(rows, ChunkSize) {
		if err := s.values.AppendValues(ctx, s.settings.SpreadsheetID, s.settings.Range, chunk); err != nil {
			return failure.Wrap(err, failure.WithCode(domain.ErrPersistence),
				failure.Message(fmt.Sprintf("Cannot append rows to spreadsheet %s", s.settings.SpreadsheetID)),
			)
		}
	}

	s.logger.Info("rows added", "count", len(fresh), "skipped", len(vacancies)-len(fresh))
	return nil
}

func (s *Sink) Disconnect(context.Context) error {
	s.values = nil
	return nil
}

func toCells(row []string) []interface{} {
	return lo.Map(row, func(cell string, _ int) interface{} {
		return cell
	})
}
