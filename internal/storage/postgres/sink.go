// Package postgres stores vacancies in a PostgreSQL table
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/morikuni/failure/v2"
	"github.com/samber/lo"

	"github.com/honeycarbs/vacancy-crawler/internal/config"
	"github.com/honeycarbs/vacancy-crawler/internal/domain"
	"github.com/honeycarbs/vacancy-crawler/pkg/logging"
)

//go:embed schema.sql
var schemaTemplate string

// RequiredKeys must be present in the PostgresOutput config section
var RequiredKeys = []string{"HOST", "USER", "PASSWORD", "DB", "TABLE"}

type Settings struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"min=0,max=65535"`
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db" validate:"required"`
	Table    string `mapstructure:"table" validate:"required"`
	SSLMode  string `mapstructure:"sslmode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	Migrate  bool   `mapstructure:"migrate"`
}

func LoadSettings(sec config.Section) (Settings, error) {
	if err := sec.Require(RequiredKeys...); err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := sec.Decode(&s); err != nil {
		return Settings{}, err
	}

	if s.Port == 0 {
		s.Port = 5432
	}
	if s.SSLMode == "" {
		s.SSLMode = "disable"
	}
	return s, nil
}

// DSN renders the settings as a postgres:// connection URL
func (s Settings) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(s.User, s.Password),
		Host:     net.JoinHostPort(s.Host, strconv.Itoa(s.Port)),
		Path:     "/" + s.DB,
		RawQuery: url.Values{"sslmode": {s.SSLMode}}.Encode(),
	}
	return u.String()
}

// DB is the part of a pgx pool the sink uses
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

// Connector opens a DB for a connection string
type Connector func(ctx context.Context, dsn string) (DB, error)

// Option configures Sink
type Option func(*Sink)

// WithConnector replaces the pgxpool connector
func WithConnector(c Connector) Option {
	return func(s *Sink) {
		s.connect = c
	}
}

// Sink inserts vacancies in one transaction per batch. Rows whose
// (source, id_source) or (name, description) already exist are left alone.
type Sink struct {
	settings Settings
	connect  Connector
	logger   *logging.Logger

	db        DB
	insertSQL string
	createSQL string
}

func New(settings Settings, logger *logging.Logger, opts ...Option) *Sink {
	if logger == nil {
		logger = logging.NewNop()
	}

	table := pgx.Identifier{settings.Table}.Sanitize()

	s := &Sink{
		settings:  settings,
		connect:   connectPool,
		logger:    logger.Named("postgres_output").With("table", settings.Table),
		insertSQL: insertStatement(table),
		createSQL: fmt.Sprintf(schemaTemplate, table),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func connectPool(ctx context.Context, dsn string) (DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return pool, nil
}

func (s *Sink) Name() string {
	return "PostgresOutput"
}

// Connect opens the pool, checks it and creates the table when Migrate is set
func (s *Sink) Connect(ctx context.Context) error {
	db, err := s.connect(ctx, s.settings.DSN())
	if err != nil {
		return s.connectionError(err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return s.connectionError(err)
	}

	if s.settings.Migrate {
		if _, err := db.Exec(ctx, s.createSQL); err != nil {
			db.Close()
			return failure.Wrap(err, failure.WithCode(domain.ErrPersistence),
				failure.Message(fmt.Sprintf("Cannot create table %s", s.settings.Table)),
			)
		}
	}

	s.db = db
	return nil
}

func (s *Sink) connectionError(err error) error {
	return failure.Wrap(err, failure.WithCode(domain.ErrPersistence),
		failure.Message(fmt.Sprintf("Cannot connect to PostgreSQL at %s:%d", s.settings.Host, s.settings.Port)),
		failure.Context{"host": s.settings.Host, "db": s.settings.DB},
	)
}

// Save inserts the batch atomically; any failure rolls the whole batch back
func (s *Sink) Save(ctx context.Context, vacancies []domain.Vacancy) (err error) {
	if s.db == nil {
		return failure.New(domain.ErrPersistence, failure.Message("PostgreSQL is not connected"))
	}
	if len(vacancies) == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return failure.Wrap(err, failure.WithCode(domain.ErrPersistence))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var added int64
	for _, v := range vacancies {
		tag, err := tx.Exec(ctx, s.insertSQL, Args(v)...)
		if err != nil {
			return failure.Wrap(err, failure.WithCode(domain.ErrPersistence),
				failure.Context{"source": v.Source, "id_source": v.SourceID},
			)
		}
		added += tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return failure.Wrap(err, failure.WithCode(domain.ErrPersistence))
	}

	s.logger.Info("rows added", "count", added, "skipped", int64(len(vacancies))-added)
	return nil
}

func (s *Sink) Disconnect(context.Context) error {
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}
	return nil
}

func insertStatement(table string) string {
	placeholders := lo.Map(domain.Columns, func(_ string, i int) string {
		return "$" + strconv.Itoa(i+1)
	})

	return fmt.Sprintf(
		`INSERT INTO %[1]s (%[2]s)
SELECT %[3]s
WHERE NOT EXISTS (SELECT 1 FROM %[1]s WHERE name = $2 AND description = $3)
ON CONFLICT (source, id_source) DO NOTHING`,
		table,
		strings.Join(domain.Columns, ", "),
		strings.Join(placeholders, ", "),
	)
}

// Args lists the insert parameters of v in column order; unset fields are NULL
func Args(v domain.Vacancy) []any {
	return []any{
		v.Source,
		v.Name,
		v.Description,
		v.DatePublished,
		nullable(v.EmployerName),
		v.SourceID,
		nullable(v.SalaryRangeLower),
		nullable(v.SalaryRangeUpper),
		nullable(v.SalaryCurrency),
		nullable(v.SalaryGrossIndicator),
		nullable(v.ScheduleType),
		nullable(v.EmploymentType),
		nullable(v.Region),
		nullable(v.CoverLetterRequired),
		nullable(v.EmployerIDHH),
		nullable(v.ExperienceRangeHH),
		nullable(v.TestRequiredHH),
		nullable(v.TestIncludedHH),
	}
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
