package neo4j

import (
	"context"
	"fmt"

	"github.com/morikuni/failure/v2"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/honeycarbs/vacancy-crawler/internal/config"
	"github.com/honeycarbs/vacancy-crawler/internal/domain"
	"github.com/honeycarbs/vacancy-crawler/pkg/logging"

	pkgneo4j "github.com/honeycarbs/vacancy-crawler/pkg/neo4j"
)

// RequiredKeys must be present in the Neo4jOutput config section
var RequiredKeys = []string{"URI", "USERNAME", "PASSWORD"}

type Settings struct {
	URI      string `mapstructure:"uri" validate:"required"`
	Username string `mapstructure:"username" validate:"required"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
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

// Executor runs write statements; *pkgneo4j.Client satisfies it
type Executor interface {
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (neo4j.Counters, error)
	Close(ctx context.Context) error
}

// Connector opens an Executor
type Connector func(ctx context.Context, cfg pkgneo4j.Config) (Executor, error)

// Option configures Sink
type Option func(*Sink)

// WithConnector replaces the driver-backed connector
func WithConnector(c Connector) Option {
	return func(s *Sink) {
		s.connect = c
	}
}

const constraintQuery = `
	CREATE CONSTRAINT vacancy_identity IF NOT EXISTS
	FOR (v:Vacancy) REQUIRE (v.source, v.sourceId) IS UNIQUE
`

// mergeQuery skips vacancies whose content is already stored under another
// identity and creates the rest once
const mergeQuery = `
	UNWIND $vacancies AS v
	WITH v WHERE NOT EXISTS {
		MATCH (d:Vacancy {name: v.name, description: v.description})
		WHERE d.source <> v.source OR d.sourceId <> v.sourceId
	}
	MERGE (n:Vacancy {source: v.source, sourceId: v.sourceId})
	ON CREATE SET n.name = v.name,
	    n.description = v.description,
	    n.datePublished = date(v.datePublished),
	    n.salaryRangeLower = v.salaryRangeLower,
	    n.salaryRangeUpper = v.salaryRangeUpper,
	    n.salaryCurrency = v.salaryCurrency,
	    n.salaryGrossIndicator = v.salaryGrossIndicator,
	    n.scheduleType = v.scheduleType,
	    n.employmentType = v.employmentType,
	    n.region = v.region,
	    n.coverLetterRequired = v.coverLetterRequired,
	    n.experienceRangeHH = v.experienceRangeHH,
	    n.testRequiredHH = v.testRequiredHH,
	    n.testIncludedHH = v.testIncludedHH
	WITH n, v WHERE v.employerName IS NOT NULL
	MERGE (e:Employer {name: v.employerName})
	ON CREATE SET e.idHH = v.employerIdHH
	MERGE (n)-[:POSTED_BY]->(e)
`

// Sink merges vacancies into a graph of Vacancy and Employer nodes
type Sink struct {
	settings Settings
	connect  Connector
	logger   *logging.Logger

	client Executor
}

func New(settings Settings, logger *logging.Logger, opts ...Option) *Sink {
	if logger == nil {
		logger = logging.NewNop()
	}

	s := &Sink{
		settings: settings,
		connect:  connectDriver,
		logger:   logger.Named("neo4j_output"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func connectDriver(ctx context.Context, cfg pkgneo4j.Config) (Executor, error) {
	client, err := pkgneo4j.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (s *Sink) Name() string {
	return "Neo4jOutput"
}

// Connect opens the driver and makes sure the identity constraint exists
func (s *Sink) Connect(ctx context.Context) error {
	client, err := s.connect(ctx, pkgneo4j.Config{
		URI:      s.settings.URI,
		Username: s.settings.Username,
		Password: s.settings.Password,
		Database: s.settings.Database,
	})
	if err != nil {
		return failure.Wrap(err, failure.WithCode(domain.ErrPersistence),
			failure.Message(fmt.Sprintf("Cannot connect to Neo4j at %s", s.settings.URI)),
		)
	}

	if _, err := client.ExecuteWrite(ctx, constraintQuery, nil); err != nil {
		_ = client.Close(ctx)
		return failure.Wrap(err, failure.WithCode(domain.ErrPersistence),
			failure.Message("Cannot create Neo4j identity constraint"),
		)
	}

	s.client = client
	return nil
}

func (s *Sink) Save(ctx context.Context, vacancies []domain.Vacancy) error {
	if s.client == nil {
		return failure.New(domain.ErrPersistence, failure.Message("Neo4j is not connected"))
	}

	fresh := domain.NewIndex().Filter(vacancies)
	if len(fresh) == 0 {
		return nil
	}

	counters, err := s.client.ExecuteWrite(ctx, mergeQuery, map[string]any{
		"vacancies": vacancyParams(fresh),
	})
	if err != nil {
		return failure.Wrap(err, failure.WithCode(domain.ErrPersistence))
	}

	if counters != nil {
		s.logger.Info("vacancies merged",
			"nodes_created", counters.NodesCreated(),
			"relationships_created", counters.RelationshipsCreated(),
		)
	}
	return nil
}

func (s *Sink) Disconnect(ctx context.Context) error {
	if s.client == nil {
		return nil
	}

	err := s.client.Close(ctx)
	s.client = nil
	return err
}

func vacancyParams(vacancies []domain.Vacancy) []map[string]any {
	params := make([]map[string]any, 0, len(vacancies))
	for _, v := range vacancies {
		params = append(params, map[string]any{
			"source":               v.Source,
			"sourceId":             v.SourceID,
			"name":                 v.Name,
			"description":          v.Description,
			"datePublished":        v.DatePublished.Format(domain.DateLayout),
			"employerName":         value(v.EmployerName),
			"employerIdHH":         value(v.EmployerIDHH),
			"salaryRangeLower":     value(v.SalaryRangeLower),
			"salaryRangeUpper":     value(v.SalaryRangeUpper),
			"salaryCurrency":       value(v.SalaryCurrency),
			"salaryGrossIndicator": value(v.SalaryGrossIndicator),
			"scheduleType":         value(v.ScheduleType),
			"employmentType":       value(v.EmploymentType),
			"region":               value(v.Region),
			"coverLetterRequired":  value(v.CoverLetterRequired),
			"experienceRangeHH":    value(v.ExperienceRangeHH),
			"testRequiredHH":       value(v.TestRequiredHH),
			"testIncludedHH":       value(v.TestIncludedHH),
		})
	}
	return params
}

func value[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
