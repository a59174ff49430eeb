// Package hhapi collects vacancies from the hh.ru REST API.
//
// The search endpoint never returns more than MaxResultsPerSearch items for a
// query, so a period with more matches is re-collected as a series of shorter
// sub-windows.
package hhapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/morikuni/failure/v2"
	"golang.org/x/sync/errgroup"

	"github.com/honeycarbs/vacancy-crawler/internal/domain"
	"github.com/honeycarbs/vacancy-crawler/internal/domain/description"
	"github.com/honeycarbs/vacancy-crawler/pkg/hh"
	"github.com/honeycarbs/vacancy-crawler/pkg/logging"
)

const (
	// SourceName tags every record produced by this adapter
	SourceName = "hh.ru"

	// MaxResultsPerSearch is the API's hard cap on items per search
	MaxResultsPerSearch = 2000
)

// API is the subset of the hh.ru client the adapter needs
type API interface {
	Search(ctx context.Context, params hh.SearchParams) (hh.SearchPage, error)
	Vacancy(ctx context.Context, id string) (hh.Vacancy, error)
}

// Option configures Source
type Option func(*Source)

// WithClock sets the clock used to resolve "today"
func WithClock(clock func() time.Time) Option {
	return func(s *Source) {
		s.clock = clock
	}
}

// WithAPI replaces the HTTP client built from Settings
func WithAPI(api API) Option {
	return func(s *Source) {
		s.api = api
	}
}

// Source is the hh.ru adapter
type Source struct {
	settings    Settings
	api         API
	clock       func() time.Time
	logger      *logging.Logger
	normalizers *description.Pool
}

// New builds a Source. Unless WithAPI is given, an hh.Client is created with
// the configured base URL, user agent and request timeout.
func New(settings Settings, logger *logging.Logger, opts ...Option) (*Source, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	s := &Source{
		settings:    settings,
		clock:       time.Now,
		logger:      logger.Named("hh_api"),
		normalizers: description.NewPool(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.api == nil {
		client, err := hh.NewClient(hh.Config{
			BaseURL:   settings.BaseURL,
			UserAgent: settings.UserAgent,
			HTTPClient: &http.Client{
				Timeout:   settings.RequestTimeout,
				Transport: logger.Transport(http.DefaultTransport),
			},
		})
		if err != nil {
			return nil, failure.Wrap(err, failure.WithCode(domain.ErrConfiguration),
				failure.Message("Invalid hh.ru API settings"),
			)
		}
		s.api = client
	}

	return s, nil
}

func (s *Source) Name() string {
	return SourceName
}

// Connect is a no-op; every request is independent
func (s *Source) Connect(context.Context) error {
	return nil
}

func (s *Source) Disconnect(context.Context) error {
	return nil
}

// Collect gathers matching vacancy ids for the configured period and then
// fetches and normalizes every vacancy. Any failed request aborts the whole
// call with ErrRetrieval and no partial result.
func (s *Source) Collect(ctx context.Context) ([]domain.Vacancy, error) {
	ids, err := s.collectIDs(ctx)
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		s.logger.Info("no new vacancy ids found")
		return nil, nil
	}

	vacancies, err := s.collectVacancies(ctx, ids)
	if err != nil {
		return nil, err
	}

	s.logger.Info("data collection completed", "count", len(vacancies))
	return vacancies, nil
}

func (s *Source) collectIDs(ctx context.Context) ([]string, error) {
	s.logger.Info("collecting vacancy ids")

	// every window tiles back from the same day, even if the run crosses midnight
	today := s.clock()

	found, ids, err := s.search(ctx, today, Window{DurationDays: s.settings.SearchPeriodDays})
	if err != nil {
		return nil, err
	}

	if found <= MaxResultsPerSearch {
		return ids, nil
	}

	windows := Split(s.settings.SearchPeriodDays, s.settings.MinSearchPeriodDays)
	s.logger.Info("splitting search into sub-windows", "count", len(windows))

	// sub-windows are not deduplicated against each other
	var subIDs []string
	for i, w := range windows {
		s.logger.Info("processing sub-window", "index", i+1)

		_, batch, err := s.search(ctx, today, w)
		if err != nil {
			return nil, err
		}
		subIDs = append(subIDs, batch...)
	}

	return subIDs, nil
}

// search lists ids for one window. An over-limit result outside a sub-window
// returns after the first page, leaving the split to the caller.
func (s *Source) search(ctx context.Context, today time.Time, w Window) (int, []string, error) {
	from, to := w.Range(today, s.settings.DefaultPeriodOffsetDays)

	params := hh.SearchParams{
		Specialization: s.settings.Specialization,
		Area:           s.settings.Area,
		PerPage:        s.settings.PerPage,
		Page:           0,
		DateFrom:       from,
		DateTo:         to,
	}

	first, err := s.api.Search(ctx, params)
	if err != nil {
		return 0, nil, retrievalError(err, "search")
	}

	found := first.Found
	ids := first.IDs()

	if found > MaxResultsPerSearch && !w.Subwindow {
		s.logger.Warn("search results limit exceeded", "found", found)
		return found, ids, nil
	}

	if first.Pages > 1 {
		s.logger.Info("pages to load", "pages", first.Pages)
	}

	for page := 1; page < first.Pages; page++ {
		params.Page = page

		next, err := s.api.Search(ctx, params)
		if err != nil {
			return 0, nil, retrievalError(err, "search")
		}
		ids = append(ids, next.IDs()...)
	}

	return found, ids, nil
}

// collectVacancies fetches details with at most DetailConcurrency requests
// in flight. Output order follows ids.
func (s *Source) collectVacancies(ctx context.Context, ids []string) ([]domain.Vacancy, error) {
	s.logger.Info("collecting vacancy data", "count", len(ids))

	out := make([]domain.Vacancy, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.settings.DetailConcurrency))

	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return retrievalError(err, "vacancy "+id)
			}

			s.logger.Debug("collecting vacancy", "id", id)

			raw, err := s.api.Vacancy(gctx, id)
			if err != nil {
				return retrievalError(err, "vacancy "+id)
			}

			v, err := s.toVacancy(raw)
			if err != nil {
				return err
			}

			out[i] = v
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

// toVacancy maps an API document to a record. Missing nested objects leave
// their dependent fields unset.
func (s *Source) toVacancy(raw hh.Vacancy) (domain.Vacancy, error) {
	published, err := time.Parse(hh.PublishedAtLayout, raw.PublishedAt)
	if err != nil {
		return domain.Vacancy{}, failure.Wrap(err, failure.WithCode(domain.ErrRetrieval),
			failure.Message(fmt.Sprintf("Malformed published_at in hh.ru vacancy %s", raw.ID)),
			failure.Context{"id": raw.ID, "published_at": raw.PublishedAt},
		)
	}

	v := domain.Vacancy{
		Source:              SourceName,
		SourceID:            raw.ID,
		Name:                raw.Name,
		Description:         s.normalizers.Normalize(raw.Description),
		DatePublished:       domain.Date(published),
		CoverLetterRequired: raw.ResponseLetterRequired,
		TestIncludedHH:      raw.HasTest,
	}

	if raw.Employer != nil {
		v.EmployerName = domain.Ptr(raw.Employer.Name)
		v.EmployerIDHH = raw.Employer.ID
	}

	if raw.Salary != nil {
		v.SalaryRangeLower = raw.Salary.From
		v.SalaryRangeUpper = raw.Salary.To
		v.SalaryCurrency = raw.Salary.Currency
		v.SalaryGrossIndicator = raw.Salary.Gross
	}

	v.ScheduleType = dictionaryName(raw.Schedule)
	v.EmploymentType = dictionaryName(raw.Employment)
	v.Region = dictionaryName(raw.Area)
	v.ExperienceRangeHH = dictionaryName(raw.Experience)

	if raw.Test != nil {
		v.TestRequiredHH = domain.Ptr(raw.Test.Required)
	}

	return v, nil
}

func dictionaryName(d *hh.Dictionary) *string {
	if d == nil {
		return nil
	}
	return domain.Ptr(d.Name)
}

func retrievalError(err error, op string) error {
	return failure.Wrap(err, failure.WithCode(domain.ErrRetrieval),
		failure.Message(fmt.Sprintf("hh.ru request failed: %s", op)),
		failure.Context{"op": op},
	)
}
