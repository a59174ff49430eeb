package hhapi

import (
	"time"

	"github.com/honeycarbs/vacancy-crawler/internal/config"
	"github.com/honeycarbs/vacancy-crawler/pkg/hh"
)

// RequiredKeys must be present in the HH_API config section
var RequiredKeys = []string{
	"SEARCH_PERIOD_DAYS",
	"DEFAULT_PERIOD_OFFSET_DAYS",
	"MIN_SEARCH_PERIOD_DAYS",
	"SEARCH_PARAMS_SPECIALIZATION",
	"SEARCH_PARAMS_AREA",
	"SEARCH_PARAMS_PER_PAGE",
}

// Settings of the hh.ru adapter
type Settings struct {
	SearchPeriodDays        int `mapstructure:"search_period_days" validate:"min=1"`
	DefaultPeriodOffsetDays int `mapstructure:"default_period_offset_days" validate:"min=0"`
	MinSearchPeriodDays     int `mapstructure:"min_search_period_days" validate:"min=1"`

	Specialization int `mapstructure:"search_params_specialization"`
	Area           int `mapstructure:"search_params_area"`
	PerPage        int `mapstructure:"search_params_per_page" validate:"min=1"`

	BaseURL           string        `mapstructure:"base_url" validate:"omitempty,url"`
	UserAgent         string        `mapstructure:"user_agent"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	DetailConcurrency int           `mapstructure:"detail_concurrency" validate:"min=0"`
}

const defaultRequestTimeout = 30 * time.Second

// LoadSettings validates sec and fills optional settings with defaults
func LoadSettings(sec config.Section) (Settings, error) {
	if err := sec.Require(RequiredKeys...); err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := sec.Decode(&s); err != nil {
		return Settings{}, err
	}

	if s.BaseURL == "" {
		s.BaseURL = hh.DefaultBaseURL
	}
	if s.UserAgent == "" {
		s.UserAgent = hh.DefaultUserAgent
	}
	if s.RequestTimeout <= 0 {
		s.RequestTimeout = defaultRequestTimeout
	}
	if s.DetailConcurrency < 1 {
		s.DetailConcurrency = 1
	}

	return s, nil
}
