package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/morikuni/failure/v2"

	"github.com/honeycarbs/vacancy-crawler/internal/domain"
)

const sampleConfig = `
DATA_SOURCE: HH_API
WRITER_ENGINE: PostgresOutput
LOG_LEVEL: debug

HH_API:
  SEARCH_PERIOD_DAYS: 7
  DEFAULT_PERIOD_OFFSET_DAYS: 1
  MIN_SEARCH_PERIOD_DAYS: 2
  SEARCH_PARAMS_SPECIALIZATION: 1
  SEARCH_PARAMS_AREA: 113
  SEARCH_PARAMS_PER_PAGE: 100
  REQUEST_TIMEOUT: 45s

CSVInput:
  FILE_PATH: vacancies.csv
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "crawler.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DataSource != "HH_API" || cfg.WriterEngine != "PostgresOutput" {
		t.Errorf("source/sink = %q/%q", cfg.DataSource, cfg.WriterEngine)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.Schedule != "@daily" || cfg.MCPHost != "0.0.0.0" || cfg.MCPPort != "8080" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CRAWLER_WRITER_ENGINE", "CSVOutput")
	t.Setenv("CRAWLER_MCP_PORT", "9090")

	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.WriterEngine != "CSVOutput" {
		t.Errorf("WriterEngine = %q, want CSVOutput", cfg.WriterEngine)
	}
	if cfg.MCPPort != "9090" {
		t.Errorf("MCPPort = %q, want 9090", cfg.MCPPort)
	}
}

func TestLoadMissingTopLevelKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "LOG_LEVEL: info\n"))
	if !failure.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}

	msg := failure.MessageOf(err).String()
	for _, key := range []string{"DATA_SOURCE", "WRITER_ENGINE"} {
		if !strings.Contains(msg, key) {
			t.Errorf("message %q does not name %s", msg, key)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !failure.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

type hhSettings struct {
	SearchPeriodDays int           `mapstructure:"search_period_days" validate:"min=1"`
	OffsetDays       int           `mapstructure:"default_period_offset_days" validate:"min=0"`
	PerPage          int           `mapstructure:"search_params_per_page" validate:"min=1"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
}

func TestSectionDecode(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	sec := cfg.Section("HH_API")
	if err := sec.Require("SEARCH_PERIOD_DAYS", "SEARCH_PARAMS_PER_PAGE"); err != nil {
		t.Fatalf("Require: %v", err)
	}

	var got hhSettings
	if err := sec.Decode(&got); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	want := hhSettings{SearchPeriodDays: 7, OffsetDays: 1, PerPage: 100, RequestTimeout: 45 * time.Second}
	if got != want {
		t.Errorf("Decode = %+v, want %+v", got, want)
	}
}

func TestSectionRequireAggregates(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	err = cfg.Section("CSVInput").Require("FILE_PATH", "CSV_DIALECT", "ENCODING")
	if !failure.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}

	msg := failure.MessageOf(err).String()
	if !strings.Contains(msg, "CSV_DIALECT, ENCODING") {
		t.Errorf("message %q should list every missing key", msg)
	}
	if strings.Contains(msg, "FILE_PATH") {
		t.Errorf("message %q names a key that is set", msg)
	}
}

func TestSectionAbsent(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := cfg.Section("RedisOutput").Require("ADDR"); !failure.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestSectionDecodeValidation(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
		want   string
	}{
		{
			name:   "below minimum",
			values: map[string]any{"SEARCH_PERIOD_DAYS": 0, "SEARCH_PARAMS_PER_PAGE": 10},
			want:   "SEARCH_PERIOD_DAYS",
		},
		{
			name:   "not a number",
			values: map[string]any{"SEARCH_PERIOD_DAYS": "week", "SEARCH_PARAMS_PER_PAGE": 10},
			want:   "HH_API",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out hhSettings
			err := NewSection("HH_API", tt.values).Decode(&out)
			if !failure.Is(err, domain.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
			if msg := failure.MessageOf(err).String(); !strings.Contains(msg, tt.want) {
				t.Errorf("message %q does not mention %s", msg, tt.want)
			}
		})
	}
}
