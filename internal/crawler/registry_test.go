package crawler

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/morikuni/failure/v2"

	"github.com/honeycarbs/vacancy-crawler/internal/config"
	"github.com/honeycarbs/vacancy-crawler/internal/domain"
)

type sections map[string]map[string]any

func (s sections) Section(name string) config.Section {
	return config.NewSection(name, s[name])
}

var validSections = sections{
	"HH_API": {
		"SEARCH_PERIOD_DAYS":           7,
		"DEFAULT_PERIOD_OFFSET_DAYS":   1,
		"MIN_SEARCH_PERIOD_DAYS":       1,
		"SEARCH_PARAMS_SPECIALIZATION": 1,
		"SEARCH_PARAMS_AREA":           113,
		"SEARCH_PARAMS_PER_PAGE":       100,
	},
	"CSVInput": {
		"FILE_PATH":   "in.csv",
		"CSV_DIALECT": "excel",
	},
	"CSVOutput": {
		"FILE_PATH":   "out.csv",
		"CSV_DIALECT": "unix",
	},
	"PostgresOutput": {
		"HOST":     "localhost",
		"USER":     "crawler",
		"PASSWORD": "secret",
		"DB":       "jobs",
		"TABLE":    "vacancies",
	},
	"Neo4jOutput": {
		"URI":      "neo4j://localhost:7687",
		"USERNAME": "neo4j",
		"PASSWORD": "secret",
	},
	"SheetsOutput": {
		"CREDENTIALS_FILE": "credentials.json",
		"SPREADSHEET_ID":   "sheet-id",
	},
	"RedisOutput": {
		"ADDR": "localhost:6379",
	},
}

func TestNames(t *testing.T) {
	if diff := cmp.Diff([]string{"CSVInput", "HH_API"}, SourceNames()); diff != "" {
		t.Errorf("source names mismatch (-want +got):\n%s", diff)
	}

	want := []string{"CSVOutput", "LogOutput", "Neo4jOutput", "PostgresOutput", "RedisOutput", "SheetsOutput"}
	if diff := cmp.Diff(want, SinkNames()); diff != "" {
		t.Errorf("sink names mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildSource(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		sections sections
		wantName string
		wantErr  string
	}{
		{name: "hh", source: "HH_API", sections: validSections, wantName: "hh.ru"},
		{name: "csv", source: "CSVInput", sections: validSections, wantName: "CSV Import"},
		{name: "unknown", source: "hh_api", sections: validSections, wantErr: "CSVInput, HH_API"},
		{name: "missing section", source: "HH_API", sections: sections{}, wantErr: "SEARCH_PERIOD_DAYS"},
		{
			name:   "bad dialect",
			source: "CSVInput",
			sections: sections{"CSVInput": {
				"FILE_PATH":   "in.csv",
				"CSV_DIALECT": "tsv",
			}},
			wantErr: "tsv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, err := BuildSource(tt.source, tt.sections, nil)

			if tt.wantErr != "" {
				if !failure.Is(err, domain.ErrConfiguration) {
					t.Fatalf("expected ErrConfiguration, got %v", err)
				}
				if msg := failure.MessageOf(err).String(); !strings.Contains(msg, tt.wantErr) {
					t.Errorf("message %q does not mention %q", msg, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("BuildSource: %v", err)
			}
			if source.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", source.Name(), tt.wantName)
			}
		})
	}
}

func TestBuildSink(t *testing.T) {
	for _, name := range SinkNames() {
		t.Run(name, func(t *testing.T) {
			sink, err := BuildSink(name, validSections, nil)
			if err != nil {
				t.Fatalf("BuildSink: %v", err)
			}
			if sink.Name() != name {
				t.Errorf("Name() = %q, want %q", sink.Name(), name)
			}
		})
	}
}

func TestBuildSinkErrors(t *testing.T) {
	tests := []struct {
		name     string
		sink     string
		sections sections
		wantErr  string
	}{
		{name: "unknown", sink: "MongoOutput", sections: validSections, wantErr: "LogOutput"},
		{
			name:     "missing keys reported together",
			sink:     "PostgresOutput",
			sections: sections{"PostgresOutput": {"HOST": "localhost"}},
			wantErr:  "USER, PASSWORD, DB, TABLE",
		},
		{
			name:     "invalid value",
			sink:     "RedisOutput",
			sections: sections{"RedisOutput": {"ADDR": "no port"}},
			wantErr:  "ADDR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildSink(tt.sink, tt.sections, nil)
			if !failure.Is(err, domain.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
			if msg := failure.MessageOf(err).String(); !strings.Contains(msg, tt.wantErr) {
				t.Errorf("message %q does not mention %q", msg, tt.wantErr)
			}
		})
	}
}
