package mcp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/morikuni/failure/v2"

	"github.com/honeycarbs/vacancy-crawler/internal/config"
	"github.com/honeycarbs/vacancy-crawler/internal/crawler"
	"github.com/honeycarbs/vacancy-crawler/internal/domain"
)

var testConfig = config.Config{MCPHost: "127.0.0.1", MCPPort: "8080"}

func connect(t *testing.T, s *Server) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	if _, err := s.mcp.Connect(ctx, serverTransport, nil); err != nil {
		t.Fatalf("server connect: %v", err)
	}

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })

	return session
}

func callText(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()

	res, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if len(res.Content) == 0 {
		t.Fatalf("CallTool(%s): empty content", name)
	}

	text, ok := res.Content[0].(*sdkmcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): content is %T", name, res.Content[0])
	}
	return text.Text, res.IsError
}

func TestListTools(t *testing.T) {
	session := connect(t, NewServer(nil, testConfig, nil))

	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	if diff := cmp.Diff([]string{"collect_vacancies", "normalize_description"}, names); diff != "" {
		t.Errorf("tools mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeDescription(t *testing.T) {
	session := connect(t, NewServer(nil, testConfig, nil))

	got, isErr := callText(t, session, "normalize_description", map[string]any{
		"markup": "<p>Hello</p>\n<p>World</p>",
	})
	if isErr {
		t.Fatalf("unexpected tool error: %s", got)
	}
	if want := "\n Hello \n World"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCollectVacancies(t *testing.T) {
	runID := uuid.New()

	tests := []struct {
		name    string
		run     RunFunc
		want    string
		wantErr bool
	}{
		{
			name: "saved",
			run: func(context.Context) (crawler.Report, error) {
				return crawler.Report{RunID: runID, Source: "hh.ru", Sink: "LogOutput", Fetched: 3, Saved: true, Duration: time.Second}, nil
			},
			want: "[collect_vacancies] run " + runID.String() + ": 3 vacancies from hh.ru saved to LogOutput",
		},
		{
			name: "nothing fetched",
			run: func(context.Context) (crawler.Report, error) {
				return crawler.Report{RunID: runID, Source: "hh.ru", Sink: "LogOutput"}, nil
			},
			want: "[collect_vacancies] run " + runID.String() + ": 0 vacancies from hh.ru",
		},
		{
			name: "failed",
			run: func(context.Context) (crawler.Report, error) {
				return crawler.Report{}, failure.Wrap(errors.New("dial tcp"), failure.WithCode(domain.ErrPersistence),
					failure.Message("Cannot connect to storage PostgresOutput"),
				)
			},
			want:    "Cannot connect to storage PostgresOutput",
			wantErr: true,
		},
		{
			name:    "not configured",
			want:    "crawler is not configured",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := connect(t, NewServer(nil, testConfig, tt.run))

			got, isErr := callText(t, session, "collect_vacancies", map[string]any{})
			if isErr != tt.wantErr {
				t.Errorf("IsError = %v, want %v", isErr, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	s := NewServer(nil, testConfig, nil)
	if s.Addr() != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q", s.Addr())
	}

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Errorf("got %d %q", resp.StatusCode, body)
	}
}
