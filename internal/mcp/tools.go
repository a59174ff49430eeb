package mcp

import (
	"context"
	"fmt"
	"sync"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/morikuni/failure/v2"

	"github.com/honeycarbs/vacancy-crawler/internal/crawler"
	"github.com/honeycarbs/vacancy-crawler/internal/domain/description"
	"github.com/honeycarbs/vacancy-crawler/pkg/logging"
)

// RunFunc performs one crawler run with the configured source and sink
type RunFunc func(ctx context.Context) (crawler.Report, error)

// CollectParams defines the arguments for the collect_vacancies tool
type CollectParams struct{}

// CollectResult is the run report as returned to MCP clients
type CollectResult struct {
	RunID      string `json:"run_id"`
	Source     string `json:"source"`
	Sink       string `json:"sink"`
	Fetched    int    `json:"fetched" jsonschema:"Number of vacancies retrieved from the source"`
	Saved      bool   `json:"saved" jsonschema:"Whether the batch was handed to the sink"`
	DurationMS int64  `json:"duration_ms"`
}

// NormalizeParams defines the arguments for the normalize_description tool
type NormalizeParams struct {
	Markup string `json:"markup" jsonschema:"Vacancy description in HTML markup"`
}

type NormalizeResult struct {
	Text string `json:"text"`
}

type toolset struct {
	run    RunFunc
	logger *logging.Logger
	pool   *description.Pool

	// one run at a time
	mu sync.Mutex
}

func newToolset(run RunFunc, logger *logging.Logger) *toolset {
	return &toolset{
		run:    run,
		logger: logger,
		pool:   description.NewPool(),
	}
}

func registerTools(s *sdkmcp.Server, t *toolset) {
	sdkmcp.AddTool(s, &sdkmcp.Tool{
		Name:        "collect_vacancies",
		Description: "Run the crawler once with the configured data source and writer engine and report the result",
	}, t.collectVacancies)

	sdkmcp.AddTool(s, &sdkmcp.Tool{
		Name:        "normalize_description",
		Description: "Convert a marked-up vacancy description to plain text with line breaks",
	}, t.normalizeDescription)
}

func (t *toolset) collectVacancies(ctx context.Context, _ *sdkmcp.CallToolRequest, _ CollectParams) (*sdkmcp.CallToolResult, CollectResult, error) {
	if t.run == nil {
		return errorResult("crawler is not configured"), CollectResult{}, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	report, err := t.run(ctx)
	if err != nil {
		t.logger.Error("collect_vacancies failed", "err", err)
		return errorResult(userMessage(err)), CollectResult{}, nil
	}

	out := CollectResult{
		RunID:      report.RunID.String(),
		Source:     report.Source,
		Sink:       report.Sink,
		Fetched:    report.Fetched,
		Saved:      report.Saved,
		DurationMS: report.Duration.Milliseconds(),
	}

	msg := fmt.Sprintf("[collect_vacancies] run %s: %d vacancies from %s", out.RunID, out.Fetched, out.Source)
	if out.Saved {
		msg += " saved to " + out.Sink
	}
	return textResult(msg), out, nil
}

func (t *toolset) normalizeDescription(_ context.Context, _ *sdkmcp.CallToolRequest, params NormalizeParams) (*sdkmcp.CallToolResult, NormalizeResult, error) {
	text := t.pool.Normalize(params.Markup)
	return textResult(text), NormalizeResult{Text: text}, nil
}

func userMessage(err error) string {
	if msg := failure.MessageOf(err); msg != "" {
		return msg.String()
	}
	return err.Error()
}

// Produce a text-only ToolResult
func textResult(msg string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: msg},
		},
	}
}

func errorResult(msg string) *sdkmcp.CallToolResult {
	res := textResult(msg)
	res.IsError = true
	return res
}
