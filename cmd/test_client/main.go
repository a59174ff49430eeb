package main

import (
	"context"
	"fmt"
	"log"
	"os"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

const sampleMarkup = `<p>We are looking for a <strong>Go developer</strong>.</p>
<ul>
  <li>PostgreSQL</li>
  <li>Kubernetes</li>
</ul>`

func main() {
	var (
		endpoint string
		collect  bool
	)

	cmd := &cobra.Command{
		Use:          "test_client",
		Short:        "Smoke-test a running `crawler serve`",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), endpoint, collect)
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "http://localhost:8080/mcp/stream", "MCP streamable HTTP endpoint")
	cmd.Flags().BoolVar(&collect, "collect", false, "also call collect_vacancies, which runs the configured pipeline")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, endpoint string, collect bool) error {
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "vacancy-crawler-test-client",
		Version: "0.1.0",
	}, nil)

	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint: endpoint,
	}, nil)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() { _ = session.Close() }()

	log.Printf("Connected to server (session ID: %s)\n", session.ID())

	if err := testListTools(ctx, session); err != nil {
		return err
	}
	if err := testNormalizeDescription(ctx, session); err != nil {
		return err
	}
	if collect {
		if err := testCollectVacancies(ctx, session); err != nil {
			return err
		}
	}

	fmt.Println("\nAll tests completed")
	return nil
}

func testListTools(ctx context.Context, session *mcp.ClientSession) error {
	fmt.Println("\nTEST: list tools")

	res, err := session.ListTools(ctx, nil)
	if err != nil {
		return fmt.Errorf("list tools: %w", err)
	}

	for _, tool := range res.Tools {
		fmt.Printf("  %s: %s\n", tool.Name, tool.Description)
	}
	return nil
}

func testNormalizeDescription(ctx context.Context, session *mcp.ClientSession) error {
	fmt.Println("\nTEST: normalize_description")

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "normalize_description",
		Arguments: map[string]any{"markup": sampleMarkup},
	})
	if err != nil {
		return fmt.Errorf("normalize_description: %w", err)
	}

	printResult(result)
	fmt.Println("normalize_description passed")
	return nil
}

func testCollectVacancies(ctx context.Context, session *mcp.ClientSession) error {
	fmt.Println("\nTEST: collect_vacancies")

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "collect_vacancies",
		Arguments: map[string]any{},
	})
	if err != nil {
		return fmt.Errorf("collect_vacancies: %w", err)
	}

	printResult(result)
	if result.IsError {
		return fmt.Errorf("collect_vacancies reported an error")
	}
	fmt.Println("collect_vacancies passed")
	return nil
}

func printResult(res *mcp.CallToolResult) {
	for _, c := range res.Content {
		if txt, ok := c.(*mcp.TextContent); ok {
			fmt.Println(txt.Text)
		}
	}
}
