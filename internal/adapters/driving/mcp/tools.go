package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/kbquery/internal/core/domain"
)

// QueryInput is the input schema for the query tool.
type QueryInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the knowledge base"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"maximum number of sources to return (default 5)"`
}

// QueryOutput is the output schema for the query tool.
type QueryOutput struct {
	Answer  *SourceOutput  `json:"answer"`
	Sources []SourceOutput `json:"sources"`
	Count   int            `json:"count"`
}

// SourceOutput is one ranked source.
type SourceOutput struct {
	ID         string  `json:"id"`
	Title      string  `json:"title,omitempty"`
	URL        string  `json:"url"`
	Region     string  `json:"region,omitempty"`
	Date       string  `json:"date,omitempty"`
	Confidence float64 `json:"confidence"`
	Content    string  `json:"content,omitempty"`
}

// ReindexInput is the input schema for the reindex tool.
type ReindexInput struct {
	SourcePath string `json:"source_path,omitempty" jsonschema:"clean JSONL record file (defaults to the configured source)"`
}

// ReindexOutput is the output schema for the reindex tool.
type ReindexOutput struct {
	RunID          string `json:"run_id"`
	Status         string `json:"status"`
	ProcessedCount int    `json:"processed_count"`
	Rejected       int    `json:"rejected"`
	Dimension      int    `json:"dimension"`
}

// ChunkInput is the input schema for the chunk tool.
type ChunkInput struct {
	ManifestPath string `json:"manifest_path" jsonschema:"YAML source manifest"`
	OutputPath   string `json:"output_path" jsonschema:"raw JSONL file to write"`
}

// ChunkOutput is the output schema for the chunk tool.
type ChunkOutput struct {
	Sources int    `json:"sources"`
	Records int    `json:"records"`
	Output  string `json:"output"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query",
		Description: "Answer a question with the most similar knowledge base passages",
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reindex",
		Description: "Rebuild the knowledge base index from a clean record file",
	}, s.handleReindex)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "chunk",
			Description: "Split the documents of a source manifest into raw records",
		}, s.handleChunk)
	}
}

// handleQuery handles the query tool invocation.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	result, err := s.ports.Query.Query(ctx, input.Question, domain.QueryOptions{TopK: input.TopK})
	if err != nil {
		return nil, QueryOutput{}, toolError(err)
	}

	output := QueryOutput{
		Sources: make([]SourceOutput, len(result.Sources)),
		Count:   len(result.Sources),
	}
	for i, hit := range result.Sources {
		output.Sources[i] = toSourceOutput(hit)
	}
	if output.Count > 0 {
		best := output.Sources[0]
		output.Answer = &best
	}

	return nil, output, nil
}

// handleReindex handles the reindex tool invocation.
func (s *Server) handleReindex(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReindexInput,
) (*mcp.CallToolResult, ReindexOutput, error) {
	run, err := s.ports.Query.Reindex(ctx, input.SourcePath)
	if err != nil {
		return nil, ReindexOutput{}, toolError(err)
	}

	return nil, ReindexOutput{
		RunID:          run.ID,
		Status:         string(run.Status),
		ProcessedCount: run.Rows,
		Rejected:       run.Rejected,
		Dimension:      run.Dimension,
	}, nil
}

// handleChunk handles the chunk tool invocation.
func (s *Server) handleChunk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ChunkInput,
) (*mcp.CallToolResult, ChunkOutput, error) {
	if input.ManifestPath == "" || input.OutputPath == "" {
		return nil, ChunkOutput{}, toolError(
			fmt.Errorf("%w: manifest_path and output_path are required", domain.ErrInvalidInput))
	}

	summary, err := s.ports.Ingest.Chunk(ctx, input.ManifestPath, input.OutputPath)
	if err != nil {
		return nil, ChunkOutput{}, toolError(err)
	}

	return nil, ChunkOutput{
		Sources: summary.Sources,
		Records: summary.Chunks,
		Output:  summary.OutputPath,
	}, nil
}

func toSourceOutput(hit domain.SearchHit) SourceOutput {
	out := SourceOutput{
		ID:         hit.Record.ID,
		Title:      hit.Record.Title,
		URL:        hit.Record.SourceID,
		Region:     hit.Record.Region,
		Confidence: hit.Score,
		Content:    hit.Record.Text,
	}
	if !hit.Record.DateFetched.IsZero() {
		out.Date = hit.Record.DateFetched.Format(domain.DateLayout)
	}
	return out
}

// toolError prefixes the stable error kind so clients can branch on it.
func toolError(err error) error {
	return fmt.Errorf("%s: %w", domain.KindOf(err), err)
}
