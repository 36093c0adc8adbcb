package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/kbquery/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for kbquery resources.
	uriScheme = "kbquery://"

	runsLimit = 20
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "health",
		Name:        "health",
		Description: "Index presence, residency and the configured embedding provider",
		MIMEType:    "application/json",
	}, s.handleHealthResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "runs",
		Name:        "runs",
		Description: "Recent reindex runs, newest first",
		MIMEType:    "application/json",
	}, s.handleRunsResource)
}

type runInfo struct {
	ID         string `json:"id"`
	SourcePath string `json:"source_path"`
	Status     string `json:"status"`
	Rows       int    `json:"rows"`
	Rejected   int    `json:"rejected"`
	Error      string `json:"error,omitempty"`
	StartedAt  string `json:"started_at"`
}

func toRunInfo(run domain.ReindexRun) runInfo {
	return runInfo{
		ID:         run.ID,
		SourcePath: run.SourcePath,
		Status:     string(run.Status),
		Rows:       run.Rows,
		Rejected:   run.Rejected,
		Error:      run.Error,
		StartedAt:  run.StartedAt.UTC().Format(time.RFC3339),
	}
}

// handleHealthResource returns the health report.
func (s *Server) handleHealthResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	h, err := s.ports.Query.Health(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading health: %w", err)
	}

	type healthInfo struct {
		Status          string   `json:"status"`
		IndexPresent    bool     `json:"index_present"`
		MetadataPresent bool     `json:"metadata_present"`
		Ready           bool     `json:"ready"`
		Rows            int      `json:"rows"`
		Dimension       int      `json:"dimension"`
		ProviderID      string   `json:"provider_id"`
		LastReindex     *runInfo `json:"last_reindex,omitempty"`
	}

	info := healthInfo{
		Status:          h.Status,
		IndexPresent:    h.IndexPresent,
		MetadataPresent: h.MetadataPresent,
		Ready:           h.Ready,
		Rows:            h.Rows,
		Dimension:       h.Dimension,
		ProviderID:      h.ProviderID,
	}
	if h.LastReindex != nil {
		last := toRunInfo(*h.LastReindex)
		info.LastReindex = &last
	}

	return jsonResource(req.Params.URI, info)
}

// handleRunsResource returns recent reindex runs.
func (s *Server) handleRunsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	runs, err := s.ports.Query.Runs(ctx, runsLimit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	infos := make([]runInfo, len(runs))
	for i, run := range runs {
		infos[i] = toRunInfo(run)
	}
	return jsonResource(req.Params.URI, infos)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
