package mcp

import (
	"github.com/custodia-labs/kbquery/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Query answers questions and rebuilds the index.
	Query driving.QueryService

	// Ingest chunks source manifests. Optional; the chunk tool is
	// registered only when it is set.
	Ingest driving.IngestService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
