package domain

import "fmt"

// DefaultAblationModel labels cells that use the configured embedding model.
const DefaultAblationModel = "default"

// AblationGrid lists the settings an ablation sweeps.
type AblationGrid struct {
	ChunkSizes []int

	// Models are embedding model names. An empty name uses the configured model.
	Models []string

	TopKs []int
}

// Validate checks that every axis has at least one usable value.
func (g AblationGrid) Validate() error {
	if len(g.ChunkSizes) == 0 || len(g.TopKs) == 0 {
		return fmt.Errorf("%w: ablation needs at least one chunk size and one top-k", ErrInvalidInput)
	}
	for _, cs := range g.ChunkSizes {
		if cs <= 0 {
			return fmt.Errorf("%w: chunk size %d must be positive", ErrInvalidInput, cs)
		}
	}
	for _, k := range g.TopKs {
		if k <= 0 {
			return fmt.Errorf("%w: top-k %d must be positive", ErrInvalidInput, k)
		}
	}
	return nil
}

// AblationCell is the outcome of one chunk size, model and top-k combination.
type AblationCell struct {
	ChunkSize int
	Model     string
	TopK      int

	// Report is nil when the combination failed.
	Report *EvalReport

	// Err describes why the combination failed.
	Err string
}

// Failed reports whether the combination produced no evaluation.
func (c AblationCell) Failed() bool {
	return c.Report == nil
}

// AblationReport collects every cell in sweep order.
type AblationReport struct {
	Cells []AblationCell
}

// Failures returns the number of cells without an evaluation.
func (r *AblationReport) Failures() int {
	var n int
	for _, c := range r.Cells {
		if c.Failed() {
			n++
		}
	}
	return n
}
