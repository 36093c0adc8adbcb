package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kbquery/internal/core/domain"
	"github.com/custodia-labs/kbquery/internal/core/ports/driving"
	"github.com/custodia-labs/kbquery/internal/core/services"
)

var (
	ablationChunkSizes string
	ablationTopKs      string
	ablationModels     string
	ablationTest       string
	ablationOutput     string
	ablationWorkDir    string
)

// ablationService is injected by tests; nil wires one from settings.
var ablationService driving.AblationService

var ablationCmd = &cobra.Command{
	Use:   "ablation [sources.yaml]",
	Short: "Compare retrieval across chunk sizes, models and top-k",
	Long: `Chunks and validates the manifest once per chunk size, indexes the result
once per embedding model and runs the eval pass once per top-k. Every
combination is one row of the summary CSV written to --output. Records,
indexes and per-combination eval reports go under --work-dir, so the
configured index is not touched.

A combination that fails is reported with its error and the sweep goes on.

Example:
  kbquery ablation sources.yaml --test data/test.jsonl \
    --chunk-sizes 600,1000,1500 --topk 1,5 -o results/ablation_report.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runAblation,
}

func init() {
	ablationCmd.Flags().StringVar(&ablationChunkSizes, "chunk-sizes", "600,1000,1500", "comma-separated chunk sizes in characters")
	ablationCmd.Flags().StringVar(&ablationTopKs, "topk", "1,5", "comma-separated results retrieved per question")
	ablationCmd.Flags().StringVar(&ablationModels, "models", "", "comma-separated embedding models (default the configured model)")
	ablationCmd.Flags().StringVar(&ablationTest, "test", "data/test.jsonl", "labelled questions as JSONL")
	ablationCmd.Flags().StringVarP(&ablationOutput, "output", "o", "results/ablation_report.csv", "summary CSV to write")
	ablationCmd.Flags().StringVar(&ablationWorkDir, "work-dir", "results/ablation", "directory for per-combination artifacts")
	rootCmd.AddCommand(ablationCmd)
}

func requireAblation() (driving.AblationService, error) {
	if ablationService != nil {
		return ablationService, nil
	}
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	return services.NewAblationService(newAblationDeps(settings)), nil
}

func runAblation(cmd *cobra.Command, args []string) error {
	sizes, err := parseInts("--chunk-sizes", ablationChunkSizes)
	if err != nil {
		return err
	}
	topKs, err := parseInts("--topk", ablationTopKs)
	if err != nil {
		return err
	}

	svc, err := requireAblation()
	if err != nil {
		return err
	}

	grid := domain.AblationGrid{
		ChunkSizes: sizes,
		Models:     splitList(ablationModels),
		TopKs:      topKs,
	}
	report, err := svc.Run(cmd.Context(), grid, driving.AblationRequest{
		ManifestPath: args[0],
		TestPath:     ablationTest,
		OutputPath:   ablationOutput,
		WorkDir:      ablationWorkDir,
	})
	if err != nil {
		return fmt.Errorf("ablation failed: %w", err)
	}

	for _, c := range report.Cells {
		if c.Failed() {
			cmd.Printf("chunk_size=%-5d model=%s k=%d  FAILED: %s\n", c.ChunkSize, c.Model, c.TopK, c.Err)
			continue
		}
		cmd.Printf("chunk_size=%-5d model=%s k=%d  EM@1=%.3f p50=%.3fs p95=%.3fs\n",
			c.ChunkSize, c.Model, c.TopK,
			c.Report.ExactMatch(),
			c.Report.LatencyPercentile(50).Seconds(),
			c.Report.LatencyPercentile(95).Seconds(),
		)
	}
	if ablationOutput != "" {
		cmd.Printf("Wrote %s\n", ablationOutput)
	}

	if report.Failures() == len(report.Cells) {
		return errors.New("ablation failed: every combination failed")
	}
	return nil
}

// splitList returns the non-empty comma-separated items of s.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseInts(flag, s string) ([]int, error) {
	items := splitList(s)
	out := make([]int, 0, len(items))
	for _, item := range items {
		n, err := strconv.Atoi(item)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %q is not a number", domain.ErrInvalidInput, flag, item)
		}
		out = append(out, n)
	}
	return out, nil
}
