package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kbquery/internal/core/domain"
)

var (
	chunkOutput    string
	validateOutput string
)

var chunkCmd = &cobra.Command{
	Use:   "chunk [sources.yaml]",
	Short: "Split manifest documents into raw records",
	Long: `Reads every file named by the YAML source manifest, splits the text
into fixed-size windows and writes one JSON record per window.

Windows shorter than the minimum content length are dropped.`,
	Args: cobra.ExactArgs(1),
	RunE: runChunk,
}

var validateCmd = &cobra.Command{
	Use:   "validate [raw.jsonl]",
	Short: "Filter raw records into clean records",
	Long: `Checks each record for an id, a source URI and enough text, normalises
whitespace and dates, and writes the accepted records. Rejections are
counted by reason.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	chunkCmd.Flags().StringVarP(&chunkOutput, "output", "o", "data/raw/records.jsonl", "raw record file to write")
	validateCmd.Flags().StringVarP(&validateOutput, "output", "o", domain.DefaultSourcePath, "clean record file to write")
	rootCmd.AddCommand(chunkCmd)
	rootCmd.AddCommand(validateCmd)
}

func runChunk(cmd *cobra.Command, args []string) error {
	svc, err := requireIngest()
	if err != nil {
		return err
	}

	summary, err := svc.Chunk(cmd.Context(), args[0], chunkOutput)
	if err != nil {
		return fmt.Errorf("chunk failed: %w", err)
	}

	cmd.Printf("Chunked %d sources into %d records\n", summary.Sources, summary.Chunks)
	cmd.Printf("Wrote %s\n", summary.OutputPath)
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	svc, err := requireIngest()
	if err != nil {
		return err
	}

	report, err := svc.Validate(cmd.Context(), args[0], validateOutput)
	if err != nil {
		return fmt.Errorf("validate failed: %w", err)
	}

	cmd.Printf("Accepted %d of %d records\n", len(report.Accepted), report.Total)
	if n := report.RejectedCount(); n > 0 {
		cmd.Printf("Rejected %d:\n", n)
		reasons := make([]string, 0, len(report.Rejected))
		for r := range report.Rejected {
			reasons = append(reasons, string(r))
		}
		sort.Strings(reasons)
		for _, r := range reasons {
			cmd.Printf("  %-16s %d\n", r, report.Rejected[domain.RejectReason(r)])
		}
	}
	cmd.Printf("Wrote %s\n", validateOutput)
	return nil
}
