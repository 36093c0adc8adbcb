package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	storagefile "github.com/custodia-labs/kbquery/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/kbquery/internal/core/domain"
	"github.com/custodia-labs/kbquery/internal/core/services"
)

var (
	evalOutput string
	evalTopK   int
)

var evalCmd = &cobra.Command{
	Use:   "eval [test.jsonl]",
	Short: "Measure top-1 retrieval accuracy and latency",
	Long: `Runs every {"question","expected_url"} line of the test file through the
index and reports the share whose top hit came from the expected source
(EM@1) together with median and 95th percentile query latency.

Per-question rows are written as CSV to --output.`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVarP(&evalOutput, "output", "o", "results/eval_results.csv", "CSV report to write (empty to skip)")
	evalCmd.Flags().IntVarP(&evalTopK, "top-k", "k", domain.DefaultTopK, "results retrieved per question")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	query, err := requireQuery()
	if err != nil {
		return err
	}

	svc := services.NewEvalService(query, storagefile.NewEvalStore())
	report, err := svc.Evaluate(cmd.Context(), args[0], evalOutput, evalTopK)
	if err != nil {
		return fmt.Errorf("eval failed: %w", err)
	}

	cmd.Printf("EM@1=%.3f p50=%.3fs p95=%.3fs over %d questions\n",
		report.ExactMatch(),
		report.LatencyPercentile(50).Seconds(),
		report.LatencyPercentile(95).Seconds(),
		len(report.Results),
	)
	if evalOutput != "" {
		cmd.Printf("Wrote %s\n", evalOutput)
	}
	return nil
}
