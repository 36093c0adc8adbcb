package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kbquery/internal/core/domain"
)

var historyLimit int

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show index and provider status",
	RunE:  runHealth,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent reindex runs",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "maximum number of runs")
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	svc, err := requireQuery()
	if err != nil {
		return err
	}

	h, err := svc.Health(cmd.Context())
	if err != nil {
		return fmt.Errorf("health failed: %w", err)
	}

	cmd.Printf("Status:    %s\n", h.Status)
	cmd.Printf("Index:     %s\n", presence(h.IndexPresent))
	cmd.Printf("Metadata:  %s\n", presence(h.MetadataPresent))
	if h.Ready {
		cmd.Printf("Resident:  %d rows x %d dims\n", h.Rows, h.Dimension)
	} else {
		cmd.Println("Resident:  no")
	}
	cmd.Printf("Provider:  %s\n", h.ProviderID)
	if h.LastReindex != nil {
		cmd.Printf("Last run:  %s %s (%s)\n",
			h.LastReindex.Status, h.LastReindex.StartedAt.Format(time.RFC3339), h.LastReindex.ID)
	}
	return nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	svc, err := requireQuery()
	if err != nil {
		return err
	}

	runs, err := svc.Runs(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("history failed: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No reindex runs recorded.")
		return nil
	}

	for _, run := range runs {
		cmd.Printf("%s  %-16s %5d rows  %4d rejected  %s\n",
			run.StartedAt.Format(time.RFC3339), run.Status, run.Rows, run.Rejected, run.SourcePath)
		if run.Error != "" {
			cmd.Printf("    %s\n", run.Error)
		}
	}
	return nil
}

func printRun(cmd *cobra.Command, run *domain.ReindexRun) {
	cmd.Printf("Run %s: %s\n", run.ID, run.Status)
	cmd.Printf("  Source:   %s\n", run.SourcePath)
	cmd.Printf("  Accepted: %d, rejected: %d\n", run.Accepted, run.Rejected)
	if run.Rows > 0 {
		cmd.Printf("  Indexed:  %d rows x %d dims\n", run.Rows, run.Dimension)
	}
	if d := run.Duration(); d > 0 {
		cmd.Printf("  Took:     %s\n", d.Round(time.Millisecond))
	}
}

func presence(ok bool) string {
	if ok {
		return "present"
	}
	return "missing"
}
