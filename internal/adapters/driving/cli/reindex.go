package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kbquery/internal/adapters/driven/progress"
)

var reindexNoProgress bool

var reindexCmd = &cobra.Command{
	Use:   "reindex [source.jsonl]",
	Short: "Rebuild the index from clean records",
	Long: `Validates the records, embeds them, builds a new vector index with its
metadata file, persists both and swaps them in. When no path is given the
configured index.source_path is used.

A failed rebuild leaves the previous index in place.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReindex,
}

func init() {
	reindexCmd.Flags().BoolVar(&reindexNoProgress, "no-progress", false, "disable the progress bar")
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, args []string) error {
	svc, err := requireQuery()
	if err != nil {
		return err
	}
	if current != nil && !reindexNoProgress {
		current.query.SetProgress(progress.ForTerminal())
	}

	path := ""
	if len(args) == 1 {
		path = args[0]
	}

	run, err := svc.Reindex(cmd.Context(), path)
	if run != nil {
		printRun(cmd, run)
	}
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	return nil
}
