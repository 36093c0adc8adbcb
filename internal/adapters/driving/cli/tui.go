package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kbquery/internal/adapters/driving/tui"
	"github.com/custodia-labs/kbquery/internal/logger"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal interface for asking questions and
checking index status.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Ask / Select / Expand
  c        - Copy passage
  r        - Reindex (status view)
  Esc      - Back
  q        - Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	query, err := requireQuery()
	if err != nil {
		return err
	}

	// Log lines would corrupt the alt screen.
	logger.SetLevel(logger.LevelError)

	app, err := tui.NewApp(&tui.Ports{Query: query})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
