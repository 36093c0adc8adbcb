// Package cli provides the kbquery command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/kbquery/internal/core/domain"
	"github.com/custodia-labs/kbquery/internal/core/ports/driving"
	"github.com/custodia-labs/kbquery/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	configDir string
	envFile   string
	verbose   bool
)

// Services used by commands. Tests inject mocks directly.
var (
	settingsService driving.SettingsService
	queryService    driving.QueryService
	ingestService   driving.IngestService

	// current is the wired application, nil until a command needs it.
	current *app
)

var rootCmd = &cobra.Command{
	Use:   "kbquery",
	Short: "Retrieval over a local knowledge base",
	Long: `kbquery chunks documents into records, validates them, embeds them
into an exact vector index and answers questions with the most similar
passages and their provenance.

Typical flow:
  kbquery chunk sources.yaml -o data/raw/records.jsonl
  kbquery validate data/raw/records.jsonl -o data/processed/clean.jsonl
  kbquery reindex
  kbquery query "Do I need a visa?"`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.kbquery)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with KBQ_* overrides")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command until it finishes or the process is signalled.
func Execute(v string) error {
	if v != "" {
		version = v
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer shutdown()

	return rootCmd.ExecuteContext(ctx)
}

func setup(_ *cobra.Command, _ []string) error {
	logger.SetLevel(logger.LevelWarn)
	if verbose {
		logger.SetVerbose(true)
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", envFile, err)
	}

	if settingsService == nil {
		svc, err := newSettingsService(configDir)
		if err != nil {
			return err
		}
		settingsService = svc
	}
	return nil
}

// loadSettings returns validated settings.
func loadSettings() (*domain.AppSettings, error) {
	if settingsService == nil {
		return nil, errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return settings, nil
}

// requireQuery wires the query service on first use.
func requireQuery() (driving.QueryService, error) {
	if queryService != nil {
		return queryService, nil
	}
	if err := wire(); err != nil {
		return nil, err
	}
	return queryService, nil
}

// requireIngest wires the ingest service on first use.
func requireIngest() (driving.IngestService, error) {
	if ingestService != nil {
		return ingestService, nil
	}
	if err := wire(); err != nil {
		return nil, err
	}
	return ingestService, nil
}

func wire() error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	a, err := newApp(settings)
	if err != nil {
		return err
	}
	current = a
	queryService = a.query
	ingestService = a.ingest
	return nil
}

func shutdown() {
	if current == nil {
		return
	}
	if err := current.Close(); err != nil {
		logger.Warn("shutdown: %v", err)
	}
	current = nil
}
