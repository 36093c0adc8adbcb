package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kbquery/internal/adapters/driven/watcher"
	"github.com/custodia-labs/kbquery/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/kbquery/internal/core/domain"
	"github.com/custodia-labs/kbquery/internal/core/ports/driven"
	"github.com/custodia-labs/kbquery/internal/core/ports/driving"
	"github.com/custodia-labs/kbquery/internal/logger"
)

var (
	serveAddr  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Starts the JSON API:

  POST /query          {"question": "...", "top_k": 5}
  POST /reindex        {"source_path": "..."}
  GET  /reindex/runs   ?limit=20
  GET  /health
  POST /ingest         {"manifest_path": "...", "output_path": "..."}

With --watch the configured source file is watched and every change
triggers a reindex.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reindex when the source file changes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if !verbose {
		logger.SetLevel(logger.LevelInfo)
	}

	query, err := requireQuery()
	if err != nil {
		return err
	}
	ingest, err := requireIngest()
	if err != nil {
		return err
	}

	addr := serveAddr
	sourcePath := domain.DefaultSourcePath
	if current != nil {
		if addr == "" {
			addr = current.settings.Server.Addr
		}
		sourcePath = current.settings.Index.SourcePath

		if err := current.query.Load(cmd.Context()); err != nil {
			logger.Warn("index not loaded: %v", err)
		}
	}
	if addr == "" {
		addr = domain.DefaultServerAddr
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if serveWatch {
		w, err := watcher.NewFSNotifyWatcher(watcher.DefaultDebounce)
		if err != nil {
			return fmt.Errorf("starting watcher: %w", err)
		}
		defer func() { _ = w.Stop() }()

		if err := watchSource(ctx, w, query, sourcePath); err != nil {
			return err
		}
	}

	logger.Info("listening on %s", addr)
	return httpapi.NewServer(query, ingest, addr).Start(ctx)
}

// watchSource reindexes from path whenever the watcher reports a change.
func watchSource(ctx context.Context, w driven.SourceWatcher, query driving.QueryService, path string) error {
	events, err := w.Watch(ctx, path)
	if err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	logger.Info("watching %s", path)

	go func() {
		for changed := range events {
			logger.Info("source changed: %s", changed)
			run, err := query.Reindex(ctx, changed)
			switch {
			case errors.Is(err, domain.ErrReindexInProgress):
				logger.Warn("reindex skipped: already running")
			case err != nil:
				logger.Error("reindex failed: %v", err)
			default:
				logger.Info("reindexed %d rows (run %s)", run.Rows, run.ID)
			}
		}
	}()
	return nil
}
