package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coursepilot/coursepilot/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serve starts the REST API. On startup the configured docs_dir is
ingested (already-indexed courses are skipped) so the server always answers
against the current document set.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// Startup ingestion is best-effort: a missing docs directory just means
	// an empty index, not a dead server.
	if _, statErr := os.Stat(a.Config.DocsDir); statErr == nil {
		if _, err := a.Ingester.IngestDirectory(ctx, a.Config.DocsDir); err != nil {
			a.Logger.Warn("startup ingestion failed", "dir", a.Config.DocsDir, "error", err)
		}
	}

	srv := api.NewServer(a.Orchestrator, a.Store, a.Sessions, a.Logger.With("component", "api"))
	return srv.Run(ctx, a.Config.ListenAddr)
}
