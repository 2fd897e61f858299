package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Index course documents from a directory",
	Long: `Ingest parses every supported document (.txt, .md, .pdf) in the given
directory, chunks the lesson content and indexes it into the local vector
store. Courses already indexed are skipped, so re-running is safe.

Without an argument the configured docs_dir is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	dir := a.Config.DocsDir
	if len(args) == 1 {
		dir = args[0]
	}

	res, err := a.Ingester.IngestDirectory(ctx, dir)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Courses added:   %d\n", res.CoursesAdded)
	fmt.Fprintf(out, "Chunks added:    %d\n", res.ChunksAdded)
	fmt.Fprintf(out, "Courses skipped: %d (already indexed)\n", res.CoursesSkipped)
	fmt.Fprintf(out, "Files skipped:   %d\n", res.FilesSkipped)
	fmt.Fprintf(out, "Total courses:   %d\n", a.Store.CourseCount())
	return nil
}
