package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List indexed courses",
	RunE:  runCourses,
}

var coursesDeleteCmd = &cobra.Command{
	Use:   "delete <title>",
	Short: "Remove a course and its content from the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runCoursesDelete,
}

func init() {
	coursesCmd.AddCommand(coursesDeleteCmd)
	rootCmd.AddCommand(coursesCmd)
}

func runCourses(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	titles, err := a.Store.CourseTitles(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(titles) == 0 {
		fmt.Fprintln(out, "No courses indexed. Run 'coursepilot ingest' first.")
		return nil
	}
	for _, t := range titles {
		outline, err := a.Store.Outline(ctx, t)
		if err != nil {
			fmt.Fprintf(out, "  - %s\n", t)
			continue
		}
		fmt.Fprintf(out, "  - %s (%d lessons)\n", t, len(outline.Lessons))
	}
	fmt.Fprintf(out, "%d courses, %d chunks\n", a.Store.CourseCount(), a.Store.ChunkCount())
	return nil
}

func runCoursesDelete(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Store.DeleteCourse(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted course %q\n", args[0])
	return nil
}
