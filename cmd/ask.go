package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/coursepilot/coursepilot/internal/tools"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question about the indexed course materials",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	query := strings.Join(args, " ")
	answer, err := a.Orchestrator.Answer(ctx, uuid.NewString(), query)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, answer.Text)
	printSources(out, answer.Sources)
	return nil
}

// printSources renders tool citations under an answer, deduplicated and in
// execution order.
func printSources(out io.Writer, sources []tools.Source) {
	if len(sources) == 0 {
		return
	}

	seen := make(map[string]bool, len(sources))
	var lines []string
	for _, s := range sources {
		label := s.Course
		if s.Lesson != nil {
			label = fmt.Sprintf("%s - Lesson %d", s.Course, *s.Lesson)
		}
		if seen[label] {
			continue
		}
		seen[label] = true
		if s.Link != "" {
			label += " (" + s.Link + ")"
		}
		lines = append(lines, "  - "+label)
	}

	fmt.Fprintln(out, "\nSources:")
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}
