package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/coursepilot/coursepilot/internal/llm"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Chat starts a REPL against the indexed course materials. The session
keeps short conversation history so follow-up questions work.

Commands inside the session:
  /clear    forget the conversation history
  /courses  list indexed courses
  /exit     leave the session`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	sessionID := uuid.NewString()

	fmt.Fprintf(out, "coursepilot %s - %d courses indexed. Type /exit to quit.\n",
		Version, a.Store.CourseCount())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/exit", "/quit", "exit", "quit":
			return nil
		case "/clear":
			a.Sessions.Clear(sessionID)
			fmt.Fprintln(out, "History cleared.")
			continue
		case "/courses":
			titles, err := a.Store.CourseTitles(ctx)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			for _, t := range titles {
				fmt.Fprintln(out, "  -", t)
			}
			continue
		}

		answer, err := a.Orchestrator.Answer(ctx, sessionID, line)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if ee, ok := llm.AsEndpointError(err); ok {
				fmt.Fprintln(out, ee.Kind.UserMessage())
				continue
			}
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}

		fmt.Fprintln(out, answer.Text)
		printSources(out, answer.Sources)
	}
}
