// Package cmd contains the coursepilot CLI commands.
//
// Following the pattern used by kubectl, hugo and other standard Go CLI
// tools, all application logic lives here and main.go stays a minimal entry
// point.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/coursepilot/coursepilot/internal/app"
	"github.com/coursepilot/coursepilot/internal/config"
	"github.com/coursepilot/coursepilot/internal/log"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "coursepilot",
	Short: "coursepilot - chat with your course materials",
	Long: `coursepilot indexes course documents into a local vector store and
answers questions about them through a tool-calling AI assistant.

Run without arguments to start an interactive chat session.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default ~/.coursepilot/config.yaml)")
}

// setup loads the environment, configuration and builds the application.
// Every command goes through here so flags and env behave identically.
func setup(ctx context.Context) (*app.App, error) {
	// A missing .env file is fine; the API key may come from the shell.
	_ = godotenv.Load()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := log.New(log.Config{Level: cfg.SlogLevel(), JSON: cfg.LogJSON})
	slog.SetDefault(logger)

	return app.New(ctx, cfg, logger)
}
